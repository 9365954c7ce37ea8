package analyze

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
)

// pipeline はログ種別ごとの discover → parse → merge → render の定義
type pipeline[T any] struct {
	kind    string                            // ログに出す種別名（request / interval）
	pattern string                            // globパターン
	parse   func(io.Reader) ([]T, int, error) // 必要な列だけを取り出す
	render  func(rows []T) error
}

// outcome はパイプライン1回分の結果
type outcome struct {
	files       []string // 見つかった全ファイル（削除対象）
	parsedFiles int      // 1行以上を返したファイル数
	rows        int
	skippedRows int
	rendered    bool
}

// discover はパターンに一致するファイルを名前順で返す
func discover(pattern string) ([]string, error) {
	files, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("glob %s: %w", pattern, err)
	}
	sort.Strings(files)
	return files, nil
}

// run はパイプラインを実行する
// ファイルが無い・有効な行が無い場合は render を呼ばない
func (p pipeline[T]) run(a *Aggregator, scope string) (outcome, error) {
	var out outcome

	files, err := discover(p.pattern)
	if err != nil {
		return out, err
	}
	out.files = files
	if len(files) == 0 {
		return out, nil
	}

	a.log.Info(scope, "Merging %d %s logs", len(files), p.kind)

	var rows []T
	for _, fn := range files {
		parsed, skipped, err := parseFile(fn, p.parse)
		out.skippedRows += skipped
		if err != nil {
			a.log.Warn(scope, "Could not parse %s: %v", fn, err)
			continue
		}
		if skipped > 0 {
			a.log.Debug(scope, "Skipped %d malformed rows in %s", skipped, fn)
		}
		if len(parsed) == 0 {
			a.log.Debug(scope, "No rows in %s", fn)
			continue
		}
		out.parsedFiles++
		rows = append(rows, parsed...)
	}
	out.rows = len(rows)

	if len(rows) == 0 {
		return out, nil
	}

	if err := p.render(rows); err != nil {
		return out, err
	}
	out.rendered = true
	return out, nil
}

func parseFile[T any](path string, parse func(io.Reader) ([]T, int, error)) ([]T, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	return parse(f)
}
