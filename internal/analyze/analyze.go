package analyze

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"kvmix/internal/chart"
	"kvmix/internal/histogram"
	"kvmix/internal/logger"
	"kvmix/internal/mix"
	"kvmix/internal/runlog"
)

// Config はAggregatorの設定
type Config struct {
	Dir   string    // ログの入出力ディレクトリ
	Mixes []mix.Mix // 処理するMix
	Bins  int       // ヒストグラムのビン数
}

// DefaultConfig はデフォルト設定を返す
func DefaultConfig() Config {
	return Config{
		Dir:   ".",
		Mixes: mix.Defaults(),
		Bins:  histogram.DefaultBins,
	}
}

// MixResult はMix1件分の処理結果
type MixResult struct {
	Mix mix.Mix

	RequestFiles  []string
	IntervalFiles []string
	ParsedFiles   int
	SkippedRows   int

	Reads     int
	Writes    int
	Intervals int

	ReadSummary     histogram.Summary
	WriteSummary    histogram.Summary
	IntervalSummary histogram.Summary

	Images  []string
	Removed []string

	SkipReason string // 空でなければそのMixはスキップされた
	Err        error
}

// Report は全Mixの処理結果
type Report struct {
	StartTime time.Time
	EndTime   time.Time
	Mixes     []MixResult
}

// Aggregator はワーカーごとのログを集計する
type Aggregator struct {
	config Config
	log    *logger.Logger
}

// New は新しいAggregatorを作成する
func New(config Config) *Aggregator {
	if config.Dir == "" {
		config.Dir = "."
	}
	if config.Bins <= 0 {
		config.Bins = histogram.DefaultBins
	}
	if len(config.Mixes) == 0 {
		config.Mixes = mix.Defaults()
	}
	return &Aggregator{
		config: config,
		log:    logger.Default,
	}
}

// SetLogger はロガーを差し替える
func (a *Aggregator) SetLogger(l *logger.Logger) {
	a.log = l
}

// Config は設定を返す
func (a *Aggregator) Config() Config {
	return a.config
}

// Run は全てのMixを順番に処理する
// 画像の書き込みに失敗したMixがあればそのエラーをまとめて返す
func (a *Aggregator) Run() (*Report, error) {
	report := &Report{StartTime: time.Now()}

	var errs []error
	for _, m := range a.config.Mixes {
		res := a.processMix(m)
		if res.Err != nil {
			a.log.Error(m.ID(), "Mix failed: %v", res.Err)
			errs = append(errs, fmt.Errorf("mix %s: %w", m.ID(), res.Err))
		}
		report.Mixes = append(report.Mixes, res)
	}

	report.EndTime = time.Now()
	if len(errs) > 0 {
		return report, errors.Join(errs...)
	}
	a.log.Success("", "All done.")
	return report, nil
}

// processMix はMix1件分を discover → merge → render → cleanup の順に処理する
func (a *Aggregator) processMix(m mix.Mix) MixResult {
	scope := m.ID()
	res := MixResult{Mix: m}

	requests := pipeline[runlog.RequestEntry]{
		kind:    "request",
		pattern: m.RequestLogPattern(a.config.Dir),
		parse:   runlog.ReadRequests,
		render: func(rows []runlog.RequestEntry) error {
			return a.renderLatency(m, rows, &res)
		},
	}
	reqOut, err := requests.run(a, scope)
	res.RequestFiles = reqOut.files
	res.ParsedFiles += reqOut.parsedFiles
	res.SkippedRows += reqOut.skippedRows
	if err != nil {
		res.Err = err
		return res
	}
	if len(reqOut.files) == 0 {
		a.log.Info(scope, "No request logs for %s, skipping", scope)
		res.SkipReason = "no request logs"
		return res
	}
	if !reqOut.rendered {
		a.log.Info(scope, "No valid request data for %s", scope)
		res.SkipReason = "no valid request data"
	}

	intervals := pipeline[float64]{
		kind:    "interval",
		pattern: m.IntervalLogPattern(a.config.Dir),
		parse:   runlog.ReadIntervals,
		render: func(values []float64) error {
			return a.renderIntervals(m, values, &res)
		},
	}
	ivOut, err := intervals.run(a, scope)
	res.IntervalFiles = ivOut.files
	res.ParsedFiles += ivOut.parsedFiles
	res.SkippedRows += ivOut.skippedRows
	if err != nil {
		res.Err = err
		return res
	}
	switch {
	case len(ivOut.files) == 0:
		a.log.Info(scope, "No interval logs for %s, skipping", scope)
	case !ivOut.rendered:
		a.log.Info(scope, "No valid interval data for %s", scope)
	}

	files := append(append([]string{}, reqOut.files...), ivOut.files...)
	res.Removed = a.cleanup(scope, files)
	return res
}

// renderLatency は/getと/putのレスポンスタイム分布を描画する
func (a *Aggregator) renderLatency(m mix.Mix, rows []runlog.RequestEntry, res *MixResult) error {
	reads, writes := splitLatencies(rows)
	res.Reads = len(reads)
	res.Writes = len(writes)
	res.ReadSummary = histogram.Summarize(reads)
	res.WriteSummary = histogram.Summarize(writes)

	plots := []struct {
		file   string
		title  string
		values []float64
	}{
		{m.ReadLatencyImage(), "Read Latency Distribution", reads},
		{m.WriteLatencyImage(), "Write Latency Distribution", writes},
	}

	for _, pl := range plots {
		out := filepath.Join(a.config.Dir, pl.file)
		h := histogram.New(pl.values, a.config.Bins)
		title := fmt.Sprintf("%s (%s)", pl.title, m.Title())
		if err := chart.Render(out, title, "Response Time (ms)", h); err != nil {
			return err
		}
		res.Images = append(res.Images, out)
		a.log.Success(m.ID(), "Saved %s (%d values)", out, h.Total)
	}
	return nil
}

// renderIntervals はread-after-writeインターバルの分布を描画する
func (a *Aggregator) renderIntervals(m mix.Mix, values []float64, res *MixResult) error {
	res.Intervals = len(values)
	res.IntervalSummary = histogram.Summarize(values)

	out := filepath.Join(a.config.Dir, m.IntervalsImage())
	h := histogram.New(values, a.config.Bins)
	title := fmt.Sprintf("Read-After-Write Interval Distribution (%s)", m.Title())
	if err := chart.Render(out, title, "Interval (ms)", h); err != nil {
		return err
	}
	res.Images = append(res.Images, out)
	a.log.Success(m.ID(), "Saved %s (%d values)", out, h.Total)
	return nil
}

// splitLatencies は/getと/putの定義済みレスポンスタイムを取り出す
func splitLatencies(rows []runlog.RequestEntry) (reads, writes []float64) {
	for _, r := range rows {
		if !r.HasResponseTime {
			continue
		}
		switch {
		case r.IsRead():
			reads = append(reads, r.ResponseTime)
		case r.IsWrite():
			writes = append(writes, r.ResponseTime)
		}
	}
	return reads, writes
}

// cleanup は消費したログを削除する。失敗しても警告のみ
func (a *Aggregator) cleanup(scope string, files []string) []string {
	removed := make([]string, 0, len(files))
	for _, fn := range files {
		if err := os.Remove(fn); err != nil {
			a.log.Warn(scope, "Could not remove %s: %v", fn, err)
			continue
		}
		removed = append(removed, fn)
		a.log.Info(scope, "Removed %s", fn)
	}
	return removed
}

// Format は結果をフォーマットして返す
func (r *Report) Format() string {
	var b strings.Builder

	b.WriteString(`
================================================================================
                              AGGREGATION REPORT
================================================================================
`)
	fmt.Fprintf(&b, "  Duration: %v\n\n", r.EndTime.Sub(r.StartTime).Round(time.Millisecond))
	fmt.Fprintf(&b, "  %-7s %-10s %8s %10s %10s %10s %10s\n", "MIX", "SERIES", "COUNT", "MEAN", "P50", "P95", "P99")
	b.WriteString("  " + strings.Repeat("-", 72) + "\n")

	for _, res := range r.Mixes {
		if res.SkipReason != "" && len(res.Images) == 0 {
			fmt.Fprintf(&b, "  %-7s skipped: %s\n", res.Mix.ID(), res.SkipReason)
			continue
		}
		if res.Err != nil {
			fmt.Fprintf(&b, "  %-7s failed: %v\n", res.Mix.ID(), res.Err)
			continue
		}
		rows := []struct {
			series string
			s      histogram.Summary
		}{
			{"read", res.ReadSummary},
			{"write", res.WriteSummary},
			{"interval", res.IntervalSummary},
		}
		for _, row := range rows {
			fmt.Fprintf(&b, "  %-7s %-10s %8d %10.2f %10.2f %10.2f %10.2f\n",
				res.Mix.ID(), row.series, row.s.Count, row.s.Mean, row.s.P50, row.s.P95, row.s.P99)
		}
		fmt.Fprintf(&b, "  %-7s %d files removed, %d malformed rows skipped\n", "", len(res.Removed), res.SkippedRows)
	}

	b.WriteString("================================================================================")
	return b.String()
}
