package mix

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// Mix は書き込み:読み込みの比率を表す
type Mix struct {
	Write int
	Read  int
}

// New はMixを作成する
func New(write, read int) Mix {
	return Mix{Write: write, Read: read}
}

// Defaults は標準の4種類のMixを返す
func Defaults() []Mix {
	return []Mix{
		{Write: 1, Read: 99},
		{Write: 10, Read: 90},
		{Write: 50, Read: 50},
		{Write: 90, Read: 10},
	}
}

// Parse は "50_50", "50/50", "50:50" 形式の文字列を解析する
func Parse(s string) (Mix, error) {
	s = strings.TrimSpace(s)
	sep := strings.IndexAny(s, "_/:")
	if sep < 0 {
		return Mix{}, fmt.Errorf("invalid mix %q: expected WRITE_READ", s)
	}

	write, err := strconv.Atoi(s[:sep])
	if err != nil {
		return Mix{}, fmt.Errorf("invalid mix %q: write ratio: %w", s, err)
	}
	read, err := strconv.Atoi(s[sep+1:])
	if err != nil {
		return Mix{}, fmt.Errorf("invalid mix %q: read ratio: %w", s, err)
	}

	m := Mix{Write: write, Read: read}
	if err := m.Validate(); err != nil {
		return Mix{}, err
	}
	return m, nil
}

// ParseList はカンマ区切りのMixリストを解析する
func ParseList(items []string) ([]Mix, error) {
	var mixes []Mix
	for _, item := range items {
		for _, part := range strings.Split(item, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			m, err := Parse(part)
			if err != nil {
				return nil, err
			}
			mixes = append(mixes, m)
		}
	}
	return mixes, nil
}

// Validate は比率を検証する
func (m Mix) Validate() error {
	if m.Write < 0 || m.Read < 0 {
		return fmt.Errorf("invalid mix %s: ratios must be non-negative", m.ID())
	}
	if m.Write == 0 && m.Read == 0 {
		return fmt.Errorf("invalid mix %s: at least one ratio must be positive", m.ID())
	}
	return nil
}

// ID はファイル名に使う識別子を返す（例: 50_50）
func (m Mix) ID() string {
	return fmt.Sprintf("%d_%d", m.Write, m.Read)
}

// Title はグラフタイトル用の表記を返す（例: 50/50）
func (m Mix) Title() string {
	return fmt.Sprintf("%d/%d", m.Write, m.Read)
}

func (m Mix) String() string {
	return m.ID()
}

// WriteFraction は書き込みの割合を返す（0.0〜1.0）
func (m Mix) WriteFraction() float64 {
	total := m.Write + m.Read
	if total == 0 {
		return 0
	}
	return float64(m.Write) / float64(total)
}

// RequestLogPattern はリクエストログのglobパターンを返す
func (m Mix) RequestLogPattern(dir string) string {
	return filepath.Join(dir, "run_"+m.ID()+"_requests*.csv")
}

// IntervalLogPattern はインターバルログのglobパターンを返す
// 1_9 が 1_99 のログを拾わないようにMix IDの直後の区切りまで含める
func (m Mix) IntervalLogPattern(dir string) string {
	return filepath.Join(dir, "intervals_"+m.ID()+"_*.csv")
}

// RequestLogName はワーカーが書き出すリクエストログのファイル名を返す
func (m Mix) RequestLogName(suffix string) string {
	return fmt.Sprintf("run_%s_requests_%s.csv", m.ID(), suffix)
}

// IntervalLogName はワーカーが書き出すインターバルログのファイル名を返す
func (m Mix) IntervalLogName(suffix string) string {
	return fmt.Sprintf("intervals_%s_%s.csv", m.ID(), suffix)
}

// ReadLatencyImage は読み込みレイテンシ画像のファイル名を返す
func (m Mix) ReadLatencyImage() string {
	return "read_latency_" + m.ID() + ".png"
}

// WriteLatencyImage は書き込みレイテンシ画像のファイル名を返す
func (m Mix) WriteLatencyImage() string {
	return "write_latency_" + m.ID() + ".png"
}

// IntervalsImage はインターバル分布画像のファイル名を返す
func (m Mix) IntervalsImage() string {
	return "intervals_" + m.ID() + ".png"
}
