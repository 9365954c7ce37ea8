package client

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"kvmix/internal/metrics"
	"kvmix/internal/mix"
	"kvmix/internal/runlog"
)

// ErrAlreadyFlushed は同じWorkerを二度書き出そうとしたことを示す
var ErrAlreadyFlushed = errors.New("worker logs already flushed")

// Worker はドライバーワーカー1つ分の状態
// 同じWorkerを共有するユーザーは全てここに記録する
type Worker struct {
	suffix  string
	mix     mix.Mix
	metrics *metrics.Metrics

	mu        sync.Mutex
	requests  []runlog.RequestEntry
	intervals []float64
	versions  map[string]float64 // キーごとにこのWorkerの誰かが最後に書いた時刻（ms）
	flushed   bool
}

// NewWorker は新しいWorkerを作成する
func NewWorker(m mix.Mix) *Worker {
	return &Worker{
		suffix:   newSuffix(),
		mix:      m,
		metrics:  metrics.New(),
		versions: make(map[string]float64),
	}
}

// newSuffix はUUIDの先頭8桁の16進数を返す
func newSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// Suffix はログファイル名に付くサフィックスを返す
func (w *Worker) Suffix() string {
	return w.suffix
}

// Mix はWorkerのMixを返す
func (w *Worker) Mix() mix.Mix {
	return w.mix
}

// Metrics はメトリクスを返す
func (w *Worker) Metrics() *metrics.Metrics {
	return w.metrics
}

// StaleReads はstale read数を返す
func (w *Worker) StaleReads() uint64 {
	return w.metrics.StaleReads()
}

// Requests は記録済みリクエストのコピーを返す
func (w *Worker) Requests() []runlog.RequestEntry {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]runlog.RequestEntry(nil), w.requests...)
}

// Intervals は記録済みインターバルのコピーを返す
func (w *Worker) Intervals() []float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]float64(nil), w.intervals...)
}

// record は完了したリクエストを1件記録する
// 失敗したリクエストのレスポンスタイムは未定義になる
func (w *Worker) record(method, endpoint string, ok bool, latency time.Duration, length int) {
	entry := runlog.RequestEntry{
		Timestamp:      nowMs(),
		Type:           method,
		Name:           endpoint,
		Status:         runlog.StatusOK,
		ResponseLength: int64(length),
	}
	if ok {
		entry.ResponseTime = float64(latency.Microseconds()) / 1000
		entry.HasResponseTime = true
	} else {
		entry.Status = runlog.StatusFail
	}

	w.mu.Lock()
	w.requests = append(w.requests, entry)
	w.mu.Unlock()

	w.metrics.Record(endpoint, ok, latency)
}

// setVersion はkeyへの書き込み時刻を記録する
func (w *Worker) setVersion(key string, ts float64) {
	w.mu.Lock()
	w.versions[key] = ts
	w.mu.Unlock()
}

// version はkeyへの最後の書き込み時刻を返す
func (w *Worker) version(key string) (float64, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	ts, ok := w.versions[key]
	return ts, ok
}

func (w *Worker) addInterval(ms float64) {
	w.mu.Lock()
	w.intervals = append(w.intervals, ms)
	w.mu.Unlock()
}

// Flush はインターバルログとリクエストログをdirに書き出し、そのパスを返す
// 途中のファイルを集計側が拾わないよう一時ファイルからrenameする
func (w *Worker) Flush(dir string) (requestsPath, intervalsPath string, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.flushed {
		return "", "", ErrAlreadyFlushed
	}
	w.flushed = true

	intervalsPath = filepath.Join(dir, w.mix.IntervalLogName(w.suffix))
	if err := writeAtomic(intervalsPath, func(f *os.File) error {
		return runlog.WriteIntervals(f, w.intervals)
	}); err != nil {
		return "", "", err
	}

	requestsPath = filepath.Join(dir, w.mix.RequestLogName(w.suffix))
	if err := writeAtomic(requestsPath, func(f *os.File) error {
		return runlog.WriteRequests(f, w.requests)
	}); err != nil {
		return "", intervalsPath, err
	}

	return requestsPath, intervalsPath, nil
}

func writeAtomic(path string, write func(*os.File) error) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create %s: %w", tmp, err)
	}
	if err := write(f); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename %s: %w", tmp, err)
	}
	return nil
}

func nowMs() float64 {
	return float64(time.Now().UnixNano()) / 1e6
}
