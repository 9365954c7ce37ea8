package scenario

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"kvmix/internal/client"
	"kvmix/internal/logger"
	"kvmix/internal/metrics"
	"kvmix/internal/mix"
)

// Config はシナリオの設定
type Config struct {
	Name        string        // シナリオ名
	Description string        // 説明
	Mix         mix.Mix       // write:read比
	Duration    time.Duration // 実行時間
	Workers     int           // ワーカー数（ワーカーごとにログが2ファイル出る）
	OutDir      string        // ログの出力先

	// ウォームアップ設定
	Warmup            bool // 開始前に全キーを書き込む
	WarmupConcurrency int  // ウォームアップの並列数

	Client client.Config
}

// DefaultConfig はデフォルト設定を返す
func DefaultConfig() Config {
	return Config{
		Name:              "default",
		Description:       "Default read-heavy run",
		Mix:               mix.New(1, 99),
		Duration:          30 * time.Second,
		Workers:           1,
		OutDir:            ".",
		Warmup:            true,
		WarmupConcurrency: 16,
		Client:            client.DefaultConfig(),
	}
}

// Validate は設定を検証する
func (c Config) Validate() error {
	if err := c.Mix.Validate(); err != nil {
		return fmt.Errorf("invalid mix: %w", err)
	}
	if c.Duration <= 0 {
		return fmt.Errorf("duration must be positive, got %v", c.Duration)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	}
	return c.clientConfig().Validate()
}

// clientConfig はMixの比率をタスクの重みに反映したクライアント設定を返す
func (c Config) clientConfig() client.Config {
	cc := c.Client
	cc.WriteWeight = c.Mix.Write
	cc.ReadWeight = c.Mix.Read
	return cc
}

// WorkerResult はワーカー1つ分の結果
type WorkerResult struct {
	Suffix    string
	Snapshot  metrics.Snapshot
	Intervals int
	Files     []string
	Err       error
}

// Result はシナリオ実行結果
type Result struct {
	ScenarioName string
	Mix          mix.Mix
	StartTime    time.Time
	EndTime      time.Time
	Duration     time.Duration

	// ウォームアップ
	WarmupFailures int

	// 全ワーカー合計
	TotalRequests   uint64
	SuccessRequests uint64
	FailedRequests  uint64
	StaleReads      uint64
	Intervals       int
	ErrorRate       float64
	AvgLatency      time.Duration
	P99Latency      time.Duration

	Workers []WorkerResult
}

// Files は書き出された全ログファイルを返す
func (r *Result) Files() []string {
	var files []string
	for _, w := range r.Workers {
		files = append(files, w.Files...)
	}
	return files
}

// Engine はシナリオ実行エンジン
type Engine struct {
	config    Config
	exporter  *metrics.Exporter
	transport client.Transport

	mu      sync.RWMutex
	running bool
	clients []*client.Client
}

// New は新しいEngineを作成する
func New(config Config) *Engine {
	return &Engine{
		config: config,
	}
}

// SetExporter はPrometheusへの転送先を設定する
func (e *Engine) SetExporter(exporter *metrics.Exporter) {
	e.exporter = exporter
}

// SetTransport はウォームアップとクライアントが使うTransportを差し替える
func (e *Engine) SetTransport(t client.Transport) {
	e.transport = t
}

// Run はシナリオを実行する
// 各ワーカーは自分のログを1回だけ書き出す
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	if err := e.config.Validate(); err != nil {
		return nil, err
	}

	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return nil, fmt.Errorf("scenario is already running")
	}
	e.running = true
	e.clients = nil
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.running = false
		e.mu.Unlock()
	}()

	scope := e.config.Mix.ID()
	logger.Info(scope, "=== Scenario '%s' started ===", e.config.Name)
	logger.Info(scope, "Description: %s", e.config.Description)

	result := &Result{
		ScenarioName: e.config.Name,
		Mix:          e.config.Mix,
		StartTime:    time.Now(),
	}

	cc := e.config.clientConfig()
	transport := e.transport
	if transport == nil {
		transport = client.NewHTTP(cc.Timeout)
	}

	if e.config.Warmup {
		failures, err := client.Warmup(ctx, transport, cc.Leader, cc.NumKeys, e.config.WarmupConcurrency)
		result.WarmupFailures = failures
		if err != nil {
			return nil, fmt.Errorf("warm-up: %w", err)
		}
	}

	result.Workers = make([]WorkerResult, e.config.Workers)
	var g errgroup.Group
	for i := range e.config.Workers {
		w := client.NewWorker(e.config.Mix)
		if e.exporter != nil {
			w.Metrics().Export(e.exporter, scope)
		}
		c := client.NewWithTransport(cc, w, transport)

		e.mu.Lock()
		e.clients = append(e.clients, c)
		e.mu.Unlock()

		g.Go(func() error {
			result.Workers[i] = e.runWorker(ctx, c)
			return result.Workers[i].Err
		})
	}
	err := g.Wait()

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(result.StartTime)
	collectResults(result)

	if err != nil {
		var errs []error
		for _, w := range result.Workers {
			if w.Err != nil {
				errs = append(errs, fmt.Errorf("worker %s: %w", w.Suffix, w.Err))
			}
		}
		return result, errors.Join(errs...)
	}

	logger.Success(scope, "=== Scenario '%s' completed (%d files written) ===", e.config.Name, len(result.Files()))
	return result, nil
}

// runWorker は1ワーカーを実行し、終了後にログを書き出す
func (e *Engine) runWorker(ctx context.Context, c *client.Client) WorkerResult {
	w := c.Worker()
	snapshot := c.RunFor(ctx, e.config.Duration)

	res := WorkerResult{
		Suffix:    w.Suffix(),
		Snapshot:  snapshot,
		Intervals: len(w.Intervals()),
	}

	logger.Info(w.Suffix(), "Total stale reads = %d", w.StaleReads())

	reqPath, ivPath, err := w.Flush(e.config.OutDir)
	if ivPath != "" {
		res.Files = append(res.Files, ivPath)
		logger.Info(w.Suffix(), "Wrote interval data to %s", ivPath)
	}
	if err != nil {
		res.Err = err
		return res
	}
	res.Files = append(res.Files, reqPath)
	logger.Info(w.Suffix(), "Wrote request log to %s", reqPath)
	return res
}

// collectResults はワーカーごとの結果を合計する
func collectResults(result *Result) {
	var latencySum time.Duration
	for _, w := range result.Workers {
		s := w.Snapshot
		result.TotalRequests += s.TotalRequests
		result.SuccessRequests += s.SuccessRequests
		result.FailedRequests += s.FailedRequests
		result.StaleReads += s.StaleReads
		result.Intervals += w.Intervals
		latencySum += s.AverageLatency * time.Duration(s.TotalRequests)
		if s.P99Latency > result.P99Latency {
			result.P99Latency = s.P99Latency
		}
	}
	if result.TotalRequests > 0 {
		result.ErrorRate = float64(result.FailedRequests) / float64(result.TotalRequests)
		result.AvgLatency = latencySum / time.Duration(result.TotalRequests)
	}
}

// Report は結果をフォーマットして返す
func (r *Result) Report() string {
	var b strings.Builder

	fmt.Fprintf(&b, `
================================================================================
                         SCENARIO REPORT: %s (%s)
================================================================================

EXECUTION SUMMARY
-----------------
  Start Time:     %s
  End Time:       %s
  Duration:       %v
  Warm-up Fails:  %d

TRAFFIC METRICS
---------------
  Total Requests:   %d
  Success:          %d
  Failed:           %d
  Error Rate:       %.2f%%
  Avg Latency:      %v
  P99 Latency:      %v

CONSISTENCY
-----------
  Stale Reads:      %d
  Intervals:        %d

WORKERS
-------
`,
		r.ScenarioName,
		r.Mix.Title(),
		r.StartTime.Format("2006-01-02 15:04:05"),
		r.EndTime.Format("2006-01-02 15:04:05"),
		r.Duration.Round(time.Millisecond),
		r.WarmupFailures,
		r.TotalRequests,
		r.SuccessRequests,
		r.FailedRequests,
		r.ErrorRate*100,
		r.AvgLatency.Round(time.Microsecond),
		r.P99Latency.Round(time.Microsecond),
		r.StaleReads,
		r.Intervals,
	)

	for _, w := range r.Workers {
		status := "ok"
		if w.Err != nil {
			status = w.Err.Error()
		}
		fmt.Fprintf(&b, "  %-10s requests=%-8d stale=%-6d %s\n", w.Suffix, w.Snapshot.TotalRequests, w.Snapshot.StaleReads, status)
	}

	b.WriteString("\n================================================================================")
	return b.String()
}

// IsRunning は実行中かどうかを返す
func (e *Engine) IsRunning() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.running
}

// Metrics は実行中の全ワーカーのスナップショットを返す
func (e *Engine) Metrics() []metrics.Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()

	snaps := make([]metrics.Snapshot, 0, len(e.clients))
	for _, c := range e.clients {
		snaps = append(snaps, c.Metrics().Snapshot())
	}
	return snaps
}
