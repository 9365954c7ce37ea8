package client

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"kvmix/internal/logger"
	"kvmix/internal/metrics"
)

// Client はWorker1つ分のユーザー群を動かす負荷生成器
type Client struct {
	config    Config
	worker    *Worker
	transport Transport

	running atomic.Bool
	cancel  context.CancelFunc
	group   *errgroup.Group
}

// New は新しいClientを作成する
func New(config Config, w *Worker) *Client {
	return &Client{
		config:    config,
		worker:    w,
		transport: NewHTTP(config.Timeout),
	}
}

// NewWithTransport はTransportを指定してClientを作成する
func NewWithTransport(config Config, w *Worker, t Transport) *Client {
	return &Client{
		config:    config,
		worker:    w,
		transport: t,
	}
}

// Start はユーザーを起動する
func (c *Client) Start(ctx context.Context) {
	if c.running.Swap(true) {
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	g, gctx := errgroup.WithContext(runCtx)
	c.group = g

	logger.Info(c.worker.Suffix(), "Starting %d users (NUM_KEYS=%d, CLUSTER_PROB=%.2f, WRITE_RATIO=%d, READ_RATIO=%d)",
		c.config.Users, c.config.NumKeys, c.config.ClusterProb, c.config.WriteWeight, c.config.ReadWeight)

	for i := range c.config.Users {
		u := newUser(i, c.config, c.transport, c.worker)
		g.Go(func() error {
			return u.run(gctx)
		})
	}
}

// Stop はユーザーを停止し、全員の終了を待つ
func (c *Client) Stop() {
	if !c.running.Swap(false) {
		return
	}

	c.cancel()
	if err := c.group.Wait(); err != nil {
		logger.Warn(c.worker.Suffix(), "User exited with error: %v", err)
	}

	logger.Info(c.worker.Suffix(), "Stopped after %d requests", c.worker.Metrics().TotalRequests())
}

// IsRunning は実行中かどうかを返す
func (c *Client) IsRunning() bool {
	return c.running.Load()
}

// Worker はWorkerを返す
func (c *Client) Worker() *Worker {
	return c.worker
}

// Metrics はメトリクスを返す
func (c *Client) Metrics() *metrics.Metrics {
	return c.worker.Metrics()
}

// RunFor は指定時間だけ負荷生成を実行する
func (c *Client) RunFor(ctx context.Context, duration time.Duration) metrics.Snapshot {
	c.Start(ctx)

	timer := time.NewTimer(duration)
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
	timer.Stop()

	c.Stop()
	return c.worker.Metrics().Snapshot()
}
