package worker

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"

	"kvmix/internal/logger"
)

const scope = "pool"

// Job はワーカーが実行するジョブを表す
type Job func()

// PoolConfig はワーカープールの設定
type PoolConfig struct {
	NumWorkers  int // ワーカー数（0でCPU数）
	QueueFactor int // キューサイズ = NumWorkers * QueueFactor
}

// DefaultPoolConfig はデフォルト設定を返す
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		NumWorkers:  0,
		QueueFactor: 100,
	}
}

// Pool はゴルーチンのプールを管理する
type Pool struct {
	numWorkers int
	jobs       chan Job
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
	started    bool
	closed     bool
	stopping   atomic.Bool
	completed  atomic.Uint64
	mu         sync.Mutex
}

// NewPool は新しいワーカープールを作成する
// numWorkers が 0 以下の場合は CPU 数を使用
func NewPool(numWorkers int) *Pool {
	config := DefaultPoolConfig()
	config.NumWorkers = numWorkers
	return NewPoolWithConfig(config)
}

// NewPoolWithConfig は設定を指定してワーカープールを作成する
func NewPoolWithConfig(config PoolConfig) *Pool {
	numWorkers := config.NumWorkers
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	queueFactor := config.QueueFactor
	if queueFactor <= 0 {
		queueFactor = 100
	}
	return &Pool{
		numWorkers: numWorkers,
		jobs:       make(chan Job, numWorkers*queueFactor),
	}
}

// Start はワーカープールを起動する
func (p *Pool) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started || p.closed {
		return
	}

	p.ctx, p.cancel = context.WithCancel(ctx)
	p.started = true

	for range p.numWorkers {
		p.wg.Add(1)
		go p.worker()
	}

	logger.Debug(scope, "Started %d workers", p.numWorkers)
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case job, ok := <-p.jobs:
			if !ok {
				return
			}
			job()
			p.completed.Add(1)
		}
	}
}

// Submit はジョブをプールに送信する。キューが満杯でもブロックする
func (p *Pool) Submit(job Job) (submitted bool) {
	if p.stopping.Load() || p.ctx == nil {
		return false
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Warn(scope, "Submit on closed pool: %v", r)
			submitted = false
		}
	}()

	select {
	case <-p.ctx.Done():
		return false
	default:
	}

	select {
	case <-p.ctx.Done():
		return false
	case p.jobs <- job:
		return true
	}
}

// SubmitWait はジョブを送信し、受理されるまで待つ
// ctxが先にキャンセルされた場合はfalseを返す
func (p *Pool) SubmitWait(ctx context.Context, job Job) (submitted bool) {
	if p.stopping.Load() || p.ctx == nil {
		return false
	}

	defer func() {
		if r := recover(); r != nil {
			submitted = false
		}
	}()

	select {
	case <-ctx.Done():
		return false
	case <-p.ctx.Done():
		return false
	case p.jobs <- job:
		return true
	}
}

// Close は新規受付を止め、キューに残ったジョブを全て実行してから戻る
func (p *Pool) Close() {
	p.mu.Lock()
	if !p.started || p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()

	p.stopping.Store(true)
	close(p.jobs)
	p.wg.Wait()
	p.cancel()

	logger.Debug(scope, "Drained (%d jobs completed)", p.completed.Load())
}

// Stop はワーカープールを即座に停止する。キューに残ったジョブは捨てられる
func (p *Pool) Stop() {
	p.mu.Lock()
	if !p.started || p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()

	p.stopping.Store(true)
	p.cancel()
	p.wg.Wait()
	close(p.jobs)

	logger.Debug(scope, "Stopped (%d jobs completed, %d dropped)", p.completed.Load(), len(p.jobs))
}

// NumWorkers はワーカー数を返す
func (p *Pool) NumWorkers() int {
	return p.numWorkers
}

// QueueSize は現在のキューサイズを返す
func (p *Pool) QueueSize() int {
	return len(p.jobs)
}

// Completed は実行済みジョブ数を返す
func (p *Pool) Completed() uint64 {
	return p.completed.Load()
}
