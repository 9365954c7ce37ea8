package node

import (
	"context"
	"fmt"
	"sync"
	"time"

	"kvmix/internal/logger"
)

// Entry は値とその書き込み時刻（Unix ns）
type Entry struct {
	Value     string `json:"value"`
	Timestamp int64  `json:"timestamp"`
}

// Status はノードの状態を表す
type Status int

const (
	StatusStopped Status = iota
	StatusRunning
)

func (s Status) String() string {
	switch s {
	case StatusStopped:
		return "stopped"
	case StatusRunning:
		return "running"
	default:
		return "unknown"
	}
}

// Config はノードの設定
type Config struct {
	ReadDelay  time.Duration // 読み込みごとの人工的な遅延
	WriteDelay time.Duration // 書き込みごとの人工的な遅延
}

// DefaultConfig はデフォルト設定を返す
func DefaultConfig() Config {
	return Config{
		ReadDelay:  5 * time.Millisecond,
		WriteDelay: 10 * time.Millisecond,
	}
}

// Node はバージョン付きインメモリKVSの単一ノードを表す
type Node struct {
	id     string
	status Status

	readDelay  time.Duration
	writeDelay time.Duration

	mu   sync.RWMutex
	data map[string]Entry

	ctx    context.Context
	cancel context.CancelFunc
}

// New は新しいノードを作成する
func New(id string, config Config) *Node {
	return &Node{
		id:         id,
		status:     StatusStopped,
		readDelay:  config.ReadDelay,
		writeDelay: config.WriteDelay,
		data:       make(map[string]Entry),
	}
}

// ID はノードIDを返す
func (n *Node) ID() string {
	return n.id
}

// Start はノードを起動する
func (n *Node) Start(ctx context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.status == StatusRunning {
		return fmt.Errorf("node %s is already running", n.id)
	}

	n.ctx, n.cancel = context.WithCancel(ctx)
	n.status = StatusRunning

	logger.Info(n.id, "Node started (read delay %v, write delay %v)", n.readDelay, n.writeDelay)
	return nil
}

// Stop はノードを停止する
func (n *Node) Stop() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.status == StatusStopped {
		return fmt.Errorf("node %s is already stopped", n.id)
	}

	if n.cancel != nil {
		n.cancel()
	}
	n.status = StatusStopped

	logger.Info(n.id, "Node stopped")
	return nil
}

// Status はノードの現在のステータスを返す
func (n *Node) Status() Status {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.status
}

// SetDelays は読み書きの遅延を設定する
func (n *Node) SetDelays(read, write time.Duration) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.readDelay = read
	n.writeDelay = write
	logger.Info(n.id, "Delays set to read=%v write=%v", read, write)
}

// Delays は現在の遅延設定を返す
func (n *Node) Delays() (read, write time.Duration) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.readDelay, n.writeDelay
}

// sleep は遅延を適用する。ノード停止時は即座に戻る
func (n *Node) sleep(d time.Duration) {
	if d <= 0 {
		return
	}
	n.mu.RLock()
	ctx := n.ctx
	n.mu.RUnlock()
	if ctx == nil {
		time.Sleep(d)
		return
	}

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// Get はキーに対応するエントリを取得する
func (n *Node) Get(key string) (Entry, bool) {
	read, _ := n.Delays()
	n.sleep(read)

	n.mu.RLock()
	defer n.mu.RUnlock()

	if n.status != StatusRunning {
		return Entry{}, false
	}

	e, exists := n.data[key]
	return e, exists
}

// Put はエントリを無条件に上書きする
func (n *Node) Put(key string, e Entry) error {
	_, write := n.Delays()
	n.sleep(write)

	n.mu.Lock()
	defer n.mu.Unlock()

	if n.status != StatusRunning {
		return fmt.Errorf("node %s is not running", n.id)
	}

	n.data[key] = e
	return nil
}

// PutIfNewer は既存のエントリより新しい場合だけ書き込む（last-writer-wins）
// 書き込んだかどうかを返す
func (n *Node) PutIfNewer(key string, e Entry) (bool, error) {
	_, write := n.Delays()
	n.sleep(write)

	n.mu.Lock()
	defer n.mu.Unlock()

	if n.status != StatusRunning {
		return false, fmt.Errorf("node %s is not running", n.id)
	}

	if cur, ok := n.data[key]; ok && e.Timestamp <= cur.Timestamp {
		return false, nil
	}
	n.data[key] = e
	return true, nil
}

// Keys は全てのキーを返す
func (n *Node) Keys() []string {
	n.mu.RLock()
	defer n.mu.RUnlock()

	keys := make([]string, 0, len(n.data))
	for k := range n.data {
		keys = append(keys, k)
	}
	return keys
}

// Size はデータストアのサイズを返す
func (n *Node) Size() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.data)
}
