package node

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"
)

func newRunning(t *testing.T, config Config) *Node {
	t.Helper()
	n := New("test-node", config)
	if err := n.Start(context.Background()); err != nil {
		t.Fatalf("failed to start node: %v", err)
	}
	t.Cleanup(func() { _ = n.Stop() })
	return n
}

func TestNewNode(t *testing.T) {
	n := New("kv1", DefaultConfig())

	if n.ID() != "kv1" {
		t.Errorf("expected ID 'kv1', got '%s'", n.ID())
	}
	if n.Status() != StatusStopped {
		t.Errorf("expected status Stopped, got %v", n.Status())
	}
	read, write := n.Delays()
	if read != 5*time.Millisecond || write != 10*time.Millisecond {
		t.Errorf("unexpected default delays %v/%v", read, write)
	}
}

func TestNodeStartStop(t *testing.T) {
	n := New("kv1", Config{})
	ctx := context.Background()

	if err := n.Start(ctx); err != nil {
		t.Errorf("failed to start node: %v", err)
	}
	if n.Status() != StatusRunning {
		t.Errorf("expected status Running, got %v", n.Status())
	}
	if err := n.Start(ctx); err == nil {
		t.Error("expected error when starting already running node")
	}

	if err := n.Stop(); err != nil {
		t.Errorf("failed to stop node: %v", err)
	}
	if err := n.Stop(); err == nil {
		t.Error("expected error when stopping already stopped node")
	}
}

func TestNodeStoppedRejectsOperations(t *testing.T) {
	n := New("kv1", Config{})

	if err := n.Put("key1", Entry{Value: "v"}); err == nil {
		t.Error("expected Put to fail on stopped node")
	}
	if _, err := n.PutIfNewer("key1", Entry{Value: "v"}); err == nil {
		t.Error("expected PutIfNewer to fail on stopped node")
	}
	if _, ok := n.Get("key1"); ok {
		t.Error("expected Get to miss on stopped node")
	}
}

func TestNodeGetPut(t *testing.T) {
	n := newRunning(t, Config{})

	if _, ok := n.Get("key1"); ok {
		t.Error("expected miss for unknown key")
	}

	want := Entry{Value: "v1", Timestamp: 100}
	if err := n.Put("key1", want); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	got, ok := n.Get("key1")
	if !ok || got != want {
		t.Errorf("expected %+v, got %+v (ok=%v)", want, got, ok)
	}

	// Put は古いタイムスタンプでも上書きする
	older := Entry{Value: "v0", Timestamp: 50}
	_ = n.Put("key1", older)
	if got, _ := n.Get("key1"); got != older {
		t.Errorf("expected unconditional overwrite, got %+v", got)
	}
	if n.Size() != 1 {
		t.Errorf("expected size 1, got %d", n.Size())
	}
}

func TestNodePutIfNewer(t *testing.T) {
	n := newRunning(t, Config{})

	tests := []struct {
		entry   Entry
		applied bool
		want    string
	}{
		{Entry{Value: "a", Timestamp: 10}, true, "a"},
		{Entry{Value: "b", Timestamp: 5}, false, "a"},
		{Entry{Value: "c", Timestamp: 10}, false, "a"},
		{Entry{Value: "d", Timestamp: 20}, true, "d"},
	}

	for i, tt := range tests {
		applied, err := n.PutIfNewer("key1", tt.entry)
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if applied != tt.applied {
			t.Errorf("step %d: expected applied=%v, got %v", i, tt.applied, applied)
		}
		if got, _ := n.Get("key1"); got.Value != tt.want {
			t.Errorf("step %d: expected value %s, got %s", i, tt.want, got.Value)
		}
	}
}

func TestNodeDelays(t *testing.T) {
	n := newRunning(t, Config{ReadDelay: 20 * time.Millisecond, WriteDelay: 30 * time.Millisecond})

	start := time.Now()
	_ = n.Put("key1", Entry{Value: "v", Timestamp: 1})
	if d := time.Since(start); d < 30*time.Millisecond {
		t.Errorf("expected write delay, took %v", d)
	}

	start = time.Now()
	n.Get("key1")
	if d := time.Since(start); d < 20*time.Millisecond {
		t.Errorf("expected read delay, took %v", d)
	}

	n.SetDelays(0, 0)
	start = time.Now()
	n.Get("key1")
	if d := time.Since(start); d > 15*time.Millisecond {
		t.Errorf("expected no delay after SetDelays(0, 0), took %v", d)
	}
}

func TestNodeStopInterruptsDelay(t *testing.T) {
	n := New("kv1", Config{ReadDelay: time.Minute})
	_ = n.Start(context.Background())

	done := make(chan struct{})
	go func() {
		n.Get("key1")
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	_ = n.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Get should return once the node stops")
	}
}

func TestNodeConcurrentAccess(t *testing.T) {
	n := newRunning(t, Config{})
	var wg sync.WaitGroup

	for i := range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range 100 {
				key := "key" + strconv.Itoa(j%10)
				_, _ = n.PutIfNewer(key, Entry{Value: strconv.Itoa(i), Timestamp: int64(i*100 + j)})
				n.Get(key)
			}
		}()
	}
	wg.Wait()

	if n.Size() != 10 {
		t.Errorf("expected 10 keys, got %d", n.Size())
	}
	if len(n.Keys()) != 10 {
		t.Errorf("expected 10 keys from Keys(), got %d", len(n.Keys()))
	}
}
