// Package worker provides a bounded goroutine pool.
//
// A Pool runs a fixed number of goroutines that take jobs from a shared
// queue. The load driver uses it to fan warm-up writes out over many
// connections without spawning one goroutine per key.
//
// # Basic Usage
//
//	pool := worker.NewPool(16)
//	pool.Start(ctx)
//	for i := range numKeys {
//	    pool.SubmitWait(ctx, func() { put(i) })
//	}
//	pool.Close() // runs everything still queued
//
// # Shutdown
//
// Close stops accepting jobs and waits until the queue is empty. Stop
// cancels the workers immediately and drops whatever is still queued.
// A pool cannot be restarted after either call.
package worker
