// Package client drives read/write traffic against a replicated KV cluster.
//
// A Client runs a set of simulated users for one worker. Each user walks a
// key space with a locality bias: it usually stays on the current key and
// jumps to a random key with probability 1-ClusterProb. Writes go to the
// leader with the current wall clock in milliseconds as the value; reads go
// to a random node and are checked against the last version this user wrote.
// A read that returns an older timestamp is counted as stale, and the gap is
// recorded as an inconsistency interval.
//
// # Basic Usage
//
//	config := client.DefaultConfig()
//	config.WriteWeight, config.ReadWeight = 10, 90
//	c, err := client.New(config, client.NewWorker(mix.New(10, 90)))
//	if err != nil {
//		return err
//	}
//
//	snap := c.RunFor(ctx, 30*time.Second)
//	fmt.Printf("Total: %d, RPS: %.2f\n", snap.TotalRequests, snap.RPS)
//
//	reqPath, intPath, err := c.Worker().Flush("logs")
//
// # Logs
//
// Worker.Flush writes run_W_R_requests_{suffix}.csv and
// intervals_W_R_{suffix}.csv exactly once. Both files are written under a
// temporary name and renamed into place so an aggregator never sees a
// partial file.
//
// # Warm-up
//
// Warmup seeds keys 0..NumKeys-1 on the leader through a worker.Pool before
// any measured traffic starts.
package client
