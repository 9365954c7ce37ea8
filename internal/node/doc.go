// Package node provides the versioned in-memory store behind a KV node.
//
// Every value is kept as an Entry together with the Unix-nanosecond
// timestamp the leader stamped on it. Replicas apply writes with
// PutIfNewer, so the newest timestamp always wins regardless of arrival
// order. Configurable read and write delays stand in for disk latency.
//
// # Basic Usage
//
//	n := node.New("kv1", node.DefaultConfig())
//	if err := n.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer n.Stop()
//
//	_ = n.Put("key1", node.Entry{Value: "42", Timestamp: time.Now().UnixNano()})
//	if e, ok := n.Get("key1"); ok {
//	    fmt.Println(e.Value, e.Timestamp)
//	}
//
// # Node Lifecycle
//
// A Node must be started before it accepts reads or writes.
// Stopping it cancels any delay that is in progress.
package node
