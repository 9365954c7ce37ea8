// Package cluster holds the replication side of a KV node.
//
// Quorum keeps the N/R/W settings, which can be changed at runtime
// through the /config endpoint. Peers talks to the other replicas:
// the leader pushes writes with Replicate or ReplicateAsync, and a read
// coordinator collects replica reads with ReadReplicas or Gather and
// answers with the Newest entry.
//
// # Basic Usage
//
//	q, _ := cluster.NewQuorum(3, 2, 2)
//	peers := cluster.NewPeers([]string{"kv2:8000", "kv3:8000"}, time.Second)
//
//	acks := peers.Replicate(ctx, "key1", entry)
//	if 1+acks < q.W() {
//	    // write quorum not met
//	}
//
//	entries := peers.ReadReplicas(ctx, "key1", q.R())
//	newest, ok := cluster.Newest(entries)
//
// # Thread Safety
//
// Quorum and Peers are safe for concurrent use. Fan-out calls run one
// goroutine per peer.
package cluster
