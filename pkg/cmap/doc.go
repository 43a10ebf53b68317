// Package cmap provides a sharded concurrent map keyed by string IDs.
//
// It backs the acceptor's live connection set: every accepted connection is
// tracked under its ID until teardown untracks it.
//
//   - Sharding: power-of-two shard count, maphash-seeded shard selection
//   - Fine-grained Locking: per-shard RWMutex
//   - Iteration: shard-by-shard, tolerant of concurrent removal
//
// Usage:
//
//	m := cmap.New[*socket.Context]()
//	m.SetIfAbsent(sc.ID(), sc)
//	m.Pop(sc.ID())
//
// Thread Safety:
//
// All operations are safe for concurrent use. Range never observes a
// consistent snapshot across shards.
package cmap
