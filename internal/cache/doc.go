/*
Package cache memoizes cacheable task invocations.

A cache key is a blake3 fingerprint of (task identity, task version, canonical
serialization of every resolved input value). A hit replays the stored outputs
without reaching the task invoker; a miss executes and stores the entry before
the node is marked Succeeded. Entries are append-only and never invalidated by
the core; eviction, if any, belongs to the store implementation.

Concurrent identical keys within one process share a single execution through
golang.org/x/sync/singleflight.
*/
package cache
