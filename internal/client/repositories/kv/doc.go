// Package kv implements the persistence medium behind the session store: a
// flat namespace of byte values with atomic single-key Get/Set/Delete.
//
// Backends:
//   - MemoryRepository: process-local map, used by tests and the "memory" backend.
//   - SQLRepository: a single `kv` table in SQLite (default) or Postgres.
//   - RedisRepository: plain string keys in Redis.
//
// SetBatch writes several keys in order. SQL backends run it in one
// transaction and Redis wraps it in MULTI/EXEC, so a batch either lands
// completely or not at all. The memory backend holds its lock for the batch.
//
// Missing keys are reported as ErrNotFound on every backend.
package kv
