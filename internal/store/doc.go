// Package store provides SQLite-backed durable storage for compiled catalogs.
//
// Each SaveCatalog writes a snapshot:
//   - catalogs: one row per snapshot, ordered by a logical seq
//   - signatures: each target's parameter list as canonical JSON plus its content hash
//   - call_sites: template-visible call names and the targets they reach
//
// The snapshot with the highest seq is live. Store implements binder.Oracle
// and binder.Registry against it, so a compiled catalog can drive resolution
// without recompiling CUE sources.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Content hashes are computed via functions in internal/ir/hash.go using
// RFC 8785 canonical JSON and SHA-256 with domain separation.
package store
