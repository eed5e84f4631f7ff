// Package journal persists a store.Base to SQLite as checkpoints.
//
// A checkpoint is a full image: every store's definition and every record
// as exact JSON (Ref.MarshalExact, no NFC step), written in one transaction. Restore rebuilds the base
// from the latest image, re-adding records in id order so ids come back
// unchanged.
//
// # Integrity
//
// Each store row carries a SHA-256 digest of its records, computed with
// domain separation (see hash.go). Restore recomputes it and refuses an
// image whose records do not match.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package journal
