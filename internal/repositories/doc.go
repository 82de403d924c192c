// Package repositories implements persistence for the user table.
//
// Two backends implement [models.Repository] for [models.User]:
//   - [JSONRepository] : the whole table as one JSON document, rewritten atomically on every change
//   - [SQLiteRepository] : one row per user with the saved collections in a JSON column
//
// Both persist a full user record per call, so a store mutation maps to exactly one write.
// Sequence numbers give SQLite rows a stable insertion order independent of UUIDs;
// [NextSequence] increments per-table counters kept in dedicated sequence tables.
package repositories
