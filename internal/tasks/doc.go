// Package tasks runs long operations over the whole user table with real-time progress reporting.
//
// # Bulk Export
//
// [Exporter.BulkExport] writes every user's saved content to its own file set:
//
//   - Users are read from a [Source] at a bounded rate
//   - A worker pool renders each user through the formatter package
//   - Partial failures are recorded per user and do not stop the run
//   - A manifest (export_manifest.json) summarizes the run
//
// # Progress Reporting
//
// Operations accept an optional channel of [ProgressUpdate] values. Sends use select with
// default, so a slow or absent reader never blocks an export.
package tasks
