// Package repositories implements SQLite persistence for the track metadata
// cache.
//
// The cache stores every track the CLI has resolved from a provider, so
// repeated adds and searches avoid API round trips. Rows are deduplicated by
// a UNIQUE(provider, track_id) constraint, soft-deleted via deleted_at
// timestamps, and ordered by atomically generated sequence numbers. Cached
// metadata is advisory only; playlist state and history live in the journal,
// never in the database.
package repositories
