// Package tasks implements the sync engine bridging local version control and
// remote providers.
//
// The core abstraction is SyncEngine, which pushes committed local changes to
// a remote playlist, pulls remote drift into new commits, and computes diffs
// against either the staging area or the live remote. Remote mutations replay
// an edit script one operation at a time; every operation is idempotent on the
// provider side, so an interrupted push resumes cleanly on the next run.
// Operations emit progress updates via channels for non-blocking status
// reporting to the CLI layer.
package tasks
