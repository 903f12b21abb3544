// Package vcs implements per-playlist repositories: the staging area, the
// append-only commit journal and the sync watermark.
//
// Each tracked playlist owns a directory under the configured state root:
//
//	playlists/<id>/playlist.yaml   current HEAD snapshot, human-readable
//	playlists/<id>/staged.json     staging area, keyed by track ID
//	playlists/<id>/journal.log     append-only JSONL commit chain
//	playlists/<id>/sync.json       push/pull watermark
//	playlists/<id>/snapshots/      materialized snapshots by commit hash
//	playlists/<id>/.lock           advisory lock serializing commands
//
// History is a linear chain: every commit links to its parent by content
// hash, HEAD is the last appended commit, and nothing is ever rewritten.
// A failed chain verification on load surfaces [shared.ErrCorruptJournal]
// and the repository refuses further writes until repaired.
package vcs
