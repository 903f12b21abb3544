// Package services implements provider adapters for remote playlists.
//
// The sync engine consumes the capability set in [Provider]: fetch the
// current remote snapshot and apply single add, remove or move operations.
// Every apply operation is idempotent so a partially applied push can be
// safely resumed. Spotify exposes a native reorder primitive; the YouTube
// adapter synthesizes moves as a delete plus positioned re-insert, an
// implementation detail hidden behind the interface.
package services
