package models

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Provider identifies the streaming service backing a playlist.
type Provider string

const (
	ProviderSpotify Provider = "spotify"
	ProviderYouTube Provider = "youtube"
)

// ParseProvider parses a provider name, accepting common aliases.
func ParseProvider(s string) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "spotify", "spot":
		return ProviderSpotify, nil
	case "youtube", "yt", "ytmusic":
		return ProviderYouTube, nil
	default:
		return "", fmt.Errorf("unknown provider %q (expected spotify or youtube)", s)
	}
}

// Track represents a single track fetched from a provider.
// Identity and equality are by ID only.
type Track struct {
	ID         string          `json:"id" yaml:"id"`
	Title      string          `json:"title" yaml:"title"`
	Artists    []string        `json:"artists" yaml:"artists"`
	DurationMS int             `json:"duration_ms" yaml:"duration_ms"`
	Provider   Provider        `json:"provider" yaml:"provider"`
	Metadata   json.RawMessage `json:"metadata,omitempty" yaml:"-"`
}

// ArtistLine joins artist names for display.
func (t Track) ArtistLine() string {
	return strings.Join(t.Artists, ", ")
}

// Snapshot is an ordered sequence of tracks representing playlist state at a
// point in time. Order is significant and duplicate IDs are permitted.
type Snapshot struct {
	PlaylistID string   `json:"playlist_id" yaml:"playlist_id"`
	Name       string   `json:"name,omitempty" yaml:"name,omitempty"`
	Provider   Provider `json:"provider" yaml:"provider"`
	Tracks     []Track  `json:"tracks" yaml:"tracks"`
}

// TrackIDs returns the ordered track ID sequence.
func (s Snapshot) TrackIDs() []string {
	ids := make([]string, len(s.Tracks))
	for i, t := range s.Tracks {
		ids[i] = t.ID
	}
	return ids
}

// IndexOf returns the index of the first occurrence of a track ID, or -1.
func (s Snapshot) IndexOf(trackID string) int {
	for i, t := range s.Tracks {
		if t.ID == trackID {
			return i
		}
	}
	return -1
}

// Contains reports whether the snapshot holds the given track ID.
func (s Snapshot) Contains(trackID string) bool {
	return s.IndexOf(trackID) >= 0
}

// Equal reports whether two snapshots hold the same ordered track ID sequence.
// Metadata differences do not affect equality.
func (s Snapshot) Equal(other Snapshot) bool {
	if len(s.Tracks) != len(other.Tracks) {
		return false
	}
	for i := range s.Tracks {
		if s.Tracks[i].ID != other.Tracks[i].ID {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of the snapshot's track slice.
func (s Snapshot) Clone() Snapshot {
	out := s
	out.Tracks = make([]Track, len(s.Tracks))
	copy(out.Tracks, s.Tracks)
	return out
}

// TrackByID returns the first track with the given ID.
func (s Snapshot) TrackByID(trackID string) (Track, bool) {
	for _, t := range s.Tracks {
		if t.ID == trackID {
			return t, true
		}
	}
	return Track{}, false
}

// Commit is an immutable record in the journal chain. ParentHash is empty for
// the root commit. The hash covers the parent hash, the ordered track ID list,
// the message and the timestamp, so two commits with identical content but
// different timestamps have different identities.
type Commit struct {
	Hash       string    `json:"hash"`
	ParentHash string    `json:"parent_hash,omitempty"`
	Message    string    `json:"message"`
	Timestamp  time.Time `json:"timestamp"`
	Snapshot   Snapshot  `json:"snapshot"`
}

// ComputeHash derives the content hash for a commit from its identity fields.
func ComputeHash(parentHash string, trackIDs []string, message string, ts time.Time) string {
	h := sha256.New()
	h.Write([]byte(parentHash))
	h.Write([]byte{0})
	for _, id := range trackIDs {
		h.Write([]byte(id))
		h.Write([]byte{0})
	}
	h.Write([]byte(message))
	h.Write([]byte{0})
	h.Write([]byte(ts.UTC().Format(time.RFC3339Nano)))
	return hex.EncodeToString(h.Sum(nil))
}

// NewCommit builds a commit for the given snapshot and computes its hash.
func NewCommit(parentHash, message string, ts time.Time, snapshot Snapshot) Commit {
	return Commit{
		Hash:       ComputeHash(parentHash, snapshot.TrackIDs(), message, ts),
		ParentHash: parentHash,
		Message:    message,
		Timestamp:  ts.UTC(),
		Snapshot:   snapshot,
	}
}

// Verify recomputes the commit hash and reports whether it matches the stored one.
func (c Commit) Verify() bool {
	return c.Hash == ComputeHash(c.ParentHash, c.Snapshot.TrackIDs(), c.Message, c.Timestamp)
}

// ShortHash returns the abbreviated display form of the commit hash.
func (c Commit) ShortHash() string {
	return ShortHash(c.Hash)
}

// ShortHash abbreviates a commit hash to 12 characters for display.
func ShortHash(hash string) string {
	if len(hash) <= 12 {
		return hash
	}
	return hash[:12]
}

// ChangeKind enumerates the staged operation types.
type ChangeKind string

const (
	ChangeAdd    ChangeKind = "add"
	ChangeRemove ChangeKind = "remove"
	ChangeMove   ChangeKind = "move"
)

// StagedChange is one pending operation relative to HEAD. The staging area
// holds at most one change per track ID.
type StagedChange struct {
	Kind    ChangeKind `json:"kind"`
	TrackID string     `json:"track_id"`
	// Track carries full metadata for additions so commit can materialize it.
	Track *Track `json:"track,omitempty"`
	// Index is the insert position for additions (nil appends) and the
	// target index for moves.
	Index *int `json:"index,omitempty"`
	// Seq preserves staging order so unindexed additions append in the
	// order the user staged them.
	Seq int `json:"seq"`
}
