package models

import (
	"testing"
	"time"
)

func snapshot(ids ...string) Snapshot {
	tracks := make([]Track, len(ids))
	for i, id := range ids {
		tracks[i] = Track{ID: id, Title: "Track " + id}
	}
	return Snapshot{PlaylistID: "PL1", Provider: ProviderSpotify, Tracks: tracks}
}

func TestParseProvider(t *testing.T) {
	tests := []struct {
		input string
		want  Provider
		ok    bool
	}{
		{"spotify", ProviderSpotify, true},
		{"Spotify", ProviderSpotify, true},
		{"spot", ProviderSpotify, true},
		{"youtube", ProviderYouTube, true},
		{"YT", ProviderYouTube, true},
		{"ytmusic", ProviderYouTube, true},
		{" spotify ", ProviderSpotify, true},
		{"soundcloud", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseProvider(tt.input)
			if tt.ok && (err != nil || got != tt.want) {
				t.Errorf("ParseProvider(%q) = %v, %v; want %v", tt.input, got, err, tt.want)
			}
			if !tt.ok && err == nil {
				t.Errorf("ParseProvider(%q) should fail", tt.input)
			}
		})
	}
}

func TestSnapshot(t *testing.T) {
	t.Run("equality is by ordered IDs", func(t *testing.T) {
		a := snapshot("t1", "t2", "t3")
		b := snapshot("t1", "t2", "t3")
		b.Tracks[0].Title = "Renamed"

		if !a.Equal(b) {
			t.Error("metadata differences should not affect equality")
		}
		if a.Equal(snapshot("t1", "t3", "t2")) {
			t.Error("order should affect equality")
		}
		if a.Equal(snapshot("t1", "t2")) {
			t.Error("length should affect equality")
		}
	})

	t.Run("index lookups", func(t *testing.T) {
		s := snapshot("t1", "t2", "t1")
		if got := s.IndexOf("t1"); got != 0 {
			t.Errorf("expected first occurrence at 0, got %d", got)
		}
		if got := s.IndexOf("ghost"); got != -1 {
			t.Errorf("expected -1 for missing track, got %d", got)
		}
		if !s.Contains("t2") || s.Contains("ghost") {
			t.Error("unexpected Contains result")
		}
	})

	t.Run("clone is independent", func(t *testing.T) {
		s := snapshot("t1", "t2")
		c := s.Clone()
		c.Tracks[0].ID = "mutated"
		if s.Tracks[0].ID != "t1" {
			t.Error("clone should not share track storage")
		}
	})
}

func TestCommitHash(t *testing.T) {
	ts := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

	t.Run("deterministic", func(t *testing.T) {
		a := NewCommit("", "init", ts, snapshot("t1", "t2"))
		b := NewCommit("", "init", ts, snapshot("t1", "t2"))
		if a.Hash != b.Hash {
			t.Error("identical commits should hash identically")
		}
	})

	t.Run("sensitive to identity fields", func(t *testing.T) {
		base := NewCommit("", "init", ts, snapshot("t1", "t2"))
		variants := []Commit{
			NewCommit("parent", "init", ts, snapshot("t1", "t2")),
			NewCommit("", "other message", ts, snapshot("t1", "t2")),
			NewCommit("", "init", ts.Add(time.Second), snapshot("t1", "t2")),
			NewCommit("", "init", ts, snapshot("t2", "t1")),
		}
		for i, v := range variants {
			if v.Hash == base.Hash {
				t.Errorf("variant %d should hash differently", i)
			}
		}
	})

	t.Run("boundary ambiguity", func(t *testing.T) {
		// ["ab", "c"] and ["a", "bc"] must not collide.
		a := NewCommit("", "m", ts, snapshot("ab", "c"))
		b := NewCommit("", "m", ts, snapshot("a", "bc"))
		if a.Hash == b.Hash {
			t.Error("track ID boundaries should be part of the hash")
		}
	})

	t.Run("verify detects tampering", func(t *testing.T) {
		c := NewCommit("", "init", ts, snapshot("t1"))
		if !c.Verify() {
			t.Error("fresh commit should verify")
		}
		c.Message = "rewritten"
		if c.Verify() {
			t.Error("tampered commit should fail verification")
		}
	})
}

func TestShortHash(t *testing.T) {
	c := NewCommit("", "init", time.Now(), snapshot("t1"))
	if len(c.ShortHash()) != 12 {
		t.Errorf("expected 12-char short hash, got %q", c.ShortHash())
	}
	if ShortHash("abc") != "abc" {
		t.Error("short input should pass through unchanged")
	}
}

func TestArtistLine(t *testing.T) {
	track := Track{Artists: []string{"Daft Punk", "Pharrell Williams"}}
	if got := track.ArtistLine(); got != "Daft Punk, Pharrell Williams" {
		t.Errorf("unexpected artist line %q", got)
	}
	if got := (Track{}).ArtistLine(); got != "" {
		t.Errorf("expected empty line for no artists, got %q", got)
	}
}
