package formatter

import (
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/plx/internal/diffs"
	"github.com/desertthunder/plx/internal/models"
)

func plain() *Formatter { return NewFormatter(false) }

func TestScript(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		if got := plain().Script(diffs.Script{}, nil); got != "no changes" {
			t.Errorf("expected 'no changes', got %q", got)
		}
	})

	t.Run("renders all operation kinds", func(t *testing.T) {
		script := diffs.Script{Changes: []diffs.Change{
			{Op: diffs.OpMove, TrackID: "t3", Index: 0},
			{Op: diffs.OpRemove, TrackID: "t1"},
			{Op: diffs.OpAdd, TrackID: "t2", Index: 4},
		}}

		got := plain().Script(script, nil)
		lines := strings.Split(got, "\n")
		if len(lines) != 4 {
			t.Fatalf("expected 3 change lines plus summary, got %d: %q", len(lines), got)
		}
		// Display order groups removals, additions, moves.
		if lines[0] != "- t1" {
			t.Errorf("expected removal first, got %q", lines[0])
		}
		if lines[1] != "+ t2 @ 4" {
			t.Errorf("expected addition second, got %q", lines[1])
		}
		if lines[2] != "~ t3 -> 0" {
			t.Errorf("expected move third, got %q", lines[2])
		}
		if lines[3] != "+1 -1 ~1" {
			t.Errorf("expected summary, got %q", lines[3])
		}
	})

	t.Run("uses describe labels", func(t *testing.T) {
		script := diffs.Script{Changes: []diffs.Change{{Op: diffs.OpRemove, TrackID: "t1"}}}
		got := plain().Script(script, func(id string) string { return "Song " + id })
		if !strings.Contains(got, "- Song t1") {
			t.Errorf("expected described label, got %q", got)
		}
	})
}

func TestLog(t *testing.T) {
	ts := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	snapshot := models.Snapshot{Tracks: []models.Track{{ID: "a"}, {ID: "b"}}}
	commit := models.NewCommit("", "init: test", ts, snapshot)

	got := plain().Log([]models.Commit{commit})
	if !strings.Contains(got, commit.ShortHash()) {
		t.Errorf("expected short hash in log, got %q", got)
	}
	if !strings.Contains(got, "init: test") {
		t.Errorf("expected message in log, got %q", got)
	}
	if !strings.Contains(got, "(2 tracks)") {
		t.Errorf("expected track count in log, got %q", got)
	}

	if got := plain().Log(nil); got != "no commits" {
		t.Errorf("expected 'no commits', got %q", got)
	}
}

func TestStatus(t *testing.T) {
	ts := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	head := models.NewCommit("", "init: test", ts, models.Snapshot{})

	t.Run("in sync with nothing staged", func(t *testing.T) {
		got := plain().Status("PL1", models.ProviderSpotify, head, nil, head.Hash)
		if !strings.Contains(got, "playlist PL1 (spotify)") {
			t.Errorf("expected header, got %q", got)
		}
		if !strings.Contains(got, "in sync with remote at HEAD") {
			t.Errorf("expected sync line, got %q", got)
		}
		if !strings.Contains(got, "nothing staged") {
			t.Errorf("expected empty staging note, got %q", got)
		}
	})

	t.Run("staged changes listed", func(t *testing.T) {
		idx := 2
		staged := []models.StagedChange{
			{Kind: models.ChangeAdd, TrackID: "t9", Track: &models.Track{ID: "t9", Title: "Nine"}},
			{Kind: models.ChangeMove, TrackID: "t1", Index: &idx},
		}
		got := plain().Status("PL1", models.ProviderSpotify, head, staged, "")
		if !strings.Contains(got, "2 staged change(s)") {
			t.Errorf("expected staged count, got %q", got)
		}
		if !strings.Contains(got, "+ Nine (t9)") {
			t.Errorf("expected staged add line, got %q", got)
		}
		if !strings.Contains(got, "~ t1 -> 2") {
			t.Errorf("expected staged move line, got %q", got)
		}
		if !strings.Contains(got, "never pushed") {
			t.Errorf("expected push state, got %q", got)
		}
	})
}

func TestTrackList(t *testing.T) {
	snapshot := models.Snapshot{Tracks: []models.Track{
		{ID: "t1", Title: "One More Time", Artists: []string{"Daft Punk"}, DurationMS: 320000},
		{ID: "t2"},
	}}

	got := plain().TrackList(snapshot)
	if !strings.Contains(got, "0. One More Time - Daft Punk [5:20]") {
		t.Errorf("expected formatted first line, got %q", got)
	}
	if !strings.Contains(got, "1. t2") {
		t.Errorf("expected ID fallback for untitled track, got %q", got)
	}

	if got := plain().TrackList(models.Snapshot{}); got != "empty playlist" {
		t.Errorf("expected 'empty playlist', got %q", got)
	}
}

func TestSearchResults(t *testing.T) {
	tracks := []models.Track{{ID: "t7", Title: "Around the World", Artists: []string{"Daft Punk"}}}
	got := plain().SearchResults(tracks)
	if !strings.Contains(got, "t7") || !strings.Contains(got, "Around the World") {
		t.Errorf("expected ID and title, got %q", got)
	}

	if got := plain().SearchResults(nil); got != "no results" {
		t.Errorf("expected 'no results', got %q", got)
	}
}
