package repositories

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/desertthunder/plx/internal/models"
	"github.com/desertthunder/plx/internal/shared"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	return db
}

func sampleTrack(id string) models.Track {
	return models.Track{
		ID:         id,
		Title:      "Track " + id,
		Artists:    []string{"Artist One", "Artist Two"},
		DurationMS: 215000,
		Provider:   models.ProviderSpotify,
	}
}

func TestTrackRepository(t *testing.T) {
	t.Run("Create and GetByProviderID", func(t *testing.T) {
		repo := NewTrackRepository(newTestDB(t))

		if err := repo.Create(sampleTrack("t1")); err != nil {
			t.Fatalf("failed to create track: %v", err)
		}

		track, err := repo.GetByProviderID(models.ProviderSpotify, "t1")
		if err != nil {
			t.Fatalf("expected cached track, got %v", err)
		}
		if track.Title != "Track t1" {
			t.Errorf("expected title 'Track t1', got %s", track.Title)
		}
		if len(track.Artists) != 2 || track.Artists[0] != "Artist One" {
			t.Errorf("expected artists round-tripped, got %v", track.Artists)
		}
		if track.DurationMS != 215000 {
			t.Errorf("expected duration 215000, got %d", track.DurationMS)
		}
	})

	t.Run("Create validates input", func(t *testing.T) {
		repo := NewTrackRepository(newTestDB(t))
		if err := repo.Create(models.Track{Title: "no id"}); !errors.Is(err, shared.ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("missing track", func(t *testing.T) {
		repo := NewTrackRepository(newTestDB(t))
		if _, err := repo.GetByProviderID(models.ProviderSpotify, "ghost"); !errors.Is(err, shared.ErrTrackNotFound) {
			t.Fatalf("expected ErrTrackNotFound, got %v", err)
		}
	})

	t.Run("provider scoping", func(t *testing.T) {
		repo := NewTrackRepository(newTestDB(t))
		if err := repo.Create(sampleTrack("t1")); err != nil {
			t.Fatalf("failed to create track: %v", err)
		}

		if _, err := repo.GetByProviderID(models.ProviderYouTube, "t1"); !errors.Is(err, shared.ErrTrackNotFound) {
			t.Fatalf("expected YouTube lookup to miss, got %v", err)
		}
	})

	t.Run("Cache deduplicates", func(t *testing.T) {
		repo := NewTrackRepository(newTestDB(t))

		if err := repo.Cache(sampleTrack("t1")); err != nil {
			t.Fatalf("first cache failed: %v", err)
		}
		if err := repo.Cache(sampleTrack("t1")); err != nil {
			t.Fatalf("expected duplicate cache to be a no-op, got %v", err)
		}

		results, err := repo.Search(models.ProviderSpotify, "Track t1")
		if err != nil {
			t.Fatalf("search failed: %v", err)
		}
		if len(results) != 1 {
			t.Errorf("expected 1 cached row, got %d", len(results))
		}
	})

	t.Run("Search matches title and artist", func(t *testing.T) {
		repo := NewTrackRepository(newTestDB(t))

		one := sampleTrack("t1")
		one.Title = "Harder Better Faster Stronger"
		one.Artists = []string{"Daft Punk"}
		two := sampleTrack("t2")
		two.Title = "Yellow"
		two.Artists = []string{"Coldplay"}
		for _, track := range []models.Track{one, two} {
			if err := repo.Create(track); err != nil {
				t.Fatalf("failed to create track: %v", err)
			}
		}

		byTitle, err := repo.Search(models.ProviderSpotify, "faster")
		if err != nil {
			t.Fatalf("search failed: %v", err)
		}
		if len(byTitle) != 1 || byTitle[0].ID != "t1" {
			t.Errorf("expected t1 by title, got %v", byTitle)
		}

		byArtist, err := repo.Search(models.ProviderSpotify, "coldplay")
		if err != nil {
			t.Fatalf("search failed: %v", err)
		}
		if len(byArtist) != 1 || byArtist[0].ID != "t2" {
			t.Errorf("expected t2 by artist, got %v", byArtist)
		}
	})

	t.Run("Delete hides track", func(t *testing.T) {
		repo := NewTrackRepository(newTestDB(t))
		if err := repo.Create(sampleTrack("t1")); err != nil {
			t.Fatalf("failed to create track: %v", err)
		}

		if err := repo.Delete(models.ProviderSpotify, "t1"); err != nil {
			t.Fatalf("delete failed: %v", err)
		}
		if _, err := repo.GetByProviderID(models.ProviderSpotify, "t1"); !errors.Is(err, shared.ErrTrackNotFound) {
			t.Fatalf("expected soft-deleted track to be hidden, got %v", err)
		}
		if err := repo.Delete(models.ProviderSpotify, "t1"); !errors.Is(err, shared.ErrTrackNotFound) {
			t.Fatalf("expected second delete to fail, got %v", err)
		}
	})
}

func TestNextSequence(t *testing.T) {
	db := newTestDB(t)

	first, err := NextSequence(db, "tracks")
	if err != nil {
		t.Fatalf("failed to get sequence: %v", err)
	}
	second, err := NextSequence(db, "tracks")
	if err != nil {
		t.Fatalf("failed to get sequence: %v", err)
	}
	if second != first+1 {
		t.Errorf("expected monotonic sequence, got %d then %d", first, second)
	}
}
