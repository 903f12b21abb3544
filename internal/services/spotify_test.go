package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/desertthunder/plx/internal/shared"
)

func testToken() *shared.Token {
	return &shared.Token{AccessToken: "test-token", TokenType: "Bearer"}
}

func spotifyTestService(url string) *SpotifyService {
	svc := NewSpotifyService("PL123", testToken(), nil, 100)
	svc.baseURL = url
	return svc
}

func spotifyPlaylistBody(ids ...string) map[string]any {
	items := make([]map[string]any, 0, len(ids))
	for _, id := range ids {
		items = append(items, map[string]any{
			"track": map[string]any{
				"id":          id,
				"name":        "Track " + id,
				"artists":     []map[string]any{{"id": "a1", "name": "Artist"}},
				"duration_ms": 200000,
				"uri":         "spotify:track:" + id,
			},
		})
	}
	return map[string]any{
		"id":   "PL123",
		"name": "Test Playlist",
		"tracks": map[string]any{
			"items": items,
			"total": len(items),
			"limit": 100,
		},
	}
}

func TestSpotifyService(t *testing.T) {
	ctx := context.Background()

	t.Run("FetchSnapshot", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/playlists/PL123" {
				t.Errorf("expected path /playlists/PL123, got %s", r.URL.Path)
			}
			if r.Header.Get("Authorization") != "Bearer test-token" {
				t.Errorf("expected bearer auth header, got %q", r.Header.Get("Authorization"))
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(spotifyPlaylistBody("t1", "t2", "t3"))
		}))
		defer server.Close()

		snapshot, err := spotifyTestService(server.URL).FetchSnapshot(ctx)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if snapshot.Name != "Test Playlist" {
			t.Errorf("expected name 'Test Playlist', got %s", snapshot.Name)
		}
		if got := snapshot.TrackIDs(); len(got) != 3 || got[0] != "t1" || got[2] != "t3" {
			t.Errorf("expected tracks [t1 t2 t3], got %v", got)
		}
		if snapshot.Tracks[0].DurationMS != 200000 {
			t.Errorf("expected duration 200000, got %d", snapshot.Tracks[0].DurationMS)
		}
	})

	t.Run("ApplyAdd", func(t *testing.T) {
		t.Run("inserts at position", func(t *testing.T) {
			var addBody map[string]any
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				if r.Method == http.MethodPost {
					json.NewDecoder(r.Body).Decode(&addBody)
					json.NewEncoder(w).Encode(map[string]string{"snapshot_id": "s1"})
					return
				}
				json.NewEncoder(w).Encode(spotifyPlaylistBody("t1", "t2"))
			}))
			defer server.Close()

			if err := spotifyTestService(server.URL).ApplyAdd(ctx, "t9", 1); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if addBody == nil {
				t.Fatal("expected POST body to be captured")
			}
			uris := addBody["uris"].([]any)
			if uris[0] != "spotify:track:t9" {
				t.Errorf("expected uri spotify:track:t9, got %v", uris[0])
			}
			if addBody["position"].(float64) != 1 {
				t.Errorf("expected position 1, got %v", addBody["position"])
			}
		})

		t.Run("no-op when already applied", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodGet {
					t.Errorf("unexpected %s request, add should be skipped", r.Method)
				}
				w.Header().Set("Content-Type", "application/json")
				json.NewEncoder(w).Encode(spotifyPlaylistBody("t1", "t9", "t2"))
			}))
			defer server.Close()

			if err := spotifyTestService(server.URL).ApplyAdd(ctx, "t9", 1); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
		})
	})

	t.Run("ApplyRemove", func(t *testing.T) {
		t.Run("deletes present track", func(t *testing.T) {
			deleted := false
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				if r.Method == http.MethodDelete {
					deleted = true
					json.NewEncoder(w).Encode(map[string]string{"snapshot_id": "s2"})
					return
				}
				json.NewEncoder(w).Encode(spotifyPlaylistBody("t1", "t2"))
			}))
			defer server.Close()

			if err := spotifyTestService(server.URL).ApplyRemove(ctx, "t2"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if !deleted {
				t.Error("expected DELETE request")
			}
		})

		t.Run("no-op when absent", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method == http.MethodDelete {
					t.Error("expected remove of absent track to be skipped")
				}
				w.Header().Set("Content-Type", "application/json")
				json.NewEncoder(w).Encode(spotifyPlaylistBody("t1"))
			}))
			defer server.Close()

			if err := spotifyTestService(server.URL).ApplyRemove(ctx, "missing"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
		})
	})

	t.Run("ApplyMove", func(t *testing.T) {
		tests := []struct {
			name             string
			remote           []string
			trackID          string
			index            int
			wantRangeStart   int
			wantInsertBefore int
		}{
			{"move up", []string{"t1", "t2", "t3"}, "t3", 0, 2, 0},
			{"move down adjusts insert_before", []string{"t1", "t2", "t3"}, "t1", 2, 0, 3},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				var moveBody map[string]any
				server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					w.Header().Set("Content-Type", "application/json")
					if r.Method == http.MethodPut {
						json.NewDecoder(r.Body).Decode(&moveBody)
						json.NewEncoder(w).Encode(map[string]string{"snapshot_id": "s3"})
						return
					}
					json.NewEncoder(w).Encode(spotifyPlaylistBody(tt.remote...))
				}))
				defer server.Close()

				if err := spotifyTestService(server.URL).ApplyMove(ctx, tt.trackID, tt.index); err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				if got := int(moveBody["range_start"].(float64)); got != tt.wantRangeStart {
					t.Errorf("expected range_start %d, got %d", tt.wantRangeStart, got)
				}
				if got := int(moveBody["insert_before"].(float64)); got != tt.wantInsertBefore {
					t.Errorf("expected insert_before %d, got %d", tt.wantInsertBefore, got)
				}
			})
		}

		t.Run("no-op at target index", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method == http.MethodPut {
					t.Error("expected move to be skipped")
				}
				w.Header().Set("Content-Type", "application/json")
				json.NewEncoder(w).Encode(spotifyPlaylistBody("t1", "t2"))
			}))
			defer server.Close()

			if err := spotifyTestService(server.URL).ApplyMove(ctx, "t2", 1); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
		})

		t.Run("fails for missing track", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				json.NewEncoder(w).Encode(spotifyPlaylistBody("t1"))
			}))
			defer server.Close()

			err := spotifyTestService(server.URL).ApplyMove(ctx, "ghost", 0)
			if !errors.Is(err, shared.ErrTrackNotFound) {
				t.Fatalf("expected ErrTrackNotFound, got %v", err)
			}
		})
	})

	t.Run("Search", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/search" {
				t.Errorf("expected path /search, got %s", r.URL.Path)
			}
			if q := r.URL.Query().Get("q"); q != "daft punk" {
				t.Errorf("expected query 'daft punk', got %q", q)
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]any{
				"tracks": map[string]any{
					"items": []map[string]any{{
						"id":          "t7",
						"name":        "Around the World",
						"artists":     []map[string]any{{"name": "Daft Punk"}},
						"duration_ms": 429000,
					}},
				},
			})
		}))
		defer server.Close()

		tracks, err := spotifyTestService(server.URL).Search(ctx, "daft punk")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(tracks) != 1 || tracks[0].ID != "t7" {
			t.Fatalf("expected one result t7, got %v", tracks)
		}
		if tracks[0].Artists[0] != "Daft Punk" {
			t.Errorf("expected artist 'Daft Punk', got %v", tracks[0].Artists)
		}
	})

	t.Run("Error Handling", func(t *testing.T) {
		statuses := []struct {
			status int
			want   error
		}{
			{http.StatusUnauthorized, shared.ErrAuthExpired},
			{http.StatusForbidden, shared.ErrAuthFailed},
			{http.StatusNotFound, shared.ErrTrackNotFound},
			{http.StatusTooManyRequests, shared.ErrProviderUnavailable},
			{http.StatusInternalServerError, shared.ErrProviderUnavailable},
		}
		for _, tt := range statuses {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))

			_, err := spotifyTestService(server.URL).FetchSnapshot(ctx)
			if !errors.Is(err, tt.want) {
				t.Errorf("status %d: expected %v, got %v", tt.status, tt.want, err)
			}
			server.Close()
		}

		t.Run("missing token", func(t *testing.T) {
			svc := NewSpotifyService("PL123", nil, nil, 100)
			if _, err := svc.FetchSnapshot(ctx); !errors.Is(err, shared.ErrNotAuthenticated) {
				t.Fatalf("expected ErrNotAuthenticated, got %v", err)
			}
		})
	})
}
