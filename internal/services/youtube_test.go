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

func youtubeTestService(url string) *YouTubeService {
	svc := NewYouTubeService("PLYT1", testToken(), "", nil, 100)
	svc.baseURL = url
	return svc
}

func youtubeItemsBody(videoIDs ...string) map[string]any {
	items := make([]map[string]any, 0, len(videoIDs))
	for i, id := range videoIDs {
		items = append(items, map[string]any{
			"id": "item-" + id,
			"snippet": map[string]any{
				"title":        "Video " + id,
				"channelTitle": "Channel",
				"position":     i,
				"resourceId":   map[string]string{"kind": "youtube#video", "videoId": id},
			},
		})
	}
	return map[string]any{"items": items}
}

func TestYouTubeService(t *testing.T) {
	ctx := context.Background()

	t.Run("FetchSnapshot", func(t *testing.T) {
		t.Run("single page", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/playlistItems" {
					t.Errorf("expected path /playlistItems, got %s", r.URL.Path)
				}
				if got := r.URL.Query().Get("playlistId"); got != "PLYT1" {
					t.Errorf("expected playlistId PLYT1, got %s", got)
				}
				w.Header().Set("Content-Type", "application/json")
				json.NewEncoder(w).Encode(youtubeItemsBody("v1", "v2"))
			}))
			defer server.Close()

			snapshot, err := youtubeTestService(server.URL).FetchSnapshot(ctx)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if got := snapshot.TrackIDs(); len(got) != 2 || got[0] != "v1" || got[1] != "v2" {
				t.Fatalf("expected tracks [v1 v2], got %v", got)
			}
			if snapshot.Tracks[0].Artists[0] != "Channel" {
				t.Errorf("expected channel title as artist, got %v", snapshot.Tracks[0].Artists)
			}
		})

		t.Run("follows pagination", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				if r.URL.Query().Get("pageToken") == "" {
					page := youtubeItemsBody("v1")
					page["nextPageToken"] = "page2"
					json.NewEncoder(w).Encode(page)
					return
				}
				json.NewEncoder(w).Encode(youtubeItemsBody("v2"))
			}))
			defer server.Close()

			snapshot, err := youtubeTestService(server.URL).FetchSnapshot(ctx)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if got := snapshot.TrackIDs(); len(got) != 2 || got[1] != "v2" {
				t.Fatalf("expected tracks [v1 v2], got %v", got)
			}
		})
	})

	t.Run("ApplyAdd", func(t *testing.T) {
		var insertBody map[string]any
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			if r.Method == http.MethodPost {
				json.NewDecoder(r.Body).Decode(&insertBody)
				json.NewEncoder(w).Encode(map[string]string{"id": "item-new"})
				return
			}
			json.NewEncoder(w).Encode(youtubeItemsBody("v1", "v2"))
		}))
		defer server.Close()

		if err := youtubeTestService(server.URL).ApplyAdd(ctx, "v9", 1); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		snippet := insertBody["snippet"].(map[string]any)
		if snippet["position"].(float64) != 1 {
			t.Errorf("expected position 1, got %v", snippet["position"])
		}
		resource := snippet["resourceId"].(map[string]any)
		if resource["videoId"] != "v9" {
			t.Errorf("expected videoId v9, got %v", resource["videoId"])
		}
	})

	t.Run("ApplyRemove", func(t *testing.T) {
		t.Run("deletes by item ID", func(t *testing.T) {
			var deletedID string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				if r.Method == http.MethodDelete {
					deletedID = r.URL.Query().Get("id")
					w.WriteHeader(http.StatusNoContent)
					return
				}
				json.NewEncoder(w).Encode(youtubeItemsBody("v1", "v2"))
			}))
			defer server.Close()

			if err := youtubeTestService(server.URL).ApplyRemove(ctx, "v2"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if deletedID != "item-v2" {
				t.Errorf("expected delete of item-v2, got %s", deletedID)
			}
		})

		t.Run("no-op when absent", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method == http.MethodDelete {
					t.Error("expected remove of absent video to be skipped")
				}
				w.Header().Set("Content-Type", "application/json")
				json.NewEncoder(w).Encode(youtubeItemsBody("v1"))
			}))
			defer server.Close()

			if err := youtubeTestService(server.URL).ApplyRemove(ctx, "missing"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
		})
	})

	t.Run("ApplyMove", func(t *testing.T) {
		t.Run("synthesizes delete plus insert", func(t *testing.T) {
			var deletedID string
			var insertBody map[string]any
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				switch r.Method {
				case http.MethodDelete:
					deletedID = r.URL.Query().Get("id")
					w.WriteHeader(http.StatusNoContent)
				case http.MethodPost:
					json.NewDecoder(r.Body).Decode(&insertBody)
					json.NewEncoder(w).Encode(map[string]string{"id": "item-moved"})
				default:
					json.NewEncoder(w).Encode(youtubeItemsBody("v1", "v2", "v3"))
				}
			}))
			defer server.Close()

			if err := youtubeTestService(server.URL).ApplyMove(ctx, "v3", 0); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if deletedID != "item-v3" {
				t.Errorf("expected delete of item-v3, got %s", deletedID)
			}
			snippet := insertBody["snippet"].(map[string]any)
			if snippet["position"].(float64) != 0 {
				t.Errorf("expected re-insert at position 0, got %v", snippet["position"])
			}
		})

		t.Run("no-op at target index", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodGet {
					t.Errorf("expected move to be skipped, got %s", r.Method)
				}
				w.Header().Set("Content-Type", "application/json")
				json.NewEncoder(w).Encode(youtubeItemsBody("v1", "v2"))
			}))
			defer server.Close()

			if err := youtubeTestService(server.URL).ApplyMove(ctx, "v2", 1); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
		})

		t.Run("fails for missing video", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				json.NewEncoder(w).Encode(youtubeItemsBody("v1"))
			}))
			defer server.Close()

			err := youtubeTestService(server.URL).ApplyMove(ctx, "ghost", 0)
			if !errors.Is(err, shared.ErrTrackNotFound) {
				t.Fatalf("expected ErrTrackNotFound, got %v", err)
			}
		})
	})

	t.Run("ResolveTrack", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/videos" {
				t.Errorf("expected path /videos, got %s", r.URL.Path)
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]any{
				"items": []map[string]any{{
					"id": "v5",
					"snippet": map[string]any{
						"title":        "One More Time",
						"channelTitle": "Daft Punk",
					},
					"contentDetails": map[string]string{"duration": "PT5M20S"},
				}},
			})
		}))
		defer server.Close()

		track, err := youtubeTestService(server.URL).ResolveTrack(ctx, "v5")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if track.Title != "One More Time" {
			t.Errorf("expected title 'One More Time', got %s", track.Title)
		}
		if track.DurationMS != 320000 {
			t.Errorf("expected duration 320000ms, got %d", track.DurationMS)
		}
	})

	t.Run("Search", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/search" {
				t.Errorf("expected path /search, got %s", r.URL.Path)
			}
			if got := r.URL.Query().Get("type"); got != "video" {
				t.Errorf("expected type=video, got %s", got)
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]any{
				"items": []map[string]any{{
					"id": map[string]string{"kind": "youtube#video", "videoId": "v8"},
					"snippet": map[string]any{
						"title":        "Da Funk",
						"channelTitle": "Daft Punk",
					},
				}},
			})
		}))
		defer server.Close()

		tracks, err := youtubeTestService(server.URL).Search(ctx, "da funk")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(tracks) != 1 || tracks[0].ID != "v8" {
			t.Fatalf("expected one result v8, got %v", tracks)
		}
	})

	t.Run("missing credentials", func(t *testing.T) {
		svc := NewYouTubeService("PLYT1", nil, "", nil, 100)
		if _, err := svc.FetchSnapshot(ctx); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Fatalf("expected ErrNotAuthenticated, got %v", err)
		}
	})
}

func TestParseISODuration(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"PT4M33S", 273000},
		{"PT1H2M3S", 3723000},
		{"PT45S", 45000},
		{"PT2M", 120000},
		{"", 0},
		{"garbage", 0},
	}
	for _, tt := range tests {
		if got := parseISODuration(tt.input); got != tt.want {
			t.Errorf("parseISODuration(%q) = %d, want %d", tt.input, got, tt.want)
		}
	}
}
