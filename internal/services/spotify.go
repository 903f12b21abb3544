// Spotify implementation of [Provider]
//
// API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/desertthunder/plx/internal/models"
	"github.com/desertthunder/plx/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"
)

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Artists    []SpotifyArtist `json:"artists"`
	DurationMS int             `json:"duration_ms"`
	URI        string          `json:"uri"`
}

// SpotifyPlaylistTrack represents a track within a playlist context.
type SpotifyPlaylistTrack struct {
	AddedAt string       `json:"added_at"`
	Track   SpotifyTrack `json:"track"`
}

// SpotifyPaginatedItems represents a page of playlist items.
type SpotifyPaginatedItems struct {
	Items  []SpotifyPlaylistTrack `json:"items"`
	Total  int                    `json:"total"`
	Limit  int                    `json:"limit"`
	Offset int                    `json:"offset"`
	Next   *string                `json:"next"`
}

// SpotifyPlaylist represents a Spotify playlist.
type SpotifyPlaylist struct {
	ID          string                `json:"id"`
	Name        string                `json:"name"`
	Description string                `json:"description"`
	Tracks      SpotifyPaginatedItems `json:"tracks"`
	URI         string                `json:"uri"`
}

// SpotifyService implements [Provider] for one Spotify playlist.
// Uses [oauth2] bearer tokens and throttles API calls with a [rate.Limiter].
type SpotifyService struct {
	playlistID string
	baseURL    string
	token      *shared.Token
	httpClient *http.Client
	limiter    *rate.Limiter
}

// OAuthConfig builds the oauth2 configuration for the Spotify authorization
// code flow with the scopes playlist sync requires.
func OAuthConfig(cfg shared.SpotifyConfig) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURI,
		Scopes: []string{
			"playlist-read-private",
			"playlist-read-collaborative",
			"playlist-modify-public",
			"playlist-modify-private",
		},
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyAuthURL,
			TokenURL: spotifyTokenURL,
		},
	}
}

// NewSpotifyService creates an adapter bound to a playlist, consuming a valid
// token from the credential collaborator.
func NewSpotifyService(playlistID string, token *shared.Token, client *http.Client, rps float64) *SpotifyService {
	if client == nil {
		client = http.DefaultClient
	}
	if rps <= 0 {
		rps = 4
	}
	return &SpotifyService{
		playlistID: playlistID,
		baseURL:    spotifyBaseURL,
		token:      token,
		httpClient: client,
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
	}
}

func (s *SpotifyService) Kind() models.Provider { return models.ProviderSpotify }

// doRequest performs an authenticated, rate-limited request to the Spotify API.
func (s *SpotifyService) doRequest(ctx context.Context, method, endpoint string, body, result any) error {
	if s.token == nil {
		return fmt.Errorf("%w: call 'plx auth spotify' first", shared.ErrNotAuthenticated)
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrProviderUnavailable, err)
	}

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to serialize request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.token.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(models.ProviderSpotify, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

func spotifyToTrack(st SpotifyTrack) models.Track {
	artists := make([]string, 0, len(st.Artists))
	for _, a := range st.Artists {
		artists = append(artists, a.Name)
	}
	meta, _ := json.Marshal(map[string]string{"uri": st.URI})
	return models.Track{
		ID:         st.ID,
		Title:      st.Name,
		Artists:    artists,
		DurationMS: st.DurationMS,
		Provider:   models.ProviderSpotify,
		Metadata:   meta,
	}
}

// FetchSnapshot retrieves the full remote track list, following pagination.
func (s *SpotifyService) FetchSnapshot(ctx context.Context) (models.Snapshot, error) {
	var playlist SpotifyPlaylist
	endpoint := fmt.Sprintf("/playlists/%s", s.playlistID)
	if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &playlist); err != nil {
		return models.Snapshot{}, err
	}

	snapshot := models.Snapshot{
		PlaylistID: playlist.ID,
		Name:       playlist.Name,
		Provider:   models.ProviderSpotify,
	}
	for _, item := range playlist.Tracks.Items {
		snapshot.Tracks = append(snapshot.Tracks, spotifyToTrack(item.Track))
	}

	offset := len(playlist.Tracks.Items)
	for playlist.Tracks.Next != nil && offset < playlist.Tracks.Total {
		var page SpotifyPaginatedItems
		endpoint := fmt.Sprintf("/playlists/%s/tracks?limit=100&offset=%d", s.playlistID, offset)
		if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &page); err != nil {
			return models.Snapshot{}, err
		}
		if len(page.Items) == 0 {
			break
		}
		for _, item := range page.Items {
			snapshot.Tracks = append(snapshot.Tracks, spotifyToTrack(item.Track))
		}
		offset += len(page.Items)
		playlist.Tracks.Next = page.Next
	}

	return snapshot, nil
}

// ApplyAdd inserts a track at the given position. No-op when the track is
// already present at that position.
func (s *SpotifyService) ApplyAdd(ctx context.Context, trackID string, index int) error {
	remote, err := s.FetchSnapshot(ctx)
	if err != nil {
		return err
	}
	if at := remote.IndexOf(trackID); at == index {
		return nil
	}

	body := map[string]any{
		"uris":     []string{"spotify:track:" + trackID},
		"position": index,
	}
	endpoint := fmt.Sprintf("/playlists/%s/tracks", s.playlistID)
	return s.doRequest(ctx, http.MethodPost, endpoint, body, nil)
}

// ApplyRemove deletes all occurrences of a track. No-op when absent.
func (s *SpotifyService) ApplyRemove(ctx context.Context, trackID string) error {
	remote, err := s.FetchSnapshot(ctx)
	if err != nil {
		return err
	}
	if !remote.Contains(trackID) {
		return nil
	}

	body := map[string]any{
		"tracks": []map[string]string{{"uri": "spotify:track:" + trackID}},
	}
	endpoint := fmt.Sprintf("/playlists/%s/tracks", s.playlistID)
	return s.doRequest(ctx, http.MethodDelete, endpoint, body, nil)
}

// ApplyMove repositions a track using Spotify's native reorder primitive.
// No-op when the track already sits at the target index.
func (s *SpotifyService) ApplyMove(ctx context.Context, trackID string, index int) error {
	remote, err := s.FetchSnapshot(ctx)
	if err != nil {
		return err
	}
	from := remote.IndexOf(trackID)
	if from < 0 {
		return fmt.Errorf("%w: %s not in remote playlist", shared.ErrTrackNotFound, trackID)
	}
	if from == index {
		return nil
	}

	// Spotify reorders by removing the range and re-inserting before
	// insert_before, so a downward move targets index+1.
	insertBefore := index
	if from < index {
		insertBefore = index + 1
	}
	body := map[string]any{
		"range_start":   from,
		"insert_before": insertBefore,
		"range_length":  1,
	}
	endpoint := fmt.Sprintf("/playlists/%s/tracks", s.playlistID)
	return s.doRequest(ctx, http.MethodPut, endpoint, body, nil)
}

// ResolveTrack fetches full metadata for a track ID.
func (s *SpotifyService) ResolveTrack(ctx context.Context, trackID string) (models.Track, error) {
	var track SpotifyTrack
	endpoint := fmt.Sprintf("/tracks/%s", url.PathEscape(trackID))
	if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &track); err != nil {
		return models.Track{}, err
	}
	return spotifyToTrack(track), nil
}

// Search finds tracks matching a free-form query.
func (s *SpotifyService) Search(ctx context.Context, query string) ([]models.Track, error) {
	var response struct {
		Tracks struct {
			Items []SpotifyTrack `json:"items"`
		} `json:"tracks"`
	}
	endpoint := fmt.Sprintf("/search?q=%s&type=track&limit=20", url.QueryEscape(query))
	if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &response); err != nil {
		return nil, err
	}

	tracks := make([]models.Track, 0, len(response.Tracks.Items))
	for _, item := range response.Tracks.Items {
		tracks = append(tracks, spotifyToTrack(item))
	}
	return tracks, nil
}
