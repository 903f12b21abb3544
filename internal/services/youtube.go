// YouTube implementation of [Provider]
//
// API response types based on https://developers.google.com/youtube/v3/docs
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/desertthunder/plx/internal/models"
	"github.com/desertthunder/plx/internal/shared"
	"golang.org/x/time/rate"
)

const youtubeBaseURL = "https://www.googleapis.com/youtube/v3"

type youtubeResourceID struct {
	Kind    string `json:"kind"`
	VideoID string `json:"videoId"`
}

type youtubeSnippet struct {
	Title        string            `json:"title"`
	ChannelTitle string            `json:"channelTitle,omitempty"`
	PlaylistID   string            `json:"playlistId,omitempty"`
	Position     *int              `json:"position,omitempty"`
	ResourceID   youtubeResourceID `json:"resourceId"`
}

type youtubeContentDetails struct {
	Duration string `json:"duration"`
}

type youtubeItem struct {
	ID             string                 `json:"id"`
	Snippet        youtubeSnippet         `json:"snippet"`
	ContentDetails *youtubeContentDetails `json:"contentDetails,omitempty"`
}

type youtubePage struct {
	Items         []youtubeItem `json:"items"`
	NextPageToken string        `json:"nextPageToken"`
}

// YouTubeService implements [Provider] for one YouTube playlist.
//
// The YouTube Data API has no reorder primitive, so moves are synthesized as
// a delete followed by a positioned re-insert.
type YouTubeService struct {
	playlistID string
	baseURL    string
	token      *shared.Token
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewYouTubeService creates an adapter bound to a playlist. The token is
// required for mutations; the API key alone suffices for read-only calls.
func NewYouTubeService(playlistID string, token *shared.Token, apiKey string, client *http.Client, rps float64) *YouTubeService {
	if client == nil {
		client = http.DefaultClient
	}
	if rps <= 0 {
		rps = 4
	}
	return &YouTubeService{
		playlistID: playlistID,
		baseURL:    youtubeBaseURL,
		token:      token,
		apiKey:     apiKey,
		httpClient: client,
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
	}
}

func (s *YouTubeService) Kind() models.Provider { return models.ProviderYouTube }

func (s *YouTubeService) doRequest(ctx context.Context, method, endpoint string, body, result any) error {
	if s.token == nil && s.apiKey == "" {
		return fmt.Errorf("%w: call 'plx auth youtube' first", shared.ErrNotAuthenticated)
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrProviderUnavailable, err)
	}

	apiURL := s.baseURL + endpoint
	if s.token == nil {
		sep := "?"
		if strings.Contains(endpoint, "?") {
			sep = "&"
		}
		apiURL += sep + "key=" + url.QueryEscape(s.apiKey)
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

	req, err := http.NewRequestWithContext(ctx, method, apiURL, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if s.token != nil {
		req.Header.Set("Authorization", "Bearer "+s.token.AccessToken)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(models.ProviderYouTube, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// fetchItems lists all playlist items in order, following pagination.
func (s *YouTubeService) fetchItems(ctx context.Context) ([]youtubeItem, error) {
	var items []youtubeItem
	pageToken := ""

	for {
		endpoint := fmt.Sprintf("/playlistItems?part=snippet&playlistId=%s&maxResults=50", url.QueryEscape(s.playlistID))
		if pageToken != "" {
			endpoint += "&pageToken=" + url.QueryEscape(pageToken)
		}

		var page youtubePage
		if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &page); err != nil {
			return nil, err
		}
		items = append(items, page.Items...)

		if page.NextPageToken == "" {
			return items, nil
		}
		pageToken = page.NextPageToken
	}
}

func (s *YouTubeService) findItem(items []youtubeItem, videoID string) (youtubeItem, int) {
	for i, item := range items {
		if item.Snippet.ResourceID.VideoID == videoID {
			return item, i
		}
	}
	return youtubeItem{}, -1
}

// FetchSnapshot retrieves the current remote ordered track list.
func (s *YouTubeService) FetchSnapshot(ctx context.Context) (models.Snapshot, error) {
	items, err := s.fetchItems(ctx)
	if err != nil {
		return models.Snapshot{}, err
	}

	snapshot := models.Snapshot{PlaylistID: s.playlistID, Provider: models.ProviderYouTube}
	for _, item := range items {
		meta, _ := json.Marshal(map[string]string{"item_id": item.ID})
		track := models.Track{
			ID:       item.Snippet.ResourceID.VideoID,
			Title:    item.Snippet.Title,
			Provider: models.ProviderYouTube,
			Metadata: meta,
		}
		if item.Snippet.ChannelTitle != "" {
			track.Artists = []string{item.Snippet.ChannelTitle}
		}
		snapshot.Tracks = append(snapshot.Tracks, track)
	}
	return snapshot, nil
}

func (s *YouTubeService) insertAt(ctx context.Context, videoID string, index int) error {
	body := map[string]any{
		"snippet": map[string]any{
			"playlistId": s.playlistID,
			"position":   index,
			"resourceId": map[string]string{
				"kind":    "youtube#video",
				"videoId": videoID,
			},
		},
	}
	return s.doRequest(ctx, http.MethodPost, "/playlistItems?part=snippet", body, nil)
}

// ApplyAdd inserts a video at the given position. No-op when already there.
func (s *YouTubeService) ApplyAdd(ctx context.Context, trackID string, index int) error {
	items, err := s.fetchItems(ctx)
	if err != nil {
		return err
	}
	if _, at := s.findItem(items, trackID); at == index {
		return nil
	}
	return s.insertAt(ctx, trackID, index)
}

// ApplyRemove deletes all items referencing the video. No-op when absent.
func (s *YouTubeService) ApplyRemove(ctx context.Context, trackID string) error {
	items, err := s.fetchItems(ctx)
	if err != nil {
		return err
	}

	item, at := s.findItem(items, trackID)
	if at < 0 {
		return nil
	}
	endpoint := "/playlistItems?id=" + url.QueryEscape(item.ID)
	return s.doRequest(ctx, http.MethodDelete, endpoint, nil, nil)
}

// ApplyMove synthesizes a reorder as delete plus positioned re-insert, since
// the playlistItems API has no move primitive. No-op when the video already
// sits at the target index.
func (s *YouTubeService) ApplyMove(ctx context.Context, trackID string, index int) error {
	items, err := s.fetchItems(ctx)
	if err != nil {
		return err
	}

	item, at := s.findItem(items, trackID)
	if at < 0 {
		return fmt.Errorf("%w: %s not in remote playlist", shared.ErrTrackNotFound, trackID)
	}
	if at == index {
		return nil
	}

	endpoint := "/playlistItems?id=" + url.QueryEscape(item.ID)
	if err := s.doRequest(ctx, http.MethodDelete, endpoint, nil, nil); err != nil {
		return err
	}
	return s.insertAt(ctx, trackID, index)
}

// ResolveTrack fetches full metadata for a video ID.
func (s *YouTubeService) ResolveTrack(ctx context.Context, trackID string) (models.Track, error) {
	endpoint := fmt.Sprintf("/videos?part=snippet,contentDetails&id=%s", url.QueryEscape(trackID))

	var page youtubePage
	if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &page); err != nil {
		return models.Track{}, err
	}
	if len(page.Items) == 0 {
		return models.Track{}, fmt.Errorf("%w: video %s", shared.ErrTrackNotFound, trackID)
	}

	item := page.Items[0]
	track := models.Track{
		ID:       item.ID,
		Title:    item.Snippet.Title,
		Provider: models.ProviderYouTube,
	}
	if item.Snippet.ChannelTitle != "" {
		track.Artists = []string{item.Snippet.ChannelTitle}
	}
	if item.ContentDetails != nil {
		track.DurationMS = parseISODuration(item.ContentDetails.Duration)
	}
	return track, nil
}

// Search finds videos matching a free-form query.
func (s *YouTubeService) Search(ctx context.Context, query string) ([]models.Track, error) {
	endpoint := fmt.Sprintf("/search?part=snippet&type=video&maxResults=20&q=%s", url.QueryEscape(query))

	var response struct {
		Items []struct {
			ID      youtubeResourceID `json:"id"`
			Snippet youtubeSnippet    `json:"snippet"`
		} `json:"items"`
	}
	if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &response); err != nil {
		return nil, err
	}

	tracks := make([]models.Track, 0, len(response.Items))
	for _, item := range response.Items {
		track := models.Track{
			ID:       item.ID.VideoID,
			Title:    item.Snippet.Title,
			Provider: models.ProviderYouTube,
		}
		if item.Snippet.ChannelTitle != "" {
			track.Artists = []string{item.Snippet.ChannelTitle}
		}
		tracks = append(tracks, track)
	}
	return tracks, nil
}

// parseISODuration converts an ISO 8601 duration like PT4M33S to milliseconds.
// Malformed input yields 0.
func parseISODuration(d string) int {
	d = strings.TrimPrefix(d, "PT")
	var total, num int
	for _, r := range d {
		if r >= '0' && r <= '9' {
			num = num*10 + int(r-'0')
			continue
		}
		switch r {
		case 'H':
			total += num * 3600
		case 'M':
			total += num * 60
		case 'S':
			total += num
		}
		num = 0
	}
	return total * 1000
}
