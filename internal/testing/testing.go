// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/plx/internal/models"
	"github.com/desertthunder/plx/internal/shared"
)

// MockProvider is an in-memory test double for [services.Provider]. It keeps
// an ordered remote track list and applies mutations with the same idempotent
// semantics as the real adapters. Every call is recorded in Calls.
type MockProvider struct {
	mu       sync.Mutex
	provider models.Provider
	tracks   []models.Track

	PlaylistID string                  // Reported in fetched snapshots
	Library    map[string]models.Track // ResolveTrack and Search source
	Calls      []string                // Recorded operations in order
	FailOps    int                     // Next N mutations fail with ErrProviderUnavailable
	FailOnOp   int                     // 1-based mutation ordinal that fails once, earlier ones land
	FetchErr   error                   // Forced FetchSnapshot error
}

func NewMockProvider(provider models.Provider, tracks ...models.Track) *MockProvider {
	return &MockProvider{
		provider:   provider,
		tracks:     tracks,
		PlaylistID: "mock-playlist",
		Library:    map[string]models.Track{},
	}
}

// TrackIDs returns the current remote track order.
func (m *MockProvider) TrackIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, len(m.tracks))
	for i, t := range m.tracks {
		ids[i] = t.ID
	}
	return ids
}

// SetTracks replaces the remote state, simulating out-of-band drift.
func (m *MockProvider) SetTracks(tracks ...models.Track) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tracks = tracks
}

func (m *MockProvider) record(call string) {
	m.Calls = append(m.Calls, call)
}

func (m *MockProvider) failing() bool {
	if m.FailOps > 0 {
		m.FailOps--
		return true
	}
	if m.FailOnOp > 0 {
		m.FailOnOp--
		return m.FailOnOp == 0
	}
	return false
}

func (m *MockProvider) indexOf(trackID string) int {
	for i, t := range m.tracks {
		if t.ID == trackID {
			return i
		}
	}
	return -1
}

func (m *MockProvider) Kind() models.Provider { return m.provider }

func (m *MockProvider) FetchSnapshot(ctx context.Context) (models.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("fetch")
	if m.FetchErr != nil {
		return models.Snapshot{}, m.FetchErr
	}
	tracks := make([]models.Track, len(m.tracks))
	copy(tracks, m.tracks)
	return models.Snapshot{PlaylistID: m.PlaylistID, Name: "Mock", Provider: m.provider, Tracks: tracks}, nil
}

func (m *MockProvider) ApplyAdd(ctx context.Context, trackID string, index int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record(fmt.Sprintf("add %s@%d", trackID, index))
	if m.failing() {
		return shared.ErrProviderUnavailable
	}
	if m.indexOf(trackID) == index {
		return nil
	}
	track, ok := m.Library[trackID]
	if !ok {
		track = models.Track{ID: trackID, Provider: m.provider}
	}
	if index > len(m.tracks) {
		index = len(m.tracks)
	}
	m.tracks = append(m.tracks, models.Track{})
	copy(m.tracks[index+1:], m.tracks[index:])
	m.tracks[index] = track
	return nil
}

func (m *MockProvider) ApplyRemove(ctx context.Context, trackID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record(fmt.Sprintf("remove %s", trackID))
	if m.failing() {
		return shared.ErrProviderUnavailable
	}
	at := m.indexOf(trackID)
	if at < 0 {
		return nil
	}
	m.tracks = append(m.tracks[:at], m.tracks[at+1:]...)
	return nil
}

func (m *MockProvider) ApplyMove(ctx context.Context, trackID string, index int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record(fmt.Sprintf("move %s@%d", trackID, index))
	if m.failing() {
		return shared.ErrProviderUnavailable
	}
	at := m.indexOf(trackID)
	if at < 0 {
		return fmt.Errorf("%w: %s", shared.ErrTrackNotFound, trackID)
	}
	if at == index {
		return nil
	}
	track := m.tracks[at]
	m.tracks = append(m.tracks[:at], m.tracks[at+1:]...)
	if index > len(m.tracks) {
		index = len(m.tracks)
	}
	m.tracks = append(m.tracks, models.Track{})
	copy(m.tracks[index+1:], m.tracks[index:])
	m.tracks[index] = track
	return nil
}

func (m *MockProvider) ResolveTrack(ctx context.Context, trackID string) (models.Track, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record(fmt.Sprintf("resolve %s", trackID))
	track, ok := m.Library[trackID]
	if !ok {
		return models.Track{}, fmt.Errorf("%w: %s", shared.ErrTrackNotFound, trackID)
	}
	return track, nil
}

func (m *MockProvider) Search(ctx context.Context, query string) ([]models.Track, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record(fmt.Sprintf("search %s", query))
	var results []models.Track
	for _, t := range m.Library {
		results = append(results, t)
	}
	return results, nil
}

// Tracks builds a track slice from bare IDs, for snapshot fixtures.
func Tracks(provider models.Provider, ids ...string) []models.Track {
	tracks := make([]models.Track, len(ids))
	for i, id := range ids {
		tracks[i] = models.Track{ID: id, Title: "Track " + id, Provider: provider}
	}
	return tracks
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
