package services

import (
	"context"
	"fmt"
	"net/http"

	"github.com/desertthunder/plx/internal/models"
	"github.com/desertthunder/plx/internal/shared"
)

// Provider is the capability contract between the sync engine and a remote
// playlist backend.
type Provider interface {
	// Kind returns the provider variant.
	Kind() models.Provider

	// FetchSnapshot retrieves the current remote ordered track list.
	FetchSnapshot(ctx context.Context) (models.Snapshot, error)

	// ApplyAdd inserts a track at the given index. Re-applying an
	// already-applied addition is a no-op.
	ApplyAdd(ctx context.Context, trackID string, index int) error

	// ApplyRemove removes a track. Removing an absent track is a no-op.
	ApplyRemove(ctx context.Context, trackID string) error

	// ApplyMove repositions a track to the given index. Moving a track
	// already at the index is a no-op.
	ApplyMove(ctx context.Context, trackID string, index int) error

	// ResolveTrack looks up full track metadata by provider track ID.
	ResolveTrack(ctx context.Context, trackID string) (models.Track, error)

	// Search finds tracks matching a free-form query.
	Search(ctx context.Context, query string) ([]models.Track, error)
}

// statusError maps an HTTP status code from a provider API to the error
// taxonomy: 401 surfaces re-auth, 429 and server errors are transient and
// retryable, 404 means the resource is gone.
func statusError(provider models.Provider, status int) error {
	switch {
	case status == http.StatusUnauthorized:
		return fmt.Errorf("%w: %s returned 401", shared.ErrAuthExpired, provider)
	case status == http.StatusForbidden:
		return fmt.Errorf("%w: %s returned 403", shared.ErrAuthFailed, provider)
	case status == http.StatusNotFound:
		return fmt.Errorf("%w: %s returned 404", shared.ErrTrackNotFound, provider)
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s rate limited", shared.ErrProviderUnavailable, provider)
	case status >= 500:
		return fmt.Errorf("%w: %s returned %d", shared.ErrProviderUnavailable, provider, status)
	default:
		return fmt.Errorf("%w: %s returned %d", shared.ErrAPIRequest, provider, status)
	}
}
