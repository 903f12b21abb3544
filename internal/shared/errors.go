package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrAuthExpired      = fmt.Errorf("access token expired")
	ErrRefreshFailed    = fmt.Errorf("token refresh failed")
	ErrTimeout          = fmt.Errorf("operation timed out")

	// Provider and API errors
	ErrAPIRequest          = fmt.Errorf("API request failed")
	ErrProviderUnavailable = fmt.Errorf("provider unavailable")
	ErrPlaylistNotFound    = fmt.Errorf("playlist not found")
	ErrTrackNotFound       = fmt.Errorf("track not found")

	// Version control errors
	ErrNotInitialized  = fmt.Errorf("playlist not initialized")
	ErrNothingToCommit = fmt.Errorf("nothing to commit")
	ErrCommitNotFound  = fmt.Errorf("commit not found")
	ErrCorruptJournal  = fmt.Errorf("journal hash chain is corrupt")
	ErrRepoLocked      = fmt.Errorf("repository is locked by another process")

	// Sync errors
	ErrPushConflict    = fmt.Errorf("remote changed since last sync")
	ErrDivergedHistory = fmt.Errorf("local and remote histories diverged")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
