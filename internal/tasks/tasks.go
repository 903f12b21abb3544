package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/plx/internal/diffs"
	"github.com/desertthunder/plx/internal/models"
	"github.com/desertthunder/plx/internal/services"
	"github.com/desertthunder/plx/internal/shared"
	"github.com/desertthunder/plx/internal/vcs"
)

// PushResult contains the outcome of a push operation.
type PushResult struct {
	Script   diffs.Script  // Edit script replayed against the remote
	Applied  int           // Operations successfully applied
	Head     models.Commit // Commit the remote now reflects
	UpToDate bool          // True when there was nothing to push
}

// PullResult contains the outcome of a pull operation.
type PullResult struct {
	Script   diffs.Script  // Edit script from local HEAD to remote
	Commit   models.Commit // Fast-forward commit recording the remote state
	UpToDate bool          // True when local and remote already matched
}

// ConflictError reports that local and remote changed concurrently. It carries
// both edit scripts so the caller can show each side of the conflict.
type ConflictError struct {
	sentinel error
	Local    diffs.Script // Changes on the local side since the last sync point
	Remote   diffs.Script // Changes on the remote side since the last sync point
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%v (local %s, remote %s)", e.sentinel, e.Local.Summary(), e.Remote.Summary())
}

func (e *ConflictError) Unwrap() error { return e.sentinel }

// SyncEngine defines operations for synchronizing a tracked playlist with its
// remote provider.
type SyncEngine interface {
	// Push replays committed local changes onto the remote playlist.
	Push(ctx context.Context, progress chan<- ProgressUpdate) (*PushResult, error)

	// Pull records remote drift as a new local commit.
	Pull(ctx context.Context, progress chan<- ProgressUpdate) (*PullResult, error)

	// Revert creates a new commit restoring the snapshot of an earlier one.
	Revert(hashOrPrefix string) (models.Commit, error)

	// DiffRemote computes the edit script from local HEAD to the live remote.
	DiffRemote(ctx context.Context) (diffs.Script, models.Snapshot, error)

	// DiffStaged computes the edit script from HEAD to the staged state.
	DiffStaged() (diffs.Script, error)
}

// VersionEngine implements SyncEngine for one repository and provider pair.
type VersionEngine struct {
	repo     *vcs.Repository
	provider services.Provider
	cfg      shared.SyncConfig
	logger   *log.Logger
	now      func() time.Time
}

// NewVersionEngine creates a sync engine. The repository must be open and the
// provider bound to the same playlist.
func NewVersionEngine(repo *vcs.Repository, provider services.Provider, cfg shared.SyncConfig, logger *log.Logger) *VersionEngine {
	return &VersionEngine{
		repo:     repo,
		provider: provider,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *VersionEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func (e *VersionEngine) backoff() time.Duration {
	return time.Duration(e.cfg.BackoffMS) * time.Millisecond
}

// fetchRemote retrieves the remote snapshot with transient-failure retries.
func (e *VersionEngine) fetchRemote(ctx context.Context) (models.Snapshot, error) {
	var remote models.Snapshot
	err := withRetry(ctx, e.logger, e.cfg.MaxRetries, e.backoff(), func() error {
		var err error
		remote, err = e.provider.FetchSnapshot(ctx)
		return err
	})
	return remote, err
}

func sameIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// midScript reports whether state matches one of the intermediate sequences
// produced while replaying script against base in order. The full replay is
// excluded; callers handle a remote already at HEAD separately.
func midScript(base []string, script diffs.Script, state []string) bool {
	for k := 1; k < len(script.Changes); k++ {
		ids, err := diffs.Apply(base, diffs.Script{Changes: script.Changes[:k]})
		if err != nil {
			return false
		}
		if sameIDs(ids, state) {
			return true
		}
	}
	return false
}

// Push replays the edit script from the last pushed state to HEAD against the
// remote playlist.
//
// Before touching the remote it verifies the fresh remote snapshot against
// the last pulled state. A remote sitting partway through the local script is
// an interrupted push and resumes from the live remote, issuing only the
// remaining operations; any other drift aborts with a [ConflictError]
// wrapping [shared.ErrPushConflict] and no remote mutation. The watermark
// advances only after every operation applied.
func (e *VersionEngine) Push(ctx context.Context, progress chan<- ProgressUpdate) (*PushResult, error) {
	e.sendProgress(progress, fetchRemoteUpdate(string(e.provider.Kind())))
	remote, err := e.fetchRemote(ctx)
	if err != nil {
		return nil, err
	}

	base := e.repo.BaseSnapshot()
	head, ok := e.repo.Head()
	if !ok {
		return nil, fmt.Errorf("%w: repository has no commits", shared.ErrNotInitialized)
	}

	script := diffs.Compute(base.TrackIDs(), head.Snapshot.TrackIDs())
	result := &PushResult{Script: script, Head: head}

	// A remote that already matches HEAD means a previous push applied fully
	// but died before advancing the watermark. Finish the bookkeeping.
	if sameIDs(remote.TrackIDs(), head.Snapshot.TrackIDs()) {
		e.sendProgress(progress, computeDiffUpdate(script))
		result.UpToDate = true
		snap := head.Snapshot
		if err := e.repo.SetWatermark(vcs.Watermark{LastPushedHash: head.Hash, LastPulled: &snap}); err != nil {
			return nil, err
		}
		return result, nil
	}

	var lastPulled models.Snapshot
	if mark := e.repo.Watermark(); mark.LastPulled != nil {
		lastPulled = *mark.LastPulled
	}
	if !sameIDs(remote.TrackIDs(), lastPulled.TrackIDs()) {
		if !midScript(lastPulled.TrackIDs(), script, remote.TrackIDs()) {
			return nil, &ConflictError{
				sentinel: shared.ErrPushConflict,
				Local:    script,
				Remote:   diffs.Compute(lastPulled.TrackIDs(), remote.TrackIDs()),
			}
		}
		script = diffs.Compute(remote.TrackIDs(), head.Snapshot.TrackIDs())
		result.Script = script
	}
	e.sendProgress(progress, computeDiffUpdate(script))

	total := len(script.Changes)
	for i, c := range script.Changes {
		e.sendProgress(progress, applyChangeUpdate(i+1, total, c))
		if err := e.applyChange(ctx, c); err != nil {
			return result, fmt.Errorf("push failed after %d/%d operations: %w", result.Applied, total, err)
		}
		result.Applied++
	}

	snap := head.Snapshot
	if err := e.repo.SetWatermark(vcs.Watermark{LastPushedHash: head.Hash, LastPulled: &snap}); err != nil {
		return result, err
	}

	if e.logger != nil {
		e.logger.Info("push complete", "playlist", e.repo.PlaylistID(), "ops", result.Applied, "head", head.ShortHash())
	}
	return result, nil
}

func (e *VersionEngine) applyChange(ctx context.Context, c diffs.Change) error {
	return withRetry(ctx, e.logger, e.cfg.MaxRetries, e.backoff(), func() error {
		switch c.Op {
		case diffs.OpAdd:
			return e.provider.ApplyAdd(ctx, c.TrackID, c.Index)
		case diffs.OpRemove:
			return e.provider.ApplyRemove(ctx, c.TrackID)
		case diffs.OpMove:
			return e.provider.ApplyMove(ctx, c.TrackID, c.Index)
		default:
			return fmt.Errorf("%w: unknown operation %q", shared.ErrInvalidInput, c.Op)
		}
	})
}

// Pull fetches the remote snapshot and fast-forwards local history onto it.
//
// When the remote is unchanged from the last pulled state the journal and
// watermark are untouched, even with unpushed local commits ahead. Only when
// both sides moved, remote drift plus local history past the last pushed
// commit, does the pull abort with a [ConflictError] wrapping
// [shared.ErrDivergedHistory] and record nothing; resolution is pushing
// first or reverting the local commits.
func (e *VersionEngine) Pull(ctx context.Context, progress chan<- ProgressUpdate) (*PullResult, error) {
	e.sendProgress(progress, fetchRemoteUpdate(string(e.provider.Kind())))
	remote, err := e.fetchRemote(ctx)
	if err != nil {
		return nil, err
	}

	head, ok := e.repo.Head()
	if !ok {
		return nil, fmt.Errorf("%w: repository has no commits", shared.ErrNotInitialized)
	}
	local := head.Snapshot

	mark := e.repo.Watermark()
	if mark.LastPulled != nil && sameIDs(remote.TrackIDs(), mark.LastPulled.TrackIDs()) {
		return &PullResult{Commit: head, UpToDate: true}, nil
	}

	script := diffs.Compute(local.TrackIDs(), remote.TrackIDs())
	e.sendProgress(progress, computeDiffUpdate(script))

	if script.Empty() {
		if err := e.repo.SetWatermark(vcs.Watermark{LastPushedHash: head.Hash, LastPulled: &remote}); err != nil {
			return nil, err
		}
		return &PullResult{Script: script, Commit: head, UpToDate: true}, nil
	}

	if head.Hash != mark.LastPushedHash {
		var lastPulled models.Snapshot
		if mark.LastPulled != nil {
			lastPulled = *mark.LastPulled
		}
		return nil, &ConflictError{
			sentinel: shared.ErrDivergedHistory,
			Local:    diffs.Compute(lastPulled.TrackIDs(), local.TrackIDs()),
			Remote:   diffs.Compute(lastPulled.TrackIDs(), remote.TrackIDs()),
		}
	}

	e.sendProgress(progress, recordCommitUpdate("Recording remote state..."))
	commit, err := e.repo.CommitSnapshot(remote, "pull: sync from remote", e.now())
	if err != nil {
		return nil, err
	}
	if err := e.repo.SetWatermark(vcs.Watermark{LastPushedHash: commit.Hash, LastPulled: &remote}); err != nil {
		return nil, err
	}

	if e.logger != nil {
		e.logger.Info("pull complete", "playlist", e.repo.PlaylistID(), "changes", script.Summary(), "head", commit.ShortHash())
	}
	return &PullResult{Script: script, Commit: commit}, nil
}

// Revert appends a new commit whose snapshot equals that of an earlier
// commit, resolved by full hash or unique prefix. History is never rewritten;
// the revert itself can be reverted.
func (e *VersionEngine) Revert(hashOrPrefix string) (models.Commit, error) {
	target, err := e.repo.LookupCommit(hashOrPrefix)
	if err != nil {
		return models.Commit{}, err
	}

	message := fmt.Sprintf("revert to %s", target.ShortHash())
	commit, err := e.repo.CommitSnapshot(target.Snapshot, message, e.now())
	if err != nil {
		return models.Commit{}, err
	}

	if e.logger != nil {
		e.logger.Info("reverted", "playlist", e.repo.PlaylistID(), "target", target.ShortHash(), "head", commit.ShortHash())
	}
	return commit, nil
}

// DiffRemote computes the edit script that would transform local HEAD into
// the live remote state, without recording anything.
func (e *VersionEngine) DiffRemote(ctx context.Context) (diffs.Script, models.Snapshot, error) {
	remote, err := e.fetchRemote(ctx)
	if err != nil {
		return diffs.Script{}, models.Snapshot{}, err
	}
	local := e.repo.HeadSnapshot()
	return diffs.Compute(local.TrackIDs(), remote.TrackIDs()), remote, nil
}

// DiffStaged computes the edit script from HEAD to the snapshot the staged
// changes would produce.
func (e *VersionEngine) DiffStaged() (diffs.Script, error) {
	eventual, err := e.repo.ProspectiveSnapshot()
	if err != nil {
		return diffs.Script{}, err
	}
	head := e.repo.HeadSnapshot()
	return diffs.Compute(head.TrackIDs(), eventual.TrackIDs()), nil
}
