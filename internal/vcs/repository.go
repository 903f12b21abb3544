package vcs

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/desertthunder/plx/internal/models"
	"github.com/desertthunder/plx/internal/shared"
	"gopkg.in/yaml.v3"
)

// Watermark records the last state known to be synchronized with the remote.
// LastPushedHash is the hash of the last commit applied to the remote and
// LastPulled is the remote snapshot observed at that point. Only the sync
// engine mutates it.
type Watermark struct {
	LastPushedHash string           `json:"last_pushed_hash,omitempty"`
	LastPulled     *models.Snapshot `json:"last_pulled_snapshot,omitempty"`
}

// Repository aggregates the journal, staging area and watermark for one
// tracked playlist. All access runs under the playlist's advisory lock,
// acquired on open and held until Close.
type Repository struct {
	dir        string
	playlistID string
	provider   models.Provider

	commits []models.Commit
	staged  map[string]models.StagedChange
	mark    Watermark
	lock    *FileLock
	corrupt bool
}

func (r *Repository) journalPath() string   { return filepath.Join(r.dir, "journal.log") }
func (r *Repository) stagedPath() string    { return filepath.Join(r.dir, "staged.json") }
func (r *Repository) snapshotPath() string  { return filepath.Join(r.dir, "playlist.yaml") }
func (r *Repository) watermarkPath() string { return filepath.Join(r.dir, "sync.json") }
func (r *Repository) snapshotsDir() string  { return filepath.Join(r.dir, "snapshots") }

// PlaylistID returns the playlist this repository tracks.
func (r *Repository) PlaylistID() string { return r.playlistID }

// Provider returns the streaming service backing the playlist.
func (r *Repository) Provider() models.Provider { return r.provider }

// Watermark returns the current sync watermark.
func (r *Repository) Watermark() Watermark { return r.mark }

// RepoDir computes the state directory for a playlist under the given root.
func RepoDir(root, playlistID string) string {
	return filepath.Join(root, "playlists", playlistID)
}

// Exists reports whether a playlist has been initialized under the root.
func Exists(root, playlistID string) bool {
	_, err := os.Stat(filepath.Join(RepoDir(root, playlistID), "journal.log"))
	return err == nil
}

// Init creates a repository for a playlist with a root commit holding the
// given snapshot. Both watermark fields point at the root commit, so a fresh
// repository is in sync with the remote by definition.
func Init(root string, snapshot models.Snapshot, message string, now time.Time) (*Repository, error) {
	dir := RepoDir(root, snapshot.PlaylistID)
	if Exists(root, snapshot.PlaylistID) {
		return nil, fmt.Errorf("playlist %s already initialized at %s", snapshot.PlaylistID, dir)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create repository directory: %w", err)
	}

	lock, err := AcquireLock(dir)
	if err != nil {
		return nil, err
	}

	r := &Repository{
		dir:        dir,
		playlistID: snapshot.PlaylistID,
		provider:   snapshot.Provider,
		staged:     map[string]models.StagedChange{},
		lock:       lock,
	}

	rootCommit := models.NewCommit("", message, now, snapshot)
	if err := r.appendCommit(rootCommit); err != nil {
		lock.Release()
		return nil, err
	}

	snap := rootCommit.Snapshot
	r.mark = Watermark{LastPushedHash: rootCommit.Hash, LastPulled: &snap}
	if err := r.saveWatermark(); err != nil {
		lock.Release()
		return nil, err
	}
	if err := r.saveStaged(); err != nil {
		lock.Release()
		return nil, err
	}

	return r, nil
}

// Open loads an existing repository, verifies the journal hash chain and
// acquires the playlist lock. Returns [shared.ErrCorruptJournal] when the
// chain does not verify; the repository then refuses all writes.
func Open(root, playlistID string) (*Repository, error) {
	dir := RepoDir(root, playlistID)
	if !Exists(root, playlistID) {
		return nil, fmt.Errorf("%w: %s (run 'plx init' first)", shared.ErrNotInitialized, playlistID)
	}

	lock, err := AcquireLock(dir)
	if err != nil {
		return nil, err
	}

	r := &Repository{dir: dir, playlistID: playlistID, lock: lock}

	r.commits, err = readJournal(r.journalPath())
	if err != nil {
		lock.Release()
		return nil, err
	}
	if err := verifyChain(r.commits); err != nil {
		r.corrupt = true
		lock.Release()
		return nil, err
	}
	if len(r.commits) > 0 {
		r.provider = r.commits[0].Snapshot.Provider
	}

	r.staged, err = readStaged(r.stagedPath())
	if err != nil {
		lock.Release()
		return nil, err
	}

	r.mark, err = readWatermark(r.watermarkPath())
	if err != nil {
		lock.Release()
		return nil, err
	}

	return r, nil
}

// Close releases the playlist lock.
func (r *Repository) Close() error {
	return r.lock.Release()
}

// writable guards every mutation against a corrupt journal.
func (r *Repository) writable() error {
	if r.corrupt {
		return fmt.Errorf("%w: refusing writes until repaired", shared.ErrCorruptJournal)
	}
	return nil
}

// Commit folds the staged changes into a new snapshot, appends a commit with
// parent HEAD and clears the staging area. Returns
// [shared.ErrNothingToCommit] when the staging area is empty.
func (r *Repository) Commit(message string, now time.Time) (models.Commit, error) {
	if err := r.writable(); err != nil {
		return models.Commit{}, err
	}
	if len(r.staged) == 0 {
		return models.Commit{}, shared.ErrNothingToCommit
	}

	snapshot, err := r.ProspectiveSnapshot()
	if err != nil {
		return models.Commit{}, err
	}

	parent := ""
	if head, ok := r.Head(); ok {
		parent = head.Hash
	}

	commit := models.NewCommit(parent, message, now, snapshot)
	if err := r.appendCommit(commit); err != nil {
		return models.Commit{}, err
	}

	r.staged = map[string]models.StagedChange{}
	if err := r.saveStaged(); err != nil {
		return models.Commit{}, err
	}

	return commit, nil
}

// CommitSnapshot appends a commit holding the given snapshot verbatim,
// bypassing the staging area. Used by the sync engine for fast-forward pulls
// and reverts, which record externally determined states.
func (r *Repository) CommitSnapshot(snapshot models.Snapshot, message string, now time.Time) (models.Commit, error) {
	if err := r.writable(); err != nil {
		return models.Commit{}, err
	}

	parent := ""
	if head, ok := r.Head(); ok {
		parent = head.Hash
	}

	commit := models.NewCommit(parent, message, now, snapshot)
	if err := r.appendCommit(commit); err != nil {
		return models.Commit{}, err
	}
	return commit, nil
}

// appendCommit persists a commit to the journal, materializes its snapshot
// under snapshots/ and refreshes playlist.yaml, then advances HEAD.
func (r *Repository) appendCommit(c models.Commit) error {
	if err := appendJournal(r.journalPath(), c); err != nil {
		return err
	}
	if err := r.writeSnapshotFiles(c); err != nil {
		return err
	}
	r.commits = append(r.commits, c)
	return nil
}

func (r *Repository) writeSnapshotFiles(c models.Commit) error {
	if err := os.MkdirAll(r.snapshotsDir(), 0755); err != nil {
		return fmt.Errorf("failed to create snapshots directory: %w", err)
	}

	data, err := yaml.Marshal(c.Snapshot)
	if err != nil {
		return fmt.Errorf("failed to serialize snapshot: %w", err)
	}

	byHash := filepath.Join(r.snapshotsDir(), c.Hash+".yaml")
	if err := os.WriteFile(byHash, data, 0644); err != nil {
		return fmt.Errorf("failed to write snapshot %s: %w", c.ShortHash(), err)
	}
	if err := os.WriteFile(r.snapshotPath(), data, 0644); err != nil {
		return fmt.Errorf("failed to write playlist.yaml: %w", err)
	}
	return nil
}

// SetWatermark persists a new sync watermark. Callers must only invoke this
// after the corresponding remote operation fully completed.
func (r *Repository) SetWatermark(mark Watermark) error {
	if err := r.writable(); err != nil {
		return err
	}
	r.mark = mark
	return r.saveWatermark()
}

func (r *Repository) saveWatermark() error {
	data, err := json.MarshalIndent(r.mark, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize watermark: %w", err)
	}
	if err := os.WriteFile(r.watermarkPath(), data, 0644); err != nil {
		return fmt.Errorf("failed to write watermark: %w", err)
	}
	return nil
}

func readWatermark(path string) (Watermark, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Watermark{}, nil
		}
		return Watermark{}, fmt.Errorf("failed to read watermark: %w", err)
	}

	var mark Watermark
	if err := json.Unmarshal(data, &mark); err != nil {
		return Watermark{}, fmt.Errorf("failed to parse watermark: %w", err)
	}
	return mark, nil
}

// BaseSnapshot resolves the snapshot of the last pushed commit, or an empty
// snapshot when nothing has been pushed. Push diffs are computed from here.
func (r *Repository) BaseSnapshot() models.Snapshot {
	if r.mark.LastPushedHash != "" {
		if c, err := r.LookupCommit(r.mark.LastPushedHash); err == nil {
			return c.Snapshot
		}
	}
	return models.Snapshot{PlaylistID: r.playlistID, Provider: r.provider}
}

// LoadSnapshotFile reads a snapshot from a YAML file, as written by
// playlist.yaml or the snapshots/ store.
func LoadSnapshotFile(path string) (models.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("failed to read snapshot file: %w", err)
	}
	var snap models.Snapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return models.Snapshot{}, fmt.Errorf("failed to parse snapshot YAML: %w", err)
	}
	return snap, nil
}
