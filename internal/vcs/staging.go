package vcs

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/desertthunder/plx/internal/models"
	"github.com/desertthunder/plx/internal/shared"
)

// stagedFile is the on-disk shape of staged.json: the staging set keyed by
// track ID, which makes the one-change-per-track invariant structural.
type stagedFile struct {
	Changes map[string]models.StagedChange `json:"changes"`
}

func readStaged(path string) (map[string]models.StagedChange, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]models.StagedChange{}, nil
		}
		return nil, fmt.Errorf("failed to read staged changes: %w", err)
	}

	var file stagedFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse staged changes: %w", err)
	}
	if file.Changes == nil {
		file.Changes = map[string]models.StagedChange{}
	}
	return file.Changes, nil
}

func (r *Repository) saveStaged() error {
	data, err := json.MarshalIndent(stagedFile{Changes: r.staged}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize staged changes: %w", err)
	}
	if err := os.WriteFile(r.stagedPath(), data, 0644); err != nil {
		return fmt.Errorf("failed to write staged changes: %w", err)
	}
	return nil
}

func (r *Repository) nextSeq() int {
	max := 0
	for _, c := range r.staged {
		if c.Seq > max {
			max = c.Seq
		}
	}
	return max + 1
}

// StageAdd stages a track for addition, optionally at a fixed index.
// A prior staged change for the same track ID is overwritten.
func (r *Repository) StageAdd(track models.Track, insertAt *int) error {
	if err := r.writable(); err != nil {
		return err
	}
	t := track
	r.staged[track.ID] = models.StagedChange{
		Kind:    models.ChangeAdd,
		TrackID: track.ID,
		Track:   &t,
		Index:   insertAt,
		Seq:     r.nextSeq(),
	}
	return r.saveStaged()
}

// StageRemove stages a track for removal. Removing a track that is only
// staged for addition cancels the addition instead of staging two ops.
// Returns [shared.ErrTrackNotFound] when the track is neither in HEAD nor
// staged as an addition.
func (r *Repository) StageRemove(trackID string) error {
	if err := r.writable(); err != nil {
		return err
	}

	if prior, ok := r.staged[trackID]; ok && prior.Kind == models.ChangeAdd {
		delete(r.staged, trackID)
		return r.saveStaged()
	}

	if !r.HeadSnapshot().Contains(trackID) {
		return fmt.Errorf("%w: %s is not in the playlist", shared.ErrTrackNotFound, trackID)
	}

	r.staged[trackID] = models.StagedChange{
		Kind:    models.ChangeRemove,
		TrackID: trackID,
		Seq:     r.nextSeq(),
	}
	return r.saveStaged()
}

// StageMove stages a reposition of a track to the given index.
// Returns [shared.ErrTrackNotFound] when the track would not be present in
// the snapshot that results from the currently staged changes.
func (r *Repository) StageMove(trackID string, index int) error {
	if err := r.writable(); err != nil {
		return err
	}

	eventual, err := r.ProspectiveSnapshot()
	if err != nil {
		return err
	}
	if !eventual.Contains(trackID) {
		return fmt.Errorf("%w: %s is not in the resulting playlist", shared.ErrTrackNotFound, trackID)
	}
	if index < 0 || index >= len(eventual.Tracks) {
		return fmt.Errorf("%w: index %d out of range (playlist has %d tracks)", shared.ErrInvalidArgument, index, len(eventual.Tracks))
	}

	idx := index
	r.staged[trackID] = models.StagedChange{
		Kind:    models.ChangeMove,
		TrackID: trackID,
		Index:   &idx,
		Seq:     r.nextSeq(),
	}
	return r.saveStaged()
}

// ResetStaging discards all staged changes.
func (r *Repository) ResetStaging() error {
	if err := r.writable(); err != nil {
		return err
	}
	r.staged = map[string]models.StagedChange{}
	return r.saveStaged()
}

// StagedChanges returns the staged set in staging order.
func (r *Repository) StagedChanges() []models.StagedChange {
	changes := make([]models.StagedChange, 0, len(r.staged))
	for _, c := range r.staged {
		changes = append(changes, c)
	}
	sort.Slice(changes, func(i, j int) bool { return changes[i].Seq < changes[j].Seq })
	return changes
}

// HasStagedChanges reports whether the staging area is non-empty.
func (r *Repository) HasStagedChanges() bool {
	return len(r.staged) > 0
}

// ProspectiveSnapshot returns the snapshot that would result from committing
// the currently staged changes onto HEAD.
func (r *Repository) ProspectiveSnapshot() (models.Snapshot, error) {
	return applyStaged(r.HeadSnapshot(), r.StagedChanges())
}

// applyStaged folds staged changes into a snapshot: removals first, then
// additions, then moves, each phase keyed to indices valid after the prior
// phase.
func applyStaged(base models.Snapshot, changes []models.StagedChange) (models.Snapshot, error) {
	out := base.Clone()

	for _, c := range changes {
		if c.Kind != models.ChangeRemove {
			continue
		}
		at := out.IndexOf(c.TrackID)
		if at < 0 {
			return models.Snapshot{}, fmt.Errorf("%w: cannot remove %s", shared.ErrTrackNotFound, c.TrackID)
		}
		out.Tracks = append(out.Tracks[:at], out.Tracks[at+1:]...)
	}

	var adds []models.StagedChange
	for _, c := range changes {
		if c.Kind == models.ChangeAdd {
			adds = append(adds, c)
		}
	}
	sort.Slice(adds, func(i, j int) bool {
		switch {
		case adds[i].Index != nil && adds[j].Index != nil:
			return *adds[i].Index < *adds[j].Index
		case adds[i].Index != nil:
			return true
		case adds[j].Index != nil:
			return false
		default:
			return adds[i].Seq < adds[j].Seq
		}
	})
	for _, c := range adds {
		if c.Track == nil {
			return models.Snapshot{}, fmt.Errorf("%w: staged addition of %s has no track metadata", shared.ErrInvalidInput, c.TrackID)
		}
		at := len(out.Tracks)
		if c.Index != nil && *c.Index < at {
			at = *c.Index
		}
		out.Tracks = append(out.Tracks, models.Track{})
		copy(out.Tracks[at+1:], out.Tracks[at:])
		out.Tracks[at] = *c.Track
	}

	var moves []models.StagedChange
	for _, c := range changes {
		if c.Kind == models.ChangeMove {
			moves = append(moves, c)
		}
	}
	sort.Slice(moves, func(i, j int) bool { return *moves[i].Index < *moves[j].Index })
	for _, c := range moves {
		from := out.IndexOf(c.TrackID)
		if from < 0 {
			return models.Snapshot{}, fmt.Errorf("%w: cannot move %s", shared.ErrTrackNotFound, c.TrackID)
		}
		track := out.Tracks[from]
		out.Tracks = append(out.Tracks[:from], out.Tracks[from+1:]...)
		at := *c.Index
		if at > len(out.Tracks) {
			at = len(out.Tracks)
		}
		out.Tracks = append(out.Tracks, models.Track{})
		copy(out.Tracks[at+1:], out.Tracks[at:])
		out.Tracks[at] = track
	}

	return out, nil
}
