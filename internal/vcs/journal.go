package vcs

import (
	"bufio"
	"encoding/json"
	"fmt"
	"iter"
	"os"
	"strings"

	"github.com/desertthunder/plx/internal/models"
	"github.com/desertthunder/plx/internal/shared"
)

// readJournal parses a JSONL journal file into the ordered commit chain,
// root first. A missing file yields an empty chain.
func readJournal(path string) ([]models.Commit, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	defer f.Close()

	var commits []models.Commit
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var c models.Commit
		if err := json.Unmarshal([]byte(line), &c); err != nil {
			return nil, fmt.Errorf("%w: unparseable journal line: %v", shared.ErrCorruptJournal, err)
		}
		commits = append(commits, c)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read journal: %w", err)
	}

	return commits, nil
}

// verifyChain recomputes every commit hash and checks the parent back-links.
// Any mutation of a stored commit is detectable here.
func verifyChain(commits []models.Commit) error {
	for i, c := range commits {
		if !c.Verify() {
			return fmt.Errorf("%w: commit %s fails hash verification", shared.ErrCorruptJournal, c.ShortHash())
		}
		if i == 0 {
			if c.ParentHash != "" {
				return fmt.Errorf("%w: root commit %s has a parent", shared.ErrCorruptJournal, c.ShortHash())
			}
			continue
		}
		if c.ParentHash != commits[i-1].Hash {
			return fmt.Errorf("%w: commit %s does not link to %s", shared.ErrCorruptJournal, c.ShortHash(), commits[i-1].ShortHash())
		}
	}
	return nil
}

// appendJournal writes one commit as a JSON line at the end of the journal.
func appendJournal(path string, c models.Commit) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open journal for append: %w", err)
	}
	defer f.Close()

	line, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to serialize commit: %w", err)
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("failed to append to journal: %w", err)
	}
	return nil
}

// Log returns the commit history from HEAD back to the root. The sequence is
// lazy and restartable: ranging over it twice replays from HEAD both times.
func (r *Repository) Log() iter.Seq[models.Commit] {
	return func(yield func(models.Commit) bool) {
		for i := len(r.commits) - 1; i >= 0; i-- {
			if !yield(r.commits[i]) {
				return
			}
		}
	}
}

// Head returns the latest commit, or false when history is empty.
func (r *Repository) Head() (models.Commit, bool) {
	if len(r.commits) == 0 {
		return models.Commit{}, false
	}
	return r.commits[len(r.commits)-1], true
}

// HeadSnapshot returns the snapshot of the latest commit, or an empty
// snapshot for the playlist when history is empty.
func (r *Repository) HeadSnapshot() models.Snapshot {
	if head, ok := r.Head(); ok {
		return head.Snapshot
	}
	return models.Snapshot{PlaylistID: r.playlistID, Provider: r.provider}
}

// LookupCommit resolves a full hash or unique prefix to a commit.
// Returns [shared.ErrCommitNotFound] when absent or ambiguous.
func (r *Repository) LookupCommit(hashOrPrefix string) (models.Commit, error) {
	if hashOrPrefix == "" {
		return models.Commit{}, fmt.Errorf("%w: empty hash", shared.ErrCommitNotFound)
	}

	var matches []models.Commit
	for _, c := range r.commits {
		if c.Hash == hashOrPrefix {
			return c, nil
		}
		if strings.HasPrefix(c.Hash, hashOrPrefix) {
			matches = append(matches, c)
		}
	}

	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return models.Commit{}, fmt.Errorf("%w: %s", shared.ErrCommitNotFound, hashOrPrefix)
	default:
		return models.Commit{}, fmt.Errorf("%w: prefix %s is ambiguous (%d matches)", shared.ErrCommitNotFound, hashOrPrefix, len(matches))
	}
}
