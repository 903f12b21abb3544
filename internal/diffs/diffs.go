package diffs

import (
	"fmt"
	"sort"
)

// Op enumerates edit script operation types.
type Op string

const (
	OpRemove Op = "remove"
	OpAdd    Op = "add"
	OpMove   Op = "move"
)

// Change is a single edit operation. Index is the target position for adds
// and moves. Occurrence disambiguates duplicate track IDs: the k-th
// occurrence in the base sequence pairs with the k-th in the target.
type Change struct {
	Op         Op     `json:"op"`
	TrackID    string `json:"track_id"`
	Index      int    `json:"index,omitempty"`
	Occurrence int    `json:"occurrence,omitempty"`
}

// Script is an ordered edit script: all removals, then all additions, then
// all moves.
type Script struct {
	Changes []Change `json:"changes"`
}

// Empty reports whether the script contains no operations.
func (s Script) Empty() bool {
	return len(s.Changes) == 0
}

// Counts returns the number of additions, removals and moves in the script.
func (s Script) Counts() (added, removed, moved int) {
	for _, c := range s.Changes {
		switch c.Op {
		case OpAdd:
			added++
		case OpRemove:
			removed++
		case OpMove:
			moved++
		}
	}
	return added, removed, moved
}

// key identifies one occurrence of a track ID within a sequence.
type key struct {
	id  string
	occ int
}

func keysOf(ids []string) []key {
	seen := make(map[string]int, len(ids))
	keys := make([]key, len(ids))
	for i, id := range ids {
		keys[i] = key{id: id, occ: seen[id]}
		seen[id]++
	}
	return keys
}

func project(keys []key) []string {
	ids := make([]string, len(keys))
	for i, k := range keys {
		ids[i] = k.id
	}
	return ids
}

func indexOfKey(keys []key, k key) int {
	for i, cur := range keys {
		if cur == k {
			return i
		}
	}
	return -1
}

func insertKey(keys []key, k key, at int) []key {
	if at > len(keys) {
		at = len(keys)
	}
	if at < 0 {
		at = 0
	}
	keys = append(keys, key{})
	copy(keys[at+1:], keys[at:])
	keys[at] = k
	return keys
}

func removeAt(keys []key, at int) []key {
	return append(keys[:at], keys[at+1:]...)
}

// lcsKept returns the set of keys kept by a longest common subsequence of a
// and b. Ties between equally long subsequences are broken deterministically
// by skipping the base element, so the earlier-positioned base track becomes
// the one that moves.
func lcsKept(a, b []key) map[key]bool {
	n, m := len(a), len(b)
	dp := make([][]int, n+1)
	for i := range dp {
		dp[i] = make([]int, m+1)
	}
	for i := n - 1; i >= 0; i-- {
		for j := m - 1; j >= 0; j-- {
			if a[i] == b[j] {
				dp[i][j] = dp[i+1][j+1] + 1
				continue
			}
			if dp[i+1][j] >= dp[i][j+1] {
				dp[i][j] = dp[i+1][j]
			} else {
				dp[i][j] = dp[i][j+1]
			}
		}
	}

	kept := make(map[key]bool)
	i, j := 0, 0
	for i < n && j < m {
		switch {
		case a[i] == b[j] && dp[i+1][j+1]+1 == dp[i][j]:
			kept[a[i]] = true
			i++
			j++
		case dp[i+1][j] >= dp[i][j+1]:
			i++
		default:
			j++
		}
	}
	return kept
}

// Compute produces a minimal edit script transforming base into target.
//
// Tracks absent from the target are removed, tracks absent from the base are
// added at their final target index, and tracks present in both whose
// relative order changed are moved. Move emission simulates the intermediate
// state so that replaying the script reproduces the target exactly.
func Compute(base, target []string) Script {
	a := keysOf(base)
	b := keysOf(target)

	bSet := make(map[key]int, len(b))
	for i, k := range b {
		bSet[k] = i
	}
	aSet := make(map[key]bool, len(a))
	for _, k := range a {
		aSet[k] = true
	}

	var script Script

	// Phase 1: removals, in base order.
	cur := make([]key, 0, len(a))
	for _, k := range a {
		if _, ok := bSet[k]; !ok {
			script.Changes = append(script.Changes, Change{Op: OpRemove, TrackID: k.id, Occurrence: k.occ})
			continue
		}
		cur = append(cur, k)
	}

	// Phase 2: additions at their final target index, ascending.
	for i, k := range b {
		if !aSet[k] {
			script.Changes = append(script.Changes, Change{Op: OpAdd, TrackID: k.id, Index: i, Occurrence: k.occ})
			cur = insertKey(cur, k, i)
		}
	}

	// Phase 3: moves. Sweep the target left to right against the simulated
	// state. A pending mover occupying a settled slot is sent to its final
	// index; otherwise the expected track is pulled into place.
	kept := lcsKept(a, b)
	pending := make(map[key]bool)
	for _, k := range a {
		if _, inB := bSet[k]; inB && !kept[k] {
			pending[k] = true
		}
	}

	p := 0
	for p < len(b) {
		if cur[p] == b[p] {
			p++
			continue
		}
		if x := cur[p]; pending[x] {
			dest := bSet[x]
			script.Changes = append(script.Changes, Change{Op: OpMove, TrackID: x.id, Index: dest, Occurrence: x.occ})
			cur = insertKey(removeAt(cur, p), x, dest)
			delete(pending, x)
			continue
		}
		want := b[p]
		q := indexOfKey(cur, want)
		script.Changes = append(script.Changes, Change{Op: OpMove, TrackID: want.id, Index: p, Occurrence: want.occ})
		cur = insertKey(removeAt(cur, q), want, p)
		delete(pending, want)
		p++
	}

	return script
}

// Apply materializes a script against a base sequence and returns the result.
// The script's phases must be ordered removals, additions, moves, as produced
// by [Compute].
func Apply(base []string, script Script) ([]string, error) {
	cur := keysOf(base)

	for _, c := range script.Changes {
		k := key{id: c.TrackID, occ: c.Occurrence}
		switch c.Op {
		case OpRemove:
			at := indexOfKey(cur, k)
			if at < 0 {
				return nil, fmt.Errorf("cannot remove %s: not present", c.TrackID)
			}
			cur = removeAt(cur, at)
		case OpAdd:
			if indexOfKey(cur, k) >= 0 {
				return nil, fmt.Errorf("cannot add %s: already present", c.TrackID)
			}
			cur = insertKey(cur, k, c.Index)
		case OpMove:
			at := indexOfKey(cur, k)
			if at < 0 {
				return nil, fmt.Errorf("cannot move %s: not present", c.TrackID)
			}
			cur = insertKey(removeAt(cur, at), k, c.Index)
		default:
			return nil, fmt.Errorf("unknown operation %q", c.Op)
		}
	}

	return project(cur), nil
}

// Summary renders the +a -r ~m shorthand for a script.
func (s Script) Summary() string {
	a, r, m := s.Counts()
	return fmt.Sprintf("+%d -%d ~%d", a, r, m)
}

// SortForDisplay returns the changes grouped by phase and sorted by index
// within each phase, for stable human-readable rendering.
func (s Script) SortForDisplay() []Change {
	out := make([]Change, len(s.Changes))
	copy(out, s.Changes)
	rank := map[Op]int{OpRemove: 0, OpAdd: 1, OpMove: 2}
	sort.SliceStable(out, func(i, j int) bool {
		if rank[out[i].Op] != rank[out[j].Op] {
			return rank[out[i].Op] < rank[out[j].Op]
		}
		return out[i].Index < out[j].Index
	})
	return out
}
