package git

import "slices"

// State is one immutable snapshot of a working copy. Snapshots are
// replaced wholesale on refresh, never mutated, so holding a *State is
// always safe across goroutines.
type State struct {
	// HEAD is nil only before the first refresh. Detached and unborn
	// HEADs are branches whose Ref has an empty Name.
	HEAD         *Branch
	Refs         []Ref
	Remotes      []Remote
	Submodules   []Submodule
	RebaseCommit *Commit

	// The three change sequences are disjoint by path, except that a
	// path with both an index-stage and a working-tree change appears
	// once in each of IndexChanges and WorkingTreeChanges. Conflicted
	// paths live in MergeChanges only.
	MergeChanges       []Change
	IndexChanges       []Change
	WorkingTreeChanges []Change
}

// Equal reports whether two snapshots carry the same content. Ref,
// remote, and submodule sets compare order-insensitively; the change
// sequences compare in order, since ordering there is part of what
// the tool reported.
func (s *State) Equal(o *State) bool {
	if s == o {
		return true
	}
	if s == nil || o == nil {
		return false
	}
	return branchesEqual(s.HEAD, o.HEAD) &&
		commitsEqual(s.RebaseCommit, o.RebaseCommit) &&
		setEqual(s.Refs, o.Refs) &&
		setEqual(s.Remotes, o.Remotes) &&
		setEqual(s.Submodules, o.Submodules) &&
		slices.Equal(s.MergeChanges, o.MergeChanges) &&
		slices.Equal(s.IndexChanges, o.IndexChanges) &&
		slices.Equal(s.WorkingTreeChanges, o.WorkingTreeChanges)
}

func branchesEqual(a, b *Branch) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	if a.Ref != b.Ref || a.Ahead != b.Ahead || a.Behind != b.Behind || a.Head != b.Head {
		return false
	}
	switch {
	case a.Upstream == nil && b.Upstream == nil:
		return true
	case a.Upstream == nil || b.Upstream == nil:
		return false
	default:
		return *a.Upstream == *b.Upstream
	}
}

// commitsEqual compares by hash; equal hashes imply equal content.
func commitsEqual(a, b *Commit) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return a.Hash == b.Hash
}

// setEqual compares two slices as multisets.
func setEqual[T comparable](a, b []T) bool {
	if len(a) != len(b) {
		return false
	}
	counts := make(map[T]int, len(a))
	for _, v := range a {
		counts[v]++
	}
	for _, v := range b {
		counts[v]--
		if counts[v] < 0 {
			return false
		}
	}
	return true
}

// Freshness describes how trustworthy a repository's snapshot is.
type Freshness int32

const (
	// Clean means the snapshot reflects the last successful refresh.
	Clean Freshness = iota
	// Refreshing means a refresh is in flight.
	Refreshing
	// Stale means the last refresh failed; the snapshot predates it.
	Stale
)

// String returns a short freshness name.
func (f Freshness) String() string {
	switch f {
	case Clean:
		return "clean"
	case Refreshing:
		return "refreshing"
	case Stale:
		return "stale"
	default:
		return "unknown"
	}
}
