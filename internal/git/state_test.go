package git

import "testing"

func branchMain(ahead, behind int) *Branch {
	return &Branch{
		Ref:      Ref{Type: RefHead, Name: "main", Commit: hashA},
		Upstream: &UpstreamRef{Remote: "origin", Name: "main"},
		Ahead:    ahead,
		Behind:   behind,
		Head:     true,
	}
}

func TestStateEqual(t *testing.T) {
	base := func() *State {
		return &State{
			HEAD: branchMain(1, 0),
			Refs: []Ref{
				{Type: RefHead, Name: "main", Commit: hashA},
				{Type: RefTag, Name: "v1", Commit: hashB},
			},
			Remotes: []Remote{{Name: "origin", FetchURL: "u", PushURL: "u"}},
			IndexChanges: []Change{
				{URI: "/repo/a.txt", OriginalURI: "/repo/a.txt", Status: IndexModified},
			},
			WorkingTreeChanges: []Change{
				{URI: "/repo/b.txt", OriginalURI: "/repo/b.txt", Status: Modified},
			},
		}
	}

	t.Run("same content compares equal", func(t *testing.T) {
		if !base().Equal(base()) {
			t.Error("expected structurally identical snapshots to compare equal")
		}
	})

	t.Run("same pointer", func(t *testing.T) {
		s := base()
		if !s.Equal(s) {
			t.Error("expected a snapshot to equal itself")
		}
	})

	t.Run("nil handling", func(t *testing.T) {
		var nilState *State
		if !nilState.Equal(nil) {
			t.Error("expected nil to equal nil")
		}
		if base().Equal(nil) || nilState.Equal(base()) {
			t.Error("expected nil and non-nil to differ")
		}
	})

	t.Run("ref order does not matter", func(t *testing.T) {
		a, b := base(), base()
		b.Refs[0], b.Refs[1] = b.Refs[1], b.Refs[0]
		if !a.Equal(b) {
			t.Error("expected ref reordering to compare equal")
		}
	})

	t.Run("ref multiplicity matters", func(t *testing.T) {
		a, b := base(), base()
		a.Refs = []Ref{a.Refs[0], a.Refs[0], a.Refs[1]}
		b.Refs = []Ref{b.Refs[0], b.Refs[1], b.Refs[1]}
		if a.Equal(b) {
			t.Error("expected different multiplicities to differ")
		}
	})

	t.Run("change order matters", func(t *testing.T) {
		a, b := base(), base()
		extra := Change{URI: "/repo/c.txt", OriginalURI: "/repo/c.txt", Status: IndexAdded}
		a.IndexChanges = append(a.IndexChanges, extra)
		b.IndexChanges = append([]Change{extra}, b.IndexChanges...)
		if a.Equal(b) {
			t.Error("expected change reordering to differ")
		}
	})

	t.Run("tracking counts matter", func(t *testing.T) {
		a, b := base(), base()
		b.HEAD = branchMain(1, 7)
		if a.Equal(b) {
			t.Error("expected differing behind counts to differ")
		}
	})

	t.Run("upstream compares by value", func(t *testing.T) {
		a, b := base(), base()
		// Distinct pointers, same value.
		b.HEAD.Upstream = &UpstreamRef{Remote: "origin", Name: "main"}
		if !a.Equal(b) {
			t.Error("expected equal upstream values to compare equal")
		}
		b.HEAD.Upstream = nil
		if a.Equal(b) {
			t.Error("expected missing upstream to differ")
		}
	})

	t.Run("rebase commit compares by hash", func(t *testing.T) {
		a, b := base(), base()
		a.RebaseCommit = &Commit{Hash: hashC, Message: "one wording"}
		b.RebaseCommit = &Commit{Hash: hashC, Message: "another wording"}
		if !a.Equal(b) {
			t.Error("expected equal hashes to compare equal")
		}
		b.RebaseCommit = &Commit{Hash: hashB}
		if a.Equal(b) {
			t.Error("expected differing hashes to differ")
		}
	})

	t.Run("new change differs", func(t *testing.T) {
		a, b := base(), base()
		b.WorkingTreeChanges = append(b.WorkingTreeChanges,
			Change{URI: "/repo/new.txt", OriginalURI: "/repo/new.txt", Status: Untracked})
		if a.Equal(b) {
			t.Error("expected an extra change to differ")
		}
	})
}

func TestFreshnessString(t *testing.T) {
	tests := []struct {
		f    Freshness
		want string
	}{
		{Clean, "clean"},
		{Refreshing, "refreshing"},
		{Stale, "stale"},
		{Freshness(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.f.String(); got != tt.want {
			t.Errorf("expected %q, got %q", tt.want, got)
		}
	}
}
