package git

import (
	"context"
	"testing"
)

func TestParseRefLine(t *testing.T) {
	tests := []struct {
		name string
		line string
		want Ref
		ok   bool
	}{
		{
			name: "local head",
			line: "refs/heads/main\x00aaaa\x00",
			want: Ref{Type: RefHead, Name: "main", Commit: "aaaa"},
			ok:   true,
		},
		{
			name: "head with slashes in name",
			line: "refs/heads/feature/deep/name\x00bbbb\x00",
			want: Ref{Type: RefHead, Name: "feature/deep/name", Commit: "bbbb"},
			ok:   true,
		},
		{
			name: "remote head",
			line: "refs/remotes/origin/main\x00cccc\x00",
			want: Ref{Type: RefRemoteHead, Name: "origin/main", Commit: "cccc", Remote: "origin"},
			ok:   true,
		},
		{
			name: "lightweight tag",
			line: "refs/tags/v1.0.0\x00dddd\x00",
			want: Ref{Type: RefTag, Name: "v1.0.0", Commit: "dddd"},
			ok:   true,
		},
		{
			name: "annotated tag resolves to peeled commit",
			line: "refs/tags/v2.0.0\x00eeee\x00ffff",
			want: Ref{Type: RefTag, Name: "v2.0.0", Commit: "ffff"},
			ok:   true,
		},
		{
			name: "stash ref is outside the model",
			line: "refs/stash\x00aaaa\x00",
			ok:   false,
		},
		{
			name: "notes ref is outside the model",
			line: "refs/notes/commits\x00aaaa\x00",
			ok:   false,
		},
		{
			name: "missing fields",
			line: "refs/heads/main\x00aaaa",
			ok:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseRefLine(tt.line)
			if ok != tt.ok {
				t.Fatalf("expected ok=%v, got %v", tt.ok, ok)
			}
			if ok && got != tt.want {
				t.Errorf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestParseRefsSkipsUnrecognized(t *testing.T) {
	out := "refs/heads/main\x00aaaa\x00\n" +
		"refs/stash\x00bbbb\x00\n" +
		"refs/tags/v1\x00cccc\x00\n"

	refs := parseRefs(out, testLogger())
	if len(refs) != 2 {
		t.Fatalf("expected 2 refs, got %d (%v)", len(refs), refs)
	}
	if refs[0].Name != "main" || refs[1].Name != "v1" {
		t.Errorf("expected main and v1, got %v", refs)
	}
}

func TestParseBranchLine(t *testing.T) {
	tests := []struct {
		name string
		line string
		want Branch
		ok   bool
	}{
		{
			name: "plain local branch",
			line: "refs/heads/topic\x00aaaa\x00\x00\x00 ",
			want: Branch{Ref: Ref{Type: RefHead, Name: "topic", Commit: "aaaa"}},
			ok:   true,
		},
		{
			name: "current branch with tracking",
			line: "refs/heads/main\x00aaaa\x00origin/main\x00[ahead 2, behind 1]\x00*",
			want: Branch{
				Ref:      Ref{Type: RefHead, Name: "main", Commit: "aaaa"},
				Upstream: &UpstreamRef{Remote: "origin", Name: "main"},
				Ahead:    2,
				Behind:   1,
				Head:     true,
			},
			ok: true,
		},
		{
			name: "ahead only",
			line: "refs/heads/main\x00aaaa\x00origin/main\x00[ahead 3]\x00 ",
			want: Branch{
				Ref:      Ref{Type: RefHead, Name: "main", Commit: "aaaa"},
				Upstream: &UpstreamRef{Remote: "origin", Name: "main"},
				Ahead:    3,
			},
			ok: true,
		},
		{
			name: "behind only",
			line: "refs/heads/main\x00aaaa\x00origin/main\x00[behind 4]\x00 ",
			want: Branch{
				Ref:      Ref{Type: RefHead, Name: "main", Commit: "aaaa"},
				Upstream: &UpstreamRef{Remote: "origin", Name: "main"},
				Behind:   4,
			},
			ok: true,
		},
		{
			name: "in sync renders no bracket",
			line: "refs/heads/main\x00aaaa\x00origin/main\x00\x00*",
			want: Branch{
				Ref:      Ref{Type: RefHead, Name: "main", Commit: "aaaa"},
				Upstream: &UpstreamRef{Remote: "origin", Name: "main"},
				Head:     true,
			},
			ok: true,
		},
		{
			name: "gone upstream keeps zero counts",
			line: "refs/heads/main\x00aaaa\x00origin/main\x00[gone]\x00 ",
			want: Branch{
				Ref:      Ref{Type: RefHead, Name: "main", Commit: "aaaa"},
				Upstream: &UpstreamRef{Remote: "origin", Name: "main"},
			},
			ok: true,
		},
		{
			name: "remote tracking branch",
			line: "refs/remotes/origin/main\x00aaaa\x00\x00\x00 ",
			want: Branch{Ref: Ref{Type: RefRemoteHead, Name: "origin/main", Commit: "aaaa", Remote: "origin"}},
			ok:   true,
		},
		{
			name: "local upstream has no remote component",
			line: "refs/heads/topic\x00aaaa\x00base\x00\x00 ",
			want: Branch{
				Ref:      Ref{Type: RefHead, Name: "topic", Commit: "aaaa"},
				Upstream: &UpstreamRef{Name: "base"},
			},
			ok: true,
		},
		{
			name: "tag ref is not a branch",
			line: "refs/tags/v1\x00aaaa\x00\x00\x00 ",
			ok:   false,
		},
		{
			name: "missing fields",
			line: "refs/heads/main\x00aaaa\x00\x00",
			ok:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseBranchLine(tt.line)
			if ok != tt.ok {
				t.Fatalf("expected ok=%v, got %v", tt.ok, ok)
			}
			if !ok {
				return
			}
			if got.Ref != tt.want.Ref || got.Ahead != tt.want.Ahead ||
				got.Behind != tt.want.Behind || got.Head != tt.want.Head {
				t.Errorf("expected %+v, got %+v", tt.want, got)
			}
			switch {
			case tt.want.Upstream == nil && got.Upstream != nil:
				t.Errorf("expected no upstream, got %+v", got.Upstream)
			case tt.want.Upstream != nil && got.Upstream == nil:
				t.Errorf("expected upstream %+v, got none", tt.want.Upstream)
			case tt.want.Upstream != nil && *got.Upstream != *tt.want.Upstream:
				t.Errorf("expected upstream %+v, got %+v", tt.want.Upstream, got.Upstream)
			}
		})
	}
}

func TestParseBranchesOrder(t *testing.T) {
	out := "refs/heads/alpha\x00aaaa\x00\x00\x00 \n" +
		"refs/heads/beta\x00bbbb\x00\x00\x00*\n"

	branches := parseBranches(out, testLogger())
	if len(branches) != 2 {
		t.Fatalf("expected 2 branches, got %d", len(branches))
	}
	if branches[0].Name != "alpha" || branches[1].Name != "beta" {
		t.Errorf("expected refname order preserved, got %v", branches)
	}
	if branches[0].Head || !branches[1].Head {
		t.Errorf("expected only beta marked as HEAD")
	}
}

func TestAtoiOrZero(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"0", 0},
		{"42", 42},
		{"junk", 0},
	}
	for _, tt := range tests {
		if got := atoiOrZero(tt.in); got != tt.want {
			t.Errorf("atoiOrZero(%q): expected %d, got %d", tt.in, tt.want, got)
		}
	}
}

func TestListRefsArgs(t *testing.T) {
	tests := []struct {
		name string
		opts RefOptions
		want string
	}{
		{"name order", RefOptions{}, "for-each-ref --format=" + refFormat},
		{"commit date order", RefOptions{SortByCommitDate: true}, "for-each-ref --format=" + refFormat + " --sort=-committerdate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakeRunner()
			f.respond(tt.want, okResult("refs/heads/main\x00"+hashA+"\x00\n"))
			g := newFakeGit(t, f)
			refs, err := g.ListRefs(context.Background(), ".", tt.opts)
			if err != nil {
				t.Fatalf("ListRefs: unexpected error: %v", err)
			}
			if len(refs) != 1 || refs[0].Name != "main" {
				t.Errorf("expected one main ref, got %v", refs)
			}
		})
	}
}
