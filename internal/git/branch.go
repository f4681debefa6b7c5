package git

import (
	"context"

	"github.com/dshills/gitstate/internal/process"
)

// CreateBranchOptions tune CreateBranch.
type CreateBranchOptions struct {
	// Checkout switches to the new branch as it is created.
	Checkout bool
	// NoTrack suppresses upstream configuration when branching off a
	// remote-tracking ref. Only meaningful with Checkout.
	NoTrack bool
	// Ref is the starting point; empty means HEAD.
	Ref string
}

// CreateBranch creates a branch named name.
func (g *Git) CreateBranch(ctx context.Context, dir, name string, opts CreateBranchOptions) error {
	var args []string
	if opts.Checkout {
		args = []string{"checkout", "-q", "-b", name}
		if opts.NoTrack {
			args = append(args, "--no-track")
		}
	} else {
		args = []string{"branch", "-q", name}
	}
	if opts.Ref != "" {
		args = append(args, opts.Ref)
	}
	_, err := g.run(ctx, "branch", process.Invocation{Args: args, Dir: dir})
	return err
}

// DeleteBranch removes a local branch. force deletes even when the
// branch is not fully merged.
func (g *Git) DeleteBranch(ctx context.Context, dir, name string, force bool) error {
	flag := "-d"
	if force {
		flag = "-D"
	}
	_, err := g.run(ctx, "branch", process.Invocation{
		Args: []string{"branch", "-q", flag, name},
		Dir:  dir,
	})
	return err
}

// RenameBranch renames the current branch.
func (g *Git) RenameBranch(ctx context.Context, dir, name string) error {
	_, err := g.run(ctx, "branch", process.Invocation{
		Args: []string{"branch", "-m", name},
		Dir:  dir,
	})
	return err
}

// SetBranchUpstream points name's tracking configuration at upstream.
func (g *Git) SetBranchUpstream(ctx context.Context, dir, name, upstream string) error {
	_, err := g.run(ctx, "branch", process.Invocation{
		Args: []string{"branch", "--set-upstream-to=" + upstream, name},
		Dir:  dir,
	})
	return err
}

// Merge merges ref into the current branch. A conflicted merge stops
// with a Conflict error and leaves the working tree in the merging
// state.
func (g *Git) Merge(ctx context.Context, dir, ref string) error {
	_, err := g.run(ctx, "merge", process.Invocation{
		Args: []string{"merge", ref},
		Dir:  dir,
	})
	return err
}

// MergeAbort abandons an in-progress merge.
func (g *Git) MergeAbort(ctx context.Context, dir string) error {
	_, err := g.run(ctx, "merge", process.Invocation{
		Args: []string{"merge", "--abort"},
		Dir:  dir,
	})
	return err
}

// CherryPick applies the named commit onto the current branch.
func (g *Git) CherryPick(ctx context.Context, dir, hash string) error {
	_, err := g.run(ctx, "cherry-pick", process.Invocation{
		Args: []string{"cherry-pick", hash},
		Dir:  dir,
	})
	return err
}

// CreateTag creates a tag at HEAD. A non-empty message makes it an
// annotated tag.
func (g *Git) CreateTag(ctx context.Context, dir, name, message string) error {
	args := []string{"tag"}
	if message != "" {
		args = append(args, "-a", name, "-m", message)
	} else {
		args = append(args, name)
	}
	_, err := g.run(ctx, "tag", process.Invocation{Args: args, Dir: dir})
	return err
}

// DeleteTag removes a local tag.
func (g *Git) DeleteTag(ctx context.Context, dir, name string) error {
	_, err := g.run(ctx, "tag", process.Invocation{
		Args: []string{"tag", "-d", name},
		Dir:  dir,
	})
	return err
}
