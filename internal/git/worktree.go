package git

import (
	"context"
	"errors"
	"strings"

	"github.com/dshills/gitstate/internal/process"
)

// Add stages the given paths, including deletions. With no paths the
// whole tree is staged.
func (g *Git) Add(ctx context.Context, dir string, paths []string) error {
	args := []string{"add", "-A", "--"}
	if len(paths) == 0 {
		args = append(args, ".")
	} else {
		args = append(args, paths...)
	}
	_, err := g.run(ctx, "add", process.Invocation{Args: args, Dir: dir})
	return err
}

// AddIntent registers paths with the index without staging content, so
// they diff as intent-to-add rather than untracked.
func (g *Git) AddIntent(ctx context.Context, dir string, paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	args := append([]string{"add", "--intent-to-add", "--"}, paths...)
	_, err := g.run(ctx, "add", process.Invocation{Args: args, Dir: dir})
	return err
}

// Unstage removes paths from the index, keeping working-tree content.
// On an unborn branch HEAD does not resolve, so the index entries are
// dropped directly instead.
func (g *Git) Unstage(ctx context.Context, dir string, paths []string) error {
	target := paths
	if len(target) == 0 {
		target = []string{"."}
	}
	args := append([]string{"reset", "-q", "HEAD", "--"}, target...)
	_, err := g.run(ctx, "reset", process.Invocation{Args: args, Dir: dir})
	if err == nil {
		return nil
	}
	var ge *GitError
	if !errors.As(err, &ge) || !strings.Contains(ge.Stderr, "ambiguous argument 'HEAD'") {
		return err
	}
	args = append([]string{"rm", "--cached", "-r", "-q", "--"}, target...)
	_, err = g.run(ctx, "reset", process.Invocation{Args: args, Dir: dir})
	return err
}

// Checkout switches the working tree to treeish, or restores the given
// paths from it.
func (g *Git) Checkout(ctx context.Context, dir, treeish string, paths []string) error {
	args := []string{"checkout", "-q"}
	if treeish != "" {
		args = append(args, treeish)
	}
	args = append(args, "--")
	args = append(args, paths...)
	_, err := g.run(ctx, "checkout", process.Invocation{Args: args, Dir: dir})
	return err
}

// Discard restores paths from the index, dropping working-tree edits.
func (g *Git) Discard(ctx context.Context, dir string, paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	return g.Checkout(ctx, dir, "", paths)
}

// ApplyOptions tune Apply.
type ApplyOptions struct {
	// Check validates the patch without applying it.
	Check bool
	// Index applies to index and working tree together.
	Index bool
	// Cached applies to the index only.
	Cached bool
	// ThreeWay falls back to three-way merge on conflicts.
	ThreeWay bool
	// Reverse unapplies the patch.
	Reverse bool
}

// Apply lands a patch delivered on stdin.
func (g *Git) Apply(ctx context.Context, dir, patch string, opts ApplyOptions) error {
	args := []string{"apply"}
	if opts.Check {
		args = append(args, "--check")
	}
	if opts.Index {
		args = append(args, "--index")
	}
	if opts.Cached {
		args = append(args, "--cached")
	}
	if opts.ThreeWay {
		args = append(args, "--3way")
	}
	if opts.Reverse {
		args = append(args, "-R")
	}
	args = append(args, "--whitespace=nowarn", "-")
	_, err := g.run(ctx, "apply", process.Invocation{Args: args, Dir: dir, Stdin: patch})
	return err
}

// CleanOptions tune Clean.
type CleanOptions struct {
	// Directories removes untracked directories too.
	Directories bool
	// IncludeIgnored removes ignored files as well.
	IncludeIgnored bool
	// Paths restricts the clean; empty cleans everything.
	Paths []string
}

// Clean deletes untracked files.
func (g *Git) Clean(ctx context.Context, dir string, opts CleanOptions) error {
	args := []string{"clean", "-f", "-q"}
	if opts.Directories {
		args = append(args, "-d")
	}
	if opts.IncludeIgnored {
		args = append(args, "-x")
	}
	args = append(args, "--")
	args = append(args, opts.Paths...)
	_, err := g.run(ctx, "clean", process.Invocation{Args: args, Dir: dir})
	return err
}
