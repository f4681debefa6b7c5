package git

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/dshills/gitstate/internal/process"
)

const (
	refFormat    = "%(refname)%00%(objectname)%00%(*objectname)"
	branchFormat = "%(refname)%00%(objectname)%00%(upstream:short)%00%(upstream:track)%00%(HEAD)"
)

// trackPattern pulls ahead/behind counts out of %(upstream:track),
// which renders as "[ahead 1, behind 2]", "[ahead 1]", "[behind 2]",
// "[gone]", or nothing.
var trackPattern = regexp.MustCompile(`\[(?:ahead (\d+))?[,\s]*(?:behind (\d+))?\]`)

// RefOptions tune ListRefs.
type RefOptions struct {
	// SortByCommitDate orders refs newest first instead of by name.
	SortByCommitDate bool
}

// ListRefs returns every local head, remote head, and tag. Tags resolve
// through their annotated object to the commit they point at.
func (g *Git) ListRefs(ctx context.Context, dir string, opts RefOptions) ([]Ref, error) {
	args := []string{"for-each-ref", "--format=" + refFormat}
	if opts.SortByCommitDate {
		args = append(args, "--sort=-committerdate")
	}
	res, err := g.run(ctx, "refs", process.Invocation{Args: args, Dir: dir})
	if err != nil {
		return nil, err
	}
	return parseRefs(res.Stdout, g.logger), nil
}

func parseRefs(out string, logger *log.Logger) []Ref {
	var refs []Ref
	for _, line := range strings.Split(out, "\n") {
		if line == "" {
			continue
		}
		ref, ok := parseRefLine(line)
		if !ok {
			logger.Debug("skipping unrecognized ref record", "record", line)
			continue
		}
		refs = append(refs, ref)
	}
	return refs
}

// parseRefLine decodes one for-each-ref record. Refs outside heads,
// remotes, and tags (stash, notes) are not part of the model.
func parseRefLine(line string) (Ref, bool) {
	parts := strings.Split(line, "\x00")
	if len(parts) != 3 {
		return Ref{}, false
	}
	name, object, peeled := parts[0], parts[1], parts[2]
	switch {
	case strings.HasPrefix(name, "refs/heads/"):
		return Ref{Type: RefHead, Name: strings.TrimPrefix(name, "refs/heads/"), Commit: object}, true
	case strings.HasPrefix(name, "refs/remotes/"):
		rest := strings.TrimPrefix(name, "refs/remotes/")
		remote, _, ok := strings.Cut(rest, "/")
		if !ok {
			return Ref{}, false
		}
		return Ref{Type: RefRemoteHead, Name: rest, Commit: object, Remote: remote}, true
	case strings.HasPrefix(name, "refs/tags/"):
		commit := object
		if peeled != "" {
			commit = peeled
		}
		return Ref{Type: RefTag, Name: strings.TrimPrefix(name, "refs/tags/"), Commit: commit}, true
	default:
		return Ref{}, false
	}
}

// ListBranches returns local branches, plus remote-tracking branches
// when includeRemotes is set. Results are in for-each-ref's refname
// order, so repeated calls over unchanged refs compare equal.
func (g *Git) ListBranches(ctx context.Context, dir string, includeRemotes bool) ([]Branch, error) {
	patterns := []string{"refs/heads"}
	if includeRemotes {
		patterns = append(patterns, "refs/remotes")
	}
	return g.branchesMatching(ctx, dir, patterns)
}

// GetBranch looks up one local branch by short name.
func (g *Git) GetBranch(ctx context.Context, dir, name string) (*Branch, error) {
	branches, err := g.branchesMatching(ctx, dir, []string{"refs/heads/" + name})
	if err != nil {
		return nil, err
	}
	for i := range branches {
		if branches[i].Name == name {
			return &branches[i], nil
		}
	}
	return nil, &GitError{Kind: CommandFailed, Op: "branch", Detail: "no such branch: " + name}
}

func (g *Git) branchesMatching(ctx context.Context, dir string, patterns []string) ([]Branch, error) {
	args := append([]string{"for-each-ref", "--format=" + branchFormat}, patterns...)
	res, err := g.run(ctx, "branches", process.Invocation{Args: args, Dir: dir})
	if err != nil {
		return nil, err
	}
	return parseBranches(res.Stdout, g.logger), nil
}

func parseBranches(out string, logger *log.Logger) []Branch {
	var branches []Branch
	for _, line := range strings.Split(out, "\n") {
		if line == "" {
			continue
		}
		b, ok := parseBranchLine(line)
		if !ok {
			logger.Debug("skipping unrecognized branch record", "record", line)
			continue
		}
		branches = append(branches, b)
	}
	return branches
}

func parseBranchLine(line string) (Branch, bool) {
	parts := strings.Split(line, "\x00")
	if len(parts) != 5 {
		return Branch{}, false
	}
	refname, object, upstream, track, head := parts[0], parts[1], parts[2], parts[3], parts[4]

	var b Branch
	switch {
	case strings.HasPrefix(refname, "refs/heads/"):
		b.Ref = Ref{Type: RefHead, Name: strings.TrimPrefix(refname, "refs/heads/"), Commit: object}
	case strings.HasPrefix(refname, "refs/remotes/"):
		rest := strings.TrimPrefix(refname, "refs/remotes/")
		remote, _, ok := strings.Cut(rest, "/")
		if !ok {
			return Branch{}, false
		}
		b.Ref = Ref{Type: RefRemoteHead, Name: rest, Commit: object, Remote: remote}
	default:
		return Branch{}, false
	}

	if upstream != "" {
		remote, name, ok := strings.Cut(upstream, "/")
		if !ok {
			// A local upstream (branch.<n>.remote = ".") has no
			// remote component.
			b.Upstream = &UpstreamRef{Name: upstream}
		} else {
			b.Upstream = &UpstreamRef{Remote: remote, Name: name}
		}
		if m := trackPattern.FindStringSubmatch(track); m != nil {
			b.Ahead = atoiOrZero(m[1])
			b.Behind = atoiOrZero(m[2])
		}
	}

	b.Head = head == "*"
	return b, true
}

func atoiOrZero(s string) int {
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

// Head resolves what HEAD points at. A born branch resolves through
// GetBranch for tracking data; a detached HEAD yields a nameless
// Branch carrying only the commit; an unborn branch yields the name
// with no commit.
func (g *Git) Head(ctx context.Context, dir string) (*Branch, error) {
	res, err := g.run(ctx, "head", process.Invocation{
		Args: []string{"symbolic-ref", "--short", "-q", "HEAD"},
		Dir:  dir,
	}, 1)
	if err != nil {
		return nil, err
	}

	if name := strings.TrimSpace(res.Stdout); res.ExitCode == 0 && name != "" {
		branch, err := g.GetBranch(ctx, dir, name)
		if err == nil {
			branch.Head = true
			return branch, nil
		}
		if KindOf(err) == CommandFailed {
			// Unborn branch: HEAD names a ref that has no commit yet.
			return &Branch{Ref: Ref{Type: RefHead, Name: name}, Head: true}, nil
		}
		return nil, err
	}

	hash, err := g.RevParse(ctx, dir, "HEAD")
	if err != nil {
		return nil, err
	}
	return &Branch{Ref: Ref{Type: RefHead, Commit: hash}, Head: true}, nil
}

