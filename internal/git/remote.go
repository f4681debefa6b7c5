package git

import (
	"context"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/dshills/gitstate/internal/process"
)

// noPushSentinel in a push URL marks a remote as read-only by
// convention.
const noPushSentinel = "no_push"

// GetRemotes lists configured remotes in first-appearance order.
func (g *Git) GetRemotes(ctx context.Context, dir string) ([]Remote, error) {
	res, err := g.run(ctx, "remote", process.Invocation{
		Args: []string{"remote", "-v"},
		Dir:  dir,
	})
	if err != nil {
		return nil, err
	}
	return parseRemotes(res.Stdout, g.logger), nil
}

// parseRemotes decodes `remote -v` lines: "<name>\t<url> (fetch|push)".
// A remote is read-only when it has no push URL or the push URL is the
// no_push sentinel.
func parseRemotes(out string, logger *log.Logger) []Remote {
	byName := make(map[string]*Remote)
	var order []string

	for _, line := range strings.Split(out, "\n") {
		if line == "" {
			continue
		}
		name, rest, ok := strings.Cut(line, "\t")
		if !ok {
			logger.Warn("skipping malformed remote record", "record", line)
			continue
		}
		remote, found := byName[name]
		if !found {
			remote = &Remote{Name: name}
			byName[name] = remote
			order = append(order, name)
		}
		switch {
		case strings.HasSuffix(rest, " (fetch)"):
			remote.FetchURL = strings.TrimSuffix(rest, " (fetch)")
		case strings.HasSuffix(rest, " (push)"):
			remote.PushURL = strings.TrimSuffix(rest, " (push)")
		default:
			logger.Warn("skipping malformed remote record", "record", line)
		}
	}

	remotes := make([]Remote, 0, len(order))
	for _, name := range order {
		r := byName[name]
		r.IsReadOnly = r.PushURL == "" || r.PushURL == noPushSentinel
		remotes = append(remotes, *r)
	}
	return remotes
}

// AddRemote configures a new remote.
func (g *Git) AddRemote(ctx context.Context, dir, name, url string) error {
	_, err := g.run(ctx, "remote", process.Invocation{
		Args: []string{"remote", "add", name, url},
		Dir:  dir,
	})
	return err
}

// RemoveRemote deletes a remote and its tracking refs.
func (g *Git) RemoveRemote(ctx context.Context, dir, name string) error {
	_, err := g.run(ctx, "remote", process.Invocation{
		Args: []string{"remote", "remove", name},
		Dir:  dir,
	})
	return err
}

// FetchOptions tune Fetch.
type FetchOptions struct {
	// All fetches every remote; Remote/Ref are ignored.
	All bool
	// Prune drops remote-tracking refs deleted upstream.
	Prune bool
	// Tags fetches all tags.
	Tags bool
	// Depth deepens or truncates history when positive.
	Depth int
	// Remote names the remote to fetch; empty uses the default.
	Remote string
	// Ref restricts the fetch to one ref; requires Remote.
	Ref string
}

// Fetch updates remote-tracking refs.
func (g *Git) Fetch(ctx context.Context, dir string, opts FetchOptions) error {
	args := []string{"fetch"}
	if opts.All {
		args = append(args, "--all")
	}
	if opts.Prune {
		args = append(args, "--prune")
	}
	if opts.Tags {
		args = append(args, "--tags")
	}
	if opts.Depth > 0 {
		args = append(args, "--depth", strconv.Itoa(opts.Depth))
	}
	if !opts.All && opts.Remote != "" {
		args = append(args, opts.Remote)
		if opts.Ref != "" {
			args = append(args, opts.Ref)
		}
	}
	_, err := g.run(ctx, "fetch", process.Invocation{Args: args, Dir: dir})
	return err
}

// PullOptions tune Pull.
type PullOptions struct {
	// Tags fetches tags alongside.
	Tags bool
	// Unshallow converts a shallow clone into a complete one.
	Unshallow bool
	// Rebase replays local commits instead of merging.
	Rebase bool
	// Remote and Branch name what to pull; both empty uses upstream.
	Remote string
	Branch string
}

// Pull integrates upstream changes into the current branch.
func (g *Git) Pull(ctx context.Context, dir string, opts PullOptions) error {
	args := []string{"pull"}
	if opts.Tags {
		args = append(args, "--tags")
	}
	if opts.Unshallow {
		args = append(args, "--unshallow")
	}
	if opts.Rebase {
		args = append(args, "-r")
	}
	if opts.Remote != "" {
		args = append(args, opts.Remote)
		if opts.Branch != "" {
			args = append(args, opts.Branch)
		}
	}
	_, err := g.run(ctx, "pull", process.Invocation{Args: args, Dir: dir})
	return err
}

// ForcePushMode selects how a push may override the remote.
type ForcePushMode int

const (
	// ForcePushNone refuses non-fast-forward updates.
	ForcePushNone ForcePushMode = iota
	// ForcePushUnconditional passes -f.
	ForcePushUnconditional
	// ForcePushWithLease passes --force-with-lease.
	ForcePushWithLease
)

// PushOptions tune Push.
type PushOptions struct {
	// SetUpstream records the pushed ref as upstream (-u).
	SetUpstream bool
	// Force selects the override mode.
	Force ForcePushMode
	// Tags pushes all tags.
	Tags bool
	// Delete removes the refspec from the remote instead of updating
	// it.
	Delete bool
	// Remote and Refspec name what to push; both empty uses upstream.
	Remote  string
	Refspec string
}

// Push publishes refs to a remote. A diverged remote yields a
// PushRejected error and moves no local ref.
func (g *Git) Push(ctx context.Context, dir string, opts PushOptions) error {
	args := []string{"push"}
	if opts.SetUpstream {
		args = append(args, "-u")
	}
	switch opts.Force {
	case ForcePushUnconditional:
		args = append(args, "-f")
	case ForcePushWithLease:
		args = append(args, "--force-with-lease")
	}
	if opts.Tags {
		args = append(args, "--tags")
	}
	if opts.Delete {
		args = append(args, "-d")
	}
	if opts.Remote != "" {
		args = append(args, opts.Remote)
		if opts.Refspec != "" {
			args = append(args, opts.Refspec)
		}
	}
	_, err := g.run(ctx, "push", process.Invocation{Args: args, Dir: dir})
	return err
}
