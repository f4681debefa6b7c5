package git

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/charmbracelet/log"

	"github.com/dshills/gitstate/internal/process"
)

// Runner executes one external command invocation. The production
// implementation is *process.Executor; tests substitute fakes.
type Runner interface {
	Run(ctx context.Context, inv process.Invocation) (process.Result, error)
}

// minVersion is the oldest git release the engine is exercised
// against. Older binaries are still driven; the gate only warns.
var minVersion = semver.MustParse("2.25.0")

var versionPattern = regexp.MustCompile(`git version (\d+)\.(\d+)(?:\.(\d+))?`)

// Git drives a located git binary. The handle is stateless apart from
// the binary path and probed version; per-working-copy state lives on
// Repository and is owned by the Registry.
type Git struct {
	runner  Runner
	bin     string
	version string
	logger  *log.Logger
}

type gitSettings struct {
	runner  Runner
	logger  *log.Logger
	timeout time.Duration
	maxProc int
	retries int
}

// GitOption configures New.
type GitOption func(*gitSettings)

// WithRunner substitutes the process runner. Intended for tests.
func WithRunner(r Runner) GitOption {
	return func(s *gitSettings) { s.runner = r }
}

// WithGitLogger sets the logger used by the client and its executor.
func WithGitLogger(logger *log.Logger) GitOption {
	return func(s *gitSettings) { s.logger = logger }
}

// WithCommandTimeout bounds each invocation. Zero means no bound.
func WithCommandTimeout(d time.Duration) GitOption {
	return func(s *gitSettings) { s.timeout = d }
}

// WithMaxConcurrent caps concurrently running git processes.
func WithMaxConcurrent(n int) GitOption {
	return func(s *gitSettings) { s.maxProc = n }
}

// WithRetries sets the bounded retry count for transient spawn
// failures.
func WithRetries(n int) GitOption {
	return func(s *gitSettings) { s.retries = n }
}

// New locates the git binary and probes its version. binHint names an
// explicit binary path or command; empty means look up "git" on PATH.
func New(ctx context.Context, binHint string, opts ...GitOption) (*Git, error) {
	s := gitSettings{logger: log.Default(), retries: -1}
	for _, opt := range opts {
		opt(&s)
	}

	g := &Git{logger: s.logger}
	if s.runner != nil {
		g.runner = s.runner
		g.bin = "git"
	} else {
		bin, err := FindGit(binHint)
		if err != nil {
			return nil, &GitError{Kind: BinaryNotFound, Op: "lookup", err: err}
		}
		g.bin = bin
		execOpts := []process.ExecutorOption{process.WithLogger(s.logger)}
		if s.timeout > 0 {
			execOpts = append(execOpts, process.WithTimeout(s.timeout))
		}
		if s.maxProc > 0 {
			execOpts = append(execOpts, process.WithMaxProcesses(s.maxProc))
		}
		if s.retries >= 0 {
			execOpts = append(execOpts, process.WithSpawnRetries(s.retries))
		}
		g.runner = process.NewExecutor(bin, execOpts...)
	}

	version, err := g.probeVersion(ctx)
	if err != nil {
		return nil, err
	}
	g.version = version
	return g, nil
}

// FindGit resolves the binary to drive: the explicit hint when given,
// otherwise "git" on PATH.
func FindGit(hint string) (string, error) {
	if hint != "" {
		return exec.LookPath(hint)
	}
	return exec.LookPath("git")
}

// Bin returns the resolved binary path.
func (g *Git) Bin() string { return g.bin }

// Version returns the probed binary version, e.g. "2.43.0".
func (g *Git) Version() string { return g.version }

func (g *Git) probeVersion(ctx context.Context) (string, error) {
	res, err := g.run(ctx, "version", process.Invocation{Args: []string{"--version"}})
	if err != nil {
		return "", err
	}
	m := versionPattern.FindStringSubmatch(res.Stdout)
	if m == nil {
		return "", malformed("version", firstLine(res.Stdout))
	}
	version := m[1] + "." + m[2] + "."
	if m[3] != "" {
		version += m[3]
	} else {
		version += "0"
	}
	if v, err := semver.NewVersion(version); err == nil && v.LessThan(minVersion) {
		g.logger.Warn("git version below supported minimum",
			"version", version, "minimum", minVersion.String())
	}
	return version, nil
}

// run executes one invocation and converts failures into classified
// errors. okExits lists extra exit codes treated as success; some
// queries use 1 for "no result".
func (g *Git) run(ctx context.Context, op string, inv process.Invocation, okExits ...int) (process.Result, error) {
	res, err := g.runner.Run(ctx, inv)
	if err != nil {
		return res, systemError(op, res, err)
	}
	if res.ExitCode == 0 {
		return res, nil
	}
	for _, code := range okExits {
		if res.ExitCode == code {
			return res, nil
		}
	}
	return res, classify(op, res)
}

// Init creates a repository at path. branch names the initial branch;
// empty keeps the binary's default.
func (g *Git) Init(ctx context.Context, path, branch string) error {
	args := []string{"init"}
	if branch != "" {
		args = append(args, "-b", branch)
	}
	_, err := g.run(ctx, "init", process.Invocation{Args: args, Dir: path})
	return err
}

// CloneOptions tune Clone.
type CloneOptions struct {
	// Recursive clones submodules as well.
	Recursive bool
	// Depth truncates history when positive.
	Depth int
}

// Clone fetches url into dir and returns the absolute checkout path.
func (g *Git) Clone(ctx context.Context, url, dir string, opts CloneOptions) (string, error) {
	args := []string{"clone", url, dir, "--progress"}
	if opts.Recursive {
		args = append(args, "--recursive")
	}
	if opts.Depth > 0 {
		args = append(args, "--depth", strconv.Itoa(opts.Depth))
	}
	if _, err := g.run(ctx, "clone", process.Invocation{Args: args}); err != nil {
		return "", err
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve clone path: %w", err)
	}
	return abs, nil
}

// TopLevel resolves the root of the working copy containing path.
func (g *Git) TopLevel(ctx context.Context, path string) (string, error) {
	res, err := g.run(ctx, "top-level", process.Invocation{
		Args: []string{"rev-parse", "--show-toplevel"},
		Dir:  path,
	})
	if err != nil {
		return "", err
	}
	root := strings.TrimSpace(res.Stdout)
	if root == "" {
		return "", malformed("top-level", "empty toplevel")
	}
	return filepath.Clean(root), nil
}

// RevParse resolves ref to an object name inside dir.
func (g *Git) RevParse(ctx context.Context, dir, ref string) (string, error) {
	res, err := g.run(ctx, "rev-parse", process.Invocation{
		Args: []string{"rev-parse", ref},
		Dir:  dir,
	})
	if err != nil {
		return "", err
	}
	hash := strings.TrimSpace(res.Stdout)
	if hash == "" {
		return "", malformed("rev-parse", "empty object name")
	}
	return hash, nil
}

// splitNul splits NUL-delimited tool output, dropping the trailing
// empty token git appends.
func splitNul(out string) []string {
	out = strings.TrimSuffix(out, "\x00")
	if out == "" {
		return nil
	}
	return strings.Split(out, "\x00")
}
