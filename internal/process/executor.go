package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

const (
	// defaultSpawnRetries bounds retries of transient spawn failures.
	defaultSpawnRetries = 2

	// spawnBackoff is the base delay between spawn retries.
	spawnBackoff = 50 * time.Millisecond

	// waitDelay bounds how long Wait blocks on lingering pipe readers
	// after the context kills the child.
	waitDelay = 5 * time.Second
)

// baseEnv is appended to every invocation's environment. Entries passed
// via Invocation.Env are appended after it and win for keys they name.
// LC_ALL/LANG pin tool messages to the untranslated locale so parsing
// and stderr classification are stable; GIT_TERMINAL_PROMPT stops the
// child from blocking on credential prompts.
var baseEnv = []string{
	"LC_ALL=C",
	"LANG=C",
	"GIT_TERMINAL_PROMPT=0",
	"GIT_PAGER=cat",
	"GIT_OPTIONAL_LOCKS=0",
}

// Executor runs one external binary with captured output.
//
// Executor is safe for concurrent use; each Run is an independent OS
// process. An optional process cap bounds how many children run at
// once across all callers.
type Executor struct {
	bin     string
	timeout time.Duration
	retries int
	sem     chan struct{}
	logger  *log.Logger

	started  atomic.Uint64
	inFlight atomic.Int64
}

// ExecutorStats reports executor activity counters.
type ExecutorStats struct {
	Started  uint64
	InFlight int64
}

// ExecutorOption configures an Executor instance.
type ExecutorOption func(*Executor)

// WithTimeout sets the default per-invocation timeout.
// A value of 0 (default) means no timeout.
func WithTimeout(d time.Duration) ExecutorOption {
	return func(e *Executor) {
		e.timeout = d
	}
}

// WithSpawnRetries sets how many times a transient spawn failure is
// retried. Negative values disable retry.
func WithSpawnRetries(n int) ExecutorOption {
	return func(e *Executor) {
		if n < 0 {
			n = 0
		}
		e.retries = n
	}
}

// WithMaxProcesses caps concurrent child processes.
// A value of 0 (default) means unlimited.
func WithMaxProcesses(n int) ExecutorOption {
	return func(e *Executor) {
		if n > 0 {
			e.sem = make(chan struct{}, n)
		}
	}
}

// WithLogger sets the logger used for invocation diagnostics.
func WithLogger(logger *log.Logger) ExecutorOption {
	return func(e *Executor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewExecutor creates an executor for the given binary path.
// The path is not validated here; a missing binary surfaces as a
// SpawnError from Run.
func NewExecutor(bin string, opts ...ExecutorOption) *Executor {
	e := &Executor{
		bin:     bin,
		retries: defaultSpawnRetries,
		logger:  log.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Bin returns the binary path this executor runs.
func (e *Executor) Bin() string {
	return e.bin
}

// Stats returns activity counters for the executor.
func (e *Executor) Stats() ExecutorStats {
	return ExecutorStats{
		Started:  e.started.Load(),
		InFlight: e.inFlight.Load(),
	}
}

// Run executes the binary with the given invocation and captures its
// output.
//
// A non-zero exit code is a normal Result with a nil error. Run returns
// a *SpawnError when the binary cannot be launched, and the context
// error when the invocation is cancelled or times out (the child is
// killed first). Transient spawn failures are retried with backoff up
// to the configured bound.
func (e *Executor) Run(ctx context.Context, inv Invocation) (Result, error) {
	if e.sem != nil {
		select {
		case e.sem <- struct{}{}:
			defer func() { <-e.sem }()
		case <-ctx.Done():
			return Result{ExitCode: -1}, ctx.Err()
		}
	}

	for attempt := 0; ; attempt++ {
		res, err := e.runOnce(ctx, inv, attempt)
		if err == nil || attempt >= e.retries || !retryableSpawn(err) {
			return res, err
		}

		e.logger.Debug("transient spawn failure, retrying",
			"bin", e.bin, "attempt", attempt+1, "error", err)
		select {
		case <-time.After(spawnBackoff << attempt):
		case <-ctx.Done():
			return Result{ExitCode: -1}, ctx.Err()
		}
	}
}

func (e *Executor) runOnce(ctx context.Context, inv Invocation, attempt int) (Result, error) {
	timeout := e.timeout
	if inv.Timeout > 0 {
		timeout = inv.Timeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, e.bin, inv.Args...)
	cmd.Dir = inv.Dir
	cmd.Env = append(append(os.Environ(), baseEnv...), inv.Env...)
	cmd.WaitDelay = waitDelay
	if inv.Stdin != "" {
		cmd.Stdin = strings.NewReader(inv.Stdin)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	id := uuid.NewString()
	start := time.Now()
	if err := cmd.Start(); err != nil {
		return Result{ExitCode: -1}, &SpawnError{Path: e.bin, Err: err}
	}
	e.started.Add(1)
	e.inFlight.Add(1)

	waitErr := cmd.Wait()
	e.inFlight.Add(-1)
	elapsed := time.Since(start)

	if ctxErr := ctx.Err(); ctxErr != nil {
		e.logger.Debug("invocation cancelled",
			"id", id, "args", inv.Args, "dir", inv.Dir, "elapsed", elapsed)
		return Result{ExitCode: -1, Stdout: stdout.String(), Stderr: stderr.String()}, ctxErr
	}

	exitCode := 0
	if waitErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(waitErr, &exitErr) {
			return Result{ExitCode: -1}, fmt.Errorf("wait %s: %w", e.bin, waitErr)
		}
		exitCode = exitErr.ExitCode()
	}

	e.logger.Debug("invocation complete",
		"id", id, "args", inv.Args, "dir", inv.Dir,
		"exit", exitCode, "elapsed", elapsed, "attempt", attempt)

	return Result{ExitCode: exitCode, Stdout: stdout.String(), Stderr: stderr.String()}, nil
}

// retryableSpawn reports whether err is a transient spawn failure of
// the pipe or descriptor exhaustion class.
func retryableSpawn(err error) bool {
	var spawn *SpawnError
	if !errors.As(err, &spawn) {
		return false
	}
	return errors.Is(spawn.Err, syscall.EAGAIN) ||
		errors.Is(spawn.Err, syscall.EMFILE) ||
		errors.Is(spawn.Err, syscall.ENFILE)
}
