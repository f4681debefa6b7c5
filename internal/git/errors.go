package git

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"regexp"
	"strings"

	"github.com/dshills/gitstate/internal/process"
)

var (
	// ErrRegistryClosed is returned when a repository is requested from
	// a registry that has been shut down.
	ErrRegistryClosed = errors.New("registry is closed")
	// ErrRepositoryClosed is returned when an operation is issued
	// against a repository handle that has been closed.
	ErrRepositoryClosed = errors.New("repository is closed")
)

// ErrorKind is the closed classification space for git failures. It
// implements error so callers can match with errors.Is against a
// returned *GitError:
//
//	if errors.Is(err, git.PushRejected) { ... }
type ErrorKind int

const (
	// CommandFailed is the fallback for non-zero exits whose stderr
	// matches no known message fragment.
	CommandFailed ErrorKind = iota
	// BinaryNotFound means the git executable could not be launched.
	BinaryNotFound
	// Cancelled means the caller's context ended before the command
	// finished.
	Cancelled
	// MalformedOutput means a command succeeded but produced output
	// the parsers could not interpret.
	MalformedOutput
	// NotARepository means the directory is not inside a work tree.
	NotARepository
	// RepositoryNotFound means a remote rejected the repository path.
	RepositoryNotFound
	// RepositoryLocked means another git process holds the index lock.
	RepositoryLocked
	// AuthenticationFailed covers credential and key rejections.
	AuthenticationFailed
	// RemoteConnectionError covers DNS, connect, and transport faults.
	RemoteConnectionError
	// NoRemoteSpecified means the operation needs a remote and none is
	// configured.
	NoRemoteSpecified
	// NoRemoteReference means the named ref does not exist on the
	// remote.
	NoRemoteReference
	// NoUpstreamBranch means the current branch has no tracking
	// information.
	NoUpstreamBranch
	// PushRejected means the remote refused the ref update, typically
	// a non-fast-forward.
	PushRejected
	// Conflict means a merge-class operation stopped on conflicting
	// hunks.
	Conflict
	// StashConflict means restoring a stash produced conflicts.
	StashConflict
	// UnmergedChanges means unresolved conflict entries block the
	// operation.
	UnmergedChanges
	// DirtyWorkingTree means uncommitted changes block the operation.
	DirtyWorkingTree
	// LocalChangesOverwritten means the operation would clobber local
	// edits.
	LocalChangesOverwritten
	// PatchDoesNotApply means an apply or stash patch failed to land.
	PatchDoesNotApply
	// InvalidBranchName means the ref name failed git's check-ref
	// rules.
	InvalidBranchName
	// BranchAlreadyExists means branch creation hit an existing name.
	BranchAlreadyExists
	// BranchNotFullyMerged means a delete was refused to protect
	// unmerged commits.
	BranchNotFullyMerged
	// CantLockRef means a ref update lost the lock race.
	CantLockRef
	// BadConfigFile means git could not parse a configuration file.
	BadConfigFile
	// NoUserNameConfigured means committing requires user.name.
	NoUserNameConfigured
	// NoUserEmailConfigured means committing requires user.email.
	NoUserEmailConfigured
)

// String returns a short human-readable phrase for the kind.
func (k ErrorKind) String() string {
	switch k {
	case CommandFailed:
		return "command failed"
	case BinaryNotFound:
		return "binary not found"
	case Cancelled:
		return "cancelled"
	case MalformedOutput:
		return "malformed output"
	case NotARepository:
		return "not a repository"
	case RepositoryNotFound:
		return "repository not found"
	case RepositoryLocked:
		return "repository locked"
	case AuthenticationFailed:
		return "authentication failed"
	case RemoteConnectionError:
		return "remote connection error"
	case NoRemoteSpecified:
		return "no remote specified"
	case NoRemoteReference:
		return "no remote reference"
	case NoUpstreamBranch:
		return "no upstream branch"
	case PushRejected:
		return "push rejected"
	case Conflict:
		return "conflict"
	case StashConflict:
		return "stash conflict"
	case UnmergedChanges:
		return "unmerged changes"
	case DirtyWorkingTree:
		return "dirty working tree"
	case LocalChangesOverwritten:
		return "local changes would be overwritten"
	case PatchDoesNotApply:
		return "patch does not apply"
	case InvalidBranchName:
		return "invalid branch name"
	case BranchAlreadyExists:
		return "branch already exists"
	case BranchNotFullyMerged:
		return "branch not fully merged"
	case CantLockRef:
		return "cannot lock ref"
	case BadConfigFile:
		return "bad config file"
	case NoUserNameConfigured:
		return "user.name not configured"
	case NoUserEmailConfigured:
		return "user.email not configured"
	default:
		return fmt.Sprintf("error kind %d", int(k))
	}
}

// Error makes ErrorKind usable as an errors.Is target.
func (k ErrorKind) Error() string { return k.String() }

// GitError is the classified failure every operation returns. Callers
// never see a raw exit code; they see a kind plus the diagnostics that
// produced it.
type GitError struct {
	Kind     ErrorKind
	Op       string
	ExitCode int
	Stderr   string
	Detail   string
	err      error
}

// Error renders the operation, kind, and the first stderr line.
func (e *GitError) Error() string {
	var b strings.Builder
	b.WriteString("git ")
	b.WriteString(e.Op)
	b.WriteString(": ")
	b.WriteString(e.Kind.String())
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.ExitCode > 0 {
		fmt.Fprintf(&b, " (exit %d)", e.ExitCode)
	}
	if line := firstLine(e.Stderr); line != "" {
		b.WriteString(": ")
		b.WriteString(line)
	}
	if e.err != nil {
		b.WriteString(": ")
		b.WriteString(e.err.Error())
	}
	return b.String()
}

// Unwrap exposes the underlying cause, if any.
func (e *GitError) Unwrap() error { return e.err }

// Is reports whether target names this error's kind.
func (e *GitError) Is(target error) bool {
	k, ok := target.(ErrorKind)
	return ok && k == e.Kind
}

// IsKind reports whether err is classified as kind.
func IsKind(err error, kind ErrorKind) bool {
	return errors.Is(err, kind)
}

// KindOf extracts the classification from err. Unclassified errors
// report CommandFailed.
func KindOf(err error) ErrorKind {
	var ge *GitError
	if errors.As(err, &ge) {
		return ge.Kind
	}
	var k ErrorKind
	if errors.As(err, &k) {
		return k
	}
	return CommandFailed
}

// kindPattern pairs a kind with the stderr fragment that identifies
// it. The table is ordered; the first match wins, so more specific
// messages sit above the generic ones they embed.
type kindPattern struct {
	kind ErrorKind
	re   *regexp.Regexp
}

var stderrPatterns = []kindPattern{
	{RepositoryLocked, regexp.MustCompile(`Another git process seems to be running|index\.lock': File exists`)},
	{NotARepository, regexp.MustCompile(`(?i)not a git repository`)},
	{BadConfigFile, regexp.MustCompile(`bad config`)},
	{RepositoryNotFound, regexp.MustCompile(`(?i)repository '[^']+' not found|repository not found|does not appear to be a git repository`)},
	{AuthenticationFailed, regexp.MustCompile(`(?i)authentication failed|could not read username|invalid username or password|permission denied \(publickey\)`)},
	{RemoteConnectionError, regexp.MustCompile(`(?i)could not resolve host|unable to access|connection (refused|timed out|reset)`)},
	{NoRemoteSpecified, regexp.MustCompile(`No configured push destination|No remote repository specified`)},
	{NoRemoteReference, regexp.MustCompile(`(?i)couldn't find remote ref`)},
	{NoUpstreamBranch, regexp.MustCompile(`no upstream branch|no tracking information for the current branch`)},
	{PushRejected, regexp.MustCompile(`failed to push some refs|non-fast-forward|\[rejected\]|fetch first`)},
	{BranchNotFullyMerged, regexp.MustCompile(`branch '[^']+' is not fully merged`)},
	{BranchAlreadyExists, regexp.MustCompile(`branch (named )?'[^']+' already exists`)},
	{InvalidBranchName, regexp.MustCompile(`is not a valid branch name`)},
	{CantLockRef, regexp.MustCompile(`(?i)cannot lock ref`)},
	// Overwrite warnings embed the dirty-tree advice, so they must be
	// tested first.
	{LocalChangesOverwritten, regexp.MustCompile(`Your local changes to the following files would be overwritten`)},
	{DirtyWorkingTree, regexp.MustCompile(`commit your changes or stash them`)},
	{UnmergedChanges, regexp.MustCompile(`needs merge|not possible because you have unmerged files|resolve your current index first|unresolved conflict`)},
	{PatchDoesNotApply, regexp.MustCompile(`patch does not apply|corrupt patch`)},
	// The identity hint mentions both keys; email is listed first in
	// git's own advice, so it wins the tie.
	{NoUserEmailConfigured, regexp.MustCompile(`unable to auto-detect email address|no email was given|empty ident email`)},
	{NoUserNameConfigured, regexp.MustCompile(`Please tell me who you are|empty ident name`)},
}

// conflictPattern matches the merge machinery's stop messages. Merge
// reports conflicts on stdout, so merge-class operations scan both
// streams.
var conflictPattern = regexp.MustCompile(`(?im)^CONFLICT \(|automatic merge failed|after resolving the conflicts|fix conflicts and then commit`)

// conflictOps names the operations whose failure output is checked for
// conflict markers.
var conflictOps = map[string]struct{}{
	"merge":       {},
	"pull":        {},
	"cherry-pick": {},
	"checkout":    {},
	"stash pop":   {},
	"stash apply": {},
}

// classify converts a non-zero exit into a *GitError by matching
// stderr against the known message table. LC_ALL=C on every invocation
// keeps the English messages authoritative.
func classify(op string, res process.Result) *GitError {
	kind := CommandFailed
	for _, p := range stderrPatterns {
		if p.re.MatchString(res.Stderr) {
			kind = p.kind
			break
		}
	}
	if kind == CommandFailed {
		if _, ok := conflictOps[op]; ok {
			if conflictPattern.MatchString(res.Stderr) || conflictPattern.MatchString(res.Stdout) {
				kind = Conflict
			}
		}
	}
	if kind == Conflict && strings.HasPrefix(op, "stash") {
		kind = StashConflict
	}
	return &GitError{Kind: kind, Op: op, ExitCode: res.ExitCode, Stderr: res.Stderr}
}

// systemError converts executor-level failures (spawn, cancellation)
// into classified errors.
func systemError(op string, res process.Result, err error) *GitError {
	kind := CommandFailed
	switch {
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		kind = Cancelled
	case isMissingBinary(err):
		kind = BinaryNotFound
	}
	return &GitError{Kind: kind, Op: op, ExitCode: res.ExitCode, Stderr: res.Stderr, err: err}
}

func isMissingBinary(err error) bool {
	var se *process.SpawnError
	if !errors.As(err, &se) {
		return false
	}
	return errors.Is(se.Err, exec.ErrNotFound) || errors.Is(se.Err, fs.ErrNotExist)
}

// malformed reports output the parsers could not make sense of. The
// underlying command succeeded, so no exit code or stderr is attached.
func malformed(op, detail string) *GitError {
	return &GitError{Kind: MalformedOutput, Op: op, Detail: detail}
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
