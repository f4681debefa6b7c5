package git

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/dshills/gitstate/internal/process"
)

// logFormat lays out one commit as eight newline-separated fields:
// hash, author name, author email, author date (unix), committer
// email, commit date (unix), parent hashes, and the message body. The
// body may itself contain newlines, so records are NUL-separated on
// the wire (-z) and the body is always the final field.
const logFormat = "%H%n%aN%n%aE%n%at%n%cE%n%ct%n%P%n%B"

// defaultMaxEntries bounds Log when the caller does not.
const defaultMaxEntries = 32

// LogOptions tune Log.
type LogOptions struct {
	// MaxEntries bounds the number of commits returned; zero means 32.
	MaxEntries int
	// Range restricts the walk, e.g. "main..topic". Empty means HEAD.
	Range string
	// Path restricts the walk to commits touching one path.
	Path string
}

// Log returns commits reachable from the range (or HEAD), newest
// first.
func (g *Git) Log(ctx context.Context, dir string, opts LogOptions) ([]Commit, error) {
	max := opts.MaxEntries
	if max <= 0 {
		max = defaultMaxEntries
	}
	args := []string{"log", "-n", strconv.Itoa(max), "--format=" + logFormat, "-z"}
	if opts.Range != "" {
		args = append(args, opts.Range)
	}
	if opts.Path != "" {
		args = append(args, "--", opts.Path)
	}

	res, err := g.run(ctx, "log", process.Invocation{Args: args, Dir: dir})
	if err != nil {
		return nil, err
	}
	return parseLog(res.Stdout, g.logger)
}

// GetCommit resolves one commit by ref.
func (g *Git) GetCommit(ctx context.Context, dir, ref string) (*Commit, error) {
	res, err := g.run(ctx, "commit-show", process.Invocation{
		Args: []string{"show", "-s", "--format=" + logFormat, ref, "--"},
		Dir:  dir,
	})
	if err != nil {
		return nil, err
	}
	commit, ok := parseCommit(strings.TrimSuffix(res.Stdout, "\n"))
	if !ok {
		return nil, malformed("commit-show", firstLine(res.Stdout))
	}
	return &commit, nil
}

// GetCommitFiles lists the files a commit touched, with per-file
// statuses.
func (g *Git) GetCommitFiles(ctx context.Context, dir, ref string) ([]Change, error) {
	res, err := g.run(ctx, "commit-files", process.Invocation{
		Args: []string{"show", "--name-status", "-z", "--format=", ref, "--"},
		Dir:  dir,
	})
	if err != nil {
		return nil, err
	}
	return parseNameStatus("commit-files", res.Stdout, dir, g.logger)
}

func parseLog(out string, logger *log.Logger) ([]Commit, error) {
	records := splitNul(out)
	var commits []Commit
	var firstBad string
	skipped := 0
	for _, record := range records {
		record = strings.TrimPrefix(record, "\n")
		if record == "" {
			continue
		}
		commit, ok := parseCommit(record)
		if !ok {
			if firstBad == "" {
				firstBad = firstLine(record)
			}
			skipped++
			logger.Warn("skipping malformed log record", "record", firstLine(record))
			continue
		}
		commits = append(commits, commit)
	}
	if len(commits) == 0 && skipped > 0 {
		return nil, malformed("log", firstBad)
	}
	return commits, nil
}

// parseCommit decodes one logFormat record.
func parseCommit(record string) (Commit, bool) {
	fields := strings.SplitN(record, "\n", 8)
	if len(fields) != 8 || len(fields[0]) < 40 {
		return Commit{}, false
	}
	commit := Commit{
		Hash:           fields[0],
		AuthorName:     fields[1],
		AuthorEmail:    fields[2],
		AuthorDate:     unixTime(fields[3]),
		CommitterEmail: fields[4],
		CommitDate:     unixTime(fields[5]),
		Message:        strings.TrimRight(fields[7], "\n"),
	}
	if fields[6] != "" {
		commit.Parents = strings.Split(fields[6], " ")
	}
	return commit, true
}

func unixTime(s string) time.Time {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.Unix(n, 0)
}

// CommitOptions tune Commit.
type CommitOptions struct {
	// Amend rewrites the current HEAD commit.
	Amend bool
	// Signoff appends a Signed-off-by trailer.
	Signoff bool
	// All stages tracked modifications before committing.
	All bool
}

// Commit records staged changes. The message travels on stdin, so no
// shell quoting can corrupt it and empty messages stay representable.
func (g *Git) Commit(ctx context.Context, dir, message string, opts CommitOptions) error {
	args := []string{"commit", "--quiet", "--allow-empty-message", "--file", "-"}
	if opts.Amend {
		args = append(args, "--amend")
	}
	if opts.Signoff {
		args = append(args, "--signoff")
	}
	if opts.All {
		args = append(args, "--all")
	}
	_, err := g.run(ctx, "commit", process.Invocation{
		Args:  args,
		Dir:   dir,
		Stdin: message,
	})
	return err
}

// MergeBase returns the best common ancestor of two revisions.
func (g *Git) MergeBase(ctx context.Context, dir, a, b string) (string, error) {
	res, err := g.run(ctx, "merge-base", process.Invocation{
		Args: []string{"merge-base", a, b},
		Dir:  dir,
	})
	if err != nil {
		return "", err
	}
	hash := strings.TrimSpace(res.Stdout)
	if hash == "" {
		return "", malformed("merge-base", "empty merge base")
	}
	return hash, nil
}

// GetRebaseCommit resolves the commit an interactive or am-style
// rebase is stopped on. It returns (nil, nil) when no rebase is in
// progress.
func (g *Git) GetRebaseCommit(ctx context.Context, root string) (*Commit, error) {
	dotgit, err := gitDir(root)
	if err != nil {
		return nil, nil
	}
	var hash string
	for _, marker := range []string{
		filepath.Join(dotgit, "rebase-merge", "stopped-sha"),
		filepath.Join(dotgit, "rebase-apply", "original-commit"),
	} {
		data, err := os.ReadFile(marker)
		if err != nil {
			continue
		}
		if h := strings.TrimSpace(string(data)); h != "" {
			hash = h
			break
		}
	}
	if hash == "" {
		return nil, nil
	}
	return g.GetCommit(ctx, root, hash)
}

// gitDir resolves the .git directory for a root, following the
// "gitdir:" indirection file linked worktrees and submodules use.
func gitDir(root string) (string, error) {
	dotgit := filepath.Join(root, ".git")
	info, err := os.Stat(dotgit)
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return dotgit, nil
	}
	data, err := os.ReadFile(dotgit)
	if err != nil {
		return "", err
	}
	target := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(string(data)), "gitdir:"))
	if target == "" {
		return "", malformed("gitdir", firstLine(string(data)))
	}
	if !filepath.IsAbs(target) {
		target = filepath.Join(root, target)
	}
	return filepath.Clean(target), nil
}
