package git

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/dshills/gitstate/internal/process"
)

// stashListFormat renders one stash per line as
// "stash@{N}\0hash\0subject".
const stashListFormat = "%gd%x00%H%x00%gs"

// ListStashes returns the stash stack, most recent first.
func (g *Git) ListStashes(ctx context.Context, dir string) ([]StashEntry, error) {
	res, err := g.run(ctx, "stash list", process.Invocation{
		Args: []string{"stash", "list", "--format=" + stashListFormat},
		Dir:  dir,
	})
	if err != nil {
		return nil, err
	}
	return parseStashList(res.Stdout, g.logger), nil
}

func parseStashList(out string, logger *log.Logger) []StashEntry {
	var stashes []StashEntry
	for _, line := range strings.Split(out, "\n") {
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\x00")
		if len(fields) != 3 {
			logger.Warn("skipping malformed stash record", "record", line)
			continue
		}
		index, ok := stashIndex(fields[0])
		if !ok {
			logger.Warn("skipping malformed stash selector", "selector", fields[0])
			continue
		}
		stashes = append(stashes, StashEntry{
			Index:       index,
			Hash:        fields[1],
			Description: fields[2],
		})
	}
	return stashes
}

// stashIndex extracts N from "stash@{N}".
func stashIndex(selector string) (int, bool) {
	start := strings.IndexByte(selector, '{')
	end := strings.IndexByte(selector, '}')
	if start < 0 || end <= start+1 {
		return 0, false
	}
	n := 0
	for _, c := range selector[start+1 : end] {
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return n, true
}

// CreateStash saves the dirty state onto the stash stack. message may
// be empty; includeUntracked stashes untracked files as well.
func (g *Git) CreateStash(ctx context.Context, dir, message string, includeUntracked bool) error {
	args := []string{"stash", "push"}
	if includeUntracked {
		args = append(args, "-u")
	}
	if message != "" {
		args = append(args, "-m", message)
	}
	_, err := g.run(ctx, "stash push", process.Invocation{Args: args, Dir: dir})
	return err
}

// PopStash restores and drops a stash. A negative index means the most
// recent one. Conflicting restores classify as StashConflict.
func (g *Git) PopStash(ctx context.Context, dir string, index int) error {
	return g.stashRestore(ctx, dir, "pop", index)
}

// ApplyStash restores a stash without dropping it. A negative index
// means the most recent one.
func (g *Git) ApplyStash(ctx context.Context, dir string, index int) error {
	return g.stashRestore(ctx, dir, "apply", index)
}

// DropStash discards a stash. A negative index means the most recent
// one.
func (g *Git) DropStash(ctx context.Context, dir string, index int) error {
	return g.stashRestore(ctx, dir, "drop", index)
}

func (g *Git) stashRestore(ctx context.Context, dir, verb string, index int) error {
	args := []string{"stash", verb}
	if index >= 0 {
		args = append(args, fmt.Sprintf("stash@{%d}", index))
	}
	_, err := g.run(ctx, "stash "+verb, process.Invocation{Args: args, Dir: dir})
	return err
}
