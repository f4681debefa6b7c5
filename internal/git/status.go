package git

import (
	"bytes"
	"context"

	"github.com/charmbracelet/log"

	"github.com/dshills/gitstate/internal/process"
)

// statusEntry is one raw record from the porcelain status stream,
// before classification. For rename and copy records, path is the
// target and origPath the source.
type statusEntry struct {
	index    byte
	worktree byte
	path     string
	origPath string
}

// statusArgs is the exact status query a refresh issues. -z keeps
// paths unquoted and NUL-delimited; -uall lists files inside untracked
// directories individually.
func statusArgs() []string {
	return []string{"status", "-z", "-uall"}
}

// isRenameCode reports whether a column letter implies a second,
// NUL-separated source path in the stream.
func isRenameCode(c byte) bool {
	return c == 'R' || c == 'C'
}

// parseStatus decodes porcelain v1 -z output into raw entries.
//
// A malformed record is skipped with a diagnostic. When non-empty
// input yields nothing but malformed records, the whole stream is
// rejected with a MalformedOutput error carrying the first offending
// token.
func parseStatus(out []byte, logger *log.Logger) ([]statusEntry, error) {
	if len(bytes.TrimSpace(out)) == 0 {
		return nil, nil
	}

	tokens := bytes.Split(out, []byte{0})
	var entries []statusEntry
	var firstBad string
	skipped := 0

	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		if len(tok) == 0 {
			continue
		}
		// "XY path" with a single space between code pair and path.
		if len(tok) < 4 || tok[2] != ' ' {
			if firstBad == "" {
				firstBad = string(tok)
			}
			skipped++
			logger.Warn("skipping malformed status record", "record", string(tok))
			continue
		}

		entry := statusEntry{
			index:    tok[0],
			worktree: tok[1],
			path:     string(tok[3:]),
		}

		if isRenameCode(entry.index) || isRenameCode(entry.worktree) {
			if i+1 >= len(tokens) || len(tokens[i+1]) == 0 {
				if firstBad == "" {
					firstBad = string(tok)
				}
				skipped++
				logger.Warn("rename record missing source path", "record", string(tok))
				continue
			}
			i++
			entry.origPath = string(tokens[i])
		}

		entries = append(entries, entry)
	}

	if len(entries) == 0 && skipped > 0 {
		return nil, malformed("status", firstBad)
	}
	return entries, nil
}

// changes runs the status query against root and classifies the
// result into the three change sequences.
func (g *Git) changes(ctx context.Context, root string) (changeBuckets, error) {
	res, err := g.run(ctx, "status", process.Invocation{Args: statusArgs(), Dir: root})
	if err != nil {
		return changeBuckets{}, err
	}
	entries, err := parseStatus([]byte(res.Stdout), g.logger)
	if err != nil {
		return changeBuckets{}, err
	}
	return classifyEntries(entries, root), nil
}
