package git

import (
	"context"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/dshills/gitstate/internal/process"
)

// DiffOptions select what DiffText compares. With neither ref set the
// comparison is working tree against index (or index against HEAD when
// Cached is set).
type DiffOptions struct {
	Cached bool
	Ref1   string
	Ref2   string
	// Path restricts the diff to one path.
	Path string
}

// DiffFilesOptions select what DiffFiles compares.
type DiffFilesOptions struct {
	Cached bool
	Ref1   string
	Ref2   string
}

// DiffStatsOptions select what DiffStats summarizes.
type DiffStatsOptions struct {
	Cached bool
	// Range is a revision range, e.g. "main...topic".
	Range string
}

// DiffStat is one per-file line count summary. Binary files carry no
// counts. Path is as the tool reports it, relative to the root;
// renames render as "old => new".
type DiffStat struct {
	Path       string
	Insertions int
	Deletions  int
	Binary     bool
}

// DiffText returns the unified diff verbatim, untouched by any
// parsing.
func (g *Git) DiffText(ctx context.Context, dir string, opts DiffOptions) (string, error) {
	args := []string{"diff"}
	if opts.Cached {
		args = append(args, "--cached")
	}
	if opts.Ref1 != "" {
		args = append(args, opts.Ref1)
	}
	if opts.Ref2 != "" {
		args = append(args, opts.Ref2)
	}
	if opts.Path != "" {
		args = append(args, "--", opts.Path)
	}
	res, err := g.run(ctx, "diff", process.Invocation{Args: args, Dir: dir})
	if err != nil {
		return "", err
	}
	return res.Stdout, nil
}

// DiffFiles returns the changed files as structured records.
func (g *Git) DiffFiles(ctx context.Context, dir string, opts DiffFilesOptions) ([]Change, error) {
	args := []string{"diff", "--name-status", "-z"}
	if opts.Cached {
		args = append(args, "--cached")
	}
	if opts.Ref1 != "" {
		args = append(args, opts.Ref1)
	}
	if opts.Ref2 != "" {
		args = append(args, opts.Ref2)
	}
	res, err := g.run(ctx, "diff", process.Invocation{Args: args, Dir: dir})
	if err != nil {
		return nil, err
	}
	return parseNameStatus("diff", res.Stdout, dir, g.logger)
}

// DiffStats returns per-file insertion and deletion counts.
func (g *Git) DiffStats(ctx context.Context, dir string, opts DiffStatsOptions) ([]DiffStat, error) {
	args := []string{"diff", "--numstat"}
	if opts.Cached {
		args = append(args, "--cached")
	}
	if opts.Range != "" {
		args = append(args, opts.Range)
	}
	res, err := g.run(ctx, "diff", process.Invocation{Args: args, Dir: dir})
	if err != nil {
		return nil, err
	}
	return parseNumstat(res.Stdout, g.logger), nil
}

// nameStatusStatus maps a name-status code letter onto the semantic
// status space. Additions and renames read as staged because
// name-status describes committed or indexed content, not a dirty
// tree.
func nameStatusStatus(code byte) (Status, bool) {
	switch code {
	case 'A':
		return IndexAdded, true
	case 'M', 'T':
		return Modified, true
	case 'D':
		return Deleted, true
	case 'R':
		return IndexRenamed, true
	case 'C':
		return IndexCopied, true
	default:
		return 0, false
	}
}

// parseNameStatus decodes `--name-status -z` token streams. Rename and
// copy codes carry a similarity score ("R100") and consume two path
// tokens, source first.
func parseNameStatus(op, out, root string, logger *log.Logger) ([]Change, error) {
	tokens := splitNul(out)
	var changes []Change
	var firstBad string
	skipped := 0

	bad := func(tok string) {
		if firstBad == "" {
			firstBad = tok
		}
		skipped++
		logger.Warn("skipping malformed name-status record", "record", tok)
	}

	for i := 0; i < len(tokens); i++ {
		code := tokens[i]
		if code == "" {
			continue
		}
		status, ok := nameStatusStatus(code[0])
		if !ok {
			bad(code)
			continue
		}
		if isRenameCode(code[0]) {
			if i+2 >= len(tokens) {
				bad(code)
				break
			}
			orig, target := tokens[i+1], tokens[i+2]
			i += 2
			changes = append(changes, renameChange(absPath(root, orig), absPath(root, target), status))
			continue
		}
		if i+1 >= len(tokens) {
			bad(code)
			break
		}
		i++
		changes = append(changes, plainChange(absPath(root, tokens[i]), status))
	}

	if len(changes) == 0 && skipped > 0 {
		return nil, malformed(op, firstBad)
	}
	return changes, nil
}

// parseNumstat decodes `--numstat` lines: insertions, deletions, path,
// tab-separated, with "-" counts for binary files.
func parseNumstat(out string, logger *log.Logger) []DiffStat {
	var stats []DiffStat
	for _, line := range strings.Split(out, "\n") {
		if line == "" {
			continue
		}
		fields := strings.SplitN(line, "\t", 3)
		if len(fields) != 3 {
			logger.Warn("skipping malformed numstat record", "record", line)
			continue
		}
		stat := DiffStat{Path: fields[2]}
		if fields[0] == "-" || fields[1] == "-" {
			stat.Binary = true
		} else {
			stat.Insertions, _ = strconv.Atoi(fields[0])
			stat.Deletions, _ = strconv.Atoi(fields[1])
		}
		stats = append(stats, stat)
	}
	return stats
}
