package git

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/dshills/gitstate/internal/process"
)

// BlameOptions tune Blame.
type BlameOptions struct {
	// StartLine and EndLine restrict blame to a one-based inclusive
	// range. Both must be set to take effect.
	StartLine int
	EndLine   int
	// IgnoreWhitespace attributes lines past whitespace-only edits.
	IgnoreWhitespace bool
	// IgnoreRevsFile names a file of revisions to skip over.
	IgnoreRevsFile string
}

// BlameHunk attributes a run of consecutive lines to one commit.
type BlameHunk struct {
	Hash string
	// OrigLine is the first line of the run in the originating commit.
	OrigLine int
	// FinalLine is the first line of the run in the blamed file.
	FinalLine int
	// Lines is the length of the run.
	Lines      int
	Author     string
	AuthorMail string
	AuthorTime time.Time
	Summary    string
}

// blameHeaderPattern matches a porcelain group header:
// "<hash> <origLine> <finalLine> [<groupLines>]". The line count is
// present only on the first line of each group.
var blameHeaderPattern = regexp.MustCompile(`^([0-9a-f]{40,64}) (\d+) (\d+)(?: (\d+))?$`)

// Blame attributes each line of path to the commit that introduced it.
func (g *Git) Blame(ctx context.Context, dir, path string, opts BlameOptions) ([]BlameHunk, error) {
	args := []string{"blame", "--porcelain"}
	if opts.StartLine > 0 && opts.EndLine > 0 {
		args = append(args, "-L", fmt.Sprintf("%d,%d", opts.StartLine, opts.EndLine))
	}
	if opts.IgnoreWhitespace {
		args = append(args, "-w")
	}
	if opts.IgnoreRevsFile != "" {
		args = append(args, "--ignore-revs-file", opts.IgnoreRevsFile)
	}
	args = append(args, "--", path)

	res, err := g.run(ctx, "blame", process.Invocation{Args: args, Dir: dir})
	if err != nil {
		return nil, err
	}
	return parseBlame(res.Stdout, g.logger)
}

type blameMeta struct {
	author  string
	mail    string
	time    time.Time
	summary string
}

// parseBlame decodes porcelain blame output into hunks. Commit
// metadata appears once per commit and is attached to every hunk of
// that commit afterwards.
func parseBlame(out string, logger *log.Logger) ([]BlameHunk, error) {
	if strings.TrimSpace(out) == "" {
		return nil, nil
	}

	var hunks []BlameHunk
	meta := make(map[string]*blameMeta)
	current := ""

	for _, line := range strings.Split(out, "\n") {
		if line == "" || line[0] == '\t' {
			continue
		}
		if m := blameHeaderPattern.FindStringSubmatch(line); m != nil {
			current = m[1]
			if _, ok := meta[current]; !ok {
				meta[current] = &blameMeta{}
			}
			if m[4] != "" {
				hunks = append(hunks, BlameHunk{
					Hash:      m[1],
					OrigLine:  atoiOrZero(m[2]),
					FinalLine: atoiOrZero(m[3]),
					Lines:     atoiOrZero(m[4]),
				})
			}
			continue
		}

		mt := meta[current]
		if mt == nil {
			continue
		}
		key, value, _ := strings.Cut(line, " ")
		switch key {
		case "author":
			mt.author = value
		case "author-mail":
			mt.mail = strings.Trim(value, "<>")
		case "author-time":
			mt.time = unixTime(value)
		case "summary":
			mt.summary = value
		}
	}

	if len(hunks) == 0 {
		logger.Warn("blame output yielded no hunks")
		return nil, malformed("blame", firstLine(out))
	}

	for i := range hunks {
		if mt := meta[hunks[i].Hash]; mt != nil {
			hunks[i].Author = mt.author
			hunks[i].AuthorMail = mt.mail
			hunks[i].AuthorTime = mt.time
			hunks[i].Summary = mt.summary
		}
	}
	return hunks, nil
}
