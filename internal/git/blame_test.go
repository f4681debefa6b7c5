package git

import (
	"context"
	"strings"
	"testing"
	"time"
)

// blameSample is porcelain output for a three-line file: the first two
// lines from one commit, the third from another.
var blameSample = strings.Join([]string{
	hashA + " 1 1 2",
	"author Alice",
	"author-mail <alice@example.com>",
	"author-time 1700000000",
	"author-tz +0000",
	"committer Alice",
	"committer-mail <alice@example.com>",
	"committer-time 1700000000",
	"committer-tz +0000",
	"summary first commit",
	"filename f.txt",
	"\tline one",
	hashA + " 2 2",
	"\tline two",
	hashB + " 3 3 1",
	"author Bob",
	"author-mail <bob@example.com>",
	"author-time 1700000500",
	"author-tz +0000",
	"committer Bob",
	"committer-mail <bob@example.com>",
	"committer-time 1700000500",
	"committer-tz +0000",
	"summary second commit",
	"previous " + hashA + " f.txt",
	"filename f.txt",
	"\tline three",
	"",
}, "\n")

func TestParseBlame(t *testing.T) {
	hunks, err := parseBlame(blameSample, testLogger())
	if err != nil {
		t.Fatalf("parseBlame: unexpected error: %v", err)
	}
	if len(hunks) != 2 {
		t.Fatalf("expected 2 hunks, got %d (%v)", len(hunks), hunks)
	}

	first := hunks[0]
	if first.Hash != hashA || first.OrigLine != 1 || first.FinalLine != 1 || first.Lines != 2 {
		t.Errorf("unexpected first hunk %+v", first)
	}
	if first.Author != "Alice" || first.AuthorMail != "alice@example.com" {
		t.Errorf("expected Alice metadata, got %q <%q>", first.Author, first.AuthorMail)
	}
	if want := time.Unix(1700000000, 0); !first.AuthorTime.Equal(want) {
		t.Errorf("expected author time %v, got %v", want, first.AuthorTime)
	}
	if first.Summary != "first commit" {
		t.Errorf("expected summary %q, got %q", "first commit", first.Summary)
	}

	second := hunks[1]
	if second.Hash != hashB || second.FinalLine != 3 || second.Lines != 1 {
		t.Errorf("unexpected second hunk %+v", second)
	}
	if second.Author != "Bob" || second.Summary != "second commit" {
		t.Errorf("expected Bob metadata, got %q / %q", second.Author, second.Summary)
	}
}

// Metadata appears once per commit; later hunks of the same commit must
// still carry it.
func TestParseBlameReusesCommitMetadata(t *testing.T) {
	out := strings.Join([]string{
		hashA + " 1 1 1",
		"author Alice",
		"author-mail <alice@example.com>",
		"author-time 1700000000",
		"summary shared",
		"filename f.txt",
		"\tone",
		hashB + " 2 2 1",
		"author Bob",
		"author-mail <bob@example.com>",
		"author-time 1700000500",
		"summary other",
		"filename f.txt",
		"\ttwo",
		hashA + " 2 3 1",
		"filename f.txt",
		"\tthree",
		"",
	}, "\n")

	hunks, err := parseBlame(out, testLogger())
	if err != nil {
		t.Fatalf("parseBlame: unexpected error: %v", err)
	}
	if len(hunks) != 3 {
		t.Fatalf("expected 3 hunks, got %d", len(hunks))
	}
	last := hunks[2]
	if last.Hash != hashA {
		t.Fatalf("expected third hunk from %s, got %s", hashA, last.Hash)
	}
	if last.Author != "Alice" || last.Summary != "shared" {
		t.Errorf("expected metadata reuse, got %q / %q", last.Author, last.Summary)
	}
}

func TestParseBlameEmpty(t *testing.T) {
	hunks, err := parseBlame("", testLogger())
	if err != nil {
		t.Fatalf("parseBlame: unexpected error: %v", err)
	}
	if hunks != nil {
		t.Errorf("expected no hunks, got %v", hunks)
	}
}

func TestParseBlameRejectsGarbage(t *testing.T) {
	_, err := parseBlame("this is not blame output\n", testLogger())
	if err == nil {
		t.Fatal("expected error")
	}
	if KindOf(err) != MalformedOutput {
		t.Errorf("expected MalformedOutput, got %v", KindOf(err))
	}
}

func TestBlameArgs(t *testing.T) {
	f := newFakeRunner()
	f.respond("blame --porcelain -L 3,7 -w -- f.txt", okResult(blameSample))
	g := newFakeGit(t, f)

	hunks, err := g.Blame(context.Background(), ".", "f.txt", BlameOptions{
		StartLine:        3,
		EndLine:          7,
		IgnoreWhitespace: true,
	})
	if err != nil {
		t.Fatalf("Blame: unexpected error: %v", err)
	}
	if len(hunks) != 2 {
		t.Errorf("expected 2 hunks, got %d", len(hunks))
	}
}
