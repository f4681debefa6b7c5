package git

import (
	"context"
	"testing"
)

func TestParseStashList(t *testing.T) {
	out := "stash@{0}\x00" + hashA + "\x00WIP on main: 1234abc subject\n" +
		"stash@{1}\x00" + hashB + "\x00On topic: saved work\n"

	stashes := parseStashList(out, testLogger())
	if len(stashes) != 2 {
		t.Fatalf("expected 2 stashes, got %d (%v)", len(stashes), stashes)
	}
	if stashes[0].Index != 0 || stashes[0].Hash != hashA {
		t.Errorf("unexpected first stash %+v", stashes[0])
	}
	if stashes[0].Description != "WIP on main: 1234abc subject" {
		t.Errorf("unexpected description %q", stashes[0].Description)
	}
	if stashes[1].Index != 1 {
		t.Errorf("expected index 1, got %d", stashes[1].Index)
	}
}

func TestParseStashListSkipsMalformed(t *testing.T) {
	out := "three\x00fields\x00missing\x00extra\n" +
		"stash@{0}\x00" + hashA + "\x00kept\n" +
		"stash@{broken\x00" + hashB + "\x00bad selector\n"

	stashes := parseStashList(out, testLogger())
	if len(stashes) != 1 || stashes[0].Description != "kept" {
		t.Errorf("expected one surviving stash, got %v", stashes)
	}
}

func TestParseStashListEmpty(t *testing.T) {
	if stashes := parseStashList("", testLogger()); stashes != nil {
		t.Errorf("expected no stashes, got %v", stashes)
	}
}

func TestStashIndex(t *testing.T) {
	tests := []struct {
		selector string
		want     int
		ok       bool
	}{
		{"stash@{0}", 0, true},
		{"stash@{12}", 12, true},
		{"stash@{}", 0, false},
		{"stash@{x}", 0, false},
		{"junk", 0, false},
	}
	for _, tt := range tests {
		got, ok := stashIndex(tt.selector)
		if ok != tt.ok {
			t.Errorf("%q: expected ok=%v, got %v", tt.selector, tt.ok, ok)
			continue
		}
		if ok && got != tt.want {
			t.Errorf("%q: expected %d, got %d", tt.selector, tt.want, got)
		}
	}
}

func TestStashRestoreArgs(t *testing.T) {
	tests := []struct {
		name string
		call func(g *Git) error
		want string
	}{
		{
			name: "pop most recent",
			call: func(g *Git) error { return g.PopStash(context.Background(), ".", -1) },
			want: "stash pop",
		},
		{
			name: "pop by index",
			call: func(g *Git) error { return g.PopStash(context.Background(), ".", 2) },
			want: "stash pop stash@{2}",
		},
		{
			name: "apply keeps the entry",
			call: func(g *Git) error { return g.ApplyStash(context.Background(), ".", 0) },
			want: "stash apply stash@{0}",
		},
		{
			name: "drop",
			call: func(g *Git) error { return g.DropStash(context.Background(), ".", 1) },
			want: "stash drop stash@{1}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakeRunner()
			f.respond(tt.want, okResult(""))
			g := newFakeGit(t, f)
			if err := tt.call(g); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestCreateStashArgs(t *testing.T) {
	f := newFakeRunner()
	f.respond("stash push -u -m wip", okResult(""))
	g := newFakeGit(t, f)
	if err := g.CreateStash(context.Background(), ".", "wip", true); err != nil {
		t.Fatalf("CreateStash: unexpected error: %v", err)
	}
}
