package git

import (
	"context"
	"testing"

	"github.com/dshills/gitstate/internal/process"
)

func TestParseConfigList(t *testing.T) {
	out := "user.name\nAlice\x00" +
		"user.email\nalice@example.com\x00" +
		"alias.lg\nlog --graph\n--all\x00"

	entries := parseConfigList(out)
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d (%v)", len(entries), entries)
	}
	if entries[0] != (ConfigEntry{Key: "user.name", Value: "Alice"}) {
		t.Errorf("unexpected entry %+v", entries[0])
	}
	if entries[2].Value != "log --graph\n--all" {
		t.Errorf("expected multi-line value preserved, got %q", entries[2].Value)
	}
}

func TestParseConfigListValuelessKey(t *testing.T) {
	entries := parseConfigList("core.bare\x00")
	if len(entries) != 1 || entries[0].Key != "core.bare" || entries[0].Value != "" {
		t.Errorf("expected bare key with empty value, got %v", entries)
	}
}

func TestParseConfigListEmpty(t *testing.T) {
	if entries := parseConfigList(""); entries != nil {
		t.Errorf("expected no entries, got %v", entries)
	}
}

func TestParseSubmodules(t *testing.T) {
	out := "submodule.libfoo\nignored\x00" +
		"submodule.libfoo.path\nvendor/libfoo\x00" +
		"submodule.libfoo.url\nhttps://example.com/libfoo.git\x00" +
		"submodule.tools.ext.path\ntools/ext\x00" +
		"submodule.tools.ext.url\nhttps://example.com/ext.git\x00" +
		"core.bare\nfalse\x00"

	subs := parseSubmodules(out, testLogger())
	if len(subs) != 2 {
		t.Fatalf("expected 2 submodules, got %d (%v)", len(subs), subs)
	}

	if subs[0].Name != "libfoo" || subs[0].Path != "vendor/libfoo" ||
		subs[0].URL != "https://example.com/libfoo.git" {
		t.Errorf("unexpected first submodule %+v", subs[0])
	}
	// Names may contain dots; the property splits off the last one.
	if subs[1].Name != "tools.ext" || subs[1].Path != "tools/ext" {
		t.Errorf("unexpected dotted-name submodule %+v", subs[1])
	}
}

func TestParseSubmodulesOrder(t *testing.T) {
	out := "submodule.zeta.path\nz\x00" +
		"submodule.alpha.path\na\x00" +
		"submodule.zeta.url\nhttps://example.com/z.git\x00"

	subs := parseSubmodules(out, testLogger())
	if len(subs) != 2 {
		t.Fatalf("expected 2 submodules, got %d", len(subs))
	}
	if subs[0].Name != "zeta" || subs[1].Name != "alpha" {
		t.Errorf("expected first-appearance order, got %v", subs)
	}
}

func TestGetSubmodulesWithoutModulesFile(t *testing.T) {
	g := newFakeGit(t, newFakeRunner())
	subs, err := g.GetSubmodules(context.Background(), t.TempDir())
	if err != nil {
		t.Fatalf("GetSubmodules: unexpected error: %v", err)
	}
	if subs != nil {
		t.Errorf("expected no submodules, got %v", subs)
	}
}

func TestGetConfigMissingKey(t *testing.T) {
	f := newFakeRunner()
	f.respond("config --get user.signingkey", process.Result{ExitCode: 1})
	g := newFakeGit(t, f)

	value, err := g.GetConfig(context.Background(), ".", ConfigLocal, "user.signingkey")
	if err != nil {
		t.Fatalf("GetConfig: unexpected error: %v", err)
	}
	if value != "" {
		t.Errorf("expected empty value for missing key, got %q", value)
	}
}

func TestGetConfigScopes(t *testing.T) {
	f := newFakeRunner()
	f.respond("config --global --get user.name", okResult("Alice\n"))
	g := newFakeGit(t, f)

	value, err := g.GetConfig(context.Background(), ".", ConfigGlobal, "user.name")
	if err != nil {
		t.Fatalf("GetConfig: unexpected error: %v", err)
	}
	if value != "Alice" {
		t.Errorf("expected trimmed value, got %q", value)
	}
}
