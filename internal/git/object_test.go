package git

import (
	"context"
	"strings"
	"testing"
)

func TestParseLsTree(t *testing.T) {
	tests := []struct {
		name string
		out  string
		want ObjectDetails
		ok   bool
	}{
		{
			name: "blob with size",
			out:  "100644 blob " + hashA + "      42\tpath/to file.txt\n",
			want: ObjectDetails{Mode: "100644", Type: "blob", Object: hashA, Size: 42, Path: "path/to file.txt"},
			ok:   true,
		},
		{
			name: "tree reports dash for size",
			out:  "040000 tree " + hashB + "       -\tvendor\n",
			want: ObjectDetails{Mode: "040000", Type: "tree", Object: hashB, Path: "vendor"},
			ok:   true,
		},
		{
			name: "empty output",
			out:  "",
			ok:   false,
		},
		{
			name: "missing tab",
			out:  "100644 blob " + hashA + " 42 path.txt\n",
			ok:   false,
		},
		{
			name: "unparseable size",
			out:  "100644 blob " + hashA + " huge\tpath.txt\n",
			ok:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseLsTree(tt.out)
			if ok != tt.ok {
				t.Fatalf("expected ok=%v, got %v", tt.ok, ok)
			}
			if ok && got != tt.want {
				t.Errorf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestDetectEncoding(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"utf8 bom", []byte{0xEF, 0xBB, 0xBF, 'h', 'i'}, encodingUTF8BOM},
		{"utf16 little endian", []byte{0xFF, 0xFE, 'h', 0}, encodingUTF16LE},
		{"utf16 big endian", []byte{0xFE, 0xFF, 0, 'h'}, encodingUTF16BE},
		{"no bom", []byte("plain text"), ""},
		{"empty", nil, ""},
		{"short", []byte{0xEF}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := detectEncoding(tt.data); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestDecodeBlob(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"plain utf8", []byte("hello\n"), "hello\n"},
		{"utf8 bom stripped", []byte{0xEF, 0xBB, 0xBF, 'h', 'i'}, "hi"},
		{"utf16 little endian", []byte{0xFF, 0xFE, 'h', 0, 'i', 0}, "hi"},
		{"utf16 big endian", []byte{0xFE, 0xFF, 0, 'h', 0, 'i'}, "hi"},
		{"empty", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeBlob(tt.data)
			if err != nil {
				t.Fatalf("decodeBlob: unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestBufferDecodesUTF16(t *testing.T) {
	blob := string([]byte{0xFF, 0xFE, 'o', 0, 'k', 0})
	f := newFakeRunner()
	f.respond("show HEAD:f.txt", okResult(blob))
	g := newFakeGit(t, f)

	content, err := g.Buffer(context.Background(), ".", "HEAD", "f.txt")
	if err != nil {
		t.Fatalf("Buffer: unexpected error: %v", err)
	}
	if content != "ok" {
		t.Errorf("expected %q, got %q", "ok", content)
	}
}

func TestDetectObjectType(t *testing.T) {
	f := newFakeRunner()
	f.respond("show --textconv "+hashA, okResult("plain text content\n"))
	g := newFakeGit(t, f)

	ot, err := g.DetectObjectType(context.Background(), ".", hashA)
	if err != nil {
		t.Fatalf("DetectObjectType: unexpected error: %v", err)
	}
	if !strings.HasPrefix(ot.MimeType, "text/plain") {
		t.Errorf("expected text/plain mime type, got %q", ot.MimeType)
	}
	if ot.Encoding != "" {
		t.Errorf("expected no BOM encoding, got %q", ot.Encoding)
	}
}

func TestHashObjectSendsContentOnStdin(t *testing.T) {
	f := newFakeRunner()
	f.respond("hash-object --stdin", okResult(hashC+"\n"))
	g := newFakeGit(t, f)

	hash, err := g.HashObject(context.Background(), ".", []byte("content"))
	if err != nil {
		t.Fatalf("HashObject: unexpected error: %v", err)
	}
	if hash != hashC {
		t.Errorf("expected %q, got %q", hashC, hash)
	}

	calls := f.invocations()
	last := calls[len(calls)-1]
	if last.Stdin != "content" {
		t.Errorf("expected content on stdin, got %q", last.Stdin)
	}
}
