package git

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/dshills/gitstate/internal/process"
)

// Encoding tokens reported by DetectObjectType and used by the blob
// decoder. They follow the configuration value spelling git itself
// understands.
const (
	encodingUTF8    = "utf8"
	encodingUTF8BOM = "utf8bom"
	encodingUTF16LE = "utf16le"
	encodingUTF16BE = "utf16be"
)

// ObjectType is a content sniff of a repository object.
type ObjectType struct {
	// MimeType is the detected media type, e.g. "text/plain".
	MimeType string
	// Encoding is the byte-order-mark result, empty when no BOM was
	// present.
	Encoding string
}

// LsTree describes the tree entry at path within ref.
func (g *Git) LsTree(ctx context.Context, dir, ref, path string) (ObjectDetails, error) {
	res, err := g.run(ctx, "ls-tree", process.Invocation{
		Args: []string{"ls-tree", "-l", ref, "--", path},
		Dir:  dir,
	})
	if err != nil {
		return ObjectDetails{}, err
	}
	details, ok := parseLsTree(res.Stdout)
	if !ok {
		return ObjectDetails{}, malformed("ls-tree", firstLine(res.Stdout))
	}
	return details, nil
}

// parseLsTree decodes the first `ls-tree -l` record:
// "<mode> <type> <object> <size>\t<path>". Trees report "-" for size.
func parseLsTree(out string) (ObjectDetails, bool) {
	line := firstLine(out)
	if line == "" {
		return ObjectDetails{}, false
	}
	meta, path, ok := strings.Cut(line, "\t")
	if !ok {
		return ObjectDetails{}, false
	}
	fields := strings.Fields(meta)
	if len(fields) != 4 {
		return ObjectDetails{}, false
	}
	details := ObjectDetails{
		Mode:   fields[0],
		Type:   fields[1],
		Object: fields[2],
		Path:   path,
	}
	if fields[3] != "-" {
		size, err := strconv.ParseInt(fields[3], 10, 64)
		if err != nil {
			return ObjectDetails{}, false
		}
		details.Size = size
	}
	return details, true
}

// Buffer returns the content of path at ref, decoded to a UTF-8
// string. UTF-16 blobs are detected by their byte-order mark and
// transcoded; a UTF-8 BOM is stripped.
func (g *Git) Buffer(ctx context.Context, dir, ref, path string) (string, error) {
	res, err := g.run(ctx, "show", process.Invocation{
		Args: []string{"show", ref + ":" + path},
		Dir:  dir,
	})
	if err != nil {
		return "", err
	}
	return decodeBlob([]byte(res.Stdout))
}

// DetectObjectType sniffs the media type and BOM encoding of an
// object. Only the first 4 KiB participate; DetectContentType never
// reads further anyway.
func (g *Git) DetectObjectType(ctx context.Context, dir, object string) (ObjectType, error) {
	res, err := g.run(ctx, "show", process.Invocation{
		Args: []string{"show", "--textconv", object},
		Dir:  dir,
	})
	if err != nil {
		return ObjectType{}, err
	}
	data := []byte(res.Stdout)
	if len(data) > 4096 {
		data = data[:4096]
	}
	return ObjectType{
		MimeType: http.DetectContentType(data),
		Encoding: detectEncoding(data),
	}, nil
}

// HashObject computes the object name the given content would hash to.
// Nothing is written to the object database.
func (g *Git) HashObject(ctx context.Context, dir string, data []byte) (string, error) {
	res, err := g.run(ctx, "hash-object", process.Invocation{
		Args:  []string{"hash-object", "--stdin"},
		Dir:   dir,
		Stdin: string(data),
	})
	if err != nil {
		return "", err
	}
	hash := strings.TrimSpace(res.Stdout)
	if hash == "" {
		return "", malformed("hash-object", "empty object name")
	}
	return hash, nil
}

// detectEncoding sniffs a byte-order mark. Empty means no BOM.
func detectEncoding(data []byte) string {
	switch {
	case len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF:
		return encodingUTF8BOM
	case len(data) >= 2 && data[0] == 0xFF && data[1] == 0xFE:
		return encodingUTF16LE
	case len(data) >= 2 && data[0] == 0xFE && data[1] == 0xFF:
		return encodingUTF16BE
	default:
		return ""
	}
}

// decodeBlob converts raw blob bytes to a UTF-8 string honoring any
// byte-order mark.
func decodeBlob(data []byte) (string, error) {
	switch detectEncoding(data) {
	case encodingUTF16LE:
		return transcode(data, unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM))
	case encodingUTF16BE:
		return transcode(data, unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM))
	case encodingUTF8BOM:
		return string(data[3:]), nil
	default:
		return string(data), nil
	}
}

func transcode(data []byte, enc encoding.Encoding) (string, error) {
	out, _, err := transform.Bytes(enc.NewDecoder(), data)
	if err != nil {
		return "", malformed("show", "undecodable blob: "+err.Error())
	}
	return string(out), nil
}
