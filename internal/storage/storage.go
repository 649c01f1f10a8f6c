// Package storage keeps uploaded video files. The returned location is
// what gets written to videos.file_path.
package storage

import (
	"context"
	"io"
	"regexp"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
)

// Storage is where uploads end up. Implementations must be safe for
// concurrent use.
type Storage interface {
	// Save stores r under name and returns the location to persist. name
	// must already be safe, see ObjectName.
	Save(ctx context.Context, name string, r io.Reader) (string, error)
}

// Remover is implemented by backends that can take back a file saved under
// name, used when the video row for an upload could not be written.
type Remover interface {
	Remove(ctx context.Context, name string) error
}

// maxNameLen bounds the sanitised part of an object name so the stored
// location fits videos.file_path.
const maxNameLen = 200

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// SecureFilename reduces a client supplied file name to a plain ASCII
// name with no directory parts. Accents are folded away, whitespace
// becomes underscores and anything else outside [A-Za-z0-9_.-] is dropped.
// Leading and trailing dots and underscores are trimmed, so the result can
// never be "..". It may be empty.
func SecureFilename(name string) string {
	decomposed := norm.NFKD.String(name)

	var b strings.Builder
	for _, r := range decomposed {
		switch {
		case r == '/' || r == '\\':
			b.WriteRune(' ')
		case r < unicode.MaxASCII:
			b.WriteRune(r)
		}
	}

	joined := strings.Join(strings.Fields(b.String()), "_")
	return strings.Trim(unsafeChars.ReplaceAllString(joined, ""), "._")
}

// ObjectName builds a collision free storage name for an upload. Two
// clients uploading "clip.mp4" at the same moment get different names.
func ObjectName(original string) string {
	name := SecureFilename(original)
	if len(name) > maxNameLen {
		// Keep the tail so the extension survives.
		name = strings.TrimLeft(name[len(name)-maxNameLen:], "._")
	}
	if name == "" {
		name = "video"
	}
	return uuid.NewString() + "_" + name
}
