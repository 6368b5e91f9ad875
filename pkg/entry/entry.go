// Package entry defines the unit a scan produces per accepted file, and the
// factory boundary that turns a path into one.
package entry

import (
	"fmt"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/joe/treescan/pkg/filesystem"
)

// Entry describes one accepted filesystem node. Once an entry is enqueued
// the producer relinquishes ownership; consumers are free to mutate it.
type Entry struct {
	// Path is the full path as visited, on whatever filesystem produced it.
	Path string

	// Size in bytes.
	Size int64

	// ModTime is the last modification time.
	ModTime time.Time

	// ContentType is the sniffed MIME type, when detection is enabled.
	// Empty otherwise.
	ContentType string
}

// Factory creates entries from paths. It is invoked once per accepted path;
// an error is scoped to that path and does not fail the traversal.
type Factory interface {
	Create(path string) (*Entry, error)
}

// Rebinder is implemented by factories that stat through a filesystem and
// can be rebound to another one, keeping the rest of their configuration.
type Rebinder interface {
	ForFS(fsys filesystem.FS) Factory
}

// FSFactory is the default Factory, statting paths through a filesystem.
type FSFactory struct {
	fsys       filesystem.FS
	detectMIME bool
}

// NewFSFactory creates a factory over fsys. With detectContentType set it
// additionally sniffs each file's MIME type from its leading bytes, at the
// cost of one open+read per entry.
func NewFSFactory(fsys filesystem.FS, detectContentType bool) *FSFactory {
	return &FSFactory{fsys: fsys, detectMIME: detectContentType}
}

// ForFS returns a factory with the same configuration over another
// filesystem.
func (f *FSFactory) ForFS(fsys filesystem.FS) Factory {
	return &FSFactory{fsys: fsys, detectMIME: f.detectMIME}
}

// Create stats the path and builds its entry.
func (f *FSFactory) Create(path string) (*Entry, error) {
	info, err := f.fsys.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	e := &Entry{
		Path:    path,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}

	if f.detectMIME {
		e.ContentType, err = f.sniff(path)
		if err != nil {
			return nil, err
		}
	}

	return e, nil
}

func (f *FSFactory) sniff(path string) (string, error) {
	r, err := f.fsys.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer r.Close()

	mime, err := mimetype.DetectReader(r)
	if err != nil {
		return "", fmt.Errorf("detect content type of %s: %w", path, err)
	}

	return mime.String(), nil
}
