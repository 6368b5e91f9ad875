// Package filesystem abstracts the directory-listing and attribute-query
// operations the scanner needs, over both the local OS filesystem and remote
// SFTP trees.
//
// The FS interface is a superset of the kr/fs walker's FileSystem, so any FS
// can drive a step-wise depth-first traversal. Filesystems additionally
// report whether they expose a DOS-style hidden attribute; filesystems
// without one simply report it unsupported, which is not an error.
package filesystem

import (
	"io"
	"os"
)

// FS is the filesystem boundary used by the scanner.
// Implementations must be safe for use from a single walker goroutine plus
// concurrent attribute queries.
type FS interface {
	// ReadDir lists a directory. Used by the tree walker.
	ReadDir(dirname string) ([]os.FileInfo, error)

	// Lstat queries a path without following a trailing symlink.
	Lstat(name string) (os.FileInfo, error)

	// Stat queries a path, following symlinks.
	Stat(name string) (os.FileInfo, error)

	// Open opens a file for reading.
	Open(name string) (io.ReadCloser, error)

	// Join joins path elements with this filesystem's separator.
	Join(elem ...string) string

	// Separator returns this filesystem's path separator.
	Separator() string

	// SupportsHiddenAttribute reports whether this filesystem exposes a
	// DOS-style hidden attribute bit.
	SupportsHiddenAttribute() bool

	// Hidden reports whether the hidden attribute is set on a path.
	// Always false on filesystems without attribute support.
	Hidden(name string) (bool, error)
}

// Follow returns a view of fsys in which symbolic links are reported as
// their targets, so a walker descends through directory links. A broken link
// falls back to the link's own info and is left for the caller to skip as a
// non-regular file.
func Follow(fsys FS) FS {
	return &followFS{FS: fsys}
}

type followFS struct {
	FS
}

func (f *followFS) Lstat(name string) (os.FileInfo, error) {
	info, err := f.FS.Lstat(name)
	if err != nil || info.Mode()&os.ModeSymlink == 0 {
		return info, err
	}

	target, err := f.FS.Stat(name)
	if err != nil {
		// Dangling link: keep the link info.
		return info, nil
	}

	return namedInfo{FileInfo: target, name: info.Name()}, nil
}

func (f *followFS) ReadDir(dirname string) ([]os.FileInfo, error) {
	infos, err := f.FS.ReadDir(dirname)
	if err != nil {
		return nil, err
	}

	resolved := make([]os.FileInfo, 0, len(infos))

	for _, info := range infos {
		if info.Mode()&os.ModeSymlink != 0 {
			target, err := f.FS.Stat(f.Join(dirname, info.Name()))
			if err == nil {
				info = namedInfo{FileInfo: target, name: info.Name()}
			}
		}

		resolved = append(resolved, info)
	}

	return resolved, nil
}

// namedInfo keeps the directory-entry name while exposing the link target's
// type, size, and times.
type namedInfo struct {
	os.FileInfo
	name string
}

func (n namedInfo) Name() string {
	return n.name
}
