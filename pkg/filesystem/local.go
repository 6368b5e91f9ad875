package filesystem

import (
	"io"
	"os"
	"path/filepath"
)

// localFS implements FS over the host operating system's filesystem.
type localFS struct{}

// Local returns the host filesystem.
func Local() FS {
	return localFS{}
}

func (localFS) ReadDir(dirname string) ([]os.FileInfo, error) {
	entries, err := os.ReadDir(dirname)
	if err != nil {
		return nil, err
	}

	infos := make([]os.FileInfo, 0, len(entries))

	for _, e := range entries {
		info, err := e.Info()
		if err != nil {
			// A path that disappears between list and stat is an
			// attribute-read failure for the walk.
			return nil, err
		}

		infos = append(infos, info)
	}

	return infos, nil
}

func (localFS) Lstat(name string) (os.FileInfo, error) {
	return os.Lstat(name)
}

func (localFS) Stat(name string) (os.FileInfo, error) {
	return os.Stat(name)
}

func (localFS) Open(name string) (io.ReadCloser, error) {
	return os.Open(name)
}

func (localFS) Join(elem ...string) string {
	return filepath.Join(elem...)
}

func (localFS) Separator() string {
	return string(filepath.Separator)
}

func (localFS) SupportsHiddenAttribute() bool {
	return hiddenAttributeSupported
}

func (localFS) Hidden(name string) (bool, error) {
	return hiddenAttribute(name)
}
