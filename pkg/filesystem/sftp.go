package filesystem

import (
	"io"
	"os"

	"github.com/pkg/sftp"
)

// sftpFS implements FS over an SFTP session.
// Remote filesystems never report DOS hidden-attribute support; the scanner
// falls back to dotfile-name hiding alone, which keeps hidden-file behavior
// predictable across mounts.
type sftpFS struct {
	client *sftp.Client
}

// NewSFTP returns an FS backed by the connection's SFTP session.
func NewSFTP(conn *SFTPConnection) FS {
	return &sftpFS{client: conn.Client()}
}

func (s *sftpFS) ReadDir(dirname string) ([]os.FileInfo, error) {
	return s.client.ReadDir(dirname)
}

func (s *sftpFS) Lstat(name string) (os.FileInfo, error) {
	return s.client.Lstat(name)
}

func (s *sftpFS) Stat(name string) (os.FileInfo, error) {
	return s.client.Stat(name)
}

func (s *sftpFS) Open(name string) (io.ReadCloser, error) {
	return s.client.Open(name)
}

func (s *sftpFS) Join(elem ...string) string {
	return s.client.Join(elem...)
}

func (s *sftpFS) Separator() string {
	return "/"
}

func (s *sftpFS) SupportsHiddenAttribute() bool {
	return false
}

func (s *sftpFS) Hidden(string) (bool, error) {
	return false, nil
}
