package filesystem

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const defaultSFTPPort = 22

// Exported variables.
var (
	ErrMissingHost = errors.New("sftp url must include a host")
	ErrMissingUser = errors.New("sftp url must include a username (sftp://user@host/path)")
)

// ParsedPath is a scan root: either a local path or a remote SFTP location.
type ParsedPath struct {
	IsRemote bool

	// For local roots
	LocalPath string

	// For SFTP roots
	Host string
	Port int
	User string
	Path string
}

// ParsePath classifies a root string as a local path or an SFTP URL.
// SFTP URLs have the form sftp://user@host:port/path; the port defaults
// to 22.
func ParsePath(root string) (*ParsedPath, error) {
	if strings.HasPrefix(root, "sftp://") {
		return parseSFTPURL(root)
	}

	return &ParsedPath{IsRemote: false, LocalPath: root}, nil
}

func parseSFTPURL(raw string) (*ParsedPath, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid sftp url: %w", err)
	}

	if u.User == nil || u.User.Username() == "" {
		return nil, ErrMissingUser
	}

	if u.Hostname() == "" {
		return nil, ErrMissingHost
	}

	port := defaultSFTPPort
	if p := u.Port(); p != "" {
		port, err = strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid port number: %w", err)
		}
	}

	return &ParsedPath{
		IsRemote: true,
		Host:     u.Hostname(),
		Port:     port,
		User:     u.User.Username(),
		Path:     remotePath(u.Path),
	}, nil
}

// remotePath applies the SFTP path convention:
//
//	sftp://user@host/path  -> path relative to the login home
//	sftp://user@host//path -> absolute path /path
//	sftp://user@host       -> the login home itself
func remotePath(p string) string {
	switch {
	case p == "" || p == "/":
		return "."
	case strings.HasPrefix(p, "//"):
		return p[1:]
	default:
		return strings.TrimPrefix(p, "/")
	}
}
