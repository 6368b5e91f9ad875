package filesystem

import "fmt"

// Resolve turns a scan-root string into a filesystem and the path to walk on
// it. For sftp:// roots it dials the remote host; the returned closer shuts
// the connection down and is nil for local roots.
func Resolve(root string) (FS, string, func(), error) {
	parsed, err := ParsePath(root)
	if err != nil {
		return nil, "", nil, err
	}

	if !parsed.IsRemote {
		return Local(), parsed.LocalPath, nil, nil
	}

	conn, err := Connect(parsed.Host, parsed.Port, parsed.User)
	if err != nil {
		return nil, "", nil, fmt.Errorf("connect to %s@%s:%d: %w",
			parsed.User, parsed.Host, parsed.Port, err)
	}

	closer := func() {
		_ = conn.Close()
	}

	return NewSFTP(conn), parsed.Path, closer, nil
}
