package filesystem

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
)

// ErrNoAuthMethods is returned when neither the SSH agent nor any default
// key file yields a usable credential.
var ErrNoAuthMethods = errors.New("no ssh authentication methods available (tried agent and default keys)")

// SFTPConnection holds an active SSH connection with an open SFTP session.
type SFTPConnection struct {
	sshClient  *ssh.Client
	sftpClient *sftp.Client
}

// Connect dials host:port as user and opens an SFTP session, authenticating
// via the SSH agent first and then the default key files under ~/.ssh.
func Connect(host string, port int, user string) (*SFTPConnection, error) {
	auth := authMethods()
	if len(auth) == 0 {
		return nil, ErrNoAuthMethods
	}

	cfg := &ssh.ClientConfig{
		User: user,
		Auth: auth,
		// TODO: verify host keys against known_hosts.
		HostKeyCallback: ssh.InsecureIgnoreHostKey(), //nolint:gosec // See TODO above.
	}

	sshClient, err := ssh.Dial("tcp", net.JoinHostPort(host, fmt.Sprint(port)), cfg)
	if err != nil {
		return nil, fmt.Errorf("ssh connection failed: %w", err)
	}

	sftpClient, err := sftp.NewClient(sshClient)
	if err != nil {
		sshClient.Close()
		return nil, fmt.Errorf("sftp session failed: %w", err)
	}

	return &SFTPConnection{sshClient: sshClient, sftpClient: sftpClient}, nil
}

// Close shuts down the SFTP session and the SSH connection.
func (c *SFTPConnection) Close() error {
	var firstErr error

	if c.sftpClient != nil {
		if err := c.sftpClient.Close(); err != nil {
			firstErr = err
		}
	}

	if c.sshClient != nil {
		if err := c.sshClient.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}

// Client returns the underlying SFTP client.
func (c *SFTPConnection) Client() *sftp.Client {
	return c.sftpClient
}

// authMethods collects credentials in priority order: SSH agent, then
// unencrypted default key files.
func authMethods() []ssh.AuthMethod {
	var methods []ssh.AuthMethod

	if agentAuth := sshAgentAuth(); agentAuth != nil {
		methods = append(methods, agentAuth)
	}

	methods = append(methods, defaultKeyAuth()...)

	return methods
}

func sshAgentAuth() ssh.AuthMethod {
	socket := os.Getenv("SSH_AUTH_SOCK")
	if socket == "" {
		return nil
	}

	conn, err := net.Dial("unix", socket)
	if err != nil {
		return nil
	}

	return ssh.PublicKeysCallback(agent.NewClient(conn).Signers)
}

func defaultKeyAuth() []ssh.AuthMethod {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}

	var methods []ssh.AuthMethod

	for _, name := range []string{"id_ed25519", "id_rsa", "id_ecdsa"} {
		keyData, err := os.ReadFile(filepath.Join(home, ".ssh", name))
		if err != nil {
			continue
		}

		// Encrypted keys are skipped; passphrase prompting is out of scope.
		signer, err := ssh.ParsePrivateKey(keyData)
		if err != nil {
			continue
		}

		methods = append(methods, ssh.PublicKeys(signer))
	}

	return methods
}
