package peercred

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
)

// ErrPeerRejected is returned by Listener.Accept when a connection was
// accepted by the kernel but refused by the policy, or when the peer's
// credentials could not be resolved. The connection is already closed;
// accept loops should treat the error as per-connection and continue.
var ErrPeerRejected = errors.New("peercred: peer rejected")

// Conn is an accepted Unix socket connection annotated with the
// credentials the kernel reported for its peer at accept time.
type Conn struct {
	*net.UnixConn
	peer PeerCredentials
}

// Peer returns the credentials resolved when the connection was accepted.
func (c *Conn) Peer() PeerCredentials {
	return c.peer
}

// SecureSocketPath creates the socket directory with the configured
// permissions and removes any stale socket file, returning the path the
// listener should bind. A directory that already exists keeps its mode:
// the socket may live somewhere shared like /tmp, and rewriting that
// directory's permissions would break it for everyone else.
func SecureSocketPath(cfg SocketConfig) (string, error) {
	dirPerms := os.FileMode(cfg.DirPermissions)
	info, err := os.Stat(cfg.Dir)
	switch {
	case os.IsNotExist(err):
		if err := os.MkdirAll(cfg.Dir, dirPerms); err != nil {
			return "", fmt.Errorf("failed to create socket directory %s: %w", cfg.Dir, err)
		}
		// MkdirAll modes are masked by the umask; make the mode of the
		// directory we just created explicit.
		if err := os.Chmod(cfg.Dir, dirPerms); err != nil {
			return "", fmt.Errorf("failed to set permissions on socket directory: %w", err)
		}
	case err != nil:
		return "", fmt.Errorf("failed to stat socket directory %s: %w", cfg.Dir, err)
	case !info.IsDir():
		return "", fmt.Errorf("socket directory %s is not a directory", cfg.Dir)
	}

	socketPath := filepath.Join(cfg.Dir, cfg.Name)
	if err := os.RemoveAll(socketPath); err != nil && !os.IsNotExist(err) {
		return "", fmt.Errorf("failed to remove existing socket file: %w", err)
	}

	return socketPath, nil
}

// Listener accepts Unix socket connections, resolves each peer's
// credentials and enforces a Policy before handing the connection out.
type Listener struct {
	ln     *net.UnixListener
	policy Policy
	path   string
}

// Listen binds a Unix socket at the configured path with the configured
// file modes and returns a credential-aware listener.
func Listen(cfg SocketConfig, policy Policy) (*Listener, error) {
	path, err := SecureSocketPath(cfg)
	if err != nil {
		return nil, err
	}

	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("failed to create listener: %w", err)
	}
	unixLn := ln.(*net.UnixListener)

	if err := os.Chmod(path, os.FileMode(cfg.Permissions)); err != nil {
		_ = unixLn.Close()
		return nil, fmt.Errorf("failed to set socket permissions: %w", err)
	}

	return &Listener{
		ln:     unixLn,
		policy: policy,
		path:   path,
	}, nil
}

// Accept waits for the next connection, resolves its peer credentials
// and verifies them against the policy. On rejection the connection is
// closed and the returned error matches ErrPeerRejected.
func (l *Listener) Accept() (*Conn, error) {
	conn, err := l.ln.AcceptUnix()
	if err != nil {
		return nil, err
	}

	creds, err := FromConn(conn)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%w: %w", ErrPeerRejected, err)
	}

	if err := l.policy.Verify(creds); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%w: %w", ErrPeerRejected, err)
	}

	return &Conn{UnixConn: conn, peer: creds}, nil
}

// Close closes the listener and unlinks the socket file.
func (l *Listener) Close() error {
	return l.ln.Close()
}

// Addr returns the listener's socket address.
func (l *Listener) Addr() net.Addr {
	return l.ln.Addr()
}

// Path returns the bound socket path.
func (l *Listener) Path() string {
	return l.path
}
