// Package peercred resolves the kernel-reported identity of the process
// on the other end of a connected Unix domain socket, and provides the
// pieces the credd daemon builds on top of it: a verification policy, a
// credential-aware listener, wire codecs and configuration.
package peercred

import (
	"errors"
	"fmt"
	"math"
	"net"
	"os"
)

// PeerCredentials is the identity of the peer process on a connected
// Unix domain socket, as recorded by the kernel when the connection was
// established. It is a transient value: produced once per resolution
// and owned by the caller.
//
// PID is 0 on platforms whose credential interface does not report the
// peer process id. A real peer can never have pid 0, so callers must
// treat 0 as "unavailable", never as an identifier; HasPID encodes the
// convention.
type PeerCredentials struct {
	PID int32
	UID uint32
	GID uint32
}

// HasPID reports whether PID carries a real process id.
func (c PeerCredentials) HasPID() bool {
	return c.PID != 0
}

func (c PeerCredentials) String() string {
	if !c.HasPID() {
		return fmt.Sprintf("uid=%d gid=%d pid=?", c.UID, c.GID)
	}
	return fmt.Sprintf("uid=%d gid=%d pid=%d", c.UID, c.GID, c.PID)
}

// ErrBadDescriptor is returned when the supplied descriptor value is
// not a well-formed file descriptor. It is detected before any kernel
// call is made.
var ErrBadDescriptor = errors.New("peercred: bad socket descriptor")

// ErrQueryFailed matches any QueryError via errors.Is.
var ErrQueryFailed = errors.New("peercred: peer credential query failed")

// QueryError reports that the kernel refused or could not supply peer
// credentials for a descriptor: not a socket, not connected, closed,
// permission denied, or platform unsupported. The underlying cause is
// preserved through Unwrap for diagnostics; callers that only care
// about the kind should match ErrQueryFailed.
type QueryError struct {
	Cause error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("peercred: peer credential query failed: %v", e.Cause)
}

func (e *QueryError) Unwrap() []error {
	return []error{ErrQueryFailed, e.Cause}
}

// Get resolves the credentials of the peer connected on the Unix domain
// socket referred to by fd. The descriptor is owned by the caller; its
// state is never altered. Get does not validate that fd refers to an
// open, connected socket beyond what the kernel call enforces: a
// closed, unconnected or non-socket descriptor surfaces as a
// QueryError, while a value that cannot be a descriptor at all fails
// with ErrBadDescriptor before any kernel call.
//
// The platform variant is selected at build time: Linux reads the full
// SO_PEERCRED ucred, darwin and freebsd read the LOCAL_PEERCRED xucred
// and synthesize PID as 0.
func Get(fd int) (PeerCredentials, error) {
	if fd < 0 || int64(fd) > math.MaxInt32 {
		return PeerCredentials{}, fmt.Errorf("%w: %d", ErrBadDescriptor, fd)
	}
	return getPeerCredentials(fd)
}

// FromConn resolves the peer credentials of a connected Unix socket
// connection. The query runs against the connection's own descriptor
// via SyscallConn, so the socket is not duplicated and its state is
// untouched.
func FromConn(conn net.Conn) (PeerCredentials, error) {
	unixConn, ok := conn.(*net.UnixConn)
	if !ok {
		return PeerCredentials{}, fmt.Errorf("%w: %T is not a unix socket", ErrBadDescriptor, conn)
	}

	rawConn, err := unixConn.SyscallConn()
	if err != nil {
		return PeerCredentials{}, &QueryError{Cause: err}
	}

	var creds PeerCredentials
	var credErr error
	if err := rawConn.Control(func(fd uintptr) {
		creds, credErr = Get(int(fd))
	}); err != nil {
		return PeerCredentials{}, &QueryError{Cause: err}
	}
	return creds, credErr
}

// FromFile resolves the peer credentials for a socket held as an open
// file, e.g. one obtained from net.UnixConn.File.
func FromFile(f *os.File) (PeerCredentials, error) {
	return Get(int(f.Fd()))
}
