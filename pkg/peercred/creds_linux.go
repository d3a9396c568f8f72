//go:build linux

package peercred

import (
	"golang.org/x/sys/unix"
)

// getPeerCredentials reads the SO_PEERCRED ucred the kernel recorded at
// connect time. All three fields are meaningful on Linux.
func getPeerCredentials(fd int) (PeerCredentials, error) {
	ucred, err := unix.GetsockoptUcred(fd, unix.SOL_SOCKET, unix.SO_PEERCRED)
	if err != nil {
		return PeerCredentials{}, &QueryError{Cause: err}
	}
	return PeerCredentials{
		PID: ucred.Pid,
		UID: ucred.Uid,
		GID: ucred.Gid,
	}, nil
}
