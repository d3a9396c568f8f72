//go:build darwin || freebsd

package peercred

import (
	"errors"

	"golang.org/x/sys/unix"
)

// getPeerCredentials reads the LOCAL_PEERCRED xucred. The xucred
// carries the peer's effective uid and group list but no process id,
// so PID is synthesized as 0 ("unavailable").
func getPeerCredentials(fd int) (PeerCredentials, error) {
	xucred, err := unix.GetsockoptXucred(fd, unix.SOL_LOCAL, unix.LOCAL_PEERCRED)
	if err != nil {
		return PeerCredentials{}, &QueryError{Cause: err}
	}
	return credsFromXucred(xucred)
}

// credsFromXucred extracts the effective uid and gid from an xucred.
// The kernel always records at least one group; an empty group list
// means the xucred is malformed, and defaulting the gid would report
// group 0 (wheel). Treat it as a failed query instead.
func credsFromXucred(xucred *unix.Xucred) (PeerCredentials, error) {
	if xucred.Ngroups <= 0 {
		return PeerCredentials{}, &QueryError{Cause: errors.New("xucred reports no groups")}
	}
	return PeerCredentials{UID: xucred.Uid, GID: xucred.Groups[0]}, nil
}
