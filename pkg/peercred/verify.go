package peercred

import (
	"fmt"
	"os"
)

// Policy restricts which peers may talk to a credential-aware listener.
// The zero value allows any peer.
type Policy struct {
	// RequireSameUser only allows peers running as the same effective
	// UID as this process.
	RequireSameUser bool

	// AllowedUIDs is a list of UIDs that are allowed to connect.
	// If empty, any UID can connect.
	AllowedUIDs []uint32

	// AllowedGIDs is a list of GIDs that are allowed to connect.
	// If empty, any GID can connect.
	AllowedGIDs []uint32
}

// Verify checks the resolved peer credentials against the policy.
func (p Policy) Verify(creds PeerCredentials) error {
	if p.RequireSameUser {
		serverUID := uint32(os.Geteuid())
		if creds.UID != serverUID {
			return fmt.Errorf("peer uid %d does not match server uid %d", creds.UID, serverUID)
		}
	}

	if len(p.AllowedUIDs) > 0 {
		allowed := false
		for _, uid := range p.AllowedUIDs {
			if creds.UID == uid {
				allowed = true
				break
			}
		}
		if !allowed {
			return fmt.Errorf("peer uid %d is not in allowed list", creds.UID)
		}
	}

	if len(p.AllowedGIDs) > 0 {
		allowed := false
		for _, gid := range p.AllowedGIDs {
			if creds.GID == gid {
				allowed = true
				break
			}
		}
		if !allowed {
			return fmt.Errorf("peer gid %d is not in allowed list", creds.GID)
		}
	}

	return nil
}
