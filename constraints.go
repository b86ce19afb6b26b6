package ldapcodec

import "time"

// Constraints bounds a client-side sequence of LDAP operations: how long to
// wait, how many referrals to follow, and which controls to attach to every
// outgoing request. It carries no codec state of its own and is never
// required by GetX/Encode; it's consulted by the transport wrapper around
// this codec.
type Constraints struct {
	// TimeLimit bounds how long the caller is willing to wait for a
	// response to any single request. Zero means no client-side deadline.
	TimeLimit time.Duration
	// HopLimit bounds how many referrals will be followed for a single
	// logical operation before giving up with ErrReferralLimitExceeded.
	HopLimit int
	// ReferralFollowing enables automatically following LDAPResultReferral
	// results instead of surfacing them to the caller.
	ReferralFollowing bool
	// Controls are attached to every outgoing request in addition to any
	// controls the caller supplies for that specific request.
	Controls []Control
	// Properties is an opaque bag for caller-defined extensions that don't
	// warrant a dedicated field (e.g. proxy-authorization identity).
	Properties map[string]string
}

// DefaultConstraints returns the conventional constraint set: no deadline,
// a 10-hop referral limit, and referral following disabled.
func DefaultConstraints() *Constraints {
	return &Constraints{
		HopLimit:          10,
		ReferralFollowing: false,
		Properties:        map[string]string{},
	}
}
