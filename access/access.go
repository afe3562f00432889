// Package access decides whether a user identifier may use the service at
// all. Authorization is a pure function of static configuration: the
// allow-list and the admin identifier are fixed at startup and never consult
// session state, so a Gate is safe for unsynchronized concurrent use.
package access

// Decision is the result of authorizing a user identifier.
type Decision int

const (
	// Denied means the request must be rejected before any session or
	// provider interaction.
	Denied Decision = iota

	// Allowed grants normal chat operations.
	Allowed

	// AdminAllowed grants chat operations plus admin-only dispatcher
	// operations (broadcast, forced reset of another user's session).
	AdminAllowed
)

// String returns a short lowercase label for logs.
func (d Decision) String() string {
	switch d {
	case Allowed:
		return "allowed"
	case AdminAllowed:
		return "admin"
	default:
		return "denied"
	}
}

// Gate authorizes user identifiers against an allow-list and a single admin
// identifier. The admin does not need to appear in the allow-list.
type Gate struct {
	allowed map[string]struct{}
	adminID string
}

// NewGate builds a Gate from the configured allow-list and admin id.
func NewGate(allowedIDs []string, adminID string) *Gate {
	allowed := make(map[string]struct{}, len(allowedIDs))
	for _, id := range allowedIDs {
		if id != "" {
			allowed[id] = struct{}{}
		}
	}
	return &Gate{allowed: allowed, adminID: adminID}
}

// AllowedIDs returns the configured allow-list (admin excluded) in no
// particular order. Used by the broadcast operation to enumerate
// recipients.
func (g *Gate) AllowedIDs() []string {
	ids := make([]string, 0, len(g.allowed))
	for id := range g.allowed {
		ids = append(ids, id)
	}
	return ids
}

// Authorize classifies userID. The admin id wins over plain allow-list
// membership; every id not configured anywhere is Denied.
func (g *Gate) Authorize(userID string) Decision {
	if userID == "" {
		return Denied
	}
	if userID == g.adminID && g.adminID != "" {
		return AdminAllowed
	}
	if _, ok := g.allowed[userID]; ok {
		return Allowed
	}
	return Denied
}
