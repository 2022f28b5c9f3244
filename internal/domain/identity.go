package domain

import "time"

// Principal is the verified identity snapshot for a single request. It is
// produced by the external identity system and read-only inside the core; the
// core never creates or updates principals.
type Principal struct {
	ID         string
	Roles      []string
	Attributes map[string]string
	Consent    map[string]bool
}

// HasRole reports whether the principal carries the given role.
func (p Principal) HasRole(role string) bool {
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Attribute returns the named attribute value, or "" when absent.
func (p Principal) Attribute(key string) string {
	return p.Attributes[key]
}

// VerifiedIdentity is the identity verifier's output: the principal snapshot
// plus the token-level facts downstream stages need.
type VerifiedIdentity struct {
	Principal Principal
	Issuer    string
	TokenID   string
	ExpiresAt time.Time
}
