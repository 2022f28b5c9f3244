package domain

import "time"

// Session is a bounded-lifetime grant backed by an ALLOWED decision. Holding
// one confers no implicit trust: the re-validation loop re-evaluates active
// sessions and revokes any whose backing policy version changed.
type Session struct {
	ID            string
	PrincipalID   string
	CertificateID string
	Resource      string
	PolicyVersion string
	RiskScore     float64
	IssuedAt      time.Time
	ExpiresAt     time.Time
	RevokedAt     *time.Time
}

// Revoked reports whether the session was explicitly revoked.
func (s Session) Revoked() bool {
	return s.RevokedAt != nil
}

// Live reports whether the session is neither revoked nor expired at the
// given instant.
func (s Session) Live(now time.Time) bool {
	return !s.Revoked() && now.Before(s.ExpiresAt)
}
