package pdp

//go:generate mockgen -source=ports.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"sentra/internal/domain"
	"sentra/internal/policy"
)

// IdentityVerifier validates a bearer token against the external issuer's
// published keys.
type IdentityVerifier interface {
	Verify(ctx context.Context, token string) (domain.VerifiedIdentity, error)
}

// DeviceAssessor derives a trust level from a device certificate and posture.
type DeviceAssessor interface {
	Assess(ctx context.Context, certPEM string, posture domain.DevicePosture) (domain.DeviceAssessment, error)
}

// RiskScorer fuses verified signals into a bounded risk score. Implementations
// must be pure: same inputs, same score.
type RiskScorer interface {
	Score(identity domain.VerifiedIdentity, device domain.DeviceAssessment, rctx domain.RequestContext) domain.RiskScore
}

// PolicyEvaluator matches signals against the active rule set.
type PolicyEvaluator interface {
	Evaluate(principal domain.Principal, trust domain.TrustLevel, score domain.RiskScore, resource string) policy.Outcome
}

// SessionManager issues and revokes sessions backing ALLOWED decisions.
type SessionManager interface {
	Issue(ctx context.Context, decision domain.Decision, certificateID string) (*domain.Session, error)
	Introspect(ctx context.Context, id string) (*domain.Session, error)
	Revoke(ctx context.Context, id string) error
	ListActive(ctx context.Context) ([]*domain.Session, error)
}

// AuditRecorder durably records a decision. An error means the record was not
// made durable and the caller must fail closed.
type AuditRecorder interface {
	Record(ctx context.Context, record domain.AuditRecord) (domain.AuditRecord, error)
}
