package domain

import "time"

// AuditSeverity routes records to downstream alerting. Security-relevant
// denials (revoked certificate, forged token, impossible travel) are critical;
// ordinary denials are warnings; everything else is informational.
type AuditSeverity string

const (
	AuditSeverityInfo     AuditSeverity = "info"
	AuditSeverityWarning  AuditSeverity = "warning"
	AuditSeverityCritical AuditSeverity = "critical"
)

// AuditRecord is the write-once trail entry for one Decision. Sequence is
// assigned per principal so replay tooling can reconstruct a principal's
// history deterministically; records across principals may interleave.
type AuditRecord struct {
	ID                string
	Sequence          uint64
	PrincipalID       string
	DecisionID        string
	Verdict           Verdict
	Reason            ReasonCode
	Resource          string
	PolicyVersion     string
	RiskScore         float64
	InputsFingerprint string
	Severity          AuditSeverity
	// DeliveryFailed marks a record whose durable write did not complete in
	// time. The decision it describes was forced to DENIED; the record is
	// retained for later reconciliation.
	DeliveryFailed bool
	RecordedAt     time.Time
}

// SeverityFor classifies a verdict/reason pair for audit routing.
func SeverityFor(verdict Verdict, reason ReasonCode) AuditSeverity {
	if reason.SecurityRelevant() {
		return AuditSeverityCritical
	}
	if verdict == VerdictDenied {
		return AuditSeverityWarning
	}
	return AuditSeverityInfo
}
