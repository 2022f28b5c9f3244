package domain

// Verdict enumerates the terminal outcomes of an access evaluation. An
// evaluation is PENDING only while in flight; every returned Decision carries
// one of these three values and is never mutated afterwards. CHALLENGE is
// terminal for the evaluation cycle: re-entry requires a fresh AccessRequest
// carrying additional proof.
type Verdict string

const (
	VerdictAllowed   Verdict = "allowed"
	VerdictDenied    Verdict = "denied"
	VerdictChallenge Verdict = "challenge"
)

// ReasonCode explains a verdict to callers and audit tooling without leaking
// internal error detail. Dependency failures get distinct codes from genuine
// policy denials so operators can tell an outage from a refusal.
type ReasonCode string

const (
	// Policy outcomes.
	ReasonPolicyAllowed        ReasonCode = "policy_allowed"
	ReasonPolicyDenied         ReasonCode = "policy_denied"
	ReasonNoMatchingRule       ReasonCode = "no_matching_rule"
	ReasonRiskRequiresProof    ReasonCode = "risk_requires_challenge"
	ReasonRiskExceedsThreshold ReasonCode = "risk_exceeds_threshold"

	// Security violations. These flag the audit record for alerting.
	ReasonIdentityInvalid  ReasonCode = "identity_invalid"
	ReasonIdentityExpired  ReasonCode = "identity_expired"
	ReasonUnknownIssuer    ReasonCode = "unknown_issuer"
	ReasonDeviceUntrusted  ReasonCode = "device_untrusted"
	ReasonImpossibleTravel ReasonCode = "impossible_travel"

	// Dependency failures. Always fail-closed.
	ReasonIdentityTimeout       ReasonCode = "identity_verification_timeout"
	ReasonRevocationUnavailable ReasonCode = "revocation_check_failed"
	ReasonAuditUnavailable      ReasonCode = "audit_unavailable"
	ReasonDependencyUnavailable ReasonCode = "dependency_unavailable"
	ReasonEvaluationCanceled    ReasonCode = "evaluation_canceled"
)

// securityReasons are the codes that mark an audit record as security-relevant
// for downstream alerting. Dependency outages are operational, not hostile.
var securityReasons = map[ReasonCode]bool{
	ReasonIdentityInvalid:  true,
	ReasonIdentityExpired:  true,
	ReasonUnknownIssuer:    true,
	ReasonDeviceUntrusted:  true,
	ReasonImpossibleTravel: true,
}

// SecurityRelevant reports whether the reason indicates a possible attack
// rather than a routine denial or an infrastructure failure.
func (r ReasonCode) SecurityRelevant() bool {
	return securityReasons[r]
}
