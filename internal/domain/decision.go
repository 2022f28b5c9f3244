package domain

import "time"

// RiskFactor is one weighted contribution to a risk score. Raw is the
// normalized input in [0,1]; Weighted is Raw scaled by the factor weight.
type RiskFactor struct {
	Name     string
	Raw      float64
	Weighted float64
}

// RiskScore is the fused risk value in [0,100] with its per-factor breakdown.
// It is a pure function of its inputs and never persisted as authoritative
// state across requests.
type RiskScore struct {
	Value   float64
	Factors []RiskFactor
}

// Decision is the terminal result of one access evaluation. It is never
// mutated after construction.
type Decision struct {
	ID                string
	Verdict           Verdict
	Reason            ReasonCode
	PrincipalID       string
	Resource          string
	RuleID            string
	PolicyVersion     string
	RiskScore         RiskScore
	InputsFingerprint string
	SessionID         string
	EvaluatedAt       time.Time
}
