package httptransport

import (
	"time"

	"sentra/internal/domain"
)

type geoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type postureRequest struct {
	PatchLevel    int       `json:"patch_level"`
	DiskEncrypted bool      `json:"disk_encrypted"`
	LastSeenAt    time.Time `json:"last_seen_at"`
}

type historyRequest struct {
	LastKnownLocation *geoPoint `json:"last_known_location,omitempty"`
	LastKnownAt       time.Time `json:"last_known_at"`
	TypicalStartHour  int       `json:"typical_start_hour"`
	TypicalEndHour    int       `json:"typical_end_hour"`
	FailedAuthCount   int       `json:"failed_auth_count"`
}

type contextRequest struct {
	Timestamp     time.Time      `json:"timestamp"`
	SourceNetwork string         `json:"source_network"`
	Location      *geoPoint      `json:"location,omitempty"`
	History       historyRequest `json:"history"`
}

// EvaluateRequest is the wire form of one access attempt.
type EvaluateRequest struct {
	Token       string         `json:"token"`
	Certificate string         `json:"certificate"`
	Resource    string         `json:"resource"`
	Posture     postureRequest `json:"posture"`
	Context     contextRequest `json:"context"`
}

func (r EvaluateRequest) toDomain() domain.AccessRequest {
	req := domain.AccessRequest{
		Token:       r.Token,
		Certificate: r.Certificate,
		Resource:    r.Resource,
		Posture: domain.DevicePosture{
			PatchLevel:    r.Posture.PatchLevel,
			DiskEncrypted: r.Posture.DiskEncrypted,
			LastSeenAt:    r.Posture.LastSeenAt,
		},
		Context: domain.RequestContext{
			Timestamp:     r.Context.Timestamp,
			SourceNetwork: r.Context.SourceNetwork,
			History: domain.PrincipalHistory{
				LastKnownAt:      r.Context.History.LastKnownAt,
				TypicalStartHour: r.Context.History.TypicalStartHour,
				TypicalEndHour:   r.Context.History.TypicalEndHour,
				FailedAuthCount:  r.Context.History.FailedAuthCount,
			},
		},
	}
	if r.Context.Timestamp.IsZero() {
		req.Context.Timestamp = time.Now().UTC()
	}
	if loc := r.Context.Location; loc != nil {
		req.Context.Location = &domain.GeoPoint{Lat: loc.Lat, Lon: loc.Lon}
	}
	if loc := r.Context.History.LastKnownLocation; loc != nil {
		req.Context.History.LastKnownLocation = &domain.GeoPoint{Lat: loc.Lat, Lon: loc.Lon}
	}
	return req
}

type riskFactorResponse struct {
	Name     string  `json:"name"`
	Raw      float64 `json:"raw"`
	Weighted float64 `json:"weighted"`
}

type riskScoreResponse struct {
	Value   float64              `json:"value"`
	Factors []riskFactorResponse `json:"factors,omitempty"`
}

// DecisionResponse is the wire form of a Decision.
type DecisionResponse struct {
	DecisionID        string            `json:"decision_id"`
	Verdict           string            `json:"verdict"`
	Reason            string            `json:"reason"`
	PrincipalID       string            `json:"principal_id"`
	Resource          string            `json:"resource"`
	RuleID            string            `json:"rule_id,omitempty"`
	PolicyVersion     string            `json:"policy_version,omitempty"`
	RiskScore         riskScoreResponse `json:"risk_score"`
	InputsFingerprint string            `json:"inputs_fingerprint"`
	SessionID         string            `json:"session_id,omitempty"`
	EvaluatedAt       time.Time         `json:"evaluated_at"`
}

func fromDecision(d domain.Decision) DecisionResponse {
	resp := DecisionResponse{
		DecisionID:        d.ID,
		Verdict:           string(d.Verdict),
		Reason:            string(d.Reason),
		PrincipalID:       d.PrincipalID,
		Resource:          d.Resource,
		RuleID:            d.RuleID,
		PolicyVersion:     d.PolicyVersion,
		InputsFingerprint: d.InputsFingerprint,
		SessionID:         d.SessionID,
		EvaluatedAt:       d.EvaluatedAt,
		RiskScore:         riskScoreResponse{Value: d.RiskScore.Value},
	}
	for _, f := range d.RiskScore.Factors {
		resp.RiskScore.Factors = append(resp.RiskScore.Factors, riskFactorResponse{
			Name:     f.Name,
			Raw:      f.Raw,
			Weighted: f.Weighted,
		})
	}
	return resp
}

// SessionResponse is the wire form of a session introspection.
type SessionResponse struct {
	ID            string     `json:"id"`
	PrincipalID   string     `json:"principal_id"`
	Resource      string     `json:"resource"`
	PolicyVersion string     `json:"policy_version"`
	RiskScore     float64    `json:"risk_score"`
	IssuedAt      time.Time  `json:"issued_at"`
	ExpiresAt     time.Time  `json:"expires_at"`
	RevokedAt     *time.Time `json:"revoked_at,omitempty"`
	Live          bool       `json:"live"`
}

func fromSession(s *domain.Session, now time.Time) SessionResponse {
	return SessionResponse{
		ID:            s.ID,
		PrincipalID:   s.PrincipalID,
		Resource:      s.Resource,
		PolicyVersion: s.PolicyVersion,
		RiskScore:     s.RiskScore,
		IssuedAt:      s.IssuedAt,
		ExpiresAt:     s.ExpiresAt,
		RevokedAt:     s.RevokedAt,
		Live:          s.Live(now),
	}
}

// PolicyVersionResponse reports the active rule set.
type PolicyVersionResponse struct {
	Version string `json:"version"`
	Rules   int    `json:"rules"`
	Swaps   uint64 `json:"swaps"`
}

// ReloadResponse acknowledges a policy swap.
type ReloadResponse struct {
	Version string `json:"version"`
	Rules   int    `json:"rules"`
}
