package pdp_test

import (
	"context"
	"errors"
	"testing"
	"time"

	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"sentra/internal/device"
	"sentra/internal/domain"
	"sentra/internal/identity"
	"sentra/internal/pdp"
	"sentra/internal/pdp/metrics"
	"sentra/internal/pdp/mocks"
	"sentra/internal/policy"
	"sentra/internal/risk"
)

type pipelineMocks struct {
	identity *mocks.MockIdentityVerifier
	device   *mocks.MockDeviceAssessor
	scorer   *mocks.MockRiskScorer
	policy   *mocks.MockPolicyEvaluator
	sessions *mocks.MockSessionManager
	audit    *mocks.MockAuditRecorder
}

func newPipelineMocks(ctrl *gomock.Controller) pipelineMocks {
	return pipelineMocks{
		identity: mocks.NewMockIdentityVerifier(ctrl),
		device:   mocks.NewMockDeviceAssessor(ctrl),
		scorer:   mocks.NewMockRiskScorer(ctrl),
		policy:   mocks.NewMockPolicyEvaluator(ctrl),
		sessions: mocks.NewMockSessionManager(ctrl),
		audit:    mocks.NewMockAuditRecorder(ctrl),
	}
}

func newService(m pipelineMocks) *pdp.Service {
	return pdp.NewService(m.identity, m.device, m.scorer, m.policy, m.sessions, m.audit)
}

func testRequest() domain.AccessRequest {
	return domain.AccessRequest{
		Token:       "bearer-token",
		Certificate: "cert-pem",
		Posture:     domain.DevicePosture{DiskEncrypted: true, PatchLevel: 10, LastSeenAt: time.Now()},
		Resource:    "/reports/q3",
		Context:     domain.RequestContext{Timestamp: time.Now()},
	}
}

func verifiedAlice() domain.VerifiedIdentity {
	return domain.VerifiedIdentity{
		Principal: domain.Principal{ID: "alice", Roles: []string{"analyst"}},
		Issuer:    "https://issuer.internal",
	}
}

func trustedDevice() domain.DeviceAssessment {
	return domain.DeviceAssessment{CertificateID: "abc123", TrustLevel: domain.TrustLevelTrusted}
}

func lowRisk() domain.RiskScore {
	return domain.RiskScore{Value: 12, Factors: []domain.RiskFactor{{Name: risk.FactorDeviceTrust}}}
}

// auditOK wires the audit mock to accept any record and echo it back.
func auditOK(m pipelineMocks) *gomock.Call {
	return m.audit.EXPECT().
		Record(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, r domain.AuditRecord) (domain.AuditRecord, error) {
			return r, nil
		})
}

func TestEvaluateAccess_AllowedIssuesSession(t *testing.T) {
	ctrl := gomock.NewController(t)
	m := newPipelineMocks(ctrl)
	req := testRequest()

	m.identity.EXPECT().Verify(gomock.Any(), req.Token).Return(verifiedAlice(), nil)
	m.device.EXPECT().Assess(gomock.Any(), req.Certificate, req.Posture).Return(trustedDevice(), nil)
	m.scorer.EXPECT().Score(verifiedAlice(), trustedDevice(), req.Context).Return(lowRisk())
	m.policy.EXPECT().
		Evaluate(verifiedAlice().Principal, domain.TrustLevelTrusted, lowRisk(), req.Resource).
		Return(policy.Outcome{
			Verdict:       domain.VerdictAllowed,
			Reason:        domain.ReasonPolicyAllowed,
			RuleID:        "r1",
			PolicyVersion: "v1",
		})
	m.sessions.EXPECT().
		Issue(gomock.Any(), gomock.Any(), "abc123").
		DoAndReturn(func(_ context.Context, d domain.Decision, _ string) (*domain.Session, error) {
			assert.Equal(t, domain.VerdictAllowed, d.Verdict)
			return &domain.Session{ID: "sess-1", PrincipalID: d.PrincipalID}, nil
		})

	var recorded domain.AuditRecord
	m.audit.EXPECT().
		Record(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, r domain.AuditRecord) (domain.AuditRecord, error) {
			recorded = r
			return r, nil
		})

	decision, err := newService(m).EvaluateAccess(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, domain.VerdictAllowed, decision.Verdict)
	assert.Equal(t, domain.ReasonPolicyAllowed, decision.Reason)
	assert.Equal(t, "alice", decision.PrincipalID)
	assert.Equal(t, "sess-1", decision.SessionID)
	assert.Equal(t, "r1", decision.RuleID)
	assert.NotEmpty(t, decision.ID)
	assert.NotEmpty(t, decision.InputsFingerprint)

	assert.Equal(t, decision.ID, recorded.DecisionID)
	assert.Equal(t, "alice", recorded.PrincipalID)
	assert.Equal(t, domain.VerdictAllowed, recorded.Verdict)
}

func TestEvaluateAccess_InvalidTokenDenies(t *testing.T) {
	ctrl := gomock.NewController(t)
	m := newPipelineMocks(ctrl)
	req := testRequest()

	m.identity.EXPECT().Verify(gomock.Any(), req.Token).
		Return(domain.VerifiedIdentity{}, identity.ErrInvalidToken)
	m.device.EXPECT().Assess(gomock.Any(), req.Certificate, req.Posture).Return(trustedDevice(), nil)
	auditOK(m)

	decision, err := newService(m).EvaluateAccess(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, domain.VerdictDenied, decision.Verdict)
	assert.Equal(t, domain.ReasonIdentityInvalid, decision.Reason)
	assert.Equal(t, "unknown", decision.PrincipalID)
	assert.Empty(t, decision.SessionID)
}

func TestEvaluateAccess_IdentityTimeoutDenies(t *testing.T) {
	ctrl := gomock.NewController(t)
	m := newPipelineMocks(ctrl)
	req := testRequest()

	m.identity.EXPECT().Verify(gomock.Any(), req.Token).
		Return(domain.VerifiedIdentity{}, identity.ErrVerifyTimeout)
	m.device.EXPECT().Assess(gomock.Any(), req.Certificate, req.Posture).Return(trustedDevice(), nil)
	auditOK(m)

	decision, err := newService(m).EvaluateAccess(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, domain.VerdictDenied, decision.Verdict)
	assert.Equal(t, domain.ReasonIdentityTimeout, decision.Reason)
}

func TestEvaluateAccess_RevokedCertificateDenies(t *testing.T) {
	ctrl := gomock.NewController(t)
	m := newPipelineMocks(ctrl)
	req := testRequest()

	m.identity.EXPECT().Verify(gomock.Any(), req.Token).Return(verifiedAlice(), nil)
	m.device.EXPECT().Assess(gomock.Any(), req.Certificate, req.Posture).
		Return(domain.DeviceAssessment{TrustLevel: domain.TrustLevelUntrusted}, device.ErrCertificateRevoked)
	auditOK(m)

	decision, err := newService(m).EvaluateAccess(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, domain.VerdictDenied, decision.Verdict)
	assert.Equal(t, domain.ReasonDeviceUntrusted, decision.Reason)
	assert.Equal(t, "alice", decision.PrincipalID)
}

func TestEvaluateAccess_RevocationOutageDeniesWithOwnReason(t *testing.T) {
	ctrl := gomock.NewController(t)
	m := newPipelineMocks(ctrl)
	req := testRequest()

	m.identity.EXPECT().Verify(gomock.Any(), req.Token).Return(verifiedAlice(), nil)
	m.device.EXPECT().Assess(gomock.Any(), req.Certificate, req.Posture).
		Return(domain.DeviceAssessment{TrustLevel: domain.TrustLevelUntrusted, Degraded: true},
			device.ErrRevocationCheckFailed)
	auditOK(m)

	decision, err := newService(m).EvaluateAccess(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, domain.VerdictDenied, decision.Verdict)
	assert.Equal(t, domain.ReasonRevocationUnavailable, decision.Reason)
}

func TestEvaluateAccess_ImpossibleTravelShortCircuits(t *testing.T) {
	ctrl := gomock.NewController(t)
	m := newPipelineMocks(ctrl)
	req := testRequest()

	impossible := domain.RiskScore{
		Value:   80,
		Factors: []domain.RiskFactor{{Name: risk.FactorTravel, Raw: 1.0, Weighted: 30}},
	}

	m.identity.EXPECT().Verify(gomock.Any(), req.Token).Return(verifiedAlice(), nil)
	m.device.EXPECT().Assess(gomock.Any(), req.Certificate, req.Posture).Return(trustedDevice(), nil)
	m.scorer.EXPECT().Score(verifiedAlice(), trustedDevice(), req.Context).Return(impossible)
	// Policy is never consulted: the violation resolves the decision.
	auditOK(m)

	decision, err := newService(m).EvaluateAccess(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, domain.VerdictDenied, decision.Verdict)
	assert.Equal(t, domain.ReasonImpossibleTravel, decision.Reason)
}

func TestEvaluateAccess_ChallengeDoesNotIssueSession(t *testing.T) {
	ctrl := gomock.NewController(t)
	m := newPipelineMocks(ctrl)
	req := testRequest()

	m.identity.EXPECT().Verify(gomock.Any(), req.Token).Return(verifiedAlice(), nil)
	m.device.EXPECT().Assess(gomock.Any(), req.Certificate, req.Posture).Return(trustedDevice(), nil)
	m.scorer.EXPECT().Score(gomock.Any(), gomock.Any(), gomock.Any()).Return(domain.RiskScore{Value: 55})
	m.policy.EXPECT().
		Evaluate(gomock.Any(), gomock.Any(), gomock.Any(), req.Resource).
		Return(policy.Outcome{
			Verdict:       domain.VerdictChallenge,
			Reason:        domain.ReasonRiskRequiresProof,
			RuleID:        "r1",
			PolicyVersion: "v1",
		})
	auditOK(m)

	decision, err := newService(m).EvaluateAccess(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, domain.VerdictChallenge, decision.Verdict)
	assert.Equal(t, domain.ReasonRiskRequiresProof, decision.Reason)
	assert.Empty(t, decision.SessionID)
}

func TestEvaluateAccess_SessionIssueFailureDenies(t *testing.T) {
	ctrl := gomock.NewController(t)
	m := newPipelineMocks(ctrl)
	req := testRequest()

	m.identity.EXPECT().Verify(gomock.Any(), req.Token).Return(verifiedAlice(), nil)
	m.device.EXPECT().Assess(gomock.Any(), req.Certificate, req.Posture).Return(trustedDevice(), nil)
	m.scorer.EXPECT().Score(gomock.Any(), gomock.Any(), gomock.Any()).Return(lowRisk())
	m.policy.EXPECT().
		Evaluate(gomock.Any(), gomock.Any(), gomock.Any(), req.Resource).
		Return(policy.Outcome{Verdict: domain.VerdictAllowed, Reason: domain.ReasonPolicyAllowed, PolicyVersion: "v1"})
	m.sessions.EXPECT().
		Issue(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, errors.New("store unavailable"))
	auditOK(m)

	decision, err := newService(m).EvaluateAccess(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, domain.VerdictDenied, decision.Verdict)
	assert.Equal(t, domain.ReasonDependencyUnavailable, decision.Reason)
	assert.Empty(t, decision.SessionID)
}

func TestEvaluateAccess_AuditFailureFailsClosed(t *testing.T) {
	ctrl := gomock.NewController(t)
	m := newPipelineMocks(ctrl)
	req := testRequest()

	m.identity.EXPECT().Verify(gomock.Any(), req.Token).Return(verifiedAlice(), nil)
	m.device.EXPECT().Assess(gomock.Any(), req.Certificate, req.Posture).Return(trustedDevice(), nil)
	m.scorer.EXPECT().Score(gomock.Any(), gomock.Any(), gomock.Any()).Return(lowRisk())
	m.policy.EXPECT().
		Evaluate(gomock.Any(), gomock.Any(), gomock.Any(), req.Resource).
		Return(policy.Outcome{Verdict: domain.VerdictAllowed, Reason: domain.ReasonPolicyAllowed, PolicyVersion: "v1"})
	m.sessions.EXPECT().
		Issue(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(&domain.Session{ID: "sess-1"}, nil)
	m.audit.EXPECT().
		Record(gomock.Any(), gomock.Any()).
		Return(domain.AuditRecord{}, errors.New("sink down"))
	// An allow that cannot be audited must not leave its session behind.
	m.sessions.EXPECT().Revoke(gomock.Any(), "sess-1").Return(nil)

	decision, err := newService(m).EvaluateAccess(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, domain.VerdictDenied, decision.Verdict)
	assert.Equal(t, domain.ReasonAuditUnavailable, decision.Reason)
	assert.Empty(t, decision.SessionID)
}

func TestEvaluateAccess_DeniedIsStillAudited(t *testing.T) {
	ctrl := gomock.NewController(t)
	m := newPipelineMocks(ctrl)
	req := testRequest()

	m.identity.EXPECT().Verify(gomock.Any(), req.Token).Return(verifiedAlice(), nil)
	m.device.EXPECT().Assess(gomock.Any(), req.Certificate, req.Posture).Return(trustedDevice(), nil)
	m.scorer.EXPECT().Score(gomock.Any(), gomock.Any(), gomock.Any()).Return(domain.RiskScore{Value: 95})
	m.policy.EXPECT().
		Evaluate(gomock.Any(), gomock.Any(), gomock.Any(), req.Resource).
		Return(policy.Outcome{
			Verdict:       domain.VerdictDenied,
			Reason:        domain.ReasonRiskExceedsThreshold,
			RuleID:        "r1",
			PolicyVersion: "v1",
		})

	var recorded domain.AuditRecord
	m.audit.EXPECT().
		Record(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, r domain.AuditRecord) (domain.AuditRecord, error) {
			recorded = r
			return r, nil
		})

	decision, err := newService(m).EvaluateAccess(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, domain.VerdictDenied, decision.Verdict)
	assert.Equal(t, domain.ReasonRiskExceedsThreshold, decision.Reason)
	assert.Equal(t, domain.VerdictDenied, recorded.Verdict)
	assert.Equal(t, float64(95), recorded.RiskScore)
}

func TestSessionGaugeTracksIssueAndRevoke(t *testing.T) {
	ctrl := gomock.NewController(t)
	m := newPipelineMocks(ctrl)
	req := testRequest()

	m.identity.EXPECT().Verify(gomock.Any(), req.Token).Return(verifiedAlice(), nil)
	m.device.EXPECT().Assess(gomock.Any(), req.Certificate, req.Posture).Return(trustedDevice(), nil)
	m.scorer.EXPECT().Score(gomock.Any(), gomock.Any(), gomock.Any()).Return(lowRisk())
	m.policy.EXPECT().
		Evaluate(gomock.Any(), gomock.Any(), gomock.Any(), req.Resource).
		Return(policy.Outcome{
			Verdict:       domain.VerdictAllowed,
			Reason:        domain.ReasonPolicyAllowed,
			RuleID:        "r1",
			PolicyVersion: "v1",
		})
	m.sessions.EXPECT().
		Issue(gomock.Any(), gomock.Any(), "abc123").
		Return(&domain.Session{ID: "sess-1", PrincipalID: "alice"}, nil)
	auditOK(m)

	pm := metrics.New()
	svc := pdp.NewService(m.identity, m.device, m.scorer, m.policy, m.sessions, m.audit,
		pdp.WithMetrics(pm))

	_, err := svc.EvaluateAccess(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 1.0, promtestutil.ToFloat64(pm.ActiveSessions))

	m.sessions.EXPECT().Revoke(gomock.Any(), "sess-1").Return(nil)
	require.NoError(t, svc.RevokeSession(context.Background(), "sess-1"))
	assert.Equal(t, 0.0, promtestutil.ToFloat64(pm.ActiveSessions))

	// A failed revocation leaves the gauge untouched.
	m.sessions.EXPECT().Revoke(gomock.Any(), "sess-2").Return(errors.New("store down"))
	require.Error(t, svc.RevokeSession(context.Background(), "sess-2"))
	assert.Equal(t, 0.0, promtestutil.ToFloat64(pm.ActiveSessions))
}

func TestEvaluateAccess_CanceledDuringAuditDeniesAsCanceled(t *testing.T) {
	ctrl := gomock.NewController(t)
	m := newPipelineMocks(ctrl)
	req := testRequest()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m.identity.EXPECT().Verify(gomock.Any(), req.Token).Return(verifiedAlice(), nil)
	m.device.EXPECT().Assess(gomock.Any(), req.Certificate, req.Posture).Return(trustedDevice(), nil)
	m.scorer.EXPECT().Score(gomock.Any(), gomock.Any(), gomock.Any()).Return(lowRisk())
	m.policy.EXPECT().
		Evaluate(gomock.Any(), gomock.Any(), gomock.Any(), req.Resource).
		Return(policy.Outcome{
			Verdict:       domain.VerdictAllowed,
			Reason:        domain.ReasonPolicyAllowed,
			RuleID:        "r1",
			PolicyVersion: "v1",
		})
	m.sessions.EXPECT().
		Issue(gomock.Any(), gomock.Any(), "abc123").
		Return(&domain.Session{ID: "sess-1", PrincipalID: "alice"}, nil)
	m.audit.EXPECT().
		Record(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, r domain.AuditRecord) (domain.AuditRecord, error) {
			cancel()
			return r, context.Canceled
		})
	m.sessions.EXPECT().Revoke(gomock.Any(), "sess-1").Return(nil)

	decision, err := newService(m).EvaluateAccess(ctx, req)
	require.NoError(t, err)

	assert.Equal(t, domain.VerdictDenied, decision.Verdict)
	assert.Equal(t, domain.ReasonEvaluationCanceled, decision.Reason)
	assert.Empty(t, decision.SessionID)
}
