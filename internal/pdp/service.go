package pdp

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"sentra/internal/device"
	"sentra/internal/domain"
	"sentra/internal/identity"
	"sentra/internal/pdp/metrics"
	"sentra/internal/policy"
	"sentra/internal/risk"
)

const tracerName = "sentra/internal/pdp"

// unknownPrincipal keys audit records for requests whose identity never
// verified. Those decisions still get a durable record.
const unknownPrincipal = "unknown"

// Service orchestrates one access evaluation end to end: verify identity and
// device in parallel, score risk, evaluate policy, issue a session on ALLOWED,
// and record the decision durably before responding. Any stage failure
// resolves to DENIED; never an error without a decision.
type Service struct {
	identity IdentityVerifier
	device   DeviceAssessor
	scorer   RiskScorer
	policy   PolicyEvaluator
	sessions SessionManager
	audit    AuditRecorder
	metrics  *metrics.Metrics
	logger   *slog.Logger
	tracer   trace.Tracer
}

// Option configures optional Service collaborators.
type Option func(*Service)

// WithLogger attaches a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithMetrics attaches pipeline metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// NewService wires the pipeline stages together.
func NewService(
	verifier IdentityVerifier,
	assessor DeviceAssessor,
	scorer RiskScorer,
	evaluator PolicyEvaluator,
	sessions SessionManager,
	audit AuditRecorder,
	opts ...Option,
) *Service {
	s := &Service{
		identity: verifier,
		device:   assessor,
		scorer:   scorer,
		policy:   evaluator,
		sessions: sessions,
		audit:    audit,
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EvaluateAccess produces exactly one Decision for the request. The decision
// is recorded durably before it is returned; if the record cannot be made
// durable the verdict is forced to DENIED and any session issued for it is
// revoked.
func (s *Service) EvaluateAccess(ctx context.Context, req domain.AccessRequest) (domain.Decision, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "pdp.EvaluateAccess",
		trace.WithAttributes(attribute.String("resource", req.Resource)))
	defer span.End()

	decision := s.evaluate(ctx, req)

	decision = s.record(ctx, req, decision)

	span.SetAttributes(
		attribute.String("verdict", string(decision.Verdict)),
		attribute.String("reason", string(decision.Reason)),
	)
	s.metrics.IncrementOutcome(string(decision.Verdict), string(decision.Reason))
	s.metrics.ObserveEvaluateLatency(time.Since(start))

	if s.logger != nil {
		s.logger.InfoContext(ctx, "access evaluated",
			"decision_id", decision.ID,
			"verdict", decision.Verdict,
			"reason", decision.Reason,
			"principal_id", decision.PrincipalID,
			"resource", req.Resource,
			"risk_score", decision.RiskScore.Value,
		)
	}
	return decision, nil
}

// evaluate runs the signal and policy stages. It always returns a complete
// decision; failures surface as DENIED verdicts with mapped reason codes.
func (s *Service) evaluate(ctx context.Context, req domain.AccessRequest) domain.Decision {
	decision := domain.Decision{
		ID:                uuid.NewString(),
		PrincipalID:       unknownPrincipal,
		Resource:          req.Resource,
		InputsFingerprint: req.Fingerprint(),
		EvaluatedAt:       time.Now().UTC(),
	}

	verified, assessment, identityErr, deviceErr := s.gatherSignals(ctx, req)
	if verified.Principal.ID != "" {
		decision.PrincipalID = verified.Principal.ID
	}

	// Identity failures take precedence over device failures so the caller
	// always sees the same reason for the same broken credential pair.
	if identityErr != nil {
		return deny(decision, reasonForIdentityError(ctx, identityErr))
	}
	if deviceErr != nil {
		return deny(decision, reasonForDeviceError(ctx, deviceErr))
	}

	score := s.scorer.Score(verified, assessment, req.Context)
	decision.RiskScore = score

	if risk.ImpossibleTravel(score) {
		return deny(decision, domain.ReasonImpossibleTravel)
	}

	outcome := s.evaluatePolicy(ctx, verified.Principal, assessment.TrustLevel, score, req.Resource)
	decision.Verdict = outcome.Verdict
	decision.Reason = outcome.Reason
	decision.RuleID = outcome.RuleID
	decision.PolicyVersion = outcome.PolicyVersion

	if decision.Verdict == domain.VerdictAllowed {
		sessionStart := time.Now()
		session, err := s.sessions.Issue(ctx, decision, assessment.CertificateID)
		s.metrics.ObserveStageLatency("session", time.Since(sessionStart))
		if err != nil {
			if s.logger != nil {
				s.logger.ErrorContext(ctx, "session issuance failed", "error", err)
			}
			return deny(decision, domain.ReasonDependencyUnavailable)
		}
		decision.SessionID = session.ID
		s.metrics.IncActiveSessions()
	}
	return decision
}

// gatherSignals verifies the token and assesses the device concurrently.
// Both results are collected even when one side fails.
func (s *Service) gatherSignals(ctx context.Context, req domain.AccessRequest) (domain.VerifiedIdentity, domain.DeviceAssessment, error, error) {
	var (
		verified    domain.VerifiedIdentity
		assessment  domain.DeviceAssessment
		identityErr error
		deviceErr   error
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		stageStart := time.Now()
		verified, identityErr = s.identity.Verify(gctx, req.Token)
		s.metrics.ObserveStageLatency("identity", time.Since(stageStart))
		return nil
	})

	g.Go(func() error {
		stageStart := time.Now()
		assessment, deviceErr = s.device.Assess(gctx, req.Certificate, req.Posture)
		s.metrics.ObserveStageLatency("device", time.Since(stageStart))
		return nil
	})

	_ = g.Wait()
	return verified, assessment, identityErr, deviceErr
}

func (s *Service) evaluatePolicy(ctx context.Context, principal domain.Principal, trust domain.TrustLevel, score domain.RiskScore, resource string) policy.Outcome {
	_, span := s.tracer.Start(ctx, "pdp.policy")
	defer span.End()

	stageStart := time.Now()
	outcome := s.policy.Evaluate(principal, trust, score, resource)
	s.metrics.ObserveStageLatency("policy", time.Since(stageStart))
	return outcome
}

// record writes the audit record for the decision. Failure to make the record
// durable forces the verdict to DENIED and revokes any session already issued.
func (s *Service) record(ctx context.Context, req domain.AccessRequest, decision domain.Decision) domain.Decision {
	stageStart := time.Now()
	_, err := s.audit.Record(ctx, domain.AuditRecord{
		PrincipalID:       decision.PrincipalID,
		DecisionID:        decision.ID,
		Verdict:           decision.Verdict,
		Reason:            decision.Reason,
		Resource:          req.Resource,
		PolicyVersion:     decision.PolicyVersion,
		RiskScore:         decision.RiskScore.Value,
		InputsFingerprint: decision.InputsFingerprint,
	})
	s.metrics.ObserveStageLatency("audit", time.Since(stageStart))
	if err == nil {
		return decision
	}

	s.metrics.IncrementAuditFailure()
	if s.logger != nil {
		s.logger.ErrorContext(ctx, "audit write failed, denying",
			"decision_id", decision.ID,
			"error", err,
		)
	}

	if decision.SessionID != "" {
		if revokeErr := s.sessions.Revoke(ctx, decision.SessionID); revokeErr != nil {
			if s.logger != nil {
				s.logger.ErrorContext(ctx, "failed to revoke session after audit failure",
					"session_id", decision.SessionID,
					"error", revokeErr,
				)
			}
		} else {
			s.metrics.DecActiveSessions()
		}
		decision.SessionID = ""
	}
	if ctx.Err() != nil {
		return deny(decision, domain.ReasonEvaluationCanceled)
	}
	return deny(decision, domain.ReasonAuditUnavailable)
}

// IntrospectSession reports a session's current state.
func (s *Service) IntrospectSession(ctx context.Context, id string) (*domain.Session, error) {
	return s.sessions.Introspect(ctx, id)
}

// RevokeSession revokes a session immediately. Subsequent introspections see
// the revocation before this call returns.
func (s *Service) RevokeSession(ctx context.Context, id string) error {
	if err := s.sessions.Revoke(ctx, id); err != nil {
		return err
	}
	s.metrics.DecActiveSessions()
	return nil
}

func deny(decision domain.Decision, reason domain.ReasonCode) domain.Decision {
	decision.Verdict = domain.VerdictDenied
	decision.Reason = reason
	decision.RuleID = ""
	decision.SessionID = ""
	return decision
}

func reasonForIdentityError(ctx context.Context, err error) domain.ReasonCode {
	switch {
	case errors.Is(err, identity.ErrVerifyTimeout):
		return domain.ReasonIdentityTimeout
	case errors.Is(err, identity.ErrExpiredToken):
		return domain.ReasonIdentityExpired
	case errors.Is(err, identity.ErrUnknownIssuer):
		return domain.ReasonUnknownIssuer
	case errors.Is(err, context.Canceled), errors.Is(ctx.Err(), context.Canceled):
		return domain.ReasonEvaluationCanceled
	default:
		return domain.ReasonIdentityInvalid
	}
}

func reasonForDeviceError(ctx context.Context, err error) domain.ReasonCode {
	switch {
	case errors.Is(err, device.ErrRevocationCheckFailed):
		return domain.ReasonRevocationUnavailable
	case errors.Is(err, context.Canceled), errors.Is(ctx.Err(), context.Canceled):
		return domain.ReasonEvaluationCanceled
	default:
		return domain.ReasonDeviceUntrusted
	}
}
