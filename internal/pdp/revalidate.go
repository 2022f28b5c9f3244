package pdp

import (
	"context"
	"log/slog"
	"time"

	"sentra/internal/domain"
	"sentra/internal/pdp/metrics"
	"sentra/internal/policy"
)

// Revalidator periodically re-checks live sessions against the active rule
// set. A session issued under a superseded policy version is re-evaluated
// with the signals the session retained; anything short of ALLOWED revokes
// it. Holding a session never grandfathers access past a policy change.
type Revalidator struct {
	sessions SessionManager
	store    *policy.Store
	metrics  *metrics.Metrics
	logger   *slog.Logger
	interval time.Duration
}

// NewRevalidator constructs the loop worker.
func NewRevalidator(sessions SessionManager, store *policy.Store, interval time.Duration, m *metrics.Metrics, logger *slog.Logger) *Revalidator {
	return &Revalidator{
		sessions: sessions,
		store:    store,
		metrics:  m,
		logger:   logger,
		interval: interval,
	}
}

// Run re-validates on the configured interval until the context is canceled.
func (r *Revalidator) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep(ctx)
		}
	}
}

// Sweep runs one re-validation pass and returns the number of sessions
// revoked.
func (r *Revalidator) Sweep(ctx context.Context) int {
	sessions, err := r.sessions.ListActive(ctx)
	if err != nil {
		if r.logger != nil {
			r.logger.ErrorContext(ctx, "revalidation list failed", "error", err)
		}
		return 0
	}
	r.metrics.SetActiveSessions(len(sessions))

	active := r.store.Active()
	revoked := 0
	for _, session := range sessions {
		if !r.shouldRevoke(session, active) {
			continue
		}
		if err := r.sessions.Revoke(ctx, session.ID); err != nil {
			if r.logger != nil {
				r.logger.ErrorContext(ctx, "revalidation revoke failed",
					"session_id", session.ID,
					"error", err,
				)
			}
			continue
		}
		revoked++
		r.metrics.IncrementRevalidationRevocation("policy_changed")
		if r.logger != nil {
			r.logger.InfoContext(ctx, "session revoked by revalidation",
				"session_id", session.ID,
				"principal_id", session.PrincipalID,
				"session_policy", session.PolicyVersion,
				"active_policy", active.Version,
			)
		}
	}
	if revoked > 0 {
		r.metrics.SetActiveSessions(len(sessions) - revoked)
	}
	return revoked
}

// shouldRevoke re-evaluates a session issued under a superseded rule set. The
// retained signals are partial (principal ID and risk score only), so rules
// with role or attribute predicates will not match and the session fails
// closed toward revocation.
func (r *Revalidator) shouldRevoke(session *domain.Session, active *policy.RuleSet) bool {
	if session.PolicyVersion == active.Version {
		return false
	}
	outcome := policy.EvaluateAgainst(active,
		domain.Principal{ID: session.PrincipalID},
		domain.TrustLevelUntrusted,
		domain.RiskScore{Value: session.RiskScore},
		session.Resource,
	)
	return outcome.Verdict != domain.VerdictAllowed
}
