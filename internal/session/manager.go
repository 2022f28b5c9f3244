package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"sentra/internal/domain"
	"sentra/internal/platform/config"
	"sentra/pkg/platform/sentinel"
)

// Manager issues, introspects, and revokes bounded-lifetime sessions. A
// session only ever exists downstream of an ALLOWED decision; Issue enforces
// that invariant rather than trusting callers.
type Manager struct {
	store  Store
	cfg    config.SessionConfig
	logger *slog.Logger
}

// NewManager constructs a Manager.
func NewManager(store Store, cfg config.SessionConfig, logger *slog.Logger) *Manager {
	return &Manager{store: store, cfg: cfg, logger: logger}
}

// Issue creates a session for an ALLOWED decision. TTL shrinks linearly as
// risk grows, bounded by the configured min/max.
func (m *Manager) Issue(ctx context.Context, decision domain.Decision, certificateID string) (*domain.Session, error) {
	if decision.Verdict != domain.VerdictAllowed {
		return nil, fmt.Errorf("cannot issue session for %s decision: %w",
			decision.Verdict, sentinel.ErrInvalidState)
	}

	now := decision.EvaluatedAt
	if now.IsZero() {
		now = time.Now()
	}

	session := &domain.Session{
		ID:            uuid.NewString(),
		PrincipalID:   decision.PrincipalID,
		CertificateID: certificateID,
		Resource:      decision.Resource,
		PolicyVersion: decision.PolicyVersion,
		RiskScore:     decision.RiskScore.Value,
		IssuedAt:      now,
		ExpiresAt:     now.Add(m.TTLFor(decision.RiskScore.Value)),
	}
	if err := m.store.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	if m.logger != nil {
		m.logger.InfoContext(ctx, "session issued",
			"session_id", session.ID,
			"principal_id", session.PrincipalID,
			"resource", session.Resource,
			"expires_at", session.ExpiresAt,
		)
	}
	return session, nil
}

// TTLFor maps a risk score in [0,100] onto the configured TTL range: zero
// risk gets the maximum, maximum risk the minimum. Non-increasing in risk.
func (m *Manager) TTLFor(risk float64) time.Duration {
	if risk < 0 {
		risk = 0
	}
	if risk > 100 {
		risk = 100
	}
	span := m.cfg.MaxTTL - m.cfg.MinTTL
	if span < 0 {
		span = 0
	}
	return m.cfg.MaxTTL - time.Duration(float64(span)*risk/100)
}

// Introspect returns the session's current state read-only.
func (m *Manager) Introspect(ctx context.Context, id string) (*domain.Session, error) {
	return m.store.FindByID(ctx, id)
}

// Revoke revokes a session effective immediately. The store guarantees the
// write is visible to all subsequent evaluations before this returns.
func (m *Manager) Revoke(ctx context.Context, id string) error {
	if err := m.store.Revoke(ctx, id, time.Now()); err != nil {
		return err
	}
	if m.logger != nil {
		m.logger.InfoContext(ctx, "session revoked", "session_id", id)
	}
	return nil
}

// ListActive returns the live sessions, for the re-validation loop.
func (m *Manager) ListActive(ctx context.Context) ([]*domain.Session, error) {
	return m.store.ListActive(ctx)
}

// ActiveCount feeds the active-session gauge.
func (m *Manager) ActiveCount(ctx context.Context) (int, error) {
	return m.store.ActiveCount(ctx)
}
