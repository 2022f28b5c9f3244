package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"sentra/internal/domain"
	"sentra/internal/policy"
	"sentra/pkg/platform/httputil"
	"sentra/pkg/requestcontext"
)

// AccessService is the decision pipeline surface the transport needs.
type AccessService interface {
	EvaluateAccess(ctx context.Context, req domain.AccessRequest) (domain.Decision, error)
	IntrospectSession(ctx context.Context, id string) (*domain.Session, error)
	RevokeSession(ctx context.Context, id string) error
}

// HealthChecker reports backend reachability for /healthz.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Handler is the thin HTTP layer. It delegates to the access service and the
// policy store without embedding decision logic.
type Handler struct {
	access AccessService
	store  *policy.Store
	health HealthChecker
	logger *slog.Logger
}

// NewHandler constructs the transport handler. health may be nil when no
// external backend needs checking.
func NewHandler(access AccessService, store *policy.Store, health HealthChecker, logger *slog.Logger) *Handler {
	return &Handler{
		access: access,
		store:  store,
		health: health,
		logger: logger,
	}
}

// Register mounts all endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/v1", func(r chi.Router) {
		r.Post("/access/evaluate", h.HandleEvaluate)
		r.Get("/sessions/{sessionID}", h.HandleIntrospectSession)
		r.Delete("/sessions/{sessionID}", h.HandleRevokeSession)
		r.Post("/policy/reload", h.HandleReloadPolicy)
		r.Get("/policy/version", h.HandlePolicyVersion)
	})
	r.Get("/healthz", h.HandleHealth)
}

// HandleEvaluate handles POST /v1/access/evaluate.
func (h *Handler) HandleEvaluate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	req, err := httputil.Decode[EvaluateRequest](r)
	if err != nil {
		httputil.WriteBadRequest(w, "malformed request body")
		return
	}
	if req.Token == "" || req.Certificate == "" || req.Resource == "" {
		httputil.WriteBadRequest(w, "token, certificate and resource are required")
		return
	}

	decision, err := h.access.EvaluateAccess(ctx, req.toDomain())
	if err != nil {
		h.logger.ErrorContext(ctx, "access evaluation failed",
			"request_id", requestcontext.RequestID(ctx),
			"resource", req.Resource,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "access evaluated",
		"request_id", requestcontext.RequestID(ctx),
		"decision_id", decision.ID,
		"verdict", decision.Verdict,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, fromDecision(decision))
}

// HandleIntrospectSession handles GET /v1/sessions/{sessionID}.
func (h *Handler) HandleIntrospectSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID := chi.URLParam(r, "sessionID")

	session, err := h.access.IntrospectSession(ctx, sessionID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, fromSession(session, time.Now()))
}

// HandleRevokeSession handles DELETE /v1/sessions/{sessionID}. Revocation is
// synchronous: once this returns 204 the session introspects as revoked.
func (h *Handler) HandleRevokeSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID := chi.URLParam(r, "sessionID")

	if err := h.access.RevokeSession(ctx, sessionID); err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "session revoked",
		"request_id", requestcontext.RequestID(ctx),
		"session_id", sessionID,
	)
	w.WriteHeader(http.StatusNoContent)
}

// HandleReloadPolicy handles POST /v1/policy/reload. The bundle is validated
// in full before the swap; a rejected bundle leaves the active set untouched.
func (h *Handler) HandleReloadPolicy(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	bundle, err := httputil.Decode[policy.Bundle](r)
	if err != nil {
		httputil.WriteBadRequest(w, "malformed policy bundle")
		return
	}

	if err := h.store.Reload(bundle); err != nil {
		h.logger.WarnContext(ctx, "policy reload rejected",
			"request_id", requestcontext.RequestID(ctx),
			"version", bundle.Version,
			"error", err,
		)
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	h.logger.InfoContext(ctx, "policy reloaded",
		"request_id", requestcontext.RequestID(ctx),
		"version", bundle.Version,
		"rules", len(bundle.Rules),
	)
	httputil.WriteJSON(w, http.StatusOK, ReloadResponse{
		Version: bundle.Version,
		Rules:   len(bundle.Rules),
	})
}

// HandlePolicyVersion handles GET /v1/policy/version.
func (h *Handler) HandlePolicyVersion(w http.ResponseWriter, r *http.Request) {
	active := h.store.Active()
	httputil.WriteJSON(w, http.StatusOK, PolicyVersionResponse{
		Version: active.Version,
		Rules:   len(active.Rules),
		Swaps:   h.store.Swaps(),
	})
}

// HandleHealth handles GET /healthz.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		if err := h.health.Health(r.Context()); err != nil {
			httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
