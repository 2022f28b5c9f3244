package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sentra/internal/audit"
	"sentra/internal/device"
	"sentra/internal/device/revocation"
	"sentra/internal/identity"
	"sentra/internal/pdp"
	"sentra/internal/pdp/metrics"
	"sentra/internal/platform/config"
	"sentra/internal/platform/httpserver"
	"sentra/internal/platform/logger"
	platformredis "sentra/internal/platform/redis"
	"sentra/internal/policy"
	"sentra/internal/risk"
	"sentra/internal/session"
	httptransport "sentra/internal/transport/http"
)

// main wires dependencies and keeps the server lifecycle small. Decision
// logic lives in the internal packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New(logger.ParseLevel(cfg.LogLevel))

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rdb, err := platformredis.New(cfg.Redis)
	if err != nil {
		return err
	}
	if rdb != nil {
		defer rdb.Close()
	}

	// Stores fall back to in-memory when Redis is not configured.
	var (
		sessionStore session.Store
		crlSource    revocation.Source
		memSessions  *session.InMemoryStore
	)
	if rdb != nil {
		sessionStore = session.NewRedisStore(rdb.Client)
		crlSource = revocation.NewRedisSource(rdb.Client)
	} else {
		memSessions = session.NewInMemoryStore()
		sessionStore = memSessions
		crlSource = revocation.NewInMemorySource()
	}

	keySource, err := loadIssuerKeys(cfg.Identity.KeysFile)
	if err != nil {
		return err
	}
	roots, rootCerts, err := loadDeviceRoots(cfg.Device.RootCAFile)
	if err != nil {
		return err
	}
	if cfg.Device.OCSPResponderURL != "" {
		if len(rootCerts) == 0 {
			return fmt.Errorf("OCSP responder configured without a device CA bundle")
		}
		crlSource, err = revocation.NewOCSPSource(cfg.Device.OCSPResponderURL, rootCerts[0], cfg.Device.RevocationTimeout)
		if err != nil {
			return err
		}
	}
	store, err := loadPolicyStore(cfg.Policy.BundleFile)
	if err != nil {
		return err
	}

	verifier := identity.NewVerifier(keySource, cfg.Identity.Audience, cfg.Identity.VerifyTimeout)
	assessor := device.NewAssessor(roots, crlSource, cfg.Device, log)
	scorer := risk.NewScorer(cfg.Risk)
	evaluator := policy.NewEvaluator(store)
	sessions := session.NewManager(sessionStore, cfg.Session, log)

	sink, closeSink, err := buildAuditSink(ctx, cfg.Audit)
	if err != nil {
		return err
	}
	defer closeSink()
	recorder := audit.NewRecorder(sink, cfg.Audit, log)
	if err := recorder.Restore(ctx); err != nil {
		return err
	}

	m := metrics.New()
	svc := pdp.NewService(verifier, assessor, scorer, evaluator, sessions, recorder,
		pdp.WithLogger(log),
		pdp.WithMetrics(m),
	)

	var health httptransport.HealthChecker
	if rdb != nil {
		health = rdb
	}
	handler := httptransport.NewHandler(svc, store, health, log)
	srv := httpserver.New(cfg.Addr, httptransport.NewRouter(handler))

	revalidator := pdp.NewRevalidator(sessions, store, cfg.Revalidate.Interval, m, log)
	go revalidator.Run(ctx)
	go recorder.RunReconciler(ctx, 30*time.Second)
	if memSessions != nil {
		go memSessions.RunJanitor(ctx, time.Minute)
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting sentra", "addr", cfg.Addr, "policy_version", store.Active().Version)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info("shutdown complete")
	return nil
}
