package device

import (
	"context"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"sentra/internal/device/revocation"
	"sentra/internal/domain"
	"sentra/internal/platform/config"
	"sentra/pkg/platform/circuit"
)

// Typed assessment failures for the orchestrator to map to reason codes.
var (
	ErrCertificateInvalid    = errors.New("certificate invalid")
	ErrCertificateRevoked    = errors.New("certificate revoked")
	ErrRevocationCheckFailed = errors.New("revocation check failed")
)

// Assessor validates a device certificate chain against the internal root and
// derives a trust level from revocation state and posture attributes. Trust is
// recomputed on every request; nothing here is cached.
type Assessor struct {
	roots      *x509.CertPool
	revocation revocation.Source
	breaker    *circuit.Breaker
	cfg        config.DeviceConfig
	logger     *slog.Logger
}

// NewAssessor constructs an Assessor. The breaker guards the revocation
// source: while open, assessments skip the source and fall back to untrusted.
func NewAssessor(roots *x509.CertPool, source revocation.Source, cfg config.DeviceConfig, logger *slog.Logger) *Assessor {
	return &Assessor{
		roots:      roots,
		revocation: source,
		breaker:    circuit.New("revocation"),
		cfg:        cfg,
		logger:     logger,
	}
}

// Assess validates the certificate and posture, producing a trust level.
// A revocation-source failure downgrades to untrusted and returns
// ErrRevocationCheckFailed; it never silently passes as trusted.
func (a *Assessor) Assess(ctx context.Context, certPEM string, posture domain.DevicePosture) (domain.DeviceAssessment, error) {
	cert, err := a.parseAndVerify(certPEM)
	if err != nil {
		return domain.DeviceAssessment{TrustLevel: domain.TrustLevelUntrusted}, err
	}
	certID := cert.SerialNumber.Text(16)

	status, degraded := a.checkRevocation(ctx, certID)
	switch status {
	case revocation.StatusRevoked:
		return domain.DeviceAssessment{
			CertificateID: certID,
			TrustLevel:    domain.TrustLevelUntrusted,
		}, fmt.Errorf("%w: certificate %s", ErrCertificateRevoked, certID)
	case revocation.StatusUnknown:
		return domain.DeviceAssessment{
			CertificateID: certID,
			TrustLevel:    domain.TrustLevelUntrusted,
			Degraded:      degraded,
		}, ErrRevocationCheckFailed
	}

	return domain.DeviceAssessment{
		CertificateID: certID,
		TrustLevel:    a.postureTrust(posture),
	}, nil
}

func (a *Assessor) parseAndVerify(certPEM string) (*x509.Certificate, error) {
	block, _ := pem.Decode([]byte(certPEM))
	if block == nil || block.Type != "CERTIFICATE" {
		return nil, fmt.Errorf("%w: not PEM-encoded", ErrCertificateInvalid)
	}
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCertificateInvalid, err)
	}
	_, err = cert.Verify(x509.VerifyOptions{
		Roots:     a.roots,
		KeyUsages: []x509.ExtKeyUsage{x509.ExtKeyUsageClientAuth},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: chain verification: %v", ErrCertificateInvalid, err)
	}
	return cert, nil
}

// checkRevocation consults the source behind the circuit breaker. The second
// return reports degraded mode (breaker open or source failure).
func (a *Assessor) checkRevocation(ctx context.Context, certID string) (revocation.Status, bool) {
	if a.breaker.IsOpen() {
		// Probe the source anyway so the breaker can close again, but do not
		// wait longer than the configured bound.
		status, err := a.checkOnce(ctx, certID)
		if err != nil || status == revocation.StatusUnknown {
			a.breaker.RecordFailure()
			return revocation.StatusUnknown, true
		}
		if usePrimary, change := a.breaker.RecordSuccess(); !usePrimary {
			return revocation.StatusUnknown, true
		} else if change.Closed && a.logger != nil {
			a.logger.InfoContext(ctx, "revocation source recovered, circuit closed")
		}
		return status, false
	}

	status, err := a.checkOnce(ctx, certID)
	if err != nil || status == revocation.StatusUnknown {
		_, change := a.breaker.RecordFailure()
		if change.Opened && a.logger != nil {
			a.logger.WarnContext(ctx, "revocation source failing, circuit opened", "error", err)
		}
		return revocation.StatusUnknown, true
	}
	a.breaker.RecordSuccess()
	return status, false
}

func (a *Assessor) checkOnce(ctx context.Context, certID string) (revocation.Status, error) {
	if a.cfg.RevocationTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.RevocationTimeout)
		defer cancel()
	}
	return a.revocation.Check(ctx, certID)
}

// postureTrust maps posture threshold failures to a trust level: one failure
// drops to partially trusted, two or more to untrusted.
func (a *Assessor) postureTrust(posture domain.DevicePosture) domain.TrustLevel {
	failures := 0
	if a.cfg.RequireEncryption && !posture.DiskEncrypted {
		failures++
	}
	if posture.PatchLevel < a.cfg.MinPatchLevel {
		failures++
	}
	if a.cfg.MaxLastSeenAge > 0 && !posture.LastSeenAt.IsZero() &&
		time.Since(posture.LastSeenAt) > a.cfg.MaxLastSeenAge {
		failures++
	}

	switch failures {
	case 0:
		return domain.TrustLevelTrusted
	case 1:
		return domain.TrustLevelPartiallyTrusted
	default:
		return domain.TrustLevelUntrusted
	}
}
