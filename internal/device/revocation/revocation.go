// Package revocation provides certificate revocation lookups (CRL/OCSP
// equivalent). The source answers revoked/valid/unknown; "unknown" is always
// treated as untrusted by callers.
package revocation

import (
	"context"
	"sync"
)

// Status is the tri-state answer from a revocation source.
type Status string

const (
	StatusValid   Status = "valid"
	StatusRevoked Status = "revoked"
	StatusUnknown Status = "unknown"
)

// Source answers whether a certificate identifier is revoked. Implementations
// must honor context cancellation; an error is equivalent to StatusUnknown.
type Source interface {
	Check(ctx context.Context, certificateID string) (Status, error)
}

// InMemorySource is a concurrency-safe revocation list for single-instance
// deployments and tests.
type InMemorySource struct {
	mu      sync.RWMutex
	revoked map[string]struct{}
}

// NewInMemorySource builds an empty in-memory revocation list.
func NewInMemorySource() *InMemorySource {
	return &InMemorySource{revoked: make(map[string]struct{})}
}

// Revoke adds a certificate identifier to the list.
func (s *InMemorySource) Revoke(certificateID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked[certificateID] = struct{}{}
}

// Check reports whether the certificate identifier is on the list.
func (s *InMemorySource) Check(_ context.Context, certificateID string) (Status, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.revoked[certificateID]; ok {
		return StatusRevoked, nil
	}
	return StatusValid, nil
}
