package identity

import (
	"context"
	"fmt"
	"sync"

	"sentra/pkg/platform/sentinel"
)

// StaticKeySource serves verification keys for a fixed set of issuers. It
// backs single-tenant deployments and tests; production deployments wrap the
// issuer's key endpoint behind the same interface.
type StaticKeySource struct {
	mu   sync.RWMutex
	keys map[string]any
}

// NewStaticKeySource builds a key source from an issuer-to-key map.
func NewStaticKeySource(keys map[string]any) *StaticKeySource {
	copied := make(map[string]any, len(keys))
	for iss, k := range keys {
		copied[iss] = k
	}
	return &StaticKeySource{keys: copied}
}

// Key returns the issuer's verification key, ignoring keyID since static
// sources hold one key per issuer.
func (s *StaticKeySource) Key(_ context.Context, issuer, _ string) (any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	key, ok := s.keys[issuer]
	if !ok {
		return nil, fmt.Errorf("issuer %q: %w", issuer, sentinel.ErrNotFound)
	}
	return key, nil
}

// SetKey replaces the key for an issuer, supporting key rotation without
// restart.
func (s *StaticKeySource) SetKey(issuer string, key any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[issuer] = key
}
