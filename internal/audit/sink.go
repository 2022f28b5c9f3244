package audit

import (
	"context"
	"sync"

	"sentra/internal/domain"
)

// Sink durably persists audit records. Append returns only once the backing
// store has acknowledged the write; an error means durability was NOT
// confirmed and the caller must fail closed.
type Sink interface {
	Append(ctx context.Context, record domain.AuditRecord) error
}

// InMemorySink keeps records in process memory. It backs tests and
// single-instance development; production uses the Kafka or Postgres sink.
type InMemorySink struct {
	mu      sync.RWMutex
	records []domain.AuditRecord
}

// NewInMemorySink builds an empty sink.
func NewInMemorySink() *InMemorySink {
	return &InMemorySink{}
}

// Append stores the record.
func (s *InMemorySink) Append(_ context.Context, record domain.AuditRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, record)
	return nil
}

// ListByPrincipal returns the principal's records in append order.
func (s *InMemorySink) ListByPrincipal(principalID string) []domain.AuditRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.AuditRecord
	for _, r := range s.records {
		if r.PrincipalID == principalID {
			out = append(out, r)
		}
	}
	return out
}

// All returns every record in append order.
func (s *InMemorySink) All() []domain.AuditRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.AuditRecord, len(s.records))
	copy(out, s.records)
	return out
}
