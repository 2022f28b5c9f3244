package session

import (
	"context"
	"time"

	"sentra/internal/domain"
)

// Store persists sessions. Revocation writes must be visible to all readers
// before Revoke returns; the re-validation loop depends on ListActive seeing
// a consistent snapshot.
type Store interface {
	Create(ctx context.Context, session *domain.Session) error
	FindByID(ctx context.Context, id string) (*domain.Session, error)
	Revoke(ctx context.Context, id string, at time.Time) error
	ListActive(ctx context.Context) ([]*domain.Session, error)
	ActiveCount(ctx context.Context) (int, error)
}
