package revocation

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
)

var checkDurationMs = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "sentra_revocation_check_duration_ms",
	Help:    "Latency of certificate revocation checks in milliseconds",
	Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25},
})

const revokedCertKeyPrefix = "crl:cert:"

// RedisSource is a Redis-backed revocation list shared across PDP instances.
// Revocations written by any instance are visible to all readers immediately,
// which the synchronous-revocation contract requires.
type RedisSource struct {
	client *redis.Client
}

// NewRedisSource constructs a Redis-backed revocation source.
func NewRedisSource(client *redis.Client) *RedisSource {
	return &RedisSource{client: client}
}

// Revoke marks a certificate revoked. A zero ttl keeps the entry until the
// certificate would have expired anyway; sources should pass the remaining
// certificate lifetime so the list self-prunes.
func (s *RedisSource) Revoke(ctx context.Context, certificateID string, ttl time.Duration) error {
	if certificateID == "" {
		return nil
	}
	key := revokedCertKeyPrefix + certificateID
	// Key existence is the marker; the value is irrelevant.
	return s.client.Set(ctx, key, "1", ttl).Err()
}

// Check answers revoked/valid, or unknown when Redis cannot be reached.
func (s *RedisSource) Check(ctx context.Context, certificateID string) (Status, error) {
	start := time.Now()
	defer func() {
		checkDurationMs.Observe(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	if certificateID == "" {
		return StatusUnknown, errors.New("empty certificate id")
	}
	key := revokedCertKeyPrefix + certificateID
	_, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return StatusValid, nil
	}
	if err != nil {
		return StatusUnknown, err
	}
	return StatusRevoked, nil
}
