package audit

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"sentra/internal/domain"
	"sentra/internal/platform/config"
)

// maxDeadLetters bounds the reconciliation backlog; beyond it the oldest
// failed record is dropped (and counted) rather than growing without bound.
const maxDeadLetters = 1024

// Recorder assigns per-principal sequence numbers and drives records through
// the sink with bounded retries. A Record call that returns nil guarantees
// the sink acknowledged durability; an error guarantees the caller will see
// the record again via the dead-letter backlog, flagged as a delivery
// failure.
type Recorder struct {
	sink   Sink
	cfg    config.AuditConfig
	logger *slog.Logger

	mu          sync.Mutex
	seq         map[string]uint64
	deadLetters []domain.AuditRecord
	dropped     uint64
}

// NewRecorder constructs a Recorder over the given sink.
func NewRecorder(sink Sink, cfg config.AuditConfig, logger *slog.Logger) *Recorder {
	return &Recorder{
		sink:   sink,
		cfg:    cfg,
		logger: logger,
		seq:    make(map[string]uint64),
	}
}

// SequenceSource is implemented by sinks that can report the highest
// persisted sequence per principal.
type SequenceSource interface {
	MaxSequences(ctx context.Context) (map[string]uint64, error)
}

// Restore seeds the sequence counters from the sink so numbering continues
// where the previous process stopped instead of restarting at 1 and
// colliding with persisted history. Sinks without queryable sequences leave
// the counters empty.
func (r *Recorder) Restore(ctx context.Context) error {
	src, ok := r.sink.(SequenceSource)
	if !ok {
		return nil
	}
	seqs, err := src.MaxSequences(ctx)
	if err != nil {
		return fmt.Errorf("restore audit sequences: %w", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for principal, seq := range seqs {
		if seq > r.seq[principal] {
			r.seq[principal] = seq
		}
	}
	return nil
}

// Record stamps identity, sequence, and severity onto the record and writes
// it durably. Sequence numbers are per principal so replay tooling can
// reconstruct one principal's history deterministically.
func (r *Recorder) Record(ctx context.Context, record domain.AuditRecord) (domain.AuditRecord, error) {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.RecordedAt.IsZero() {
		record.RecordedAt = time.Now()
	}
	if record.Severity == "" {
		record.Severity = domain.SeverityFor(record.Verdict, record.Reason)
	}
	record.Sequence = r.nextSequence(record.PrincipalID)

	if err := r.appendWithRetry(ctx, record); err != nil {
		// The caller fails closed on this error, so the record kept for
		// reconciliation must carry the denied verdict the caller actually
		// surfaced. Persisting the pre-failure verdict later would put an
		// ALLOWED record in the trail for a request that was denied.
		record.DeliveryFailed = true
		record.Verdict = domain.VerdictDenied
		if ctx.Err() != nil {
			record.Reason = domain.ReasonEvaluationCanceled
		} else {
			record.Reason = domain.ReasonAuditUnavailable
		}
		record.Severity = domain.SeverityFor(record.Verdict, record.Reason)
		r.pushDeadLetter(record)
		if r.logger != nil {
			r.logger.ErrorContext(ctx, "audit durability failed",
				"record_id", record.ID,
				"principal_id", record.PrincipalID,
				"error", err,
			)
		}
		return record, fmt.Errorf("audit write not durable: %w", err)
	}
	return record, nil
}

func (r *Recorder) nextSequence(principalID string) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq[principalID]++
	return r.seq[principalID]
}

// appendWithRetry attempts the durable write within the configured timeout,
// retrying transient failures with doubling backoff. Context cancellation
// stops immediately: a canceled evaluation must not keep writing.
func (r *Recorder) appendWithRetry(ctx context.Context, record domain.AuditRecord) error {
	backoff := r.cfg.InitialBackoff
	var lastErr error

	for attempt := 0; attempt <= r.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		attemptCtx := ctx
		var cancel context.CancelFunc
		if r.cfg.WriteTimeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, r.cfg.WriteTimeout)
		}
		lastErr = r.sink.Append(attemptCtx, record)
		if cancel != nil {
			cancel()
		}
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return lastErr
}

func (r *Recorder) pushDeadLetter(record domain.AuditRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.deadLetters) >= maxDeadLetters {
		r.deadLetters = r.deadLetters[1:]
		r.dropped++
	}
	r.deadLetters = append(r.deadLetters, record)
}

// DeadLetters returns a copy of the unreconciled backlog.
func (r *Recorder) DeadLetters() []domain.AuditRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.AuditRecord, len(r.deadLetters))
	copy(out, r.deadLetters)
	return out
}

// Reconcile retries the dead-letter backlog, keeping whatever still fails.
// It returns how many records were successfully flushed.
func (r *Recorder) Reconcile(ctx context.Context) int {
	r.mu.Lock()
	pending := r.deadLetters
	r.deadLetters = nil
	r.mu.Unlock()

	flushed := 0
	for i, record := range pending {
		if err := r.appendWithRetry(ctx, record); err != nil {
			// Put the remainder back in order and stop; the sink is
			// evidently still unhealthy.
			r.mu.Lock()
			r.deadLetters = append(pending[i:], r.deadLetters...)
			r.mu.Unlock()
			return flushed
		}
		flushed++
	}
	return flushed
}

// RunReconciler retries the backlog on the given interval until the context
// is canceled.
func (r *Recorder) RunReconciler(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if flushed := r.Reconcile(ctx); flushed > 0 && r.logger != nil {
				r.logger.InfoContext(ctx, "reconciled failed audit records", "count", flushed)
			}
		}
	}
}
