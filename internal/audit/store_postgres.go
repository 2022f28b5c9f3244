package audit

import (
	"context"
	"database/sql"
	"fmt"

	"sentra/internal/domain"
)

// PostgresSink writes audit records to an append-only table. Durability is
// the INSERT commit; the table carries no UPDATE or DELETE path.
type PostgresSink struct {
	db *sql.DB
}

// NewPostgresSink wraps an open database handle.
func NewPostgresSink(db *sql.DB) *PostgresSink {
	return &PostgresSink{db: db}
}

// Schema is the audit table DDL. The unique (principal_id, sequence) pair
// keeps a principal's history linear: two distinct records can never claim
// the same slot.
const Schema = `
CREATE TABLE IF NOT EXISTS audit_records (
    id                 UUID PRIMARY KEY,
    principal_id       TEXT NOT NULL,
    sequence           BIGINT NOT NULL,
    decision_id        TEXT NOT NULL,
    verdict            TEXT NOT NULL,
    reason             TEXT NOT NULL,
    resource           TEXT NOT NULL,
    policy_version     TEXT NOT NULL,
    risk_score         DOUBLE PRECISION NOT NULL,
    inputs_fingerprint TEXT NOT NULL,
    severity           TEXT NOT NULL,
    delivery_failed    BOOLEAN NOT NULL DEFAULT FALSE,
    recorded_at        TIMESTAMPTZ NOT NULL,
    UNIQUE (principal_id, sequence)
);
CREATE INDEX IF NOT EXISTS idx_audit_principal_seq
    ON audit_records (principal_id, sequence);
`

// EnsureSchema creates the audit table if needed.
func (s *PostgresSink) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("ensure audit schema: %w", err)
	}
	return nil
}

// Append inserts the record. The conflict target is the record id: replaying
// the same record, as reconciliation does after a write that committed but
// reported failure, is a no-op success. A different record landing on an
// occupied (principal_id, sequence) slot violates the unique constraint and
// returns an error; silently dropping it would leave the caller believing a
// record was durable when it was not.
func (s *PostgresSink) Append(ctx context.Context, record domain.AuditRecord) error {
	const q = `
INSERT INTO audit_records (
    id, principal_id, sequence, decision_id, verdict, reason, resource,
    policy_version, risk_score, inputs_fingerprint, severity, delivery_failed, recorded_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
ON CONFLICT (id) DO NOTHING`

	_, err := s.db.ExecContext(ctx, q,
		record.ID,
		record.PrincipalID,
		record.Sequence,
		record.DecisionID,
		string(record.Verdict),
		string(record.Reason),
		record.Resource,
		record.PolicyVersion,
		record.RiskScore,
		record.InputsFingerprint,
		string(record.Severity),
		record.DeliveryFailed,
		record.RecordedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit record: %w", err)
	}
	return nil
}

// MaxSequences reports the highest persisted sequence per principal, used to
// seed a recorder's counters after restart.
func (s *PostgresSink) MaxSequences(ctx context.Context) (map[string]uint64, error) {
	const q = `SELECT principal_id, MAX(sequence) FROM audit_records GROUP BY principal_id`

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query audit sequences: %w", err)
	}
	defer rows.Close()

	out := make(map[string]uint64)
	for rows.Next() {
		var principal string
		var seq uint64
		if err := rows.Scan(&principal, &seq); err != nil {
			return nil, fmt.Errorf("scan audit sequence: %w", err)
		}
		out[principal] = seq
	}
	return out, rows.Err()
}

// ListByPrincipal returns the principal's records in sequence order, for
// audit tooling and integration tests.
func (s *PostgresSink) ListByPrincipal(ctx context.Context, principalID string) ([]domain.AuditRecord, error) {
	const q = `
SELECT id, principal_id, sequence, decision_id, verdict, reason, resource,
       policy_version, risk_score, inputs_fingerprint, severity, delivery_failed, recorded_at
FROM audit_records
WHERE principal_id = $1
ORDER BY sequence ASC`

	rows, err := s.db.QueryContext(ctx, q, principalID)
	if err != nil {
		return nil, fmt.Errorf("query audit records: %w", err)
	}
	defer rows.Close()

	var out []domain.AuditRecord
	for rows.Next() {
		var r domain.AuditRecord
		var verdict, reason, severity string
		if err := rows.Scan(
			&r.ID, &r.PrincipalID, &r.Sequence, &r.DecisionID, &verdict, &reason,
			&r.Resource, &r.PolicyVersion, &r.RiskScore, &r.InputsFingerprint,
			&severity, &r.DeliveryFailed, &r.RecordedAt,
		); err != nil {
			return nil, fmt.Errorf("scan audit record: %w", err)
		}
		r.Verdict = domain.Verdict(verdict)
		r.Reason = domain.ReasonCode(reason)
		r.Severity = domain.AuditSeverity(severity)
		out = append(out, r)
	}
	return out, rows.Err()
}
