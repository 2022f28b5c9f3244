//go:build integration

package audit_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"sentra/internal/audit"
	"sentra/internal/domain"
	"sentra/internal/platform/config"
	"sentra/pkg/testutil/containers"
)

type PostgresSinkSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	sink     *audit.PostgresSink
}

func TestPostgresSinkSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresSinkSuite))
}

func (s *PostgresSinkSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.sink = audit.NewPostgresSink(s.postgres.DB)
	s.Require().NoError(s.sink.EnsureSchema(context.Background()))
}

func (s *PostgresSinkSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "audit_records"))
}

func auditFixture(principalID string, seq uint64) domain.AuditRecord {
	return domain.AuditRecord{
		ID:                uuid.NewString(),
		Sequence:          seq,
		PrincipalID:       principalID,
		DecisionID:        uuid.NewString(),
		Verdict:           domain.VerdictDenied,
		Reason:            domain.ReasonPolicyDenied,
		Resource:          "/reports/q3",
		PolicyVersion:     "v1",
		RiskScore:         42.5,
		InputsFingerprint: "fp",
		Severity:          domain.AuditSeverityWarning,
		RecordedAt:        time.Now().UTC().Truncate(time.Microsecond),
	}
}

func (s *PostgresSinkSuite) TestAppendAndListByPrincipal() {
	ctx := context.Background()

	s.Require().NoError(s.sink.Append(ctx, auditFixture("p1", 1)))
	s.Require().NoError(s.sink.Append(ctx, auditFixture("p1", 2)))
	s.Require().NoError(s.sink.Append(ctx, auditFixture("p2", 1)))

	records, err := s.sink.ListByPrincipal(ctx, "p1")
	s.Require().NoError(err)
	s.Require().Len(records, 2)
	s.Equal(uint64(1), records[0].Sequence)
	s.Equal(uint64(2), records[1].Sequence)
	s.Equal("/reports/q3", records[0].Resource)
	s.Equal(domain.AuditSeverityWarning, records[0].Severity)
}

func (s *PostgresSinkSuite) TestAppendIsIdempotentOnReplay() {
	ctx := context.Background()

	record := auditFixture("p1", 1)
	s.Require().NoError(s.sink.Append(ctx, record))

	// Replaying the exact same record must not duplicate the row.
	s.Require().NoError(s.sink.Append(ctx, record))

	records, err := s.sink.ListByPrincipal(ctx, "p1")
	s.Require().NoError(err)
	s.Len(records, 1)
}

func (s *PostgresSinkSuite) TestAppendRejectsSequenceCollision() {
	ctx := context.Background()

	s.Require().NoError(s.sink.Append(ctx, auditFixture("p1", 1)))

	// A different record claiming an occupied sequence slot must fail loudly
	// rather than vanish; swallowing it would report durability for a record
	// that was never written.
	err := s.sink.Append(ctx, auditFixture("p1", 1))
	s.Require().Error(err)

	records, err := s.sink.ListByPrincipal(ctx, "p1")
	s.Require().NoError(err)
	s.Len(records, 1)
}

func (s *PostgresSinkSuite) TestMaxSequencesSeedsARestartedRecorder() {
	ctx := context.Background()

	s.Require().NoError(s.sink.Append(ctx, auditFixture("p1", 1)))
	s.Require().NoError(s.sink.Append(ctx, auditFixture("p1", 2)))
	s.Require().NoError(s.sink.Append(ctx, auditFixture("p2", 5)))

	seqs, err := s.sink.MaxSequences(ctx)
	s.Require().NoError(err)
	s.Equal(map[string]uint64{"p1": 2, "p2": 5}, seqs)

	// A recorder built over the same sink continues numbering where the
	// previous process stopped.
	recorder := audit.NewRecorder(s.sink, config.AuditConfig{
		WriteTimeout:   time.Second,
		MaxRetries:     2,
		InitialBackoff: time.Millisecond,
	}, nil)
	s.Require().NoError(recorder.Restore(ctx))

	written, err := recorder.Record(ctx, domain.AuditRecord{
		PrincipalID:       "p1",
		DecisionID:        uuid.NewString(),
		Verdict:           domain.VerdictDenied,
		Reason:            domain.ReasonPolicyDenied,
		Resource:          "/reports/q3",
		PolicyVersion:     "v1",
		InputsFingerprint: "fp",
	})
	s.Require().NoError(err)
	s.Equal(uint64(3), written.Sequence)
}

func (s *PostgresSinkSuite) TestListByPrincipalEmpty() {
	records, err := s.sink.ListByPrincipal(context.Background(), "unknown")
	s.Require().NoError(err)
	s.Empty(records)
}
