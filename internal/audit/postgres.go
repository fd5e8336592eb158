package audit

import (
	"context"
	"database/sql"
)

var _ Sink = (*PGSink)(nil)

// PGSink appends entries to the audit_log table.
type PGSink struct {
	db *sql.DB
}

func NewPGSink(db *sql.DB) *PGSink {
	return &PGSink{db: db}
}

func (s *PGSink) Append(ctx context.Context, entry *Entry) error {
	_, err := s.db.ExecContext(ctx,
		`insert into audit_log(id, occurred_at, principal_id, email, action, resource, effect, error_code, ip_address, user_agent)
		 values($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		entry.ID, entry.Timestamp, entry.PrincipalID, entry.Email, entry.Action,
		entry.Resource, entry.Effect, entry.ErrorCode, entry.IPAddress, entry.UserAgent,
	)
	return err
}
