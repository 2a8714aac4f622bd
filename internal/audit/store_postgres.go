package audit

import (
	"context"
	"database/sql"
	"fmt"

	id "solidarlink/pkg/domain"
)

// PostgresStore persists audit events in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	query := `
		INSERT INTO audit_events (occurred_at, actor_id, case_id, action, detail)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.db.ExecContext(ctx, query,
		event.Timestamp, event.ActorID.String(), event.CaseID.String(),
		event.Action, event.Detail,
	)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByCase(ctx context.Context, caseID id.CaseID) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT occurred_at, actor_id, case_id, action, detail
		FROM audit_events
		WHERE case_id = $1
		ORDER BY occurred_at ASC
	`, caseID.String())
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var (
			e       Event
			actorID string
			caseStr string
		)
		if err := rows.Scan(&e.Timestamp, &actorID, &caseStr, &e.Action, &e.Detail); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		if e.ActorID, err = id.ParseUserID(actorID); err != nil {
			return nil, err
		}
		if e.CaseID, err = id.ParseCaseID(caseStr); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	return out, nil
}
