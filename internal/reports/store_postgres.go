package reports

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	id "solidarlink/pkg/domain"
	"solidarlink/pkg/platform/sentinel"
)

// PostgresStore persists reports in PostgreSQL via database/sql.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const reportColumns = `id, reporter_id, case_id, reason, description, closed, created_at`

func (s *PostgresStore) Create(ctx context.Context, r *Report) error {
	query := `
		INSERT INTO reports (` + reportColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.ExecContext(ctx, query,
		r.ID.String(), r.ReporterID.String(), r.CaseID.String(),
		r.Reason, r.Description, r.Closed, r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, reportID id.ReportID) (*Report, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+reportColumns+` FROM reports WHERE id = $1`, reportID.String())
	r, err := scanReport(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find report: %w", err)
	}
	return r, nil
}

func (s *PostgresStore) List(ctx context.Context, onlyOpen bool) ([]*Report, error) {
	query := `SELECT ` + reportColumns + ` FROM reports`
	if onlyOpen {
		query += ` WHERE closed = FALSE`
	}
	query += ` ORDER BY created_at DESC, id ASC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	var out []*Report
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Close(ctx context.Context, reportID id.ReportID) (*Report, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE reports SET closed = TRUE
		WHERE id = $1
		RETURNING `+reportColumns+`
	`, reportID.String())
	r, err := scanReport(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("close report: %w", err)
	}
	return r, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReport(row rowScanner) (*Report, error) {
	var (
		r          Report
		reportID   string
		reporterID string
		caseID     string
	)
	err := row.Scan(
		&reportID, &reporterID, &caseID,
		&r.Reason, &r.Description, &r.Closed, &r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if r.ID, err = id.ParseReportID(reportID); err != nil {
		return nil, err
	}
	if r.ReporterID, err = id.ParseUserID(reporterID); err != nil {
		return nil, err
	}
	if r.CaseID, err = id.ParseCaseID(caseID); err != nil {
		return nil, err
	}
	return &r, nil
}
