package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/lib/pq"

	"solidarlink/internal/cases/models"
	id "solidarlink/pkg/domain"
	"solidarlink/pkg/platform/sentinel"
)

// PostgresStore persists cases in PostgreSQL via database/sql.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const caseColumns = `id, title, description, category, status, latitude, longitude,
	photos, author_id, volunteer_id, intervention_date, intervention_message,
	created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, c *models.Case) error {
	query := `
		INSERT INTO cases (` + caseColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err := s.db.ExecContext(ctx, query,
		c.ID.String(), c.Title, c.Description, c.Category.String(), c.Status.String(),
		c.Latitude, c.Longitude, pq.Array(c.Photos), c.AuthorID.String(),
		nullableID(c.VolunteerID), c.InterventionDate, c.InterventionMessage,
		c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create case: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, caseID id.CaseID) (*models.Case, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+caseColumns+` FROM cases WHERE id = $1`, caseID.String())
	c, err := scanCase(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find case: %w", err)
	}
	return c, nil
}

// Execute runs the validate/mutate pair inside a row-scoped transaction.
// SELECT ... FOR UPDATE serializes racing transitions on the same case id:
// the loser blocks until the winner commits, then re-validates against the
// committed state and fails with the service's own domain error.
func (s *PostgresStore) Execute(ctx context.Context, caseID id.CaseID,
	validate func(c *models.Case) error,
	mutate func(c *models.Case)) (*models.Case, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin case transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx,
		`SELECT `+caseColumns+` FROM cases WHERE id = $1 FOR UPDATE`, caseID.String())
	c, err := scanCase(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("lock case: %w", err)
	}

	if err := validate(c); err != nil {
		return nil, err
	}
	mutate(c)

	_, err = tx.ExecContext(ctx, `
		UPDATE cases SET
			title = $2, description = $3, category = $4, status = $5,
			latitude = $6, longitude = $7, photos = $8, volunteer_id = $9,
			intervention_date = $10, intervention_message = $11, updated_at = $12
		WHERE id = $1
	`,
		c.ID.String(), c.Title, c.Description, c.Category.String(), c.Status.String(),
		c.Latitude, c.Longitude, pq.Array(c.Photos), nullableID(c.VolunteerID),
		c.InterventionDate, c.InterventionMessage, c.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("update case: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit case transaction: %w", err)
	}
	return c, nil
}

// Delete validates against the row under FOR UPDATE before removing it, so
// the state that passed validation is the state that gets deleted.
func (s *PostgresStore) Delete(ctx context.Context, caseID id.CaseID, validate func(c *models.Case) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin case transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx,
		`SELECT `+caseColumns+` FROM cases WHERE id = $1 FOR UPDATE`, caseID.String())
	c, err := scanCase(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return sentinel.ErrNotFound
		}
		return fmt.Errorf("lock case: %w", err)
	}

	if validate != nil {
		if err := validate(c); err != nil {
			return err
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM cases WHERE id = $1`, caseID.String()); err != nil {
		return fmt.Errorf("delete case: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit case transaction: %w", err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, filter models.Filter) ([]*models.Case, error) {
	query := `SELECT ` + caseColumns + ` FROM cases`
	var (
		clauses []string
		args    []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if filter.Status != "" {
		clauses = append(clauses, "status = "+arg(filter.Status.String()))
	}
	if filter.Category != "" {
		clauses = append(clauses, "category = "+arg(filter.Category.String()))
	}
	if !filter.AuthorID.IsNil() {
		clauses = append(clauses, "author_id = "+arg(filter.AuthorID.String()))
	}
	if !filter.VolunteerID.IsNil() {
		clauses = append(clauses, "volunteer_id = "+arg(filter.VolunteerID.String()))
	}
	if v := filter.Viewport; v != nil {
		clauses = append(clauses,
			"latitude BETWEEN "+arg(v.MinLat)+" AND "+arg(v.MaxLat),
			"longitude BETWEEN "+arg(v.MinLon)+" AND "+arg(v.MaxLon),
		)
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list cases: %w", err)
	}
	defer rows.Close()

	var out []*models.Case
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, fmt.Errorf("scan case: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list cases: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) CountByStatus(ctx context.Context, status id.CaseStatus) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM cases WHERE status = $1`, status.String()).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count cases by status: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM cases`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count cases: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCase(row rowScanner) (*models.Case, error) {
	var (
		c           models.Case
		caseID      string
		category    string
		status      string
		authorID    string
		volunteerID sql.NullString
		photos      pq.StringArray
	)
	err := row.Scan(
		&caseID, &c.Title, &c.Description, &category, &status,
		&c.Latitude, &c.Longitude, &photos, &authorID, &volunteerID,
		&c.InterventionDate, &c.InterventionMessage, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if c.ID, err = id.ParseCaseID(caseID); err != nil {
		return nil, err
	}
	if c.AuthorID, err = id.ParseUserID(authorID); err != nil {
		return nil, err
	}
	if volunteerID.Valid {
		v, err := id.ParseUserID(volunteerID.String)
		if err != nil {
			return nil, err
		}
		c.VolunteerID = &v
	}
	c.Category = id.CaseCategory(category)
	c.Status = id.CaseStatus(status)
	c.Photos = photos
	return &c, nil
}

func nullableID(userID *id.UserID) any {
	if userID == nil {
		return nil
	}
	return userID.String()
}
