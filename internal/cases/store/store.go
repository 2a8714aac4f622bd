package store

import (
	"context"

	"solidarlink/internal/cases/models"
	id "solidarlink/pkg/domain"
)

// Store is the durable source of truth for case records.
//
// Execute is the atomic read-validate-mutate primitive every lifecycle
// transition goes through: implementations must guarantee that between the
// validate and mutate callbacks no concurrent writer touches the same case,
// so racing transitions serialize to a single winner. The memory store holds
// a per-case lock; the Postgres store uses a row-scoped transaction with
// SELECT ... FOR UPDATE.
type Store interface {
	Create(ctx context.Context, c *models.Case) error
	FindByID(ctx context.Context, caseID id.CaseID) (*models.Case, error)

	// Execute loads the case, runs validate under the case's lock, and if
	// validate returns nil applies mutate and persists the result. The
	// returned case reflects the post-mutation state. A validate error
	// aborts without writing and is returned unchanged (no wrapping), so
	// services can surface their own domain errors.
	//
	// Errors: sentinel.ErrNotFound when the case does not exist.
	Execute(ctx context.Context, caseID id.CaseID,
		validate func(c *models.Case) error,
		mutate func(c *models.Case)) (*models.Case, error)

	// Delete removes the case after running validate under the same lock
	// Execute uses, so an authorization check cannot race a concurrent
	// mutation of the case. A nil validate deletes unconditionally. A
	// validate error aborts without deleting and is returned unchanged.
	//
	// Errors: sentinel.ErrNotFound when the case does not exist.
	Delete(ctx context.Context, caseID id.CaseID, validate func(c *models.Case) error) error
	List(ctx context.Context, filter models.Filter) ([]*models.Case, error)
	CountByStatus(ctx context.Context, status id.CaseStatus) (int64, error)
	Count(ctx context.Context) (int64, error)
}
