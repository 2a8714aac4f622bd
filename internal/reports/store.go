package reports

import (
	"context"

	id "solidarlink/pkg/domain"
)

// Store persists abuse reports.
//
// Implementations return pkg/platform/sentinel errors; the services translate
// them into domain errors.
type Store interface {
	// Create persists a new report.
	Create(ctx context.Context, r *Report) error

	// FindByID returns the report or sentinel.ErrNotFound.
	FindByID(ctx context.Context, reportID id.ReportID) (*Report, error)

	// List returns reports newest first. With onlyOpen set, closed reports
	// are filtered out.
	List(ctx context.Context, onlyOpen bool) ([]*Report, error)

	// Close marks the report handled and returns it. Closing an already
	// closed report is a no-op. Returns sentinel.ErrNotFound when the
	// report does not exist.
	Close(ctx context.Context, reportID id.ReportID) (*Report, error)
}
