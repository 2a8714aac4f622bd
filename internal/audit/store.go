package audit

import (
	"context"

	id "solidarlink/pkg/domain"
)

// Store is the append-only persistence for audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByCase(ctx context.Context, caseID id.CaseID) ([]Event, error)
}
