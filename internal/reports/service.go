package reports

import (
	"context"
	"errors"
	"log/slog"

	caseStore "solidarlink/internal/cases/store"
	id "solidarlink/pkg/domain"
	dErrors "solidarlink/pkg/domainerrors"
	"solidarlink/pkg/platform/sentinel"
	"solidarlink/pkg/requestcontext"
)

// Service records abuse reports filed by authenticated users. Listing and
// closing reports are moderation operations and live in the admin service.
type Service struct {
	reports Store
	cases   caseStore.Store
	logger  *slog.Logger
}

func NewService(reports Store, cases caseStore.Store, logger *slog.Logger) *Service {
	return &Service{reports: reports, cases: cases, logger: logger}
}

// File records a report against an existing case. Any authenticated user may
// file one, including against their own case; the reporter identity comes
// from the request context.
func (s *Service) File(ctx context.Context, caseID id.CaseID, reason, description string) (*Report, error) {
	actorID := requestcontext.UserID(ctx)
	if actorID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}

	if _, err := s.cases.FindByID(ctx, caseID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "case not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load reported case")
	}

	r := &Report{
		ID:          id.NewReportID(),
		ReporterID:  actorID,
		CaseID:      caseID,
		Reason:      reason,
		Description: description,
		CreatedAt:   requestcontext.Now(ctx),
	}
	if err := s.reports.Create(ctx, r); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to file report")
	}

	s.logger.InfoContext(ctx, "report filed",
		"report_id", r.ID.String(), "case_id", caseID.String(),
		"reporter_id", actorID.String())
	return r, nil
}
