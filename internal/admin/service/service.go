package service

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"

	authModels "solidarlink/internal/auth/models"
	userStore "solidarlink/internal/auth/store/user"
	"solidarlink/internal/cases/models"
	caseStore "solidarlink/internal/cases/store"
	"solidarlink/internal/reports"
	id "solidarlink/pkg/domain"
	dErrors "solidarlink/pkg/domainerrors"
	"solidarlink/pkg/platform/sentinel"
	"solidarlink/pkg/requestcontext"
)

// Service carries the moderation operations: forced case status changes,
// case deletion, user validation and bans, abuse report handling, and
// platform statistics.
//
// The admin role gate lives in the transport middleware; the service
// re-checks it so a miswired route cannot widen access.
type Service struct {
	cases   caseStore.Store
	users   userStore.Store
	reports reports.Store
	logger  *slog.Logger
}

func NewService(cases caseStore.Store, users userStore.Store, reportStore reports.Store, logger *slog.Logger) *Service {
	return &Service{cases: cases, users: users, reports: reportStore, logger: logger}
}

// SetCaseStatus force-sets a case's status. Unlike volunteer transitions the
// admin override is not bound to the lifecycle graph, with two exceptions:
// terminal cases stay terminal, and a case forced to IN_PROGRESS with no
// assigned volunteer lands on VALIDATED instead, because IN_PROGRESS without
// an assignee is unrepresentable. Forcing a status outside IN_PROGRESS and
// RESOLVED releases the volunteer assignment and intervention details; an
// assignee is only representable in those two states, and the released case
// must be takeable again without overwriting a stale assignment.
func (s *Service) SetCaseStatus(ctx context.Context, caseID id.CaseID, status id.CaseStatus) (*models.Case, error) {
	if err := s.requireAdmin(ctx); err != nil {
		return nil, err
	}
	if !status.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "unknown case status")
	}

	updated, err := s.cases.Execute(ctx, caseID,
		func(c *models.Case) error {
			if c.Status.IsTerminal() && c.Status != status {
				return dErrors.New(dErrors.CodeInvalidTransition, "case is in a terminal state")
			}
			return nil
		},
		func(c *models.Case) {
			applied := status
			if applied == id.CaseStatusInProgress && c.VolunteerID == nil {
				applied = id.CaseStatusValidated
			}
			c.Status = applied
			if applied != id.CaseStatusInProgress && applied != id.CaseStatusResolved {
				c.VolunteerID = nil
				c.InterventionDate = nil
				c.InterventionMessage = ""
			}
			c.UpdatedAt = requestcontext.Now(ctx)
		},
	)
	if err != nil {
		return nil, s.translateCase(err)
	}

	s.logger.InfoContext(ctx, "admin set case status",
		"case_id", caseID.String(), "status", updated.Status.String(),
		"actor_id", requestcontext.UserID(ctx).String())
	return updated, nil
}

// DeleteCase removes a case regardless of author or status.
func (s *Service) DeleteCase(ctx context.Context, caseID id.CaseID) error {
	if err := s.requireAdmin(ctx); err != nil {
		return err
	}
	if err := s.cases.Delete(ctx, caseID, nil); err != nil {
		return s.translateCase(err)
	}
	s.logger.InfoContext(ctx, "admin deleted case",
		"case_id", caseID.String(), "actor_id", requestcontext.UserID(ctx).String())
	return nil
}

// ListPendingUsers returns volunteers awaiting validation, oldest first.
func (s *Service) ListPendingUsers(ctx context.Context) ([]*authModels.User, error) {
	if err := s.requireAdmin(ctx); err != nil {
		return nil, err
	}
	notValidated := false
	users, err := s.users.List(ctx, authModels.Filter{
		Role:      id.RoleVolunteer,
		Validated: &notValidated,
	})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list pending users")
	}
	return users, nil
}

// ValidateUser approves a pending account so it can log in.
func (s *Service) ValidateUser(ctx context.Context, userID id.UserID) (*authModels.User, error) {
	return s.mutateUser(ctx, userID, "admin validated user", func(u *authModels.User) {
		u.Validated = true
	})
}

// RejectUser removes a pending account entirely.
func (s *Service) RejectUser(ctx context.Context, userID id.UserID) error {
	if err := s.requireAdmin(ctx); err != nil {
		return err
	}
	if err := s.users.Delete(ctx, userID); err != nil {
		return s.translateUser(err)
	}
	s.logger.InfoContext(ctx, "admin rejected user",
		"user_id", userID.String(), "actor_id", requestcontext.UserID(ctx).String())
	return nil
}

// ToggleUserBan flips the ban flag. Admins cannot ban themselves.
func (s *Service) ToggleUserBan(ctx context.Context, userID id.UserID) (*authModels.User, error) {
	if requestcontext.UserID(ctx) == userID {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "cannot ban yourself")
	}
	return s.mutateUser(ctx, userID, "admin toggled user ban", func(u *authModels.User) {
		u.Banned = !u.Banned
	})
}

// ListReports returns filed abuse reports, newest first. With onlyOpen set,
// reports already handled are filtered out.
func (s *Service) ListReports(ctx context.Context, onlyOpen bool) ([]*reports.Report, error) {
	if err := s.requireAdmin(ctx); err != nil {
		return nil, err
	}
	list, err := s.reports.List(ctx, onlyOpen)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list reports")
	}
	return list, nil
}

// CloseReport marks a report as handled. Closing leaves the reported case
// untouched; any action on the case goes through the case moderation
// operations. Closing an already closed report is a no-op.
func (s *Service) CloseReport(ctx context.Context, reportID id.ReportID) (*reports.Report, error) {
	if err := s.requireAdmin(ctx); err != nil {
		return nil, err
	}
	r, err := s.reports.Close(ctx, reportID)
	if err != nil {
		return nil, s.translateReport(err)
	}
	s.logger.InfoContext(ctx, "admin closed report",
		"report_id", reportID.String(), "actor_id", requestcontext.UserID(ctx).String())
	return r, nil
}

// Stats aggregates platform counters for the admin dashboard.
type Stats struct {
	TotalCases      int64 `json:"total_cases"`
	PendingCases    int64 `json:"pending_cases"`
	ValidatedCases  int64 `json:"validated_cases"`
	InProgressCases int64 `json:"in_progress_cases"`
	ResolvedCases   int64 `json:"resolved_cases"`
	RejectedCases   int64 `json:"rejected_cases"`
	TotalUsers      int64 `json:"total_users"`
}

// Stats gathers the counters in parallel; a single failing count fails the
// whole call.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	if err := s.requireAdmin(ctx); err != nil {
		return nil, err
	}

	var stats Stats
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		stats.TotalCases, err = s.cases.Count(gctx)
		return err
	})
	g.Go(func() (err error) {
		stats.TotalUsers, err = s.users.Count(gctx)
		return err
	})
	for _, c := range []struct {
		status id.CaseStatus
		dest   *int64
	}{
		{id.CaseStatusPending, &stats.PendingCases},
		{id.CaseStatusValidated, &stats.ValidatedCases},
		{id.CaseStatusInProgress, &stats.InProgressCases},
		{id.CaseStatusResolved, &stats.ResolvedCases},
		{id.CaseStatusRejected, &stats.RejectedCases},
	} {
		g.Go(func() (err error) {
			*c.dest, err = s.cases.CountByStatus(gctx, c.status)
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to gather stats")
	}
	return &stats, nil
}

func (s *Service) mutateUser(ctx context.Context, userID id.UserID, logMsg string, mutate func(u *authModels.User)) (*authModels.User, error) {
	if err := s.requireAdmin(ctx); err != nil {
		return nil, err
	}
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, s.translateUser(err)
	}
	mutate(u)
	if err := s.users.Update(ctx, u); err != nil {
		return nil, s.translateUser(err)
	}
	s.logger.InfoContext(ctx, logMsg,
		"user_id", userID.String(), "actor_id", requestcontext.UserID(ctx).String())
	return u, nil
}

func (s *Service) requireAdmin(ctx context.Context) error {
	if requestcontext.UserID(ctx).IsNil() {
		return dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	if !requestcontext.Role(ctx).IsAdmin() {
		return dErrors.New(dErrors.CodeForbidden, "admin privilege required")
	}
	return nil
}

func (s *Service) translateCase(err error) error {
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "case not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "case store failure")
}

func (s *Service) translateReport(err error) error {
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "report not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "report store failure")
}

func (s *Service) translateUser(err error) error {
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "user not found")
	}
	if errors.Is(err, sentinel.ErrConflict) {
		return dErrors.New(dErrors.CodeConflict, "user conflict")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "user store failure")
}
