package service

import (
	"context"
	"errors"
	"log/slog"

	"solidarlink/internal/cases/models"
	"solidarlink/internal/cases/store"
	"solidarlink/internal/platform/metrics"
	id "solidarlink/pkg/domain"
	dErrors "solidarlink/pkg/domainerrors"
	"solidarlink/pkg/platform/sentinel"
	"solidarlink/pkg/requestcontext"
)

// Notifier receives lifecycle events after the corresponding mutation has
// committed. Implementations must not block: dispatch happens on the caller's
// success path and must never fail it.
type Notifier interface {
	CaseCreated(c *models.Case)
	CaseUpdated(c *models.Case)
	InterventionConfirmed(c *models.Case)
	CaseResolved(c *models.Case)
}

// Service owns the case lifecycle state machine: it validates transitions,
// enforces authorization, and emits lifecycle events. The actor identity is
// read from the request context set by the auth middleware.
type Service struct {
	store    store.Store
	notifier Notifier
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

func NewService(st store.Store, notifier Notifier, logger *slog.Logger, m *metrics.Metrics) *Service {
	return &Service{
		store:    st,
		notifier: notifier,
		logger:   logger,
		metrics:  m,
	}
}

// Create registers a new case with status PENDING owned by the actor and
// broadcasts case_created.
func (s *Service) Create(ctx context.Context, input models.CaseInput) (*models.Case, error) {
	actorID := requestcontext.UserID(ctx)
	if actorID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}

	now := requestcontext.Now(ctx)
	c := &models.Case{
		ID:          id.NewCaseID(),
		Title:       input.Title,
		Description: input.Description,
		Category:    input.Category,
		Status:      id.CaseStatusPending,
		Latitude:    input.Latitude,
		Longitude:   input.Longitude,
		Photos:      input.Photos,
		AuthorID:    actorID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.store.Create(ctx, c); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create case")
	}

	if s.metrics != nil {
		s.metrics.CasesCreated.Inc()
	}
	s.notifier.CaseCreated(c)
	return c, nil
}

// Update mutates the case's descriptive fields in place. Only the author or
// an admin may update; status never changes here. Emits case_updated targeted
// at the author.
func (s *Service) Update(ctx context.Context, caseID id.CaseID, input models.CaseInput) (*models.Case, error) {
	updated, err := s.store.Execute(ctx, caseID,
		func(c *models.Case) error {
			return s.requireAuthorOrAdmin(ctx, c)
		},
		func(c *models.Case) {
			c.Title = input.Title
			c.Description = input.Description
			c.Category = input.Category
			c.Latitude = input.Latitude
			c.Longitude = input.Longitude
			c.Photos = input.Photos
			c.UpdatedAt = requestcontext.Now(ctx)
		},
	)
	if err != nil {
		return nil, s.translate(err, "failed to update case")
	}

	s.notifier.CaseUpdated(updated)
	return updated, nil
}

// Delete permanently removes the case. Same authorization rule as Update;
// the check runs under the store lock so the authorized state is the state
// removed. Deletion is a destructive operation, not a lifecycle transition,
// so it is allowed from any status and emits no event.
func (s *Service) Delete(ctx context.Context, caseID id.CaseID) error {
	err := s.store.Delete(ctx, caseID, func(c *models.Case) error {
		return s.requireAuthorOrAdmin(ctx, c)
	})
	if err != nil {
		return s.translate(err, "failed to delete case")
	}
	return nil
}

// Take atomically assigns the case to the acting volunteer. Only a VALIDATED
// case can be taken; when several volunteers race, the store serializes them
// so exactly one passes validation and the rest observe IN_PROGRESS and fail
// with an invalid transition. Emits intervention_confirmed targeted at the
// author.
func (s *Service) Take(ctx context.Context, caseID id.CaseID, intervention models.Intervention) (*models.Case, error) {
	actorID := requestcontext.UserID(ctx)
	if actorID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	role := requestcontext.Role(ctx)
	if role != id.RoleVolunteer && !role.IsAdmin() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "only volunteers can take a case")
	}

	updated, err := s.store.Execute(ctx, caseID,
		func(c *models.Case) error {
			if c.Status != id.CaseStatusValidated {
				return dErrors.New(dErrors.CodeInvalidTransition, "case is not validated")
			}
			return nil
		},
		func(c *models.Case) {
			c.Status = id.CaseStatusInProgress
			c.VolunteerID = &actorID
			date := intervention.Date
			c.InterventionDate = &date
			c.InterventionMessage = intervention.Message
			c.UpdatedAt = requestcontext.Now(ctx)
		},
	)
	if err != nil {
		s.recordTransition(id.CaseStatusInProgress, false)
		return nil, s.translate(err, "failed to take case")
	}

	s.recordTransition(id.CaseStatusInProgress, true)
	s.notifier.InterventionConfirmed(updated)
	return updated, nil
}

// Resolve marks an IN_PROGRESS case as RESOLVED. Only the author or the
// assigned volunteer may resolve. Emits case_resolved targeted at the
// assigned volunteer.
//
// A case in IN_PROGRESS always has a volunteer per the transition graph, but
// admin force-sets touch the same state, so the assignee is re-checked rather
// than assumed: with no volunteer present only the author can resolve.
func (s *Service) Resolve(ctx context.Context, caseID id.CaseID) (*models.Case, error) {
	actorID := requestcontext.UserID(ctx)
	if actorID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}

	updated, err := s.store.Execute(ctx, caseID,
		func(c *models.Case) error {
			isAuthor := c.AuthorID == actorID
			isVolunteer := c.VolunteerID != nil && *c.VolunteerID == actorID
			if !isAuthor && !isVolunteer {
				return dErrors.New(dErrors.CodeUnauthorized, "only the author or assigned volunteer can resolve")
			}
			if c.Status != id.CaseStatusInProgress {
				return dErrors.New(dErrors.CodeInvalidTransition, "case is not in progress")
			}
			return nil
		},
		func(c *models.Case) {
			c.Status = id.CaseStatusResolved
			c.UpdatedAt = requestcontext.Now(ctx)
		},
	)
	if err != nil {
		s.recordTransition(id.CaseStatusResolved, false)
		return nil, s.translate(err, "failed to resolve case")
	}

	s.recordTransition(id.CaseStatusResolved, true)
	s.notifier.CaseResolved(updated)
	return updated, nil
}

// Get returns a single case by ID.
func (s *Service) Get(ctx context.Context, caseID id.CaseID) (*models.Case, error) {
	c, err := s.store.FindByID(ctx, caseID)
	if err != nil {
		return nil, s.translate(err, "failed to load case")
	}
	return c, nil
}

// List returns cases matching the filter, newest first.
func (s *Service) List(ctx context.Context, filter models.Filter) ([]*models.Case, error) {
	cases, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list cases")
	}
	return cases, nil
}

// ListValidated returns the validated cases shown on the volunteer map.
func (s *Service) ListValidated(ctx context.Context, viewport *models.Viewport) ([]*models.Case, error) {
	return s.List(ctx, models.Filter{Status: id.CaseStatusValidated, Viewport: viewport})
}

// ListMine returns the actor's own cases.
func (s *Service) ListMine(ctx context.Context) ([]*models.Case, error) {
	actorID := requestcontext.UserID(ctx)
	if actorID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	return s.List(ctx, models.Filter{AuthorID: actorID})
}

// ListMyInterventions returns the cases assigned to the acting volunteer.
func (s *Service) ListMyInterventions(ctx context.Context) ([]*models.Case, error) {
	actorID := requestcontext.UserID(ctx)
	if actorID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	return s.List(ctx, models.Filter{VolunteerID: actorID})
}

func (s *Service) requireAuthorOrAdmin(ctx context.Context, c *models.Case) error {
	actorID := requestcontext.UserID(ctx)
	if actorID.IsNil() {
		return dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	if c.AuthorID != actorID && !requestcontext.Role(ctx).IsAdmin() {
		return dErrors.New(dErrors.CodeUnauthorized, "only the author or an admin can modify this case")
	}
	return nil
}

// translate maps store sentinels to domain errors and passes coded errors
// through unchanged.
func (s *Service) translate(err error, internalMsg string) error {
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "case not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, internalMsg)
}

func (s *Service) recordTransition(status id.CaseStatus, ok bool) {
	if s.metrics != nil {
		s.metrics.RecordTransition(status.String(), ok)
	}
}
