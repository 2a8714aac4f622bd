//go:build integration

package store_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"solidarlink/internal/cases/models"
	"solidarlink/internal/cases/store"
	id "solidarlink/pkg/domain"
	"solidarlink/pkg/platform/sentinel"
	"solidarlink/pkg/testutil/containers"
)

type PostgresCaseStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
}

func TestPostgresCaseStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresCaseStoreSuite))
}

func (s *PostgresCaseStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = store.NewPostgresStore(s.postgres.DB)
}

func (s *PostgresCaseStoreSuite) SetupTest() {
	err := s.postgres.TruncateTables(context.Background(), "cases")
	s.Require().NoError(err)
}

func (s *PostgresCaseStoreSuite) newCase(status id.CaseStatus) *models.Case {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &models.Case{
		ID:        id.NewCaseID(),
		Title:     "flooded basement",
		Category:  id.CaseCategoryShelter,
		Status:    status,
		Latitude:  48.85,
		Longitude: 2.35,
		Photos:    []string{"before.jpg"},
		AuthorID:  id.NewUserID(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (s *PostgresCaseStoreSuite) TestCreateAndFind() {
	ctx := context.Background()
	c := s.newCase(id.CaseStatusPending)
	s.Require().NoError(s.store.Create(ctx, c))

	got, err := s.store.FindByID(ctx, c.ID)
	s.Require().NoError(err)
	s.Equal(c.Title, got.Title)
	s.Equal(c.AuthorID, got.AuthorID)
	s.Equal([]string{"before.jpg"}, got.Photos)
	s.Nil(got.VolunteerID)

	_, err = s.store.FindByID(ctx, id.NewCaseID())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresCaseStoreSuite) TestDelete() {
	ctx := context.Background()
	c := s.newCase(id.CaseStatusPending)
	s.Require().NoError(s.store.Create(ctx, c))

	s.Require().NoError(s.store.Delete(ctx, c.ID, nil))
	_, err := s.store.FindByID(ctx, c.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)

	s.ErrorIs(s.store.Delete(ctx, c.ID, nil), sentinel.ErrNotFound)
}

// A validation error must abort the delete and come back unchanged.
func (s *PostgresCaseStoreSuite) TestDeleteValidationAborts() {
	ctx := context.Background()
	c := s.newCase(id.CaseStatusPending)
	s.Require().NoError(s.store.Create(ctx, c))

	err := s.store.Delete(ctx, c.ID, func(cur *models.Case) error {
		return sentinel.ErrInvalidState
	})
	s.ErrorIs(err, sentinel.ErrInvalidState)

	_, err = s.store.FindByID(ctx, c.ID)
	s.Require().NoError(err)
}

// TestExecuteSingleWinner verifies that racing conditional transitions on the
// same row serialize through FOR UPDATE: exactly one goroutine finds the case
// VALIDATED and claims it, the rest re-validate against the committed row.
func (s *PostgresCaseStoreSuite) TestExecuteSingleWinner() {
	ctx := context.Background()
	c := s.newCase(id.CaseStatusValidated)
	s.Require().NoError(s.store.Create(ctx, c))

	const goroutines = 20
	var (
		wg     sync.WaitGroup
		wins   atomic.Int32
		losses atomic.Int32
	)
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			volunteer := id.NewUserID()
			_, err := s.store.Execute(ctx, c.ID,
				func(cur *models.Case) error {
					if cur.Status != id.CaseStatusValidated {
						return sentinel.ErrInvalidState
					}
					return nil
				},
				func(cur *models.Case) {
					cur.Status = id.CaseStatusInProgress
					cur.VolunteerID = &volunteer
					cur.UpdatedAt = time.Now().UTC()
				})
			if err == nil {
				wins.Add(1)
			} else {
				losses.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), wins.Load(), "exactly one transition should win")
	s.Equal(int32(goroutines-1), losses.Load())

	got, err := s.store.FindByID(ctx, c.ID)
	s.Require().NoError(err)
	s.Equal(id.CaseStatusInProgress, got.Status)
	s.Require().NotNil(got.VolunteerID)
}

func (s *PostgresCaseStoreSuite) TestExecuteValidationErrorRollsBack() {
	ctx := context.Background()
	c := s.newCase(id.CaseStatusPending)
	s.Require().NoError(s.store.Create(ctx, c))

	_, err := s.store.Execute(ctx, c.ID,
		func(cur *models.Case) error { return sentinel.ErrInvalidState },
		func(cur *models.Case) { cur.Status = id.CaseStatusResolved })
	s.ErrorIs(err, sentinel.ErrInvalidState)

	got, err := s.store.FindByID(ctx, c.ID)
	s.Require().NoError(err)
	s.Equal(id.CaseStatusPending, got.Status)
}

func (s *PostgresCaseStoreSuite) TestListFilters() {
	ctx := context.Background()

	inParis := s.newCase(id.CaseStatusValidated)
	s.Require().NoError(s.store.Create(ctx, inParis))

	inLyon := s.newCase(id.CaseStatusValidated)
	inLyon.Latitude, inLyon.Longitude = 45.76, 4.83
	s.Require().NoError(s.store.Create(ctx, inLyon))

	pending := s.newCase(id.CaseStatusPending)
	s.Require().NoError(s.store.Create(ctx, pending))

	validated, err := s.store.List(ctx, models.Filter{Status: id.CaseStatusValidated})
	s.Require().NoError(err)
	s.Len(validated, 2)

	parisOnly, err := s.store.List(ctx, models.Filter{
		Status:   id.CaseStatusValidated,
		Viewport: &models.Viewport{MinLat: 48, MaxLat: 49, MinLon: 2, MaxLon: 3},
	})
	s.Require().NoError(err)
	s.Require().Len(parisOnly, 1)
	s.Equal(inParis.ID, parisOnly[0].ID)

	mine, err := s.store.List(ctx, models.Filter{AuthorID: pending.AuthorID})
	s.Require().NoError(err)
	s.Require().Len(mine, 1)
	s.Equal(pending.ID, mine[0].ID)

	total, err := s.store.Count(ctx)
	s.Require().NoError(err)
	s.Equal(int64(3), total)

	byStatus, err := s.store.CountByStatus(ctx, id.CaseStatusPending)
	s.Require().NoError(err)
	s.Equal(int64(1), byStatus)
}
