package user

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"solidarlink/internal/auth/models"
	id "solidarlink/pkg/domain"
	"solidarlink/pkg/platform/sentinel"
)

type InMemoryUserStoreSuite struct {
	suite.Suite
	store *InMemoryStore
}

func TestInMemoryUserStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryUserStoreSuite))
}

func (s *InMemoryUserStoreSuite) SetupTest() {
	s.store = NewInMemoryStore()
}

func (s *InMemoryUserStoreSuite) newUser(emailAddr string, role id.Role) *models.User {
	return &models.User{
		ID:        id.NewUserID(),
		Email:     emailAddr,
		Role:      role,
		Validated: role == id.RoleCitizen,
		CreatedAt: time.Now().UTC(),
	}
}

func (s *InMemoryUserStoreSuite) TestLookup() {
	ctx := context.Background()

	s.Run("finds saved user by id and email", func() {
		u := s.newUser("jane.doe@example.com", id.RoleCitizen)
		s.Require().NoError(s.store.Save(ctx, u))

		byID, err := s.store.FindByID(ctx, u.ID)
		s.Require().NoError(err)
		s.Equal(u.Email, byID.Email)

		byEmail, err := s.store.FindByEmail(ctx, "JANE.DOE@example.com")
		s.Require().NoError(err)
		s.Equal(u.ID, byEmail.ID)
	})

	s.Run("missing user returns ErrNotFound", func() {
		_, err := s.store.FindByID(ctx, id.NewUserID())
		s.Require().ErrorIs(err, sentinel.ErrNotFound)

		_, err = s.store.FindByEmail(ctx, "missing@example.com")
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("duplicate email conflicts", func() {
		u := s.newUser("dup@example.com", id.RoleCitizen)
		s.Require().NoError(s.store.Save(ctx, u))

		dup := s.newUser("dup@example.com", id.RoleVolunteer)
		s.Require().ErrorIs(s.store.Save(ctx, dup), sentinel.ErrConflict)
	})
}

func (s *InMemoryUserStoreSuite) TestUpdateAndDelete() {
	ctx := context.Background()

	s.Run("update persists flag changes", func() {
		u := s.newUser("volunteer@example.com", id.RoleVolunteer)
		s.Require().NoError(s.store.Save(ctx, u))

		u.Validated = true
		s.Require().NoError(s.store.Update(ctx, u))

		found, err := s.store.FindByID(ctx, u.ID)
		s.Require().NoError(err)
		s.True(found.Validated)
	})

	s.Run("delete makes the user unfindable by id and email", func() {
		u := s.newUser("gone@example.com", id.RoleCitizen)
		s.Require().NoError(s.store.Save(ctx, u))
		s.Require().NoError(s.store.Delete(ctx, u.ID))

		_, err := s.store.FindByID(ctx, u.ID)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
		_, err = s.store.FindByEmail(ctx, "gone@example.com")
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("delete of missing user returns ErrNotFound", func() {
		s.Require().ErrorIs(s.store.Delete(ctx, id.NewUserID()), sentinel.ErrNotFound)
	})
}

func (s *InMemoryUserStoreSuite) TestList() {
	ctx := context.Background()

	citizen := s.newUser("c@example.com", id.RoleCitizen)
	pending := s.newUser("v1@example.com", id.RoleVolunteer)
	validated := s.newUser("v2@example.com", id.RoleVolunteer)
	validated.Validated = true

	for _, u := range []*models.User{citizen, pending, validated} {
		s.Require().NoError(s.store.Save(ctx, u))
	}

	s.Run("filters by role", func() {
		users, err := s.store.List(ctx, models.Filter{Role: id.RoleVolunteer})
		s.Require().NoError(err)
		s.Len(users, 2)
	})

	s.Run("filters by validation state", func() {
		notValidated := false
		users, err := s.store.List(ctx, models.Filter{Role: id.RoleVolunteer, Validated: &notValidated})
		s.Require().NoError(err)
		s.Require().Len(users, 1)
		s.Equal(pending.ID, users[0].ID)
	})

	s.Run("count covers all users", func() {
		n, err := s.store.Count(ctx)
		s.Require().NoError(err)
		s.EqualValues(3, n)
	})
}
