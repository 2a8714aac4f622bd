//go:build integration

package user_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"solidarlink/internal/auth/models"
	"solidarlink/internal/auth/store/user"
	id "solidarlink/pkg/domain"
	"solidarlink/pkg/platform/sentinel"
	"solidarlink/pkg/testutil/containers"
)

type PostgresUserStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *user.PostgresStore
}

func TestPostgresUserStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresUserStoreSuite))
}

func (s *PostgresUserStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = user.NewPostgresStore(s.postgres.DB)
}

func (s *PostgresUserStoreSuite) SetupTest() {
	err := s.postgres.TruncateTables(context.Background(), "users")
	s.Require().NoError(err)
}

func (s *PostgresUserStoreSuite) newUser(email string, role id.Role) *models.User {
	return &models.User{
		ID:           id.NewUserID(),
		Email:        email,
		PasswordHash: "$2a$10$abcdefghijklmnopqrstuv",
		FirstName:    "Ada",
		LastName:     "Lovelace",
		Role:         role,
		Validated:    true,
		CreatedAt:    time.Now().UTC().Truncate(time.Millisecond),
	}
}

// TestEmailIsCaseInsensitive covers the lower() normalization: lookups and the
// uniqueness constraint both ignore case.
func (s *PostgresUserStoreSuite) TestEmailIsCaseInsensitive() {
	ctx := context.Background()
	u := s.newUser("Ada@Example.Org", id.RoleCitizen)
	s.Require().NoError(s.store.Save(ctx, u))

	got, err := s.store.FindByEmail(ctx, "ADA@example.org")
	s.Require().NoError(err)
	s.Equal(u.ID, got.ID)

	dup := s.newUser("ada@EXAMPLE.org", id.RoleVolunteer)
	s.ErrorIs(s.store.Save(ctx, dup), sentinel.ErrConflict)
}

func (s *PostgresUserStoreSuite) TestUpdateAndDelete() {
	ctx := context.Background()
	u := s.newUser("vol@example.org", id.RoleVolunteer)
	u.Validated = false
	s.Require().NoError(s.store.Save(ctx, u))

	u.Validated = true
	u.Banned = true
	s.Require().NoError(s.store.Update(ctx, u))

	got, err := s.store.FindByID(ctx, u.ID)
	s.Require().NoError(err)
	s.True(got.Validated)
	s.True(got.Banned)

	s.Require().NoError(s.store.Delete(ctx, u.ID))
	_, err = s.store.FindByID(ctx, u.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)

	missing := s.newUser("ghost@example.org", id.RoleCitizen)
	s.ErrorIs(s.store.Update(ctx, missing), sentinel.ErrNotFound)
}

func (s *PostgresUserStoreSuite) TestListFilters() {
	ctx := context.Background()

	citizen := s.newUser("citizen@example.org", id.RoleCitizen)
	s.Require().NoError(s.store.Save(ctx, citizen))

	pendingVol := s.newUser("pending@example.org", id.RoleVolunteer)
	pendingVol.Validated = false
	s.Require().NoError(s.store.Save(ctx, pendingVol))

	activeVol := s.newUser("active@example.org", id.RoleVolunteer)
	s.Require().NoError(s.store.Save(ctx, activeVol))

	falseVal := false
	pending, err := s.store.List(ctx, models.Filter{Role: id.RoleVolunteer, Validated: &falseVal})
	s.Require().NoError(err)
	s.Require().Len(pending, 1)
	s.Equal(pendingVol.ID, pending[0].ID)

	volunteers, err := s.store.List(ctx, models.Filter{Role: id.RoleVolunteer})
	s.Require().NoError(err)
	s.Len(volunteers, 2)

	total, err := s.store.Count(ctx)
	s.Require().NoError(err)
	s.Equal(int64(3), total)
}
