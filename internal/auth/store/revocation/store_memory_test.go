package revocation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type MemoryTRLSuite struct {
	suite.Suite
	now time.Time
	trl *MemoryTRL
}

func TestMemoryTRLSuite(t *testing.T) {
	suite.Run(t, new(MemoryTRLSuite))
}

func (s *MemoryTRLSuite) SetupTest() {
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.trl = NewMemoryTRL(WithMemoryClock(func() time.Time { return s.now }))
}

func (s *MemoryTRLSuite) TestRevocationLifecycle() {
	ctx := context.Background()

	s.Run("unknown jti is not revoked", func() {
		revoked, err := s.trl.IsRevoked(ctx, "unknown")
		s.Require().NoError(err)
		s.False(revoked)
	})

	s.Run("revoked jti is reported until expiry", func() {
		s.Require().NoError(s.trl.RevokeToken(ctx, "jti-1", 10*time.Minute))

		revoked, err := s.trl.IsRevoked(ctx, "jti-1")
		s.Require().NoError(err)
		s.True(revoked)

		s.now = s.now.Add(11 * time.Minute)
		revoked, err = s.trl.IsRevoked(ctx, "jti-1")
		s.Require().NoError(err)
		s.False(revoked)
	})

	s.Run("empty jti is ignored", func() {
		s.Require().NoError(s.trl.RevokeToken(ctx, "", time.Minute))
		revoked, err := s.trl.IsRevoked(ctx, "")
		s.Require().NoError(err)
		s.False(revoked)
	})

	s.Run("non-positive ttl is rejected", func() {
		s.Error(s.trl.RevokeToken(ctx, "jti-2", 0))
	})
}
