package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"solidarlink/internal/auth/models"
	"solidarlink/internal/auth/store/revocation"
	"solidarlink/internal/auth/store/user"
	"solidarlink/internal/jwttoken"
	id "solidarlink/pkg/domain"
	dErrors "solidarlink/pkg/domainerrors"
	"solidarlink/pkg/email"
	"solidarlink/pkg/platform/secrets"
	"solidarlink/pkg/platform/sentinel"
	"solidarlink/pkg/requestcontext"
)

// Service handles account registration and the token lifecycle.
type Service struct {
	users    user.Store
	tokens   *jwttoken.Service
	revoked  revocation.TokenRevocationList
	tokenTTL time.Duration
	logger   *slog.Logger
}

func NewService(users user.Store, tokens *jwttoken.Service, revoked revocation.TokenRevocationList, tokenTTL time.Duration, logger *slog.Logger) *Service {
	return &Service{
		users:    users,
		tokens:   tokens,
		revoked:  revoked,
		tokenTTL: tokenTTL,
		logger:   logger,
	}
}

// RegisterInput carries the fields accepted at sign-up. Names are optional
// and derived from the email's local part when absent.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      id.Role
}

// LoginResult pairs the issued token with the authenticated user.
type LoginResult struct {
	Token     string
	ExpiresIn time.Duration
	User      *models.User
}

// Register creates a new account. Citizens are active immediately; volunteers
// start unvalidated and cannot log in until an admin approves them.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	addr := strings.TrimSpace(input.Email)
	if addr == "" || !strings.Contains(addr, "@") {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "a valid email is required")
	}
	if len(input.Password) < 8 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "password must be at least 8 characters")
	}
	if input.Role != id.RoleCitizen && input.Role != id.RoleVolunteer {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "role must be CITIZEN or VOLUNTEER")
	}

	hash, err := secrets.Hash(input.Password)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}

	firstName, lastName := input.FirstName, input.LastName
	if firstName == "" && lastName == "" {
		firstName, lastName = email.DeriveNameFromEmail(addr)
	}

	u := &models.User{
		ID:           id.NewUserID(),
		Email:        addr,
		PasswordHash: hash,
		FirstName:    firstName,
		LastName:     lastName,
		Role:         input.Role,
		Validated:    input.Role == id.RoleCitizen,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.users.Save(ctx, u); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "email is already registered")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save user")
	}

	s.logger.InfoContext(ctx, "user registered",
		"user_id", u.ID.String(), "role", u.Role.String())
	return u, nil
}

// Login verifies credentials and issues an access token. Banned accounts and
// volunteers awaiting validation are rejected.
func (s *Service) Login(ctx context.Context, emailAddr, password string) (*LoginResult, error) {
	u, err := s.users.FindByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}

	if err := secrets.Verify(password, u.PasswordHash); err != nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
	}
	if u.Banned {
		return nil, dErrors.New(dErrors.CodeForbidden, "account is banned")
	}
	if !u.Validated {
		return nil, dErrors.New(dErrors.CodeForbidden, "account is awaiting validation")
	}

	token, err := s.tokens.GenerateAccessToken(u.ID, u.Role, s.tokenTTL)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue token")
	}

	s.logger.InfoContext(ctx, "user logged in", "user_id", u.ID.String())
	return &LoginResult{Token: token, ExpiresIn: s.tokenTTL, User: u}, nil
}

// Logout puts the current token's jti on the revocation list for the token's
// maximum remaining lifetime. Logout without a token is a no-op success so
// clients can always clear local state.
func (s *Service) Logout(ctx context.Context) error {
	jti := requestcontext.TokenID(ctx)
	if jti == "" {
		return nil
	}
	if err := s.revoked.RevokeToken(ctx, jti, s.tokenTTL); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke token")
	}
	s.logger.InfoContext(ctx, "user logged out",
		"user_id", requestcontext.UserID(ctx).String())
	return nil
}

// Me returns the authenticated user's account.
func (s *Service) Me(ctx context.Context) (*models.User, error) {
	actorID := requestcontext.UserID(ctx)
	if actorID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	u, err := s.users.FindByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}
	return u, nil
}
