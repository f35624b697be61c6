package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/turflog/internal/auth"
	"github.com/sakif/turflog/internal/model"
	"github.com/sakif/turflog/internal/repository"
)

// IdentityProvider is the Google side of login. *auth.GoogleProvider
// satisfies it; tests use a fake.
type IdentityProvider interface {
	Profile(ctx context.Context, accessToken string) (*auth.GoogleUser, error)
	Exchange(ctx context.Context, code string) (*auth.GoogleUser, error)
}

// AuthService turns a verified Google identity into one of our bearer
// tokens.
//
//	AuthHandler (HTTP) → AuthService → IdentityProvider (Google)
//	                                 → UserRepository  (upsert)
//	                                 → TokenService    (JWT {email})
type AuthService struct {
	users    repository.UserRepository
	tokens   *auth.TokenService
	identity IdentityProvider
	logger   *slog.Logger
}

func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	identity IdentityProvider,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:    users,
		tokens:   tokens,
		identity: identity,
		logger:   logger,
	}
}

// AuthResult bundles the user and the issued token.
type AuthResult struct {
	User  *model.User
	Token string
}

// LoginWithAccessToken handles clients that already completed Google sign-in
// and hold a Google access token.
func (s *AuthService) LoginWithAccessToken(ctx context.Context, accessToken string) (*AuthResult, error) {
	gu, err := s.identity.Profile(ctx, accessToken)
	if err != nil {
		return nil, fmt.Errorf("service/auth: fetching google profile: %w", err)
	}
	return s.Login(ctx, gu)
}

// LoginWithCode handles the browser redirect flow.
func (s *AuthService) LoginWithCode(ctx context.Context, code string) (*AuthResult, error) {
	gu, err := s.identity.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("service/auth: exchanging google code: %w", err)
	}
	return s.Login(ctx, gu)
}

// Login upserts the user (first login creates, later logins re-sync name and
// picture) and issues a token carrying their email.
func (s *AuthService) Login(ctx context.Context, gu *auth.GoogleUser) (*AuthResult, error) {
	if gu == nil {
		return nil, fmt.Errorf("service/auth: google user must not be nil")
	}

	user := &model.User{
		Email:         gu.Email,
		Name:          gu.Name,
		ProfilePicURL: gu.Picture,
	}
	if err := s.users.Upsert(ctx, user); err != nil {
		return nil, fmt.Errorf("service/auth: upserting user %s: %w", gu.Email, err)
	}

	token, err := s.tokens.Issue(user.Email)
	if err != nil {
		return nil, fmt.Errorf("service/auth: issuing token for %s: %w", user.Email, err)
	}

	s.logger.Info("user authenticated via Google",
		slog.String("userID", user.ID),
		slog.String("email", user.Email),
	)
	return &AuthResult{User: user, Token: token}, nil
}

// Profile returns the caller's user record.
func (s *AuthService) Profile(ctx context.Context, email string) (*model.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("service/auth: fetching profile %s: %w", email, err)
	}
	return user, nil
}
