// Package auth provides the bearer-token gate and the Google identity exchange.
//
// AUTHENTICATION FLOW OVERVIEW:
//  1. The client obtains a Google access token (or goes through /auth/google/login)
//  2. The server exchanges it for the verified Google profile (email, name, picture)
//  3. The server upserts the user and issues its own JWT carrying the email
//  4. Every protected call sends "Authorization: Bearer <jwt>"; RequireAuth
//     verifies it and puts the email in the request context
//
// JWT STRUCTURE (three base64-encoded parts separated by dots):
//
//	HEADER.PAYLOAD.SIGNATURE
//	- Header: {"alg":"HS256","typ":"JWT"}
//	- Payload: {"email":"a@b.com","sub":"a@b.com","iss":"turflog","exp":...}
//	- Signature: HMAC-SHA256(header+"."+payload, secretKey)
//
// Verification needs only the secret, never a database lookup.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sakif/turflog/internal/apperror"
)

const issuer = "turflog"

// TokenService handles JWT creation and validation.
//
// It holds the HMAC secret key used to sign and verify tokens. The key lives
// only in this process.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService creates a TokenService with the given secret and lifetime.
// The secret should be at least 32 bytes of random data in production.
// Example: JWT_SECRET=$(openssl rand -hex 32)
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	if ttl <= 0 {
		return nil, errors.New("auth: token lifetime must be positive")
	}
	return &TokenService{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// claims is the JWT payload. The email is duplicated into "sub" so generic
// JWT tooling can still identify the owner.
type claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Issue creates and signs an access token for email.
func (s *TokenService) Issue(email string) (string, error) {
	return s.IssueWithDuration(email, s.ttl)
}

// IssueWithDuration creates a token with a custom expiry duration.
// Used in tests to mint already-expired tokens.
func (s *TokenService) IssueWithDuration(email string, d time.Duration) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", errors.New("auth: cannot issue a token without an email")
	}

	now := s.now()
	c := claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Verify parses and checks a token and returns the email it carries.
//
// Every failure (empty, malformed, wrong algorithm, bad signature, expired,
// wrong issuer, no email) is reported as apperror.ErrUnauthenticated.
//
// ALGORITHM CONFUSION ATTACK:
// Passing jwt.WithValidMethods rejects tokens signed with "none" or with an
// asymmetric algorithm whose public key could be mistaken for our secret.
func (s *TokenService) Verify(tokenStr string) (string, error) {
	if tokenStr == "" {
		return "", apperror.Unauthenticated("token is missing")
	}

	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", apperror.Unauthenticated("token expired")
		}
		return "", apperror.Unauthenticated("invalid token")
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return "", apperror.Unauthenticated("invalid token claims")
	}
	if c.Email == "" {
		return "", apperror.Unauthenticated("token has no email")
	}

	return c.Email, nil
}
