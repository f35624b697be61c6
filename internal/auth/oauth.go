package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/sakif/turflog/internal/apperror"
)

// DefaultUserInfoURL is Google's OpenID Connect userinfo endpoint.
const DefaultUserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"

// GoogleUser is the portion of the userinfo response we keep.
type GoogleUser struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// GoogleProvider wraps golang.org/x/oauth2 for Google sign-in.
//
// Two entry points exist:
//   - Exchange: the browser Authorization Code flow (login -> callback)
//   - Profile: a client that already holds a Google access token (mobile or
//     SPA sign-in) hands it over and we read the profile with it
type GoogleProvider struct {
	config      *oauth2.Config
	userInfoURL string
}

// NewGoogleProvider creates a GoogleProvider. callbackURL must match the
// redirect URI registered in the Google Cloud console exactly.
func NewGoogleProvider(clientID, clientSecret, callbackURL string) *GoogleProvider {
	return &GoogleProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		userInfoURL: DefaultUserInfoURL,
	}
}

// WithUserInfoURL points the provider at a different userinfo endpoint.
func (p *GoogleProvider) WithUserInfoURL(u string) *GoogleProvider {
	p.userInfoURL = u
	return p
}

// AuthURL returns the consent-screen URL. state is echoed back on callback
// and checked against a cookie to stop CSRF logins.
func (p *GoogleProvider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange trades an authorization code for the user's profile.
func (p *GoogleProvider) Exchange(ctx context.Context, code string) (*GoogleUser, error) {
	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, apperror.Unauthenticated("google code exchange failed")
	}
	return p.fetch(ctx, p.config.Client(ctx, token))
}

// Profile reads the profile using an access token the client already holds.
func (p *GoogleProvider) Profile(ctx context.Context, accessToken string) (*GoogleUser, error) {
	if accessToken == "" {
		return nil, apperror.Unauthenticated("google access token is missing")
	}
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"})
	return p.fetch(ctx, oauth2.NewClient(ctx, src))
}

func (p *GoogleProvider) fetch(ctx context.Context, client *http.Client) (*GoogleUser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("auth: building userinfo request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, apperror.UpstreamUnavailable("google userinfo", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, apperror.Unauthenticated("google rejected the access token")
	case resp.StatusCode != http.StatusOK:
		return nil, apperror.UpstreamUnavailable("google userinfo",
			fmt.Errorf("status %d", resp.StatusCode))
	}

	var u GoogleUser
	if err := json.NewDecoder(resp.Body).Decode(&u); err != nil {
		return nil, apperror.UpstreamUnavailable("google userinfo", err)
	}
	if u.Email == "" {
		return nil, apperror.Unauthenticated("google profile has no email")
	}
	// The email is the account key, so only an address Google has verified may claim it.
	if !u.EmailVerified {
		return nil, apperror.Unauthenticated("google email is not verified")
	}

	return &u, nil
}
