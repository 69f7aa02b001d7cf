// Package oauth adapts the Google authorization-code grant.
package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"

	"jualapa/internal/config"
)

var (
	// ErrExchange is returned when the code cannot be traded for a token.
	ErrExchange = errors.New("oauth code exchange failed")
	// ErrProfile is returned when the user profile cannot be fetched.
	ErrProfile = errors.New("oauth profile fetch failed")
)

// Profile is the subset of the provider profile used to reconcile accounts.
type Profile struct {
	Email         string `json:"email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
	VerifiedEmail bool   `json:"verified_email"`
}

// Provider runs the two legs of the authorization-code grant.
type Provider interface {
	AuthCodeURL(state string) string
	FetchProfile(ctx context.Context, code string) (*Profile, error)
}

// GoogleProvider implements Provider for Google accounts.
type GoogleProvider struct {
	cfg         *oauth2.Config
	userInfoURL string
}

// NewGoogleProvider creates a provider from configuration.
func NewGoogleProvider(cfg config.GoogleConfig) *GoogleProvider {
	return &GoogleProvider{
		cfg: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.AuthURL,
				TokenURL: cfg.TokenURL,
			},
		},
		userInfoURL: cfg.UserInfoURL,
	}
}

// AuthCodeURL returns the consent page URL carrying state, which the
// provider echoes back to the callback.
func (g *GoogleProvider) AuthCodeURL(state string) string {
	return g.cfg.AuthCodeURL(state, oauth2.AccessTypeOnline, oauth2.SetAuthURLParam("prompt", "select_account"))
}

// FetchProfile exchanges code and reads the user profile with the resulting token.
func (g *GoogleProvider) FetchProfile(ctx context.Context, code string) (*Profile, error) {
	tok, err := g.cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExchange, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProfile, err)
	}
	resp, err := g.cfg.Client(ctx, tok).Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProfile, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrProfile, resp.StatusCode)
	}

	var p Profile
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrProfile, err)
	}
	if p.Email == "" {
		return nil, fmt.Errorf("%w: profile has no email", ErrProfile)
	}
	return &p, nil
}
