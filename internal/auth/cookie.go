package auth

import (
	"net/http"
	"strings"
	"time"
)

// SessionCookieName is the cookie carrying the session token.
const SessionCookieName = "session"

// CookieOptions are the attributes shared by every session cookie.
type CookieOptions struct {
	Secure   bool
	SameSite http.SameSite
}

// ParseSameSite maps "lax", "strict" or "none" to http.SameSite. Unknown values fall back to Lax.
func ParseSameSite(v string) http.SameSite {
	switch strings.ToLower(v) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

// SessionCookie wraps a signed session token.
func SessionCookie(token string, opts CookieOptions, now time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  now.Add(SessionTokenExpiry),
		MaxAge:   int(SessionTokenExpiry.Seconds()),
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: opts.SameSite,
	}
}

// ClearedSessionCookie overwrites the session cookie with an expired empty value.
// The previously issued token stays valid until its own expiry.
func ClearedSessionCookie(opts CookieOptions) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: opts.SameSite,
	}
}

const (
	// OAuthStateCookieName carries the state nonce of a pending Google sign-in.
	OAuthStateCookieName = "oauth_state"
	// OAuthStateTTL bounds how long a started sign-in may take.
	OAuthStateTTL = 10 * time.Minute
)

// OAuthStateCookie binds a sign-in started by this browser to its callback.
// Strict is relaxed to Lax so the cookie survives the provider's redirect.
func OAuthStateCookie(state string, opts CookieOptions, now time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     OAuthStateCookieName,
		Value:    state,
		Path:     "/",
		Expires:  now.Add(OAuthStateTTL),
		MaxAge:   int(OAuthStateTTL.Seconds()),
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: stateSameSite(opts.SameSite),
	}
}

// ClearedOAuthStateCookie expires the state cookie.
func ClearedOAuthStateCookie(opts CookieOptions) *http.Cookie {
	return &http.Cookie{
		Name:     OAuthStateCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: stateSameSite(opts.SameSite),
	}
}

func stateSameSite(s http.SameSite) http.SameSite {
	if s == http.SameSiteStrictMode {
		return http.SameSiteLaxMode
	}
	return s
}
