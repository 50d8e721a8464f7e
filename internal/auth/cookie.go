package auth

import (
	"net/http"
	"time"
)

// CookieConfig describes the session cookie carrying the JWT for browsers.
type CookieConfig struct {
	Name   string
	Secure bool
	TTL    time.Duration
}

// New returns a session cookie holding token.
func (c CookieConfig) New(token string) *http.Cookie {
	return &http.Cookie{
		Name:     c.Name,
		Value:    token,
		Path:     "/",
		MaxAge:   int(c.TTL.Seconds()),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// Clear returns a cookie that deletes the session cookie.
func (c CookieConfig) Clear() *http.Cookie {
	return &http.Cookie{
		Name:     c.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}
