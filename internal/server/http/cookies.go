package httpserver

import (
	"net/http"
	"time"
)

const (
	accessCookie  = "access_token"
	refreshCookie = "refresh_token"

	// refresh_token is only sent to the session endpoints.
	refreshCookiePath = "/api/users"
)

// CookieConfig controls session cookie attributes.
type CookieConfig struct {
	Secure bool // production: Secure and SameSite=None
	Domain string
}

func (c CookieConfig) cookie(name, value, path string, maxAge int) *http.Cookie {
	ck := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		Domain:   c.Domain,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	if c.Secure {
		ck.SameSite = http.SameSiteNoneMode
	}
	return ck
}

func (c CookieConfig) setAccess(w http.ResponseWriter, token string, ttl time.Duration) {
	http.SetCookie(w, c.cookie(accessCookie, token, "/", int(ttl.Seconds())))
}

func (c CookieConfig) setRefresh(w http.ResponseWriter, token string, ttl time.Duration) {
	http.SetCookie(w, c.cookie(refreshCookie, token, refreshCookiePath, int(ttl.Seconds())))
}

func (c CookieConfig) clear(w http.ResponseWriter) {
	http.SetCookie(w, c.cookie(accessCookie, "", "/", -1))
	http.SetCookie(w, c.cookie(refreshCookie, "", refreshCookiePath, -1))
}

func cookieValue(r *http.Request, name string) string {
	ck, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return ck.Value
}
