package auth

import (
	"net/http"
	"strings"
	"time"

	"github.com/mssola/useragent"
)

// CookieConfig parámetros de la cookie de sesión.
type CookieConfig struct {
	Name     string
	Domain   string
	SameSite string
	Secure   bool
}

func ParseSameSite(s string) http.SameSite {
	switch strings.TrimSpace(strings.ToLower(s)) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

func (c CookieConfig) name() string {
	if c.Name == "" {
		return DefaultCookieName
	}
	return c.Name
}

// build arma la cookie del token; expira junto con el token.
func (c CookieConfig) build(value string, expires time.Time, now time.Time) *http.Cookie {
	ck := &http.Cookie{
		Name:     c.name(),
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: ParseSameSite(c.SameSite),
		Expires:  expires.UTC(),
	}
	if ttl := expires.Sub(now); ttl > 0 {
		ck.MaxAge = int(ttl.Seconds())
	}
	if strings.TrimSpace(c.Domain) != "" {
		ck.Domain = c.Domain
	}
	return ck
}

func (c CookieConfig) deletion() *http.Cookie {
	ck := &http.Cookie{
		Name:     c.name(),
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: ParseSameSite(c.SameSite),
		Expires:  time.Unix(0, 0).UTC(),
		MaxAge:   -1,
	}
	if strings.TrimSpace(c.Domain) != "" {
		ck.Domain = c.Domain
	}
	return ck
}

// NeedsCookie detecta clientes que no leen de forma confiable el token del
// body (Safari y cualquier browser de iOS) y necesitan la cookie.
func NeedsCookie(userAgent string) bool {
	if userAgent == "" {
		return false
	}
	ua := useragent.New(userAgent)
	switch ua.Platform() {
	case "iPhone", "iPad", "iPod", "iPod touch":
		return true
	}
	if strings.Contains(ua.OS(), "iPhone OS") || strings.Contains(ua.OS(), "CPU OS") {
		return true
	}
	name, _ := ua.Browser()
	return name == "Safari"
}
