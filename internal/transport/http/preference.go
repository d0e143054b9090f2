//go:generate go run github.com/abice/go-enum --file=$GOFILE --names --nocase

package http

import (
	"net/http"
	"strings"
	"time"
)

// DarkMode is the stored colour scheme preference
// ENUM(enabled,disabled)
type DarkMode string

const darkModeCookie = "darkMode"

// darkModeFrom reads the preference, defaulting to disabled
func darkModeFrom(r *http.Request) DarkMode {
	c, err := r.Cookie(darkModeCookie)
	if err != nil {
		return DarkModeDisabled
	}
	mode, err := ParseDarkMode(c.Value)
	if err != nil {
		return DarkModeDisabled
	}
	return mode
}

func (s *Server) handleToggleDarkMode(w http.ResponseWriter, r *http.Request) {
	next := DarkModeEnabled
	if darkModeFrom(r) == DarkModeEnabled {
		next = DarkModeDisabled
	}

	http.SetCookie(w, &http.Cookie{
		Name:     darkModeCookie,
		Value:    next.String(),
		Path:     "/",
		Expires:  time.Now().AddDate(1, 0, 0),
		HttpOnly: true,
		Secure:   s.cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, localPath(r.FormValue("return_to")), http.StatusSeeOther)
}

// localPath keeps redirects on this site
func localPath(p string) string {
	if p == "" || !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") || strings.HasPrefix(p, "/\\") {
		return "/"
	}
	return p
}
