package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/csrf"
	authDomain "github.com/reshetovitsme/askanon/internal/modules/auth/domain"
	apperrors "github.com/reshetovitsme/askanon/internal/shared/errors"
)

type contextKey string

const identityKey contextKey = "identity"

// sessionCookie carries the identity token for the web admin panel
const sessionCookie = "__session"

// identityFrom returns the verified admin stored by requireAdmin
func identityFrom(ctx context.Context) (authDomain.Identity, bool) {
	id, ok := ctx.Value(identityKey).(authDomain.Identity)
	return id, ok
}

// securityHeaders adds the usual browser hardening headers
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Security-Policy", "default-src 'self'; style-src 'self'; img-src 'self'; form-action 'self'; frame-ancestors 'none'")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// csrf protects form posts. The JSON API under /api/ is exempt, it
// authenticates with bearer tokens rather than cookies.
func (s *Server) csrf(next http.Handler) http.Handler {
	protect := csrf.Protect(
		[]byte(s.cfg.CSRFKey),
		csrf.Secure(s.cfg.SecureCookies),
		csrf.Path("/"),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.TrustedOrigins(s.cfg.CSRFTrustedOrigins),
		csrf.ErrorHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s.logger.Warn("CSRF check failed", "path", r.URL.Path, "reason", csrf.FailureReason(r))
			s.renderMessage(w, r, http.StatusForbidden, "Your form expired. Please go back and try again.")
		})),
	)(next)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			next.ServeHTTP(w, r)
			return
		}
		if r.TLS == nil && !s.cfg.SecureCookies {
			r = csrf.PlaintextHTTPRequest(r)
		}
		protect.ServeHTTP(w, r)
	})
}

// requireAdmin gates admin pages on the session cookie
func (s *Server) requireAdmin(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(sessionCookie)
		if err != nil || c.Value == "" {
			http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
			return
		}

		claims, err := s.verifier.VerifyAdmin(c.Value)
		switch {
		case errors.Is(err, apperrors.ErrNotAdmin):
			s.renderMessage(w, r, http.StatusForbidden, "Access denied: not an admin.")
			return
		case err != nil:
			s.logger.Warn("Admin token rejected", "error", err)
			s.renderMessage(w, r, http.StatusUnauthorized, "Error checking admin status.")
			return
		}

		ctx := context.WithValue(r.Context(), identityKey, claims.Identity())
		next(w, r.WithContext(ctx))
	})
}

// requireAdminAPI gates admin API routes on a bearer token
func (s *Server) requireAdminAPI(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := bearerToken(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "Sign in required.")
			return
		}

		claims, err := s.verifier.VerifyAdmin(raw)
		switch {
		case errors.Is(err, apperrors.ErrNotAdmin):
			writeError(w, http.StatusForbidden, "Access denied: not an admin.")
			return
		case err != nil:
			s.logger.Warn("Admin token rejected", "error", err)
			writeError(w, http.StatusUnauthorized, "Error checking admin status.")
			return
		}

		ctx := context.WithValue(r.Context(), identityKey, claims.Identity())
		next(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
