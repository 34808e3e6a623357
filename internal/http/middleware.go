package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"runtime/debug"
	"strings"
	"time"

	domainauth "github.com/partkeep/partkeep/internal/domain/auth"
)

// Logging returns a middleware that logs HTTP requests and responses.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			const defaultHTTPStatus = 200
			ww := &respWriter{ResponseWriter: w, status: defaultHTTPStatus}
			next.ServeHTTP(ww, r)
			logger.Info("http",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.status),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

type respWriter struct {
	http.ResponseWriter
	status int
}

func (w *respWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Recover returns a middleware that recovers from panics and logs them.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("panic",
						slog.Any("error", err),
						slog.String("path", r.URL.Path),
						slog.String("method", r.Method),
						slog.String("stack", string(debug.Stack())))
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// guardOpts parameterizes the single session guard all protected routes share.
type guardOpts struct {
	// Role is the minimum role required. Empty means any authenticated session.
	Role domainauth.Role
	// BrowserAware redirects browser requests to the login page instead of
	// answering with JSON.
	BrowserAware bool
}

// guard is the one session gate in the application. Every ambiguous outcome
// (no cookie, expired or orphaned session, canceled context, store failure)
// resolves to unauthenticated, so access fails closed.
func guard(authSvc AuthServiceInterface, opts guardOpts) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, decision := resolveRequest(r, authSvc)

			if !decision.Authenticated() {
				if opts.BrowserAware && IsBrowserRequest(r) {
					redirectToLogin(w, r)
					return
				}
				WriteError(w, ErrorParams{
					Code:    http.StatusUnauthorized,
					ErrCode: "authentication_required",
					Err:     errors.New("authentication required"),
				})
				return
			}

			if opts.Role != "" && !session.Role.Meets(opts.Role) {
				if opts.BrowserAware && IsBrowserRequest(r) {
					// Non-admins are sent back through login rather than to an
					// access-denied page, matching the entry flow.
					redirectToLogin(w, r)
					return
				}
				WriteError(w, ErrorParams{
					Code:    http.StatusForbidden,
					ErrCode: "insufficient_permissions",
					Err:     errors.New("insufficient permissions"),
				})
				return
			}

			ctx := SetSessionInContext(r.Context(), session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth requires an authenticated session and answers JSON on failure.
func RequireAuth(authSvc AuthServiceInterface) func(http.Handler) http.Handler {
	return guard(authSvc, guardOpts{})
}

// RequireRole requires at least the given role and answers JSON on failure.
func RequireRole(authSvc AuthServiceInterface, role domainauth.Role) func(http.Handler) http.Handler {
	return guard(authSvc, guardOpts{Role: role})
}

// RequireAuthBrowser requires an authenticated session with browser-aware behavior.
// Browser requests are redirected to the login page; API requests get 401 JSON.
func RequireAuthBrowser(authSvc AuthServiceInterface) func(http.Handler) http.Handler {
	return guard(authSvc, guardOpts{BrowserAware: true})
}

// RequireRoleBrowser requires at least the given role with browser-aware behavior.
// Browser requests that fall short are redirected to the login page; API
// requests get 401/403 JSON.
func RequireRoleBrowser(authSvc AuthServiceInterface, role domainauth.Role) func(http.Handler) http.Handler {
	return guard(authSvc, guardOpts{Role: role, BrowserAware: true})
}

// OptionalAuth adds session information to the context when present without
// blocking unauthenticated requests.
func OptionalAuth(authSvc AuthServiceInterface) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if session, decision := resolveRequest(r, authSvc); decision.Authenticated() {
				r = r.WithContext(SetSessionInContext(r.Context(), session))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// resolveRequest turns the request's session cookie into a session plus an
// authorization decision. A request whose context is already canceled is
// treated as unauthenticated without touching the session store.
func resolveRequest(r *http.Request, authSvc AuthServiceInterface) (*domainauth.Session, domainauth.Decision) {
	if r.Context().Err() != nil {
		return nil, domainauth.DecisionUnauthenticated
	}

	sessionCookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return nil, domainauth.DecisionUnauthenticated
	}

	session, err := authSvc.GetSession(r.Context(), sessionCookie.Value)
	if err != nil || session == nil {
		return nil, domainauth.DecisionUnauthenticated
	}

	if session.IsAdmin() {
		return session, domainauth.DecisionAuthenticatedAdmin
	}
	return session, domainauth.DecisionAuthenticated
}

// browserRequestKey is an unexported context key type for browser request detection.
type browserRequestKey struct{}

// BrowserDetection returns a middleware that detects browser requests vs API requests.
// It sets a context value that can be used by downstream handlers to determine
// whether to return HTML or JSON responses.
func BrowserDetection() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			isBrowser := isBrowserRequest(r)
			ctx := context.WithValue(r.Context(), browserRequestKey{}, isBrowser)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IsBrowserRequest returns true if the current request is from a browser.
func IsBrowserRequest(r *http.Request) bool {
	if val := r.Context().Value(browserRequestKey{}); val != nil {
		if isBrowser, ok := val.(bool); ok {
			return isBrowser
		}
	}
	// Fallback to direct detection if middleware wasn't used
	return isBrowserRequest(r)
}

// isBrowserRequest determines if a request is from a browser based on:
// 1. Path prefix - API routes start with /api/
// 2. Accept header - browsers typically accept text/html
// 3. HTMX requests are considered browser requests.
func isBrowserRequest(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		return false
	}

	if strings.HasPrefix(r.URL.Path, "/static/") {
		return false
	}

	if IsHTMX(r) {
		return true
	}

	accept := r.Header.Get("Accept")
	if accept == "" {
		// No Accept header, assume browser for non-API routes
		return true
	}

	return strings.Contains(accept, "text/html")
}

// redirectToLogin redirects browser requests to the login page with the current URL as redirect_uri.
func redirectToLogin(w http.ResponseWriter, r *http.Request) {
	redirectPath := redirectPathForRequest(r)
	if redirectPath == "" {
		redirectPath = "/"
	}
	redirectParam := url.QueryEscape(redirectPath)
	loginURL := "/userauth/login?redirect_uri=" + redirectParam

	if IsHTMX(r) {
		// For HTMX requests, instruct the browser to navigate to the login page
		// instead of swapping an error fragment into the current view.
		SetHXRedirect(w, loginURL)
		w.WriteHeader(http.StatusOK)
		return
	}

	http.Redirect(w, r, loginURL, http.StatusSeeOther)
}

func redirectPathForRequest(r *http.Request) string {
	if IsHTMX(r) {
		if current := safeRedirectFromURL(r.Header.Get("Hx-Current-Url")); current != "" {
			return current
		}
		if referer := safeRedirectFromURL(r.Header.Get("Referer")); referer != "" {
			return referer
		}
	}

	return safeRedirectPath(r.URL.RequestURI())
}

func safeRedirectFromURL(raw string) string {
	if raw == "" {
		return ""
	}

	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}

	// Reject scheme-relative or host-only references.
	if u.Host != "" && !u.IsAbs() {
		return ""
	}

	// For absolute URLs, use just the path/query portion to keep redirects within the app.
	if u.IsAbs() {
		return safeRedirectPath(u.RequestURI())
	}

	return safeRedirectPath(raw)
}
