package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	domainauth "github.com/partkeep/partkeep/internal/domain/auth"
	"github.com/partkeep/partkeep/internal/service"
)

// Cookie names shared across handlers and middleware.
const (
	SessionCookieName = "session_id"

	oauthStateCookie        = "oauth_state"
	oauthNonceCookie        = "oauth_nonce"
	postLoginRedirectCookie = "post_login_redirect"
)

// Post-authentication landing pages, keyed by decision tier.
const (
	AdminDashboardPath = "/admin/dashboard"
	DashboardPath      = "/dashboard"
	LoginPath          = "/userauth/login"
)

// AuthServiceInterface defines the auth service surface the HTTP layer needs.
type AuthServiceInterface interface {
	SignInWithPassword(ctx context.Context, username, password string) (*domainauth.Session, error)
	SignUp(ctx context.Context, in service.SignUpInput) (*domainauth.Session, error)
	ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error
	BeginLogin(ctx context.Context, redirectURL string) (*service.BeginLoginResult, error)
	CompleteLogin(ctx context.Context, input service.CompleteLoginInput) (*service.CompleteLoginResult, error)
	GetSession(ctx context.Context, sessionID string) (*domainauth.Session, error)
	Resolve(ctx context.Context, sessionID string) domainauth.Decision
	Logout(ctx context.Context, sessionID string) error
}

// AuthHandlers provides HTTP handlers for authentication operations.
type AuthHandlers struct {
	Svc          AuthServiceInterface
	CookieDomain string
	Logger       *slog.Logger
	// UI renders the login and signup pages with inline errors. Optional;
	// without it, failures fall back to a redirect with a query flag.
	UI *UIHandlers
}

func (h *AuthHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// Entry handles the exact root path. It resolves the authorization decision
// once and issues a single redirect: admins to the admin dashboard, other
// authenticated users to theirs, everyone else to login.
// GET /{$}.
func (h *AuthHandlers) Entry(w http.ResponseWriter, r *http.Request) {
	decision := domainauth.DecisionUnauthenticated
	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		decision = h.Svc.Resolve(r.Context(), cookie.Value)
	}

	target := LoginPath
	switch {
	case decision.Admin():
		target = AdminDashboardPath
	case decision.Authenticated():
		target = DashboardPath
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// SignIn handles password form submissions.
// POST /userauth/login.
func (h *AuthHandlers) SignIn(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderLoginError(w, r, "Invalid form submission.")
		return
	}

	username := strings.TrimSpace(r.PostFormValue("username"))
	password := r.PostFormValue("password")

	session, err := h.Svc.SignInWithPassword(r.Context(), username, password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidLogin) {
			h.renderLoginError(w, r, "Invalid username or password.")
			return
		}
		h.logger().ErrorContext(r.Context(), "sign-in failed", "error", err)
		h.renderLoginError(w, r, "Unable to sign in right now. Please try again.")
		return
	}

	h.setSessionCookie(w, r, *session)
	http.Redirect(w, r, h.postLoginTarget(r, session), http.StatusSeeOther)
}

// SignUp handles self-service account creation.
// POST /userauth/signup.
func (h *AuthHandlers) SignUp(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderSignupError(w, r, "Invalid form submission.")
		return
	}

	req := service.SignUpInput{}
	req.Request.Username = strings.TrimSpace(r.PostFormValue("username"))
	req.Request.Email = strings.TrimSpace(r.PostFormValue("email"))
	req.Request.FullName = strings.TrimSpace(r.PostFormValue("full_name"))
	req.Request.Password = r.PostFormValue("password")
	req.Request.ConfirmPassword = r.PostFormValue("confirm_password")

	session, err := h.Svc.SignUp(r.Context(), req)
	if err != nil {
		h.renderSignupError(w, r, signupErrorMessage(err))
		return
	}

	h.setSessionCookie(w, r, *session)
	http.Redirect(w, r, DashboardPath, http.StatusSeeOther)
}

// ChangePassword rotates the current user's credential.
// POST /userauth/change-password (behind RequireAuthBrowser).
func (h *AuthHandlers) ChangePassword(w http.ResponseWriter, r *http.Request) {
	session := GetSessionFromContext(r.Context())
	if session == nil {
		http.Redirect(w, r, LoginPath, http.StatusSeeOther)
		return
	}
	if err := r.ParseForm(); err != nil {
		h.renderChangePasswordError(w, r, "Invalid form submission.")
		return
	}

	current := r.PostFormValue("current_password")
	next := r.PostFormValue("new_password")
	confirm := r.PostFormValue("confirm_password")
	if next != confirm {
		h.renderChangePasswordError(w, r, "New passwords do not match.")
		return
	}

	if err := h.Svc.ChangePassword(r.Context(), session.UserID, current, next); err != nil {
		h.renderChangePasswordError(w, r, changePasswordErrorMessage(err))
		return
	}

	http.Redirect(w, r, h.dashboardFor(session), http.StatusSeeOther)
}

// SSOLogin initiates the redirect-based OIDC flow.
// GET /userauth/sso?redirect_uri=<optional_redirect>.
func (h *AuthHandlers) SSOLogin(w http.ResponseWriter, r *http.Request) {
	redirectURI := safeRedirectPath(r.URL.Query().Get("redirect_uri"))

	result, err := h.Svc.BeginLogin(r.Context(), redirectURI)
	if err != nil {
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: "login_failed",
			Err:     err,
		})
		return
	}

	h.setOAuthCookies(w, r, oauthCookieParams{State: result.State, Nonce: result.Nonce, RedirectURI: redirectURI})
	http.Redirect(w, r, result.AuthURL, http.StatusFound)
}

// Callback handles the OAuth callback endpoint.
// GET /userauth/callback?code=<code>&state=<state>.
func (h *AuthHandlers) Callback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")
	if code == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "missing_code",
			Err:     errors.New("authorization code is required"),
		})
		return
	}
	if state == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "missing_state",
			Err:     errors.New("state parameter is required"),
		})
		return
	}

	// Verify state and read nonce
	stateCookie, err := r.Cookie(oauthStateCookie)
	if err != nil || stateCookie.Value != state {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "invalid_state",
			Err:     errors.New("invalid or missing state parameter"),
		})
		return
	}
	nonceCookie, err := r.Cookie(oauthNonceCookie)
	if err != nil {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "missing_nonce",
			Err:     errors.New("missing nonce parameter"),
		})
		return
	}

	result, err := h.Svc.CompleteLogin(r.Context(), service.CompleteLoginInput{
		Code:  code,
		State: state,
		Nonce: nonceCookie.Value,
	})
	if err != nil {
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: "login_completion_failed",
			Err:     err,
		})
		return
	}

	// Set session cookie and clear temporary OAuth cookies
	h.setSessionCookie(w, r, result.Session)
	h.clearCookie(w, r, oauthStateCookie)
	h.clearCookie(w, r, oauthNonceCookie)

	redirectURI := h.getPostLoginRedirect(w, r)
	if redirectURI == "/" {
		redirectURI = h.dashboardFor(&result.Session)
	}
	http.Redirect(w, r, redirectURI, http.StatusFound)
}

// Logout deletes the server-side session, clears the cookie, and redirects home.
// POST /userauth/logout.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	if sessionCookie, err := r.Cookie(SessionCookieName); err == nil {
		if logoutErr := h.Svc.Logout(r.Context(), sessionCookie.Value); logoutErr != nil {
			h.logger().WarnContext(r.Context(), "logout failed", "error", logoutErr)
		}
	}

	h.clearCookie(w, r, SessionCookieName)

	// AJAX/HTMX requests get a JSON payload; regular requests redirect
	isAJAX := strings.Contains(r.Header.Get("Accept"), "application/json") ||
		strings.EqualFold(r.Header.Get("Hx-Request"), "true") ||
		strings.EqualFold(r.Header.Get("X-Requested-With"), "XMLHttpRequest")
	if isAJAX {
		WriteJSON(w, http.StatusOK, map[string]string{
			"status":      "success",
			"redirect_to": "/",
		})
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Status returns the current authentication status.
// GET /userauth/status.
func (h *AuthHandlers) Status(w http.ResponseWriter, r *http.Request) {
	sessionCookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		WriteJSON(w, http.StatusOK, map[string]interface{}{
			"authenticated": false,
		})
		return
	}

	session, err := h.Svc.GetSession(r.Context(), sessionCookie.Value)
	if err != nil {
		// Session is invalid or expired, clear the cookie
		h.clearCookie(w, r, SessionCookieName)
		WriteJSON(w, http.StatusOK, map[string]interface{}{
			"authenticated": false,
		})
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"authenticated": true,
		"user": map[string]interface{}{
			"id":       session.UserID,
			"username": session.Username,
			"email":    session.Email,
			"role":     session.Role,
		},
		"expires_at": session.ExpiresAt,
	})
}

// dashboardFor returns the role-appropriate landing page.
func (h *AuthHandlers) dashboardFor(s *domainauth.Session) string {
	if s != nil && s.IsAdmin() {
		return AdminDashboardPath
	}
	return DashboardPath
}

// postLoginTarget picks the redirect destination after a successful password
// login: an explicit safe redirect_uri wins, otherwise the role dashboard.
func (h *AuthHandlers) postLoginTarget(r *http.Request, s *domainauth.Session) string {
	candidate := r.PostFormValue("redirect_uri")
	if candidate == "" {
		candidate = r.URL.Query().Get("redirect_uri")
	}
	if candidate != "" {
		if safe := safeRedirectPath(candidate); safe != "/" {
			return safe
		}
	}
	return h.dashboardFor(s)
}

func (h *AuthHandlers) renderLoginError(w http.ResponseWriter, r *http.Request, msg string) {
	if h.UI != nil {
		w.WriteHeader(http.StatusUnprocessableEntity)
		h.UI.renderLoginPage(w, r, loginPageData{
			Username:    strings.TrimSpace(r.PostFormValue("username")),
			RedirectURI: safeRedirectPath(r.PostFormValue("redirect_uri")),
			Error:       msg,
		})
		return
	}
	http.Redirect(w, r, LoginPath+"?error=1", http.StatusSeeOther)
}

func (h *AuthHandlers) renderSignupError(w http.ResponseWriter, r *http.Request, msg string) {
	if h.UI != nil {
		w.WriteHeader(http.StatusUnprocessableEntity)
		h.UI.renderSignupPage(w, r, signupPageData{
			Username: strings.TrimSpace(r.PostFormValue("username")),
			Email:    strings.TrimSpace(r.PostFormValue("email")),
			FullName: strings.TrimSpace(r.PostFormValue("full_name")),
			Error:    msg,
		})
		return
	}
	http.Redirect(w, r, "/userauth/signup?error=1", http.StatusSeeOther)
}

func (h *AuthHandlers) renderChangePasswordError(w http.ResponseWriter, r *http.Request, msg string) {
	if h.UI != nil {
		w.WriteHeader(http.StatusUnprocessableEntity)
		h.UI.renderChangePasswordPage(w, r, msg)
		return
	}
	http.Redirect(w, r, "/userauth/change-password?error=1", http.StatusSeeOther)
}

// signupErrorMessage maps service errors to user-facing copy.
func signupErrorMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "Request was canceled. Please try again."
	case isValidationError(err):
		return capitalizeSentence(err.Error())
	default:
		return "Unable to create the account right now. Please try again."
	}
}

func changePasswordErrorMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, service.ErrInvalidLogin):
		return "Current password is incorrect."
	case isValidationError(err):
		return capitalizeSentence(err.Error())
	default:
		return "Unable to change the password right now. Please try again."
	}
}

// isValidationError reports whether the error carries a user-correctable
// message (request validation or a duplicate key) rather than an internal
// failure.
func isValidationError(err error) bool {
	msg := err.Error()
	for _, marker := range []string{"required", "cannot exceed", "must", "already exists", "do not match", "at least", "valid email"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

func capitalizeSentence(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:] + "."
}

// clearCookie clears a cookie by setting it to expire immediately.
// It mirrors key attributes (Secure, Path, Domain, SameSite) used when setting cookies
// to maximize compatibility across browsers during deletion.
func (h *AuthHandlers) clearCookie(w http.ResponseWriter, r *http.Request, name string) {
	isSecure := r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
	cd := h.CookieDomain
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Domain:   cd,
		HttpOnly: true,
		Secure:   isSecure,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0).UTC(),
		SameSite: http.SameSiteLaxMode,
	})
}

// oauthCookieParams groups values needed to set OAuth cookies.
type oauthCookieParams struct {
	State       string
	Nonce       string
	RedirectURI string
}

// setOAuthCookies stores OAuth state, nonce, and the post-login redirect in secure cookies.
func (h *AuthHandlers) setOAuthCookies(w http.ResponseWriter, r *http.Request, p oauthCookieParams) {
	isSecure := r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
	cd := h.CookieDomain

	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    p.State,
		Path:     "/",
		Domain:   cd,
		HttpOnly: true,
		Secure:   isSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   600, // 10 minutes
	})

	http.SetCookie(w, &http.Cookie{
		Name:     oauthNonceCookie,
		Value:    p.Nonce,
		Path:     "/",
		Domain:   cd,
		HttpOnly: true,
		Secure:   isSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   600, // 10 minutes
	})

	http.SetCookie(w, &http.Cookie{
		Name:     postLoginRedirectCookie,
		Value:    p.RedirectURI,
		Path:     "/",
		Domain:   cd,
		HttpOnly: true,
		Secure:   isSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   600, // 10 minutes
	})
}

// setSessionCookie writes the session cookie based on the session's expiry.
func (h *AuthHandlers) setSessionCookie(w http.ResponseWriter, r *http.Request, s domainauth.Session) {
	isSecure := r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
	cd := h.CookieDomain
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    s.ID,
		Path:     "/",
		Domain:   cd,
		HttpOnly: true,
		Secure:   isSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(time.Until(s.ExpiresAt).Seconds()),
	})
}

// getPostLoginRedirect returns the post-login redirect URL and clears the cookie.
func (h *AuthHandlers) getPostLoginRedirect(w http.ResponseWriter, r *http.Request) string {
	redirectURI := "/"
	if redirectCookie, err := r.Cookie(postLoginRedirectCookie); err == nil {
		candidate := redirectCookie.Value
		// Defensive re-validation: allow only relative paths
		u, parseErr := url.Parse(candidate)
		if parseErr == nil && !u.IsAbs() && u.Host == "" && strings.HasPrefix(u.Path, "/") {
			redirectURI = candidate
		}
		h.clearCookie(w, r, postLoginRedirectCookie)
	}
	return redirectURI
}

// safeRedirectPath ensures the provided redirect is a same-origin relative path
// starting with "/" and not an absolute URL. Returns "/" when invalid.
func safeRedirectPath(candidate string) string {
	if candidate == "" {
		return "/"
	}
	u, err := url.Parse(candidate)
	if err != nil || u.IsAbs() || u.Host != "" || !strings.HasPrefix(u.Path, "/") {
		return "/"
	}
	return candidate
}
