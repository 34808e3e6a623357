package httpx

import (
	"bytes"
	"net/http"
)

// loginPageData carries form state for re-rendering the login page.
type loginPageData struct {
	Username    string
	RedirectURI string
	Error       string
}

// signupPageData carries form state for re-rendering the signup page.
type signupPageData struct {
	Username string
	Email    string
	FullName string
	Error    string
}

// Login renders the sign-in page.
// GET /userauth/login?redirect_uri=<optional_redirect>.
func (h *UIHandlers) Login(w http.ResponseWriter, r *http.Request) {
	h.renderLoginPage(w, r, loginPageData{
		RedirectURI: safeRedirectPath(r.URL.Query().Get("redirect_uri")),
	})
}

// Signup renders the account-creation page.
// GET /userauth/signup.
func (h *UIHandlers) Signup(w http.ResponseWriter, r *http.Request) {
	h.renderSignupPage(w, r, signupPageData{})
}

// ChangePassword renders the password-change page for the signed-in user.
// GET /userauth/change-password (behind RequireAuthBrowser).
func (h *UIHandlers) ChangePassword(w http.ResponseWriter, r *http.Request) {
	h.renderChangePasswordPage(w, r, "")
}

func (h *UIHandlers) renderLoginPage(w http.ResponseWriter, r *http.Request, form loginPageData) {
	data := map[string]any{
		"Title":       "Sign in - PartKeep",
		"Username":    form.Username,
		"RedirectURI": form.RedirectURI,
	}
	if form.Error != "" {
		data["Error"] = true
		data["ErrorMessage"] = form.Error
	}
	if token := GetCSRFToken(r); token != "" {
		data["CSRFToken"] = token
	}
	h.renderAuthPage(w, r, "login-page", data)
}

func (h *UIHandlers) renderSignupPage(w http.ResponseWriter, r *http.Request, form signupPageData) {
	data := map[string]any{
		"Title":    "Create account - PartKeep",
		"Username": form.Username,
		"Email":    form.Email,
		"FullName": form.FullName,
	}
	if form.Error != "" {
		data["Error"] = true
		data["ErrorMessage"] = form.Error
	}
	if token := GetCSRFToken(r); token != "" {
		data["CSRFToken"] = token
	}
	h.renderAuthPage(w, r, "signup-page", data)
}

func (h *UIHandlers) renderChangePasswordPage(w http.ResponseWriter, r *http.Request, errMsg string) {
	session := GetSessionFromContext(r.Context())
	meta := PageMeta{
		Title:       "Change password - PartKeep",
		PageTitle:   "Change Password",
		CurrentPage: PageChangePassword,
	}
	if session != nil && session.IsAdmin() {
		meta.AdminContext = true
	}
	data := basePageData(r, meta)
	if errMsg != "" {
		data["Error"] = true
		data["ErrorMessage"] = errMsg
	}
	h.renderDashboardPage(w, r, data)
}

// renderAuthPage renders a standalone (no navigation shell) auth template,
// buffering so a template error never produces a partial response.
func (h *UIHandlers) renderAuthPage(w http.ResponseWriter, r *http.Request, name string, data map[string]any) {
	if h.T == nil {
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	}
	var buf bytes.Buffer
	if err := h.T.t.ExecuteTemplate(&buf, name, data); err != nil {
		h.logAndRenderTemplateError(w, r, err, "auth page render")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := buf.WriteTo(w); err != nil {
		h.logger().Error("failed to write auth page", "error", err)
	}
}
