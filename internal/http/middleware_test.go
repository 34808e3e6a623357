package httpx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/partkeep/partkeep/internal/domain/auth"
)

func okHandler(sawSession **domainauth.Session) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if sawSession != nil {
			*sawSession = GetSessionFromContext(r.Context())
		}
		w.WriteHeader(http.StatusOK)
	})
}

func apiRequest(target, sessionID string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, target, nil)
	r.Header.Set("Accept", "application/json")
	if sessionID != "" {
		r.AddCookie(&http.Cookie{Name: SessionCookieName, Value: sessionID})
	}
	return r
}

func TestRequireAuth_NoCookieReturns401JSON(t *testing.T) {
	auth := newStubAuthService()
	h := RequireAuth(auth)(okHandler(nil))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, apiRequest("/api/components", ""))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "authentication_required")
}

func TestRequireAuth_UnknownSessionReturns401(t *testing.T) {
	auth := newStubAuthService()
	h := RequireAuth(auth)(okHandler(nil))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, apiRequest("/api/components", "no-such-session"))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAuth_SessionFlowsToHandler(t *testing.T) {
	auth := newStubAuthService()
	auth.addSession("s1", domainauth.RoleDesigner)

	var seen *domainauth.Session
	h := RequireAuth(auth)(okHandler(&seen))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, apiRequest("/api/components", "s1"))

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, seen)
	assert.Equal(t, "s1", seen.ID)
	assert.Equal(t, domainauth.RoleDesigner, seen.Role)
}

func TestRequireRole_DesignerDeniedAdminRoute(t *testing.T) {
	auth := newStubAuthService()
	auth.addSession("s1", domainauth.RoleDesigner)

	h := RequireRole(auth, domainauth.RoleAdmin)(okHandler(nil))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, apiRequest("/api/admin/users", "s1"))

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "insufficient_permissions")
}

func TestRequireRole_HigherRolePasses(t *testing.T) {
	auth := newStubAuthService()
	auth.addSession("s1", domainauth.RoleAdmin)

	h := RequireRole(auth, domainauth.RoleManager)(okHandler(nil))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, apiRequest("/api/reports", "s1"))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireRoleBrowser_DeniedBrowserRedirects(t *testing.T) {
	auth := newStubAuthService()
	auth.addSession("s1", domainauth.RoleManager)

	h := RequireRoleBrowser(auth, domainauth.RoleAdmin)(okHandler(nil))

	r := httptest.NewRequest(http.MethodGet, "/admin/users?q=smith", nil)
	r.Header.Set("Accept", "text/html")
	r.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "s1"})
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	loc := w.Header().Get("Location")
	assert.Contains(t, loc, LoginPath)
	// The denied URL, query included, survives the round trip.
	assert.Contains(t, loc, "redirect_uri=%2Fadmin%2Fusers%3Fq%3Dsmith")
}

func TestRequireRoleBrowser_DeniedAPIGets403(t *testing.T) {
	auth := newStubAuthService()
	auth.addSession("s1", domainauth.RoleDesigner)

	h := RequireRoleBrowser(auth, domainauth.RoleAdmin)(okHandler(nil))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, apiRequest("/api/admin/users", "s1"))

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "application/json")
}

func TestGuard_CanceledContextFailsClosed(t *testing.T) {
	auth := newStubAuthService()
	auth.addSession("s1", domainauth.RoleAdmin)

	h := RequireAuth(auth)(okHandler(nil))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := apiRequest("/api/components", "s1").WithContext(ctx)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	// The session store is never consulted once the request is dead.
	assert.Zero(t, auth.getSessionCalls)
}

func TestOptionalAuth_PassesThroughWithoutSession(t *testing.T) {
	auth := newStubAuthService()

	var seen *domainauth.Session
	h := OptionalAuth(auth)(okHandler(&seen))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/components", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, seen)
}

func TestOptionalAuth_AttachesSessionWhenPresent(t *testing.T) {
	auth := newStubAuthService()
	auth.addSession("s1", domainauth.RoleManager)

	var seen *domainauth.Session
	h := OptionalAuth(auth)(okHandler(&seen))

	r := httptest.NewRequest(http.MethodGet, "/components", nil)
	r.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "s1"})
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, seen)
	assert.Equal(t, domainauth.RoleManager, seen.Role)
}

func TestGuard_RoleCheckFollowsRoleOrdering(t *testing.T) {
	auth := newStubAuthService()
	auth.addSession("designer", domainauth.RoleDesigner)
	auth.addSession("manager", domainauth.RoleManager)

	var seen *domainauth.Session
	h := RequireRole(auth, domainauth.RoleManager)(okHandler(&seen))

	r := httptest.NewRequest(http.MethodGet, "/components", nil)
	r.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "designer"})
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Nil(t, seen)

	r = httptest.NewRequest(http.MethodGet, "/components", nil)
	r.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "manager"})
	w = httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, seen)
}

func TestIsBrowserRequest(t *testing.T) {
	newReq := func(path, accept, hx string) *http.Request {
		r := httptest.NewRequest(http.MethodGet, path, nil)
		if accept != "" {
			r.Header.Set("Accept", accept)
		}
		if hx != "" {
			r.Header.Set("Hx-Request", hx)
		}
		return r
	}

	assert.False(t, isBrowserRequest(newReq("/api/components", "text/html", "")))
	assert.False(t, isBrowserRequest(newReq("/static/css/styles.css", "text/html", "")))
	assert.False(t, isBrowserRequest(newReq("/components", "application/json", "")))
	assert.True(t, isBrowserRequest(newReq("/components", "text/html,application/xhtml+xml", "")))
	assert.True(t, isBrowserRequest(newReq("/components", "application/json", "true")))
	assert.True(t, isBrowserRequest(newReq("/components", "", "")))
}

func TestRedirectToLogin_HTMXUsesHxRedirect(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/components/new", nil)
	r.Header.Set("Hx-Request", "true")
	r.Header.Set("Hx-Current-Url", "https://partkeep.example.com/components?status=draft")
	w := httptest.NewRecorder()

	redirectToLogin(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	loc := w.Header().Get("Hx-Redirect")
	assert.Contains(t, loc, LoginPath)
	// HTMX denials point back at the page the user was on, not the fragment URL.
	assert.Contains(t, loc, "redirect_uri=%2Fcomponents%3Fstatus%3Ddraft")
}
