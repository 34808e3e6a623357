package httpx

import (
	"bytes"
	"io/fs"
	"log"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	partkeep "github.com/partkeep/partkeep"
	domainauth "github.com/partkeep/partkeep/internal/domain/auth"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Components   ComponentsUIService
	Users        UsersUIService
	Auth         AuthServiceInterface
	CookieDomain string
	IsDev        bool         // Development mode flag for hot reloading, etc.
	Logger       *slog.Logger // Logger for template and HTTP errors (optional)
}

// NewRouter creates and configures a new HTTP router with browser middleware.
func NewRouter(services RouterServices) http.Handler {
	mux := http.NewServeMux()

	uiHandlers := setupUIHandlers(services)

	var authHandlers *AuthHandlers
	if services.Auth != nil {
		authHandlers = &AuthHandlers{
			Svc:          services.Auth,
			CookieDomain: services.CookieDomain,
			Logger:       services.Logger,
			UI:           uiHandlers,
		}
	}

	mux.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("HEAD /healthz", http.HandlerFunc(healthHandler))

	if authHandlers != nil {
		registerAuthRoutes(mux, authHandlers, uiHandlers)
	}

	// Static assets at /static
	// Dev mode: serve from disk for hot reloading
	// Prod mode: serve from embedded FS
	mux.Handle("GET /static/", staticWithFallback(services.IsDev))

	if uiHandlers != nil {
		cfg := uiRouteConfig{Auth: services.Auth, CookieDomain: services.CookieDomain}
		registerUIRoutes(mux, uiHandlers, cfg)
	}

	// Wrap with NotFound handler and browser detection middleware
	handler := &notFoundHandler{
		mux:        mux,
		uiHandlers: uiHandlers,
	}

	// Apply browser detection middleware
	return BrowserDetection()(handler)
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("ok")); err != nil {
		log.Printf("failed to write health response: %v", err)
	}
}

// setupDevMode configures template FS, critical CSS FS, and asset resolver for dev mode.
func setupDevMode(diskManifestPath string) (fs.FS, fs.FS, *AssetResolver) {
	templateFS := os.DirFS(TemplatePathFromRoot)
	criticalCSSFS := os.DirFS("frontend/public")

	resolver, err := NewAssetResolverFromDisk(diskManifestPath)
	if err != nil {
		log.Printf(
			"failed to load asset manifest %s: %v; falling back to logical asset names",
			diskManifestPath,
			err,
		)
	}
	return templateFS, criticalCSSFS, resolver
}

// setupProdMode configures template FS, critical CSS FS, and asset resolver for production mode.
func setupProdMode(diskManifestPath string) (fs.FS, fs.FS, *AssetResolver) {
	templateFS, err := fs.Sub(partkeep.TemplateFS, "frontend/templates")
	if err != nil {
		log.Printf("failed to create sub-filesystem for templates: %v; falling back to disk", err)
		templateFS = os.DirFS(TemplatePathFromRoot)
	}

	criticalCSSFS, resolver := setupProdAssets(diskManifestPath)
	return templateFS, criticalCSSFS, resolver
}

// setupProdAssets configures critical CSS FS and asset resolver for production mode.
func setupProdAssets(diskManifestPath string) (fs.FS, *AssetResolver) {
	staticSub, err := fs.Sub(partkeep.StaticFS, "frontend/static")
	if err != nil {
		log.Printf("failed to create sub-filesystem for static assets: %v", err)
		return nil, tryDiskManifest(diskManifestPath)
	}

	resolver, err := NewAssetResolverFromFS(staticSub, "manifest.json")
	if err != nil {
		log.Printf("failed to load asset manifest from embedded FS: %v", err)
		return staticSub, tryDiskManifest(diskManifestPath)
	}

	return staticSub, resolver
}

// tryDiskManifest attempts to load the asset manifest from disk as a fallback.
func tryDiskManifest(diskManifestPath string) *AssetResolver {
	resolver, err := NewAssetResolverFromDisk(diskManifestPath)
	if err != nil {
		log.Printf(
			"failed to load asset manifest %s: %v; falling back to logical asset names",
			diskManifestPath,
			err,
		)
	}
	return resolver
}

// setupUIHandlers creates UI handlers with template renderer and asset resolver.
// In dev mode (services.IsDev=true), templates are loaded from disk for hot reloading.
// In production mode (services.IsDev=false), templates are loaded from embedded FS.
func setupUIHandlers(services RouterServices) *UIHandlers {
	var templateFS fs.FS
	var criticalCSSFS fs.FS
	var resolver *AssetResolver

	diskManifestPath := filepath.Join("frontend", "static", "manifest.json")

	if services.IsDev {
		templateFS, criticalCSSFS, resolver = setupDevMode(diskManifestPath)
	} else {
		templateFS, criticalCSSFS, resolver = setupProdMode(diskManifestPath)
	}

	if resolver == nil {
		resolver = &AssetResolver{}
	}

	tr, err := NewTemplateRenderer(TemplateRendererConfig{
		TemplateFS:    templateFS,
		Resolver:      resolver,
		CriticalCSSFS: criticalCSSFS,
		DevMode:       services.IsDev,
		Logger:        services.Logger,
	})
	if err != nil {
		if services.Logger != nil {
			services.Logger.Error("failed to create template renderer", slog.Any("error", err))
		} else {
			log.Printf("ERROR: failed to create template renderer: %v", err)
		}
		return nil
	}

	return &UIHandlers{
		T:            tr,
		ComponentSvc: services.Components,
		UserSvc:      services.Users,
		IsDev:        services.IsDev,
		Logger:       services.Logger,
	}
}

// staticWithFallback serves /static/* assets.
// In dev mode (isDev=true), serves from disk with fallback for hot reloading.
// In production mode (isDev=false), serves from embedded FS.
func staticWithFallback(isDev bool) http.Handler {
	if isDev {
		mfs := multiFS{
			http.Dir("frontend/static"),
			http.Dir("frontend/public"),
			devCSSFS{},
		}
		return staticWithCacheHeaders(http.StripPrefix("/static/", http.FileServer(mfs)))
	}

	staticSub, err := fs.Sub(partkeep.StaticFS, "frontend/static")
	if err != nil {
		log.Printf("failed to create sub-filesystem for static assets: %v", err)
		// Fallback to disk serving if embed fails
		return staticWithCacheHeaders(http.StripPrefix("/static/", http.FileServer(http.Dir("frontend/static"))))
	}
	return staticWithCacheHeaders(http.StripPrefix("/static/", http.FileServer(http.FS(staticSub))))
}

// multiFS provides fallback filesystem for dev mode.
type multiFS []http.FileSystem

func (m multiFS) Open(name string) (http.File, error) {
	for _, fsys := range m {
		f, err := fsys.Open(name)
		if err == nil {
			return f, nil
		}
		// ignore not-exist and try next, but return early on other errors
		if !os.IsNotExist(err) {
			return nil, err
		}
	}
	return nil, os.ErrNotExist
}

// devCSSFS maps a single CSS path used during dev to the source stylesheet.
type devCSSFS struct{}

func (devCSSFS) Open(name string) (http.File, error) {
	if strings.TrimPrefix(name, "/") == "css/styles.css" || name == "css/styles.css" {
		return os.Open("frontend/styles/index.css")
	}
	return nil, os.ErrNotExist
}

// staticWithCacheHeaders wraps a static file handler to add appropriate cache headers.
func staticWithCacheHeaders(handler http.Handler) http.Handler {
	// Matches content-hashed filenames including optional .map (e.g., app.abc123.js, styles.def456.css)
	hashedFilePattern := regexp.MustCompile(`\.[a-f0-9]{8}\.(?:js|css)(?:\.map)?$`)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hashedFilePattern.MatchString(r.URL.Path) {
			// Hashed assets can be cached for a long time (1 year)
			w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		} else {
			w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
			w.Header().Set("Pragma", "no-cache")
			w.Header().Set("Expires", "0")
		}

		handler.ServeHTTP(w, r)
	})
}

// notFoundHandler wraps a ServeMux and provides custom 404 handling.
type notFoundHandler struct {
	mux        *http.ServeMux
	uiHandlers *UIHandlers
}

// ServeHTTP implements http.Handler and provides custom 404 handling.
func (h *notFoundHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	cw := newCaptureWriter(w)
	h.mux.ServeHTTP(cw, r)

	// If the mux didn't handle the request (404), use our custom handler
	if cw.status == http.StatusNotFound {
		// For missing static assets, preserve the default file server response
		if strings.HasPrefix(r.URL.Path, "/static/") {
			cw.flushTo(w)
			return
		}
		if h.uiHandlers != nil {
			h.uiHandlers.NotFound(w, r)
			return
		}
		http.NotFound(w, r)
		return
	}

	// Not a 404: write the captured response
	cw.flushTo(w)
}

// captureWriter buffers headers, status and body so we can decide post-dispatch.
type captureWriter struct {
	rw     http.ResponseWriter
	header http.Header
	status int
	buf    bytes.Buffer
}

func newCaptureWriter(w http.ResponseWriter) *captureWriter {
	return &captureWriter{rw: w, header: make(http.Header), status: http.StatusOK}
}

func (c *captureWriter) Header() http.Header         { return c.header }
func (c *captureWriter) WriteHeader(code int)        { c.status = code }
func (c *captureWriter) Write(b []byte) (int, error) { return c.buf.Write(b) }

func (c *captureWriter) flushTo(w http.ResponseWriter) {
	for k, vs := range c.header {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	w.WriteHeader(c.status)
	if _, err := w.Write(c.buf.Bytes()); err != nil {
		log.Printf("failed to write captured response: %v", err)
	}
}

// registerAuthRoutes wires the entry controller and the /userauth endpoints.
// Login, signup, SSO, and callback are public; logout, status, and password
// changes require a session resolved by the guards.
func registerAuthRoutes(mux *http.ServeMux, h *AuthHandlers, ui *UIHandlers) {
	mux.HandleFunc("GET /{$}", h.Entry)

	mux.HandleFunc("POST /userauth/login", h.SignIn)
	mux.HandleFunc("POST /userauth/signup", h.SignUp)
	mux.HandleFunc("GET /userauth/sso", h.SSOLogin)
	mux.HandleFunc("GET /userauth/callback", h.Callback)
	mux.HandleFunc("POST /userauth/logout", h.Logout)
	mux.HandleFunc("GET /userauth/status", h.Status)

	if ui != nil {
		mux.HandleFunc("GET /userauth/login", ui.Login)
		mux.HandleFunc("GET /userauth/signup", ui.Signup)
	}

	wrap := RequireAuthBrowser(h.Svc)
	if ui != nil {
		mux.Handle("GET /userauth/change-password", wrap(http.HandlerFunc(ui.ChangePassword)))
	}
	mux.Handle("POST /userauth/change-password", wrap(http.HandlerFunc(h.ChangePassword)))
}

// uiRouteConfig holds configuration for UI route registration.
type uiRouteConfig struct {
	Auth         AuthServiceInterface
	CookieDomain string
}

// authWrap returns a no-op wrapper when auth is nil, otherwise applies RequireAuthBrowser.
func (cfg uiRouteConfig) authWrap() func(http.Handler) http.Handler {
	if cfg.Auth == nil {
		return func(h http.Handler) http.Handler { return h }
	}
	return RequireAuthBrowser(cfg.Auth)
}

// authFormWrap chains CSRF protection onto the authenticated-browser guard
// for state-changing routes available to every signed-in role.
func (cfg uiRouteConfig) authFormWrap() func(http.Handler) http.Handler {
	if cfg.Auth == nil {
		return func(h http.Handler) http.Handler { return h }
	}
	csrf := CSRFProtection(CSRFConfig{CookieDomain: cfg.CookieDomain})
	authCheck := RequireAuthBrowser(cfg.Auth)
	return func(h http.Handler) http.Handler {
		return authCheck(csrf(h))
	}
}

// adminWrap returns a no-op wrapper when auth is nil, otherwise applies RequireRoleBrowser with CSRF protection.
func (cfg uiRouteConfig) adminWrap() func(http.Handler) http.Handler {
	if cfg.Auth == nil {
		return func(h http.Handler) http.Handler { return h }
	}
	csrf := CSRFProtection(CSRFConfig{CookieDomain: cfg.CookieDomain})
	roleCheck := RequireRoleBrowser(cfg.Auth, domainauth.RoleAdmin)
	return func(h http.Handler) http.Handler {
		return roleCheck(csrf(h))
	}
}

// registerUIRoutes delegates to per-domain UI route registration functions.
func registerUIRoutes(mux *http.ServeMux, h *UIHandlers, cfg uiRouteConfig) {
	registerUIDashboardRoutes(mux, h, cfg)
	registerUIComponentRoutes(mux, h, cfg)
	registerUIUserRoutes(mux, h, cfg)
}

// registerUIDashboardRoutes wires the role-specific landing pages.
func registerUIDashboardRoutes(mux *http.ServeMux, h *UIHandlers, cfg uiRouteConfig) {
	wrap := cfg.authWrap()
	mux.Handle("GET /dashboard", wrap(http.HandlerFunc(h.Dashboard)))

	wrapAdmin := cfg.adminWrap()
	mux.Handle("GET /admin/dashboard", wrapAdmin(http.HandlerFunc(h.AdminDashboard)))
}

// registerUIComponentRoutes wires the component library pages. Every signed-in
// role can browse and submit; deletion is admin-only.
func registerUIComponentRoutes(mux *http.ServeMux, h *UIHandlers, cfg uiRouteConfig) {
	wrap := cfg.authWrap()
	wrapForm := cfg.authFormWrap()
	wrapAdmin := cfg.adminWrap()

	mux.Handle("GET /components", wrap(http.HandlerFunc(h.Components)))
	mux.Handle("GET /components/new", wrapForm(http.HandlerFunc(h.ComponentNew)))
	mux.Handle("GET /components/{part_number}", wrap(http.HandlerFunc(h.ComponentView)))
	mux.Handle(
		"GET /components/{part_number}/versions/{version}/drawing",
		wrap(http.HandlerFunc(h.ComponentDrawing)),
	)
	mux.Handle("POST /components", wrapForm(http.HandlerFunc(h.ComponentSubmit)))
	mux.Handle("POST /components/{part_number}/delete", wrapAdmin(http.HandlerFunc(h.ComponentDelete)))
}

// registerUIUserRoutes wires the admin-only account management pages.
func registerUIUserRoutes(mux *http.ServeMux, h *UIHandlers, cfg uiRouteConfig) {
	wrapAdmin := cfg.adminWrap()

	mux.Handle("GET /admin/users", wrapAdmin(http.HandlerFunc(h.Users)))
	mux.Handle("GET /admin/users/new", wrapAdmin(http.HandlerFunc(h.UserNew)))
	mux.Handle("GET /admin/users/{username}/edit", wrapAdmin(http.HandlerFunc(h.UserEdit)))
	mux.Handle("POST /admin/users", wrapAdmin(http.HandlerFunc(h.UserCreate)))
	mux.Handle("POST /admin/users/{username}", wrapAdmin(http.HandlerFunc(h.UserUpdate)))
	mux.Handle("POST /admin/users/{username}/delete", wrapAdmin(http.HandlerFunc(h.UserDelete)))
}
