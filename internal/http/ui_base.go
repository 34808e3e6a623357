package httpx

import (
	"context"
	"html"
	"log/slog"
	"maps"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	domainauth "github.com/partkeep/partkeep/internal/domain/auth"
	"github.com/partkeep/partkeep/internal/domain/model"
	"github.com/partkeep/partkeep/internal/http/ui/viewmodel"
	"github.com/partkeep/partkeep/internal/service"
)

const errMsgFixBelow = "Please fix the errors below."

// ComponentsUIService is the component surface the UI needs.
type ComponentsUIService interface {
	Submit(ctx context.Context, req model.SubmitComponentRequest, drawing *service.DrawingUpload) (*model.ComponentVersion, error)
	Get(ctx context.Context, partNumber string) (*service.ComponentDetails, error)
	ListLatest(ctx context.Context, opts model.ComponentsListOptions) ([]*model.ComponentWithLatestVersion, error)
	CountLatest(ctx context.Context, opts model.ComponentsListOptions) (int, error)
	DrawingURL(ctx context.Context, filePath string) (string, error)
	Delete(ctx context.Context, partNumber string) error
}

// UsersUIService is the account-management surface the admin UI needs.
type UsersUIService interface {
	Create(ctx context.Context, req model.CreateUserRequest) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	List(ctx context.Context, opts model.UsersListOptions) ([]*model.User, error)
	Count(ctx context.Context, opts model.UsersListOptions) (int, error)
	Update(ctx context.Context, username string, req model.UpdateUserRequest, newPassword string) (*model.User, error)
	Delete(ctx context.Context, username string) error
}

// Compile-time interface assertions to ensure concrete services satisfy their UI interfaces.
var (
	_ ComponentsUIService = (*service.ComponentService)(nil)
	_ UsersUIService      = (*service.UserService)(nil)
)

// UIHandlers serves browser-facing routes.
type UIHandlers struct {
	T            *TemplateRenderer
	ComponentSvc ComponentsUIService
	UserSvc      UsersUIService
	IsDev        bool // Development mode flag for enhanced error reporting
	Logger       *slog.Logger
}

// logger returns the configured logger or falls back to slog.Default().
func (h *UIHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// getPageParams parses pagination params from URL query with sane defaults.
func getPageParams(q url.Values) (int, int) {
	page := 1
	pageSize := 10
	if p := q.Get("page"); p != "" {
		if n, err := strconv.Atoi(p); err == nil && n > 0 {
			page = n
		}
	}
	if s := q.Get("page_size"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 && n <= 100 {
			pageSize = n
		}
	}
	return page, pageSize
}

// pageOpts represents pagination options for list views.
type pageOpts struct {
	Page     int
	PageSize int
}

// LimitAndOffset returns limit/offset used for pagination fetches,
// always fetching one extra item to detect next-page availability.
func (p pageOpts) LimitAndOffset() (int, int) {
	page := p.Page
	if page <= 0 {
		page = 1
	}
	pageSize := p.PageSize
	if pageSize <= 0 {
		pageSize = 10
	}
	limit := pageSize + 1
	offset := (page - 1) * pageSize
	return limit, offset
}

// deleteHandlerOpts encapsulates common delete-handling behavior for UI endpoints.
type deleteHandlerOpts struct {
	ServiceAvailable func() bool
	Delete           func(ctx context.Context, id string) (bool, error)
	RedirectPath     string
	OnError          func(http.ResponseWriter, *http.Request, error)
	OnNotFound       func(http.ResponseWriter, *http.Request)
	OnSuccess        func(http.ResponseWriter, *http.Request, bool)
	// PathParam names the route wildcard carrying the resource key.
	// Defaults to "id".
	PathParam string
}

// handleDelete coordinates delete flows shared across UI handlers.
func (h *UIHandlers) handleDelete(w http.ResponseWriter, r *http.Request, opts deleteHandlerOpts) {
	param := opts.PathParam
	if param == "" {
		param = "id"
	}
	id := r.PathValue(param)
	if id == "" || (opts.ServiceAvailable != nil && !opts.ServiceAvailable()) {
		if opts.OnNotFound != nil {
			opts.OnNotFound(w, r)
		} else {
			h.NotFound(w, r)
		}
		return
	}

	deleted, err := opts.Delete(r.Context(), id)
	if err != nil {
		if opts.OnError != nil {
			opts.OnError(w, r, err)
		} else {
			http.Error(w, "Unable to delete resource.", http.StatusInternalServerError)
		}
		return
	}

	if opts.OnSuccess != nil {
		opts.OnSuccess(w, r, deleted)
		return
	}

	if opts.RedirectPath != "" {
		HTMX(w).Redirect(opts.RedirectPath)
	}
}

// triggerToast sends a standardized HX-Trigger payload for toast notifications.
func triggerToast(w http.ResponseWriter, message, toastType string) {
	if w == nil || strings.TrimSpace(message) == "" {
		return
	}
	HTMX(w).Trigger("showToast", map[string]any{
		"message": message,
		"type":    strings.TrimSpace(toastType),
	})
}

// FormFrameOpts captures the parameters required to normalize common form data.
type FormFrameOpts struct {
	R           *http.Request
	Data        map[string]any
	DefaultMode FormMode
	MetaForMode func(FormMode) PageMeta
}

// prepareFormFrame normalizes common form rendering fields (Errors, Mode, base layout).
// Returns the hydrated data map and the resolved form mode for further customization.
func prepareFormFrame(opts FormFrameOpts) (map[string]any, FormMode) {
	data := opts.Data
	if data == nil {
		data = map[string]any{}
	}
	if _, ok := data["Errors"]; !ok || data["Errors"] == nil {
		data["Errors"] = map[string]string{}
	}

	mode := resolveFormMode(data["Mode"], opts.DefaultMode)
	data["Mode"] = string(mode)

	if opts.MetaForMode != nil && opts.R != nil {
		maps.Copy(data, basePageData(opts.R, opts.MetaForMode(mode)))
	}

	return data, mode
}

// resolveFormMode coerces assorted Mode representations to a FormMode value.
func resolveFormMode(raw any, fallback FormMode) FormMode {
	switch v := raw.(type) {
	case FormMode:
		if v != "" {
			return v
		}
	case string:
		candidate := FormMode(strings.TrimSpace(v))
		if candidate != "" {
			return candidate
		}
	}
	return fallback
}

// buildPageURL returns a URL with page and page_size set, preserving other query params.
// basePath should be the path without query string (e.g., "/components", "/admin/users").
func buildPageURL(basePath string, q url.Values, p pageOpts) string {
	qq := make(url.Values, len(q))
	for k, v := range q {
		// drop transient/htmx params and empty keys
		if strings.HasPrefix(k, "hx-") || strings.HasPrefix(k, "hx_") {
			continue
		}
		if len(v) == 0 {
			continue
		}
		// filter out empty values while cloning
		tmp := make([]string, 0, len(v))
		for _, s := range v {
			if strings.TrimSpace(s) != "" {
				tmp = append(tmp, s)
			}
		}
		if len(tmp) > 0 {
			qq[k] = tmp
		}
	}
	qq.Set("page", strconv.Itoa(p.Page))
	qq.Set("page_size", strconv.Itoa(p.PageSize))
	if enc := qq.Encode(); enc != "" {
		return basePath + "?" + enc
	}
	return basePath
}

// buildCursorURL returns a URL with the supplied cursor param set, preserving filters and page size.
// It also carries forward a best-effort index_offset hint for range displays.
func buildCursorURL(basePath string, q url.Values, cursorParam, cursor string, pageSize, indexOffset int) string {
	qq := make(url.Values, len(q))
	for k, v := range q {
		if strings.HasPrefix(k, "hx-") || strings.HasPrefix(k, "hx_") {
			continue
		}
		if len(v) == 0 {
			continue
		}
		if k == "page" || k == "cursor_after" || k == "cursor_before" || k == "index_offset" {
			continue
		}
		tmp := make([]string, 0, len(v))
		for _, s := range v {
			if strings.TrimSpace(s) != "" {
				tmp = append(tmp, s)
			}
		}
		if len(tmp) > 0 {
			qq[k] = tmp
		}
	}

	if pageSize > 0 {
		qq.Set("page_size", strconv.Itoa(pageSize))
	}
	if indexOffset < 0 {
		indexOffset = 0
	}
	qq.Set("index_offset", strconv.Itoa(indexOffset))
	qq.Set(cursorParam, cursor)

	if enc := qq.Encode(); enc != "" {
		return basePath + "?" + enc
	}
	return basePath
}

// PageMeta contains metadata for page rendering.
type PageMeta struct {
	Title       string
	PageTitle   string
	CurrentPage string
	// AdminContext selects the admin navigation shell for this page.
	AdminContext bool
}

// buildLayout constructs shared layout metadata from the request/session context.
func buildLayout(r *http.Request, meta PageMeta) viewmodel.Layout {
	layout := viewmodel.Layout{
		Title:        meta.Title,
		PageTitle:    meta.PageTitle,
		CurrentPage:  meta.CurrentPage,
		AdminContext: meta.AdminContext,
	}

	if csrfToken := GetCSRFToken(r); csrfToken != "" {
		layout.CSRFToken = csrfToken
	}

	if session := GetSessionFromContext(r.Context()); session != nil {
		layout.User = &viewmodel.User{
			Username: session.Username,
			Email:    session.Email,
			Role:     string(session.Role),
		}
		layout.IsAuthenticated = true
		if session.Role == domainauth.RoleAdmin {
			layout.CanManageUsers = true
		}
	}

	return layout
}

// basePageData constructs the common page data map with user context.
func basePageData(r *http.Request, meta PageMeta) map[string]any {
	layout := buildLayout(r, meta)
	data := map[string]any{
		"Title":           layout.Title,
		"PageTitle":       layout.PageTitle,
		"CurrentPage":     layout.CurrentPage,
		"IsAuthenticated": layout.IsAuthenticated,
		"AdminContext":    layout.AdminContext,
		"CanManageUsers":  layout.CanManageUsers,
	}

	if layout.CSRFToken != "" {
		data["CSRFToken"] = layout.CSRFToken
	}
	if layout.User != nil {
		data["User"] = layout.User
	}

	return data
}

// PageSpec defines metadata and an optional fetch for page-specific data.
type PageSpec struct {
	Meta  PageMeta
	Fetch func(ctx context.Context, data map[string]any) error
}

// Page builds base data, optionally fetches content data, and renders.
func (h *UIHandlers) Page(w http.ResponseWriter, r *http.Request, spec PageSpec) {
	data := basePageData(r, spec.Meta)
	if err := h.invokePageFetch(r, spec.Fetch, data); err != nil {
		markPageError(data)
	}
	h.renderDashboardPage(w, r, data)
}

// renderDashboardPage renders a dashboard page with proper HTMX partial support.
func (h *UIHandlers) renderDashboardPage(w http.ResponseWriter, r *http.Request, data any) {
	// Handle full page requests first (early return) to reduce nesting
	if !WantsPartial(r) {
		if err := h.T.RenderFull(w, r, data); err != nil {
			h.logAndRenderTemplateError(w, r, err, "full page render")
		}
		return
	}

	// For HTMX requests, render the content plus out-of-band header updates
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	// Hint client JS to update nav active state based on current path
	SetHXTrigger(w, "nav:activate", map[string]string{"path": r.URL.Path})

	layout := extractLayoutInfo(data)

	// Include a <title> element so htmx updates document.title on partial swaps
	safeDocTitle := html.EscapeString(layout.Title)
	if _, err := w.Write([]byte(`<title>` + safeDocTitle + `</title>`)); err != nil {
		h.logger().Error("failed to write partial document title", "error", err)
		return
	}

	// Out-of-band update for the header title
	safeTitle := html.EscapeString(layout.PageTitle)
	if _, err := w.Write([]byte(`<h1 id="header-title" class="header-title" hx-swap-oob="outerHTML">` + safeTitle + `</h1>`)); err != nil {
		h.logger().Error("failed to write partial header title", "error", err)
		return
	}

	if err := h.T.t.ExecuteTemplate(w, ContentTemplateFor(layout.CurrentPage), data); err != nil {
		h.logAndRenderTemplateError(w, r, err, "partial content render")
		return
	}
}

func (h *UIHandlers) invokePageFetch(
	r *http.Request,
	fetchFn func(ctx context.Context, data map[string]any) error,
	data map[string]any,
) error {
	if fetchFn == nil {
		return nil
	}
	return fetchFn(r.Context(), data)
}

func markPageError(data map[string]any) {
	data["Error"] = true
	if _, ok := data["ErrorMessage"]; ok {
		return
	}
	data["ErrorMessage"] = "An unexpected error occurred. Please try again."
}

func layoutFromProvider(data any) *viewmodel.Layout {
	provider, ok := data.(viewmodel.LayoutProvider)
	if !ok {
		return nil
	}
	return provider.LayoutData()
}

func layoutFromPointer(data any) *viewmodel.Layout {
	layout, ok := data.(*viewmodel.Layout)
	if !ok || layout == nil {
		return nil
	}
	return layout
}

func layoutFromMap(data any) viewmodel.Layout {
	m, mapOK := data.(map[string]any)
	if !mapOK {
		return viewmodel.Layout{}
	}

	layout := viewmodel.Layout{}
	if v, titleOK := m["Title"].(string); titleOK {
		layout.Title = v
	}
	if v, pageTitleOK := m["PageTitle"].(string); pageTitleOK {
		layout.PageTitle = v
	}
	if v, currentPageOK := m["CurrentPage"].(string); currentPageOK {
		layout.CurrentPage = v
	}
	return layout
}

func extractLayoutInfo(data any) viewmodel.Layout {
	if layout := layoutFromProvider(data); layout != nil {
		return *layout
	}

	if layout, ok := data.(viewmodel.Layout); ok {
		return layout
	}

	if layout := layoutFromPointer(data); layout != nil {
		return *layout
	}

	return layoutFromMap(data)
}

// logAndRenderTemplateError logs template errors and renders them in dev mode.
func (h *UIHandlers) logAndRenderTemplateError(w http.ResponseWriter, r *http.Request, err error, context string) {
	h.logger().Error("template rendering failed",
		"error", err,
		"context", context,
		"path", r.URL.Path,
		"method", r.Method,
	)

	// In dev mode, show detailed error in the response
	if h.IsDev {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		errHTML := html.EscapeString(err.Error())
		pathHTML := html.EscapeString(r.URL.Path)
		contextHTML := html.EscapeString(context)
		if _, writeErr := w.Write([]byte(`
			<div style="padding: 20px; background: #fee; border: 2px solid #c33; border-radius: 4px; margin: 20px; font-family: monospace;">
				<h2 style="color: #c33; margin-top: 0;">Template Rendering Error</h2>
				<p><strong>Context:</strong> ` + contextHTML + `</p>
				<p><strong>Path:</strong> ` + pathHTML + `</p>
				<p><strong>Error:</strong></p>
				<pre style="background: #fff; padding: 10px; border: 1px solid #ccc; overflow-x: auto;">` + errHTML + `</pre>
			</div>
		`)); writeErr != nil {
			h.logger().Error("failed to write template error response", "error", writeErr)
		}
		return
	}

	// In production, show generic error
	http.Error(w, "internal server error", http.StatusInternalServerError)
}
