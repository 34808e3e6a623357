package httpx

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/partkeep/partkeep/internal/data"
	"github.com/partkeep/partkeep/internal/domain/model"
	"github.com/partkeep/partkeep/internal/http/validation"
	"github.com/partkeep/partkeep/internal/service"
)

// maxDrawingUploadBytes caps multipart form memory for drawing uploads (16 MiB).
const maxDrawingUploadBytes = 16 << 20

// componentStatuses lists the filter/select options in display order.
//
//nolint:gochecknoglobals // static read-only lookup shared by list and form views
var componentStatuses = []model.ComponentStatus{
	model.ComponentStatusDraft,
	model.ComponentStatusReleased,
	model.ComponentStatusObsolete,
}

// componentsFilter holds parsed query filters for the component library.
type componentsFilter struct {
	Q      string
	Status *model.ComponentStatus
	Sort   string
	Dir    string
}

func parseComponentsFilter(q url.Values) (componentsFilter, error) {
	f := componentsFilter{
		Q:    strings.TrimSpace(q.Get("q")),
		Sort: strings.TrimSpace(q.Get("sort")),
		Dir:  strings.TrimSpace(q.Get("dir")),
	}
	if raw := strings.TrimSpace(q.Get("status")); raw != "" {
		status, ok := model.ParseComponentStatus(raw)
		if !ok {
			return f, errors.New("unknown status")
		}
		f.Status = &status
	}
	return f, nil
}

func (f componentsFilter) listOptions(pg pageOpts) model.ComponentsListOptions {
	limit, offset := pg.LimitAndOffset()
	opts := model.ComponentsListOptions{
		Limit:  limit,
		Offset: offset,
		Status: f.Status,
		Sort:   f.Sort,
		Dir:    f.Dir,
	}
	if f.Q != "" {
		q := f.Q
		opts.Q = &q
	}
	return opts
}

// Components renders the component library listing with search and filters.
// GET /components.
func (h *UIHandlers) Components(w http.ResponseWriter, r *http.Request) {
	HandleList(ListHandlerOpts[*model.ComponentWithLatestVersion, componentsFilter]{
		Handler: h,
		W:       w,
		R:       r,
		FilteredFetcher: func(ctx context.Context, f componentsFilter, pg pageOpts) ([]*model.ComponentWithLatestVersion, error) {
			return h.ComponentSvc.ListLatest(ctx, f.listOptions(pg))
		},
		FilterParser: parseComponentsFilter,
		EnrichData: func(builder *TemplateDataBuilder, _ []*model.ComponentWithLatestVersion, f componentsFilter) {
			builder.With("Query", f.Q).
				With("Sort", f.Sort).
				With("Dir", f.Dir).
				With("Statuses", componentStatuses)
			if f.Status != nil {
				builder.With("StatusFilter", string(*f.Status))
			}
			countOpts := f.listOptions(pageOpts{})
			countOpts.Limit = 0
			countOpts.Offset = 0
			if total, err := h.ComponentSvc.CountLatest(r.Context(), countOpts); err == nil {
				builder.With("TotalCount", total)
			}
		},
		BasePath: "/components",
		PageMeta: PageMeta{
			Title:       "Components - PartKeep",
			PageTitle:   "Component Library",
			CurrentPage: PageComponents,
		},
		ItemsKey:     "Components",
		ErrorMessage: "Unable to load components.",
		ServiceAvailable: func() bool {
			return h.ComponentSvc != nil
		},
	})
}

// ComponentView renders a single component with its full version history.
// GET /components/{part_number}.
func (h *UIHandlers) ComponentView(w http.ResponseWriter, r *http.Request) {
	partNumber := r.PathValue("part_number")
	if partNumber == "" || h.ComponentSvc == nil {
		h.NotFound(w, r)
		return
	}

	details, err := h.ComponentSvc.Get(r.Context(), partNumber)
	if err != nil {
		if errors.Is(err, data.ErrComponentNotFound) {
			h.NotFound(w, r)
			return
		}
		h.logger().Error("failed to load component", "part_number", partNumber, "error", err)
		data := basePageData(r, componentViewMeta(partNumber))
		markPageError(data)
		h.renderDashboardPage(w, r, data)
		return
	}

	data := basePageData(r, componentViewMeta(details.Component.PartNumber))
	data["Component"] = details.Component
	data["Versions"] = details.Versions
	h.renderDashboardPage(w, r, data)
}

func componentViewMeta(partNumber string) PageMeta {
	return PageMeta{
		Title:       partNumber + " - PartKeep",
		PageTitle:   partNumber,
		CurrentPage: PageComponentView,
	}
}

// ComponentDrawing redirects to a time-limited download URL for a version's
// stored drawing.
// GET /components/{part_number}/versions/{version}/drawing.
func (h *UIHandlers) ComponentDrawing(w http.ResponseWriter, r *http.Request) {
	partNumber := r.PathValue("part_number")
	versionNumber := r.PathValue("version")
	if partNumber == "" || versionNumber == "" || h.ComponentSvc == nil {
		h.NotFound(w, r)
		return
	}

	details, err := h.ComponentSvc.Get(r.Context(), partNumber)
	if err != nil {
		h.NotFound(w, r)
		return
	}

	var filePath string
	for _, v := range details.Versions {
		if v.VersionNumber == versionNumber && v.FilePath != nil {
			filePath = *v.FilePath
			break
		}
	}
	if filePath == "" {
		h.NotFound(w, r)
		return
	}

	downloadURL, err := h.ComponentSvc.DrawingURL(r.Context(), filePath)
	if err != nil {
		h.logger().Error("failed to presign drawing",
			"part_number", partNumber, "version", versionNumber, "error", err)
		http.Error(w, "Unable to generate download link.", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, downloadURL, http.StatusFound)
}

// ComponentNew renders the submission form.
// GET /components/new.
func (h *UIHandlers) ComponentNew(w http.ResponseWriter, r *http.Request) {
	data, _ := prepareFormFrame(FormFrameOpts{
		R: r,
		Data: map[string]any{
			"Statuses": componentStatuses,
			"FormData": model.SubmitComponentRequest{Status: model.ComponentStatusDraft},
		},
		DefaultMode: FormModeCreate,
		MetaForMode: componentFormMeta,
	})
	h.renderDashboardPage(w, r, data)
}

func componentFormMeta(FormMode) PageMeta {
	return PageMeta{
		Title:       "Submit Component - PartKeep",
		PageTitle:   "Submit Component",
		CurrentPage: PageComponentForm,
	}
}

// componentSubmitService adapts ComponentService.Submit to the generic form
// handler, carrying the drawing parsed from the multipart body.
type componentSubmitService struct {
	svc     ComponentsUIService
	drawing *service.DrawingUpload
}

func (s componentSubmitService) Create(ctx context.Context, req model.SubmitComponentRequest) (any, error) {
	return s.svc.Submit(ctx, req, s.drawing)
}

func (s componentSubmitService) Update(context.Context, string, model.SubmitComponentRequest) (any, error) {
	return nil, errors.New("component versions are immutable")
}

// ComponentSubmit records a component and a new version from the submission
// form, with an optional drawing PDF.
// POST /components.
func (h *UIHandlers) ComponentSubmit(w http.ResponseWriter, r *http.Request) {
	session := GetSessionFromContext(r.Context())
	if session == nil || h.ComponentSvc == nil {
		h.NotFound(w, r)
		return
	}

	if err := r.ParseMultipartForm(maxDrawingUploadBytes); err != nil {
		http.Error(w, "Unable to parse upload.", http.StatusBadRequest)
		return
	}

	req, fieldErrors := parseComponentForm(r)
	req.CreatedBy = session.Username

	drawing, file, drawingErr := extractDrawing(r)
	if file != nil {
		defer file.Close() //nolint:errcheck // read-only temp file
	}
	if drawingErr != "" {
		if fieldErrors == nil {
			fieldErrors = map[string]string{}
		}
		fieldErrors["drawing"] = drawingErr
	}

	HandleForm(FormHandlerOpts[model.SubmitComponentRequest]{
		W:    w,
		R:    r,
		Mode: FormModeCreate,
		Parser: func(*http.Request) (model.SubmitComponentRequest, map[string]string) {
			return req, fieldErrors
		},
		Service:     componentSubmitService{svc: h.ComponentSvc, drawing: drawing},
		Renderer:    h.renderComponentForm,
		SuccessURL:  "/components/" + url.PathEscape(req.PartNumber),
		PageMeta:    componentFormMeta(FormModeCreate),
		ExtraData:   map[string]any{"Statuses": componentStatuses},
		HandleError: componentSubmitError,
		ErrorStatus: http.StatusUnprocessableEntity,
	})
}

func componentSubmitError(err error) (map[string]string, string) {
	if errors.Is(err, data.ErrVersionExists) {
		return map[string]string{
			"version_number": "This version already exists for this part.",
		}, ""
	}
	// Validation errors from the request model read well enough to show directly.
	msg := err.Error()
	if strings.Contains(msg, "required") ||
		strings.Contains(msg, "cannot exceed") ||
		strings.Contains(msg, "must") ||
		strings.Contains(msg, "may only") ||
		strings.Contains(msg, "cannot be negative") {
		return nil, capitalizeSentence(msg)
	}
	return nil, ""
}

// parseComponentForm extracts submission fields, reporting per-field errors
// for values the request model cannot express (for example a non-numeric cost).
func parseComponentForm(r *http.Request) (model.SubmitComponentRequest, map[string]string) {
	req := model.SubmitComponentRequest{
		PartNumber:    strings.TrimSpace(r.FormValue("part_number")),
		PartName:      strings.TrimSpace(r.FormValue("part_name")),
		VersionNumber: strings.TrimSpace(r.FormValue("version_number")),
	}

	if desc := strings.TrimSpace(r.FormValue("description")); desc != "" {
		req.Description = &desc
	}

	fieldErrors := validation.New().
		Validate("part_number", req.PartNumber,
			validation.Required("Part number", 64),
			validation.Pattern("Part number", model.PartNumberPattern)).
		Validate("part_name", req.PartName, validation.Required("Part name", 255)).
		Validate("version_number", req.VersionNumber, validation.Required("Version", 32)).
		Validate("description", r.FormValue("description"), validation.Optional("Description", 2000)).
		Errors()

	rawStatus := strings.TrimSpace(r.FormValue("status"))
	if status, ok := model.ParseComponentStatus(rawStatus); ok {
		req.Status = status
	} else {
		fieldErrors["status"] = "Choose a valid status."
	}

	if rawCost := strings.TrimSpace(r.FormValue("cost")); rawCost != "" {
		cost, err := strconv.ParseFloat(rawCost, 64)
		switch {
		case err != nil:
			fieldErrors["cost"] = "Cost must be a number."
		case cost < 0:
			fieldErrors["cost"] = "Cost cannot be negative."
		default:
			req.Cost = &cost
		}
	}

	if len(fieldErrors) == 0 {
		return req, nil
	}
	return req, fieldErrors
}

// extractDrawing pulls the optional drawing file from the multipart form.
// Returns an empty error string when no file was attached.
func extractDrawing(r *http.Request) (*service.DrawingUpload, multipart.File, string) {
	file, header, err := r.FormFile("drawing")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil, ""
		}
		return nil, nil, "Unable to read the attached drawing."
	}

	contentType := header.Header.Get("Content-Type")
	isPDF := contentType == "application/pdf" ||
		strings.HasSuffix(strings.ToLower(header.Filename), ".pdf")
	if !isPDF {
		return nil, file, "Drawings must be PDF files."
	}

	return &service.DrawingUpload{Body: file, ContentType: "application/pdf"}, file, ""
}

func (h *UIHandlers) renderComponentForm(w http.ResponseWriter, r *http.Request, formData map[string]any) {
	data, _ := prepareFormFrame(FormFrameOpts{
		R:           r,
		Data:        formData,
		DefaultMode: FormModeCreate,
		MetaForMode: componentFormMeta,
	})
	if _, ok := data["Statuses"]; !ok {
		data["Statuses"] = componentStatuses
	}
	h.renderDashboardPage(w, r, data)
}

// ComponentDelete removes a component, its versions, and stored drawings.
// POST /components/{part_number}/delete (admin only).
func (h *UIHandlers) ComponentDelete(w http.ResponseWriter, r *http.Request) {
	h.handleDelete(w, r, deleteHandlerOpts{
		ServiceAvailable: func() bool { return h.ComponentSvc != nil },
		Delete: func(ctx context.Context, partNumber string) (bool, error) {
			err := h.ComponentSvc.Delete(ctx, partNumber)
			if errors.Is(err, data.ErrComponentNotFound) {
				return false, nil
			}
			if err != nil {
				return false, err
			}
			return true, nil
		},
		PathParam: "part_number",
		OnError: func(w http.ResponseWriter, _ *http.Request, err error) {
			h.logger().Error("failed to delete component", "error", err)
			http.Error(w, "Unable to delete component.", http.StatusInternalServerError)
		},
		OnSuccess: func(w http.ResponseWriter, _ *http.Request, deleted bool) {
			if deleted {
				triggerToast(w, "Component deleted.", "success")
			}
			HTMX(w).Redirect("/components")
		},
	})
}
