package httpx

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/partkeep/partkeep/internal/data"
	domainauth "github.com/partkeep/partkeep/internal/domain/auth"
	"github.com/partkeep/partkeep/internal/domain/model"
	"github.com/partkeep/partkeep/internal/http/validation"
)

// userRoles lists the role options in display order.
//
//nolint:gochecknoglobals // static read-only lookup shared by list and form views
var userRoles = []domainauth.Role{
	domainauth.RoleAdmin,
	domainauth.RoleManager,
	domainauth.RoleDesigner,
}

// usersFilter holds parsed query filters for the account listing.
type usersFilter struct {
	Q    string
	Role *domainauth.Role
	Sort string
	Dir  string
}

func parseUsersFilter(q url.Values) (usersFilter, error) {
	f := usersFilter{
		Q:    strings.TrimSpace(q.Get("q")),
		Sort: strings.TrimSpace(q.Get("sort")),
		Dir:  strings.TrimSpace(q.Get("dir")),
	}
	if raw := strings.TrimSpace(q.Get("role")); raw != "" {
		role, ok := domainauth.ParseRole(raw)
		if !ok {
			return f, errors.New("unknown role")
		}
		f.Role = &role
	}
	return f, nil
}

func (f usersFilter) listOptions(pg pageOpts) model.UsersListOptions {
	limit, offset := pg.LimitAndOffset()
	opts := model.UsersListOptions{
		Limit:  limit,
		Offset: offset,
		Role:   f.Role,
		Sort:   f.Sort,
		Dir:    f.Dir,
	}
	if f.Q != "" {
		q := f.Q
		opts.Q = &q
	}
	return opts
}

// Users renders the account listing for administrators.
// GET /admin/users.
func (h *UIHandlers) Users(w http.ResponseWriter, r *http.Request) {
	HandleList(ListHandlerOpts[*model.User, usersFilter]{
		Handler: h,
		W:       w,
		R:       r,
		FilteredFetcher: func(ctx context.Context, f usersFilter, pg pageOpts) ([]*model.User, error) {
			return h.UserSvc.List(ctx, f.listOptions(pg))
		},
		FilterParser: parseUsersFilter,
		EnrichData: func(builder *TemplateDataBuilder, _ []*model.User, f usersFilter) {
			builder.With("Query", f.Q).
				With("Sort", f.Sort).
				With("Dir", f.Dir).
				With("Roles", userRoles)
			if f.Role != nil {
				builder.With("RoleFilter", string(*f.Role))
			}
			countOpts := f.listOptions(pageOpts{})
			countOpts.Limit = 0
			countOpts.Offset = 0
			if total, err := h.UserSvc.Count(r.Context(), countOpts); err == nil {
				builder.With("TotalCount", total)
			}
		},
		BasePath: "/admin/users",
		PageMeta: PageMeta{
			Title:        "Users - PartKeep",
			PageTitle:    "User Management",
			CurrentPage:  PageUsers,
			AdminContext: true,
		},
		ItemsKey:     "Users",
		ErrorMessage: "Unable to load users.",
		ServiceAvailable: func() bool {
			return h.UserSvc != nil
		},
	})
}

func userFormMeta(mode FormMode) PageMeta {
	meta := PageMeta{
		Title:        "New User - PartKeep",
		PageTitle:    "New User",
		CurrentPage:  PageUserForm,
		AdminContext: true,
	}
	if mode == FormModeEdit {
		meta.Title = "Edit User - PartKeep"
		meta.PageTitle = "Edit User"
	}
	return meta
}

// UserNew renders the account creation form.
// GET /admin/users/new.
func (h *UIHandlers) UserNew(w http.ResponseWriter, r *http.Request) {
	data, _ := prepareFormFrame(FormFrameOpts{
		R: r,
		Data: map[string]any{
			"Roles":    userRoles,
			"FormData": model.CreateUserRequest{Role: domainauth.RoleDesigner},
		},
		DefaultMode: FormModeCreate,
		MetaForMode: userFormMeta,
	})
	h.renderDashboardPage(w, r, data)
}

// UserEdit renders the account edit form prefilled with the current profile.
// GET /admin/users/{username}/edit.
func (h *UIHandlers) UserEdit(w http.ResponseWriter, r *http.Request) {
	username := r.PathValue("username")
	if username == "" || h.UserSvc == nil {
		h.NotFound(w, r)
		return
	}

	user, err := h.UserSvc.GetByUsername(r.Context(), username)
	if err != nil {
		if errors.Is(err, data.ErrUserNotFound) {
			h.NotFound(w, r)
			return
		}
		h.logger().Error("failed to load user", "username", username, "error", err)
		h.NotFound(w, r)
		return
	}

	data, _ := prepareFormFrame(FormFrameOpts{
		R: r,
		Data: map[string]any{
			"Roles":    userRoles,
			"Username": user.Username,
			"Email":    user.Email,
			"FormData": userEditForm{FullName: user.FullName, Role: user.Role},
			"Mode":     FormModeEdit,
		},
		DefaultMode: FormModeEdit,
		MetaForMode: userFormMeta,
	})
	h.renderDashboardPage(w, r, data)
}

// userCreateService adapts UserService.Create to the generic form handler.
type userCreateService struct {
	svc UsersUIService
}

func (s userCreateService) Create(ctx context.Context, req model.CreateUserRequest) (any, error) {
	return s.svc.Create(ctx, req)
}

func (s userCreateService) Update(context.Context, string, model.CreateUserRequest) (any, error) {
	return nil, errors.New("create service cannot update")
}

// UserCreate processes the account creation form.
// POST /admin/users.
func (h *UIHandlers) UserCreate(w http.ResponseWriter, r *http.Request) {
	HandleForm(FormHandlerOpts[model.CreateUserRequest]{
		W:           w,
		R:           r,
		Mode:        FormModeCreate,
		Parser:      parseUserCreateForm,
		Service:     userCreateService{svc: h.UserSvc},
		Renderer:    h.renderUserForm,
		SuccessURL:  "/admin/users",
		PageMeta:    userFormMeta(FormModeCreate),
		ExtraData:   map[string]any{"Roles": userRoles},
		HandleError: userFormError,
		ErrorStatus: http.StatusUnprocessableEntity,
	})
}

func parseUserCreateForm(r *http.Request) (model.CreateUserRequest, map[string]string) {
	req := model.CreateUserRequest{
		Username:        strings.TrimSpace(r.FormValue("username")),
		Email:           strings.TrimSpace(r.FormValue("email")),
		FullName:        strings.TrimSpace(r.FormValue("full_name")),
		Password:        r.FormValue("password"),
		ConfirmPassword: r.FormValue("confirm_password"),
	}

	fieldErrors := validation.New().
		Validate("username", req.Username, validation.Required("Username", 64)).
		Validate("email", req.Email, validation.Required("Email", 255)).
		Validate("full_name", req.FullName, validation.Optional("Full name", 255)).
		Validate("password", req.Password, validation.RequiredRange("Password", 8, 255)).
		Errors()

	if role, ok := domainauth.ParseRole(r.FormValue("role")); ok {
		req.Role = role
	} else {
		fieldErrors["role"] = "Choose a valid role."
	}
	if req.Password != req.ConfirmPassword {
		fieldErrors["confirm_password"] = "Passwords do not match."
	}

	if len(fieldErrors) == 0 {
		return req, nil
	}
	return req, fieldErrors
}

// userEditForm carries the editable profile fields plus an optional password
// reset. Username and email are immutable once created.
type userEditForm struct {
	FullName string
	Role     domainauth.Role
	Password string
}

// userEditService adapts UserService.Update to the generic form handler.
type userEditService struct {
	svc UsersUIService
}

func (s userEditService) Create(context.Context, userEditForm) (any, error) {
	return nil, errors.New("edit service cannot create")
}

func (s userEditService) Update(ctx context.Context, username string, form userEditForm) (any, error) {
	req := model.UpdateUserRequest{
		FullName: &form.FullName,
		Role:     &form.Role,
	}
	return s.svc.Update(ctx, username, req, form.Password)
}

// UserUpdate processes the account edit form.
// POST /admin/users/{username}.
func (h *UIHandlers) UserUpdate(w http.ResponseWriter, r *http.Request) {
	username := r.PathValue("username")
	HandleForm(FormHandlerOpts[userEditForm]{
		W:        w,
		R:        r,
		Mode:     FormModeEdit,
		Parser:   parseUserEditForm,
		Service:  userEditService{svc: h.UserSvc},
		Renderer: h.renderUserForm,
		GetID: func(r *http.Request) string {
			return r.PathValue("username")
		},
		SuccessURL: "/admin/users",
		PageMeta:   userFormMeta(FormModeEdit),
		ExtraData: map[string]any{
			"Roles":    userRoles,
			"Username": username,
		},
		HandleError: userFormError,
		ErrorStatus: http.StatusUnprocessableEntity,
	})
}

func parseUserEditForm(r *http.Request) (userEditForm, map[string]string) {
	form := userEditForm{
		FullName: strings.TrimSpace(r.FormValue("full_name")),
		Password: r.FormValue("password"),
	}

	fieldErrors := validation.New().
		Validate("full_name", form.FullName, validation.Optional("Full name", 255)).
		Errors()

	if role, ok := domainauth.ParseRole(r.FormValue("role")); ok {
		form.Role = role
	} else {
		fieldErrors["role"] = "Choose a valid role."
	}
	// Password is an optional reset on edit; validate only when provided.
	if form.Password != "" {
		if msg := validation.RequiredRange("Password", 8, 255)(form.Password); msg != "" {
			fieldErrors["password"] = msg
		}
		if form.Password != r.FormValue("confirm_password") {
			fieldErrors["confirm_password"] = "Passwords do not match."
		}
	}

	if len(fieldErrors) == 0 {
		return form, nil
	}
	return form, fieldErrors
}

// userFormError maps known account errors to field-level messages.
func userFormError(err error) (map[string]string, string) {
	switch {
	case errors.Is(err, data.ErrUsernameExists):
		return map[string]string{"username": "This username is already taken."}, ""
	case errors.Is(err, data.ErrEmailExists):
		return map[string]string{"email": "This email is already registered."}, ""
	case errors.Is(err, data.ErrUserNotFound):
		return nil, "User no longer exists."
	}
	msg := err.Error()
	if strings.Contains(msg, "required") ||
		strings.Contains(msg, "cannot exceed") ||
		strings.Contains(msg, "must") ||
		strings.Contains(msg, "do not match") ||
		strings.Contains(msg, "at least") ||
		strings.Contains(msg, "valid") {
		return nil, capitalizeSentence(msg)
	}
	return nil, ""
}

func (h *UIHandlers) renderUserForm(w http.ResponseWriter, r *http.Request, formData map[string]any) {
	data, _ := prepareFormFrame(FormFrameOpts{
		R:           r,
		Data:        formData,
		DefaultMode: FormModeCreate,
		MetaForMode: userFormMeta,
	})
	if _, ok := data["Roles"]; !ok {
		data["Roles"] = userRoles
	}
	h.renderDashboardPage(w, r, data)
}

// UserDelete removes an account. Administrators cannot delete themselves.
// POST /admin/users/{username}/delete.
func (h *UIHandlers) UserDelete(w http.ResponseWriter, r *http.Request) {
	if session := GetSessionFromContext(r.Context()); session != nil &&
		session.Username == r.PathValue("username") {
		triggerToast(w, "You cannot delete your own account.", "error")
		w.WriteHeader(http.StatusUnprocessableEntity)
		return
	}

	h.handleDelete(w, r, deleteHandlerOpts{
		ServiceAvailable: func() bool { return h.UserSvc != nil },
		Delete: func(ctx context.Context, username string) (bool, error) {
			err := h.UserSvc.Delete(ctx, username)
			if errors.Is(err, data.ErrUserNotFound) {
				return false, nil
			}
			if err != nil {
				return false, err
			}
			return true, nil
		},
		PathParam: "username",
		OnError: func(w http.ResponseWriter, _ *http.Request, err error) {
			h.logger().Error("failed to delete user", "error", err)
			http.Error(w, "Unable to delete user.", http.StatusInternalServerError)
		},
		OnSuccess: func(w http.ResponseWriter, _ *http.Request, deleted bool) {
			if deleted {
				triggerToast(w, "User deleted.", "success")
			}
			HTMX(w).Redirect("/admin/users")
		},
	})
}
