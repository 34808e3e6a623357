package httpx

import (
	"context"
	"net/http"

	domainauth "github.com/partkeep/partkeep/internal/domain/auth"
	"github.com/partkeep/partkeep/internal/domain/model"
)

// recentComponentsLimit bounds the recent-activity widget on dashboards.
const recentComponentsLimit = 5

// Dashboard renders the landing page for designers and managers.
// GET /dashboard.
func (h *UIHandlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	h.Page(w, r, PageSpec{
		Meta: PageMeta{
			Title:       "Dashboard - PartKeep",
			PageTitle:   "Dashboard",
			CurrentPage: PageDashboard,
		},
		Fetch: func(ctx context.Context, data map[string]any) error {
			return h.fetchDashboardData(ctx, data)
		},
	})
}

// AdminDashboard renders the landing page for administrators.
// GET /admin/dashboard.
func (h *UIHandlers) AdminDashboard(w http.ResponseWriter, r *http.Request) {
	h.Page(w, r, PageSpec{
		Meta: PageMeta{
			Title:        "Admin Dashboard - PartKeep",
			PageTitle:    "Admin Dashboard",
			CurrentPage:  PageAdminDashboard,
			AdminContext: true,
		},
		Fetch: func(ctx context.Context, data map[string]any) error {
			if err := h.fetchDashboardData(ctx, data); err != nil {
				return err
			}
			if h.UserSvc == nil {
				return nil
			}
			userCount, err := h.UserSvc.Count(ctx, model.UsersListOptions{})
			if err != nil {
				return err
			}
			adminRole := domainauth.RoleAdmin
			adminCount, err := h.UserSvc.Count(ctx, model.UsersListOptions{Role: &adminRole})
			if err != nil {
				return err
			}
			data["UserCount"] = userCount
			data["AdminCount"] = adminCount
			return nil
		},
	})
}

// fetchDashboardData loads the shared dashboard widgets: component counts by
// status and the most recently updated components.
func (h *UIHandlers) fetchDashboardData(ctx context.Context, data map[string]any) error {
	if h.ComponentSvc == nil {
		data["Components"] = []*model.ComponentWithLatestVersion{}
		return nil
	}

	total, err := h.ComponentSvc.CountLatest(ctx, model.ComponentsListOptions{})
	if err != nil {
		return err
	}

	released := model.ComponentStatusReleased
	releasedCount, err := h.ComponentSvc.CountLatest(ctx, model.ComponentsListOptions{Status: &released})
	if err != nil {
		return err
	}

	draft := model.ComponentStatusDraft
	draftCount, err := h.ComponentSvc.CountLatest(ctx, model.ComponentsListOptions{Status: &draft})
	if err != nil {
		return err
	}

	recent, err := h.ComponentSvc.ListLatest(ctx, model.ComponentsListOptions{
		Limit: recentComponentsLimit,
		Sort:  "created_at",
		Dir:   "desc",
	})
	if err != nil {
		return err
	}

	data["ComponentCount"] = total
	data["ReleasedCount"] = releasedCount
	data["DraftCount"] = draftCount
	data["Components"] = recent
	return nil
}
