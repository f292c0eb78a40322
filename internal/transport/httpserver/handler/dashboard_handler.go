package handler

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"youtube-analytics/internal/app/service"
	"youtube-analytics/internal/domain"
	"youtube-analytics/internal/transport/httpserver/dto"
	"youtube-analytics/internal/transport/httpserver/middleware"
)

// DashboardHandler renders the HTML pages.
type DashboardHandler struct {
	service *service.AnalyticsService
	logger  *zap.Logger
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(svc *service.AnalyticsService, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{
		service: svc,
		logger:  logger,
	}
}

// Render handles GET /dashboard
// Renders the session's current results; the page drives the JSON API for actions.
func (h *DashboardHandler) Render(c *fiber.Ctx) error {
	out, err := h.service.Session(c.UserContext(), middleware.SessionID(c))
	if err != nil {
		h.logger.Warn("loading session for dashboard failed", zap.Error(err))
		out = &service.SearchOutcome{}
	}

	return c.Render("pages/dashboard", fiber.Map{
		"Title":      "YouTube Analytics Dashboard",
		"Session":    dto.FromSearchOutcome(out, h.service.StoreState()),
		"StoreState": string(h.service.StoreState()),
		"Defaults":   domain.DefaultSearchQuery(),
	}, "layouts/base")
}

// History handles GET /history
func (h *DashboardHandler) History(c *fiber.Ctx) error {
	data := fiber.Map{
		"Title":      "Search History",
		"StoreState": string(h.service.StoreState()),
	}

	entries, err := h.service.History(c.UserContext(), defaultHistoryLimit)
	if err != nil {
		h.logger.Warn("loading history page failed", zap.Error(err))
		data["Error"] = "Search history is unavailable while the database is unreachable."
	}
	data["History"] = dto.FromHistory(entries).Entries

	popularKeys := map[domain.SearchType]string{
		domain.SearchTypeVideo:   "PopularVideos",
		domain.SearchTypeChannel: "PopularChannels",
	}
	for t, key := range popularKeys {
		popular, err := h.service.Popular(c.UserContext(), t, defaultPopularLimit)
		if err != nil {
			continue
		}
		data[key] = popular
	}

	return c.Render("pages/history", data, "layouts/base")
}

// Saved handles GET /saved
func (h *DashboardHandler) Saved(c *fiber.Ctx) error {
	params := domain.DefaultPageParams()
	params.Page = c.QueryInt("page", 1)

	data := fiber.Map{
		"Title":      "Saved Videos",
		"StoreState": string(h.service.StoreState()),
	}

	page, err := h.service.SavedVideos(c.UserContext(), params)
	if err != nil {
		h.logger.Warn("loading saved page failed", zap.Error(err))
		data["Error"] = "Saved videos are unavailable while the database is unreachable."
	} else {
		data["Page"] = dto.FromVideoPage(page)
	}

	return c.Render("pages/saved", data, "layouts/base")
}
