package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"youtube-analytics/internal/app/service"
	"youtube-analytics/internal/export"
	"youtube-analytics/internal/transport/httpserver/dto"
	"youtube-analytics/internal/transport/httpserver/middleware"
	"youtube-analytics/internal/validator"
)

// AnalyticsHandler handles the session-scoped dashboard actions.
type AnalyticsHandler struct {
	service     *service.AnalyticsService
	sessions    *service.SessionService
	validator   *validator.Validator
	logger      *zap.Logger
	defaultDays int
	now         func() time.Time
}

// NewAnalyticsHandler creates a new AnalyticsHandler.
// defaultDays bounds keyword searches that do not set published_after_days.
func NewAnalyticsHandler(
	svc *service.AnalyticsService,
	sessions *service.SessionService,
	v *validator.Validator,
	defaultDays int,
	logger *zap.Logger,
) *AnalyticsHandler {
	return &AnalyticsHandler{
		service:     svc,
		sessions:    sessions,
		validator:   v,
		logger:      logger,
		defaultDays: defaultDays,
		now:         time.Now,
	}
}

// Search handles POST /api/v1/search
func (h *AnalyticsHandler) Search(c *fiber.Ctx) error {
	var req dto.SearchRequest
	if err := c.BodyParser(&req); err != nil {
		return parseInvalid(c, "request body")
	}

	if err := h.validator.Validate(&req); err != nil {
		return respondError(c, h.logger, "search", err)
	}

	out, err := h.service.Search(c.UserContext(), middleware.SessionID(c), req.ToSearchQuery(h.now(), h.defaultDays))
	if err != nil {
		return respondError(c, h.logger, "search", err)
	}

	return c.JSON(dto.FromSearchOutcome(out, h.service.StoreState()))
}

// Filter handles POST /api/v1/filter
func (h *AnalyticsHandler) Filter(c *fiber.Ctx) error {
	var req dto.FilterRequest
	if err := c.BodyParser(&req); err != nil {
		return parseInvalid(c, "request body")
	}

	if err := h.validator.Validate(&req); err != nil {
		return respondError(c, h.logger, "filter", err)
	}

	filter, err := req.ToFilter()
	if err != nil {
		return respondError(c, h.logger, "filter", err)
	}

	out, err := h.service.ApplyFilter(c.UserContext(), middleware.SessionID(c), filter)
	if err != nil {
		return respondError(c, h.logger, "filter", err)
	}

	return c.JSON(dto.FromSearchOutcome(out, h.service.StoreState()))
}

// Save handles POST /api/v1/save
// Storage problems are reported in the body with persisted=false, not as an error status.
func (h *AnalyticsHandler) Save(c *fiber.Ctx) error {
	out, err := h.service.Save(c.UserContext(), middleware.SessionID(c))
	if err != nil {
		return respondError(c, h.logger, "save", err)
	}

	return c.JSON(out)
}

// Export handles GET /api/v1/export
func (h *AnalyticsHandler) Export(c *fiber.Ctx) error {
	filename, data, err := h.service.Export(c.UserContext(), middleware.SessionID(c), h.now())
	if err != nil {
		return respondError(c, h.logger, "export", err)
	}

	c.Set(fiber.HeaderContentType, export.ContentType)
	c.Set(fiber.HeaderContentDisposition, export.ContentDisposition(filename))

	return c.Send(data)
}

// Session handles GET /api/v1/session
func (h *AnalyticsHandler) Session(c *fiber.Ctx) error {
	out, err := h.service.Session(c.UserContext(), middleware.SessionID(c))
	if err != nil {
		return respondError(c, h.logger, "session", err)
	}

	return c.JSON(dto.FromSearchOutcome(out, h.service.StoreState()))
}

// Reset handles DELETE /api/v1/session
func (h *AnalyticsHandler) Reset(c *fiber.Ctx) error {
	if err := h.sessions.Reset(c.UserContext(), middleware.SessionID(c)); err != nil {
		return respondError(c, h.logger, "reset", err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}
