package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"youtube-analytics/internal/app/service"
	"youtube-analytics/internal/domain"
	"youtube-analytics/internal/export"
	"youtube-analytics/internal/transport/httpserver/dto"
	"youtube-analytics/internal/validator"
)

const (
	defaultHistoryLimit = 50
	defaultPopularLimit = 10
)

// HistoryHandler handles the search ledger and the saved catalog.
type HistoryHandler struct {
	service   *service.AnalyticsService
	validator *validator.Validator
	logger    *zap.Logger
}

// NewHistoryHandler creates a new HistoryHandler.
func NewHistoryHandler(svc *service.AnalyticsService, v *validator.Validator, logger *zap.Logger) *HistoryHandler {
	return &HistoryHandler{
		service:   svc,
		validator: v,
		logger:    logger,
	}
}

// History handles GET /api/v1/history
func (h *HistoryHandler) History(c *fiber.Ctx) error {
	var req dto.HistoryRequest
	if err := c.QueryParser(&req); err != nil {
		return parseInvalid(c, "query parameters")
	}
	if err := h.validator.Validate(&req); err != nil {
		return respondError(c, h.logger, "history", err)
	}

	limit := req.Limit
	if limit == 0 {
		limit = defaultHistoryLimit
	}

	entries, err := h.service.History(c.UserContext(), limit)
	if err != nil {
		return respondError(c, h.logger, "history", err)
	}

	return c.JSON(dto.FromHistory(entries))
}

// Popular handles GET /api/v1/history/popular
func (h *HistoryHandler) Popular(c *fiber.Ctx) error {
	var req dto.PopularRequest
	if err := c.QueryParser(&req); err != nil {
		return parseInvalid(c, "query parameters")
	}
	if err := h.validator.Validate(&req); err != nil {
		return respondError(c, h.logger, "popular searches", err)
	}

	limit := req.Limit
	if limit == 0 {
		limit = defaultPopularLimit
	}

	popular, err := h.service.Popular(c.UserContext(), req.SearchType(), limit)
	if err != nil {
		return respondError(c, h.logger, "popular searches", err)
	}
	if popular == nil {
		popular = []domain.PopularSearch{}
	}

	return c.JSON(dto.PopularResponse{
		Type:     string(req.SearchType()),
		Searches: popular,
	})
}

// HistoryVideos handles GET /api/v1/history/:id/videos
func (h *HistoryHandler) HistoryVideos(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: "id must be a positive integer",
			Code:  "INVALID_ID",
		})
	}

	records, err := h.service.HistoryVideos(c.UserContext(), int64(id))
	if err != nil {
		return respondError(c, h.logger, "history videos", err)
	}

	return c.JSON(dto.VideoListResponse{Videos: dto.FromVideoRecords(records)})
}

// Videos handles GET /api/v1/videos
func (h *HistoryHandler) Videos(c *fiber.Ctx) error {
	var req dto.VideosRequest
	if err := c.QueryParser(&req); err != nil {
		return parseInvalid(c, "query parameters")
	}
	if err := h.validator.Validate(&req); err != nil {
		return respondError(c, h.logger, "saved videos", err)
	}

	page, err := h.service.SavedVideos(c.UserContext(), req.ToPageParams())
	if err != nil {
		return respondError(c, h.logger, "saved videos", err)
	}

	return c.JSON(dto.FromVideoPage(page))
}

// ExportCatalog handles GET /api/v1/videos/export
func (h *HistoryHandler) ExportCatalog(c *fiber.Ctx) error {
	filename, data, err := h.service.ExportCatalog(c.UserContext(), time.Now())
	if err != nil {
		return respondError(c, h.logger, "catalog export", err)
	}

	c.Set(fiber.HeaderContentType, export.ContentType)
	c.Set(fiber.HeaderContentDisposition, export.ContentDisposition(filename))

	return c.Send(data)
}
