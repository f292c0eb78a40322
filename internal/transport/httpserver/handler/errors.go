// Package handler provides HTTP handlers for the dashboard and API.
package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"youtube-analytics/internal/domain"
	"youtube-analytics/internal/transport/httpserver/dto"
	"youtube-analytics/internal/validator"
)

// respondError maps the domain error taxonomy onto HTTP status codes.
func respondError(c *fiber.Ctx, logger *zap.Logger, action string, err error) error {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error:   "validation failed",
			Code:    "VALIDATION_ERROR",
			Details: validationErrs,
		})
	}

	status := fiber.StatusInternalServerError
	code := "INTERNAL_ERROR"
	message := action + " failed"

	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		status, code, message = fiber.StatusBadRequest, "INVALID_ARGUMENT", err.Error()
	case errors.Is(err, domain.ErrQuotaExceeded):
		status, code, message = fiber.StatusBadGateway, "QUOTA_EXCEEDED", "YouTube API quota exceeded, try again later"
	case errors.Is(err, domain.ErrUpstream):
		status, code, message = fiber.StatusBadGateway, "UPSTREAM_ERROR", "YouTube API request failed"
	case errors.Is(err, domain.ErrStoreUnavailable):
		status, code, message = fiber.StatusServiceUnavailable, "STORE_UNAVAILABLE", "database is unavailable"
	case errors.Is(err, domain.ErrStorage):
		status, code, message = fiber.StatusServiceUnavailable, "STORAGE_ERROR", "database request failed"
	}

	if status >= fiber.StatusInternalServerError {
		logger.Error(action+" failed", zap.Error(err), zap.String("path", c.Path()))
	} else {
		logger.Debug(action+" rejected", zap.Error(err), zap.String("path", c.Path()))
	}

	return c.Status(status).JSON(dto.ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// parseInvalid answers a request whose body or query could not be decoded.
func parseInvalid(c *fiber.Ctx, what string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
		Error: "invalid " + what,
		Code:  "INVALID_PARAMS",
	})
}
