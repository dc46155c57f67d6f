package handlers

import (
	"errors"
	"log/slog"

	"github.com/contentflow/contentflow-api/internal/api/middleware"
	"github.com/contentflow/contentflow-api/internal/service"
	"github.com/contentflow/contentflow-api/internal/transfer"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

func GetCurrentUser(c *fiber.Ctx) transfer.CurrentUser {
	user, _ := c.Locals(middleware.CurrentUserKey).(transfer.CurrentUser)
	return user
}

func parsePostID(c *fiber.Ctx) (uuid.UUID, error) {
	return uuid.Parse(c.Params("id"))
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidEnum):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, service.ErrValidation), errors.Is(err, service.ErrContentPolicy):
		return fiber.StatusBadRequest
	case errors.Is(err, service.ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, service.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, service.ErrGenUnavailable):
		return fiber.StatusServiceUnavailable
	case errors.Is(err, service.ErrGeneration):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

func writeError(c *fiber.Ctx, err error) error {
	status := statusForError(err)
	if status >= fiber.StatusInternalServerError {
		slog.Error("request failed", "method", c.Method(), "path", c.Path(), "status", status, "error", err)
	}
	return c.Status(status).JSON(fiber.Map{
		"error": service.PublicMessage(err),
	})
}
