package handlers

import (
	"github.com/contentflow/contentflow-api/internal/service"
	"github.com/contentflow/contentflow-api/internal/transfer"
	"github.com/gofiber/fiber/v2"
)

type SettingsHandler struct {
	s service.SettingsService
}

func NewSettingsHandler(service service.SettingsService) *SettingsHandler {
	return &SettingsHandler{s: service}
}

func (h *SettingsHandler) GetAISettings(c *fiber.Ctx) error {
	settings, err := h.s.GetAISettings(c.Context(), GetCurrentUser(c))
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(settings)
}

func (h *SettingsHandler) UpdateAISettings(c *fiber.Ctx) error {
	var su transfer.AISettingsUpdate
	if err := c.BodyParser(&su); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse json",
		})
	}

	settings, err := h.s.UpdateAISettings(c.Context(), GetCurrentUser(c), &su)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(settings)
}

func (h *SettingsHandler) GetContentPreferences(c *fiber.Ctx) error {
	prefs, err := h.s.GetContentPreferences(c.Context(), GetCurrentUser(c))
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(prefs)
}

func (h *SettingsHandler) UpdateContentPreferences(c *fiber.Ctx) error {
	var cu transfer.ContentPreferencesUpdate
	if err := c.BodyParser(&cu); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse json",
		})
	}

	prefs, err := h.s.UpdateContentPreferences(c.Context(), GetCurrentUser(c), &cu)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(prefs)
}
