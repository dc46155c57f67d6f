package handlers

import (
	"github.com/contentflow/contentflow-api/internal/service"
	"github.com/contentflow/contentflow-api/internal/transfer"
	"github.com/gofiber/fiber/v2"
)

type ProfileHandler struct {
	s service.ProfileService
}

func NewProfileHandler(service service.ProfileService) *ProfileHandler {
	return &ProfileHandler{s: service}
}

func (h *ProfileHandler) GetProfile(c *fiber.Ctx) error {
	profile, err := h.s.GetProfile(c.Context(), GetCurrentUser(c))
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(profile)
}

func (h *ProfileHandler) UpdateProfile(c *fiber.Ctx) error {
	var pu transfer.ProfileUpdate
	if err := c.BodyParser(&pu); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse json",
		})
	}

	profile, err := h.s.UpdateProfile(c.Context(), GetCurrentUser(c), &pu)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(profile)
}
