package handlers

import (
	"github.com/contentflow/contentflow-api/internal/service"
	"github.com/contentflow/contentflow-api/internal/transfer"
	"github.com/gofiber/fiber/v2"
)

type AIHandler struct {
	s service.ContentService
}

func NewAIHandler(service service.ContentService) *AIHandler {
	return &AIHandler{s: service}
}

func (h *AIHandler) GenerateContentIdeas(c *fiber.Ctx) error {
	var req transfer.ContentIdeasRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Unable to parse json",
			})
		}
	}

	ideas, err := h.s.GenerateIdeas(c.Context(), GetCurrentUser(c), &req)
	if err != nil {
		return writeError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(ideas)
}
