package handlers

import (
	"io"
	"log/slog"
	"time"

	"github.com/contentflow/contentflow-api/internal/service"
	"github.com/contentflow/contentflow-api/internal/transfer"
	"github.com/gofiber/fiber/v2"
)

type PostHandler struct {
	s service.PostService
}

func NewPostHandler(service service.PostService) *PostHandler {
	return &PostHandler{s: service}
}

func (h *PostHandler) CreatePost(c *fiber.Ctx) error {
	var pc transfer.PostCreation
	if err := c.BodyParser(&pc); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse json",
		})
	}

	post, err := h.s.Create(c.Context(), GetCurrentUser(c), &pc)
	if err != nil {
		return writeError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(post)
}

func (h *PostHandler) ListPosts(c *fiber.Ctx) error {
	filter := transfer.PostFilter{
		Status:        c.Query("status"),
		SocialNetwork: c.Query("social_network"),
		ContentType:   c.Query("content_type"),
		Deleted:       c.Query("deleted_filter"),
		Limit:         c.QueryInt("limit", 0),
		Offset:        c.QueryInt("offset", 0),
	}

	var err error
	if filter.DateFrom, err = parseDateQuery(c.Query("date_from")); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid date_from"})
	}
	if filter.DateTo, err = parseDateQuery(c.Query("date_to")); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid date_to"})
	}

	posts, err := h.s.List(c.Context(), GetCurrentUser(c), filter)
	if err != nil {
		return writeError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(posts)
}

// parseDateQuery accepts RFC 3339 timestamps or plain dates.
func parseDateQuery(v string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, v); err == nil {
			return &t, nil
		}
	}
	_, err := time.Parse(time.RFC3339, v)
	return nil, err
}

func (h *PostHandler) GetPost(c *fiber.Ctx) error {
	postID, err := parsePostID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid post id"})
	}

	post, err := h.s.Get(c.Context(), GetCurrentUser(c), postID)
	if err != nil {
		return writeError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(post)
}

func (h *PostHandler) UpdatePost(c *fiber.Ctx) error {
	postID, err := parsePostID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid post id"})
	}

	var pu transfer.PostUpdate
	if err := c.BodyParser(&pu); err != nil {
		slog.Info(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse json",
		})
	}

	post, err := h.s.Update(c.Context(), GetCurrentUser(c), postID, &pu)
	if err != nil {
		return writeError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(post)
}

func (h *PostHandler) DeletePost(c *fiber.Ctx) error {
	postID, err := parsePostID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid post id"})
	}

	post, err := h.s.Delete(c.Context(), GetCurrentUser(c), postID)
	if err != nil {
		return writeError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(post)
}

func (h *PostHandler) GeneratePreviewImage(c *fiber.Ctx) error {
	postID, err := parsePostID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid post id"})
	}

	var req transfer.PreviewImageRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Unable to parse json",
			})
		}
	}

	preview, err := h.s.GeneratePreviewImage(c.Context(), GetCurrentUser(c), postID, &req)
	if err != nil {
		return writeError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(preview)
}

func (h *PostHandler) UploadWIPPreview(c *fiber.Ctx) error {
	postID, err := parsePostID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid post id"})
	}

	file, err := c.FormFile("image_file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No image file provided",
		})
	}

	f, err := file.Open()
	if err != nil {
		slog.Error(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Unable to read image file"})
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		slog.Error(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Unable to read image file"})
	}

	preview, err := h.s.UploadWIPPreview(c.Context(), GetCurrentUser(c), postID, &transfer.WIPUpload{
		Filename:    file.Filename,
		ContentType: file.Header.Get(fiber.HeaderContentType),
		Data:        data,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(preview)
}
