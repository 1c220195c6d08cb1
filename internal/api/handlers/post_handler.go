package handlers

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/cmisapp/publishflow/internal/apperrors"
	"github.com/cmisapp/publishflow/internal/models"
	"github.com/cmisapp/publishflow/internal/service"
	"github.com/cmisapp/publishflow/internal/transfer"
	"github.com/gofiber/fiber/v2"
)

type PostHandler struct {
	s service.PostService
}

func NewPostHandler(service service.PostService) *PostHandler {
	return &PostHandler{s: service}
}

// QueuePost accepts content plus media files and creates a queued
// draft. The fill scheduler assigns the actual slot later.
func (h *PostHandler) QueuePost(c *fiber.Ctx) error {
	orgID := GetOrgID(c)

	form, err := c.MultipartForm()
	if err != nil {
		slog.Error(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse form",
		})
	}

	accountID, _ := strconv.ParseInt(c.FormValue("social_account_id"), 10, 64)
	content := c.FormValue("content")
	title := c.FormValue("title")
	files := form.File["files"]

	postID, err := h.s.QueuePost(c.Context(), orgID, &transfer.PostCreation{
		SocialAccountID: accountID,
		Content:         content,
		Title:           title,
	}, files)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"post_id": postID,
		"status":  models.PostStatusQueued,
	})
}

func (h *PostHandler) ListPosts(c *fiber.Ctx) error {
	orgID := GetOrgID(c)
	postID := c.Query("id")
	status := c.Query("status")

	if postID != "" {
		post, err := h.s.PostInfo(c.Context(), orgID, postID)
		if err != nil {
			if apperrors.IsPostNotFound(err) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
					"error": err.Error(),
				})
			}
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Unable to get post",
			})
		}
		return c.Status(fiber.StatusOK).JSON(post)
	}

	posts, err := h.s.List(c.Context(), orgID, status)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to list posts",
		})
	}

	if posts == nil {
		posts = []*models.ScheduledPost{}
	}
	return c.Status(fiber.StatusOK).JSON(posts)
}

func (h *PostHandler) ReschedulePost(c *fiber.Ctx) error {
	orgID := GetOrgID(c)

	var pr transfer.PostReschedule
	if err := c.BodyParser(&pr); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse json",
		})
	}

	scheduledAt, err := time.Parse(time.RFC3339, pr.ScheduledAt)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "scheduled_at must be RFC3339",
		})
	}

	post, err := h.s.Reschedule(c.Context(), orgID, pr.PostID, scheduledAt)
	if err != nil {
		if apperrors.IsPostNotFound(err) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(post)
}

func (h *PostHandler) RemovePost(c *fiber.Ctx) error {
	orgID := GetOrgID(c)
	postID := c.Query("id")

	err := h.s.Remove(c.Context(), orgID, postID)
	if err != nil {
		if apperrors.IsPostNotFound(err) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.SendStatus(fiber.StatusOK)
}
