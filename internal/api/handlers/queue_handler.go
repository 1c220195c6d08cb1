package handlers

import (
	"errors"
	"log/slog"
	"time"

	"github.com/cmisapp/publishflow/internal/apperrors"
	"github.com/cmisapp/publishflow/internal/models"
	"github.com/cmisapp/publishflow/internal/service"
	"github.com/cmisapp/publishflow/internal/transfer"
	"github.com/gofiber/fiber/v2"
)

type QueueHandler struct {
	s service.QueueService
}

func NewQueueHandler(service service.QueueService) *QueueHandler {
	return &QueueHandler{s: service}
}

func rejectedSlotTimes(rejected []models.TimeSlot) []string {
	times := make([]string, 0, len(rejected))
	for _, slot := range rejected {
		times = append(times, slot.Time)
	}
	return times
}

func (h *QueueHandler) ListQueues(c *fiber.Ctx) error {
	orgID := GetOrgID(c)
	activeOnly := c.QueryBool("active_only", false)

	queues, err := h.s.ListQueues(c.Context(), orgID, activeOnly)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to list queues",
		})
	}

	if queues == nil {
		queues = []*models.PublishingQueue{}
	}
	return c.Status(fiber.StatusOK).JSON(queues)
}

func (h *QueueHandler) GetAccountQueue(c *fiber.Ctx) error {
	orgID := GetOrgID(c)
	accountID, err := c.ParamsInt("account_id", 0)
	if err != nil || accountID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid account id",
		})
	}

	queue, err := h.s.GetAccountQueue(c.Context(), orgID, int64(accountID))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to get queue",
		})
	}
	if queue == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "No queue configured for this account",
		})
	}

	return c.Status(fiber.StatusOK).JSON(queue)
}

func (h *QueueHandler) CreateQueue(c *fiber.Ctx) error {
	orgID := GetOrgID(c)

	var qc transfer.QueueCreation
	if err := c.BodyParser(&qc); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse json",
		})
	}

	queue, rejected, err := h.s.CreateQueue(c.Context(), orgID, &qc)
	if err != nil {
		var invalidSlots *apperrors.InvalidTimeSlotsError
		switch {
		case apperrors.IsQueueExists(err):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": err.Error(),
			})
		case errors.As(err, &invalidSlots):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":          "No valid time slots submitted",
				"rejected_slots": invalidSlots.Rejected,
			})
		default:
			slog.Info(err.Error())
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"queue":          queue,
		"rejected_slots": rejectedSlotTimes(rejected),
	})
}

func (h *QueueHandler) UpdateQueue(c *fiber.Ctx) error {
	orgID := GetOrgID(c)
	queueID := c.Params("id")

	var qu transfer.QueueUpdate
	if err := c.BodyParser(&qu); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse json",
		})
	}

	queue, rejected, err := h.s.UpdateQueue(c.Context(), orgID, queueID, &qu)
	if err != nil {
		var invalidSlots *apperrors.InvalidTimeSlotsError
		switch {
		case apperrors.IsQueueNotFound(err):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": err.Error(),
			})
		case errors.As(err, &invalidSlots):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":          "No valid time slots submitted",
				"rejected_slots": invalidSlots.Rejected,
			})
		default:
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"queue":          queue,
		"rejected_slots": rejectedSlotTimes(rejected),
	})
}

func (h *QueueHandler) DeleteQueue(c *fiber.Ctx) error {
	orgID := GetOrgID(c)
	queueID := c.Params("id")

	deleted, err := h.s.DeleteQueue(c.Context(), orgID, queueID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to delete queue",
		})
	}
	if !deleted {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Queue not found",
		})
	}

	return c.SendStatus(fiber.StatusOK)
}

func (h *QueueHandler) ToggleQueue(c *fiber.Ctx) error {
	orgID := GetOrgID(c)
	queueID := c.Params("id")

	queue, err := h.s.ToggleQueue(c.Context(), orgID, queueID)
	if err != nil {
		if apperrors.IsQueueNotFound(err) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to toggle queue",
		})
	}

	return c.Status(fiber.StatusOK).JSON(queue)
}

func (h *QueueHandler) NextSlot(c *fiber.Ctx) error {
	orgID := GetOrgID(c)
	queueID := c.Params("id")

	next, err := h.s.NextSlot(c.Context(), orgID, queueID)
	if err != nil {
		if apperrors.IsQueueNotFound(err) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		if errors.Is(err, apperrors.ErrNoEnabledSlots) {
			return c.Status(fiber.StatusOK).JSON(fiber.Map{
				"next_slot": nil,
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to compute next slot",
		})
	}

	var formatted *string
	if next != nil {
		f := next.Format(time.RFC3339)
		formatted = &f
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"next_slot": formatted,
	})
}

func (h *QueueHandler) OptimalTimes(c *fiber.Ctx) error {
	platform := c.Query("platform")
	if platform == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "platform is required",
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"platform":   platform,
		"time_slots": h.s.OptimalTimes(platform),
	})
}

func (h *QueueHandler) QueueStats(c *fiber.Ctx) error {
	orgID := GetOrgID(c)
	queueID := c.Params("id")

	stats, err := h.s.Statistics(c.Context(), orgID, queueID)
	if err != nil {
		if apperrors.IsQueueNotFound(err) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to get queue statistics",
		})
	}

	return c.Status(fiber.StatusOK).JSON(stats)
}
