package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ThalesYuji/tcc-2025-sub000/internal/models"
	"github.com/ThalesYuji/tcc-2025-sub000/internal/workflow"
)

type NotificationHandler struct {
	DB *gorm.DB
}

func NewNotificationHandler(db *gorm.DB) *NotificationHandler {
	return &NotificationHandler{DB: db}
}

func (h *NotificationHandler) List(c *fiber.Ctx) error {
	userID, err := getUserUUID(c)
	if err != nil {
		return respondError(c, err)
	}

	q := h.DB.Where("user_id = ?", userID).Order("created_at DESC").Limit(100)
	if c.Query("unread") == "1" {
		q = q.Where("is_read = false")
	}

	var notifications []models.Notification
	if err := q.Find(&notifications).Error; err != nil {
		return respondError(c, err)
	}

	var unread int64
	h.DB.Model(&models.Notification{}).Where("user_id = ? AND is_read = false", userID).Count(&unread)

	return c.JSON(fiber.Map{
		"success": true,
		"data":    notifications,
		"unread":  unread,
	})
}

func (h *NotificationHandler) MarkRead(c *fiber.Ctx) error {
	userID, err := getUserUUID(c)
	if err != nil {
		return respondError(c, err)
	}

	notificationID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return respondError(c, workflow.NewValidationError("id", "Identificador inválido"))
	}

	now := time.Now()
	res := h.DB.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", notificationID, userID).
		Updates(map[string]interface{}{"is_read": true, "read_at": &now})
	if res.Error != nil {
		return respondError(c, res.Error)
	}
	if res.RowsAffected == 0 {
		return respondError(c, &workflow.NotFoundError{Resource: "Notificação"})
	}

	return c.JSON(fiber.Map{"success": true, "message": "Notificação lida"})
}

func (h *NotificationHandler) MarkAllRead(c *fiber.Ctx) error {
	userID, err := getUserUUID(c)
	if err != nil {
		return respondError(c, err)
	}

	now := time.Now()
	if err := h.DB.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = false", userID).
		Updates(map[string]interface{}{"is_read": true, "read_at": &now}).Error; err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"success": true, "message": "Todas as notificações foram lidas"})
}
