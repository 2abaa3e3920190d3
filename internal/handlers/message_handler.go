package handlers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ThalesYuji/tcc-2025-sub000/internal/models"
	"github.com/ThalesYuji/tcc-2025-sub000/internal/services/notify"
	"github.com/ThalesYuji/tcc-2025-sub000/internal/workflow"
)

type MessageHandler struct {
	DB     *gorm.DB
	Notify *notify.Service
}

func NewMessageHandler(db *gorm.DB, notifier *notify.Service) *MessageHandler {
	return &MessageHandler{DB: db, Notify: notifier}
}

type SendMessageRequest struct {
	ReceiverID string `json:"receiver_id"`
	JobID      string `json:"job_id"`
	Text       string `json:"text"`
}

func (h *MessageHandler) Send(c *fiber.Ctx) error {
	actor, err := loadActor(h.DB, c)
	if err != nil {
		return respondError(c, err)
	}

	var req SendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "invalid body"})
	}

	errs := workflow.FieldErrors{}
	receiverID, err := uuid.Parse(req.ReceiverID)
	if err != nil {
		errs.Add("receiver_id", "Identificador inválido")
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		errs.Add("text", "A mensagem não pode ser vazia")
	}
	if len(errs) > 0 {
		return respondError(c, &workflow.ValidationError{Fields: errs})
	}
	if receiverID == actor.ID {
		return respondError(c, workflow.NewValidationError("receiver_id", "Você não pode enviar mensagens para si mesmo"))
	}

	var receiver models.User
	if err := h.DB.First(&receiver, "id = ? AND is_active = true", receiverID).Error; err != nil {
		return respondError(c, &workflow.NotFoundError{Resource: "Usuário"})
	}

	msg := models.Message{
		SenderID:   actor.ID,
		ReceiverID: receiver.ID,
		Text:       text,
	}
	if req.JobID != "" {
		jobID, err := uuid.Parse(req.JobID)
		if err != nil {
			return respondError(c, workflow.NewValidationError("job_id", "Identificador inválido"))
		}
		var job models.Job
		if err := h.DB.First(&job, "id = ?", jobID).Error; err != nil {
			return respondError(c, &workflow.NotFoundError{Resource: "Trabalho"})
		}
		msg.JobID = &job.ID
	}

	if err := h.DB.Create(&msg).Error; err != nil {
		return respondError(c, err)
	}

	h.Notify.Send(receiver.ID, "Nova mensagem de "+actor.Name, "/messages/"+actor.ID.String())

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": msg})
}

// Conversation returns the message history between the caller and one peer,
// oldest first, and marks the incoming messages as read.
func (h *MessageHandler) Conversation(c *fiber.Ctx) error {
	actor, err := loadActor(h.DB, c)
	if err != nil {
		return respondError(c, err)
	}

	peerID, err := uuid.Parse(c.Params("userId"))
	if err != nil {
		return respondError(c, workflow.NewValidationError("userId", "Identificador inválido"))
	}

	var messages []models.Message
	if err := h.DB.Preload("Sender").Preload("Receiver").
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
			actor.ID, peerID, peerID, actor.ID).
		Order("created_at ASC").Find(&messages).Error; err != nil {
		return respondError(c, err)
	}

	now := time.Now()
	h.DB.Model(&models.Message{}).
		Where("sender_id = ? AND receiver_id = ? AND is_read = false", peerID, actor.ID).
		Updates(map[string]interface{}{"is_read": true, "read_at": &now})

	return c.JSON(fiber.Map{"success": true, "data": messages})
}

// Inbox lists the caller's conversation partners with the latest message and
// unread count per partner.
func (h *MessageHandler) Inbox(c *fiber.Ctx) error {
	actor, err := loadActor(h.DB, c)
	if err != nil {
		return respondError(c, err)
	}

	var messages []models.Message
	if err := h.DB.Preload("Sender").Preload("Receiver").
		Where("sender_id = ? OR receiver_id = ?", actor.ID, actor.ID).
		Order("created_at DESC").Find(&messages).Error; err != nil {
		return respondError(c, err)
	}

	type conversation struct {
		Peer    *models.User   `json:"peer"`
		Last    models.Message `json:"last_message"`
		Unread  int            `json:"unread"`
		PeerKey uuid.UUID      `json:"-"`
	}

	seen := map[uuid.UUID]*conversation{}
	var order []uuid.UUID
	for _, m := range messages {
		peerID := m.ReceiverID
		peer := m.Receiver
		if m.ReceiverID == actor.ID {
			peerID = m.SenderID
			peer = m.Sender
		}
		conv, ok := seen[peerID]
		if !ok {
			conv = &conversation{Peer: peer, Last: m, PeerKey: peerID}
			seen[peerID] = conv
			order = append(order, peerID)
		}
		if m.ReceiverID == actor.ID && !m.IsRead {
			conv.Unread++
		}
	}

	conversations := make([]*conversation, 0, len(order))
	for _, id := range order {
		conversations = append(conversations, seen[id])
	}

	return c.JSON(fiber.Map{"success": true, "data": conversations})
}
