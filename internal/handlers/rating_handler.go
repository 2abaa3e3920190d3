package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ThalesYuji/tcc-2025-sub000/internal/models"
	"github.com/ThalesYuji/tcc-2025-sub000/internal/services/notify"
	"github.com/ThalesYuji/tcc-2025-sub000/internal/workflow"
)

type RatingHandler struct {
	DB     *gorm.DB
	Notify *notify.Service
}

func NewRatingHandler(db *gorm.DB, notifier *notify.Service) *RatingHandler {
	return &RatingHandler{DB: db, Notify: notifier}
}

type CreateRatingRequest struct {
	ContractID string `json:"contract_id"`
	Score      int    `json:"score"`
	Comment    string `json:"comment"`
}

// Create registers a review on a completed contract. Each party rates the
// other at most once per contract.
func (h *RatingHandler) Create(c *fiber.Ctx) error {
	actor, err := loadActor(h.DB, c)
	if err != nil {
		return respondError(c, err)
	}

	var req CreateRatingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "invalid body"})
	}

	errs := workflow.FieldErrors{}
	contractID, err := uuid.Parse(req.ContractID)
	if err != nil {
		errs.Add("contract_id", "Identificador inválido")
	}
	if req.Score < 1 || req.Score > 5 {
		errs.Add("score", "A nota deve estar entre 1 e 5")
	}
	if len(errs) > 0 {
		return respondError(c, &workflow.ValidationError{Fields: errs})
	}

	var contract models.Contract
	if err := h.DB.First(&contract, "id = ?", contractID).Error; err != nil {
		return respondError(c, &workflow.NotFoundError{Resource: "Contrato"})
	}
	if contract.ClientID != actor.ID && contract.FreelancerID != actor.ID {
		return respondError(c, &workflow.PermissionError{Message: "Você não participa deste contrato"})
	}
	if contract.Status != models.ContractStatusCompleted {
		return respondError(c, workflow.NewValidationError("contract_id", "Avaliações só são permitidas em contratos concluídos"))
	}

	var count int64
	if err := h.DB.Model(&models.Rating{}).
		Where("contract_id = ? AND author_id = ?", contract.ID, actor.ID).
		Count(&count).Error; err != nil {
		return respondError(c, err)
	}
	if count > 0 {
		return respondError(c, &workflow.ConflictError{Message: "Você já avaliou este contrato"})
	}

	targetID := contract.FreelancerID
	if actor.ID == contract.FreelancerID {
		targetID = contract.ClientID
	}

	rating := models.Rating{
		ContractID: contract.ID,
		AuthorID:   actor.ID,
		TargetID:   targetID,
		Score:      req.Score,
		Comment:    strings.TrimSpace(req.Comment),
	}
	if err := h.DB.Create(&rating).Error; err != nil {
		return respondError(c, err)
	}

	h.Notify.Send(targetID, "Você recebeu uma nova avaliação", "/users/"+targetID.String()+"/ratings")

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": rating})
}

// ListForUser returns the ratings a user has received plus their average.
func (h *RatingHandler) ListForUser(c *fiber.Ctx) error {
	userID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return respondError(c, workflow.NewValidationError("id", "Identificador inválido"))
	}

	var ratings []models.Rating
	if err := h.DB.Preload("Author").Where("target_id = ?", userID).
		Order("created_at DESC").Find(&ratings).Error; err != nil {
		return respondError(c, err)
	}

	var average float64
	if len(ratings) > 0 {
		total := 0
		for _, r := range ratings {
			total += r.Score
		}
		average = float64(total) / float64(len(ratings))
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    ratings,
		"average": average,
	})
}
