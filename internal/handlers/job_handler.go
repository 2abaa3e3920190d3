package handlers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ThalesYuji/tcc-2025-sub000/internal/models"
	"github.com/ThalesYuji/tcc-2025-sub000/internal/workflow"
)

type JobHandler struct {
	DB *gorm.DB
}

func NewJobHandler(db *gorm.DB) *JobHandler {
	return &JobHandler{DB: db}
}

type CreateJobRequest struct {
	Title              string  `json:"title"`
	Description        string  `json:"description"`
	Deadline           string  `json:"deadline"` // ISO format: 2026-01-03
	Budget             float64 `json:"budget"`
	TargetFreelancerID string  `json:"target_freelancer_id,omitempty"`
}

func (h *JobHandler) Create(c *fiber.Ctx) error {
	actor, err := loadActor(h.DB, c)
	if err != nil {
		return respondError(c, err)
	}
	if actor.Role != models.RoleClient && actor.Role != models.RoleAdmin {
		return respondError(c, &workflow.PermissionError{Message: "Apenas clientes podem publicar trabalhos"})
	}

	var req CreateJobRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "invalid body"})
	}

	errs := workflow.FieldErrors{}
	if strings.TrimSpace(req.Title) == "" {
		errs.Add("title", "Título é obrigatório")
	}
	if req.Budget <= 0 {
		errs.Add("budget", "O orçamento deve ser maior que zero")
	}
	deadline, err := time.Parse("2006-01-02", req.Deadline)
	if err != nil {
		errs.Add("deadline", "Prazo inválido (use AAAA-MM-DD)")
	} else if !deadline.After(time.Now()) {
		errs.Add("deadline", "O prazo deve ser futuro")
	}
	if len(errs) > 0 {
		return respondError(c, &workflow.ValidationError{Fields: errs})
	}

	job := models.Job{
		ClientID:    actor.ID,
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		Deadline:    deadline,
		Budget:      req.Budget,
		Status:      models.JobStatusOpen,
	}

	if req.TargetFreelancerID != "" {
		targetID, err := uuid.Parse(req.TargetFreelancerID)
		if err != nil {
			return respondError(c, workflow.NewValidationError("target_freelancer_id", "Identificador inválido"))
		}
		var target models.User
		if err := h.DB.First(&target, "id = ? AND role = ?", targetID, models.RoleFreelancer).Error; err != nil {
			return respondError(c, workflow.NewValidationError("target_freelancer_id", "Freelancer não encontrado"))
		}
		job.TargetFreelancerID = &target.ID
	}

	if err := h.DB.Create(&job).Error; err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": job})
}

// List returns open public jobs; ?mine=1 switches to the caller's own jobs
// (any status) and ?status filters.
func (h *JobHandler) List(c *fiber.Ctx) error {
	actor, err := loadActor(h.DB, c)
	if err != nil {
		return respondError(c, err)
	}

	q := h.DB.Model(&models.Job{}).Preload("Client").Order("created_at DESC")

	if c.Query("mine") == "1" {
		switch actor.Role {
		case models.RoleFreelancer:
			q = q.Where("target_freelancer_id = ?", actor.ID)
		default:
			q = q.Where("client_id = ?", actor.ID)
		}
	} else {
		q = q.Where("target_freelancer_id IS NULL OR target_freelancer_id = ?", actor.ID)
	}

	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", status)
	} else if c.Query("mine") != "1" {
		q = q.Where("status = ?", models.JobStatusOpen)
	}

	var jobs []models.Job
	if err := q.Find(&jobs).Error; err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"success": true, "data": jobs})
}

func (h *JobHandler) Get(c *fiber.Ctx) error {
	actor, err := loadActor(h.DB, c)
	if err != nil {
		return respondError(c, err)
	}

	jobID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return respondError(c, workflow.NewValidationError("id", "Identificador inválido"))
	}

	var job models.Job
	if err := h.DB.Preload("Client").Preload("TargetFreelancer").First(&job, "id = ?", jobID).Error; err != nil {
		return respondError(c, &workflow.NotFoundError{Resource: "Trabalho"})
	}

	if job.IsPrivate() && actor.ID != job.ClientID && actor.ID != *job.TargetFreelancerID && actor.Role != models.RoleAdmin {
		return respondError(c, &workflow.PermissionError{Message: "Este trabalho é privado"})
	}

	return c.JSON(fiber.Map{"success": true, "data": job})
}

type UpdateJobRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Deadline    string  `json:"deadline"`
	Budget      float64 `json:"budget"`
}

func (h *JobHandler) Update(c *fiber.Ctx) error {
	actor, err := loadActor(h.DB, c)
	if err != nil {
		return respondError(c, err)
	}

	jobID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return respondError(c, workflow.NewValidationError("id", "Identificador inválido"))
	}

	var job models.Job
	if err := h.DB.First(&job, "id = ?", jobID).Error; err != nil {
		return respondError(c, &workflow.NotFoundError{Resource: "Trabalho"})
	}

	if job.ClientID != actor.ID && actor.Role != models.RoleAdmin {
		return respondError(c, &workflow.PermissionError{Message: "Apenas o dono do trabalho pode editá-lo"})
	}
	if job.Status != models.JobStatusOpen {
		return respondError(c, workflow.NewValidationError("status", "Apenas trabalhos abertos podem ser editados"))
	}

	var req UpdateJobRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "invalid body"})
	}

	errs := workflow.FieldErrors{}
	if strings.TrimSpace(req.Title) == "" {
		errs.Add("title", "Título é obrigatório")
	}
	if req.Budget <= 0 {
		errs.Add("budget", "O orçamento deve ser maior que zero")
	}
	deadline, err := time.Parse("2006-01-02", req.Deadline)
	if err != nil {
		errs.Add("deadline", "Prazo inválido (use AAAA-MM-DD)")
	}
	if len(errs) > 0 {
		return respondError(c, &workflow.ValidationError{Fields: errs})
	}

	job.Title = strings.TrimSpace(req.Title)
	job.Description = strings.TrimSpace(req.Description)
	job.Deadline = deadline
	job.Budget = req.Budget

	if err := h.DB.Save(&job).Error; err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"success": true, "data": job})
}

// Delete removes a job and (by cascade) its proposals. Jobs referenced by a
// contract are never deleted.
func (h *JobHandler) Delete(c *fiber.Ctx) error {
	actor, err := loadActor(h.DB, c)
	if err != nil {
		return respondError(c, err)
	}

	jobID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return respondError(c, workflow.NewValidationError("id", "Identificador inválido"))
	}

	var job models.Job
	if err := h.DB.First(&job, "id = ?", jobID).Error; err != nil {
		return respondError(c, &workflow.NotFoundError{Resource: "Trabalho"})
	}

	if job.ClientID != actor.ID && actor.Role != models.RoleAdmin {
		return respondError(c, &workflow.PermissionError{Message: "Apenas o dono do trabalho pode excluí-lo"})
	}

	var contracts int64
	if err := h.DB.Model(&models.Contract{}).Where("job_id = ?", job.ID).Count(&contracts).Error; err != nil {
		return respondError(c, err)
	}
	if contracts > 0 {
		return respondError(c, &workflow.ConflictError{Message: "Trabalhos com contratos não podem ser excluídos"})
	}

	if err := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("job_id = ?", job.ID).Delete(&models.Proposal{}).Error; err != nil {
			return err
		}
		return tx.Delete(&job).Error
	}); err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"success": true, "message": "Trabalho excluído"})
}
