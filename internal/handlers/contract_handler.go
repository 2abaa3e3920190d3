package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ThalesYuji/tcc-2025-sub000/internal/models"
	"github.com/ThalesYuji/tcc-2025-sub000/internal/services/notify"
	"github.com/ThalesYuji/tcc-2025-sub000/internal/workflow"
)

type ContractHandler struct {
	DB     *gorm.DB
	Notify *notify.Service
}

func NewContractHandler(db *gorm.DB, notifier *notify.Service) *ContractHandler {
	return &ContractHandler{DB: db, Notify: notifier}
}

func (h *ContractHandler) List(c *fiber.Ctx) error {
	actor, err := loadActor(h.DB, c)
	if err != nil {
		return respondError(c, err)
	}

	q := h.DB.Preload("Job").Preload("Client").Preload("Freelancer").Order("created_at DESC")
	if actor.Role != models.RoleAdmin {
		q = q.Where("client_id = ? OR freelancer_id = ?", actor.ID, actor.ID)
	}
	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", status)
	}

	var contracts []models.Contract
	if err := q.Find(&contracts).Error; err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"success": true, "data": contracts})
}

func (h *ContractHandler) Get(c *fiber.Ctx) error {
	actor, err := loadActor(h.DB, c)
	if err != nil {
		return respondError(c, err)
	}

	contractID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return respondError(c, workflow.NewValidationError("id", "Identificador inválido"))
	}

	var contract models.Contract
	if err := h.DB.Preload("Job").Preload("Client").Preload("Freelancer").Preload("Proposal").
		First(&contract, "id = ?", contractID).Error; err != nil {
		return respondError(c, &workflow.NotFoundError{Resource: "Contrato"})
	}

	if contract.ClientID != actor.ID && contract.FreelancerID != actor.ID && actor.Role != models.RoleAdmin {
		return respondError(c, &workflow.PermissionError{Message: "Você não participa deste contrato"})
	}

	return c.JSON(fiber.Map{"success": true, "data": contract})
}

type ContractStatusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus applies a contract status edit and repairs the job status in
// the same transaction. Cancelling the only contract reopens the job.
func (h *ContractHandler) UpdateStatus(c *fiber.Ctx) error {
	actor, err := loadActor(h.DB, c)
	if err != nil {
		return respondError(c, err)
	}

	contractID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return respondError(c, workflow.NewValidationError("id", "Identificador inválido"))
	}

	var req ContractStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "invalid body"})
	}
	to := models.ContractStatus(req.Status)
	switch to {
	case models.ContractStatusActive, models.ContractStatusCompleted, models.ContractStatusCancelled:
	default:
		return respondError(c, workflow.NewValidationError("status", "Status inválido"))
	}

	var result workflow.StatusChange
	txErr := h.DB.Transaction(func(tx *gorm.DB) error {
		var contract models.Contract
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&contract, "id = ?", contractID).Error; err != nil {
			return &workflow.NotFoundError{Resource: "Contrato"}
		}

		var otherActive int64
		if err := tx.Model(&models.Contract{}).
			Where("job_id = ? AND id <> ? AND status = ?", contract.JobID, contract.ID, models.ContractStatusActive).
			Count(&otherActive).Error; err != nil {
			return err
		}

		res, err := workflow.ChangeContractStatus(actor, contract, to, int(otherActive))
		if err != nil {
			return err
		}

		updates := map[string]interface{}{"status": res.ContractStatus}
		if res.ContractStatus == models.ContractStatusCompleted {
			now := time.Now()
			updates["delivery_date"] = &now
		}
		if err := tx.Model(&contract).Updates(updates).Error; err != nil {
			return err
		}
		if res.JobStatus != nil {
			if err := tx.Model(&models.Job{}).Where("id = ?", contract.JobID).
				Update("status", *res.JobStatus).Error; err != nil {
				return err
			}
		}

		result = res
		return nil
	})
	if txErr != nil {
		return respondError(c, txErr)
	}

	h.Notify.Dispatch(result.Notices)

	return c.JSON(fiber.Map{"success": true, "message": "Status do contrato atualizado"})
}

type DirectHireRequest struct {
	JobID string `json:"job_id"`
}

// DirectHire creates a contract straight from a private job, skipping the
// proposal stage. Operator action for invite-only work.
func (h *ContractHandler) DirectHire(c *fiber.Ctx) error {
	actor, err := loadActor(h.DB, c)
	if err != nil {
		return respondError(c, err)
	}

	var req DirectHireRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "invalid body"})
	}
	jobID, err := uuid.Parse(req.JobID)
	if err != nil {
		return respondError(c, workflow.NewValidationError("job_id", "Identificador inválido"))
	}

	var contract models.Contract
	txErr := h.DB.Transaction(func(tx *gorm.DB) error {
		var job models.Job
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&job, "id = ?", jobID).Error; err != nil {
			return &workflow.NotFoundError{Resource: "Trabalho"}
		}

		var active int64
		if err := tx.Model(&models.Contract{}).
			Where("job_id = ? AND status = ?", job.ID, models.ContractStatusActive).
			Count(&active).Error; err != nil {
			return err
		}

		if err := workflow.ValidateDirectHire(actor, job, int(active)); err != nil {
			return err
		}

		contract = workflow.NewContract(job, nil, time.Now())
		if err := tx.Create(&contract).Error; err != nil {
			return err
		}
		return tx.Model(&job).Update("status", models.JobStatusInProgress).Error
	})
	if txErr != nil {
		return respondError(c, txErr)
	}

	link := "/contracts/" + contract.ID.String()
	h.Notify.Send(contract.FreelancerID, "Você foi contratado diretamente para um trabalho", link)
	h.Notify.Send(contract.ClientID, "Um contrato direto foi criado para o seu trabalho", link)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": contract})
}
