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

type ProposalHandler struct {
	DB     *gorm.DB
	Notify *notify.Service
}

func NewProposalHandler(db *gorm.DB, notifier *notify.Service) *ProposalHandler {
	return &ProposalHandler{DB: db, Notify: notifier}
}

type SubmitProposalRequest struct {
	JobID        string  `json:"job_id"`
	Description  string  `json:"description"`
	Amount       float64 `json:"amount"`
	DeliveryDate string  `json:"delivery_date"` // ISO format: 2026-01-05
	RevisionNote string  `json:"revision_note"`
}

func (h *ProposalHandler) Submit(c *fiber.Ctx) error {
	actor, err := loadActor(h.DB, c)
	if err != nil {
		return respondError(c, err)
	}

	var req SubmitProposalRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "invalid body"})
	}

	jobID, err := uuid.Parse(req.JobID)
	if err != nil {
		return respondError(c, workflow.NewValidationError("job_id", "Identificador inválido"))
	}

	deliveryDate, err := time.Parse("2006-01-02", req.DeliveryDate)
	if err != nil {
		return respondError(c, workflow.NewValidationError("delivery_date", "Data de entrega inválida (use AAAA-MM-DD)"))
	}

	in := workflow.SubmitInput{
		Description:  req.Description,
		Amount:       req.Amount,
		DeliveryDate: deliveryDate,
		RevisionNote: req.RevisionNote,
	}

	var proposal models.Proposal
	var notice workflow.Notice
	txErr := h.DB.Transaction(func(tx *gorm.DB) error {
		var job models.Job
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&job, "id = ?", jobID).Error; err != nil {
			return &workflow.NotFoundError{Resource: "Trabalho"}
		}

		var prior []models.Proposal
		if err := tx.Where("job_id = ? AND freelancer_id = ?", job.ID, actor.ID).
			Order("sequence_number ASC").Find(&prior).Error; err != nil {
			return err
		}

		if err := workflow.ValidateSubmission(actor, job, prior, in, time.Now()); err != nil {
			return err
		}

		proposal, notice = workflow.NewProposal(actor, job, prior, in)
		return tx.Create(&proposal).Error
	})
	if txErr != nil {
		return respondError(c, txErr)
	}

	h.Notify.Send(notice.UserID, notice.Message, notice.Link)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": proposal})
}

// ListForJob returns the proposals on a job. The job owner (or admin) sees
// all of them; a freelancer sees only their own.
func (h *ProposalHandler) ListForJob(c *fiber.Ctx) error {
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

	q := h.DB.Preload("Freelancer").Where("job_id = ?", job.ID).Order("created_at DESC")
	if job.ClientID != actor.ID && actor.Role != models.RoleAdmin {
		q = q.Where("freelancer_id = ?", actor.ID)
	}

	var proposals []models.Proposal
	if err := q.Find(&proposals).Error; err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"success": true, "data": proposals})
}

func (h *ProposalHandler) ListMine(c *fiber.Ctx) error {
	actor, err := loadActor(h.DB, c)
	if err != nil {
		return respondError(c, err)
	}

	var proposals []models.Proposal
	if err := h.DB.Preload("Job").Where("freelancer_id = ?", actor.ID).
		Order("created_at DESC").Find(&proposals).Error; err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"success": true, "data": proposals})
}

func (h *ProposalHandler) Get(c *fiber.Ctx) error {
	actor, err := loadActor(h.DB, c)
	if err != nil {
		return respondError(c, err)
	}

	proposalID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return respondError(c, workflow.NewValidationError("id", "Identificador inválido"))
	}

	var p models.Proposal
	if err := h.DB.Preload("Job").Preload("Freelancer").First(&p, "id = ?", proposalID).Error; err != nil {
		return respondError(c, &workflow.NotFoundError{Resource: "Proposta"})
	}

	if p.FreelancerID != actor.ID && p.Job.ClientID != actor.ID && actor.Role != models.RoleAdmin {
		return respondError(c, &workflow.PermissionError{Message: "Você não tem acesso a esta proposta"})
	}

	return c.JSON(fiber.Map{"success": true, "data": p})
}

// Accept runs the whole acceptance atomically: accept this proposal, reject
// the competing pending ones, move the job to in_progress and create the
// contract. A concurrent accept on the same proposal loses with a conflict.
func (h *ProposalHandler) Accept(c *fiber.Ctx) error {
	actor, err := loadActor(h.DB, c)
	if err != nil {
		return respondError(c, err)
	}

	proposalID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return respondError(c, workflow.NewValidationError("id", "Identificador inválido"))
	}

	var result workflow.AcceptResult
	txErr := h.DB.Transaction(func(tx *gorm.DB) error {
		var p models.Proposal
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&p, "id = ?", proposalID).Error; err != nil {
			return &workflow.NotFoundError{Resource: "Proposta"}
		}

		var job models.Job
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&job, "id = ?", p.JobID).Error; err != nil {
			return &workflow.NotFoundError{Resource: "Trabalho"}
		}

		var existing int64
		if err := tx.Model(&models.Contract{}).Where("proposal_id = ?", p.ID).Count(&existing).Error; err != nil {
			return err
		}

		var siblings []models.Proposal
		if err := tx.Where("job_id = ?", job.ID).Find(&siblings).Error; err != nil {
			return err
		}

		res, err := workflow.AcceptProposal(actor, job, p, siblings, existing > 0, time.Now())
		if err != nil {
			return err
		}

		if err := tx.Model(&p).Update("status", models.ProposalStatusAccepted).Error; err != nil {
			return err
		}
		if len(res.RejectedProposalIDs) > 0 {
			if err := tx.Model(&models.Proposal{}).Where("id IN ?", res.RejectedProposalIDs).
				Updates(map[string]interface{}{
					"status":           models.ProposalStatusRejected,
					"rejection_reason": "Outra proposta foi aceita para este trabalho",
				}).Error; err != nil {
				return err
			}
		}
		if err := tx.Model(&job).Update("status", res.JobStatus).Error; err != nil {
			return err
		}
		if err := tx.Create(&res.Contract).Error; err != nil {
			return err
		}

		result = res
		return nil
	})
	if txErr != nil {
		return respondError(c, txErr)
	}

	h.Notify.Dispatch(result.Notices)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Proposta aceita",
		"data":    fiber.Map{"contract_id": result.Contract.ID},
	})
}

type RejectProposalRequest struct {
	Reason string `json:"reason"`
}

func (h *ProposalHandler) Reject(c *fiber.Ctx) error {
	actor, err := loadActor(h.DB, c)
	if err != nil {
		return respondError(c, err)
	}

	proposalID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return respondError(c, workflow.NewValidationError("id", "Identificador inválido"))
	}

	var req RejectProposalRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "invalid body"})
	}

	var result workflow.RejectResult
	txErr := h.DB.Transaction(func(tx *gorm.DB) error {
		var p models.Proposal
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&p, "id = ?", proposalID).Error; err != nil {
			return &workflow.NotFoundError{Resource: "Proposta"}
		}

		var job models.Job
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&job, "id = ?", p.JobID).Error; err != nil {
			return &workflow.NotFoundError{Resource: "Trabalho"}
		}

		var accepted int64
		if err := tx.Model(&models.Proposal{}).
			Where("job_id = ? AND id <> ? AND status = ?", job.ID, p.ID, models.ProposalStatusAccepted).
			Count(&accepted).Error; err != nil {
			return err
		}

		res, err := workflow.RejectProposal(actor, job, p, req.Reason, accepted > 0)
		if err != nil {
			return err
		}

		if err := tx.Model(&p).Updates(map[string]interface{}{
			"status":           models.ProposalStatusRejected,
			"rejection_reason": req.Reason,
		}).Error; err != nil {
			return err
		}
		if res.JobStatus != job.Status {
			if err := tx.Model(&job).Update("status", res.JobStatus).Error; err != nil {
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

	return c.JSON(fiber.Map{"success": true, "message": "Proposta recusada"})
}

func (h *ProposalHandler) Delete(c *fiber.Ctx) error {
	actor, err := loadActor(h.DB, c)
	if err != nil {
		return respondError(c, err)
	}

	proposalID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return respondError(c, workflow.NewValidationError("id", "Identificador inválido"))
	}

	var p models.Proposal
	if err := h.DB.First(&p, "id = ?", proposalID).Error; err != nil {
		return respondError(c, &workflow.NotFoundError{Resource: "Proposta"})
	}

	if err := workflow.CanDeleteProposal(actor, p); err != nil {
		return respondError(c, err)
	}

	if err := h.DB.Delete(&p).Error; err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"success": true, "message": "Proposta excluída"})
}
