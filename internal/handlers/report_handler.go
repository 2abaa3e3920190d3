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

type ReportHandler struct {
	DB     *gorm.DB
	Notify *notify.Service
}

func NewReportHandler(db *gorm.DB, notifier *notify.Service) *ReportHandler {
	return &ReportHandler{DB: db, Notify: notifier}
}

type CreateReportRequest struct {
	ReportedID string `json:"reported_id"`
	JobID      string `json:"job_id"`
	Reason     string `json:"reason"`
}

func (h *ReportHandler) Create(c *fiber.Ctx) error {
	actor, err := loadActor(h.DB, c)
	if err != nil {
		return respondError(c, err)
	}

	var req CreateReportRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "invalid body"})
	}

	errs := workflow.FieldErrors{}
	reportedID, err := uuid.Parse(req.ReportedID)
	if err != nil {
		errs.Add("reported_id", "Identificador inválido")
	}
	reason := strings.TrimSpace(req.Reason)
	if len(reason) < 10 {
		errs.Add("reason", "Descreva o motivo da denúncia (mínimo 10 caracteres)")
	}
	if len(errs) > 0 {
		return respondError(c, &workflow.ValidationError{Fields: errs})
	}
	if reportedID == actor.ID {
		return respondError(c, workflow.NewValidationError("reported_id", "Você não pode denunciar a si mesmo"))
	}

	var reported models.User
	if err := h.DB.First(&reported, "id = ?", reportedID).Error; err != nil {
		return respondError(c, &workflow.NotFoundError{Resource: "Usuário"})
	}

	report := models.Report{
		ReporterID: actor.ID,
		ReportedID: reported.ID,
		Reason:     reason,
		Status:     models.ReportStatusOpen,
	}
	if req.JobID != "" {
		jobID, err := uuid.Parse(req.JobID)
		if err != nil {
			return respondError(c, workflow.NewValidationError("job_id", "Identificador inválido"))
		}
		report.JobID = &jobID
	}

	if err := h.DB.Create(&report).Error; err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": report})
}

// List is admin-only; regular users only see reports they filed.
func (h *ReportHandler) List(c *fiber.Ctx) error {
	actor, err := loadActor(h.DB, c)
	if err != nil {
		return respondError(c, err)
	}

	q := h.DB.Preload("Reporter").Preload("Reported").Order("created_at DESC")
	if actor.Role != models.RoleAdmin {
		q = q.Where("reporter_id = ?", actor.ID)
	}
	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", status)
	}

	var reports []models.Report
	if err := q.Find(&reports).Error; err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"success": true, "data": reports})
}

type ResolveReportRequest struct {
	Resolution string `json:"resolution"`
}

func (h *ReportHandler) Resolve(c *fiber.Ctx) error {
	reportID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return respondError(c, workflow.NewValidationError("id", "Identificador inválido"))
	}

	var req ResolveReportRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "invalid body"})
	}
	resolution := strings.TrimSpace(req.Resolution)
	if resolution == "" {
		return respondError(c, workflow.NewValidationError("resolution", "Informe a resolução da denúncia"))
	}

	var report models.Report
	if err := h.DB.First(&report, "id = ?", reportID).Error; err != nil {
		return respondError(c, &workflow.NotFoundError{Resource: "Denúncia"})
	}
	if report.Status == models.ReportStatusResolved {
		return respondError(c, &workflow.ConflictError{Message: "Esta denúncia já foi resolvida"})
	}

	if err := h.DB.Model(&report).Updates(map[string]interface{}{
		"status":     models.ReportStatusResolved,
		"resolution": resolution,
	}).Error; err != nil {
		return respondError(c, err)
	}

	h.Notify.Send(report.ReporterID, "Sua denúncia foi analisada", "/reports/"+report.ID.String())

	return c.JSON(fiber.Map{"success": true, "message": "Denúncia resolvida"})
}
