package handlers

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ThalesYuji/tcc-2025-sub000/internal/models"
	"github.com/ThalesYuji/tcc-2025-sub000/internal/workflow"
)

// respondError maps the workflow error taxonomy onto HTTP statuses with the
// usual response envelope.
func respondError(c *fiber.Ctx, err error) error {
	var ve *workflow.ValidationError
	if errors.As(err, &ve) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Erro de validação",
			"errors":  ve.Fields,
		})
	}

	var pe *workflow.PermissionError
	if errors.As(err, &pe) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"success": false, "message": pe.Message})
	}

	var fe *workflow.ForbiddenTransitionError
	if errors.As(err, &fe) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"success": false, "message": fe.Error()})
	}

	var ce *workflow.ConflictError
	if errors.As(err, &ce) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"success": false, "message": ce.Message})
	}

	var ne *workflow.NotFoundError
	if errors.As(err, &ne) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "message": ne.Error()})
	}

	var ge *workflow.GatewayUnavailableError
	if errors.As(err, &ge) {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"success": false,
			"message": "Gateway de pagamento indisponível. Tente novamente em instantes",
		})
	}

	if fiberErr, ok := err.(*fiber.Error); ok {
		return c.Status(fiberErr.Code).JSON(fiber.Map{"success": false, "message": fiberErr.Message})
	}

	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"success": false,
		"message": "Erro interno do servidor",
	})
}

func getUserUUID(c *fiber.Ctx) (uuid.UUID, error) {
	v := c.Locals("userId")
	if v == nil {
		return uuid.Nil, fmt.Errorf("unauthorized")
	}

	switch t := v.(type) {
	case uuid.UUID:
		return t, nil
	case string:
		return uuid.Parse(t)
	case []byte:
		return uuid.ParseBytes(t)
	default:
		return uuid.Nil, fmt.Errorf("invalid userId type: %T", v)
	}
}

// loadActor resolves the authenticated user from locals.
func loadActor(db *gorm.DB, c *fiber.Ctx) (models.User, error) {
	uid, err := getUserUUID(c)
	if err != nil {
		return models.User{}, fiber.ErrUnauthorized
	}
	var u models.User
	if err := db.First(&u, "id = ?", uid).Error; err != nil {
		return models.User{}, fiber.ErrUnauthorized
	}
	if !u.IsActive {
		return models.User{}, fiber.NewError(fiber.StatusForbidden, "Conta inativa")
	}
	return u, nil
}
