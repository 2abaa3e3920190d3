package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ThalesYuji/tcc-2025-sub000/internal/models"
	"github.com/ThalesYuji/tcc-2025-sub000/internal/services/mercadopago"
	"github.com/ThalesYuji/tcc-2025-sub000/internal/services/notify"
	"github.com/ThalesYuji/tcc-2025-sub000/internal/workflow"
)

type PaymentHandler struct {
	DB     *gorm.DB
	MP     *mercadopago.Service
	Notify *notify.Service
}

func NewPaymentHandler(db *gorm.DB, mp *mercadopago.Service, notifier *notify.Service) *PaymentHandler {
	return &PaymentHandler{DB: db, MP: mp, Notify: notifier}
}

type CheckoutRequest struct {
	ContractID string `json:"contract_id"`
}

// CreateCheckout opens a hosted checkout for a contract and records the
// pending payment. The gateway is contacted before the row is written, so a
// gateway outage leaves nothing behind to conflict with a retry.
func (h *PaymentHandler) CreateCheckout(c *fiber.Ctx) error {
	actor, err := loadActor(h.DB, c)
	if err != nil {
		return respondError(c, err)
	}

	var req CheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "invalid body"})
	}
	contractID, err := uuid.Parse(req.ContractID)
	if err != nil {
		return respondError(c, workflow.NewValidationError("contract_id", "Identificador inválido"))
	}

	var contract models.Contract
	if err := h.DB.Preload("Job").First(&contract, "id = ?", contractID).Error; err != nil {
		return respondError(c, &workflow.NotFoundError{Resource: "Contrato"})
	}
	var existing models.Payment
	var existingPtr *models.Payment
	if err := h.DB.First(&existing, "contract_id = ?", contract.ID).Error; err == nil {
		existingPtr = &existing
	}
	if err := workflow.ValidateCheckout(actor, contract, existingPtr); err != nil {
		return respondError(c, err)
	}

	title := "Pagamento de contrato"
	if contract.Job != nil {
		title = contract.Job.Title
	}
	checkout, err := h.MP.CreateCheckout(c.Context(), mercadopago.CheckoutRequest{
		Title:             title,
		Quantity:          1,
		UnitPrice:         contract.Value,
		ExternalReference: contract.ID.String(),
	})
	if err != nil {
		return respondError(c, err)
	}

	txErr := h.DB.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Payment{}).Where("contract_id = ?", contract.ID).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return &workflow.ConflictError{Message: "Já existe um pagamento para este contrato"}
		}
		p := models.Payment{
			ContractID: contract.ID,
			PayerID:    actor.ID,
			Amount:     contract.Value,
			Status:     models.PaymentStatusPending,
			Notes:      "checkout " + checkout.CheckoutID,
		}
		// Concurrent checkouts race past the count; the unique index on
		// contract_id decides the loser.
		return translateDuplicatePayment(tx.Create(&p).Error)
	})
	if txErr != nil {
		return respondError(c, txErr)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"checkout_id":  checkout.CheckoutID,
			"redirect_url": checkout.RedirectURL,
		},
	})
}

// extractWebhookTransactionID pulls the gateway transaction id out of either
// notification shape Mercado Pago sends:
//
//	{"type":"payment","data":{"id":"123"}}
//	{"topic":"payment","resource":"https://.../v1/payments/123"}
//
// Returns an error only for malformed JSON; an unrecognized but well-formed
// payload yields ok=false.
func extractWebhookTransactionID(body []byte) (id string, ok bool, err error) {
	var payload struct {
		Type string `json:"type"`
		Data struct {
			ID json.RawMessage `json:"id"`
		} `json:"data"`
		Topic    string `json:"topic"`
		Resource string `json:"resource"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", false, err
	}

	if payload.Type == "payment" && len(payload.Data.ID) > 0 {
		raw := strings.Trim(string(payload.Data.ID), `"`)
		if raw != "" && raw != "null" {
			return raw, true, nil
		}
	}
	if payload.Topic == "payment" && payload.Resource != "" {
		parts := strings.Split(strings.TrimRight(payload.Resource, "/"), "/")
		last := parts[len(parts)-1]
		if last != "" {
			return last, true, nil
		}
	}
	return "", false, nil
}

// Webhook receives gateway notifications. The gateway retries on non-2xx, so
// everything past JSON parsing answers 200: reconciliation failures are
// logged and picked up later by the polling worker.
func (h *PaymentHandler) Webhook(c *fiber.Ctx) error {
	id, ok, err := extractWebhookTransactionID(c.Body())
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "invalid payload"})
	}
	if !ok {
		// Not a payment event; acknowledge and move on.
		return c.SendStatus(fiber.StatusOK)
	}

	gtx, err := h.MP.GetTransaction(c.Context(), id)
	if err != nil {
		log.Printf("Webhook: failed to fetch transaction %s: %v", id, err)
		return c.SendStatus(fiber.StatusOK)
	}
	if gtx == nil {
		log.Printf("Webhook: gateway does not know transaction %s", id)
		return c.SendStatus(fiber.StatusOK)
	}

	if err := h.reconcile(gtx); err != nil {
		log.Printf("Webhook: reconciliation of transaction %s failed: %v", id, err)
	}
	return c.SendStatus(fiber.StatusOK)
}

// reconcile applies one gateway snapshot to local state. The gateway has
// already been consulted; no network happens inside the transaction.
func (h *PaymentHandler) reconcile(gtx *workflow.GatewayTransaction) error {
	contractID, err := uuid.Parse(gtx.ExternalReference)
	if err != nil {
		return fmt.Errorf("unparseable external reference %q", gtx.ExternalReference)
	}

	snapshot, _ := json.Marshal(gtx)

	var result workflow.ReconcileResult
	txErr := h.DB.Transaction(func(tx *gorm.DB) error {
		var contract models.Contract
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&contract, "id = ?", contractID).Error; err != nil {
			return &workflow.NotFoundError{Resource: "Contrato"}
		}

		var stored models.Payment
		var storedPtr *models.Payment
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&stored, "contract_id = ?", contract.ID).Error
		if err == nil {
			storedPtr = &stored
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		res, err := workflow.ReconcilePayment(storedPtr, contract, *gtx)
		if err != nil {
			return err
		}

		// Only a real status change persists the snapshot; replays and stale
		// gateway data leave the row (and its payload) alone.
		switch {
		case res.Create:
			res.Payment.GatewayPayload = datatypes.JSON(snapshot)
			if err := tx.Create(&res.Payment).Error; err != nil {
				return err
			}
		case res.Changed:
			res.Payment.GatewayPayload = datatypes.JSON(snapshot)
			if err := tx.Save(&res.Payment).Error; err != nil {
				return err
			}
		case paymentNeedsExternalID(storedPtr, res.Payment):
			if err := tx.Model(&res.Payment).Update("external_id", res.Payment.ExternalID).Error; err != nil {
				return err
			}
		}

		if res.CompleteContract {
			now := time.Now()
			if err := tx.Model(&contract).Updates(map[string]interface{}{
				"status":        models.ContractStatusCompleted,
				"delivery_date": &now,
			}).Error; err != nil {
				return err
			}
			if err := tx.Model(&models.Job{}).Where("id = ?", contract.JobID).
				Update("status", models.JobStatusCompleted).Error; err != nil {
				return err
			}
		}

		result = res
		return nil
	})
	if txErr != nil {
		return txErr
	}

	if result.Changed {
		h.Notify.Dispatch(result.Notices)
	}
	return nil
}

// paymentNeedsExternalID reports whether an otherwise no-op reconciliation
// still has to record the gateway transaction id it just learned.
func paymentNeedsExternalID(stored *models.Payment, reconciled models.Payment) bool {
	return stored != nil && stored.ExternalID == nil && reconciled.ExternalID != nil
}

// translateDuplicatePayment maps the contract_id unique-index violation onto
// the conflict error the validation path already produces.
func translateDuplicatePayment(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return &workflow.ConflictError{Message: "Já existe um pagamento para este contrato"}
	}
	return err
}

func (h *PaymentHandler) List(c *fiber.Ctx) error {
	actor, err := loadActor(h.DB, c)
	if err != nil {
		return respondError(c, err)
	}

	q := h.DB.Preload("Contract").Order("created_at DESC")
	if actor.Role != models.RoleAdmin {
		q = q.Where("payer_id = ?", actor.ID)
	}

	var payments []models.Payment
	if err := q.Find(&payments).Error; err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"success": true, "data": payments})
}

func (h *PaymentHandler) Get(c *fiber.Ctx) error {
	actor, err := loadActor(h.DB, c)
	if err != nil {
		return respondError(c, err)
	}

	paymentID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return respondError(c, workflow.NewValidationError("id", "Identificador inválido"))
	}

	var p models.Payment
	if err := h.DB.Preload("Contract").First(&p, "id = ?", paymentID).Error; err != nil {
		return respondError(c, &workflow.NotFoundError{Resource: "Pagamento"})
	}

	party := p.PayerID == actor.ID
	if p.Contract != nil && p.Contract.FreelancerID == actor.ID {
		party = true
	}
	if !party && actor.Role != models.RoleAdmin {
		return respondError(c, &workflow.PermissionError{Message: "Você não tem acesso a este pagamento"})
	}

	return c.JSON(fiber.Map{"success": true, "data": p})
}

// ManualApprove forces a payment to approved without consulting the gateway.
// Used when support confirms a charge out of band.
func (h *PaymentHandler) ManualApprove(c *fiber.Ctx) error {
	actor, err := loadActor(h.DB, c)
	if err != nil {
		return respondError(c, err)
	}

	paymentID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return respondError(c, workflow.NewValidationError("id", "Identificador inválido"))
	}

	var result workflow.ReconcileResult
	txErr := h.DB.Transaction(func(tx *gorm.DB) error {
		var p models.Payment
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&p, "id = ?", paymentID).Error; err != nil {
			return &workflow.NotFoundError{Resource: "Pagamento"}
		}
		var contract models.Contract
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&contract, "id = ?", p.ContractID).Error; err != nil {
			return &workflow.NotFoundError{Resource: "Contrato"}
		}

		res, err := workflow.OverridePaymentApproval(actor, p, contract)
		if err != nil {
			return err
		}
		if !res.Changed {
			result = res
			return nil
		}

		res.Payment.Notes = strings.TrimSpace(res.Payment.Notes + "\naprovado manualmente por " + actor.Email)
		if err := tx.Save(&res.Payment).Error; err != nil {
			return err
		}
		if res.CompleteContract {
			now := time.Now()
			if err := tx.Model(&contract).Updates(map[string]interface{}{
				"status":        models.ContractStatusCompleted,
				"delivery_date": &now,
			}).Error; err != nil {
				return err
			}
			if err := tx.Model(&models.Job{}).Where("id = ?", contract.JobID).
				Update("status", models.JobStatusCompleted).Error; err != nil {
				return err
			}
		}

		result = res
		return nil
	})
	if txErr != nil {
		return respondError(c, txErr)
	}

	if result.Changed {
		h.Notify.Dispatch(result.Notices)
	}

	return c.JSON(fiber.Map{"success": true, "message": "Pagamento aprovado"})
}

// StartReconciliationWorker polls the gateway for payments stuck in a
// non-terminal status, covering webhooks that were lost or arrived while we
// were down.
func (h *PaymentHandler) StartReconciliationWorker(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for range ticker.C {
			h.reconcilePendingOnce()
		}
	}()
}

func (h *PaymentHandler) reconcilePendingOnce() {
	var payments []models.Payment
	if err := h.DB.
		Where("status IN ?", []models.PaymentStatus{models.PaymentStatusPending, models.PaymentStatusProcessing}).
		Find(&payments).Error; err != nil {
		log.Printf("Reconciliation worker: query failed: %v", err)
		return
	}

	for _, p := range payments {
		gtx, err := h.fetchGatewayState(p)
		if err != nil {
			log.Printf("Reconciliation worker: fetch for payment %s failed: %v", p.ID, err)
			continue
		}
		if gtx == nil {
			continue
		}
		if err := h.reconcile(gtx); err != nil {
			log.Printf("Reconciliation worker: payment %s failed: %v", p.ID, err)
		}
	}
}

func (h *PaymentHandler) fetchGatewayState(p models.Payment) (*workflow.GatewayTransaction, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if p.ExternalID != nil {
		return h.MP.GetTransaction(ctx, *p.ExternalID)
	}
	return h.MP.FindByReference(ctx, p.ContractID.String())
}
