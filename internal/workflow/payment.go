package workflow

import (
	"time"

	"github.com/ThalesYuji/tcc-2025-sub000/internal/models"
)

// GatewayTransaction is the gateway's view of a payment, fetched before the
// local transaction opens.
type GatewayTransaction struct {
	ID                string
	Status            string
	Amount            float64
	ExternalReference string
	ApprovedAt        *time.Time
}

// MapGatewayStatus translates the gateway vocabulary to ours. The second
// return is false for statuses we do not recognize.
func MapGatewayStatus(s string) (models.PaymentStatus, bool) {
	switch s {
	case "pending":
		return models.PaymentStatusPending, true
	case "in_process":
		return models.PaymentStatusProcessing, true
	case "approved":
		return models.PaymentStatusApproved, true
	case "rejected", "cancelled":
		return models.PaymentStatusRejected, true
	case "refunded", "charged_back":
		return models.PaymentStatusRefunded, true
	}
	return "", false
}

// ValidateCheckout guards checkout creation: only the contract's client may
// pay, the contract must be active, and at most one payment exists per
// contract.
func ValidateCheckout(actor models.User, contract models.Contract, existing *models.Payment) error {
	if contract.ClientID != actor.ID {
		return &PermissionError{Message: "Apenas o cliente do contrato pode pagar"}
	}
	if contract.Status != models.ContractStatusActive {
		return NewValidationError("contract_id", "Pagamentos só podem ser criados para contratos ativos")
	}
	if existing != nil {
		return &ConflictError{Message: "Já existe um pagamento para este contrato"}
	}
	return nil
}

// ReconcileResult is everything a reconciliation must persist plus the side
// effects to run after commit. Side effects fire once per status-value
// transition: repeated gateway data with an unchanged status yields
// Changed=false and no notices.
type ReconcileResult struct {
	Create           bool
	Payment          models.Payment
	Changed          bool
	CompleteContract bool
	Notices          []Notice
}

// ReconcilePayment compares the stored record (nil when the transaction is
// unseen locally) with the gateway truth and decides what to mutate.
func ReconcilePayment(existing *models.Payment, contract models.Contract, tx GatewayTransaction) (ReconcileResult, error) {
	mapped, ok := MapGatewayStatus(tx.Status)
	if !ok {
		return ReconcileResult{}, NewValidationError("status", "Status de transação desconhecido: "+tx.Status)
	}

	if existing == nil {
		if contract.Status == models.ContractStatusCompleted || contract.Status == models.ContractStatusCancelled {
			return ReconcileResult{}, &ForbiddenTransitionError{From: string(contract.Status), To: "payment"}
		}
		externalID := tx.ID
		res := ReconcileResult{
			Create:  true,
			Changed: true,
			Payment: models.Payment{
				ContractID: contract.ID,
				PayerID:    contract.ClientID,
				Amount:     tx.Amount,
				Status:     mapped,
				ExternalID: &externalID,
			},
		}
		applySideEffects(&res, contract, mapped)
		return res, nil
	}

	p := *existing
	if p.ExternalID == nil {
		externalID := tx.ID
		p.ExternalID = &externalID
	}
	if mapped == p.Status {
		return ReconcileResult{Payment: p}, nil
	}
	if !PaymentCanTransition(p.Status, mapped) {
		// Stale or out-of-order gateway data; keep what we have.
		return ReconcileResult{Payment: p}, nil
	}

	p.Status = mapped
	res := ReconcileResult{Payment: p, Changed: true}
	applySideEffects(&res, contract, mapped)
	return res, nil
}

// OverridePaymentApproval forces a payment to approved regardless of gateway
// state. Operator-only; the prior-status guard keeps the completion side
// effect from running twice.
func OverridePaymentApproval(actor models.User, payment models.Payment, contract models.Contract) (ReconcileResult, error) {
	if !isAdmin(actor) {
		return ReconcileResult{}, &PermissionError{Message: "Apenas administradores podem aprovar pagamentos manualmente"}
	}
	if payment.Status == models.PaymentStatusApproved {
		return ReconcileResult{Payment: payment}, nil
	}
	payment.Status = models.PaymentStatusApproved
	res := ReconcileResult{Payment: payment, Changed: true}
	applySideEffects(&res, contract, models.PaymentStatusApproved)
	return res, nil
}

func applySideEffects(res *ReconcileResult, contract models.Contract, status models.PaymentStatus) {
	link := "/contracts/" + contract.ID.String()
	switch status {
	case models.PaymentStatusApproved:
		if contract.Status == models.ContractStatusActive {
			res.CompleteContract = true
			res.Notices = append(res.Notices,
				Notice{UserID: contract.ClientID, Message: "Pagamento aprovado. O contrato foi concluído", Link: link},
				Notice{UserID: contract.FreelancerID, Message: "Pagamento aprovado. O contrato foi concluído", Link: link},
			)
		}
	case models.PaymentStatusRejected:
		res.Notices = append(res.Notices, Notice{
			UserID:  contract.ClientID,
			Message: "Seu pagamento foi recusado. Tente novamente",
			Link:    link + "/payment",
		})
	}
}
