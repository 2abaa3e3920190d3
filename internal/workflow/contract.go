package workflow

import (
	"time"

	"github.com/ThalesYuji/tcc-2025-sub000/internal/models"
)

// NewContract is the single contract constructor for both hire paths. With a
// proposal the value comes from the bid; without one (direct hire on a
// private job) it comes from the job budget.
func NewContract(job models.Job, proposal *models.Proposal, now time.Time) models.Contract {
	c := models.Contract{
		JobID:     job.ID,
		ClientID:  job.ClientID,
		Value:     job.Budget,
		StartDate: now,
		Status:    models.ContractStatusActive,
	}
	if proposal != nil {
		c.ProposalID = &proposal.ID
		c.FreelancerID = proposal.FreelancerID
		c.Value = proposal.Amount
		d := proposal.DeliveryDate
		c.EndDate = &d
	} else if job.TargetFreelancerID != nil {
		c.FreelancerID = *job.TargetFreelancerID
	}
	return c
}

// ValidateDirectHire guards the admin-only contract path for private jobs.
func ValidateDirectHire(actor models.User, job models.Job, activeContracts int) error {
	if !isAdmin(actor) {
		return &PermissionError{Message: "Apenas administradores podem criar contratos diretos"}
	}
	if !job.IsPrivate() {
		return NewValidationError("job_id", "Contratação direta só é permitida em trabalhos privados")
	}
	if job.Status != models.JobStatusOpen {
		return NewValidationError("job_id", "O trabalho precisa estar aberto para contratação direta")
	}
	if activeContracts > 0 {
		return &ConflictError{Message: "Este trabalho já possui um contrato ativo"}
	}
	return nil
}

// StatusChange is the outcome of a contract status transition: the new
// contract status, the job status repair (nil when the job is untouched) and
// the notifications to send after commit.
type StatusChange struct {
	ContractStatus models.ContractStatus
	JobStatus      *models.JobStatus
	Notices        []Notice
}

// ChangeContractStatus decides a contract status edit. Completion is never
// reachable here except by admin override: the regular path to completed is
// payment approval. otherActive counts active contracts on the same job
// excluding this one.
func ChangeContractStatus(actor models.User, contract models.Contract, to models.ContractStatus, otherActive int) (StatusChange, error) {
	party := actor.ID == contract.ClientID || actor.ID == contract.FreelancerID
	if !party && !isAdmin(actor) {
		return StatusChange{}, &PermissionError{Message: "Você não participa deste contrato"}
	}
	if to == models.ContractStatusCompleted && !isAdmin(actor) {
		return StatusChange{}, &ForbiddenTransitionError{From: string(contract.Status), To: string(to)}
	}
	if to == models.ContractStatusActive && !isAdmin(actor) {
		// Reactivation is operator-initiated.
		return StatusChange{}, &PermissionError{Message: "Apenas administradores podem reativar contratos"}
	}
	if !ContractCanTransition(contract.Status, to) {
		return StatusChange{}, &ForbiddenTransitionError{From: string(contract.Status), To: string(to)}
	}
	if to == models.ContractStatusActive && otherActive > 0 {
		return StatusChange{}, &ConflictError{Message: "Este trabalho já possui um contrato ativo"}
	}

	res := StatusChange{ContractStatus: to}
	switch to {
	case models.ContractStatusCancelled:
		js := models.JobStatusOpen
		if otherActive > 0 {
			js = models.JobStatusCancelled
		}
		res.JobStatus = &js
		res.Notices = notifyParties(contract, "O contrato foi cancelado")
	case models.ContractStatusActive:
		js := models.JobStatusInProgress
		res.JobStatus = &js
		res.Notices = notifyParties(contract, "O contrato foi reativado")
	case models.ContractStatusCompleted:
		js := models.JobStatusCompleted
		res.JobStatus = &js
		res.Notices = notifyParties(contract, "O contrato foi concluído por um administrador")
	}
	return res, nil
}

func notifyParties(contract models.Contract, msg string) []Notice {
	link := "/contracts/" + contract.ID.String()
	return []Notice{
		{UserID: contract.ClientID, Message: msg, Link: link},
		{UserID: contract.FreelancerID, Message: msg, Link: link},
	}
}
