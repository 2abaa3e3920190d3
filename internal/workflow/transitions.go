package workflow

import (
	"github.com/google/uuid"

	"github.com/ThalesYuji/tcc-2025-sub000/internal/models"
)

// Notice is a notification command produced by a transition. Handlers send
// them after the surrounding DB transaction commits.
type Notice struct {
	UserID  uuid.UUID
	Message string
	Link    string
}

// Legal status transitions per entity. Anything not listed is rejected with
// ForbiddenTransitionError before any mutation happens.
var jobTransitions = map[models.JobStatus][]models.JobStatus{
	models.JobStatusOpen:       {models.JobStatusInProgress, models.JobStatusCancelled},
	models.JobStatusInProgress: {models.JobStatusOpen, models.JobStatusCompleted, models.JobStatusCancelled},
	models.JobStatusCancelled:  {models.JobStatusOpen, models.JobStatusInProgress},
	models.JobStatusCompleted:  {},
}

var proposalTransitions = map[models.ProposalStatus][]models.ProposalStatus{
	models.ProposalStatusPending:  {models.ProposalStatusAccepted, models.ProposalStatusRejected},
	models.ProposalStatusAccepted: {},
	models.ProposalStatusRejected: {},
}

var contractTransitions = map[models.ContractStatus][]models.ContractStatus{
	models.ContractStatusActive:    {models.ContractStatusCompleted, models.ContractStatusCancelled},
	models.ContractStatusCancelled: {models.ContractStatusActive},
	models.ContractStatusCompleted: {},
}

// Approved only moves to refunded; refunded is terminal. A gateway that
// reports an earlier status for an approved payment is ignored.
var paymentTransitions = map[models.PaymentStatus][]models.PaymentStatus{
	models.PaymentStatusPending:    {models.PaymentStatusProcessing, models.PaymentStatusApproved, models.PaymentStatusRejected, models.PaymentStatusRefunded},
	models.PaymentStatusProcessing: {models.PaymentStatusPending, models.PaymentStatusApproved, models.PaymentStatusRejected, models.PaymentStatusRefunded},
	models.PaymentStatusRejected:   {models.PaymentStatusPending, models.PaymentStatusProcessing, models.PaymentStatusApproved},
	models.PaymentStatusApproved:   {models.PaymentStatusRefunded},
	models.PaymentStatusRefunded:   {},
}

func contains[T comparable](list []T, v T) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func JobCanTransition(from, to models.JobStatus) bool {
	return contains(jobTransitions[from], to)
}

func ProposalCanTransition(from, to models.ProposalStatus) bool {
	return contains(proposalTransitions[from], to)
}

func ContractCanTransition(from, to models.ContractStatus) bool {
	return contains(contractTransitions[from], to)
}

func PaymentCanTransition(from, to models.PaymentStatus) bool {
	return contains(paymentTransitions[from], to)
}

func isAdmin(u models.User) bool {
	return u.Role == models.RoleAdmin
}
