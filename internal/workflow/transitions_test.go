package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ThalesYuji/tcc-2025-sub000/internal/models"
)

func TestJobTransitions(t *testing.T) {
	assert.True(t, JobCanTransition(models.JobStatusOpen, models.JobStatusInProgress))
	assert.True(t, JobCanTransition(models.JobStatusInProgress, models.JobStatusOpen))
	assert.True(t, JobCanTransition(models.JobStatusInProgress, models.JobStatusCompleted))
	assert.True(t, JobCanTransition(models.JobStatusCancelled, models.JobStatusOpen))

	assert.False(t, JobCanTransition(models.JobStatusOpen, models.JobStatusCompleted))
	assert.False(t, JobCanTransition(models.JobStatusCompleted, models.JobStatusOpen))
	assert.False(t, JobCanTransition(models.JobStatusOpen, models.JobStatusOpen))
}

func TestProposalTransitions(t *testing.T) {
	assert.True(t, ProposalCanTransition(models.ProposalStatusPending, models.ProposalStatusAccepted))
	assert.True(t, ProposalCanTransition(models.ProposalStatusPending, models.ProposalStatusRejected))

	assert.False(t, ProposalCanTransition(models.ProposalStatusAccepted, models.ProposalStatusRejected))
	assert.False(t, ProposalCanTransition(models.ProposalStatusRejected, models.ProposalStatusPending))
}

func TestContractTransitions(t *testing.T) {
	assert.True(t, ContractCanTransition(models.ContractStatusActive, models.ContractStatusCompleted))
	assert.True(t, ContractCanTransition(models.ContractStatusActive, models.ContractStatusCancelled))
	assert.True(t, ContractCanTransition(models.ContractStatusCancelled, models.ContractStatusActive))

	assert.False(t, ContractCanTransition(models.ContractStatusCompleted, models.ContractStatusActive))
	assert.False(t, ContractCanTransition(models.ContractStatusCancelled, models.ContractStatusCompleted))
}

func TestPaymentTransitions(t *testing.T) {
	assert.True(t, PaymentCanTransition(models.PaymentStatusPending, models.PaymentStatusApproved))
	assert.True(t, PaymentCanTransition(models.PaymentStatusProcessing, models.PaymentStatusPending))
	assert.True(t, PaymentCanTransition(models.PaymentStatusRejected, models.PaymentStatusApproved))
	assert.True(t, PaymentCanTransition(models.PaymentStatusApproved, models.PaymentStatusRefunded))

	assert.False(t, PaymentCanTransition(models.PaymentStatusApproved, models.PaymentStatusPending))
	assert.False(t, PaymentCanTransition(models.PaymentStatusApproved, models.PaymentStatusRejected))
	assert.False(t, PaymentCanTransition(models.PaymentStatusRefunded, models.PaymentStatusApproved))
}
