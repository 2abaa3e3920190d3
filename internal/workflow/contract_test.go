package workflow

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ThalesYuji/tcc-2025-sub000/internal/models"
)

func TestNewContract(t *testing.T) {
	now := time.Now()
	owner := client()
	fl := freelancer()
	job := openJob(owner)

	t.Run("from proposal", func(t *testing.T) {
		p := models.Proposal{
			ID:           uuid.New(),
			JobID:        job.ID,
			FreelancerID: fl.ID,
			Amount:       999.90,
			DeliveryDate: now.Add(72 * time.Hour),
		}
		c := NewContract(job, &p, now)
		assert.Equal(t, p.Amount, c.Value)
		assert.Equal(t, fl.ID, c.FreelancerID)
		assert.Equal(t, owner.ID, c.ClientID)
		require.NotNil(t, c.EndDate)
		assert.Equal(t, p.DeliveryDate, *c.EndDate)
		assert.Equal(t, models.ContractStatusActive, c.Status)
	})

	t.Run("direct hire takes job budget", func(t *testing.T) {
		target := uuid.New()
		private := job
		private.TargetFreelancerID = &target
		c := NewContract(private, nil, now)
		assert.Equal(t, private.Budget, c.Value)
		assert.Equal(t, target, c.FreelancerID)
		assert.Nil(t, c.ProposalID)
	})
}

func TestValidateDirectHire(t *testing.T) {
	owner := client()
	target := uuid.New()
	private := openJob(owner)
	private.TargetFreelancerID = &target

	require.NoError(t, ValidateDirectHire(admin(), private, 0))

	var perm *PermissionError
	require.ErrorAs(t, ValidateDirectHire(owner, private, 0), &perm)

	public := openJob(owner)
	var v *ValidationError
	require.ErrorAs(t, ValidateDirectHire(admin(), public, 0), &v)

	closed := private
	closed.Status = models.JobStatusInProgress
	require.ErrorAs(t, ValidateDirectHire(admin(), closed, 0), &v)

	var conflict *ConflictError
	require.ErrorAs(t, ValidateDirectHire(admin(), private, 1), &conflict)
}

func TestChangeContractStatus(t *testing.T) {
	owner := client()
	fl := freelancer()
	contract := models.Contract{
		ID:           uuid.New(),
		JobID:        uuid.New(),
		ClientID:     owner.ID,
		FreelancerID: fl.ID,
		Status:       models.ContractStatusActive,
	}

	t.Run("stranger refused", func(t *testing.T) {
		_, err := ChangeContractStatus(client(), contract, models.ContractStatusCancelled, 0)
		var perm *PermissionError
		require.ErrorAs(t, err, &perm)
	})

	t.Run("party cancels, job reopens", func(t *testing.T) {
		res, err := ChangeContractStatus(fl, contract, models.ContractStatusCancelled, 0)
		require.NoError(t, err)
		assert.Equal(t, models.ContractStatusCancelled, res.ContractStatus)
		require.NotNil(t, res.JobStatus)
		assert.Equal(t, models.JobStatusOpen, *res.JobStatus)
		assert.Len(t, res.Notices, 2)
	})

	t.Run("cancel with another active contract keeps job cancelled", func(t *testing.T) {
		res, err := ChangeContractStatus(owner, contract, models.ContractStatusCancelled, 1)
		require.NoError(t, err)
		require.NotNil(t, res.JobStatus)
		assert.Equal(t, models.JobStatusCancelled, *res.JobStatus)
	})

	t.Run("party cannot complete", func(t *testing.T) {
		_, err := ChangeContractStatus(owner, contract, models.ContractStatusCompleted, 0)
		var forbidden *ForbiddenTransitionError
		require.ErrorAs(t, err, &forbidden)
	})

	t.Run("admin completes", func(t *testing.T) {
		res, err := ChangeContractStatus(admin(), contract, models.ContractStatusCompleted, 0)
		require.NoError(t, err)
		require.NotNil(t, res.JobStatus)
		assert.Equal(t, models.JobStatusCompleted, *res.JobStatus)
	})

	t.Run("only admin reactivates", func(t *testing.T) {
		cancelled := contract
		cancelled.Status = models.ContractStatusCancelled

		_, err := ChangeContractStatus(owner, cancelled, models.ContractStatusActive, 0)
		var perm *PermissionError
		require.ErrorAs(t, err, &perm)

		res, err := ChangeContractStatus(admin(), cancelled, models.ContractStatusActive, 0)
		require.NoError(t, err)
		require.NotNil(t, res.JobStatus)
		assert.Equal(t, models.JobStatusInProgress, *res.JobStatus)
	})

	t.Run("reactivation blocked while another contract is active", func(t *testing.T) {
		cancelled := contract
		cancelled.Status = models.ContractStatusCancelled
		_, err := ChangeContractStatus(admin(), cancelled, models.ContractStatusActive, 1)
		var conflict *ConflictError
		require.ErrorAs(t, err, &conflict)
	})

	t.Run("completed is terminal", func(t *testing.T) {
		done := contract
		done.Status = models.ContractStatusCompleted
		_, err := ChangeContractStatus(admin(), done, models.ContractStatusCancelled, 0)
		var forbidden *ForbiddenTransitionError
		require.ErrorAs(t, err, &forbidden)
	})
}
