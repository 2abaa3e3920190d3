package workflow

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ThalesYuji/tcc-2025-sub000/internal/models"
)

func freelancer() models.User {
	return models.User{ID: uuid.New(), Name: "Ana", Role: models.RoleFreelancer, IsActive: true}
}

func client() models.User {
	return models.User{ID: uuid.New(), Name: "Bruno", Role: models.RoleClient, IsActive: true}
}

func admin() models.User {
	return models.User{ID: uuid.New(), Name: "Root", Role: models.RoleAdmin, IsActive: true}
}

func openJob(owner models.User) models.Job {
	return models.Job{
		ID:       uuid.New(),
		ClientID: owner.ID,
		Title:    "Landing page",
		Budget:   1500,
		Status:   models.JobStatusOpen,
	}
}

func validInput(now time.Time) SubmitInput {
	return SubmitInput{
		Description:  "Faço em 5 dias",
		Amount:       1200,
		DeliveryDate: now.Add(5 * 24 * time.Hour),
	}
}

func TestValidateSubmission(t *testing.T) {
	now := time.Now()
	owner := client()
	fl := freelancer()
	job := openJob(owner)

	t.Run("happy path", func(t *testing.T) {
		require.NoError(t, ValidateSubmission(fl, job, nil, validInput(now), now))
	})

	t.Run("client cannot submit", func(t *testing.T) {
		err := ValidateSubmission(owner, job, nil, validInput(now), now)
		var perm *PermissionError
		require.ErrorAs(t, err, &perm)
	})

	t.Run("own job refused", func(t *testing.T) {
		own := job
		own.ClientID = fl.ID
		err := ValidateSubmission(fl, own, nil, validInput(now), now)
		var v *ValidationError
		require.ErrorAs(t, err, &v)
		assert.Contains(t, v.Fields, "job_id")
	})

	t.Run("closed job refused", func(t *testing.T) {
		closed := job
		closed.Status = models.JobStatusInProgress
		err := ValidateSubmission(fl, closed, nil, validInput(now), now)
		var v *ValidationError
		require.ErrorAs(t, err, &v)
	})

	t.Run("private job blocks other freelancers", func(t *testing.T) {
		other := uuid.New()
		private := job
		private.TargetFreelancerID = &other
		err := ValidateSubmission(fl, private, nil, validInput(now), now)
		var perm *PermissionError
		require.ErrorAs(t, err, &perm)

		private.TargetFreelancerID = &fl.ID
		require.NoError(t, ValidateSubmission(fl, private, nil, validInput(now), now))
	})

	t.Run("field validation accumulates", func(t *testing.T) {
		err := ValidateSubmission(fl, job, nil, SubmitInput{DeliveryDate: now.Add(-time.Hour)}, now)
		var v *ValidationError
		require.ErrorAs(t, err, &v)
		assert.Contains(t, v.Fields, "description")
		assert.Contains(t, v.Fields, "amount")
		assert.Contains(t, v.Fields, "delivery_date")
	})

	t.Run("pending proposal conflicts", func(t *testing.T) {
		prior := []models.Proposal{{ID: uuid.New(), Status: models.ProposalStatusPending}}
		err := ValidateSubmission(fl, job, prior, validInput(now), now)
		var conflict *ConflictError
		require.ErrorAs(t, err, &conflict)
	})

	t.Run("accepted proposal conflicts", func(t *testing.T) {
		prior := []models.Proposal{{ID: uuid.New(), Status: models.ProposalStatusAccepted}}
		err := ValidateSubmission(fl, job, prior, validInput(now), now)
		var conflict *ConflictError
		require.ErrorAs(t, err, &conflict)
	})

	t.Run("three submissions cap", func(t *testing.T) {
		prior := []models.Proposal{
			{ID: uuid.New(), Status: models.ProposalStatusRejected, SequenceNumber: 1},
			{ID: uuid.New(), Status: models.ProposalStatusRejected, SequenceNumber: 2},
			{ID: uuid.New(), Status: models.ProposalStatusRejected, SequenceNumber: 3},
		}
		in := validInput(now)
		in.RevisionNote = "mudei o escopo"
		err := ValidateSubmission(fl, job, prior, in, now)
		var v *ValidationError
		require.ErrorAs(t, err, &v)
		assert.Contains(t, v.Fields, "job_id")
	})

	t.Run("revision after rejection requires note", func(t *testing.T) {
		prior := []models.Proposal{{ID: uuid.New(), Status: models.ProposalStatusRejected, SequenceNumber: 1}}
		err := ValidateSubmission(fl, job, prior, validInput(now), now)
		var v *ValidationError
		require.ErrorAs(t, err, &v)
		assert.Contains(t, v.Fields, "revision_note")

		in := validInput(now)
		in.RevisionNote = "reduzi o prazo conforme pedido"
		require.NoError(t, ValidateSubmission(fl, job, prior, in, now))
	})
}

func TestNewProposal(t *testing.T) {
	now := time.Now()
	owner := client()
	fl := freelancer()
	job := openJob(owner)

	first, notice := NewProposal(fl, job, nil, validInput(now))
	assert.Equal(t, 1, first.SequenceNumber)
	assert.Nil(t, first.RevisionOfID)
	assert.Equal(t, models.ProposalStatusPending, first.Status)
	assert.Equal(t, owner.ID, notice.UserID)

	first.ID = uuid.New()
	first.Status = models.ProposalStatusRejected
	in := validInput(now)
	in.RevisionNote = "novo prazo"
	second, _ := NewProposal(fl, job, []models.Proposal{first}, in)
	assert.Equal(t, 2, second.SequenceNumber)
	require.NotNil(t, second.RevisionOfID)
	assert.Equal(t, first.ID, *second.RevisionOfID)
}

func TestAcceptProposal(t *testing.T) {
	now := time.Now()
	owner := client()
	fl := freelancer()
	job := openJob(owner)

	pending := models.Proposal{
		ID:           uuid.New(),
		JobID:        job.ID,
		FreelancerID: fl.ID,
		Amount:       1200,
		DeliveryDate: now.Add(5 * 24 * time.Hour),
		Status:       models.ProposalStatusPending,
	}
	rival := models.Proposal{
		ID:           uuid.New(),
		JobID:        job.ID,
		FreelancerID: uuid.New(),
		Status:       models.ProposalStatusPending,
	}
	alreadyRejected := models.Proposal{
		ID:           uuid.New(),
		JobID:        job.ID,
		FreelancerID: uuid.New(),
		Status:       models.ProposalStatusRejected,
	}

	t.Run("owner accepts", func(t *testing.T) {
		res, err := AcceptProposal(owner, job, pending, []models.Proposal{pending, rival, alreadyRejected}, false, now)
		require.NoError(t, err)

		assert.Equal(t, models.JobStatusInProgress, res.JobStatus)
		assert.Equal(t, []uuid.UUID{rival.ID}, res.RejectedProposalIDs)

		assert.Equal(t, pending.Amount, res.Contract.Value)
		assert.Equal(t, fl.ID, res.Contract.FreelancerID)
		assert.Equal(t, owner.ID, res.Contract.ClientID)
		require.NotNil(t, res.Contract.ProposalID)
		assert.Equal(t, pending.ID, *res.Contract.ProposalID)
		assert.Equal(t, models.ContractStatusActive, res.Contract.Status)

		// one notice per rejected rival and one for the winner
		require.Len(t, res.Notices, 2)
		assert.Equal(t, rival.FreelancerID, res.Notices[0].UserID)
		assert.Equal(t, fl.ID, res.Notices[1].UserID)
	})

	t.Run("stranger cannot accept", func(t *testing.T) {
		_, err := AcceptProposal(freelancer(), job, pending, nil, false, now)
		var perm *PermissionError
		require.ErrorAs(t, err, &perm)
	})

	t.Run("admin may accept", func(t *testing.T) {
		_, err := AcceptProposal(admin(), job, pending, nil, false, now)
		require.NoError(t, err)
	})

	t.Run("job no longer open refused", func(t *testing.T) {
		// A direct hire moved the job to in_progress and left this proposal
		// pending; accepting it would put a second active contract on the job.
		hired := job
		hired.Status = models.JobStatusInProgress
		_, err := AcceptProposal(owner, hired, pending, nil, false, now)
		var conflict *ConflictError
		require.ErrorAs(t, err, &conflict)
	})

	t.Run("existing contract conflicts", func(t *testing.T) {
		_, err := AcceptProposal(owner, job, pending, nil, true, now)
		var conflict *ConflictError
		require.ErrorAs(t, err, &conflict)
	})

	t.Run("non-pending proposal refused", func(t *testing.T) {
		done := pending
		done.Status = models.ProposalStatusRejected
		_, err := AcceptProposal(owner, job, done, nil, false, now)
		var forbidden *ForbiddenTransitionError
		require.ErrorAs(t, err, &forbidden)
	})
}

func TestRejectProposal(t *testing.T) {
	owner := client()
	fl := freelancer()
	job := openJob(owner)
	job.Status = models.JobStatusInProgress

	pending := models.Proposal{
		ID:           uuid.New(),
		JobID:        job.ID,
		FreelancerID: fl.ID,
		Status:       models.ProposalStatusPending,
	}

	t.Run("reason required", func(t *testing.T) {
		_, err := RejectProposal(owner, job, pending, "  ", false)
		var v *ValidationError
		require.ErrorAs(t, err, &v)
		assert.Contains(t, v.Fields, "reason")
	})

	t.Run("job reverts to open when nothing accepted", func(t *testing.T) {
		res, err := RejectProposal(owner, job, pending, "fora do orçamento", false)
		require.NoError(t, err)
		assert.Equal(t, models.JobStatusOpen, res.JobStatus)
		require.Len(t, res.Notices, 1)
		assert.Equal(t, fl.ID, res.Notices[0].UserID)
	})

	t.Run("completed job stays completed", func(t *testing.T) {
		done := job
		done.Status = models.JobStatusCompleted
		res, err := RejectProposal(owner, done, pending, "proposta remanescente", false)
		require.NoError(t, err)
		assert.Equal(t, models.JobStatusCompleted, res.JobStatus)
	})

	t.Run("cancelled job stays cancelled", func(t *testing.T) {
		gone := job
		gone.Status = models.JobStatusCancelled
		res, err := RejectProposal(owner, gone, pending, "proposta remanescente", false)
		require.NoError(t, err)
		assert.Equal(t, models.JobStatusCancelled, res.JobStatus)
	})

	t.Run("job untouched while another accepted", func(t *testing.T) {
		res, err := RejectProposal(owner, job, pending, "fora do orçamento", true)
		require.NoError(t, err)
		assert.Equal(t, models.JobStatusInProgress, res.JobStatus)
	})

	t.Run("already rejected refused", func(t *testing.T) {
		done := pending
		done.Status = models.ProposalStatusRejected
		_, err := RejectProposal(owner, job, done, "de novo", false)
		var forbidden *ForbiddenTransitionError
		require.ErrorAs(t, err, &forbidden)
	})
}

func TestCanDeleteProposal(t *testing.T) {
	fl := freelancer()
	p := models.Proposal{ID: uuid.New(), FreelancerID: fl.ID, Status: models.ProposalStatusPending}

	require.NoError(t, CanDeleteProposal(fl, p))
	require.NoError(t, CanDeleteProposal(admin(), p))

	var perm *PermissionError
	require.ErrorAs(t, CanDeleteProposal(client(), p), &perm)

	accepted := p
	accepted.Status = models.ProposalStatusAccepted
	var v *ValidationError
	require.ErrorAs(t, CanDeleteProposal(fl, accepted), &v)
}
