package workflow

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ThalesYuji/tcc-2025-sub000/internal/models"
)

// MaxProposalsPerJob caps how many proposals a freelancer may submit to the
// same job, counting rejected ones.
const MaxProposalsPerJob = 3

// SubmitInput is the freelancer's side of a proposal submission.
type SubmitInput struct {
	Description  string
	Amount       float64
	DeliveryDate time.Time
	RevisionNote string
}

// ValidateSubmission applies every submission rule against the current
// snapshot. prior must contain all of the freelancer's earlier proposals on
// this job, oldest first.
func ValidateSubmission(actor models.User, job models.Job, prior []models.Proposal, in SubmitInput, now time.Time) error {
	if actor.Role != models.RoleFreelancer {
		return &PermissionError{Message: "Apenas freelancers podem enviar propostas"}
	}
	if job.ClientID == actor.ID {
		return NewValidationError("job_id", "Você não pode enviar proposta para o seu próprio trabalho")
	}
	if job.Status != models.JobStatusOpen {
		return NewValidationError("job_id", "Este trabalho não está aberto para propostas")
	}
	if job.IsPrivate() && *job.TargetFreelancerID != actor.ID {
		return &PermissionError{Message: "Este trabalho é privado e direcionado a outro freelancer"}
	}

	errs := FieldErrors{}
	if strings.TrimSpace(in.Description) == "" {
		errs.Add("description", "Descrição é obrigatória")
	}
	if in.Amount <= 0 {
		errs.Add("amount", "O valor deve ser maior que zero")
	}
	if !in.DeliveryDate.After(now) {
		errs.Add("delivery_date", "A data de entrega deve ser futura")
	}
	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}

	for _, p := range prior {
		if p.Status == models.ProposalStatusPending || p.Status == models.ProposalStatusAccepted {
			return &ConflictError{Message: "Você já possui uma proposta ativa para este trabalho"}
		}
	}
	if len(prior) >= MaxProposalsPerJob {
		return NewValidationError("job_id", "Limite de 3 propostas por trabalho atingido")
	}
	if len(prior) > 0 {
		last := prior[len(prior)-1]
		if last.Status == models.ProposalStatusRejected && strings.TrimSpace(in.RevisionNote) == "" {
			return NewValidationError("revision_note", "Justificativa de revisão é obrigatória após uma recusa")
		}
	}
	return nil
}

// NewProposal builds the proposal after ValidateSubmission passed, assigning
// the sequence number and linking the revision chain. The returned notice
// targets the job owner.
func NewProposal(actor models.User, job models.Job, prior []models.Proposal, in SubmitInput) (models.Proposal, Notice) {
	p := models.Proposal{
		JobID:          job.ID,
		FreelancerID:   actor.ID,
		Description:    strings.TrimSpace(in.Description),
		Amount:         in.Amount,
		DeliveryDate:   in.DeliveryDate,
		Status:         models.ProposalStatusPending,
		SequenceNumber: len(prior) + 1,
		RevisionNote:   strings.TrimSpace(in.RevisionNote),
	}
	if len(prior) > 0 {
		last := prior[len(prior)-1]
		p.RevisionOfID = &last.ID
	}
	notice := Notice{
		UserID:  job.ClientID,
		Message: "Você recebeu uma nova proposta para \"" + job.Title + "\"",
		Link:    "/jobs/" + job.ID.String() + "/proposals",
	}
	return p, notice
}

// AcceptResult is everything the accept transaction must persist plus the
// notifications to send after commit.
type AcceptResult struct {
	Contract            models.Contract
	RejectedProposalIDs []uuid.UUID
	JobStatus           models.JobStatus
	Notices             []Notice
}

// AcceptProposal decides the accept transition. siblings are the other
// proposals on the same job; hasContract tells whether a contract already
// references this proposal (the concurrent-accept loser sees true).
func AcceptProposal(actor models.User, job models.Job, p models.Proposal, siblings []models.Proposal, hasContract bool, now time.Time) (AcceptResult, error) {
	if job.ClientID != actor.ID && !isAdmin(actor) {
		return AcceptResult{}, &PermissionError{Message: "Apenas o dono do trabalho pode aceitar propostas"}
	}
	// A job leaves open the moment any contract is created (accept or direct
	// hire), so this also keeps a second active contract off the same job.
	if job.Status != models.JobStatusOpen {
		return AcceptResult{}, &ConflictError{Message: "Este trabalho não está mais aberto: já existe um contrato em andamento"}
	}
	if hasContract {
		return AcceptResult{}, &ConflictError{Message: "Já existe um contrato para esta proposta"}
	}
	if !ProposalCanTransition(p.Status, models.ProposalStatusAccepted) {
		return AcceptResult{}, &ForbiddenTransitionError{From: string(p.Status), To: string(models.ProposalStatusAccepted)}
	}

	res := AcceptResult{
		Contract:  NewContract(job, &p, now),
		JobStatus: models.JobStatusInProgress,
	}
	for _, sib := range siblings {
		if sib.ID == p.ID {
			continue
		}
		if sib.Status == models.ProposalStatusPending {
			res.RejectedProposalIDs = append(res.RejectedProposalIDs, sib.ID)
			res.Notices = append(res.Notices, Notice{
				UserID:  sib.FreelancerID,
				Message: "Sua proposta para \"" + job.Title + "\" foi recusada: outra proposta foi aceita",
				Link:    "/proposals/" + sib.ID.String(),
			})
		}
	}
	res.Notices = append(res.Notices, Notice{
		UserID:  p.FreelancerID,
		Message: "Sua proposta para \"" + job.Title + "\" foi aceita! Um contrato foi criado",
		Link:    "/contracts",
	})
	return res, nil
}

// RejectResult carries the job status repair plus the freelancer notice.
type RejectResult struct {
	JobStatus models.JobStatus
	Notices   []Notice
}

// RejectProposal decides the reject transition. anyAccepted reports whether
// some proposal on the job still holds accepted status; when none does, the
// job reverts to open.
func RejectProposal(actor models.User, job models.Job, p models.Proposal, reason string, anyAccepted bool) (RejectResult, error) {
	if job.ClientID != actor.ID && !isAdmin(actor) {
		return RejectResult{}, &PermissionError{Message: "Apenas o dono do trabalho pode recusar propostas"}
	}
	if strings.TrimSpace(reason) == "" {
		return RejectResult{}, NewValidationError("reason", "Motivo da recusa é obrigatório")
	}
	if !ProposalCanTransition(p.Status, models.ProposalStatusRejected) {
		return RejectResult{}, &ForbiddenTransitionError{From: string(p.Status), To: string(models.ProposalStatusRejected)}
	}

	res := RejectResult{JobStatus: job.Status}
	// Only an in-progress job reopens; completed and cancelled stay terminal.
	if !anyAccepted && job.Status == models.JobStatusInProgress {
		res.JobStatus = models.JobStatusOpen
	}
	res.Notices = append(res.Notices, Notice{
		UserID:  p.FreelancerID,
		Message: "Sua proposta para \"" + job.Title + "\" foi recusada: " + strings.TrimSpace(reason),
		Link:    "/proposals/" + p.ID.String(),
	})
	return res, nil
}

// CanDeleteProposal: only the submitting freelancer (or an admin) may delete,
// and only while pending.
func CanDeleteProposal(actor models.User, p models.Proposal) error {
	if p.FreelancerID != actor.ID && !isAdmin(actor) {
		return &PermissionError{Message: "Apenas o autor da proposta pode excluí-la"}
	}
	if p.Status != models.ProposalStatusPending {
		return NewValidationError("status", "Apenas propostas pendentes podem ser excluídas")
	}
	return nil
}
