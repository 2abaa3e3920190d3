package workflow

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ThalesYuji/tcc-2025-sub000/internal/models"
)

func activeContract() models.Contract {
	return models.Contract{
		ID:           uuid.New(),
		JobID:        uuid.New(),
		ClientID:     uuid.New(),
		FreelancerID: uuid.New(),
		Value:        1200,
		Status:       models.ContractStatusActive,
	}
}

func TestMapGatewayStatus(t *testing.T) {
	cases := []struct {
		gateway string
		local   models.PaymentStatus
		known   bool
	}{
		{"pending", models.PaymentStatusPending, true},
		{"in_process", models.PaymentStatusProcessing, true},
		{"approved", models.PaymentStatusApproved, true},
		{"rejected", models.PaymentStatusRejected, true},
		{"cancelled", models.PaymentStatusRejected, true},
		{"refunded", models.PaymentStatusRefunded, true},
		{"charged_back", models.PaymentStatusRefunded, true},
		{"authorized", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := MapGatewayStatus(tc.gateway)
		assert.Equal(t, tc.known, ok, tc.gateway)
		assert.Equal(t, tc.local, got, tc.gateway)
	}
}

func TestValidateCheckout(t *testing.T) {
	contract := activeContract()
	payer := models.User{ID: contract.ClientID, Role: models.RoleClient}

	require.NoError(t, ValidateCheckout(payer, contract, nil))

	t.Run("only contract client pays", func(t *testing.T) {
		stranger := models.User{ID: uuid.New(), Role: models.RoleClient}
		var perm *PermissionError
		require.ErrorAs(t, ValidateCheckout(stranger, contract, nil), &perm)
	})

	t.Run("inactive contract refused", func(t *testing.T) {
		done := contract
		done.Status = models.ContractStatusCompleted
		var v *ValidationError
		require.ErrorAs(t, ValidateCheckout(payer, done, nil), &v)
	})

	t.Run("second payment conflicts", func(t *testing.T) {
		existing := &models.Payment{ID: uuid.New(), ContractID: contract.ID}
		var conflict *ConflictError
		require.ErrorAs(t, ValidateCheckout(payer, contract, existing), &conflict)
	})
}

func TestReconcilePayment(t *testing.T) {
	contract := activeContract()
	gtx := GatewayTransaction{
		ID:                "314159",
		Status:            "pending",
		Amount:            contract.Value,
		ExternalReference: contract.ID.String(),
	}

	t.Run("unknown status rejected", func(t *testing.T) {
		bad := gtx
		bad.Status = "authorized"
		_, err := ReconcilePayment(nil, contract, bad)
		var v *ValidationError
		require.ErrorAs(t, err, &v)
	})

	t.Run("unseen transaction creates record", func(t *testing.T) {
		res, err := ReconcilePayment(nil, contract, gtx)
		require.NoError(t, err)
		assert.True(t, res.Create)
		assert.True(t, res.Changed)
		assert.Equal(t, models.PaymentStatusPending, res.Payment.Status)
		assert.Equal(t, contract.ClientID, res.Payment.PayerID)
		require.NotNil(t, res.Payment.ExternalID)
		assert.Equal(t, gtx.ID, *res.Payment.ExternalID)
		assert.False(t, res.CompleteContract)
	})

	t.Run("no creation on finished contract", func(t *testing.T) {
		done := contract
		done.Status = models.ContractStatusCompleted
		_, err := ReconcilePayment(nil, done, gtx)
		var forbidden *ForbiddenTransitionError
		require.ErrorAs(t, err, &forbidden)
	})

	t.Run("same status is a no-op", func(t *testing.T) {
		extID := gtx.ID
		stored := models.Payment{
			ID:         uuid.New(),
			ContractID: contract.ID,
			Status:     models.PaymentStatusPending,
			ExternalID: &extID,
		}
		res, err := ReconcilePayment(&stored, contract, gtx)
		require.NoError(t, err)
		assert.False(t, res.Changed)
		assert.Empty(t, res.Notices)
	})

	t.Run("approval completes contract once", func(t *testing.T) {
		extID := gtx.ID
		stored := models.Payment{
			ID:         uuid.New(),
			ContractID: contract.ID,
			Status:     models.PaymentStatusProcessing,
			ExternalID: &extID,
		}
		approved := gtx
		approved.Status = "approved"

		res, err := ReconcilePayment(&stored, contract, approved)
		require.NoError(t, err)
		assert.True(t, res.Changed)
		assert.True(t, res.CompleteContract)
		assert.Equal(t, models.PaymentStatusApproved, res.Payment.Status)
		assert.Len(t, res.Notices, 2)

		// replaying the same approval produces no second side effect
		res2, err := ReconcilePayment(&res.Payment, contract, approved)
		require.NoError(t, err)
		assert.False(t, res2.Changed)
		assert.False(t, res2.CompleteContract)
		assert.Empty(t, res2.Notices)
	})

	t.Run("stale gateway data ignored after approval", func(t *testing.T) {
		extID := gtx.ID
		stored := models.Payment{
			ID:         uuid.New(),
			ContractID: contract.ID,
			Status:     models.PaymentStatusApproved,
			ExternalID: &extID,
		}
		res, err := ReconcilePayment(&stored, contract, gtx) // gateway still says pending
		require.NoError(t, err)
		assert.False(t, res.Changed)
		assert.Equal(t, models.PaymentStatusApproved, res.Payment.Status)
	})

	t.Run("refund after approval goes through", func(t *testing.T) {
		extID := gtx.ID
		stored := models.Payment{
			ID:         uuid.New(),
			ContractID: contract.ID,
			Status:     models.PaymentStatusApproved,
			ExternalID: &extID,
		}
		refunded := gtx
		refunded.Status = "refunded"
		res, err := ReconcilePayment(&stored, contract, refunded)
		require.NoError(t, err)
		assert.True(t, res.Changed)
		assert.Equal(t, models.PaymentStatusRefunded, res.Payment.Status)
	})

	t.Run("rejection notifies payer", func(t *testing.T) {
		extID := gtx.ID
		stored := models.Payment{
			ID:         uuid.New(),
			ContractID: contract.ID,
			Status:     models.PaymentStatusPending,
			ExternalID: &extID,
		}
		rejected := gtx
		rejected.Status = "rejected"
		res, err := ReconcilePayment(&stored, contract, rejected)
		require.NoError(t, err)
		require.Len(t, res.Notices, 1)
		assert.Equal(t, contract.ClientID, res.Notices[0].UserID)
	})
}

func TestOverridePaymentApproval(t *testing.T) {
	contract := activeContract()
	stored := models.Payment{
		ID:         uuid.New(),
		ContractID: contract.ID,
		Status:     models.PaymentStatusPending,
	}

	t.Run("admin only", func(t *testing.T) {
		_, err := OverridePaymentApproval(client(), stored, contract)
		var perm *PermissionError
		require.ErrorAs(t, err, &perm)
	})

	t.Run("forces approval and completion", func(t *testing.T) {
		res, err := OverridePaymentApproval(admin(), stored, contract)
		require.NoError(t, err)
		assert.True(t, res.Changed)
		assert.True(t, res.CompleteContract)
		assert.Equal(t, models.PaymentStatusApproved, res.Payment.Status)
	})

	t.Run("idempotent on approved", func(t *testing.T) {
		approved := stored
		approved.Status = models.PaymentStatusApproved
		res, err := OverridePaymentApproval(admin(), approved, contract)
		require.NoError(t, err)
		assert.False(t, res.Changed)
		assert.False(t, res.CompleteContract)
	})
}
