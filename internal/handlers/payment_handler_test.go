package handlers

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ThalesYuji/tcc-2025-sub000/internal/models"
	"github.com/ThalesYuji/tcc-2025-sub000/internal/workflow"
)

func TestExtractWebhookTransactionID(t *testing.T) {
	t.Run("type and data id", func(t *testing.T) {
		id, ok, err := extractWebhookTransactionID([]byte(`{"type":"payment","data":{"id":"12345"}}`))
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "12345", id)
	})

	t.Run("numeric data id", func(t *testing.T) {
		id, ok, err := extractWebhookTransactionID([]byte(`{"type":"payment","data":{"id":12345}}`))
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "12345", id)
	})

	t.Run("topic and resource url", func(t *testing.T) {
		id, ok, err := extractWebhookTransactionID([]byte(`{"topic":"payment","resource":"https://api.mercadopago.com/v1/payments/98765"}`))
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "98765", id)
	})

	t.Run("trailing slash on resource", func(t *testing.T) {
		id, ok, err := extractWebhookTransactionID([]byte(`{"topic":"payment","resource":"https://api.mercadopago.com/v1/payments/98765/"}`))
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "98765", id)
	})

	t.Run("non-payment event ignored", func(t *testing.T) {
		_, ok, err := extractWebhookTransactionID([]byte(`{"topic":"merchant_order","resource":"https://api.mercadopago.com/merchant_orders/1"}`))
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("null data id ignored", func(t *testing.T) {
		_, ok, err := extractWebhookTransactionID([]byte(`{"type":"payment","data":{"id":null}}`))
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("malformed json errors", func(t *testing.T) {
		_, _, err := extractWebhookTransactionID([]byte(`{"type":"payment",`))
		require.Error(t, err)
	})
}

func TestPaymentNeedsExternalID(t *testing.T) {
	extID := "314159"

	t.Run("fills a missing id", func(t *testing.T) {
		stored := models.Payment{ID: uuid.New(), Status: models.PaymentStatusPending}
		reconciled := stored
		reconciled.ExternalID = &extID
		assert.True(t, paymentNeedsExternalID(&stored, reconciled))
	})

	t.Run("replayed webhook writes nothing", func(t *testing.T) {
		stored := models.Payment{ID: uuid.New(), Status: models.PaymentStatusPending, ExternalID: &extID}
		assert.False(t, paymentNeedsExternalID(&stored, stored))
	})

	t.Run("created payments handled elsewhere", func(t *testing.T) {
		reconciled := models.Payment{ExternalID: &extID}
		assert.False(t, paymentNeedsExternalID(nil, reconciled))
	})
}

func TestTranslateDuplicatePayment(t *testing.T) {
	var conflict *workflow.ConflictError
	require.ErrorAs(t, translateDuplicatePayment(gorm.ErrDuplicatedKey), &conflict)
	require.ErrorAs(t, translateDuplicatePayment(fmt.Errorf("insert: %w", gorm.ErrDuplicatedKey)), &conflict)

	assert.NoError(t, translateDuplicatePayment(nil))
	other := errors.New("connection reset")
	assert.Equal(t, other, translateDuplicatePayment(other))
}
