package services

import (
	"encoding/json"
	"testing"

	"github.com/Uvarsity-Learning-Platform/Uvarsity-Backend-sub000/model"
	"github.com/Uvarsity-Learning-Platform/Uvarsity-Backend-sub000/services/payment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestTargetStatus(t *testing.T) {
	tests := []struct {
		kind payment.EventKind
		want model.PaymentStatus
		ok   bool
	}{
		{payment.EventPaymentSucceeded, model.PaymentStatusSucceeded, true},
		{payment.EventPaymentFailed, model.PaymentStatusFailed, true},
		{payment.EventRefundProcessed, model.PaymentStatusRefunded, true},
		{payment.EventIgnored, "", false},
		{payment.EventKind("something.else"), "", false},
	}

	for _, tt := range tests {
		got, ok := targetStatus(tt.kind)
		assert.Equal(t, tt.ok, ok, "kind %s", tt.kind)
		assert.Equal(t, tt.want, got, "kind %s", tt.kind)
	}
}

func TestAppendMetadata(t *testing.T) {
	t.Run("appends to empty blob", func(t *testing.T) {
		out, err := appendMetadata(nil, "charge.success", []byte(`{"amount":15000}`))
		require.NoError(t, err)

		var entries []metadataEntry
		require.NoError(t, json.Unmarshal(out, &entries))
		require.Len(t, entries, 1)
		assert.Equal(t, "charge.success", entries[0].EventType)
		assert.JSONEq(t, `{"amount":15000}`, string(entries[0].Payload))
	})

	t.Run("preserves earlier entries", func(t *testing.T) {
		first, err := appendMetadata(nil, "charge.success", []byte(`{"a":1}`))
		require.NoError(t, err)
		second, err := appendMetadata(first, "refund.processed", []byte(`{"b":2}`))
		require.NoError(t, err)

		var entries []metadataEntry
		require.NoError(t, json.Unmarshal(second, &entries))
		require.Len(t, entries, 2)
		assert.Equal(t, "charge.success", entries[0].EventType)
		assert.Equal(t, "refund.processed", entries[1].EventType)
	})

	t.Run("non-JSON payload is recorded without the raw bytes", func(t *testing.T) {
		out, err := appendMetadata(nil, "verify:success", []byte("plain text response"))
		require.NoError(t, err)

		var entries []metadataEntry
		require.NoError(t, json.Unmarshal(out, &entries))
		require.Len(t, entries, 1)
		assert.Empty(t, entries[0].Payload)
	})

	t.Run("malformed existing blob is replaced not fatal", func(t *testing.T) {
		out, err := appendMetadata(datatypes.JSON(`{broken`), "charge.success", []byte(`{}`))
		require.NoError(t, err)

		var entries []metadataEntry
		require.NoError(t, json.Unmarshal(out, &entries))
		assert.Len(t, entries, 1)
	})
}
