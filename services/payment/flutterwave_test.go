package payment

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testFlwSecretHash = "flw-webhook-secret-hash"

func newTestFlutterwave(baseURL string) *FlutterwaveProvider {
	return NewFlutterwaveProvider(FlutterwaveConfig{
		SecretKey:  "FLWSECK_TEST-abcdef",
		SecretHash: testFlwSecretHash,
		BaseURL:    baseURL,
	})
}

func TestFlutterwaveVerifySignature(t *testing.T) {
	p := newTestFlutterwave("")
	payload := []byte(`{"event":"charge.completed"}`)

	t.Run("matching hash", func(t *testing.T) {
		assert.NoError(t, p.VerifySignature(payload, testFlwSecretHash))
	})

	t.Run("wrong hash", func(t *testing.T) {
		assert.ErrorIs(t, p.VerifySignature(payload, "someone-elses-hash"), ErrInvalidSignature)
	})

	t.Run("missing header", func(t *testing.T) {
		assert.ErrorIs(t, p.VerifySignature(payload, ""), ErrInvalidSignature)
	})

	t.Run("unconfigured hash rejects everything", func(t *testing.T) {
		unconfigured := NewFlutterwaveProvider(FlutterwaveConfig{SecretKey: "k"})
		assert.ErrorIs(t, unconfigured.VerifySignature(payload, ""), ErrInvalidSignature)
	})
}

func TestFlutterwaveParseWebhook(t *testing.T) {
	p := newTestFlutterwave("")

	tests := []struct {
		name       string
		payload    string
		wantKind   EventKind
		wantRef    string
		wantAmount int64
	}{
		{
			"completed successful charge",
			`{"event":"charge.completed","data":{"tx_ref":"uv-abc","status":"successful","amount":150,"currency":"GHS"}}`,
			EventPaymentSucceeded, "uv-abc", 15000,
		},
		{
			"completed failed charge",
			`{"event":"charge.completed","data":{"tx_ref":"uv-def","status":"failed","amount":150,"currency":"GHS"}}`,
			EventPaymentFailed, "uv-def", 15000,
		},
		{
			"refund completed",
			`{"event":"refund.completed","data":{"tx_ref":"uv-abc","status":"completed","amount":150,"currency":"GHS"}}`,
			EventRefundProcessed, "uv-abc", 15000,
		},
		{
			"completed charge in unknown state",
			`{"event":"charge.completed","data":{"tx_ref":"uv-ghi","status":"pending","amount":150,"currency":"GHS"}}`,
			EventIgnored, "uv-ghi", 15000,
		},
		{
			"unrelated event",
			`{"event":"transfer.completed","data":{"tx_ref":"uv-jkl","amount":150,"currency":"GHS"}}`,
			EventIgnored, "uv-jkl", 15000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := p.ParseWebhook([]byte(tt.payload))
			require.NoError(t, err)
			assert.Equal(t, tt.wantKind, n.Kind)
			assert.Equal(t, tt.wantRef, n.Reference)
			assert.Equal(t, tt.wantAmount, n.Amount, "major units are converted to minor")
		})
	}
}

func TestFlutterwaveVerify(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/transactions/verify_by_reference", r.URL.Path)
		switch r.URL.Query().Get("tx_ref") {
		case "uv-good":
			w.Write([]byte(`{"status":"success","data":{"id":99001,"tx_ref":"uv-good","status":"successful","amount":150,"currency":"GHS"}}`))
		default:
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"status":"error","message":"No transaction was found for this id"}`))
		}
	}))
	defer srv.Close()

	p := newTestFlutterwave(srv.URL)
	ctx := context.Background()

	t.Run("successful transaction", func(t *testing.T) {
		n, raw, err := p.Verify(ctx, "uv-good")
		require.NoError(t, err)
		assert.Equal(t, EventPaymentSucceeded, n.Kind)
		assert.Equal(t, "uv-good", n.Reference)
		assert.Equal(t, int64(15000), n.Amount)
		assert.NotEmpty(t, raw)
	})

	t.Run("unknown reference", func(t *testing.T) {
		_, _, err := p.Verify(ctx, "uv-missing")
		var perr *ProviderError
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, "verify", perr.Op)
	})
}

func TestFlutterwaveRefundResolvesTransactionID(t *testing.T) {
	var refundPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/transactions/verify_by_reference":
			w.Write([]byte(`{"status":"success","data":{"id":99001,"tx_ref":"uv-good","status":"successful","amount":150,"currency":"GHS"}}`))
		case r.Method == http.MethodPost:
			refundPath = r.URL.Path
			w.Write([]byte(`{"status":"success","data":{"id":5,"status":"completed"}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	p := newTestFlutterwave(srv.URL)

	res, err := p.Refund(context.Background(), "uv-good", "course cancelled")
	require.NoError(t, err)
	assert.Equal(t, "/transactions/99001/refund", refundPath)
	assert.Equal(t, "uv-good", res.ProviderReference)
	assert.Equal(t, "processed", res.Status)
}
