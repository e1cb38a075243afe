package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validCard() CardDetails {
	return CardDetails{
		CardNumber:      "4111111111111111",
		FullName:        "APPROVED",
		ExpirationMonth: "12",
		ExpirationYear:  "2030",
		CVV:             "123",
		Currency:        "usd",
	}
}

// fakeGateway mimics the external processor: it hands out an api key and
// answers charges according to the configured behavior.
func fakeGateway(t *testing.T, charge http.HandlerFunc) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /payments/api-key", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"apiKey": "test-key"})
	})
	mux.HandleFunc("POST /payments", charge)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestCreditCardRedirectSuccess(t *testing.T) {
	var gotAuth string
	var gotBody map[string]any

	srv := fakeGateway(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Location", "/payments/confirmation/tx-12345")
		w.WriteHeader(http.StatusFound)
	})

	cc := NewCreditCard(srv.URL, 5*time.Second)
	result, err := cc.ProcessPayment(context.Background(), validCard(), decimal.NewFromFloat(19.98), "usd", "test order")
	require.NoError(t, err)

	assert.Equal(t, "tx-12345", result.TransactionID)
	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "4111111111111111", gotBody["card-number"])
	assert.Equal(t, "APPROVED", gotBody["full-name"])
	assert.Equal(t, "12", gotBody["expiration-month"])
	assert.Equal(t, "2030", gotBody["expiration-year"])
	assert.Equal(t, "123", gotBody["cvv"])
	assert.Equal(t, "USD", gotBody["currency"])
	assert.InDelta(t, 19.98, gotBody["amount"], 0.001)
}

func TestCreditCardJSONBodySuccess(t *testing.T) {
	srv := fakeGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data":    map[string]any{"transaction_id": "tx-json-1"},
			"message": "approved",
		})
	})

	cc := NewCreditCard(srv.URL, 5*time.Second)
	result, err := cc.ProcessPayment(context.Background(), validCard(), decimal.NewFromInt(10), "usd", "test")
	require.NoError(t, err)
	assert.Equal(t, "tx-json-1", result.TransactionID)
}

func TestCreditCardFailureClassification(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    error
	}{
		{name: "rejection", message: "Card rejected by issuer", want: ErrCardRejected},
		{name: "card error", message: "Card error: bad number", want: ErrCardProcessing},
		{name: "insufficient funds", message: "Insufficient funds on account", want: ErrInsufficientFunds},
		{name: "anything else", message: "maintenance window", want: ErrPaymentFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := fakeGateway(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusPaymentRequired)
				json.NewEncoder(w).Encode(map[string]any{
					"success": false,
					"message": tt.message,
				})
			})

			cc := NewCreditCard(srv.URL, 5*time.Second)
			_, err := cc.ProcessPayment(context.Background(), validCard(), decimal.NewFromInt(10), "usd", "test")
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			if tt.want != ErrPaymentFailed {
				assert.Contains(t, err.Error(), tt.message)
			}
		})
	}
}

func TestCreditCardMissingFields(t *testing.T) {
	srv := fakeGateway(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("gateway must not be called when card data is incomplete")
	})

	cc := NewCreditCard(srv.URL, 5*time.Second)
	card := validCard()
	card.CVV = ""
	_, err := cc.ProcessPayment(context.Background(), card, decimal.NewFromInt(10), "usd", "test")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingFields)
	assert.Contains(t, err.Error(), "cvv")
}

func TestCreditCardGatewayUnreachable(t *testing.T) {
	srv := fakeGateway(t, func(w http.ResponseWriter, r *http.Request) {})
	url := srv.URL
	srv.Close()

	cc := NewCreditCard(url, time.Second)
	_, err := cc.ProcessPayment(context.Background(), validCard(), decimal.NewFromInt(10), "usd", "test")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrGatewayUnreachable)
}

func TestRegistryRejectsUnknownMethod(t *testing.T) {
	reg := NewRegistry()
	reg.Register(MethodCreditCard, NewCreditCard("http://localhost:0", time.Second))

	s, err := reg.Resolve(MethodCreditCard)
	require.NoError(t, err)
	assert.NotNil(t, s)

	_, err = reg.Resolve("Crypto")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownMethod)
}
