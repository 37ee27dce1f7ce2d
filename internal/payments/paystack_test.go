package payments

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyDecodesTransaction(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transaction/verify/PS_123", r.URL.Path)
		assert.Equal(t, "Bearer sk_test", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{
			"status": true,
			"message": "Verification successful",
			"data": {
				"status": "success",
				"reference": "PS_123",
				"amount": 200000,
				"currency": "KES",
				"customer": {"email": "jane@example.com", "first_name": "Jane", "last_name": "Doe"},
				"metadata": "{\"items\":[{\"id\":\"p1\",\"price\":1000,\"quantity\":2}],\"tax\":0}"
			}
		}`))
	}))
	defer server.Close()

	client := NewClient("sk_test", WithBaseURL(server.URL), WithHTTPClient(server.Client()))
	tx, err := client.Verify(context.Background(), "PS_123")
	require.NoError(t, err)

	assert.True(t, tx.Succeeded())
	assert.Equal(t, int64(200000), tx.Amount)
	assert.Equal(t, "Jane Doe", tx.Customer.DisplayName())
	require.Len(t, tx.Metadata.Items, 1)
	assert.Equal(t, "p1", tx.Metadata.Items[0].ID)
	assert.Equal(t, 2, tx.Metadata.Items[0].Quantity)
}

func TestVerifyReturnsProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"status": false, "message": "Transaction reference not found"}`))
	}))
	defer server.Close()

	client := NewClient("sk_test", WithBaseURL(server.URL))
	_, err := client.Verify(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrProvider))

	var providerErr *ProviderError
	require.ErrorAs(t, err, &providerErr)
	assert.Equal(t, http.StatusBadRequest, providerErr.StatusCode)
	assert.Equal(t, "Transaction reference not found", providerErr.Message)
}

func TestInitializeSendsRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/transaction/initialize", r.URL.Path)

		var req InitializeRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, int64(150050), req.Amount)
		assert.Equal(t, "KES", req.Currency)
		assert.Equal(t, "PS_abc", req.Metadata["reference"])

		_, _ = w.Write([]byte(`{"status": true, "data": {"authorization_url": "https://checkout.paystack.com/x", "reference": "PS_abc"}}`))
	}))
	defer server.Close()

	client := NewClient("sk_test", WithBaseURL(server.URL))
	auth, err := client.Initialize(context.Background(), InitializeRequest{
		Email:     "jane@example.com",
		Amount:    150050,
		Currency:  "KES",
		Reference: "PS_abc",
		Metadata:  map[string]any{"reference": "PS_abc"},
	})
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.paystack.com/x", auth.AuthorizationURL)
}

func TestClientRequiresSecret(t *testing.T) {
	_, err := NewClient("").Verify(context.Background(), "PS_1")
	assert.ErrorIs(t, err, ErrMissingSecret)
}

func TestMetadataAcceptsObjectAndString(t *testing.T) {
	var fromObject Metadata
	require.NoError(t, json.Unmarshal([]byte(`{"items":[{"id":"p1","quantity":1}],"shippingFee":250}`), &fromObject))
	assert.Equal(t, 250.0, fromObject.ShippingFee)

	var fromString Metadata
	require.NoError(t, json.Unmarshal([]byte(`"{\"items\":[{\"id\":\"p1\",\"quantity\":1}],\"shippingFee\":250}"`), &fromString))
	assert.Equal(t, fromObject, fromString)

	var empty Metadata
	require.NoError(t, json.Unmarshal([]byte(`""`), &empty))
	assert.Empty(t, empty.Items)
}

func TestVerifySignature(t *testing.T) {
	body := []byte(`{"event":"charge.success"}`)
	signature := Sign("sk_test", body)

	assert.NoError(t, VerifySignature("sk_test", body, signature))
	assert.ErrorIs(t, VerifySignature("sk_test", body, ""), ErrMissingSignature)
	assert.ErrorIs(t, VerifySignature("sk_other", body, signature), ErrInvalidSignature)
	assert.ErrorIs(t, VerifySignature("sk_test", []byte(`{"event":"charge.failed"}`), signature), ErrInvalidSignature)
	assert.ErrorIs(t, VerifySignature("sk_test", body, "not-hex"), ErrInvalidSignature)
}
