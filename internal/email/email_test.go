package email

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"hvac-backend/internal/quoting"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResendSend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/emails", r.URL.Path)
		assert.Equal(t, "Bearer re_key", r.Header.Get("Authorization"))

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Devis <devis@example.be>", body["from"])
		assert.Equal(t, []interface{}{"client@example.be"}, body["to"])
		assert.Equal(t, "office@example.be", body["reply_to"])
		assert.Equal(t, "<p>x</p>", body["html"])

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"em_1"}`))
	}))
	defer srv.Close()

	s := NewResendService("re_key", "Devis <devis@example.be>", "office@example.be")
	require.NoError(t, s.SetBaseURL(srv.URL))

	id, err := s.Send(context.Background(), Message{To: "client@example.be", Subject: "s", HTML: "<p>x</p>"})
	require.NoError(t, err)
	assert.Equal(t, "em_1", id)
}

func TestResendSend_Error(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"name":"validation_error","message":"Invalid to field"}`))
	}))
	defer srv.Close()

	s := NewResendService("re_key", "a@b.c", "")
	require.NoError(t, s.SetBaseURL(srv.URL))

	_, err := s.Send(context.Background(), Message{To: "x", Subject: "s"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid to field")
}

func TestResendSend_MalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":`))
	}))
	defer srv.Close()

	s := NewResendService("re_key", "a@b.c", "")
	require.NoError(t, s.SetBaseURL(srv.URL))

	_, err := s.Send(context.Background(), Message{To: "x@y.z", Subject: "s"})
	require.Error(t, err)
}

func TestResendSend_MissingID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	s := NewResendService("re_key", "a@b.c", "")
	require.NoError(t, s.SetBaseURL(srv.URL))

	_, err := s.Send(context.Background(), Message{To: "x@y.z", Subject: "s"})
	require.Error(t, err)
}

func TestSend_NoRecipient(t *testing.T) {
	_, err := NewResendService("k", "a@b.c", "").Send(context.Background(), Message{})
	assert.ErrorIs(t, err, ErrNoRecipient)

	_, err = NewMockEmailService().Send(context.Background(), Message{})
	assert.ErrorIs(t, err, ErrNoRecipient)
}

func TestRenderQuote(t *testing.T) {
	subject, html, err := RenderQuote(QuoteData{
		CompanyName: "Clim & Co",
		ClientName:  "Jean <Dupont>",
		QuoteNumber: "2026007",
		Items: []quoting.EmailItem{
			{Kind: "labor", Label: "Main d'oeuvre", Quantity: "2", UnitPrice: "65.00", LineTotal: "130.00"},
		},
		Subtotal:   "130.00",
		TaxRate:    "21",
		TaxAmount:  "27.30",
		Total:      "157.30",
		AcceptURL:  "https://example.be/quotes/q1/accept",
		DeclineURL: "https://example.be/quotes/q1/decline",
	})
	require.NoError(t, err)
	assert.Contains(t, subject, "2026007")
	assert.Contains(t, html, "157.30")
	assert.Contains(t, html, "https://example.be/quotes/q1/accept")
	assert.Contains(t, html, "Jean &lt;Dupont&gt;")
	assert.NotContains(t, html, "valable jusqu")
}

func TestRenderAccepted(t *testing.T) {
	_, html, err := RenderAccepted(AcceptedData{QuoteNumber: "2026001", BookingURL: "https://cal.example.be"})
	require.NoError(t, err)
	assert.Contains(t, html, "https://cal.example.be")

	_, html, err = RenderAccepted(AcceptedData{QuoteNumber: "2026001"})
	require.NoError(t, err)
	assert.Contains(t, html, "Nous vous contacterons")
}
