package api

import (
	"encoding/json"
	"net/http"
	"testing"
)

func createInvoice(t *testing.T, srv *Server, token string) int64 {
	t.Helper()

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/invoices", token, map[string]any{
		"description": "March usage", "amount": 500,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create invoice returned %d: %s", rec.Code, rec.Body.String())
	}

	var env testEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decoding invoice response: %v", err)
	}
	var inv struct {
		ID     int64 `json:"id"`
		Amount int64 `json:"amount"`
	}
	if err := json.Unmarshal(env.Data, &inv); err != nil {
		t.Fatalf("decoding invoice data: %v", err)
	}
	if inv.Amount != 50000 {
		t.Errorf("expected amount in paise (50000), got %d", inv.Amount)
	}
	return inv.ID
}

func TestInvoiceLifecycle(t *testing.T) {
	srv, _ := newTestServer(t)
	token := setupAndLogin(t, srv)

	id := createInvoice(t, srv, token)

	rec := doJSON(t, srv, http.MethodGet, "/api/v1/invoices", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list invoices returned %d", rec.Code)
	}

	var env testEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decoding list response: %v", err)
	}
	var list []struct {
		ID     int64  `json:"id"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal(env.Data, &list); err != nil {
		t.Fatalf("decoding list data: %v", err)
	}
	if len(list) != 1 || list[0].ID != id || list[0].Status != "due" {
		t.Errorf("unexpected invoice list: %+v", list)
	}
}

func TestInvoiceValidation(t *testing.T) {
	srv, _ := newTestServer(t)
	token := setupAndLogin(t, srv)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/invoices", token, map[string]any{
		"description": "bad", "amount": -5,
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("negative amount returned %d, want 400", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodPost, "/api/v1/invoices", token, map[string]any{
		"amount": 100,
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing description returned %d, want 400", rec.Code)
	}
}

func TestPaymentOrderAndVerify(t *testing.T) {
	srv, _ := newTestServer(t)
	token := setupAndLogin(t, srv)
	invoiceID := createInvoice(t, srv, token)

	// Create a payment order.
	rec := doJSON(t, srv, http.MethodPost, "/api/v1/payments/create", token, map[string]any{
		"invoice_id": invoiceID,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("create order returned %d: %s", rec.Code, rec.Body.String())
	}

	var env testEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decoding order response: %v", err)
	}
	var order struct {
		OrderID  string `json:"order_id"`
		Amount   int64  `json:"amount"`
		Currency string `json:"currency"`
	}
	if err := json.Unmarshal(env.Data, &order); err != nil {
		t.Fatalf("decoding order data: %v", err)
	}
	if order.OrderID == "" || order.Currency != "INR" || order.Amount != 50000 {
		t.Fatalf("unexpected order: %+v", order)
	}

	// Verify with the correct signature.
	paymentID := "pay_test123"
	sig := paymentSignature([]byte("test-payment-secret"), order.OrderID, paymentID)
	rec = doJSON(t, srv, http.MethodPost, "/api/v1/payments/verify", token, map[string]any{
		"invoice_id": invoiceID,
		"order_id":   order.OrderID,
		"payment_id": paymentID,
		"signature":  sig,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("verify returned %d: %s", rec.Code, rec.Body.String())
	}

	// Invoice is now paid and a further order is refused.
	rec = doJSON(t, srv, http.MethodPost, "/api/v1/payments/create", token, map[string]any{
		"invoice_id": invoiceID,
	})
	if rec.Code != http.StatusConflict {
		t.Errorf("order on paid invoice returned %d, want 409", rec.Code)
	}
}

func TestPaymentVerifyBadSignature(t *testing.T) {
	srv, _ := newTestServer(t)
	token := setupAndLogin(t, srv)
	invoiceID := createInvoice(t, srv, token)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/payments/verify", token, map[string]any{
		"invoice_id": invoiceID,
		"order_id":   "order_abc",
		"payment_id": "pay_abc",
		"signature":  "deadbeef",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad signature returned %d, want 400", rec.Code)
	}

	// Invoice stays due.
	recList := doJSON(t, srv, http.MethodGet, "/api/v1/invoices", token, nil)
	var env testEnvelope
	if err := json.Unmarshal(recList.Body.Bytes(), &env); err != nil {
		t.Fatalf("decoding list response: %v", err)
	}
	var list []struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(env.Data, &list); err != nil {
		t.Fatalf("decoding list data: %v", err)
	}
	if len(list) != 1 || list[0].Status != "due" {
		t.Errorf("expected invoice to stay due, got %+v", list)
	}
}

func TestPaymentOrderUnknownInvoice(t *testing.T) {
	srv, _ := newTestServer(t)
	token := setupAndLogin(t, srv)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/payments/create", token, map[string]any{
		"invoice_id": 999,
	})
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown invoice returned %d, want 404", rec.Code)
	}
}
