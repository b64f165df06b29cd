package api

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/leanivr/leanivr/internal/api/middleware"
	"github.com/leanivr/leanivr/internal/database/models"
)

// invoiceRequest is the body for creating an invoice. Amount is in
// rupees; it is stored in paise.
type invoiceRequest struct {
	Description string `json:"description"`
	Amount      int64  `json:"amount"`
}

// invoiceResponse is the JSON shape for a single invoice. Amount is
// reported in paise, matching the payment order amounts.
type invoiceResponse struct {
	ID          int64  `json:"id"`
	Description string `json:"description"`
	Amount      int64  `json:"amount"`
	Status      string `json:"status"`
	CreatedAt   string `json:"created_at"`
}

func toInvoiceResponse(inv *models.Invoice) invoiceResponse {
	return invoiceResponse{
		ID:          inv.ID,
		Description: inv.Description,
		Amount:      inv.Amount,
		Status:      inv.Status,
		CreatedAt:   inv.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// handleListInvoices returns the authenticated operator's invoices.
func (s *Server) handleListInvoices(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())

	invoices, err := s.invoices.ListByUser(r.Context(), userID)
	if err != nil {
		slog.Error("list invoices: failed to query", "error", err, "user_id", userID)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	items := make([]invoiceResponse, len(invoices))
	for i := range invoices {
		items[i] = toInvoiceResponse(&invoices[i])
	}

	writeJSON(w, http.StatusOK, items)
}

// handleCreateInvoice creates a due invoice for the operator.
func (s *Server) handleCreateInvoice(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())

	var req invoiceRequest
	if errMsg := readJSON(r, &req); errMsg != "" {
		writeError(w, http.StatusBadRequest, errMsg)
		return
	}

	req.Description = strings.TrimSpace(req.Description)
	if errMsg := validateRequiredStringLen("description", req.Description, maxNameLen); errMsg != "" {
		writeError(w, http.StatusBadRequest, errMsg)
		return
	}
	if req.Amount <= 0 {
		writeError(w, http.StatusBadRequest, "amount must be positive")
		return
	}

	inv := &models.Invoice{
		UserID:      userID,
		Description: req.Description,
		Amount:      req.Amount * 100,
		Status:      models.InvoiceDue,
	}
	if err := s.invoices.Create(r.Context(), inv); err != nil {
		slog.Error("create invoice: failed to insert", "error", err, "user_id", userID)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	created, err := s.invoices.GetByID(r.Context(), inv.ID)
	if err != nil || created == nil {
		slog.Error("create invoice: failed to re-fetch", "error", err, "invoice_id", inv.ID)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusCreated, toInvoiceResponse(created))
}

// orderRequest is the body for creating a payment order.
type orderRequest struct {
	InvoiceID int64 `json:"invoice_id"`
}

// orderResponse mirrors a gateway order: an opaque order reference,
// the amount in paise, and the currency.
type orderResponse struct {
	OrderID  string `json:"order_id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// handleCreateOrder creates a payment order for a due invoice.
// There is no real gateway behind it; the order reference is minted
// locally and verified by HMAC signature on the verify call.
func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())

	var req orderRequest
	if errMsg := readJSON(r, &req); errMsg != "" {
		writeError(w, http.StatusBadRequest, errMsg)
		return
	}

	inv, err := s.invoices.GetByID(r.Context(), req.InvoiceID)
	if err != nil {
		slog.Error("create order: failed to query invoice", "error", err, "invoice_id", req.InvoiceID)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if inv == nil || inv.UserID != userID {
		writeError(w, http.StatusNotFound, "invoice not found")
		return
	}
	if inv.Status == models.InvoicePaid {
		writeError(w, http.StatusConflict, "invoice already paid")
		return
	}

	orderID := "order_" + strings.ReplaceAll(uuid.NewString(), "-", "")

	slog.Info("payment order created", "order_id", orderID, "invoice_id", inv.ID, "amount", inv.Amount)

	writeJSON(w, http.StatusOK, orderResponse{
		OrderID:  orderID,
		Amount:   inv.Amount,
		Currency: "INR",
	})
}

// verifyRequest is the body for confirming a payment.
type verifyRequest struct {
	InvoiceID int64  `json:"invoice_id"`
	OrderID   string `json:"order_id"`
	PaymentID string `json:"payment_id"`
	Signature string `json:"signature"`
}

// paymentSignature computes the expected hex HMAC-SHA256 over
// "<orderID>|<paymentID>".
func paymentSignature(secret []byte, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// handleVerifyPayment checks the payment signature and, if valid,
// records the payment and marks the invoice paid.
func (s *Server) handleVerifyPayment(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())

	var req verifyRequest
	if errMsg := readJSON(r, &req); errMsg != "" {
		writeError(w, http.StatusBadRequest, errMsg)
		return
	}
	if req.OrderID == "" || req.PaymentID == "" || req.Signature == "" {
		writeError(w, http.StatusBadRequest, "order_id, payment_id and signature are required")
		return
	}

	inv, err := s.invoices.GetByID(r.Context(), req.InvoiceID)
	if err != nil {
		slog.Error("verify payment: failed to query invoice", "error", err, "invoice_id", req.InvoiceID)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if inv == nil || inv.UserID != userID {
		writeError(w, http.StatusNotFound, "invoice not found")
		return
	}

	expected := paymentSignature([]byte(s.cfg.PaymentSecret), req.OrderID, req.PaymentID)
	if !hmac.Equal([]byte(expected), []byte(req.Signature)) {
		slog.Warn("verify payment: bad signature", "invoice_id", inv.ID, "order_id", req.OrderID)
		writeError(w, http.StatusBadRequest, "invalid payment signature")
		return
	}

	payment := &models.Payment{
		InvoiceID:  inv.ID,
		OrderRef:   req.OrderID,
		PaymentRef: req.PaymentID,
		Amount:     inv.Amount,
		Status:     "captured",
	}
	if err := s.payments.Create(r.Context(), payment); err != nil {
		slog.Error("verify payment: failed to record payment", "error", err, "invoice_id", inv.ID)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if err := s.invoices.UpdateStatus(r.Context(), inv.ID, models.InvoicePaid); err != nil {
		slog.Error("verify payment: failed to mark invoice paid", "error", err, "invoice_id", inv.ID)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	slog.Info("payment verified", "invoice_id", inv.ID, "order_id", req.OrderID, "payment_id", req.PaymentID)

	writeJSON(w, http.StatusOK, map[string]any{
		"verified":   true,
		"invoice_id": inv.ID,
		"status":     models.InvoicePaid,
	})
}
