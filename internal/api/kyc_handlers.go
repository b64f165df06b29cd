package api

import (
	"log/slog"
	"net/http"

	"github.com/leanivr/leanivr/internal/api/middleware"
)

// kycRequest is the body for updating KYC details.
type kycRequest struct {
	Pan  string `json:"pan"`
	Gst  string `json:"gst"`
	Bank string `json:"bank"`
}

// kycResponse is the JSON shape for an operator's KYC details.
type kycResponse struct {
	Pan  string `json:"pan"`
	Gst  string `json:"gst"`
	Bank string `json:"bank"`
}

// handleGetKYC returns the authenticated operator's KYC details.
func (s *Server) handleGetKYC(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())

	user, err := s.users.GetByID(r.Context(), userID)
	if err != nil {
		slog.Error("get kyc: failed to query user", "error", err, "user_id", userID)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if user == nil {
		writeError(w, http.StatusUnauthorized, "account no longer exists")
		return
	}

	writeJSON(w, http.StatusOK, kycResponse{
		Pan:  user.KYCPan,
		Gst:  user.KYCGst,
		Bank: user.KYCBank,
	})
}

// handleUpdateKYC stores the operator's KYC details. PAN format is
// checked when provided; GST and bank are stored as-is.
func (s *Server) handleUpdateKYC(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())

	var req kycRequest
	if errMsg := readJSON(r, &req); errMsg != "" {
		writeError(w, http.StatusBadRequest, errMsg)
		return
	}

	if req.Pan != "" {
		if errMsg := validatePAN("pan", req.Pan); errMsg != "" {
			writeError(w, http.StatusBadRequest, errMsg)
			return
		}
	}

	if err := s.users.UpdateKYC(r.Context(), userID, req.Pan, req.Gst, req.Bank); err != nil {
		slog.Error("update kyc: failed to update", "error", err, "user_id", userID)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	slog.Info("kyc updated", "user_id", userID)

	writeJSON(w, http.StatusOK, kycResponse{
		Pan:  req.Pan,
		Gst:  req.Gst,
		Bank: req.Bank,
	})
}
