package api

import (
	"encoding/json"
	"net/http"
	"time"

	"wallet-ledger-go/internal/ledger"
	"wallet-ledger-go/internal/models"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type validateTransactionRequest struct {
	UserId string      `json:"user_id" validate:"required"`
	Amount json.Number `json:"amount" validate:"required"`
}

type statusResponse struct {
	Status    string    `json:"status"`
	Database  string    `json:"database"`
	Timestamp time.Time `json:"timestamp"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if err := s.HealthCheck(r.Context()); err != nil {
		zap.L().Error("Health check failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, statusResponse{
			Status: "degraded", Database: "unavailable", Timestamp: time.Now().UTC(),
		})
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{
		Status: "ok", Database: "connected", Timestamp: time.Now().UTC(),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.GetStats(r.Context())
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleSearchUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.engine.SearchUsers(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	if users == nil {
		users = []models.User{}
	}
	writeJSON(w, http.StatusOK, users)
}

func (s *Server) handleUserSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.engine.UserSummary(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleUserWallets(w http.ResponseWriter, r *http.Request) {
	userId := chi.URLParam(r, "userId")
	if _, err := s.store.GetUserById(r.Context(), userId); err != nil {
		writeStoreError(w, r, err)
		return
	}
	wallets, err := s.store.GetUserWallets(r.Context(), userId)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	if wallets == nil {
		wallets = []models.Wallet{}
	}
	writeJSON(w, http.StatusOK, wallets)
}

func (s *Server) handleUserKYCStatus(w http.ResponseWriter, r *http.Request) {
	summary, err := s.engine.KYCStatus(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleBotTransactions(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := pageParams(r, ledger.DefaultHistoryLimit)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	walletId := chi.URLParam(r, "walletId")
	if _, err := s.store.GetWallet(r.Context(), walletId); err != nil {
		writeStoreError(w, r, err)
		return
	}

	entries, err := s.store.GetTransactionHistory(r.Context(), walletId, ledger.ClampLimit(limit), max(offset, 0))
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	if entries == nil {
		entries = []models.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleBotPiggyBank(w http.ResponseWriter, r *http.Request) {
	view, err := s.engine.PiggyBankView(r.Context(), chi.URLParam(r, "poolId"))
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// handleValidateTransaction previews the KYC decision for a user and amount.
func (s *Server) handleValidateTransaction(w http.ResponseWriter, r *http.Request) {
	var req validateTransactionRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}
	amount, err := ledger.ParseAmount(req.Amount.String())
	if err != nil {
		writeStoreError(w, r, err)
		return
	}

	decision, err := s.engine.ValidateTransaction(r.Context(), req.UserId, amount)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	if key := models.GetAPIKey(r.Context()); key != nil {
		zap.L().Info("Transaction validated for bot",
			zap.String("api_key", key.Name),
			zap.String("user_id", req.UserId),
			zap.Bool("allowed", decision.Allowed))
	}
	writeJSON(w, http.StatusOK, decision)
}
