package api

import (
	"encoding/json"
	"net/http"

	"wallet-ledger-go/internal/ledger"
	"wallet-ledger-go/internal/models"

	"github.com/go-chi/chi/v5"
)

type createWalletRequest struct {
	Name string `json:"name" validate:"omitempty,max=100"`
}

type depositRequest struct {
	Amount         json.Number `json:"amount" validate:"required"`
	Description    string      `json:"description" validate:"max=255"`
	IdempotencyKey string      `json:"idempotency_key" validate:"omitempty,max=128"`
}

type transferRequest struct {
	RecipientWalletId string      `json:"recipient_wallet_id" validate:"required"`
	Amount            json.Number `json:"amount" validate:"required"`
	Description       string      `json:"description" validate:"max=255"`
}

func (s *Server) handleCreateWallet(w http.ResponseWriter, r *http.Request) {
	var req createWalletRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}
	wallet, err := s.engine.CreateWallet(r.Context(), models.GetActor(r.Context()), req.Name)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, wallet)
}

func (s *Server) handleListWallets(w http.ResponseWriter, r *http.Request) {
	wallets, err := s.engine.ListWallets(r.Context(), models.GetActor(r.Context()))
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	if wallets == nil {
		wallets = []models.Wallet{}
	}
	writeJSON(w, http.StatusOK, wallets)
}

func (s *Server) handleGetWallet(w http.ResponseWriter, r *http.Request) {
	wallet, err := s.engine.GetWallet(r.Context(), models.GetActor(r.Context()), chi.URLParam(r, "walletId"))
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, wallet)
}

func (s *Server) handleDeactivateWallet(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.DeactivateWallet(r.Context(), models.GetActor(r.Context()), chi.URLParam(r, "walletId")); err != nil {
		writeStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeposit(w http.ResponseWriter, r *http.Request) {
	var req depositRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}
	amount, err := ledger.ParseAmount(req.Amount.String())
	if err != nil {
		writeStoreError(w, r, err)
		return
	}

	entry, err := s.engine.Deposit(r.Context(), models.GetActor(r.Context()), chi.URLParam(r, "walletId"),
		amount, req.Description, req.IdempotencyKey)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}
	amount, err := ledger.ParseAmount(req.Amount.String())
	if err != nil {
		writeStoreError(w, r, err)
		return
	}

	result, err := s.engine.Transfer(r.Context(), models.GetActor(r.Context()), chi.URLParam(r, "walletId"),
		req.RecipientWalletId, amount, req.Description)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := pageParams(r, ledger.DefaultHistoryLimit)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	entries, err := s.engine.ListTransactions(r.Context(), models.GetActor(r.Context()), chi.URLParam(r, "walletId"), limit, offset)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	if entries == nil {
		entries = []models.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleKYCStatus(w http.ResponseWriter, r *http.Request) {
	summary, err := s.engine.KYCStatus(r.Context(), models.GetActor(r.Context()))
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
