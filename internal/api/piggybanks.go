package api

import (
	"encoding/json"
	"net/http"

	"wallet-ledger-go/internal/ledger"
	"wallet-ledger-go/internal/models"

	"github.com/go-chi/chi/v5"
)

type createPiggyBankRequest struct {
	Name         string      `json:"name" validate:"required,max=100"`
	Description  string      `json:"description" validate:"max=500"`
	TargetAmount json.Number `json:"target_amount" validate:"required"`
}

type addMemberRequest struct {
	Username string `json:"username" validate:"required,max=50"`
}

type contributeRequest struct {
	WalletId string      `json:"wallet_id" validate:"required"`
	Amount   json.Number `json:"amount" validate:"required"`
}

type payRequest struct {
	RecipientWalletId string      `json:"recipient_wallet_id" validate:"required"`
	Amount            json.Number `json:"amount" validate:"required"`
	Description       string      `json:"description" validate:"max=255"`
}

func (s *Server) handleCreatePiggyBank(w http.ResponseWriter, r *http.Request) {
	var req createPiggyBankRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}
	target, err := ledger.ParseAmount(req.TargetAmount.String())
	if err != nil {
		writeStoreError(w, r, err)
		return
	}

	view, err := s.engine.CreatePiggyBank(r.Context(), models.GetActor(r.Context()), req.Name, req.Description, target)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

func (s *Server) handleListPiggyBanks(w http.ResponseWriter, r *http.Request) {
	views, err := s.engine.ListPiggyBanks(r.Context(), models.GetActor(r.Context()))
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleGetPiggyBank(w http.ResponseWriter, r *http.Request) {
	view, err := s.engine.GetPiggyBank(r.Context(), models.GetActor(r.Context()), chi.URLParam(r, "poolId"))
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleDeactivatePiggyBank(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.DeactivatePiggyBank(r.Context(), models.GetActor(r.Context()), chi.URLParam(r, "poolId")); err != nil {
		writeStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListMembers(w http.ResponseWriter, r *http.Request) {
	members, err := s.engine.Members(r.Context(), models.GetActor(r.Context()), chi.URLParam(r, "poolId"))
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	if members == nil {
		members = []models.Membership{}
	}
	writeJSON(w, http.StatusOK, members)
}

func (s *Server) handleAddMember(w http.ResponseWriter, r *http.Request) {
	var req addMemberRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}
	membership, err := s.engine.AddMember(r.Context(), models.GetActor(r.Context()), chi.URLParam(r, "poolId"), req.Username)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, membership)
}

func (s *Server) handleContribute(w http.ResponseWriter, r *http.Request) {
	var req contributeRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}
	amount, err := ledger.ParseAmount(req.Amount.String())
	if err != nil {
		writeStoreError(w, r, err)
		return
	}

	contribution, err := s.engine.Contribute(r.Context(), models.GetActor(r.Context()), chi.URLParam(r, "poolId"), req.WalletId, amount)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, contribution)
}

func (s *Server) handleListContributions(w http.ResponseWriter, r *http.Request) {
	contributions, err := s.engine.Contributions(r.Context(), models.GetActor(r.Context()), chi.URLParam(r, "poolId"))
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	if contributions == nil {
		contributions = []models.Contribution{}
	}
	writeJSON(w, http.StatusOK, contributions)
}

func (s *Server) handlePay(w http.ResponseWriter, r *http.Request) {
	var req payRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}
	amount, err := ledger.ParseAmount(req.Amount.String())
	if err != nil {
		writeStoreError(w, r, err)
		return
	}

	entry, err := s.engine.Disburse(r.Context(), models.GetActor(r.Context()), chi.URLParam(r, "poolId"),
		req.RecipientWalletId, amount, req.Description)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}
