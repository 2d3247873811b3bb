package handlers

import (
	"net/http"

	"officecrm/db"
	"officecrm/internal/authz"
	"officecrm/internal/events"
	"officecrm/models"
)

func (h *Handler) ListContractsHandler(w http.ResponseWriter, r *http.Request) {
	p, err := h.principal(r, models.RoleAdmin, models.RoleTenant)
	if err != nil {
		writeError(w, r, err)
		return
	}
	scope, err := authz.OwnerScope(p)
	if err != nil {
		writeError(w, r, err)
		return
	}

	officeID, err := queryInt(r, "officeId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	tenantID, err := queryInt(r, "tenantId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if scope != nil {
		tenantID = scope
	}

	page := parsePaginationParams(r)
	f := db.ContractFilter{TenantID: tenantID, OfficeID: officeID, Limit: page.Limit, Offset: page.Offset}
	if s := r.URL.Query().Get("status"); s != "" {
		status := models.ContractStatus(s)
		f.Status = &status
	}

	contracts, err := h.Store.ListContracts(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, contracts)
}

func (h *Handler) GetContractHandler(w http.ResponseWriter, r *http.Request) {
	p, err := h.principal(r, models.RoleAdmin, models.RoleTenant)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := pathID(r, "contractId")
	if err != nil {
		writeError(w, r, err)
		return
	}

	contract, err := h.Store.GetContract(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := authz.CheckOwner(p, contract.TenantID); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, contract)
}

// CreateContractHandler обрабатывает POST /api/contracts. Офис должен быть свободен,
// после создания он становится занятым.
func (h *Handler) CreateContractHandler(w http.ResponseWriter, r *http.Request) {
	if _, err := h.principal(r, models.RoleAdmin); err != nil {
		writeError(w, r, err)
		return
	}

	var contract models.Contract
	if err := h.decode(w, r, &contract); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Store.CreateContract(r.Context(), &contract); err != nil {
		h.reject(w, r, "contract", err)
		return
	}
	h.emit(r, events.New(events.ContractCreated, contract.OfficeID, contract.ID, contract))
	writeJSON(w, http.StatusCreated, contract)
}

func (h *Handler) UpdateContractHandler(w http.ResponseWriter, r *http.Request) {
	if _, err := h.principal(r, models.RoleAdmin); err != nil {
		writeError(w, r, err)
		return
	}
	id, err := pathID(r, "contractId")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var patch models.ContractPatch
	if err := h.decode(w, r, &patch); err != nil {
		writeError(w, r, err)
		return
	}
	before, err := h.Store.GetContract(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	contract, err := h.Store.UpdateContract(r.Context(), id, patch)
	if err != nil {
		h.reject(w, r, "contract", err)
		return
	}
	if before.Active() && !contract.Active() {
		h.emit(r, events.New(events.ContractTerminated, contract.OfficeID, contract.ID, contract))
	}
	writeJSON(w, http.StatusOK, contract)
}

func (h *Handler) DeleteContractHandler(w http.ResponseWriter, r *http.Request) {
	if _, err := h.principal(r, models.RoleAdmin); err != nil {
		writeError(w, r, err)
		return
	}
	id, err := pathID(r, "contractId")
	if err != nil {
		writeError(w, r, err)
		return
	}

	contract, err := h.Store.GetContract(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Store.DeleteContract(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	if contract.Active() {
		h.emit(r, events.New(events.ContractTerminated, contract.OfficeID, contract.ID, nil))
	}
	w.WriteHeader(http.StatusNoContent)
}
