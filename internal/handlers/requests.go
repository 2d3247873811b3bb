package handlers

import (
	"net/http"

	"officecrm/db"
	"officecrm/internal/apperr"
	"officecrm/internal/authz"
	"officecrm/models"
)

func (h *Handler) ListRequestsHandler(w http.ResponseWriter, r *http.Request) {
	p, err := h.principal(r, models.RoleAdmin, models.RoleTenant, models.RoleStaff)
	if err != nil {
		writeError(w, r, err)
		return
	}
	scope, err := authz.OwnerScope(p)
	if err != nil {
		writeError(w, r, err)
		return
	}

	contractID, err := queryInt(r, "contractId")
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
	f := db.RequestFilter{TenantID: tenantID, ContractID: contractID, Limit: page.Limit, Offset: page.Offset}
	if s := r.URL.Query().Get("status"); s != "" {
		status := models.RequestStatus(s)
		f.Status = &status
	}

	requests, err := h.Store.ListRequests(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, requests)
}

func (h *Handler) GetRequestHandler(w http.ResponseWriter, r *http.Request) {
	p, err := h.principal(r, models.RoleAdmin, models.RoleTenant, models.RoleStaff)
	if err != nil {
		writeError(w, r, err)
		return
	}
	req, err := h.ownedRequest(r, p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

// CreateRequestHandler обрабатывает POST /api/requests. Новая заявка всегда в статусе new,
// если ее создает арендатор.
func (h *Handler) CreateRequestHandler(w http.ResponseWriter, r *http.Request) {
	p, err := h.principal(r, models.RoleAdmin, models.RoleTenant)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req models.Request
	if err := h.decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if p.IsTenant() {
		contract, err := h.Store.GetContract(r.Context(), req.ContractID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if err := authz.CheckOwner(p, contract.TenantID); err != nil {
			writeError(w, r, err)
			return
		}
		req.Status = models.RequestNew
	}

	if err := h.Store.CreateRequest(r.Context(), &req); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

// UpdateRequestHandler: персонал меняет только статус, арендатор только текст своей заявки.
func (h *Handler) UpdateRequestHandler(w http.ResponseWriter, r *http.Request) {
	p, err := h.principal(r, models.RoleAdmin, models.RoleTenant, models.RoleStaff)
	if err != nil {
		writeError(w, r, err)
		return
	}
	current, err := h.ownedRequest(r, p)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var patch models.RequestPatch
	if err := h.decode(w, r, &patch); err != nil {
		writeError(w, r, err)
		return
	}
	switch p.Role {
	case models.RoleStaff:
		if !patch.StatusOnly() {
			writeError(w, r, apperr.New(apperr.Forbidden, "staff may only change the request status"))
			return
		}
	case models.RoleTenant:
		if patch.Status != nil {
			writeError(w, r, apperr.New(apperr.Forbidden, "tenants may not change the request status"))
			return
		}
	}

	req, err := h.Store.UpdateRequest(r.Context(), current.ID, patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (h *Handler) DeleteRequestHandler(w http.ResponseWriter, r *http.Request) {
	p, err := h.principal(r, models.RoleAdmin, models.RoleTenant)
	if err != nil {
		writeError(w, r, err)
		return
	}
	req, err := h.ownedRequest(r, p)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.Store.DeleteRequest(r.Context(), req.ID); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ownedRequest(r *http.Request, p *authz.Principal) (*models.Request, error) {
	id, err := pathID(r, "requestId")
	if err != nil {
		return nil, err
	}
	req, err := h.Store.GetRequest(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if err := authz.CheckOwner(p, req.TenantID); err != nil {
		return nil, err
	}
	return req, nil
}
