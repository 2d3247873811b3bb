package handlers

import (
	"net/http"

	"officecrm/db"
	"officecrm/internal/authz"
	"officecrm/models"
)

// ListTenantsHandler обрабатывает GET /api/tenants?name=&phone=
func (h *Handler) ListTenantsHandler(w http.ResponseWriter, r *http.Request) {
	if _, err := h.principal(r, models.RoleAdmin, models.RoleStaff); err != nil {
		writeError(w, r, err)
		return
	}

	page := parsePaginationParams(r)
	tenants, err := h.Store.ListTenants(r.Context(), db.TenantFilter{
		Name:   r.URL.Query().Get("name"),
		Phone:  r.URL.Query().Get("phone"),
		Limit:  page.Limit,
		Offset: page.Offset,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tenants)
}

// GetTenantHandler: арендатор видит только свою карточку.
func (h *Handler) GetTenantHandler(w http.ResponseWriter, r *http.Request) {
	p, err := h.principal(r, models.RoleAdmin, models.RoleStaff, models.RoleTenant)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := pathID(r, "tenantId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := authz.CheckOwner(p, id); err != nil {
		writeError(w, r, err)
		return
	}

	tenant, err := h.Store.GetTenant(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tenant)
}

func (h *Handler) CreateTenantHandler(w http.ResponseWriter, r *http.Request) {
	if _, err := h.principal(r, models.RoleAdmin); err != nil {
		writeError(w, r, err)
		return
	}

	var tenant models.Tenant
	if err := h.decode(w, r, &tenant); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Store.CreateTenant(r.Context(), &tenant); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, tenant)
}

func (h *Handler) UpdateTenantHandler(w http.ResponseWriter, r *http.Request) {
	if _, err := h.principal(r, models.RoleAdmin); err != nil {
		writeError(w, r, err)
		return
	}
	id, err := pathID(r, "tenantId")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var patch models.TenantPatch
	if err := h.decode(w, r, &patch); err != nil {
		writeError(w, r, err)
		return
	}
	tenant, err := h.Store.UpdateTenant(r.Context(), id, patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tenant)
}

func (h *Handler) DeleteTenantHandler(w http.ResponseWriter, r *http.Request) {
	if _, err := h.principal(r, models.RoleAdmin); err != nil {
		writeError(w, r, err)
		return
	}
	id, err := pathID(r, "tenantId")
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.Store.DeleteTenant(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
