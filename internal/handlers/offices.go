package handlers

import (
	"net/http"

	"officecrm/db"
	"officecrm/internal/apperr"
	"officecrm/models"
)

// ListOfficesHandler обрабатывает GET /api/offices?status=&floor=
func (h *Handler) ListOfficesHandler(w http.ResponseWriter, r *http.Request) {
	if _, err := h.principal(r, models.RoleAdmin, models.RoleTenant, models.RoleStaff); err != nil {
		writeError(w, r, err)
		return
	}

	floor, err := queryInt(r, "floor")
	if err != nil {
		writeError(w, r, err)
		return
	}
	page := parsePaginationParams(r)
	f := db.OfficeFilter{Floor: floor, Limit: page.Limit, Offset: page.Offset}
	if s := r.URL.Query().Get("status"); s != "" {
		status := models.OfficeStatus(s)
		f.Status = &status
	}

	offices, err := h.Store.ListOffices(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, offices)
}

func (h *Handler) GetOfficeHandler(w http.ResponseWriter, r *http.Request) {
	if _, err := h.principal(r, models.RoleAdmin, models.RoleTenant, models.RoleStaff); err != nil {
		writeError(w, r, err)
		return
	}
	id, err := pathID(r, "officeId")
	if err != nil {
		writeError(w, r, err)
		return
	}

	office, err := h.Store.GetOffice(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, office)
}

// CreateOfficeHandler обрабатывает POST /api/offices
func (h *Handler) CreateOfficeHandler(w http.ResponseWriter, r *http.Request) {
	if _, err := h.principal(r, models.RoleAdmin); err != nil {
		writeError(w, r, err)
		return
	}

	var office models.Office
	if err := h.decode(w, r, &office); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Store.CreateOffice(r.Context(), &office); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, office)
}

func (h *Handler) UpdateOfficeHandler(w http.ResponseWriter, r *http.Request) {
	if _, err := h.principal(r, models.RoleAdmin); err != nil {
		writeError(w, r, err)
		return
	}
	id, err := pathID(r, "officeId")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var patch models.OfficePatch
	if err := h.decode(w, r, &patch); err != nil {
		writeError(w, r, err)
		return
	}
	office, err := h.Store.UpdateOffice(r.Context(), id, patch)
	if err != nil {
		h.reject(w, r, "office", err)
		return
	}
	writeJSON(w, http.StatusOK, office)
}

func (h *Handler) DeleteOfficeHandler(w http.ResponseWriter, r *http.Request) {
	if _, err := h.principal(r, models.RoleAdmin); err != nil {
		writeError(w, r, err)
		return
	}
	id, err := pathID(r, "officeId")
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.Store.DeleteOffice(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// OfficeAvailabilityHandler обрабатывает GET /api/offices/{officeId}/availability?start=&end=
// и только читает данные, ничего не блокируя.
func (h *Handler) OfficeAvailabilityHandler(w http.ResponseWriter, r *http.Request) {
	if _, err := h.principal(r, models.RoleAdmin, models.RoleTenant, models.RoleStaff); err != nil {
		writeError(w, r, err)
		return
	}
	id, err := pathID(r, "officeId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	start, err := queryDate(r, "start")
	if err != nil {
		writeError(w, r, err)
		return
	}
	end, err := queryDate(r, "end")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if start == nil || end == nil {
		writeError(w, r, apperr.New(apperr.Invalid, "start and end are required"))
		return
	}

	a, err := h.Store.CheckOfficeAvailability(r.Context(), id, models.DateRange{Start: *start, End: *end})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}
