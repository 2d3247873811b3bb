package handlers

import (
	"net/http"

	"officecrm/db"
	"officecrm/internal/apperr"
	"officecrm/internal/authz"
	"officecrm/internal/events"
	"officecrm/models"
)

// ListBookingsHandler обрабатывает GET /api/bookings?officeId=&tenantId=&status=
// Арендатор видит только свои брони, параметр tenantId для него игнорируется.
func (h *Handler) ListBookingsHandler(w http.ResponseWriter, r *http.Request) {
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
	f := db.BookingFilter{TenantID: tenantID, OfficeID: officeID, Limit: page.Limit, Offset: page.Offset}
	if s := r.URL.Query().Get("status"); s != "" {
		status := models.BookingStatus(s)
		f.Status = &status
	}

	bookings, err := h.Store.ListBookings(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bookings)
}

func (h *Handler) GetBookingHandler(w http.ResponseWriter, r *http.Request) {
	p, err := h.principal(r, models.RoleAdmin, models.RoleTenant, models.RoleStaff)
	if err != nil {
		writeError(w, r, err)
		return
	}
	booking, err := h.ownedBooking(r, p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

// CreateBookingHandler обрабатывает POST /api/bookings
func (h *Handler) CreateBookingHandler(w http.ResponseWriter, r *http.Request) {
	p, err := h.principal(r, models.RoleAdmin, models.RoleTenant)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var booking models.Booking
	if err := h.decode(w, r, &booking); err != nil {
		writeError(w, r, err)
		return
	}
	if p.IsTenant() {
		// арендатор бронирует только на себя
		own, err := authz.OwnTenant(p)
		if err != nil {
			writeError(w, r, err)
			return
		}
		booking.TenantID = own
	} else if booking.TenantID <= 0 {
		writeError(w, r, apperr.New(apperr.Invalid, "tenantId is required"))
		return
	}

	if err := h.Store.CreateBooking(r.Context(), &booking); err != nil {
		h.reject(w, r, "booking", err)
		return
	}
	h.emit(r, events.New(events.BookingCreated, booking.OfficeID, booking.ID, booking))
	writeJSON(w, http.StatusCreated, booking)
}

func (h *Handler) UpdateBookingHandler(w http.ResponseWriter, r *http.Request) {
	p, err := h.principal(r, models.RoleAdmin, models.RoleTenant)
	if err != nil {
		writeError(w, r, err)
		return
	}
	current, err := h.ownedBooking(r, p)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var patch models.BookingPatch
	if err := h.decode(w, r, &patch); err != nil {
		writeError(w, r, err)
		return
	}
	booking, err := h.Store.UpdateBooking(r.Context(), current.ID, patch)
	if err != nil {
		h.reject(w, r, "booking", err)
		return
	}
	h.emit(r, events.New(events.BookingUpdated, booking.OfficeID, booking.ID, booking))
	writeJSON(w, http.StatusOK, booking)
}

func (h *Handler) DeleteBookingHandler(w http.ResponseWriter, r *http.Request) {
	p, err := h.principal(r, models.RoleAdmin, models.RoleTenant)
	if err != nil {
		writeError(w, r, err)
		return
	}
	booking, err := h.ownedBooking(r, p)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.Store.DeleteBooking(r.Context(), booking.ID); err != nil {
		writeError(w, r, err)
		return
	}
	h.emit(r, events.New(events.BookingDeleted, booking.OfficeID, booking.ID, nil))
	w.WriteHeader(http.StatusNoContent)
}

// ownedBooking загружает бронь из пути и проверяет владельца.
// tenant_id брони не меняется, поэтому проверка вне транзакции обновления достаточна.
func (h *Handler) ownedBooking(r *http.Request, p *authz.Principal) (*models.Booking, error) {
	id, err := pathID(r, "bookingId")
	if err != nil {
		return nil, err
	}
	booking, err := h.Store.GetBooking(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if err := authz.CheckOwner(p, booking.TenantID); err != nil {
		return nil, err
	}
	return booking, nil
}
