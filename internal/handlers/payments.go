package handlers

import (
	"net/http"

	"officecrm/db"
	"officecrm/internal/authz"
	"officecrm/internal/events"
	"officecrm/internal/logging"
	"officecrm/models"
)

func (h *Handler) ListPaymentsHandler(w http.ResponseWriter, r *http.Request) {
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
	f := db.PaymentFilter{TenantID: tenantID, ContractID: contractID, Limit: page.Limit, Offset: page.Offset}
	if s := r.URL.Query().Get("status"); s != "" {
		status := models.PaymentStatus(s)
		f.Status = &status
	}

	payments, err := h.Store.ListPayments(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, payments)
}

func (h *Handler) GetPaymentHandler(w http.ResponseWriter, r *http.Request) {
	p, err := h.principal(r, models.RoleAdmin, models.RoleTenant)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := pathID(r, "paymentId")
	if err != nil {
		writeError(w, r, err)
		return
	}

	payment, err := h.Store.GetPayment(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := authz.CheckOwner(p, payment.TenantID); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, payment)
}

// CreatePaymentHandler обрабатывает POST /api/payments.
// Арендатор создает платежи только по своим договорам и только неоплаченными.
func (h *Handler) CreatePaymentHandler(w http.ResponseWriter, r *http.Request) {
	p, err := h.principal(r, models.RoleAdmin, models.RoleTenant)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var payment models.Payment
	if err := h.decode(w, r, &payment); err != nil {
		writeError(w, r, err)
		return
	}
	if p.IsTenant() {
		contract, err := h.Store.GetContract(r.Context(), payment.ContractID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if err := authz.CheckOwner(p, contract.TenantID); err != nil {
			writeError(w, r, err)
			return
		}
		payment.Status = models.PaymentUnpaid
		payment.PaymentDate = nil
	}

	if err := h.Store.CreatePayment(r.Context(), &payment); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, payment)
}

func (h *Handler) UpdatePaymentHandler(w http.ResponseWriter, r *http.Request) {
	if _, err := h.principal(r, models.RoleAdmin); err != nil {
		writeError(w, r, err)
		return
	}
	id, err := pathID(r, "paymentId")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var patch models.PaymentPatch
	if err := h.decode(w, r, &patch); err != nil {
		writeError(w, r, err)
		return
	}
	payment, err := h.Store.UpdatePayment(r.Context(), id, patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, payment)
}

func (h *Handler) DeletePaymentHandler(w http.ResponseWriter, r *http.Request) {
	if _, err := h.principal(r, models.RoleAdmin); err != nil {
		writeError(w, r, err)
		return
	}
	id, err := pathID(r, "paymentId")
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.Store.DeletePayment(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type sweepResponse struct {
	AsOf    models.Date `json:"asOf"`
	Updated int64       `json:"updated"`
}

// SweepOverduePaymentsHandler обрабатывает POST /api/payments/sweep-overdue?asOf=YYYY-MM-DD
// Повторный вызов с той же датой ничего не меняет.
func (h *Handler) SweepOverduePaymentsHandler(w http.ResponseWriter, r *http.Request) {
	if _, err := h.principal(r, models.RoleAdmin, models.RoleStaff); err != nil {
		writeError(w, r, err)
		return
	}
	asOf, err := queryDate(r, "asOf")
	if err != nil {
		writeError(w, r, err)
		return
	}
	day := h.today()
	if asOf != nil {
		day = *asOf
	}

	n, err := h.Store.SweepOverduePayments(r.Context(), day)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if h.Metrics != nil {
		h.Metrics.ObserveSweep(n)
	}
	if n > 0 {
		h.emit(r, events.New(events.PaymentsOverdueSwept, 0, 0, sweepResponse{AsOf: day, Updated: n}))
	}
	logging.Op().Info("overdue sweep requested", "as_of", day.String(), "updated", n)
	writeJSON(w, http.StatusOK, sweepResponse{AsOf: day, Updated: n})
}
