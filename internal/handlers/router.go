package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"officecrm/internal/auth"
)

// PublicPaths не требуют токена.
var PublicPaths = []string{"/api/ping", "/api/auth/register", "/api/auth/login"}

// RouterOptions задает middleware вокруг API. Пустые поля отключают соответствующий слой.
type RouterOptions struct {
	Verifier auth.Verifier
	Revoker  auth.Revoker
	// Tracing оборачивает каждый запрос в span, например observability.Provider.HTTPMiddleware.
	Tracing func(http.Handler) http.Handler
	// AccessLog включает chi middleware.Logger.
	AccessLog bool
}

// NewRouter собирает chi роутер со всеми маршрутами /api и /metrics.
func NewRouter(h *Handler, opts RouterOptions) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	if opts.AccessLog {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)
	if opts.Tracing != nil {
		r.Use(opts.Tracing)
	}
	if h.Metrics != nil {
		r.Use(h.Metrics.Middleware)
		r.Handle("/metrics", h.Metrics.Handler())
	}

	revoker := opts.Revoker
	if revoker == nil {
		revoker = h.Revoker
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(auth.Middleware(opts.Verifier, revoker, PublicPaths))

		r.Get("/ping", h.PingHandler)
		// учетные записи
		r.Post("/auth/register", h.RegisterHandler)
		r.Post("/auth/login", h.LoginHandler)
		r.Post("/auth/logout", h.LogoutHandler)
		r.Get("/users/me", h.MeHandler)
		r.Post("/users", h.CreateUserHandler)

		// офисы
		r.Get("/offices", h.ListOfficesHandler)
		r.Post("/offices", h.CreateOfficeHandler)
		r.Get("/offices/{officeId}", h.GetOfficeHandler)
		r.Patch("/offices/{officeId}", h.UpdateOfficeHandler)
		r.Delete("/offices/{officeId}", h.DeleteOfficeHandler)
		r.Get("/offices/{officeId}/availability", h.OfficeAvailabilityHandler)

		// арендаторы
		r.Get("/tenants", h.ListTenantsHandler)
		r.Post("/tenants", h.CreateTenantHandler)
		r.Get("/tenants/{tenantId}", h.GetTenantHandler)
		r.Patch("/tenants/{tenantId}", h.UpdateTenantHandler)
		r.Delete("/tenants/{tenantId}", h.DeleteTenantHandler)

		// брони
		r.Get("/bookings", h.ListBookingsHandler)
		r.Post("/bookings", h.CreateBookingHandler)
		r.Get("/bookings/{bookingId}", h.GetBookingHandler)
		r.Patch("/bookings/{bookingId}", h.UpdateBookingHandler)
		r.Delete("/bookings/{bookingId}", h.DeleteBookingHandler)

		// договоры
		r.Get("/contracts", h.ListContractsHandler)
		r.Post("/contracts", h.CreateContractHandler)
		r.Get("/contracts/{contractId}", h.GetContractHandler)
		r.Patch("/contracts/{contractId}", h.UpdateContractHandler)
		r.Delete("/contracts/{contractId}", h.DeleteContractHandler)

		// платежи
		r.Get("/payments", h.ListPaymentsHandler)
		r.Post("/payments", h.CreatePaymentHandler)
		r.Post("/payments/sweep-overdue", h.SweepOverduePaymentsHandler)
		r.Get("/payments/{paymentId}", h.GetPaymentHandler)
		r.Patch("/payments/{paymentId}", h.UpdatePaymentHandler)
		r.Delete("/payments/{paymentId}", h.DeletePaymentHandler)

		// заявки
		r.Get("/requests", h.ListRequestsHandler)
		r.Post("/requests", h.CreateRequestHandler)
		r.Get("/requests/{requestId}", h.GetRequestHandler)
		r.Patch("/requests/{requestId}", h.UpdateRequestHandler)
		r.Delete("/requests/{requestId}", h.DeleteRequestHandler)
	})

	return r
}
