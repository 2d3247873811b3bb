package handlers

import (
	"context"

	"officecrm/db"
	"officecrm/models"
)

type StorageInterface interface {
	ListOffices(ctx context.Context, f db.OfficeFilter) ([]models.Office, error)
	GetOffice(ctx context.Context, id int) (*models.Office, error)
	CreateOffice(ctx context.Context, o *models.Office) error
	UpdateOffice(ctx context.Context, id int, p models.OfficePatch) (*models.Office, error)
	DeleteOffice(ctx context.Context, id int) error
	CheckOfficeAvailability(ctx context.Context, officeID int, rng models.DateRange) (*models.Availability, error)

	ListTenants(ctx context.Context, f db.TenantFilter) ([]models.Tenant, error)
	GetTenant(ctx context.Context, id int) (*models.Tenant, error)
	CreateTenant(ctx context.Context, t *models.Tenant) error
	UpdateTenant(ctx context.Context, id int, p models.TenantPatch) (*models.Tenant, error)
	DeleteTenant(ctx context.Context, id int) error

	ListBookings(ctx context.Context, f db.BookingFilter) ([]models.Booking, error)
	GetBooking(ctx context.Context, id int) (*models.Booking, error)
	CreateBooking(ctx context.Context, b *models.Booking) error
	UpdateBooking(ctx context.Context, id int, p models.BookingPatch) (*models.Booking, error)
	DeleteBooking(ctx context.Context, id int) error

	ListContracts(ctx context.Context, f db.ContractFilter) ([]models.Contract, error)
	GetContract(ctx context.Context, id int) (*models.Contract, error)
	CreateContract(ctx context.Context, c *models.Contract) error
	UpdateContract(ctx context.Context, id int, p models.ContractPatch) (*models.Contract, error)
	DeleteContract(ctx context.Context, id int) error

	ListPayments(ctx context.Context, f db.PaymentFilter) ([]models.Payment, error)
	GetPayment(ctx context.Context, id int) (*models.Payment, error)
	CreatePayment(ctx context.Context, p *models.Payment) error
	UpdatePayment(ctx context.Context, id int, p models.PaymentPatch) (*models.Payment, error)
	DeletePayment(ctx context.Context, id int) error
	SweepOverduePayments(ctx context.Context, asOf models.Date) (int64, error)

	ListRequests(ctx context.Context, f db.RequestFilter) ([]models.Request, error)
	GetRequest(ctx context.Context, id int) (*models.Request, error)
	CreateRequest(ctx context.Context, r *models.Request) error
	UpdateRequest(ctx context.Context, id int, p models.RequestPatch) (*models.Request, error)
	DeleteRequest(ctx context.Context, id int) error

	RegisterTenant(ctx context.Context, t *models.Tenant, u *models.User) error
	CreateUser(ctx context.Context, u *models.User) error
	GetUserByPhone(ctx context.Context, phone string) (*models.User, error)
	GetUser(ctx context.Context, id int) (*models.User, error)

	Ping(ctx context.Context) error
}

var _ StorageInterface = (*db.Storage)(nil)
