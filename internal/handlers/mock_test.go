package handlers_test

import (
	"context"
	"sync"

	"officecrm/db"
	"officecrm/internal/apperr"
	"officecrm/internal/events"
	"officecrm/models"
)

// MockStorage реализует StorageInterface. Незаданные Func поля возвращают пустой результат,
// Get-методы без Func возвращают NotFound.
type MockStorage struct {
	PingFunc func(ctx context.Context) error

	ListOfficesFunc             func(ctx context.Context, f db.OfficeFilter) ([]models.Office, error)
	GetOfficeFunc               func(ctx context.Context, id int) (*models.Office, error)
	CreateOfficeFunc            func(ctx context.Context, o *models.Office) error
	UpdateOfficeFunc            func(ctx context.Context, id int, p models.OfficePatch) (*models.Office, error)
	CheckOfficeAvailabilityFunc func(ctx context.Context, officeID int, rng models.DateRange) (*models.Availability, error)

	ListTenantsFunc func(ctx context.Context, f db.TenantFilter) ([]models.Tenant, error)
	GetTenantFunc   func(ctx context.Context, id int) (*models.Tenant, error)

	ListBookingsFunc  func(ctx context.Context, f db.BookingFilter) ([]models.Booking, error)
	GetBookingFunc    func(ctx context.Context, id int) (*models.Booking, error)
	CreateBookingFunc func(ctx context.Context, b *models.Booking) error
	UpdateBookingFunc func(ctx context.Context, id int, p models.BookingPatch) (*models.Booking, error)
	DeleteBookingFunc func(ctx context.Context, id int) error

	ListContractsFunc  func(ctx context.Context, f db.ContractFilter) ([]models.Contract, error)
	GetContractFunc    func(ctx context.Context, id int) (*models.Contract, error)
	CreateContractFunc func(ctx context.Context, c *models.Contract) error
	UpdateContractFunc func(ctx context.Context, id int, p models.ContractPatch) (*models.Contract, error)
	DeleteContractFunc func(ctx context.Context, id int) error

	ListPaymentsFunc         func(ctx context.Context, f db.PaymentFilter) ([]models.Payment, error)
	GetPaymentFunc           func(ctx context.Context, id int) (*models.Payment, error)
	CreatePaymentFunc        func(ctx context.Context, p *models.Payment) error
	SweepOverduePaymentsFunc func(ctx context.Context, asOf models.Date) (int64, error)

	ListRequestsFunc  func(ctx context.Context, f db.RequestFilter) ([]models.Request, error)
	GetRequestFunc    func(ctx context.Context, id int) (*models.Request, error)
	CreateRequestFunc func(ctx context.Context, r *models.Request) error
	UpdateRequestFunc func(ctx context.Context, id int, p models.RequestPatch) (*models.Request, error)

	RegisterTenantFunc func(ctx context.Context, t *models.Tenant, u *models.User) error
	CreateUserFunc     func(ctx context.Context, u *models.User) error
	GetUserByPhoneFunc func(ctx context.Context, phone string) (*models.User, error)
	GetUserFunc        func(ctx context.Context, id int) (*models.User, error)
}

func notFound() error { return apperr.New(apperr.NotFound, "not found") }

func (m *MockStorage) Ping(ctx context.Context) error {
	if m.PingFunc != nil {
		return m.PingFunc(ctx)
	}
	return nil
}

func (m *MockStorage) ListOffices(ctx context.Context, f db.OfficeFilter) ([]models.Office, error) {
	if m.ListOfficesFunc != nil {
		return m.ListOfficesFunc(ctx, f)
	}
	return []models.Office{}, nil
}

func (m *MockStorage) GetOffice(ctx context.Context, id int) (*models.Office, error) {
	if m.GetOfficeFunc != nil {
		return m.GetOfficeFunc(ctx, id)
	}
	return nil, notFound()
}

func (m *MockStorage) CreateOffice(ctx context.Context, o *models.Office) error {
	if m.CreateOfficeFunc != nil {
		return m.CreateOfficeFunc(ctx, o)
	}
	o.ID = 1
	return nil
}

func (m *MockStorage) UpdateOffice(ctx context.Context, id int, p models.OfficePatch) (*models.Office, error) {
	if m.UpdateOfficeFunc != nil {
		return m.UpdateOfficeFunc(ctx, id, p)
	}
	return nil, notFound()
}

func (m *MockStorage) DeleteOffice(ctx context.Context, id int) error { return nil }

func (m *MockStorage) CheckOfficeAvailability(ctx context.Context, officeID int, rng models.DateRange) (*models.Availability, error) {
	if m.CheckOfficeAvailabilityFunc != nil {
		return m.CheckOfficeAvailabilityFunc(ctx, officeID, rng)
	}
	return &models.Availability{OfficeID: officeID, Range: rng, Available: true, Conflicts: []models.Reservation{}}, nil
}

func (m *MockStorage) ListTenants(ctx context.Context, f db.TenantFilter) ([]models.Tenant, error) {
	if m.ListTenantsFunc != nil {
		return m.ListTenantsFunc(ctx, f)
	}
	return []models.Tenant{}, nil
}

func (m *MockStorage) GetTenant(ctx context.Context, id int) (*models.Tenant, error) {
	if m.GetTenantFunc != nil {
		return m.GetTenantFunc(ctx, id)
	}
	return nil, notFound()
}

func (m *MockStorage) CreateTenant(ctx context.Context, t *models.Tenant) error { return nil }

func (m *MockStorage) UpdateTenant(ctx context.Context, id int, p models.TenantPatch) (*models.Tenant, error) {
	return nil, notFound()
}

func (m *MockStorage) DeleteTenant(ctx context.Context, id int) error { return nil }

func (m *MockStorage) ListBookings(ctx context.Context, f db.BookingFilter) ([]models.Booking, error) {
	if m.ListBookingsFunc != nil {
		return m.ListBookingsFunc(ctx, f)
	}
	return []models.Booking{}, nil
}

func (m *MockStorage) GetBooking(ctx context.Context, id int) (*models.Booking, error) {
	if m.GetBookingFunc != nil {
		return m.GetBookingFunc(ctx, id)
	}
	return nil, notFound()
}

func (m *MockStorage) CreateBooking(ctx context.Context, b *models.Booking) error {
	if m.CreateBookingFunc != nil {
		return m.CreateBookingFunc(ctx, b)
	}
	b.ID = 1
	b.Status = models.BookingActive
	return nil
}

func (m *MockStorage) UpdateBooking(ctx context.Context, id int, p models.BookingPatch) (*models.Booking, error) {
	if m.UpdateBookingFunc != nil {
		return m.UpdateBookingFunc(ctx, id, p)
	}
	return nil, notFound()
}

func (m *MockStorage) DeleteBooking(ctx context.Context, id int) error {
	if m.DeleteBookingFunc != nil {
		return m.DeleteBookingFunc(ctx, id)
	}
	return nil
}

func (m *MockStorage) ListContracts(ctx context.Context, f db.ContractFilter) ([]models.Contract, error) {
	if m.ListContractsFunc != nil {
		return m.ListContractsFunc(ctx, f)
	}
	return []models.Contract{}, nil
}

func (m *MockStorage) GetContract(ctx context.Context, id int) (*models.Contract, error) {
	if m.GetContractFunc != nil {
		return m.GetContractFunc(ctx, id)
	}
	return nil, notFound()
}

func (m *MockStorage) CreateContract(ctx context.Context, c *models.Contract) error {
	if m.CreateContractFunc != nil {
		return m.CreateContractFunc(ctx, c)
	}
	c.ID = 1
	c.Status = models.ContractActive
	return nil
}

func (m *MockStorage) UpdateContract(ctx context.Context, id int, p models.ContractPatch) (*models.Contract, error) {
	if m.UpdateContractFunc != nil {
		return m.UpdateContractFunc(ctx, id, p)
	}
	return nil, notFound()
}

func (m *MockStorage) DeleteContract(ctx context.Context, id int) error {
	if m.DeleteContractFunc != nil {
		return m.DeleteContractFunc(ctx, id)
	}
	return nil
}

func (m *MockStorage) ListPayments(ctx context.Context, f db.PaymentFilter) ([]models.Payment, error) {
	if m.ListPaymentsFunc != nil {
		return m.ListPaymentsFunc(ctx, f)
	}
	return []models.Payment{}, nil
}

func (m *MockStorage) GetPayment(ctx context.Context, id int) (*models.Payment, error) {
	if m.GetPaymentFunc != nil {
		return m.GetPaymentFunc(ctx, id)
	}
	return nil, notFound()
}

func (m *MockStorage) CreatePayment(ctx context.Context, p *models.Payment) error {
	if m.CreatePaymentFunc != nil {
		return m.CreatePaymentFunc(ctx, p)
	}
	p.ID = 1
	return nil
}

func (m *MockStorage) UpdatePayment(ctx context.Context, id int, p models.PaymentPatch) (*models.Payment, error) {
	return nil, notFound()
}

func (m *MockStorage) DeletePayment(ctx context.Context, id int) error { return nil }

func (m *MockStorage) SweepOverduePayments(ctx context.Context, asOf models.Date) (int64, error) {
	if m.SweepOverduePaymentsFunc != nil {
		return m.SweepOverduePaymentsFunc(ctx, asOf)
	}
	return 0, nil
}

func (m *MockStorage) ListRequests(ctx context.Context, f db.RequestFilter) ([]models.Request, error) {
	if m.ListRequestsFunc != nil {
		return m.ListRequestsFunc(ctx, f)
	}
	return []models.Request{}, nil
}

func (m *MockStorage) GetRequest(ctx context.Context, id int) (*models.Request, error) {
	if m.GetRequestFunc != nil {
		return m.GetRequestFunc(ctx, id)
	}
	return nil, notFound()
}

func (m *MockStorage) CreateRequest(ctx context.Context, r *models.Request) error {
	if m.CreateRequestFunc != nil {
		return m.CreateRequestFunc(ctx, r)
	}
	r.ID = 1
	return nil
}

func (m *MockStorage) UpdateRequest(ctx context.Context, id int, p models.RequestPatch) (*models.Request, error) {
	if m.UpdateRequestFunc != nil {
		return m.UpdateRequestFunc(ctx, id, p)
	}
	return nil, notFound()
}

func (m *MockStorage) DeleteRequest(ctx context.Context, id int) error { return nil }

func (m *MockStorage) RegisterTenant(ctx context.Context, t *models.Tenant, u *models.User) error {
	if m.RegisterTenantFunc != nil {
		return m.RegisterTenantFunc(ctx, t, u)
	}
	t.ID = 1
	u.ID = 1
	u.Role = models.RoleTenant
	u.TenantID = &t.ID
	return nil
}

func (m *MockStorage) CreateUser(ctx context.Context, u *models.User) error {
	if m.CreateUserFunc != nil {
		return m.CreateUserFunc(ctx, u)
	}
	u.ID = 1
	return nil
}

func (m *MockStorage) GetUserByPhone(ctx context.Context, phone string) (*models.User, error) {
	if m.GetUserByPhoneFunc != nil {
		return m.GetUserByPhoneFunc(ctx, phone)
	}
	return nil, notFound()
}

func (m *MockStorage) GetUser(ctx context.Context, id int) (*models.User, error) {
	if m.GetUserFunc != nil {
		return m.GetUserFunc(ctx, id)
	}
	return nil, notFound()
}

// recordingPublisher запоминает опубликованные события.
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}
