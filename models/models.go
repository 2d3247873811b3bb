package models

import "time"

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleTenant Role = "tenant"
	RoleStaff  Role = "staff"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleTenant, RoleStaff:
		return true
	}
	return false
}

type OfficeStatus string

const (
	OfficeFree        OfficeStatus = "free"
	OfficeOccupied    OfficeStatus = "occupied"
	OfficeReserved    OfficeStatus = "reserved"
	OfficeMaintenance OfficeStatus = "maintenance"
)

type ContractStatus string

const (
	ContractActive     ContractStatus = "active"
	ContractEnded      ContractStatus = "ended"
	ContractTerminated ContractStatus = "terminated"
)

type PaymentStatus string

const (
	PaymentUnpaid  PaymentStatus = "unpaid"
	PaymentPaid    PaymentStatus = "paid"
	PaymentOverdue PaymentStatus = "overdue"
)

type RequestStatus string

const (
	RequestNew        RequestStatus = "new"
	RequestInProgress RequestStatus = "in_progress"
	RequestDone       RequestStatus = "done"
	RequestRejected   RequestStatus = "rejected"
)

type BookingStatus string

const (
	BookingActive    BookingStatus = "active"
	BookingCancelled BookingStatus = "cancelled"
	BookingExpired   BookingStatus = "expired"
)

// Арендатор
type Tenant struct {
	ID               int    `db:"id" json:"id"`
	CompanyName      string `db:"company_name" json:"companyName" validate:"required,max=100"`
	ContactPerson    string `db:"contact_person" json:"contactPerson" validate:"required,max=100"`
	Phone            string `db:"phone" json:"phone" validate:"required,max=20"`
	RegistrationDate Date   `db:"registration_date" json:"registrationDate"`
}

// Офис
type Office struct {
	ID     int          `db:"id" json:"id"`
	Number string       `db:"number" json:"number" validate:"required,max=10"`
	Floor  int          `db:"floor" json:"floor" validate:"min=1"`
	Area   int          `db:"area" json:"area" validate:"gt=0"`
	Price  int          `db:"price" json:"price" validate:"gt=0"`
	Status OfficeStatus `db:"status" json:"status" validate:"omitempty,oneof=free reserved maintenance"`
}

// Договор
type Contract struct {
	ID          int            `db:"id" json:"id"`
	TenantID    int            `db:"tenant_id" json:"tenantId" validate:"required,gt=0"`
	OfficeID    int            `db:"office_id" json:"officeId" validate:"required,gt=0"`
	StartDate   Date           `db:"start_date" json:"startDate" validate:"required"`
	EndDate     Date           `db:"end_date" json:"endDate" validate:"required"`
	Price       int            `db:"price" json:"price" validate:"gt=0"`
	SigningDate Date           `db:"signing_date" json:"signingDate"`
	Status      ContractStatus `db:"status" json:"status"`
}

func (c *Contract) Range() DateRange { return DateRange{Start: c.StartDate, End: c.EndDate} }

func (c *Contract) Active() bool { return c.Status == ContractActive }

// Платеж. TenantID is resolved through the contract and is read-only.
type Payment struct {
	ID             int           `db:"id" json:"id"`
	ContractID     int           `db:"contract_id" json:"contractId" validate:"required,gt=0"`
	TenantID       int           `db:"tenant_id" json:"tenantId"`
	GenerationDate Date          `db:"generation_date" json:"generationDate"`
	DueDate        Date          `db:"due_date" json:"dueDate" validate:"required"`
	Amount         int           `db:"amount" json:"amount" validate:"gt=0"`
	PaymentDate    *Date         `db:"payment_date" json:"paymentDate,omitempty"`
	Status         PaymentStatus `db:"status" json:"status" validate:"omitempty,oneof=unpaid paid overdue"`
}

// Заявка. TenantID is resolved through the contract and is read-only.
type Request struct {
	ID             int           `db:"id" json:"id"`
	ContractID     int           `db:"contract_id" json:"contractId" validate:"required,gt=0"`
	TenantID       int           `db:"tenant_id" json:"tenantId"`
	SubmissionDate Date          `db:"submission_date" json:"submissionDate"`
	Status         RequestStatus `db:"status" json:"status" validate:"omitempty,oneof=new in_progress done rejected"`
	Text           string        `db:"text" json:"text" validate:"required,max=500"`
}

// Бронь
type Booking struct {
	ID          int           `db:"id" json:"id"`
	TenantID    int           `db:"tenant_id" json:"tenantId"`
	OfficeID    int           `db:"office_id" json:"officeId" validate:"required,gt=0"`
	BookingDate Date          `db:"booking_date" json:"bookingDate"`
	StartDate   Date          `db:"start_date" json:"startDate" validate:"required"`
	EndDate     Date          `db:"end_date" json:"endDate" validate:"required"`
	Status      BookingStatus `db:"status" json:"status"`
}

func (b *Booking) Range() DateRange { return DateRange{Start: b.StartDate, End: b.EndDate} }

func (b *Booking) Active() bool { return b.Status == BookingActive }

// User is a login account. Tenant-role accounts carry the id of their tenant.
type User struct {
	ID           int       `db:"id" json:"id"`
	Phone        string    `db:"phone" json:"phone"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         Role      `db:"role" json:"role"`
	TenantID     *int      `db:"tenant_id" json:"tenantId,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

// Reservation is an active booking or contract holding an office for a range.
type Reservation struct {
	Kind      string `db:"kind" json:"kind"`
	ID        int    `db:"id" json:"id"`
	StartDate Date   `db:"start_date" json:"startDate"`
	EndDate   Date   `db:"end_date" json:"endDate"`
}

func (r *Reservation) Range() DateRange { return DateRange{Start: r.StartDate, End: r.EndDate} }

const (
	ReservationBooking  = "booking"
	ReservationContract = "contract"
)

// Availability answers whether an office is free for a date range.
type Availability struct {
	OfficeID  int           `json:"officeId"`
	Range     DateRange     `json:"range"`
	Available bool          `json:"available"`
	Conflicts []Reservation `json:"conflicts"`
}
