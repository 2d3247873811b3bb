package models

// Patch structs carry only the fields present in an update payload. A nil
// field means "leave unchanged"; Apply copies the present ones field by field.

type TenantPatch struct {
	CompanyName   *string `json:"companyName" validate:"omitempty,min=1,max=100"`
	ContactPerson *string `json:"contactPerson" validate:"omitempty,min=1,max=100"`
	Phone         *string `json:"phone" validate:"omitempty,min=1,max=20"`
}

func (p TenantPatch) Apply(t *Tenant) {
	if p.CompanyName != nil {
		t.CompanyName = *p.CompanyName
	}
	if p.ContactPerson != nil {
		t.ContactPerson = *p.ContactPerson
	}
	if p.Phone != nil {
		t.Phone = *p.Phone
	}
}

type OfficePatch struct {
	Number *string       `json:"number" validate:"omitempty,min=1,max=10"`
	Floor  *int          `json:"floor" validate:"omitempty,min=1"`
	Area   *int          `json:"area" validate:"omitempty,gt=0"`
	Price  *int          `json:"price" validate:"omitempty,gt=0"`
	Status *OfficeStatus `json:"status" validate:"omitempty,oneof=free occupied reserved maintenance"`
}

func (p OfficePatch) Apply(o *Office) {
	if p.Number != nil {
		o.Number = *p.Number
	}
	if p.Floor != nil {
		o.Floor = *p.Floor
	}
	if p.Area != nil {
		o.Area = *p.Area
	}
	if p.Price != nil {
		o.Price = *p.Price
	}
	if p.Status != nil {
		o.Status = *p.Status
	}
}

type ContractPatch struct {
	StartDate *Date           `json:"startDate"`
	EndDate   *Date           `json:"endDate"`
	Price     *int            `json:"price" validate:"omitempty,gt=0"`
	Status    *ContractStatus `json:"status" validate:"omitempty,oneof=active ended terminated"`
}

func (p ContractPatch) Apply(c *Contract) {
	if p.StartDate != nil {
		c.StartDate = *p.StartDate
	}
	if p.EndDate != nil {
		c.EndDate = *p.EndDate
	}
	if p.Price != nil {
		c.Price = *p.Price
	}
	if p.Status != nil {
		c.Status = *p.Status
	}
}

type PaymentPatch struct {
	DueDate     *Date          `json:"dueDate"`
	Amount      *int           `json:"amount" validate:"omitempty,gt=0"`
	PaymentDate *Date          `json:"paymentDate"`
	Status      *PaymentStatus `json:"status" validate:"omitempty,oneof=unpaid paid overdue"`
}

func (p PaymentPatch) Apply(pm *Payment) {
	if p.DueDate != nil {
		pm.DueDate = *p.DueDate
	}
	if p.Amount != nil {
		pm.Amount = *p.Amount
	}
	if p.PaymentDate != nil {
		d := *p.PaymentDate
		pm.PaymentDate = &d
	}
	if p.Status != nil {
		pm.Status = *p.Status
	}
}

type RequestPatch struct {
	Status *RequestStatus `json:"status" validate:"omitempty,oneof=new in_progress done rejected"`
	Text   *string        `json:"text" validate:"omitempty,min=1,max=500"`
}

func (p RequestPatch) Apply(r *Request) {
	if p.Status != nil {
		r.Status = *p.Status
	}
	if p.Text != nil {
		r.Text = *p.Text
	}
}

// StatusOnly reports whether the patch touches nothing but the status.
func (p RequestPatch) StatusOnly() bool {
	return p.Status != nil && p.Text == nil
}

type BookingPatch struct {
	StartDate *Date          `json:"startDate"`
	EndDate   *Date          `json:"endDate"`
	Status    *BookingStatus `json:"status" validate:"omitempty,oneof=active cancelled expired"`
}

func (p BookingPatch) Apply(b *Booking) {
	if p.StartDate != nil {
		b.StartDate = *p.StartDate
	}
	if p.EndDate != nil {
		b.EndDate = *p.EndDate
	}
	if p.Status != nil {
		b.Status = *p.Status
	}
}
