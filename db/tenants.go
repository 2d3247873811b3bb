package db

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"

	"officecrm/models"
)

type TenantFilter struct {
	// Name matches company name or contact person, case-insensitively.
	Name   string
	Phone  string
	Limit  int
	Offset int
}

const tenantColumns = `id, company_name, contact_person, phone, registration_date`

func (s *Storage) ListTenants(ctx context.Context, f TenantFilter) ([]models.Tenant, error) {
	var c conds
	if name := strings.TrimSpace(f.Name); name != "" {
		c.add("(LOWER(company_name) LIKE ? OR LOWER(contact_person) LIKE ?)", "%"+strings.ToLower(name)+"%")
	}
	if phone := strings.TrimSpace(f.Phone); phone != "" {
		c.add("phone LIKE ?", "%"+phone+"%")
	}
	query := `SELECT ` + tenantColumns + ` FROM tenant` + c.where() + ` ORDER BY company_name, id` + page(f.Limit, f.Offset)

	tenants := []models.Tenant{}
	if err := s.db.SelectContext(ctx, &tenants, query, c.args...); err != nil {
		return nil, mapErr(err)
	}
	return tenants, nil
}

func (s *Storage) GetTenant(ctx context.Context, id int) (*models.Tenant, error) {
	t := &models.Tenant{}
	err := s.db.GetContext(ctx, t, `SELECT `+tenantColumns+` FROM tenant WHERE id = $1`, id)
	if err != nil {
		return nil, notFound(err, "tenant %d not found", id)
	}
	return t, nil
}

func (s *Storage) CreateTenant(ctx context.Context, t *models.Tenant) error {
	return mapErr(insertTenant(ctx, s.db, t))
}

func insertTenant(ctx context.Context, q sqlx.QueryerContext, t *models.Tenant) error {
	if t.RegistrationDate.IsZero() {
		t.RegistrationDate = models.Today()
	}
	query := `
        INSERT INTO tenant (company_name, contact_person, phone, registration_date)
        VALUES ($1, $2, $3, $4)
        RETURNING id`
	return q.QueryRowxContext(ctx, query, t.CompanyName, t.ContactPerson, t.Phone, t.RegistrationDate).Scan(&t.ID)
}

func (s *Storage) UpdateTenant(ctx context.Context, id int, p models.TenantPatch) (*models.Tenant, error) {
	var updated *models.Tenant
	err := s.withTx(ctx, "update_tenant", func(tx *sqlx.Tx) error {
		t := &models.Tenant{}
		if err := tx.GetContext(ctx, t, `SELECT `+tenantColumns+` FROM tenant WHERE id = $1`, id); err != nil {
			return notFound(err, "tenant %d not found", id)
		}
		p.Apply(t)
		query := `
            UPDATE tenant
            SET company_name = $1, contact_person = $2, phone = $3
            WHERE id = $4`
		if _, err := tx.ExecContext(ctx, query, t.CompanyName, t.ContactPerson, t.Phone, t.ID); err != nil {
			return err
		}
		updated = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteTenant removes a tenant together with its login accounts. Tenants
// that still have contracts or bookings cannot be deleted.
func (s *Storage) DeleteTenant(ctx context.Context, id int) error {
	return s.deleteByID(ctx, "tenant", id)
}
