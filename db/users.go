package db

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"officecrm/internal/apperr"
	"officecrm/models"
)

const userColumns = `id, phone, password_hash, role, tenant_id, created_at`

// RegisterTenant creates a tenant and its tenant-role account in one
// transaction. Either both rows exist afterwards or neither does.
func (s *Storage) RegisterTenant(ctx context.Context, t *models.Tenant, u *models.User) error {
	return s.withTx(ctx, "register_tenant", func(tx *sqlx.Tx) error {
		if err := insertTenant(ctx, tx, t); err != nil {
			return err
		}
		u.Role = models.RoleTenant
		u.TenantID = &t.ID
		return insertUser(ctx, tx, u)
	})
}

func (s *Storage) CreateUser(ctx context.Context, u *models.User) error {
	if !u.Role.Valid() {
		return apperr.New(apperr.Invalid, "unknown role %q", u.Role)
	}
	if u.Role == models.RoleTenant && u.TenantID == nil {
		return apperr.New(apperr.Invalid, "tenant accounts must reference a tenant")
	}
	return mapErr(insertUser(ctx, s.db, u))
}

func insertUser(ctx context.Context, q sqlx.QueryerContext, u *models.User) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC().Truncate(time.Second)
	}
	query := `
        INSERT INTO users (phone, password_hash, role, tenant_id, created_at)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id`
	return q.QueryRowxContext(ctx, query, u.Phone, u.PasswordHash, u.Role, u.TenantID, u.CreatedAt).Scan(&u.ID)
}

func (s *Storage) GetUserByPhone(ctx context.Context, phone string) (*models.User, error) {
	u := &models.User{}
	err := s.db.GetContext(ctx, u, `SELECT `+userColumns+` FROM users WHERE phone = $1`, phone)
	if err != nil {
		return nil, notFound(err, "user not found")
	}
	return u, nil
}

func (s *Storage) GetUser(ctx context.Context, id int) (*models.User, error) {
	u := &models.User{}
	err := s.db.GetContext(ctx, u, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	if err != nil {
		return nil, notFound(err, "user %d not found", id)
	}
	return u, nil
}
