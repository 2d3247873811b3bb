package db

import (
	"context"

	"github.com/jmoiron/sqlx"

	"officecrm/internal/apperr"
	"officecrm/models"
)

type OfficeFilter struct {
	Status *models.OfficeStatus
	Floor  *int
	Limit  int
	Offset int
}

const officeColumns = `id, number, floor, area, price, status`

func (s *Storage) ListOffices(ctx context.Context, f OfficeFilter) ([]models.Office, error) {
	var c conds
	if f.Status != nil {
		c.add("status = ?", *f.Status)
	}
	if f.Floor != nil {
		c.add("floor = ?", *f.Floor)
	}
	query := `SELECT ` + officeColumns + ` FROM office` + c.where() + ` ORDER BY id` + page(f.Limit, f.Offset)

	offices := []models.Office{}
	if err := s.db.SelectContext(ctx, &offices, query, c.args...); err != nil {
		return nil, mapErr(err)
	}
	return offices, nil
}

func (s *Storage) GetOffice(ctx context.Context, id int) (*models.Office, error) {
	o := &models.Office{}
	err := s.db.GetContext(ctx, o, `SELECT `+officeColumns+` FROM office WHERE id = $1`, id)
	if err != nil {
		return nil, notFound(err, "office %d not found", id)
	}
	return o, nil
}

func (s *Storage) CreateOffice(ctx context.Context, o *models.Office) error {
	if o.Status == "" {
		o.Status = models.OfficeFree
	}
	if o.Status == models.OfficeOccupied {
		return apperr.New(apperr.InvalidState, "an office becomes occupied only through a contract")
	}
	query := `
        INSERT INTO office (number, floor, area, price, status)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id`
	err := s.db.QueryRowContext(ctx, query, o.Number, o.Floor, o.Area, o.Price, o.Status).Scan(&o.ID)
	return mapErr(err)
}

// UpdateOffice applies a patch. The status of an office is owned by its
// contracts while one is active, and nothing but a contract may occupy it.
func (s *Storage) UpdateOffice(ctx context.Context, id int, p models.OfficePatch) (*models.Office, error) {
	var updated *models.Office
	err := s.withTx(ctx, "update_office", func(tx *sqlx.Tx) error {
		o, err := lockOffice(ctx, tx, id)
		if err != nil {
			return err
		}
		if p.Status != nil && *p.Status != o.Status {
			if *p.Status == models.OfficeOccupied {
				return apperr.New(apperr.InvalidState, "an office becomes occupied only through a contract")
			}
			var active int
			err := tx.GetContext(ctx, &active,
				`SELECT COUNT(*) FROM contract WHERE office_id = $1 AND status = 'active'`, id)
			if err != nil {
				return err
			}
			if active > 0 {
				return apperr.New(apperr.InvalidState, "office %d has an active contract", id)
			}
		}
		p.Apply(o)
		query := `
            UPDATE office
            SET number = $1, floor = $2, area = $3, price = $4, status = $5
            WHERE id = $6`
		if _, err := tx.ExecContext(ctx, query, o.Number, o.Floor, o.Area, o.Price, o.Status, o.ID); err != nil {
			return err
		}
		updated = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Storage) DeleteOffice(ctx context.Context, id int) error {
	return s.deleteByID(ctx, "office", id)
}

// deleteByID removes one row; a missing row is NotFound and a referenced one
// is Conflict.
func (s *Storage) deleteByID(ctx context.Context, table string, id int) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = $1`, id)
	if err != nil {
		return mapDeleteErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return mapErr(err)
	}
	if n == 0 {
		return apperr.New(apperr.NotFound, "%s %d not found", table, id)
	}
	return nil
}

// notFound maps a missing row to NotFound with a specific reason.
func notFound(err error, format string, args ...any) error {
	mapped := mapErr(err)
	if apperr.KindOf(mapped) == apperr.NotFound {
		e := apperr.New(apperr.NotFound, format, args...)
		e.Err = err
		return e
	}
	return mapped
}
