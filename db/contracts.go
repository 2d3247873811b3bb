package db

import (
	"context"

	"github.com/jmoiron/sqlx"

	"officecrm/internal/apperr"
	"officecrm/models"
)

type ContractFilter struct {
	TenantID *int
	OfficeID *int
	Status   *models.ContractStatus
	Limit    int
	Offset   int
}

const contractColumns = `id, tenant_id, office_id, start_date, end_date, price, signing_date, status`

func (s *Storage) ListContracts(ctx context.Context, f ContractFilter) ([]models.Contract, error) {
	var c conds
	if f.TenantID != nil {
		c.add("tenant_id = ?", *f.TenantID)
	}
	if f.OfficeID != nil {
		c.add("office_id = ?", *f.OfficeID)
	}
	if f.Status != nil {
		c.add("status = ?", *f.Status)
	}
	query := `SELECT ` + contractColumns + ` FROM contract` + c.where() + ` ORDER BY start_date, id` + page(f.Limit, f.Offset)

	contracts := []models.Contract{}
	if err := s.db.SelectContext(ctx, &contracts, query, c.args...); err != nil {
		return nil, mapErr(err)
	}
	return contracts, nil
}

func (s *Storage) GetContract(ctx context.Context, id int) (*models.Contract, error) {
	return getContract(ctx, s.db, id)
}

func getContract(ctx context.Context, q sqlx.QueryerContext, id int) (*models.Contract, error) {
	c := &models.Contract{}
	err := sqlx.GetContext(ctx, q, c, `SELECT `+contractColumns+` FROM contract WHERE id = $1`, id)
	if err != nil {
		return nil, notFound(err, "contract %d not found", id)
	}
	return c, nil
}

// CreateContract signs an active contract on a free office. The availability
// check, the insert and the office flip to occupied commit together.
func (s *Storage) CreateContract(ctx context.Context, c *models.Contract) error {
	if !c.Range().Valid() {
		return apperr.New(apperr.InvalidRange, "end date %s is before start date %s", c.EndDate, c.StartDate)
	}
	c.Status = models.ContractActive
	if c.SigningDate.IsZero() {
		c.SigningDate = models.Today()
	}
	return s.withTx(ctx, "create_contract", func(tx *sqlx.Tx) error {
		office, err := lockOffice(ctx, tx, c.OfficeID)
		if err != nil {
			return err
		}
		if office.Status != models.OfficeFree {
			return apperr.New(apperr.InvalidState, "office %d is %s, a contract needs a free office", office.ID, office.Status)
		}
		if err := checkAvailable(ctx, tx, c.OfficeID, c.Range(), Exclusion{}); err != nil {
			return err
		}
		query := `
            INSERT INTO contract (tenant_id, office_id, start_date, end_date, price, signing_date, status)
            VALUES ($1, $2, $3, $4, $5, $6, $7)
            RETURNING id`
		err = tx.QueryRowxContext(ctx, query,
			c.TenantID, c.OfficeID, c.StartDate, c.EndDate, c.Price, c.SigningDate, c.Status).Scan(&c.ID)
		if err != nil {
			return err
		}
		return occupyOffice(ctx, tx, office)
	})
}

// UpdateContract applies a patch and keeps the office status in step with
// the contract: leaving active releases the office, becoming active again
// needs a free office and occupies it.
func (s *Storage) UpdateContract(ctx context.Context, id int, p models.ContractPatch) (*models.Contract, error) {
	current, err := s.GetContract(ctx, id)
	if err != nil {
		return nil, err
	}

	var updated *models.Contract
	err = s.withTx(ctx, "update_contract", func(tx *sqlx.Tx) error {
		office, err := lockOffice(ctx, tx, current.OfficeID)
		if err != nil {
			return err
		}
		c, err := getContract(ctx, tx, id)
		if err != nil {
			return err
		}
		wasActive := c.Active()
		p.Apply(c)
		if !c.Range().Valid() {
			return apperr.New(apperr.InvalidRange, "end date %s is before start date %s", c.EndDate, c.StartDate)
		}

		switch {
		case wasActive && !c.Active():
			if err := releaseOffice(ctx, tx, office, c.ID); err != nil {
				return err
			}
		case !wasActive && c.Active():
			if office.Status != models.OfficeFree {
				return apperr.New(apperr.InvalidState, "office %d is %s, a contract needs a free office", office.ID, office.Status)
			}
			if err := checkAvailable(ctx, tx, c.OfficeID, c.Range(), Exclusion{ContractID: c.ID}); err != nil {
				return err
			}
			if err := occupyOffice(ctx, tx, office); err != nil {
				return err
			}
		case c.Active():
			if err := checkAvailable(ctx, tx, c.OfficeID, c.Range(), Exclusion{ContractID: c.ID}); err != nil {
				return err
			}
		}

		query := `
            UPDATE contract
            SET start_date = $1, end_date = $2, price = $3, status = $4
            WHERE id = $5`
		if _, err := tx.ExecContext(ctx, query, c.StartDate, c.EndDate, c.Price, c.Status, c.ID); err != nil {
			return err
		}
		updated = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteContract removes a contract and releases its office when the
// contract was active. Contracts with payments or requests are kept.
func (s *Storage) DeleteContract(ctx context.Context, id int) error {
	current, err := s.GetContract(ctx, id)
	if err != nil {
		return err
	}
	return s.withTx(ctx, "delete_contract", func(tx *sqlx.Tx) error {
		office, err := lockOffice(ctx, tx, current.OfficeID)
		if err != nil {
			return err
		}
		c, err := getContract(ctx, tx, id)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM contract WHERE id = $1`, id); err != nil {
			return mapDeleteErr(err)
		}
		if c.Active() {
			return releaseOffice(ctx, tx, office, c.ID)
		}
		return nil
	})
}
