package db

import (
	"context"

	"github.com/jmoiron/sqlx"

	"officecrm/models"
)

type RequestFilter struct {
	TenantID   *int
	ContractID *int
	Status     *models.RequestStatus
	Limit      int
	Offset     int
}

const requestSelect = `
        SELECT r.id, r.contract_id, c.tenant_id, r.submission_date, r.status, r.text
        FROM request r
        JOIN contract c ON c.id = r.contract_id`

func (s *Storage) ListRequests(ctx context.Context, f RequestFilter) ([]models.Request, error) {
	var c conds
	if f.TenantID != nil {
		c.add("c.tenant_id = ?", *f.TenantID)
	}
	if f.ContractID != nil {
		c.add("r.contract_id = ?", *f.ContractID)
	}
	if f.Status != nil {
		c.add("r.status = ?", *f.Status)
	}
	query := requestSelect + c.where() + ` ORDER BY r.submission_date DESC, r.id DESC` + page(f.Limit, f.Offset)

	requests := []models.Request{}
	if err := s.db.SelectContext(ctx, &requests, query, c.args...); err != nil {
		return nil, mapErr(err)
	}
	return requests, nil
}

func (s *Storage) GetRequest(ctx context.Context, id int) (*models.Request, error) {
	return getRequest(ctx, s.db, id)
}

func getRequest(ctx context.Context, q sqlx.QueryerContext, id int) (*models.Request, error) {
	r := &models.Request{}
	if err := sqlx.GetContext(ctx, q, r, requestSelect+` WHERE r.id = $1`, id); err != nil {
		return nil, notFound(err, "request %d not found", id)
	}
	return r, nil
}

// CreateRequest files a maintenance request against an existing contract.
func (s *Storage) CreateRequest(ctx context.Context, r *models.Request) error {
	if r.Status == "" {
		r.Status = models.RequestNew
	}
	if r.SubmissionDate.IsZero() {
		r.SubmissionDate = models.Today()
	}
	return s.withTx(ctx, "create_request", func(tx *sqlx.Tx) error {
		c, err := getContract(ctx, tx, r.ContractID)
		if err != nil {
			return err
		}
		r.TenantID = c.TenantID
		query := `
            INSERT INTO request (contract_id, submission_date, status, text)
            VALUES ($1, $2, $3, $4)
            RETURNING id`
		return tx.QueryRowxContext(ctx, query, r.ContractID, r.SubmissionDate, r.Status, r.Text).Scan(&r.ID)
	})
}

func (s *Storage) UpdateRequest(ctx context.Context, id int, p models.RequestPatch) (*models.Request, error) {
	var updated *models.Request
	err := s.withTx(ctx, "update_request", func(tx *sqlx.Tx) error {
		r, err := getRequest(ctx, tx, id)
		if err != nil {
			return err
		}
		p.Apply(r)
		if _, err := tx.ExecContext(ctx, `UPDATE request SET status = $1, text = $2 WHERE id = $3`, r.Status, r.Text, r.ID); err != nil {
			return err
		}
		updated = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Storage) DeleteRequest(ctx context.Context, id int) error {
	return s.deleteByID(ctx, "request", id)
}
