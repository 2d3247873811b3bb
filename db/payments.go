package db

import (
	"context"

	"github.com/jmoiron/sqlx"

	"officecrm/internal/apperr"
	"officecrm/models"
)

type PaymentFilter struct {
	TenantID   *int
	ContractID *int
	Status     *models.PaymentStatus
	Limit      int
	Offset     int
}

// Платежи читаются вместе с арендатором договора.
const paymentSelect = `
        SELECT p.id, p.contract_id, c.tenant_id, p.generation_date, p.due_date,
               p.amount, p.payment_date, p.status
        FROM payment p
        JOIN contract c ON c.id = p.contract_id`

func (s *Storage) ListPayments(ctx context.Context, f PaymentFilter) ([]models.Payment, error) {
	var c conds
	if f.TenantID != nil {
		c.add("c.tenant_id = ?", *f.TenantID)
	}
	if f.ContractID != nil {
		c.add("p.contract_id = ?", *f.ContractID)
	}
	if f.Status != nil {
		c.add("p.status = ?", *f.Status)
	}
	query := paymentSelect + c.where() + ` ORDER BY p.due_date, p.id` + page(f.Limit, f.Offset)

	payments := []models.Payment{}
	if err := s.db.SelectContext(ctx, &payments, query, c.args...); err != nil {
		return nil, mapErr(err)
	}
	return payments, nil
}

func (s *Storage) GetPayment(ctx context.Context, id int) (*models.Payment, error) {
	return getPayment(ctx, s.db, id)
}

func getPayment(ctx context.Context, q sqlx.QueryerContext, id int) (*models.Payment, error) {
	p := &models.Payment{}
	if err := sqlx.GetContext(ctx, q, p, paymentSelect+` WHERE p.id = $1`, id); err != nil {
		return nil, notFound(err, "payment %d not found", id)
	}
	return p, nil
}

// CreatePayment bills an existing, not terminated contract. The due date
// may not precede the contract start.
func (s *Storage) CreatePayment(ctx context.Context, p *models.Payment) error {
	if p.Status == "" {
		p.Status = models.PaymentUnpaid
	}
	if p.GenerationDate.IsZero() {
		p.GenerationDate = models.Today()
	}
	return s.withTx(ctx, "create_payment", func(tx *sqlx.Tx) error {
		c, err := getContract(ctx, tx, p.ContractID)
		if err != nil {
			return err
		}
		if c.Status == models.ContractTerminated {
			return apperr.New(apperr.InvalidState, "contract %d is terminated", c.ID)
		}
		if p.DueDate.Before(c.StartDate) {
			return apperr.New(apperr.InvalidRange, "due date %s is before contract start %s", p.DueDate, c.StartDate)
		}
		p.TenantID = c.TenantID
		query := `
            INSERT INTO payment (contract_id, generation_date, due_date, amount, payment_date, status)
            VALUES ($1, $2, $3, $4, $5, $6)
            RETURNING id`
		return tx.QueryRowxContext(ctx, query,
			p.ContractID, p.GenerationDate, p.DueDate, p.Amount, p.PaymentDate, p.Status).Scan(&p.ID)
	})
}

func (s *Storage) UpdatePayment(ctx context.Context, id int, patch models.PaymentPatch) (*models.Payment, error) {
	var updated *models.Payment
	err := s.withTx(ctx, "update_payment", func(tx *sqlx.Tx) error {
		p, err := getPayment(ctx, tx, id)
		if err != nil {
			return err
		}
		patch.Apply(p)
		if patch.DueDate != nil {
			c, err := getContract(ctx, tx, p.ContractID)
			if err != nil {
				return err
			}
			if p.DueDate.Before(c.StartDate) {
				return apperr.New(apperr.InvalidRange, "due date %s is before contract start %s", p.DueDate, c.StartDate)
			}
		}
		if p.Status == models.PaymentPaid && p.PaymentDate == nil {
			today := models.Today()
			p.PaymentDate = &today
		}
		// неоплаченный платеж не хранит дату оплаты
		if p.Status != models.PaymentPaid && patch.PaymentDate == nil {
			p.PaymentDate = nil
		}
		query := `
            UPDATE payment
            SET due_date = $1, amount = $2, payment_date = $3, status = $4
            WHERE id = $5`
		if _, err := tx.ExecContext(ctx, query, p.DueDate, p.Amount, p.PaymentDate, p.Status, p.ID); err != nil {
			return err
		}
		updated = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Storage) DeletePayment(ctx context.Context, id int) error {
	return s.deleteByID(ctx, "payment", id)
}
