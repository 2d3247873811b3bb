package db

import (
	"context"

	"github.com/jmoiron/sqlx"

	"officecrm/internal/apperr"
	"officecrm/internal/logging"
	"officecrm/models"
)

// occupyOffice marks an office occupied by a newly active contract. The
// office must be free.
func occupyOffice(ctx context.Context, tx *sqlx.Tx, office *models.Office) error {
	if office.Status != models.OfficeFree {
		return apperr.New(apperr.InvalidState, "office %d is %s, a contract needs a free office", office.ID, office.Status)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE office SET status = $1 WHERE id = $2`, models.OfficeOccupied, office.ID); err != nil {
		return err
	}
	office.Status = models.OfficeOccupied
	return nil
}

// releaseOffice frees an occupied office once no active contract other than
// exceptContractID references it.
func releaseOffice(ctx context.Context, tx *sqlx.Tx, office *models.Office, exceptContractID int) error {
	if office.Status != models.OfficeOccupied {
		return nil
	}
	var remaining int
	err := tx.GetContext(ctx, &remaining,
		`SELECT COUNT(*) FROM contract WHERE office_id = $1 AND status = 'active' AND id <> $2`,
		office.ID, exceptContractID)
	if err != nil {
		return err
	}
	if remaining > 0 {
		logging.Op().Warn("office keeps another active contract", "office_id", office.ID, "contracts", remaining)
		return nil
	}
	if _, err := tx.ExecContext(ctx, `UPDATE office SET status = $1 WHERE id = $2`, models.OfficeFree, office.ID); err != nil {
		return err
	}
	office.Status = models.OfficeFree
	return nil
}

// SweepOverduePayments marks every unpaid payment due before asOf as overdue
// and returns how many rows changed. Running it again with the same asOf
// changes nothing.
func (s *Storage) SweepOverduePayments(ctx context.Context, asOf models.Date) (int64, error) {
	var n int64
	err := s.withTx(ctx, "sweep_overdue_payments", func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE payment SET status = $1 WHERE status = $2 AND due_date < $3`,
			models.PaymentOverdue, models.PaymentUnpaid, asOf)
		if err != nil {
			return err
		}
		n, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, err
	}
	logging.Op().Info("overdue payments swept", "as_of", asOf.String(), "updated", n)
	return n, nil
}
