package db

import (
	"context"

	"github.com/jmoiron/sqlx"

	"officecrm/internal/apperr"
	"officecrm/internal/logging"
	"officecrm/models"
)

// Exclusion names the rows a check must ignore, normally the booking or
// contract being updated. Zero ids exclude nothing.
type Exclusion struct {
	BookingID  int
	ContractID int
}

// lockOffice takes the per-office write lock for the rest of the transaction
// and returns the office as seen after the lock. All booking and contract
// writes go through it, so two writers on the same office are serialized.
func lockOffice(ctx context.Context, tx *sqlx.Tx, officeID int) (*models.Office, error) {
	res, err := tx.ExecContext(ctx, `UPDATE office SET status = status WHERE id = $1`, officeID)
	if err != nil {
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, apperr.New(apperr.NotFound, "office %d not found", officeID)
	}
	o := &models.Office{}
	if err := tx.GetContext(ctx, o, `SELECT id, number, floor, area, price, status FROM office WHERE id = $1`, officeID); err != nil {
		return nil, err
	}
	return o, nil
}

// activeReservations lists the active bookings and contracts of an office.
func activeReservations(ctx context.Context, q sqlx.QueryerContext, officeID int, ex Exclusion) ([]models.Reservation, error) {
	query := `
        SELECT 'booking' AS kind, id, start_date, end_date
        FROM booking
        WHERE office_id = $1 AND status = 'active' AND id <> $2
        UNION ALL
        SELECT 'contract' AS kind, id, start_date, end_date
        FROM contract
        WHERE office_id = $1 AND status = 'active' AND id <> $3
        ORDER BY start_date, kind, id`
	var rows []models.Reservation
	if err := sqlx.SelectContext(ctx, q, &rows, query, officeID, ex.BookingID, ex.ContractID); err != nil {
		return nil, err
	}
	return rows, nil
}

// overlapping returns the reservations whose range overlaps rng.
func overlapping(rows []models.Reservation, rng models.DateRange) []models.Reservation {
	conflicts := []models.Reservation{}
	for _, r := range rows {
		if r.Range().Overlaps(rng) {
			conflicts = append(conflicts, r)
		}
	}
	return conflicts
}

// checkAvailable fails with InvalidRange for a reversed range and with
// Conflict when an active booking or contract of the office overlaps rng.
// Callers hold the office lock.
func checkAvailable(ctx context.Context, tx *sqlx.Tx, officeID int, rng models.DateRange, ex Exclusion) error {
	if !rng.Valid() {
		return apperr.New(apperr.InvalidRange, "end date %s is before start date %s", rng.End, rng.Start)
	}
	rows, err := activeReservations(ctx, tx, officeID, ex)
	if err != nil {
		return err
	}
	if conflicts := overlapping(rows, rng); len(conflicts) > 0 {
		c := conflicts[0]
		logging.Op().Debug("office reservation conflict",
			"office_id", officeID, "range", rng.String(), "kind", c.Kind, "id", c.ID)
		return apperr.New(apperr.Conflict, "office %d is already reserved by %s %d for %s",
			officeID, c.Kind, c.ID, c.Range())
	}
	return nil
}

// CheckOfficeAvailability is the read-only form of the check, without locks.
func (s *Storage) CheckOfficeAvailability(ctx context.Context, officeID int, rng models.DateRange) (*models.Availability, error) {
	if !rng.Valid() {
		return nil, apperr.New(apperr.InvalidRange, "end date %s is before start date %s", rng.End, rng.Start)
	}
	if _, err := s.GetOffice(ctx, officeID); err != nil {
		return nil, err
	}
	rows, err := activeReservations(ctx, s.db, officeID, Exclusion{})
	if err != nil {
		return nil, mapErr(err)
	}
	conflicts := overlapping(rows, rng)
	return &models.Availability{
		OfficeID:  officeID,
		Range:     rng,
		Available: len(conflicts) == 0,
		Conflicts: conflicts,
	}, nil
}
