package db

import (
	"context"

	"github.com/jmoiron/sqlx"

	"officecrm/internal/apperr"
	"officecrm/models"
)

type BookingFilter struct {
	TenantID *int
	OfficeID *int
	Status   *models.BookingStatus
	Limit    int
	Offset   int
}

const bookingColumns = `id, tenant_id, office_id, booking_date, start_date, end_date, status`

func (s *Storage) ListBookings(ctx context.Context, f BookingFilter) ([]models.Booking, error) {
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
	query := `SELECT ` + bookingColumns + ` FROM booking` + c.where() + ` ORDER BY start_date, id` + page(f.Limit, f.Offset)

	bookings := []models.Booking{}
	if err := s.db.SelectContext(ctx, &bookings, query, c.args...); err != nil {
		return nil, mapErr(err)
	}
	return bookings, nil
}

func (s *Storage) GetBooking(ctx context.Context, id int) (*models.Booking, error) {
	return getBooking(ctx, s.db, id)
}

func getBooking(ctx context.Context, q sqlx.QueryerContext, id int) (*models.Booking, error) {
	b := &models.Booking{}
	err := sqlx.GetContext(ctx, q, b, `SELECT `+bookingColumns+` FROM booking WHERE id = $1`, id)
	if err != nil {
		return nil, notFound(err, "booking %d not found", id)
	}
	return b, nil
}

// CreateBooking inserts an active booking after checking, under the office
// lock, that no active booking or contract of the office overlaps it.
func (s *Storage) CreateBooking(ctx context.Context, b *models.Booking) error {
	if !b.Range().Valid() {
		return apperr.New(apperr.InvalidRange, "end date %s is before start date %s", b.EndDate, b.StartDate)
	}
	b.Status = models.BookingActive
	if b.BookingDate.IsZero() {
		b.BookingDate = models.Today()
	}
	return s.withTx(ctx, "create_booking", func(tx *sqlx.Tx) error {
		if _, err := lockOffice(ctx, tx, b.OfficeID); err != nil {
			return err
		}
		if err := checkAvailable(ctx, tx, b.OfficeID, b.Range(), Exclusion{}); err != nil {
			return err
		}
		query := `
            INSERT INTO booking (tenant_id, office_id, booking_date, start_date, end_date, status)
            VALUES ($1, $2, $3, $4, $5, $6)
            RETURNING id`
		return tx.QueryRowxContext(ctx, query,
			b.TenantID, b.OfficeID, b.BookingDate, b.StartDate, b.EndDate, b.Status).Scan(&b.ID)
	})
}

// UpdateBooking applies a patch. When the result is active, its range is
// re-checked against the other reservations of the office, excluding itself.
func (s *Storage) UpdateBooking(ctx context.Context, id int, p models.BookingPatch) (*models.Booking, error) {
	current, err := s.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}

	var updated *models.Booking
	err = s.withTx(ctx, "update_booking", func(tx *sqlx.Tx) error {
		if _, err := lockOffice(ctx, tx, current.OfficeID); err != nil {
			return err
		}
		b, err := getBooking(ctx, tx, id)
		if err != nil {
			return err
		}
		p.Apply(b)
		if !b.Range().Valid() {
			return apperr.New(apperr.InvalidRange, "end date %s is before start date %s", b.EndDate, b.StartDate)
		}
		if b.Active() {
			if err := checkAvailable(ctx, tx, b.OfficeID, b.Range(), Exclusion{BookingID: b.ID}); err != nil {
				return err
			}
		}
		query := `
            UPDATE booking
            SET start_date = $1, end_date = $2, status = $3
            WHERE id = $4`
		if _, err := tx.ExecContext(ctx, query, b.StartDate, b.EndDate, b.Status, b.ID); err != nil {
			return err
		}
		updated = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Storage) DeleteBooking(ctx context.Context, id int) error {
	return s.deleteByID(ctx, "booking", id)
}
