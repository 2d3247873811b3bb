package db_test

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"officecrm/db"
	"officecrm/db/migrations"
	"officecrm/models"
)

// newTestStorage returns a store over a fresh, migrated SQLite file.
func newTestStorage(t *testing.T) *db.Storage {
	t.Helper()
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "officecrm.db")
	conn, err := db.Open(ctx, db.DriverSQLite, db.SQLiteDSN(path))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.NoError(t, migrations.Run(conn.DB, db.DriverSQLite))
	return db.NewStorage(conn)
}

func date(t *testing.T, s string) models.Date {
	t.Helper()
	d, err := models.ParseDate(s)
	require.NoError(t, err)
	return d
}

var seq int

func seedTenant(t *testing.T, s *db.Storage) *models.Tenant {
	t.Helper()
	seq++
	tenant := &models.Tenant{
		CompanyName:   fmt.Sprintf("Company %d", seq),
		ContactPerson: "Contact",
		Phone:         fmt.Sprintf("+7900%07d", seq),
	}
	require.NoError(t, s.CreateTenant(context.Background(), tenant))
	return tenant
}

func seedOffice(t *testing.T, s *db.Storage, number string) *models.Office {
	t.Helper()
	office := &models.Office{Number: number, Floor: 2, Area: 40, Price: 1000}
	require.NoError(t, s.CreateOffice(context.Background(), office))
	require.Equal(t, models.OfficeFree, office.Status)
	return office
}

func seedBooking(t *testing.T, s *db.Storage, tenantID, officeID int, start, end string) *models.Booking {
	t.Helper()
	b := &models.Booking{TenantID: tenantID, OfficeID: officeID, StartDate: date(t, start), EndDate: date(t, end)}
	require.NoError(t, s.CreateBooking(context.Background(), b))
	return b
}

func seedContract(t *testing.T, s *db.Storage, tenantID, officeID int, start, end string) *models.Contract {
	t.Helper()
	c := &models.Contract{TenantID: tenantID, OfficeID: officeID, StartDate: date(t, start), EndDate: date(t, end), Price: 500}
	require.NoError(t, s.CreateContract(context.Background(), c))
	return c
}
