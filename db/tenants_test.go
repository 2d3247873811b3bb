package db_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"officecrm/db"
	"officecrm/internal/apperr"
	"officecrm/models"
)

func TestTenantUniqueness(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	first := &models.Tenant{CompanyName: "Acme", ContactPerson: "Ivan", Phone: "+70000000001"}
	require.NoError(t, s.CreateTenant(ctx, first))
	require.False(t, first.RegistrationDate.IsZero())

	samePhone := &models.Tenant{CompanyName: "Other", ContactPerson: "Petr", Phone: "+70000000001"}
	require.ErrorIs(t, s.CreateTenant(ctx, samePhone), apperr.ErrConflict)

	samePair := &models.Tenant{CompanyName: "Acme", ContactPerson: "Ivan", Phone: "+70000000002"}
	require.ErrorIs(t, s.CreateTenant(ctx, samePair), apperr.ErrConflict)

	samePerson := &models.Tenant{CompanyName: "Acme", ContactPerson: "Olga", Phone: "+70000000003"}
	require.NoError(t, s.CreateTenant(ctx, samePerson))

	phone := "+70000000003"
	_, err := s.UpdateTenant(ctx, first.ID, models.TenantPatch{Phone: &phone})
	require.ErrorIs(t, err, apperr.ErrConflict)
}

func TestListTenantsFilters(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	require.NoError(t, s.CreateTenant(ctx, &models.Tenant{CompanyName: "Horns and Hooves", ContactPerson: "Ostap", Phone: "+71110000001"}))
	require.NoError(t, s.CreateTenant(ctx, &models.Tenant{CompanyName: "Lighthouse", ContactPerson: "Anna Horn", Phone: "+72220000002"}))
	require.NoError(t, s.CreateTenant(ctx, &models.Tenant{CompanyName: "Bakery", ContactPerson: "Boris", Phone: "+73330000003"}))

	rows, err := s.ListTenants(ctx, db.TenantFilter{Name: "HORN", Limit: 20})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	rows, err = s.ListTenants(ctx, db.TenantFilter{Phone: "333", Limit: 20})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "Bakery", rows[0].CompanyName)

	rows, err = s.ListTenants(ctx, db.TenantFilter{Limit: 2, Offset: 2})
	require.NoError(t, err)
	require.Len(t, rows, 1)
}

func TestDeleteTenantReferenced(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	tenant := seedTenant(t, s)
	office := seedOffice(t, s, "101")
	b := seedBooking(t, s, tenant.ID, office.ID, "2025-01-01", "2025-01-02")

	require.ErrorIs(t, s.DeleteTenant(ctx, tenant.ID), apperr.ErrConflict)
	require.NoError(t, s.DeleteBooking(ctx, b.ID))
	require.NoError(t, s.DeleteTenant(ctx, tenant.ID))
	_, err := s.GetTenant(ctx, tenant.ID)
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestRegisterTenantIsAtomic(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	tenant := &models.Tenant{CompanyName: "Acme", ContactPerson: "Ivan", Phone: "+70000000001"}
	user := &models.User{Phone: "+70000000001", PasswordHash: "hash"}
	require.NoError(t, s.RegisterTenant(ctx, tenant, user))
	require.Equal(t, models.RoleTenant, user.Role)
	require.Equal(t, tenant.ID, *user.TenantID)

	got, err := s.GetUserByPhone(ctx, "+70000000001")
	require.NoError(t, err)
	require.Equal(t, user.ID, got.ID)
	require.Equal(t, tenant.ID, *got.TenantID)

	// The account phone is taken, so the second tenant row must not survive.
	admin := &models.User{Phone: "+70000000009", PasswordHash: "hash", Role: models.RoleAdmin}
	require.NoError(t, s.CreateUser(ctx, admin))

	other := &models.Tenant{CompanyName: "Other", ContactPerson: "Petr", Phone: "+70000000002"}
	err = s.RegisterTenant(ctx, other, &models.User{Phone: "+70000000009", PasswordHash: "hash"})
	require.ErrorIs(t, err, apperr.ErrConflict)

	rows, err := s.ListTenants(ctx, db.TenantFilter{Phone: "+70000000002", Limit: 20})
	require.NoError(t, err)
	require.Empty(t, rows)

	_, err = s.GetUserByPhone(ctx, "+79999999999")
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestCreateUserValidation(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	require.ErrorIs(t, s.CreateUser(ctx, &models.User{Phone: "1", PasswordHash: "h", Role: "root"}), apperr.ErrInvalid)
	require.ErrorIs(t, s.CreateUser(ctx, &models.User{Phone: "1", PasswordHash: "h", Role: models.RoleTenant}), apperr.ErrInvalid)

	missing := 999
	err := s.CreateUser(ctx, &models.User{Phone: "1", PasswordHash: "h", Role: models.RoleTenant, TenantID: &missing})
	require.ErrorIs(t, err, apperr.ErrNotFound)

	staff := &models.User{Phone: "2", PasswordHash: "h", Role: models.RoleStaff}
	require.NoError(t, s.CreateUser(ctx, staff))
	got, err := s.GetUser(ctx, staff.ID)
	require.NoError(t, err)
	require.Equal(t, models.RoleStaff, got.Role)
	require.Nil(t, got.TenantID)
}

func TestOwnershipIsolation(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	alice := seedTenant(t, s)
	bob := seedTenant(t, s)

	for i, owner := range []*models.Tenant{alice, bob} {
		office := seedOffice(t, s, []string{"201", "202"}[i])
		c := seedContract(t, s, owner.ID, office.ID, "2025-01-01", "2025-06-30")
		seedBooking(t, s, owner.ID, office.ID, "2025-07-01", "2025-07-10")
		require.NoError(t, s.CreatePayment(ctx, &models.Payment{ContractID: c.ID, DueDate: date(t, "2025-02-01"), Amount: 10}))
		require.NoError(t, s.CreateRequest(ctx, &models.Request{ContractID: c.ID, Text: "leak"}))
	}

	for _, owner := range []*models.Tenant{alice, bob} {
		id := owner.ID

		bookings, err := s.ListBookings(ctx, db.BookingFilter{TenantID: &id, Limit: 100})
		require.NoError(t, err)
		require.Len(t, bookings, 1)
		for _, b := range bookings {
			require.Equal(t, id, b.TenantID)
		}

		contracts, err := s.ListContracts(ctx, db.ContractFilter{TenantID: &id, Limit: 100})
		require.NoError(t, err)
		require.Len(t, contracts, 1)
		require.Equal(t, id, contracts[0].TenantID)

		payments, err := s.ListPayments(ctx, db.PaymentFilter{TenantID: &id, Limit: 100})
		require.NoError(t, err)
		require.Len(t, payments, 1)
		require.Equal(t, id, payments[0].TenantID)

		requests, err := s.ListRequests(ctx, db.RequestFilter{TenantID: &id, Limit: 100})
		require.NoError(t, err)
		require.Len(t, requests, 1)
		require.Equal(t, id, requests[0].TenantID)
	}

	all, err := s.ListBookings(ctx, db.BookingFilter{Limit: 100})
	require.NoError(t, err)
	require.Len(t, all, 2)
}
