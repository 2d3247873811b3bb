package db_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"officecrm/db"
	"officecrm/internal/apperr"
	"officecrm/models"
)

func TestCreatePaymentRules(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	tenant := seedTenant(t, s)
	office := seedOffice(t, s, "101")
	c := seedContract(t, s, tenant.ID, office.ID, "2025-01-01", "2025-12-31")

	p := &models.Payment{ContractID: c.ID, DueDate: date(t, "2025-02-01"), Amount: 100}
	require.NoError(t, s.CreatePayment(ctx, p))
	require.Equal(t, models.PaymentUnpaid, p.Status)
	require.Equal(t, tenant.ID, p.TenantID)

	early := &models.Payment{ContractID: c.ID, DueDate: date(t, "2024-12-01"), Amount: 100}
	require.ErrorIs(t, s.CreatePayment(ctx, early), apperr.ErrInvalidRange)

	missing := &models.Payment{ContractID: 999, DueDate: date(t, "2025-02-01"), Amount: 100}
	require.ErrorIs(t, s.CreatePayment(ctx, missing), apperr.ErrNotFound)

	zero := &models.Payment{ContractID: c.ID, DueDate: date(t, "2025-02-01"), Amount: 0}
	require.ErrorIs(t, s.CreatePayment(ctx, zero), apperr.ErrConstraintViolation)

	terminated := models.ContractTerminated
	_, err := s.UpdateContract(ctx, c.ID, models.ContractPatch{Status: &terminated})
	require.NoError(t, err)
	late := &models.Payment{ContractID: c.ID, DueDate: date(t, "2025-03-01"), Amount: 100}
	require.ErrorIs(t, s.CreatePayment(ctx, late), apperr.ErrInvalidState)
}

func TestUpdatePaymentPaid(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	tenant := seedTenant(t, s)
	office := seedOffice(t, s, "101")
	c := seedContract(t, s, tenant.ID, office.ID, "2025-01-01", "2025-12-31")
	p := &models.Payment{ContractID: c.ID, DueDate: date(t, "2025-02-01"), Amount: 100}
	require.NoError(t, s.CreatePayment(ctx, p))

	paid := models.PaymentPaid
	updated, err := s.UpdatePayment(ctx, p.ID, models.PaymentPatch{Status: &paid})
	require.NoError(t, err)
	require.Equal(t, models.PaymentPaid, updated.Status)
	require.NotNil(t, updated.PaymentDate)

	got, err := s.GetPayment(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, got.PaymentDate)
	require.Equal(t, tenant.ID, got.TenantID)

	due := date(t, "2024-01-01")
	_, err = s.UpdatePayment(ctx, p.ID, models.PaymentPatch{DueDate: &due})
	require.ErrorIs(t, err, apperr.ErrInvalidRange)

	unpaid := models.PaymentUnpaid
	updated, err = s.UpdatePayment(ctx, p.ID, models.PaymentPatch{Status: &unpaid})
	require.NoError(t, err)
	require.Nil(t, updated.PaymentDate)
	got, err = s.GetPayment(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, models.PaymentUnpaid, got.Status)
	require.Nil(t, got.PaymentDate)

	require.NoError(t, s.DeletePayment(ctx, p.ID))
	_, err = s.GetPayment(ctx, p.ID)
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestSweepOverduePaymentsIdempotent(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	tenant := seedTenant(t, s)
	office := seedOffice(t, s, "101")
	c := seedContract(t, s, tenant.ID, office.ID, "2025-01-01", "2025-12-31")

	for _, due := range []string{"2025-01-15", "2025-02-15", "2025-03-15", "2025-04-15"} {
		require.NoError(t, s.CreatePayment(ctx, &models.Payment{ContractID: c.ID, DueDate: date(t, due), Amount: 100}))
	}
	paidPayment := &models.Payment{ContractID: c.ID, DueDate: date(t, "2025-01-20"), Amount: 100, Status: models.PaymentPaid}
	require.NoError(t, s.CreatePayment(ctx, paidPayment))

	asOf := date(t, "2025-03-15")
	n, err := s.SweepOverduePayments(ctx, asOf)
	require.NoError(t, err)
	require.EqualValues(t, 2, n, "due dates strictly before the sweep date")

	n, err = s.SweepOverduePayments(ctx, asOf)
	require.NoError(t, err)
	require.EqualValues(t, 0, n)

	overdue := models.PaymentOverdue
	rows, err := s.ListPayments(ctx, db.PaymentFilter{Status: &overdue, Limit: 100})
	require.NoError(t, err)
	require.Len(t, rows, 2)
}

func TestRequestLifecycle(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	tenant := seedTenant(t, s)
	office := seedOffice(t, s, "101")
	c := seedContract(t, s, tenant.ID, office.ID, "2025-01-01", "2025-12-31")

	r := &models.Request{ContractID: c.ID, Text: "Air conditioning is broken"}
	require.NoError(t, s.CreateRequest(ctx, r))
	require.Equal(t, models.RequestNew, r.Status)
	require.Equal(t, tenant.ID, r.TenantID)

	inProgress := models.RequestInProgress
	updated, err := s.UpdateRequest(ctx, r.ID, models.RequestPatch{Status: &inProgress})
	require.NoError(t, err)
	require.Equal(t, models.RequestInProgress, updated.Status)
	require.Equal(t, r.Text, updated.Text)

	tooLong := &models.Request{ContractID: c.ID, Text: strings.Repeat("x", 501)}
	require.ErrorIs(t, s.CreateRequest(ctx, tooLong), apperr.ErrConstraintViolation)

	missing := &models.Request{ContractID: 999, Text: "hello"}
	require.ErrorIs(t, s.CreateRequest(ctx, missing), apperr.ErrNotFound)

	require.NoError(t, s.DeleteRequest(ctx, r.ID))
	require.ErrorIs(t, s.DeleteRequest(ctx, r.ID), apperr.ErrNotFound)
}
