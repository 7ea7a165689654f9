package service

import (
	"context"
	"testing"
	"time"

	"github.com/smallbiznis/billflow/internal/clock"
	"github.com/smallbiznis/billflow/internal/supplier/domain"
	"github.com/smallbiznis/billflow/internal/supplier/repository"
	"github.com/smallbiznis/billflow/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(t *testing.T) domain.Service {
	t.Helper()
	return New(Params{
		DB:    testutil.OpenDB(t, &domain.Supplier{}),
		Log:   zap.NewNop(),
		GenID: testutil.MustNode(t),
		Clock: clock.NewFakeClock(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)),
		Repo:  repository.Provide(),
	})
}

func TestSupplierLifecycle(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	created, err := svc.Create(ctx, domain.SupplierRequest{Name: " Volt Traders ", Email: "sales@volt.test"})
	require.NoError(t, err)
	assert.Equal(t, "Volt Traders", created.Name)
	assert.NotZero(t, created.ID)

	updated, err := svc.Update(ctx, domain.UpdateSupplierRequest{
		ID:              created.ID.String(),
		SupplierRequest: domain.SupplierRequest{Name: "Volt Trading Co", Phone: "555-0101"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Volt Trading Co", updated.Name)
	assert.Equal(t, "555-0101", updated.Phone)

	_, err = svc.Create(ctx, domain.SupplierRequest{Name: "Amp House"})
	require.NoError(t, err)

	list, err := svc.List(ctx, domain.ListSupplierRequest{Name: "volt"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)

	require.NoError(t, svc.Delete(ctx, created.ID.String()))
	_, err = svc.GetByID(ctx, created.ID.String())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSupplierValidation(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	_, err := svc.Create(ctx, domain.SupplierRequest{Name: "  "})
	assert.ErrorIs(t, err, domain.ErrInvalidName)

	_, err = svc.Create(ctx, domain.SupplierRequest{Name: "X", Email: "nope"})
	assert.ErrorIs(t, err, domain.ErrInvalidEmail)

	_, err = svc.GetByID(ctx, "abc")
	assert.ErrorIs(t, err, domain.ErrInvalidID)

	err = svc.Delete(ctx, "12345")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
