package repository

import (
	"context"
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/billflow/pkg/db/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type record struct {
	ID    int64 `gorm:"primaryKey;autoIncrement:false"`
	Name  string
	Email string
}

func newStore(t *testing.T) (*gorm.DB, Repository[record]) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&record{}))
	return db, ProvideStore[record](db)
}

func TestStoreCRUD(t *testing.T) {
	ctx := context.Background()
	_, repo := newStore(t)

	require.NoError(t, repo.Create(ctx, &record{ID: 1, Name: "Acme", Email: "ops@acme.test"}))

	got, err := repo.FindByID(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Acme", got.Name)

	missing, err := repo.FindByID(ctx, 42)
	require.NoError(t, err)
	assert.Nil(t, missing)

	got.Name = "Acme Ltd"
	require.NoError(t, repo.Save(ctx, got))

	byEmail, err := repo.FindOne(ctx, &record{Email: "ops@acme.test"})
	require.NoError(t, err)
	require.NotNil(t, byEmail)
	assert.Equal(t, "Acme Ltd", byEmail.Name)

	exists, err := repo.Exists(ctx, option.ApplyOperator(option.Condition{Field: "email", Value: "ops@acme.test"}))
	require.NoError(t, err)
	assert.True(t, exists)

	count, err := repo.Count(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	require.NoError(t, repo.Delete(ctx, 1))
	count, err = repo.Count(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestStoreWithTrxRollsBack(t *testing.T) {
	ctx := context.Background()
	db, repo := newStore(t)

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := repo.WithTrx(tx).Create(ctx, &record{ID: 7, Name: "Temp"}); err != nil {
			return err
		}
		return fmt.Errorf("abort")
	})
	require.Error(t, err)

	got, err := repo.FindByID(ctx, 7)
	require.NoError(t, err)
	assert.Nil(t, got)
}
