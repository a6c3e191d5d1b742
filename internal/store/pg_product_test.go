package store

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/abgdnv/stitchnstyle/internal/catalog"
	sferrors "github.com/abgdnv/stitchnstyle/internal/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var productRowColumns = []string{"id", "name", "description", "price", "category", "sub_category", "sizes", "images", "bestseller", "version", "created_at"}

func productRows(products ...catalog.Product) *pgxmock.Rows {
	rows := pgxmock.NewRows(productRowColumns)
	for _, p := range products {
		rows.AddRow(p.ID, p.Name, p.Description, p.Price.StringFixed(2), p.Category, p.SubCategory,
			p.Sizes, p.Images, p.Bestseller, p.Version, p.CreatedAt)
	}
	return rows
}

func sampleProduct() catalog.Product {
	return catalog.Product{
		ID:          uuid.New(),
		Name:        "Linen Kurta",
		Description: "Breathable summer kurta",
		Price:       decimal.RequireFromString("1299.50"),
		Category:    "Men",
		SubCategory: "Topwear",
		Sizes:       []string{"M", "L"},
		Images:      []string{"https://img.example.com/kurta.jpg"},
		Bestseller:  true,
		Version:     1,
		CreatedAt:   time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestPgProductStore_FindByID(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		mock := newMock(t)
		p := sampleProduct()
		mock.ExpectQuery(regexp.QuoteMeta(`FROM products WHERE id = $1`)).WithArgs(p.ID).WillReturnRows(productRows(p))

		got, err := NewPgProductStore(mock).FindByID(context.Background(), p.ID)

		require.NoError(t, err)
		assert.Equal(t, p.Name, got.Name)
		assert.True(t, p.Price.Equal(got.Price))
		assert.Equal(t, p.Sizes, got.Sizes)
	})

	t.Run("not found", func(t *testing.T) {
		mock := newMock(t)
		id := uuid.New()
		mock.ExpectQuery(regexp.QuoteMeta(`FROM products WHERE id = $1`)).WithArgs(id).WillReturnError(pgx.ErrNoRows)

		_, err := NewPgProductStore(mock).FindByID(context.Background(), id)

		assert.ErrorIs(t, err, sferrors.ErrProductNotFound)
		assert.ErrorIs(t, err, sferrors.ErrNotFound)
	})
}

func TestPgProductStore_FindByIDs(t *testing.T) {
	t.Run("empty input skips the query", func(t *testing.T) {
		mock := newMock(t)

		got, err := NewPgProductStore(mock).FindByIDs(context.Background(), nil)

		require.NoError(t, err)
		assert.Empty(t, got)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns existing products", func(t *testing.T) {
		mock := newMock(t)
		p := sampleProduct()
		missing := uuid.New()
		mock.ExpectQuery(regexp.QuoteMeta(`WHERE id = ANY($1::uuid[])`)).
			WithArgs([]string{p.ID.String(), missing.String()}).
			WillReturnRows(productRows(p))

		got, err := NewPgProductStore(mock).FindByIDs(context.Background(), []uuid.UUID{p.ID, missing})

		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, p.ID, got[0].ID)
	})
}

func TestPgProductStore_Update(t *testing.T) {
	updateSQL := regexp.QuoteMeta(`UPDATE products`)
	existsSQL := regexp.QuoteMeta(`SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`)

	t.Run("increments version", func(t *testing.T) {
		mock := newMock(t)
		p := sampleProduct()
		updated := p
		updated.Version = 2
		mock.ExpectBegin()
		mock.ExpectQuery(updateSQL).WillReturnRows(productRows(updated))
		mock.ExpectCommit()

		got, err := NewPgProductStore(mock).Update(context.Background(), p)

		require.NoError(t, err)
		assert.Equal(t, int32(2), got.Version)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("stale version", func(t *testing.T) {
		mock := newMock(t)
		p := sampleProduct()
		mock.ExpectBegin()
		mock.ExpectQuery(updateSQL).WillReturnError(pgx.ErrNoRows)
		mock.ExpectQuery(existsSQL).WithArgs(p.ID).WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
		mock.ExpectRollback()

		_, err := NewPgProductStore(mock).Update(context.Background(), p)

		assert.ErrorIs(t, err, sferrors.ErrOptimisticLock)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown product", func(t *testing.T) {
		mock := newMock(t)
		p := sampleProduct()
		mock.ExpectBegin()
		mock.ExpectQuery(updateSQL).WillReturnError(pgx.ErrNoRows)
		mock.ExpectQuery(existsSQL).WithArgs(p.ID).WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectRollback()

		_, err := NewPgProductStore(mock).Update(context.Background(), p)

		assert.ErrorIs(t, err, sferrors.ErrProductNotFound)
	})
}

func TestPgProductStore_DeleteByID(t *testing.T) {
	deleteSQL := regexp.QuoteMeta(`DELETE FROM products WHERE id = $1 AND version = $2`)

	t.Run("deleted", func(t *testing.T) {
		mock := newMock(t)
		id := uuid.New()
		mock.ExpectBegin()
		mock.ExpectExec(deleteSQL).WithArgs(id, int32(3)).WillReturnResult(pgxmock.NewResult("DELETE", 1))
		mock.ExpectCommit()

		require.NoError(t, NewPgProductStore(mock).DeleteByID(context.Background(), id, 3))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("stale version", func(t *testing.T) {
		mock := newMock(t)
		id := uuid.New()
		mock.ExpectBegin()
		mock.ExpectExec(deleteSQL).WithArgs(id, int32(1)).WillReturnResult(pgxmock.NewResult("DELETE", 0))
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS`)).WithArgs(id).WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
		mock.ExpectRollback()

		err := NewPgProductStore(mock).DeleteByID(context.Background(), id, 1)

		assert.ErrorIs(t, err, sferrors.ErrOptimisticLock)
	})
}
