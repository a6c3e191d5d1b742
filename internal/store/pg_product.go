package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/abgdnv/stitchnstyle/internal/catalog"
	sferrors "github.com/abgdnv/stitchnstyle/internal/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const productColumns = `id, name, description, price::text, category, sub_category, sizes, images, bestseller, version, created_at`

// PgProductStore is the PostgreSQL product catalog.
type PgProductStore struct {
	db DB
}

// NewPgProductStore creates a ProductStore backed by PostgreSQL.
func NewPgProductStore(db DB) *PgProductStore {
	return &PgProductStore{db: db}
}

func scanProduct(row pgx.Row) (*catalog.Product, error) {
	var (
		p     catalog.Product
		price string
	)
	err := row.Scan(&p.ID, &p.Name, &p.Description, &price, &p.Category, &p.SubCategory,
		&p.Sizes, &p.Images, &p.Bestseller, &p.Version, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	p.Price, err = decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("parse price %q: %w", price, err)
	}
	return &p, nil
}

func collectProducts(rows pgx.Rows) ([]catalog.Product, error) {
	defer rows.Close()
	products := make([]catalog.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

func (p *PgProductStore) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	product, err := scanProduct(p.db.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sferrors.ErrProductNotFound
		}
		return nil, fmt.Errorf("find product: %w", err)
	}
	return product, nil
}

func (p *PgProductStore) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]catalog.Product, error) {
	if len(ids) == 0 {
		return []catalog.Product{}, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = id.String()
	}
	rows, err := p.db.Query(ctx, `SELECT `+productColumns+` FROM products WHERE id = ANY($1::uuid[])`, keys)
	if err != nil {
		return nil, fmt.Errorf("find products: %w", err)
	}
	return collectProducts(rows)
}

func (p *PgProductStore) FindAll(ctx context.Context, offset, limit int32) ([]catalog.Product, error) {
	rows, err := p.db.Query(ctx,
		`SELECT `+productColumns+` FROM products ORDER BY created_at DESC, id OFFSET $1 LIMIT $2`, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return collectProducts(rows)
}

func (p *PgProductStore) Create(ctx context.Context, in catalog.Product) (*catalog.Product, error) {
	id := in.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	created, err := scanProduct(p.db.QueryRow(ctx, `
		INSERT INTO products (id, name, description, price, category, sub_category, sizes, images, bestseller, version, created_at)
		VALUES ($1, $2, $3, $4::numeric, $5, $6, $7, $8, $9, 1, $10)
		RETURNING `+productColumns,
		id, in.Name, in.Description, in.Price.String(), in.Category, in.SubCategory,
		nonNil(in.Sizes), nonNil(in.Images), in.Bestseller, time.Now().UTC()))
	if err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	return created, nil
}

func (p *PgProductStore) Update(ctx context.Context, in catalog.Product) (*catalog.Product, error) {
	var updated *catalog.Product
	txErr := withTransaction(ctx, p.db, func(tx pgx.Tx) error {
		var err error
		updated, err = scanProduct(tx.QueryRow(ctx, `
			UPDATE products
			SET name = $3, description = $4, price = $5::numeric, category = $6, sub_category = $7,
			    sizes = $8, images = $9, bestseller = $10, version = version + 1
			WHERE id = $1 AND version = $2
			RETURNING `+productColumns,
			in.ID, in.Version, in.Name, in.Description, in.Price.String(), in.Category, in.SubCategory,
			nonNil(in.Sizes), nonNil(in.Images), in.Bestseller))
		if err == nil {
			return nil
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return missingOrStale(ctx, tx, in.ID)
		}
		return fmt.Errorf("update product: %w", err)
	})
	if txErr != nil {
		return nil, txErr
	}
	return updated, nil
}

func (p *PgProductStore) DeleteByID(ctx context.Context, id uuid.UUID, version int32) error {
	return withTransaction(ctx, p.db, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM products WHERE id = $1 AND version = $2`, id, version)
		if err != nil {
			return fmt.Errorf("delete product: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return missingOrStale(ctx, tx, id)
		}
		return nil
	})
}

// missingOrStale tells an unknown product from a version mismatch.
func missingOrStale(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("check product: %w", err)
	}
	if exists {
		return sferrors.ErrOptimisticLock
	}
	return sferrors.ErrProductNotFound
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
