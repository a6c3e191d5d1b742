package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/abgdnv/stitchnstyle/internal/cart"
	sferrors "github.com/abgdnv/stitchnstyle/internal/errors"
	"github.com/jackc/pgx/v5"
)

// PgCartStore keeps each cart as a JSONB document in the carts table.
type PgCartStore struct {
	db DB
}

// NewPgCartStore creates a CartStore backed by PostgreSQL.
func NewPgCartStore(db DB) *PgCartStore {
	return &PgCartStore{db: db}
}

func (p *PgCartStore) Get(ctx context.Context, owner string) (cart.Items, error) {
	if owner == "" {
		return nil, sferrors.ErrOwnerRequired
	}
	var doc []byte
	err := p.db.QueryRow(ctx, `SELECT items FROM carts WHERE owner = $1`, owner).Scan(&doc)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return cart.Items{}, nil
		}
		return nil, fmt.Errorf("find cart: %w", err)
	}
	return cart.Decode(doc)
}

func (p *PgCartStore) Update(ctx context.Context, owner string, fn func(c *cart.Cart) error) (cart.Items, error) {
	if owner == "" {
		return nil, sferrors.ErrOwnerRequired
	}
	var stored cart.Items
	txErr := withTransaction(ctx, p.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `INSERT INTO carts (owner) VALUES ($1) ON CONFLICT (owner) DO NOTHING`, owner); err != nil {
			return fmt.Errorf("ensure cart: %w", err)
		}
		var doc []byte
		if err := tx.QueryRow(ctx, `SELECT items FROM carts WHERE owner = $1 FOR UPDATE`, owner).Scan(&doc); err != nil {
			return fmt.Errorf("lock cart: %w", err)
		}
		items, err := cart.Decode(doc)
		if err != nil {
			return err
		}
		c, err := cart.FromItems(owner, items)
		if err != nil {
			return err
		}
		if err := fn(c); err != nil {
			return err
		}
		stored = c.Items()
		encoded, err := cart.Encode(stored)
		if err != nil {
			return fmt.Errorf("encode cart: %w", err)
		}
		if _, err := tx.Exec(ctx,
			`UPDATE carts SET items = $2, version = version + 1, updated_at = now() WHERE owner = $1`,
			owner, encoded); err != nil {
			return fmt.Errorf("update cart: %w", err)
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}
	return stored, nil
}
