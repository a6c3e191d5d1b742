package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/abgdnv/stitchnstyle/internal/customorder"
	sferrors "github.com/abgdnv/stitchnstyle/internal/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// PgCustomOrderStore keeps each order as a JSONB document; status and owner are mirrored into
// columns for filtering.
type PgCustomOrderStore struct {
	db DB
}

// NewPgCustomOrderStore creates a CustomOrderStore backed by PostgreSQL.
func NewPgCustomOrderStore(db DB) *PgCustomOrderStore {
	return &PgCustomOrderStore{db: db}
}

func scanOrder(row pgx.Row) (*customorder.Order, error) {
	var (
		doc     []byte
		version int32
	)
	if err := row.Scan(&doc, &version); err != nil {
		return nil, err
	}
	var o customorder.Order
	if err := json.Unmarshal(doc, &o); err != nil {
		return nil, fmt.Errorf("decode custom order: %w", err)
	}
	o.Version = version
	return &o, nil
}

func collectOrders(rows pgx.Rows) ([]customorder.Order, error) {
	defer rows.Close()
	orders := make([]customorder.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}

func (p *PgCustomOrderStore) Create(ctx context.Context, o *customorder.Order) error {
	doc, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("encode custom order: %w", err)
	}
	_, err = p.db.Exec(ctx, `
		INSERT INTO custom_orders (id, user_id, status, data, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		o.ID, o.UserID, string(o.Status), doc, o.Version, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create custom order: %w", err)
	}
	return nil
}

func (p *PgCustomOrderStore) FindByID(ctx context.Context, id uuid.UUID) (*customorder.Order, error) {
	o, err := scanOrder(p.db.QueryRow(ctx, `SELECT data, version FROM custom_orders WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sferrors.ErrOrderNotFound
		}
		return nil, fmt.Errorf("find custom order: %w", err)
	}
	return o, nil
}

func (p *PgCustomOrderStore) FindByUser(ctx context.Context, userID string, offset, limit int32) ([]customorder.Order, error) {
	rows, err := p.db.Query(ctx, `
		SELECT data, version FROM custom_orders
		WHERE user_id = $1
		ORDER BY created_at DESC, id OFFSET $2 LIMIT $3`, userID, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("list custom orders: %w", err)
	}
	return collectOrders(rows)
}

func (p *PgCustomOrderStore) FindAll(ctx context.Context, status customorder.Status, offset, limit int32) ([]customorder.Order, error) {
	rows, err := p.db.Query(ctx, `
		SELECT data, version FROM custom_orders
		WHERE $1 = '' OR status = $1
		ORDER BY created_at DESC, id OFFSET $2 LIMIT $3`, string(status), offset, limit)
	if err != nil {
		return nil, fmt.Errorf("list custom orders: %w", err)
	}
	return collectOrders(rows)
}

func (p *PgCustomOrderStore) Update(ctx context.Context, id uuid.UUID, fn func(o *customorder.Order) error) (*customorder.Order, error) {
	var updated *customorder.Order
	txErr := withTransaction(ctx, p.db, func(tx pgx.Tx) error {
		o, err := scanOrder(tx.QueryRow(ctx, `SELECT data, version FROM custom_orders WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return sferrors.ErrOrderNotFound
			}
			return fmt.Errorf("lock custom order: %w", err)
		}
		if err := fn(o); err != nil {
			return err
		}
		o.ID = id
		o.Version++
		doc, err := json.Marshal(o)
		if err != nil {
			return fmt.Errorf("encode custom order: %w", err)
		}
		if _, err := tx.Exec(ctx, `
			UPDATE custom_orders SET status = $2, data = $3, version = $4, updated_at = $5
			WHERE id = $1`,
			id, string(o.Status), doc, o.Version, o.UpdatedAt); err != nil {
			return fmt.Errorf("update custom order: %w", err)
		}
		updated = o
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}
	return updated, nil
}
