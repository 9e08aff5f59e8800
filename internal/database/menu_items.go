package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const menuItemColumns = `id, name, category, price, station, prep_minutes, is_available, stock_count, created_at, updated_at`

func scanMenuItem(row interface{ Scan(dest ...any) error }) (MenuItem, error) {
	var m MenuItem
	err := row.Scan(&m.ID, &m.Name, &m.Category, &m.Price, &m.Station,
		&m.PrepMinutes, &m.IsAvailable, &m.StockCount, &m.CreatedAt, &m.UpdatedAt)
	return m, err
}

type ListMenuItemsParams struct {
	Category      pgtype.Text
	Search        pgtype.Text
	OnlyAvailable bool
}

// ListMenuItems implements the catalog filter: optional category, optional
// case-insensitive name search, optional available-only restriction.
func (q *Queries) ListMenuItems(ctx context.Context, arg ListMenuItemsParams) ([]MenuItem, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+menuItemColumns+` FROM menu_items
		WHERE ($1::text IS NULL OR category = $1)
		  AND ($2::text IS NULL OR name ILIKE '%' || $2 || '%')
		  AND (NOT $3::boolean OR is_available)
		ORDER BY category, name`,
		arg.Category, arg.Search, arg.OnlyAvailable)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []MenuItem
	for rows.Next() {
		m, err := scanMenuItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

func (q *Queries) GetMenuItem(ctx context.Context, id uuid.UUID) (MenuItem, error) {
	row := q.db.QueryRow(ctx, `
		SELECT `+menuItemColumns+` FROM menu_items WHERE id = $1`, id)
	return scanMenuItem(row)
}

type CreateMenuItemParams struct {
	Name        string
	Category    string
	Price       pgtype.Numeric
	Station     pgtype.Text
	PrepMinutes int32
	IsAvailable bool
	StockCount  int32
}

func (q *Queries) CreateMenuItem(ctx context.Context, arg CreateMenuItemParams) (MenuItem, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO menu_items (name, category, price, station, prep_minutes, is_available, stock_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+menuItemColumns,
		arg.Name, arg.Category, arg.Price, arg.Station, arg.PrepMinutes,
		arg.IsAvailable, arg.StockCount)
	return scanMenuItem(row)
}

type UpdateMenuItemParams struct {
	ID          uuid.UUID
	Name        string
	Category    string
	Price       pgtype.Numeric
	Station     pgtype.Text
	PrepMinutes int32
}

func (q *Queries) UpdateMenuItem(ctx context.Context, arg UpdateMenuItemParams) (MenuItem, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE menu_items
		SET name = $2, category = $3, price = $4, station = $5,
		    prep_minutes = $6, updated_at = now()
		WHERE id = $1
		RETURNING `+menuItemColumns,
		arg.ID, arg.Name, arg.Category, arg.Price, arg.Station, arg.PrepMinutes)
	return scanMenuItem(row)
}

type SetMenuItemAvailabilityParams struct {
	ID          uuid.UUID
	IsAvailable bool
}

func (q *Queries) SetMenuItemAvailability(ctx context.Context, arg SetMenuItemAvailabilityParams) (MenuItem, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE menu_items
		SET is_available = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+menuItemColumns,
		arg.ID, arg.IsAvailable)
	return scanMenuItem(row)
}

type AdjustMenuItemStockParams struct {
	ID    uuid.UUID
	Delta int32
}

// AdjustMenuItemStock applies a signed inventory adjustment. The WHERE clause
// refuses adjustments that would drive the count negative; callers see
// pgx.ErrNoRows in that case.
func (q *Queries) AdjustMenuItemStock(ctx context.Context, arg AdjustMenuItemStockParams) (MenuItem, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE menu_items
		SET stock_count = stock_count + $2, updated_at = now()
		WHERE id = $1 AND stock_count + $2 >= 0
		RETURNING `+menuItemColumns,
		arg.ID, arg.Delta)
	return scanMenuItem(row)
}

func (q *Queries) DeleteMenuItem(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	var deleted uuid.UUID
	err := q.db.QueryRow(ctx, `
		DELETE FROM menu_items WHERE id = $1 RETURNING id`, id).Scan(&deleted)
	return deleted, err
}
