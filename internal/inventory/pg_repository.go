package inventory

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const productColumns = `id::text, name, manufacturer, supply_type, unit, quantity, reorder_level,
	cost_per_unit, expiration_date, status, created_at, updated_at`

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func scanProduct(row pgx.Row) (*Product, error) {
	var p Product

	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Manufacturer,
		&p.SupplyType,
		&p.Unit,
		&p.Quantity,
		&p.ReorderLevel,
		&p.CostPerUnit,
		&p.ExpirationDate,
		&p.Status,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	return &p, nil
}

func (r *PgRepository) Create(ctx context.Context, p Product) (*Product, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO products (id, name, manufacturer, supply_type, unit, quantity, reorder_level,
			cost_per_unit, expiration_date, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now(), now())
		RETURNING `+productColumns,
		p.ID, p.Name, p.Manufacturer, p.SupplyType, p.Unit, p.Quantity, p.ReorderLevel,
		p.CostPerUnit, p.ExpirationDate, p.Status)

	return scanProduct(row)
}

func (r *PgRepository) GetByID(ctx context.Context, id string) (*Product, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	return scanProduct(row)
}

func (r *PgRepository) List(ctx context.Context) ([]Product, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+productColumns+` FROM products ORDER BY name, expiration_date`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (r *PgRepository) Update(ctx context.Context, p Product) (*Product, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE products
		SET name = $2,
		    manufacturer = $3,
		    supply_type = $4,
		    unit = $5,
		    quantity = $6,
		    reorder_level = $7,
		    cost_per_unit = $8,
		    expiration_date = $9,
		    status = $10,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+productColumns,
		p.ID, p.Name, p.Manufacturer, p.SupplyType, p.Unit, p.Quantity, p.ReorderLevel,
		p.CostPerUnit, p.ExpirationDate, p.Status)

	return scanProduct(row)
}

// UpdateStatus only touches the row when the status actually differs.
func (r *PgRepository) UpdateStatus(ctx context.Context, id, status string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE products
		SET status = $2, updated_at = now()
		WHERE id = $1 AND status <> $2
	`, id, status)
	return err
}

func (r *PgRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}
