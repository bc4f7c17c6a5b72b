package trucks

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/farmgate/farmgate-pos/internal/shared"
)

// Repository defines truck persistence.
type Repository interface {
	Get(ctx context.Context, id int64) (*Truck, error)
	List(ctx context.Context, activeOnly bool) ([]Truck, error)
	Create(ctx context.Context, truck Truck) (int64, error)
	Update(ctx context.Context, id int64, updates map[string]any) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) Get(ctx context.Context, id int64) (*Truck, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, plate_number, driver_name, is_active, created_at, updated_at
		FROM trucks WHERE id = $1`, id)
	return scanTruck(row)
}

func (r *repository) List(ctx context.Context, activeOnly bool) ([]Truck, error) {
	query := `
		SELECT id, plate_number, driver_name, is_active, created_at, updated_at
		FROM trucks`
	if activeOnly {
		query += ` WHERE is_active`
	}
	query += ` ORDER BY plate_number`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trucks []Truck
	for rows.Next() {
		t, err := scanTruck(rows)
		if err != nil {
			return nil, err
		}
		trucks = append(trucks, *t)
	}
	return trucks, rows.Err()
}

func (r *repository) Create(ctx context.Context, truck Truck) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO trucks (plate_number, driver_name, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		RETURNING id`,
		truck.PlateNumber, truck.DriverName, truck.IsActive,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, shared.ErrDuplicate
		}
		return 0, err
	}
	return id, nil
}

func (r *repository) Update(ctx context.Context, id int64, updates map[string]any) error {
	query := "UPDATE trucks SET updated_at = NOW()"
	var args []any
	argPos := 1

	for _, col := range []string{"plate_number", "driver_name", "is_active"} {
		if v, ok := updates[col]; ok {
			query += fmt.Sprintf(", %s = $%d", col, argPos)
			args = append(args, v)
			argPos++
		}
	}

	query += fmt.Sprintf(" WHERE id = $%d", argPos)
	args = append(args, id)

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanTruck(row pgx.Row) (*Truck, error) {
	var (
		t      Truck
		driver pgtype.Text
	)
	err := row.Scan(&t.ID, &t.PlateNumber, &driver, &t.IsActive, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	if driver.Valid {
		t.DriverName = &driver.String
	}
	return &t, nil
}
