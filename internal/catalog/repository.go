package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/partsledger/partsledger/internal/platform/db"
)

const partColumns = `id, serial_number, name, description, quantity, rate, gst_rate, location, image_url, created_at, updated_at`

// Repository persists catalog data in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes transactional operations used by service.
type TxRepository interface {
	GetPartForUpdate(ctx context.Context, id string) (Part, error)
	SetPartQuantity(ctx context.Context, id string, quantity int) error
	OpenAlertExists(ctx context.Context, partID string) (bool, error)
	InsertAlert(ctx context.Context, partID string, currentQuantity, threshold int) error
}

type txRepo struct {
	tx pgx.Tx
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx})
	})
}

// ListParts returns parts matching the filter plus the total row count.
func (r *Repository) ListParts(ctx context.Context, req ListPartsRequest) ([]Part, int, error) {
	var (
		conditions []string
		args       []any
	)
	if req.Search != "" {
		args = append(args, "%"+req.Search+"%")
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR serial_number::text LIKE $%d)", len(args), len(args)))
	}
	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM parts"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	perPage := req.PerPage
	if perPage <= 0 {
		perPage = 20
	}
	page := req.Page
	if page <= 0 {
		page = 1
	}
	args = append(args, perPage, (page-1)*perPage)
	query := fmt.Sprintf("SELECT %s FROM parts%s ORDER BY name ASC LIMIT $%d OFFSET $%d", partColumns, where, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var parts []Part
	for rows.Next() {
		part, err := scanPart(rows)
		if err != nil {
			return nil, 0, err
		}
		parts = append(parts, part)
	}
	return parts, total, rows.Err()
}

// GetPart fetches a part by primary key.
func (r *Repository) GetPart(ctx context.Context, id string) (*Part, error) {
	row := r.pool.QueryRow(ctx, fmt.Sprintf("SELECT %s FROM parts WHERE id = $1", partColumns), id)
	part, err := scanPart(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &part, nil
}

// CreatePart inserts a part; the serial number is assigned by the store.
func (r *Repository) CreatePart(ctx context.Context, req CreatePartRequest) (*Part, error) {
	row := r.pool.QueryRow(ctx, fmt.Sprintf(`
		INSERT INTO parts (name, description, quantity, rate, gst_rate, location, image_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING %s`, partColumns),
		req.Name, req.Description, req.Quantity, req.Rate, req.GSTRate, req.Location, req.ImageURL,
	)
	part, err := scanPart(row)
	if err != nil {
		return nil, err
	}
	return &part, nil
}

// UpdatePart applies a partial column update.
func (r *Repository) UpdatePart(ctx context.Context, id string, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	set := make([]string, 0, len(updates)+1)
	args := make([]any, 0, len(updates)+1)
	for column, value := range updates {
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	set = append(set, "updated_at = NOW()")
	args = append(args, id)
	query := fmt.Sprintf("UPDATE parts SET %s WHERE id = $%d", strings.Join(set, ", "), len(args))

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeletePart removes a part.
func (r *Repository) DeletePart(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM parts WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *txRepo) GetPartForUpdate(ctx context.Context, id string) (Part, error) {
	row := t.tx.QueryRow(ctx, fmt.Sprintf("SELECT %s FROM parts WHERE id = $1 FOR UPDATE", partColumns), id)
	part, err := scanPart(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Part{}, ErrNotFound
		}
		return Part{}, err
	}
	return part, nil
}

func (t *txRepo) SetPartQuantity(ctx context.Context, id string, quantity int) error {
	_, err := t.tx.Exec(ctx, `UPDATE parts SET quantity = $1, updated_at = NOW() WHERE id = $2`, quantity, id)
	return err
}

func (t *txRepo) OpenAlertExists(ctx context.Context, partID string) (bool, error) {
	var exists bool
	err := t.tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM alerts WHERE part_id = $1 AND resolved = FALSE)`, partID).Scan(&exists)
	return exists, err
}

func (t *txRepo) InsertAlert(ctx context.Context, partID string, currentQuantity, threshold int) error {
	_, err := t.tx.Exec(ctx,
		`INSERT INTO alerts (part_id, current_quantity, threshold) VALUES ($1, $2, $3)`,
		partID, currentQuantity, threshold,
	)
	return err
}

func scanPart(row pgx.Row) (Part, error) {
	var part Part
	err := row.Scan(
		&part.ID,
		&part.SerialNumber,
		&part.Name,
		&part.Description,
		&part.Quantity,
		&part.Rate,
		&part.GSTRate,
		&part.Location,
		&part.ImageURL,
		&part.CreatedAt,
		&part.UpdatedAt,
	)
	return part, err
}
