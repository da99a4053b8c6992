package alerts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/partsledger/partsledger/internal/shared"
)

const thresholdKey = "low_stock_threshold"

// Repository persists alerts and settings in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListAlerts returns alerts newest first, optionally filtered by
// resolution state, plus the total row count.
func (r *Repository) ListAlerts(ctx context.Context, req ListAlertsRequest) ([]Alert, int, error) {
	var (
		conditions []string
		args       []any
	)
	if req.Resolved != nil {
		args = append(args, *req.Resolved)
		conditions = append(conditions, fmt.Sprintf("a.resolved = $%d", len(args)))
	}
	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM alerts a"+where, args...).Scan(&total); err != nil {
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
	query := fmt.Sprintf(`
		SELECT a.id, a.part_id, p.name, a.current_quantity, a.threshold, a.resolved, a.created_at, a.resolved_at
		FROM alerts a
		JOIN parts p ON p.id = a.part_id%s
		ORDER BY a.created_at DESC
		LIMIT $%d OFFSET $%d`, where, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var alerts []Alert
	for rows.Next() {
		var alert Alert
		if err := rows.Scan(
			&alert.ID, &alert.PartID, &alert.PartName, &alert.CurrentQuantity,
			&alert.Threshold, &alert.Resolved, &alert.CreatedAt, &alert.ResolvedAt,
		); err != nil {
			return nil, 0, err
		}
		alerts = append(alerts, alert)
	}
	return alerts, total, rows.Err()
}

// GetAlert fetches one alert with its part name.
func (r *Repository) GetAlert(ctx context.Context, id string) (*Alert, error) {
	var alert Alert
	err := r.pool.QueryRow(ctx, `
		SELECT a.id, a.part_id, p.name, a.current_quantity, a.threshold, a.resolved, a.created_at, a.resolved_at
		FROM alerts a
		JOIN parts p ON p.id = a.part_id
		WHERE a.id = $1`, id,
	).Scan(
		&alert.ID, &alert.PartID, &alert.PartName, &alert.CurrentQuantity,
		&alert.Threshold, &alert.Resolved, &alert.CreatedAt, &alert.ResolvedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &alert, nil
}

// ResolveAlert marks an open alert resolved. Returns the number of
// rows touched so the service can tell resolved from missing.
func (r *Repository) ResolveAlert(ctx context.Context, id string) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE alerts SET resolved = TRUE, resolved_at = NOW() WHERE id = $1 AND resolved = FALSE`, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// GetThreshold reads the stored low-stock threshold.
func (r *Repository) GetThreshold(ctx context.Context) (int, error) {
	var setting ThresholdSetting
	err := r.pool.QueryRow(ctx,
		`SELECT value FROM settings WHERE key = $1`, thresholdKey,
	).Scan(&setting)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, shared.ErrNotFound
		}
		return 0, err
	}
	return setting.Threshold, nil
}

// SetThreshold upserts the stored low-stock threshold.
func (r *Repository) SetThreshold(ctx context.Context, threshold int) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO settings (key, value)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`,
		thresholdKey, ThresholdSetting{Threshold: threshold})
	return err
}
