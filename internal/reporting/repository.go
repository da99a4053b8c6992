package reporting

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

const lowStockLimit = 5

// Repository reads report source rows from PostgreSQL. Aggregation
// happens in Go so the reductions stay unit testable.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// StockOverview returns catalog totals plus the lowest stocked parts.
func (r *Repository) StockOverview(ctx context.Context) (StockOverview, error) {
	var overview StockOverview
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*), COALESCE(SUM(quantity), 0) FROM parts`,
	).Scan(&overview.TotalParts, &overview.TotalQuantity)
	if err != nil {
		return StockOverview{}, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, serial_number, name, quantity
		FROM parts
		ORDER BY quantity ASC, name ASC
		LIMIT $1`, lowStockLimit)
	if err != nil {
		return StockOverview{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var part PartStock
		if err := rows.Scan(&part.PartID, &part.SerialNumber, &part.Name, &part.Quantity); err != nil {
			return StockOverview{}, err
		}
		overview.LowStock = append(overview.LowStock, part)
	}
	return overview, rows.Err()
}

// SalesTotals returns lifetime revenue and bill count.
func (r *Repository) SalesTotals(ctx context.Context) (float64, int, error) {
	var (
		totalSales float64
		totalBills int
	)
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(total_amount), 0), COUNT(*) FROM bills`,
	).Scan(&totalSales, &totalBills)
	return totalSales, totalBills, err
}

// StockTotals returns the summed quantity across the catalog and how
// many parts sit below the threshold.
func (r *Repository) StockTotals(ctx context.Context, threshold int) (int, int, error) {
	var (
		totalStock    int
		lowStockCount int
	)
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(quantity), 0),
		       COUNT(*) FILTER (WHERE quantity < $1)
		FROM parts`, threshold,
	).Scan(&totalStock, &lowStockCount)
	return totalStock, lowStockCount, err
}

// SoldItems returns every bill item row for top seller aggregation.
func (r *Repository) SoldItems(ctx context.Context) ([]SoldItemRow, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT part_id, part_name, quantity, total FROM bill_items`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []SoldItemRow
	for rows.Next() {
		var item SoldItemRow
		if err := rows.Scan(&item.PartID, &item.PartName, &item.Quantity, &item.Total); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Bills returns bill date and amount rows for monthly aggregation.
func (r *Repository) Bills(ctx context.Context) ([]BillRow, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT created_at, total_amount FROM bills`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bills []BillRow
	for rows.Next() {
		var bill BillRow
		if err := rows.Scan(&bill.CreatedAt, &bill.TotalAmount); err != nil {
			return nil, err
		}
		bills = append(bills, bill)
	}
	return bills, rows.Err()
}
