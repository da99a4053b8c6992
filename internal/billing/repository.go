package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/partsledger/partsledger/internal/platform/db"
)

// PartRecord is the slice of a part row billing needs during submission.
type PartRecord struct {
	ID       string
	Name     string
	Quantity int
	Rate     float64
}

// Repository persists billing data in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes the operations invoice submission performs
// inside a single transaction.
type TxRepository interface {
	GetPartForUpdate(ctx context.Context, id string) (PartRecord, error)
	SetPartQuantity(ctx context.Context, id string, quantity int) error
	InsertCustomer(ctx context.Context, input CustomerInput) (Customer, error)
	InsertBill(ctx context.Context, customerID string, totalAmount float64) (Bill, error)
	InsertBillItem(ctx context.Context, item BillItem) (BillItem, error)
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

// ListBills returns bills newest first with their customer, plus the
// total row count.
func (r *Repository) ListBills(ctx context.Context, req ListBillsRequest) ([]Bill, int, error) {
	var (
		conditions []string
		args       []any
	)
	if req.Search != "" {
		args = append(args, "%"+req.Search+"%")
		conditions = append(conditions, fmt.Sprintf("(c.name ILIKE $%d OR b.invoice_number::text LIKE $%d)", len(args), len(args)))
	}
	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM bills b JOIN customers c ON c.id = b.customer_id" + where
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
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
		SELECT b.id, b.invoice_number, b.customer_id, b.total_amount, b.created_at,
		       c.id, c.name, c.phone, c.email, c.address, c.created_at
		FROM bills b
		JOIN customers c ON c.id = b.customer_id%s
		ORDER BY b.created_at DESC
		LIMIT $%d OFFSET $%d`, where, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var bills []Bill
	for rows.Next() {
		var (
			bill     Bill
			customer Customer
		)
		if err := rows.Scan(
			&bill.ID, &bill.InvoiceNumber, &bill.CustomerID, &bill.TotalAmount, &bill.CreatedAt,
			&customer.ID, &customer.Name, &customer.Phone, &customer.Email, &customer.Address, &customer.CreatedAt,
		); err != nil {
			return nil, 0, err
		}
		bill.Customer = &customer
		bills = append(bills, bill)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	if err := r.attachItems(ctx, bills); err != nil {
		return nil, 0, err
	}
	return bills, total, nil
}

func (r *Repository) attachItems(ctx context.Context, bills []Bill) error {
	if len(bills) == 0 {
		return nil
	}
	ids := make([]string, 0, len(bills))
	index := make(map[string]*Bill, len(bills))
	for i := range bills {
		ids = append(ids, bills[i].ID)
		index[bills[i].ID] = &bills[i]
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, bill_id, part_id, part_name, position, quantity, rate, total
		FROM bill_items
		WHERE bill_id = ANY($1)
		ORDER BY bill_id, position`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var item BillItem
		if err := rows.Scan(&item.ID, &item.BillID, &item.PartID, &item.PartName, &item.Position, &item.Quantity, &item.Rate, &item.Total); err != nil {
			return err
		}
		if bill, ok := index[item.BillID]; ok {
			bill.Items = append(bill.Items, item)
		}
	}
	return rows.Err()
}

// GetBill fetches a bill with its customer and items.
func (r *Repository) GetBill(ctx context.Context, id string) (*Bill, error) {
	var (
		bill     Bill
		customer Customer
	)
	err := r.pool.QueryRow(ctx, `
		SELECT b.id, b.invoice_number, b.customer_id, b.total_amount, b.created_at,
		       c.id, c.name, c.phone, c.email, c.address, c.created_at
		FROM bills b
		JOIN customers c ON c.id = b.customer_id
		WHERE b.id = $1`, id,
	).Scan(
		&bill.ID, &bill.InvoiceNumber, &bill.CustomerID, &bill.TotalAmount, &bill.CreatedAt,
		&customer.ID, &customer.Name, &customer.Phone, &customer.Email, &customer.Address, &customer.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	bill.Customer = &customer

	rows, err := r.pool.Query(ctx, `
		SELECT id, bill_id, part_id, part_name, position, quantity, rate, total
		FROM bill_items
		WHERE bill_id = $1
		ORDER BY position`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var item BillItem
		if err := rows.Scan(&item.ID, &item.BillID, &item.PartID, &item.PartName, &item.Position, &item.Quantity, &item.Rate, &item.Total); err != nil {
			return nil, err
		}
		bill.Items = append(bill.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &bill, nil
}

func (t *txRepo) GetPartForUpdate(ctx context.Context, id string) (PartRecord, error) {
	var part PartRecord
	err := t.tx.QueryRow(ctx,
		`SELECT id, name, quantity, rate FROM parts WHERE id = $1 FOR UPDATE`, id,
	).Scan(&part.ID, &part.Name, &part.Quantity, &part.Rate)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return PartRecord{}, ErrUnknownPart
		}
		return PartRecord{}, err
	}
	return part, nil
}

func (t *txRepo) SetPartQuantity(ctx context.Context, id string, quantity int) error {
	_, err := t.tx.Exec(ctx, `UPDATE parts SET quantity = $1, updated_at = NOW() WHERE id = $2`, quantity, id)
	return err
}

func (t *txRepo) InsertCustomer(ctx context.Context, input CustomerInput) (Customer, error) {
	var customer Customer
	err := t.tx.QueryRow(ctx, `
		INSERT INTO customers (name, phone, email, address)
		VALUES ($1, $2, $3, $4)
		RETURNING id, name, phone, email, address, created_at`,
		input.Name, input.Phone, input.Email, input.Address,
	).Scan(&customer.ID, &customer.Name, &customer.Phone, &customer.Email, &customer.Address, &customer.CreatedAt)
	return customer, err
}

func (t *txRepo) InsertBill(ctx context.Context, customerID string, totalAmount float64) (Bill, error) {
	var bill Bill
	err := t.tx.QueryRow(ctx, `
		INSERT INTO bills (customer_id, total_amount)
		VALUES ($1, $2)
		RETURNING id, invoice_number, customer_id, total_amount, created_at`,
		customerID, totalAmount,
	).Scan(&bill.ID, &bill.InvoiceNumber, &bill.CustomerID, &bill.TotalAmount, &bill.CreatedAt)
	return bill, err
}

func (t *txRepo) InsertBillItem(ctx context.Context, item BillItem) (BillItem, error) {
	err := t.tx.QueryRow(ctx, `
		INSERT INTO bill_items (bill_id, part_id, part_name, position, quantity, rate, total)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		item.BillID, item.PartID, item.PartName, item.Position, item.Quantity, item.Rate, item.Total,
	).Scan(&item.ID)
	return item, err
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
