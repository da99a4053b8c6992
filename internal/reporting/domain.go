package reporting

import "time"

// PartStock is a part's stock position used by the overview report.
type PartStock struct {
	PartID       string `json:"part_id" db:"part_id"`
	SerialNumber int64  `json:"serial_number" db:"serial_number"`
	Name         string `json:"name" db:"name"`
	Quantity     int    `json:"quantity" db:"quantity"`
}

// StockOverview summarises inventory health.
type StockOverview struct {
	TotalParts    int         `json:"total_parts"`
	TotalQuantity int         `json:"total_quantity"`
	LowStock      []PartStock `json:"low_stock"`
}

// SoldItemRow is a raw bill item row fed into aggregation.
type SoldItemRow struct {
	PartID   string  `json:"part_id" db:"part_id"`
	PartName string  `json:"part_name" db:"part_name"`
	Quantity int     `json:"quantity" db:"quantity"`
	Total    float64 `json:"total" db:"total"`
}

// TopSeller is an aggregated sales rank entry.
type TopSeller struct {
	PartID    string  `json:"part_id"`
	PartName  string  `json:"part_name"`
	UnitsSold int     `json:"units_sold"`
	Revenue   float64 `json:"revenue"`
}

// BillRow is a raw bill row fed into monthly aggregation.
type BillRow struct {
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	TotalAmount float64   `json:"total_amount" db:"total_amount"`
}

// MonthlySales is revenue for one calendar month. Label carries the
// short human-readable form of Month.
type MonthlySales struct {
	Month     string  `json:"month"`
	Label     string  `json:"label"`
	BillCount int     `json:"bill_count"`
	Revenue   float64 `json:"revenue"`
}

// Summary is the dashboard headline figures.
type Summary struct {
	TotalSales    float64   `json:"total_sales"`
	TotalBills    int       `json:"total_bills"`
	TotalStock    int       `json:"total_stock"`
	LowStockCount int       `json:"low_stock_count"`
	Threshold     int       `json:"threshold"`
	GeneratedAt   time.Time `json:"generated_at"`
}
