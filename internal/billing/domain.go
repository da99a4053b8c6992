package billing

import (
	"errors"
	"time"
)

// Customer is the buyer recorded on a bill. Every bill gets a fresh
// customer row; there is no deduplication across bills.
type Customer struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Phone     *string   `json:"phone,omitempty" db:"phone"`
	Email     *string   `json:"email,omitempty" db:"email"`
	Address   *string   `json:"address,omitempty" db:"address"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Bill is a finalized invoice.
type Bill struct {
	ID            string     `json:"id" db:"id"`
	InvoiceNumber int64      `json:"invoice_number" db:"invoice_number"`
	CustomerID    string     `json:"customer_id" db:"customer_id"`
	Customer      *Customer  `json:"customer,omitempty" db:"-"`
	TotalAmount   float64    `json:"total_amount" db:"total_amount"`
	Items         []BillItem `json:"items,omitempty" db:"-"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
}

// BillItem is a sold line with the rate snapshotted at sale time.
type BillItem struct {
	ID       string  `json:"id" db:"id"`
	BillID   string  `json:"bill_id" db:"bill_id"`
	PartID   string  `json:"part_id" db:"part_id"`
	PartName string  `json:"part_name" db:"part_name"`
	Position int     `json:"position" db:"position"`
	Quantity int     `json:"quantity" db:"quantity"`
	Rate     float64 `json:"rate" db:"rate"`
	Total    float64 `json:"total" db:"total"`
}

// CustomerInput carries buyer details for a new bill.
type CustomerInput struct {
	Name    string  `json:"name" validate:"required,max=200"`
	Phone   *string `json:"phone,omitempty" validate:"omitempty,max=20"`
	Email   *string `json:"email,omitempty" validate:"omitempty,email"`
	Address *string `json:"address,omitempty" validate:"omitempty,max=500"`
}

// LineInput references a part and quantity to sell.
type LineInput struct {
	PartID   string `json:"part_id" validate:"required,uuid4"`
	Quantity int    `json:"quantity" validate:"required,gt=0"`
}

// CreateBillRequest is the full invoice submission payload.
type CreateBillRequest struct {
	Customer CustomerInput `json:"customer" validate:"required"`
	Items    []LineInput   `json:"items" validate:"required,min=1,dive"`
}

// ListBillsRequest filters bill listings.
type ListBillsRequest struct {
	Search  string
	Page    int
	PerPage int
}

// Sentinel errors for the billing module.
var (
	ErrNotFound          = errors.New("billing: bill not found")
	ErrUnknownPart       = errors.New("billing: line references unknown part")
	ErrInsufficientStock = errors.New("billing: insufficient stock for line")
	ErrEmptyCart         = errors.New("billing: cart has no sellable lines")
	ErrInvalidQuantity   = errors.New("billing: quantity must be a positive integer")
	ErrLineOutOfRange    = errors.New("billing: line index out of range")
)
