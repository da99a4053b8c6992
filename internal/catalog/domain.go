package catalog

import (
	"errors"
	"time"
)

// Part models a spare part tracked in inventory.
type Part struct {
	ID           string    `json:"id" db:"id"`
	SerialNumber int64     `json:"serial_number" db:"serial_number"`
	Name         string    `json:"name" db:"name"`
	Description  *string   `json:"description,omitempty" db:"description"`
	Quantity     int       `json:"quantity" db:"quantity"`
	Rate         float64   `json:"rate" db:"rate"`
	GSTRate      float64   `json:"gst_rate" db:"gst_rate"`
	Location     *string   `json:"location,omitempty" db:"location"`
	ImageURL     *string   `json:"image_url,omitempty" db:"image_url"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// CreatePartRequest describes a new part.
type CreatePartRequest struct {
	Name        string  `json:"name" validate:"required,max=200"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=2000"`
	Quantity    int     `json:"quantity" validate:"gte=0"`
	Rate        float64 `json:"rate" validate:"gte=0"`
	GSTRate     float64 `json:"gst_rate" validate:"gte=0,lte=100"`
	Location    *string `json:"location,omitempty" validate:"omitempty,max=200"`
	ImageURL    *string `json:"image_url,omitempty" validate:"omitempty,url"`
}

// UpdatePartRequest carries partial updates for a part.
type UpdatePartRequest struct {
	Name        *string  `json:"name,omitempty" validate:"omitempty,max=200"`
	Description *string  `json:"description,omitempty" validate:"omitempty,max=2000"`
	Quantity    *int     `json:"quantity,omitempty" validate:"omitempty,gte=0"`
	Rate        *float64 `json:"rate,omitempty" validate:"omitempty,gte=0"`
	GSTRate     *float64 `json:"gst_rate,omitempty" validate:"omitempty,gte=0,lte=100"`
	Location    *string  `json:"location,omitempty" validate:"omitempty,max=200"`
	ImageURL    *string  `json:"image_url,omitempty" validate:"omitempty,url"`
}

// ListPartsRequest filters part listings.
type ListPartsRequest struct {
	Search  string
	Page    int
	PerPage int
}

// AdjustStockInput describes a stock quantity change.
type AdjustStockInput struct {
	PartID  string
	Change  int
	ActorID string
}

// StockAdjustment reports the outcome of a stock change.
type StockAdjustment struct {
	Part         Part `json:"part"`
	AlertRaised  bool `json:"alert_raised"`
	PrevQuantity int  `json:"previous_quantity"`
}

// ErrNotFound indicates a missing part.
var ErrNotFound = errors.New("catalog: part not found")

// ErrInsufficientStock triggered when a change would leave negative quantity.
var ErrInsufficientStock = errors.New("catalog: insufficient stock")

// ErrInvalidChange indicates a zero quantity change.
var ErrInvalidChange = errors.New("catalog: quantity change must be non zero")
