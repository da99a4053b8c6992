package alerts

import (
	"errors"
	"time"
)

// Alert flags a part whose stock dropped below the threshold. Alerts
// resolve one way only; restocking raises a fresh alert next time.
type Alert struct {
	ID              string     `json:"id" db:"id"`
	PartID          string     `json:"part_id" db:"part_id"`
	PartName        string     `json:"part_name" db:"-"`
	CurrentQuantity int        `json:"current_quantity" db:"current_quantity"`
	Threshold       int        `json:"threshold" db:"threshold"`
	Resolved        bool       `json:"resolved" db:"resolved"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	ResolvedAt      *time.Time `json:"resolved_at,omitempty" db:"resolved_at"`
}

// ListAlertsRequest filters alert listings.
type ListAlertsRequest struct {
	Resolved *bool
	Page     int
	PerPage  int
}

// UpdateThresholdRequest changes the canonical low-stock threshold.
type UpdateThresholdRequest struct {
	Threshold int `json:"threshold" validate:"required,gt=0"`
}

// ThresholdSetting is the stored threshold payload.
type ThresholdSetting struct {
	Threshold int `json:"threshold"`
}

// ErrNotFound indicates a missing alert.
var ErrNotFound = errors.New("alerts: alert not found")
