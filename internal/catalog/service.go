package catalog

import (
	"context"
	"fmt"

	"github.com/partsledger/partsledger/internal/shared"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	ListParts(ctx context.Context, req ListPartsRequest) ([]Part, int, error)
	GetPart(ctx context.Context, id string) (*Part, error)
	CreatePart(ctx context.Context, req CreatePartRequest) (*Part, error)
	UpdatePart(ctx context.Context, id string, updates map[string]any) error
	DeletePart(ctx context.Context, id string) error
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// ThresholdPort resolves the canonical low-stock threshold.
type ThresholdPort interface {
	Threshold(ctx context.Context) (int, error)
}

// CacheBumper invalidates cached report aggregates after writes.
type CacheBumper interface {
	Bump(ctx context.Context) error
}

// Service coordinates catalog operations.
type Service struct {
	repo       RepositoryPort
	audit      AuditPort
	thresholds ThresholdPort
	cache      CacheBumper
}

// NewService builds Service.
func NewService(repo RepositoryPort, audit AuditPort, thresholds ThresholdPort, cache CacheBumper) *Service {
	return &Service{repo: repo, audit: audit, thresholds: thresholds, cache: cache}
}

// ListParts returns parts matching the filter with the total count.
func (s *Service) ListParts(ctx context.Context, req ListPartsRequest) ([]Part, int, error) {
	return s.repo.ListParts(ctx, req)
}

// GetPart fetches a single part.
func (s *Service) GetPart(ctx context.Context, id string) (*Part, error) {
	return s.repo.GetPart(ctx, id)
}

// CreatePart registers a new part; the serial number is store assigned.
func (s *Service) CreatePart(ctx context.Context, req CreatePartRequest, actorID string) (*Part, error) {
	part, err := s.repo.CreatePart(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("create part: %w", err)
	}
	s.recordAudit(ctx, actorID, "catalog:create", part.ID, map[string]any{"name": part.Name, "serial_number": part.SerialNumber})
	s.bumpCache(ctx)
	return part, nil
}

// UpdatePart applies a partial update to an existing part.
func (s *Service) UpdatePart(ctx context.Context, id string, req UpdatePartRequest, actorID string) (*Part, error) {
	updates := make(map[string]any)
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Quantity != nil {
		updates["quantity"] = *req.Quantity
	}
	if req.Rate != nil {
		updates["rate"] = *req.Rate
	}
	if req.GSTRate != nil {
		updates["gst_rate"] = *req.GSTRate
	}
	if req.Location != nil {
		updates["location"] = *req.Location
	}
	if req.ImageURL != nil {
		updates["image_url"] = *req.ImageURL
	}

	if len(updates) == 0 {
		return s.repo.GetPart(ctx, id)
	}

	if err := s.repo.UpdatePart(ctx, id, updates); err != nil {
		return nil, fmt.Errorf("update part: %w", err)
	}
	s.recordAudit(ctx, actorID, "catalog:update", id, map[string]any{"fields": len(updates)})
	s.bumpCache(ctx)
	return s.repo.GetPart(ctx, id)
}

// DeletePart removes a part from the catalog.
func (s *Service) DeletePart(ctx context.Context, id string, actorID string) error {
	if err := s.repo.DeletePart(ctx, id); err != nil {
		return err
	}
	s.recordAudit(ctx, actorID, "catalog:delete", id, nil)
	s.bumpCache(ctx)
	return nil
}

// AdjustStock applies a quantity change, guarding against negative stock and
// raising a low-stock alert when the new quantity crosses the threshold.
func (s *Service) AdjustStock(ctx context.Context, input AdjustStockInput) (StockAdjustment, error) {
	if input.Change == 0 {
		return StockAdjustment{}, ErrInvalidChange
	}
	threshold, err := s.threshold(ctx)
	if err != nil {
		return StockAdjustment{}, fmt.Errorf("resolve threshold: %w", err)
	}

	var result StockAdjustment
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		part, err := tx.GetPartForUpdate(ctx, input.PartID)
		if err != nil {
			return err
		}
		newQty := part.Quantity + input.Change
		if newQty < 0 {
			return ErrInsufficientStock
		}
		if err := tx.SetPartQuantity(ctx, part.ID, newQty); err != nil {
			return err
		}

		result.PrevQuantity = part.Quantity
		part.Quantity = newQty
		result.Part = part

		if input.Change < 0 && newQty < threshold {
			open, err := tx.OpenAlertExists(ctx, part.ID)
			if err != nil {
				return err
			}
			if !open {
				if err := tx.InsertAlert(ctx, part.ID, newQty, threshold); err != nil {
					return err
				}
				result.AlertRaised = true
			}
		}
		return nil
	})
	if err != nil {
		return StockAdjustment{}, err
	}

	s.recordAudit(ctx, input.ActorID, "catalog:adjust-stock", input.PartID, map[string]any{
		"change":       input.Change,
		"new_quantity": result.Part.Quantity,
	})
	s.bumpCache(ctx)
	return result, nil
}

func (s *Service) threshold(ctx context.Context) (int, error) {
	if s.thresholds == nil {
		return 0, fmt.Errorf("catalog: threshold provider not configured")
	}
	return s.thresholds.Threshold(ctx)
}

func (s *Service) recordAudit(ctx context.Context, actorID, action, entityID string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "part",
		EntityID: entityID,
		Meta:     meta,
	})
}

func (s *Service) bumpCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Bump(ctx)
}
