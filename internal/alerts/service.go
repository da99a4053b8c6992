package alerts

import (
	"context"
	"errors"
	"fmt"

	"github.com/partsledger/partsledger/internal/shared"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	ListAlerts(ctx context.Context, req ListAlertsRequest) ([]Alert, int, error)
	GetAlert(ctx context.Context, id string) (*Alert, error)
	ResolveAlert(ctx context.Context, id string) (int64, error)
	GetThreshold(ctx context.Context) (int, error)
	SetThreshold(ctx context.Context, threshold int) error
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// CacheBumper invalidates cached report aggregates after writes.
type CacheBumper interface {
	Bump(ctx context.Context) error
}

// Service manages low-stock alerts and the canonical threshold. It is
// the single source of truth for the threshold; other modules read it
// through the Threshold method.
type Service struct {
	repo             RepositoryPort
	audit            AuditPort
	cache            CacheBumper
	defaultThreshold int
}

// NewService builds Service. The default threshold applies when no
// stored setting exists yet.
func NewService(repo RepositoryPort, audit AuditPort, cache CacheBumper, defaultThreshold int) *Service {
	return &Service{repo: repo, audit: audit, cache: cache, defaultThreshold: defaultThreshold}
}

// ListAlerts returns alerts matching the filter with the total count.
func (s *Service) ListAlerts(ctx context.Context, req ListAlertsRequest) ([]Alert, int, error) {
	return s.repo.ListAlerts(ctx, req)
}

// ResolveAlert marks an alert resolved. Resolution is one way and
// idempotent: resolving an already resolved alert changes nothing.
func (s *Service) ResolveAlert(ctx context.Context, id, actorID string) (*Alert, error) {
	affected, err := s.repo.ResolveAlert(ctx, id)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		// Either missing or already resolved; GetAlert distinguishes.
		return s.repo.GetAlert(ctx, id)
	}

	s.recordAudit(ctx, actorID, "alerts:resolve", id, nil)
	return s.repo.GetAlert(ctx, id)
}

// Threshold returns the canonical low-stock threshold, falling back to
// the configured default when no setting is stored.
func (s *Service) Threshold(ctx context.Context) (int, error) {
	threshold, err := s.repo.GetThreshold(ctx)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return s.defaultThreshold, nil
		}
		return 0, err
	}
	if threshold <= 0 {
		return s.defaultThreshold, nil
	}
	return threshold, nil
}

// UpdateThreshold stores a new threshold and invalidates the cached
// reports so low-stock counts pick it up immediately. Existing open
// alerts keep the threshold they were raised with.
func (s *Service) UpdateThreshold(ctx context.Context, threshold int, actorID string) error {
	if err := s.repo.SetThreshold(ctx, threshold); err != nil {
		return fmt.Errorf("set threshold: %w", err)
	}
	s.recordAudit(ctx, actorID, "alerts:update-threshold", thresholdKey, map[string]any{"threshold": threshold})
	s.bumpCache(ctx)
	return nil
}

func (s *Service) bumpCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Bump(ctx)
}

func (s *Service) recordAudit(ctx context.Context, actorID, action, entityID string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "alert",
		EntityID: entityID,
		Meta:     meta,
	})
}
