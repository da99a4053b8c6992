package reporting

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	StockOverview(ctx context.Context) (StockOverview, error)
	SalesTotals(ctx context.Context) (float64, int, error)
	StockTotals(ctx context.Context, threshold int) (int, int, error)
	SoldItems(ctx context.Context) ([]SoldItemRow, error)
	Bills(ctx context.Context) ([]BillRow, error)
}

// ThresholdPort resolves the canonical low-stock threshold.
type ThresholdPort interface {
	Threshold(ctx context.Context) (int, error)
}

// Service computes inventory and sales reports through the cache.
type Service struct {
	repo       RepositoryPort
	cache      *Cache
	thresholds ThresholdPort
}

// NewService builds Service.
func NewService(repo RepositoryPort, cache *Cache, thresholds ThresholdPort) *Service {
	return &Service{repo: repo, cache: cache, thresholds: thresholds}
}

// StockOverview returns totals plus the lowest stocked parts.
func (s *Service) StockOverview(ctx context.Context) (StockOverview, error) {
	key, err := s.cache.BuildKey(ctx, keyStockOverview()...)
	if err != nil {
		return StockOverview{}, err
	}
	var overview StockOverview
	err = s.cache.FetchJSON(ctx, key, &overview, func(ctx context.Context) (interface{}, error) {
		return s.repo.StockOverview(ctx)
	})
	return overview, err
}

// TopSellers ranks parts by total units sold across all bills.
func (s *Service) TopSellers(ctx context.Context) ([]TopSeller, error) {
	key, err := s.cache.BuildKey(ctx, keyTopSellers()...)
	if err != nil {
		return nil, err
	}
	var sellers []TopSeller
	err = s.cache.FetchJSON(ctx, key, &sellers, func(ctx context.Context) (interface{}, error) {
		rows, err := s.repo.SoldItems(ctx)
		if err != nil {
			return nil, err
		}
		return RankTopSellers(rows), nil
	})
	if sellers == nil {
		sellers = []TopSeller{}
	}
	return sellers, err
}

// MonthlySales buckets bill revenue per calendar month, in order.
func (s *Service) MonthlySales(ctx context.Context) ([]MonthlySales, error) {
	key, err := s.cache.BuildKey(ctx, keyMonthlySales()...)
	if err != nil {
		return nil, err
	}
	var months []MonthlySales
	err = s.cache.FetchJSON(ctx, key, &months, func(ctx context.Context) (interface{}, error) {
		rows, err := s.repo.Bills(ctx)
		if err != nil {
			return nil, err
		}
		return GroupMonthlySales(rows), nil
	})
	if months == nil {
		months = []MonthlySales{}
	}
	return months, err
}

// Summary loads the dashboard headline figures, fanning the totals
// queries out concurrently.
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	threshold, err := s.threshold(ctx)
	if err != nil {
		return Summary{}, err
	}

	key, err := s.cache.BuildKey(ctx, keySummary()...)
	if err != nil {
		return Summary{}, err
	}
	var summary Summary
	err = s.cache.FetchJSON(ctx, key, &summary, func(ctx context.Context) (interface{}, error) {
		loaded := Summary{Threshold: threshold}
		g, ctx := errgroup.WithContext(ctx)

		g.Go(func() error {
			totalSales, totalBills, err := s.repo.SalesTotals(ctx)
			if err != nil {
				return err
			}
			loaded.TotalSales = totalSales
			loaded.TotalBills = totalBills
			return nil
		})
		g.Go(func() error {
			totalStock, lowStock, err := s.repo.StockTotals(ctx, threshold)
			if err != nil {
				return err
			}
			loaded.TotalStock = totalStock
			loaded.LowStockCount = lowStock
			return nil
		})

		if err := g.Wait(); err != nil {
			return nil, err
		}
		loaded.GeneratedAt = time.Now().UTC()
		return loaded, nil
	})
	return summary, err
}

// WarmUp precomputes every report so the next dashboard request hits
// warm keys. Used by the scheduled warmup job.
func (s *Service) WarmUp(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := s.StockOverview(ctx)
		return err
	})
	g.Go(func() error {
		_, err := s.TopSellers(ctx)
		return err
	})
	g.Go(func() error {
		_, err := s.MonthlySales(ctx)
		return err
	})
	g.Go(func() error {
		_, err := s.Summary(ctx)
		return err
	})
	return g.Wait()
}

func (s *Service) threshold(ctx context.Context) (int, error) {
	if s.thresholds == nil {
		return 0, errors.New("reporting: threshold provider not configured")
	}
	return s.thresholds.Threshold(ctx)
}
