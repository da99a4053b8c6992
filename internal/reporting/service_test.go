package reporting

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/partsledger/partsledger/internal/alerts"
	"github.com/partsledger/partsledger/internal/shared"
)

type fakeRepo struct {
	overview      StockOverview
	soldItems     []SoldItemRow
	bills         []BillRow
	totalSales    float64
	totalBills    int
	quantities    []int
	overviewCalls int
	soldCalls     int
	billCalls     int
	totalsCalls   int
}

func (f *fakeRepo) StockOverview(context.Context) (StockOverview, error) {
	f.overviewCalls++
	return f.overview, nil
}

func (f *fakeRepo) SalesTotals(context.Context) (float64, int, error) {
	f.totalsCalls++
	return f.totalSales, f.totalBills, nil
}

func (f *fakeRepo) StockTotals(_ context.Context, threshold int) (int, int, error) {
	total, low := 0, 0
	for _, qty := range f.quantities {
		total += qty
		if qty < threshold {
			low++
		}
	}
	return total, low, nil
}

func (f *fakeRepo) SoldItems(context.Context) ([]SoldItemRow, error) {
	f.soldCalls++
	return f.soldItems, nil
}

func (f *fakeRepo) Bills(context.Context) ([]BillRow, error) {
	f.billCalls++
	return f.bills, nil
}

type fixedThreshold int

func (f fixedThreshold) Threshold(context.Context) (int, error) { return int(f), nil }

func newTestService(t *testing.T) (*Service, *fakeRepo, *Cache) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewCache(client, time.Minute)
	repo := &fakeRepo{
		overview: StockOverview{
			TotalParts:    3,
			TotalQuantity: 42,
			LowStock:      []PartStock{{PartID: "p1", SerialNumber: 1, Name: "bearing", Quantity: 2}},
		},
		soldItems: []SoldItemRow{
			{PartID: "p1", PartName: "bearing", Quantity: 6, Total: 120},
			{PartID: "p2", PartName: "gasket", Quantity: 2, Total: 30},
		},
		bills: []BillRow{
			{CreatedAt: time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC), TotalAmount: 100},
			{CreatedAt: time.Date(2026, 2, 20, 0, 0, 0, 0, time.UTC), TotalAmount: 50},
		},
		totalSales: 150.00,
		totalBills: 2,
		quantities: []int{2, 8, 32},
	}
	return NewService(repo, cache, fixedThreshold(5)), repo, cache
}

func TestStockOverviewCached(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.StockOverview(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, first.TotalParts)

	_, err = svc.StockOverview(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.overviewCalls, "second read must come from cache")
}

func TestBumpInvalidatesCachedReports(t *testing.T) {
	svc, repo, cache := newTestService(t)
	ctx := context.Background()

	_, err := svc.TopSellers(ctx)
	require.NoError(t, err)
	require.NoError(t, cache.Bump(ctx))

	_, err = svc.TopSellers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.soldCalls, "bump must force a reload")
}

func TestTopSellersAggregated(t *testing.T) {
	svc, _, _ := newTestService(t)

	sellers, err := svc.TopSellers(context.Background())
	require.NoError(t, err)
	require.Len(t, sellers, 2)
	assert.Equal(t, "p1", sellers[0].PartID)
	assert.Equal(t, 6, sellers[0].UnitsSold)
}

func TestMonthlySalesOrderedWithLabels(t *testing.T) {
	svc, _, _ := newTestService(t)

	months, err := svc.MonthlySales(context.Background())
	require.NoError(t, err)
	require.Len(t, months, 1)
	assert.Equal(t, "2026-02", months[0].Month)
	assert.Equal(t, "Feb 2026", months[0].Label)
	assert.Equal(t, 150.00, months[0].Revenue)
}

func TestSummaryHeadlineFigures(t *testing.T) {
	svc, _, _ := newTestService(t)

	summary, err := svc.Summary(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 150.00, summary.TotalSales)
	assert.Equal(t, 2, summary.TotalBills)
	assert.Equal(t, 42, summary.TotalStock)
	assert.Equal(t, 1, summary.LowStockCount)
	assert.Equal(t, 5, summary.Threshold)
	assert.False(t, summary.GeneratedAt.IsZero())
}

func TestSummaryCached(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Summary(ctx)
	require.NoError(t, err)
	_, err = svc.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.totalsCalls, "second read must come from cache")
}

type thresholdStore struct {
	threshold int
	stored    bool
}

func (s *thresholdStore) ListAlerts(context.Context, alerts.ListAlertsRequest) ([]alerts.Alert, int, error) {
	return nil, 0, nil
}

func (s *thresholdStore) GetAlert(context.Context, string) (*alerts.Alert, error) {
	return nil, alerts.ErrNotFound
}

func (s *thresholdStore) ResolveAlert(context.Context, string) (int64, error) {
	return 0, nil
}

func (s *thresholdStore) GetThreshold(context.Context) (int, error) {
	if !s.stored {
		return 0, shared.ErrNotFound
	}
	return s.threshold, nil
}

func (s *thresholdStore) SetThreshold(_ context.Context, threshold int) error {
	s.threshold = threshold
	s.stored = true
	return nil
}

func TestSummaryReflectsThresholdUpdate(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewCache(client, time.Minute)
	repo := &fakeRepo{quantities: []int{2, 8, 32}}
	alertsService := alerts.NewService(&thresholdStore{}, nil, cache, 5)
	svc := NewService(repo, cache, alertsService)
	ctx := context.Background()

	summary, err := svc.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, summary.Threshold)
	assert.Equal(t, 1, summary.LowStockCount)

	require.NoError(t, alertsService.UpdateThreshold(ctx, 10, "u1"))

	summary, err = svc.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10, summary.Threshold, "updated threshold must show immediately")
	assert.Equal(t, 2, summary.LowStockCount)
}

func TestWarmUpPrimesCache(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.WarmUp(ctx))

	_, err := svc.Summary(ctx)
	require.NoError(t, err)
	_, err = svc.StockOverview(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.overviewCalls)
	assert.Equal(t, 1, repo.soldCalls)
	assert.Equal(t, 1, repo.billCalls)
	assert.Equal(t, 1, repo.totalsCalls)
}
