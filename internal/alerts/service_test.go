package alerts

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/partsledger/partsledger/internal/shared"
)

type fakeRepo struct {
	alerts    map[string]*Alert
	threshold int
	hasStored bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{alerts: make(map[string]*Alert)}
}

func (f *fakeRepo) ListAlerts(_ context.Context, req ListAlertsRequest) ([]Alert, int, error) {
	var out []Alert
	for _, alert := range f.alerts {
		if req.Resolved != nil && alert.Resolved != *req.Resolved {
			continue
		}
		out = append(out, *alert)
	}
	return out, len(out), nil
}

func (f *fakeRepo) GetAlert(_ context.Context, id string) (*Alert, error) {
	alert, ok := f.alerts[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *alert
	return &copied, nil
}

func (f *fakeRepo) ResolveAlert(_ context.Context, id string) (int64, error) {
	alert, ok := f.alerts[id]
	if !ok || alert.Resolved {
		return 0, nil
	}
	now := time.Now()
	alert.Resolved = true
	alert.ResolvedAt = &now
	return 1, nil
}

func (f *fakeRepo) GetThreshold(context.Context) (int, error) {
	if !f.hasStored {
		return 0, shared.ErrNotFound
	}
	return f.threshold, nil
}

func (f *fakeRepo) SetThreshold(_ context.Context, threshold int) error {
	f.threshold = threshold
	f.hasStored = true
	return nil
}

func seedAlert(repo *fakeRepo, id string, resolved bool) {
	repo.alerts[id] = &Alert{ID: id, PartID: "p1", PartName: "bearing", CurrentQuantity: 2, Threshold: 5, Resolved: resolved}
}

func TestResolveAlert(t *testing.T) {
	repo := newFakeRepo()
	seedAlert(repo, "a1", false)
	svc := NewService(repo, nil, nil, 5)

	alert, err := svc.ResolveAlert(context.Background(), "a1", "u1")
	require.NoError(t, err)
	assert.True(t, alert.Resolved)
	require.NotNil(t, alert.ResolvedAt)
}

func TestResolveAlertIsIdempotent(t *testing.T) {
	repo := newFakeRepo()
	seedAlert(repo, "a1", true)
	svc := NewService(repo, nil, nil, 5)

	alert, err := svc.ResolveAlert(context.Background(), "a1", "u1")
	require.NoError(t, err)
	assert.True(t, alert.Resolved)
}

func TestResolveAlertMissing(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil, nil, 5)

	_, err := svc.ResolveAlert(context.Background(), "nope", "u1")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestThresholdFallsBackToDefault(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil, nil, 5)

	threshold, err := svc.Threshold(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, threshold)
}

func TestThresholdUsesStoredValue(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil, nil, 5)

	require.NoError(t, svc.UpdateThreshold(context.Background(), 12, "u1"))

	threshold, err := svc.Threshold(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 12, threshold)
}

func TestThresholdIgnoresNonPositiveStoredValue(t *testing.T) {
	repo := newFakeRepo()
	repo.threshold = 0
	repo.hasStored = true
	svc := NewService(repo, nil, nil, 5)

	threshold, err := svc.Threshold(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, threshold)
}

type fakeBumper struct {
	bumps int
}

func (f *fakeBumper) Bump(context.Context) error {
	f.bumps++
	return nil
}

func TestUpdateThresholdBumpsReportCache(t *testing.T) {
	repo := newFakeRepo()
	bumper := &fakeBumper{}
	svc := NewService(repo, nil, bumper, 5)

	require.NoError(t, svc.UpdateThreshold(context.Background(), 10, "u1"))
	assert.Equal(t, 1, bumper.bumps, "threshold change must invalidate cached reports")
}

func TestListAlertsFiltersResolved(t *testing.T) {
	repo := newFakeRepo()
	seedAlert(repo, "a1", false)
	seedAlert(repo, "a2", true)
	svc := NewService(repo, nil, nil, 5)

	open := false
	alerts, total, err := svc.ListAlerts(context.Background(), ListAlertsRequest{Resolved: &open})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, alerts, 1)
	assert.Equal(t, "a1", alerts[0].ID)
}
