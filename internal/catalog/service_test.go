package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/partsledger/partsledger/internal/shared"
)

type fakeRepo struct {
	parts      map[string]Part
	openAlerts map[string]bool
	alerts     []fakeAlert
	failTx     error
}

type fakeAlert struct {
	partID    string
	quantity  int
	threshold int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		parts:      make(map[string]Part),
		openAlerts: make(map[string]bool),
	}
}

func (f *fakeRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if f.failTx != nil {
		return f.failTx
	}
	snapshotParts := make(map[string]Part, len(f.parts))
	for k, v := range f.parts {
		snapshotParts[k] = v
	}
	snapshotOpen := make(map[string]bool, len(f.openAlerts))
	for k, v := range f.openAlerts {
		snapshotOpen[k] = v
	}
	snapshotAlerts := append([]fakeAlert(nil), f.alerts...)

	if err := fn(ctx, &fakeTx{repo: f}); err != nil {
		f.parts = snapshotParts
		f.openAlerts = snapshotOpen
		f.alerts = snapshotAlerts
		return err
	}
	return nil
}

func (f *fakeRepo) ListParts(_ context.Context, _ ListPartsRequest) ([]Part, int, error) {
	parts := make([]Part, 0, len(f.parts))
	for _, p := range f.parts {
		parts = append(parts, p)
	}
	return parts, len(parts), nil
}

func (f *fakeRepo) GetPart(_ context.Context, id string) (*Part, error) {
	part, ok := f.parts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &part, nil
}

func (f *fakeRepo) CreatePart(_ context.Context, req CreatePartRequest) (*Part, error) {
	part := Part{
		ID:           "part-" + req.Name,
		SerialNumber: int64(len(f.parts) + 1),
		Name:         req.Name,
		Quantity:     req.Quantity,
		Rate:         req.Rate,
		GSTRate:      req.GSTRate,
	}
	f.parts[part.ID] = part
	return &part, nil
}

func (f *fakeRepo) UpdatePart(_ context.Context, id string, updates map[string]any) error {
	part, ok := f.parts[id]
	if !ok {
		return ErrNotFound
	}
	if name, ok := updates["name"].(string); ok {
		part.Name = name
	}
	if qty, ok := updates["quantity"].(int); ok {
		part.Quantity = qty
	}
	f.parts[id] = part
	return nil
}

func (f *fakeRepo) DeletePart(_ context.Context, id string) error {
	if _, ok := f.parts[id]; !ok {
		return ErrNotFound
	}
	delete(f.parts, id)
	return nil
}

type fakeTx struct {
	repo *fakeRepo
}

func (t *fakeTx) GetPartForUpdate(_ context.Context, id string) (Part, error) {
	part, ok := t.repo.parts[id]
	if !ok {
		return Part{}, ErrNotFound
	}
	return part, nil
}

func (t *fakeTx) SetPartQuantity(_ context.Context, id string, quantity int) error {
	part := t.repo.parts[id]
	part.Quantity = quantity
	t.repo.parts[id] = part
	return nil
}

func (t *fakeTx) OpenAlertExists(_ context.Context, partID string) (bool, error) {
	return t.repo.openAlerts[partID], nil
}

func (t *fakeTx) InsertAlert(_ context.Context, partID string, currentQuantity, threshold int) error {
	t.repo.openAlerts[partID] = true
	t.repo.alerts = append(t.repo.alerts, fakeAlert{partID: partID, quantity: currentQuantity, threshold: threshold})
	return nil
}

type fixedThreshold int

func (f fixedThreshold) Threshold(context.Context) (int, error) { return int(f), nil }

type noopAudit struct{ records []shared.AuditLog }

func (n *noopAudit) Record(_ context.Context, log shared.AuditLog) error {
	n.records = append(n.records, log)
	return nil
}

func seedPart(repo *fakeRepo, id string, quantity int) {
	repo.parts[id] = Part{ID: id, SerialNumber: 1, Name: "bearing", Quantity: quantity, Rate: 25}
}

func TestAdjustStockIncrease(t *testing.T) {
	repo := newFakeRepo()
	seedPart(repo, "p1", 10)
	svc := NewService(repo, nil, fixedThreshold(5), nil)

	result, err := svc.AdjustStock(context.Background(), AdjustStockInput{PartID: "p1", Change: 7})
	require.NoError(t, err)
	assert.Equal(t, 17, result.Part.Quantity)
	assert.Equal(t, 10, result.PrevQuantity)
	assert.False(t, result.AlertRaised)
}

func TestAdjustStockRejectsNegativeResult(t *testing.T) {
	repo := newFakeRepo()
	seedPart(repo, "p1", 3)
	svc := NewService(repo, nil, fixedThreshold(5), nil)

	_, err := svc.AdjustStock(context.Background(), AdjustStockInput{PartID: "p1", Change: -4})
	require.ErrorIs(t, err, ErrInsufficientStock)
	assert.Equal(t, 3, repo.parts["p1"].Quantity, "quantity must be untouched after rollback")
}

func TestAdjustStockRejectsZeroChange(t *testing.T) {
	repo := newFakeRepo()
	seedPart(repo, "p1", 3)
	svc := NewService(repo, nil, fixedThreshold(5), nil)

	_, err := svc.AdjustStock(context.Background(), AdjustStockInput{PartID: "p1", Change: 0})
	require.ErrorIs(t, err, ErrInvalidChange)
}

func TestAdjustStockRaisesAlertBelowThreshold(t *testing.T) {
	repo := newFakeRepo()
	seedPart(repo, "p1", 6)
	svc := NewService(repo, nil, fixedThreshold(5), nil)

	result, err := svc.AdjustStock(context.Background(), AdjustStockInput{PartID: "p1", Change: -3})
	require.NoError(t, err)
	assert.True(t, result.AlertRaised)
	require.Len(t, repo.alerts, 1)
	assert.Equal(t, "p1", repo.alerts[0].partID)
	assert.Equal(t, 3, repo.alerts[0].quantity)
	assert.Equal(t, 5, repo.alerts[0].threshold)
}

func TestAdjustStockSkipsDuplicateAlert(t *testing.T) {
	repo := newFakeRepo()
	seedPart(repo, "p1", 4)
	repo.openAlerts["p1"] = true
	svc := NewService(repo, nil, fixedThreshold(5), nil)

	result, err := svc.AdjustStock(context.Background(), AdjustStockInput{PartID: "p1", Change: -1})
	require.NoError(t, err)
	assert.False(t, result.AlertRaised)
	assert.Empty(t, repo.alerts)
}

func TestAdjustStockNoAlertOnIncrease(t *testing.T) {
	repo := newFakeRepo()
	seedPart(repo, "p1", 1)
	svc := NewService(repo, nil, fixedThreshold(5), nil)

	result, err := svc.AdjustStock(context.Background(), AdjustStockInput{PartID: "p1", Change: 2})
	require.NoError(t, err)
	assert.False(t, result.AlertRaised, "restocking below threshold must not raise a new alert")
	assert.Empty(t, repo.alerts)
}

func TestAdjustStockUnknownPart(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil, fixedThreshold(5), nil)

	_, err := svc.AdjustStock(context.Background(), AdjustStockInput{PartID: "missing", Change: 1})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUpdatePartPartialFields(t *testing.T) {
	repo := newFakeRepo()
	seedPart(repo, "p1", 10)
	audit := &noopAudit{}
	svc := NewService(repo, audit, fixedThreshold(5), nil)

	name := "sealed bearing"
	part, err := svc.UpdatePart(context.Background(), "p1", UpdatePartRequest{Name: &name}, "u1")
	require.NoError(t, err)
	assert.Equal(t, "sealed bearing", part.Name)
	assert.Equal(t, 10, part.Quantity, "unset fields stay untouched")
	require.Len(t, audit.records, 1)
	assert.Equal(t, "catalog:update", audit.records[0].Action)
}

func TestUpdatePartNoFieldsReturnsCurrent(t *testing.T) {
	repo := newFakeRepo()
	seedPart(repo, "p1", 10)
	audit := &noopAudit{}
	svc := NewService(repo, audit, fixedThreshold(5), nil)

	part, err := svc.UpdatePart(context.Background(), "p1", UpdatePartRequest{}, "u1")
	require.NoError(t, err)
	assert.Equal(t, "bearing", part.Name)
	assert.Empty(t, audit.records, "no-op update must not be audited")
}

func TestDeletePartMissing(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil, fixedThreshold(5), nil)

	err := svc.DeletePart(context.Background(), "missing", "u1")
	require.ErrorIs(t, err, ErrNotFound)
}
