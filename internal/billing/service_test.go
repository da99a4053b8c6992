package billing

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/partsledger/partsledger/internal/shared"
)

type fakeState struct {
	parts      map[string]PartRecord
	customers  []Customer
	bills      []Bill
	items      []BillItem
	openAlerts map[string]bool
	alerts     []fakeAlert
	nextInv    int64
}

type fakeAlert struct {
	partID    string
	quantity  int
	threshold int
}

type fakeRepo struct {
	state fakeState
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{state: fakeState{
		parts:      make(map[string]PartRecord),
		openAlerts: make(map[string]bool),
		nextInv:    1000,
	}}
}

func (s fakeState) clone() fakeState {
	out := s
	out.parts = make(map[string]PartRecord, len(s.parts))
	for k, v := range s.parts {
		out.parts[k] = v
	}
	out.openAlerts = make(map[string]bool, len(s.openAlerts))
	for k, v := range s.openAlerts {
		out.openAlerts[k] = v
	}
	out.customers = append([]Customer(nil), s.customers...)
	out.bills = append([]Bill(nil), s.bills...)
	out.items = append([]BillItem(nil), s.items...)
	out.alerts = append([]fakeAlert(nil), s.alerts...)
	return out
}

func (f *fakeRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	snapshot := f.state.clone()
	if err := fn(ctx, &fakeTx{repo: f}); err != nil {
		f.state = snapshot
		return err
	}
	return nil
}

func (f *fakeRepo) ListBills(_ context.Context, _ ListBillsRequest) ([]Bill, int, error) {
	return f.state.bills, len(f.state.bills), nil
}

func (f *fakeRepo) GetBill(_ context.Context, id string) (*Bill, error) {
	for _, bill := range f.state.bills {
		if bill.ID == id {
			return &bill, nil
		}
	}
	return nil, ErrNotFound
}

type fakeTx struct {
	repo *fakeRepo
}

func (t *fakeTx) GetPartForUpdate(_ context.Context, id string) (PartRecord, error) {
	part, ok := t.repo.state.parts[id]
	if !ok {
		return PartRecord{}, ErrUnknownPart
	}
	return part, nil
}

func (t *fakeTx) SetPartQuantity(_ context.Context, id string, quantity int) error {
	part := t.repo.state.parts[id]
	part.Quantity = quantity
	t.repo.state.parts[id] = part
	return nil
}

func (t *fakeTx) InsertCustomer(_ context.Context, input CustomerInput) (Customer, error) {
	customer := Customer{
		ID:    fmt.Sprintf("cust-%d", len(t.repo.state.customers)+1),
		Name:  input.Name,
		Phone: input.Phone,
		Email: input.Email,
	}
	t.repo.state.customers = append(t.repo.state.customers, customer)
	return customer, nil
}

func (t *fakeTx) InsertBill(_ context.Context, customerID string, totalAmount float64) (Bill, error) {
	t.repo.state.nextInv++
	bill := Bill{
		ID:            fmt.Sprintf("bill-%d", len(t.repo.state.bills)+1),
		InvoiceNumber: t.repo.state.nextInv,
		CustomerID:    customerID,
		TotalAmount:   totalAmount,
	}
	t.repo.state.bills = append(t.repo.state.bills, bill)
	return bill, nil
}

func (t *fakeTx) InsertBillItem(_ context.Context, item BillItem) (BillItem, error) {
	item.ID = fmt.Sprintf("item-%d", len(t.repo.state.items)+1)
	t.repo.state.items = append(t.repo.state.items, item)
	return item, nil
}

func (t *fakeTx) OpenAlertExists(_ context.Context, partID string) (bool, error) {
	return t.repo.state.openAlerts[partID], nil
}

func (t *fakeTx) InsertAlert(_ context.Context, partID string, currentQuantity, threshold int) error {
	t.repo.state.openAlerts[partID] = true
	t.repo.state.alerts = append(t.repo.state.alerts, fakeAlert{partID: partID, quantity: currentQuantity, threshold: threshold})
	return nil
}

type fixedThreshold int

func (f fixedThreshold) Threshold(context.Context) (int, error) { return int(f), nil }

func seedRepo() *fakeRepo {
	repo := newFakeRepo()
	repo.state.parts["p1"] = PartRecord{ID: "p1", Name: "brake pad", Quantity: 20, Rate: 100.00}
	repo.state.parts["p2"] = PartRecord{ID: "p2", Name: "air filter", Quantity: 10, Rate: 50.00}
	return repo
}

func buyer() CustomerInput {
	phone := "9876543210"
	return CustomerInput{Name: "Ravi Kumar", Phone: &phone}
}

func TestSubmitInvoiceHappyPath(t *testing.T) {
	repo := seedRepo()
	svc := NewService(repo, nil, fixedThreshold(5), nil)

	bill, err := svc.SubmitInvoice(context.Background(), CreateBillRequest{
		Customer: buyer(),
		Items: []LineInput{
			{PartID: "p1", Quantity: 2},
			{PartID: "p2", Quantity: 1},
		},
	}, "u1")
	require.NoError(t, err)

	assert.Equal(t, 250.00, bill.TotalAmount)
	assert.NotZero(t, bill.InvoiceNumber)
	require.NotNil(t, bill.Customer)
	assert.Equal(t, "Ravi Kumar", bill.Customer.Name)

	require.Len(t, bill.Items, 2)
	assert.Equal(t, 100.00, bill.Items[0].Rate, "rate snapshotted from the part row")
	assert.Equal(t, 200.00, bill.Items[0].Total)
	assert.Equal(t, "p1", bill.Items[0].PartID, "items keep submission order")
	assert.Equal(t, 0, bill.Items[0].Position)
	assert.Equal(t, "p2", bill.Items[1].PartID)
	assert.Equal(t, 1, bill.Items[1].Position)

	assert.Equal(t, 18, repo.state.parts["p1"].Quantity)
	assert.Equal(t, 9, repo.state.parts["p2"].Quantity)
	assert.Len(t, repo.state.customers, 1)
}

func TestSubmitInvoiceUnknownPartRollsBackEverything(t *testing.T) {
	repo := seedRepo()
	svc := NewService(repo, nil, fixedThreshold(5), nil)

	_, err := svc.SubmitInvoice(context.Background(), CreateBillRequest{
		Customer: buyer(),
		Items: []LineInput{
			{PartID: "p1", Quantity: 2},
			{PartID: "ghost", Quantity: 1},
		},
	}, "u1")
	require.ErrorIs(t, err, ErrUnknownPart)

	assert.Equal(t, 20, repo.state.parts["p1"].Quantity, "earlier decrements must roll back")
	assert.Empty(t, repo.state.customers)
	assert.Empty(t, repo.state.bills)
	assert.Empty(t, repo.state.items)
}

func TestSubmitInvoiceInsufficientStockRollsBack(t *testing.T) {
	repo := seedRepo()
	svc := NewService(repo, nil, fixedThreshold(5), nil)

	_, err := svc.SubmitInvoice(context.Background(), CreateBillRequest{
		Customer: buyer(),
		Items: []LineInput{
			{PartID: "p2", Quantity: 4},
			{PartID: "p2", Quantity: 7},
		},
	}, "u1")
	require.ErrorIs(t, err, ErrInsufficientStock)

	assert.Equal(t, 10, repo.state.parts["p2"].Quantity)
	assert.Empty(t, repo.state.bills)
}

func TestSubmitInvoiceDuplicateLinesDecrementCumulatively(t *testing.T) {
	repo := seedRepo()
	svc := NewService(repo, nil, fixedThreshold(5), nil)

	bill, err := svc.SubmitInvoice(context.Background(), CreateBillRequest{
		Customer: buyer(),
		Items: []LineInput{
			{PartID: "p2", Quantity: 4},
			{PartID: "p2", Quantity: 3},
		},
	}, "u1")
	require.NoError(t, err)

	assert.Equal(t, 3, repo.state.parts["p2"].Quantity)
	assert.Equal(t, 350.00, bill.TotalAmount)
	assert.Len(t, bill.Items, 2, "duplicate part lines stay separate items")
}

func TestSubmitInvoiceRaisesLowStockAlert(t *testing.T) {
	repo := seedRepo()
	svc := NewService(repo, nil, fixedThreshold(5), nil)

	_, err := svc.SubmitInvoice(context.Background(), CreateBillRequest{
		Customer: buyer(),
		Items:    []LineInput{{PartID: "p2", Quantity: 7}},
	}, "u1")
	require.NoError(t, err)

	require.Len(t, repo.state.alerts, 1)
	assert.Equal(t, "p2", repo.state.alerts[0].partID)
	assert.Equal(t, 3, repo.state.alerts[0].quantity)
	assert.Equal(t, 5, repo.state.alerts[0].threshold)
}

func TestSubmitInvoiceSkipsAlertWhenOneIsOpen(t *testing.T) {
	repo := seedRepo()
	repo.state.openAlerts["p2"] = true
	svc := NewService(repo, nil, fixedThreshold(5), nil)

	_, err := svc.SubmitInvoice(context.Background(), CreateBillRequest{
		Customer: buyer(),
		Items:    []LineInput{{PartID: "p2", Quantity: 7}},
	}, "u1")
	require.NoError(t, err)
	assert.Empty(t, repo.state.alerts)
}

func TestSubmitInvoiceRejectsEmptyAndInvalidItems(t *testing.T) {
	repo := seedRepo()
	svc := NewService(repo, nil, fixedThreshold(5), nil)

	_, err := svc.SubmitInvoice(context.Background(), CreateBillRequest{Customer: buyer()}, "u1")
	require.ErrorIs(t, err, ErrEmptyCart)

	_, err = svc.SubmitInvoice(context.Background(), CreateBillRequest{
		Customer: buyer(),
		Items:    []LineInput{{PartID: "p1", Quantity: 0}},
	}, "u1")
	require.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestSubmitInvoiceRecordsAudit(t *testing.T) {
	repo := seedRepo()
	audit := &captureAudit{}
	svc := NewService(repo, audit, fixedThreshold(5), nil)

	_, err := svc.SubmitInvoice(context.Background(), CreateBillRequest{
		Customer: buyer(),
		Items:    []LineInput{{PartID: "p1", Quantity: 1}},
	}, "u1")
	require.NoError(t, err)

	require.Len(t, audit.records, 1)
	assert.Equal(t, "billing:submit", audit.records[0].Action)
	assert.Equal(t, "u1", audit.records[0].ActorID)
}

type captureAudit struct{ records []shared.AuditLog }

func (c *captureAudit) Record(_ context.Context, log shared.AuditLog) error {
	c.records = append(c.records, log)
	return nil
}
