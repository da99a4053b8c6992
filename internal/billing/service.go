package billing

import (
	"context"
	"fmt"

	"github.com/partsledger/partsledger/internal/shared"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	ListBills(ctx context.Context, req ListBillsRequest) ([]Bill, int, error)
	GetBill(ctx context.Context, id string) (*Bill, error)
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

// Service coordinates invoice submission and bill queries.
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

// ListBills returns bills matching the filter with the total count.
func (s *Service) ListBills(ctx context.Context, req ListBillsRequest) ([]Bill, int, error) {
	return s.repo.ListBills(ctx, req)
}

// GetBill fetches a single bill with customer and items.
func (s *Service) GetBill(ctx context.Context, id string) (*Bill, error) {
	return s.repo.GetBill(ctx, id)
}

// SubmitInvoice finalizes a sale in one transaction: the customer and
// bill rows, every line item with its rate snapshotted from the live
// part row, the stock decrements, and any low-stock alerts the
// decrements trigger. Either all of it lands or none of it does.
func (s *Service) SubmitInvoice(ctx context.Context, req CreateBillRequest, actorID string) (*Bill, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyCart
	}
	for _, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
	}

	threshold, err := s.threshold(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve threshold: %w", err)
	}

	var bill Bill
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		cart := NewCart()
		snapshot := make(Snapshot)
		finalQty := make(map[string]int)

		for _, item := range req.Items {
			part, err := tx.GetPartForUpdate(ctx, item.PartID)
			if err != nil {
				return err
			}
			if part.Quantity < item.Quantity {
				return fmt.Errorf("%w: %s", ErrInsufficientStock, part.Name)
			}
			newQty := part.Quantity - item.Quantity
			if err := tx.SetPartQuantity(ctx, part.ID, newQty); err != nil {
				return err
			}
			finalQty[part.ID] = newQty
			snapshot[part.ID] = CartPart{ID: part.ID, Name: part.Name, Rate: part.Rate}

			idx := cart.AddLine()
			if err := cart.SetLinePart(idx, item.PartID, snapshot); err != nil {
				return err
			}
			if err := cart.SetLineQuantity(idx, item.Quantity); err != nil {
				return err
			}
		}

		customer, err := tx.InsertCustomer(ctx, req.Customer)
		if err != nil {
			return fmt.Errorf("insert customer: %w", err)
		}

		bill, err = tx.InsertBill(ctx, customer.ID, cart.Total())
		if err != nil {
			return fmt.Errorf("insert bill: %w", err)
		}
		bill.Customer = &customer

		for i, line := range cart.SellableLines() {
			item, err := tx.InsertBillItem(ctx, BillItem{
				BillID:   bill.ID,
				PartID:   line.PartID,
				PartName: line.PartName,
				Position: i,
				Quantity: line.Quantity,
				Rate:     line.Rate,
				Total:    line.LineTotal(),
			})
			if err != nil {
				return fmt.Errorf("insert bill item: %w", err)
			}
			bill.Items = append(bill.Items, item)
		}

		for partID, qty := range finalQty {
			if qty >= threshold {
				continue
			}
			open, err := tx.OpenAlertExists(ctx, partID)
			if err != nil {
				return err
			}
			if open {
				continue
			}
			if err := tx.InsertAlert(ctx, partID, qty, threshold); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, actorID, bill)
	s.bumpCache(ctx)
	return &bill, nil
}

func (s *Service) threshold(ctx context.Context) (int, error) {
	if s.thresholds == nil {
		return 0, fmt.Errorf("billing: threshold provider not configured")
	}
	return s.thresholds.Threshold(ctx)
}

func (s *Service) recordAudit(ctx context.Context, actorID string, bill Bill) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   "billing:submit",
		Entity:   "bill",
		EntityID: bill.ID,
		Meta: map[string]any{
			"invoice_number": bill.InvoiceNumber,
			"total_amount":   bill.TotalAmount,
			"items":          len(bill.Items),
		},
	})
}

func (s *Service) bumpCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Bump(ctx)
}
