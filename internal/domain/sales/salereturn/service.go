package salereturn

import (
	"context"
	"errors"
	"strings"
	"time"

	"minipos/internal/core/appcontext"
	"minipos/internal/core/apperror"
	"minipos/internal/core/id"
	"minipos/internal/core/tx"
	"minipos/internal/core/types"
	"minipos/internal/domain/catalogs/customer"
	"minipos/internal/domain/catalogs/product"
	"minipos/internal/domain/registers/lotstock"
	"minipos/internal/domain/sales/bill"
	"minipos/pkg/logger"
	"minipos/pkg/numerator"
)

// AuditLog records non-fatal anomalies and document changes for diagnostics.
type AuditLog interface {
	LogChange(ctx context.Context, entity string, entityID string, action string, data any) error
}

// SearchResult is one bill found by Search, annotated with eligibility
// and any return bills already recorded against it.
type SearchResult struct {
	Bill          *bill.Bill         `json:"bill"`
	Customer      *customer.Customer `json:"customer,omitempty"`
	Returns       []ReturnBill       `json:"returns"`
	CanBeReturned bool               `json:"can_be_returned"`
	ReturnStatus  ReturnStatus       `json:"return_status"`
}

// Service implements the return workflow.
type Service struct {
	bills     bill.Repository
	returns   Repository
	products  product.Repository
	lots      lotstock.Repository
	customers customer.Repository
	txm       tx.Manager
	numbers   numerator.Generator
	audit     AuditLog

	numberCfg numerator.Config
	now       func() time.Time
}

// Option configures the Service.
type Option func(*Service)

// WithClock overrides the time source. Used in tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithNumberConfig overrides the return number format.
func WithNumberConfig(cfg numerator.Config) Option {
	return func(s *Service) { s.numberCfg = cfg }
}

// NewService creates a return processing service.
func NewService(
	bills bill.Repository,
	returns Repository,
	products product.Repository,
	lots lotstock.Repository,
	customers customer.Repository,
	txm tx.Manager,
	numbers numerator.Generator,
	audit AuditLog,
	opts ...Option,
) *Service {
	s := &Service{
		bills:     bills,
		returns:   returns,
		products:  products,
		lots:      lots,
		customers: customers,
		txm:       txm,
		numbers:   numbers,
		audit:     audit,
		numberCfg: numerator.DefaultConfig("RT"),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Process executes the full return workflow atomically: lock the bill,
// check eligibility, apportion requested quantities across bill lines,
// create the return bill with its lines and reverse stock and lot
// counters. Either every effect commits or none do.
//
// The acting cashier is taken from the request context.
func (s *Service) Process(ctx context.Context, req *ProcessRequest) (*ReturnBill, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	cashier := appcontext.GetUser(ctx)
	if cashier == nil {
		return nil, apperror.NewUnauthorized("cashier identity is required")
	}
	cashierID, err := id.Parse(cashier.UserID)
	if err != nil {
		return nil, apperror.NewUnauthorized("invalid cashier identity")
	}

	var result *ReturnBill

	err = s.txm.RunInTransaction(ctx, func(txCtx context.Context) error {
		// Row lock serializes concurrent returns for the same bill;
		// different bills proceed independently.
		b, err := s.bills.GetForUpdate(txCtx, req.BillID)
		if err != nil {
			return err
		}

		existing, err := s.returns.CountByBill(txCtx, b.ID)
		if err != nil {
			return err
		}
		status := EligibilityOf(b.CreatedAt, existing, s.now())
		if status.HasBeenReturned {
			return apperror.NewNotEligible("This bill has already been returned")
		}
		if status.IsExpired {
			return apperror.NewNotEligible("The 24-hour return window has elapsed")
		}

		for _, it := range req.Items {
			exists, err := s.products.Exists(txCtx, it.ProductID)
			if err != nil {
				return err
			}
			if !exists {
				return apperror.NewNotFound("product", it.ProductID)
			}
		}

		lines, err := s.bills.GetLines(txCtx, b.ID)
		if err != nil {
			return err
		}

		number, err := s.numbers.GetNextNumber(txCtx, s.numberCfg, nil, s.now())
		if err != nil {
			return err
		}

		rb := &ReturnBill{
			ID:                  id.New(),
			Number:              number,
			BillID:              b.ID,
			CustomerID:          b.CustomerID,
			CashierID:           cashierID,
			TotalAmountReturned: types.ZeroMoney(),
			Reason:              req.Reason,
			CreatedAt:           s.now(),
		}
		if err := s.returns.Create(txCtx, rb); err != nil {
			return err
		}

		total := types.ZeroMoney()
		var returnLines []ReturnLine

		for _, it := range req.Items {
			allocations, err := Apportion(lines, it.ProductID, it.Quantity)
			if errors.Is(err, ErrProductNotOnBill) {
				s.recordAnomaly(txCtx, rb, "product_not_on_bill", map[string]any{
					"product_id": it.ProductID,
					"requested":  it.Quantity,
				})
				continue
			}
			if err != nil {
				return err
			}

			for _, alloc := range allocations {
				subtotal := alloc.Line.UnitPrice.Mul(types.MoneyFromInt(int64(alloc.Quantity)))
				returnLines = append(returnLines, ReturnLine{
					ID:           id.New(),
					ReturnBillID: rb.ID,
					ProductID:    alloc.Line.ProductID,
					LotID:        alloc.Line.LotID,
					ProductName:  alloc.Line.ProductName,
					Quantity:     alloc.Quantity,
					UnitPrice:    alloc.Line.UnitPrice,
					Subtotal:     subtotal,
				})
				total = total.Add(subtotal)

				if err := s.products.IncrementStock(txCtx, alloc.Line.ProductID, alloc.Quantity); err != nil {
					return err
				}

				if alloc.Line.LotID == nil {
					continue
				}
				affected, err := s.lots.Restock(txCtx, *alloc.Line.LotID, alloc.Quantity)
				if err != nil {
					return err
				}
				if affected == 0 {
					// Missing lot does not fail the return; the status
					// reset happens inside Restock's UPDATE, so a lot
					// that is gone is never touched.
					s.recordAnomaly(txCtx, rb, "lot_not_found", map[string]any{
						"lot_id":     *alloc.Line.LotID,
						"product_id": alloc.Line.ProductID,
						"quantity":   alloc.Quantity,
					})
				}
			}
		}

		if len(returnLines) > 0 {
			if err := s.returns.CreateLines(txCtx, returnLines); err != nil {
				return err
			}
		}

		if err := s.returns.UpdateTotal(txCtx, rb.ID, total); err != nil {
			return err
		}

		rb.TotalAmountReturned = total
		rb.Lines = returnLines
		result = rb
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "return processed",
		"return_number", result.Number,
		"bill_id", result.BillID,
		"total", result.TotalAmountReturned,
		"lines", len(result.Lines),
	)
	return result, nil
}

// recordAnomaly logs and audits a non-fatal condition without failing
// the transaction.
func (s *Service) recordAnomaly(ctx context.Context, rb *ReturnBill, reason string, data map[string]any) {
	logger.Warn(ctx, "return anomaly",
		"reason", reason,
		"return_number", rb.Number,
		"details", data,
	)
	if s.audit == nil {
		return
	}
	if err := s.audit.LogChange(ctx, "return_bills", rb.ID.String(), "anomaly:"+reason, data); err != nil {
		logger.Error(ctx, "audit write failed", "error", err)
	}
}

// Search locates bills by bill number or customer phone and annotates
// each with its return eligibility.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperror.NewValidation("query is required")
	}
	if limit <= 0 || limit > 50 {
		limit = 10
	}

	bills, err := s.bills.FindByNumberOrPhone(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	if len(bills) == 0 {
		return nil, apperror.NewNotFound("bill", query)
	}

	now := s.now()
	results := make([]SearchResult, 0, len(bills))
	for i := range bills {
		b := &bills[i]

		lines, err := s.bills.GetLines(ctx, b.ID)
		if err != nil {
			return nil, err
		}
		b.Lines = lines

		existing, err := s.returns.ListByBill(ctx, b.ID)
		if err != nil {
			return nil, err
		}
		status := EligibilityOf(b.CreatedAt, len(existing), now)

		res := SearchResult{
			Bill:          b,
			Returns:       existing,
			CanBeReturned: status.CanBeReturned(),
			ReturnStatus:  status,
		}
		if b.CustomerID != nil {
			c, err := s.customers.GetByID(ctx, *b.CustomerID)
			if err != nil && !apperror.IsNotFound(err) {
				return nil, err
			}
			res.Customer = c
		}
		results = append(results, res)
	}
	return results, nil
}

// List returns processed return bills, newest first.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]ReturnBill, int, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.returns.List(ctx, filter)
}

// GetByID returns one return bill with its lines.
func (s *Service) GetByID(ctx context.Context, returnBillID id.ID) (*ReturnBill, error) {
	rb, err := s.returns.GetByID(ctx, returnBillID)
	if err != nil {
		return nil, err
	}
	lines, err := s.returns.GetLines(ctx, returnBillID)
	if err != nil {
		return nil, err
	}
	rb.Lines = lines
	return rb, nil
}

