package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/viamundo/backoffice/internal/apperror"
	ledgerdomain "github.com/viamundo/backoffice/internal/ledger/domain"
	ledgersvc "github.com/viamundo/backoffice/internal/ledger/service"
	"github.com/viamundo/backoffice/internal/payments/domain"
)

// CreateSaleRequest carries the finance inputs of a new sale. For credit
// sales the plan is generated and persisted with the sale; cash sales carry
// no installments.
type CreateSaleRequest struct {
	ClientName       string
	TotalPrice       decimal.Decimal
	DownPayment      decimal.Decimal
	NetCost          decimal.Decimal
	PaymentType      domain.PaymentType
	Frequency        domain.Frequency
	InstallmentCount int
	StartDate        time.Time
	SupplierID       *int64
	SupplierDeadline *time.Time
}

// RegisterPaymentRequest applies a client payment against a plan, starting at
// the targeted installment.
type RegisterPaymentRequest struct {
	InstallmentID int64
	Amount        decimal.Decimal
	BankAccountID int64
	Notes         string
	Date          time.Time
}

// PaymentResult returns what a registered payment changed.
type PaymentResult struct {
	Transaction   *ledgerdomain.BankTransaction
	Installments  []domain.Installment // touched rows, ascending payment number
	PlanRemaining decimal.Decimal
}

// PaymentService owns sales plans and the allocation of payments against
// them. All mutations share a unit of work with the ledger writes they imply.
type PaymentService struct {
	db           *gorm.DB
	sales        domain.SaleRepository
	installments domain.InstallmentRepository
	allocations  domain.AllocationRepository
	ledger       *ledgersvc.LedgerService
	log          *zap.Logger
}

func NewPaymentService(
	db *gorm.DB,
	sales domain.SaleRepository,
	installments domain.InstallmentRepository,
	allocations domain.AllocationRepository,
	ledger *ledgersvc.LedgerService,
	log *zap.Logger,
) *PaymentService {
	return &PaymentService{
		db:           db,
		sales:        sales,
		installments: installments,
		allocations:  allocations,
		ledger:       ledger,
		log:          log,
	}
}

// CreateSale persists the sale and, for credit sales, its generated plan in
// one unit of work.
func (s *PaymentService) CreateSale(ctx context.Context, req CreateSaleRequest) (*domain.Sale, error) {
	if req.ClientName == "" {
		return nil, apperror.Validationf("client name is required")
	}
	if req.TotalPrice.LessThanOrEqual(decimal.Zero) {
		return nil, apperror.Validationf("total price must be positive, got %s", req.TotalPrice)
	}
	if req.NetCost.IsNegative() {
		return nil, apperror.Validationf("net cost cannot be negative")
	}
	if !req.PaymentType.IsValid() {
		return nil, apperror.Validationf("invalid payment type %q", req.PaymentType)
	}

	sale := &domain.Sale{
		ClientName:       req.ClientName,
		TotalPrice:       req.TotalPrice,
		DownPayment:      req.DownPayment,
		NetCost:          req.NetCost,
		PaymentType:      req.PaymentType,
		StartDate:        req.StartDate,
		SupplierID:       req.SupplierID,
		SupplierDeadline: req.SupplierDeadline,
	}
	if sale.StartDate.IsZero() {
		sale.StartDate = time.Now()
	}

	if req.PaymentType == domain.PaymentCredit {
		installments, err := domain.BuildInstallments(req.TotalPrice, req.DownPayment, req.InstallmentCount, req.Frequency, sale.StartDate)
		if err != nil {
			return nil, err
		}
		sale.Frequency = req.Frequency
		sale.InstallmentCount = req.InstallmentCount
		sale.Installments = installments
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		return s.sales.Create(ctx, tx, sale)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("sale created",
		zap.Int64("sale_id", sale.ID),
		zap.String("payment_type", string(sale.PaymentType)),
		zap.Int("installments", len(sale.Installments)),
	)
	return sale, nil
}

// ListInstallments returns a sale's plan with freshly derived statuses.
func (s *PaymentService) ListInstallments(ctx context.Context, saleID int64) ([]domain.Installment, error) {
	if _, err := s.sales.FindByID(ctx, nil, saleID); err != nil {
		return nil, err
	}
	rows, err := s.installments.ListBySale(ctx, nil, saleID, false)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	for i := range rows {
		rows[i].Status = domain.DeriveInstallmentStatus(rows[i].Amount, rows[i].PaidAmount, rows[i].DueDate, now)
	}
	return rows, nil
}

// RegisterPayment applies a payment against a plan with the cascading
// waterfall rule: starting at the targeted installment and walking ascending
// payment numbers, each installment absorbs min(left, pending) until the
// amount is exhausted. One INCOME transaction records the full amount, and
// one allocation row per touched installment records the breakdown.
func (s *PaymentService) RegisterPayment(ctx context.Context, req RegisterPaymentRequest) (*PaymentResult, error) {
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, apperror.Validationf("amount must be positive, got %s", req.Amount)
	}

	var result *PaymentResult
	err := s.db.Transaction(func(tx *gorm.DB) error {
		target, err := s.installments.FindByID(ctx, tx, req.InstallmentID, true)
		if err != nil {
			return err
		}
		// Lock the whole plan: the waterfall may spill past the target, and
		// the total-remaining bound reads every row.
		plan, err := s.installments.ListBySale(ctx, tx, target.SaleID, true)
		if err != nil {
			return err
		}

		// The waterfall only runs forward, so the bound is the pending sum
		// from the target onward, not the whole plan's.
		reachable := decimal.Zero
		for i := range plan {
			if plan[i].PaymentNumber >= target.PaymentNumber {
				reachable = reachable.Add(plan[i].Pending())
			}
		}
		if req.Amount.GreaterThan(reachable) {
			return apperror.Conflictf("payment %s exceeds the %s pending from installment %d onward",
				req.Amount, reachable, target.PaymentNumber)
		}

		when := req.Date
		if when.IsZero() {
			when = time.Now()
		}

		description := req.Notes
		if description == "" {
			description = fmt.Sprintf("installment payment, sale %d", target.SaleID)
		}
		transaction, err := s.ledger.ApplyIncomeIn(ctx, tx, ledgersvc.EntryRequest{
			AccountID:   req.BankAccountID,
			Amount:      req.Amount,
			Description: description,
			Date:        when,
		}, &target.SaleID)
		if err != nil {
			return err
		}

		left := req.Amount
		var touched []domain.Installment
		var allocations []domain.PaymentAllocation
		for i := range plan {
			inst := &plan[i]
			if inst.PaymentNumber < target.PaymentNumber {
				continue
			}
			pending := inst.Pending()
			if pending.LessThanOrEqual(decimal.Zero) {
				continue
			}
			applied := decimal.Min(left, pending)
			inst.PaidAmount = inst.PaidAmount.Add(applied)
			if inst.PaidAmount.GreaterThanOrEqual(inst.Amount) {
				paidAt := when
				inst.PaidDate = &paidAt
			}
			// The cache reflects the present, even for backdated payments.
			inst.Status = domain.DeriveInstallmentStatus(inst.Amount, inst.PaidAmount, inst.DueDate, time.Now())
			if err := s.installments.Save(ctx, tx, inst); err != nil {
				return err
			}
			allocations = append(allocations, domain.PaymentAllocation{
				TransactionID: transaction.ID,
				InstallmentID: inst.ID,
				Amount:        applied,
			})
			touched = append(touched, *inst)
			left = left.Sub(applied)
			if left.IsZero() {
				break
			}
		}
		if !left.IsZero() {
			return apperror.Invariantf("payment of %s left %s unallocated on sale %d", req.Amount, left, target.SaleID)
		}
		if err := s.allocations.Create(ctx, tx, allocations); err != nil {
			return err
		}

		planRemaining := decimal.Zero
		for i := range plan {
			planRemaining = planRemaining.Add(plan[i].Pending())
		}
		result = &PaymentResult{
			Transaction:   transaction,
			Installments:  touched,
			PlanRemaining: planRemaining,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("installment payment registered",
		zap.Int64("transaction_id", result.Transaction.ID),
		zap.String("amount", req.Amount.String()),
		zap.Int("installments_touched", len(result.Installments)),
	)
	return result, nil
}

// CancelPayment reverses a registered payment: the ledger credit flips to
// CANCELLED and each allocation is subtracted from its installment. When a
// later ACTIVE payment has touched any of the same installments, the reversal
// is rejected instead of silently corrupting their paid amounts.
func (s *PaymentService) CancelPayment(ctx context.Context, transactionID int64) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		allocations, err := s.allocations.ListByTransaction(ctx, tx, transactionID)
		if err != nil {
			return err
		}
		if len(allocations) == 0 {
			return apperror.NotFoundf("transaction %d is not an installment payment", transactionID)
		}

		for _, a := range allocations {
			later, err := s.allocations.HasLaterActive(ctx, tx, a.InstallmentID, a.ID, transactionID)
			if err != nil {
				return err
			}
			if later {
				return apperror.Conflictf("a later payment touches installment %d; cancel that payment first", a.InstallmentID)
			}
		}

		// Reverses the balance effect and guards against double reversal.
		if _, err := s.ledger.CancelIn(ctx, tx, transactionID); err != nil {
			return err
		}

		now := time.Now()
		for i := len(allocations) - 1; i >= 0; i-- {
			a := allocations[i]
			inst, err := s.installments.FindByID(ctx, tx, a.InstallmentID, true)
			if err != nil {
				return err
			}
			inst.PaidAmount = inst.PaidAmount.Sub(a.Amount)
			if inst.PaidAmount.IsNegative() {
				return apperror.Invariantf("reversal drove installment %d paid amount negative", inst.ID)
			}
			if inst.PaidAmount.LessThan(inst.Amount) {
				inst.PaidDate = nil
			}
			inst.Status = domain.DeriveInstallmentStatus(inst.Amount, inst.PaidAmount, inst.DueDate, now)
			if err := s.installments.Save(ctx, tx, inst); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.log.Info("installment payment cancelled", zap.Int64("transaction_id", transactionID))
	return nil
}

// MarkOverdue refreshes the cached OVERDUE status on pending installments.
// Run nightly; reads derive the status themselves either way.
func (s *PaymentService) MarkOverdue(ctx context.Context) (int64, error) {
	n, err := s.installments.MarkOverdue(ctx, time.Now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.log.Info("installments marked overdue", zap.Int64("count", n))
	}
	return n, nil
}
