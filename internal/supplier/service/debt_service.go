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
	"github.com/viamundo/backoffice/internal/money"
	paydomain "github.com/viamundo/backoffice/internal/payments/domain"
	"github.com/viamundo/backoffice/internal/supplier/domain"
)

// RegisterPaymentRequest pays down one sale's supplier debt from a bank
// account.
type RegisterPaymentRequest struct {
	SupplierID    int64
	SaleID        int64
	BankAccountID int64
	Amount        decimal.Decimal
	Notes         string
	Date          time.Time
}

// DebtService aggregates supplier debt from sales and payment history and
// owns the supplier payment flow. Payments are bounded by both the sale's
// remaining debt and the paying account's balance, checked inside the same
// unit of work that writes the expense.
type DebtService struct {
	db          *gorm.DB
	suppliers   domain.SupplierRepository
	payments    domain.SupplierPaymentRepository
	sales       paydomain.SaleRepository
	accounts    ledgerdomain.AccountRepository
	ledger      *ledgersvc.LedgerService
	warningDays int
	log         *zap.Logger
}

func NewDebtService(
	db *gorm.DB,
	suppliers domain.SupplierRepository,
	payments domain.SupplierPaymentRepository,
	sales paydomain.SaleRepository,
	accounts ledgerdomain.AccountRepository,
	ledger *ledgersvc.LedgerService,
	warningDays int,
	log *zap.Logger,
) *DebtService {
	return &DebtService{
		db:          db,
		suppliers:   suppliers,
		payments:    payments,
		sales:       sales,
		accounts:    accounts,
		ledger:      ledger,
		warningDays: warningDays,
		log:         log,
	}
}

func (s *DebtService) CreateSupplier(ctx context.Context, name, contact, phone string) (*domain.Supplier, error) {
	if name == "" {
		return nil, apperror.Validationf("supplier name is required")
	}
	supplier := &domain.Supplier{Name: name, Contact: contact, Phone: phone}
	if err := s.suppliers.Create(ctx, supplier); err != nil {
		return nil, err
	}
	s.log.Info("supplier created", zap.Int64("supplier_id", supplier.ID), zap.String("name", name))
	return supplier, nil
}

// saleDebt folds one sale's active payments into its debt position.
func (s *DebtService) saleDebt(ctx context.Context, db *gorm.DB, sale *paydomain.Sale, today time.Time) (domain.SaleDebt, error) {
	payments, err := s.payments.ListActiveBySale(ctx, db, sale.ID)
	if err != nil {
		return domain.SaleDebt{}, err
	}
	paid := decimal.Zero
	for i := range payments {
		paid = paid.Add(payments[i].Amount)
	}
	remaining := money.FloorZero(sale.NetCost.Sub(paid))
	return domain.SaleDebt{
		SaleID:     sale.ID,
		ClientName: sale.ClientName,
		Debt:       sale.NetCost,
		Paid:       paid,
		Remaining:  remaining,
		Deadline:   sale.SupplierDeadline,
		Light:      domain.TrafficLight(sale.SupplierDeadline, remaining, today, s.warningDays),
	}, nil
}

// ListSaleDebts returns the per-sale debt positions of one supplier.
func (s *DebtService) ListSaleDebts(ctx context.Context, supplierID int64) ([]domain.SaleDebt, error) {
	if _, err := s.suppliers.FindByID(ctx, nil, supplierID); err != nil {
		return nil, err
	}
	sales, err := s.sales.ListBySupplier(ctx, nil, supplierID)
	if err != nil {
		return nil, err
	}
	today := time.Now()
	debts := make([]domain.SaleDebt, 0, len(sales))
	for i := range sales {
		debt, err := s.saleDebt(ctx, nil, &sales[i], today)
		if err != nil {
			return nil, err
		}
		debts = append(debts, debt)
	}
	return debts, nil
}

// ListSummaries aggregates every supplier's totals and overdue count.
func (s *DebtService) ListSummaries(ctx context.Context) ([]domain.SupplierSummary, error) {
	suppliers, err := s.suppliers.List(ctx)
	if err != nil {
		return nil, err
	}
	summaries := make([]domain.SupplierSummary, 0, len(suppliers))
	for i := range suppliers {
		debts, err := s.ListSaleDebts(ctx, suppliers[i].ID)
		if err != nil {
			return nil, err
		}
		summary := domain.SupplierSummary{
			SupplierID:     suppliers[i].ID,
			Name:           suppliers[i].Name,
			SaleCount:      len(debts),
			TotalDebt:      decimal.Zero,
			TotalPaid:      decimal.Zero,
			TotalRemaining: decimal.Zero,
		}
		for _, d := range debts {
			summary.TotalDebt = summary.TotalDebt.Add(d.Debt)
			summary.TotalPaid = summary.TotalPaid.Add(d.Paid)
			summary.TotalRemaining = summary.TotalRemaining.Add(d.Remaining)
			if d.Light == domain.LightRed {
				summary.OverdueCount++
			}
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// ListPayments returns a supplier's payment history, cancelled rows included.
func (s *DebtService) ListPayments(ctx context.Context, supplierID int64) ([]domain.SupplierPayment, error) {
	if _, err := s.suppliers.FindByID(ctx, nil, supplierID); err != nil {
		return nil, err
	}
	return s.payments.ListBySupplier(ctx, nil, supplierID)
}

// RegisterPayment writes the supplier payment and its EXPENSE transaction in
// one unit of work. The amount must fit both the sale's remaining debt and
// the account's available balance; either violation rejects the whole
// operation before anything is written.
func (s *DebtService) RegisterPayment(ctx context.Context, req RegisterPaymentRequest) (*domain.SupplierPayment, error) {
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, apperror.Validationf("amount must be positive, got %s", req.Amount)
	}

	var payment *domain.SupplierPayment
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if _, err := s.suppliers.FindByID(ctx, tx, req.SupplierID); err != nil {
			return err
		}
		sale, err := s.sales.FindByID(ctx, tx, req.SaleID)
		if err != nil {
			return err
		}
		if sale.SupplierID == nil || *sale.SupplierID != req.SupplierID {
			return apperror.Validationf("sale %d does not belong to supplier %d", req.SaleID, req.SupplierID)
		}

		account, err := s.accounts.FindByID(ctx, tx, req.BankAccountID, true)
		if err != nil {
			return err
		}
		if req.Amount.GreaterThan(account.CurrentBalance) {
			return apperror.Validationf("amount %s exceeds the account balance %s", req.Amount, account.CurrentBalance)
		}

		when := req.Date
		if when.IsZero() {
			when = time.Now()
		}
		debt, err := s.saleDebt(ctx, tx, sale, when)
		if err != nil {
			return err
		}
		if req.Amount.GreaterThan(debt.Remaining) {
			return apperror.Validationf("amount %s exceeds the sale's remaining debt %s", req.Amount, debt.Remaining)
		}

		description := req.Notes
		if description == "" {
			description = fmt.Sprintf("supplier payment, sale %d", sale.ID)
		}
		transaction, err := s.ledger.ApplyExpenseIn(ctx, tx, ledgersvc.EntryRequest{
			AccountID:   req.BankAccountID,
			Amount:      req.Amount,
			Description: description,
			Date:        when,
		}, &sale.ID)
		if err != nil {
			return err
		}

		payment = &domain.SupplierPayment{
			SupplierID:    req.SupplierID,
			SaleID:        req.SaleID,
			BankAccountID: req.BankAccountID,
			TransactionID: transaction.ID,
			Amount:        req.Amount,
			Date:          when,
			Notes:         req.Notes,
			Status:        domain.PaymentActive,
		}
		return s.payments.Create(ctx, tx, payment)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("supplier payment registered",
		zap.Int64("supplier_id", req.SupplierID),
		zap.Int64("sale_id", req.SaleID),
		zap.String("amount", req.Amount.String()),
	)
	return payment, nil
}

// CancelPayment reverses both sides of a supplier payment: the bank balance
// through the ledger and the debt bookkeeping through the status flip.
func (s *DebtService) CancelPayment(ctx context.Context, paymentID int64) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		payment, err := s.payments.FindByID(ctx, tx, paymentID, true)
		if err != nil {
			return err
		}
		if payment.Status == domain.PaymentCancelled {
			return apperror.Conflictf("supplier payment %d is already cancelled", paymentID)
		}
		if _, err := s.ledger.CancelIn(ctx, tx, payment.TransactionID); err != nil {
			return err
		}
		return s.payments.SetStatus(ctx, tx, paymentID, domain.PaymentCancelled)
	})
	if err != nil {
		return err
	}
	s.log.Info("supplier payment cancelled", zap.Int64("payment_id", paymentID))
	return nil
}
