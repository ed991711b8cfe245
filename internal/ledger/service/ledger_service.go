package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/viamundo/backoffice/internal/apperror"
	"github.com/viamundo/backoffice/internal/ledger/domain"
)

// CreateAccountRequest carries the fields of a new bank account.
type CreateAccountRequest struct {
	BankName       string
	Reference      string
	Type           domain.AccountType
	InitialBalance decimal.Decimal
}

// UpdateAccountRequest edits account metadata. Balances are never edited
// directly; they only move through ledger operations.
type UpdateAccountRequest struct {
	BankName  string
	Reference string
	Type      domain.AccountType
}

// EntryRequest is a manual income or expense entry.
type EntryRequest struct {
	AccountID   int64
	Amount      decimal.Decimal
	Description string
	Reference   string
	Date        time.Time
}

// TransferRequest moves funds between two agency accounts.
type TransferRequest struct {
	SourceAccountID      int64
	DestinationAccountID int64
	Amount               decimal.Decimal
	Description          string
	Reference            string
	Date                 time.Time
}

// LedgerService owns bank accounts and their transaction ledger. Every
// mutation runs as one database transaction: read balances, validate, write
// rows, commit. There is no observable intermediate state.
type LedgerService struct {
	db           *gorm.DB
	accounts     domain.AccountRepository
	transactions domain.TransactionRepository
	log          *zap.Logger
}

func NewLedgerService(db *gorm.DB, accounts domain.AccountRepository, transactions domain.TransactionRepository, log *zap.Logger) *LedgerService {
	return &LedgerService{
		db:           db,
		accounts:     accounts,
		transactions: transactions,
		log:          log,
	}
}

func (s *LedgerService) CreateAccount(ctx context.Context, req CreateAccountRequest) (*domain.BankAccount, error) {
	if req.BankName == "" {
		return nil, apperror.Validationf("bank name is required")
	}
	if !req.Type.IsValid() {
		return nil, apperror.Validationf("invalid account type %q", req.Type)
	}
	if req.InitialBalance.IsNegative() {
		return nil, apperror.Validationf("initial balance cannot be negative")
	}

	acc := &domain.BankAccount{
		BankName:       req.BankName,
		Reference:      req.Reference,
		Type:           req.Type,
		InitialBalance: req.InitialBalance,
		CurrentBalance: req.InitialBalance,
	}
	if err := s.accounts.Create(ctx, acc); err != nil {
		return nil, err
	}
	s.log.Info("bank account created",
		zap.Int64("account_id", acc.ID),
		zap.String("bank", acc.BankName),
	)
	return acc, nil
}

func (s *LedgerService) UpdateAccount(ctx context.Context, id int64, req UpdateAccountRequest) (*domain.BankAccount, error) {
	if req.BankName == "" {
		return nil, apperror.Validationf("bank name is required")
	}
	if !req.Type.IsValid() {
		return nil, apperror.Validationf("invalid account type %q", req.Type)
	}

	var out *domain.BankAccount
	err := s.db.Transaction(func(tx *gorm.DB) error {
		acc, err := s.accounts.FindByID(ctx, tx, id, true)
		if err != nil {
			return err
		}
		if acc.Archived {
			return apperror.Conflictf("bank account %d is archived", id)
		}
		acc.BankName = req.BankName
		acc.Reference = req.Reference
		acc.Type = req.Type
		if err := s.accounts.Save(ctx, tx, acc); err != nil {
			return err
		}
		out = acc
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *LedgerService) ListAccounts(ctx context.Context, includeArchived bool) ([]domain.BankAccount, error) {
	return s.accounts.List(ctx, includeArchived)
}

// ApplyIncome records a credit to an account and raises its balance.
func (s *LedgerService) ApplyIncome(ctx context.Context, req EntryRequest) (*domain.BankTransaction, error) {
	var out *domain.BankTransaction
	err := s.db.Transaction(func(tx *gorm.DB) error {
		t, err := s.ApplyIncomeIn(ctx, tx, req, nil)
		if err != nil {
			return err
		}
		out = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ApplyIncomeIn is ApplyIncome inside the caller's unit of work. The payment
// allocator uses it so the installment updates and the ledger credit commit
// or roll back together. saleID links the row to the sale it settles.
func (s *LedgerService) ApplyIncomeIn(ctx context.Context, tx *gorm.DB, req EntryRequest, saleID *int64) (*domain.BankTransaction, error) {
	return s.applyEntry(ctx, tx, domain.KindIncome, req, saleID)
}

// ApplyExpense records a debit. Manual expenses are agency-reported cash
// movements, so there is no sufficient-funds check at this layer; callers
// that pay down supplier debt enforce their own balance bound first.
func (s *LedgerService) ApplyExpense(ctx context.Context, req EntryRequest) (*domain.BankTransaction, error) {
	var out *domain.BankTransaction
	err := s.db.Transaction(func(tx *gorm.DB) error {
		t, err := s.ApplyExpenseIn(ctx, tx, req, nil)
		if err != nil {
			return err
		}
		out = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ApplyExpenseIn is ApplyExpense inside the caller's unit of work.
func (s *LedgerService) ApplyExpenseIn(ctx context.Context, tx *gorm.DB, req EntryRequest, saleID *int64) (*domain.BankTransaction, error) {
	return s.applyEntry(ctx, tx, domain.KindExpense, req, saleID)
}

func (s *LedgerService) applyEntry(ctx context.Context, tx *gorm.DB, kind domain.TransactionKind, req EntryRequest, saleID *int64) (*domain.BankTransaction, error) {
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, apperror.Validationf("amount must be positive, got %s", req.Amount)
	}
	if req.Description == "" {
		return nil, apperror.Validationf("description is required")
	}

	acc, err := s.accounts.FindByID(ctx, tx, req.AccountID, true)
	if err != nil {
		return nil, err
	}
	if acc.Archived {
		return nil, apperror.Validationf("bank account %d is archived", acc.ID)
	}

	t := &domain.BankTransaction{
		ReferenceID: uuid.NewString(),
		AccountID:   acc.ID,
		Kind:        kind,
		Amount:      req.Amount,
		Description: req.Description,
		ExternalRef: req.Reference,
		Date:        entryDate(req.Date),
		Status:      domain.StatusActive,
		SaleID:      saleID,
	}
	if err := s.transactions.Create(ctx, tx, t); err != nil {
		return nil, err
	}

	balance := acc.CurrentBalance
	if kind == domain.KindIncome {
		balance = balance.Add(req.Amount)
	} else {
		balance = balance.Sub(req.Amount)
	}
	if err := s.accounts.SetBalance(ctx, tx, acc.ID, balance); err != nil {
		return nil, err
	}

	s.log.Info("ledger entry applied",
		zap.String("kind", string(kind)),
		zap.Int64("account_id", acc.ID),
		zap.String("amount", req.Amount.String()),
		zap.String("reference_id", t.ReferenceID),
	)
	return t, nil
}

// ApplyTransfer debits the source and credits the destination as one record.
// Partial application is impossible: both legs live in the same transaction.
func (s *LedgerService) ApplyTransfer(ctx context.Context, req TransferRequest) (*domain.BankTransaction, error) {
	var out *domain.BankTransaction
	err := s.db.Transaction(func(tx *gorm.DB) error {
		t, err := s.applyTransferIn(ctx, tx, req)
		if err != nil {
			return err
		}
		out = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *LedgerService) applyTransferIn(ctx context.Context, tx *gorm.DB, req TransferRequest) (*domain.BankTransaction, error) {
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, apperror.Validationf("amount must be positive, got %s", req.Amount)
	}
	if req.SourceAccountID == req.DestinationAccountID {
		return nil, apperror.Validationf("source and destination accounts must differ")
	}
	if req.Description == "" {
		return nil, apperror.Validationf("description is required")
	}

	// Lock the two rows in id order so opposing transfers cannot deadlock.
	first, second := req.SourceAccountID, req.DestinationAccountID
	if first > second {
		first, second = second, first
	}
	locked := map[int64]*domain.BankAccount{}
	for _, id := range []int64{first, second} {
		acc, err := s.accounts.FindByID(ctx, tx, id, true)
		if err != nil {
			return nil, err
		}
		locked[id] = acc
	}
	src := locked[req.SourceAccountID]
	dst := locked[req.DestinationAccountID]
	if src.Archived {
		return nil, apperror.Validationf("bank account %d is archived", src.ID)
	}
	if dst.Archived {
		return nil, apperror.Validationf("bank account %d is archived", dst.ID)
	}

	t := &domain.BankTransaction{
		ReferenceID:          uuid.NewString(),
		AccountID:            src.ID,
		Kind:                 domain.KindTransfer,
		Amount:               req.Amount,
		Description:          req.Description,
		ExternalRef:          req.Reference,
		Date:                 entryDate(req.Date),
		Status:               domain.StatusActive,
		DestinationAccountID: &dst.ID,
	}
	if err := s.transactions.Create(ctx, tx, t); err != nil {
		return nil, err
	}
	if err := s.accounts.SetBalance(ctx, tx, src.ID, src.CurrentBalance.Sub(req.Amount)); err != nil {
		return nil, err
	}
	if err := s.accounts.SetBalance(ctx, tx, dst.ID, dst.CurrentBalance.Add(req.Amount)); err != nil {
		return nil, err
	}

	s.log.Info("transfer applied",
		zap.Int64("source_account_id", src.ID),
		zap.Int64("destination_account_id", dst.ID),
		zap.String("amount", req.Amount.String()),
	)
	return t, nil
}

// Cancel reverses a previously committed transaction: the exact inverse of
// its balance effect is applied and the row flips to CANCELLED. Transactions
// linked to a sale must be cancelled through the payment flows, which also
// unwind the installment or supplier-debt side.
func (s *LedgerService) Cancel(ctx context.Context, id int64) (*domain.BankTransaction, error) {
	var out *domain.BankTransaction
	err := s.db.Transaction(func(tx *gorm.DB) error {
		t, err := s.transactions.FindByID(ctx, tx, id, true)
		if err != nil {
			return err
		}
		if t.SaleID != nil {
			return apperror.Validationf("transaction %d settles a sale; cancel it through the payment operations", id)
		}
		c, err := s.CancelIn(ctx, tx, id)
		if err != nil {
			return err
		}
		out = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CancelIn reverses a transaction inside the caller's unit of work. The
// cancelled-status guard makes double reversal impossible. Archived accounts
// still accept reversals: archival never blocks audit corrections.
func (s *LedgerService) CancelIn(ctx context.Context, tx *gorm.DB, id int64) (*domain.BankTransaction, error) {
	t, err := s.transactions.FindByID(ctx, tx, id, true)
	if err != nil {
		return nil, err
	}
	if t.Status == domain.StatusCancelled {
		return nil, apperror.Conflictf("transaction %d is already cancelled", id)
	}

	switch t.Kind {
	case domain.KindIncome:
		if err := s.shiftBalance(ctx, tx, t.AccountID, t.Amount.Neg()); err != nil {
			return nil, err
		}
	case domain.KindExpense:
		if err := s.shiftBalance(ctx, tx, t.AccountID, t.Amount); err != nil {
			return nil, err
		}
	case domain.KindTransfer:
		if t.DestinationAccountID == nil {
			return nil, apperror.Invariantf("transfer %d has no destination account", id)
		}
		// Same id-ordered locking as applyTransferIn.
		deltas := map[int64]decimal.Decimal{
			t.AccountID:             t.Amount,
			*t.DestinationAccountID: t.Amount.Neg(),
		}
		first, second := t.AccountID, *t.DestinationAccountID
		if first > second {
			first, second = second, first
		}
		for _, accountID := range []int64{first, second} {
			if err := s.shiftBalance(ctx, tx, accountID, deltas[accountID]); err != nil {
				return nil, err
			}
		}
	default:
		return nil, apperror.Invariantf("transaction %d has unknown kind %q", id, t.Kind)
	}

	if err := s.transactions.SetStatus(ctx, tx, id, domain.StatusCancelled); err != nil {
		return nil, err
	}
	t.Status = domain.StatusCancelled

	s.log.Info("transaction cancelled",
		zap.Int64("transaction_id", id),
		zap.String("kind", string(t.Kind)),
		zap.String("amount", t.Amount.String()),
	)
	return t, nil
}

func (s *LedgerService) shiftBalance(ctx context.Context, tx *gorm.DB, accountID int64, delta decimal.Decimal) error {
	acc, err := s.accounts.FindByID(ctx, tx, accountID, true)
	if err != nil {
		return err
	}
	return s.accounts.SetBalance(ctx, tx, accountID, acc.CurrentBalance.Add(delta))
}

// ArchiveAccount retires an account. Accounts are never physically removed,
// historical transactions keep referencing them. A positive balance forces a
// transfer-out first; a negative balance cannot be archived at all.
func (s *LedgerService) ArchiveAccount(ctx context.Context, accountID int64, transferTo *int64) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		acc, err := s.accounts.FindByID(ctx, tx, accountID, true)
		if err != nil {
			return err
		}
		if acc.Archived {
			return apperror.Conflictf("bank account %d is already archived", accountID)
		}
		if acc.CurrentBalance.IsNegative() {
			return apperror.Validationf("cannot archive account %d with negative balance %s", accountID, acc.CurrentBalance)
		}
		if acc.CurrentBalance.IsPositive() {
			if transferTo == nil {
				return apperror.Validationf("account %d holds %s; a destination account is required to archive it", accountID, acc.CurrentBalance)
			}
			_, err := s.applyTransferIn(ctx, tx, TransferRequest{
				SourceAccountID:      accountID,
				DestinationAccountID: *transferTo,
				Amount:               acc.CurrentBalance,
				Description:          "balance transfer on account archive",
			})
			if err != nil {
				return err
			}
		}
		if err := s.accounts.SetArchived(ctx, tx, accountID); err != nil {
			return err
		}
		s.log.Info("bank account archived", zap.Int64("account_id", accountID))
		return nil
	})
}

func (s *LedgerService) ListTransactions(ctx context.Context, f domain.TransactionFilter) ([]domain.BankTransaction, int64, error) {
	return s.transactions.List(ctx, f)
}

func entryDate(d time.Time) time.Time {
	if d.IsZero() {
		return time.Now()
	}
	return d
}
