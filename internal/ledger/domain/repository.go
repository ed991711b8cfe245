package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TransactionFilter narrows and pages the transaction listing.
type TransactionFilter struct {
	Kind     TransactionKind // empty = all kinds
	From     *time.Time
	To       *time.Time
	Search   string // matches description and external reference
	Page     int    // 1-based
	PageSize int
}

// AccountRepository is the port for bank-account persistence. Methods that
// take a *gorm.DB run inside the caller's unit of work; lock requests a
// SELECT ... FOR UPDATE read so concurrent mutations serialize on the row.
type AccountRepository interface {
	Create(ctx context.Context, acc *BankAccount) error
	Save(ctx context.Context, db *gorm.DB, acc *BankAccount) error
	FindByID(ctx context.Context, db *gorm.DB, id int64, lock bool) (*BankAccount, error)
	List(ctx context.Context, includeArchived bool) ([]BankAccount, error)

	// SetBalance rewrites the materialized balance. The caller must hold the
	// row lock and have computed the new value inside the same unit of work.
	SetBalance(ctx context.Context, db *gorm.DB, id int64, balance decimal.Decimal) error
	SetArchived(ctx context.Context, db *gorm.DB, id int64) error
}

// TransactionRepository is the port for ledger-row persistence.
type TransactionRepository interface {
	Create(ctx context.Context, db *gorm.DB, t *BankTransaction) error
	FindByID(ctx context.Context, db *gorm.DB, id int64, lock bool) (*BankTransaction, error)
	SetStatus(ctx context.Context, db *gorm.DB, id int64, status TransactionStatus) error
	List(ctx context.Context, f TransactionFilter) ([]BankTransaction, int64, error)
}
