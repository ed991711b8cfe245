package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// BankAccount is an agency bank account.
//
// CurrentBalance is a materialized view over the active transactions:
// current = initial + Σ(active credits) − Σ(active debits). It is only ever
// rewritten inside the unit of work that records or cancels a transaction.
type BankAccount struct {
	ID             int64           `gorm:"primaryKey;autoIncrement"`
	BankName       string          `gorm:"type:varchar(100);not null"`
	Reference      string          `gorm:"type:varchar(100)"`
	Type           AccountType     `gorm:"type:varchar(16);not null"`
	InitialBalance decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	CurrentBalance decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	Archived       bool            `gorm:"not null;default:false;index"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (BankAccount) TableName() string {
	return "bank_accounts"
}

// BankTransaction is one ledger row. A TRANSFER is a single row that debits
// AccountID and credits DestinationAccountID in the same unit of work.
// SaleID links rows created by the installment or supplier payment flows back
// to the sale they settle.
type BankTransaction struct {
	ID                   int64             `gorm:"primaryKey;autoIncrement"`
	ReferenceID          string            `gorm:"uniqueIndex;type:varchar(64);not null"`
	AccountID            int64             `gorm:"not null;index"`
	Kind                 TransactionKind   `gorm:"type:varchar(16);not null;index"`
	Amount               decimal.Decimal   `gorm:"type:decimal(18,2);not null"`
	Description          string            `gorm:"type:varchar(255);not null"`
	ExternalRef          string            `gorm:"type:varchar(100)"`
	Date                 time.Time         `gorm:"not null;index"`
	Status               TransactionStatus `gorm:"type:varchar(16);not null;default:'ACTIVE';index"`
	DestinationAccountID *int64            `gorm:"index"`
	SaleID               *int64            `gorm:"index"`
	CreatedAt            time.Time
}

func (BankTransaction) TableName() string {
	return "bank_transactions"
}
