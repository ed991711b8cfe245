package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Supplier is an operator/wholesaler the agency buys services from.
type Supplier struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	Name      string `gorm:"type:varchar(200);not null"`
	Contact   string `gorm:"type:varchar(200)"`
	Phone     string `gorm:"type:varchar(50)"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Supplier) TableName() string {
	return "suppliers"
}

// PaymentStatus implements soft-cancel on supplier payments.
type PaymentStatus string

const (
	PaymentActive    PaymentStatus = "ACTIVE"
	PaymentCancelled PaymentStatus = "CANCELLED"
)

// SupplierPayment pays down the debt of one sale. Every payment is also an
// EXPENSE transaction on the paying bank account; TransactionID links the
// two so cancellation reverses both sides together.
type SupplierPayment struct {
	ID            int64           `gorm:"primaryKey;autoIncrement"`
	SupplierID    int64           `gorm:"not null;index"`
	SaleID        int64           `gorm:"not null;index"`
	BankAccountID int64           `gorm:"not null;index"`
	TransactionID int64           `gorm:"not null;uniqueIndex"`
	Amount        decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Date          time.Time       `gorm:"not null"`
	Notes         string          `gorm:"type:varchar(255)"`
	Status        PaymentStatus   `gorm:"type:varchar(16);not null;default:'ACTIVE';index"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (SupplierPayment) TableName() string {
	return "supplier_payments"
}

// SaleDebt is the derived debt position of one sale towards its supplier.
type SaleDebt struct {
	SaleID     int64
	ClientName string
	Debt       decimal.Decimal // the sale's net cost
	Paid       decimal.Decimal // Σ ACTIVE supplier payments
	Remaining  decimal.Decimal // floored at zero
	Deadline   *time.Time
	Light      DebtLight
}

// SupplierSummary aggregates a supplier's position across all its sales.
type SupplierSummary struct {
	SupplierID     int64
	Name           string
	SaleCount      int
	TotalDebt      decimal.Decimal
	TotalPaid      decimal.Decimal
	TotalRemaining decimal.Decimal
	OverdueCount   int // sales in the red
}
