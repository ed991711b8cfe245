package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentType is how a sale is settled.
type PaymentType string

const (
	PaymentCash   PaymentType = "cash"
	PaymentCredit PaymentType = "credit"
)

func (t PaymentType) IsValid() bool {
	return t == PaymentCash || t == PaymentCredit
}

// Frequency is the due-date cadence of a payment plan.
type Frequency string

const (
	// FrequencyQuincenal steps due dates to the 15th and the last day of
	// each month.
	FrequencyQuincenal Frequency = "quincenal"
	// FrequencyMensual steps due dates to the last day of consecutive months.
	FrequencyMensual Frequency = "mensual"
)

func (f Frequency) IsValid() bool {
	return f == FrequencyQuincenal || f == FrequencyMensual
}

// InstallmentStatus is derived from amount, paid amount and due date. The
// stored column is only a cache for listings; reads recompute it.
type InstallmentStatus string

const (
	InstallmentPending InstallmentStatus = "PENDING"
	InstallmentPaid    InstallmentStatus = "PAID"
	InstallmentOverdue InstallmentStatus = "OVERDUE"
)

// MaxInstallments is the business ceiling on plan length.
const MaxInstallments = 24

// Sale is the slice of a sale record the finance engine needs: pricing, the
// credit plan inputs and the supplier-debt side. The rest of the sale (items,
// travellers, documents) lives with the CRUD screens.
type Sale struct {
	ID               int64           `gorm:"primaryKey;autoIncrement"`
	ClientName       string          `gorm:"type:varchar(200);not null"`
	TotalPrice       decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	DownPayment      decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	NetCost          decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	PaymentType      PaymentType     `gorm:"type:varchar(16);not null"`
	Frequency        Frequency       `gorm:"type:varchar(16)"`
	InstallmentCount int             `gorm:"not null;default:0"`
	StartDate        time.Time       `gorm:"not null"`
	SupplierID       *int64          `gorm:"index"`
	SupplierDeadline *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time

	Installments []Installment `gorm:"foreignKey:SaleID"`
}

func (Sale) TableName() string {
	return "sales"
}

// Installment is one scheduled partial payment of a credit sale. Amount is
// immutable once generated; PaidAmount only moves through the allocator and
// its reversal.
type Installment struct {
	ID            int64             `gorm:"primaryKey;autoIncrement"`
	SaleID        int64             `gorm:"not null;index"`
	PaymentNumber int               `gorm:"not null"`
	DueDate       time.Time         `gorm:"not null;index"`
	Amount        decimal.Decimal   `gorm:"type:decimal(18,2);not null"`
	PaidAmount    decimal.Decimal   `gorm:"type:decimal(18,2);not null;default:0"`
	Status        InstallmentStatus `gorm:"type:varchar(16);not null;default:'PENDING';index"`
	PaidDate      *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (Installment) TableName() string {
	return "installments"
}

// Pending is the unpaid remainder of the installment.
func (i *Installment) Pending() decimal.Decimal {
	return i.Amount.Sub(i.PaidAmount)
}

// PaymentAllocation records which slice of a registered payment landed on
// which installment. A payment that cascades over several installments leaves
// one row per touched installment, which is what makes its reversal exact.
type PaymentAllocation struct {
	ID            int64           `gorm:"primaryKey;autoIncrement"`
	TransactionID int64           `gorm:"not null;index"`
	InstallmentID int64           `gorm:"not null;index"`
	Amount        decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	CreatedAt     time.Time
}

func (PaymentAllocation) TableName() string {
	return "payment_allocations"
}
