package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// SaleRepository persists sales together with their generated plans.
type SaleRepository interface {
	Create(ctx context.Context, db *gorm.DB, sale *Sale) error
	FindByID(ctx context.Context, db *gorm.DB, id int64) (*Sale, error)
	ListBySupplier(ctx context.Context, db *gorm.DB, supplierID int64) ([]Sale, error)
}

// InstallmentRepository persists the rows of payment plans. lock requests
// SELECT ... FOR UPDATE so concurrent payments against one plan serialize.
type InstallmentRepository interface {
	FindByID(ctx context.Context, db *gorm.DB, id int64, lock bool) (*Installment, error)
	// ListBySale returns the plan ordered by payment number, the
	// authoritative allocation order.
	ListBySale(ctx context.Context, db *gorm.DB, saleID int64, lock bool) ([]Installment, error)
	Save(ctx context.Context, db *gorm.DB, inst *Installment) error
	// MarkOverdue refreshes the cached status of pending installments whose
	// due date has passed. Returns the number of rows touched.
	MarkOverdue(ctx context.Context, asOf time.Time) (int64, error)
}

// AllocationRepository persists the per-installment breakdown of payments.
type AllocationRepository interface {
	Create(ctx context.Context, db *gorm.DB, allocations []PaymentAllocation) error
	ListByTransaction(ctx context.Context, db *gorm.DB, transactionID int64) ([]PaymentAllocation, error)
	// HasLaterActive reports whether an ACTIVE payment other than
	// excludeTransactionID touched the installment after the given
	// allocation. Such a payment supersedes the older one and blocks its
	// reversal.
	HasLaterActive(ctx context.Context, db *gorm.DB, installmentID, afterAllocationID, excludeTransactionID int64) (bool, error)
}
