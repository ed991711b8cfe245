package domain

import (
	"context"

	"gorm.io/gorm"
)

type SupplierRepository interface {
	Create(ctx context.Context, supplier *Supplier) error
	FindByID(ctx context.Context, db *gorm.DB, id int64) (*Supplier, error)
	List(ctx context.Context) ([]Supplier, error)
}

type SupplierPaymentRepository interface {
	Create(ctx context.Context, db *gorm.DB, payment *SupplierPayment) error
	FindByID(ctx context.Context, db *gorm.DB, id int64, lock bool) (*SupplierPayment, error)
	SetStatus(ctx context.Context, db *gorm.DB, id int64, status PaymentStatus) error
	// ListActiveBySale returns the ACTIVE payments against one sale, the
	// input of the debt fold.
	ListActiveBySale(ctx context.Context, db *gorm.DB, saleID int64) ([]SupplierPayment, error)
	ListBySupplier(ctx context.Context, db *gorm.DB, supplierID int64) ([]SupplierPayment, error)
}
