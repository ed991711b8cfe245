package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/viamundo/backoffice/internal/apperror"
	ledgerdomain "github.com/viamundo/backoffice/internal/ledger/domain"
	"github.com/viamundo/backoffice/internal/payments/domain"
)

type SaleRepo struct {
	db *gorm.DB
}

func NewSaleRepo(db *gorm.DB) *SaleRepo {
	return &SaleRepo{db: db}
}

func (r *SaleRepo) Create(ctx context.Context, db *gorm.DB, sale *domain.Sale) error {
	if db == nil {
		db = r.db
	}
	// The installments slice is inserted with the sale in one go.
	return db.WithContext(ctx).Create(sale).Error
}

func (r *SaleRepo) FindByID(ctx context.Context, db *gorm.DB, id int64) (*domain.Sale, error) {
	if db == nil {
		db = r.db
	}
	var sale domain.Sale
	if err := db.WithContext(ctx).First(&sale, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFoundf("sale %d not found", id)
		}
		return nil, err
	}
	return &sale, nil
}

func (r *SaleRepo) ListBySupplier(ctx context.Context, db *gorm.DB, supplierID int64) ([]domain.Sale, error) {
	if db == nil {
		db = r.db
	}
	var sales []domain.Sale
	err := db.WithContext(ctx).
		Where("supplier_id = ?", supplierID).
		Order("id").
		Find(&sales).Error
	if err != nil {
		return nil, err
	}
	return sales, nil
}

// ---------------------------------------------------------

type InstallmentRepo struct {
	db *gorm.DB
}

func NewInstallmentRepo(db *gorm.DB) *InstallmentRepo {
	return &InstallmentRepo{db: db}
}

func (r *InstallmentRepo) FindByID(ctx context.Context, db *gorm.DB, id int64, lock bool) (*domain.Installment, error) {
	if db == nil {
		db = r.db
	}
	q := db.WithContext(ctx)
	if lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var inst domain.Installment
	if err := q.First(&inst, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFoundf("installment %d not found", id)
		}
		return nil, err
	}
	return &inst, nil
}

func (r *InstallmentRepo) ListBySale(ctx context.Context, db *gorm.DB, saleID int64, lock bool) ([]domain.Installment, error) {
	if db == nil {
		db = r.db
	}
	q := db.WithContext(ctx)
	if lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var rows []domain.Installment
	err := q.Where("sale_id = ?", saleID).
		Order("payment_number").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *InstallmentRepo) Save(ctx context.Context, db *gorm.DB, inst *domain.Installment) error {
	return db.WithContext(ctx).Save(inst).Error
}

func (r *InstallmentRepo) MarkOverdue(ctx context.Context, asOf time.Time) (int64, error) {
	// PENDING already implies not fully paid, so the due date is the only
	// predicate needed here.
	result := r.db.WithContext(ctx).Model(&domain.Installment{}).
		Where("status = ? AND due_date < ?", domain.InstallmentPending, domain.DayOf(asOf)).
		Update("status", domain.InstallmentOverdue)
	return result.RowsAffected, result.Error
}

// ---------------------------------------------------------

type AllocationRepo struct {
	db *gorm.DB
}

func NewAllocationRepo(db *gorm.DB) *AllocationRepo {
	return &AllocationRepo{db: db}
}

func (r *AllocationRepo) Create(ctx context.Context, db *gorm.DB, allocations []domain.PaymentAllocation) error {
	if len(allocations) == 0 {
		return nil
	}
	return db.WithContext(ctx).Create(&allocations).Error
}

func (r *AllocationRepo) ListByTransaction(ctx context.Context, db *gorm.DB, transactionID int64) ([]domain.PaymentAllocation, error) {
	if db == nil {
		db = r.db
	}
	var rows []domain.PaymentAllocation
	err := db.WithContext(ctx).
		Where("transaction_id = ?", transactionID).
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *AllocationRepo) HasLaterActive(ctx context.Context, db *gorm.DB, installmentID, afterAllocationID, excludeTransactionID int64) (bool, error) {
	if db == nil {
		db = r.db
	}
	var count int64
	err := db.WithContext(ctx).
		Table("payment_allocations AS pa").
		Joins("JOIN bank_transactions bt ON bt.id = pa.transaction_id").
		Where("pa.installment_id = ? AND pa.id > ? AND pa.transaction_id <> ? AND bt.status = ?",
			installmentID, afterAllocationID, excludeTransactionID, ledgerdomain.StatusActive).
		Count(&count).Error
	return count > 0, err
}
