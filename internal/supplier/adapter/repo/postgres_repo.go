package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/viamundo/backoffice/internal/apperror"
	"github.com/viamundo/backoffice/internal/supplier/domain"
)

type SupplierRepo struct {
	db *gorm.DB
}

func NewSupplierRepo(db *gorm.DB) *SupplierRepo {
	return &SupplierRepo{db: db}
}

func (r *SupplierRepo) Create(ctx context.Context, supplier *domain.Supplier) error {
	return r.db.WithContext(ctx).Create(supplier).Error
}

func (r *SupplierRepo) FindByID(ctx context.Context, db *gorm.DB, id int64) (*domain.Supplier, error) {
	if db == nil {
		db = r.db
	}
	var s domain.Supplier
	if err := db.WithContext(ctx).First(&s, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFoundf("supplier %d not found", id)
		}
		return nil, err
	}
	return &s, nil
}

func (r *SupplierRepo) List(ctx context.Context) ([]domain.Supplier, error) {
	var suppliers []domain.Supplier
	if err := r.db.WithContext(ctx).Order("name").Find(&suppliers).Error; err != nil {
		return nil, err
	}
	return suppliers, nil
}

// ---------------------------------------------------------

type SupplierPaymentRepo struct {
	db *gorm.DB
}

func NewSupplierPaymentRepo(db *gorm.DB) *SupplierPaymentRepo {
	return &SupplierPaymentRepo{db: db}
}

func (r *SupplierPaymentRepo) Create(ctx context.Context, db *gorm.DB, payment *domain.SupplierPayment) error {
	return db.WithContext(ctx).Create(payment).Error
}

func (r *SupplierPaymentRepo) FindByID(ctx context.Context, db *gorm.DB, id int64, lock bool) (*domain.SupplierPayment, error) {
	if db == nil {
		db = r.db
	}
	q := db.WithContext(ctx)
	if lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var p domain.SupplierPayment
	if err := q.First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFoundf("supplier payment %d not found", id)
		}
		return nil, err
	}
	return &p, nil
}

func (r *SupplierPaymentRepo) SetStatus(ctx context.Context, db *gorm.DB, id int64, status domain.PaymentStatus) error {
	result := db.WithContext(ctx).Model(&domain.SupplierPayment{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperror.NotFoundf("supplier payment %d not found", id)
	}
	return nil
}

func (r *SupplierPaymentRepo) ListActiveBySale(ctx context.Context, db *gorm.DB, saleID int64) ([]domain.SupplierPayment, error) {
	if db == nil {
		db = r.db
	}
	var rows []domain.SupplierPayment
	err := db.WithContext(ctx).
		Where("sale_id = ? AND status = ?", saleID, domain.PaymentActive).
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *SupplierPaymentRepo) ListBySupplier(ctx context.Context, db *gorm.DB, supplierID int64) ([]domain.SupplierPayment, error) {
	if db == nil {
		db = r.db
	}
	var rows []domain.SupplierPayment
	err := db.WithContext(ctx).
		Where("supplier_id = ?", supplierID).
		Order("id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
