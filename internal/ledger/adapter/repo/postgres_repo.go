package repo

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/viamundo/backoffice/internal/apperror"
	"github.com/viamundo/backoffice/internal/ledger/domain"
)

type AccountRepo struct {
	db *gorm.DB
}

func NewAccountRepo(db *gorm.DB) *AccountRepo {
	return &AccountRepo{db: db}
}

func (r *AccountRepo) Create(ctx context.Context, acc *domain.BankAccount) error {
	return r.db.WithContext(ctx).Create(acc).Error
}

func (r *AccountRepo) Save(ctx context.Context, db *gorm.DB, acc *domain.BankAccount) error {
	return db.WithContext(ctx).Save(acc).Error
}

func (r *AccountRepo) FindByID(ctx context.Context, db *gorm.DB, id int64, lock bool) (*domain.BankAccount, error) {
	if db == nil {
		db = r.db
	}
	q := db.WithContext(ctx)
	if lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var acc domain.BankAccount
	if err := q.First(&acc, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFoundf("bank account %d not found", id)
		}
		return nil, err
	}
	return &acc, nil
}

func (r *AccountRepo) List(ctx context.Context, includeArchived bool) ([]domain.BankAccount, error) {
	q := r.db.WithContext(ctx).Order("id")
	if !includeArchived {
		q = q.Where("archived = ?", false)
	}
	var accounts []domain.BankAccount
	if err := q.Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

func (r *AccountRepo) SetBalance(ctx context.Context, db *gorm.DB, id int64, balance decimal.Decimal) error {
	result := db.WithContext(ctx).Model(&domain.BankAccount{}).
		Where("id = ?", id).
		Update("current_balance", balance)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperror.Invariantf("balance update touched no rows for account %d", id)
	}
	return nil
}

func (r *AccountRepo) SetArchived(ctx context.Context, db *gorm.DB, id int64) error {
	return db.WithContext(ctx).Model(&domain.BankAccount{}).
		Where("id = ?", id).
		Update("archived", true).Error
}

// ---------------------------------------------------------

type TransactionRepo struct {
	db *gorm.DB
}

func NewTransactionRepo(db *gorm.DB) *TransactionRepo {
	return &TransactionRepo{db: db}
}

func (r *TransactionRepo) Create(ctx context.Context, db *gorm.DB, t *domain.BankTransaction) error {
	return db.WithContext(ctx).Create(t).Error
}

func (r *TransactionRepo) FindByID(ctx context.Context, db *gorm.DB, id int64, lock bool) (*domain.BankTransaction, error) {
	if db == nil {
		db = r.db
	}
	q := db.WithContext(ctx)
	if lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var t domain.BankTransaction
	if err := q.First(&t, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFoundf("transaction %d not found", id)
		}
		return nil, err
	}
	return &t, nil
}

func (r *TransactionRepo) SetStatus(ctx context.Context, db *gorm.DB, id int64, status domain.TransactionStatus) error {
	result := db.WithContext(ctx).Model(&domain.BankTransaction{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperror.NotFoundf("transaction %d not found", id)
	}
	return nil
}

func (r *TransactionRepo) List(ctx context.Context, f domain.TransactionFilter) ([]domain.BankTransaction, int64, error) {
	q := r.db.WithContext(ctx).Model(&domain.BankTransaction{})
	if f.Kind != "" {
		q = q.Where("kind = ?", f.Kind)
	}
	if f.From != nil {
		q = q.Where("date >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("date <= ?", *f.To)
	}
	if f.Search != "" {
		like := "%" + f.Search + "%"
		q = q.Where("description LIKE ? OR external_ref LIKE ?", like, like)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := f.Page
	if page < 1 {
		page = 1
	}
	size := f.PageSize
	if size < 1 {
		size = 20
	}

	var rows []domain.BankTransaction
	err := q.Order("date DESC, id DESC").
		Offset((page - 1) * size).
		Limit(size).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
