package service_test

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/viamundo/backoffice/internal/apperror"
	ledgerrepo "github.com/viamundo/backoffice/internal/ledger/adapter/repo"
	ledgerdomain "github.com/viamundo/backoffice/internal/ledger/domain"
	ledgersvc "github.com/viamundo/backoffice/internal/ledger/service"
	"github.com/viamundo/backoffice/internal/payments/adapter/repo"
	"github.com/viamundo/backoffice/internal/payments/domain"
	"github.com/viamundo/backoffice/internal/payments/service"
)

type fixture struct {
	db       *gorm.DB
	ledger   *ledgersvc.LedgerService
	payments *service.PaymentService
	account  *ledgerdomain.BankAccount
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&ledgerdomain.BankAccount{},
		&ledgerdomain.BankTransaction{},
		&domain.Sale{},
		&domain.Installment{},
		&domain.PaymentAllocation{},
	))

	log := zap.NewNop()
	ledger := ledgersvc.NewLedgerService(db, ledgerrepo.NewAccountRepo(db), ledgerrepo.NewTransactionRepo(db), log)
	payments := service.NewPaymentService(db, repo.NewSaleRepo(db), repo.NewInstallmentRepo(db), repo.NewAllocationRepo(db), ledger, log)

	account, err := ledger.CreateAccount(context.Background(), ledgersvc.CreateAccountRequest{
		BankName: "BBVA",
		Type:     ledgerdomain.AccountDebit,
	})
	require.NoError(t, err)

	return &fixture{db: db, ledger: ledger, payments: payments, account: account}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func (f *fixture) creditSale(t *testing.T, total, down string, count int, start time.Time) *domain.Sale {
	t.Helper()
	sale, err := f.payments.CreateSale(context.Background(), service.CreateSaleRequest{
		ClientName:       "Familia Torres",
		TotalPrice:       dec(total),
		DownPayment:      dec(down),
		NetCost:          dec("7000"),
		PaymentType:      domain.PaymentCredit,
		Frequency:        domain.FrequencyQuincenal,
		InstallmentCount: count,
		StartDate:        start,
	})
	require.NoError(t, err)
	require.Len(t, sale.Installments, count)
	return sale
}

func (f *fixture) balance(t *testing.T) decimal.Decimal {
	t.Helper()
	var acc ledgerdomain.BankAccount
	require.NoError(t, f.db.First(&acc, f.account.ID).Error)
	return acc.CurrentBalance
}

func (f *fixture) installment(t *testing.T, id int64) *domain.Installment {
	t.Helper()
	var inst domain.Installment
	require.NoError(t, f.db.First(&inst, id).Error)
	return &inst
}

func futureStart() time.Time {
	return time.Now().AddDate(0, 1, 0)
}

func TestCreateSaleCash(t *testing.T) {
	f := newFixture(t)
	sale, err := f.payments.CreateSale(context.Background(), service.CreateSaleRequest{
		ClientName:  "Sr. Medina",
		TotalPrice:  dec("5000"),
		NetCost:     dec("4200"),
		PaymentType: domain.PaymentCash,
	})
	require.NoError(t, err)
	assert.Empty(t, sale.Installments)

	var count int64
	require.NoError(t, f.db.Model(&domain.Installment{}).Where("sale_id = ?", sale.ID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCreateSaleCreditGeneratesPlan(t *testing.T) {
	f := newFixture(t)
	sale := f.creditSale(t, "12000", "2000", 5, futureStart())

	for i, inst := range sale.Installments {
		assert.NotZero(t, inst.ID)
		assert.Equal(t, i+1, inst.PaymentNumber)
		assert.True(t, inst.Amount.Equal(dec("2000")), "installment %d: %s", i+1, inst.Amount)
		assert.Equal(t, domain.InstallmentPending, inst.Status)
	}
}

func TestRegisterPaymentWaterfall(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sale := f.creditSale(t, "12000", "2000", 5, futureStart())

	result, err := f.payments.RegisterPayment(ctx, service.RegisterPaymentRequest{
		InstallmentID: sale.Installments[0].ID,
		Amount:        dec("3500"),
		BankAccountID: f.account.ID,
	})
	require.NoError(t, err)

	// 3500 fills installment 1 (2000) and spills 1500 into installment 2.
	require.Len(t, result.Installments, 2)
	assert.True(t, result.PlanRemaining.Equal(dec("6500")))

	first := f.installment(t, sale.Installments[0].ID)
	assert.Equal(t, domain.InstallmentPaid, first.Status)
	assert.True(t, first.PaidAmount.Equal(dec("2000")))
	assert.NotNil(t, first.PaidDate)

	second := f.installment(t, sale.Installments[1].ID)
	assert.Equal(t, domain.InstallmentPending, second.Status)
	assert.True(t, second.PaidAmount.Equal(dec("1500")))
	assert.Nil(t, second.PaidDate)

	assert.True(t, f.balance(t).Equal(dec("3500")))

	var allocations []domain.PaymentAllocation
	require.NoError(t, f.db.Where("transaction_id = ?", result.Transaction.ID).Order("id").Find(&allocations).Error)
	require.Len(t, allocations, 2)
	assert.True(t, allocations[0].Amount.Equal(dec("2000")))
	assert.True(t, allocations[1].Amount.Equal(dec("1500")))
}

func TestRegisterPaymentSkipsPaidInstallments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sale := f.creditSale(t, "12000", "2000", 5, futureStart())

	_, err := f.payments.RegisterPayment(ctx, service.RegisterPaymentRequest{
		InstallmentID: sale.Installments[1].ID,
		Amount:        dec("2000"),
		BankAccountID: f.account.ID,
	})
	require.NoError(t, err)

	// Targeting the already-paid installment 2 cascades into installment 3.
	result, err := f.payments.RegisterPayment(ctx, service.RegisterPaymentRequest{
		InstallmentID: sale.Installments[1].ID,
		Amount:        dec("500"),
		BankAccountID: f.account.ID,
	})
	require.NoError(t, err)
	require.Len(t, result.Installments, 1)
	assert.Equal(t, sale.Installments[2].ID, result.Installments[0].ID)
	assert.True(t, f.installment(t, sale.Installments[2].ID).PaidAmount.Equal(dec("500")))
}

func TestRegisterPaymentOverpaymentRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sale := f.creditSale(t, "12000", "2000", 5, futureStart())

	_, err := f.payments.RegisterPayment(ctx, service.RegisterPaymentRequest{
		InstallmentID: sale.Installments[0].ID,
		Amount:        dec("10000.01"),
		BankAccountID: f.account.ID,
	})
	require.Error(t, err)
	assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))

	// Nothing changed: no money moved, no installment touched.
	assert.True(t, f.balance(t).IsZero())
	for _, inst := range sale.Installments {
		assert.True(t, f.installment(t, inst.ID).PaidAmount.IsZero())
	}
	var count int64
	require.NoError(t, f.db.Model(&ledgerdomain.BankTransaction{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestRegisterPaymentBeyondTargetTailRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sale := f.creditSale(t, "12000", "2000", 5, futureStart())

	// 3000 fits the plan total, but only 2000 is pending from the last
	// installment onward, where the waterfall can reach.
	_, err := f.payments.RegisterPayment(ctx, service.RegisterPaymentRequest{
		InstallmentID: sale.Installments[4].ID,
		Amount:        dec("3000"),
		BankAccountID: f.account.ID,
	})
	require.Error(t, err)
	assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))

	// Nothing changed.
	assert.True(t, f.balance(t).IsZero())
	for _, inst := range sale.Installments {
		assert.True(t, f.installment(t, inst.ID).PaidAmount.IsZero())
	}
}

func TestRegisterPaymentBackdatedCachesCurrentStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	// Every due date has passed.
	sale := f.creditSale(t, "12000", "2000", 5, time.Now().AddDate(-2, 0, 0))

	_, err := f.payments.RegisterPayment(ctx, service.RegisterPaymentRequest{
		InstallmentID: sale.Installments[0].ID,
		Amount:        dec("500"),
		BankAccountID: f.account.ID,
		Date:          time.Now().AddDate(-3, 0, 0),
	})
	require.NoError(t, err)

	// Partially paid and past due: the cached status reflects today, not the
	// backdated payment date.
	assert.Equal(t, domain.InstallmentOverdue, f.installment(t, sale.Installments[0].ID).Status)
}

func TestRegisterPaymentValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.payments.RegisterPayment(ctx, service.RegisterPaymentRequest{
		InstallmentID: 1, Amount: decimal.Zero, BankAccountID: f.account.ID,
	})
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))

	_, err = f.payments.RegisterPayment(ctx, service.RegisterPaymentRequest{
		InstallmentID: 999, Amount: dec("100"), BankAccountID: f.account.ID,
	})
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
}

func TestCancelPaymentRestoresPlanAndBalance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sale := f.creditSale(t, "12000", "2000", 5, futureStart())

	result, err := f.payments.RegisterPayment(ctx, service.RegisterPaymentRequest{
		InstallmentID: sale.Installments[0].ID,
		Amount:        dec("3500"),
		BankAccountID: f.account.ID,
	})
	require.NoError(t, err)

	require.NoError(t, f.payments.CancelPayment(ctx, result.Transaction.ID))

	assert.True(t, f.balance(t).IsZero())
	first := f.installment(t, sale.Installments[0].ID)
	assert.True(t, first.PaidAmount.IsZero())
	assert.Nil(t, first.PaidDate)
	assert.Equal(t, domain.InstallmentPending, first.Status)
	assert.True(t, f.installment(t, sale.Installments[1].ID).PaidAmount.IsZero())

	var tx ledgerdomain.BankTransaction
	require.NoError(t, f.db.First(&tx, result.Transaction.ID).Error)
	assert.Equal(t, ledgerdomain.StatusCancelled, tx.Status)

	// Double reversal is rejected.
	err = f.payments.CancelPayment(ctx, result.Transaction.ID)
	assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))
}

func TestCancelPaymentBlockedByLaterPayment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sale := f.creditSale(t, "12000", "2000", 5, futureStart())

	// First payment spills 1000 into installment 2.
	a, err := f.payments.RegisterPayment(ctx, service.RegisterPaymentRequest{
		InstallmentID: sale.Installments[0].ID,
		Amount:        dec("3000"),
		BankAccountID: f.account.ID,
	})
	require.NoError(t, err)

	// Second payment completes installment 2.
	b, err := f.payments.RegisterPayment(ctx, service.RegisterPaymentRequest{
		InstallmentID: sale.Installments[1].ID,
		Amount:        dec("1000"),
		BankAccountID: f.account.ID,
	})
	require.NoError(t, err)

	err = f.payments.CancelPayment(ctx, a.Transaction.ID)
	require.Error(t, err)
	assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))

	// Reversing in LIFO order works.
	require.NoError(t, f.payments.CancelPayment(ctx, b.Transaction.ID))
	require.NoError(t, f.payments.CancelPayment(ctx, a.Transaction.ID))
	assert.True(t, f.balance(t).IsZero())
	for _, inst := range sale.Installments {
		assert.True(t, f.installment(t, inst.ID).PaidAmount.IsZero())
	}
}

func TestCancelPaymentUnknownTransaction(t *testing.T) {
	f := newFixture(t)
	err := f.payments.CancelPayment(context.Background(), 999)
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
}

func TestListInstallmentsDerivesStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	// Start two years back, every due date has passed.
	sale := f.creditSale(t, "12000", "2000", 5, time.Now().AddDate(-2, 0, 0))

	_, err := f.payments.RegisterPayment(ctx, service.RegisterPaymentRequest{
		InstallmentID: sale.Installments[0].ID,
		Amount:        dec("2000"),
		BankAccountID: f.account.ID,
	})
	require.NoError(t, err)

	rows, err := f.payments.ListInstallments(ctx, sale.ID)
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, domain.InstallmentPaid, rows[0].Status)
	for _, inst := range rows[1:] {
		assert.Equal(t, domain.InstallmentOverdue, inst.Status)
	}
}

func TestMarkOverdue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.creditSale(t, "12000", "2000", 5, time.Now().AddDate(-2, 0, 0))
	f.creditSale(t, "6000", "0", 3, futureStart())

	n, err := f.payments.MarkOverdue(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 5, n)

	var overdue int64
	require.NoError(t, f.db.Model(&domain.Installment{}).
		Where("status = ?", domain.InstallmentOverdue).Count(&overdue).Error)
	assert.EqualValues(t, 5, overdue)

	// Second sweep finds nothing new.
	n, err = f.payments.MarkOverdue(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}
