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
	payrepo "github.com/viamundo/backoffice/internal/payments/adapter/repo"
	paydomain "github.com/viamundo/backoffice/internal/payments/domain"
	paysvc "github.com/viamundo/backoffice/internal/payments/service"
	"github.com/viamundo/backoffice/internal/supplier/adapter/repo"
	"github.com/viamundo/backoffice/internal/supplier/domain"
	"github.com/viamundo/backoffice/internal/supplier/service"
)

const warningDays = 3

type fixture struct {
	db       *gorm.DB
	ledger   *ledgersvc.LedgerService
	payments *paysvc.PaymentService
	debts    *service.DebtService
	account  *ledgerdomain.BankAccount
	supplier *domain.Supplier
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
		&paydomain.Sale{},
		&paydomain.Installment{},
		&paydomain.PaymentAllocation{},
		&domain.Supplier{},
		&domain.SupplierPayment{},
	))

	log := zap.NewNop()
	accountRepo := ledgerrepo.NewAccountRepo(db)
	ledger := ledgersvc.NewLedgerService(db, accountRepo, ledgerrepo.NewTransactionRepo(db), log)
	saleRepo := payrepo.NewSaleRepo(db)
	payments := paysvc.NewPaymentService(db, saleRepo, payrepo.NewInstallmentRepo(db), payrepo.NewAllocationRepo(db), ledger, log)
	debts := service.NewDebtService(db, repo.NewSupplierRepo(db), repo.NewSupplierPaymentRepo(db), saleRepo, accountRepo, ledger, warningDays, log)

	account, err := ledger.CreateAccount(context.Background(), ledgersvc.CreateAccountRequest{
		BankName:       "Santander",
		Type:           ledgerdomain.AccountDebit,
		InitialBalance: dec("10000"),
	})
	require.NoError(t, err)

	supplier, err := debts.CreateSupplier(context.Background(), "Mayorista Cancun", "ventas@mayorista.mx", "")
	require.NoError(t, err)

	return &fixture{db: db, ledger: ledger, payments: payments, debts: debts, account: account, supplier: supplier}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// supplierSale registers a cash sale carrying a supplier debt of netCost.
func (f *fixture) supplierSale(t *testing.T, netCost string, deadline *time.Time) *paydomain.Sale {
	t.Helper()
	sale, err := f.payments.CreateSale(context.Background(), paysvc.CreateSaleRequest{
		ClientName:       "Familia Rivas",
		TotalPrice:       dec("9000"),
		NetCost:          dec(netCost),
		PaymentType:      paydomain.PaymentCash,
		SupplierID:       &f.supplier.ID,
		SupplierDeadline: deadline,
	})
	require.NoError(t, err)
	return sale
}

func (f *fixture) balance(t *testing.T) decimal.Decimal {
	t.Helper()
	var acc ledgerdomain.BankAccount
	require.NoError(t, f.db.First(&acc, f.account.ID).Error)
	return acc.CurrentBalance
}

func deadlineIn(days int) *time.Time {
	d := time.Now().AddDate(0, 0, days)
	return &d
}

func TestCreateSupplierValidation(t *testing.T) {
	f := newFixture(t)
	_, err := f.debts.CreateSupplier(context.Background(), "", "", "")
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
}

func TestRegisterPayment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sale := f.supplierSale(t, "7000", deadlineIn(30))

	payment, err := f.debts.RegisterPayment(ctx, service.RegisterPaymentRequest{
		SupplierID:    f.supplier.ID,
		SaleID:        sale.ID,
		BankAccountID: f.account.ID,
		Amount:        dec("3000"),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentActive, payment.Status)
	assert.True(t, f.balance(t).Equal(dec("7000")))

	// The backing ledger row is an EXPENSE linked to the sale.
	var tx ledgerdomain.BankTransaction
	require.NoError(t, f.db.First(&tx, payment.TransactionID).Error)
	assert.Equal(t, ledgerdomain.KindExpense, tx.Kind)
	require.NotNil(t, tx.SaleID)
	assert.Equal(t, sale.ID, *tx.SaleID)

	debtList, err := f.debts.ListSaleDebts(ctx, f.supplier.ID)
	require.NoError(t, err)
	require.Len(t, debtList, 1)
	assert.True(t, debtList[0].Paid.Equal(dec("3000")))
	assert.True(t, debtList[0].Remaining.Equal(dec("4000")))
	assert.Equal(t, domain.LightGreen, debtList[0].Light)
}

func TestRegisterPaymentBounds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sale := f.supplierSale(t, "20000", nil)

	// Remaining debt is 20000 but the account only holds 10000.
	_, err := f.debts.RegisterPayment(ctx, service.RegisterPaymentRequest{
		SupplierID:    f.supplier.ID,
		SaleID:        sale.ID,
		BankAccountID: f.account.ID,
		Amount:        dec("10000.01"),
	})
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))

	small := f.supplierSale(t, "500", nil)
	_, err = f.debts.RegisterPayment(ctx, service.RegisterPaymentRequest{
		SupplierID:    f.supplier.ID,
		SaleID:        small.ID,
		BankAccountID: f.account.ID,
		Amount:        dec("500.01"),
	})
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))

	// Rejections leave the account untouched.
	assert.True(t, f.balance(t).Equal(dec("10000")))
}

func TestRegisterPaymentWrongSupplier(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sale := f.supplierSale(t, "7000", nil)

	other, err := f.debts.CreateSupplier(ctx, "Operadora Norte", "", "")
	require.NoError(t, err)

	_, err = f.debts.RegisterPayment(ctx, service.RegisterPaymentRequest{
		SupplierID:    other.ID,
		SaleID:        sale.ID,
		BankAccountID: f.account.ID,
		Amount:        dec("100"),
	})
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
}

func TestCancelPayment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sale := f.supplierSale(t, "7000", nil)

	payment, err := f.debts.RegisterPayment(ctx, service.RegisterPaymentRequest{
		SupplierID:    f.supplier.ID,
		SaleID:        sale.ID,
		BankAccountID: f.account.ID,
		Amount:        dec("3000"),
	})
	require.NoError(t, err)
	require.True(t, f.balance(t).Equal(dec("7000")))

	require.NoError(t, f.debts.CancelPayment(ctx, payment.ID))
	assert.True(t, f.balance(t).Equal(dec("10000")))

	debtList, err := f.debts.ListSaleDebts(ctx, f.supplier.ID)
	require.NoError(t, err)
	require.Len(t, debtList, 1)
	assert.True(t, debtList[0].Paid.IsZero())
	assert.True(t, debtList[0].Remaining.Equal(dec("7000")))

	err = f.debts.CancelPayment(ctx, payment.ID)
	assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))

	// The cancelled row stays in the history.
	history, err := f.debts.ListPayments(ctx, f.supplier.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, domain.PaymentCancelled, history[0].Status)
}

func TestListSaleDebtsLights(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	settled := f.supplierSale(t, "1000", deadlineIn(-10))
	_, err := f.debts.RegisterPayment(ctx, service.RegisterPaymentRequest{
		SupplierID:    f.supplier.ID,
		SaleID:        settled.ID,
		BankAccountID: f.account.ID,
		Amount:        dec("1000"),
	})
	require.NoError(t, err)

	gray := f.supplierSale(t, "2000", nil)
	f.supplierSale(t, "2000", deadlineIn(30)) // green
	f.supplierSale(t, "2000", deadlineIn(2))  // yellow
	f.supplierSale(t, "2000", deadlineIn(-1)) // red

	debtList, err := f.debts.ListSaleDebts(ctx, f.supplier.ID)
	require.NoError(t, err)
	require.Len(t, debtList, 5)

	lights := map[int64]domain.DebtLight{}
	for _, d := range debtList {
		lights[d.SaleID] = d.Light
	}
	assert.Equal(t, domain.LightSettled, lights[settled.ID])
	assert.Equal(t, domain.LightGray, lights[gray.ID])

	counts := map[domain.DebtLight]int{}
	for _, d := range debtList {
		counts[d.Light]++
	}
	assert.Equal(t, 1, counts[domain.LightSettled])
	assert.Equal(t, 1, counts[domain.LightGray])
	assert.Equal(t, 1, counts[domain.LightGreen])
	assert.Equal(t, 1, counts[domain.LightYellow])
	assert.Equal(t, 1, counts[domain.LightRed])
}

func TestListSummaries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	saleA := f.supplierSale(t, "4000", deadlineIn(-5)) // red
	f.supplierSale(t, "3000", deadlineIn(60))          // green

	_, err := f.debts.RegisterPayment(ctx, service.RegisterPaymentRequest{
		SupplierID:    f.supplier.ID,
		SaleID:        saleA.ID,
		BankAccountID: f.account.ID,
		Amount:        dec("1500"),
	})
	require.NoError(t, err)

	summaries, err := f.debts.ListSummaries(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 1)

	s := summaries[0]
	assert.Equal(t, f.supplier.ID, s.SupplierID)
	assert.Equal(t, 2, s.SaleCount)
	assert.True(t, s.TotalDebt.Equal(dec("7000")))
	assert.True(t, s.TotalPaid.Equal(dec("1500")))
	assert.True(t, s.TotalRemaining.Equal(dec("5500")))
	assert.Equal(t, 1, s.OverdueCount)
}

func TestListSaleDebtsUnknownSupplier(t *testing.T) {
	f := newFixture(t)
	_, err := f.debts.ListSaleDebts(context.Background(), 999)
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
}
