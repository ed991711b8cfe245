package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	ledgerrepo "github.com/viamundo/backoffice/internal/ledger/adapter/repo"
	ledgerapi "github.com/viamundo/backoffice/internal/ledger/api"
	ledgerdomain "github.com/viamundo/backoffice/internal/ledger/domain"
	ledgersvc "github.com/viamundo/backoffice/internal/ledger/service"
	payrepo "github.com/viamundo/backoffice/internal/payments/adapter/repo"
	paymentsapi "github.com/viamundo/backoffice/internal/payments/api"
	paydomain "github.com/viamundo/backoffice/internal/payments/domain"
	paysvc "github.com/viamundo/backoffice/internal/payments/service"
	"github.com/viamundo/backoffice/internal/platform/database"
	"github.com/viamundo/backoffice/internal/platform/logger"
	"github.com/viamundo/backoffice/internal/platform/server"
	supplierrepo "github.com/viamundo/backoffice/internal/supplier/adapter/repo"
	supplierapi "github.com/viamundo/backoffice/internal/supplier/api"
	supplierdomain "github.com/viamundo/backoffice/internal/supplier/domain"
	suppliersvc "github.com/viamundo/backoffice/internal/supplier/service"
)

func main() {
	viper.SetConfigFile("configs/config.yaml")
	viper.SetEnvPrefix("BACKOFFICE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	if err := viper.ReadInConfig(); err != nil {
		log.Fatalf("error reading config file: %s", err)
	}

	appLogger := logger.NewLogger(viper.GetString("server.mode"))
	defer appLogger.Sync() //nolint:errcheck

	dsn := viper.GetString("database.dsn")
	maxIdleConns := viper.GetInt("database.max_idle_conns")
	maxOpenConns := viper.GetInt("database.max_open_conns")
	db := database.NewPostgresDB(dsn, maxIdleConns, maxOpenConns)

	if err := db.AutoMigrate(
		&ledgerdomain.BankAccount{},
		&ledgerdomain.BankTransaction{},
		&paydomain.Sale{},
		&paydomain.Installment{},
		&paydomain.PaymentAllocation{},
		&supplierdomain.Supplier{},
		&supplierdomain.SupplierPayment{},
	); err != nil {
		appLogger.Fatal("migration failed", zap.Error(err))
	}

	// -- Ledger module --
	accountRepo := ledgerrepo.NewAccountRepo(db)
	txRepo := ledgerrepo.NewTransactionRepo(db)
	ledgerService := ledgersvc.NewLedgerService(db, accountRepo, txRepo, appLogger)
	ledgerHandler := ledgerapi.NewLedgerHandler(ledgerService)

	// -- Payments module --
	saleRepo := payrepo.NewSaleRepo(db)
	installmentRepo := payrepo.NewInstallmentRepo(db)
	allocationRepo := payrepo.NewAllocationRepo(db)
	paymentService := paysvc.NewPaymentService(db, saleRepo, installmentRepo, allocationRepo, ledgerService, appLogger)
	paymentHandler := paymentsapi.NewPaymentHandler(paymentService)

	// -- Supplier module --
	supplierRepo := supplierrepo.NewSupplierRepo(db)
	supplierPaymentRepo := supplierrepo.NewSupplierPaymentRepo(db)
	debtService := suppliersvc.NewDebtService(
		db,
		supplierRepo,
		supplierPaymentRepo,
		saleRepo,
		accountRepo,
		ledgerService,
		viper.GetInt("debt.warning_days"),
		appLogger,
	)
	supplierHandler := supplierapi.NewSupplierHandler(debtService)

	// Nightly sweep flips PENDING installments past their due date to OVERDUE,
	// plus one pass at startup to catch up after downtime.
	sweep := func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		n, err := paymentService.MarkOverdue(ctx)
		if err != nil {
			appLogger.Error("overdue sweep failed", zap.Error(err))
			return
		}
		appLogger.Info("overdue sweep finished", zap.Int64("installments", n))
	}
	sweep()

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(viper.GetString("jobs.overdue_sweep"), sweep); err != nil {
		appLogger.Fatal("invalid overdue sweep schedule", zap.Error(err))
	}
	scheduler.Start()

	srv := server.NewServer(
		appLogger,
		viper.GetString("server.port"),
		viper.GetString("server.mode"),
		ledgerHandler,
		paymentHandler,
		supplierHandler,
	)

	go func() {
		if err := srv.Run(); err != nil {
			appLogger.Error("server stopped", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("shutting down")
	scheduler.Stop()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Fatal("forced shutdown", zap.Error(err))
	}
}
