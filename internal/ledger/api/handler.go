package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/viamundo/backoffice/internal/apperror"
	"github.com/viamundo/backoffice/internal/ledger/domain"
	"github.com/viamundo/backoffice/internal/ledger/service"
	"github.com/viamundo/backoffice/internal/money"
)

type LedgerHandler struct {
	svc *service.LedgerService
}

func NewLedgerHandler(svc *service.LedgerService) *LedgerHandler {
	return &LedgerHandler{svc: svc}
}

func (h *LedgerHandler) RegisterRoutes(r *gin.RouterGroup) {
	accounts := r.Group("/accounts")
	{
		accounts.POST("", h.CreateAccount)
		accounts.GET("", h.ListAccounts)
		accounts.PUT("/:id", h.UpdateAccount)
		accounts.POST("/:id/archive", h.ArchiveAccount)
	}
	transactions := r.Group("/transactions")
	{
		transactions.POST("/income", h.PostIncome)
		transactions.POST("/expense", h.PostExpense)
		transactions.POST("/transfer", h.PostTransfer)
		transactions.GET("", h.ListTransactions)
		transactions.POST("/:id/cancel", h.CancelTransaction)
	}
}

func respondErr(c *gin.Context, err error) {
	c.JSON(apperror.HTTPStatus(err), gin.H{"error": err.Error()})
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		respondErr(c, apperror.Validationf("invalid %s %q", name, c.Param(name)))
		return 0, false
	}
	return id, true
}

func (h *LedgerHandler) CreateAccount(c *gin.Context) {
	var req CreateAccountReq
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, apperror.Validationf("invalid request: %s", err))
		return
	}
	initial := "0"
	if req.InitialBalance != "" {
		initial = req.InitialBalance
	}
	amount, err := money.Parse(initial)
	if err != nil {
		respondErr(c, err)
		return
	}
	acc, err := h.svc.CreateAccount(c.Request.Context(), service.CreateAccountRequest{
		BankName:       req.BankName,
		Reference:      req.Reference,
		Type:           domain.AccountType(req.Type),
		InitialBalance: amount,
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, toAccountResp(acc))
}

func (h *LedgerHandler) UpdateAccount(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req UpdateAccountReq
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, apperror.Validationf("invalid request: %s", err))
		return
	}
	acc, err := h.svc.UpdateAccount(c.Request.Context(), id, service.UpdateAccountRequest{
		BankName:  req.BankName,
		Reference: req.Reference,
		Type:      domain.AccountType(req.Type),
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, toAccountResp(acc))
}

func (h *LedgerHandler) ListAccounts(c *gin.Context) {
	includeArchived := c.Query("include_archived") == "true"
	accounts, err := h.svc.ListAccounts(c.Request.Context(), includeArchived)
	if err != nil {
		respondErr(c, err)
		return
	}
	out := make([]AccountResp, len(accounts))
	for i := range accounts {
		out[i] = toAccountResp(&accounts[i])
	}
	c.JSON(http.StatusOK, gin.H{"accounts": out})
}

func (h *LedgerHandler) ArchiveAccount(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req ArchiveAccountReq
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		respondErr(c, apperror.Validationf("invalid request: %s", err))
		return
	}
	if err := h.svc.ArchiveAccount(c.Request.Context(), id, req.TransferToAccountID); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "account archived"})
}

func (h *LedgerHandler) PostIncome(c *gin.Context) {
	h.postEntry(c, h.svc.ApplyIncome)
}

func (h *LedgerHandler) PostExpense(c *gin.Context) {
	h.postEntry(c, h.svc.ApplyExpense)
}

func (h *LedgerHandler) postEntry(c *gin.Context, apply func(context.Context, service.EntryRequest) (*domain.BankTransaction, error)) {
	var req EntryReq
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, apperror.Validationf("invalid request: %s", err))
		return
	}
	amount, err := money.ParsePositive(req.Amount)
	if err != nil {
		respondErr(c, err)
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		respondErr(c, err)
		return
	}
	t, err := apply(c.Request.Context(), service.EntryRequest{
		AccountID:   req.AccountID,
		Amount:      amount,
		Description: req.Description,
		Reference:   req.Reference,
		Date:        date,
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, toTransactionResp(t))
}

func (h *LedgerHandler) PostTransfer(c *gin.Context) {
	var req TransferReq
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, apperror.Validationf("invalid request: %s", err))
		return
	}
	amount, err := money.ParsePositive(req.Amount)
	if err != nil {
		respondErr(c, err)
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		respondErr(c, err)
		return
	}
	t, err := h.svc.ApplyTransfer(c.Request.Context(), service.TransferRequest{
		SourceAccountID:      req.SourceAccountID,
		DestinationAccountID: req.DestinationAccountID,
		Amount:               amount,
		Description:          req.Description,
		Reference:            req.Reference,
		Date:                 date,
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, toTransactionResp(t))
}

func (h *LedgerHandler) CancelTransaction(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	t, err := h.svc.Cancel(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, toTransactionResp(t))
}

func (h *LedgerHandler) ListTransactions(c *gin.Context) {
	f := domain.TransactionFilter{
		Kind:   domain.TransactionKind(c.Query("kind")),
		Search: c.Query("q"),
	}
	if f.Kind != "" && !f.Kind.IsValid() {
		respondErr(c, apperror.Validationf("invalid kind %q", f.Kind))
		return
	}
	if from, err := parseDate(c.Query("from")); err != nil {
		respondErr(c, err)
		return
	} else if !from.IsZero() {
		f.From = &from
	}
	if to, err := parseDate(c.Query("to")); err != nil {
		respondErr(c, err)
		return
	} else if !to.IsZero() {
		f.To = &to
	}
	f.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	f.PageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "20"))

	rows, total, err := h.svc.ListTransactions(c.Request.Context(), f)
	if err != nil {
		respondErr(c, err)
		return
	}
	out := make([]TransactionResp, len(rows))
	for i := range rows {
		out[i] = toTransactionResp(&rows[i])
	}
	c.JSON(http.StatusOK, gin.H{"transactions": out, "total": total})
}
