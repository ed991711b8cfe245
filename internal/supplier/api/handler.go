package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/viamundo/backoffice/internal/apperror"
	"github.com/viamundo/backoffice/internal/money"
	"github.com/viamundo/backoffice/internal/supplier/service"
)

type SupplierHandler struct {
	svc *service.DebtService
}

func NewSupplierHandler(svc *service.DebtService) *SupplierHandler {
	return &SupplierHandler{svc: svc}
}

func (h *SupplierHandler) RegisterRoutes(r *gin.RouterGroup) {
	suppliers := r.Group("/suppliers")
	{
		suppliers.POST("", h.CreateSupplier)
		suppliers.GET("", h.ListSummaries)
		suppliers.GET("/:id/sales", h.ListSaleDebts)
		suppliers.GET("/:id/payments", h.ListPayments)
	}
	payments := r.Group("/supplier-payments")
	{
		payments.POST("", h.RegisterPayment)
		payments.POST("/:id/cancel", h.CancelPayment)
	}
}

func respondErr(c *gin.Context, err error) {
	c.JSON(apperror.HTTPStatus(err), gin.H{"error": err.Error()})
}

func (h *SupplierHandler) CreateSupplier(c *gin.Context) {
	var req CreateSupplierReq
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, apperror.Validationf("invalid request: %s", err))
		return
	}
	supplier, err := h.svc.CreateSupplier(c.Request.Context(), req.Name, req.Contact, req.Phone)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, SupplierResp{
		ID:      supplier.ID,
		Name:    supplier.Name,
		Contact: supplier.Contact,
		Phone:   supplier.Phone,
	})
}

func (h *SupplierHandler) ListSummaries(c *gin.Context) {
	summaries, err := h.svc.ListSummaries(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}
	out := make([]SummaryResp, len(summaries))
	for i := range summaries {
		out[i] = toSummaryResp(&summaries[i])
	}
	c.JSON(http.StatusOK, gin.H{"suppliers": out})
}

func (h *SupplierHandler) ListSaleDebts(c *gin.Context) {
	supplierID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || supplierID <= 0 {
		respondErr(c, apperror.Validationf("invalid supplier id %q", c.Param("id")))
		return
	}
	debts, err := h.svc.ListSaleDebts(c.Request.Context(), supplierID)
	if err != nil {
		respondErr(c, err)
		return
	}
	out := make([]SaleDebtResp, len(debts))
	for i := range debts {
		out[i] = toSaleDebtResp(&debts[i])
	}
	c.JSON(http.StatusOK, gin.H{"sales": out})
}

func (h *SupplierHandler) ListPayments(c *gin.Context) {
	supplierID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || supplierID <= 0 {
		respondErr(c, apperror.Validationf("invalid supplier id %q", c.Param("id")))
		return
	}
	rows, err := h.svc.ListPayments(c.Request.Context(), supplierID)
	if err != nil {
		respondErr(c, err)
		return
	}
	out := make([]PaymentResp, len(rows))
	for i := range rows {
		out[i] = toPaymentResp(&rows[i])
	}
	c.JSON(http.StatusOK, gin.H{"payments": out})
}

func (h *SupplierHandler) RegisterPayment(c *gin.Context) {
	var req RegisterPaymentReq
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
	payment, err := h.svc.RegisterPayment(c.Request.Context(), service.RegisterPaymentRequest{
		SupplierID:    req.SupplierID,
		SaleID:        req.SaleID,
		BankAccountID: req.BankAccountID,
		Amount:        amount,
		Notes:         req.Notes,
		Date:          date,
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, toPaymentResp(payment))
}

func (h *SupplierHandler) CancelPayment(c *gin.Context) {
	paymentID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || paymentID <= 0 {
		respondErr(c, apperror.Validationf("invalid payment id %q", c.Param("id")))
		return
	}
	if err := h.svc.CancelPayment(c.Request.Context(), paymentID); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "supplier payment cancelled"})
}
