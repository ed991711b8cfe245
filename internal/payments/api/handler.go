package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/viamundo/backoffice/internal/apperror"
	"github.com/viamundo/backoffice/internal/money"
	"github.com/viamundo/backoffice/internal/payments/domain"
	"github.com/viamundo/backoffice/internal/payments/service"
)

type PaymentHandler struct {
	svc *service.PaymentService
}

func NewPaymentHandler(svc *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{svc: svc}
}

func (h *PaymentHandler) RegisterRoutes(r *gin.RouterGroup) {
	sales := r.Group("/sales")
	{
		sales.POST("", h.CreateSale)
		sales.GET("/:id/installments", h.ListInstallments)
	}
	payments := r.Group("/payments")
	{
		payments.POST("", h.RegisterPayment)
		payments.POST("/:transactionID/cancel", h.CancelPayment)
	}
}

func respondErr(c *gin.Context, err error) {
	c.JSON(apperror.HTTPStatus(err), gin.H{"error": err.Error()})
}

func (h *PaymentHandler) CreateSale(c *gin.Context) {
	var req CreateSaleReq
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, apperror.Validationf("invalid request: %s", err))
		return
	}

	totalPrice, err := money.ParsePositive(req.TotalPrice)
	if err != nil {
		respondErr(c, err)
		return
	}
	downPayment := decimal.Zero
	if req.DownPayment != "" {
		if downPayment, err = money.Parse(req.DownPayment); err != nil {
			respondErr(c, err)
			return
		}
	}
	netCost := decimal.Zero
	if req.NetCost != "" {
		if netCost, err = money.Parse(req.NetCost); err != nil {
			respondErr(c, err)
			return
		}
	}
	startDate, err := parseDate(req.StartDate)
	if err != nil {
		respondErr(c, err)
		return
	}

	svcReq := service.CreateSaleRequest{
		ClientName:       req.ClientName,
		TotalPrice:       totalPrice,
		DownPayment:      downPayment,
		NetCost:          netCost,
		PaymentType:      domain.PaymentType(req.PaymentType),
		Frequency:        domain.Frequency(req.Frequency),
		InstallmentCount: req.InstallmentCount,
		StartDate:        startDate,
		SupplierID:       req.SupplierID,
	}
	if req.SupplierDeadline != "" {
		deadline, err := parseDate(req.SupplierDeadline)
		if err != nil {
			respondErr(c, err)
			return
		}
		svcReq.SupplierDeadline = &deadline
	}

	sale, err := h.svc.CreateSale(c.Request.Context(), svcReq)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, toSaleResp(sale))
}

func (h *PaymentHandler) ListInstallments(c *gin.Context) {
	saleID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || saleID <= 0 {
		respondErr(c, apperror.Validationf("invalid sale id %q", c.Param("id")))
		return
	}
	rows, err := h.svc.ListInstallments(c.Request.Context(), saleID)
	if err != nil {
		respondErr(c, err)
		return
	}
	out := make([]InstallmentResp, len(rows))
	for i := range rows {
		out[i] = toInstallmentResp(&rows[i])
	}
	c.JSON(http.StatusOK, gin.H{"installments": out})
}

func (h *PaymentHandler) RegisterPayment(c *gin.Context) {
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

	result, err := h.svc.RegisterPayment(c.Request.Context(), service.RegisterPaymentRequest{
		InstallmentID: req.InstallmentID,
		Amount:        amount,
		BankAccountID: req.BankAccountID,
		Notes:         req.Notes,
		Date:          date,
	})
	if err != nil {
		respondErr(c, err)
		return
	}

	installments := make([]InstallmentResp, len(result.Installments))
	for i := range result.Installments {
		installments[i] = toInstallmentResp(&result.Installments[i])
	}
	c.JSON(http.StatusCreated, gin.H{
		"transaction_id": result.Transaction.ID,
		"reference_id":   result.Transaction.ReferenceID,
		"installments":   installments,
		"plan_remaining": result.PlanRemaining.StringFixed(2),
	})
}

func (h *PaymentHandler) CancelPayment(c *gin.Context) {
	transactionID, err := strconv.ParseInt(c.Param("transactionID"), 10, 64)
	if err != nil || transactionID <= 0 {
		respondErr(c, apperror.Validationf("invalid transaction id %q", c.Param("transactionID")))
		return
	}
	if err := h.svc.CancelPayment(c.Request.Context(), transactionID); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "payment cancelled"})
}
