package api

import (
	"time"

	"github.com/viamundo/backoffice/internal/apperror"
	"github.com/viamundo/backoffice/internal/payments/domain"
)

type CreateSaleReq struct {
	ClientName       string `json:"client_name" binding:"required"`
	TotalPrice       string `json:"total_price" binding:"required"`
	DownPayment      string `json:"down_payment"`
	NetCost          string `json:"net_cost"`
	PaymentType      string `json:"payment_type" binding:"required,oneof=cash credit"`
	Frequency        string `json:"frequency" binding:"omitempty,oneof=quincenal mensual"`
	InstallmentCount int    `json:"installment_count"`
	StartDate        string `json:"start_date"`
	SupplierID       *int64 `json:"supplier_id"`
	SupplierDeadline string `json:"supplier_deadline"`
}

type RegisterPaymentReq struct {
	InstallmentID int64  `json:"installment_id" binding:"required"`
	Amount        string `json:"amount" binding:"required"`
	BankAccountID int64  `json:"bank_account_id" binding:"required"`
	Notes         string `json:"notes"`
	Date          string `json:"date"`
}

type InstallmentResp struct {
	ID            int64   `json:"id"`
	SaleID        int64   `json:"sale_id"`
	PaymentNumber int     `json:"payment_number"`
	DueDate       string  `json:"due_date"`
	Amount        string  `json:"amount"`
	PaidAmount    string  `json:"paid_amount"`
	Status        string  `json:"status"`
	PaidDate      *string `json:"paid_date,omitempty"`
}

func toInstallmentResp(i *domain.Installment) InstallmentResp {
	resp := InstallmentResp{
		ID:            i.ID,
		SaleID:        i.SaleID,
		PaymentNumber: i.PaymentNumber,
		DueDate:       i.DueDate.Format("2006-01-02"),
		Amount:        i.Amount.StringFixed(2),
		PaidAmount:    i.PaidAmount.StringFixed(2),
		Status:        string(i.Status),
	}
	if i.PaidDate != nil {
		d := i.PaidDate.Format("2006-01-02")
		resp.PaidDate = &d
	}
	return resp
}

type SaleResp struct {
	ID               int64             `json:"id"`
	ClientName       string            `json:"client_name"`
	TotalPrice       string            `json:"total_price"`
	DownPayment      string            `json:"down_payment"`
	NetCost          string            `json:"net_cost"`
	PaymentType      string            `json:"payment_type"`
	Frequency        string            `json:"frequency,omitempty"`
	InstallmentCount int               `json:"installment_count"`
	StartDate        string            `json:"start_date"`
	SupplierID       *int64            `json:"supplier_id,omitempty"`
	SupplierDeadline *string           `json:"supplier_deadline,omitempty"`
	Installments     []InstallmentResp `json:"installments"`
}

func toSaleResp(s *domain.Sale) SaleResp {
	resp := SaleResp{
		ID:               s.ID,
		ClientName:       s.ClientName,
		TotalPrice:       s.TotalPrice.StringFixed(2),
		DownPayment:      s.DownPayment.StringFixed(2),
		NetCost:          s.NetCost.StringFixed(2),
		PaymentType:      string(s.PaymentType),
		Frequency:        string(s.Frequency),
		InstallmentCount: s.InstallmentCount,
		StartDate:        s.StartDate.Format("2006-01-02"),
		SupplierID:       s.SupplierID,
		Installments:     make([]InstallmentResp, len(s.Installments)),
	}
	if s.SupplierDeadline != nil {
		d := s.SupplierDeadline.Format("2006-01-02")
		resp.SupplierDeadline = &d
	}
	for i := range s.Installments {
		resp.Installments[i] = toInstallmentResp(&s.Installments[i])
	}
	return resp
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if d, err := time.Parse("2006-01-02", s); err == nil {
		return d, nil
	}
	if d, err := time.Parse(time.RFC3339, s); err == nil {
		return d, nil
	}
	return time.Time{}, apperror.Validationf("invalid date %q, want YYYY-MM-DD or RFC3339", s)
}
