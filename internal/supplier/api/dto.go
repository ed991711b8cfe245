package api

import (
	"time"

	"github.com/viamundo/backoffice/internal/apperror"
	"github.com/viamundo/backoffice/internal/supplier/domain"
)

type CreateSupplierReq struct {
	Name    string `json:"name" binding:"required"`
	Contact string `json:"contact"`
	Phone   string `json:"phone"`
}

type RegisterPaymentReq struct {
	SupplierID    int64  `json:"supplier_id" binding:"required"`
	SaleID        int64  `json:"sale_id" binding:"required"`
	BankAccountID int64  `json:"bank_account_id" binding:"required"`
	Amount        string `json:"amount" binding:"required"`
	Notes         string `json:"notes"`
	Date          string `json:"date"`
}

type SupplierResp struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Contact string `json:"contact,omitempty"`
	Phone   string `json:"phone,omitempty"`
}

type SummaryResp struct {
	SupplierID     int64  `json:"supplier_id"`
	Name           string `json:"name"`
	SaleCount      int    `json:"sale_count"`
	TotalDebt      string `json:"total_debt"`
	TotalPaid      string `json:"total_paid"`
	TotalRemaining string `json:"total_remaining"`
	OverdueCount   int    `json:"overdue_count"`
}

func toSummaryResp(s *domain.SupplierSummary) SummaryResp {
	return SummaryResp{
		SupplierID:     s.SupplierID,
		Name:           s.Name,
		SaleCount:      s.SaleCount,
		TotalDebt:      s.TotalDebt.StringFixed(2),
		TotalPaid:      s.TotalPaid.StringFixed(2),
		TotalRemaining: s.TotalRemaining.StringFixed(2),
		OverdueCount:   s.OverdueCount,
	}
}

type SaleDebtResp struct {
	SaleID     int64   `json:"sale_id"`
	ClientName string  `json:"client_name"`
	Debt       string  `json:"debt"`
	Paid       string  `json:"paid"`
	Remaining  string  `json:"remaining"`
	Deadline   *string `json:"deadline,omitempty"`
	Light      string  `json:"light"`
}

func toSaleDebtResp(d *domain.SaleDebt) SaleDebtResp {
	resp := SaleDebtResp{
		SaleID:     d.SaleID,
		ClientName: d.ClientName,
		Debt:       d.Debt.StringFixed(2),
		Paid:       d.Paid.StringFixed(2),
		Remaining:  d.Remaining.StringFixed(2),
		Light:      string(d.Light),
	}
	if d.Deadline != nil {
		s := d.Deadline.Format("2006-01-02")
		resp.Deadline = &s
	}
	return resp
}

type PaymentResp struct {
	ID            int64  `json:"id"`
	SupplierID    int64  `json:"supplier_id"`
	SaleID        int64  `json:"sale_id"`
	BankAccountID int64  `json:"bank_account_id"`
	TransactionID int64  `json:"transaction_id"`
	Amount        string `json:"amount"`
	Date          string `json:"date"`
	Notes         string `json:"notes,omitempty"`
	Status        string `json:"status"`
}

func toPaymentResp(p *domain.SupplierPayment) PaymentResp {
	return PaymentResp{
		ID:            p.ID,
		SupplierID:    p.SupplierID,
		SaleID:        p.SaleID,
		BankAccountID: p.BankAccountID,
		TransactionID: p.TransactionID,
		Amount:        p.Amount.StringFixed(2),
		Date:          p.Date.Format("2006-01-02"),
		Notes:         p.Notes,
		Status:        string(p.Status),
	}
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
