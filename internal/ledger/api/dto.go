package api

import (
	"time"

	"github.com/viamundo/backoffice/internal/apperror"
	"github.com/viamundo/backoffice/internal/ledger/domain"
)

// Amounts cross the wire as strings so precision never leaks through a float.

type CreateAccountReq struct {
	BankName       string `json:"bank_name" binding:"required"`
	Reference      string `json:"reference"`
	Type           string `json:"type" binding:"required,oneof=debit credit savings"`
	InitialBalance string `json:"initial_balance"`
}

type UpdateAccountReq struct {
	BankName  string `json:"bank_name" binding:"required"`
	Reference string `json:"reference"`
	Type      string `json:"type" binding:"required,oneof=debit credit savings"`
}

type ArchiveAccountReq struct {
	TransferToAccountID *int64 `json:"transfer_to_account_id"`
}

type EntryReq struct {
	AccountID   int64  `json:"account_id" binding:"required"`
	Amount      string `json:"amount" binding:"required"`
	Description string `json:"description" binding:"required"`
	Reference   string `json:"reference"`
	Date        string `json:"date"`
}

type TransferReq struct {
	SourceAccountID      int64  `json:"source_account_id" binding:"required"`
	DestinationAccountID int64  `json:"destination_account_id" binding:"required"`
	Amount               string `json:"amount" binding:"required"`
	Description          string `json:"description" binding:"required"`
	Reference            string `json:"reference"`
	Date                 string `json:"date"`
}

type AccountResp struct {
	ID             int64  `json:"id"`
	BankName       string `json:"bank_name"`
	Reference      string `json:"reference"`
	Type           string `json:"type"`
	InitialBalance string `json:"initial_balance"`
	CurrentBalance string `json:"current_balance"`
	Archived       bool   `json:"archived"`
}

func toAccountResp(a *domain.BankAccount) AccountResp {
	return AccountResp{
		ID:             a.ID,
		BankName:       a.BankName,
		Reference:      a.Reference,
		Type:           string(a.Type),
		InitialBalance: a.InitialBalance.StringFixed(2),
		CurrentBalance: a.CurrentBalance.StringFixed(2),
		Archived:       a.Archived,
	}
}

type TransactionResp struct {
	ID                   int64  `json:"id"`
	ReferenceID          string `json:"reference_id"`
	AccountID            int64  `json:"account_id"`
	Kind                 string `json:"kind"`
	Amount               string `json:"amount"`
	Description          string `json:"description"`
	ExternalRef          string `json:"external_ref,omitempty"`
	Date                 string `json:"date"`
	Status               string `json:"status"`
	DestinationAccountID *int64 `json:"destination_account_id,omitempty"`
	SaleID               *int64 `json:"sale_id,omitempty"`
}

func toTransactionResp(t *domain.BankTransaction) TransactionResp {
	return TransactionResp{
		ID:                   t.ID,
		ReferenceID:          t.ReferenceID,
		AccountID:            t.AccountID,
		Kind:                 string(t.Kind),
		Amount:               t.Amount.StringFixed(2),
		Description:          t.Description,
		ExternalRef:          t.ExternalRef,
		Date:                 t.Date.Format(time.RFC3339),
		Status:               string(t.Status),
		DestinationAccountID: t.DestinationAccountID,
		SaleID:               t.SaleID,
	}
}

// parseDate accepts a calendar date or a full timestamp; empty means "now"
// (resolved by the service).
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
