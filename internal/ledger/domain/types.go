package domain

// AccountType distinguishes the kinds of bank accounts an agency keeps.
type AccountType string

const (
	AccountDebit   AccountType = "debit"
	AccountCredit  AccountType = "credit"
	AccountSavings AccountType = "savings"
)

// IsValid reports whether the type is one of the known account kinds.
func (t AccountType) IsValid() bool {
	return t == AccountDebit || t == AccountCredit || t == AccountSavings
}

// TransactionKind is the operation a ledger row records.
type TransactionKind string

const (
	KindIncome   TransactionKind = "INCOME"
	KindExpense  TransactionKind = "EXPENSE"
	KindTransfer TransactionKind = "TRANSFER"
)

func (k TransactionKind) IsValid() bool {
	return k == KindIncome || k == KindExpense || k == KindTransfer
}

// TransactionStatus implements soft-cancel: rows are never deleted, a
// cancelled transaction stays in the ledger for audit.
type TransactionStatus string

const (
	StatusActive    TransactionStatus = "ACTIVE"
	StatusCancelled TransactionStatus = "CANCELLED"
)
