// Package loan defines the core data records of the ledger: loans, their
// payments, and the persisted snapshot document. These are plain data
// carriers; all derived quantities live in pkg/engine and pkg/borrower.
package loan

import "loanledger/pkg/caldate"

// InterestModel selects how installments are derived from the principal.
type InterestModel string

const (
	// Simple accrues interest linearly: total = principal * (1 + rate*term).
	Simple InterestModel = "simple"

	// Compound uses the French (Price table) amortization schedule with a
	// constant installment. Records persisted before the interest model
	// existed default to this.
	Compound InterestModel = "compound"
)

// Valid reports whether m is one of the known interest models.
func (m InterestModel) Valid() bool {
	return m == Simple || m == Compound
}

// Payment is a single recorded repayment against a loan.
type Payment struct {
	Amount float64      `json:"amount"`
	Date   caldate.Date `json:"date"`
}

// Loan is one lending agreement. The identity fields are immutable once
// created; only Payments grows over the loan's life.
type Loan struct {
	ID           string  `json:"id"`
	BorrowerName string  `json:"borrowerName"`
	Principal    float64 `json:"principal"`
	// InterestRate is the monthly rate in percentage units (5 = 5%).
	InterestRate  float64       `json:"interestRate"`
	InterestModel InterestModel `json:"interestModel"`
	DateLent      caldate.Date  `json:"dateLent"`
	TermMonths    int           `json:"paymentTermInMonths"`
	// PaymentDay is the day of month (1-30) each installment is due.
	PaymentDay int       `json:"paymentDay"`
	Payments   []Payment `json:"payments"`
}

// Snapshot is the full persisted state of the ledger: every loan plus
// free-form notes keyed by borrower name. It is also the import/export
// document format.
type Snapshot struct {
	Loans         []Loan            `json:"loans"`
	BorrowerNotes map[string]string `json:"borrowerNotes"`
}

// Delinquency describes how far past due a loan currently is and what is
// owed to bring it current.
type Delinquency struct {
	DaysLate  int     `json:"daysLate"`
	Penalty   float64 `json:"penalty"`
	AmountDue float64 `json:"amountDue"`
}
