// Package output provides utilities for formatting and displaying the loan
// book.
package output

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"loanledger/internal/ledger"
	"loanledger/pkg/caldate"
	"loanledger/pkg/engine"
	"loanledger/pkg/loan"
	"loanledger/pkg/mathutil"
)

// Row is one loan rendered for display.
type Row struct {
	Borrower    string
	Principal   float64
	Installment float64
	Paid        int
	Term        int
	Outstanding float64
	NextDue     string
	Status      string
}

// BuildRows derives the display rows for all loans as of today.
func BuildRows(loans []loan.Loan, today caldate.Date) []Row {
	rows := make([]Row, 0, len(loans))
	for _, l := range loans {
		row := Row{
			Borrower:    l.BorrowerName,
			Principal:   mathutil.Round(l.Principal),
			Installment: mathutil.Round(engine.Installment(l)),
			Paid:        engine.PaidInstallments(l),
			Term:        l.TermMonths,
			Outstanding: mathutil.Round(engine.OutstandingBalance(l)),
			NextDue:     "-",
			Status:      "active",
		}
		if next, ok := engine.NextDueDate(l); ok {
			row.NextDue = next.String()
		}
		switch {
		case engine.IsSettled(l):
			row.Status = "settled"
		case engine.IsOverdue(l, today):
			detail := engine.DelinquencyDetails(l, today)
			row.Status = fmt.Sprintf("overdue (%dd)", detail.DaysLate)
		}
		rows = append(rows, row)
	}
	return rows
}

// PrettyFormat writes a human-readable rather than machine-readable table.
func PrettyFormat(w io.Writer, loans []loan.Loan, totals ledger.Totals, today caldate.Date) {
	p := message.NewPrinter(language.English)

	fmt.Fprintf(w, "--- Loan book as of %s ---\n", today)
	fmt.Fprintf(w, "Borrower             | Principal   | Installment | Paid  | Outstanding | Next due   | Status\n")
	fmt.Fprintf(w, "________             | _________   | ___________ | ____  | ___________ | ________   | ______\n")
	for _, row := range BuildRows(loans, today) {
		_, _ = p.Fprintf(w, "%-20s | $%-10.2f | $%-10.2f | %2d/%-2d | $%-10.2f | %-10s | %s\n",
			row.Borrower, row.Principal, row.Installment,
			row.Paid, row.Term, row.Outstanding, row.NextDue, row.Status)
	}
	fmt.Fprintf(w, "\n")
	_, _ = p.Fprintf(w, "Total lent: $%.2f | Total paid: $%.2f | Outstanding: $%.2f\n",
		totals.TotalLent, totals.TotalPaid, totals.TotalOutstanding)
}

// CsvFormat writes the loan book in comma-separated value format.
func CsvFormat(w io.Writer, loans []loan.Loan, today caldate.Date) {
	fmt.Fprintf(w, `"borrower","principal","installment","paid","term","outstanding","next_due","status"`)
	fmt.Fprintf(w, "\n")
	for _, row := range BuildRows(loans, today) {
		fmt.Fprintf(w, `"%s","%.2f","%.2f","%d","%d","%.2f","%s","%s"`,
			escapeQuotes(row.Borrower), row.Principal, row.Installment,
			row.Paid, row.Term, row.Outstanding, row.NextDue, row.Status)
		fmt.Fprintf(w, "\n")
	}
}

func escapeQuotes(s string) string {
	return strings.ReplaceAll(s, `"`, `""`)
}
