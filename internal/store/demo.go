package store

import (
	"github.com/google/uuid"

	"loanledger/pkg/caldate"
	"loanledger/pkg/loan"
)

// DemoSnapshot builds the first-run sample data: one fully repaid loan, one
// partially repaid loan, and one fresh loan, so a new install shows every
// loan state. Dates are anchored to today so the fixtures stay current.
func DemoSnapshot(today caldate.Date) *loan.Snapshot {
	fiveMonthsAgo := today.AddMonthsClamped(-5, today.Day)
	twoMonthsAgo := today.AddMonthsClamped(-2, today.Day)

	paidName := "Carlos Silva (Exemplo Pago)"
	partialName := "Maria Oliveira (Exemplo Parcial)"
	newName := "João Santos (Exemplo Novo)"

	paid := loan.Loan{
		ID:            uuid.NewString(),
		BorrowerName:  paidName,
		Principal:     1000,
		InterestRate:  5,
		InterestModel: loan.Simple,
		DateLent:      fiveMonthsAgo,
		TermMonths:    4,
		PaymentDay:    10,
	}
	for i := 1; i <= 4; i++ {
		paid.Payments = append(paid.Payments, loan.Payment{
			Amount: 300,
			Date:   fiveMonthsAgo.AddMonthsClamped(i, 10),
		})
	}

	partial := loan.Loan{
		ID:            uuid.NewString(),
		BorrowerName:  partialName,
		Principal:     2000,
		InterestRate:  8,
		InterestModel: loan.Compound,
		DateLent:      twoMonthsAgo,
		TermMonths:    10,
		PaymentDay:    15,
		Payments: []loan.Payment{
			{Amount: 298.06, Date: twoMonthsAgo.AddMonthsClamped(1, 15)},
		},
	}

	fresh := loan.Loan{
		ID:            uuid.NewString(),
		BorrowerName:  newName,
		Principal:     500,
		InterestRate:  10,
		InterestModel: loan.Simple,
		DateLent:      today,
		TermMonths:    5,
		PaymentDay:    5,
	}

	return &loan.Snapshot{
		Loans: []loan.Loan{paid, partial, fresh},
		BorrowerNotes: map[string]string{
			partialName: "Cliente tem comércio local, costuma pagar em dinheiro.",
			paidName:    "Excelente pagador, quitou em dia.",
		},
	}
}
