package sweep

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"loanledger/internal/ledger"
	"loanledger/internal/store"
	"loanledger/pkg/caldate"
	"loanledger/pkg/loan"
)

func TestRunLogsOverdueAndDueSoon(t *testing.T) {
	st := store.NewMemoryStore()
	require.NoError(t, st.Save(context.Background(), &loan.Snapshot{Loans: []loan.Loan{}}))

	l, err := ledger.New(context.Background(), st, zap.NewNop(), func() caldate.Date {
		return caldate.MustParse("2025-06-01")
	})
	require.NoError(t, err)

	ctx := context.Background()
	// Overdue: first installment was due 2025-02-10.
	_, err = l.AddLoan(ctx, ledger.NewLoanParams{
		BorrowerName: "Atrasada", Principal: 1000, InterestRate: 5,
		InterestModel: loan.Simple, DateLent: caldate.MustParse("2025-01-10"),
		TermMonths: 4, PaymentDay: 10,
	})
	require.NoError(t, err)
	// Due soon: first installment due 2025-06-05.
	_, err = l.AddLoan(ctx, ledger.NewLoanParams{
		BorrowerName: "Em Dia", Principal: 500, InterestRate: 0,
		InterestModel: loan.Simple, DateLent: caldate.MustParse("2025-05-05"),
		TermMonths: 5, PaymentDay: 5,
	})
	require.NoError(t, err)

	core, logs := observer.New(zap.InfoLevel)
	s := New(l, zap.New(core), 7)
	s.Run()

	require.Len(t, logs.FilterMessage("loan overdue").All(), 1)
	require.Len(t, logs.FilterMessage("installment due soon").All(), 1)

	summary := logs.FilterMessage("delinquency sweep complete").All()
	require.Len(t, summary, 1)
	fields := summary[0].ContextMap()
	require.EqualValues(t, 1, fields["overdue"])
	require.EqualValues(t, 1, fields["due_soon"])
}
