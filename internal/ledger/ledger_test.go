package ledger

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"loanledger/internal/store"
	"loanledger/pkg/caldate"
	"loanledger/pkg/loan"
)

var fixedToday = caldate.MustParse("2025-06-01")

func fixedClock() caldate.Date { return fixedToday }

func newTestLedger(t *testing.T) (*Ledger, *store.MemoryStore) {
	t.Helper()
	st := store.NewMemoryStore()
	// Pre-save an empty snapshot so New does not seed demo data.
	require.NoError(t, st.Save(context.Background(), &loan.Snapshot{Loans: []loan.Loan{}}))
	st.SaveCount = 0

	l, err := New(context.Background(), st, zap.NewNop(), fixedClock)
	require.NoError(t, err)
	return l, st
}

func testParams(name, dateLent string) NewLoanParams {
	return NewLoanParams{
		BorrowerName:  name,
		Principal:     1000,
		InterestRate:  5,
		InterestModel: loan.Simple,
		DateLent:      caldate.MustParse(dateLent),
		TermMonths:    4,
		PaymentDay:    10,
	}
}

func TestNewSeedsDemoDataOnFirstRun(t *testing.T) {
	st := store.NewMemoryStore()
	l, err := New(context.Background(), st, zap.NewNop(), fixedClock)
	require.NoError(t, err)

	loans := l.Loans()
	require.Len(t, loans, 3)
	assert.Equal(t, 1, st.SaveCount, "demo seed should be persisted")

	// One settled, one partial, one fresh.
	settled := 0
	for _, candidate := range loans {
		if len(candidate.Payments) == 4 {
			settled++
		}
	}
	assert.Equal(t, 1, settled)
}

func TestAddLoanKeepsCollectionSorted(t *testing.T) {
	l, st := newTestLedger(t)
	ctx := context.Background()

	_, err := l.AddLoan(ctx, testParams("B", "2025-03-01"))
	require.NoError(t, err)
	_, err = l.AddLoan(ctx, testParams("A", "2025-01-01"))
	require.NoError(t, err)
	_, err = l.AddLoan(ctx, testParams("C", "2025-02-01"))
	require.NoError(t, err)

	loans := l.Loans()
	require.Len(t, loans, 3)
	assert.Equal(t, "A", loans[0].BorrowerName)
	assert.Equal(t, "C", loans[1].BorrowerName)
	assert.Equal(t, "B", loans[2].BorrowerName)

	assert.NotEmpty(t, loans[0].ID)
	assert.Empty(t, loans[0].Payments)
	assert.Equal(t, 3, st.SaveCount, "every mutation persists")
}

func TestAddLoanDefaultsInterestModel(t *testing.T) {
	l, _ := newTestLedger(t)
	params := testParams("A", "2025-01-01")
	params.InterestModel = ""

	created, err := l.AddLoan(context.Background(), params)
	require.NoError(t, err)
	assert.Equal(t, loan.Compound, created.InterestModel)
}

func TestAddLoanRejectsPaymentDayOutOfRange(t *testing.T) {
	l, st := newTestLedger(t)
	ctx := context.Background()

	for _, day := range []int{0, -1, 31} {
		params := testParams("A", "2025-01-01")
		params.PaymentDay = day
		_, err := l.AddLoan(ctx, params)
		assert.Error(t, err, "payment day %d accepted", day)
	}
	assert.Empty(t, l.Loans())
	assert.Equal(t, 0, st.SaveCount, "rejected loans must not persist")

	params := testParams("A", "2025-01-01")
	params.PaymentDay = 30
	_, err := l.AddLoan(ctx, params)
	assert.NoError(t, err)
}

func TestRecordPayment(t *testing.T) {
	l, st := newTestLedger(t)
	ctx := context.Background()

	created, err := l.AddLoan(ctx, testParams("A", "2025-01-10"))
	require.NoError(t, err)
	savesBefore := st.SaveCount

	updated, err := l.RecordPayment(ctx, created.ID, loan.Payment{
		Amount: 300,
		Date:   caldate.MustParse("2025-02-10"),
	})
	require.NoError(t, err)
	require.Len(t, updated.Payments, 1)
	assert.Equal(t, 300.0, updated.Payments[0].Amount)
	assert.Equal(t, savesBefore+1, st.SaveCount)

	// Identity fields untouched.
	assert.Equal(t, created.Principal, updated.Principal)
	assert.Equal(t, created.TermMonths, updated.TermMonths)

	_, err = l.RecordPayment(ctx, "missing", loan.Payment{Amount: 1, Date: fixedToday})
	assert.ErrorIs(t, err, ErrLoanNotFound)
}

func TestTotals(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	created, err := l.AddLoan(ctx, testParams("A", "2025-01-10")) // total due 1200
	require.NoError(t, err)
	_, err = l.RecordPayment(ctx, created.ID, loan.Payment{Amount: 300, Date: caldate.MustParse("2025-02-10")})
	require.NoError(t, err)

	totals := l.Totals()
	assert.InDelta(t, 1000, totals.TotalLent, 0.001)
	assert.InDelta(t, 300, totals.TotalPaid, 0.001)
	assert.InDelta(t, 900, totals.TotalOutstanding, 0.001)
}

func TestUpcomingCharges(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	// Next due 2025-06-10, within the window.
	soon, err := l.AddLoan(ctx, testParams("Soon", "2025-05-10"))
	require.NoError(t, err)

	// Next due 2025-07-20, later.
	later := testParams("Later", "2025-06-20")
	later.PaymentDay = 20
	_, err = l.AddLoan(ctx, later)
	require.NoError(t, err)

	// Overdue loan (next due 2025-02-10 < today) is excluded from upcoming.
	_, err = l.AddLoan(ctx, testParams("Overdue", "2025-01-10"))
	require.NoError(t, err)

	charges := l.UpcomingCharges()
	require.Len(t, charges, 2)
	assert.Equal(t, "Soon", charges[0].BorrowerName)
	assert.Equal(t, soon.ID, charges[0].LoanID)
	assert.Equal(t, "2025-06-10", charges[0].DueDate.String())
	assert.Equal(t, 9, charges[0].DaysRemaining)
	assert.Equal(t, 1, charges[0].PaymentNumber)
	assert.Equal(t, "Later", charges[1].BorrowerName)
}

func TestBorrowerProfile(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	first, err := l.AddLoan(ctx, testParams("Ana", "2025-01-10"))
	require.NoError(t, err)
	for month := 2; month <= 5; month++ {
		_, err = l.RecordPayment(ctx, first.ID, loan.Payment{
			Amount: 300,
			Date:   caldate.MustParse("2025-01-10").AddMonthsClamped(month-1, 10),
		})
		require.NoError(t, err)
	}
	_, err = l.AddLoan(ctx, testParams("Ana", "2025-05-20"))
	require.NoError(t, err)
	require.NoError(t, l.SetBorrowerNote(ctx, "Ana", "paga em dia"))

	profile := l.BorrowerProfile("Ana")
	assert.Equal(t, "Ana", profile.BorrowerName)
	require.Len(t, profile.Loans, 2)
	// Newest first.
	assert.Equal(t, "2025-05-20", profile.Loans[0].DateLent.String())
	assert.Equal(t, 1, profile.SettledLoans)
	assert.Equal(t, 1, profile.ActiveLoans)
	assert.Equal(t, 4, profile.Tier.Level, "one clean settled loan is Bom Pagador")
	assert.Equal(t, "paga em dia", profile.Note)
	assert.InDelta(t, 2000, profile.TotalLent, 0.001)
}

func TestSuggestedPaymentIncludesPenalty(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	// First installment of 300 due 2025-02-10; today 2025-06-01 = 111 days late.
	created, err := l.AddLoan(ctx, testParams("Ana", "2025-01-10"))
	require.NoError(t, err)

	suggested, err := l.SuggestedPayment(created.ID)
	require.NoError(t, err)
	expected := 300 + 300*0.02 + 300*0.001*111
	assert.InDelta(t, expected, suggested, 0.001)

	detail, err := l.Delinquency(created.ID)
	require.NoError(t, err)
	assert.Equal(t, 111, detail.DaysLate)
}

func TestExportImportRoundTrip(t *testing.T) {
	l, st := newTestLedger(t)
	ctx := context.Background()

	_, err := l.AddLoan(ctx, testParams("Ana", "2025-01-10"))
	require.NoError(t, err)
	require.NoError(t, l.SetBorrowerNote(ctx, "Ana", "nota"))

	data, ts, err := l.Export(ctx)
	require.NoError(t, err)
	assert.False(t, ts.IsZero())

	stored, ok, err := st.LoadExportTime(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, ts.UnixMilli(), stored.UnixMilli())

	// Import into a fresh ledger.
	other, _ := newTestLedger(t)
	require.NoError(t, other.Import(ctx, data))
	require.Len(t, other.Loans(), 1)
	assert.Equal(t, "nota", other.BorrowerNote("Ana"))

	// Garbage and shapeless documents are rejected.
	assert.Error(t, other.Import(ctx, []byte("not json")))
	assert.Error(t, other.Import(ctx, []byte(`{"borrowerNotes":{}}`)))
}

func TestImportMigratesLegacyLoans(t *testing.T) {
	l, _ := newTestLedger(t)

	legacy := map[string]any{
		"loans": []map[string]any{{
			"id":                  "legacy-1",
			"borrowerName":        "Ana",
			"principal":           1000,
			"interestRate":        5,
			"dateLent":            "2025-01-10",
			"paymentTermInMonths": 4,
			"paymentDay":          10,
			"payments":            []any{},
		}},
		"borrowerNotes": map[string]string{},
	}
	data, err := json.Marshal(legacy)
	require.NoError(t, err)

	require.NoError(t, l.Import(context.Background(), data))
	loans := l.Loans()
	require.Len(t, loans, 1)
	assert.Equal(t, loan.Compound, loans[0].InterestModel, "missing interest model defaults to compound")
}

func TestClearAll(t *testing.T) {
	l, st := newTestLedger(t)
	ctx := context.Background()

	_, err := l.AddLoan(ctx, testParams("Ana", "2025-01-10"))
	require.NoError(t, err)
	require.NoError(t, l.SetBorrowerNote(ctx, "Ana", "nota"))

	require.NoError(t, l.ClearAll(ctx))
	assert.Empty(t, l.Loans())
	assert.Empty(t, l.BorrowerNote("Ana"))

	_, err = st.Load(ctx)
	assert.ErrorIs(t, err, store.ErrNotFound)
}
