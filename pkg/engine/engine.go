// Package engine implements the per-loan financial math: installments,
// totals, outstanding balance, schedule dates, delinquency, and settlement.
//
// Every function is a pure function of the loan record (and "today" where
// relevant). Nothing is cached: each quantity is re-derived from
// (principal, rate, term, model, payments) on every call, so a payment
// addition or a clock tick automatically changes every dependent value.
// Functions are safe for concurrent use; they never mutate their arguments.
package engine

import (
	"math"

	"loanledger/pkg/caldate"
	"loanledger/pkg/constants"
	"loanledger/pkg/loan"
	"loanledger/pkg/mathutil"
)

// Installment calculates the monthly payment amount for a loan.
//
// Zero interest divides the principal evenly across the term. Simple
// interest charges a fixed total of principal * (1 + rate*term). Compound
// interest uses the French (Price table) amortization formula:
//
//	PMT = PV * [i * (1+i)^n] / [(1+i)^n - 1]
//
// A degenerate compound denominator falls back to an even split rather than
// signaling an error.
func Installment(l loan.Loan) float64 {
	rate := l.InterestRate / constants.PercentageMultiplier
	term := float64(l.TermMonths)

	if rate == 0 {
		return l.Principal / term
	}

	if l.InterestModel == loan.Simple {
		total := l.Principal * (1 + rate*term)
		return total / term
	}

	power := math.Pow(1+rate, term)
	denominator := power - 1
	if denominator == 0 {
		return l.Principal / term
	}
	return l.Principal * (rate * power) / denominator
}

// TotalDue calculates the full amount owed over the life of the loan,
// principal plus interest. For zero-interest loans this is the principal.
func TotalDue(l loan.Loan) float64 {
	if l.InterestRate == 0 {
		return l.Principal
	}
	return Installment(l) * float64(l.TermMonths)
}

// TotalPaid sums all recorded payment amounts.
func TotalPaid(l loan.Loan) float64 {
	total := 0.0
	for _, p := range l.Payments {
		total += p.Amount
	}
	return total
}

// PaidInstallments returns how many whole installments have been covered by
// the recorded payments. A settled loan reports the full term directly,
// which avoids floor-division artifacts when payments were irregular or
// slightly off the computed installment. The count never exceeds the term.
func PaidInstallments(l loan.Loan) int {
	if IsSettled(l) {
		return l.TermMonths
	}
	installment := Installment(l)
	if !mathutil.IsPositive(installment) {
		return 0
	}
	paid := int(math.Floor(TotalPaid(l) / installment))
	if paid > l.TermMonths {
		return l.TermMonths
	}
	return paid
}

// OutstandingBalance returns total due minus total paid. The result is
// signed: an overpaid loan yields a negative balance.
func OutstandingBalance(l loan.Loan) float64 {
	return TotalDue(l) - TotalPaid(l)
}

// ProgressPercent returns the share of installments paid, 0-100.
func ProgressPercent(l loan.Loan) float64 {
	if l.TermMonths <= 0 {
		return 0
	}
	return mathutil.CalculatePercentage(float64(PaidInstallments(l)), float64(l.TermMonths))
}

// dueDate returns the due date of the given 1-based installment number:
// the lend date advanced by that many months, on the loan's payment day
// clamped to the target month's length.
func dueDate(l loan.Loan, installment int) caldate.Date {
	return l.DateLent.AddMonthsClamped(installment, l.PaymentDay)
}

// FinalDueDate calculates when the last installment of the loan is due.
func FinalDueDate(l loan.Loan) caldate.Date {
	return dueDate(l, l.TermMonths)
}

// NextDueDate calculates the due date of the next unpaid installment. The
// second return is false when every installment is already covered.
func NextDueDate(l loan.Loan) (caldate.Date, bool) {
	paid := PaidInstallments(l)
	if paid >= l.TermMonths {
		return caldate.Date{}, false
	}
	return dueDate(l, paid+1), true
}

// DelinquencyDetails reports how late the loan is as of today and the amount
// needed to bring it current. A settled or fully scheduled loan owes
// nothing. On or before the next due date only the bare installment is owed.
// Past due, a 2% flat surcharge plus 0.1% per day of delay is added.
func DelinquencyDetails(l loan.Loan, today caldate.Date) loan.Delinquency {
	if IsSettled(l) {
		return loan.Delinquency{}
	}

	nextDue, ok := NextDueDate(l)
	if !ok {
		return loan.Delinquency{}
	}

	installment := Installment(l)
	if !today.After(nextDue) {
		return loan.Delinquency{AmountDue: installment}
	}

	daysLate := nextDue.DaysUntil(today)
	if daysLate < 0 {
		daysLate = 0
	}
	penalty := installment*constants.LatePenaltyFlatRate +
		installment*constants.LatePenaltyDailyRate*float64(daysLate)

	return loan.Delinquency{
		DaysLate:  daysLate,
		Penalty:   penalty,
		AmountDue: installment + penalty,
	}
}

// IsSettled reports whether the outstanding balance is within one cent of
// zero. The tolerance absorbs rounding drift from repeated percentage math.
// Overpayment (a negative balance) still counts as settled.
func IsSettled(l loan.Loan) bool {
	return !mathutil.IsPositive(OutstandingBalance(l))
}

// WasPaidLate reports whether a settled loan was closed after its final due
// date. The comparison uses the latest payment date on record, not the date
// of the payment that crossed the settlement threshold; payments recorded
// out of chronological order keep that distinction.
func WasPaidLate(l loan.Loan) bool {
	if !IsSettled(l) || len(l.Payments) == 0 {
		return false
	}
	last := l.Payments[0].Date
	for _, p := range l.Payments[1:] {
		if p.Date.After(last) {
			last = p.Date
		}
	}
	return last.After(FinalDueDate(l))
}

// IsOverdue reports whether the loan has at least one day of delay as of
// today.
func IsOverdue(l loan.Loan, today caldate.Date) bool {
	return DelinquencyDetails(l, today).DaysLate > 0
}
