// Package ledger orchestrates the loan collection: it owns the only shared
// mutable state in the system, serializes access to it, and persists a full
// snapshot after every mutation. All financial math is delegated to the
// pure pkg/engine and pkg/borrower packages.
package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"loanledger/internal/store"
	"loanledger/pkg/borrower"
	"loanledger/pkg/caldate"
	"loanledger/pkg/constants"
	"loanledger/pkg/engine"
	"loanledger/pkg/loan"
)

// ErrLoanNotFound is returned when no loan matches the requested id.
var ErrLoanNotFound = errors.New("ledger: loan not found")

// Clock supplies "today" as a calendar date. Injected so delinquency and
// classification stay deterministic under test.
type Clock func() caldate.Date

// Ledger holds the loan collection and borrower notes.
type Ledger struct {
	mu     sync.RWMutex
	store  store.Store
	logger *zap.Logger
	now    Clock

	loans []loan.Loan
	notes map[string]string
}

// New loads the persisted snapshot into a Ledger. On first run (no snapshot
// yet) it seeds the demo data and persists it.
func New(ctx context.Context, st store.Store, logger *zap.Logger, now Clock) (*Ledger, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if now == nil {
		now = caldate.Today
	}

	l := &Ledger{store: st, logger: logger, now: now, notes: make(map[string]string)}

	snap, err := st.Load(ctx)
	if errors.Is(err, store.ErrNotFound) {
		snap = store.DemoSnapshot(now())
		logger.Info("no saved data found, seeding demo loans",
			zap.String("op", "ledger.New"),
			zap.Int("loans", len(snap.Loans)),
		)
		if err := st.Save(ctx, snap); err != nil {
			return nil, fmt.Errorf("persisting demo snapshot: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("loading snapshot: %w", err)
	}

	l.loans = snap.Loans
	if snap.BorrowerNotes != nil {
		l.notes = snap.BorrowerNotes
	}
	l.sortLoansLocked()
	return l, nil
}

// snapshotLocked assembles the current state for persistence. Caller holds
// at least a read lock.
func (l *Ledger) snapshotLocked() *loan.Snapshot {
	loans := make([]loan.Loan, len(l.loans))
	copy(loans, l.loans)
	notes := make(map[string]string, len(l.notes))
	for k, v := range l.notes {
		notes[k] = v
	}
	return &loan.Snapshot{Loans: loans, BorrowerNotes: notes}
}

// persistLocked saves the current state. Caller holds the write lock.
func (l *Ledger) persistLocked(ctx context.Context) error {
	if err := l.store.Save(ctx, l.snapshotLocked()); err != nil {
		return fmt.Errorf("persisting snapshot: %w", err)
	}
	return nil
}

// sortLoansLocked keeps the collection ordered by lend date ascending.
func (l *Ledger) sortLoansLocked() {
	sort.SliceStable(l.loans, func(i, j int) bool {
		return l.loans[i].DateLent.Before(l.loans[j].DateLent)
	})
}

// Today returns the current date from the ledger's injected clock.
func (l *Ledger) Today() caldate.Date {
	return l.now()
}

// NewLoanParams carries the identity fields of a loan to be created.
type NewLoanParams struct {
	BorrowerName  string
	Principal     float64
	InterestRate  float64
	InterestModel loan.InterestModel
	DateLent      caldate.Date
	TermMonths    int
	PaymentDay    int
}

// AddLoan creates a loan with a fresh id and an empty payment history,
// inserts it keeping the collection sorted, and persists. The payment day
// is bounded at 30 so every scheduled month has the day (February still
// clamps).
func (l *Ledger) AddLoan(ctx context.Context, params NewLoanParams) (loan.Loan, error) {
	if params.PaymentDay < constants.MinPaymentDay || params.PaymentDay > constants.MaxPaymentDay {
		return loan.Loan{}, fmt.Errorf("payment day %d outside the valid range %d-%d",
			params.PaymentDay, constants.MinPaymentDay, constants.MaxPaymentDay)
	}

	model := params.InterestModel
	if !model.Valid() {
		model = loan.Compound
	}

	newLoan := loan.Loan{
		ID:            uuid.NewString(),
		BorrowerName:  params.BorrowerName,
		Principal:     params.Principal,
		InterestRate:  params.InterestRate,
		InterestModel: model,
		DateLent:      params.DateLent,
		TermMonths:    params.TermMonths,
		PaymentDay:    params.PaymentDay,
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.loans = append(l.loans, newLoan)
	l.sortLoansLocked()
	if err := l.persistLocked(ctx); err != nil {
		return loan.Loan{}, err
	}

	l.logger.Info("loan created",
		zap.String("op", "ledger.AddLoan"),
		zap.String("id", newLoan.ID),
		zap.String("borrower", newLoan.BorrowerName),
		zap.Float64("principal", newLoan.Principal),
	)
	return newLoan, nil
}

// RecordPayment appends a payment to the identified loan and persists.
// Payments only accumulate; principal, rate, and term never change.
func (l *Ledger) RecordPayment(ctx context.Context, id string, p loan.Payment) (loan.Loan, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	idx := -1
	for i := range l.loans {
		if l.loans[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return loan.Loan{}, ErrLoanNotFound
	}

	l.loans[idx].Payments = append(l.loans[idx].Payments, p)
	if err := l.persistLocked(ctx); err != nil {
		return loan.Loan{}, err
	}

	updated := l.loans[idx]
	l.logger.Info("payment recorded",
		zap.String("op", "ledger.RecordPayment"),
		zap.String("id", id),
		zap.Float64("amount", p.Amount),
		zap.Bool("settled", engine.IsSettled(updated)),
	)
	return updated, nil
}

// Loans returns a copy of the full loan collection.
func (l *Ledger) Loans() []loan.Loan {
	l.mu.RLock()
	defer l.mu.RUnlock()
	loans := make([]loan.Loan, len(l.loans))
	copy(loans, l.loans)
	return loans
}

// LoanByID returns the loan with the given id.
func (l *Ledger) LoanByID(id string) (loan.Loan, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, candidate := range l.loans {
		if candidate.ID == id {
			return candidate, nil
		}
	}
	return loan.Loan{}, ErrLoanNotFound
}

// SetBorrowerNote stores the free-form note for a borrower and persists.
func (l *Ledger) SetBorrowerNote(ctx context.Context, name, note string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.notes[name] = note
	return l.persistLocked(ctx)
}

// BorrowerNote returns the stored note for a borrower, empty if none.
func (l *Ledger) BorrowerNote(name string) string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.notes[name]
}

// Totals aggregates the whole book.
type Totals struct {
	TotalLent        float64 `json:"totalLent"`
	TotalPaid        float64 `json:"totalPaid"`
	TotalOutstanding float64 `json:"totalOutstanding"`
}

// Totals sums principal, paid, and outstanding balance across all loans.
func (l *Ledger) Totals() Totals {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var t Totals
	for _, candidate := range l.loans {
		t.TotalLent += candidate.Principal
		t.TotalPaid += engine.TotalPaid(candidate)
		t.TotalOutstanding += engine.OutstandingBalance(candidate)
	}
	return t
}

// OverdueLoans returns the loans with at least one day of delay as of the
// ledger clock.
func (l *Ledger) OverdueLoans() []loan.Loan {
	today := l.now()
	l.mu.RLock()
	defer l.mu.RUnlock()

	var overdue []loan.Loan
	for _, candidate := range l.loans {
		if engine.IsOverdue(candidate, today) {
			overdue = append(overdue, candidate)
		}
	}
	return overdue
}

// UpcomingCharge is a pending installment for the alert view.
type UpcomingCharge struct {
	LoanID        string       `json:"loanId"`
	BorrowerName  string       `json:"borrowerName"`
	DueDate       caldate.Date `json:"dueDate"`
	Amount        float64      `json:"amount"`
	PaymentNumber int          `json:"paymentNumber"`
	TotalPayments int          `json:"totalPayments"`
	DaysRemaining int          `json:"daysRemaining"`
}

// UpcomingCharges lists the next installment of every active loan whose due
// date is today or later, ordered soonest first.
func (l *Ledger) UpcomingCharges() []UpcomingCharge {
	today := l.now()
	l.mu.RLock()
	defer l.mu.RUnlock()

	var charges []UpcomingCharge
	for _, candidate := range l.loans {
		if engine.IsSettled(candidate) {
			continue
		}
		nextDue, ok := engine.NextDueDate(candidate)
		if !ok || nextDue.Before(today) {
			continue
		}
		charges = append(charges, UpcomingCharge{
			LoanID:        candidate.ID,
			BorrowerName:  candidate.BorrowerName,
			DueDate:       nextDue,
			Amount:        engine.Installment(candidate),
			PaymentNumber: engine.PaidInstallments(candidate) + 1,
			TotalPayments: candidate.TermMonths,
			DaysRemaining: today.DaysUntil(nextDue),
		})
	}

	sort.Slice(charges, func(i, j int) bool {
		return charges[i].DueDate.Before(charges[j].DueDate)
	})
	return charges
}

// Profile is the full borrower view: history, classification, and totals.
type Profile struct {
	BorrowerName string        `json:"borrowerName"`
	Loans        []loan.Loan   `json:"loans"`
	Tier         borrower.Tier `json:"tier"`
	Note         string        `json:"note"`
	TotalLent    float64       `json:"totalLent"`
	TotalPaid    float64       `json:"totalPaid"`
	Outstanding  float64       `json:"outstanding"`
	ActiveLoans  int           `json:"activeLoans"`
	SettledLoans int           `json:"settledLoans"`
}

// BorrowerProfile assembles the profile for a borrower: their loans newest
// first, trust tier, note, and aggregate totals.
func (l *Ledger) BorrowerProfile(name string) Profile {
	today := l.now()
	l.mu.RLock()
	defer l.mu.RUnlock()

	profile := Profile{
		BorrowerName: name,
		Tier:         borrower.Classify(name, l.loans, today),
		Note:         l.notes[name],
	}
	for _, candidate := range l.loans {
		if candidate.BorrowerName != name {
			continue
		}
		profile.Loans = append(profile.Loans, candidate)
		profile.TotalLent += candidate.Principal
		profile.TotalPaid += engine.TotalPaid(candidate)
		profile.Outstanding += engine.OutstandingBalance(candidate)
		if engine.IsSettled(candidate) {
			profile.SettledLoans++
		} else {
			profile.ActiveLoans++
		}
	}

	sort.SliceStable(profile.Loans, func(i, j int) bool {
		return profile.Loans[j].DateLent.Before(profile.Loans[i].DateLent)
	})
	return profile
}

// SuggestedPayment returns the amount that brings the identified loan
// current as of today: the installment plus any accrued penalty.
func (l *Ledger) SuggestedPayment(id string) (float64, error) {
	candidate, err := l.LoanByID(id)
	if err != nil {
		return 0, err
	}
	return engine.DelinquencyDetails(candidate, l.now()).AmountDue, nil
}

// Delinquency reports the delinquency detail of the identified loan as of
// today.
func (l *Ledger) Delinquency(id string) (loan.Delinquency, error) {
	candidate, err := l.LoanByID(id)
	if err != nil {
		return loan.Delinquency{}, err
	}
	return engine.DelinquencyDetails(candidate, l.now()), nil
}

// Export serializes the snapshot for backup and records the export time.
func (l *Ledger) Export(ctx context.Context) ([]byte, time.Time, error) {
	l.mu.RLock()
	snap := l.snapshotLocked()
	l.mu.RUnlock()

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("encoding export: %w", err)
	}

	ts := time.Now()
	if err := l.store.SaveExportTime(ctx, ts); err != nil {
		return nil, time.Time{}, err
	}
	l.logger.Info("data exported",
		zap.String("op", "ledger.Export"),
		zap.Int("loans", len(snap.Loans)),
	)
	return data, ts, nil
}

// LastExportTime returns when a backup was last exported; ok is false when
// never.
func (l *Ledger) LastExportTime(ctx context.Context) (time.Time, bool, error) {
	return l.store.LoadExportTime(ctx)
}

// Import replaces all current data with the given backup document. The
// document must have the snapshot shape; loans missing an interest model
// are migrated to compound.
func (l *Ledger) Import(ctx context.Context, data []byte) error {
	var snap loan.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("decoding import: %w", err)
	}
	if snap.Loans == nil {
		return errors.New("invalid import document: missing loans")
	}
	store.Migrate(&snap)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.loans = snap.Loans
	l.notes = snap.BorrowerNotes
	l.sortLoansLocked()
	if err := l.persistLocked(ctx); err != nil {
		return err
	}
	if err := l.store.SaveExportTime(ctx, time.Now()); err != nil {
		return err
	}

	l.logger.Info("data imported",
		zap.String("op", "ledger.Import"),
		zap.Int("loans", len(l.loans)),
	)
	return nil
}

// ClearAll wipes every loan and note from memory and storage. Irreversible.
func (l *Ledger) ClearAll(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.loans = nil
	l.notes = make(map[string]string)
	if err := l.store.Clear(ctx); err != nil {
		return err
	}
	l.logger.Warn("all data cleared", zap.String("op", "ledger.ClearAll"))
	return nil
}
