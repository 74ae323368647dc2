// Package sweep runs the scheduled delinquency check: a cron job that scans
// the ledger, logs every overdue loan with its accrued penalty, and flags
// installments coming due soon. It only reads; nothing in the ledger is
// mutated.
package sweep

import (
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"loanledger/internal/ledger"
	"loanledger/pkg/engine"
)

// Sweeper owns the cron scheduler for the periodic scan.
type Sweeper struct {
	ledger      *ledger.Ledger
	logger      *zap.Logger
	horizonDays int
	cron        *cron.Cron
}

// New builds a sweeper over the given ledger. horizonDays controls how far
// ahead upcoming installments are reported.
func New(l *ledger.Ledger, logger *zap.Logger, horizonDays int) *Sweeper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sweeper{
		ledger:      l,
		logger:      logger,
		horizonDays: horizonDays,
		cron:        cron.New(),
	}
}

// Start registers the sweep under the given cron schedule (e.g. "@daily")
// and starts the scheduler. An immediate first run happens synchronously so
// a freshly started service reports state right away.
func (s *Sweeper) Start(schedule string) error {
	if _, err := s.cron.AddFunc(schedule, s.Run); err != nil {
		return fmt.Errorf("registering sweep schedule %q: %w", schedule, err)
	}
	s.Run()
	s.cron.Start()
	return nil
}

// Stop halts the scheduler, waiting for a running sweep to finish.
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
}

// Run executes one sweep pass.
func (s *Sweeper) Run() {
	today := s.ledger.Today()

	overdue := s.ledger.OverdueLoans()
	for _, l := range overdue {
		detail := engine.DelinquencyDetails(l, today)
		s.logger.Warn("loan overdue",
			zap.String("op", "sweep.Run"),
			zap.String("id", l.ID),
			zap.String("borrower", l.BorrowerName),
			zap.Int("days_late", detail.DaysLate),
			zap.Float64("penalty", detail.Penalty),
			zap.Float64("amount_due", detail.AmountDue),
		)
	}

	dueSoon := 0
	for _, charge := range s.ledger.UpcomingCharges() {
		if charge.DaysRemaining > s.horizonDays {
			continue
		}
		dueSoon++
		s.logger.Info("installment due soon",
			zap.String("op", "sweep.Run"),
			zap.String("id", charge.LoanID),
			zap.String("borrower", charge.BorrowerName),
			zap.String("due_date", charge.DueDate.String()),
			zap.Float64("amount", charge.Amount),
			zap.Int("days_remaining", charge.DaysRemaining),
		)
	}

	s.logger.Info("delinquency sweep complete",
		zap.String("op", "sweep.Run"),
		zap.Int("overdue", len(overdue)),
		zap.Int("due_soon", dueSoon),
	)
}
