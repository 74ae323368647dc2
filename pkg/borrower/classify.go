// Package borrower classifies borrowers into discrete trust tiers based on
// their full loan history. Classification is a stateless reduction over the
// borrower's loans evaluated fresh at call time.
package borrower

import (
	"loanledger/pkg/caldate"
	"loanledger/pkg/engine"
	"loanledger/pkg/loan"
)

// Tier is a borrower trust classification. Level runs from 1 (worst) to 5
// (best); 0 means no data. ColorClass is presentation metadata carried for
// the UI and opaque to the classification itself.
type Tier struct {
	Level      int    `json:"level"`
	Label      string `json:"label"`
	ColorClass string `json:"colorClass"`
}

var (
	tierNoData    = Tier{Level: 0, Label: "N/A", ColorClass: "bg-slate-700 text-slate-300"}
	tierHighRisk  = Tier{Level: 1, Label: "Risco Elevado", ColorClass: "bg-red-100 text-red-700"}
	tierCaution   = Tier{Level: 2, Label: "Atenção", ColorClass: "bg-yellow-100 text-yellow-800"}
	tierNewClient = Tier{Level: 3, Label: "Novo Cliente", ColorClass: "bg-blue-100 text-blue-700"}
	tierGoodPayer = Tier{Level: 4, Label: "Bom Pagador", ColorClass: "bg-green-100 text-green-700"}
	tierExcellent = Tier{Level: 5, Label: "Excelente", ColorClass: "bg-emerald-100 text-emerald-700"}
)

// Classify determines the trust tier for the named borrower from the full
// loan collection. Borrower names match exactly; no normalization.
//
// Rules apply in strict priority order, first match wins:
//
//	>1 loan currently overdue            -> 1 Risco Elevado
//	1 overdue, or any settled loan late  -> 2 Atenção
//	>=2 loans settled                    -> 5 Excelente
//	>=1 loan settled                     -> 4 Bom Pagador
//	otherwise                            -> 3 Novo Cliente
func Classify(name string, allLoans []loan.Loan, today caldate.Date) Tier {
	var loans []loan.Loan
	for _, l := range allLoans {
		if l.BorrowerName == name {
			loans = append(loans, l)
		}
	}
	if len(loans) == 0 {
		return tierNoData
	}

	overdueNow := 0
	settled := 0
	hadLatePayment := false
	for _, l := range loans {
		if engine.IsOverdue(l, today) {
			overdueNow++
		}
		if engine.IsSettled(l) {
			settled++
			if engine.WasPaidLate(l) {
				hadLatePayment = true
			}
		}
	}

	switch {
	case overdueNow > 1:
		return tierHighRisk
	case overdueNow == 1 || hadLatePayment:
		return tierCaution
	case settled >= 2:
		return tierExcellent
	case settled >= 1:
		return tierGoodPayer
	default:
		return tierNewClient
	}
}
