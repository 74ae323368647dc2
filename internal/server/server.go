// Package server exposes the ledger over a JSON HTTP API.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"loanledger/internal/ledger"
	"loanledger/pkg/caldate"
	"loanledger/pkg/engine"
	"loanledger/pkg/loan"
)

type handler struct {
	ledger   *ledger.Ledger
	logger   *zap.Logger
	validate *validator.Validate
}

// NewRouter constructs the HTTP router serving the ledger API.
func NewRouter(l *ledger.Ledger, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &handler{
		ledger:   l,
		logger:   logger,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}

	r := mux.NewRouter()
	r.HandleFunc("/api/loans", h.listLoans).Methods("GET")
	r.HandleFunc("/api/loans", h.createLoan).Methods("POST")
	r.HandleFunc("/api/loans/{id}", h.getLoan).Methods("GET")
	r.HandleFunc("/api/loans/{id}/payments", h.recordPayment).Methods("POST")
	r.HandleFunc("/api/loans/{id}/suggested-payment", h.suggestedPayment).Methods("GET")
	r.HandleFunc("/api/borrowers/{name}", h.borrowerProfile).Methods("GET")
	r.HandleFunc("/api/borrowers/{name}/note", h.setBorrowerNote).Methods("PUT")
	r.HandleFunc("/api/upcoming", h.upcomingCharges).Methods("GET")
	r.HandleFunc("/api/totals", h.totals).Methods("GET")
	r.HandleFunc("/api/export", h.exportData).Methods("GET")
	r.HandleFunc("/api/import", h.importData).Methods("POST")
	r.HandleFunc("/api/data", h.clearData).Methods("DELETE")
	r.Use(h.logRequests)
	return r
}

// New wraps the router in an http.Server with sane timeouts.
func New(addr string, l *ledger.Ledger, logger *zap.Logger) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      NewRouter(l, logger),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
}

func (h *handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.logger.Debug("request",
			zap.String("op", "server"),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
		)
		next.ServeHTTP(w, r)
	})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("encoding response",
			zap.String("op", "server.writeJSON"),
			zap.Error(err),
		)
	}
}

func (h *handler) writeError(w http.ResponseWriter, status int, err error) {
	h.writeJSON(w, status, map[string]string{"error": err.Error()})
}

// loanView is a loan together with every derived quantity the UI renders.
type loanView struct {
	loan.Loan
	Installment     float64          `json:"installment"`
	TotalDue        float64          `json:"totalDue"`
	TotalPaid       float64          `json:"totalPaid"`
	Outstanding     float64          `json:"outstanding"`
	PaidCount       int              `json:"paidInstallments"`
	ProgressPercent float64          `json:"progressPercent"`
	FinalDueDate    caldate.Date     `json:"finalDueDate"`
	NextDueDate     *caldate.Date    `json:"nextDueDate,omitempty"`
	Settled         bool             `json:"settled"`
	Delinquency     loan.Delinquency `json:"delinquency"`
}

func (h *handler) view(l loan.Loan, today caldate.Date) loanView {
	v := loanView{
		Loan:            l,
		Installment:     engine.Installment(l),
		TotalDue:        engine.TotalDue(l),
		TotalPaid:       engine.TotalPaid(l),
		Outstanding:     engine.OutstandingBalance(l),
		PaidCount:       engine.PaidInstallments(l),
		ProgressPercent: engine.ProgressPercent(l),
		FinalDueDate:    engine.FinalDueDate(l),
		Settled:         engine.IsSettled(l),
		Delinquency:     engine.DelinquencyDetails(l, today),
	}
	if next, ok := engine.NextDueDate(l); ok {
		v.NextDueDate = &next
	}
	return v
}

func (h *handler) listLoans(w http.ResponseWriter, r *http.Request) {
	today := h.ledger.Today()
	loans := h.ledger.Loans()
	views := make([]loanView, 0, len(loans))
	for _, l := range loans {
		views = append(views, h.view(l, today))
	}
	h.writeJSON(w, http.StatusOK, views)
}

type createLoanRequest struct {
	BorrowerName  string  `json:"borrowerName" validate:"required"`
	Principal     float64 `json:"principal" validate:"required,gt=0"`
	InterestRate  float64 `json:"interestRate" validate:"gte=0"`
	InterestModel string  `json:"interestModel" validate:"omitempty,oneof=simple compound"`
	DateLent      string  `json:"dateLent" validate:"required"`
	TermMonths    int     `json:"paymentTermInMonths" validate:"required,min=1"`
	PaymentDay    int     `json:"paymentDay" validate:"required,min=1,max=30"`
}

func (h *handler) createLoan(w http.ResponseWriter, r *http.Request) {
	var req createLoanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, fmt.Errorf("decoding request: %w", err))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}
	dateLent, err := caldate.Parse(req.DateLent)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	created, err := h.ledger.AddLoan(r.Context(), ledger.NewLoanParams{
		BorrowerName:  req.BorrowerName,
		Principal:     req.Principal,
		InterestRate:  req.InterestRate,
		InterestModel: loan.InterestModel(req.InterestModel),
		DateLent:      dateLent,
		TermMonths:    req.TermMonths,
		PaymentDay:    req.PaymentDay,
	})
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, h.view(created, h.ledger.Today()))
}

func (h *handler) getLoan(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	found, err := h.ledger.LoanByID(id)
	if errors.Is(err, ledger.ErrLoanNotFound) {
		h.writeError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err)
		return
	}
	h.writeJSON(w, http.StatusOK, h.view(found, h.ledger.Today()))
}

type recordPaymentRequest struct {
	Amount float64 `json:"amount" validate:"required,gt=0"`
	Date   string  `json:"date" validate:"required"`
}

func (h *handler) recordPayment(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req recordPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, fmt.Errorf("decoding request: %w", err))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}
	date, err := caldate.Parse(req.Date)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	updated, err := h.ledger.RecordPayment(r.Context(), id, loan.Payment{Amount: req.Amount, Date: date})
	if errors.Is(err, ledger.ErrLoanNotFound) {
		h.writeError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err)
		return
	}
	h.writeJSON(w, http.StatusOK, h.view(updated, h.ledger.Today()))
}

func (h *handler) suggestedPayment(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	amount, err := h.ledger.SuggestedPayment(id)
	if errors.Is(err, ledger.ErrLoanNotFound) {
		h.writeError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]float64{"suggestedAmount": amount})
}

func (h *handler) borrowerProfile(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	h.writeJSON(w, http.StatusOK, h.ledger.BorrowerProfile(name))
}

type noteRequest struct {
	Note string `json:"note"`
}

func (h *handler) setBorrowerNote(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	var req noteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, fmt.Errorf("decoding request: %w", err))
		return
	}
	if err := h.ledger.SetBorrowerNote(r.Context(), name, req.Note); err != nil {
		h.writeError(w, http.StatusInternalServerError, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"name": name, "note": req.Note})
}

func (h *handler) upcomingCharges(w http.ResponseWriter, r *http.Request) {
	charges := h.ledger.UpcomingCharges()
	if charges == nil {
		charges = []ledger.UpcomingCharge{}
	}
	h.writeJSON(w, http.StatusOK, charges)
}

func (h *handler) totals(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.ledger.Totals())
}

func (h *handler) exportData(w http.ResponseWriter, r *http.Request) {
	data, ts, err := h.ledger.Export(r.Context())
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="dados-emprestimos.json"`)
	w.Header().Set("X-Export-Timestamp", fmt.Sprintf("%d", ts.UnixMilli()))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.logger.Error("writing export",
			zap.String("op", "server.exportData"),
			zap.Error(err),
		)
	}
}

func (h *handler) importData(w http.ResponseWriter, r *http.Request) {
	var raw json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		h.writeError(w, http.StatusBadRequest, fmt.Errorf("decoding request: %w", err))
		return
	}
	if err := h.ledger.Import(r.Context(), raw); err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]int{"loans": len(h.ledger.Loans())})
}

func (h *handler) clearData(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("confirm") != "true" {
		h.writeError(w, http.StatusBadRequest,
			errors.New("clearing all data is irreversible; pass ?confirm=true"))
		return
	}
	if err := h.ledger.ClearAll(r.Context()); err != nil {
		h.writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
