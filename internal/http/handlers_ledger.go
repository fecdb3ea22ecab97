package http

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"honoraires/internal/core"
	"honoraires/internal/log"
)

func parseClientParam(v string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: client_id %q", core.ErrMissingClient, v)
	}
	return id, nil
}

// Monthly charges

type chargeRequest struct {
	Year    int        `json:"year"`
	Month   monthValue `json:"month"`
	Charge  core.Money `json:"montant_charge"`
	Advance core.Money `json:"avance"`
}

type advanceRequest struct {
	Year   int        `json:"year"`
	Month  monthValue `json:"month"`
	Amount core.Money `json:"amount"`
}

func (s *Server) handleListCharges(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, log.OpList, err, nil)
		return
	}
	year, err := queryYear(r.URL.Query())
	if err != nil {
		writeError(w, r, log.OpList, err, nil)
		return
	}
	charges, err := s.svc.ListMonthlyCharges(r.Context(), id, year)
	if err != nil {
		writeError(w, r, log.OpList, err, log.NewFields().WithClient(id))
		return
	}
	if charges == nil {
		charges = []core.MonthlyCharge{}
	}
	writeJSON(w, http.StatusOK, charges)
}

func (s *Server) handleRegisterCharge(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, log.OpCreate, err, nil)
		return
	}
	var req chargeRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, r, log.OpCreate, err, nil)
		return
	}
	mc, err := s.svc.RegisterMonthlyCharge(r.Context(), core.MonthlyCharge{
		ClientID: id,
		Year:     req.Year,
		Month:    int(req.Month),
		Charge:   req.Charge,
		Advance:  req.Advance,
	})
	if err != nil {
		writeError(w, r, log.OpCreate, err, log.NewFields().WithClient(id).WithPeriod(req.Year, int(req.Month)))
		return
	}
	writeJSON(w, http.StatusCreated, mc)
}

func (s *Server) handleAddAdvance(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, log.OpUpdate, err, nil)
		return
	}
	var req advanceRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, r, log.OpUpdate, err, nil)
		return
	}
	mc, err := s.svc.AddAdvance(r.Context(), id, req.Year, int(req.Month), req.Amount)
	if err != nil {
		writeError(w, r, log.OpUpdate, err, log.NewFields().WithClient(id).WithPeriod(req.Year, int(req.Month)))
		return
	}
	writeJSON(w, http.StatusOK, mc)
}

func (s *Server) handleRemoveMonth(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, log.OpDelete, err, nil)
		return
	}
	year, err := strconv.Atoi(r.PathValue("year"))
	if err != nil {
		writeError(w, r, log.OpDelete, fmt.Errorf("%w: %q", core.ErrInvalidYear, r.PathValue("year")), nil)
		return
	}
	month, err := core.ParseMonth(r.PathValue("month"))
	if err != nil {
		writeError(w, r, log.OpDelete, err, nil)
		return
	}
	if err := s.svc.RemoveMonth(r.Context(), id, year, month); err != nil {
		writeError(w, r, log.OpDelete, err, log.NewFields().WithClient(id).WithPeriod(year, month))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Fees

type feeRequest struct {
	ClientID int64      `json:"client_id"`
	Date     core.Date  `json:"date"`
	Label    string     `json:"label"`
	Charged  core.Money `json:"charged"`
	Advanced core.Money `json:"advanced"`
}

func (f feeRequest) entry() core.FeeEntry {
	return core.FeeEntry{
		ClientID: f.ClientID,
		Date:     f.Date,
		Label:    strings.TrimSpace(f.Label),
		Charged:  f.Charged,
		Advanced: f.Advanced,
	}
}

func (s *Server) handleRecordFee(w http.ResponseWriter, r *http.Request) {
	var req feeRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, r, log.OpCreate, err, nil)
		return
	}
	fee, err := s.svc.RecordFee(r.Context(), req.entry())
	if err != nil {
		writeError(w, r, log.OpCreate, err, log.NewFields().WithClient(req.ClientID))
		return
	}
	writeJSON(w, http.StatusCreated, fee)
}

func (s *Server) handleAmendFee(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, log.OpUpdate, err, nil)
		return
	}
	var req feeRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, r, log.OpUpdate, err, nil)
		return
	}
	f := req.entry()
	f.ID = id
	fee, err := s.svc.AmendFee(r.Context(), f)
	if err != nil {
		writeError(w, r, log.OpUpdate, err, log.NewFields().WithFee(id))
		return
	}
	writeJSON(w, http.StatusOK, fee)
}

func (s *Server) handlePrintReceipt(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, log.OpCreate, err, nil)
		return
	}
	var req struct {
		Amount *core.Money `json:"amount"`
	}
	if err := decodeJSON(w, r, &req, true); err != nil {
		writeError(w, r, log.OpCreate, err, nil)
		return
	}
	rc, err := s.svc.PrintReceipt(r.Context(), id, req.Amount)
	if err != nil {
		writeError(w, r, log.OpCreate, err, log.NewFields().WithFee(id))
		return
	}
	writeJSON(w, http.StatusCreated, rc)
}

func (s *Server) handleListReceipts(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, log.OpList, err, nil)
		return
	}
	receipts, err := s.svc.ListReceipts(r.Context(), id)
	if err != nil {
		writeError(w, r, log.OpList, err, log.NewFields().WithFee(id))
		return
	}
	if receipts == nil {
		receipts = []core.Receipt{}
	}
	writeJSON(w, http.StatusOK, receipts)
}

// Expenses

type expenseRequest struct {
	Date        core.Date   `json:"date"`
	Label       string      `json:"label"`
	Amount      core.Money  `json:"amount"`
	Beneficiary string      `json:"beneficiary"`
	ClientID    int64       `json:"client_id"`
	Bucket      core.Bucket `json:"bucket"`
}

func (s *Server) handleRecordExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, r, log.OpCreate, err, nil)
		return
	}
	e := core.Expense{
		Date:        req.Date,
		Label:       strings.TrimSpace(req.Label),
		Amount:      req.Amount,
		Beneficiary: strings.TrimSpace(req.Beneficiary),
		ClientID:    req.ClientID,
	}

	var (
		saved core.Expense
		err   error
	)
	switch req.Bucket {
	case core.OfficeCharge:
		saved, err = s.svc.RecordOfficeExpense(r.Context(), e)
	case core.ClientCharge, "":
		saved, err = s.svc.RecordClientExpense(r.Context(), e)
	default:
		err = fmt.Errorf("%w: %q", core.ErrInvalidBucket, req.Bucket)
	}
	if err != nil {
		writeError(w, r, log.OpCreate, err, log.NewFields().WithClient(req.ClientID))
		return
	}
	s.logger.InfoContext(r.Context(), "Expense recorded",
		log.NewFields().WithExpense(saved.ID, string(saved.Bucket), saved.Amount.Millimes).ToSlice()...)
	writeJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, log.OpRead, err, nil)
		return
	}
	e, err := s.svc.GetExpense(r.Context(), id)
	if err != nil {
		writeError(w, r, log.OpRead, err, log.NewFields().WithExpense(id, "", 0))
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) handleAssignOffice(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, log.OpTransition, err, nil)
		return
	}
	var req struct {
		Beneficiary string `json:"beneficiary"`
	}
	if err := decodeJSON(w, r, &req, true); err != nil {
		writeError(w, r, log.OpTransition, err, nil)
		return
	}
	office, err := s.svc.AssignToOffice(r.Context(), id, strings.TrimSpace(req.Beneficiary))
	if err != nil {
		writeError(w, r, log.OpTransition, err, log.NewFields().WithExpense(id, string(core.ClientCharge), 0))
		return
	}
	s.logger.InfoContext(r.Context(), "Expense assigned to office",
		log.FieldExpenseID, id,
		log.FieldTransition, "assign_to_office",
		"office_expense_id", office.ID)
	writeJSON(w, http.StatusOK, office)
}

func (s *Server) handleReturnClient(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, log.OpTransition, err, nil)
		return
	}
	if err := s.svc.ReturnToClientCharge(r.Context(), id); err != nil {
		writeError(w, r, log.OpTransition, err, log.NewFields().WithExpense(id, string(core.OfficeCharge), 0))
		return
	}
	s.logger.InfoContext(r.Context(), "Expense returned to client",
		log.FieldExpenseID, id,
		log.FieldTransition, "return_to_client_charge")
	w.WriteHeader(http.StatusNoContent)
}

// handleDeleteExpense requires ?confirm=true; deletion cannot be undone.
func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, log.OpDelete, err, nil)
		return
	}
	if !queryBool(r.URL.Query(), "confirm") {
		writeError(w, r, log.OpDelete, fmt.Errorf("%w: deleting expense %d needs confirm=true", errBadRequest, id), nil)
		return
	}
	if err := s.svc.DeleteExpense(r.Context(), id); err != nil {
		writeError(w, r, log.OpDelete, err, log.NewFields().WithExpense(id, "", 0))
		return
	}
	s.logger.InfoContext(r.Context(), "Expense deleted", log.FieldExpenseID, id)
	w.WriteHeader(http.StatusNoContent)
}
