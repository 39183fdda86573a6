package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"grana/internal/core"
)

type createTransactionRequest struct {
	Type          string `json:"type"`
	Category      string `json:"category"`
	Amount        string `json:"amount"`
	Name          string `json:"name"`
	Date          string `json:"date"`
	DeductBenefit bool   `json:"deduct_benefit"`
}

type transactionResponse struct {
	ID                 int64  `json:"id"`
	Type               string `json:"type"`
	Category           string `json:"category"`
	AmountCents        int64  `json:"amount_cents"`
	Amount             string `json:"amount"`
	Name               string `json:"name"`
	Date               string `json:"date"`
	IsSubscription     bool   `json:"is_subscription"`
	IsRecurring        bool   `json:"is_recurring"`
	InstallmentGroupID string `json:"installment_group_id,omitempty"`
	InstallmentIndex   int    `json:"installment_index,omitempty"`
}

func toTransactionResponse(tx core.Transaction) transactionResponse {
	return transactionResponse{
		ID:                 tx.ID,
		Type:               string(tx.Type),
		Category:           string(tx.Category),
		AmountCents:        tx.Amount.Cents,
		Amount:             tx.Amount.String(),
		Name:               tx.Name,
		Date:               tx.Date.Format(dateLayout),
		IsSubscription:     tx.IsSubscription,
		IsRecurring:        tx.IsRecurring,
		InstallmentGroupID: tx.InstallmentGroupID,
		InstallmentIndex:   tx.InstallmentIndex,
	}
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req createTransactionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	cents, err := core.ParseDecimalToCents(strings.TrimSpace(req.Amount))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid amount")
		return
	}

	date, err := parseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid date, expected YYYY-MM-DD")
		return
	}

	tx := core.Transaction{
		Type:     core.TransactionType(strings.ToLower(strings.TrimSpace(req.Type))),
		Category: core.Category(strings.ToLower(strings.TrimSpace(req.Category))),
		Amount:   core.Money{Cents: cents},
		Name:     sanitizeInput(req.Name),
		Date:     date,
	}

	id, err := s.service.CreateTransaction(r.Context(), tx, req.DeductBenefit)
	if err != nil {
		slog.ErrorContext(r.Context(), "Create transaction failed",
			"error", err,
			"name", tx.Name,
			"amount_cents", tx.Amount.Cents)
		writeDomainError(w, err)
		return
	}
	tx.ID = id

	s.invalidateStats()
	writeJSON(w, http.StatusCreated, toTransactionResponse(tx))
}

func (s *Server) handleTransactionByID(w http.ResponseWriter, r *http.Request) {
	idStr := strings.TrimPrefix(r.URL.Path, "/api/transactions/")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid transaction id")
		return
	}

	switch r.Method {
	case http.MethodGet:
		tx, err := s.storage.GetTransaction(r.Context(), id)
		if err != nil {
			writeError(w, http.StatusNotFound, "transaction not found")
			return
		}
		writeJSON(w, http.StatusOK, toTransactionResponse(tx))
	case http.MethodDelete:
		if err := s.service.DeleteTransaction(r.Context(), id); err != nil {
			slog.ErrorContext(r.Context(), "Delete transaction failed", "error", err, "id", id)
			writeError(w, http.StatusNotFound, "transaction not found")
			return
		}
		s.invalidateStats()
		w.WriteHeader(http.StatusNoContent)
	default:
		w.Header().Set("Allow", "GET, DELETE")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

type createInstallmentRequest struct {
	Name          string `json:"name"`
	Category      string `json:"category"`
	TotalAmount   string `json:"total_amount"`
	Count         int    `json:"count"`
	StartDate     string `json:"start_date"`
	EndDate       string `json:"end_date"`
	DeductBenefit bool   `json:"deduct_benefit"`
}

func (s *Server) handleCreateInstallmentPurchase(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req createInstallmentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	cents, err := core.ParseDecimalToCents(strings.TrimSpace(req.TotalAmount))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid total amount")
		return
	}
	startDate, err := parseDate(req.StartDate)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid start date, expected YYYY-MM-DD")
		return
	}
	endDate, err := parseDate(req.EndDate)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid end date, expected YYYY-MM-DD")
		return
	}

	plan := core.InstallmentPlan{
		TotalAmount: core.Money{Cents: cents},
		Count:       req.Count,
		StartDate:   startDate,
		EndDate:     endDate,
	}
	category := core.Category(strings.ToLower(strings.TrimSpace(req.Category)))

	groupID, err := s.service.CreateInstallmentPurchase(r.Context(), sanitizeInput(req.Name), category, plan, req.DeductBenefit)
	if err != nil {
		slog.ErrorContext(r.Context(), "Create installment purchase failed",
			"error", err,
			"name", req.Name,
			"total_cents", cents,
			"count", req.Count)
		writeDomainError(w, err)
		return
	}

	s.invalidateStats()
	writeJSON(w, http.StatusCreated, struct {
		InstallmentGroupID string `json:"installment_group_id"`
		Count              int    `json:"count"`
	}{InstallmentGroupID: groupID, Count: req.Count})
}
