package http

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"grana/internal/core"
)

type createCostRequest struct {
	Name      string `json:"name"`
	Amount    string `json:"amount"`
	Frequency string `json:"frequency"`
	IsFixed   bool   `json:"is_fixed"`
}

type costResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	AmountCents int64  `json:"amount_cents"`
	Amount      string `json:"amount"`
	Frequency   string `json:"frequency"`
	IsFixed     bool   `json:"is_fixed"`
	IsActive    bool   `json:"is_active"`
	CreatedAt   string `json:"created_at"`
}

func (s *Server) handleCosts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listCosts(w, r)
	case http.MethodPost:
		s.createCost(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) listCosts(w http.ResponseWriter, r *http.Request) {
	costs, err := s.storage.ListRecurringCosts(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "List costs error", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list costs")
		return
	}

	rows := make([]costResponse, 0, len(costs))
	for _, c := range costs {
		rows = append(rows, costResponse{
			ID:          c.ID,
			Name:        c.Name,
			AmountCents: c.Amount.Cents,
			Amount:      c.Amount.String(),
			Frequency:   string(c.Frequency),
			IsFixed:     c.IsFixed,
			IsActive:    c.IsActive,
			CreatedAt:   c.CreatedAt.Format(dateLayout),
		})
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) createCost(w http.ResponseWriter, r *http.Request) {
	var req createCostRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	cents, err := core.ParseDecimalToCents(strings.TrimSpace(req.Amount))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid amount")
		return
	}

	cost := core.RecurringCost{
		Name:      sanitizeInput(req.Name),
		Amount:    core.Money{Cents: cents},
		Frequency: core.Frequency(strings.ToLower(strings.TrimSpace(req.Frequency))),
		IsFixed:   req.IsFixed,
		IsActive:  true,
		CreatedAt: time.Now(),
	}
	if err := cost.Validate(); err != nil {
		writeDomainError(w, err)
		return
	}

	id, err := s.storage.CreateRecurringCost(r.Context(), cost)
	if err != nil {
		slog.ErrorContext(r.Context(), "Create cost error", "error", err, "name", cost.Name)
		writeError(w, http.StatusInternalServerError, "failed to create cost")
		return
	}
	cost.ID = id

	s.invalidateStats()
	writeJSON(w, http.StatusCreated, costResponse{
		ID:          cost.ID,
		Name:        cost.Name,
		AmountCents: cost.Amount.Cents,
		Amount:      cost.Amount.String(),
		Frequency:   string(cost.Frequency),
		IsFixed:     cost.IsFixed,
		IsActive:    cost.IsActive,
		CreatedAt:   cost.CreatedAt.Format(dateLayout),
	})
}

func (s *Server) handleBenefits(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		balances, err := s.storage.ListBenefitBalances(r.Context())
		if err != nil {
			slog.ErrorContext(r.Context(), "List benefits error", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to list benefit balances")
			return
		}

		type row struct {
			Type       string `json:"type"`
			ValueCents int64  `json:"value_cents"`
			Value      string `json:"value"`
		}
		rows := make([]row, 0, len(balances))
		for _, b := range balances {
			rows = append(rows, row{Type: string(b.Type), ValueCents: b.Value.Cents, Value: b.Value.String()})
		}
		writeJSON(w, http.StatusOK, rows)
	case http.MethodPut:
		var req []struct {
			Type  string `json:"type"`
			Value string `json:"value"`
		}
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		balances := make([]core.BenefitBalance, 0, len(req))
		for _, item := range req {
			typ := core.BenefitType(strings.ToUpper(strings.TrimSpace(item.Type)))
			if !typ.Valid() {
				writeError(w, http.StatusUnprocessableEntity, "unknown benefit type: "+item.Type)
				return
			}
			cents, err := core.ParseNonNegativeDecimalToCents(strings.TrimSpace(item.Value))
			if err != nil {
				writeError(w, http.StatusUnprocessableEntity, "invalid value for "+item.Type)
				return
			}
			balances = append(balances, core.BenefitBalance{Type: typ, Value: core.Money{Cents: cents}})
		}

		if err := s.storage.UpdateBenefitBalances(r.Context(), balances); err != nil {
			slog.ErrorContext(r.Context(), "Update benefits error", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to update benefit balances")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		w.Header().Set("Allow", "GET, PUT")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}
