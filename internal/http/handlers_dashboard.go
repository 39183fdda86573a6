package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"grana/internal/calendar"
	"grana/internal/core"
	"grana/internal/finance"
)

type monthlyStatRow struct {
	Month           int    `json:"month"`
	Year            int    `json:"year"`
	RevenuesCents   int64  `json:"revenues_cents"`
	Revenues        string `json:"revenues"`
	CostsCents      int64  `json:"costs_cents"`
	Costs           string `json:"costs"`
	ProfitCents     int64  `json:"profit_cents"`
	Profit          string `json:"profit"`
	StockValueCents int64  `json:"stock_value_cents,omitempty"`
}

func (s *Server) handleMonthlyStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	months := s.monthsBack
	if v := strings.TrimSpace(r.URL.Query().Get("months")); v != "" {
		if m, err := strconv.Atoi(v); err == nil && m >= 1 && m <= 36 {
			months = m
		}
	}

	stats, err := s.getMonthlyStats(r.Context(), months)
	if err != nil {
		slog.ErrorContext(r.Context(), "Monthly stats error", "error", err, "months", months)
		writeError(w, http.StatusInternalServerError, "failed to compute monthly stats")
		return
	}

	rows := make([]monthlyStatRow, 0, len(stats))
	for _, st := range stats {
		rows = append(rows, monthlyStatRow{
			Month:           int(st.Month),
			Year:            st.Year,
			RevenuesCents:   st.Revenues.Cents,
			Revenues:        st.Revenues.String(),
			CostsCents:      st.Costs.Cents,
			Costs:           st.Costs.String(),
			ProfitCents:     st.Profit.Cents,
			Profit:          st.Profit.String(),
			StockValueCents: st.StockValue.Cents,
		})
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) getMonthlyStats(ctx context.Context, months int) ([]core.MonthlyStat, error) {
	key := s.statsCacheKey(months)
	if stats, found := s.statsCache.Get(key); found {
		slog.DebugContext(ctx, "Monthly stats cache hit", "months", months)
		return stats, nil
	}

	cctx, cancel := context.WithTimeout(ctx, 7*time.Second)
	defer cancel()

	now := time.Now()
	costs, txs, stock, err := s.loadInputs(cctx, now, months)
	if err != nil {
		return nil, err
	}

	stats := s.projector.MonthlyStats(costs, txs, stock, months, now, s.trackStock)
	s.statsCache.Set(key, stats)
	return stats, nil
}

// loadInputs gathers everything the aggregates need in one place. The
// transaction window starts one month before the stats window so recurrence
// context is complete.
func (s *Server) loadInputs(ctx context.Context, now time.Time, months int) ([]core.RecurringCost, []core.Transaction, []core.StockItem, error) {
	costs, err := s.storage.ListRecurringCosts(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	since := calendar.StartOfMonth(calendar.AddMonths(now, -months))
	txs, err := s.storage.ListTransactionsSince(ctx, since)
	if err != nil {
		return nil, nil, nil, err
	}
	var stock []core.StockItem
	if s.trackStock {
		if stock, err = s.storage.ListStockItems(ctx); err != nil {
			return nil, nil, nil, err
		}
	}
	return costs, txs, stock, nil
}

func (s *Server) handleSpend(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	cctx, cancel := context.WithTimeout(r.Context(), 7*time.Second)
	defer cancel()

	now := time.Now()
	costs, err := s.storage.ListRecurringCosts(cctx)
	if err != nil {
		slog.ErrorContext(r.Context(), "Spend cards error", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to compute spend")
		return
	}

	thisMonth := finance.SpendThisMonth(costs, now)
	lastMonth := finance.SpendLastMonth(costs, now)

	writeJSON(w, http.StatusOK, struct {
		ThisMonthCents int64  `json:"this_month_cents"`
		ThisMonth      string `json:"this_month"`
		LastMonthCents int64  `json:"last_month_cents"`
		LastMonth      string `json:"last_month"`
	}{
		ThisMonthCents: thisMonth.Cents,
		ThisMonth:      thisMonth.String(),
		LastMonthCents: lastMonth.Cents,
		LastMonth:      lastMonth.String(),
	})
}

func (s *Server) handleProjection(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	cctx, cancel := context.WithTimeout(r.Context(), 7*time.Second)
	defer cancel()

	now := time.Now()
	costs, txs, _, err := s.loadInputs(cctx, now, 4)
	if err != nil {
		slog.ErrorContext(r.Context(), "Projection inputs error", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to compute projection")
		return
	}
	balances, err := s.storage.ListBenefitBalances(cctx)
	if err != nil {
		slog.ErrorContext(r.Context(), "Projection balances error", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to compute projection")
		return
	}

	p := s.projector.MonthlyProjection(costs, txs, balances, now)

	writeJSON(w, http.StatusOK, struct {
		FixedSalaryCents       int64   `json:"fixed_salary_cents"`
		AvgVariableIncomeCents int64   `json:"avg_variable_income_cents"`
		BenefitTotalCents      int64   `json:"benefit_total_cents"`
		ProjectedCostsCents    int64   `json:"projected_costs_cents"`
		ProjectedBalanceCents  int64   `json:"projected_balance_cents"`
		PercentCommitted       float64 `json:"percent_committed"`
	}{
		FixedSalaryCents:       p.FixedSalary.Cents,
		AvgVariableIncomeCents: p.AvgVariableIncome.Cents,
		BenefitTotalCents:      p.BenefitTotal.Cents,
		ProjectedCostsCents:    p.ProjectedCosts.Cents,
		ProjectedBalanceCents:  p.ProjectedBalance.Cents,
		PercentCommitted:       p.PercentCommitted,
	})
}
