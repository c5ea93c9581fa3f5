// Package metrics provides observability for the ledger engine.
// Tracks group/expense creation counts, rejected drafts, and balance
// computation durations.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the engine's Prometheus collectors.
type Metrics struct {
	GroupsCreated      prometheus.Counter
	ExpensesAdded      prometheus.Counter
	ExpensesRejected   prometheus.Counter
	SettlementsAdded   prometheus.Counter
	BalancesDuration   prometheus.Histogram
	AddExpenseDuration prometheus.Histogram
}

// New creates a Metrics instance with all engine metrics registered on
// the default registry.
func New() *Metrics {
	return &Metrics{
		GroupsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "netsplit_groups_created_total",
			Help: "Total number of groups created",
		}),
		ExpensesAdded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "netsplit_expenses_added_total",
			Help: "Total number of expenses appended to ledgers",
		}),
		ExpensesRejected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "netsplit_expenses_rejected_total",
			Help: "Total number of expense drafts rejected by validation",
		}),
		SettlementsAdded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "netsplit_settlements_added_total",
			Help: "Total number of settlements recorded",
		}),
		BalancesDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "netsplit_compute_balances_duration_seconds",
			Help:    "Duration of balance computations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		AddExpenseDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "netsplit_add_expense_duration_seconds",
			Help:    "Duration of AddExpense operations including persistence",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// ObserveBalances records the duration of a balance computation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveBalances(start time.Time) {
	m.BalancesDuration.Observe(time.Since(start).Seconds())
}

// ObserveAddExpense records the duration of an AddExpense operation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveAddExpense(start time.Time) {
	m.AddExpenseDuration.Observe(time.Since(start).Seconds())
}
