package solver

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// solverMetrics holds the Prometheus metrics for the solver subsystem.
type solverMetrics struct {
	once sync.Once

	solveTotal    prometheus.Counter
	solveFailed   prometheus.Counter
	backtracks    prometheus.Counter
	solveDuration prometheus.Histogram
}

var metrics solverMetrics

func (m *solverMetrics) init() {
	m.once.Do(func() {
		m.solveTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "zeroinstall_solver_solves_total",
			Help: "Number of Solve calls completed, successful or not",
		})
		m.solveFailed = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "zeroinstall_solver_solves_failed_total",
			Help: "Number of Solve calls that returned no solution",
		})
		m.backtracks = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "zeroinstall_solver_backtracks_total",
			Help: "Number of branches abandoned during backtracking search",
		})
		m.solveDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "zeroinstall_solver_solve_seconds",
			Help:    "Duration of Solve calls",
			Buckets: prometheus.DefBuckets,
		})

		prometheus.MustRegister(m.solveTotal, m.solveFailed, m.backtracks, m.solveDuration)
	})
}
