package configsvc

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricSaves = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "clocktower",
		Name:      "script_saves_total",
		Help:      "Script save attempts by outcome.",
	}, []string{"outcome"})
	metricValidations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "clocktower",
		Name:      "script_validations_total",
		Help:      "Dry-run validations by outcome.",
	}, []string{"outcome"})
	metricSavedRoles = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "clocktower",
		Name:      "script_roles",
		Help:      "Number of characters in successfully saved scripts.",
		Buckets:   []float64{5, 10, 15, 20, 25, 30, 40, 60},
	})
)

func recordSave(outcome Outcome, count int) {
	metricSaves.WithLabelValues(string(outcome)).Inc()
	if outcome == OutcomeSuccess {
		metricSavedRoles.Observe(float64(count))
	}
}

func recordValidation(outcome Outcome) {
	metricValidations.WithLabelValues(string(outcome)).Inc()
}
