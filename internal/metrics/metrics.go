// Package metrics records pump selector activity as Prometheus metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder receives selector, dataset, order, and mirror events.
type Recorder interface {
	ObserveSelection(resultType string, d time.Duration)
	SetDataset(role, kind string, rows int)
	IncOrder(status string)
	ObserveMirror(op string, err error)
}

// Nop discards every event.
type Nop struct{}

// ObserveSelection implements Recorder.
func (Nop) ObserveSelection(string, time.Duration) {}

// SetDataset implements Recorder.
func (Nop) SetDataset(string, string, int) {}

// IncOrder implements Recorder.
func (Nop) IncOrder(string) {}

// ObserveMirror implements Recorder.
func (Nop) ObserveMirror(string, error) {}

// Prometheus is a Recorder backed by Prometheus collectors.
type Prometheus struct {
	selections       *prometheus.CounterVec
	selectionLatency prometheus.Histogram
	datasetRows      *prometheus.GaugeVec
	orders           *prometheus.CounterVec
	mirrorOps        *prometheus.CounterVec
}

// NewPrometheus registers the selector collectors with reg.
func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	f := promauto.With(reg)
	return &Prometheus{
		selections: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pumpsel_selections_total",
				Help: "Questionnaire submissions by result type",
			},
			[]string{"result"},
		),
		selectionLatency: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "pumpsel_selection_duration_seconds",
				Help:    "Time spent matching one submission",
				Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14),
			},
		),
		datasetRows: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "pumpsel_active_dataset_rows",
				Help: "Rows in the active dataset per role and kind",
			},
			[]string{"role", "kind"},
		),
		orders: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pumpsel_orders_total",
				Help: "Spares orders by status",
			},
			[]string{"status"},
		),
		mirrorOps: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pumpsel_mirror_operations_total",
				Help: "Cloud mirror operations by outcome",
			},
			[]string{"op", "status"},
		),
	}
}

// ObserveSelection implements Recorder.
func (p *Prometheus) ObserveSelection(resultType string, d time.Duration) {
	p.selections.WithLabelValues(resultType).Inc()
	p.selectionLatency.Observe(d.Seconds())
}

// SetDataset implements Recorder. The gauge for the role is reset first so
// only the current kind reports rows.
func (p *Prometheus) SetDataset(role, kind string, rows int) {
	p.datasetRows.DeletePartialMatch(prometheus.Labels{"role": role})
	p.datasetRows.WithLabelValues(role, kind).Set(float64(rows))
}

// IncOrder implements Recorder.
func (p *Prometheus) IncOrder(status string) {
	p.orders.WithLabelValues(status).Inc()
}

// ObserveMirror implements Recorder.
func (p *Prometheus) ObserveMirror(op string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	p.mirrorOps.WithLabelValues(op, status).Inc()
}
