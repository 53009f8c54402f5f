// Package metrics counts what a simulation produced and writes the counts in
// the Prometheus text format.
package metrics

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/cleared-dev/dropsim/internal/model"
)

// Collector implements drops.Observer over a private registry.
type Collector struct {
	registry     *prometheus.Registry
	transactions *prometheus.CounterVec
	amount       *prometheus.CounterVec
	drops        *prometheus.CounterVec
	batches      *prometheus.HistogramVec
	mu           sync.Mutex
}

// NewCollector creates a Collector with its own registry.
func NewCollector() *Collector {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Collector{
		registry: registry,
		transactions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dropsim_transactions_total",
			Help: "Generated drop transactions",
		}, []string{"role", "type", "status"}),
		amount: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dropsim_approved_amount_total",
			Help: "Sum of approved transaction amounts",
		}, []string{"role", "type"}),
		drops: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dropsim_drops_total",
			Help: "Simulated drops",
		}, []string{"role"}),
		batches: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dropsim_drop_batches",
			Help:    "Batches per simulated drop",
			Buckets: []float64{1, 2, 3, 5, 8, 13, 21},
		}, []string{"role"}),
	}
}

// ObserveDrop records the output of one drop.
func (c *Collector) ObserveDrop(role model.Role, txns []model.Transaction, batches int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	r := string(role)
	c.drops.WithLabelValues(r).Inc()
	c.batches.WithLabelValues(r).Observe(float64(batches))
	for _, t := range txns {
		c.transactions.WithLabelValues(r, string(t.Type), string(t.Status)).Inc()
		if !t.Declined() {
			c.amount.WithLabelValues(r, string(t.Type)).Add(t.Amount.InexactFloat64())
		}
	}
}

// WriteTextfile writes all metrics to path, for the node exporter textfile
// collector or a later scrape.
func (c *Collector) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("writing metrics: %w", err)
	}
	return nil
}
