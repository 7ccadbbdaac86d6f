package observability

import "github.com/prometheus/client_golang/prometheus"

// BillingMetrics counts generation batch outcomes by bill type.
type BillingMetrics struct {
	BillsGenerated *prometheus.CounterVec
	BillsSkipped   prometheus.Counter
	BatchesRun     *prometheus.CounterVec
}

func NewBillingMetrics(reg *prometheus.Registry) *BillingMetrics {
	m := &BillingMetrics{
		BillsGenerated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "municipay",
			Name:      "bills_generated_total",
			Help:      "Bills created by generation batches.",
		}, []string{"bill_type"}),
		BillsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "municipay",
			Name:      "bills_skipped_total",
			Help:      "Candidates skipped during generation (duplicate or no active fee).",
		}),
		BatchesRun: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "municipay",
			Name:      "generation_batches_total",
			Help:      "Completed generation batches by outcome.",
		}, []string{"outcome"}),
	}
	reg.MustRegister(m.BillsGenerated, m.BillsSkipped, m.BatchesRun)
	return m
}
