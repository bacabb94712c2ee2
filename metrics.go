package flowlookup

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricNamespace = "flowlookup"

	metricLabelEngine    = "engine"
	metricLabelOperation = "operation"
	metricLabelOutcome   = "outcome"
	metricLabelTable     = "table"

	metricOpInstall         = "install"
	metricOpBaseAddressSet  = "baseAddressSet"
	metricOpFlowIDCompute   = "flowIDCompute"
	metricOpFlowAdd         = "flowAdd"
	metricOpFlowRead        = "flowRead"
	metricOpFlowRemove      = "flowRemove"
	metricOpTransformAdd    = "transformAdd"
	metricOpTransformRead   = "transformRead"
	metricOpTransformRemove = "transformRemove"

	metricOutcomeSuccess = "success"
	metricOutcomeFail    = "fail"
)

// engineMetrics - Prometheus collectors of one engine
type engineMetrics struct {
	operations   *prometheus.CounterVec
	records      *prometheus.GaugeVec
	freeOverflow *prometheus.GaugeVec
	quiescence   prometheus.Histogram
}

// newEngineMetrics - Creates the collectors of an engine and registers them on reg if not nil
func newEngineMetrics(engine string, reg prometheus.Registerer) (m *engineMetrics, err error) {
	labels := prometheus.Labels{metricLabelEngine: engine}

	m = &engineMetrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   metricNamespace,
			Name:        "operations_total",
			Help:        "Number of engine operations",
			ConstLabels: labels,
		}, []string{metricLabelOperation, metricLabelOutcome}),
		records: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   metricNamespace,
			Name:        "records",
			Help:        "Number of records installed in a hash table",
			ConstLabels: labels,
		}, []string{metricLabelTable}),
		freeOverflow: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   metricNamespace,
			Name:        "free_overflow_buckets",
			Help:        "Number of overflow buckets left on the free list of a hash table",
			ConstLabels: labels,
		}, []string{metricLabelTable}),
		quiescence: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   metricNamespace,
			Name:        "remove_quiescence_seconds",
			Help:        "Time spent waiting for in flight lookups before a bucket or slot is reused",
			ConstLabels: labels,
			Buckets:     prometheus.ExponentialBuckets(1e-6, 4, 10),
		}),
	}

	if reg == nil {
		return
	}

	for _, c := range []prometheus.Collector{m.operations, m.records, m.freeOverflow, m.quiescence} {
		if err = reg.Register(c); err != nil {
			m = nil
			return
		}
	}

	return
}

// observe - Counts one operation with its outcome
func (M *engineMetrics) observe(operation string, err error) {
	outcome := metricOutcomeSuccess
	if err != nil {
		outcome = metricOutcomeFail
	}
	M.operations.WithLabelValues(operation, outcome).Inc()
}

// table - Updates the gauges of a hash table
func (M *engineMetrics) table(tableID int, records, freeOverflow int) {
	id := strconv.Itoa(tableID)
	M.records.WithLabelValues(id).Set(float64(records))
	M.freeOverflow.WithLabelValues(id).Set(float64(freeOverflow))
}

// waited - Records the duration of one quiescence delay
func (M *engineMetrics) waited(d time.Duration) {
	M.quiescence.Observe(d.Seconds())
}
