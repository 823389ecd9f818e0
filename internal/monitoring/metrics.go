package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Risk envelope metrics
	envelopeMaxPositionUSD = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sleeve_engine_max_position_size_usd",
			Help: "Max single position notional granted by the risk kernel",
		},
		[]string{"sleeve"},
	)

	envelopeHeadroomUSD = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sleeve_engine_headroom_usd",
			Help: "Remaining portfolio capacity seen by a sleeve",
		},
		[]string{"sleeve", "kind"},
	)

	envelopeScalar = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sleeve_engine_scalar",
			Help: "Adaptive sizing scalars applied by the risk kernel",
		},
		[]string{"sleeve", "kind"},
	)

	haltState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sleeve_engine_halt_state",
			Help: "Halt state (0=none, 1=halt, 2=kill)",
		},
		[]string{"scope"},
	)

	// Signal metrics
	signalConviction = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sleeve_engine_signal_conviction",
			Help: "Conviction of the latest instrument signal",
		},
		[]string{"instrument"},
	)

	signalReason = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sleeve_engine_signal_reason",
			Help: "Reason of the latest instrument signal (0=normal, 1=insufficient history, 2=invalid data, 3=below threshold)",
		},
		[]string{"instrument"},
	)

	// Plan metrics
	planRiskEUR = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sleeve_engine_plan_total_risk_eur",
			Help: "Aggregate EUR risk of the latest sleeve plan",
		},
		[]string{"sleeve"},
	)

	planSanityExceeded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sleeve_engine_plan_sanity_exceeded_total",
			Help: "Number of plans whose aggregate risk exceeded the sleeve cap",
		},
		[]string{"sleeve"},
	)

	// Order metrics
	ordersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sleeve_engine_orders_total",
			Help: "Total number of engine orders handed to the order sink",
		},
		[]string{"symbol", "side"},
	)

	orderQuantity = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sleeve_engine_order_quantity",
			Help:    "Distribution of order quantities in contracts",
			Buckets: []float64{1, 2, 3, 5, 8, 13, 21},
		},
		[]string{"symbol"},
	)

	// Engine health metrics
	heartbeatsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sleeve_engine_heartbeats_total",
			Help: "Total heartbeats processed by engine health",
		},
		[]string{"health"},
	)

	invariantViolations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sleeve_engine_invariant_violations_total",
			Help: "Non-finite values clamped before leaving the core",
		},
		[]string{"component", "field"},
	)

	// Error metrics
	errorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sleeve_engine_errors_total",
			Help: "Total number of errors",
		},
		[]string{"type"},
	)
)

func init() {
	prometheus.MustRegister(envelopeMaxPositionUSD)
	prometheus.MustRegister(envelopeHeadroomUSD)
	prometheus.MustRegister(envelopeScalar)
	prometheus.MustRegister(haltState)
	prometheus.MustRegister(signalConviction)
	prometheus.MustRegister(signalReason)
	prometheus.MustRegister(planRiskEUR)
	prometheus.MustRegister(planSanityExceeded)
	prometheus.MustRegister(ordersTotal)
	prometheus.MustRegister(orderQuantity)
	prometheus.MustRegister(heartbeatsTotal)
	prometheus.MustRegister(invariantViolations)
	prometheus.MustRegister(errorsTotal)
}

// MetricsHandler handles Prometheus metrics endpoint
type MetricsHandler struct{}

// NewMetricsHandler creates a new metrics handler
func NewMetricsHandler() *MetricsHandler {
	return &MetricsHandler{}
}

// ServeHTTP serves the Prometheus metrics endpoint
func (m *MetricsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// RecordEnvelope publishes one sleeve envelope
func RecordEnvelope(sleeve string, maxPositionUSD, exposureUSD, marginUSD, volScalar, levScalar float64) {
	envelopeMaxPositionUSD.WithLabelValues(sleeve).Set(maxPositionUSD)
	envelopeHeadroomUSD.WithLabelValues(sleeve, "exposure").Set(exposureUSD)
	envelopeHeadroomUSD.WithLabelValues(sleeve, "margin").Set(marginUSD)
	envelopeScalar.WithLabelValues(sleeve, "volatility").Set(volScalar)
	envelopeScalar.WithLabelValues(sleeve, "leverage").Set(levScalar)
}

// UpdateHaltState publishes a halt level for a scope (portfolio or a sleeve name)
func UpdateHaltState(scope string, level int) {
	haltState.WithLabelValues(scope).Set(float64(level))
}

// UpdateSignalConviction publishes the latest conviction and reason code of
// an instrument. Both are keyed by instrument only so a reason change
// overwrites the series instead of leaving the old one behind.
func UpdateSignalConviction(instrument string, reason int, conviction float64) {
	signalConviction.WithLabelValues(instrument).Set(conviction)
	signalReason.WithLabelValues(instrument).Set(float64(reason))
}

// RecordPlan publishes the aggregate risk of a plan
func RecordPlan(sleeve string, totalRiskEUR float64, exceedsCap bool) {
	planRiskEUR.WithLabelValues(sleeve).Set(totalRiskEUR)
	if exceedsCap {
		planSanityExceeded.WithLabelValues(sleeve).Inc()
	}
}

// RecordOrder records an order handed to the sink
func RecordOrder(symbol, side string, quantity int) {
	ordersTotal.WithLabelValues(symbol, side).Inc()
	orderQuantity.WithLabelValues(symbol).Observe(float64(quantity))
}

// RecordHeartbeat counts a processed heartbeat
func RecordHeartbeat(health string) {
	heartbeatsTotal.WithLabelValues(health).Inc()
}

// RecordError records an error metric
func RecordError(errorType string) {
	errorsTotal.WithLabelValues(errorType).Inc()
}
