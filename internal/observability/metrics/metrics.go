package metrics

import "github.com/prometheus/client_golang/prometheus"

// Submission outcomes
const (
	OutcomeSent               = "sent"
	OutcomeInvalidBody        = "invalid_body"
	OutcomeVerificationFailed = "verification_failed"
	OutcomeInvalidType        = "invalid_type"
	OutcomeMissingFields      = "missing_fields"
	OutcomeRelayFailed        = "relay_failed"
)

// FormMetrics exposes counters/histograms for form submissions.
type FormMetrics struct {
	submissionsTotal *prometheus.CounterVec
	relayLatency     *prometheus.HistogramVec
}

func NewFormMetrics(reg prometheus.Registerer) *FormMetrics {
	m := &FormMetrics{
		submissionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "formrelay",
			Name:      "submissions_total",
			Help:      "Form submissions by form type and outcome",
		}, []string{"form_type", "outcome"}),
		relayLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "formrelay",
			Name:      "relay_duration_seconds",
			Help:      "Latency of relaying a rendered email to the mail provider",
			Buckets:   prometheus.DefBuckets,
		}, []string{"form_type"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.submissionsTotal, m.relayLatency)
	return m
}

// ObserveSubmission counts one handled submission. Unknown form types are
// folded into a single label value to keep cardinality bounded.
func (m *FormMetrics) ObserveSubmission(formType, outcome string) {
	if m == nil {
		return
	}
	switch formType {
	case "contact", "referral":
	default:
		formType = "unknown"
	}
	m.submissionsTotal.WithLabelValues(formType, outcome).Inc()
}

func (m *FormMetrics) ObserveRelayLatency(formType string, seconds float64) {
	if m == nil {
		return
	}
	m.relayLatency.WithLabelValues(formType).Observe(seconds)
}
