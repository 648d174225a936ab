package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/productrecommend/backend/internal/domain"
)

// Parse outcome labels
const (
	OutcomeSuccess              = "success"
	OutcomeEmptyOrMalformed     = "empty_or_malformed"
	OutcomeMissingPayload       = "missing_payload"
	OutcomeMissingRequiredField = "missing_required_field"
)

// Metrics holds the Prometheus collectors for parsing, presentation and retrieval
type Metrics struct {
	parseOutcomes     *prometheus.CounterVec
	stockBanners      *prometheus.CounterVec
	retrieverRequests *prometheus.CounterVec
	cacheLookups      *prometheus.CounterVec
}

// New creates the collectors and registers them with reg
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		parseOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "productrec_parse_outcomes_total",
			Help: "Retrieval results parsed, by outcome",
		}, []string{"outcome"}),
		stockBanners: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "productrec_stock_banners_total",
			Help: "Stock banners derived for presented products, by variant",
		}, []string{"variant"}),
		retrieverRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "productrec_retriever_requests_total",
			Help: "Requests sent to the retrieval backend, by status",
		}, []string{"status"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "productrec_cache_lookups_total",
			Help: "Retrieval cache lookups, by result",
		}, []string{"result"}),
	}

	reg.MustRegister(m.parseOutcomes, m.stockBanners, m.retrieverRequests, m.cacheLookups)
	return m
}

// ObserveParse counts one parse outcome
func (m *Metrics) ObserveParse(outcome domain.ParseOutcome) {
	m.parseOutcomes.WithLabelValues(outcomeLabel(outcome.Err())).Inc()
}

// ObserveBanner counts one derived stock banner
func (m *Metrics) ObserveBanner(variant domain.BannerVariant) {
	m.stockBanners.WithLabelValues(string(variant)).Inc()
}

// ObserveCache counts one cache lookup
func (m *Metrics) ObserveCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

// ObserveRetrieverRequest counts one upstream attempt
func (m *Metrics) ObserveRetrieverRequest(status string) {
	m.retrieverRequests.WithLabelValues(status).Inc()
}

func outcomeLabel(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, domain.ErrMissingPayload):
		return OutcomeMissingPayload
	case errors.Is(err, domain.ErrMissingRequiredField):
		return OutcomeMissingRequiredField
	default:
		return OutcomeEmptyOrMalformed
	}
}
