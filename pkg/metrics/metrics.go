package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	AnalysesTotal        *prometheus.CounterVec
	FetchFailuresTotal   *prometheus.CounterVec
	PublishFailuresTotal *prometheus.CounterVec
	AnalysisDuration     *prometheus.HistogramVec
}

func NewMetrics() *Metrics {
	return &Metrics{
		AnalysesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "repetition_analyses_total",
			Help: "Total number of department analyses run",
		}, []string{"department", "status"}),
		FetchFailuresTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "conversation_fetch_failures_total",
			Help: "Total number of failed BI-source fetches",
		}, []string{"department"}),
		PublishFailuresTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "sheet_publish_failures_total",
			Help: "Total number of failed spreadsheet uploads",
		}, []string{"department"}),
		AnalysisDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "analysis_duration_seconds",
			Help:    "Time taken to fetch and analyze one department",
			Buckets: prometheus.DefBuckets,
		}, []string{"department"}),
	}
}
