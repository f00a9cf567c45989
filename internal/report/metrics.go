package report

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	// ParseErrorsTotal tracks reports that violated the expected shape, by facet.
	ParseErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "betview_report_parse_errors_total",
			Help: "Total number of report facets that failed to parse",
		},
		[]string{"facet"},
	)

	// ReportsParsedTotal tracks full report parses by result.
	ReportsParsedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "betview_reports_parsed_total",
			Help: "Total number of reports parsed",
		},
		[]string{"result"},
	)
)
