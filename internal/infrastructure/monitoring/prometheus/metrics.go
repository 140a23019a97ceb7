package prometheus

// AppMetrics holds all application metrics.
type AppMetrics struct {
	// HTTP layer
	HTTPRequestsTotal   CounterVec
	HTTPRequestDuration HistogramVec
	HTTPActiveRequests  GaugeVec

	// Evaluation layer
	AnalysesTotal         CounterVec
	AnalysisDuration      HistogramVec
	AnalysisScore         HistogramVec
	BatchAnalysesTotal    CounterVec
	ActiveAnalysisWorkers GaugeVec

	// Registry collection layer
	RegistryLookupsTotal   CounterVec
	RegistryLookupDuration HistogramVec

	// Remote answering service layer
	RemoteRequestsTotal CounterVec
	RemoteRetriesTotal  CounterVec
	RemoteDuration      HistogramVec

	// Recommendation layer
	RecommendationsTotal CounterVec
	ReviewDecisionsTotal CounterVec

	// Infrastructure layer
	DBQueryDuration  HistogramVec
	CacheHitsTotal   CounterVec
	CacheMissesTotal CounterVec
	EventsPublished  CounterVec

	ErrorsTotal CounterVec
}

var (
	DefaultHTTPDurationBuckets     = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	DefaultAnalysisDurationBuckets = []float64{.5, 1, 2, 5, 10, 30, 60, 120, 300}
	DefaultDBDurationBuckets       = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 5}
	DefaultScoreBuckets            = []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100}
)

// NewAppMetrics registers every metric with the collector and returns the set.
func NewAppMetrics(collector MetricsCollector) *AppMetrics {
	m := &AppMetrics{}

	m.HTTPRequestsTotal = collector.RegisterCounter("http_requests_total", "Total HTTP requests", "method", "path", "status_code")
	m.HTTPRequestDuration = collector.RegisterHistogram("http_request_duration_seconds", "HTTP request duration", DefaultHTTPDurationBuckets, "method", "path")
	m.HTTPActiveRequests = collector.RegisterGauge("http_active_requests", "Active HTTP requests", "method")

	m.AnalysesTotal = collector.RegisterCounter("supplier_analyses_total", "Supplier analyses performed", "trigger", "status")
	m.AnalysisDuration = collector.RegisterHistogram("supplier_analysis_duration_seconds", "Supplier analysis duration", DefaultAnalysisDurationBuckets, "trigger")
	m.AnalysisScore = collector.RegisterHistogram("supplier_analysis_score", "Composite score distribution", DefaultScoreBuckets, "recommendation")
	m.BatchAnalysesTotal = collector.RegisterCounter("supplier_batch_analyses_total", "Batch analysis runs", "status")
	m.ActiveAnalysisWorkers = collector.RegisterGauge("supplier_analysis_active_workers", "Active analysis workers")

	m.RegistryLookupsTotal = collector.RegisterCounter("registry_lookups_total", "External registry lookups", "source", "status")
	m.RegistryLookupDuration = collector.RegisterHistogram("registry_lookup_duration_seconds", "External registry lookup duration", DefaultHTTPDurationBuckets, "source")

	m.RemoteRequestsTotal = collector.RegisterCounter("remote_requests_total", "Remote answering service requests", "status")
	m.RemoteRetriesTotal = collector.RegisterCounter("remote_retries_total", "Remote answering service retries", "reason")
	m.RemoteDuration = collector.RegisterHistogram("remote_request_duration_seconds", "Remote answering service request duration", DefaultAnalysisDurationBuckets)

	m.RecommendationsTotal = collector.RegisterCounter("recommendations_total", "Recommendations produced", "type", "priority")
	m.ReviewDecisionsTotal = collector.RegisterCounter("review_decisions_total", "Recommendation review decisions", "decision")

	m.DBQueryDuration = collector.RegisterHistogram("db_query_duration_seconds", "Database query duration", DefaultDBDurationBuckets, "operation")
	m.CacheHitsTotal = collector.RegisterCounter("cache_hits_total", "Cache hits", "cache")
	m.CacheMissesTotal = collector.RegisterCounter("cache_misses_total", "Cache misses", "cache")
	m.EventsPublished = collector.RegisterCounter("events_published_total", "Domain events published", "topic", "status")

	m.ErrorsTotal = collector.RegisterCounter("errors_total", "Errors by module and code", "module", "code")

	return m
}

// NewNopAppMetrics returns an AppMetrics whose instruments discard all
// observations.  Intended for tests.
func NewNopAppMetrics() *AppMetrics {
	return &AppMetrics{
		HTTPRequestsTotal:      noopCounterVec{},
		HTTPRequestDuration:    noopHistogramVec{},
		HTTPActiveRequests:     noopGaugeVec{},
		AnalysesTotal:          noopCounterVec{},
		AnalysisDuration:       noopHistogramVec{},
		AnalysisScore:          noopHistogramVec{},
		BatchAnalysesTotal:     noopCounterVec{},
		ActiveAnalysisWorkers:  noopGaugeVec{},
		RegistryLookupsTotal:   noopCounterVec{},
		RegistryLookupDuration: noopHistogramVec{},
		RemoteRequestsTotal:    noopCounterVec{},
		RemoteRetriesTotal:     noopCounterVec{},
		RemoteDuration:         noopHistogramVec{},
		RecommendationsTotal:   noopCounterVec{},
		ReviewDecisionsTotal:   noopCounterVec{},
		DBQueryDuration:        noopHistogramVec{},
		CacheHitsTotal:         noopCounterVec{},
		CacheMissesTotal:       noopCounterVec{},
		EventsPublished:        noopCounterVec{},
		ErrorsTotal:            noopCounterVec{},
	}
}
