package registry

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/turtacn/VendorIQ-Intelligence/internal/config"
	"github.com/turtacn/VendorIQ-Intelligence/internal/domain/evaluation"
	"github.com/turtacn/VendorIQ-Intelligence/internal/domain/supplier"
	"github.com/turtacn/VendorIQ-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/VendorIQ-Intelligence/internal/infrastructure/monitoring/prometheus"
)

// Collector queries every configured registry in parallel and returns the
// normalized results.  A failing or empty source never fails the pass: it
// is simply absent from the returned data, and the analysis downstream
// reflects the thinner evidence through its confidence.
type Collector struct {
	sources     []Source
	records     evaluation.SourceRecordRepository
	timeout     time.Duration
	maxParallel int
	metrics     *prometheus.AppMetrics
	logger      logging.Logger
}

// NewCollector wires the collector.  records may be nil when lookup history
// is not persisted.
func NewCollector(sources []Source, records evaluation.SourceRecordRepository, cfg config.RegistryConfig, metrics *prometheus.AppMetrics, logger logging.Logger) *Collector {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if metrics == nil {
		metrics = prometheus.NewNopAppMetrics()
	}
	timeout := cfg.LookupTimeout
	if timeout <= 0 {
		timeout = config.DefaultRegistryLookupTimeout
	}
	maxParallel := cfg.MaxParallel
	if maxParallel < 1 {
		maxParallel = config.DefaultRegistryMaxParallel
	}
	return &Collector{
		sources:     sources,
		records:     records,
		timeout:     timeout,
		maxParallel: maxParallel,
		metrics:     metrics,
		logger:      logger.Named("registry"),
	}
}

// Collect runs every source lookup with bounded parallelism and a per-source
// timeout.  Each hit is persisted as an append-only source record before it
// is returned.
func (c *Collector) Collect(ctx context.Context, eval *evaluation.Evaluation, sup *supplier.Supplier) evaluation.ExternalData {
	data := make(evaluation.ExternalData, len(c.sources))
	var mu sync.Mutex

	var g errgroup.Group
	g.SetLimit(c.maxParallel)

	for _, source := range c.sources {
		source := source
		g.Go(func() error {
			result := c.lookupOne(ctx, source, eval, sup)
			if result == nil {
				return nil
			}
			mu.Lock()
			data[source.Name()] = *result
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	c.logger.Debug("collection pass finished",
		logging.String("supplier_id", sup.ID),
		logging.Int("sources_hit", len(data)),
		logging.Int("sources_total", len(c.sources)))
	return data
}

func (c *Collector) lookupOne(ctx context.Context, source Source, eval *evaluation.Evaluation, sup *supplier.Supplier) *evaluation.SourceResult {
	lookupCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	timer := prometheus.NewTimer(c.metrics.RegistryLookupDuration.WithLabelValues(source.Name()))
	result, err := source.Lookup(lookupCtx, sup)
	timer.ObserveDuration()

	if err != nil {
		c.metrics.RegistryLookupsTotal.WithLabelValues(source.Name(), "error").Inc()
		c.logger.Warn("registry lookup failed",
			logging.String("source", source.Name()),
			logging.String("supplier_id", sup.ID),
			logging.Err(err))
		return nil
	}
	if result == nil {
		c.metrics.RegistryLookupsTotal.WithLabelValues(source.Name(), "not_found").Inc()
		return nil
	}
	c.metrics.RegistryLookupsTotal.WithLabelValues(source.Name(), "hit").Inc()

	c.persistRecord(ctx, source, eval, result)
	return result
}

// persistRecord appends the lookup to the evaluation's source history.
// Persistence failures are logged and absorbed; losing one history row must
// not lose the analysis.
func (c *Collector) persistRecord(ctx context.Context, source Source, eval *evaluation.Evaluation, result *evaluation.SourceResult) {
	if c.records == nil || eval == nil {
		return
	}
	record, err := evaluation.NewExternalSourceRecord(eval.ID, source.Name(), source.Type(), "", result.Payload, result.Confidence)
	if err != nil {
		c.logger.Warn("failed to build source record",
			logging.String("source", source.Name()),
			logging.Err(err))
		return
	}
	if err := c.records.Append(ctx, record); err != nil {
		c.logger.Warn("failed to persist source record",
			logging.String("source", source.Name()),
			logging.Err(err))
	}
}
