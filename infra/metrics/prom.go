package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/RixhersAjazi/schedulemaker/core/metrics"
)

// PromSink records search runs in Prometheus metrics.
type PromSink struct {
	searches     *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	combinations prometheus.Histogram
	conflicts    *prometheus.CounterVec
	rejections   *prometheus.CounterVec
}

// NewPromSink registers search metrics on the default Prometheus registerer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer. Collectors
// already registered by an earlier sink are reused.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	searches := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "schedule_searches_total",
		Help: "Total number of schedule searches",
	}, []string{"source", "outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "schedule_search_duration_seconds",
		Help:    "Wall time spent enumerating combinations",
		Buckets: prometheus.ExponentialBuckets(0.0005, 4, 10),
	}, []string{"source"})
	combinations := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "schedule_search_combinations",
		Help:    "Number of valid combinations produced per search",
		Buckets: []float64{0, 1, 5, 10, 50, 100, 500, 1000, 5000},
	})
	conflicts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "schedule_conflicts_total",
		Help: "Rejected candidates by conflict reason",
	}, []string{"reason"})
	rejections := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "schedule_requests_rejected_total",
		Help: "Requests refused before enumeration",
	}, []string{"source", "reason"})

	var err error
	if searches, err = register(reg, searches); err != nil {
		return nil, err
	}
	if duration, err = register(reg, duration); err != nil {
		return nil, err
	}
	if combinations, err = register(reg, combinations); err != nil {
		return nil, err
	}
	if conflicts, err = register(reg, conflicts); err != nil {
		return nil, err
	}
	if rejections, err = register(reg, rejections); err != nil {
		return nil, err
	}
	return &PromSink{
		searches:     searches,
		duration:     duration,
		combinations: combinations,
		conflicts:    conflicts,
		rejections:   rejections,
	}, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordSearch updates the counters and histograms for one run.
func (s *PromSink) RecordSearch(run coremetrics.SearchRun) error {
	s.searches.WithLabelValues(run.Source, string(run.Outcome)).Inc()
	s.duration.WithLabelValues(run.Source).Observe(run.Duration.Seconds())
	s.combinations.Observe(float64(run.Combinations))
	for reason, n := range run.Conflicts {
		s.conflicts.WithLabelValues(string(reason)).Add(float64(n))
	}
	return nil
}

// RecordRejection counts a request refused before enumeration.
func (s *PromSink) RecordRejection(ev coremetrics.RejectedRequest) error {
	s.rejections.WithLabelValues(ev.Source, ev.Reason).Inc()
	return nil
}
