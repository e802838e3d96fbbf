package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/RixhersAjazi/schedulemaker/config"
	"github.com/RixhersAjazi/schedulemaker/core/conflict"
	"github.com/RixhersAjazi/schedulemaker/core/events"
	coremetrics "github.com/RixhersAjazi/schedulemaker/core/metrics"
	"github.com/RixhersAjazi/schedulemaker/core/model"
	coremon "github.com/RixhersAjazi/schedulemaker/core/monitoring"
	"github.com/RixhersAjazi/schedulemaker/core/request"
	"github.com/RixhersAjazi/schedulemaker/core/runlog"
	"github.com/RixhersAjazi/schedulemaker/core/scheduler"
	"github.com/RixhersAjazi/schedulemaker/infra/logger"
	"github.com/RixhersAjazi/schedulemaker/infra/metrics"
	infmon "github.com/RixhersAjazi/schedulemaker/infra/monitoring"
	"github.com/RixhersAjazi/schedulemaker/infra/mqtt"
	"github.com/RixhersAjazi/schedulemaker/internal/eventbus"
)

// Result is the outcome of one Generate call.
type Result struct {
	RunID     string           `json:"run_id"`
	Schedules []model.Schedule `json:"schedules"`
	// Conflicts is only filled for verbose requests.
	Conflicts  []conflict.Entry `json:"conflicts,omitempty"`
	Truncated  bool             `json:"truncated"`
	Duration   time.Duration    `json:"-"`
	DurationMS float64          `json:"duration_ms"`
}

// Service runs schedule searches and the transports that feed it.
type Service struct {
	cfg    *config.Config
	bus    *eventbus.Bus[events.Event]
	sink   coremetrics.MetricsSink
	runs   runlog.Store
	log    logger.Logger
	now    func() time.Time
	stop   context.CancelFunc
	done   <-chan struct{}

	closeOnce sync.Once
	closeErr  error
}

// Option customises a Service.
type Option func(*Service)

// WithRunStore replaces the configured run log store.
func WithRunStore(s runlog.Store) Option { return func(svc *Service) { svc.runs = s } }

// WithMetricsSink replaces the configured metrics sinks.
func WithMetricsSink(s coremetrics.MetricsSink) Option {
	return func(svc *Service) { svc.sink = s }
}

// WithLogger replaces the service logger.
func WithLogger(l logger.Logger) Option { return func(svc *Service) { svc.log = l } }

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option { return func(svc *Service) { svc.now = now } }

// New creates a Service from the configuration. Stores and sinks not supplied
// through options are built from cfg.
func New(cfg *config.Config, opts ...Option) (*Service, error) {
	if cfg == nil {
		return nil, errors.New("nil config")
	}
	svc := &Service{cfg: cfg, now: time.Now}
	for _, o := range opts {
		o(svc)
	}
	if err := logger.SetLevel(cfg.Logging.Level); err != nil {
		return nil, fmt.Errorf("logging: %w", err)
	}
	if svc.log == nil {
		svc.log = logger.New("service")
	}
	mon, err := infmon.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}
	coremon.Init(mon)
	if svc.sink == nil {
		sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
		if err != nil {
			return nil, fmt.Errorf("metrics sink: %w", err)
		}
		svc.sink = sink
	}
	if svc.runs == nil {
		store, err := runlog.NewStore(cfg.RunLog)
		if err != nil {
			return nil, fmt.Errorf("run log: %w", err)
		}
		svc.runs = store
	}
	svc.bus = eventbus.New[events.Event](eventbus.WithBuffer(64))
	ctx, cancel := context.WithCancel(context.Background())
	svc.stop = cancel
	svc.done = metrics.StartEventCollector(ctx, svc.bus, svc.sink)
	return svc, nil
}

type sourceKey struct{}

// WithSource tags ctx with the transport a request arrived on.
func WithSource(ctx context.Context, source string) context.Context {
	return context.WithValue(ctx, sourceKey{}, source)
}

func sourceOf(ctx context.Context) string {
	if s, ok := ctx.Value(sourceKey{}).(string); ok && s != "" {
		return s
	}
	return "direct"
}

// Generate enumerates the schedules for req. The search stops at the request
// limit (or search.max_results), on the configured timeout or when ctx is
// done; cancellation is noticed between produced schedules.
func (s *Service) Generate(ctx context.Context, req *request.Request) (*Result, error) {
	source := sourceOf(ctx)
	if req == nil {
		req = &request.Request{}
	}
	if err := req.Validate(); err != nil {
		s.bus.Publish(events.RequestRejected{Source: source, Reason: rejectionReason(err), Err: err})
		return nil, err
	}
	if t := s.cfg.Search.Timeout(); t > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t)
		defer cancel()
	}
	limit := req.Limit
	if limit == 0 {
		limit = s.cfg.Search.MaxResults
	}

	runID := uuid.NewString()
	space := scheduler.SearchSpace(req.Groups)
	s.bus.Publish(events.SearchStarted{RunID: runID, Source: source, Groups: len(req.Groups), Space: space, At: s.now()})
	s.log.Debugw("search started", map[string]any{"run_id": runID, "source": source, "groups": len(req.Groups), "space": space})

	start := s.now()
	clog := conflict.NewLog()
	res := &Result{RunID: runID, Schedules: []model.Schedule{}}
	var searchErr error
	for c := range scheduler.Enumerate(req.Groups, req.Fixed, req.Exclusions, clog) {
		if err := ctx.Err(); err != nil {
			searchErr = err
			break
		}
		if limit > 0 && len(res.Schedules) == limit {
			res.Truncated = true
			break
		}
		res.Schedules = append(res.Schedules, model.NewSchedule(c, req.Fixed))
	}
	res.Duration = s.now().Sub(start)
	res.DurationMS = float64(res.Duration.Microseconds()) / 1000
	if req.Verbose {
		res.Conflicts = clog.Entries()
	}

	counts := clog.Counts()
	s.bus.Publish(events.SearchCompleted{
		RunID:        runID,
		Source:       source,
		Groups:       len(req.Groups),
		Space:        space,
		Combinations: len(res.Schedules),
		Conflicts:    counts,
		Truncated:    res.Truncated,
		Duration:     res.Duration,
		Err:          searchErr,
	})
	s.record(ctx, req, res, space, source, counts, searchErr)

	if searchErr != nil {
		s.log.Warnf("search %s abandoned after %d schedules: %v", runID, len(res.Schedules), searchErr)
		return nil, fmt.Errorf("search %s: %w", runID, searchErr)
	}
	s.log.Infof("search %s produced %d schedules in %s (%d conflicts)", runID, len(res.Schedules), res.Duration, clog.Len())
	return res, nil
}

// record appends the run to the run log. Failures never fail the search.
func (s *Service) record(ctx context.Context, req *request.Request, res *Result, space int64, source string, counts map[conflict.Reason]int, searchErr error) {
	rec := runlog.RunRecord{
		RunID:        res.RunID,
		Timestamp:    s.now(),
		Source:       source,
		Groups:       len(req.Groups),
		Fixed:        len(req.Fixed),
		Exclusions:   len(req.Exclusions),
		Space:        space,
		Combinations: len(res.Schedules),
		Truncated:    res.Truncated,
		DurationMS:   res.DurationMS,
	}
	if searchErr != nil {
		rec.Error = searchErr.Error()
	}
	if len(counts) > 0 {
		rec.Conflicts = make(map[string]int, len(counts))
		for r, n := range counts {
			rec.Conflicts[string(r)] = n
		}
	}
	// The request context may already be done; the record is still wanted.
	actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.runs.Append(actx, rec); err != nil {
		s.log.Errorf("run log append %s: %v", res.RunID, err)
		coremon.CaptureException(err, map[string]string{"component": "run_log", "run_id": res.RunID})
	}
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, request.ErrEmptyRequest):
		return "empty"
	case errors.Is(err, request.ErrDuplicateOption):
		return "duplicate_option"
	case errors.Is(err, request.ErrNegativeLimit):
		return "negative_limit"
	case errors.Is(err, request.ErrUnsupportedFormat):
		return "unsupported_format"
	default:
		return "invalid"
	}
}

// Reject reports a request that failed to decode before reaching Generate.
func (s *Service) Reject(ctx context.Context, err error) {
	s.bus.Publish(events.RequestRejected{Source: sourceOf(ctx), Reason: rejectionReason(err), Err: err})
}

// QueryRuns reads the run log.
func (s *Service) QueryRuns(ctx context.Context, q runlog.RunQuery) ([]runlog.RunRecord, error) {
	return s.runs.Query(ctx, q)
}

// Run serves api over HTTP, the Prometheus endpoint and, when enabled, the
// MQTT responder. It blocks until ctx is cancelled.
func (s *Service) Run(ctx context.Context, api http.Handler) error {
	if s.cfg.Metrics.PrometheusAddr != "" {
		go func() {
			if err := metrics.StartPromServer(ctx, s.cfg.Metrics.PrometheusAddr); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	if s.cfg.MQTT.Enabled {
		responder, err := mqtt.NewResponder(ctx, s.cfg.MQTT, s.handleMQTT)
		if err != nil {
			return fmt.Errorf("mqtt responder: %w", err)
		}
		defer responder.Close()
	}

	srv := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           api,
		ReadHeaderTimeout: s.cfg.Server.ReadTimeout(),
		ReadTimeout:       s.cfg.Server.ReadTimeout(),
		WriteTimeout:      s.cfg.Server.WriteTimeout(),
	}
	errc := make(chan error, 1)
	go func() {
		s.log.Infof("HTTP API listening on %s", s.cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()
	select {
	case err := <-errc:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.log.Warnf("http shutdown: %v", err)
	}
	return nil
}

func (s *Service) handleMQTT(ctx context.Context, requestID string, req *request.Request) (any, error) {
	s.log.Debugf("mqtt request %s", requestID)
	return s.Generate(WithSource(ctx, "mqtt"), req)
}

// Close releases the bus, the metrics collector and the run log. It is safe
// to call more than once.
func (s *Service) Close() error {
	s.closeOnce.Do(func() {
		// Closing the bus lets the collector drain pending events before it exits.
		s.bus.Close()
		<-s.done
		s.stop()
		if c, ok := s.sink.(interface{ Close() }); ok {
			c.Close()
		}
		s.closeErr = s.runs.Close()
	})
	return s.closeErr
}
