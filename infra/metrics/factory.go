package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/RixhersAjazi/schedulemaker/core/factory"
	corelogger "github.com/RixhersAjazi/schedulemaker/core/logger"
	coremetrics "github.com/RixhersAjazi/schedulemaker/core/metrics"
	"github.com/RixhersAjazi/schedulemaker/infra/logger"
)

// loggerFor is replaced in tests.
var loggerFor = func(component string) corelogger.Logger { return logger.New(component) }

// init registers built-in metrics sinks.
func init() {
	_ = coremetrics.RegisterMetricsSink("nop", func(map[string]any) (coremetrics.MetricsSink, error) {
		return coremetrics.NopSink{}, nil
	})

	_ = coremetrics.RegisterMetricsSink("prometheus", func(map[string]any) (coremetrics.MetricsSink, error) {
		return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
	})

	_ = coremetrics.RegisterMetricsSink("influx", func(conf map[string]any) (coremetrics.MetricsSink, error) {
		var c InfluxConfig
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewInfluxSinkWithFallback(c), nil
	})
}
