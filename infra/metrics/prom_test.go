package metrics

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RixhersAjazi/schedulemaker/core/conflict"
	"github.com/RixhersAjazi/schedulemaker/core/events"
	corelogger "github.com/RixhersAjazi/schedulemaker/core/logger"
	coremetrics "github.com/RixhersAjazi/schedulemaker/core/metrics"
	"github.com/RixhersAjazi/schedulemaker/internal/eventbus"
)

func TestPromSink_RecordSearch(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)

	run := coremetrics.SearchRun{
		Source:       "http",
		Combinations: 3,
		Conflicts:    map[conflict.Reason]int{conflict.WithSelection: 2},
		Outcome:      coremetrics.OutcomeTruncated,
		Duration:     time.Millisecond,
	}
	require.NoError(t, sink.RecordSearch(run))
	require.NoError(t, sink.RecordSearch(run))
	require.NoError(t, sink.RecordRejection(coremetrics.RejectedRequest{Source: "http", Reason: "empty"}))

	assert.Equal(t, 2.0, testutil.ToFloat64(sink.searches.WithLabelValues("http", "truncated")))
	assert.Equal(t, 4.0, testutil.ToFloat64(sink.conflicts.WithLabelValues(string(conflict.WithSelection))))
	assert.Equal(t, 1.0, testutil.ToFloat64(sink.rejections.WithLabelValues("http", "empty")))
	assert.Equal(t, 1, testutil.CollectAndCount(sink.duration))
}

func TestPromSink_ReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	a, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)
	b, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)

	require.NoError(t, a.RecordSearch(coremetrics.SearchRun{Source: "cli", Outcome: coremetrics.OutcomeComplete}))
	assert.Equal(t, 1.0, testutil.ToFloat64(b.searches.WithLabelValues("cli", "complete")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)
	require.NoError(t, sink.RecordSearch(coremetrics.SearchRun{Source: "http", Outcome: coremetrics.OutcomeComplete}))

	srv := httptest.NewServer(Handler(reg))
	defer srv.Close()
	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.True(t, strings.Contains(string(body), `schedule_searches_total{outcome="complete",source="http"} 1`))
}

type chanSink struct {
	runs       chan coremetrics.SearchRun
	rejections chan coremetrics.RejectedRequest
}

func (c *chanSink) RecordSearch(r coremetrics.SearchRun) error {
	c.runs <- r
	return nil
}

func (c *chanSink) RecordRejection(r coremetrics.RejectedRequest) error {
	c.rejections <- r
	return nil
}

func TestStartEventCollector(t *testing.T) {
	prev := loggerFor
	loggerFor = func(string) corelogger.Logger { return corelogger.Nop{} }
	defer func() { loggerFor = prev }()

	bus := eventbus.New[events.Event]()
	sink := &chanSink{runs: make(chan coremetrics.SearchRun, 2), rejections: make(chan coremetrics.RejectedRequest, 1)}
	ctx, cancel := context.WithCancel(context.Background())
	done := StartEventCollector(ctx, bus, sink)

	bus.Publish(events.SearchStarted{RunID: "r1"})
	bus.Publish(events.SearchCompleted{RunID: "r1", Source: "http", Combinations: 2, Truncated: true})
	bus.Publish(events.SearchCompleted{RunID: "r2", Source: "mqtt", Err: context.Canceled})
	bus.Publish(events.RequestRejected{Source: "http", Reason: "empty", Err: errors.New("empty")})

	r1 := <-sink.runs
	assert.Equal(t, "r1", r1.RunID)
	assert.Equal(t, coremetrics.OutcomeTruncated, r1.Outcome)
	r2 := <-sink.runs
	assert.Equal(t, coremetrics.OutcomeCancelled, r2.Outcome)
	rej := <-sink.rejections
	assert.Equal(t, "empty", rej.Reason)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("collector did not stop")
	}
}

func TestStartEventCollectorNilBus(t *testing.T) {
	done := StartEventCollector(context.Background(), nil, coremetrics.NopSink{})
	select {
	case <-done:
	default:
		t.Fatal("expected closed channel for nil bus")
	}
}
