package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/RixhersAjazi/schedulemaker/core/events"
	coremetrics "github.com/RixhersAjazi/schedulemaker/core/metrics"
	"github.com/RixhersAjazi/schedulemaker/internal/eventbus"
)

// StartEventCollector subscribes to the event bus and records a SearchRun for
// every SearchCompleted event and a rejection for every RequestRejected event.
// It stops when the context is canceled or the bus is closed; the returned
// channel is closed once the collector has exited.
func StartEventCollector(ctx context.Context, bus *eventbus.Bus[events.Event], sink coremetrics.MetricsSink) <-chan struct{} {
	done := make(chan struct{})
	if bus == nil || sink == nil {
		close(done)
		return done
	}
	sub := bus.Subscribe()
	log := loggerFor("metrics-collector")
	go func() {
		defer close(done)
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				switch e := ev.(type) {
				case events.SearchCompleted:
					if err := sink.RecordSearch(toSearchRun(e)); err != nil {
						log.Warnf("record search %s: %v", e.RunID, err)
					}
				case events.RequestRejected:
					r, ok := sink.(coremetrics.RejectionRecorder)
					if !ok {
						continue
					}
					if err := r.RecordRejection(coremetrics.RejectedRequest{Source: e.Source, Reason: e.Reason, Time: time.Now()}); err != nil {
						log.Warnf("record rejection: %v", err)
					}
				default:
					log.Debugf("collector skips %s", events.Name(ev))
				}
			}
		}
	}()
	return done
}

func toSearchRun(e events.SearchCompleted) coremetrics.SearchRun {
	outcome := coremetrics.OutcomeComplete
	switch {
	case e.Err != nil && (errors.Is(e.Err, context.Canceled) || errors.Is(e.Err, context.DeadlineExceeded)):
		outcome = coremetrics.OutcomeCancelled
	case e.Truncated:
		outcome = coremetrics.OutcomeTruncated
	}
	return coremetrics.SearchRun{
		RunID:        e.RunID,
		Source:       e.Source,
		Groups:       e.Groups,
		Space:        e.Space,
		Combinations: e.Combinations,
		Conflicts:    e.Conflicts,
		Outcome:      outcome,
		Duration:     e.Duration,
		Time:         time.Now(),
	}
}
