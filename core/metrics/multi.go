package metrics

// MultiSink fans out records to multiple sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordSearch forwards the run to all sinks, returning the first error
// encountered.
func (m *MultiSink) RecordSearch(run SearchRun) error {
	for _, s := range m.Sinks {
		if err := s.RecordSearch(run); err != nil {
			return err
		}
	}
	return nil
}

// RecordRejection forwards to the sinks that support it.
func (m *MultiSink) RecordRejection(ev RejectedRequest) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(RejectionRecorder); ok {
			if err := rec.RecordRejection(ev); err != nil {
				return err
			}
		}
	}
	return nil
}
