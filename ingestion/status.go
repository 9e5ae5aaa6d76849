package ingestion

// Counters tallies what happened to submitted text.
type Counters struct {
	Accepted       int
	TooShort       int
	Filtered       int
	Duplicates     int
	NearDuplicates int
}

// Status is a point-in-time view of the collector for status surfaces.
type Status struct {
	State          State
	Pending        int
	Persisted      int // cumulative chunks written to the store
	Embedded       int // of Persisted, how many carried a vector
	InsertFailures int
	LastError      string
	Counters       Counters
}

// Collecting reports whether the collector accepts events.
func (s Status) Collecting() bool {
	return s.State == StateCollecting
}

// Status returns the current collector status.
func (c *Collector) Status() Status {
	c.mu.Lock()
	st := Status{
		State:    c.state,
		Pending:  len(c.pending),
		Counters: c.counters,
	}
	c.mu.Unlock()

	c.resultMu.Lock()
	st.Persisted = c.persisted
	st.Embedded = c.embedded
	st.InsertFailures = c.failures
	st.LastError = c.lastError
	c.resultMu.Unlock()
	return st
}
