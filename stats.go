package sqlback

import "go.uber.org/atomic"

// Stats counts live handles across all backends, the way the daemon's
// status page reports them. A session that is connected but not freed
// counts as one Session; a result that is created but not freed counts
// as one Result.
type Stats struct {
	sessions atomic.Int32
	results  atomic.Int32
}

// Sessions returns the number of open sessions.
func (s *Stats) Sessions() int32 { return s.sessions.Load() }

// Results returns the number of open result cursors.
func (s *Stats) Results() int32 { return s.results.Load() }

var liveStats Stats

// LiveStats returns the process-wide handle counters.
func LiveStats() *Stats { return &liveStats }

// AddSession adjusts the open-session count. Backends call this with
// +1 on a successful Connect and -1 on the first Free.
func AddSession(delta int32) { liveStats.sessions.Add(delta) }

// AddResult adjusts the open-result count. Backends call this with +1
// on a successful Query and -1 on the first Free of the result.
func AddResult(delta int32) { liveStats.results.Add(delta) }
