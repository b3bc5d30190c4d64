package api

import (
	"net/http"
	"runtime"
	"time"
)

// SystemMetrics is the metrics response.
type SystemMetrics struct {
	Timestamp     string         `json:"timestamp"`
	Version       string         `json:"version"`
	UptimeSeconds int64          `json:"uptime_seconds"`
	Runtime       RuntimeMetrics `json:"runtime"`
	Lock          LockMetrics    `json:"lock"`
	Link          *LinkMetrics   `json:"link,omitempty"`
}

// RuntimeMetrics contains Go runtime statistics.
type RuntimeMetrics struct {
	Goroutines    int     `json:"goroutines"`
	MemoryAllocMB float64 `json:"memory_alloc_mb"`
	NumGC         uint32  `json:"num_gc"`
}

// LockMetrics contains authority counters.
type LockMetrics struct {
	Exchanges uint64 `json:"exchanges"`
	Attempts  int    `json:"attempts"`
	LockedOut bool   `json:"locked_out"`
}

// LinkMetrics contains serial link counters.
type LinkMetrics struct {
	BytesTx      uint64 `json:"bytes_tx"`
	BytesRx      uint64 `json:"bytes_rx"`
	AcksTx       uint64 `json:"acks_tx"`
	AcksRx       uint64 `json:"acks_rx"`
	Discarded    uint64 `json:"discarded"`
	Timeouts     uint64 `json:"timeouts"`
	LastActivity string `json:"last_activity,omitempty"`
}

func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	lock := s.lock.Status()
	m := SystemMetrics{
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Version:       s.version,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		Runtime: RuntimeMetrics{
			Goroutines:    runtime.NumGoroutine(),
			MemoryAllocMB: float64(mem.Alloc) / 1024 / 1024,
			NumGC:         mem.NumGC,
		},
		Lock: LockMetrics{
			Exchanges: lock.Exchanges,
			Attempts:  lock.Attempts,
			LockedOut: lock.LockedOut,
		},
	}

	if s.link != nil {
		st := s.link.Stats()
		lm := &LinkMetrics{
			BytesTx:   st.BytesTx,
			BytesRx:   st.BytesRx,
			AcksTx:    st.AcksTx,
			AcksRx:    st.AcksRx,
			Discarded: st.Discarded,
			Timeouts:  st.Timeouts,
		}
		if !st.LastActivity.IsZero() {
			lm.LastActivity = st.LastActivity.UTC().Format(time.RFC3339)
		}
		m.Link = lm
	}

	writeJSON(w, http.StatusOK, m)
}
