package metrics

import (
	"context"
	"runtime"
	"time"
)

// RunSystemSampler samples memory, goroutine and GC pause figures every
// refresh interval until ctx is done.
func (m *Manager) RunSystemSampler(ctx context.Context) {
	ticker := time.NewTicker(m.refreshInterval)
	defer ticker.Stop()

	var lastGC uint32
	for {
		lastGC = m.sampleSystem(lastGC)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// sampleSystem records one sample and returns the GC cycle count it has
// observed pauses up to.
func (m *Manager) sampleSystem(lastGC uint32) uint32 {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	m.UpdateSystem(ms.Alloc, runtime.NumGoroutine())

	// PauseNs is a ring of the most recent 256 pauses.
	from := lastGC
	if ms.NumGC-from > uint32(len(ms.PauseNs)) {
		from = ms.NumGC - uint32(len(ms.PauseNs))
	}
	for i := from; i < ms.NumGC; i++ {
		pause := ms.PauseNs[i%uint32(len(ms.PauseNs))]
		m.RecordSystemGCPauseTime(float64(pause) / float64(time.Millisecond))
	}
	return ms.NumGC
}
