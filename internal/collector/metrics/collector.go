package metrics

import (
	"sync/atomic"
	"time"

	"github.com/ALEYI17/ofh_timing/pkg/types"
)

// TimingCollector accumulates skipped OTA symbol counters. Update is called
// only by the timing worker; Flush may be called from any goroutine.
type TimingCollector struct {
	skipped  atomic.Uint64
	maxBurst atomic.Uint32
}

var _ types.TimingCollector = (*TimingCollector)(nil)

func NewTimingCollector() *TimingCollector {
	return &TimingCollector{}
}

// Update records one burst of skipped symbols. A zero burst is ignored.
func (tc *TimingCollector) Update(skipped uint32) {
	if skipped == 0 {
		return
	}
	tc.skipped.Add(uint64(skipped))

	for {
		cur := tc.maxBurst.Load()
		if skipped <= cur {
			return
		}
		if tc.maxBurst.CompareAndSwap(cur, skipped) {
			return
		}
	}
}

// Flush returns the counters accumulated since the previous Flush and
// resets them.
func (tc *TimingCollector) Flush() types.TimingReport {
	return types.TimingReport{
		SkippedSymbols:  tc.skipped.Swap(0),
		MaxSkippedBurst: tc.maxBurst.Swap(0),
		Timestamp:       time.Now(),
	}
}
