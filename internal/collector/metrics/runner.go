package metrics

import (
	"context"
	"time"

	"github.com/ALEYI17/ofh_timing/pkg/types"
)

// Run flushes the collector every interval until ctx is done. A report the
// reader has not picked up yet is merged into the next one.
func (tc *TimingCollector) Run(ctx context.Context, interval time.Duration) <-chan types.TimingReport {
	out := make(chan types.TimingReport, 1)

	go func() {
		defer close(out)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		var pending *types.TimingReport
		for {
			var send chan types.TimingReport
			var next types.TimingReport
			if pending != nil {
				send, next = out, *pending
			}
			select {
			case <-ctx.Done():
				return
			case send <- next:
				pending = nil
			case <-ticker.C:
				r := tc.Flush()
				if pending != nil {
					r.SkippedSymbols += pending.SkippedSymbols
					r.MaxSkippedBurst = max(r.MaxSkippedBurst, pending.MaxSkippedBurst)
				}
				pending = &r
			}
		}
	}()

	return out
}
