package types

import (
	"context"
	"time"
)

// TimingReport holds the skipped symbol counters read by one reset-on-read poll.
type TimingReport struct {
	SkippedSymbols  uint64
	MaxSkippedBurst uint32
	Timestamp       time.Time
}

type TimingCollector interface {
	Update(skipped uint32)
	Flush() TimingReport
	Run(context.Context, time.Duration) <-chan TimingReport
}
