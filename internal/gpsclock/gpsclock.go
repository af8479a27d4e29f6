package gpsclock

import (
	"errors"
	"fmt"
	"math"
	"time"

	"golang.org/x/sys/unix"
)

const (
	// unixSecondsAtGPSEpoch is 1980-01-06T00:00:00Z in Unix seconds.
	unixSecondsAtGPSEpoch = 315964800
	// leapSeconds accumulated between the GPS epoch and the last insertion
	// (2016-12-31).
	leapSeconds = 18
	// UnixToGPSSeconds is subtracted from the host clock to obtain GPS time.
	UnixToGPSSeconds = unixSecondsAtGPSEpoch - leapSeconds

	// MinYear is the first calendar year a host clock is trusted for.
	MinYear = 1981

	alphaUnitsPerNs = 1.2288
)

var ErrClockBeforeGPSEpoch = errors.New("system clock is before the GPS epoch")

// Source reads the host wall clock.
type Source interface {
	Now() time.Time
}

type SourceFunc func() time.Time

func (f SourceFunc) Now() time.Time { return f() }

// Realtime reads CLOCK_REALTIME.
type Realtime struct{}

func (Realtime) Now() time.Time {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_REALTIME, &ts); err != nil {
		return time.Now()
	}
	return time.Unix(ts.Unix())
}

// Offset converts the fine tuning parameters into the wall clock to GPS
// offset. Alpha is expressed in units of 1/1.2288 ns, beta in units of 10 ms.
func Offset(alpha float64, beta int) time.Duration {
	return time.Duration(math.Round(alpha/alphaUnitsPerNs)) +
		time.Duration(beta)*10*time.Millisecond +
		UnixToGPSSeconds*time.Second
}

func CheckYear(now time.Time) error {
	if y := now.UTC().Year(); y < MinYear {
		return fmt.Errorf("%w: year %d < %d", ErrClockBeforeGPSEpoch, y, MinYear)
	}
	return nil
}

// Clock samples a Source and shifts it to the GPS epoch. A Clock is
// immutable once built.
type Clock struct {
	src    Source
	offset time.Duration
}

func New(src Source, alpha float64, beta int) Clock {
	if src == nil {
		src = Realtime{}
	}
	return Clock{src: src, offset: Offset(alpha, beta)}
}

func (c Clock) Offset() time.Duration { return c.offset }

// Now returns nanoseconds since the GPS epoch.
func (c Clock) Now() int64 {
	return c.src.Now().UnixNano() - int64(c.offset)
}

// Host returns the raw host time.
func (c Clock) Host() time.Time { return c.src.Now() }

// HostTime converts GPS nanoseconds back into host wall clock time.
func (c Clock) HostTime(gpsNs int64) time.Time {
	return time.Unix(0, gpsNs+int64(c.offset))
}
