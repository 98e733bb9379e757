package orders

import (
	"context"
	"fmt"
	"time"
)

// ExpiredDisplay is what an elapsed deadline renders as.
const ExpiredDisplay = "00:00:00:00"

const day = 24 * time.Hour

type Countdown struct {
	Days    int
	Hours   int
	Minutes int
	Seconds int
	Expired bool
}

// Remaining computes start + deadlineDays - now, truncated to whole seconds.
// Anything at or below zero is expired.
func Remaining(start time.Time, deadlineDays int, now time.Time) Countdown {
	diff := start.Add(time.Duration(deadlineDays) * day).Sub(now)
	if diff <= 0 {
		return Countdown{Expired: true}
	}

	total := int64(diff / time.Second)
	return Countdown{
		Days:    int(total / 86400),
		Hours:   int(total % 86400 / 3600),
		Minutes: int(total % 3600 / 60),
		Seconds: int(total % 60),
	}
}

func (c Countdown) String() string {
	if c.Expired {
		return ExpiredDisplay
	}
	return fmt.Sprintf("%dd %dh %dm %ds", c.Days, c.Hours, c.Minutes, c.Seconds)
}

// Tick emits the countdown immediately and then once per interval until the
// deadline passes, ctx is cancelled, or emit fails. The expired value is
// emitted exactly once before Tick returns nil.
func Tick(ctx context.Context, now func() time.Time, start time.Time, deadlineDays int, interval time.Duration, emit func(Countdown) error) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		c := Remaining(start, deadlineDays, now())
		if err := emit(c); err != nil {
			return err
		}
		if c.Expired {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
