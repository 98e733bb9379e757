package orders

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestRemaining_AtStart(t *testing.T) {
	c := Remaining(t0, 3, t0)
	assert.Equal(t, Countdown{Days: 3}, c)
	assert.Equal(t, "3d 0h 0m 0s", c.String())
}

func TestRemaining_PartWay(t *testing.T) {
	now := t0.Add(26*time.Hour + 30*time.Minute + 15*time.Second + 400*time.Millisecond)
	c := Remaining(t0, 2, now)
	assert.Equal(t, Countdown{Days: 0, Hours: 21, Minutes: 29, Seconds: 44}, c)
	assert.False(t, c.Expired)
}

func TestRemaining_ExactlyAtDeadline(t *testing.T) {
	c := Remaining(t0, 3, t0.Add(3*24*time.Hour))
	assert.True(t, c.Expired)
	assert.Equal(t, ExpiredDisplay, c.String())
}

func TestRemaining_PastDeadline(t *testing.T) {
	c := Remaining(t0, 3, t0.Add(3*24*time.Hour+time.Second))
	assert.True(t, c.Expired)
	assert.Equal(t, Countdown{Expired: true}, c)
}

func TestRemaining_LastSecond(t *testing.T) {
	c := Remaining(t0, 1, t0.Add(24*time.Hour-time.Second))
	assert.False(t, c.Expired)
	assert.Equal(t, "0d 0h 0m 1s", c.String())
}

func TestTick_StopsAfterExpired(t *testing.T) {
	now := t0.Add(24*time.Hour - 2*time.Second)
	clock := func() time.Time {
		current := now
		now = now.Add(time.Second)
		return current
	}

	var frames []Countdown
	err := Tick(context.Background(), clock, t0, 1, time.Millisecond, func(c Countdown) error {
		frames = append(frames, c)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, frames, 3)
	assert.Equal(t, 2, frames[0].Seconds)
	assert.Equal(t, 1, frames[1].Seconds)
	assert.True(t, frames[2].Expired)
}

func TestTick_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Tick(ctx, func() time.Time { return t0 }, t0, 5, time.Hour, func(Countdown) error {
		calls++
		cancel()
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestTick_EmitError(t *testing.T) {
	boom := errors.New("client gone")
	err := Tick(context.Background(), func() time.Time { return t0 }, t0, 5, time.Millisecond, func(Countdown) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
}
