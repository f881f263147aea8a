package resilience

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBuild = errors.New("build failed")

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestBreaker(clock *fakeClock, trips uint32) *Breaker {
	return New("test", Settings{
		MaxProbes: 1,
		Interval:  time.Minute,
		Cooldown:  10 * time.Second,
		ReadyToTrip: func(counts Counts) bool {
			return counts.ConsecutiveFailures >= trips
		},
		Now: clock.Now,
	})
}

func succeed() (string, error) { return "ok", nil }
func fail() (string, error) { return "", errBuild }

func TestBreakerStateTransitions(t *testing.T) {
	tests := []struct {
		name     string
		requests []bool // true = success
		want     State
	}{
		{name: "stays closed on successes", requests: []bool{true, true, true}, want: StateClosed},
		{name: "opens after consecutive failures", requests: []bool{false, false, false}, want: StateOpen},
		{name: "success resets the streak", requests: []bool{false, false, true, false}, want: StateClosed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := &fakeClock{now: time.Unix(0, 0)}
			breaker := newTestBreaker(clock, 3)
			for _, ok := range tt.requests {
				fn := fail
				if ok {
					fn = succeed
				}
				_, _ = Do(breaker, fn)
			}
			assert.Equal(t, tt.want, breaker.State())
		})
	}
}

func TestBreakerCounts(t *testing.T) {
	breaker := newTestBreaker(&fakeClock{now: time.Unix(0, 0)}, 5)

	got, err := Do(breaker, succeed)
	require.NoError(t, err)
	assert.Equal(t, "ok", got)

	_, err = Do(breaker, fail)
	assert.ErrorIs(t, err, errBuild)

	assert.Equal(t, Counts{
		Requests:            2,
		TotalSuccesses:      1,
		TotalFailures:       1,
		ConsecutiveFailures: 1,
	}, breaker.Counts())
}

func TestBreakerOpenFailsFast(t *testing.T) {
	breaker := newTestBreaker(&fakeClock{now: time.Unix(0, 0)}, 2)
	_, _ = Do(breaker, fail)
	_, _ = Do(breaker, fail)
	require.Equal(t, StateOpen, breaker.State())

	called := false
	_, err := Do(breaker, func() (string, error) {
		called = true
		return "ok", nil
	})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)
}

func TestBreakerHalfOpenRecovery(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	var changes []string
	breaker := newTestBreaker(clock, 1)
	breaker.settings.OnStateChange = func(name string, from, to State) {
		changes = append(changes, from.String()+">"+to.String())
	}

	_, _ = Do(breaker, fail)
	require.Equal(t, StateOpen, breaker.State())

	clock.Advance(10 * time.Second)
	assert.Equal(t, StateHalfOpen, breaker.State())

	_, err := Do(breaker, succeed)
	require.NoError(t, err)
	assert.Equal(t, StateClosed, breaker.State())
	assert.Equal(t, []string{"closed>open", "open>half-open", "half-open>closed"}, changes)
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	breaker := newTestBreaker(clock, 1)

	_, _ = Do(breaker, fail)
	clock.Advance(10 * time.Second)
	_, err := Do(breaker, fail)
	assert.ErrorIs(t, err, errBuild)
	assert.Equal(t, StateOpen, breaker.State())

	clock.Advance(5 * time.Second)
	_, err = Do(breaker, succeed)
	assert.ErrorIs(t, err, ErrCircuitOpen)
}

func TestBreakerHalfOpenLimitsProbes(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	breaker := newTestBreaker(clock, 1)
	_, _ = Do(breaker, fail)
	clock.Advance(10 * time.Second)

	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		_, err := Do(breaker, func() (string, error) {
			<-release
			return "ok", nil
		})
		done <- err
	}()

	assert.Eventually(t, func() bool { return breaker.Counts().Requests == 1 }, time.Second, time.Millisecond)
	_, err := Do(breaker, succeed)
	assert.ErrorIs(t, err, ErrTooManyRequests)

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, StateClosed, breaker.State())
}

func TestBreakerIntervalClearsCounts(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	breaker := newTestBreaker(clock, 3)
	_, _ = Do(breaker, fail)
	_, _ = Do(breaker, fail)

	clock.Advance(time.Minute + time.Second)
	_, _ = Do(breaker, fail)
	assert.Equal(t, StateClosed, breaker.State())
	assert.Equal(t, uint32(1), breaker.Counts().ConsecutiveFailures)
}

func TestBreakerPanicCountsAsFailure(t *testing.T) {
	breaker := newTestBreaker(&fakeClock{now: time.Unix(0, 0)}, 1)

	assert.Panics(t, func() {
		_, _ = Do(breaker, func() (string, error) { panic("boom") })
	})
	assert.Equal(t, StateOpen, breaker.State())
}

func TestNewFillsDefaults(t *testing.T) {
	breaker := New("defaults", Settings{})
	assert.Equal(t, "defaults", breaker.Name())
	assert.Equal(t, uint32(1), breaker.settings.MaxProbes)
	assert.Equal(t, 30*time.Second, breaker.settings.Cooldown)
	assert.NotNil(t, breaker.settings.ReadyToTrip)
	assert.Equal(t, StateClosed, breaker.State())
	assert.Equal(t, "unknown", State(9).String())
}
