package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStepClock_AdvancesByStep(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := NewStepClock(start, time.Millisecond)

	assert.Equal(t, start, clock.Now())
	assert.Equal(t, start.Add(time.Millisecond), clock.Now())
	assert.Equal(t, start.Add(2*time.Millisecond), clock.Now())
	assert.Equal(t, 3, clock.Calls())
}

func TestStepClock_ElapsedIsOneStep(t *testing.T) {
	clock := NewStepClock(time.Unix(0, 0), 5*time.Second)

	begin := clock.Now()
	end := clock.Now()
	assert.Equal(t, 5*time.Second, end.Sub(begin))
}

func TestStepClock_ConcurrentUse(t *testing.T) {
	clock := NewStepClock(time.Unix(0, 0), time.Nanosecond)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				clock.Now()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1000, clock.Calls())
	assert.Equal(t, time.Unix(0, 1000), clock.Now())
}
