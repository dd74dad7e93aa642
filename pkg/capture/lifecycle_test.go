package capture

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLifecycle(t *testing.T) {
	var l Lifecycle
	assert.Equal(t, NotStarted, l.State())
	assert.False(t, l.LastSuccess())

	l.OnStart()
	assert.Equal(t, Loading, l.State())
	assert.False(t, l.LastSuccess())

	assert.True(t, l.OnFinish(true))
	assert.Equal(t, Completed, l.State())
	assert.True(t, l.LastSuccess())

	// repeated finish for the same load is ignored
	assert.False(t, l.OnFinish(false))
	assert.True(t, l.LastSuccess())

	// a new load clears the flag
	l.OnStart()
	assert.Equal(t, Loading, l.State())
	assert.False(t, l.LastSuccess())
	assert.True(t, l.OnFinish(false))
	assert.False(t, l.LastSuccess())
}

func TestLifecycleFinishWithoutStart(t *testing.T) {
	var l Lifecycle
	assert.True(t, l.OnFinish(true))
	assert.True(t, l.LastSuccess())
}

func TestRaceDisabled(t *testing.T) {
	r := NewRace(0)
	assert.False(t, r.Armed())
	assert.Nil(t, r.Expired())
	r.Disarm()
}

func TestRaceExpires(t *testing.T) {
	r := NewRace(time.Millisecond)
	assert.True(t, r.Armed())

	select {
	case <-r.Expired():
	case <-time.After(time.Second):
		t.Fatal("timer did not fire")
	}
}

func TestRaceDisarm(t *testing.T) {
	r := NewRace(20 * time.Millisecond)
	r.Disarm()

	select {
	case <-r.Expired():
		t.Fatal("disarmed timer fired")
	case <-time.After(60 * time.Millisecond):
	}
}

func TestRaceTriggerOnce(t *testing.T) {
	r := NewRace(time.Second)
	defer r.Disarm()

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if r.Trigger() {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	assert.True(t, r.Triggered())
}
