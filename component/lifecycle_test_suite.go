package component

import (
	"context"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// LifecycleTestConfig drives StandardLifecycleTests against one
// component implementation.
type LifecycleTestConfig struct {
	// ComponentName labels the subtests.
	ComponentName string

	// Factory returns a fresh, unstarted component. It is called once
	// per subtest; components may share infrastructure (a test NATS
	// server, for example) through the closure.
	Factory func(t *testing.T) LifecycleComponent

	// StopTimeout bounds every Stop call in the suite. Zero means 5s.
	StopTimeout time.Duration
}

func (cfg LifecycleTestConfig) stopTimeout() time.Duration {
	if cfg.StopTimeout <= 0 {
		return 5 * time.Second
	}
	return cfg.StopTimeout
}

// StandardLifecycleTests exercises the lifecycle contract every
// pipeline component shares: Initialize is repeatable, Start and Stop
// bracket a running state that Health reflects, redundant transitions
// are harmless, and a stopped component can start again.
//
// Double Start is deliberately loose. Components may treat it as a
// no-op or reject it, but either way the component must keep running
// and stop cleanly afterwards.
func StandardLifecycleTests(t *testing.T, cfg LifecycleTestConfig) {
	t.Helper()
	require.NotEmpty(t, cfg.ComponentName, "config needs a component name")
	require.NotNil(t, cfg.Factory, "config needs a factory")

	t.Run(cfg.ComponentName+"/InitializeRepeatable", func(t *testing.T) {
		comp := cfg.Factory(t)
		require.NoError(t, comp.Initialize())
		assert.NoError(t, comp.Initialize(), "second Initialize must not fail")
	})

	t.Run(cfg.ComponentName+"/StartStop", func(t *testing.T) {
		comp := cfg.Factory(t)
		require.NoError(t, comp.Initialize())
		require.NoError(t, comp.Start(context.Background()))
		assert.True(t, comp.Health().Healthy, "running component reports healthy")
		require.NoError(t, comp.Stop(cfg.stopTimeout()))
		assert.False(t, comp.Health().Healthy, "stopped component reports unhealthy")
	})

	t.Run(cfg.ComponentName+"/DoubleStart", func(t *testing.T) {
		comp := cfg.Factory(t)
		require.NoError(t, comp.Initialize())
		require.NoError(t, comp.Start(context.Background()))

		// Idempotent or rejected; never a hang or a panic.
		_ = comp.Start(context.Background())

		assert.True(t, comp.Health().Healthy, "component keeps running after a redundant Start")
		require.NoError(t, comp.Stop(cfg.stopTimeout()))
	})

	t.Run(cfg.ComponentName+"/StopWithoutStart", func(t *testing.T) {
		comp := cfg.Factory(t)
		require.NoError(t, comp.Initialize())
		assert.NoError(t, comp.Stop(cfg.stopTimeout()), "stopping a never-started component is a no-op")
	})

	t.Run(cfg.ComponentName+"/DoubleStop", func(t *testing.T) {
		comp := cfg.Factory(t)
		require.NoError(t, comp.Initialize())
		require.NoError(t, comp.Start(context.Background()))
		require.NoError(t, comp.Stop(cfg.stopTimeout()))
		assert.NoError(t, comp.Stop(cfg.stopTimeout()), "second Stop must not fail")
	})

	t.Run(cfg.ComponentName+"/RestartAfterStop", func(t *testing.T) {
		comp := cfg.Factory(t)
		require.NoError(t, comp.Initialize())

		for cycle := 0; cycle < 3; cycle++ {
			require.NoError(t, comp.Start(context.Background()), "start cycle %d", cycle)
			assert.True(t, comp.Health().Healthy, "cycle %d", cycle)
			require.NoError(t, comp.Stop(cfg.stopTimeout()), "stop cycle %d", cycle)
			assert.False(t, comp.Health().Healthy, "cycle %d", cycle)
		}
	})

	t.Run(cfg.ComponentName+"/ConcurrentStartStop", func(t *testing.T) {
		comp := cfg.Factory(t)
		require.NoError(t, comp.Initialize())

		// Racing Start against Stop must never corrupt state. The
		// individual calls may fail; the component just has to survive
		// them and stop cleanly at the end.
		var wg sync.WaitGroup
		for i := 0; i < 4; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 10; j++ {
					_ = comp.Start(context.Background())
					_ = comp.Stop(cfg.stopTimeout())
				}
			}()
		}
		wg.Wait()

		require.NoError(t, comp.Stop(cfg.stopTimeout()))
		assert.False(t, comp.Health().Healthy)
	})

	t.Run(cfg.ComponentName+"/ObserversDuringLifecycle", func(t *testing.T) {
		comp := cfg.Factory(t)
		require.NoError(t, comp.Initialize())

		// Status endpoints poll components whatever state they are in.
		done := make(chan struct{})
		var wg sync.WaitGroup
		for i := 0; i < 3; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for {
					select {
					case <-done:
						return
					default:
						_ = comp.Health()
						_ = comp.DataFlow()
						_ = comp.Meta()
					}
				}
			}()
		}

		for cycle := 0; cycle < 3; cycle++ {
			require.NoError(t, comp.Start(context.Background()))
			require.NoError(t, comp.Stop(cfg.stopTimeout()))
		}
		close(done)
		wg.Wait()
	})
}

// LifecycleSoakTest cycles fresh components through their full
// lifecycle and fails when goroutines accumulate. Run it only against
// factories whose components own every resource they use: a factory
// wired to a shared message bus leaves one subscription per cycle
// behind by design, and this test will call that a leak.
func LifecycleSoakTest(t *testing.T, cfg LifecycleTestConfig, cycles int) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping soak test in short mode")
	}
	require.NotNil(t, cfg.Factory, "config needs a factory")

	runtime.GC()
	before := runtime.NumGoroutine()

	for cycle := 0; cycle < cycles; cycle++ {
		comp := cfg.Factory(t)
		require.NoError(t, comp.Initialize(), "cycle %d", cycle)
		require.NoError(t, comp.Start(context.Background()), "cycle %d", cycle)
		require.NoError(t, comp.Stop(cfg.stopTimeout()), "cycle %d", cycle)
	}

	// Give exited goroutines a moment to be reaped before counting.
	var after int
	for attempt := 0; attempt < 20; attempt++ {
		runtime.GC()
		time.Sleep(50 * time.Millisecond)
		after = runtime.NumGoroutine()
		if after <= before+2 {
			break
		}
	}

	assert.LessOrEqual(t, after, before+5,
		"goroutines grew from %d to %d over %d lifecycle cycles", before, after, cycles)
}
