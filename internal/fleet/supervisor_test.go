// ABOUTME: Tests for the fleet supervisor registry and shutdown behavior.
// ABOUTME: Covers validation, unknown bots, multi-bot isolation, and idempotent shutdown.

package fleet

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/botherd/botherd/internal/mc"
)

func TestSupervisorStartValidation(t *testing.T) {
	sup := newTestSupervisor(t, mc.NewSimulator(), nil)

	err := sup.Start(BotConfig{Host: "sim.local"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "id is required")

	err = sup.Start(BotConfig{ID: "alpha"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "host is required")
}

func TestSupervisorUnknownBot(t *testing.T) {
	sup := newTestSupervisor(t, mc.NewSimulator(), nil)

	err := sup.Stop("ghost")
	assert.ErrorIs(t, err, ErrUnknownBot)

	_, err = sup.Send("ghost", "hello")
	assert.ErrorIs(t, err, ErrUnknownBot)

	_, err = sup.Status("ghost")
	assert.ErrorIs(t, err, ErrUnknownBot)
}

func TestSupervisorBotsAreIndependent(t *testing.T) {
	sim := mc.NewSimulator(mc.WithAutoSpawn(0))
	sup := newTestSupervisor(t, sim, nil)

	require.NoError(t, sup.Start(testBotConfig("alpha")))
	require.NoError(t, sup.Start(testBotConfig("beta")))
	waitForState(t, sup, "alpha", StateOnline)
	waitForState(t, sup, "beta", StateOnline)

	// Kill alpha's session; beta must not notice.
	cfgStop := sup.Stop("alpha")
	require.NoError(t, cfgStop)
	waitForState(t, sup, "alpha", StateOffline)

	rec, err := sup.Status("beta")
	require.NoError(t, err)
	assert.Equal(t, StateOnline, rec.State)
}

func TestSupervisorAllStatuses(t *testing.T) {
	sim := mc.NewSimulator(mc.WithAutoSpawn(0))
	sup := newTestSupervisor(t, sim, nil)

	require.NoError(t, sup.Start(testBotConfig("alpha")))
	require.NoError(t, sup.Start(testBotConfig("beta")))
	waitForState(t, sup, "alpha", StateOnline)
	waitForState(t, sup, "beta", StateOnline)

	all := sup.AllStatuses()
	require.Len(t, all, 2)
	assert.Equal(t, StateOnline, all["alpha"].State)
	assert.Equal(t, StateOnline, all["beta"].State)
}

func TestSupervisorShutdown(t *testing.T) {
	sim := mc.NewSimulator(mc.WithAutoSpawn(0))
	sup := NewSupervisor(sim, nil, testSettings(), testLogger())

	require.NoError(t, sup.Start(testBotConfig("alpha")))
	waitForState(t, sup, "alpha", StateOnline)

	sup.Shutdown()

	// Every session gets disconnected and the API is closed off.
	require.Eventually(t, func() bool { return sim.LastSession().Disconnected() }, waitTimeout, waitTick)
	assert.ErrorIs(t, sup.Start(testBotConfig("alpha")), ErrShuttingDown)
	_, err := sup.Status("alpha")
	assert.ErrorIs(t, err, ErrShuttingDown)
	assert.Nil(t, sup.AllStatuses())
}

func TestSupervisorShutdownStopsReconnects(t *testing.T) {
	sim := mc.NewSimulator(mc.WithConnectFailures(1000, errors.New("connection refused")))
	sup := NewSupervisor(sim, nil, testSettings(), testLogger())

	require.NoError(t, sup.Start(testBotConfig("alpha")))
	require.Eventually(t, func() bool { return sim.Dials() >= 1 }, waitTimeout, waitTick)

	sup.Shutdown()
	dials := sim.Dials()

	// No retry timer may fire after Shutdown returns.
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, dials, sim.Dials())
}

func TestSupervisorShutdownIdempotent(t *testing.T) {
	sim := mc.NewSimulator(mc.WithAutoSpawn(0))
	sup := NewSupervisor(sim, nil, testSettings(), testLogger())
	require.NoError(t, sup.Start(testBotConfig("alpha")))

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sup.Shutdown()
		}()
	}
	wg.Wait()
}
