package crawler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGateEnforcesDelayBetweenRequests(t *testing.T) {
	gate := NewPolitenessGate(60*time.Millisecond, RateLimiterSettings{})
	ctx := context.Background()

	start := time.Now()
	require.NoError(t, gate.Wait(ctx, "example.com"))
	require.NoError(t, gate.Wait(ctx, "example.com"))
	require.NoError(t, gate.Wait(ctx, "example.com"))

	assert.GreaterOrEqual(t, time.Since(start), 120*time.Millisecond)
}

func TestGateDelaysAreStackedAcrossWorkers(t *testing.T) {
	gate := NewPolitenessGate(50*time.Millisecond, RateLimiterSettings{})
	ctx := context.Background()

	require.NoError(t, gate.Wait(ctx, "example.com"))
	start := time.Now()

	// Concurrent waiters must serialize, not release together after one
	// delay interval.
	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = gate.Wait(ctx, "example.com")
		}()
	}
	wg.Wait()

	assert.GreaterOrEqual(t, time.Since(start), 150*time.Millisecond)
}

func TestGateHostsAreIndependent(t *testing.T) {
	gate := NewPolitenessGate(200*time.Millisecond, RateLimiterSettings{})
	ctx := context.Background()

	require.NoError(t, gate.Wait(ctx, "a.example.com"))
	start := time.Now()
	require.NoError(t, gate.Wait(ctx, "b.example.com"))
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestGateZeroDelayPassesThrough(t *testing.T) {
	gate := NewPolitenessGate(0, RateLimiterSettings{})
	start := time.Now()
	for i := 0; i < 100; i++ {
		require.NoError(t, gate.Wait(context.Background(), "example.com"))
	}
	assert.Less(t, time.Since(start), 50*time.Millisecond)
}

func TestGateWaitRespectsCancellation(t *testing.T) {
	gate := NewPolitenessGate(time.Minute, RateLimiterSettings{})
	ctx := context.Background()
	require.NoError(t, gate.Wait(ctx, "example.com"))

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	assert.ErrorIs(t, gate.Wait(cancelled, "example.com"), context.Canceled)
}
