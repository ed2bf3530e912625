package notify

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPacer_SpacesConsecutiveWaits(t *testing.T) {
	p := NewPacer(20 * time.Millisecond)
	ctx := context.Background()

	start := time.Now()
	require.NoError(t, p.Wait(ctx))
	assert.Less(t, time.Since(start), 15*time.Millisecond, "first wait should not block")

	require.NoError(t, p.Wait(ctx))
	require.NoError(t, p.Wait(ctx))
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func TestPacer_HonorsCancellation(t *testing.T) {
	p := NewPacer(time.Hour)
	require.NoError(t, p.Wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, p.Wait(ctx), context.DeadlineExceeded)
}

func TestPacingPolicy_ZeroDisables(t *testing.T) {
	policy := PacingPolicy{}
	assert.Equal(t, NoPacing, policy.Coordinators())
	assert.Equal(t, NoPacing, policy.Students())

	policy = PacingPolicy{Coordinator: 300 * time.Millisecond, Student: 100 * time.Millisecond}
	assert.NotEqual(t, NoPacing, policy.Coordinators())
}

func TestPacer_FirstWaitHonorsCancelledContext(t *testing.T) {
	p := NewPacer(time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, p.Wait(ctx), context.Canceled)
	assert.ErrorIs(t, NoPacing.Wait(ctx), context.Canceled)
}
