package evaluator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAwaitReturnsImmediatelyWhenAlreadySatisfied(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	err := Await(ctx, func() string { return "ready" }, Contains("ready"), time.Millisecond)
	assert.NoError(t, err)
}

func TestAwaitPollsUntilSatisfied(t *testing.T) {
	calls := 0
	sampler := func() string {
		calls++
		if calls >= 3 {
			return "done"
		}
		return "pending"
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	err := Await(ctx, sampler, Contains("done"), time.Millisecond)
	assert.NoError(t, err)
	assert.GreaterOrEqual(t, calls, 3)
}

func TestAwaitTimesOut(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := Await(ctx, func() string { return "never" }, Contains("done"), time.Millisecond)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestExpectIsSingleShot(t *testing.T) {
	assert.True(t, Expect(func() string { return "abc" }, Contains("ab")))
	assert.False(t, Expect(func() string { return "abc" }, Contains("zz")))
}
