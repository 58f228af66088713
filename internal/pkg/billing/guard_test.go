package billing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// fakeClock lets tests move time forward explicitly.
type fakeClock struct {
	current time.Time
}

func (f *fakeClock) Now() time.Time {
	return f.current
}

func (f *fakeClock) Advance(d time.Duration) {
	f.current = f.current.Add(d)
}

func newTestGuard(staleAfter time.Duration) (*ProcessGuard, *fakeClock) {
	clock := &fakeClock{current: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	return NewProcessGuard(staleAfter, clock.Now), clock
}

func TestProcessGuardBeginBlocksSecondAttempt(t *testing.T) {
	guard, _ := newTestGuard(30 * time.Second)

	ok, startedAt := guard.TryBeginProcessing("cs_test_1")
	assert.True(t, ok)

	ok2, startedAt2 := guard.TryBeginProcessing("cs_test_1")
	assert.False(t, ok2)
	assert.Equal(t, startedAt, startedAt2)
}

func TestProcessGuardIndependentSessions(t *testing.T) {
	guard, _ := newTestGuard(30 * time.Second)

	ok, _ := guard.TryBeginProcessing("cs_test_1")
	assert.True(t, ok)
	ok2, _ := guard.TryBeginProcessing("cs_test_2")
	assert.True(t, ok2)
}

func TestProcessGuardStaleEntryIsTakenOver(t *testing.T) {
	guard, clock := newTestGuard(30 * time.Second)

	ok, _ := guard.TryBeginProcessing("cs_test_1")
	assert.True(t, ok)

	// Just inside the staleness window: still blocked.
	clock.Advance(29 * time.Second)
	ok, _ = guard.TryBeginProcessing("cs_test_1")
	assert.False(t, ok)

	// Past the window: the stuck attempt is considered abandoned.
	clock.Advance(2 * time.Second)
	ok, startedAt := guard.TryBeginProcessing("cs_test_1")
	assert.True(t, ok)
	assert.Equal(t, clock.Now(), startedAt)
}

func TestProcessGuardFinishSuccessMarksCompleted(t *testing.T) {
	guard, _ := newTestGuard(30 * time.Second)

	guard.TryBeginProcessing("cs_test_1")
	assert.False(t, guard.IsCompleted("cs_test_1"))

	guard.FinishProcessing("cs_test_1", true)
	assert.True(t, guard.IsCompleted("cs_test_1"))

	// The in-flight marker is gone; a retry is allowed immediately even
	// though the completed set would short-circuit it earlier.
	ok, _ := guard.TryBeginProcessing("cs_test_1")
	assert.True(t, ok)
}

func TestProcessGuardFinishFailureAllowsRetry(t *testing.T) {
	guard, _ := newTestGuard(30 * time.Second)

	guard.TryBeginProcessing("cs_test_1")
	guard.FinishProcessing("cs_test_1", false)

	assert.False(t, guard.IsCompleted("cs_test_1"))
	ok, _ := guard.TryBeginProcessing("cs_test_1")
	assert.True(t, ok)
}

func TestProcessGuardDefaults(t *testing.T) {
	guard := NewProcessGuard(0, nil)
	assert.Equal(t, DefaultStaleAfter, guard.staleAfter)

	ok, _ := guard.TryBeginProcessing("cs_test_1")
	assert.True(t, ok)
}
