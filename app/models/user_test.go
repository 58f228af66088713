package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RohanKhanna/TubeTalk/internal/pkg/entitlements"
)

func TestCreateUserDefaults(t *testing.T) {
	user, err := CreateUser("alice", "alice@example.com", "secret123")
	require.NoError(t, err)

	assert.Equal(t, string(entitlements.PlanFree), user.Plan)
	assert.Equal(t, entitlements.FreeDailyAttempts, user.AttemptsRemaining)
	assert.Equal(t, ROLE_USER, user.Role)
	assert.NotEqual(t, "secret123", user.Password)
	assert.True(t, user.CheckPassword("secret123"))
	assert.False(t, user.CheckPassword("wrong"))
}

func TestCreateUserValidation(t *testing.T) {
	_, err := CreateUser("al", "alice@example.com", "secret123")
	assert.Error(t, err)

	_, err = CreateUser("alice", "not-an-email", "secret123")
	assert.Error(t, err)

	_, err = CreateUser("alice", "alice@example.com", "short")
	assert.Error(t, err)
}

func TestConsumeAttempt(t *testing.T) {
	user := &User{Plan: string(entitlements.PlanFree), AttemptsRemaining: 2}

	assert.True(t, user.CanConsumeAttempt())
	user.ConsumeAttempt()
	user.ConsumeAttempt()
	assert.Equal(t, 0, user.AttemptsRemaining)
	assert.False(t, user.CanConsumeAttempt())

	// Does not go negative.
	user.ConsumeAttempt()
	assert.Equal(t, 0, user.AttemptsRemaining)
}

func TestConsumeAttemptEnterpriseIsUnmetered(t *testing.T) {
	user := &User{Plan: string(entitlements.PlanEnterprise), AttemptsRemaining: entitlements.EnterpriseAttemptSentinel}

	for i := 0; i < 10; i++ {
		assert.True(t, user.CanConsumeAttempt())
		user.ConsumeAttempt()
	}
	assert.Equal(t, entitlements.EnterpriseAttemptSentinel, user.AttemptsRemaining)
}

func TestApplyDailyReset(t *testing.T) {
	day1 := time.Date(2025, 6, 1, 23, 50, 0, 0, time.UTC)
	day2 := time.Date(2025, 6, 2, 0, 5, 0, 0, time.UTC)

	user := &User{
		Plan:              string(entitlements.PlanFree),
		AttemptsRemaining: 0,
		LastUsedDate:      day1.Format(DateKeyLayout),
	}

	// Same day: nothing happens.
	assert.False(t, user.ApplyDailyReset(day1))
	assert.Equal(t, 0, user.AttemptsRemaining)

	// New day: free quota is restored.
	assert.True(t, user.ApplyDailyReset(day2))
	assert.Equal(t, entitlements.FreeDailyAttempts, user.AttemptsRemaining)
	assert.Equal(t, day2.Format(DateKeyLayout), user.LastUsedDate)

	// Idempotent within the day.
	user.AttemptsRemaining = 1
	assert.False(t, user.ApplyDailyReset(day2))
	assert.Equal(t, 1, user.AttemptsRemaining)
}

func TestApplyDailyResetPro(t *testing.T) {
	user := &User{
		Plan:              string(entitlements.PlanPro),
		AttemptsRemaining: 3,
		LastUsedDate:      "2025-06-01",
	}

	assert.True(t, user.ApplyDailyReset(time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)))
	assert.Equal(t, entitlements.ProAttempts, user.AttemptsRemaining)
	assert.Equal(t, string(entitlements.PlanPro), user.Plan)
}

func TestApplyDailyResetEnterpriseKeepsSentinel(t *testing.T) {
	user := &User{
		Plan:              string(entitlements.PlanEnterprise),
		AttemptsRemaining: entitlements.EnterpriseAttemptSentinel,
		LastUsedDate:      "2025-06-01",
	}

	assert.True(t, user.ApplyDailyReset(time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)))
	assert.Equal(t, entitlements.EnterpriseAttemptSentinel, user.AttemptsRemaining)
}
