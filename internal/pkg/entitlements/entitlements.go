package entitlements

import "strings"

type Plan string

const (
	PlanFree       Plan = "free"
	PlanPro        Plan = "pro"
	PlanEnterprise Plan = "enterprise"
)

const (
	// FreeDailyAttempts is the daily quota handed to free accounts.
	FreeDailyAttempts = 5
	// ProAttempts is the per-period quota for the pro plan.
	ProAttempts = 100
	// EnterpriseAttemptSentinel marks unlimited usage. It is stored on the
	// account but never decremented.
	EnterpriseAttemptSentinel = 999
)

// Normalize maps arbitrary input to a known plan, defaulting to free.
func Normalize(plan string) Plan {
	switch strings.ToLower(strings.TrimSpace(plan)) {
	case string(PlanPro):
		return PlanPro
	case string(PlanEnterprise):
		return PlanEnterprise
	default:
		return PlanFree
	}
}

// Rank orders plans so a higher tier always wins a comparison.
func Rank(plan Plan) int {
	switch Normalize(string(plan)) {
	case PlanEnterprise:
		return 2
	case PlanPro:
		return 1
	default:
		return 0
	}
}

// Quota returns the attempts counter value a plan starts (or resets) with.
func Quota(plan Plan) int {
	switch Normalize(string(plan)) {
	case PlanEnterprise:
		return EnterpriseAttemptSentinel
	case PlanPro:
		return ProAttempts
	default:
		return FreeDailyAttempts
	}
}

// IsPaid reports whether the plan is purchasable via checkout.
func IsPaid(plan Plan) bool {
	return Rank(plan) > 0
}

// CanConsume reports whether an account with the given plan and counter may
// spend one more attempt. Enterprise is unmetered.
func CanConsume(plan Plan, attemptsRemaining int) bool {
	if Normalize(string(plan)) == PlanEnterprise {
		return true
	}
	return attemptsRemaining > 0
}

// Consumes reports whether usage on this plan decrements the counter.
func Consumes(plan Plan) bool {
	return Normalize(string(plan)) != PlanEnterprise
}
