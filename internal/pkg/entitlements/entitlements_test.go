package entitlements

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want Plan
	}{
		{in: "free", want: PlanFree},
		{in: "pro", want: PlanPro},
		{in: "enterprise", want: PlanEnterprise},
		{in: "ENTERPRISE", want: PlanEnterprise},
		{in: " pro ", want: PlanPro},
		{in: "invalid", want: PlanFree},
		{in: "", want: PlanFree},
	}

	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Fatalf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRank(t *testing.T) {
	if Rank(PlanFree) >= Rank(PlanPro) {
		t.Fatalf("expected pro to outrank free")
	}
	if Rank(PlanPro) >= Rank(PlanEnterprise) {
		t.Fatalf("expected enterprise to outrank pro")
	}
}

func TestQuota(t *testing.T) {
	if got := Quota(PlanFree); got != FreeDailyAttempts {
		t.Fatalf("Quota(free) = %d, want %d", got, FreeDailyAttempts)
	}
	if got := Quota(PlanPro); got != ProAttempts {
		t.Fatalf("Quota(pro) = %d, want %d", got, ProAttempts)
	}
	if got := Quota(PlanEnterprise); got != EnterpriseAttemptSentinel {
		t.Fatalf("Quota(enterprise) = %d, want %d", got, EnterpriseAttemptSentinel)
	}
}

func TestCanConsume(t *testing.T) {
	if !CanConsume(PlanEnterprise, 0) {
		t.Fatalf("enterprise must always be allowed to consume")
	}
	if CanConsume(PlanFree, 0) {
		t.Fatalf("free with zero attempts must be blocked")
	}
	if !CanConsume(PlanPro, 1) {
		t.Fatalf("pro with attempts left must be allowed")
	}
}

func TestConsumes(t *testing.T) {
	if Consumes(PlanEnterprise) {
		t.Fatalf("enterprise usage must not decrement the counter")
	}
	if !Consumes(PlanFree) || !Consumes(PlanPro) {
		t.Fatalf("free and pro usage must decrement the counter")
	}
}
