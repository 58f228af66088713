package billing

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/RohanKhanna/TubeTalk/app/models"
	"github.com/RohanKhanna/TubeTalk/internal/pkg/entitlements"
	"github.com/RohanKhanna/TubeTalk/internal/pkg/metrics"
)

// Service reconciles completed checkouts with local entitlements. It is the
// only component allowed to set plan and attempts together; both triggers
// (client redirect and provider webhook) funnel into Reconcile.
type Service struct {
	repo     Repository
	provider CheckoutProvider
	guard    *ProcessGuard
	now      Clock
}

// NewService creates a reconciliation service from injected collaborators.
func NewService(repo Repository, provider CheckoutProvider, guard *ProcessGuard) *Service {
	if guard == nil {
		guard = NewProcessGuard(DefaultStaleAfter, time.Now)
	}
	return &Service{
		repo:     repo,
		provider: provider,
		guard:    guard,
		now:      time.Now,
	}
}

// processGuard is shared across requests for the lifetime of the process.
var processGuard = NewProcessGuard(DefaultStaleAfter, time.Now)

// NewServiceFromDB creates a reconciliation service wired to Stripe and the
// process-wide guard.
func NewServiceFromDB(db *gorm.DB) *Service {
	return NewService(NewRepository(db), NewStripeProvider(), processGuard)
}

// Reconcile verifies the checkout session with the provider and applies the
// plan upgrade and ledger insert exactly once per session. Safe to call any
// number of times, concurrently or sequentially, from either trigger.
func (s *Service) Reconcile(ctx context.Context, sessionID string, plan entitlements.Plan, userID uint) (Result, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" || userID == 0 {
		return Result{}, errors.New("session id and user id are required")
	}
	plan = entitlements.Normalize(string(plan))
	if !entitlements.IsPaid(plan) {
		return Result{}, ErrInvalidPlan
	}

	// Fast path: this process already finished the session.
	if s.guard.IsCompleted(sessionID) {
		log.Printf("[PAYMENT-VERIFY] session %s already processed, preventing duplicate", sessionID)
		metrics.ReconcileOutcome("duplicate")
		return Result{Applied: true, Reason: ReasonAlreadyVerified}, nil
	}

	ok, startedAt := s.guard.TryBeginProcessing(sessionID)
	if !ok {
		// Another request is verifying this session right now; it is
		// expected to complete the mutation, so report success-pending.
		log.Printf("[PAYMENT-VERIFY] session %s in progress since %s, deferring", sessionID, startedAt.Format(time.RFC3339))
		metrics.ReconcileOutcome("in_progress")
		return Result{Applied: true, Reason: ReasonInProgress}, nil
	}

	// Every exit path below must clear the in-flight marker, otherwise a
	// retry is blocked until the staleness threshold elapses.
	succeeded := false
	defer func() {
		s.guard.FinishProcessing(sessionID, succeeded)
	}()

	session, err := s.provider.RetrieveSession(ctx, sessionID)
	if err != nil {
		metrics.ReconcileOutcome("provider_error")
		return Result{}, fmt.Errorf("retrieve checkout session: %w", err)
	}
	if session.PaymentStatus != PaymentStatusPaid {
		metrics.ReconcileOutcome("unpaid")
		return Result{Applied: false, Reason: ReasonNotCompleted}, ErrPaymentNotCompleted
	}

	user, err := s.repo.GetUser(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			metrics.ReconcileOutcome("user_not_found")
			return Result{}, ErrUserNotFound
		}
		// Transient load failures are not missing users.
		metrics.ReconcileOutcome("load_error")
		return Result{}, fmt.Errorf("load user %d: %w", userID, err)
	}

	// Plan and attempts move together; nothing else writes these fields.
	now := s.now()
	user.Plan = string(plan)
	user.AttemptsRemaining = entitlements.Quota(plan)
	if session.CustomerID != "" {
		user.StripeCustomerID = session.CustomerID
	}
	user.SubscriptionDate = &now
	user.SubscriptionStatus = "active"
	if err := s.repo.SaveUser(user); err != nil {
		metrics.ReconcileOutcome("save_error")
		return Result{}, fmt.Errorf("save user %d: %w", userID, err)
	}

	amount := session.AmountTotal
	if amount == 0 {
		amount = AmountForPlan(plan)
	}
	currency := strings.ToUpper(session.Currency)
	if currency == "" {
		currency = "INR"
	}
	payment := &models.Payment{
		UserID:           user.ID,
		UsernameSnapshot: user.Name,
		Plan:             string(plan),
		Amount:           amount,
		Currency:         currency,
		StripeSessionID:  session.ID,
		StripeCustomerID: session.CustomerID,
		Status:           models.PaymentStatusCompleted,
	}
	inserted, err := s.repo.InsertPaymentIfAbsent(payment)
	if err != nil {
		metrics.ReconcileOutcome("ledger_error")
		return Result{}, fmt.Errorf("record payment for session %s: %w", sessionID, err)
	}
	if !inserted {
		// A concurrent winner already recorded the payment; that is the
		// expected duplicate-key signal, not an error.
		log.Printf("[PAYMENT-VERIFY] another request already recorded payment for session %s", sessionID)
	}

	succeeded = true
	metrics.ReconcileOutcome("verified")
	log.Printf("[PAYMENT-VERIFY] completed verification for session %s (user=%d plan=%s)", sessionID, userID, plan)
	return Result{Applied: true, Reason: ReasonVerified}, nil
}

// AmountForPlan returns the checkout price in paise for a paid plan.
func AmountForPlan(plan entitlements.Plan) int64 {
	switch entitlements.Normalize(string(plan)) {
	case entitlements.PlanEnterprise:
		return 99900 // Rs 999.00
	case entitlements.PlanPro:
		return 9900 // Rs 99.00
	default:
		return 0
	}
}
