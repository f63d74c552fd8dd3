package services

import (
	"time"

	"github.com/rsharda/bahikhata-api/internal/models"
	"github.com/rsharda/bahikhata-api/pkg/money"

	"github.com/shopspring/decimal"
)

// Interest rate policy: 2% per month, accrued daily against a fixed 30-day
// month. The 30-day divisor is a deliberate simplification carried over from
// the shop-ledger convention, not an approximation of calendar months.
var (
	MonthlyInterestRate = decimal.NewFromFloat(0.02)
	daysPerMonth        = decimal.NewFromInt(30)
)

// InterestService computes daily interest accrual for overdue accounts. All
// methods are pure given the injected clock; persistence belongs to callers.
type InterestService struct {
	now func() time.Time
}

// NewInterestService creates an interest service using the real clock
func NewInterestService() *InterestService {
	return &InterestService{now: time.Now}
}

// NewInterestServiceWithClock creates an interest service with an injected
// clock for deterministic tests.
func NewInterestServiceWithClock(now func() time.Time) *InterestService {
	return &InterestService{now: now}
}

// DailyInterest returns one day of interest on the given principal,
// unrounded. The principal is multiplied by the monthly rate before the 30-day
// division, so principals that divide evenly yield exact results instead of
// carrying the truncation of a pre-divided daily rate.
func (s *InterestService) DailyInterest(principal decimal.Decimal) decimal.Decimal {
	return principal.Mul(MonthlyInterestRate).Div(daysPerMonth)
}

// InterestForPeriod returns the interest accrued over daysOverdue days,
// rounded to 2 decimal places half-up. Simple interest, non-compounding.
func (s *InterestService) InterestForPeriod(principal decimal.Decimal, daysOverdue int) decimal.Decimal {
	return money.Round(s.DailyInterest(principal).Mul(decimal.NewFromInt(int64(daysOverdue))))
}

// IsOverdue reports whether the promised date is set and strictly in the
// past. An absent promised date never counts as overdue.
func (s *InterestService) IsOverdue(promisedDate *time.Time) bool {
	if promisedDate == nil {
		return false
	}
	return s.now().After(*promisedDate)
}

// DaysOverdue returns whole days elapsed since the promised date, floored at
// zero.
func (s *InterestService) DaysOverdue(promisedDate *time.Time) int {
	if promisedDate == nil {
		return 0
	}
	days := int(s.now().Sub(*promisedDate).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// GenerateBatchEntries computes pending interest entry drafts for a snapshot
// of accounts. It is a pure function of the snapshot and the clock: calling
// it twice with unchanged watermarks yields the same drafts both times.
// Preventing a second *persisted* entry is the orchestrator's job, via the
// watermark it advances atomically with each entry.
//
// Accounts are skipped when principal is non-positive, interest is frozen, or
// the account is not overdue. The first-ever accrual (no watermark) covers
// exactly one day; an unknown gap is never backfilled as zero.
func (s *InterestService) GenerateBatchEntries(accounts []models.Account) []models.InterestEntry {
	now := s.now()
	var entries []models.InterestEntry

	for _, account := range accounts {
		if !money.IsPositive(account.PrincipalOutstanding) {
			continue
		}
		if account.FreezeInterest {
			continue
		}
		if !s.IsOverdue(account.PromisedReturnDate) {
			continue
		}

		daysSinceCalc := 1
		if account.LastInterestCalcDate != nil {
			daysSinceCalc = int(now.Sub(*account.LastInterestCalcDate).Hours() / 24)
		}

		amount := s.InterestForPeriod(account.PrincipalOutstanding, daysSinceCalc)
		if !money.IsPositive(amount) {
			continue
		}

		entries = append(entries, models.InterestEntry{
			AccountID:       account.ID,
			InterestType:    models.InterestTypeInterest,
			Amount:          amount,
			PaidAmount:      decimal.Zero,
			Status:          models.EntryStatusPending,
			InterestDate:    now,
			CalculationDate: now,
			PrincipalAtTime: account.PrincipalOutstanding,
			DaysCalculated:  daysSinceCalc,
		})
	}

	return entries
}
