package services

import (
	"github.com/rsharda/bahikhata-api/internal/models"
	"github.com/rsharda/bahikhata-api/pkg/money"

	"github.com/shopspring/decimal"
)

// AllocationPhase identifies which debt category an allocation settled.
type AllocationPhase string

const (
	PhaseInterest  AllocationPhase = "interest"
	PhasePenalty   AllocationPhase = "penalty"
	PhasePrincipal AllocationPhase = "principal"
)

// Allocation records one payment slice applied to one entry.
type Allocation struct {
	Phase   AllocationPhase `json:"phase"`
	EntryID uint            `json:"entry_id"`
	Amount  decimal.Decimal `json:"amount_allocated"`
}

// AllocationResult is the outcome of running a payment through the waterfall.
// ExcessPayment is whatever remained after all three phases; it is always
// reported to the caller, never silently dropped.
type AllocationResult struct {
	Allocations        []Allocation    `json:"allocations"`
	InterestPaid       decimal.Decimal `json:"interest_paid"`
	PenaltyPaid        decimal.Decimal `json:"penalty_paid"`
	PrincipalPaid      decimal.Decimal `json:"principal_paid"`
	RemainingInterest  decimal.Decimal `json:"remaining_interest"`
	RemainingPenalty   decimal.Decimal `json:"remaining_penalty"`
	RemainingPrincipal decimal.Decimal `json:"remaining_principal"`
	ExcessPayment      decimal.Decimal `json:"excess_payment"`
}

// TotalAllocated returns the portion of the payment actually applied to debt.
func (r *AllocationResult) TotalAllocated() decimal.Decimal {
	return r.InterestPaid.Add(r.PenaltyPaid).Add(r.PrincipalPaid)
}

// AllocatePayment runs a payment through the waterfall: interest first, then
// penalties, then principal, each oldest-first. Callers pass the three entry
// lists already ordered (interest and penalties by interest date, principal
// by promised date). Phases are strictly sequential; no reordering happens
// across them.
//
// The function is pure apart from mutating the passed entries' PaidAmount and
// Status; it touches no global state and does no I/O, so it is trivially
// unit-testable. Amounts are rounded half-up to 2 decimal places only where
// they will be persisted (per-entry paid amounts and phase totals), not at
// every comparison.
func AllocatePayment(payment decimal.Decimal, interest, penalties []*models.InterestEntry, principal []*models.LedgerEntry) (*AllocationResult, error) {
	if !money.IsPositive(payment) {
		return nil, ErrInvalidAmount
	}

	result := &AllocationResult{
		InterestPaid:  decimal.Zero,
		PenaltyPaid:   decimal.Zero,
		PrincipalPaid: decimal.Zero,
	}
	remaining := payment

	// Phase 1: accrued interest, oldest first
	for _, entry := range interest {
		if !money.IsPositive(remaining) {
			break
		}
		allocated := money.Round(money.Min(remaining, entry.Remaining()))
		if !money.IsPositive(allocated) {
			continue
		}
		entry.Apply(allocated)
		result.Allocations = append(result.Allocations, Allocation{Phase: PhaseInterest, EntryID: entry.ID, Amount: allocated})
		result.InterestPaid = result.InterestPaid.Add(allocated)
		remaining = remaining.Sub(allocated)
	}

	// Phase 2: penalties, oldest first
	for _, entry := range penalties {
		if !money.IsPositive(remaining) {
			break
		}
		allocated := money.Round(money.Min(remaining, entry.Remaining()))
		if !money.IsPositive(allocated) {
			continue
		}
		entry.Apply(allocated)
		result.Allocations = append(result.Allocations, Allocation{Phase: PhasePenalty, EntryID: entry.ID, Amount: allocated})
		result.PenaltyPaid = result.PenaltyPaid.Add(allocated)
		remaining = remaining.Sub(allocated)
	}

	// Phase 3: principal, oldest promised date first
	for _, entry := range principal {
		if !money.IsPositive(remaining) {
			break
		}
		allocated := money.Round(money.Min(remaining, entry.Remaining()))
		if !money.IsPositive(allocated) {
			continue
		}
		entry.Apply(allocated)
		result.Allocations = append(result.Allocations, Allocation{Phase: PhasePrincipal, EntryID: entry.ID, Amount: allocated})
		result.PrincipalPaid = result.PrincipalPaid.Add(allocated)
		remaining = remaining.Sub(allocated)
	}

	for _, entry := range interest {
		result.RemainingInterest = result.RemainingInterest.Add(entry.Remaining())
	}
	for _, entry := range penalties {
		result.RemainingPenalty = result.RemainingPenalty.Add(entry.Remaining())
	}
	for _, entry := range principal {
		result.RemainingPrincipal = result.RemainingPrincipal.Add(entry.Remaining())
	}

	if money.IsPositive(remaining) {
		result.ExcessPayment = money.Round(remaining)
	} else {
		result.ExcessPayment = decimal.Zero
	}

	return result, nil
}
