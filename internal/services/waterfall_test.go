package services

import (
	"testing"

	"github.com/rsharda/bahikhata-api/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func interestEntry(id uint, amount float64) *models.InterestEntry {
	return &models.InterestEntry{
		ID:           id,
		InterestType: models.InterestTypeInterest,
		Amount:       decimal.NewFromFloat(amount),
		PaidAmount:   decimal.Zero,
		Status:       models.EntryStatusPending,
	}
}

func penaltyEntry(id uint, amount float64) *models.InterestEntry {
	e := interestEntry(id, amount)
	e.InterestType = models.InterestTypePenalty
	return e
}

func principalEntry(id uint, amount float64) *models.LedgerEntry {
	return &models.LedgerEntry{
		ID:         id,
		EntryType:  models.EntryTypeDebit,
		Amount:     decimal.NewFromFloat(amount),
		PaidAmount: decimal.Zero,
		Status:     models.EntryStatusPending,
	}
}

func TestAllocatePayment_RejectsNonPositiveAmount(t *testing.T) {
	_, err := AllocatePayment(decimal.Zero, nil, nil, nil)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = AllocatePayment(decimal.NewFromInt(-10), nil, nil, nil)
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestAllocatePayment_InterestFirstOldestFirst(t *testing.T) {
	oldest := interestEntry(1, 100)
	newer := interestEntry(2, 80)

	result, err := AllocatePayment(decimal.NewFromInt(150), []*models.InterestEntry{oldest, newer}, nil, nil)
	assert.NoError(t, err)

	// Oldest entry settles fully before the newer one sees a rupee.
	assert.True(t, oldest.PaidAmount.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, models.EntryStatusCompleted, oldest.Status)
	assert.True(t, newer.PaidAmount.Equal(decimal.NewFromInt(50)))
	assert.Equal(t, models.EntryStatusPending, newer.Status)

	assert.True(t, result.InterestPaid.Equal(decimal.NewFromInt(150)))
	assert.True(t, result.RemainingInterest.Equal(decimal.NewFromInt(30)))
	assert.True(t, result.ExcessPayment.IsZero())

	assert.Len(t, result.Allocations, 2)
	assert.Equal(t, uint(1), result.Allocations[0].EntryID)
	assert.Equal(t, uint(2), result.Allocations[1].EntryID)
}

func TestAllocatePayment_PhasesAreStrictlySequential(t *testing.T) {
	interest := interestEntry(1, 200)
	penalty := penaltyEntry(2, 50)
	principal := principalEntry(3, 1000)

	// 150 is fully consumed by interest; penalty and principal stay untouched
	// even though the penalty alone is smaller than the payment.
	result, err := AllocatePayment(decimal.NewFromInt(150),
		[]*models.InterestEntry{interest}, []*models.InterestEntry{penalty}, []*models.LedgerEntry{principal})
	assert.NoError(t, err)

	assert.True(t, result.InterestPaid.Equal(decimal.NewFromInt(150)))
	assert.True(t, result.PenaltyPaid.IsZero())
	assert.True(t, result.PrincipalPaid.IsZero())
	assert.True(t, penalty.PaidAmount.IsZero())
	assert.True(t, principal.PaidAmount.IsZero())
}

func TestAllocatePayment_FullWaterfall(t *testing.T) {
	interest := interestEntry(1, 200)
	penalty := penaltyEntry(2, 50)
	oldPrincipal := principalEntry(3, 600)
	newPrincipal := principalEntry(4, 400)

	result, err := AllocatePayment(decimal.NewFromInt(1200),
		[]*models.InterestEntry{interest}, []*models.InterestEntry{penalty},
		[]*models.LedgerEntry{oldPrincipal, newPrincipal})
	assert.NoError(t, err)

	assert.True(t, result.InterestPaid.Equal(decimal.NewFromInt(200)))
	assert.True(t, result.PenaltyPaid.Equal(decimal.NewFromInt(50)))
	assert.True(t, result.PrincipalPaid.Equal(decimal.NewFromInt(950)))
	assert.True(t, result.ExcessPayment.IsZero())
	assert.True(t, result.TotalAllocated().Equal(decimal.NewFromInt(1200)))

	assert.Equal(t, models.EntryStatusCompleted, interest.Status)
	assert.Equal(t, models.EntryStatusCompleted, penalty.Status)
	assert.Equal(t, models.EntryStatusCompleted, oldPrincipal.Status)
	assert.Equal(t, models.EntryStatusPending, newPrincipal.Status)
	assert.True(t, newPrincipal.PaidAmount.Equal(decimal.NewFromInt(350)))
	assert.True(t, result.RemainingPrincipal.Equal(decimal.NewFromInt(50)))
}

func TestAllocatePayment_OverpaymentReportedAsExcess(t *testing.T) {
	interest := interestEntry(1, 200)
	principal := principalEntry(2, 800)

	result, err := AllocatePayment(decimal.NewFromInt(1050),
		[]*models.InterestEntry{interest}, nil, []*models.LedgerEntry{principal})
	assert.NoError(t, err)

	assert.True(t, result.InterestPaid.Equal(decimal.NewFromInt(200)))
	assert.True(t, result.PrincipalPaid.Equal(decimal.NewFromInt(800)))
	assert.True(t, result.ExcessPayment.Equal(decimal.NewFromInt(50)), "got %s", result.ExcessPayment)
	assert.True(t, result.RemainingInterest.IsZero())
	assert.True(t, result.RemainingPrincipal.IsZero())
}

func TestAllocatePayment_NoDuesAtAll(t *testing.T) {
	result, err := AllocatePayment(decimal.NewFromInt(300), nil, nil, nil)
	assert.NoError(t, err)

	assert.True(t, result.TotalAllocated().IsZero())
	assert.True(t, result.ExcessPayment.Equal(decimal.NewFromInt(300)))
	assert.Empty(t, result.Allocations)
}

func TestAllocatePayment_PartiallyPaidEntryOnlyTakesRemainder(t *testing.T) {
	entry := interestEntry(1, 100)
	entry.PaidAmount = decimal.NewFromInt(60)

	result, err := AllocatePayment(decimal.NewFromInt(100), []*models.InterestEntry{entry}, nil, nil)
	assert.NoError(t, err)

	assert.True(t, result.InterestPaid.Equal(decimal.NewFromInt(40)))
	assert.Equal(t, models.EntryStatusCompleted, entry.Status)
	assert.True(t, result.ExcessPayment.Equal(decimal.NewFromInt(60)))
}
