package jobs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNextDailyFireTime_LaterToday(t *testing.T) {
	now := time.Date(2024, 6, 10, 9, 30, 0, 0, time.UTC)
	next := NextDailyFireTime(now, 23, 45)
	assert.Equal(t, time.Date(2024, 6, 10, 23, 45, 0, 0, time.UTC), next)
}

func TestNextDailyFireTime_AlreadyPassedToday(t *testing.T) {
	now := time.Date(2024, 6, 10, 9, 30, 0, 0, time.UTC)
	next := NextDailyFireTime(now, 0, 1)
	assert.Equal(t, time.Date(2024, 6, 11, 0, 1, 0, 0, time.UTC), next)
}

func TestNextDailyFireTime_ExactlyNowFiresTomorrow(t *testing.T) {
	now := time.Date(2024, 6, 10, 0, 1, 0, 0, time.UTC)
	next := NextDailyFireTime(now, 0, 1)
	assert.Equal(t, time.Date(2024, 6, 11, 0, 1, 0, 0, time.UTC), next)
}

func TestNextDailyFireTime_MonthRollover(t *testing.T) {
	now := time.Date(2024, 1, 31, 12, 0, 0, 0, time.UTC)
	next := NextDailyFireTime(now, 0, 1)
	assert.Equal(t, time.Date(2024, 2, 1, 0, 1, 0, 0, time.UTC), next)
}
