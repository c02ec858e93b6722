package srs

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/neuropulse/pulse-api/internal/domain"
)

func TestQualityTrend(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		qualities []float64
		want      Trend
	}{
		{name: "steady climb", qualities: []float64{1, 2, 3, 4, 5}, want: TrendImproving},
		{name: "steady slide", qualities: []float64{5, 4, 3, 2, 1}, want: TrendDeclining},
		{name: "flat sequence", qualities: []float64{3, 3, 3, 3}, want: TrendStable},
		{name: "noise around a level", qualities: []float64{3, 4, 3, 4, 3, 4}, want: TrendStable},
		{name: "two points", qualities: []float64{1, 5}, want: TrendInsufficientData},
		{name: "empty", qualities: nil, want: TrendInsufficientData},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, QualityTrend(tc.qualities))
		})
	}
}

func TestHistoryTrend_WindowsRecentReviews(t *testing.T) {
	t.Parallel()

	// Strong early reviews followed by a recent slide: the window must only
	// see the slide.
	history := []domain.ReviewEvent{
		{Quality: 5, DifficultyFelt: 2},
		{Quality: 5, DifficultyFelt: 2},
		{Quality: 5, DifficultyFelt: 2},
		{Quality: 5, DifficultyFelt: 2},
		{Quality: 5, DifficultyFelt: 3},
		{Quality: 4, DifficultyFelt: 3},
		{Quality: 3, DifficultyFelt: 4},
		{Quality: 2, DifficultyFelt: 4},
		{Quality: 1, DifficultyFelt: 5},
	}

	assert.Equal(t, TrendDeclining, HistoryTrend(history, 5))
	// The whole history shows the same slide once the flat prefix dilutes it
	// into a downward correlation.
	assert.Equal(t, TrendDeclining, HistoryTrend(history, 0))
}

func TestHistoryTrend_ShortHistory(t *testing.T) {
	t.Parallel()

	history := []domain.ReviewEvent{
		{Quality: 3, DifficultyFelt: 3},
		{Quality: 4, DifficultyFelt: 3},
	}

	assert.Equal(t, TrendInsufficientData, HistoryTrend(history, 5))
}
