package srs

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/neuropulse/pulse-api/internal/domain"
)

// Trend classifies the direction of a learner's recent performance on a card
// or across a deck.
type Trend string

// Trend values. InsufficientData is returned when fewer than three points
// are available.
const (
	TrendImproving        Trend = "improving"
	TrendDeclining        Trend = "declining"
	TrendStable           Trend = "stable"
	TrendInsufficientData Trend = "insufficient_data"
)

// trendCorrelationThreshold is the Pearson correlation magnitude beyond which
// a quality sequence counts as improving or declining.
const trendCorrelationThreshold = 0.3

// QualityTrend computes the Pearson correlation between review order and
// quality over the given values. A correlation above 0.3 means improving,
// below -0.3 declining, anything in between stable. A constant sequence has
// undefined correlation and counts as stable.
func QualityTrend(qualities []float64) Trend {
	if len(qualities) < 3 {
		return TrendInsufficientData
	}

	index := make([]float64, len(qualities))
	for i := range index {
		index[i] = float64(i)
	}

	r := stat.Correlation(index, qualities, nil)
	switch {
	case math.IsNaN(r):
		return TrendStable
	case r > trendCorrelationThreshold:
		return TrendImproving
	case r < -trendCorrelationThreshold:
		return TrendDeclining
	default:
		return TrendStable
	}
}

// HistoryTrend computes the trend over the last window quality values of a
// review history. A non-positive window takes the whole history. It is the
// per-card form of QualityTrend shared by the scheduler output and the
// analytics aggregates.
func HistoryTrend(history []domain.ReviewEvent, window int) Trend {
	start := 0
	if window > 0 && len(history) > window {
		start = len(history) - window
	}

	recent := history[start:]
	qualities := make([]float64, len(recent))
	for i, ev := range recent {
		qualities[i] = float64(ev.Quality)
	}

	return QualityTrend(qualities)
}
