package srs

import (
	"math"

	"github.com/neuropulse/pulse-api/internal/domain"
)

// calculateNewEaseFactor applies the SM-2 ease adjustment for a successful
// review (quality >= 3).
//
// The ease factor represents how quickly a card's interval grows - higher
// values mean the card is easier for this learner. The adjustment rewards
// high quality and penalizes barely-passing recalls:
//
//	ease' = ease + (0.1 - (5-q)*(0.08 + (5-q)*0.02))
//
// The result is always clamped to [domain.MinEaseFactor, domain.MaxEaseFactor]
// so repeated hard reviews cannot drive intervals to zero growth and repeated
// perfect reviews cannot make them explode.
func calculateNewEaseFactor(currentEF float64, quality int) float64 {
	q := float64(quality)
	newEF := currentEF + (0.1 - (5-q)*(0.08+(5-q)*0.02))
	return clampEase(newEF)
}

// calculateSuccessInterval determines the interval after a successful review,
// before jitter is applied.
//
// The first two successful repetitions use fixed intervals (1 day, then the
// graduation interval); from the third on, the previous interval grows by the
// ease factor times the energy multiplier. The result is clamped to
// [domain.MinIntervalDays, domain.MaxIntervalDays].
func calculateSuccessInterval(
	intervalBefore int,
	repetitions int,
	easeFactor float64,
	energyMultiplier float64,
	params *Params,
) int {
	var interval int
	switch {
	case repetitions <= 1:
		interval = params.FirstInterval
	case repetitions == 2:
		interval = params.GraduationInterval
	default:
		interval = int(math.Round(float64(intervalBefore) * easeFactor * energyMultiplier))
	}
	return clampInterval(interval)
}

// calculateEnergyMultiplier returns the adaptive interval multiplier based on
// the learner's recent energy self-reports.
//
// Only reviews that carried an energy level count. With fewer than
// params.MinEnergySamples such reviews the multiplier is neutral: the
// learner's energy state should not be rewarded or penalized without
// sufficient evidence. Otherwise the averages of the last params.EnergyWindow
// (energy, quality) pairs decide:
//
//   - high energy and high quality -> longer intervals (1.2)
//   - low energy and low quality -> shorter intervals (0.8)
//   - anything else -> 1.0
func calculateEnergyMultiplier(history []domain.ReviewEvent, params *Params) float64 {
	var energies, qualities []float64
	for _, ev := range history {
		if ev.EnergyLevel == nil {
			continue
		}
		energies = append(energies, float64(*ev.EnergyLevel))
		qualities = append(qualities, float64(ev.Quality))
	}

	if len(energies) < params.MinEnergySamples {
		return 1.0
	}

	if len(energies) > params.EnergyWindow {
		energies = energies[len(energies)-params.EnergyWindow:]
		qualities = qualities[len(qualities)-params.EnergyWindow:]
	}

	avgEnergy := mean(energies)
	avgQuality := mean(qualities)

	switch {
	case avgEnergy >= params.HighEnergyThreshold && avgQuality >= params.HighQualityThreshold:
		return params.HighEnergyMultiplier
	case avgEnergy <= params.LowEnergyThreshold && avgQuality <= params.LowQualityThreshold:
		return params.LowEnergyMultiplier
	default:
		return 1.0
	}
}

// nextStage advances the graduation stage after a successful review. Stages
// only move forward; lapses are handled separately by the failure path.
func nextStage(
	current domain.GraduationStage,
	repetitions int,
	intervalDays int,
	params *Params,
) domain.GraduationStage {
	switch current {
	case domain.StageLearning:
		if repetitions >= params.ReviewStageRepetitions {
			return domain.StageReview
		}
	case domain.StageReview:
		if intervalDays >= params.MatureStageInterval {
			return domain.StageMature
		}
	}
	return current
}

// applyJitter multiplies the interval by the given factor (drawn uniformly
// from [JitterLow, JitterHigh]) and rounds to whole days, clamped back into
// the valid range. Jitter spreads review dates so a deck created in one
// sitting does not come due as a single avalanche.
func applyJitter(intervalDays int, factor float64) int {
	return clampInterval(int(math.Round(float64(intervalDays) * factor)))
}

// optimalReviewHour returns the average hour-of-day of high-quality reviews,
// if the history carries enough time-of-day samples to be meaningful.
//
// The second return value is false when fewer than params.MinTimeOfDaySamples
// events carry an hour, or when none of those reached params.GoodQuality.
func optimalReviewHour(history []domain.ReviewEvent, params *Params) (int, bool) {
	var withHour, goodHours []float64
	for _, ev := range history {
		if ev.TimeOfDayHour == nil {
			continue
		}
		withHour = append(withHour, float64(*ev.TimeOfDayHour))
		if ev.Quality >= params.GoodQuality {
			goodHours = append(goodHours, float64(*ev.TimeOfDayHour))
		}
	}

	if len(withHour) < params.MinTimeOfDaySamples || len(goodHours) == 0 {
		return 0, false
	}

	return int(mean(goodHours)), true
}

// retentionStrength maps the mean of the last params.RetentionWindow quality
// values from [1,5] to [0,1]. An empty history yields zero.
func retentionStrength(history []domain.ReviewEvent, params *Params) float64 {
	if len(history) == 0 {
		return 0
	}

	start := len(history) - params.RetentionWindow
	if start < 0 {
		start = 0
	}

	var sum float64
	recent := history[start:]
	for _, ev := range recent {
		sum += float64(ev.Quality)
	}
	avg := sum / float64(len(recent))

	return clamp01((avg - 1) / 4)
}

// memoryStability normalizes interval growth per repetition against the
// stability baseline: a card holding a 30-day interval per successful
// repetition is considered fully stable.
func memoryStability(intervalDays, repetitions int, params *Params) float64 {
	reps := repetitions
	if reps < 1 {
		reps = 1
	}
	growth := float64(intervalDays) / float64(reps)
	return clamp01(growth / params.StabilityBaseline)
}

func clampEase(ef float64) float64 {
	if ef < domain.MinEaseFactor {
		return domain.MinEaseFactor
	}
	if ef > domain.MaxEaseFactor {
		return domain.MaxEaseFactor
	}
	return ef
}

func clampInterval(days int) int {
	if days < domain.MinIntervalDays {
		return domain.MinIntervalDays
	}
	if days > domain.MaxIntervalDays {
		return domain.MaxIntervalDays
	}
	return days
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func mean(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}
