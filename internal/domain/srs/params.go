package srs

// Params defines all configurable parameters for the scheduling algorithm.
// The defaults implement the documented behavior; deployments that want the
// historical alternate thresholds (e.g. a repetition-count mature rule)
// tune these instead of forking the code path.
type Params struct {
	// Interval progression
	FirstInterval      int // days after the first successful review
	GraduationInterval int // days after the second successful review
	LapseInterval      int // days after a failed review

	// Stage transition thresholds
	ReviewStageRepetitions int // Learning -> Review once repetitions reach this
	MatureStageInterval    int // Review -> Mature once interval reaches this many days

	// Ease factor handling
	SevereLapsePenalty float64 // ease decrease for quality <= SevereLapseQuality
	SevereLapseQuality int

	// Jitter applied to computed intervals to avoid review-date clustering.
	JitterLow  float64
	JitterHigh float64

	// Energy-adaptive interval multiplier. Applied only once MinEnergySamples
	// prior (energy, quality) pairs exist; averages are taken over the last
	// EnergyWindow such pairs.
	MinEnergySamples     int
	EnergyWindow         int
	HighEnergyThreshold  float64
	HighQualityThreshold float64
	LowEnergyThreshold   float64
	LowQualityThreshold  float64
	HighEnergyMultiplier float64
	LowEnergyMultiplier  float64

	// Time-of-day snapping: with at least MinTimeOfDaySamples history events
	// carrying an hour, the next review snaps to the average hour of the
	// quality >= GoodQuality subset.
	MinTimeOfDaySamples int
	GoodQuality         int

	// Derived-metric windows
	RetentionWindow   int     // recent quality values for retention strength
	StabilityBaseline float64 // days of interval-per-repetition treated as full stability
}

// NewDefaultParams creates a Params instance with the standard thresholds.
func NewDefaultParams() *Params {
	return &Params{
		FirstInterval:      1,
		GraduationInterval: 4,
		LapseInterval:      1,

		ReviewStageRepetitions: 2,
		MatureStageInterval:    21,

		SevereLapsePenalty: 0.2,
		SevereLapseQuality: 1,

		JitterLow:  0.9,
		JitterHigh: 1.1,

		MinEnergySamples:     3,
		EnergyWindow:         5,
		HighEnergyThreshold:  7,
		HighQualityThreshold: 4,
		LowEnergyThreshold:   4,
		LowQualityThreshold:  2,
		HighEnergyMultiplier: 1.2,
		LowEnergyMultiplier:  0.8,

		MinTimeOfDaySamples: 3,
		GoodQuality:         4,

		RetentionWindow:   5,
		StabilityBaseline: 30,
	}
}
