package scoring

// Point deductions per signal. Missing required documents carry the
// heaviest weight, an overdue regulatory filing is nearly as severe,
// an expiring document is an advance warning.
const (
	penaltyMissing  = 15
	penaltyOverdue  = 10
	penaltyExpiring = 5
)

// Tier thresholds. A value of exactly 80 is green, exactly 60 amber.
const (
	thresholdGreen = 80
	thresholdAmber = 60
)

// ComputeScore derives a clamped 0-100 score and tier from the three
// signal counts. Pure: same inputs always produce the same output.
func ComputeScore(missing, expiring, overdueFilings int) Result {
	value := 100 - penaltyMissing*missing - penaltyExpiring*expiring - penaltyOverdue*overdueFilings
	if value < 0 {
		value = 0
	}
	if value > 100 {
		value = 100
	}
	return Result{Value: value, Level: LevelForScore(value)}
}

// LevelForScore buckets a score value into its display tier.
func LevelForScore(value int) Level {
	switch {
	case value >= thresholdGreen:
		return LevelGreen
	case value >= thresholdAmber:
		return LevelAmber
	default:
		return LevelRed
	}
}
