package model

// Grade is the label shown next to a privacy score.
type Grade int

const (
	// GradePoor is used for scores below 40.
	GradePoor Grade = iota

	// GradeFair is used for scores from 40 to 69.
	GradeFair

	// GradeGood is used for scores of 70 and above.
	GradeGood
)

// GradeFor returns the grade for a privacy score.
func GradeFor(score int) Grade {
	switch {
	case score >= 70:
		return GradeGood
	case score >= 40:
		return GradeFair
	default:
		return GradePoor
	}
}

// String returns the human-readable label of the grade.
func (g Grade) String() string {
	switch g {
	case GradeGood:
		return "Good"
	case GradeFair:
		return "Fair"
	case GradePoor:
		return "Poor"
	default:
		return "Unknown"
	}
}

// Color returns the hex color used to render the grade.
func (g Grade) Color() string {
	switch g {
	case GradeGood:
		return "#4CAF50"
	case GradeFair:
		return "#ff9800"
	default:
		return "#d32f2f"
	}
}
