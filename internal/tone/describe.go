package tone

// Describe turns a composite score into a short label for display.
func Describe(score int) string {
	switch {
	case score >= 80:
		return "Excellent tone"
	case score >= 60:
		return "Good tone"
	case score >= 40:
		return "Neutral tone"
	case score >= 20:
		return "Needs improvement"
	default:
		return "Requires attention"
	}
}
