package grading

import "math"

// Summary is the aggregated outcome of one attempt.
type Summary struct {
	Total      float64 `json:"total_score"`
	Possible   float64 `json:"total_possible"`
	Percentage float64 `json:"percentage"`
}

// Summarize folds per-question results into a total. It is order-independent
// and deterministic: the presentation shuffle never changes the score.
// Possible sums every question's max points, answered or not.
func Summarize(results []Result) Summary {
	var s Summary
	for _, r := range results {
		s.Total += r.Awarded
		s.Possible += r.MaxPoints
	}
	if s.Possible > 0 {
		s.Percentage = Round2(s.Total / s.Possible * 100)
	}
	return s
}

// Round2 rounds to two decimal places for display.
func Round2(x float64) float64 {
	return math.Round(x*100) / 100
}
