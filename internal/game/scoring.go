package game

import "math"

// PointsGained converts a correct answer's timing into points. The bonus
// scales with remaining time, up to +50% for an instant answer; a correct
// answer with no time left still earns full base points. Only called for
// correct answers; wrong answers gain 0 without reaching this function.
func PointsGained(basePoints, timeLimitSeconds int, timeUsedSeconds float64) int {
	if timeLimitSeconds <= 0 {
		return basePoints
	}
	if timeUsedSeconds < 0 {
		timeUsedSeconds = 0
	}
	remain := math.Max(0, float64(timeLimitSeconds)-timeUsedSeconds)
	bonusFactor := 1 + (remain/float64(timeLimitSeconds))*0.5
	return int(math.Round(float64(basePoints) * bonusFactor))
}
