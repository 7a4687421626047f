package domain

// PointsPerLevel is the number of points between two consecutive levels.
const PointsPerLevel = 100

// LevelForPoints derives a level from a point total: every PointsPerLevel points is one level,
// starting at level 1. Stores that update points server-side must apply the same rule.
func LevelForPoints(points int) int {
	if points < 0 {
		points = 0
	}
	return points/PointsPerLevel + 1
}
