package material

import "math"

// CombineFriction uses the geometric mean so a frictionless surface stays frictionless.
func CombineFriction(a, b float64) float64 {
	return math.Sqrt(a * b)
}

func CombineRestitution(a, b float64) float64 {
	return (a + b) / 2.0
}
