package domain

import "math"

// Position is a point in voxel coordinates. NaN marks a missing coordinate.
type Position [3]float64

// Resolution is the voxel size in nanometers along x, y and z.
type Resolution [3]float64

// MissingPosition is the position of a row without spatial data.
func MissingPosition() Position {
	nan := math.NaN()
	return Position{nan, nan, nan}
}

// Valid reports whether every coordinate is present.
func (p Position) Valid() bool {
	for _, v := range p {
		if math.IsNaN(v) {
			return false
		}
	}
	return true
}

// ComputeDepth converts the y coordinate to microns: y * res.y / 1000.
// Any missing coordinate makes the depth NaN.
func ComputeDepth(p Position, res Resolution) float64 {
	if !p.Valid() {
		return math.NaN()
	}
	return p[1] * res[1] / 1_000
}
