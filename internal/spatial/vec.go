package spatial

import (
	"fmt"
	"math"
)

// Vec3 is a point in room space. The camera sits at the origin and the room's
// panorama is painted on a sphere around it.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// DistanceTo returns the Euclidean distance between v and o.
func (v Vec3) DistanceTo(o Vec3) float64 {
	dx := v.X - o.X
	dy := v.Y - o.Y
	dz := v.Z - o.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// Length returns the distance from the room centre.
func (v Vec3) Length() float64 {
	return v.DistanceTo(Vec3{})
}

// Validate reports non-finite coordinates.
func (v Vec3) Validate() error {
	for _, c := range []float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return fmt.Errorf("position coordinates must be finite numbers")
		}
	}
	return nil
}

func (v Vec3) String() string {
	return fmt.Sprintf("(%.1f, %.1f, %.1f)", v.X, v.Y, v.Z)
}
