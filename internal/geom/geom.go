// Package geom holds the pure direction, rotation and interpolation math
// used by the timeline resolver and the camera pass generator. Functions
// here know nothing about actors or time.
//
// Conventions: world yaw 0 = north (+X), 90 = east (+Y); positions are
// r3.Vec in centimeters; angles are degrees.
package geom

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Direction names a movement or facing direction. Cardinals are absolute
// world directions; Forward/Backward/Left/Right are relative to current yaw.
type Direction string

const (
	North     Direction = "north"
	East      Direction = "east"
	South     Direction = "south"
	West      Direction = "west"
	NorthEast Direction = "north_east"
	NorthWest Direction = "north_west"
	SouthEast Direction = "south_east"
	SouthWest Direction = "south_west"

	Forward  Direction = "forward"
	Backward Direction = "backward"
	Left     Direction = "left"
	Right    Direction = "right"
)

// DefaultDiagonalOffset is the compound-direction offset when none is given.
const DefaultDiagonalOffset = 45.0

// IsCardinal reports whether d is an absolute world direction.
func IsCardinal(d Direction) bool {
	switch d {
	case North, East, South, West, NorthEast, NorthWest, SouthEast, SouthWest:
		return true
	}
	return false
}

// IsRelative reports whether d is resolved against the current yaw.
func IsRelative(d Direction) bool {
	switch d {
	case Forward, Backward, Left, Right:
		return true
	}
	return false
}

// CardinalAngle returns the absolute world yaw for a cardinal direction.
// Compound directions sit at the perfect diagonal.
func CardinalAngle(d Direction) (float64, bool) {
	return CardinalAngleOffset(d, DefaultDiagonalOffset)
}

// CardinalAngleOffset returns the absolute world yaw for a cardinal
// direction. For compound directions the offset is measured from the
// primary axis toward the secondary one (north_east with offset 30 is 30
// degrees east of north). Plain cardinals ignore the offset. The second
// return is false for relative or unknown directions.
func CardinalAngleOffset(d Direction, offset float64) (float64, bool) {
	switch d {
	case North:
		return 0, true
	case East:
		return 90, true
	case South:
		return 180, true
	case West:
		return -90, true
	case NorthEast:
		return 0 + offset, true
	case NorthWest:
		return 0 - offset, true
	case SouthEast:
		return 180 - offset, true
	case SouthWest:
		return 180 + offset, true
	}
	return 0, false
}

// DirectionVector computes the unit movement vector in the horizontal
// plane. Cardinal directions are absolute; relative directions rotate with
// yawDeg. Left is 90 degrees counter-clockwise of forward.
func DirectionVector(d Direction, yawDeg, offset float64) r3.Vec {
	if angle, ok := CardinalAngleOffset(d, offset); ok {
		rad := angle * math.Pi / 180
		return r3.Vec{X: math.Cos(rad), Y: math.Sin(rad)}
	}

	rad := yawDeg * math.Pi / 180
	fx, fy := math.Cos(rad), math.Sin(rad)
	switch d {
	case Backward:
		return r3.Vec{X: -fx, Y: -fy}
	case Left:
		return r3.Vec{X: -fy, Y: fx}
	case Right:
		return r3.Vec{X: fy, Y: -fx}
	default: // Forward
		return r3.Vec{X: fx, Y: fy}
	}
}

// ShortestPathYaw returns the target yaw re-expressed so the rotation from
// currentYaw never exceeds 180 degrees in either direction. An exact
// 180-degree turn resolves counter-clockwise (positive).
func ShortestPathYaw(currentYaw, targetYaw float64) float64 {
	delta := math.Mod(targetYaw-currentYaw, 360)
	if delta < 0 {
		delta += 360
	}
	if delta > 180 {
		delta -= 360
	}
	return currentYaw + delta
}

// LookAtAngles computes the pitch and yaw that orient from toward to.
// Pitch is negated so that looking down at a lower target yields a
// positive pitch, matching the sink's rotator convention.
func LookAtAngles(from, to r3.Vec) (pitch, yaw float64) {
	d := r3.Sub(to, from)
	yaw = math.Atan2(d.Y, d.X) * 180 / math.Pi
	horizontal := math.Hypot(d.X, d.Y)
	pitch = -math.Atan2(d.Z, horizontal) * 180 / math.Pi
	return pitch, yaw
}

// CorridorOffset computes the lateral displacement perpendicular to the
// primary travel direction, clamped to +-radius. Positive lateral drifts
// left of travel.
func CorridorOffset(primary r3.Vec, lateral, radius float64) r3.Vec {
	if radius > 0 {
		lateral = math.Max(-radius, math.Min(radius, lateral))
	}
	perp := r3.Vec{X: -primary.Y, Y: primary.X}
	return r3.Scale(lateral, perp)
}

// RampDistance integrates a linear velocity ramp over its duration
// (trapezoid rule; exact for linear profiles).
func RampDistance(v0, v1, seconds float64) float64 {
	return (v0 + v1) / 2 * seconds
}

// Lerp performs linear interpolation between a and b.
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// Dist returns the 3-D euclidean distance between two points.
func Dist(a, b r3.Vec) float64 {
	return r3.Norm(r3.Sub(a, b))
}
