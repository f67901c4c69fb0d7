// Package units provides measurement conversions and the motion constraint
// solver shared by the command builder and the timeline resolver.
//
// World coordinates are centimeters; author-facing values are meters,
// seconds, and either m/s or mph.
package units

import (
	"fmt"

	"github.com/ivlev/choreo/internal/geom"
)

// Conversion factors into world units (cm, cm/s).
const (
	MphToCmPerSec = 44.704
	MpsToCmPerSec = 100.0
	MetersToCm    = 100.0
)

// SpeedPreset names a common human gait.
type SpeedPreset string

const (
	Walk   SpeedPreset = "walk"
	Jog    SpeedPreset = "jog"
	Run    SpeedPreset = "run"
	Sprint SpeedPreset = "sprint"
)

// presetCmPerSec maps gait presets to cm/s.
var presetCmPerSec = map[SpeedPreset]float64{
	Walk:   1.4 * MpsToCmPerSec,
	Jog:    2.7 * MpsToCmPerSec,
	Run:    4.0 * MpsToCmPerSec,
	Sprint: 6.7 * MpsToCmPerSec,
}

// Speed is either a named preset or a raw value in cm/s. The zero value
// means "unspecified".
type Speed struct {
	Preset   SpeedPreset `yaml:"preset,omitempty" json:"preset,omitempty"`
	CmPerSec float64     `yaml:"cm_per_sec,omitempty" json:"cm_per_sec,omitempty"`
}

// MPH builds a raw speed from miles per hour.
func MPH(v float64) Speed { return Speed{CmPerSec: v * MphToCmPerSec} }

// MPS builds a raw speed from meters per second.
func MPS(v float64) Speed { return Speed{CmPerSec: v * MpsToCmPerSec} }

// Gait builds a preset speed.
func Gait(p SpeedPreset) Speed { return Speed{Preset: p} }

// IsZero reports whether the speed was left unspecified.
func (s Speed) IsZero() bool { return s.Preset == "" && s.CmPerSec == 0 }

// Resolve returns the speed in cm/s, looking up presets.
func (s Speed) Resolve() (float64, error) {
	if s.Preset != "" {
		v, ok := presetCmPerSec[s.Preset]
		if !ok {
			return 0, fmt.Errorf("unknown speed preset %q", s.Preset)
		}
		return v, nil
	}
	return s.CmPerSec, nil
}

// MotionSolution is a fully determined straight-line motion: distance,
// duration and the velocity profile endpoints. StartSpeed == EndSpeed for
// constant-speed motion.
type MotionSolution struct {
	DistanceCm float64
	Seconds    float64
	StartSpeed float64 // cm/s
	EndSpeed   float64 // cm/s
}

// SolveMove fills in the missing quantity of a move constraint pair.
// Exactly two of {distCm, seconds, speedCmS} must be positive; the third is
// derived. When rampStart >= 0 the velocity profile ramps linearly from
// rampStart to speedCmS and distance integrates as a trapezoid; pass a
// negative rampStart for constant speed. All resolved quantities must come
// out positive.
func SolveMove(distCm, seconds, speedCmS, rampStart float64) (MotionSolution, error) {
	given := 0
	for _, v := range []float64{distCm, seconds, speedCmS} {
		if v > 0 {
			given++
		}
	}
	if given < 2 {
		return MotionSolution{}, fmt.Errorf("motion underconstrained: need two of distance, time, speed")
	}
	if given > 2 {
		return MotionSolution{}, fmt.Errorf("motion overconstrained: distance, time and speed all supplied")
	}

	start, end := speedCmS, speedCmS
	if rampStart >= 0 {
		start = rampStart
	}

	sol := MotionSolution{DistanceCm: distCm, Seconds: seconds, StartSpeed: start, EndSpeed: end}
	switch {
	case distCm > 0 && seconds > 0:
		if rampStart >= 0 {
			return MotionSolution{}, fmt.Errorf("velocity ramp requires a target speed, not distance+time")
		}
		v := distCm / seconds
		sol.StartSpeed, sol.EndSpeed = v, v
	case distCm > 0 && speedCmS > 0:
		avg := (start + end) / 2
		if avg <= 0 {
			return MotionSolution{}, fmt.Errorf("non-positive average speed %.3f cm/s", avg)
		}
		sol.Seconds = distCm / avg
	case seconds > 0 && speedCmS > 0:
		sol.DistanceCm = geom.RampDistance(start, end, seconds)
	}

	if sol.DistanceCm <= 0 {
		return MotionSolution{}, fmt.Errorf("resolved distance %.3f cm is not positive", sol.DistanceCm)
	}
	if sol.Seconds <= 0 {
		return MotionSolution{}, fmt.Errorf("resolved duration %.3f s is not positive", sol.Seconds)
	}
	if sol.EndSpeed <= 0 {
		return MotionSolution{}, fmt.Errorf("resolved speed %.3f cm/s is not positive", sol.EndSpeed)
	}
	return sol, nil
}
