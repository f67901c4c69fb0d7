// Package plan defines the motion plan data model and the fluent command
// builder that produces it. A plan is built once, compiled once, and never
// mutated afterwards.
package plan

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/ivlev/choreo/internal/geom"
	"github.com/ivlev/choreo/internal/units"
)

// ActorKind classifies a plan participant.
type ActorKind string

const (
	KindCharacter ActorKind = "character"
	KindCamera    ActorKind = "camera"
	KindLight     ActorKind = "light"
)

// Actor is a named entity with a pose. Position is in centimeters, angles
// in degrees. MeshYawOffset compensates meshes whose forward axis does not
// match the logical facing; it is applied only when keyframes are emitted.
type Actor struct {
	Name            string
	Kind            ActorKind
	Position        r3.Vec
	Yaw             float64
	Pitch           float64
	Roll            float64
	MeshYawOffset   float64
	HeightM         float64 // nominal height, default 1.8
	CorridorRadiusM float64 // max lateral drift, 0 = unlimited
}

// CommandKind tags a command variant.
type CommandKind string

const (
	CmdMove           CommandKind = "move"
	CmdMoveToWaypoint CommandKind = "move_to_waypoint"
	CmdFace           CommandKind = "face"
	CmdTurn           CommandKind = "turn"
	CmdStay           CommandKind = "stay"
	CmdStayTillEnd    CommandKind = "stay_till_end"
	CmdAnimation      CommandKind = "animation"
	CmdCameraLookAt   CommandKind = "camera_look_at"
	CmdCameraFocus    CommandKind = "camera_focus"
	CmdCameraFrame    CommandKind = "camera_frame_subject"
	CmdCameraWait     CommandKind = "camera_wait"
	// CmdSync is an internal hold inserted for simultaneous-block
	// participants whose clock is behind the fork start.
	CmdSync CommandKind = "sync"
)

// Command is one step in an actor's stream. Only the fields relevant to
// its Kind are set; constraint fields hold the raw authored pair, the
// resolver solves the third quantity. The builder may still attach an
// overlay clip to the step it just appended; once Build returns, commands
// are never mutated.
type Command struct {
	Kind  CommandKind
	Index int // position in the actor's stream

	// Movement.
	Direction  geom.Direction
	Offset     float64 // compound-direction offset, degrees
	DistanceCm float64
	Seconds    float64
	Speed      units.Speed
	RampFrom   units.Speed
	HasRamp    bool
	LateralCm  float64

	Waypoint string // name to record (move) or target (move_to_waypoint)
	Clip     string // animation clip, or overlay on face/turn/stay

	// Facing.
	TargetYaw    float64
	HasTargetYaw bool
	RelativeDeg  float64

	// Camera tracking.
	Subject  string
	Fraction float64 // height fraction or coverage, per kind
}

// LightRecord is a presentation-only scene light declaration.
type LightRecord struct {
	Name      string
	Preset    string
	Position  r3.Vec
	Intensity float64
}

// AtmosphereRecord is a presentation-only atmosphere declaration.
type AtmosphereRecord struct {
	Preset  string
	Density float64
}

// AudioRecord is a presentation-only audio cue.
type AudioRecord struct {
	Path      string
	StartTime float64
	Volume    float64
}

// MotionPlan is the root aggregate: global config, one command stream per
// actor, and the scene records. Immutable after Build.
type MotionPlan struct {
	Name     string
	FPS      int
	Duration float64 // seconds

	Actors  map[string]*Actor
	Order   []string // actor registration order
	Streams map[string][]Command

	Lights     []LightRecord
	Atmosphere []AtmosphereRecord
	Audio      []AudioRecord
}

// Managed returns the actors that received at least one command, in
// registration order. Only managed actors are held to the full-timeline
// invariant.
func (p *MotionPlan) Managed() []string {
	var out []string
	for _, name := range p.Order {
		if len(p.Streams[name]) > 0 {
			out = append(out, name)
		}
	}
	return out
}
