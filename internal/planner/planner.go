// Package planner implements the first compilation pass: walking each
// actor's command stream, solving motion constraints, resolving waypoints
// and emitting transform and animation keyframes.
package planner

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/ivlev/choreo/internal/geom"
	"github.com/ivlev/choreo/internal/plan"
	"github.com/ivlev/choreo/internal/track"
	"github.com/ivlev/choreo/internal/units"
)

// CameraTimelines holds a camera's tracking entries, one partition per
// derived-property kind.
type CameraTimelines struct {
	LookAt []track.CameraTimelineEntry
	Focus  []track.CameraTimelineEntry
	Zoom   []track.CameraTimelineEntry
}

// Result is the resolved state of a plan after the first pass. The camera
// generator fills Rotations, Focus and Focal afterwards.
type Result struct {
	Plan *plan.MotionPlan

	Transforms map[string]*track.TransformTrack
	Animations map[string]*track.AnimationTrack
	Segments   map[string][]track.TimelineSegment
	Waypoints  map[string]r3.Vec
	Cameras    map[string]*CameraTimelines

	Rotations map[string]*track.RotationTrack
	Focus     map[string]*track.ValueTrack
	Focal     map[string]*track.ValueTrack
}

// Frame converts a time in seconds to a frame number.
func (r *Result) Frame(t float64) int {
	return FrameOf(t, r.Plan.FPS)
}

// FrameOf converts seconds to a frame number, flooring. The small epsilon
// keeps exact frame boundaries from landing one frame early.
func FrameOf(t float64, fps int) int {
	return int(math.Floor(t*float64(fps) + 1e-9))
}

// actorState is the resolver's cursor through one actor's stream.
type actorState struct {
	time  float64
	pos   r3.Vec
	yaw   float64
	pitch float64
	roll  float64
}

// Resolve walks every actor's command stream and produces the resolved
// tracks. Actors are processed in registration order, so waypoints
// recorded by an earlier actor are visible to later ones.
func Resolve(p *plan.MotionPlan) (*Result, error) {
	res := &Result{
		Plan:       p,
		Transforms: make(map[string]*track.TransformTrack),
		Animations: make(map[string]*track.AnimationTrack),
		Segments:   make(map[string][]track.TimelineSegment),
		Waypoints:  make(map[string]r3.Vec),
		Cameras:    make(map[string]*CameraTimelines),
		Rotations:  make(map[string]*track.RotationTrack),
		Focus:      make(map[string]*track.ValueTrack),
		Focal:      make(map[string]*track.ValueTrack),
	}

	for _, name := range p.Order {
		stream := p.Streams[name]
		if len(stream) == 0 {
			continue
		}
		if err := res.resolveActor(p.Actors[name], stream); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func (r *Result) resolveActor(a *plan.Actor, stream []plan.Command) error {
	st := &actorState{pos: a.Position, yaw: a.Yaw, pitch: a.Pitch, roll: a.Roll}
	r.Transforms[a.Name] = &track.TransformTrack{}
	r.Animations[a.Name] = &track.AnimationTrack{}

	for _, cmd := range stream {
		var err error
		switch cmd.Kind {
		case plan.CmdMove:
			err = r.resolveMove(a, st, cmd)
		case plan.CmdMoveToWaypoint:
			err = r.resolveMoveToWaypoint(a, st, cmd)
		case plan.CmdFace, plan.CmdTurn:
			err = r.resolveFacing(a, st, cmd)
		case plan.CmdStay, plan.CmdSync, plan.CmdCameraWait:
			r.resolveHold(a, st, cmd)
		case plan.CmdStayTillEnd:
			// Duration is unknown here; the validator resolves it
			// against the plan's total duration.
			r.emit(a, st, st.time, track.InterpCubic)
			r.Segments[a.Name] = append(r.Segments[a.Name], track.TimelineSegment{
				Start: st.time, End: st.time, TillEnd: true, CommandIndex: cmd.Index,
			})
		case plan.CmdAnimation:
			r.Animations[a.Name].Open(r.Frame(st.time), cmd.Clip)
		case plan.CmdCameraLookAt:
			c := r.cameras(a.Name)
			c.LookAt = track.OpenEntry(c.LookAt, st.time, cmd.Subject, cmd.Fraction)
		case plan.CmdCameraFocus:
			c := r.cameras(a.Name)
			c.Focus = track.OpenEntry(c.Focus, st.time, cmd.Subject, cmd.Fraction)
		case plan.CmdCameraFrame:
			c := r.cameras(a.Name)
			c.Zoom = track.OpenEntry(c.Zoom, st.time, cmd.Subject, cmd.Fraction)
		}
		if err != nil {
			return err
		}
	}

	// Tracking entries left open run to the plan's end.
	if c, ok := r.Cameras[a.Name]; ok {
		c.LookAt = track.CloseEntries(c.LookAt, r.Plan.Duration)
		c.Focus = track.CloseEntries(c.Focus, r.Plan.Duration)
		c.Zoom = track.CloseEntries(c.Zoom, r.Plan.Duration)
	}
	return nil
}

func (r *Result) resolveMove(a *plan.Actor, st *actorState, cmd plan.Command) error {
	speedCm := 0.0
	if !cmd.Speed.IsZero() {
		v, err := cmd.Speed.Resolve()
		if err != nil {
			return &plan.InvalidMotionParametersError{Actor: a.Name, CommandIndex: cmd.Index, Reason: err.Error()}
		}
		speedCm = v
	}
	rampCm := -1.0
	if cmd.HasRamp {
		v, err := cmd.RampFrom.Resolve()
		if err != nil {
			return &plan.InvalidMotionParametersError{Actor: a.Name, CommandIndex: cmd.Index, Reason: err.Error()}
		}
		rampCm = v
	}

	sol, err := units.SolveMove(cmd.DistanceCm, cmd.Seconds, speedCm, rampCm)
	if err != nil {
		return &plan.InvalidMotionParametersError{Actor: a.Name, CommandIndex: cmd.Index, Reason: err.Error()}
	}

	dir := geom.DirectionVector(cmd.Direction, st.yaw, cmd.Offset)
	end := r3.Add(st.pos, r3.Scale(sol.DistanceCm, dir))
	if cmd.LateralCm != 0 {
		end = r3.Add(end, geom.CorridorOffset(dir, cmd.LateralCm, a.CorridorRadiusM*units.MetersToCm))
	}

	start := st.time
	r.emit(a, st, start, track.InterpCubic)
	st.pos = end
	st.time = start + sol.Seconds
	r.emit(a, st, st.time, track.InterpCubic)

	if cmd.Waypoint != "" {
		r.Waypoints[cmd.Waypoint] = end
	}
	if cmd.Clip != "" {
		r.Animations[a.Name].Open(r.Frame(start), cmd.Clip)
	}
	r.Segments[a.Name] = append(r.Segments[a.Name], track.TimelineSegment{
		Start: start, End: st.time, CommandIndex: cmd.Index,
	})
	return nil
}

func (r *Result) resolveMoveToWaypoint(a *plan.Actor, st *actorState, cmd plan.Command) error {
	wp, ok := r.Waypoints[cmd.Waypoint]
	if !ok {
		return &plan.UndefinedWaypointError{Actor: a.Name, Waypoint: cmd.Waypoint, CommandIndex: cmd.Index}
	}
	v, err := cmd.Speed.Resolve()
	if err != nil || v <= 0 {
		return &plan.InvalidMotionParametersError{Actor: a.Name, CommandIndex: cmd.Index, Reason: "move to waypoint needs a positive speed"}
	}
	dist := geom.Dist(st.pos, wp)
	if dist <= 0 {
		return &plan.InvalidMotionParametersError{Actor: a.Name, CommandIndex: cmd.Index, Reason: "already at the waypoint, distance is zero"}
	}

	start := st.time
	r.emit(a, st, start, track.InterpCubic)

	d := r3.Sub(wp, st.pos)
	if math.Hypot(d.X, d.Y) > 1e-9 {
		st.yaw = geom.ShortestPathYaw(st.yaw, math.Atan2(d.Y, d.X)*180/math.Pi)
	}
	st.pos = wp
	st.time = start + dist/v
	r.emit(a, st, st.time, track.InterpCubic)

	r.Segments[a.Name] = append(r.Segments[a.Name], track.TimelineSegment{
		Start: start, End: st.time, CommandIndex: cmd.Index,
	})
	return nil
}

func (r *Result) resolveFacing(a *plan.Actor, st *actorState, cmd plan.Command) error {
	var target float64
	switch {
	case cmd.Kind == plan.CmdTurn:
		target = st.yaw + cmd.RelativeDeg
	case cmd.HasTargetYaw:
		target = geom.ShortestPathYaw(st.yaw, cmd.TargetYaw)
	default:
		abs, ok := geom.CardinalAngleOffset(cmd.Direction, cmd.Offset)
		if !ok {
			return &plan.InvalidMotionParametersError{Actor: a.Name, CommandIndex: cmd.Index, Reason: "face needs a cardinal direction"}
		}
		target = geom.ShortestPathYaw(st.yaw, abs)
	}

	start := st.time
	r.emit(a, st, start, track.InterpCubic)
	st.yaw = target
	st.time = start + cmd.Seconds
	r.emit(a, st, st.time, track.InterpCubic)

	if cmd.Clip != "" {
		r.Animations[a.Name].Open(r.Frame(start), cmd.Clip)
	}
	r.Segments[a.Name] = append(r.Segments[a.Name], track.TimelineSegment{
		Start: start, End: st.time, CommandIndex: cmd.Index,
	})
	return nil
}

func (r *Result) resolveHold(a *plan.Actor, st *actorState, cmd plan.Command) {
	start := st.time
	r.emit(a, st, start, track.InterpCubic)
	st.time = start + cmd.Seconds
	r.emit(a, st, st.time, track.InterpCubic)

	if cmd.Clip != "" {
		r.Animations[a.Name].Open(r.Frame(start), cmd.Clip)
	}
	r.Segments[a.Name] = append(r.Segments[a.Name], track.TimelineSegment{
		Start: start, End: st.time, CommandIndex: cmd.Index,
	})
}

// emit writes a transform keyframe from the current state. The mesh yaw
// offset is applied here so the logical yaw stays clean for math.
func (r *Result) emit(a *plan.Actor, st *actorState, t float64, interp track.Interp) {
	r.Transforms[a.Name].Add(track.TransformKeyframe{
		Frame:  r.Frame(t),
		Pos:    st.pos,
		Roll:   st.roll,
		Pitch:  st.pitch,
		Yaw:    st.yaw + a.MeshYawOffset,
		Interp: interp,
	})
}

func (r *Result) cameras(name string) *CameraTimelines {
	c, ok := r.Cameras[name]
	if !ok {
		c = &CameraTimelines{}
		r.Cameras[name] = c
	}
	return c
}
