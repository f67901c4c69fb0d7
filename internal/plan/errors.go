package plan

import "fmt"

// AmbiguousConstraintError reports a move that committed more than one
// constraint pair.
type AmbiguousConstraintError struct {
	Actor        string
	CommandIndex int
}

func (e *AmbiguousConstraintError) Error() string {
	return fmt.Sprintf("actor %q command %d: move already committed, second constraint pair not allowed", e.Actor, e.CommandIndex)
}

// UnderconstrainedMotionError reports a move that was never committed with
// a constraint pair.
type UnderconstrainedMotionError struct {
	Actor        string
	CommandIndex int
}

func (e *UnderconstrainedMotionError) Error() string {
	return fmt.Sprintf("actor %q command %d: move has no constraint pair (need two of distance, time, speed)", e.Actor, e.CommandIndex)
}

// UndefinedWaypointError reports a waypoint referenced before any command
// recorded it.
type UndefinedWaypointError struct {
	Actor        string
	Waypoint     string
	CommandIndex int
}

func (e *UndefinedWaypointError) Error() string {
	return fmt.Sprintf("actor %q command %d: waypoint %q is not defined at this point", e.Actor, e.CommandIndex, e.Waypoint)
}

// InvalidMotionParametersError reports a non-positive resolved distance,
// duration or speed, or an otherwise unusable parameter combination.
type InvalidMotionParametersError struct {
	Actor        string
	CommandIndex int
	Reason       string
}

func (e *InvalidMotionParametersError) Error() string {
	return fmt.Sprintf("actor %q command %d: %s", e.Actor, e.CommandIndex, e.Reason)
}

// UnknownTrackingSubjectError reports a camera timeline referencing a
// subject that does not exist or has no resolved position track.
type UnknownTrackingSubjectError struct {
	Camera  string
	Subject string
}

func (e *UnknownTrackingSubjectError) Error() string {
	return fmt.Sprintf("camera %q: tracking subject %q does not exist or has no resolved track", e.Camera, e.Subject)
}

// MotionTimelineError reports a gap or overlap in a managed actor's
// timeline before the plan's end.
type MotionTimelineError struct {
	Actor string
	At    float64 // seconds where the discontinuity starts
	Gap   float64 // seconds; negative for an overlap
}

func (e *MotionTimelineError) Error() string {
	if e.Gap < 0 {
		return fmt.Sprintf("actor %q: timeline segments overlap by %.3fs at %.3fs", e.Actor, -e.Gap, e.At)
	}
	return fmt.Sprintf("actor %q: timeline gap of %.3fs at %.3fs", e.Actor, e.Gap, e.At)
}

// TimelineOverflowError reports a till-end marker whose resolution would
// require a negative duration.
type TimelineOverflowError struct {
	Actor    string
	Start    float64 // seconds the till-end command starts at
	Overflow float64 // seconds past the plan's total duration
}

func (e *TimelineOverflowError) Error() string {
	return fmt.Sprintf("actor %q: commands run %.3fs past the plan duration, till-end cannot resolve (starts at %.3fs)", e.Actor, e.Overflow, e.Start)
}
