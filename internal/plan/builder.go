package plan

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/ivlev/choreo/internal/geom"
	"github.com/ivlev/choreo/internal/units"
)

// Builder accumulates per-actor command streams and validates authoring
// constraints as they are declared. It keeps a virtual clock and pose per
// actor so simultaneous forks and waypoint references can be checked
// before compilation. Errors are collected and surfaced by Build; terminal
// move methods also return theirs immediately.
type Builder struct {
	name     string
	fps      int
	duration float64

	actors  map[string]*Actor
	order   []string
	streams map[string][]Command

	poses     map[string]*virtualPose
	waypoints map[string]r3.Vec
	tillEnd   map[string]bool
	pending   map[string]*MoveBuilder

	lights     []LightRecord
	atmosphere []AtmosphereRecord
	audio      []AudioRecord

	errs []error
}

// virtualPose is the builder's authoring-time view of an actor. The
// resolver recomputes the authoritative values during compilation.
type virtualPose struct {
	Time float64
	Pos  r3.Vec
	Yaw  float64
}

// New creates a builder for a plan with the given global timing.
func New(name string, fps int, duration float64) *Builder {
	return &Builder{
		name:      name,
		fps:       fps,
		duration:  duration,
		actors:    make(map[string]*Actor),
		streams:   make(map[string][]Command),
		poses:     make(map[string]*virtualPose),
		waypoints: make(map[string]r3.Vec),
		tillEnd:   make(map[string]bool),
		pending:   make(map[string]*MoveBuilder),
	}
}

// AddActor registers an actor. Zero Kind defaults to character, zero
// HeightM to 1.8 m.
func (b *Builder) AddActor(a Actor) *Builder {
	if a.Name == "" {
		b.fail(fmt.Errorf("actor name must not be empty"))
		return b
	}
	if _, ok := b.actors[a.Name]; ok {
		b.fail(fmt.Errorf("actor %q registered twice", a.Name))
		return b
	}
	if a.Kind == "" {
		a.Kind = KindCharacter
	}
	if a.HeightM == 0 {
		a.HeightM = 1.8
	}
	cp := a
	b.actors[a.Name] = &cp
	b.order = append(b.order, a.Name)
	b.poses[a.Name] = &virtualPose{Pos: a.Position, Yaw: a.Yaw}
	return b
}

// AddCamera registers a camera actor.
func (b *Builder) AddCamera(name string, pos r3.Vec, yaw float64) *Builder {
	return b.AddActor(Actor{Name: name, Kind: KindCamera, Position: pos, Yaw: yaw})
}

// AddLight records a presentation-only light.
func (b *Builder) AddLight(rec LightRecord) *Builder {
	b.lights = append(b.lights, rec)
	return b
}

// AddAtmosphere records a presentation-only atmosphere.
func (b *Builder) AddAtmosphere(rec AtmosphereRecord) *Builder {
	b.atmosphere = append(b.atmosphere, rec)
	return b
}

// AddAudio records a presentation-only audio cue.
func (b *Builder) AddAudio(rec AudioRecord) *Builder {
	b.audio = append(b.audio, rec)
	return b
}

// Actor returns a command cursor for a registered actor.
func (b *Builder) Actor(name string) *ActorCursor {
	if _, ok := b.actors[name]; !ok {
		b.fail(fmt.Errorf("actor %q is not registered", name))
	}
	return &ActorCursor{b: b, name: name}
}

// Camera returns a tracking cursor for a registered camera actor.
func (b *Builder) Camera(name string) *CameraCursor {
	a, ok := b.actors[name]
	if !ok {
		b.fail(fmt.Errorf("camera %q is not registered", name))
	} else if a.Kind != KindCamera {
		b.fail(fmt.Errorf("actor %q is not a camera", name))
	}
	return &CameraCursor{c: &ActorCursor{b: b, name: name}}
}

// Simultaneous opens a fork block: every cursor obtained from it starts at
// the same logical time, the latest virtual clock among all actors.
// Completions are not joined; each stream continues at its own pace.
func (b *Builder) Simultaneous() *Group {
	start := 0.0
	for _, p := range b.poses {
		if p.Time > start {
			start = p.Time
		}
	}
	return &Group{b: b, start: start}
}

// Build finalizes the plan. Returns the first authoring error, if any.
func (b *Builder) Build() (*MotionPlan, error) {
	for name, m := range b.pending {
		b.fail(&UnderconstrainedMotionError{Actor: name, CommandIndex: m.index})
	}
	if b.fps <= 0 {
		b.fail(fmt.Errorf("fps must be positive, got %d", b.fps))
	}
	if b.duration <= 0 {
		b.fail(fmt.Errorf("total duration must be positive, got %.3f", b.duration))
	}
	if len(b.errs) > 0 {
		return nil, b.errs[0]
	}
	return &MotionPlan{
		Name:       b.name,
		FPS:        b.fps,
		Duration:   b.duration,
		Actors:     b.actors,
		Order:      b.order,
		Streams:    b.streams,
		Lights:     b.lights,
		Atmosphere: b.atmosphere,
		Audio:      b.audio,
	}, nil
}

func (b *Builder) fail(err error) {
	b.errs = append(b.errs, err)
}

// append adds a command to an actor's stream after checking stream-level
// invariants: nothing after a till-end marker, no other command while a
// move is left uncommitted.
func (b *Builder) append(name string, cmd Command) {
	if m, ok := b.pending[name]; ok {
		b.fail(&UnderconstrainedMotionError{Actor: name, CommandIndex: m.index})
		delete(b.pending, name)
	}
	if b.tillEnd[name] {
		b.fail(fmt.Errorf("actor %q: no commands allowed after a till-end stay", name))
		return
	}
	cmd.Index = len(b.streams[name])
	b.streams[name] = append(b.streams[name], cmd)
}

// ActorCursor appends commands to one actor's stream.
type ActorCursor struct {
	b    *Builder
	name string
}

func (c *ActorCursor) pose() *virtualPose {
	if p, ok := c.b.poses[c.name]; ok {
		return p
	}
	return &virtualPose{}
}

// Move opens a move command. One of the three terminal methods on the
// returned builder must be called before the next command.
func (c *ActorCursor) Move() *MoveBuilder {
	m := &MoveBuilder{
		c:     c,
		index: len(c.b.streams[c.name]),
		cmd: Command{
			Kind:      CmdMove,
			Direction: geom.Forward,
			Offset:    geom.DefaultDiagonalOffset,
		},
	}
	if prev, ok := c.b.pending[c.name]; ok {
		c.b.fail(&UnderconstrainedMotionError{Actor: c.name, CommandIndex: prev.index})
	}
	c.b.pending[c.name] = m
	return m
}

// MoveToWaypoint walks the actor in a straight line to a previously
// recorded waypoint at the given speed, turning to face the travel
// direction.
func (c *ActorCursor) MoveToWaypoint(waypoint string, speed units.Speed) *ActorCursor {
	idx := len(c.b.streams[c.name])
	wp, ok := c.b.waypoints[waypoint]
	if !ok {
		c.b.fail(&UndefinedWaypointError{Actor: c.name, Waypoint: waypoint, CommandIndex: idx})
		return c
	}
	v, err := speed.Resolve()
	if err != nil || v <= 0 {
		c.b.fail(&InvalidMotionParametersError{Actor: c.name, CommandIndex: idx, Reason: "move to waypoint needs a positive speed"})
		return c
	}
	pose := c.pose()
	dist := geom.Dist(pose.Pos, wp)
	d := r3.Sub(wp, pose.Pos)
	if math.Hypot(d.X, d.Y) > 1e-9 {
		pose.Yaw = geom.ShortestPathYaw(pose.Yaw, math.Atan2(d.Y, d.X)*180/math.Pi)
	}
	pose.Pos = wp
	pose.Time += dist / v
	c.b.append(c.name, Command{Kind: CmdMoveToWaypoint, Waypoint: waypoint, Speed: speed})
	return c
}

// Face turns the actor toward a cardinal direction over the given duration.
func (c *ActorCursor) Face(dir geom.Direction, seconds float64) *ActorCursor {
	idx := len(c.b.streams[c.name])
	target, ok := geom.CardinalAngle(dir)
	if !ok {
		c.b.fail(&InvalidMotionParametersError{Actor: c.name, CommandIndex: idx, Reason: fmt.Sprintf("face needs a cardinal direction, got %q", dir)})
		return c
	}
	return c.faceYaw(target, seconds, Command{Kind: CmdFace, Direction: dir, Offset: geom.DefaultDiagonalOffset})
}

// FaceDegrees turns the actor to an absolute world yaw.
func (c *ActorCursor) FaceDegrees(deg, seconds float64) *ActorCursor {
	return c.faceYaw(deg, seconds, Command{Kind: CmdFace, TargetYaw: deg, HasTargetYaw: true})
}

// Turn rotates the actor by a relative angle, positive clockwise.
func (c *ActorCursor) Turn(relativeDeg, seconds float64) *ActorCursor {
	pose := c.pose()
	idx := len(c.b.streams[c.name])
	if seconds < 0 {
		c.b.fail(&InvalidMotionParametersError{Actor: c.name, CommandIndex: idx, Reason: "turn duration must not be negative"})
		return c
	}
	pose.Yaw += relativeDeg
	pose.Time += seconds
	c.b.append(c.name, Command{Kind: CmdTurn, RelativeDeg: relativeDeg, Seconds: seconds})
	return c
}

func (c *ActorCursor) faceYaw(target, seconds float64, cmd Command) *ActorCursor {
	idx := len(c.b.streams[c.name])
	if seconds < 0 {
		c.b.fail(&InvalidMotionParametersError{Actor: c.name, CommandIndex: idx, Reason: "face duration must not be negative"})
		return c
	}
	pose := c.pose()
	pose.Yaw = geom.ShortestPathYaw(pose.Yaw, target)
	pose.Time += seconds
	cmd.Seconds = seconds
	c.b.append(c.name, cmd)
	return c
}

// Stay holds the current pose for the given duration.
func (c *ActorCursor) Stay(seconds float64) *ActorCursor {
	idx := len(c.b.streams[c.name])
	if seconds <= 0 {
		c.b.fail(&InvalidMotionParametersError{Actor: c.name, CommandIndex: idx, Reason: "stay duration must be positive"})
		return c
	}
	c.pose().Time += seconds
	c.b.append(c.name, Command{Kind: CmdStay, Seconds: seconds})
	return c
}

// StayTillEnd holds the current pose until the plan's total duration. Must
// be the last command for the actor; it may appear only once.
func (c *ActorCursor) StayTillEnd() *ActorCursor {
	c.b.append(c.name, Command{Kind: CmdStayTillEnd})
	c.b.tillEnd[c.name] = true
	return c
}

// Animation switches the active clip at the current time. The clip plays
// until the next switch or the plan's end; transitions are hard cuts.
func (c *ActorCursor) Animation(clip string) *ActorCursor {
	c.b.append(c.name, Command{Kind: CmdAnimation, Clip: clip})
	return c
}

// Anim overlays a clip on the previously appended face, turn or stay
// command, spanning the same interval.
func (c *ActorCursor) Anim(clip string) *ActorCursor {
	stream := c.b.streams[c.name]
	if len(stream) == 0 {
		c.b.fail(fmt.Errorf("actor %q: anim overlay needs a preceding command", c.name))
		return c
	}
	last := &stream[len(stream)-1]
	switch last.Kind {
	case CmdFace, CmdTurn, CmdStay:
		last.Clip = clip
	default:
		c.b.fail(fmt.Errorf("actor %q: anim overlay not supported on %s", c.name, last.Kind))
	}
	return c
}

// MoveBuilder accumulates a move's parameters. It starts unconstrained;
// exactly one terminal method commits it. Calling a second terminal method
// is an AmbiguousConstraintError, discarding the builder without calling
// one surfaces an UnderconstrainedMotionError on the next command or at
// Build.
type MoveBuilder struct {
	c         *ActorCursor
	index     int
	cmd       Command
	committed bool
}

// Direction sets the travel direction. Defaults to forward.
func (m *MoveBuilder) Direction(d geom.Direction) *MoveBuilder {
	m.cmd.Direction = d
	return m
}

// DirectionOffset sets the compound-direction offset in degrees.
func (m *MoveBuilder) DirectionOffset(deg float64) *MoveBuilder {
	m.cmd.Offset = deg
	return m
}

// Lateral adds a perpendicular drift in meters, positive to the left of
// travel. Clamped to the actor's corridor radius during resolution.
func (m *MoveBuilder) Lateral(offsetM float64) *MoveBuilder {
	m.cmd.LateralCm = offsetM * units.MetersToCm
	return m
}

// Ramp replaces constant speed with a linear ramp from the given start
// speed to the terminal method's target speed.
func (m *MoveBuilder) Ramp(from units.Speed) *MoveBuilder {
	m.cmd.RampFrom = from
	m.cmd.HasRamp = true
	return m
}

// Anim overlays a clip for the duration of the move.
func (m *MoveBuilder) Anim(clip string) *MoveBuilder {
	m.cmd.Clip = clip
	return m
}

// Waypoint records the move's end position under the given name.
func (m *MoveBuilder) Waypoint(name string) *MoveBuilder {
	m.cmd.Waypoint = name
	return m
}

// DistanceAtSpeed commits the move with a distance (meters) and a speed.
func (m *MoveBuilder) DistanceAtSpeed(meters float64, speed units.Speed) error {
	return m.commit(meters*units.MetersToCm, 0, speed)
}

// DistanceInTime commits the move with a distance (meters) and a duration.
func (m *MoveBuilder) DistanceInTime(meters, seconds float64) error {
	return m.commit(meters*units.MetersToCm, seconds, units.Speed{})
}

// TimeAtSpeed commits the move with a duration and a speed.
func (m *MoveBuilder) TimeAtSpeed(seconds float64, speed units.Speed) error {
	return m.commit(0, seconds, speed)
}

func (m *MoveBuilder) commit(distCm, seconds float64, speed units.Speed) error {
	b := m.c.b
	name := m.c.name
	if m.committed {
		err := &AmbiguousConstraintError{Actor: name, CommandIndex: m.index}
		b.fail(err)
		return err
	}
	m.committed = true
	delete(b.pending, name)

	invalid := func(reason string) error {
		err := &InvalidMotionParametersError{Actor: name, CommandIndex: m.index, Reason: reason}
		b.fail(err)
		return err
	}

	speedCm := 0.0
	if !speed.IsZero() {
		v, err := speed.Resolve()
		if err != nil {
			return invalid(err.Error())
		}
		speedCm = v
	}
	rampCm := -1.0
	if m.cmd.HasRamp {
		v, err := m.cmd.RampFrom.Resolve()
		if err != nil {
			return invalid(err.Error())
		}
		rampCm = v
	}

	sol, err := units.SolveMove(distCm, seconds, speedCm, rampCm)
	if err != nil {
		return invalid(err.Error())
	}

	m.cmd.DistanceCm = distCm
	m.cmd.Seconds = seconds
	m.cmd.Speed = speed

	// Advance the virtual pose the way the resolver will, so later
	// waypoint references and fork starts line up.
	pose := m.c.pose()
	dir := geom.DirectionVector(m.cmd.Direction, pose.Yaw, m.cmd.Offset)
	end := r3.Add(pose.Pos, r3.Scale(sol.DistanceCm, dir))
	if m.cmd.LateralCm != 0 {
		radius := 0.0
		if a, ok := b.actors[name]; ok {
			radius = a.CorridorRadiusM * units.MetersToCm
		}
		end = r3.Add(end, geom.CorridorOffset(dir, m.cmd.LateralCm, radius))
	}
	pose.Pos = end
	pose.Time += sol.Seconds
	if m.cmd.Waypoint != "" {
		b.waypoints[m.cmd.Waypoint] = end
	}

	b.append(name, m.cmd)
	return nil
}

// CameraCursor appends tracking commands to a camera's stream. Tracking
// entries are instantaneous; use Wait or TillEnd to give the camera time.
type CameraCursor struct {
	c *ActorCursor
}

// LookAtSubject points the camera at a subject. The aim point is the
// subject's position plus heightFraction of its nominal height.
func (cc *CameraCursor) LookAtSubject(subject string, heightFraction float64) *CameraCursor {
	cc.c.b.append(cc.c.name, Command{Kind: CmdCameraLookAt, Subject: subject, Fraction: heightFraction})
	return cc
}

// FocusSubject tracks depth-of-field distance to a subject.
func (cc *CameraCursor) FocusSubject(subject string, heightFraction float64) *CameraCursor {
	cc.c.b.append(cc.c.name, Command{Kind: CmdCameraFocus, Subject: subject, Fraction: heightFraction})
	return cc
}

// FrameSubject drives focal length so the subject fills the given fraction
// of the vertical frame, in (0, 1].
func (cc *CameraCursor) FrameSubject(subject string, coverage float64) *CameraCursor {
	idx := len(cc.c.b.streams[cc.c.name])
	if coverage <= 0 || coverage > 1 {
		cc.c.b.fail(&InvalidMotionParametersError{Actor: cc.c.name, CommandIndex: idx, Reason: fmt.Sprintf("coverage must be in (0, 1], got %.3f", coverage)})
		return cc
	}
	cc.c.b.append(cc.c.name, Command{Kind: CmdCameraFrame, Subject: subject, Fraction: coverage})
	return cc
}

// Wait holds the camera in place for the given duration.
func (cc *CameraCursor) Wait(seconds float64) *CameraCursor {
	idx := len(cc.c.b.streams[cc.c.name])
	if seconds <= 0 {
		cc.c.b.fail(&InvalidMotionParametersError{Actor: cc.c.name, CommandIndex: idx, Reason: "wait duration must be positive"})
		return cc
	}
	cc.c.pose().Time += seconds
	cc.c.b.append(cc.c.name, Command{Kind: CmdCameraWait, Seconds: seconds})
	return cc
}

// TillEnd holds the camera until the plan's total duration.
func (cc *CameraCursor) TillEnd() *CameraCursor {
	cc.c.StayTillEnd()
	return cc
}

// Actor exposes the underlying movement cursor, for cameras that travel.
func (cc *CameraCursor) Actor() *ActorCursor {
	return cc.c
}

// Group is a simultaneous block. Cursors obtained from it all start at the
// fork time; participants whose clock is behind get an internal hold up to
// the fork start so their timeline stays complete.
type Group struct {
	b     *Builder
	start float64
}

// Actor returns a cursor synced to the fork start.
func (g *Group) Actor(name string) *ActorCursor {
	c := g.b.Actor(name)
	if pose, ok := g.b.poses[name]; ok && pose.Time < g.start-1e-9 {
		g.b.append(name, Command{Kind: CmdSync, Seconds: g.start - pose.Time})
		pose.Time = g.start
	}
	return c
}

// Camera returns a camera cursor synced to the fork start.
func (g *Group) Camera(name string) *CameraCursor {
	cc := g.b.Camera(name)
	if pose, ok := g.b.poses[name]; ok && pose.Time < g.start-1e-9 {
		g.b.append(name, Command{Kind: CmdSync, Seconds: g.start - pose.Time})
		pose.Time = g.start
	}
	return cc
}
