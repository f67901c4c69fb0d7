package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/ivlev/choreo/internal/geom"
	"github.com/ivlev/choreo/internal/units"
)

func newTestBuilder() *Builder {
	b := New("test", 30, 10)
	b.AddActor(Actor{Name: "Hero"})
	return b
}

func TestBuildSimplePlan(t *testing.T) {
	b := newTestBuilder()
	c := b.Actor("Hero")
	c.Animation("Idle")
	c.Stay(2)
	m := c.Move().Direction(geom.North)
	require.NoError(t, m.DistanceInTime(5, 5))
	c.StayTillEnd()

	p, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, []string{"Hero"}, p.Managed())
	assert.Len(t, p.Streams["Hero"], 4)
	assert.Equal(t, CmdStayTillEnd, p.Streams["Hero"][3].Kind)
}

func TestSecondTerminalIsAmbiguous(t *testing.T) {
	b := newTestBuilder()
	m := b.Actor("Hero").Move().Direction(geom.North)
	require.NoError(t, m.DistanceInTime(5, 5))

	err := m.TimeAtSpeed(5, units.MPH(8))
	require.Error(t, err)
	var ambiguous *AmbiguousConstraintError
	assert.ErrorAs(t, err, &ambiguous)
	assert.Equal(t, "Hero", ambiguous.Actor)
}

func TestUncommittedMoveIsUnderconstrained(t *testing.T) {
	b := newTestBuilder()
	b.Actor("Hero").Move().Direction(geom.North)

	_, err := b.Build()
	require.Error(t, err)
	var under *UnderconstrainedMotionError
	assert.ErrorAs(t, err, &under)
	assert.Equal(t, "Hero", under.Actor)
}

func TestUncommittedMoveBlocksNextCommand(t *testing.T) {
	b := newTestBuilder()
	c := b.Actor("Hero")
	c.Move().Direction(geom.North)
	c.Stay(10)

	_, err := b.Build()
	var under *UnderconstrainedMotionError
	assert.ErrorAs(t, err, &under)
}

func TestNoCommandsAfterTillEnd(t *testing.T) {
	b := newTestBuilder()
	c := b.Actor("Hero")
	c.Stay(2)
	c.StayTillEnd()
	c.Stay(1)

	_, err := b.Build()
	assert.Error(t, err)
}

func TestUndefinedWaypointReference(t *testing.T) {
	b := newTestBuilder()
	b.Actor("Hero").MoveToWaypoint("nowhere", units.MPS(1))

	_, err := b.Build()
	require.Error(t, err)
	var undef *UndefinedWaypointError
	assert.ErrorAs(t, err, &undef)
	assert.Equal(t, "nowhere", undef.Waypoint)
}

func TestWaypointVisibleAfterRecording(t *testing.T) {
	b := newTestBuilder()
	c := b.Actor("Hero")
	m := c.Move().Direction(geom.North).Waypoint("door")
	require.NoError(t, m.DistanceInTime(5, 5))
	m = c.Move().Direction(geom.East)
	require.NoError(t, m.DistanceInTime(5, 5))
	c.MoveToWaypoint("door", units.MPS(1))
	c.StayTillEnd()

	_, err := b.Build()
	require.NoError(t, err)
}

func TestCrossActorWaypoint(t *testing.T) {
	b := newTestBuilder()
	b.AddActor(Actor{Name: "Villain", Position: r3.Vec{X: 1000}})

	m := b.Actor("Hero").Move().Direction(geom.North).Waypoint("mark")
	require.NoError(t, m.DistanceInTime(5, 5))
	b.Actor("Hero").StayTillEnd()
	b.Actor("Villain").MoveToWaypoint("mark", units.MPS(2))
	b.Actor("Villain").StayTillEnd()

	_, err := b.Build()
	require.NoError(t, err)
}

func TestStayRequiresPositiveDuration(t *testing.T) {
	b := newTestBuilder()
	b.Actor("Hero").Stay(0)

	_, err := b.Build()
	var invalid *InvalidMotionParametersError
	assert.ErrorAs(t, err, &invalid)
}

func TestSimultaneousInsertsSyncHold(t *testing.T) {
	b := newTestBuilder()
	b.AddActor(Actor{Name: "Villain"})
	b.Actor("Hero").Stay(5)

	g := b.Simultaneous()
	g.Actor("Hero").Stay(5)
	g.Actor("Villain").Stay(5)
	b.Actor("Villain").StayTillEnd()
	b.Actor("Hero").StayTillEnd()

	p, err := b.Build()
	require.NoError(t, err)

	villain := p.Streams["Villain"]
	require.NotEmpty(t, villain)
	assert.Equal(t, CmdSync, villain[0].Kind, "behind-clock participant holds up to the fork start")
	assert.InDelta(t, 5, villain[0].Seconds, 1e-9)

	hero := p.Streams["Hero"]
	assert.Equal(t, CmdStay, hero[1].Kind, "on-time participant gets no sync hold")
}

func TestCameraCursor(t *testing.T) {
	b := newTestBuilder()
	b.AddCamera("Cam", r3.Vec{}, 0)

	b.Camera("Cam").
		LookAtSubject("Hero", 0.5).
		FrameSubject("Hero", 0.7).
		Wait(10)
	b.Actor("Hero").StayTillEnd()

	p, err := b.Build()
	require.NoError(t, err)
	stream := p.Streams["Cam"]
	require.Len(t, stream, 3)
	assert.Equal(t, CmdCameraLookAt, stream[0].Kind)
	assert.Equal(t, CmdCameraFrame, stream[1].Kind)
	assert.Equal(t, CmdCameraWait, stream[2].Kind)
}

func TestFrameSubjectCoverageRange(t *testing.T) {
	b := newTestBuilder()
	b.AddCamera("Cam", r3.Vec{}, 0)
	b.Camera("Cam").FrameSubject("Hero", 1.5)

	_, err := b.Build()
	var invalid *InvalidMotionParametersError
	assert.ErrorAs(t, err, &invalid)
}

func TestCameraCursorRejectsCharacters(t *testing.T) {
	b := newTestBuilder()
	b.Camera("Hero")

	_, err := b.Build()
	assert.Error(t, err)
}

func TestActorDefaults(t *testing.T) {
	b := New("t", 30, 10)
	b.AddActor(Actor{Name: "Hero"})
	b.Actor("Hero").StayTillEnd()
	p, err := b.Build()
	require.NoError(t, err)

	a := p.Actors["Hero"]
	assert.Equal(t, KindCharacter, a.Kind)
	assert.InDelta(t, 1.8, a.HeightM, 1e-9)
}
