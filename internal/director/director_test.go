package director

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/ivlev/choreo/internal/config"
	"github.com/ivlev/choreo/internal/document"
	"github.com/ivlev/choreo/internal/geom"
	"github.com/ivlev/choreo/internal/plan"
)

func heroPlan(t *testing.T, duration float64, tillEnd bool) *plan.MotionPlan {
	t.Helper()
	b := plan.New("test", 30, duration)
	b.AddActor(plan.Actor{Name: "Hero"})
	require.NoError(t, b.Actor("Hero").Move().Direction(geom.North).DistanceInTime(3, 3))
	if tillEnd {
		b.Actor("Hero").StayTillEnd()
	}
	p, err := b.Build()
	require.NoError(t, err)
	return p
}

func TestGapIsAHardFailure(t *testing.T) {
	// 3 seconds of motion in a 10 second plan with no trailing stay.
	p := heroPlan(t, 10, false)

	_, _, err := Compile(p, config.Default())
	require.Error(t, err)
	var gap *plan.MotionTimelineError
	require.ErrorAs(t, err, &gap)
	assert.Equal(t, "Hero", gap.Actor)
	assert.InDelta(t, 7, gap.Gap, 1e-6)
	assert.InDelta(t, 3, gap.At, 1e-6)
}

func TestTillEndClosesTheGap(t *testing.T) {
	p := heroPlan(t, 10, true)

	res, err := CompileResolved(p, config.Default())
	require.NoError(t, err)

	segs := res.Segments["Hero"]
	require.Len(t, segs, 2)
	assert.InDelta(t, 10, segs[1].End, 1e-9, "till-end resolves to the plan duration")
	assert.False(t, segs[1].TillEnd)

	// The pose hold is extended to the final frame.
	final, ok := res.Transforms["Hero"].Last()
	require.True(t, ok)
	assert.Equal(t, 300, final.Frame)
	assert.InDelta(t, 300, final.Pos.X, 1e-6)
}

func TestTillEndOverflow(t *testing.T) {
	// The move alone already runs past the plan's end.
	p := heroPlan(t, 2, true)

	_, _, err := Compile(p, config.Default())
	require.Error(t, err)
	var overflow *plan.TimelineOverflowError
	require.ErrorAs(t, err, &overflow)
	assert.Equal(t, "Hero", overflow.Actor)
	assert.InDelta(t, 1, overflow.Overflow, 1e-6)
}

func TestOverflowWithoutTillEnd(t *testing.T) {
	p := heroPlan(t, 2, false)

	_, _, err := Compile(p, config.Default())
	var overflow *plan.TimelineOverflowError
	assert.ErrorAs(t, err, &overflow)
}

func TestNonStrictSkipsGapCheck(t *testing.T) {
	p := heroPlan(t, 10, false)

	cfg := config.Default()
	cfg.Strict = false
	_, _, err := Compile(p, cfg)
	assert.NoError(t, err)
}

func TestAnimationsClosedAtPlanEnd(t *testing.T) {
	b := plan.New("anim", 30, 8)
	b.AddActor(plan.Actor{Name: "Hero"})
	b.Actor("Hero").Animation("Idle").StayTillEnd()
	p, err := b.Build()
	require.NoError(t, err)

	res, err := CompileResolved(p, config.Default())
	require.NoError(t, err)

	segs := res.Animations["Hero"].Segments
	require.Len(t, segs, 1)
	assert.Equal(t, 240, segs[0].EndFrame)
}

func TestCompileProducesDocument(t *testing.T) {
	p := heroPlan(t, 10, true)

	doc, stats, err := Compile(p, config.Default())
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, 300, doc.TotalFrames)
	assert.Equal(t, 30, doc.FPS)
	require.Len(t, doc.Actors, 1)
	assert.Equal(t, "Hero", doc.Actors[0].Name)
	assert.Equal(t, len(doc.Actors), stats.Actors)
	assert.Equal(t, doc.KeyframeCount(), stats.Keyframes)
}

type recordingSink struct {
	doc *document.KeyframeDocument
	err error
}

func (s *recordingSink) Apply(doc *document.KeyframeDocument) error {
	s.doc = doc
	return s.err
}

func TestDeliverHandsOffWholeDocument(t *testing.T) {
	p := heroPlan(t, 10, true)
	sink := &recordingSink{}

	_, err := Deliver(p, config.Default(), sink)
	require.NoError(t, err)
	require.NotNil(t, sink.doc)
	assert.Equal(t, 300, sink.doc.TotalFrames)
}

func TestDeliverNothingOnCompileError(t *testing.T) {
	p := heroPlan(t, 10, false) // gap
	sink := &recordingSink{}

	_, err := Deliver(p, config.Default(), sink)
	require.Error(t, err)
	assert.Nil(t, sink.doc, "a failing compile must never reach the sink")
}

func TestDeliverPropagatesSinkError(t *testing.T) {
	p := heroPlan(t, 10, true)
	sink := &recordingSink{err: fmt.Errorf("engine offline")}

	_, err := Deliver(p, config.Default(), sink)
	require.Error(t, err)
	assert.ErrorContains(t, err, "engine offline")
}

func TestMultiActorValidation(t *testing.T) {
	b := plan.New("multi", 30, 10)
	b.AddActor(plan.Actor{Name: "Hero"})
	b.AddActor(plan.Actor{Name: "Villain", Position: r3.Vec{X: 500}})
	b.Actor("Hero").Stay(10)
	b.Actor("Villain").Stay(4) // 6 second gap

	p, err := b.Build()
	require.NoError(t, err)

	_, _, err = Compile(p, config.Default())
	var gap *plan.MotionTimelineError
	require.ErrorAs(t, err, &gap)
	assert.Equal(t, "Villain", gap.Actor)
	assert.InDelta(t, 6, gap.Gap, 1e-6)
}
