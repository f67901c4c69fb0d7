package track

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestTransformTrackSortedInsert(t *testing.T) {
	tr := &TransformTrack{}
	tr.Add(TransformKeyframe{Frame: 100})
	tr.Add(TransformKeyframe{Frame: 0})
	tr.Add(TransformKeyframe{Frame: 50})

	assert.Equal(t, []int{0, 50, 100}, frames(tr))
}

func TestTransformTrackSameFrameReplaces(t *testing.T) {
	tr := &TransformTrack{}
	tr.Add(TransformKeyframe{Frame: 30, Yaw: 10})
	tr.Add(TransformKeyframe{Frame: 30, Yaw: 20})

	assert.Len(t, tr.Keys, 1)
	assert.InDelta(t, 20, tr.Keys[0].Yaw, 1e-9)
}

func TestPositionAt(t *testing.T) {
	tr := &TransformTrack{}
	tr.Add(TransformKeyframe{Frame: 0, Pos: r3.Vec{}})
	tr.Add(TransformKeyframe{Frame: 100, Pos: r3.Vec{X: 100}})

	mid := tr.PositionAt(50)
	assert.InDelta(t, 50, mid.X, 1e-9)

	// Clamped at both ends.
	assert.InDelta(t, 0, tr.PositionAt(-10).X, 1e-9)
	assert.InDelta(t, 100, tr.PositionAt(500).X, 1e-9)
}

func TestAnimationTrackOpenClose(t *testing.T) {
	at := &AnimationTrack{}
	at.Open(0, "Idle")
	at.Open(30, "Jog_Fwd")

	assert.Len(t, at.Segments, 2)
	assert.Equal(t, AnimationSegment{StartFrame: 0, EndFrame: 30, Clip: "Idle"}, at.Segments[0])
	assert.Equal(t, -1, at.Segments[1].EndFrame, "latest segment stays open")

	at.CloseOpen(240)
	assert.Equal(t, 240, at.Segments[1].EndFrame)

	// Closing again is a no-op.
	at.CloseOpen(300)
	assert.Equal(t, 240, at.Segments[1].EndFrame)
}

func TestCameraEntries(t *testing.T) {
	var entries []CameraTimelineEntry
	entries = OpenEntry(entries, 0, "Hero", 0.5)
	entries = OpenEntry(entries, 4, "Villain", 0.7)
	entries = CloseEntries(entries, 10)

	assert.Len(t, entries, 2)
	assert.Equal(t, CameraTimelineEntry{Start: 0, End: 4, Subject: "Hero", Fraction: 0.5}, entries[0])
	assert.Equal(t, CameraTimelineEntry{Start: 4, End: 10, Subject: "Villain", Fraction: 0.7}, entries[1])
}

func frames(tr *TransformTrack) []int {
	out := make([]int, 0, len(tr.Keys))
	for _, k := range tr.Keys {
		out = append(out, k.Frame)
	}
	return out
}
