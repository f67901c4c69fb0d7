// Package track holds the keyframe containers produced by the timeline
// resolver and consumed by the camera generator and the exporter.
package track

import (
	"sort"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/ivlev/choreo/internal/geom"
)

// Interp is the interpolation hint attached to a keyframe.
type Interp string

const (
	// InterpCubic is the default smooth ease between keyframes.
	InterpCubic Interp = "cubic"
	// InterpCut marks an instantaneous switch, used for boundary events.
	InterpCut Interp = "cut"
)

// TransformKeyframe is a full pose sample on an actor's timeline.
// Position is in centimeters, angles in degrees.
type TransformKeyframe struct {
	Frame  int
	Pos    r3.Vec
	Roll   float64
	Pitch  float64
	Yaw    float64
	Interp Interp
}

// TransformTrack is a frame-sorted sequence of pose keyframes.
type TransformTrack struct {
	Keys []TransformKeyframe
}

// Add inserts a keyframe keeping the track sorted by frame. A keyframe on
// an already occupied frame replaces the existing one.
func (t *TransformTrack) Add(k TransformKeyframe) {
	i := sort.Search(len(t.Keys), func(i int) bool { return t.Keys[i].Frame >= k.Frame })
	if i < len(t.Keys) && t.Keys[i].Frame == k.Frame {
		t.Keys[i] = k
		return
	}
	t.Keys = append(t.Keys, TransformKeyframe{})
	copy(t.Keys[i+1:], t.Keys[i:])
	t.Keys[i] = k
}

// Last returns the final keyframe of the track.
func (t *TransformTrack) Last() (TransformKeyframe, bool) {
	if len(t.Keys) == 0 {
		return TransformKeyframe{}, false
	}
	return t.Keys[len(t.Keys)-1], true
}

// PositionAt samples the track position at a fractional frame, linearly
// interpolating between the surrounding keyframes and clamping at the
// track ends.
func (t *TransformTrack) PositionAt(frame float64) r3.Vec {
	if len(t.Keys) == 0 {
		return r3.Vec{}
	}
	if frame <= float64(t.Keys[0].Frame) {
		return t.Keys[0].Pos
	}
	last := t.Keys[len(t.Keys)-1]
	if frame >= float64(last.Frame) {
		return last.Pos
	}
	for i := 0; i < len(t.Keys)-1; i++ {
		a, b := t.Keys[i], t.Keys[i+1]
		if frame >= float64(a.Frame) && frame < float64(b.Frame) {
			span := float64(b.Frame - a.Frame)
			if span == 0 {
				return b.Pos
			}
			f := (frame - float64(a.Frame)) / span
			return r3.Vec{
				X: geom.Lerp(a.Pos.X, b.Pos.X, f),
				Y: geom.Lerp(a.Pos.Y, b.Pos.Y, f),
				Z: geom.Lerp(a.Pos.Z, b.Pos.Z, f),
			}
		}
	}
	return last.Pos
}

// RotationKeyframe is a derived camera orientation sample.
type RotationKeyframe struct {
	Frame  int
	Pitch  float64
	Yaw    float64
	Interp Interp
}

// RotationTrack is a frame-sorted sequence of orientation keyframes.
type RotationTrack struct {
	Keys []RotationKeyframe
}

// Add inserts a keyframe keeping the track sorted; same frame replaces.
func (t *RotationTrack) Add(k RotationKeyframe) {
	i := sort.Search(len(t.Keys), func(i int) bool { return t.Keys[i].Frame >= k.Frame })
	if i < len(t.Keys) && t.Keys[i].Frame == k.Frame {
		t.Keys[i] = k
		return
	}
	t.Keys = append(t.Keys, RotationKeyframe{})
	copy(t.Keys[i+1:], t.Keys[i:])
	t.Keys[i] = k
}

// ValueKeyframe is a scalar property sample (focus distance, focal length).
type ValueKeyframe struct {
	Frame  int
	Value  float64
	Interp Interp
}

// ValueTrack is a frame-sorted sequence of scalar keyframes.
type ValueTrack struct {
	Keys []ValueKeyframe
}

// Add inserts a keyframe keeping the track sorted; same frame replaces.
func (t *ValueTrack) Add(k ValueKeyframe) {
	i := sort.Search(len(t.Keys), func(i int) bool { return t.Keys[i].Frame >= k.Frame })
	if i < len(t.Keys) && t.Keys[i].Frame == k.Frame {
		t.Keys[i] = k
		return
	}
	t.Keys = append(t.Keys, ValueKeyframe{})
	copy(t.Keys[i+1:], t.Keys[i:])
	t.Keys[i] = k
}

// AnimationSegment is a half-open clip interval. EndFrame < 0 means the
// segment is still open and will be closed by the next clip switch or at
// the plan's end.
type AnimationSegment struct {
	StartFrame int
	EndFrame   int
	Clip       string
}

// AnimationTrack holds an actor's clip segments in playback order.
type AnimationTrack struct {
	Segments []AnimationSegment
}

// Open closes the currently open segment at frame and starts a new one
// with the given clip.
func (t *AnimationTrack) Open(frame int, clip string) {
	t.CloseOpen(frame)
	t.Segments = append(t.Segments, AnimationSegment{StartFrame: frame, EndFrame: -1, Clip: clip})
}

// CloseOpen sets the end frame of the open segment, if any.
func (t *AnimationTrack) CloseOpen(frame int) {
	if n := len(t.Segments); n > 0 && t.Segments[n-1].EndFrame < 0 {
		t.Segments[n-1].EndFrame = frame
	}
}

// TimelineSegment is the time interval a processed command accounts for.
// TillEnd segments have their End filled in during validation.
type TimelineSegment struct {
	Start        float64
	End          float64
	TillEnd      bool
	CommandIndex int
}

// CameraTimelineEntry is an active tracking interval for one camera
// property kind. End < 0 means the entry is still open.
type CameraTimelineEntry struct {
	Start    float64
	End      float64
	Subject  string
	Fraction float64 // height fraction or coverage, per kind
}

// OpenEntry appends a new open entry after closing the previous one.
func OpenEntry(entries []CameraTimelineEntry, start float64, subject string, fraction float64) []CameraTimelineEntry {
	entries = CloseEntries(entries, start)
	return append(entries, CameraTimelineEntry{Start: start, End: -1, Subject: subject, Fraction: fraction})
}

// CloseEntries closes the trailing open entry, if any, at the given time.
func CloseEntries(entries []CameraTimelineEntry, end float64) []CameraTimelineEntry {
	if n := len(entries); n > 0 && entries[n-1].End < 0 {
		entries[n-1].End = end
	}
	return entries
}
