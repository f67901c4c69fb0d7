// Package camera implements the derived-property passes that run after the
// timeline resolver: look-at rotation, focus distance and adaptive
// auto-zoom. Each pass samples the subject's resolved position track at a
// fixed cadence and emits keyframes only when the value actually moves,
// keeping keyframe counts proportional to segments rather than frames.
package camera

import (
	"math"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/ivlev/choreo/internal/config"
	"github.com/ivlev/choreo/internal/geom"
	"github.com/ivlev/choreo/internal/plan"
	"github.com/ivlev/choreo/internal/planner"
	"github.com/ivlev/choreo/internal/track"
	"github.com/ivlev/choreo/internal/units"
)

// Generate runs the three derived-property passes for every camera that
// has tracking entries. All actor tracks must already be resolved. On any
// error nothing is published for the failing camera.
func Generate(res *planner.Result, cfg *config.Config) error {
	for _, name := range res.Plan.Order {
		tls, ok := res.Cameras[name]
		if !ok {
			continue
		}

		gen := &generator{res: res, cfg: cfg, camera: name}
		rot := &track.RotationTrack{}
		foc := &track.ValueTrack{}
		fl := &track.ValueTrack{}

		// The passes are independent per camera; each writes only its
		// own track.
		var g errgroup.Group
		g.Go(func() error { return gen.lookAtPass(tls.LookAt, rot) })
		g.Go(func() error { return gen.focusPass(tls.Focus, foc) })
		g.Go(func() error { return gen.zoomPass(tls.Zoom, fl) })
		if err := g.Wait(); err != nil {
			return err
		}

		if len(rot.Keys) > 0 {
			res.Rotations[name] = rot
		}
		if len(foc.Keys) > 0 {
			res.Focus[name] = foc
		}
		if len(fl.Keys) > 0 {
			res.Focal[name] = fl
		}
	}
	return nil
}

type generator struct {
	res    *planner.Result
	cfg    *config.Config
	camera string
}

// subject returns the tracked actor and its resolved position track, or an
// UnknownTrackingSubjectError. Checked per pass before any keyframe is
// produced.
func (g *generator) subject(name string) (*plan.Actor, *track.TransformTrack, error) {
	a, ok := g.res.Plan.Actors[name]
	if !ok {
		return nil, nil, &plan.UnknownTrackingSubjectError{Camera: g.camera, Subject: name}
	}
	tr, ok := g.res.Transforms[name]
	if !ok || len(tr.Keys) == 0 {
		return nil, nil, &plan.UnknownTrackingSubjectError{Camera: g.camera, Subject: name}
	}
	return a, tr, nil
}

// samples lists the sampling times for an entry: both boundaries plus the
// fixed cadence in between.
func (g *generator) samples(e track.CameraTimelineEntry) []float64 {
	out := []float64{e.Start}
	step := g.cfg.SampleInterval
	if step <= 0 {
		step = 2.0
	}
	for t := e.Start + step; t < e.End-1e-9; t += step {
		out = append(out, t)
	}
	if e.End > e.Start {
		out = append(out, e.End)
	}
	return out
}

func (g *generator) frameF(t float64) float64 {
	return t * float64(g.res.Plan.FPS)
}

func (g *generator) camPos(t float64) r3.Vec {
	if tr, ok := g.res.Transforms[g.camera]; ok && len(tr.Keys) > 0 {
		return tr.PositionAt(g.frameF(t))
	}
	// A camera with no resolved motion keeps its registered pose.
	if a, ok := g.res.Plan.Actors[g.camera]; ok {
		return a.Position
	}
	return r3.Vec{}
}

// lookAtPass emits pitch/yaw keyframes pointing the camera at the active
// subject, skipping samples that moved less than the angle epsilon.
func (g *generator) lookAtPass(entries []track.CameraTimelineEntry, out *track.RotationTrack) error {
	for _, e := range entries {
		a, subj, err := g.subject(e.Subject)
		if err != nil {
			return err
		}
		offset := e.Fraction * a.HeightM * units.MetersToCm

		havePrev := false
		var lastPitch, lastYaw float64
		for i, t := range g.samples(e) {
			boundary := i == 0 || t == e.End
			aim := subj.PositionAt(g.frameF(t))
			aim.Z += offset
			pitch, yaw := geom.LookAtAngles(g.camPos(t), aim)
			if havePrev {
				// Keep yaw continuous across the atan2 branch cut.
				yaw = geom.ShortestPathYaw(lastYaw, yaw)
			}
			moved := !havePrev ||
				math.Abs(pitch-lastPitch) > g.cfg.AngleEpsilon ||
				math.Abs(yaw-lastYaw) > g.cfg.AngleEpsilon
			if boundary || moved {
				out.Add(track.RotationKeyframe{Frame: planner.FrameOf(t, g.res.Plan.FPS), Pitch: pitch, Yaw: yaw, Interp: track.InterpCubic})
				lastPitch, lastYaw = pitch, yaw
				havePrev = true
			}
		}
	}
	return nil
}

// focusPass emits depth-of-field distance keyframes in meters, with the
// relative-change suppression policy.
func (g *generator) focusPass(entries []track.CameraTimelineEntry, out *track.ValueTrack) error {
	return g.valuePass(entries, out, func(e track.CameraTimelineEntry, a *plan.Actor, camPos, subjPos r3.Vec) float64 {
		aim := subjPos
		aim.Z += e.Fraction * a.HeightM * units.MetersToCm
		return geom.Dist(camPos, aim) / units.MetersToCm
	})
}

// zoomPass emits focal length keyframes driven by the target on-screen
// coverage: focal = sensor height * distance * coverage / subject height.
func (g *generator) zoomPass(entries []track.CameraTimelineEntry, out *track.ValueTrack) error {
	return g.valuePass(entries, out, func(e track.CameraTimelineEntry, a *plan.Actor, camPos, subjPos r3.Vec) float64 {
		height := a.HeightM
		if height <= 0 {
			height = g.cfg.DefaultSubjectHeightM
		}
		distM := geom.Dist(camPos, subjPos) / units.MetersToCm
		return g.cfg.SensorHeightMM * distM * e.Fraction / height
	})
}

func (g *generator) valuePass(entries []track.CameraTimelineEntry, out *track.ValueTrack, value func(track.CameraTimelineEntry, *plan.Actor, r3.Vec, r3.Vec) float64) error {
	for _, e := range entries {
		a, subj, err := g.subject(e.Subject)
		if err != nil {
			return err
		}

		havePrev := false
		last := 0.0
		for i, t := range g.samples(e) {
			boundary := i == 0 || t == e.End
			v := value(e, a, g.camPos(t), subj.PositionAt(g.frameF(t)))
			changed := !havePrev || relChange(v, last) > g.cfg.ZoomChangeThreshold
			if boundary || changed {
				out.Add(track.ValueKeyframe{Frame: planner.FrameOf(t, g.res.Plan.FPS), Value: v, Interp: track.InterpCubic})
				last = v
				havePrev = true
			}
		}
	}
	return nil
}

func relChange(v, last float64) float64 {
	if last == 0 {
		return math.Inf(1)
	}
	return math.Abs(v-last) / math.Abs(last)
}
