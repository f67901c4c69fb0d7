// Package document defines the serialized forms at the compiler's edges:
// the command document authors write and the keyframe document the
// external sink consumes.
package document

import (
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ivlev/choreo/internal/plan"
	"github.com/ivlev/choreo/internal/planner"
)

// Property names used in keyframe records.
const (
	PropLocation      = "location"
	PropRotation      = "rotation"
	PropFocusDistance = "focus_distance"
	PropFocalLength   = "focal_length"
)

// KeyframeDocument is the compiled timeline handed to the sink.
type KeyframeDocument struct {
	Plan        string          `yaml:"plan" json:"plan"`
	FPS         int             `yaml:"fps" json:"fps"`
	TotalFrames int             `yaml:"total_frames" json:"total_frames"`
	Actors      []ActorTimeline `yaml:"actors" json:"actors"`
	Scene       *SceneBlock     `yaml:"scene,omitempty" json:"scene,omitempty"`
}

// ActorTimeline carries one actor's keyframes grouped by property.
type ActorTimeline struct {
	Name       string            `yaml:"name" json:"name"`
	Kind       string            `yaml:"kind" json:"kind"`
	Keyframes  []KeyframeRecord  `yaml:"keyframes" json:"keyframes"`
	Animations []AnimationRecord `yaml:"animations,omitempty" json:"animations,omitempty"`
}

// KeyframeRecord is one (frame, property, value, interpolation) tuple.
// Location values are [x, y, z] in centimeters, rotation values are
// [roll, pitch, yaw] in degrees, scalar properties carry one element.
type KeyframeRecord struct {
	Frame    int       `yaml:"frame" json:"frame"`
	Property string    `yaml:"property" json:"property"`
	Value    []float64 `yaml:"value" json:"value"`
	Interp   string    `yaml:"interp" json:"interp"`
}

// AnimationRecord is a clip interval in frames; boundaries are hard cuts.
type AnimationRecord struct {
	StartFrame int    `yaml:"start_frame" json:"start_frame"`
	EndFrame   int    `yaml:"end_frame" json:"end_frame"`
	Clip       string `yaml:"clip" json:"clip"`
}

// SceneBlock carries the presentation-only records, passed through to the
// sink untouched.
type SceneBlock struct {
	Lights     []SceneLight      `yaml:"lights,omitempty" json:"lights,omitempty"`
	Atmosphere []SceneAtmosphere `yaml:"atmosphere,omitempty" json:"atmosphere,omitempty"`
	Audio      []SceneAudio      `yaml:"audio,omitempty" json:"audio,omitempty"`
}

type SceneLight struct {
	Name      string    `yaml:"name" json:"name"`
	Preset    string    `yaml:"preset,omitempty" json:"preset,omitempty"`
	Position  []float64 `yaml:"position" json:"position"`
	Intensity float64   `yaml:"intensity,omitempty" json:"intensity,omitempty"`
}

type SceneAtmosphere struct {
	Preset  string  `yaml:"preset" json:"preset"`
	Density float64 `yaml:"density,omitempty" json:"density,omitempty"`
}

type SceneAudio struct {
	Path   string  `yaml:"path" json:"path"`
	Start  float64 `yaml:"start" json:"start"`
	Volume float64 `yaml:"volume,omitempty" json:"volume,omitempty"`
}

// FromResult flattens a fully resolved and validated plan into the sink
// document. Cameras with a look-at track export its rotation instead of
// the transform one; the look-at pass owns camera orientation.
func FromResult(res *planner.Result) *KeyframeDocument {
	p := res.Plan
	doc := &KeyframeDocument{
		Plan:        p.Name,
		FPS:         p.FPS,
		TotalFrames: planner.FrameOf(p.Duration, p.FPS),
	}

	for _, name := range p.Managed() {
		a := p.Actors[name]
		tl := ActorTimeline{Name: name, Kind: string(a.Kind)}

		tr := res.Transforms[name]
		lookAt := res.Rotations[name]
		for _, k := range tr.Keys {
			tl.Keyframes = append(tl.Keyframes, KeyframeRecord{
				Frame:    k.Frame,
				Property: PropLocation,
				Value:    []float64{k.Pos.X, k.Pos.Y, k.Pos.Z},
				Interp:   string(k.Interp),
			})
		}
		if lookAt != nil {
			for _, k := range lookAt.Keys {
				tl.Keyframes = append(tl.Keyframes, KeyframeRecord{
					Frame:    k.Frame,
					Property: PropRotation,
					Value:    []float64{0, k.Pitch, k.Yaw},
					Interp:   string(k.Interp),
				})
			}
		} else {
			for _, k := range tr.Keys {
				tl.Keyframes = append(tl.Keyframes, KeyframeRecord{
					Frame:    k.Frame,
					Property: PropRotation,
					Value:    []float64{k.Roll, k.Pitch, k.Yaw},
					Interp:   string(k.Interp),
				})
			}
		}
		if foc := res.Focus[name]; foc != nil {
			for _, k := range foc.Keys {
				tl.Keyframes = append(tl.Keyframes, KeyframeRecord{
					Frame: k.Frame, Property: PropFocusDistance, Value: []float64{k.Value}, Interp: string(k.Interp),
				})
			}
		}
		if fl := res.Focal[name]; fl != nil {
			for _, k := range fl.Keys {
				tl.Keyframes = append(tl.Keyframes, KeyframeRecord{
					Frame: k.Frame, Property: PropFocalLength, Value: []float64{k.Value}, Interp: string(k.Interp),
				})
			}
		}
		if anim := res.Animations[name]; anim != nil {
			for _, s := range anim.Segments {
				tl.Animations = append(tl.Animations, AnimationRecord{StartFrame: s.StartFrame, EndFrame: s.EndFrame, Clip: s.Clip})
			}
		}
		doc.Actors = append(doc.Actors, tl)
	}

	doc.Scene = sceneBlock(p)
	return doc
}

func sceneBlock(p *plan.MotionPlan) *SceneBlock {
	if len(p.Lights) == 0 && len(p.Atmosphere) == 0 && len(p.Audio) == 0 {
		return nil
	}
	sc := &SceneBlock{}
	for _, l := range p.Lights {
		sc.Lights = append(sc.Lights, SceneLight{
			Name: l.Name, Preset: l.Preset,
			Position:  []float64{l.Position.X, l.Position.Y, l.Position.Z},
			Intensity: l.Intensity,
		})
	}
	for _, a := range p.Atmosphere {
		sc.Atmosphere = append(sc.Atmosphere, SceneAtmosphere{Preset: a.Preset, Density: a.Density})
	}
	for _, a := range p.Audio {
		sc.Audio = append(sc.Audio, SceneAudio{Path: a.Path, Start: a.StartTime, Volume: a.Volume})
	}
	return sc
}

// KeyframeCount returns the total number of keyframe records.
func (d *KeyframeDocument) KeyframeCount() int {
	n := 0
	for _, a := range d.Actors {
		n += len(a.Keyframes)
	}
	return n
}

// Write serializes the document to a file. Format is "yaml" or "json".
func (d *KeyframeDocument) Write(path, format string) error {
	var data []byte
	var err error
	switch format {
	case "", "yaml":
		data, err = yaml.Marshal(d)
	case "json":
		data, err = json.MarshalIndent(d, "", "  ")
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// WriteWaypoints exports the resolved waypoint table for inspection. The
// sink does not need it.
func WriteWaypoints(res *planner.Result, path string) error {
	table := make(map[string][]float64, len(res.Waypoints))
	for name, pos := range res.Waypoints {
		table[name] = []float64{pos.X, pos.Y, pos.Z}
	}
	data, err := yaml.Marshal(table)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ReadKeyframeDocument loads a previously written document, for tests and
// inspection tooling.
func ReadKeyframeDocument(path string) (*KeyframeDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc KeyframeDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}
