package document

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/gjson"
	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v3"

	"github.com/ivlev/choreo/internal/geom"
	"github.com/ivlev/choreo/internal/plan"
	"github.com/ivlev/choreo/internal/units"
)

// planDoc is the YAML shape of a command document. Author-facing units:
// positions and distances in meters, durations in seconds, speeds in mph,
// m/s or a named gait, angles in degrees.
type planDoc struct {
	Name       string           `yaml:"name"`
	FPS        int              `yaml:"fps"`
	Duration   float64          `yaml:"duration"`
	Actors     []actorDecl      `yaml:"actors"`
	Lights     []lightDecl      `yaml:"lights"`
	Atmosphere []atmosphereDecl `yaml:"atmosphere"`
	Audio      []audioDecl      `yaml:"audio"`
	Commands   []commandRecord  `yaml:"commands"`
}

type actorDecl struct {
	Name            string    `yaml:"name"`
	Kind            string    `yaml:"kind"`
	Position        []float64 `yaml:"position"` // meters
	Yaw             float64   `yaml:"yaw"`
	Pitch           float64   `yaml:"pitch"`
	Roll            float64   `yaml:"roll"`
	MeshYawOffset   float64   `yaml:"mesh_yaw_offset"`
	HeightM         float64   `yaml:"height_m"`
	CorridorRadiusM float64   `yaml:"corridor_radius_m"`
}

type lightDecl struct {
	Name      string    `yaml:"name"`
	Preset    string    `yaml:"preset"`
	Position  []float64 `yaml:"position"` // meters
	Intensity float64   `yaml:"intensity"`
}

type atmosphereDecl struct {
	Preset  string  `yaml:"preset"`
	Density float64 `yaml:"density"`
}

type audioDecl struct {
	Path   string  `yaml:"path"`
	Start  float64 `yaml:"start"`
	Volume float64 `yaml:"volume"`
}

// commandRecord is one entry of the commands list. Pointer fields
// distinguish "absent" from zero.
type commandRecord struct {
	Command string `yaml:"command"`
	Actor   string `yaml:"actor"`

	Direction   string   `yaml:"direction"`
	Offset      *float64 `yaml:"offset"`
	DistanceM   *float64 `yaml:"distance_m"`
	Seconds     *float64 `yaml:"seconds"`
	SpeedMPH    *float64 `yaml:"speed_mph"`
	SpeedMPS    *float64 `yaml:"speed_mps"`
	Gait        string   `yaml:"gait"`
	RampFromMPS *float64 `yaml:"ramp_from_mps"`
	LateralM    *float64 `yaml:"lateral_m"`
	Waypoint    string   `yaml:"waypoint"`
	Clip        string   `yaml:"clip"`
	Degrees     *float64 `yaml:"degrees"`
	Subject     string   `yaml:"subject"`
	Height      *float64 `yaml:"height"`   // fraction of subject height
	Coverage    *float64 `yaml:"coverage"` // fraction of frame height

	// Scene record commands.
	Preset    string    `yaml:"preset"`
	Position  []float64 `yaml:"position"` // meters
	Intensity *float64  `yaml:"intensity"`
	Density   *float64  `yaml:"density"`
	Path      string    `yaml:"path"`
	Start     *float64  `yaml:"start"`
	Volume    *float64  `yaml:"volume"`
}

// LoadPlan reads a command document, dispatching on the file extension
// (.yaml/.yml or .json), and builds the motion plan.
func LoadPlan(path string) (*plan.MotionPlan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FromJSON(data)
	case ".yaml", ".yml":
		return FromYAML(data)
	default:
		return nil, fmt.Errorf("unsupported command document extension %q", filepath.Ext(path))
	}
}

// FromYAML builds a motion plan from a YAML command document.
func FromYAML(data []byte) (*plan.MotionPlan, error) {
	var doc planDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse command document: %w", err)
	}
	return buildPlan(&doc)
}

// FromJSON builds a motion plan from a JSON command document. Fields are
// extracted record by record, so unknown keys are tolerated.
func FromJSON(data []byte) (*plan.MotionPlan, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("parse command document: invalid JSON")
	}
	root := gjson.ParseBytes(data)

	doc := planDoc{
		Name:     root.Get("name").String(),
		FPS:      int(root.Get("fps").Int()),
		Duration: root.Get("duration").Float(),
	}
	root.Get("actors").ForEach(func(_, v gjson.Result) bool {
		doc.Actors = append(doc.Actors, actorDecl{
			Name:            v.Get("name").String(),
			Kind:            v.Get("kind").String(),
			Position:        floatsOf(v.Get("position")),
			Yaw:             v.Get("yaw").Float(),
			Pitch:           v.Get("pitch").Float(),
			Roll:            v.Get("roll").Float(),
			MeshYawOffset:   v.Get("mesh_yaw_offset").Float(),
			HeightM:         v.Get("height_m").Float(),
			CorridorRadiusM: v.Get("corridor_radius_m").Float(),
		})
		return true
	})
	root.Get("lights").ForEach(func(_, v gjson.Result) bool {
		doc.Lights = append(doc.Lights, lightDecl{
			Name:      v.Get("name").String(),
			Preset:    v.Get("preset").String(),
			Position:  floatsOf(v.Get("position")),
			Intensity: v.Get("intensity").Float(),
		})
		return true
	})
	root.Get("atmosphere").ForEach(func(_, v gjson.Result) bool {
		doc.Atmosphere = append(doc.Atmosphere, atmosphereDecl{
			Preset:  v.Get("preset").String(),
			Density: v.Get("density").Float(),
		})
		return true
	})
	root.Get("audio").ForEach(func(_, v gjson.Result) bool {
		doc.Audio = append(doc.Audio, audioDecl{
			Path:   v.Get("path").String(),
			Start:  v.Get("start").Float(),
			Volume: v.Get("volume").Float(),
		})
		return true
	})
	root.Get("commands").ForEach(func(_, v gjson.Result) bool {
		doc.Commands = append(doc.Commands, commandRecord{
			Command:     v.Get("command").String(),
			Actor:       v.Get("actor").String(),
			Direction:   v.Get("direction").String(),
			Offset:      floatPtr(v.Get("offset")),
			DistanceM:   floatPtr(v.Get("distance_m")),
			Seconds:     floatPtr(v.Get("seconds")),
			SpeedMPH:    floatPtr(v.Get("speed_mph")),
			SpeedMPS:    floatPtr(v.Get("speed_mps")),
			Gait:        v.Get("gait").String(),
			RampFromMPS: floatPtr(v.Get("ramp_from_mps")),
			LateralM:    floatPtr(v.Get("lateral_m")),
			Waypoint:    v.Get("waypoint").String(),
			Clip:        v.Get("clip").String(),
			Degrees:     floatPtr(v.Get("degrees")),
			Subject:     v.Get("subject").String(),
			Height:      floatPtr(v.Get("height")),
			Coverage:    floatPtr(v.Get("coverage")),
			Preset:      v.Get("preset").String(),
			Position:    floatsOf(v.Get("position")),
			Intensity:   floatPtr(v.Get("intensity")),
			Density:     floatPtr(v.Get("density")),
			Path:        v.Get("path").String(),
			Start:       floatPtr(v.Get("start")),
			Volume:      floatPtr(v.Get("volume")),
		})
		return true
	})
	return buildPlan(&doc)
}

func floatPtr(r gjson.Result) *float64 {
	if !r.Exists() {
		return nil
	}
	v := r.Float()
	return &v
}

func floatsOf(r gjson.Result) []float64 {
	var out []float64
	r.ForEach(func(_, v gjson.Result) bool {
		out = append(out, v.Float())
		return true
	})
	return out
}

func buildPlan(doc *planDoc) (*plan.MotionPlan, error) {
	b := plan.New(doc.Name, doc.FPS, doc.Duration)

	for i, a := range doc.Actors {
		if a.Name == "" {
			return nil, fmt.Errorf("actor %d: name is required", i)
		}
		b.AddActor(plan.Actor{
			Name:            a.Name,
			Kind:            plan.ActorKind(a.Kind),
			Position:        vecM(a.Position),
			Yaw:             a.Yaw,
			Pitch:           a.Pitch,
			Roll:            a.Roll,
			MeshYawOffset:   a.MeshYawOffset,
			HeightM:         a.HeightM,
			CorridorRadiusM: a.CorridorRadiusM,
		})
	}
	for _, l := range doc.Lights {
		b.AddLight(plan.LightRecord{Name: l.Name, Preset: l.Preset, Position: vecM(l.Position), Intensity: l.Intensity})
	}
	for _, a := range doc.Atmosphere {
		b.AddAtmosphere(plan.AtmosphereRecord{Preset: a.Preset, Density: a.Density})
	}
	for _, a := range doc.Audio {
		b.AddAudio(plan.AudioRecord{Path: a.Path, StartTime: a.Start, Volume: a.Volume})
	}

	for i, rec := range doc.Commands {
		if err := applyCommand(b, i, rec); err != nil {
			return nil, err
		}
	}
	return b.Build()
}

func applyCommand(b *plan.Builder, i int, rec commandRecord) error {
	// Scene record commands carry no motion semantics; they append to the
	// plan's presentation records in place.
	switch rec.Command {
	case "add_light":
		if rec.Actor == "" {
			return fmt.Errorf("command %d: add_light needs an actor naming the light", i)
		}
		b.AddLight(plan.LightRecord{Name: rec.Actor, Preset: rec.Preset, Position: vecM(rec.Position), Intensity: floatOf(rec.Intensity)})
		return nil
	case "add_atmosphere":
		b.AddAtmosphere(plan.AtmosphereRecord{Preset: rec.Preset, Density: floatOf(rec.Density)})
		return nil
	case "add_audio":
		if rec.Path == "" {
			return fmt.Errorf("command %d: add_audio needs a path", i)
		}
		b.AddAudio(plan.AudioRecord{Path: rec.Path, StartTime: floatOf(rec.Start), Volume: floatOf(rec.Volume)})
		return nil
	}

	if rec.Actor == "" {
		return fmt.Errorf("command %d (%s): actor is required", i, rec.Command)
	}

	switch rec.Command {
	case "move":
		m := b.Actor(rec.Actor).Move()
		if rec.Direction != "" {
			m.Direction(geom.Direction(rec.Direction))
		}
		if rec.Offset != nil {
			m.DirectionOffset(*rec.Offset)
		}
		if rec.LateralM != nil {
			m.Lateral(*rec.LateralM)
		}
		if rec.RampFromMPS != nil {
			m.Ramp(units.MPS(*rec.RampFromMPS))
		}
		if rec.Clip != "" {
			m.Anim(rec.Clip)
		}
		if rec.Waypoint != "" {
			m.Waypoint(rec.Waypoint)
		}
		speed, hasSpeed := speedOf(rec)
		hasDist, hasTime := rec.DistanceM != nil, rec.Seconds != nil
		switch {
		case hasDist && hasTime && hasSpeed:
			return fmt.Errorf("command %d: move supplies distance, time and speed at once", i)
		case hasDist && hasTime:
			return m.DistanceInTime(*rec.DistanceM, *rec.Seconds)
		case hasDist && hasSpeed:
			return m.DistanceAtSpeed(*rec.DistanceM, speed)
		case hasTime && hasSpeed:
			return m.TimeAtSpeed(*rec.Seconds, speed)
		default:
			return fmt.Errorf("command %d: move needs two of distance_m, seconds, speed", i)
		}

	case "move_to_waypoint":
		if rec.Waypoint == "" {
			return fmt.Errorf("command %d: move_to_waypoint needs a waypoint", i)
		}
		speed, ok := speedOf(rec)
		if !ok {
			return fmt.Errorf("command %d: move_to_waypoint needs a speed", i)
		}
		b.Actor(rec.Actor).MoveToWaypoint(rec.Waypoint, speed)

	case "face":
		c := b.Actor(rec.Actor)
		seconds := 0.0
		if rec.Seconds != nil {
			seconds = *rec.Seconds
		}
		switch {
		case rec.Degrees != nil:
			c.FaceDegrees(*rec.Degrees, seconds)
		case rec.Direction != "":
			c.Face(geom.Direction(rec.Direction), seconds)
		default:
			return fmt.Errorf("command %d: face needs a direction or degrees", i)
		}
		if rec.Clip != "" {
			c.Anim(rec.Clip)
		}

	case "turn":
		if rec.Degrees == nil {
			return fmt.Errorf("command %d: turn needs degrees", i)
		}
		seconds := 0.0
		if rec.Seconds != nil {
			seconds = *rec.Seconds
		}
		c := b.Actor(rec.Actor).Turn(*rec.Degrees, seconds)
		if rec.Clip != "" {
			c.Anim(rec.Clip)
		}

	case "stay":
		if rec.Seconds == nil {
			return fmt.Errorf("command %d: stay needs seconds", i)
		}
		c := b.Actor(rec.Actor).Stay(*rec.Seconds)
		if rec.Clip != "" {
			c.Anim(rec.Clip)
		}

	case "stay_till_end":
		b.Actor(rec.Actor).StayTillEnd()

	case "animation":
		if rec.Clip == "" {
			return fmt.Errorf("command %d: animation needs a clip", i)
		}
		b.Actor(rec.Actor).Animation(rec.Clip)

	case "camera_look_at":
		b.Camera(rec.Actor).LookAtSubject(rec.Subject, floatOf(rec.Height))

	case "camera_focus":
		b.Camera(rec.Actor).FocusSubject(rec.Subject, floatOf(rec.Height))

	case "camera_frame_subject":
		if rec.Coverage == nil {
			return fmt.Errorf("command %d: camera_frame_subject needs coverage", i)
		}
		b.Camera(rec.Actor).FrameSubject(rec.Subject, *rec.Coverage)

	case "camera_wait":
		if rec.Seconds == nil {
			return fmt.Errorf("command %d: camera_wait needs seconds", i)
		}
		b.Camera(rec.Actor).Wait(*rec.Seconds)

	default:
		return fmt.Errorf("command %d: unknown command %q", i, rec.Command)
	}
	return nil
}

func speedOf(rec commandRecord) (units.Speed, bool) {
	switch {
	case rec.Gait != "":
		return units.Gait(units.SpeedPreset(rec.Gait)), true
	case rec.SpeedMPH != nil:
		return units.MPH(*rec.SpeedMPH), true
	case rec.SpeedMPS != nil:
		return units.MPS(*rec.SpeedMPS), true
	}
	return units.Speed{}, false
}

func floatOf(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

func vecM(m []float64) r3.Vec {
	var v r3.Vec
	if len(m) > 0 {
		v.X = m[0] * units.MetersToCm
	}
	if len(m) > 1 {
		v.Y = m[1] * units.MetersToCm
	}
	if len(m) > 2 {
		v.Z = m[2] * units.MetersToCm
	}
	return v
}
