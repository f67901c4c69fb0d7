package document

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/choreo/internal/camera"
	"github.com/ivlev/choreo/internal/config"
	"github.com/ivlev/choreo/internal/plan"
	"github.com/ivlev/choreo/internal/planner"
)

const yamlDoc = `
name: demo
fps: 30
duration: 8
actors:
  - name: Hero
    position: [0, 0, 0]
  - name: Cam
    kind: camera
    position: [-5, 0, 0]
lights:
  - name: key
    preset: warm
    position: [0, 2, 3]
    intensity: 0.8
commands:
  - {command: animation, actor: Hero, clip: Idle}
  - {command: stay, actor: Hero, seconds: 1}
  - {command: animation, actor: Hero, clip: Jog_Fwd}
  - {command: move, actor: Hero, direction: north, seconds: 5, speed_mph: 8}
  - {command: stay, actor: Hero, seconds: 2}
  - {command: camera_look_at, actor: Cam, subject: Hero, height: 0.5}
  - {command: camera_frame_subject, actor: Cam, subject: Hero, coverage: 0.7}
  - {command: camera_wait, actor: Cam, seconds: 8}
`

const jsonDoc = `{
  "name": "demo",
  "fps": 30,
  "duration": 8,
  "actors": [
    {"name": "Hero", "position": [0, 0, 0]},
    {"name": "Cam", "kind": "camera", "position": [-5, 0, 0]}
  ],
  "lights": [
    {"name": "key", "preset": "warm", "position": [0, 2, 3], "intensity": 0.8}
  ],
  "commands": [
    {"command": "animation", "actor": "Hero", "clip": "Idle"},
    {"command": "stay", "actor": "Hero", "seconds": 1},
    {"command": "animation", "actor": "Hero", "clip": "Jog_Fwd"},
    {"command": "move", "actor": "Hero", "direction": "north", "seconds": 5, "speed_mph": 8},
    {"command": "stay", "actor": "Hero", "seconds": 2},
    {"command": "camera_look_at", "actor": "Cam", "subject": "Hero", "height": 0.5},
    {"command": "camera_frame_subject", "actor": "Cam", "subject": "Hero", "coverage": 0.7},
    {"command": "camera_wait", "actor": "Cam", "seconds": 8}
  ]
}`

func compile(t *testing.T, data []byte, from func([]byte) (*plan.MotionPlan, error)) *KeyframeDocument {
	t.Helper()
	p, err := from(data)
	require.NoError(t, err)
	res, err := planner.Resolve(p)
	require.NoError(t, err)
	require.NoError(t, camera.Generate(res, config.Default()))
	return FromResult(res)
}

func TestYAMLAndJSONAgree(t *testing.T) {
	yamlOut := compile(t, []byte(yamlDoc), FromYAML)
	jsonOut := compile(t, []byte(jsonDoc), FromJSON)

	if diff := cmp.Diff(yamlOut, jsonOut); diff != "" {
		t.Errorf("documents differ (-yaml +json):\n%s", diff)
	}
}

func TestLoadedPlanShape(t *testing.T) {
	p, err := FromYAML([]byte(yamlDoc))
	require.NoError(t, err)

	assert.Equal(t, "demo", p.Name)
	assert.Equal(t, 30, p.FPS)
	assert.InDelta(t, 8, p.Duration, 1e-9)
	assert.Len(t, p.Streams["Hero"], 5)
	assert.Len(t, p.Streams["Cam"], 3)
	require.Len(t, p.Lights, 1)
	assert.InDelta(t, 300, p.Lights[0].Position.Z, 1e-9, "meters converted to centimeters")
}

func TestSceneRecordsPassThrough(t *testing.T) {
	doc := compile(t, []byte(yamlDoc), FromYAML)

	require.NotNil(t, doc.Scene)
	require.Len(t, doc.Scene.Lights, 1)
	assert.Equal(t, "key", doc.Scene.Lights[0].Name)
	assert.Equal(t, "warm", doc.Scene.Lights[0].Preset)
}

func TestKeyframeDocumentWriteRead(t *testing.T) {
	doc := compile(t, []byte(yamlDoc), FromYAML)

	path := filepath.Join(t.TempDir(), "keyframes.yaml")
	require.NoError(t, doc.Write(path, "yaml"))

	got, err := ReadKeyframeDocument(path)
	require.NoError(t, err)
	if diff := cmp.Diff(doc, got); diff != "" {
		t.Errorf("round trip changed the document:\n%s", diff)
	}
}

func TestWriteJSONFormat(t *testing.T) {
	doc := compile(t, []byte(yamlDoc), FromYAML)

	path := filepath.Join(t.TempDir(), "keyframes.json")
	require.NoError(t, doc.Write(path, "json"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"total_frames": 240`)

	require.Error(t, doc.Write(path, "xml"))
}

func TestWriteWaypoints(t *testing.T) {
	const withWaypoint = `
name: wp
fps: 30
duration: 10
actors:
  - name: Hero
commands:
  - {command: move, actor: Hero, direction: north, distance_m: 5, seconds: 5, waypoint: door}
  - {command: stay_till_end, actor: Hero}
`
	p, err := FromYAML([]byte(withWaypoint))
	require.NoError(t, err)
	res, err := planner.Resolve(p)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "waypoints.yaml")
	require.NoError(t, WriteWaypoints(res, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "door")
}

func TestSceneCommandsInCommandList(t *testing.T) {
	const doc = `
name: scene
fps: 30
duration: 5
actors:
  - name: Hero
commands:
  - {command: add_light, actor: key, preset: warm, position: [0, 2, 3], intensity: 0.8}
  - {command: add_atmosphere, preset: dusty, density: 0.3}
  - {command: add_audio, path: cues/door.wav, start: 1.5, volume: 0.6}
  - {command: stay_till_end, actor: Hero}
`
	p, err := FromYAML([]byte(doc))
	require.NoError(t, err)

	require.Len(t, p.Lights, 1)
	assert.Equal(t, "key", p.Lights[0].Name)
	assert.Equal(t, "warm", p.Lights[0].Preset)
	assert.InDelta(t, 300, p.Lights[0].Position.Z, 1e-9, "meters converted to centimeters")
	assert.InDelta(t, 0.8, p.Lights[0].Intensity, 1e-9)

	require.Len(t, p.Atmosphere, 1)
	assert.Equal(t, "dusty", p.Atmosphere[0].Preset)
	assert.InDelta(t, 0.3, p.Atmosphere[0].Density, 1e-9)

	require.Len(t, p.Audio, 1)
	assert.Equal(t, "cues/door.wav", p.Audio[0].Path)
	assert.InDelta(t, 1.5, p.Audio[0].StartTime, 1e-9)
	assert.InDelta(t, 0.6, p.Audio[0].Volume, 1e-9)

	// Scene commands add no motion semantics.
	assert.Len(t, p.Streams["Hero"], 1)
}

func TestSceneCommandsFromJSON(t *testing.T) {
	const doc = `{
	  "name": "scene",
	  "fps": 30,
	  "duration": 5,
	  "actors": [{"name": "Hero"}],
	  "commands": [
	    {"command": "add_light", "actor": "key", "preset": "warm", "position": [0, 2, 3], "intensity": 0.8},
	    {"command": "add_atmosphere", "preset": "dusty", "density": 0.3},
	    {"command": "add_audio", "path": "cues/door.wav", "start": 1.5, "volume": 0.6},
	    {"command": "stay_till_end", "actor": "Hero"}
	  ]
	}`
	p, err := FromJSON([]byte(doc))
	require.NoError(t, err)

	require.Len(t, p.Lights, 1)
	assert.InDelta(t, 0.8, p.Lights[0].Intensity, 1e-9)
	require.Len(t, p.Atmosphere, 1)
	assert.InDelta(t, 0.3, p.Atmosphere[0].Density, 1e-9)
	require.Len(t, p.Audio, 1)
	assert.InDelta(t, 1.5, p.Audio[0].StartTime, 1e-9)
}

func TestAddAudioNeedsPath(t *testing.T) {
	_, err := FromYAML([]byte(`
name: bad
fps: 30
duration: 5
actors:
  - name: Hero
commands:
  - {command: add_audio, start: 1}
  - {command: stay_till_end, actor: Hero}
`))
	require.Error(t, err)
	assert.ErrorContains(t, err, "add_audio")
}

func TestUnknownCommandRejected(t *testing.T) {
	_, err := FromYAML([]byte(`
name: bad
fps: 30
duration: 5
actors:
  - name: Hero
commands:
  - {command: teleport, actor: Hero}
`))
	require.Error(t, err)
	assert.ErrorContains(t, err, "teleport")
}

func TestMoveNeedsTwoQuantities(t *testing.T) {
	_, err := FromYAML([]byte(`
name: bad
fps: 30
duration: 5
actors:
  - name: Hero
commands:
  - {command: move, actor: Hero, direction: north, seconds: 5}
`))
	require.Error(t, err)
}

func TestInvalidJSONRejected(t *testing.T) {
	_, err := FromJSON([]byte("{not json"))
	require.Error(t, err)
}
