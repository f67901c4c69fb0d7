// Package director orchestrates the compilation pipeline and enforces the
// strict timeline invariant before anything reaches the sink.
package director

import (
	"fmt"

	"github.com/ivlev/choreo/internal/camera"
	"github.com/ivlev/choreo/internal/config"
	"github.com/ivlev/choreo/internal/document"
	"github.com/ivlev/choreo/internal/plan"
	"github.com/ivlev/choreo/internal/planner"
	"github.com/ivlev/choreo/internal/system"
)

// Compile runs the full pipeline: resolve actor timelines, generate camera
// derived properties, validate, export. On any error no document is
// produced; stats cover the stages that completed.
func Compile(p *plan.MotionPlan, cfg *config.Config) (*document.KeyframeDocument, *system.CompileStats, error) {
	stats := system.NewCompileStats()
	stats.BuildVersion = cfg.BuildVersion

	res, err := planner.Resolve(p)
	if err != nil {
		return nil, stats, fmt.Errorf("resolve timelines: %w", err)
	}
	stats.MarkResolve()

	if err := camera.Generate(res, cfg); err != nil {
		return nil, stats, fmt.Errorf("camera passes: %w", err)
	}
	stats.MarkCamera()

	if err := Finalize(res, cfg); err != nil {
		return nil, stats, fmt.Errorf("validate timelines: %w", err)
	}
	stats.MarkValidate()

	doc := document.FromResult(res)
	stats.MarkExport()
	stats.Actors = len(doc.Actors)
	stats.Keyframes = doc.KeyframeCount()
	stats.TotalFrames = doc.TotalFrames
	return doc, stats, nil
}

// CompileResolved is Compile without the export step, for callers that
// need the intermediate tracks (waypoint export, tests).
func CompileResolved(p *plan.MotionPlan, cfg *config.Config) (*planner.Result, error) {
	res, err := planner.Resolve(p)
	if err != nil {
		return nil, fmt.Errorf("resolve timelines: %w", err)
	}
	if err := camera.Generate(res, cfg); err != nil {
		return nil, fmt.Errorf("camera passes: %w", err)
	}
	if err := Finalize(res, cfg); err != nil {
		return nil, fmt.Errorf("validate timelines: %w", err)
	}
	return res, nil
}
