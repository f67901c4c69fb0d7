// Package system collects compile statistics for the CLI's optional
// performance report.
package system

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/process"
)

// CompileStats accumulates per-stage timings and document counters.
type CompileStats struct {
	start time.Time
	mark  time.Time

	ResolveTime  time.Duration
	CameraTime   time.Duration
	ValidateTime time.Duration
	ExportTime   time.Duration

	Actors      int
	Keyframes   int
	TotalFrames int

	BuildVersion string
}

// NewCompileStats starts the clock.
func NewCompileStats() *CompileStats {
	now := time.Now()
	return &CompileStats{start: now, mark: now}
}

func (s *CompileStats) lap() time.Duration {
	now := time.Now()
	d := now.Sub(s.mark)
	s.mark = now
	return d
}

// MarkResolve records the resolver stage duration.
func (s *CompileStats) MarkResolve() { s.ResolveTime = s.lap() }

// MarkCamera records the camera passes duration.
func (s *CompileStats) MarkCamera() { s.CameraTime = s.lap() }

// MarkValidate records the validation stage duration.
func (s *CompileStats) MarkValidate() { s.ValidateTime = s.lap() }

// MarkExport records the export stage duration.
func (s *CompileStats) MarkExport() { s.ExportTime = s.lap() }

// Total returns the elapsed time since the stats were created.
func (s *CompileStats) Total() time.Duration { return time.Since(s.start) }

// Report renders the performance block printed by the CLI under -stats.
func (s *CompileStats) Report() string {
	rss := "n/a"
	if p, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if mi, err := p.MemoryInfo(); err == nil {
			rss = fmt.Sprintf("%.1f MB", float64(mi.RSS)/(1024*1024))
		}
	}

	return fmt.Sprintf(
		"--- [PERFORMANCE REPORT] ---\n"+
			"Build: %s\n"+
			"Total Time: %.3fs\n"+
			"Resolve: %.3fs\n"+
			"Camera Passes: %.3fs\n"+
			"Validation: %.3fs\n"+
			"Export: %.3fs\n"+
			"Actors: %d | Keyframes: %d | Frames: %d\n"+
			"CPU Cores: %d | RSS: %s\n"+
			"----------------------------\n",
		s.BuildVersion,
		s.Total().Seconds(),
		s.ResolveTime.Seconds(),
		s.CameraTime.Seconds(),
		s.ValidateTime.Seconds(),
		s.ExportTime.Seconds(),
		s.Actors, s.Keyframes, s.TotalFrames,
		runtime.NumCPU(), rss,
	)
}
