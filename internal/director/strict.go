package director

import (
	"math"

	"github.com/ivlev/choreo/internal/config"
	"github.com/ivlev/choreo/internal/plan"
	"github.com/ivlev/choreo/internal/planner"
	"github.com/ivlev/choreo/internal/track"
)

// timeEps absorbs float drift when comparing segment boundaries.
const timeEps = 1e-6

// Finalize resolves till-end placeholders and, in strict mode, verifies
// that every managed actor's timeline covers the whole plan duration with
// no gap and no overlap. A silent gap would make the actor hold its last
// pose with no indication, so a gap is a hard failure, not a warning.
func Finalize(res *planner.Result, cfg *config.Config) error {
	total := res.Plan.Duration
	totalFrame := planner.FrameOf(total, res.Plan.FPS)

	for _, name := range res.Plan.Managed() {
		segs := res.Segments[name]

		for i := range segs {
			if !segs[i].TillEnd {
				continue
			}
			hold := total - segs[i].Start
			if hold < -timeEps {
				return &plan.TimelineOverflowError{Actor: name, Start: segs[i].Start, Overflow: -hold}
			}
			segs[i].End = total
			segs[i].TillEnd = false
			// Extend the pose hold to the plan's end.
			if tr := res.Transforms[name]; tr != nil {
				if last, ok := tr.Last(); ok {
					last.Frame = totalFrame
					tr.Add(last)
				}
			}
		}
		res.Segments[name] = segs

		if cfg.Strict {
			if err := checkCoverage(name, segs, total); err != nil {
				return err
			}
		}

		res.Animations[name].CloseOpen(totalFrame)
	}
	return nil
}

// checkCoverage walks an actor's segments in order and verifies they tile
// [0, total] exactly.
func checkCoverage(name string, segs []track.TimelineSegment, total float64) error {
	cursor := 0.0
	for _, s := range segs {
		if math.Abs(s.Start-cursor) > timeEps {
			return &plan.MotionTimelineError{Actor: name, At: math.Min(cursor, s.Start), Gap: s.Start - cursor}
		}
		if s.End > cursor {
			cursor = s.End
		}
	}
	if total-cursor > timeEps {
		return &plan.MotionTimelineError{Actor: name, At: cursor, Gap: total - cursor}
	}
	if cursor-total > timeEps {
		return &plan.TimelineOverflowError{Actor: name, Start: cursor, Overflow: cursor - total}
	}
	return nil
}
