package director

import (
	"fmt"

	"github.com/ivlev/choreo/internal/config"
	"github.com/ivlev/choreo/internal/document"
	"github.com/ivlev/choreo/internal/plan"
	"github.com/ivlev/choreo/internal/system"
)

// Sink is the external consumer of compiled keyframe documents. The
// document is delivered whole in one synchronous call; there is no
// partial or streaming delivery.
type Sink interface {
	Apply(doc *document.KeyframeDocument) error
}

// Deliver compiles the plan and hands the document to the sink. If
// compilation fails the sink never sees anything.
func Deliver(p *plan.MotionPlan, cfg *config.Config, sink Sink) (*system.CompileStats, error) {
	doc, stats, err := Compile(p, cfg)
	if err != nil {
		return stats, err
	}
	if err := sink.Apply(doc); err != nil {
		return stats, fmt.Errorf("sink rejected document: %w", err)
	}
	return stats, nil
}
