package config

// Config holds the compiler tunables shared by all pipeline stages.
type Config struct {
	FPS           int
	TotalDuration float64 // seconds

	// Camera derived-property sampling.
	SampleInterval      float64 // seconds between samples
	ZoomChangeThreshold float64 // relative change that forces a focus/zoom keyframe
	AngleEpsilon        float64 // degrees; look-at keyframes below this are dropped

	// Auto-zoom optics.
	SensorHeightMM        float64
	DefaultSubjectHeightM float64

	Strict       bool // fail on timeline gaps
	ShowStats    bool
	BuildVersion string
}

// Default returns the standard compiler configuration.
func Default() *Config {
	return &Config{
		FPS:                   30,
		SampleInterval:        2.0,
		ZoomChangeThreshold:   0.10,
		AngleEpsilon:          0.1,
		SensorHeightMM:        24.0,
		DefaultSubjectHeightM: 1.8,
		Strict:                true,
	}
}
