package tracking

// ZoomChange is the outcome of one regulator evaluation.
type ZoomChange int

const (
	ZoomHold ZoomChange = iota
	ZoomIn
	ZoomOut
)

func (z ZoomChange) String() string {
	switch z {
	case ZoomIn:
		return "in"
	case ZoomOut:
		return "out"
	default:
		return "hold"
	}
}

// ZoomRegulator is a hysteretic single-step zoom controller.
// Between the two thresholds the level never changes.
type ZoomRegulator struct {
	min, max   float64
	step       float64
	manualStep float64
	inAbove    float64
	outBelow   float64

	level float64
}

// NewZoomRegulator creates a regulator at zoom 1.0 (clamped to the range).
func NewZoomRegulator(cfg Config) *ZoomRegulator {
	z := &ZoomRegulator{
		min:        cfg.ZoomMin,
		max:        cfg.ZoomMax,
		step:       cfg.ZoomStep,
		manualStep: cfg.ManualZoomStep,
		inAbove:    cfg.ZoomInThreshold,
		outBelow:   cfg.ZoomOutThreshold,
	}
	z.Reset()
	return z
}

// Level returns the current zoom factor.
func (z *ZoomRegulator) Level() float64 {
	return z.level
}

// Update applies one regulation step for the given size ratio.
// The returned change reflects the decision even when the level was already
// at its limit.
func (z *ZoomRegulator) Update(sizeRatio float64) ZoomChange {
	switch {
	case sizeRatio > z.inAbove:
		z.level = clamp(z.level+z.step, z.min, z.max)
		return ZoomIn
	case sizeRatio < z.outBelow:
		z.level = clamp(z.level-z.step, z.min, z.max)
		return ZoomOut
	default:
		return ZoomHold
	}
}

// Nudge applies an operator zoom step (+1 in, -1 out).
func (z *ZoomRegulator) Nudge(direction int) float64 {
	switch {
	case direction > 0:
		z.level = clamp(z.level+z.manualStep, z.min, z.max)
	case direction < 0:
		z.level = clamp(z.level-z.manualStep, z.min, z.max)
	}
	return z.level
}

// Reset returns the zoom to 1.0.
func (z *ZoomRegulator) Reset() {
	z.level = clamp(1.0, z.min, z.max)
}
