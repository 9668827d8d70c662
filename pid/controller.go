package pid

// ScalarOutput is the result of one Controller tick.
type ScalarOutput struct {
	Force float64 // -(P + I + D)
	P     float64
	I     float64
	D     float64
	Error float64 // processValue - setpoint

	Saturated TermFlags
}

// Controller is a single-channel PID loop with the same semantics as one
// axis of a Controller3D.
type Controller struct {
	settings ScalarSettings
	cfg      AxisConfig
	terms    terms

	integral  float64
	lastError float64
	primed    bool
}

// New creates a single-channel controller.
func New(settings ScalarSettings, opts ...Option) *Controller {
	c := &Controller{terms: defaultTerms(opts)}
	c.Retune(settings)
	return c
}

// Retune replaces gains and limits, keeping accumulated state.
func (c *Controller) Retune(settings ScalarSettings) {
	c.settings = settings
	c.cfg = settings.Config()
}

// Config returns the gains and resolved bounds in use.
func (c *Controller) Config() AxisConfig {
	return c.cfg
}

// Settings returns the configuration the controller currently runs with.
func (c *Controller) Settings() ScalarSettings {
	return c.settings
}

// Primed reports whether the first tick has happened.
func (c *Controller) Primed() bool {
	return c.primed
}

// Integral returns the current integral accumulator.
func (c *Controller) Integral() float64 {
	return c.integral
}

// Tick advances the controller one step toward setpoint.
func (c *Controller) Tick(setpoint, processValue float64) ScalarOutput {
	e := processValue - setpoint
	if !c.primed {
		c.primed = true
		c.lastError = e
		return ScalarOutput{Error: e}
	}

	v := c.terms.step(c.cfg, e, c.integral, c.lastError)
	c.integral = v.i
	c.lastError = e

	return ScalarOutput{
		Force:     -(v.p + v.i + v.d),
		P:         v.p,
		I:         v.i,
		D:         v.d,
		Error:     e,
		Saturated: v.sat,
	}
}
