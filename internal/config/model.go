package config

import (
	"github.com/zclconf/go-cty/cty"
)

// DefaultSuffix names calibrated products "<name>_cal.fits".
const DefaultSuffix = "cal"

// Profile is an ordered, parameterized list of calibration steps.
type Profile struct {
	Name        string
	Source      string
	SaveResults bool
	OutputDir   string
	Suffix      string
	Steps       []*StepSpec
}

// StepSpec configures one step invocation.
type StepSpec struct {
	Name    string
	Enabled bool
	Params  map[string]cty.Value
	// Source locates the step in its profile file, for error messages.
	Source string
}

// EnabledSteps returns the enabled steps in profile order.
func (p *Profile) EnabledSteps() []*StepSpec {
	var out []*StepSpec
	for _, s := range p.Steps {
		if s.Enabled {
			out = append(out, s)
		}
	}
	return out
}

// StepNames lists every step name in profile order.
func (p *Profile) StepNames() []string {
	names := make([]string, 0, len(p.Steps))
	for _, s := range p.Steps {
		names = append(names, s.Name)
	}
	return names
}
