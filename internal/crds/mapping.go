package crds

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/irispipe/internal/datamodels"
)

// ErrNoMatch is returned when no reference applies to an exposure.
var ErrNoMatch = errors.New("no matching reference")

// Mapping is a parsed context file:
//
//	instrument "iris" {
//	  reference "flat" {
//	    file     = "tmt_iris_flat_0001.fits"
//	    useafter = "2019-01-01T00:00:00"
//	    match    = { FILTER = "K" }
//	  }
//	}
type Mapping struct {
	Instruments []*InstrumentRules `hcl:"instrument,block"`
}

// InstrumentRules lists the references of one instrument.
type InstrumentRules struct {
	Name       string       `hcl:"name,label"`
	References []*Reference `hcl:"reference,block"`
}

// Reference is one selectable reference file.
type Reference struct {
	Type     string            `hcl:"type,label"`
	File     string            `hcl:"file"`
	UseAfter string            `hcl:"useafter,optional"`
	Match    map[string]string `hcl:"match,optional"`

	useAfter time.Time
}

// ParseMapping decodes a context file.
func ParseMapping(name string, src []byte) (*Mapping, error) {
	file, diags := hclparse.NewParser().ParseHCL(src, name)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parse context %s: %w", name, diags)
	}
	var m Mapping
	if diags := gohcl.DecodeBody(file.Body, nil, &m); diags.HasErrors() {
		return nil, fmt.Errorf("decode context %s: %w", name, diags)
	}
	for _, inst := range m.Instruments {
		for _, ref := range inst.References {
			if ref.File == "" {
				return nil, fmt.Errorf("context %s: %s reference %q has no file", name, inst.Name, ref.Type)
			}
			if !plainName(ref.File) {
				return nil, fmt.Errorf("context %s: %s reference %q: file %q must be a bare file name", name, inst.Name, ref.Type, ref.File)
			}
			if ref.UseAfter == "" {
				continue
			}
			t, err := datamodels.ParseDate(ref.UseAfter)
			if err != nil {
				return nil, fmt.Errorf("context %s: %s reference %q: useafter: %w", name, inst.Name, ref.Type, err)
			}
			ref.useAfter = t
		}
	}
	return &m, nil
}

// plainName reports whether name stays inside the directory it is joined to.
func plainName(name string) bool {
	return name != "." && name != ".." && filepath.Base(name) == name && !strings.ContainsAny(name, `/\`)
}

// Select picks the reference of refType for an exposure of instrument: every
// match keyword must equal the exposure's header value and useafter must not
// be later than DATE-OBS. The most recent useafter wins; ties keep file order.
func (m *Mapping) Select(instrument, refType string, meta *datamodels.Meta) (*Reference, error) {
	var best *Reference
	for _, inst := range m.Instruments {
		if !strings.EqualFold(inst.Name, instrument) {
			continue
		}
		for _, ref := range inst.References {
			if ref.Type != refType || !ref.matches(meta) {
				continue
			}
			if best == nil || ref.useAfter.After(best.useAfter) {
				best = ref
			}
		}
	}
	if best == nil {
		return nil, fmt.Errorf("%w: instrument=%s type=%s", ErrNoMatch, instrument, refType)
	}
	return best, nil
}

func (r *Reference) matches(meta *datamodels.Meta) bool {
	if !r.useAfter.IsZero() && !meta.DateObs.IsZero() && r.useAfter.After(meta.DateObs) {
		return false
	}
	for key, want := range r.Match {
		got, ok := meta.String(key)
		if !ok || !strings.EqualFold(strings.TrimSpace(got), strings.TrimSpace(want)) {
			return false
		}
	}
	return true
}
