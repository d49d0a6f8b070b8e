// Package yamlprofile is the YAML implementation of config.Loader.
//
//	name: image2_iris
//	save_results: true
//	steps:
//	  - name: bkg_subtract
//	    params:
//	      combine: median
//	  - name: flat_field
//	  - name: photom
//	    skip: true
package yamlprofile

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/vk/irispipe/internal/config"
	"github.com/vk/irispipe/internal/ctxlog"
	"github.com/vk/irispipe/internal/pipeerr"
	"github.com/zclconf/go-cty/cty"
	"go.yaml.in/yaml/v3"
)

type document struct {
	Name        string `yaml:"name"`
	SaveResults *bool  `yaml:"save_results"`
	OutputDir   string `yaml:"output_dir"`
	Suffix      string `yaml:"suffix"`
	Steps       []step `yaml:"steps"`
}

type step struct {
	Name   string         `yaml:"name"`
	Skip   bool           `yaml:"skip"`
	Params map[string]any `yaml:"params"`
	Line   int            `yaml:"-"`
}

var stepKeys = map[string]bool{"name": true, "skip": true, "params": true}

// UnmarshalYAML records the source line of each step. node.Decode does not
// inherit KnownFields, so step keys are checked here.
func (s *step) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.MappingNode {
		for i := 0; i+1 < len(node.Content); i += 2 {
			key := node.Content[i]
			if !stepKeys[key.Value] {
				return pipeerr.Configf("line %d: unknown step field %q (known: name, params, skip)", key.Line, key.Value)
			}
		}
	}
	type plain step
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*s = step(p)
	s.Line = node.Line
	return nil
}

// Loader reads YAML profiles.
type Loader struct{}

func NewLoader() *Loader { return &Loader{} }

// Extensions implements config.Loader.
func (l *Loader) Extensions() []string { return []string{".yaml", ".yml"} }

// Load implements config.Loader.
func (l *Loader) Load(ctx context.Context, path string) (*config.Profile, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, pipeerr.WrapConfig(err, "read profile %s", path)
	}
	return l.LoadBytes(ctx, path, src)
}

// LoadBytes implements config.Loader.
func (l *Loader) LoadBytes(ctx context.Context, name string, src []byte) (*config.Profile, error) {
	logger := ctxlog.FromContext(ctx)

	dec := yaml.NewDecoder(bytes.NewReader(src))
	dec.KnownFields(true)

	var doc document
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, pipeerr.Configf("profile %s is empty", name)
		}
		return nil, pipeerr.WrapConfig(err, "failed to decode YAML profile %s", name)
	}
	if doc.Name == "" {
		return nil, pipeerr.Configf("profile %s has no name", name)
	}

	profile := &config.Profile{
		Name:        doc.Name,
		Source:      name,
		SaveResults: true,
		OutputDir:   doc.OutputDir,
		Suffix:      doc.Suffix,
	}
	if doc.SaveResults != nil {
		profile.SaveResults = *doc.SaveResults
	}
	if profile.Suffix == "" {
		profile.Suffix = config.DefaultSuffix
	}

	for i, s := range doc.Steps {
		if s.Name == "" {
			return nil, pipeerr.Configf("profile %s: step #%d has no name", name, i)
		}
		spec := &config.StepSpec{
			Name:    s.Name,
			Enabled: !s.Skip,
			Params:  make(map[string]cty.Value, len(s.Params)),
			Source:  fmt.Sprintf("%s:%d", name, s.Line),
		}
		for k, v := range s.Params {
			cv, err := config.ToCtyValue(v)
			if err != nil {
				return nil, pipeerr.WrapConfig(err, "profile %s: step %q parameter %q", name, s.Name, k)
			}
			spec.Params[k] = cv
		}
		profile.Steps = append(profile.Steps, spec)
	}

	logger.Debug("YAML profile loaded.", "profile", profile.Name, "steps", profile.StepNames())
	return profile, nil
}
