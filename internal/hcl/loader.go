package hcl

import (
	"context"
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/irispipe/internal/config"
	"github.com/vk/irispipe/internal/ctxlog"
	"github.com/vk/irispipe/internal/pipeerr"
	"github.com/zclconf/go-cty/cty"
)

const skipAttr = "skip"

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new HCL profile loader.
func NewLoader() *Loader {
	return &Loader{}
}

type fileRoot struct {
	Pipelines []*pipelineBlock `hcl:"pipeline,block"`
	Remain    hcl.Body         `hcl:",remain"`
}

type pipelineBlock struct {
	Name        string       `hcl:"name,label"`
	SaveResults *bool        `hcl:"save_results,optional"`
	OutputDir   string       `hcl:"output_dir,optional"`
	Suffix      string       `hcl:"suffix,optional"`
	Steps       []*stepBlock `hcl:"step,block"`
}

type stepBlock struct {
	Name   string   `hcl:"name,label"`
	Remain hcl.Body `hcl:",remain"`
}

// Extensions implements config.Loader.
func (l *Loader) Extensions() []string { return []string{".hcl"} }

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
	logger.Debug("HCL profile loader started.", "source", name)

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, name)
	if diags.HasErrors() {
		return nil, pipeerr.WrapConfig(diags, "failed to parse HCL profile %s", name)
	}

	var root fileRoot
	if diags := gohcl.DecodeBody(file.Body, nil, &root); diags.HasErrors() {
		return nil, pipeerr.WrapConfig(diags, "failed to decode HCL profile %s", name)
	}
	if len(root.Pipelines) != 1 {
		return nil, pipeerr.Configf("profile %s must contain exactly one pipeline block, found %d", name, len(root.Pipelines))
	}

	pb := root.Pipelines[0]
	profile := &config.Profile{
		Name:        pb.Name,
		Source:      name,
		SaveResults: true,
		OutputDir:   pb.OutputDir,
		Suffix:      pb.Suffix,
	}
	if pb.SaveResults != nil {
		profile.SaveResults = *pb.SaveResults
	}
	if profile.Suffix == "" {
		profile.Suffix = config.DefaultSuffix
	}

	for _, sb := range pb.Steps {
		spec, err := translateStep(name, sb)
		if err != nil {
			return nil, err
		}
		profile.Steps = append(profile.Steps, spec)
	}

	logger.Debug("HCL profile loaded.", "profile", profile.Name, "steps", profile.StepNames())
	return profile, nil
}

// translateStep splits a step block into its skip flag and parameters.
func translateStep(source string, sb *stepBlock) (*config.StepSpec, error) {
	rng := sb.Remain.MissingItemRange()
	spec := &config.StepSpec{
		Name:    sb.Name,
		Enabled: true,
		Params:  make(map[string]cty.Value),
		Source:  fmt.Sprintf("%s:%d", source, rng.Start.Line),
	}

	attrs, diags := sb.Remain.JustAttributes()
	if diags.HasErrors() {
		return nil, pipeerr.WrapConfig(diags, "step %q in %s", sb.Name, source)
	}
	for attrName, attr := range attrs {
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return nil, pipeerr.WrapConfig(diags, "step %q parameter %q in %s", sb.Name, attrName, source)
		}
		if attrName == skipAttr {
			if val.IsNull() || !val.Type().Equals(cty.Bool) {
				return nil, pipeerr.Configf("step %q in %s: skip must be a bool", sb.Name, source)
			}
			spec.Enabled = val.False()
			continue
		}
		spec.Params[attrName] = val
	}
	return spec, nil
}
