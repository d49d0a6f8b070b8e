package hcl

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/vk/irispipe/internal/ctxlog"
	"github.com/vk/irispipe/internal/pipeerr"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// ParamTag is the struct tag naming a step parameter.
const ParamTag = "step"

// Converter is the cty implementation of the config.Converter interface.
type Converter struct{}

// NewConverter creates a new parameter converter.
func NewConverter() *Converter {
	return &Converter{}
}

// DecodeParams implements config.Converter. A param with no matching field is
// a configuration error.
func (c *Converter) DecodeParams(ctx context.Context, target any, params map[string]cty.Value) error {
	logger := ctxlog.FromContext(ctx)

	structVal := reflect.ValueOf(target)
	if structVal.Kind() != reflect.Ptr || structVal.IsNil() || structVal.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("parameter target must be a non-nil struct pointer, got %T", target)
	}
	structVal = structVal.Elem()
	structType := structVal.Type()

	fields := make(map[string]reflect.Value)
	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)
		if !field.IsExported() {
			continue
		}
		name := strings.Split(field.Tag.Get(ParamTag), ",")[0]
		if name == "" || name == "-" {
			continue
		}
		fields[name] = structVal.Field(i)
	}

	var unknown []string
	for name := range params {
		if _, ok := fields[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		known := make([]string, 0, len(fields))
		for name := range fields {
			known = append(known, name)
		}
		sort.Strings(known)
		return pipeerr.Configf("unknown parameter(s) %s (known: %s)", strings.Join(unknown, ", "), strings.Join(known, ", "))
	}

	for name, val := range params {
		if val.IsNull() {
			continue
		}
		if err := c.decode(ctx, val, fields[name].Addr().Interface()); err != nil {
			return pipeerr.WrapConfig(err, "parameter %q", name)
		}
	}
	logger.Debug("Decoded step parameters.", "count", len(params))
	return nil
}

// decode converts val to the Go type behind goVal.
func (c *Converter) decode(ctx context.Context, val cty.Value, goVal any) error {
	logger := ctxlog.FromContext(ctx)

	impliedType, err := gocty.ImpliedType(reflect.ValueOf(goVal).Elem().Interface())
	if err != nil {
		logger.Debug("Could not imply cty.Type from Go type, attempting direct decoding.", "go_type", fmt.Sprintf("%T", goVal), "error", err)
		return gocty.FromCtyValue(val, goVal)
	}

	converted, err := convert.Convert(val, impliedType)
	if err != nil {
		return fmt.Errorf("cannot convert %s to required type %s: %w", val.Type().FriendlyName(), impliedType.FriendlyName(), err)
	}
	if !val.Type().Equals(converted.Type()) {
		logger.Debug("Implicitly converted value type.",
			"from", val.Type().FriendlyName(),
			"to", converted.Type().FriendlyName(),
		)
	}
	return gocty.FromCtyValue(converted, goVal)
}
