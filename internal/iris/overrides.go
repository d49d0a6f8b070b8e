package iris

import (
	"context"
	"errors"

	"github.com/vk/irispipe/internal/ctxlog"
	"github.com/vk/irispipe/internal/datamodels"
	"github.com/vk/irispipe/internal/pipeerr"
)

// classes is the fixed set of IRIS model classes, keyed by the canonical
// names the engine looks up.
var classes = []datamodels.Class{
	{Name: datamodels.ImageModelName, Type: "iris.ImageModel", Open: datamodels.Opener(OpenImageModel), New: datamodels.Constructor(NewImageModel)},
	{Name: datamodels.DarkModelName, Type: "iris.DarkModel", Open: datamodels.Opener(OpenDarkModel), New: datamodels.Constructor(NewDarkModel)},
	{Name: datamodels.FlatModelName, Type: "iris.FlatModel", Open: datamodels.Opener(OpenFlatModel), New: datamodels.Constructor(NewFlatModel)},
	{Name: datamodels.PhotomModelName, Type: "iris.PhotomModel", Open: datamodels.Opener(OpenPhotomModel), New: datamodels.Constructor(NewPhotomModel)},
}

// Overrides returns the IRIS classes keyed by canonical name.
func Overrides() (map[string]datamodels.Class, error) {
	return enumerate(classes)
}

// Registry returns a registry holding only the IRIS classes, for explicit
// injection into an engine instead of mutating the process-wide one.
func Registry() (*datamodels.Registry, error) {
	overrides, err := Overrides()
	if err != nil {
		return nil, err
	}
	reg := datamodels.NewRegistry(datamodels.GenericClasses()...)
	if err := reg.Rebind(overrides); err != nil {
		return nil, pipeerr.WrapConfig(err, "IRIS model classes are incompatible with the engine registry")
	}
	return reg, nil
}

// InstallOverrides rebinds every canonical model name IRIS provides in the
// process-wide registry. Calling it again leaves the registry unchanged.
func InstallOverrides(ctx context.Context) error {
	return install(ctx, datamodels.Default(), classes)
}

func install(ctx context.Context, reg *datamodels.Registry, list []datamodels.Class) error {
	logger := ctxlog.FromContext(ctx)

	overrides, err := enumerate(list)
	if err != nil {
		return err
	}
	if err := reg.Rebind(overrides); err != nil {
		return pipeerr.WrapConfig(err, "IRIS model classes are incompatible with the engine registry")
	}
	logger.Debug("IRIS model overrides installed.", "bindings", reg.Bindings())
	return nil
}

func enumerate(list []datamodels.Class) (map[string]datamodels.Class, error) {
	if len(list) == 0 {
		return nil, pipeerr.Configf("IRIS model class list is empty")
	}
	out := make(map[string]datamodels.Class, len(list))
	var errs []error
	for i, c := range list {
		switch {
		case c.Name == "":
			errs = append(errs, pipeerr.Configf("IRIS model class #%d has no canonical name", i))
		case c.Open == nil || c.New == nil:
			errs = append(errs, pipeerr.Configf("IRIS model class %q is missing a constructor", c.Name))
		default:
			if _, dup := out[c.Name]; dup {
				errs = append(errs, pipeerr.Configf("IRIS model class %q listed twice", c.Name))
				continue
			}
			out[c.Name] = c
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}
