package app

import (
	"github.com/vk/irispipe/internal/registry"
	"github.com/vk/irispipe/modules/bkg_subtract"
	"github.com/vk/irispipe/modules/dark_current"
	"github.com/vk/irispipe/modules/flat_field"
	"github.com/vk/irispipe/modules/photom"
)

// coreModules is the definitive list of all calibration steps compiled into
// the irispipe binary.
var coreModules = []registry.Module{
	&dark_current.Module{},
	&bkg_subtract.Module{},
	&flat_field.Module{},
	&photom.Module{},
}
