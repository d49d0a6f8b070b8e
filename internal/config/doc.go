// Package config defines the format-agnostic configuration profile of a
// calibration run, along with the Loader and Converter interfaces
// implemented by the format-specific packages (hcl, yamlprofile).
//
// A Profile is the single source of truth for which steps run, in which
// order, and with which parameters. Parameters are carried as cty values so
// that every profile format binds into step parameter structs the same way.
package config
