// Package datamodels is the engine's data model layer: typed wrappers around
// 2-D image files exposing a science array, a data-quality array and header
// metadata through the Model interface.
//
// Engine code never names a concrete model type. It asks a Registry for a
// class by its canonical name ("ImageModel", "DarkModel", "FlatModel",
// "PhotomModel") and works against the returned Model. The process-wide
// registry returned by Default is seeded with the generic classes defined
// here; an instrument package may Rebind those names to its own classes once
// at startup, after which every lookup observes the instrument's classes.
package datamodels
