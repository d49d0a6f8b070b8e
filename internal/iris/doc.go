// Package iris holds the IRIS instrument's data model classes and the
// override that installs them into the engine's model registry.
//
// The engine resolves model classes by canonical name at call sites inside
// step implementations; rebinding those names in datamodels.Default is the
// only seam available without changing the engine. InstallOverrides is the
// sole writer of that registry and must run before any pipeline run in the
// process. Two instruments cannot be active in the same process: the last
// install wins. Callers that can pass models explicitly should prefer
// Overrides together with engine.WithModels.
package iris
