// Package registry maps calibration step names, as written in profiles, to
// the compiled Go step implementations.
//
// Step modules register themselves through the Module interface at startup.
// Before a run starts, ValidateProfile checks every step a profile names
// against the registry so that a typo fails the run before any step has
// executed.
package registry
