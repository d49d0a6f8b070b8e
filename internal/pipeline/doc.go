// Package pipeline resolves a calibration run from an association and a
// profile and drives it through the engine.
//
// A run moves Unconfigured -> Resolved -> Running and ends Completed or
// Failed. Runs are one-shot.
package pipeline
