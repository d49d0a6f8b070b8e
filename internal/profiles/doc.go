// Package profiles finds calibration profiles by path or by name. Names are
// looked up in the configured profile directories first and then among the
// profiles built into the binary.
package profiles
