// Package app contains the core application logic. It wires the model
// overrides, step modules, profile catalog, reference client and engine
// together, decoupled from any specific entrypoint like a CLI.
package app
