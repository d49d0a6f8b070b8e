package config

import (
	"context"

	"github.com/zclconf/go-cty/cty"
)

// Loader reads a profile in one concrete format.
type Loader interface {
	// Load reads the profile file at path.
	Load(ctx context.Context, path string) (*Profile, error)
	// LoadBytes parses an in-memory profile; name labels it in errors.
	LoadBytes(ctx context.Context, name string, src []byte) (*Profile, error)
	// Extensions lists the file extensions the loader handles, dot included.
	Extensions() []string
}

// Converter binds step parameters into a Go parameter struct.
type Converter interface {
	// DecodeParams assigns params onto the tagged fields of target, a
	// non-nil struct pointer. Fields without a matching param keep their
	// current value, which is how defaults are expressed.
	DecodeParams(ctx context.Context, target any, params map[string]cty.Value) error
}
