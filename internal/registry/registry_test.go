package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/irispipe/internal/config"
	"github.com/vk/irispipe/internal/datamodels"
	"github.com/vk/irispipe/internal/pipeerr"
)

type noopModule struct{ names []string }

func (m noopModule) Register(r *Registry) {
	for _, n := range m.names {
		r.RegisterStep(&RegisteredStep{
			Name:     n,
			RefTypes: []string{"flat"},
			Fn: func(_ context.Context, _ Env, in datamodels.Model, _ any) (datamodels.Model, error) {
				return in, nil
			},
		})
	}
}

func profile(steps ...*config.StepSpec) *config.Profile {
	return &config.Profile{Name: "test", Steps: steps}
}

func TestNew_RegistersModules(t *testing.T) {
	r := New(noopModule{names: []string{"b", "a"}})
	assert.Equal(t, []string{"a", "b"}, r.Names())

	s, ok := r.Lookup("a")
	require.True(t, ok)
	assert.True(t, s.UsesReference("flat"))
	assert.False(t, s.UsesReference("dark"))
	assert.NotNil(t, s.NewParams())
}

func TestRegisterStep_Panics(t *testing.T) {
	assert.Panics(t, func() { New(noopModule{names: []string{"a", "a"}}) })
	assert.Panics(t, func() { New().RegisterStep(&RegisteredStep{Name: "x"}) })
	assert.Panics(t, func() { New().RegisterStep(&RegisteredStep{}) })
}

func TestValidateProfile(t *testing.T) {
	r := New(noopModule{names: []string{"bkg_subtract", "flat_field"}})
	ctx := context.Background()

	require.NoError(t, r.ValidateProfile(ctx, profile(
		&config.StepSpec{Name: "bkg_subtract", Enabled: true},
		&config.StepSpec{Name: "flat_field"},
	)))

	err := r.ValidateProfile(ctx, profile(
		&config.StepSpec{Name: "bkg_subtract", Enabled: true, Source: "p.hcl:2"},
		&config.StepSpec{Name: "flat_feild", Enabled: false, Source: "p.hcl:3"},
		&config.StepSpec{Name: "bkg_subtract", Enabled: true, Source: "p.hcl:4"},
	))
	require.Error(t, err)
	assert.True(t, pipeerr.IsConfiguration(err))
	assert.Contains(t, err.Error(), "unknown step 'flat_feild' at p.hcl:3")
	assert.Contains(t, err.Error(), "already configured at p.hcl:2")
}
