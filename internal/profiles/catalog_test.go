package profiles

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/irispipe/internal/hcl"
	"github.com/vk/irispipe/internal/pipeerr"
	"github.com/vk/irispipe/internal/yamlprofile"
)

func newCatalog(dirs ...string) *Catalog {
	return NewCatalog(dirs, hcl.NewLoader(), yamlprofile.NewLoader())
}

type stepView struct {
	Name    string
	Enabled bool
}

func TestLoad_Builtins(t *testing.T) {
	ctx := context.Background()
	c := newCatalog()

	p, err := c.Load(ctx, "image2_iris")
	require.NoError(t, err)
	assert.Equal(t, "image2_iris", p.Name)
	assert.True(t, p.SaveResults)
	assert.Equal(t, "cal", p.Suffix)

	var got []stepView
	for _, s := range p.Steps {
		got = append(got, stepView{s.Name, s.Enabled})
	}
	want := []stepView{{"bkg_subtract", true}, {"flat_field", true}, {"photom", false}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("image2_iris steps mismatch (-want +got):\n%s", diff)
	}

	p, err = c.Load(ctx, "dark_iris")
	require.NoError(t, err)
	assert.Equal(t, []string{"dark_current"}, p.StepNames())
}

func TestLoad_DirectoryShadowsBuiltin(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "image2_iris.yaml"), []byte(`
name: image2_iris
steps:
  - name: flat_field
`), 0o644))

	p, err := newCatalog(dir).Load(context.Background(), "image2_iris")
	require.NoError(t, err)
	assert.Equal(t, []string{"flat_field"}, p.StepNames())
	assert.Equal(t, filepath.Join(dir, "image2_iris.yaml"), p.Source)
}

func TestLoad_Path(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.hcl")
	require.NoError(t, os.WriteFile(path, []byte(`
pipeline "custom" {
  step "photom" {}
}`), 0o644))

	p, err := newCatalog().Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "custom", p.Name)
}

func TestLoad_Errors(t *testing.T) {
	ctx := context.Background()
	c := newCatalog()

	_, err := c.Load(ctx, "nope")
	require.Error(t, err)
	assert.True(t, pipeerr.IsConfiguration(err))
	assert.Contains(t, err.Error(), "image2_iris")

	_, err = c.Load(ctx, filepath.Join(t.TempDir(), "missing.hcl"))
	require.Error(t, err)
	assert.True(t, pipeerr.IsConfiguration(err))

	_, err = c.Load(ctx, "./profile.cfg")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported format")
}

func TestNames(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "mine.hcl"), []byte(`pipeline "mine" {}`), 0o644))

	entries, err := newCatalog(dir).Names(context.Background())
	require.NoError(t, err)
	want := []Entry{
		{Name: "dark_iris", Source: "builtin"},
		{Name: "image2_iris", Source: "builtin"},
		{Name: "mine", Source: filepath.Join(dir, "mine.hcl")},
	}
	if diff := cmp.Diff(want, entries); diff != "" {
		t.Errorf("Names mismatch (-want +got):\n%s", diff)
	}
}
