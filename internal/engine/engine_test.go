package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/irispipe/internal/association"
	"github.com/vk/irispipe/internal/datamodels"
	"github.com/vk/irispipe/internal/hcl"
	"github.com/vk/irispipe/internal/iris"
	"github.com/vk/irispipe/internal/pipeerr"
	"github.com/vk/irispipe/internal/registry"
	"github.com/vk/irispipe/internal/testutil"
)

type addParams struct {
	Add float64 `step:"add"`
}

// testModule registers "add" (uses an "alpha" reference), "double" and "fail".
type testModule struct{}

func (testModule) Register(r *registry.Registry) {
	r.RegisterStep(&registry.RegisteredStep{
		Name:      "add",
		Keyword:   "S_ADD",
		RefTypes:  []string{"alpha"},
		NewParams: func() any { return &addParams{Add: 1} },
		Fn: func(ctx context.Context, env registry.Env, in datamodels.Model, params any) (datamodels.Model, error) {
			if _, err := env.Reference(ctx, "alpha"); err != nil {
				return nil, err
			}
			p := params.(*addParams)
			in.Data().Apply(func(_, _ int, v float64) float64 { return v + p.Add }, in.Data())
			return in, nil
		},
	})
	r.RegisterStep(&registry.RegisteredStep{
		Name:    "double",
		Keyword: "S_DOUBLE",
		Fn: func(_ context.Context, _ registry.Env, in datamodels.Model, _ any) (datamodels.Model, error) {
			in.Data().Scale(2, in.Data())
			return in, nil
		},
	})
	r.RegisterStep(&registry.RegisteredStep{
		Name: "fail",
		Fn: func(context.Context, registry.Env, datamodels.Model, any) (datamodels.Model, error) {
			return nil, errors.New("boom")
		},
	})
	r.RegisterStep(&registry.RegisteredStep{
		Name: "sneaky",
		Fn: func(ctx context.Context, env registry.Env, in datamodels.Model, _ any) (datamodels.Model, error) {
			_, err := env.Reference(ctx, "alpha")
			return in, err
		},
	})
}

type fixture struct {
	dir   string
	asn   *association.Association
	refs  *testutil.StaticRefs
	steps *registry.Registry
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	testutil.WriteImage(t, filepath.Join(dir, "exp1_rate.fits"), testutil.Image{Rows: 2, Cols: 2, Data: []float64{1, 2, 3, 4}, Header: testutil.IRISHeader()})
	alpha := testutil.WriteImage(t, filepath.Join(dir, "refs", "alpha_0001.fits"), testutil.Image{Rows: 1, Cols: 1, Data: []float64{0}})
	asnPath := testutil.WriteAssociation(t, dir, "exp1", testutil.Member{ExpName: "exp1_rate.fits", ExpType: "science"})

	asn, err := association.Load(asnPath)
	require.NoError(t, err)
	return &fixture{
		dir:   dir,
		asn:   asn,
		refs:  &testutil.StaticRefs{Paths: map[string]string{"alpha": alpha}},
		steps: registry.New(testModule{}),
	}
}

func (f *fixture) plan(t *testing.T, src string) *Plan {
	t.Helper()
	ctx := context.Background()
	profile, err := hcl.NewLoader().LoadBytes(ctx, "test.hcl", []byte(src))
	require.NoError(t, err)
	plan, err := BuildPlan(ctx, f.steps, hcl.NewConverter(), profile)
	require.NoError(t, err)
	return plan
}

func TestExecute_AppliesStepsInOrder(t *testing.T) {
	f := newFixture(t)
	plan := f.plan(t, `
pipeline "t" {
  step "add" { add = 10 }
  step "double" {}
}`)

	products, err := New(f.refs, WithModels(datamodels.NewRegistry(datamodels.GenericClasses()...))).Execute(context.Background(), f.asn, plan)
	require.NoError(t, err)
	require.Len(t, products, 1)

	prod := products[0]
	assert.Equal(t, "exp1", prod.Name)
	assert.Equal(t, "exp1_rate.fits", prod.Exposure)
	assert.Equal(t, filepath.Join(f.dir, "exp1_cal.fits"), prod.Path)
	assert.Equal(t, []float64{22, 24, 26, 28}, prod.Model.Data().RawMatrix().Data)

	meta := prod.Model.Meta()
	status, _ := meta.String("S_ADD")
	assert.Equal(t, StatusComplete, status)
	status, _ = meta.String("S_DOUBLE")
	assert.Equal(t, StatusComplete, status)
	ref, _ := meta.String("R_ALPHA")
	assert.Equal(t, "alpha_0001.fits", ref)
	assert.Equal(t, []testutil.Lookup{{Instrument: "iris", RefType: "alpha"}}, f.refs.Lookups())

	saved, err := datamodels.OpenImageModel(prod.Path)
	require.NoError(t, err)
	assert.True(t, datamodels.Diff(prod.Model, saved, datamodels.DefaultTolerance).DataEqual())
}

func TestExecute_DisabledStepLeavesNoTrace(t *testing.T) {
	f := newFixture(t)
	plan := f.plan(t, `
pipeline "t" {
  step "add" { skip = true }
  step "double" {}
}`)
	require.Equal(t, []string{"double"}, plan.StepNames())

	products, err := New(f.refs).Execute(context.Background(), f.asn, plan)
	require.NoError(t, err)

	meta := products[0].Model.Meta()
	_, ok := meta.Keyword("S_ADD")
	assert.False(t, ok)
	_, ok = meta.Keyword("R_ALPHA")
	assert.False(t, ok)
	assert.Empty(t, f.refs.Lookups())
	assert.Equal(t, []float64{2, 4, 6, 8}, products[0].Model.Data().RawMatrix().Data)
}

func TestExecute_StepFailureIsUpstream(t *testing.T) {
	f := newFixture(t)
	plan := f.plan(t, `
pipeline "t" {
  step "double" {}
  step "fail" {}
}`)

	products, err := New(f.refs).Execute(context.Background(), f.asn, plan)
	require.Error(t, err)
	assert.Nil(t, products)
	assert.True(t, pipeerr.IsUpstream(err))
	assert.Contains(t, err.Error(), "step=fail")
	assert.Contains(t, err.Error(), "exposure=exp1_rate.fits")
	assert.NoFileExists(t, filepath.Join(f.dir, "exp1_cal.fits"))
}

func TestExecute_SaveFailureRemovesWrittenProducts(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"exp1_rate.fits", "exp2_rate.fits"} {
		testutil.WriteImage(t, filepath.Join(dir, name), testutil.Image{Rows: 2, Cols: 2, Data: []float64{1, 2, 3, 4}, Header: testutil.IRISHeader()})
	}
	asnPath := testutil.WriteAssociation(t, dir, "pair",
		testutil.Member{ExpName: "exp1_rate.fits", ExpType: "science"},
		testutil.Member{ExpName: "exp2_rate.fits", ExpType: "science"},
	)
	asn, err := association.Load(asnPath)
	require.NoError(t, err)
	// A directory in the way of the second product makes its rename fail.
	require.NoError(t, os.Mkdir(filepath.Join(dir, "exp2_rate_cal.fits"), 0o755))

	f := &fixture{dir: dir, asn: asn, steps: registry.New(testModule{})}
	plan := f.plan(t, `
pipeline "t" {
  step "double" {}
}`)

	products, err := New(nil).Execute(context.Background(), asn, plan)
	require.Error(t, err)
	assert.Nil(t, products)
	assert.True(t, pipeerr.IsUpstream(err))
	assert.Contains(t, err.Error(), "step=save")
	assert.Contains(t, err.Error(), "exposure=exp2_rate.fits")

	assert.NoFileExists(t, filepath.Join(dir, "exp1_rate_cal.fits"))
	partial, err := filepath.Glob(filepath.Join(dir, ".*.partial"))
	require.NoError(t, err)
	assert.Empty(t, partial)
}

func TestExecute_UndeclaredReference(t *testing.T) {
	f := newFixture(t)
	plan := f.plan(t, `
pipeline "t" {
  step "sneaky" {}
}`)

	_, err := New(f.refs).Execute(context.Background(), f.asn, plan)
	require.Error(t, err)
	assert.True(t, pipeerr.IsUpstream(err))
	assert.Contains(t, err.Error(), "did not declare")
	assert.Empty(t, f.refs.Lookups())
}

func TestExecute_InjectedModels(t *testing.T) {
	f := newFixture(t)
	plan := f.plan(t, `
pipeline "t" {
  save_results = false
  step "double" {}
}`)
	reg, err := iris.Registry()
	require.NoError(t, err)

	products, err := New(f.refs, WithModels(reg)).Execute(context.Background(), f.asn, plan)
	require.NoError(t, err)
	assert.IsType(t, &iris.ImageModel{}, products[0].Model)
	assert.Empty(t, products[0].Path)
	assert.NoFileExists(t, filepath.Join(f.dir, "exp1_cal.fits"))
}

func TestBuildPlan_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	testCases := []struct {
		name string
		src  string
		want string
	}{
		{name: "unknown step", src: "pipeline \"t\" {\n  step \"nope\" {}\n}", want: "unknown step 'nope'"},
		{name: "unknown disabled step", src: "pipeline \"t\" {\n  step \"nope\" { skip = true }\n}", want: "unknown step 'nope'"},
		{name: "unknown param", src: "pipeline \"t\" {\n  step \"add\" { mul = 2 }\n}", want: "mul"},
		{name: "bad param type", src: "pipeline \"t\" {\n  step \"add\" { add = \"lots\" }\n}", want: "step 'add'"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			profile, err := hcl.NewLoader().LoadBytes(ctx, "test.hcl", []byte(tc.src))
			require.NoError(t, err)
			_, err = BuildPlan(ctx, f.steps, hcl.NewConverter(), profile)
			require.Error(t, err)
			assert.True(t, pipeerr.IsConfiguration(err))
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}
