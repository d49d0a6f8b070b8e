package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/irispipe/internal/crds"
	"github.com/vk/irispipe/internal/iris"
	"github.com/vk/irispipe/internal/pipeerr"
	"github.com/vk/irispipe/internal/pipeline"
	"github.com/vk/irispipe/internal/testutil"
)

const contextFile = `
instrument "iris" {
  reference "flat" {
    file     = "tmt_iris_flat_0001.fits"
    useafter = "2019-01-01T00:00:00"
    match    = { FILTER = "K" }
  }
}
`

func TestNewConfig(t *testing.T) {
	crdsCfg := crds.Config{Path: "cache", Context: "tmt_0001.pmap", Observatory: "tmt"}

	cfg, err := NewConfig(Config{CRDS: crdsCfg})
	require.NoError(t, err)
	assert.Equal(t, DefaultProfile, cfg.Profile)
	assert.Equal(t, "text", cfg.LogFormat)

	_, err = NewConfig(Config{CRDS: crdsCfg, LogFormat: "xml"})
	require.ErrorContains(t, err, "log format")

	_, err = NewConfig(Config{CRDS: crdsCfg, LogLevel: "loud"})
	require.ErrorContains(t, err, "log level")

	_, err = NewConfig(Config{})
	require.ErrorContains(t, err, "CRDS_PATH")
}

// A full run downloads the context and the flat from the reference server
// and writes a calibrated product.
func TestRun_FetchesReferencesAndCalibrates(t *testing.T) {
	dir := t.TempDir()
	const rows, cols = 3, 3

	flatPath := testutil.WriteImage(t, filepath.Join(t.TempDir(), "flat.fits"), testutil.Image{Rows: rows, Cols: cols, Data: testutil.Fill(rows, cols, 2)})
	srv := testutil.NewCRDSServer(t, map[string][]byte{
		"mappings/tmt/tmt_0001.pmap":             []byte(contextFile),
		"references/tmt/tmt_iris_flat_0001.fits": testutil.ReadFile(t, flatPath),
	})

	testutil.WriteImage(t, filepath.Join(dir, "sci.fits"), testutil.Image{Rows: rows, Cols: cols, Data: testutil.Fill(rows, cols, 30), Header: testutil.IRISHeader()})
	testutil.WriteImage(t, filepath.Join(dir, "bkg.fits"), testutil.Image{Rows: rows, Cols: cols, Data: testutil.Fill(rows, cols, 10), Header: testutil.IRISHeader()})
	asnPath := testutil.WriteAssociation(t, dir, "sci",
		testutil.Member{ExpName: "sci.fits", ExpType: "science"},
		testutil.Member{ExpName: "bkg.fits", ExpType: "background"},
	)

	outDir := filepath.Join(dir, "out")
	cfg, err := NewConfig(Config{
		AssociationPath: asnPath,
		OutputDir:       outDir,
		CRDS:            crds.Config{Path: filepath.Join(dir, "crds_cache"), Context: "tmt_0001.pmap", ServerURL: srv.URL, Observatory: "tmt"},
	})
	require.NoError(t, err)

	a, logs := SetupAppTest(t, cfg)
	assert.Equal(t, "iris.ImageModel", a.Models()["ImageModel"])

	run, err := a.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, pipeline.Completed, run.State())

	products := run.Products()
	require.Len(t, products, 1)
	assert.Equal(t, filepath.Join(outDir, "sci_cal.fits"), products[0].Path)

	out, err := iris.OpenImageModel(products[0].Path)
	require.NoError(t, err)
	assert.Equal(t, testutil.Fill(rows, cols, 10), out.Data().RawMatrix().Data)

	assert.Equal(t, []string{"mappings/tmt/tmt_0001.pmap", "references/tmt/tmt_iris_flat_0001.fits"}, srv.Gets())
	assert.FileExists(t, filepath.Join(dir, "crds_cache", "references", "tmt", "iris", "tmt_iris_flat_0001.fits"))
	assert.Contains(t, logs.String(), "run_id=")
}

func TestRun_RequiresAssociation(t *testing.T) {
	cfg, err := NewConfig(Config{CRDS: crds.Config{Path: t.TempDir(), Context: "x.pmap", Observatory: "tmt"}})
	require.NoError(t, err)
	a, _ := SetupAppTest(t, cfg)

	_, err = a.Run(context.Background())
	require.Error(t, err)
	assert.True(t, pipeerr.IsAssociation(err))
}

func TestProfiles(t *testing.T) {
	cfg, err := NewConfig(Config{CRDS: crds.Config{Path: t.TempDir(), Context: "x.pmap", Observatory: "tmt"}})
	require.NoError(t, err)
	a, _ := SetupAppTest(t, cfg)

	entries, err := a.Profiles(context.Background())
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"dark_iris", "image2_iris"}, names)
	assert.Equal(t, []string{"bkg_subtract", "dark_current", "flat_field", "photom"}, a.Steps().Names())
}
