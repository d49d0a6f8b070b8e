package datamodels

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/astrogo/fitsio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeRawImage writes a 2x3 primary image with the given BITPIX.
func writeRawImage(t *testing.T, bitpix int, data any) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "raw.fits")
	w, err := os.Create(path)
	require.NoError(t, err)
	defer w.Close()

	f, err := fitsio.Create(w)
	require.NoError(t, err)
	img := fitsio.NewImage(bitpix, []int{3, 2})
	defer img.Close()
	require.NoError(t, img.Write(data))
	require.NoError(t, f.Write(img))
	require.NoError(t, f.Close())
	return path
}

func TestContainer_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "model.fits")
	in := &Container{
		Cards: []Card{
			{Name: KeyTelescope, Value: "TMT"},
			{Name: "EXPTIME", Value: 12.5},
		},
		Rows: 2,
		Cols: 3,
		SCI:  []float64{1, 2, 3, 4, 5, math.NaN()},
		DQ:   []uint32{0, 1, 0, 8, 0, 1},
	}
	require.NoError(t, WriteContainer(path, in))

	out, err := ReadContainer(path)
	require.NoError(t, err)
	assert.Equal(t, 2, out.Rows)
	assert.Equal(t, 3, out.Cols)
	assert.Equal(t, in.SCI[:5], out.SCI[:5])
	assert.True(t, math.IsNaN(out.SCI[5]))
	assert.Equal(t, in.DQ, out.DQ)

	meta, err := MetaFromCards(out.Cards)
	require.NoError(t, err)
	assert.Equal(t, "TMT", meta.Telescope)
	exptime, ok := meta.Float("EXPTIME")
	require.True(t, ok)
	assert.Equal(t, 12.5, exptime)
}

func TestReadContainer_EveryBitpix(t *testing.T) {
	want := []float64{0, 1, 2, 3, 4, 5}
	testCases := []struct {
		bitpix int
		data   any
	}{
		{bitpix: 8, data: &[]uint8{0, 1, 2, 3, 4, 5}},
		{bitpix: 16, data: &[]int16{0, 1, 2, 3, 4, 5}},
		{bitpix: 32, data: &[]int32{0, 1, 2, 3, 4, 5}},
		{bitpix: 64, data: &[]int64{0, 1, 2, 3, 4, 5}},
		{bitpix: -32, data: &[]float32{0, 1, 2, 3, 4, 5}},
		{bitpix: -64, data: &[]float64{0, 1, 2, 3, 4, 5}},
	}
	for _, tc := range testCases {
		t.Run(fmt.Sprintf("bitpix=%d", tc.bitpix), func(t *testing.T) {
			c, err := ReadContainer(writeRawImage(t, tc.bitpix, tc.data))
			require.NoError(t, err)
			assert.Equal(t, 2, c.Rows)
			assert.Equal(t, 3, c.Cols)
			assert.Equal(t, want, c.SCI)
			assert.Nil(t, c.DQ)
		})
	}
}

func TestContainer_HighDQBitsSurvive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dq.fits")
	in := &Container{
		Rows: 1,
		Cols: 3,
		SCI:  []float64{1, 2, 3},
		DQ:   []uint32{1 << 31, 1<<31 | 1, math.MaxUint32},
	}
	require.NoError(t, WriteContainer(path, in))

	out, err := ReadContainer(path)
	require.NoError(t, err)
	assert.Equal(t, in.DQ, out.DQ)
}

func TestWriteContainer_RejectsBadShape(t *testing.T) {
	err := WriteContainer(filepath.Join(t.TempDir(), "x.fits"), &Container{Rows: 2, Cols: 2, SCI: []float64{1}})
	require.Error(t, err)
}

func TestReadContainer_MissingFile(t *testing.T) {
	_, err := ReadContainer(filepath.Join(t.TempDir(), "nope.fits"))
	require.Error(t, err)
}

func TestModel_SaveAndCloneIndependence(t *testing.T) {
	m := NewImageModel(2, 2)
	m.Data().Set(0, 0, 7)
	require.NoError(t, m.Meta().Set("EXPTIME", 3.0))

	c := m.Clone()
	c.Data().Set(0, 0, 9)
	c.DQ()[0] = DQDoNotUse
	assert.Equal(t, 7.0, m.Data().At(0, 0))
	assert.Equal(t, uint32(0), m.DQ()[0])

	path := filepath.Join(t.TempDir(), "m.fits")
	require.NoError(t, c.Save(path))
	back, err := OpenImageModel(path)
	require.NoError(t, err)
	assert.Equal(t, 9.0, back.Data().At(0, 0))
	assert.Equal(t, DQDoNotUse, back.DQ()[0])
	assert.Equal(t, ImageModelName, back.Meta().Model)
}

func TestOpenPhotomModel_RequiresConversion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "photom.fits")
	require.NoError(t, WriteContainer(path, &Container{Rows: 1, Cols: 1, SCI: []float64{0}}))
	_, err := OpenPhotomModel(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), KeyPhotMJSR)
}
