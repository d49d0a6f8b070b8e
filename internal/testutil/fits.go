package testutil

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/irispipe/internal/datamodels"
)

// Image describes a FITS fixture.
type Image struct {
	Rows, Cols int
	Data       []float64
	// DQ may be nil.
	DQ     []uint32
	Header map[string]any
}

// IRISHeader returns a typical IRIS imager header.
func IRISHeader() map[string]any {
	return map[string]any{
		datamodels.KeyTelescope:  "TMT",
		datamodels.KeyInstrument: "IRIS",
		datamodels.KeyDetector:   "IMAGER",
		datamodels.KeyFilter:     "K",
		datamodels.KeyDateObs:    "2021-06-01T00:00:00",
	}
}

// WriteImage writes img to path, creating parent directories, and returns path.
func WriteImage(t *testing.T, path string, img Image) string {
	t.Helper()

	names := make([]string, 0, len(img.Header))
	for k := range img.Header {
		names = append(names, k)
	}
	sort.Strings(names)
	cards := make([]datamodels.Card, 0, len(names))
	for _, k := range names {
		cards = append(cards, datamodels.Card{Name: k, Value: img.Header[k]})
	}

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, datamodels.WriteContainer(path, &datamodels.Container{
		Cards: cards,
		Rows:  img.Rows,
		Cols:  img.Cols,
		SCI:   img.Data,
		DQ:    img.DQ,
	}))
	return path
}

// Fill returns rows*cols copies of v.
func Fill(rows, cols int, v float64) []float64 {
	out := make([]float64, rows*cols)
	for i := range out {
		out[i] = v
	}
	return out
}

// Ramp returns start, start+step, ... for rows*cols pixels.
func Ramp(rows, cols int, start, step float64) []float64 {
	out := make([]float64, rows*cols)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}
