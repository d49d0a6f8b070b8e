package datamodels

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/astrogo/fitsio"
)

// Card is a single header keyword.
type Card struct {
	Name    string
	Value   any
	Comment string
}

// Container is the on-disk layout shared by every model: the science array
// in the primary HDU, header keywords on the primary HDU and an optional
// "DQ" image extension of the same shape.
type Container struct {
	Cards []Card
	Rows  int
	Cols  int
	SCI   []float64
	DQ    []uint32
}

// structural keywords are owned by the FITS encoder and never surface as metadata.
var structural = map[string]bool{
	"SIMPLE": true, "BITPIX": true, "NAXIS": true, "EXTEND": true,
	"XTENSION": true, "PCOUNT": true, "GCOUNT": true, "EXTNAME": true,
	"BSCALE": true, "BZERO": true, "END": true, "COMMENT": true, "HISTORY": true,
}

func isStructural(name string) bool {
	return name == "" || structural[name] || strings.HasPrefix(name, "NAXIS")
}

// ReadContainer loads a model file.
func ReadContainer(path string) (*Container, error) {
	r, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	f, err := fitsio.Open(r)
	if err != nil {
		return nil, fmt.Errorf("open fits %s: %w", path, err)
	}
	defer f.Close()

	hdus := f.HDUs()
	if len(hdus) == 0 {
		return nil, fmt.Errorf("%s: no HDUs", path)
	}
	primary, ok := hdus[0].(fitsio.Image)
	if !ok {
		return nil, fmt.Errorf("%s: primary HDU is not an image", path)
	}

	c := &Container{}
	hdr := primary.Header()
	for _, key := range hdr.Keys() {
		if isStructural(key) {
			continue
		}
		card := hdr.Get(key)
		if card == nil {
			continue
		}
		c.Cards = append(c.Cards, Card{Name: card.Name, Value: card.Value, Comment: card.Comment})
	}

	c.Rows, c.Cols, err = imageShape(primary)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if c.SCI, err = readFloats(primary); err != nil {
		return nil, fmt.Errorf("%s: read science array: %w", path, err)
	}

	for _, hdu := range hdus[1:] {
		img, ok := hdu.(fitsio.Image)
		if !ok || !strings.EqualFold(hdu.Name(), "DQ") {
			continue
		}
		rows, cols, err := imageShape(img)
		if err != nil {
			return nil, fmt.Errorf("%s: DQ: %w", path, err)
		}
		if rows != c.Rows || cols != c.Cols {
			return nil, fmt.Errorf("%s: DQ shape %dx%d does not match science %dx%d", path, rows, cols, c.Rows, c.Cols)
		}
		flags, err := readFloats(img)
		if err != nil {
			return nil, fmt.Errorf("%s: read DQ array: %w", path, err)
		}
		c.DQ = make([]uint32, len(flags))
		for i, v := range flags {
			c.DQ[i] = uint32(int32(v))
		}
	}
	return c, nil
}

// WriteContainer writes c to path, replacing any existing file.
func WriteContainer(path string, c *Container) error {
	if c.Rows <= 0 || c.Cols <= 0 || len(c.SCI) != c.Rows*c.Cols {
		return fmt.Errorf("invalid container shape %dx%d with %d pixels", c.Rows, c.Cols, len(c.SCI))
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	w, err := os.Create(path)
	if err != nil {
		return err
	}
	defer w.Close()

	f, err := fitsio.Create(w)
	if err != nil {
		return fmt.Errorf("create fits %s: %w", path, err)
	}

	sci := fitsio.NewImage(-64, []int{c.Cols, c.Rows})
	defer sci.Close()
	for _, card := range c.Cards {
		if isStructural(card.Name) {
			continue
		}
		if err := sci.Header().Append(fitsio.Card{Name: card.Name, Value: card.Value, Comment: card.Comment}); err != nil {
			return fmt.Errorf("header card %s: %w", card.Name, err)
		}
	}
	data := append([]float64(nil), c.SCI...)
	if err := sci.Write(&data); err != nil {
		return fmt.Errorf("write science array: %w", err)
	}
	if err := f.Write(sci); err != nil {
		return err
	}

	if c.DQ != nil {
		dq := fitsio.NewImage(32, []int{c.Cols, c.Rows})
		defer dq.Close()
		if err := dq.Header().Append(fitsio.Card{Name: "EXTNAME", Value: "DQ"}); err != nil {
			return err
		}
		flags := make([]int32, len(c.DQ))
		for i, v := range c.DQ {
			flags[i] = int32(v)
		}
		if err := dq.Write(&flags); err != nil {
			return fmt.Errorf("write DQ array: %w", err)
		}
		if err := f.Write(dq); err != nil {
			return err
		}
	}

	if err := f.Close(); err != nil {
		return err
	}
	return w.Close()
}

func imageShape(img fitsio.Image) (rows, cols int, err error) {
	axes := img.Header().Axes()
	if len(axes) != 2 {
		return 0, 0, fmt.Errorf("expected a 2-D image, got %d axes", len(axes))
	}
	if axes[0] <= 0 || axes[1] <= 0 {
		return 0, 0, fmt.Errorf("empty image %v", axes)
	}
	return axes[1], axes[0], nil
}

// readFloats decodes the image payload whatever its BITPIX.
func readFloats(img fitsio.Image) ([]float64, error) {
	n := 1
	for _, axis := range img.Header().Axes() {
		n *= axis
	}
	switch bitpix := img.Header().Bitpix(); bitpix {
	case 8:
		raw := make([]uint8, n)
		if err := img.Read(&raw); err != nil {
			return nil, err
		}
		return widen(raw), nil
	case 16:
		raw := make([]int16, n)
		if err := img.Read(&raw); err != nil {
			return nil, err
		}
		return widen(raw), nil
	case 32:
		raw := make([]int32, n)
		if err := img.Read(&raw); err != nil {
			return nil, err
		}
		return widen(raw), nil
	case 64:
		raw := make([]int64, n)
		if err := img.Read(&raw); err != nil {
			return nil, err
		}
		return widen(raw), nil
	case -32:
		raw := make([]float32, n)
		if err := img.Read(&raw); err != nil {
			return nil, err
		}
		return widen(raw), nil
	case -64:
		raw := make([]float64, n)
		if err := img.Read(&raw); err != nil {
			return nil, err
		}
		return raw, nil
	default:
		return nil, fmt.Errorf("unsupported BITPIX %d", bitpix)
	}
}

func widen[T uint8 | int16 | int32 | int64 | float32](in []T) []float64 {
	out := make([]float64, len(in))
	for i, v := range in {
		out[i] = float64(v)
	}
	return out
}
