package iris

import (
	"fmt"
	"strings"

	"github.com/vk/irispipe/internal/datamodels"
)

const (
	Telescope  = "TMT"
	Instrument = "IRIS"

	// KeyMode selects the IRIS science path: "imager" or "ifs".
	KeyMode = "IRISMODE"
)

var modes = map[string]bool{"imager": true, "ifs": true}

// applyConventions validates IRIS header conventions and fills the
// telescope and instrument when a file omits them.
func applyConventions(b *datamodels.Base, path string) error {
	meta := b.Meta()
	if meta.Telescope == "" {
		meta.Telescope = Telescope
	} else if !strings.EqualFold(meta.Telescope, Telescope) {
		return fmt.Errorf("%s: TELESCOP %q is not %s", path, meta.Telescope, Telescope)
	}
	if meta.Instrument == "" {
		meta.Instrument = Instrument
	} else if !strings.EqualFold(meta.Instrument, Instrument) {
		return fmt.Errorf("%s: INSTRUME %q is not %s", path, meta.Instrument, Instrument)
	}
	meta.Telescope = strings.ToUpper(meta.Telescope)
	meta.Instrument = strings.ToUpper(meta.Instrument)

	if mode, ok := meta.String(KeyMode); ok {
		mode = strings.ToLower(strings.TrimSpace(mode))
		if !modes[mode] {
			return fmt.Errorf("%s: unknown %s %q", path, KeyMode, mode)
		}
		if err := meta.Set(KeyMode, mode); err != nil {
			return err
		}
	}
	return nil
}

func open(name, path string) (datamodels.Base, error) {
	c, err := datamodels.ReadContainer(path)
	if err != nil {
		return datamodels.Base{}, err
	}
	b, err := datamodels.BaseFromContainer(name, c)
	if err != nil {
		return datamodels.Base{}, fmt.Errorf("%s: %w", path, err)
	}
	if err := applyConventions(&b, path); err != nil {
		return datamodels.Base{}, err
	}
	return b, nil
}

func newBase(name string, rows, cols int) datamodels.Base {
	b := datamodels.NewBase(name, rows, cols)
	b.Meta().Telescope = Telescope
	b.Meta().Instrument = Instrument
	return b
}

// save stamps the IRIS identity before writing.
func save(b *datamodels.Base, typeName, path string) error {
	c := b.Container()
	for i := range c.Cards {
		switch c.Cards[i].Name {
		case datamodels.KeyModel:
			c.Cards[i].Value = typeName
		case datamodels.KeyTelescope:
			c.Cards[i].Value = Telescope
		case datamodels.KeyInstrument:
			c.Cards[i].Value = Instrument
		}
	}
	return datamodels.WriteContainer(path, c)
}

// ImageModel is an IRIS science exposure.
type ImageModel struct{ datamodels.Base }

func NewImageModel(rows, cols int) *ImageModel {
	return &ImageModel{Base: newBase(datamodels.ImageModelName, rows, cols)}
}

func OpenImageModel(path string) (*ImageModel, error) {
	b, err := open(datamodels.ImageModelName, path)
	if err != nil {
		return nil, err
	}
	return &ImageModel{Base: b}, nil
}

func (m *ImageModel) Clone() datamodels.Model { return &ImageModel{Base: m.Copy()} }

func (m *ImageModel) Save(path string) error { return save(&m.Base, "IRISImageModel", path) }

// DarkModel is an IRIS dark-current reference.
type DarkModel struct{ datamodels.Base }

func NewDarkModel(rows, cols int) *DarkModel {
	return &DarkModel{Base: newBase(datamodels.DarkModelName, rows, cols)}
}

func OpenDarkModel(path string) (*DarkModel, error) {
	b, err := open(datamodels.DarkModelName, path)
	if err != nil {
		return nil, err
	}
	return &DarkModel{Base: b}, nil
}

func (m *DarkModel) Clone() datamodels.Model { return &DarkModel{Base: m.Copy()} }

func (m *DarkModel) Save(path string) error { return save(&m.Base, "IRISDarkModel", path) }

// FlatModel is an IRIS flat-field reference.
type FlatModel struct{ datamodels.Base }

func NewFlatModel(rows, cols int) *FlatModel {
	return &FlatModel{Base: newBase(datamodels.FlatModelName, rows, cols)}
}

func OpenFlatModel(path string) (*FlatModel, error) {
	b, err := open(datamodels.FlatModelName, path)
	if err != nil {
		return nil, err
	}
	return &FlatModel{Base: b}, nil
}

func (m *FlatModel) Clone() datamodels.Model { return &FlatModel{Base: m.Copy()} }

func (m *FlatModel) Save(path string) error { return save(&m.Base, "IRISFlatModel", path) }

// PhotomModel is an IRIS photometric reference.
type PhotomModel struct{ datamodels.Base }

func NewPhotomModel(rows, cols int) *PhotomModel {
	return &PhotomModel{Base: newBase(datamodels.PhotomModelName, rows, cols)}
}

func OpenPhotomModel(path string) (*PhotomModel, error) {
	b, err := open(datamodels.PhotomModelName, path)
	if err != nil {
		return nil, err
	}
	if _, ok := b.Meta().Float(datamodels.KeyPhotMJSR); !ok {
		return nil, fmt.Errorf("%s: missing numeric %s keyword", path, datamodels.KeyPhotMJSR)
	}
	return &PhotomModel{Base: b}, nil
}

func (m *PhotomModel) Clone() datamodels.Model { return &PhotomModel{Base: m.Copy()} }

func (m *PhotomModel) Save(path string) error { return save(&m.Base, "IRISPhotomModel", path) }
