package datamodels

import "fmt"

// Canonical model names looked up by the engine.
const (
	ImageModelName  = "ImageModel"
	DarkModelName   = "DarkModel"
	FlatModelName   = "FlatModel"
	PhotomModelName = "PhotomModel"
)

// KeyPhotMJSR is the photometric conversion keyword carried by photom references.
const KeyPhotMJSR = "PHOTMJSR"

// ImageModel is the generic science exposure.
type ImageModel struct{ Base }

func NewImageModel(rows, cols int) *ImageModel {
	return &ImageModel{Base: NewBase(ImageModelName, rows, cols)}
}

func OpenImageModel(path string) (*ImageModel, error) {
	b, err := openBase(ImageModelName, path)
	if err != nil {
		return nil, err
	}
	return &ImageModel{Base: b}, nil
}

func (m *ImageModel) Clone() Model { return &ImageModel{Base: m.Copy()} }

// DarkModel is a dark-current reference.
type DarkModel struct{ Base }

func NewDarkModel(rows, cols int) *DarkModel {
	return &DarkModel{Base: NewBase(DarkModelName, rows, cols)}
}

func OpenDarkModel(path string) (*DarkModel, error) {
	b, err := openBase(DarkModelName, path)
	if err != nil {
		return nil, err
	}
	return &DarkModel{Base: b}, nil
}

func (m *DarkModel) Clone() Model { return &DarkModel{Base: m.Copy()} }

// FlatModel is a flat-field reference.
type FlatModel struct{ Base }

func NewFlatModel(rows, cols int) *FlatModel {
	return &FlatModel{Base: NewBase(FlatModelName, rows, cols)}
}

func OpenFlatModel(path string) (*FlatModel, error) {
	b, err := openBase(FlatModelName, path)
	if err != nil {
		return nil, err
	}
	return &FlatModel{Base: b}, nil
}

func (m *FlatModel) Clone() Model { return &FlatModel{Base: m.Copy()} }

// PhotomModel is a photometric calibration reference. Its conversion factor
// lives in the PHOTMJSR header keyword.
type PhotomModel struct{ Base }

func NewPhotomModel(rows, cols int) *PhotomModel {
	return &PhotomModel{Base: NewBase(PhotomModelName, rows, cols)}
}

func OpenPhotomModel(path string) (*PhotomModel, error) {
	b, err := openBase(PhotomModelName, path)
	if err != nil {
		return nil, err
	}
	if _, ok := b.Meta().Float(KeyPhotMJSR); !ok {
		return nil, fmt.Errorf("%s: missing numeric %s keyword", path, KeyPhotMJSR)
	}
	return &PhotomModel{Base: b}, nil
}

func (m *PhotomModel) Clone() Model { return &PhotomModel{Base: m.Copy()} }

func openBase(name, path string) (Base, error) {
	c, err := ReadContainer(path)
	if err != nil {
		return Base{}, err
	}
	b, err := BaseFromContainer(name, c)
	if err != nil {
		return Base{}, fmt.Errorf("%s: %w", path, err)
	}
	return b, nil
}

// GenericClasses returns the engine's default class set.
func GenericClasses() []Class {
	return []Class{
		{Name: ImageModelName, Type: "datamodels.ImageModel", Open: Opener(OpenImageModel), New: Constructor(NewImageModel)},
		{Name: DarkModelName, Type: "datamodels.DarkModel", Open: Opener(OpenDarkModel), New: Constructor(NewDarkModel)},
		{Name: FlatModelName, Type: "datamodels.FlatModel", Open: Opener(OpenFlatModel), New: Constructor(NewFlatModel)},
		{Name: PhotomModelName, Type: "datamodels.PhotomModel", Open: Opener(OpenPhotomModel), New: Constructor(NewPhotomModel)},
	}
}
