package datamodels

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Data-quality flag bits.
const (
	DQDoNotUse     uint32 = 1 << 0
	DQNoDarkCorr   uint32 = 1 << 1
	DQNoBackground uint32 = 1 << 2
	DQNoFlatField  uint32 = 1 << 3
)

// Model is the capability every data model class offers to the engine.
type Model interface {
	// ModelName is the canonical registry name the model was created under.
	ModelName() string
	Shape() (rows, cols int)
	Data() *mat.Dense
	SetData(*mat.Dense) error
	DQ() []uint32
	Meta() *Meta
	Clone() Model
	Save(path string) error
}

// Base implements the array and metadata plumbing shared by all classes.
// Concrete classes embed it and supply Clone.
type Base struct {
	name string
	data *mat.Dense
	dq   []uint32
	meta Meta
}

// NewBase allocates a zero-filled model of the given shape.
func NewBase(name string, rows, cols int) Base {
	b := Base{
		name: name,
		data: mat.NewDense(rows, cols, nil),
		dq:   make([]uint32, rows*cols),
	}
	b.meta.Model = name
	return b
}

// BaseFromContainer builds a Base from a decoded file.
func BaseFromContainer(name string, c *Container) (Base, error) {
	if c.Rows <= 0 || c.Cols <= 0 || len(c.SCI) != c.Rows*c.Cols {
		return Base{}, fmt.Errorf("invalid image shape %dx%d with %d pixels", c.Rows, c.Cols, len(c.SCI))
	}
	meta, err := MetaFromCards(c.Cards)
	if err != nil {
		return Base{}, err
	}
	dq := c.DQ
	if dq == nil {
		dq = make([]uint32, c.Rows*c.Cols)
	}
	return Base{
		name: name,
		data: mat.NewDense(c.Rows, c.Cols, append([]float64(nil), c.SCI...)),
		dq:   append([]uint32(nil), dq...),
		meta: meta,
	}, nil
}

func (b *Base) ModelName() string { return b.name }

func (b *Base) Shape() (rows, cols int) { return b.data.Dims() }

func (b *Base) Data() *mat.Dense { return b.data }

// SetData replaces the science array. The shape must not change.
func (b *Base) SetData(d *mat.Dense) error {
	r, c := d.Dims()
	br, bc := b.data.Dims()
	if r != br || c != bc {
		return fmt.Errorf("shape %dx%d does not match model shape %dx%d", r, c, br, bc)
	}
	b.data = d
	return nil
}

func (b *Base) DQ() []uint32 { return b.dq }

func (b *Base) Meta() *Meta { return &b.meta }

// Copy deep-copies the arrays and metadata.
func (b *Base) Copy() Base {
	return Base{
		name: b.name,
		data: mat.DenseCopyOf(b.data),
		dq:   append([]uint32(nil), b.dq...),
		meta: b.meta.Clone(),
	}
}

// Container renders the model in its on-disk layout.
func (b *Base) Container() *Container {
	rows, cols := b.data.Dims()
	sci := make([]float64, 0, rows*cols)
	for i := 0; i < rows; i++ {
		sci = append(sci, b.data.RawRowView(i)...)
	}
	meta := b.meta.Clone()
	if meta.Model == "" {
		meta.Model = b.name
	}
	return &Container{
		Cards: meta.Cards(),
		Rows:  rows,
		Cols:  cols,
		SCI:   sci,
		DQ:    append([]uint32(nil), b.dq...),
	}
}

// Save writes the model to path.
func (b *Base) Save(path string) error {
	return WriteContainer(path, b.Container())
}

// Opener adapts a typed open function to Class.Open.
func Opener[T Model](open func(path string) (T, error)) func(string) (Model, error) {
	return func(path string) (Model, error) {
		m, err := open(path)
		if err != nil {
			return nil, err
		}
		return m, nil
	}
}

// Constructor adapts a typed constructor to Class.New.
func Constructor[T Model](create func(rows, cols int) T) func(int, int) Model {
	return func(rows, cols int) Model { return create(rows, cols) }
}

// CheckShape returns an error unless ref has the same shape as m.
func CheckShape(m, ref Model) error {
	r, c := m.Shape()
	rr, rc := ref.Shape()
	if r != rr || c != rc {
		return fmt.Errorf("%s shape %dx%d does not match %s shape %dx%d", ref.ModelName(), rr, rc, m.ModelName(), r, c)
	}
	return nil
}
