package datamodels

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Well-known header keywords mapped onto Meta fields.
const (
	KeyModel      = "DATAMODL"
	KeyTelescope  = "TELESCOP"
	KeyInstrument = "INSTRUME"
	KeyDetector   = "DETECTOR"
	KeyFilter     = "FILTER"
	KeyExpType    = "EXP_TYPE"
	KeyUnits      = "BUNIT"
	KeyDateObs    = "DATE-OBS"
)

var dateLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Meta holds the header metadata of a model. The common fields are parsed
// out of their well-known keywords; every other card is kept verbatim and in
// order so that saving a model round-trips its header.
type Meta struct {
	Model      string
	Telescope  string
	Instrument string
	Detector   string
	Filter     string
	ExpType    string
	Units      string
	DateObs    time.Time

	keys   []string
	values map[string]any
}

// ParseDate parses a DATE-OBS style timestamp.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}

func (m *Meta) known(name string) (*string, bool) {
	switch name {
	case KeyModel:
		return &m.Model, true
	case KeyTelescope:
		return &m.Telescope, true
	case KeyInstrument:
		return &m.Instrument, true
	case KeyDetector:
		return &m.Detector, true
	case KeyFilter:
		return &m.Filter, true
	case KeyExpType:
		return &m.ExpType, true
	case KeyUnits:
		return &m.Units, true
	}
	return nil, false
}

// Set assigns a header keyword. Well-known keywords update their field.
func (m *Meta) Set(name string, value any) error {
	name = strings.ToUpper(strings.TrimSpace(name))
	if name == "" {
		return fmt.Errorf("empty keyword name")
	}
	if field, ok := m.known(name); ok {
		*field = fmt.Sprint(value)
		return nil
	}
	if name == KeyDateObs {
		switch v := value.(type) {
		case time.Time:
			m.DateObs = v
		default:
			t, err := ParseDate(fmt.Sprint(v))
			if err != nil {
				return fmt.Errorf("keyword %s: %w", name, err)
			}
			m.DateObs = t
		}
		return nil
	}
	if m.values == nil {
		m.values = make(map[string]any)
	}
	if _, exists := m.values[name]; !exists {
		m.keys = append(m.keys, name)
	}
	m.values[name] = value
	return nil
}

// Keyword returns the raw value of a header keyword.
func (m *Meta) Keyword(name string) (any, bool) {
	name = strings.ToUpper(name)
	if field, ok := m.known(name); ok {
		return *field, *field != ""
	}
	if name == KeyDateObs {
		if m.DateObs.IsZero() {
			return nil, false
		}
		return m.DateObs.Format(dateLayouts[1]), true
	}
	v, ok := m.values[name]
	return v, ok
}

// String returns a keyword formatted as a string.
func (m *Meta) String(name string) (string, bool) {
	v, ok := m.Keyword(name)
	if !ok {
		return "", false
	}
	return fmt.Sprint(v), true
}

// Float returns a numeric keyword.
func (m *Meta) Float(name string) (float64, bool) {
	v, ok := m.Keyword(name)
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}

// Keys lists every keyword present, well-known ones first.
func (m *Meta) Keys() []string {
	var keys []string
	for _, k := range []string{KeyModel, KeyTelescope, KeyInstrument, KeyDetector, KeyFilter, KeyExpType, KeyUnits, KeyDateObs} {
		if _, ok := m.Keyword(k); ok {
			keys = append(keys, k)
		}
	}
	return append(keys, m.keys...)
}

// Clone returns a deep copy.
func (m *Meta) Clone() Meta {
	c := *m
	c.keys = append([]string(nil), m.keys...)
	if m.values != nil {
		c.values = make(map[string]any, len(m.values))
		for k, v := range m.values {
			c.values[k] = v
		}
	}
	return c
}

// Cards renders the metadata as ordered header cards.
func (m *Meta) Cards() []Card {
	keys := m.Keys()
	cards := make([]Card, 0, len(keys))
	for _, k := range keys {
		v, _ := m.Keyword(k)
		cards = append(cards, Card{Name: k, Value: v})
	}
	return cards
}

// MetaFromCards builds Meta from header cards.
func MetaFromCards(cards []Card) (Meta, error) {
	var m Meta
	for _, c := range cards {
		if err := m.Set(c.Name, c.Value); err != nil {
			return Meta{}, err
		}
	}
	return m, nil
}
