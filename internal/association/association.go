// Package association loads association descriptors: JSON files grouping
// input exposures into products and tagging each member with a role.
package association

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vk/irispipe/internal/pipeerr"
)

// Role tells the engine which part an exposure plays.
type Role string

const (
	RoleScience    Role = "science"
	RoleBackground Role = "background"
	RoleDark       Role = "dark"
	RoleImprint    Role = "imprint"
	RoleSelfcal    Role = "selfcal"
)

var roles = map[Role]bool{
	RoleScience:    true,
	RoleBackground: true,
	RoleDark:       true,
	RoleImprint:    true,
	RoleSelfcal:    true,
}

// Valid reports whether r belongs to the role vocabulary.
func (r Role) Valid() bool { return roles[r] }

// Member is one exposure of a product.
type Member struct {
	ExpName string `json:"expname"`
	ExpType Role   `json:"exptype"`

	// Path is ExpName resolved against the association's directory.
	Path string `json:"-"`
}

// Product groups the members calibrated together.
type Product struct {
	Name    string    `json:"name"`
	Members []*Member `json:"members"`
}

// ByRole returns the members of the product with the given role, in order.
func (p *Product) ByRole(role Role) []*Member {
	var out []*Member
	for _, m := range p.Members {
		if m != nil && m.ExpType == role {
			out = append(out, m)
		}
	}
	return out
}

// Association is a parsed descriptor.
type Association struct {
	Type     string     `json:"asn_type"`
	Rule     string     `json:"asn_rule"`
	ID       string     `json:"asn_id"`
	Pool     string     `json:"asn_pool"`
	Program  string     `json:"program"`
	Products []*Product `json:"products"`

	// Path and Dir locate the descriptor on disk.
	Path string `json:"-"`
	Dir  string `json:"-"`
}

// Science returns every science member across products.
func (a *Association) Science() []*Member {
	var out []*Member
	for _, p := range a.Products {
		out = append(out, p.ByRole(RoleScience)...)
	}
	return out
}

// Load reads, parses and validates the descriptor at path. Every failure is
// an association error.
func Load(path string) (*Association, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, pipeerr.WrapAssociation(err, "", "read descriptor %s", path)
	}
	asn, err := Parse(raw, filepath.Dir(path))
	if err != nil {
		return nil, err
	}
	asn.Path = path
	if err := asn.Validate(); err != nil {
		return nil, err
	}
	return asn, nil
}

// Parse decodes a descriptor and resolves member paths against dir. It does
// not touch member files; call Validate for that.
func Parse(raw []byte, dir string) (*Association, error) {
	var asn Association
	if err := json.Unmarshal(raw, &asn); err != nil {
		return nil, pipeerr.WrapAssociation(err, "", "malformed descriptor")
	}
	asn.Dir = dir
	for _, p := range asn.Products {
		if p == nil {
			continue
		}
		for _, m := range p.Members {
			if m == nil {
				continue
			}
			m.ExpType = Role(strings.ToLower(strings.TrimSpace(string(m.ExpType))))
			m.Path = m.ExpName
			if m.ExpName != "" && !filepath.IsAbs(m.ExpName) {
				m.Path = filepath.Join(dir, m.ExpName)
			}
		}
	}
	return &asn, nil
}

// Validate checks structure, role vocabulary and member readability.
func (a *Association) Validate() error {
	if len(a.Products) == 0 {
		return pipeerr.Associationf("", "descriptor has no products")
	}
	for i, p := range a.Products {
		if p == nil {
			return pipeerr.Associationf("", "product #%d is null", i)
		}
		label := p.Name
		if label == "" {
			label = fmt.Sprintf("#%d", i)
		}
		for j, m := range p.Members {
			if m == nil {
				return pipeerr.Associationf("", "product %s member #%d is null", label, j)
			}
			if m.ExpName == "" {
				return pipeerr.Associationf("", "product %s member #%d has no expname", label, j)
			}
			if !m.ExpType.Valid() {
				return pipeerr.Associationf(m.ExpName, "unknown exptype %q", m.ExpType)
			}
			if err := readable(m.Path); err != nil {
				return pipeerr.WrapAssociation(err, m.ExpName, "member not readable")
			}
		}
		if len(p.ByRole(RoleScience)) == 0 {
			return pipeerr.Associationf("", "product %s has no science member", label)
		}
	}
	return nil
}

func readable(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%s is not a regular file", path)
	}
	return nil
}
