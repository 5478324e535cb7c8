// Package material holds named surface properties and the pairwise contact
// rules resolved for every contact.
package material

import (
	"math"

	"github.com/san-kum/rigidsim/internal/dynamo"
	"gopkg.in/yaml.v3"
)

// Unset marks a material coefficient that defers to the contact rule.
const Unset = -1.0

// Default is the name of the material bodies get when none is given.
const Default = ""

type Material struct {
	Name        string  `yaml:"name"`
	Friction    float64 `yaml:"friction"`
	Restitution float64 `yaml:"restitution"`
}

// New returns a material whose coefficients defer to the contact rules.
func New(name string) Material {
	return Material{Name: name, Friction: Unset, Restitution: Unset}
}

func (m Material) Validate() error {
	if m.Name == Default {
		return dynamo.NewConfigError("material.name", m.Name, dynamo.ErrInvalidConfig)
	}
	if m.Friction != Unset && (m.Friction < 0 || !dynamo.IsFinite(m.Friction)) {
		return dynamo.NewConfigError("material.friction", m.Friction, dynamo.ErrInvalidConfig)
	}
	if m.Restitution != Unset && (m.Restitution < 0 || m.Restitution > 1 || math.IsNaN(m.Restitution)) {
		return dynamo.NewConfigError("material.restitution", m.Restitution, dynamo.ErrInvalidConfig)
	}
	return nil
}

// UnmarshalYAML leaves coefficients missing from the document unset.
func (m *Material) UnmarshalYAML(node *yaml.Node) error {
	type plain Material
	v := plain(New(""))
	if err := node.Decode(&v); err != nil {
		return err
	}
	*m = Material(v)
	return nil
}

func (m Material) hasFriction() bool    { return m.Friction != Unset }
func (m Material) hasRestitution() bool { return m.Restitution != Unset }
