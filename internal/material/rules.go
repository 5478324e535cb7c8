package material

import (
	"sort"

	"github.com/san-kum/rigidsim/internal/dynamo"
)

// ContactRule configures how contacts between two materials are solved.
// Stiffness and Relaxation are the SPOOK softness of the non-penetration
// equation; the friction equations share them.
type ContactRule struct {
	Friction    float64 `yaml:"friction"`
	Restitution float64 `yaml:"restitution"`
	Stiffness   float64 `yaml:"stiffness"`
	Relaxation  float64 `yaml:"relaxation"`
}

// DefaultRule mirrors the usual interactive defaults: moderate friction, no
// bounce and a stiff contact.
func DefaultRule() ContactRule {
	return ContactRule{
		Friction:    0.3,
		Restitution: 0.0,
		Stiffness:   1e7,
		Relaxation:  3,
	}
}

func (r ContactRule) Validate() error {
	switch {
	case r.Friction < 0 || !dynamo.IsFinite(r.Friction):
		return dynamo.NewConfigError("rule.friction", r.Friction, dynamo.ErrInvalidConfig)
	case r.Restitution < 0 || r.Restitution > 1:
		return dynamo.NewConfigError("rule.restitution", r.Restitution, dynamo.ErrInvalidConfig)
	case !(r.Stiffness > 0) || !dynamo.IsFinite(r.Stiffness):
		return dynamo.NewConfigError("rule.stiffness", r.Stiffness, dynamo.ErrInvalidConfig)
	case !(r.Relaxation > 0) || !dynamo.IsFinite(r.Relaxation):
		return dynamo.NewConfigError("rule.relaxation", r.Relaxation, dynamo.ErrInvalidConfig)
	}
	return nil
}

type pairKey struct{ a, b string }

func keyOf(a, b string) pairKey {
	if b < a {
		a, b = b, a
	}
	return pairKey{a, b}
}

// Registry maps material names to materials and unordered material pairs to
// contact rules. Lookups are symmetric.
type Registry struct {
	def       ContactRule
	materials map[string]Material
	rules     map[pairKey]ContactRule
}

func NewRegistry(def ContactRule) (*Registry, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &Registry{
		def:       def,
		materials: make(map[string]Material),
		rules:     make(map[pairKey]ContactRule),
	}, nil
}

func (r *Registry) DefaultRule() ContactRule { return r.def }

func (r *Registry) AddMaterial(m Material) error {
	if err := m.Validate(); err != nil {
		return err
	}
	r.materials[m.Name] = m
	return nil
}

// Material returns the named material. The default material always exists.
func (r *Registry) Material(name string) (Material, bool) {
	if name == Default {
		return New(Default), true
	}
	m, ok := r.materials[name]
	return m, ok
}

func (r *Registry) Has(name string) bool {
	_, ok := r.Material(name)
	return ok
}

// SetRule registers the rule for the unordered pair (a, b).
func (r *Registry) SetRule(a, b string, rule ContactRule) error {
	if !r.Has(a) {
		return dynamo.NewConfigError("rule.material", a, dynamo.ErrUnknownMaterial)
	}
	if !r.Has(b) {
		return dynamo.NewConfigError("rule.material", b, dynamo.ErrUnknownMaterial)
	}
	if err := rule.Validate(); err != nil {
		return err
	}
	r.rules[keyOf(a, b)] = rule
	return nil
}

// Rule resolves the contact rule for a pair of materials. A registered pair
// wins; otherwise the default rule applies, with friction and restitution
// taken from the materials when both declare them.
func (r *Registry) Rule(a, b string) ContactRule {
	if rule, ok := r.rules[keyOf(a, b)]; ok {
		return rule
	}
	rule := r.def
	ma, okA := r.Material(a)
	mb, okB := r.Material(b)
	if !okA || !okB {
		return rule
	}
	if ma.hasFriction() && mb.hasFriction() {
		rule.Friction = CombineFriction(ma.Friction, mb.Friction)
	}
	if ma.hasRestitution() && mb.hasRestitution() {
		rule.Restitution = CombineRestitution(ma.Restitution, mb.Restitution)
	}
	return rule
}

// Pairs lists the registered pairs in a stable order.
func (r *Registry) Pairs() [][2]string {
	out := make([][2]string, 0, len(r.rules))
	for k := range r.rules {
		out = append(out, [2]string{k.a, k.b})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i][0] != out[j][0] {
			return out[i][0] < out[j][0]
		}
		return out[i][1] < out[j][1]
	})
	return out
}

// Materials lists the registered material names in sorted order.
func (r *Registry) Materials() []string {
	names := make([]string, 0, len(r.materials))
	for name := range r.materials {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
