package material

import (
	"errors"
	"testing"

	"github.com/san-kum/rigidsim/internal/dynamo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := NewRegistry(DefaultRule())
	require.NoError(t, err)
	require.NoError(t, r.AddMaterial(Material{Name: "ice", Friction: 0.01, Restitution: 0.1}))
	require.NoError(t, r.AddMaterial(Material{Name: "rubber", Friction: 0.9, Restitution: 0.8}))
	require.NoError(t, r.AddMaterial(New("wood")))
	return r
}

func TestRuleSymmetric(t *testing.T) {
	r := newRegistry(t)
	require.NoError(t, r.SetRule("ice", "rubber", ContactRule{Friction: 0.05, Restitution: 0.2, Stiffness: 1e6, Relaxation: 4}))

	names := []string{Default, "ice", "rubber", "wood", "unregistered"}
	for _, a := range names {
		for _, b := range names {
			assert.Equal(t, r.Rule(a, b), r.Rule(b, a), "rule(%q,%q)", a, b)
		}
	}
}

func TestRuleRegisteredPairWins(t *testing.T) {
	r := newRegistry(t)
	custom := ContactRule{Friction: 0.05, Restitution: 0.2, Stiffness: 1e6, Relaxation: 4}
	require.NoError(t, r.SetRule("rubber", "ice", custom))

	assert.Equal(t, custom, r.Rule("ice", "rubber"))
	assert.Equal(t, [][2]string{{"ice", "rubber"}}, r.Pairs())
}

func TestRuleFallsBackToDefault(t *testing.T) {
	r := newRegistry(t)
	def := DefaultRule()

	assert.Equal(t, def, r.Rule(Default, Default))
	assert.Equal(t, def, r.Rule("wood", "ice"), "wood defers to the default rule")

	combined := r.Rule("ice", "rubber")
	assert.InDelta(t, CombineFriction(0.01, 0.9), combined.Friction, 1e-12)
	assert.InDelta(t, 0.45, combined.Restitution, 1e-12)
	assert.Equal(t, def.Stiffness, combined.Stiffness)
}

func TestSetRuleUnknownMaterial(t *testing.T) {
	r := newRegistry(t)
	err := r.SetRule("ice", "lava", DefaultRule())
	assert.True(t, errors.Is(err, dynamo.ErrUnknownMaterial))

	var cfgErr *dynamo.ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "lava", cfgErr.Value)
}

func TestValidation(t *testing.T) {
	_, err := NewRegistry(ContactRule{Friction: 0.3, Stiffness: 0, Relaxation: 3})
	assert.ErrorIs(t, err, dynamo.ErrInvalidConfig)

	r := newRegistry(t)
	assert.ErrorIs(t, r.AddMaterial(Material{Name: "", Friction: 0.1}), dynamo.ErrInvalidConfig)
	assert.ErrorIs(t, r.AddMaterial(Material{Name: "glass", Friction: 0.1, Restitution: 2}), dynamo.ErrInvalidConfig)
	assert.True(t, r.Has(Default))
	assert.False(t, r.Has("glass"))
	assert.Equal(t, []string{"ice", "rubber", "wood"}, r.Materials())
}
