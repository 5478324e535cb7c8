// Package scenario holds scripted scenes and runs them headless against a
// world built from a config.
package scenario

import (
	"github.com/san-kum/rigidsim/internal/drag"
	"github.com/san-kum/rigidsim/internal/dynamo"
	"github.com/san-kum/rigidsim/internal/impulse"
	"github.com/san-kum/rigidsim/internal/world"
)

// Env is the world a scene is built into, plus the collaborators a script
// may drive.
type Env struct {
	World  *world.World
	Drag   *drag.Controller
	Policy impulse.Policy

	// Tracked bodies are recorded every frame.
	Tracked []dynamo.Handle
}

// Track marks h for recording.
func (e *Env) Track(h dynamo.Handle) {
	e.Tracked = append(e.Tracked, h)
}

// Scene builds bodies into an Env and optionally scripts pointer input.
type Scene interface {
	Name() string
	Description() string
	Setup(env *Env) error

	// Frame runs before every world step with the time of the frame start.
	Frame(env *Env, t float64)
}
