package config

import "sort"

// Profile bundles the stepping and drag settings for a class of device. It is
// chosen once when the world is built.
type Profile struct {
	Name        string
	Description string
	Timestep    float64
	MaxSubsteps int
	Iterations  int
	Drag        DragConfig
}

func (p Profile) apply(c *Config) {
	c.Profile = p.Name
	c.Timestep = p.Timestep
	c.MaxSubsteps = p.MaxSubsteps
	c.Iterations = p.Iterations
	c.Drag = p.Drag
}

var Profiles = map[string]Profile{
	"desktop": {
		Name:        "desktop",
		Description: "60 Hz steps, stiff pointer joint",
		Timestep:    1.0 / 60.0,
		MaxSubsteps: 3,
		Iterations:  10,
		Drag:        DragConfig{Stiffness: 1e6, Relaxation: 3, MaxForce: 1e3},
	},
	"lowpower": {
		Name:        "lowpower",
		Description: "30 Hz steps with more substeps, soft touch joint",
		Timestep:    1.0 / 30.0,
		MaxSubsteps: 6,
		Iterations:  20,
		Drag:        DragConfig{Stiffness: 1e4, Relaxation: 8, MaxForce: 5e2},
	},
}

func GetProfile(name string) (Profile, bool) {
	p, ok := Profiles[name]
	return p, ok
}

func ListProfiles() []string {
	names := make([]string, 0, len(Profiles))
	for name := range Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
