package scenario

import (
	"fmt"
	"sort"
)

type Registry struct {
	scenes map[string]func() Scene
}

func NewRegistry() *Registry {
	r := &Registry{scenes: make(map[string]func() Scene)}

	r.Register("drop", func() Scene { return &dropScene{height: 5} })
	r.Register("stack", func() Scene { return &stackScene{boxes: 3} })
	r.Register("drag", func() Scene { return newDragScene(false) })
	r.Register("throw", func() Scene { return newDragScene(true) })
	r.Register("scatter", func() Scene { return &scatterScene{count: 6} })

	return r
}

// Register adds a scene factory. Each Get returns a fresh scene.
func (r *Registry) Register(name string, fn func() Scene) {
	r.scenes[name] = fn
}

func (r *Registry) Get(name string) (Scene, error) {
	fn, ok := r.scenes[name]
	if !ok {
		return nil, fmt.Errorf("unknown scenario: %s", name)
	}
	return fn(), nil
}

func (r *Registry) List() []string {
	names := make([]string, 0, len(r.scenes))
	for name := range r.scenes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
