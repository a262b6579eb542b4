package solver

import "github.com/kilianp07/podplan/core/factory"

// Backend creates empty models for one MILP engine.
type Backend interface {
	Name() string
	NewModel(name string) Model
}

var backends = factory.NewRegistry[Backend]()

// Register adds a backend factory under name. Backends register
// themselves from init.
func Register(name string, f factory.Factory[Backend]) error {
	return backends.Register(name, f)
}

// New instantiates the configured backend.
func New(cfg factory.ModuleConfig) (Backend, error) {
	return backends.Create(cfg)
}
