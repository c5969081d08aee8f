package runtime

import (
	"github.com/samber/lo"

	"github.com/ghaldin/gojvm/internal/classfile"
	"github.com/ghaldin/gojvm/internal/diagnostics"
)

// Loader loads a class's compiled artifact by name. Implementations live in
// internal/classloader; this interface is declared here because the class
// area is the consumer.
type Loader interface {
	LoadClass(name string) (*classfile.ClassFile, error)
}

// ClassArea is the process-wide map from class name to Class record,
// component E. It lazily parses+builds classes on first reference via its
// Loader, and also accepts classes registered directly (the external
// in-memory producer path).
type ClassArea struct {
	classes         map[string]*Class
	loader          Loader
	registeredOrder []string
}

func NewClassArea(loader Loader) *ClassArea {
	return &ClassArea{classes: make(map[string]*Class), loader: loader}
}

// Get returns the named class, loading and building it from the
// configured Loader if it has not been seen yet.
func (ca *ClassArea) Get(name string) (*Class, error) {
	if c, ok := ca.classes[name]; ok {
		return c, nil
	}
	if ca.loader == nil {
		return nil, diagnostics.New(diagnostics.ResolutionError, "class %s not found and no loader configured", name)
	}
	cf, err := ca.loader.LoadClass(name)
	if err != nil {
		return nil, diagnostics.Wrap(err, diagnostics.ResolutionError, "loading class %s", name)
	}
	c, err := BuildClass(cf)
	if err != nil {
		return nil, err
	}
	ca.classes[name] = c
	ca.registeredOrder = append(ca.registeredOrder, name)
	return c, nil
}

// Loaded reports whether name has already been registered/loaded, without
// triggering a load.
func (ca *ClassArea) Loaded(name string) (*Class, bool) {
	c, ok := ca.classes[name]
	return c, ok
}

// All returns every currently-loaded class, in registration order. Class
// initialization is lazy and driven by ensureInitialized at first reference,
// not by this method; All exists for diagnostics (DumpClasses) only.
func (ca *ClassArea) All() []*Class {
	return lo.Map(ca.order(), func(name string, _ int) *Class {
		return ca.classes[name]
	})
}

// order returns registered class names in a stable, insertion-like order.
// Go maps don't preserve insertion order, so ClassArea also tracks it
// explicitly via registeredOrder, appended to on every Get/RegisterClass
// miss.
func (ca *ClassArea) order() []string {
	return ca.registeredOrder
}
