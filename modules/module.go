// Package modules hosts the built-in modules reachable from user code by
// qualified name, and the primitive classes backing the container types.
package modules

import (
	"fmt"

	"karamel/object"
)

// Module is a named collection of native functions; modules may nest.
type Module interface {
	// Name returns the canonical module name, e.g "sayı".
	Name() string

	// Method returns the native function registered under the given name.
	Method(name string) (object.NativeCall, bool)

	// Module returns a nested submodule.
	Module(name string) (Module, bool)
}

// baseModule is the shared implementation the concrete modules build on.
type baseModule struct {
	name    string
	methods map[string]object.NativeCall
	modules map[string]Module
}

func createBaseModule(name string) *baseModule {
	return &baseModule{
		name:    name,
		methods: make(map[string]object.NativeCall),
		modules: make(map[string]Module),
	}
}

func (m *baseModule) Name() string {
	return m.name
}

func (m *baseModule) Method(name string) (object.NativeCall, bool) {
	method, ok := m.methods[name]
	return method, ok
}

func (m *baseModule) Module(name string) (Module, bool) {
	module, ok := m.modules[name]
	return module, ok
}

// Registry is the name-resolved lookup of built-in modules and of the
// dispatch classes attached to the primitive kinds.
type Registry struct {
	modules map[string]Module
	classes map[object.Kind]object.Class
}

func NewRegistry() *Registry {
	return &Registry{
		modules: make(map[string]Module),
		classes: make(map[object.Kind]object.Class),
	}
}

// Register adds a top level module under its canonical name.
func (r *Registry) Register(module Module) {
	r.modules[module.Name()] = module
}

// RegisterClass attaches a dispatch class to a primitive kind.
func (r *Registry) RegisterClass(kind object.Kind, class object.Class) {
	r.classes[kind] = class
}

// Class returns the dispatch class of a primitive kind.
func (r *Registry) Class(kind object.Kind) (object.Class, bool) {
	class, ok := r.classes[kind]
	return class, ok
}

// Resolve walks a qualified name `a::b::c` left to right through the module
// tree and returns the native function at its end.
func (r *Registry) Resolve(names []string) (object.NativeCall, error) {
	if len(names) < 2 {
		return nil, object.CreateRuntimeError(0, 0, "Module not found")
	}

	module, ok := r.modules[names[0]]
	if !ok {
		return nil, object.CreateRuntimeError(0, 0, "Module not found")
	}
	for _, name := range names[1 : len(names)-1] {
		module, ok = module.Module(name)
		if !ok {
			return nil, object.CreateRuntimeError(0, 0, "Module not found")
		}
	}

	method, ok := module.Method(names[len(names)-1])
	if !ok {
		return nil, object.CreateRuntimeError(0, 0, "Function not found")
	}
	return method, nil
}

// DefaultRegistry wires the standard modules and the container classes.
func DefaultRegistry() *Registry {
	registry := NewRegistry()
	registry.Register(NewNumModule())
	registry.Register(NewDebugModule())
	registry.Register(NewIoModule())
	registry.RegisterClass(object.KindList, NewListClass())
	registry.RegisterClass(object.KindDict, NewDictClass())
	return registry
}

// nParameterExpected builds the arity error native functions report. A
// native call with the wrong argument count fails without mutating any
// observable state.
func nParameterExpected(function string, expected int, received int) error {
	return object.CreateRuntimeError(0, 0,
		fmt.Sprintf("'%s' function expects %d parameter(s), received %d", function, expected, received))
}

// expectedParameterType builds the type error for a misused parameter.
func expectedParameterType(parameter string, expected string) error {
	return object.CreateRuntimeError(0, 0,
		fmt.Sprintf("'%s' parameter must be '%s'", parameter, expected))
}
