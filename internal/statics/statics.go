// Package statics constructs process-wide objects before the program body
// runs. Each constructed object installs its own teardown as a deferred
// handler, which is the only link between an object's lifetime and process
// exit.
package statics

import (
	"errors"
	"fmt"

	"github.com/danmuck/nocrt/internal/atexit"
)

var (
	ErrDuplicate   = errors.New("static already declared")
	ErrNilInit     = errors.New("static has no constructor")
	ErrInvalidName = errors.New("invalid static name")
	ErrInitialized = errors.New("statics already initialized")
)

// Registrar accepts teardown handlers.
type Registrar interface {
	Register(fn atexit.Handler, arg any) error
}

// Object declares one process-wide object. Init builds the instance; Fini,
// when set, tears it down and receives the instance Init returned.
type Object struct {
	Name string
	Init func() any
	Fini func(instance any)
}

// Report describes one Initialize pass.
type Report struct {
	Constructed []string
	// Lost names objects whose teardown was dropped by a full registrar.
	Lost []string
}

// Table holds objects in declaration order.
type Table struct {
	objects     []Object
	index       map[string]int
	instances   map[string]any
	initialized bool
}

func NewTable() *Table {
	return &Table{
		index:     make(map[string]int),
		instances: make(map[string]any),
	}
}

// Declare appends obj. Objects are constructed in the order declared.
func (t *Table) Declare(obj Object) error {
	if t.initialized {
		return ErrInitialized
	}
	if !isValidName(obj.Name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, obj.Name)
	}
	if obj.Init == nil {
		return fmt.Errorf("%w: %s", ErrNilInit, obj.Name)
	}
	if _, ok := t.index[obj.Name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicate, obj.Name)
	}
	t.index[obj.Name] = len(t.objects)
	t.objects = append(t.objects, obj)
	return nil
}

// Initialize constructs every declared object and registers its teardown.
// Overflowed teardowns are reported in Report.Lost and construction
// continues; other registration errors stop the pass.
func (t *Table) Initialize(r Registrar) (Report, error) {
	var rep Report
	if t.initialized {
		return rep, ErrInitialized
	}
	t.initialized = true
	for _, obj := range t.objects {
		inst := obj.Init()
		t.instances[obj.Name] = inst
		rep.Constructed = append(rep.Constructed, obj.Name)
		if obj.Fini == nil {
			continue
		}
		fini := obj.Fini
		err := r.Register(func(arg any) { fini(arg) }, inst)
		switch {
		case err == nil:
		case errors.Is(err, atexit.ErrOverflow):
			rep.Lost = append(rep.Lost, obj.Name)
		default:
			return rep, fmt.Errorf("register teardown for %s: %w", obj.Name, err)
		}
	}
	return rep, nil
}

// Instance returns the constructed instance of name.
func (t *Table) Instance(name string) (any, bool) {
	inst, ok := t.instances[name]
	return inst, ok
}

// Names returns declared names in declaration order.
func (t *Table) Names() []string {
	names := make([]string, 0, len(t.objects))
	for _, obj := range t.objects {
		names = append(names, obj.Name)
	}
	return names
}

func isValidName(name string) bool {
	if name == "" {
		return false
	}
	lastSep := false
	for i := 0; i < len(name); i++ {
		c := name[i]
		isLower := c >= 'a' && c <= 'z'
		isDigit := c >= '0' && c <= '9'
		isSep := c == '.' || c == '-' || c == '_'
		if !(isLower || isDigit || isSep) {
			return false
		}
		if (i == 0 || i == len(name)-1) && isSep {
			return false
		}
		if isSep && lastSep {
			return false
		}
		lastSep = isSep
	}
	return true
}
