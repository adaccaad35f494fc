package interpreter

import "github.com/google/btree"

// ImplicitVar is the name of the implicit variable.
const ImplicitVar = "IT"

// Binding is one variable and its value.
type Binding struct {
	Name  string
	Value Value
}

// Environment maps case-sensitive names to values. Variables are kept in a
// B-tree so snapshots come out sorted by name.
type Environment struct {
	vars *btree.BTreeG[Binding]
	it   Value
}

func NewEnvironment() *Environment {
	return &Environment{
		vars: btree.NewG(8, func(a, b Binding) bool { return a.Name < b.Name }),
	}
}

// Get returns the value of name and whether it has been declared. IT is
// always declared.
func (e *Environment) Get(name string) (Value, bool) {
	if name == ImplicitVar {
		return e.it, true
	}
	b, ok := e.vars.Get(Binding{Name: name})
	return b.Value, ok
}

func (e *Environment) Has(name string) bool {
	_, ok := e.Get(name)
	return ok
}

// Set declares name if needed and stores v.
func (e *Environment) Set(name string, v Value) {
	if name == ImplicitVar {
		e.it = v
		return
	}
	e.vars.ReplaceOrInsert(Binding{Name: name, Value: v})
}

func (e *Environment) IT() Value     { return e.it }
func (e *Environment) SetIT(v Value) { e.it = v }

// Len is the number of declared variables, not counting IT.
func (e *Environment) Len() int { return e.vars.Len() }

// Snapshot returns every declared variable in name order, without IT.
func (e *Environment) Snapshot() []Binding {
	out := make([]Binding, 0, e.vars.Len())
	e.vars.Ascend(func(b Binding) bool {
		out = append(out, b)
		return true
	})
	return out
}
