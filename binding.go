package formulas

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Binding maps variable names to values. Names keep the order in which they
// were added, which is the order of first occurrence when the Binding comes
// from Reconcile. The zero Binding is empty and ready to use.
type Binding struct {
	names []string
	vals  map[string]Value
}

// Pair is a single name and its value.
type Pair struct {
	Name  string
	Value Value
}

// NewBinding creates a Binding in which every name is unset. Repeated names
// are kept once, at their first position.
func NewBinding(names ...string) Binding {
	b := Binding{vals: make(map[string]Value, len(names))}
	for _, name := range names {
		b.put(name, Unset())
	}
	return b
}

// BindingOf creates a Binding from pairs in order. A repeated name keeps its
// first position and its last value.
func BindingOf(pairs ...Pair) Binding {
	b := Binding{vals: make(map[string]Value, len(pairs))}
	for _, p := range pairs {
		b.put(p.Name, p.Value)
	}
	return b
}

// put adds or replaces a value without changing an existing name's position.
func (b *Binding) put(name string, v Value) {
	if b.vals == nil {
		b.vals = make(map[string]Value)
	}
	if _, ok := b.vals[name]; !ok {
		b.names = append(b.names, name)
	}
	b.vals[name] = v
}

// Len returns the number of names in b.
func (b Binding) Len() int {
	return len(b.names)
}

// Names returns the names in b in order.
func (b Binding) Names() []string {
	return append([]string{}, b.names...)
}

// Pairs returns the names and values in b in order.
func (b Binding) Pairs() []Pair {
	r := make([]Pair, len(b.names))
	for i, name := range b.names {
		r[i] = Pair{Name: name, Value: b.vals[name]}
	}
	return r
}

// Get returns the value of a name and whether the name is in b.
func (b Binding) Get(name string) (Value, bool) {
	v, ok := b.vals[name]
	return v, ok
}

// Has returns whether name is in b.
func (b Binding) Has(name string) bool {
	_, ok := b.vals[name]
	return ok
}

// Set changes the value of a name already in b. It returns false without
// changing anything if the name is not in b; only reconciliation adds names.
func (b Binding) Set(name string, v Value) bool {
	if _, ok := b.vals[name]; !ok {
		return false
	}
	b.vals[name] = v
	return true
}

// Floats returns the set values in b. Unset names are omitted.
func (b Binding) Floats() map[string]float64 {
	r := make(map[string]float64, len(b.names))
	for name, v := range b.vals {
		if f, ok := v.Float64(); ok {
			r[name] = f
		}
	}
	return r
}

// Clone returns a copy of b that shares no storage with it.
func (b Binding) Clone() Binding {
	c := Binding{
		names: append([]string(nil), b.names...),
		vals:  make(map[string]Value, len(b.vals)),
	}
	for k, v := range b.vals {
		c.vals[k] = v
	}
	return c
}

// Equal returns whether b and c have the same names in the same order with
// the same values.
func (b Binding) Equal(c Binding) bool {
	if len(b.names) != len(c.names) {
		return false
	}
	for i, name := range b.names {
		if c.names[i] != name || !b.vals[name].Equal(c.vals[name]) {
			return false
		}
	}
	return true
}

// String formats b like {a: 1, b: unset}.
func (b Binding) String() string {
	var s strings.Builder
	s.WriteByte('{')
	for i, name := range b.names {
		if i > 0 {
			s.WriteString(", ")
		}
		s.WriteString(name)
		s.WriteString(": ")
		if v := b.vals[name]; v.IsSet() {
			s.WriteString(v.String())
		} else {
			s.WriteString("unset")
		}
	}
	s.WriteByte('}')
	return s.String()
}

// Reconcile produces the Binding for a new set of names. Each name keeps its
// value from prior if it has one there and is unset otherwise. Names in prior
// that are not in names are dropped; their values are not remembered.
func Reconcile(names []string, prior Binding) Binding {
	b := Binding{
		names: make([]string, 0, len(names)),
		vals:  make(map[string]Value, len(names)),
	}
	for _, name := range names {
		v, _ := prior.Get(name)
		b.put(name, v)
	}
	return b
}

// MarshalJSON encodes b as an object with keys in order.
func (b Binding) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range b.names {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		v, err := b.vals[name].MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes an object, keeping the order of its keys. null
// decodes to an empty Binding.
func (b *Binding) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*b = Binding{}
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return errors.New("variables must be a JSON object")
	}
	r := Binding{vals: make(map[string]Value)}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name := tok.(string)
		var v Value
		if err := dec.Decode(&v); err != nil {
			return fmt.Errorf("variable %s: %w", name, err)
		}
		r.put(name, v)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*b = r
	return nil
}
