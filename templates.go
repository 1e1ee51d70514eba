package formulas

import "strings"

// Template is an example formula with a complete set of values.
type Template struct {
	Name    string  `json:"name" yaml:"name"`
	Formula string  `json:"formula" yaml:"formula"`
	Vars    Binding `json:"variables" yaml:"-"`
}

// Clone returns a copy of t that shares no storage with it.
func (t Template) Clone() Template {
	t.Vars = t.Vars.Clone()
	return t
}

var gallery = []Template{
	{
		Name:    "Light Bill",
		Formula: "((current_reading - previous_reading) * rate) * (1 + vat)",
		Vars: BindingOf(
			Pair{"current_reading", Num(1200)},
			Pair{"previous_reading", Num(1000)},
			Pair{"rate", Num(63.88)},
			Pair{"vat", Num(0.075)},
		),
	},
	{
		Name:    "Area of Circle",
		Formula: "3.1416 * radius * radius",
		Vars:    BindingOf(Pair{"radius", Num(5)}),
	},
	{
		Name:    "Salary Deduction",
		Formula: "gross - (gross * tax_rate) - pension",
		Vars: BindingOf(
			Pair{"gross", Num(200000)},
			Pair{"tax_rate", Num(0.15)},
			Pair{"pension", Num(12000)},
		),
	},
}

// Templates returns the built-in example formulas.
func Templates() []Template {
	r := make([]Template, len(gallery))
	for i, t := range gallery {
		r[i] = t.Clone()
	}
	return r
}

// LookupTemplate finds a built-in template by name, ignoring case.
func LookupTemplate(name string) (Template, bool) {
	for _, t := range gallery {
		if strings.EqualFold(t.Name, name) {
			return t.Clone(), true
		}
	}
	return Template{}, false
}
