package formulas

// ParseOption is an option for parsing.
type ParseOption interface {
	parseOption(*parsectx)
}

type (
	funcopt struct {
		name string
		fn   Func
	}
	disableopt []string
)

// parsectx holds general data for parsing.
type parsectx struct {
	// names is the set of variable names that have been seen this parse.
	names map[string]bool
	// funcs is the set of function names that trigger call parsing for ids.
	// It is copied from globalfuncs only once an option changes it.
	funcs map[string]Func
	// owned is whether funcs is a private copy.
	owned bool
}

// own makes funcs safe to modify.
func (p *parsectx) own() {
	if p.owned {
		return
	}
	m := make(map[string]Func, len(p.funcs))
	for k, v := range p.funcs {
		m[k] = v
	}
	p.funcs = m
	p.owned = true
}

// ParseFunc sets a function for parsing. To parse name as a variable
// instead, pass nil for fn.
func ParseFunc(name string, fn Func) ParseOption {
	return &funcopt{name, fn}
}

func (o *funcopt) parseOption(p *parsectx) {
	p.own()
	if o.fn == nil {
		delete(p.funcs, o.name)
		return
	}
	p.funcs[o.name] = o.fn
}

// DisableFuncs causes names that would be functions to parse as variables.
// Evaluate uses it so that bound variables shadow functions.
func DisableFuncs(names ...string) ParseOption {
	return disableopt(names)
}

func (o disableopt) parseOption(p *parsectx) {
	var found bool
	for _, name := range o {
		if _, ok := p.funcs[name]; ok {
			found = true
			break
		}
	}
	if !found {
		return
	}
	p.own()
	for _, name := range o {
		delete(p.funcs, name)
	}
}

// DisableDefaultFuncs causes all built-in function names to parse as
// variables.
func DisableDefaultFuncs() ParseOption {
	names := make(disableopt, 0, len(globalfuncs))
	for k := range globalfuncs {
		names = append(names, k)
	}
	return names
}
