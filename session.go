package formulas

// Session holds the formula being edited and the values bound to its
// variables. Every change to the formula re-derives the variables. A Session
// is not safe to use concurrently; it belongs to whatever handles the user's
// input.
type Session struct {
	formula string
	vars    Binding
	result  Result
	done    bool

	subs []*subscriber
}

type subscriber struct {
	fn func(Event)
}

// EventKind is the kind of change that produced an Event.
type EventKind int

const (
	// FormulaChanged follows SetFormula.
	FormulaChanged EventKind = iota
	// ValueChanged follows SetValue.
	ValueChanged
	// TemplateLoaded follows Load.
	TemplateLoaded
	// Reset follows Session.Reset.
	Reset
	// ResultArrived follows SetResult.
	ResultArrived
)

func (k EventKind) String() string {
	switch k {
	case FormulaChanged:
		return "FormulaChanged"
	case ValueChanged:
		return "ValueChanged"
	case TemplateLoaded:
		return "TemplateLoaded"
	case Reset:
		return "Reset"
	case ResultArrived:
		return "ResultArrived"
	default:
		return "EventKind(?)"
	}
}

// Event describes a change to a Session. Formula and Vars are snapshots taken
// after the change; HasResult reports whether Result holds anything.
type Event struct {
	Kind      EventKind
	Formula   string
	Vars      Binding
	Result    Result
	HasResult bool
}

// NewSession creates a session with an empty formula.
func NewSession() *Session {
	return &Session{vars: NewBinding()}
}

// Formula returns the current formula text.
func (s *Session) Formula() string {
	return s.formula
}

// Vars returns a copy of the current bindings.
func (s *Session) Vars() Binding {
	return s.vars.Clone()
}

// Result returns the last result and whether there is one.
func (s *Session) Result() (Result, bool) {
	return s.result, s.done
}

// SetFormula replaces the formula text and reconciles the bindings with the
// variables it uses.
func (s *Session) SetFormula(formula string) {
	s.formula = formula
	s.vars = Reconcile(Extract(formula), s.vars)
	s.notify(FormulaChanged)
}

// SetValue sets the value of a variable the formula uses. The result is a
// *NameError if the formula does not use name.
func (s *Session) SetValue(name string, v Value) error {
	if !s.vars.Set(name, v) {
		return &NameError{Name: name}
	}
	s.notify(ValueChanged)
	return nil
}

// Load replaces the formula and all bindings with those of a template and
// clears any result. The template's values are used as given.
func (s *Session) Load(t Template) {
	s.formula = t.Formula
	s.vars = t.Vars.Clone()
	s.result, s.done = Result{}, false
	s.notify(TemplateLoaded)
}

// Reset clears the formula, the bindings, and the result.
func (s *Session) Reset() {
	s.formula = ""
	s.vars = NewBinding()
	s.result, s.done = Result{}, false
	s.notify(Reset)
}

// SetResult records the result of a calculation.
func (s *Session) SetResult(r Result) {
	s.result, s.done = r, true
	s.notify(ResultArrived)
}

// Request returns the calculation request for the current state.
func (s *Session) Request() Request {
	return Request{Formula: s.formula, Variables: s.vars.Clone()}
}

// Subscribe calls fn after every change to the session, on the goroutine
// making the change. The returned function stops further calls.
func (s *Session) Subscribe(fn func(Event)) (cancel func()) {
	sub := &subscriber{fn: fn}
	s.subs = append(s.subs, sub)
	return func() {
		for i, v := range s.subs {
			if v == sub {
				s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

func (s *Session) notify(kind EventKind) {
	if len(s.subs) == 0 {
		return
	}
	ev := Event{
		Kind:      kind,
		Formula:   s.formula,
		Vars:      s.vars.Clone(),
		Result:    s.result,
		HasResult: s.done,
	}
	// Copy so that a subscriber may cancel itself.
	for _, sub := range append([]*subscriber(nil), s.subs...) {
		sub.fn(ev)
	}
}
