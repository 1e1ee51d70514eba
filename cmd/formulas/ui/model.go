package ui

import (
	"context"
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/zephyrtronium/formulas"
	"github.com/zephyrtronium/formulas/internal/client"
)

// Calculator sends calculation requests. *client.Client is a Calculator.
type Calculator interface {
	Calculate(ctx context.Context, req formulas.Request) (formulas.Result, error)
}

// resultMsg carries the outcome of one calculation back to the form.
type resultMsg struct {
	id     uint64
	result formulas.Result
	err    error
}

// Model is the formula form: a formula input followed by one input per
// variable the formula uses.
type Model struct {
	session *formulas.Session
	calc    Calculator
	seq     *client.Sequence

	formula textinput.Model
	inputs  []textinput.Model
	names   []string
	focus   int

	templates []formulas.Template
	next      int

	pending bool
	err     error
	tips    string
	showTip bool

	width  int
	styles Styles
}

// New creates an empty form that calculates through calc.
func New(calc Calculator, seq *client.Sequence) Model {
	if seq == nil {
		seq = new(client.Sequence)
	}
	in := textinput.New()
	in.Placeholder = "Enter your formula"
	in.Prompt = "ƒ "
	in.CharLimit = 512
	in.Focus()
	return Model{
		session:   formulas.NewSession(),
		calc:      calc,
		seq:       seq,
		formula:   in,
		templates: formulas.Templates(),
		styles:    DefaultStyles(),
	}
}

// Session returns the session behind the form.
func (m Model) Session() *formulas.Session {
	return m.session
}

// Init starts the cursor blinking.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		if m.showTip {
			m.tips = m.renderTips()
		}
		return m, nil
	case resultMsg:
		if !m.seq.Latest(msg.id) {
			return m, nil
		}
		m.pending = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.session.SetResult(msg.result)
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "esc", "ctrl+c":
			return m, tea.Quit
		case "ctrl+t":
			if len(m.templates) == 0 {
				return m, nil
			}
			t := m.templates[m.next%len(m.templates)]
			m.next++
			m.session.Load(t)
			m.formula.SetValue(t.Formula)
			m.inputs, m.names = nil, nil
			m.sync()
			m.setFocus(0)
			m.err = nil
			m.pending = false
			// Anything still in flight is for the old formula.
			m.seq.Next()
			return m, nil
		case "ctrl+r":
			m.session.Reset()
			m.formula.SetValue("")
			m.inputs, m.names = nil, nil
			m.setFocus(0)
			m.err = nil
			m.pending = false
			// Anything still in flight is for the old formula.
			m.seq.Next()
			return m, nil
		case "enter":
			cmd := m.calculate()
			return m, cmd
		case "tab", "down":
			m.setFocus(m.focus + 1)
			return m, nil
		case "shift+tab", "up":
			m.setFocus(m.focus - 1)
			return m, nil
		case "f1":
			m.showTip = !m.showTip
			if m.showTip {
				m.tips = m.renderTips()
			}
			return m, nil
		}
	}
	return m.updateFocused(msg)
}

// updateFocused passes msg to the focused input and pushes any edit into the
// session.
func (m Model) updateFocused(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	if m.focus == 0 {
		old := m.formula.Value()
		m.formula, cmd = m.formula.Update(msg)
		if v := m.formula.Value(); v != old {
			m.session.SetFormula(v)
			m.sync()
		}
		return m, cmd
	}
	i := m.focus - 1
	old := m.inputs[i].Value()
	m.inputs[i], cmd = m.inputs[i].Update(msg)
	if text := m.inputs[i].Value(); text != old {
		if err := m.session.SetValue(m.names[i], parseValue(text)); err != nil {
			m.err = err
		}
	}
	return m, cmd
}

// sync rebuilds the variable inputs from the session's bindings. Inputs for
// names that remain keep their text.
func (m *Model) sync() {
	prior := make(map[string]textinput.Model, len(m.names))
	for i, name := range m.names {
		prior[name] = m.inputs[i]
	}
	vars := m.session.Vars()
	names := vars.Names()
	inputs := make([]textinput.Model, len(names))
	for i, name := range names {
		in, ok := prior[name]
		if !ok {
			in = textinput.New()
			in.Prompt = ""
			in.Placeholder = "value"
			in.CharLimit = 64
			if v, _ := vars.Get(name); v.IsSet() {
				in.SetValue(v.String())
			}
		}
		inputs[i] = in
	}
	focused := ""
	if m.focus > 0 && m.focus <= len(m.names) {
		focused = m.names[m.focus-1]
	}
	m.inputs, m.names = inputs, names
	m.setFocus(0)
	for i, name := range names {
		if name == focused {
			m.setFocus(i + 1)
		}
	}
}

// setFocus moves focus to input i, wrapping around.
func (m *Model) setFocus(i int) {
	n := len(m.inputs) + 1
	i = ((i % n) + n) % n
	m.focus = i
	if i == 0 {
		m.formula.Focus()
	} else {
		m.formula.Blur()
	}
	for k := range m.inputs {
		if k == i-1 {
			m.inputs[k].Focus()
		} else {
			m.inputs[k].Blur()
		}
	}
}

// calculate sends the session's request tagged with a new id.
func (m *Model) calculate() tea.Cmd {
	if m.calc == nil {
		return nil
	}
	id := m.seq.Next()
	req := m.session.Request()
	m.pending = true
	calc := m.calc
	return func() tea.Msg {
		r, err := calc.Calculate(context.Background(), req)
		return resultMsg{id: id, result: r, err: err}
	}
}

// parseValue reads a variable input. Anything that is not a finite number
// leaves the variable unset.
func parseValue(text string) formulas.Value {
	f, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return formulas.Unset()
	}
	return formulas.Num(f)
}

// View renders the form.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.styles.Title.Render("Formula Calculator"))
	b.WriteByte('\n')
	if m.showTip {
		b.WriteString(m.tips)
	}
	b.WriteString(m.formula.View())
	b.WriteString("\n\n")

	preview := m.session.Formula()
	if preview == "" {
		b.WriteString(m.styles.Hint.Render("Your formula will appear here..."))
	} else {
		b.WriteString(m.styles.Preview.Render(preview))
	}
	b.WriteString("\n\n")

	width := 0
	for _, name := range m.names {
		width = max(width, lipgloss.Width(name))
	}
	for i, name := range m.names {
		label := m.styles.Label
		if m.focus == i+1 {
			label = m.styles.Focused
		}
		b.WriteString(label.Width(width + 2).Render(name))
		b.WriteString(m.inputs[i].View())
		if text := strings.TrimSpace(m.inputs[i].Value()); text != "" && !parseValue(text).IsSet() {
			b.WriteString(" ")
			b.WriteString(m.styles.Error.Render("not a number"))
		}
		b.WriteByte('\n')
	}
	if len(m.names) > 0 {
		b.WriteByte('\n')
	}

	switch r, ok := m.session.Result(); {
	case m.err != nil:
		b.WriteString(m.styles.Error.Render(m.err.Error()))
		b.WriteString("\n\n")
	case m.pending:
		b.WriteString(m.styles.Status.Render("Calculating..."))
		b.WriteString("\n\n")
	case ok:
		b.WriteString(m.styles.Label.Render("Your Result"))
		b.WriteByte('\n')
		style := m.styles.Result
		if _, num := r.Number(); !num {
			style = style.Foreground(Destructive)
		}
		b.WriteString(style.Render(r.String()))
		b.WriteString("\n\n")
	}

	b.WriteString(m.styles.Hint.Render("enter calculate • ctrl+t next example • ctrl+r clear • tab move • f1 tips • esc quit"))
	return b.String()
}

func (m Model) renderTips() string {
	s, err := RenderTips(m.width)
	if err != nil {
		return m.styles.Error.Render(err.Error()) + "\n"
	}
	return s
}
