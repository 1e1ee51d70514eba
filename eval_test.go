package formulas_test

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/zephyrtronium/formulas"
)

// near reports whether got is within a relative 1e-12 of want.
func near(got, want float64) bool {
	if math.IsInf(want, 0) || want == 0 {
		return got == want
	}
	return math.Abs(got-want) <= 1e-12*math.Abs(want)
}

func TestEval(t *testing.T) {
	type vv struct {
		n string
		v float64
	}
	type vc struct {
		vars []vv
		r    float64
	}
	cases := []struct {
		name string
		src  string
		r    []vc
	}{
		{"num", "1", []vc{{nil, 1}}},
		{"ident", "x", []vc{
			{[]vv{{"x", 4}}, 4},
			{[]vv{{"x", 5}}, 5},
			{[]vv{{"x", 6}}, 6},
		}},
		{"plus", "+x", []vc{
			{[]vv{{"x", 4}}, 4},
			{[]vv{{"x", -5}}, -5},
		}},
		{"neg", "-x", []vc{
			{[]vv{{"x", 4}}, -4},
			{[]vv{{"x", -5}}, 5},
		}},
		{"add", "4+5+6", []vc{{nil, 4 + 5 + 6}}},
		{"sub", "4-5-6", []vc{{nil, 4 - 5 - 6}}},
		{"mul", "4*5*6", []vc{{nil, 4 * 5 * 6}}},
		{"div", "4/5/6", []vc{{nil, 4.0 / 5.0 / 6.0}}},
		{"altmul", "4×5", []vc{{nil, 20}}},
		{"altdiv", "5÷4", []vc{{nil, 1.25}}},
		{"pow", "4^3^2", []vc{{nil, 262144}}},
		{"starstar", "2**10", []vc{{nil, 1024}}},
		{"pow-negbase-odd", "(-2)^3", []vc{{nil, -8}}},
		{"pow-negbase-even", "(-2)^2", []vc{{nil, 4}}},
		{"pow-negexp", "2^-1", []vc{{nil, 0.5}}},
		{"pow-negpow", "-2^2", []vc{{nil, -4}}},
		{"pow-frac", "4^0.5", []vc{{nil, 2}}},
		{"pow-zero", "0^0", []vc{{nil, 1}}},
		{"mod", "7%3", []vc{{nil, 1}}},
		{"mod-neglhs", "-7%3", []vc{{nil, 2}}},
		{"mod-negrhs", "7%-3", []vc{{nil, -2}}},
		{"mod-frac", "5.5%2", []vc{{nil, 1.5}}},
		{"prec", "2+3*4^2", []vc{{nil, 50}}},
		{"pi", "pi", []vc{{nil, math.Pi}}},
		{"e", "e", []vc{{nil, math.E}}},
		{"exp", "exp(1)", []vc{{nil, math.E}}},
		{"ln", "ln(e)", []vc{{nil, 1}}},
		{"log", "log(1000)", []vc{{nil, 3}}},
		{"log-base", "log(8, 2)", []vc{{nil, 3}}},
		{"sqrt", "sqrt(16)", []vc{{nil, 4}}},
		{"abs", "abs(-3)", []vc{{nil, 3}}},
		{"floor", "floor(-1.5)", []vc{{nil, -2}}},
		{"ceil", "ceil(-1.5)", []vc{{nil, -1}}},
		{"ceil-up", "ceil(1.2)", []vc{{nil, 2}}},
		{"round-even", "round(2.5)", []vc{{nil, 2}}},
		{"round-odd", "round(3.5)", []vc{{nil, 4}}},
		{"round-neg", "round(-2.5)", []vc{{nil, -2}}},
		{"round-digits", "round(3.14159, 2)", []vc{{nil, 3.14}}},
		{"min", "min(3, 1, 2)", []vc{{nil, 1}}},
		{"max", "max(3, 1, 2)", []vc{{nil, 3}}},
		{"inf", "Infinity", []vc{{nil, math.Inf(1)}}},
		{"neginf", "-Infinity", []vc{{nil, math.Inf(-1)}}},
		{"inf-add", "Infinity + 1", []vc{{nil, math.Inf(1)}}},
		{"circle", "3.1416 * radius * radius", []vc{
			{[]vv{{"radius", 5}}, 3.1416 * 25},
			{[]vv{{"radius", 0}}, 0},
		}},
		{"light-bill", "((current_reading - previous_reading) * rate) * (1 + vat)", []vc{
			{[]vv{{"current_reading", 1200}, {"previous_reading", 1000}, {"rate", 63.88}, {"vat", 0.075}}, 13734.2},
		}},
	}
	ctx := formulas.NewContext(formulas.Prec(64))
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			a, err := formulas.ParseString(c.src)
			if err != nil {
				t.Fatal(c.src, "failed to parse:", err)
			}
			for _, v := range c.r {
				ctx := ctx.Clone()
				for _, x := range v.vars {
					ctx.Set(x.n, new(big.Float).SetFloat64(x.v))
				}
				r, err := ctx.Eval(a)
				if err != nil {
					t.Error("evaluation error:", err)
					continue
				}
				if r == nil {
					t.Fatal("nil result")
				}
				if f, _ := r.Float64(); !near(f, v.r) {
					t.Errorf("wrong result: want %g, got %g", v.r, r)
				}
			}
		})
	}
}

func TestEvalUndefNames(t *testing.T) {
	cases := []struct {
		name string
		src  string
		r    []string
	}{
		{"x", "x", []string{"x"}},
		{"plus", "+x", []string{"x"}},
		{"neg", "-x", []string{"x"}},
		{"add-lhs", "x+1", []string{"x"}},
		{"add-rhs", "1+x", []string{"x"}},
		{"sub-rhs", "1-x", []string{"x"}},
		{"mul-rhs", "1*x", []string{"x"}},
		{"div-lhs", "x/1", []string{"x"}},
		{"mod-rhs", "1%x", []string{"x"}},
		{"pow-rhs", "1^x", []string{"x"}},
		{"call", "exp(x)", []string{"x"}},
		{"bare-func", "sqrt + 1", []string{"sqrt"}},
		{"nan", "NaN", []string{"NaN"}},
	}
	ure := regexp.MustCompile(`(?i)\bundef`)
	vre := regexp.MustCompile(`(?i)\bvar`)
	ctx := formulas.NewContext(formulas.Prec(64))
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			a, err := formulas.ParseString(c.src)
			if err != nil {
				t.Fatalf("%q failed to parse: %v", c.src, err)
			}
			if v := a.Vars(); strings.Join(v, " ") != strings.Join(c.r, " ") {
				t.Errorf("%q gave wrong variables: want %q, got %q", c.src, c.r, v)
			}
			r, err := ctx.Eval(a)
			if r != nil {
				t.Errorf("evaluating %q gave non-nil result %g", c.src, r)
			}
			if err == nil {
				t.Fatalf("evaluating %q gave no error", c.src)
			}
			var u *formulas.NameError
			if !errors.As(err, &u) {
				t.Fatalf("error was %#v, not NameError", err)
			}
			if !formulas.IsNameError(err) {
				t.Error("IsNameError is false for a NameError")
			}
			msg := err.Error()
			if !ure.MatchString(msg) {
				t.Errorf(`%q doesn't mention "undef"`, msg)
			}
			if !vre.MatchString(msg) {
				t.Errorf(`%q doesn't mention "var"`, msg)
			}
			if !strings.Contains(msg, u.Name) {
				t.Errorf("%q doesn't mention %q", msg, u.Name)
			}
		})
	}
}

func TestEvalDomainError(t *testing.T) {
	cases := []struct {
		name string
		src  string
		msg  string
	}{
		{"sqrt", "sqrt(-1)", ""},
		{"ln", "ln(0)", ""},
		{"log", "log(-1)", ""},
		{"log-base", "log(8, 1)", ""},
		{"round-digits", "round(1, 0.5)", ""},
		{"div-zero", "1/0", "division by zero"},
		{"div-zerozero", "0/0", "division by zero"},
		{"div-alt-zero", "0÷0", "division by zero"},
		{"div-inf", "Infinity/Infinity", ""},
		{"mod-zero", "5%0", "modulo by zero"},
		{"mod-inf", "Infinity%2", ""},
		{"pow-neg", "(-1)^0.5", ""},
		{"pow-zero-neg", "0^-1", "zero to a negative power"},
		{"Infinity-Infinity", "Infinity-Infinity", ""},
		{"zero-inf", "0*Infinity", ""},
	}
	ctx := formulas.NewContext()
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			a, err := formulas.ParseString(c.src)
			if err != nil {
				t.Fatalf("%q failed to parse: %v", c.src, err)
			}
			r, err := ctx.Clone().Eval(a)
			if r != nil {
				t.Errorf("evaluating %q gave non-nil result %g", c.src, r)
			}
			if err == nil {
				t.Fatalf("evaluating %q gave no error", c.src)
			}
			var de formulas.DomainError
			if !errors.As(err, &de) {
				t.Errorf("%#v is not a DomainError", err)
			}
			if c.msg != "" && err.Error() != c.msg {
				t.Errorf("wrong message: want %q, got %q", c.msg, err.Error())
			}
		})
	}
}

func TestContextVars(t *testing.T) {
	zero := new(big.Float)
	one := new(big.Float).SetFloat64(1)
	ctx := formulas.NewContext(formulas.Prec(64), formulas.SetVar("x", zero))
	if x := ctx.Lookup("x"); x == nil || x.Cmp(zero) != 0 {
		t.Errorf("x should be %[1]v at %[1]p but is %[2]v at %[2]p", zero, x)
	}
	if y := ctx.Lookup("y"); y != nil {
		t.Errorf("context has y: %[1]v at %[1]p", y)
	}
	ctx.Set("y", one)
	if y := ctx.Lookup("y"); y == nil || y.Cmp(one) != 0 {
		t.Errorf("y should be %[1]v at %[1]p but is %[2]v at %[2]p", one, y)
	}
	ctx.Set("x", one)
	if x := ctx.Lookup("x"); x == nil || x.Cmp(one) != 0 {
		t.Errorf("x should be %[1]v at %[1]p but is %[2]v at %[2]p", one, x)
	}
	// Lookup returns a copy.
	ctx.Lookup("x").SetInt64(7)
	if x := ctx.Lookup("x"); x.Cmp(one) != 0 {
		t.Errorf("changing a looked up value changed the context: %v", x)
	}
}

func TestContextClone(t *testing.T) {
	ctx := formulas.NewContext(formulas.SetVars(map[string]*big.Float{"a": big.NewFloat(1)}))
	if ctx.Prec() != formulas.DefaultPrec {
		t.Errorf("wrong default precision %d", ctx.Prec())
	}
	c := ctx.Clone(formulas.Prec(128), formulas.SetVar("b", big.NewFloat(2)))
	if c.Prec() != 128 {
		t.Errorf("clone has precision %d, want 128", c.Prec())
	}
	switch a := c.Lookup("a"); {
	case a == nil:
		t.Error("clone lost variable a")
	case a.Prec() != 128:
		t.Errorf("cloned variable a has precision %d", a.Prec())
	}
	if ctx.Lookup("b") != nil {
		t.Error("variable set on clone appeared in the original")
	}
}

func TestEvaluate(t *testing.T) {
	tmpl, _ := formulas.LookupTemplate("Light Bill")
	cases := []struct {
		name string
		req  formulas.Request
		want float64
	}{
		{
			name: "light-bill",
			req:  formulas.Request{Formula: tmpl.Formula, Variables: tmpl.Vars},
			want: 13734.2,
		},
		{
			name: "shadow-pi",
			req: formulas.Request{
				Formula:   "pi * r ^ 2",
				Variables: formulas.BindingOf(formulas.Pair{Name: "pi", Value: formulas.Num(3)}, formulas.Pair{Name: "r", Value: formulas.Num(2)}),
			},
			want: 12,
		},
		{
			name: "inf-name",
			req: formulas.Request{
				Formula:   "inf * principal",
				Variables: formulas.BindingOf(formulas.Pair{Name: "inf", Value: formulas.Num(1.5)}, formulas.Pair{Name: "principal", Value: formulas.Num(100)}),
			},
			want: 150,
		},
		{
			name: "shadow-e",
			req: formulas.Request{
				Formula:   "e + 1",
				Variables: formulas.BindingOf(formulas.Pair{Name: "e", Value: formulas.Num(1)}),
			},
			want: 2,
		},
		{
			name: "unset-pi",
			req: formulas.Request{
				Formula:   "pi * r ^ 2",
				Variables: formulas.BindingOf(formulas.Pair{Name: "pi", Value: formulas.Unset()}, formulas.Pair{Name: "r", Value: formulas.Num(1)}),
			},
			want: math.Pi,
		},
		{
			name: "extra-variable",
			req: formulas.Request{
				Formula:   "x",
				Variables: formulas.BindingOf(formulas.Pair{Name: "x", Value: formulas.Num(1)}, formulas.Pair{Name: "y", Value: formulas.Num(2)}),
			},
			want: 1,
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			r, err := formulas.Evaluate(c.req, 0)
			if err != nil {
				t.Fatal(err)
			}
			if f, _ := r.Float64(); !near(f, c.want) {
				t.Errorf("wrong result: want %g, got %g", c.want, r)
			}
		})
	}
}

func TestEvaluateErrors(t *testing.T) {
	x := formulas.Pair{Name: "x", Value: formulas.Num(1)}
	cases := []struct {
		name string
		req  formulas.Request
		err  any
	}{
		{"unset", formulas.Request{Formula: "x + y", Variables: formulas.BindingOf(x, formulas.Pair{Name: "y", Value: formulas.Unset()})}, new(*formulas.NameError)},
		{"missing", formulas.Request{Formula: "x + y", Variables: formulas.BindingOf(x)}, new(*formulas.NameError)},
		{"reserved", formulas.Request{Formula: "if + 1"}, new(*formulas.ReservedError)},
		{"empty", formulas.Request{Formula: ""}, new(*formulas.EmptyExpressionError)},
		{"nan", formulas.Request{Formula: "x", Variables: formulas.BindingOf(formulas.Pair{Name: "x", Value: formulas.Num(math.NaN())})}, new(formulas.DomainError)},
		{"implicit", formulas.Request{Formula: "2 x", Variables: formulas.BindingOf(x)}, new(*formulas.TermError)},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			r, err := formulas.Evaluate(c.req, 0)
			if err == nil {
				t.Fatalf("no error, result %g", r)
			}
			if !errors.As(err, c.err) {
				t.Errorf("wrong error type: want %T, got %#v", c.err, err)
			}
		})
	}
}

func TestSolve(t *testing.T) {
	cases := []struct {
		name string
		src  string
		num  float64
		ok   bool
		msg  *regexp.Regexp
	}{
		{"number", "6*7", 42, true, nil},
		{"div-zero", "1/0", 0, false, regexp.MustCompile(`^division by zero$`)},
		{"undefined", "x", 0, false, regexp.MustCompile(`^undefined variable: "x"$`)},
		{"empty", "", 0, false, regexp.MustCompile(`no expression`)},
		{"huge", "10^400", 0, false, regexp.MustCompile(`^result is not finite`)},
		{"huge-int-exp", "2^70000", 0, false, regexp.MustCompile(`^result is not finite`)},
		{"tower", "9^9^9", 0, false, regexp.MustCompile(`^result is not finite`)},
		{"tower-frac", "9^9^9.5", 0, false, regexp.MustCompile(`^result is not finite`)},
		{"tower-tiny", "0.5^9^9", 0, true, nil},
		{"tower-neg", "(-9)^9^9", 0, false, regexp.MustCompile(`^result is not finite: -Inf`)},
		{"one-huge-exp", "1^9^9^9", 1, true, nil},
		{"huge-exp-exp", "10^(10^10)", 0, false, regexp.MustCompile(`^result is not finite`)},
		{"tiny-int-exp", "2^-70000", 0, true, nil},
		{"big-frac-exp", "1.5^70000.5", 0, false, regexp.MustCompile(`^result is not finite`)},
		{"inf", "Infinity", 0, false, regexp.MustCompile(`^result is not finite`)},
		{"syntax", "(1 + 2", 0, false, regexp.MustCompile(`bracket`)},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			done := make(chan formulas.Result, 1)
			go func() { done <- formulas.Solve(formulas.Request{Formula: c.src}, 0) }()
			var r formulas.Result
			select {
			case r = <-done:
			case <-time.After(10 * time.Second):
				t.Fatalf("%s did not finish", c.src)
			}
			n, ok := r.Number()
			if ok != c.ok || n != c.num {
				t.Errorf("wrong result: want %g %t, got %g %t", c.num, c.ok, n, ok)
			}
			if c.msg != nil && !c.msg.MatchString(r.Message()) {
				t.Errorf("message %q does not match %v", r.Message(), c.msg)
			}
		})
	}
}

func BenchmarkEval(b *testing.B) {
	vars := map[string]*big.Float{
		"x": big.NewFloat(2),
		"y": big.NewFloat(3),
		"z": big.NewFloat(4),
	}
	b.Run("nums", func(b *testing.B) {
		b.ReportAllocs()
		ctx := formulas.NewContext(formulas.Prec(64))
		a, err := formulas.ParseString("2+3+4")
		if err != nil {
			b.Fatal(err)
		}
		for i := 0; i < b.N; i++ {
			ctx.Eval(a)
		}
	})
	b.Run("vars", func(b *testing.B) {
		b.ReportAllocs()
		ctx := formulas.NewContext(formulas.SetVars(vars), formulas.Prec(64))
		a, err := formulas.ParseString("x+y+z")
		if err != nil {
			b.Fatal(err)
		}
		for i := 0; i < b.N; i++ {
			ctx.Eval(a)
		}
	})
	b.Run("solve", func(b *testing.B) {
		b.ReportAllocs()
		tmpl := formulas.Templates()[0]
		req := formulas.Request{Formula: tmpl.Formula, Variables: tmpl.Vars}
		for i := 0; i < b.N; i++ {
			formulas.Solve(req, 0)
		}
	})
}

func FuzzEvalString(f *testing.F) {
	f.Add("1/0")
	f.Add("(-2)^0.5")
	f.Add("round(2.5) % 0")
	f.Add("log(8, 2) ** -1")
	f.Fuzz(func(t *testing.T, s string) {
		// Huge exponents are slow, not wrong.
		if strings.ContainsAny(s, "^*e") && len(s) > 64 {
			t.Skip()
		}
		r := formulas.Solve(formulas.Request{Formula: s}, 0)
		if n, ok := r.Number(); ok && (math.IsNaN(n) || math.IsInf(n, 0)) {
			t.Errorf("%q gave non-finite number %g", s, n)
		}
	})
}

func Example() {
	ctx := formulas.NewContext(formulas.Prec(64))
	a, _ := formulas.ParseString("x^3/2 - x")
	for i := 0; i < 4; i++ {
		ctx.Set("x", big.NewFloat(float64(i)))
		y, _ := ctx.Eval(a)
		fmt.Printf("x = %d   y = %g\n", i, y)
	}

	// Output:
	// x = 0   y = 0
	// x = 1   y = -0.5
	// x = 2   y = 2
	// x = 3   y = 10.5
}

func ExampleSolve() {
	tmpl, _ := formulas.LookupTemplate("Salary Deduction")
	fmt.Println(tmpl.Formula)
	fmt.Println(tmpl.Vars)
	fmt.Println(formulas.Solve(formulas.Request{Formula: tmpl.Formula, Variables: tmpl.Vars}, 0))

	// Output:
	// gross - (gross * tax_rate) - pension
	// {gross: 200000, tax_rate: 0.15, pension: 12000}
	// 158000
}
