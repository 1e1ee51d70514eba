package formulas

import (
	"math/big"
	"strconv"

	"github.com/zephyrtronium/bigfloat"
)

// Func is a function from reals to reals.
type Func interface {
	// Call evaluates the function. The arguments are passed in args, which
	// has a length for which CanCall returned true. The function must set r
	// to its result and should not use the value of r otherwise. Call may
	// modify the elements of args.
	Call(ctx *Context, args []*big.Float, r *big.Float) error

	// CanCall returns whether the function can be called with n arguments.
	// A function name followed by a bracketed list of n expressions is a call
	// only if CanCall(n). A function name with no list is a call if
	// CanCall(0) and a variable name otherwise.
	CanCall(n int) bool
}

var globalfuncs = map[string]Func{
	"abs":  Monadic((*big.Float).Abs),
	"sqrt": Monadic(sqrt),
	"exp":  Monadic(bigfloat.Exp),
	"ln":   Monadic(ln),
	"log":  logfn{},

	"floor": Monadic(floor),
	"ceil":  Monadic(ceil),
	"round": roundfn{},

	"min": extremum{sign: -1},
	"max": extremum{sign: 1},

	// constants
	"pi": Niladic(bigfloat.Pi),
	"e": Niladic(func(out *big.Float) *big.Float {
		var one big.Float
		one.SetFloat64(1)
		return bigfloat.Exp(out, &one)
	}),
}

// Funcs returns the names of the built-in functions.
func Funcs() []string {
	r := make([]string, 0, len(globalfuncs))
	for k := range globalfuncs {
		r = append(r, k)
	}
	sortstrs(r)
	return r
}

// sortstrs sorts a short string slice in place.
func sortstrs(names []string) {
	for i := 1; i < len(names); i++ {
		for j := i; j > 0 && names[j] < names[j-1]; j-- {
			names[j], names[j-1] = names[j-1], names[j]
		}
	}
}

type monadic struct {
	f func(out, in *big.Float) *big.Float
}

func (m monadic) Call(ctx *Context, args []*big.Float, r *big.Float) error {
	r.SetPrec(ctx.Prec())
	m.f(r, args[0])
	return nil
}

func (m monadic) CanCall(n int) bool {
	return n == 1
}

// Monadic wraps a function of one variable into a Func. f must set out to its
// result; its return value is always ignored. If f is called on an argument
// outside f's domain, it should panic with a DomainError or big.ErrNaN.
func Monadic(f func(out, in *big.Float) *big.Float) Func {
	return monadic{f}
}

type niladic struct {
	f func(out *big.Float) *big.Float
}

func (n niladic) Call(ctx *Context, args []*big.Float, r *big.Float) error {
	r.SetPrec(ctx.Prec())
	n.f(r)
	return nil
}

func (n niladic) CanCall(k int) bool {
	return k == 0
}

// Niladic wraps a function of zero variables, generally a function which
// computes a constant, into a Func. f must set out to its result; its return
// value is always ignored.
func Niladic(f func(out *big.Float) *big.Float) Func {
	return niladic{f}
}

func sqrt(out, in *big.Float) *big.Float {
	if in.Sign() < 0 {
		panic(DomainError{X: in, Func: "sqrt"})
	}
	return out.Sqrt(in)
}

func ln(out, in *big.Float) *big.Float {
	if in.Sign() <= 0 {
		panic(DomainError{X: in, Func: "ln"})
	}
	return bigfloat.Log(out, in)
}

func floor(out, in *big.Float) *big.Float {
	if in.IsInf() || in.IsInt() {
		return out.Set(in)
	}
	i, _ := in.Int(nil)
	if in.Sign() < 0 {
		// Int truncates toward zero.
		i.Sub(i, big.NewInt(1))
	}
	return out.SetInt(i)
}

func ceil(out, in *big.Float) *big.Float {
	if in.IsInf() || in.IsInt() {
		return out.Set(in)
	}
	i, _ := in.Int(nil)
	if in.Sign() > 0 {
		i.Add(i, big.NewInt(1))
	}
	return out.SetInt(i)
}

// logfn is log(x), the base 10 logarithm, or log(x, b), the base b logarithm.
type logfn struct{}

func (logfn) Call(ctx *Context, args []*big.Float, r *big.Float) error {
	x := args[0]
	if x.Sign() <= 0 {
		return DomainError{X: x, Arg: 1, Func: "log"}
	}
	base := new(big.Float).SetPrec(ctx.Prec()).SetInt64(10)
	if len(args) == 2 {
		base = args[1]
		if base.Sign() <= 0 || base.Cmp(big.NewFloat(1)) == 0 {
			return DomainError{X: base, Arg: 2, Func: "log"}
		}
	}
	r.SetPrec(ctx.Prec())
	bigfloat.Log(r, x)
	d := bigfloat.Log(new(big.Float).SetPrec(ctx.Prec()), base)
	r.Quo(r, d)
	return nil
}

func (logfn) CanCall(n int) bool {
	return n == 1 || n == 2
}

// roundfn is round(x) or round(x, digits). Halves round to even.
type roundfn struct{}

func (roundfn) Call(ctx *Context, args []*big.Float, r *big.Float) error {
	x := args[0]
	r.SetPrec(ctx.Prec())
	if x.IsInf() {
		r.Set(x)
		return nil
	}
	digits := int64(0)
	if len(args) == 2 {
		if !args[1].IsInt() {
			return DomainError{X: args[1], Arg: 2, Func: "round"}
		}
		digits, _ = args[1].Int64()
	}
	scale := new(big.Float).SetPrec(ctx.Prec()).SetInt64(1)
	ten := new(big.Float).SetPrec(ctx.Prec()).SetInt64(10)
	for i := int64(0); i < digits && i < 400; i++ {
		scale.Mul(scale, ten)
	}
	for i := int64(0); i > digits && i > -400; i-- {
		scale.Quo(scale, ten)
	}
	y := new(big.Float).SetPrec(ctx.Prec()).Mul(x, scale)
	fl := floor(new(big.Float).SetPrec(ctx.Prec()), y)
	frac := new(big.Float).SetPrec(ctx.Prec()).Sub(y, fl)
	switch frac.Cmp(big.NewFloat(0.5)) {
	case 1:
		fl.Add(fl, big.NewFloat(1))
	case 0:
		i, _ := fl.Int(nil)
		if i.Bit(0) == 1 {
			fl.Add(fl, big.NewFloat(1))
		}
	}
	r.Quo(fl, scale)
	return nil
}

func (roundfn) CanCall(n int) bool {
	return n == 1 || n == 2
}

// extremum is min or max of one or more arguments.
type extremum struct {
	sign int
}

func (m extremum) Call(ctx *Context, args []*big.Float, r *big.Float) error {
	best := args[0]
	for _, x := range args[1:] {
		if x.Cmp(best) == m.sign {
			best = x
		}
	}
	r.SetPrec(ctx.Prec()).Set(best)
	return nil
}

func (m extremum) CanCall(n int) bool {
	return n >= 1
}

// DomainError is an error returned when a function or operator is applied to
// arguments outside its domain.
type DomainError struct {
	// X is the out-of-domain argument, if there is one.
	X *big.Float
	// Arg is the 1-based index of the argument.
	Arg int
	// Func is a name identifying the function or operator.
	Func string
	// Reason replaces the default message if it is not empty.
	Reason string
}

func (err DomainError) Error() string {
	if err.Reason != "" {
		return err.Reason
	}
	r := "argument outside domain"
	if err.X != nil {
		r = err.X.String() + " outside domain"
	}
	if err.Func != "" {
		r += " of " + err.Func
	}
	if err.Arg > 0 {
		r += " (argument " + strconv.Itoa(err.Arg) + ")"
	}
	return r
}
