package formulas

import (
	"errors"
	"fmt"
	"io"
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/zephyrtronium/bigfloat"
)

// DefaultPrec is the precision of a Context created without a Prec option.
const DefaultPrec = 64

// Context is a context for evaluating expressions. It is not safe to use a
// Context concurrently.
type Context struct {
	nums  map[string]*big.Float
	names map[string]*big.Float
	prec  uint
}

// ContextOption is an option used when creating a context.
type ContextOption interface {
	ctxOption()
}

type (
	varopt struct {
		name string
		val  *big.Float
	}
	varsopt map[string]*big.Float
	precopt uint
)

func (varopt) ctxOption()  {}
func (varsopt) ctxOption() {}
func (precopt) ctxOption() {}

// SetVar sets the value of a variable in the context.
func SetVar(name string, val *big.Float) ContextOption {
	return varopt{name, val}
}

// SetVars sets the values of any number of variables in the context.
func SetVars(vars map[string]*big.Float) ContextOption {
	return varsopt(vars)
}

// Prec sets the precision of calculations.
func Prec(prec uint) ContextOption {
	return precopt(prec)
}

// NewContext creates a new evaluation context. If no precision is given, the
// default is DefaultPrec.
func NewContext(opts ...ContextOption) *Context {
	ctx := Context{nums: make(map[string]*big.Float), prec: DefaultPrec}
	return ctx.Clone(opts...)
}

// Eval evaluates an expression and returns the result. An error results from
// a variable with no value or an argument outside the domain of a function
// or operator.
func (ctx *Context) Eval(e *Expr) (r *big.Float, err error) {
	defer func() {
		p := recover()
		if p == nil {
			return
		}
		// Functions and big.Float arithmetic signal domain errors by panicking.
		switch p := p.(type) {
		case DomainError:
			r, err = nil, p
		case big.ErrNaN:
			r, err = nil, DomainError{Reason: p.Error()}
		default:
			panic(p)
		}
	}()
	return e.n.eval(ctx)
}

// Set sets the value of a variable. Returns ctx for chaining.
func (ctx *Context) Set(name string, value *big.Float) *Context {
	if ctx.names == nil {
		ctx.names = make(map[string]*big.Float)
	}
	ctx.names[name] = new(big.Float).SetPrec(ctx.prec).Set(value)
	return ctx
}

// Lookup returns a copy of the value of a variable. If there is no such
// variable in the context, then the result is nil.
func (ctx *Context) Lookup(name string) *big.Float {
	v := ctx.names[name]
	if v == nil {
		return nil
	}
	return new(big.Float).Copy(v)
}

// Prec returns the precision to which values are computed in the context.
func (ctx *Context) Prec() uint {
	return ctx.prec
}

// Clone creates a copy of a context and applies options to it.
func (ctx *Context) Clone(opts ...ContextOption) *Context {
	n := Context{
		nums:  make(map[string]*big.Float, len(ctx.nums)),
		names: make(map[string]*big.Float, len(ctx.names)),
		prec:  ctx.prec,
	}
	// First, check for a precision setting. Loop backward so we apply the last
	// precision.
	for i := len(opts) - 1; i >= 0; i-- {
		if p, ok := opts[i].(precopt); ok {
			n.prec = uint(p)
			break
		}
	}
	// Cached numbers are only valid at the precision they were parsed with.
	if n.prec == ctx.prec {
		for k, v := range ctx.nums {
			n.nums[k] = v
		}
	}
	for name, val := range ctx.names {
		n.names[name] = new(big.Float).SetPrec(n.prec).Set(val)
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		switch opt := opt.(type) {
		case varopt:
			n.names[opt.name] = new(big.Float).SetPrec(n.prec).Set(opt.val)
		case varsopt:
			for k, v := range opt {
				n.names[k] = new(big.Float).SetPrec(n.prec).Set(v)
			}
		case precopt:
			// Already done. Do nothing.
		default:
			panic("formulas: unknown option type")
		}
	}
	return &n
}

// num gets a possibly cached number from its text. The result must not be
// modified.
func (ctx *Context) num(s string) *big.Float {
	if r := ctx.nums[s]; r != nil {
		return r
	}
	r, _, err := new(big.Float).SetPrec(ctx.prec).Parse(s, 10)
	switch {
	case err == nil: // do nothing
	case err.Error() == "exponent overflow",
		strings.HasSuffix(err.Error(), ": value out of range"):
		// There isn't realistically any better way to detect this error.
		r = new(big.Float).SetInf(false)
	default:
		// The lexer accepts only numbers that big.Float can parse, except
		// for Infinity.
		if !isNumericLexeme(s) {
			panic("formulas: invalid number: " + s + " (" + err.Error() + ")")
		}
		r = new(big.Float).SetInf(false)
	}
	ctx.nums[s] = r
	return r
}

func (ctx *Context) newFloat() *big.Float {
	return new(big.Float).SetPrec(ctx.prec)
}

// eval computes the node's value into a new float.
func (n *node) eval(ctx *Context) (*big.Float, error) {
	switch n.kind {
	case nodeNum:
		return ctx.newFloat().Set(ctx.num(n.name)), nil
	case nodeName:
		v := ctx.names[n.name]
		if v == nil {
			return nil, &NameError{Name: n.name}
		}
		return ctx.newFloat().Set(v), nil
	case nodeCall:
		var args []*big.Float
		for l := n.right; l != nil; l = l.right {
			x, err := l.left.eval(ctx)
			if err != nil {
				return nil, err
			}
			args = append(args, x)
		}
		r := ctx.newFloat()
		if err := n.fn.Call(ctx, args, r); err != nil {
			return nil, err
		}
		return r, nil
	case nodeNeg, nodeNop:
		v, err := n.left.eval(ctx)
		if err != nil {
			return nil, err
		}
		if n.kind == nodeNeg {
			v.Neg(v)
		}
		return v, nil
	case nodeAdd, nodeSub, nodeMul, nodeDiv, nodeMod, nodePow:
		l, err := n.left.eval(ctx)
		if err != nil {
			return nil, err
		}
		r, err := n.right.eval(ctx)
		if err != nil {
			return nil, err
		}
		return binary(ctx, n.kind, l, r)
	default:
		panic("formulas: invalid AST node " + n.kind.String())
	}
}

// binary applies a binary operator, storing the result in l.
func binary(ctx *Context, op nodeKind, l, r *big.Float) (*big.Float, error) {
	switch op {
	case nodeAdd:
		return l.Add(l, r), nil
	case nodeSub:
		return l.Sub(l, r), nil
	case nodeMul:
		return l.Mul(l, r), nil
	case nodeDiv:
		if r.Sign() == 0 {
			return nil, DomainError{X: r, Func: "/", Reason: "division by zero"}
		}
		if l.IsInf() && r.IsInf() {
			return nil, DomainError{X: r, Func: "/"}
		}
		return l.Quo(l, r), nil
	case nodeMod:
		return mod(ctx, l, r)
	case nodePow:
		return pow(ctx, l, r)
	default:
		panic("formulas: not a binary operator: " + op.String())
	}
}

// mod computes the remainder of l/r with the sign of r, storing the result
// in l.
func mod(ctx *Context, l, r *big.Float) (*big.Float, error) {
	if r.Sign() == 0 {
		return nil, DomainError{X: r, Func: "%", Reason: "modulo by zero"}
	}
	if l.IsInf() {
		return nil, DomainError{X: l, Arg: 1, Func: "%"}
	}
	if r.IsInf() {
		if l.Sign() == 0 || l.Sign() == r.Sign() {
			return l, nil
		}
		return l.Set(r), nil
	}
	q := ctx.newFloat().Quo(l, r)
	floor(q, q)
	q.Mul(q, r)
	return l.Sub(l, q), nil
}

// maxIntPow is the largest exponent computed by repeated multiplication.
const maxIntPow = 1 << 16

// maxPowBits bounds the binary exponent of a result computed by bigfloat.Pow.
// Larger results become infinity and smaller ones zero.
const maxPowBits = 1 << 16

// pow computes l^r, storing the result in l. Negative bases are allowed only
// with integer exponents.
func pow(ctx *Context, l, r *big.Float) (*big.Float, error) {
	if r.Sign() == 0 {
		return l.SetInt64(1), nil
	}
	neg := false
	if l.Signbit() && l.Sign() != 0 {
		if !r.IsInt() {
			return nil, DomainError{X: l, Func: "^"}
		}
		i, _ := r.Int(nil)
		neg = i.Bit(0) == 1
		l.Neg(l)
	}
	if r.IsInt() {
		if e, acc := r.Int64(); acc == big.Exact && -maxIntPow <= e && e <= maxIntPow {
			if e < 0 && l.Sign() == 0 {
				return nil, DomainError{X: l, Func: "^", Reason: "zero to a negative power"}
			}
			intpow(ctx, l, e)
			if neg {
				l.Neg(l)
			}
			return l, nil
		}
	}
	switch {
	case l.Sign() == 0:
		if r.Sign() < 0 {
			return nil, DomainError{X: l, Func: "^", Reason: "zero to a negative power"}
		}
		// l is already zero.
	case l.IsInf():
		if r.Sign() < 0 {
			l.SetInt64(0)
		}
	case r.IsInf():
		one := big.NewFloat(1)
		switch c := l.Cmp(one); {
		case c == 0:
			// 1^inf stays 1.
		case (c > 0) == (r.Sign() > 0):
			l.SetInf(false)
		default:
			l.SetInt64(0)
		}
	default:
		// Estimate log2 of the result first. bigfloat.Pow does not finish
		// in practical time when the result is very large or very small.
		mant := ctx.newFloat()
		exp := l.MantExp(mant)
		mf, _ := mant.Float64()
		lg := float64(exp) + math.Log2(mf)
		rf, _ := r.Float64()
		switch bits := rf * lg; {
		case lg == 0:
			// 1^r stays 1.
		case bits > maxPowBits:
			l.SetInf(false)
		case bits < -maxPowBits:
			l.SetInt64(0)
		default:
			// Pow may return a float other than its destination.
			l.Set(bigfloat.Pow(ctx.newFloat(), l, r))
		}
	}
	if neg {
		l.Neg(l)
	}
	return l, nil
}

// intpow sets x to x^e by repeated squaring.
func intpow(ctx *Context, x *big.Float, e int64) {
	inv := e < 0
	if inv {
		e = -e
	}
	acc := ctx.newFloat().SetInt64(1)
	base := ctx.newFloat().Set(x)
	for e > 0 {
		if e&1 == 1 {
			acc.Mul(acc, base)
		}
		e >>= 1
		if e > 0 {
			base.Mul(base, base)
		}
	}
	if inv {
		acc.Quo(ctx.newFloat().SetInt64(1), acc)
	}
	x.Set(acc)
}

// Eval is a shortcut to parse an expression and return its result using the
// default functions.
func Eval(src io.RuneScanner, opts ...ContextOption) (*big.Float, error) {
	ctx := NewContext(opts...)
	a, err := Parse(src)
	if err != nil {
		return nil, err
	}
	return ctx.Eval(a)
}

// EvalString is a shortcut to parse and evaluate a string expression.
func EvalString(src string, opts ...ContextOption) (*big.Float, error) {
	return Eval(strings.NewReader(src), opts...)
}

// Evaluate parses and evaluates the formula of a request with its variables.
// Variables with values shadow functions of the same name; unset variables
// are undefined.
func Evaluate(req Request, prec uint) (*big.Float, error) {
	if prec == 0 {
		prec = DefaultPrec
	}
	ctx := NewContext(Prec(prec))
	var bound []string
	for _, p := range req.Variables.Pairs() {
		f, ok := p.Value.Float64()
		if !ok {
			continue
		}
		if math.IsNaN(f) {
			return nil, DomainError{Func: p.Name, Reason: "variable " + strconv.Quote(p.Name) + " is not a number"}
		}
		ctx.Set(p.Name, new(big.Float).SetFloat64(f))
		bound = append(bound, p.Name)
	}
	e, err := ParseString(req.Formula, DisableFuncs(bound...))
	if err != nil {
		return nil, err
	}
	return ctx.Eval(e)
}

// Solve evaluates a request into a Result. Errors become error results with
// the error's message, and so do values that do not fit a float64.
func Solve(req Request, prec uint) Result {
	v, err := Evaluate(req, prec)
	if err != nil {
		return ErrorResult(err.Error())
	}
	f, _ := v.Float64()
	if math.IsInf(f, 0) {
		return ErrorResult(fmt.Sprintf("result is not finite: %.10g", v))
	}
	return NumberResult(f)
}

// NameError is an error from a lookup for a variable that is missing from the
// evaluation context or from a session's bindings.
type NameError struct {
	// Name is the name that was missing.
	Name string
}

func (err *NameError) Error() string {
	return "undefined variable: " + strconv.Quote(err.Name)
}

// IsNameError reports whether err is or wraps a *NameError.
func IsNameError(err error) bool {
	var ne *NameError
	return errors.As(err, &ne)
}
