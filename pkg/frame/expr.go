package frame

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Expr is a column expression evaluated against a whole frame at once.
// Nulls propagate through every operator except IsNull/IsNotNull and the
// short-circuiting cases of And/Or.
type Expr struct {
	name string
	eval func(f *Frame) (*column, error)
}

func (e Expr) String() string { return e.name }

// Col references an existing column.
func Col(name string) Expr {
	return Expr{name: name, eval: func(f *Frame) (*column, error) { return f.col(name) }}
}

// Lit is a constant broadcast to every row. Supported values are int,
// int64, float64, string, bool and nil (a null float).
func Lit(v any) Expr {
	return Expr{name: fmt.Sprint(v), eval: func(f *Frame) (*column, error) {
		var c *column
		switch x := v.(type) {
		case nil:
			c = newColumn(Float, f.n)
			for i := range c.null {
				c.null[i] = true
			}
		case int:
			c = fill(Int, f.n, float64(x))
		case int64:
			c = fill(Int, f.n, float64(x))
		case float64:
			c = fill(Float, f.n, x)
		case bool:
			b := 0.0
			if x {
				b = 1
			}
			c = fill(Bool, f.n, b)
		case string:
			c = newColumn(String, f.n)
			for i := range c.str {
				c.str[i] = x
			}
		default:
			return nil, errors.Errorf("frame: unsupported literal %T", v)
		}
		return c, nil
	}}
}

func fill(t Type, n int, x float64) *column {
	c := newColumn(t, n)
	for i := range c.num {
		c.num[i] = x
	}
	return c
}

func numeric(c *column, e Expr) error {
	if !c.typ.Numeric() {
		return errors.Errorf("frame: %s is %s, not numeric", e, c.typ)
	}
	return nil
}

type arith func(a, b float64) (float64, bool)

func (e Expr) arithmetic(op string, o Expr, fn arith, alwaysFloat bool) Expr {
	return Expr{name: "(" + e.name + " " + op + " " + o.name + ")", eval: func(f *Frame) (*column, error) {
		a, err := e.eval(f)
		if err != nil {
			return nil, err
		}
		b, err := o.eval(f)
		if err != nil {
			return nil, err
		}
		if err := numeric(a, e); err != nil {
			return nil, err
		}
		if err := numeric(b, o); err != nil {
			return nil, err
		}
		t := Float
		if !alwaysFloat && a.typ == Int && b.typ == Int {
			t = Int
		}
		out := newColumn(t, f.n)
		for i := range out.num {
			if a.null[i] || b.null[i] {
				out.null[i] = true
				continue
			}
			v, ok := fn(a.num[i], b.num[i])
			if !ok || math.IsNaN(v) || (t == Int && !intInRange(v)) {
				out.null[i] = true
				continue
			}
			out.num[i] = v
		}
		return out, nil
	}}
}

func (e Expr) Add(o Expr) Expr {
	return e.arithmetic("+", o, func(a, b float64) (float64, bool) { return a + b, true }, false)
}

func (e Expr) Sub(o Expr) Expr {
	return e.arithmetic("-", o, func(a, b float64) (float64, bool) { return a - b, true }, false)
}

func (e Expr) Mul(o Expr) Expr {
	return e.arithmetic("*", o, func(a, b float64) (float64, bool) { return a * b, true }, false)
}

// Div always yields a float. A zero divisor yields null.
func (e Expr) Div(o Expr) Expr {
	return e.arithmetic("/", o, func(a, b float64) (float64, bool) {
		if b == 0 {
			return 0, false
		}
		return a / b, true
	}, true)
}

type cmp func(c int) bool

func (e Expr) compare(op string, o Expr, fn cmp) Expr {
	return Expr{name: "(" + e.name + " " + op + " " + o.name + ")", eval: func(f *Frame) (*column, error) {
		a, err := e.eval(f)
		if err != nil {
			return nil, err
		}
		b, err := o.eval(f)
		if err != nil {
			return nil, err
		}
		strs := a.typ == String && b.typ == String
		if !strs && !(a.typ.Numeric() && b.typ.Numeric()) {
			return nil, errors.Errorf("frame: cannot compare %s (%s) with %s (%s)", e, a.typ, o, b.typ)
		}
		out := newColumn(Bool, f.n)
		for i := range out.num {
			if a.null[i] || b.null[i] {
				out.null[i] = true
				continue
			}
			var c int
			if strs {
				c = strings.Compare(a.str[i], b.str[i])
			} else {
				c = compareFloat(a.num[i], b.num[i])
			}
			if fn(c) {
				out.num[i] = 1
			}
		}
		return out, nil
	}}
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func (e Expr) Gt(o Expr) Expr { return e.compare(">", o, func(c int) bool { return c > 0 }) }
func (e Expr) Ge(o Expr) Expr { return e.compare(">=", o, func(c int) bool { return c >= 0 }) }
func (e Expr) Lt(o Expr) Expr { return e.compare("<", o, func(c int) bool { return c < 0 }) }
func (e Expr) Le(o Expr) Expr { return e.compare("<=", o, func(c int) bool { return c <= 0 }) }
func (e Expr) Eq(o Expr) Expr { return e.compare("=", o, func(c int) bool { return c == 0 }) }
func (e Expr) Ne(o Expr) Expr { return e.compare("!=", o, func(c int) bool { return c != 0 }) }

func boolean(c *column, e Expr) error {
	if c.typ != Bool {
		return errors.Errorf("frame: %s is %s, not bool", e, c.typ)
	}
	return nil
}

// And follows SQL three-valued logic: false AND null is false.
func (e Expr) And(o Expr) Expr { return e.logic("AND", o, true) }

// Or follows SQL three-valued logic: true OR null is true.
func (e Expr) Or(o Expr) Expr { return e.logic("OR", o, false) }

func (e Expr) logic(op string, o Expr, and bool) Expr {
	return Expr{name: "(" + e.name + " " + op + " " + o.name + ")", eval: func(f *Frame) (*column, error) {
		a, err := e.eval(f)
		if err != nil {
			return nil, err
		}
		b, err := o.eval(f)
		if err != nil {
			return nil, err
		}
		if err := boolean(a, e); err != nil {
			return nil, err
		}
		if err := boolean(b, o); err != nil {
			return nil, err
		}
		// dominant is the value that decides the result on its own.
		dominant := 1.0
		if and {
			dominant = 0
		}
		out := newColumn(Bool, f.n)
		for i := range out.num {
			switch {
			case !a.null[i] && a.num[i] == dominant, !b.null[i] && b.num[i] == dominant:
				out.num[i] = dominant
			case a.null[i] || b.null[i]:
				out.null[i] = true
			default:
				out.num[i] = 1 - dominant
			}
		}
		return out, nil
	}}
}

func (e Expr) Not() Expr {
	return Expr{name: "(NOT " + e.name + ")", eval: func(f *Frame) (*column, error) {
		a, err := e.eval(f)
		if err != nil {
			return nil, err
		}
		if err := boolean(a, e); err != nil {
			return nil, err
		}
		out := newColumn(Bool, f.n)
		for i := range out.num {
			out.null[i] = a.null[i]
			out.num[i] = 1 - a.num[i]
		}
		return out, nil
	}}
}

func (e Expr) IsNull() Expr    { return e.nullCheck("IS NULL", true) }
func (e Expr) IsNotNull() Expr { return e.nullCheck("IS NOT NULL", false) }

func (e Expr) nullCheck(op string, want bool) Expr {
	return Expr{name: "(" + e.name + " " + op + ")", eval: func(f *Frame) (*column, error) {
		a, err := e.eval(f)
		if err != nil {
			return nil, err
		}
		out := newColumn(Bool, f.n)
		for i := range out.num {
			if a.null[i] == want {
				out.num[i] = 1
			}
		}
		return out, nil
	}}
}

// Round rounds half away from zero to the given number of decimal places.
func (e Expr) Round(digits int) Expr {
	return Expr{name: fmt.Sprintf("round(%s, %d)", e.name, digits), eval: func(f *Frame) (*column, error) {
		a, err := e.eval(f)
		if err != nil {
			return nil, err
		}
		if err := numeric(a, e); err != nil {
			return nil, err
		}
		out := newColumn(a.typ, f.n)
		p := math.Pow(10, float64(digits))
		for i := range out.num {
			out.null[i] = a.null[i]
			out.num[i] = math.Round(a.num[i]*p) / p
		}
		return out, nil
	}}
}

func (e Expr) Lower() Expr {
	return e.stringFunc("lower", strings.ToLower)
}

// RegexpReplace replaces every match of pattern. An invalid pattern fails
// evaluation.
func (e Expr) RegexpReplace(pattern, repl string) Expr {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return Expr{name: "regexp_replace", eval: func(*Frame) (*column, error) {
			return nil, errors.Wrapf(err, "frame: regexp %q", pattern)
		}}
	}
	return e.stringFunc("regexp_replace", func(s string) string { return re.ReplaceAllString(s, repl) })
}

func (e Expr) stringFunc(name string, fn func(string) string) Expr {
	return Expr{name: name + "(" + e.name + ")", eval: func(f *Frame) (*column, error) {
		a, err := e.eval(f)
		if err != nil {
			return nil, err
		}
		if a.typ != String {
			return nil, errors.Errorf("frame: %s is %s, not string", e, a.typ)
		}
		out := newColumn(String, f.n)
		for i := range out.str {
			out.null[i] = a.null[i]
			if !a.null[i] {
				out.str[i] = fn(a.str[i])
			}
		}
		return out, nil
	}}
}

// Cast converts to t. Cells that cannot be converted become null.
func (e Expr) Cast(t Type) Expr {
	return Expr{name: "CAST(" + e.name + " AS " + t.sqlName() + ")", eval: func(f *Frame) (*column, error) {
		a, err := e.eval(f)
		if err != nil {
			return nil, err
		}
		return castColumn(a, t)
	}}
}

func castColumn(a *column, t Type) (*column, error) {
	if a.typ == t {
		return a, nil
	}
	if !t.scalar() {
		return nil, errors.Errorf("frame: cannot cast %s to %s", a.typ, t)
	}
	if a.typ == Tokens || (a.typ == Vector && t != String) {
		return nil, errors.Errorf("frame: cannot cast %s to %s", a.typ, t)
	}
	n := a.len()
	out := newColumn(t, n)
	for i := 0; i < n; i++ {
		if a.null[i] {
			out.null[i] = true
			continue
		}
		if t == String {
			out.str[i] = a.format(i)
			continue
		}
		var (
			v  float64
			ok bool
		)
		if a.typ == String {
			v, ok = parseCell(a.str[i], t)
		} else {
			v, ok = a.num[i], true
		}
		switch {
		case !ok, math.IsNaN(v), math.IsInf(v, 0) && t != Float:
			out.null[i] = true
		case t == Int && !intInRange(math.Trunc(v)):
			out.null[i] = true
		case t == Int:
			out.num[i] = math.Trunc(v)
		case t == Bool:
			if v != 0 {
				out.num[i] = 1
			}
		default:
			out.num[i] = v
		}
	}
	return out, nil
}

func parseCell(s string, t Type) (float64, bool) {
	s = strings.TrimSpace(s)
	if t == Bool {
		switch strings.ToLower(s) {
		case "true", "t", "yes", "y", "1":
			return 1, true
		case "false", "f", "no", "n", "0":
			return 0, true
		}
		return 0, false
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		if t == Int && (i > maxExactInt || i < -maxExactInt) {
			return 0, false
		}
		return float64(i), true
	}
	v, err := strconv.ParseFloat(s, 64)
	return v, err == nil
}

// When starts a conditional expression; finish it with Otherwise.
func When(cond, then Expr) *CaseExpr {
	return &CaseExpr{branches: []caseBranch{{cond, then}}}
}

type caseBranch struct{ cond, then Expr }

// CaseExpr is a chain of When branches.
type CaseExpr struct {
	branches []caseBranch
}

func (c *CaseExpr) When(cond, then Expr) *CaseExpr {
	c.branches = append(c.branches, caseBranch{cond, then})
	return c
}

// Otherwise closes the chain. Rows matching no branch take else.
func (c *CaseExpr) Otherwise(els Expr) Expr {
	branches := append([]caseBranch(nil), c.branches...)
	name := "CASE"
	for _, b := range branches {
		name += " WHEN " + b.cond.name + " THEN " + b.then.name
	}
	name += " ELSE " + els.name + " END"
	return Expr{name: name, eval: func(f *Frame) (*column, error) {
		conds := make([]*column, len(branches))
		vals := make([]*column, len(branches)+1)
		for k, b := range branches {
			cc, err := b.cond.eval(f)
			if err != nil {
				return nil, err
			}
			if err := boolean(cc, b.cond); err != nil {
				return nil, err
			}
			conds[k] = cc
			if vals[k], err = b.then.eval(f); err != nil {
				return nil, err
			}
		}
		var err error
		if vals[len(branches)], err = els.eval(f); err != nil {
			return nil, err
		}
		t, err := unify(vals)
		if err != nil {
			return nil, errors.Wrap(err, name)
		}
		for k := range vals {
			if vals[k], err = castColumn(vals[k], t); err != nil {
				return nil, err
			}
		}
		out := newColumn(t, f.n)
		for i := 0; i < f.n; i++ {
			pick := vals[len(branches)]
			for k, cc := range conds {
				if !cc.null[i] && cc.num[i] == 1 {
					pick = vals[k]
					break
				}
			}
			out.null[i] = pick.null[i]
			if t == String {
				out.str[i] = pick.str[i]
			} else {
				out.num[i] = pick.num[i]
			}
		}
		return out, nil
	}}
}

// unify picks the result type of a CASE. All-null columns take any type;
// mixing Int and Float gives Float.
func unify(cols []*column) (Type, error) {
	var t Type
	for _, c := range cols {
		if allNull(c) {
			continue
		}
		switch {
		case t == "":
			t = c.typ
		case t == c.typ:
		case t.Numeric() && c.typ.Numeric() && t != Bool && c.typ != Bool:
			t = Float
		default:
			return "", errors.Errorf("frame: mixed branch types %s and %s", t, c.typ)
		}
	}
	if t == "" {
		t = Float
	}
	if !t.scalar() {
		return "", errors.Errorf("frame: %s branches are not supported", t)
	}
	return t, nil
}

func allNull(c *column) bool {
	for _, isNull := range c.null {
		if !isNull {
			return false
		}
	}
	return true
}
