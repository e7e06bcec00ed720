package frame

import (
	"math"
	"strconv"
	"strings"

	"github.com/go-gota/gota/series"

	"github.com/MarinaBorodkina/SPARK/pkg/core"
)

// maxExactInt bounds Int cells: every integer up to 2^53 in magnitude is
// exact as a float64. Values outside the range become null.
const maxExactInt = 1 << 53

func intInRange(v float64) bool { return math.Abs(v) <= maxExactInt }

// column is the materialised form of a column used while evaluating
// expressions. Exactly one of num, str, vecs, toks is populated.
type column struct {
	typ   Type
	num   []float64 // Int, Float and Bool (1/0)
	str   []string
	vecs  []*core.Vector
	toks  [][]string
	null  []bool
	attrs []string
}

func (c *column) len() int { return len(c.null) }

func newColumn(typ Type, n int) *column {
	c := &column{typ: typ, null: make([]bool, n)}
	switch typ {
	case String:
		c.str = make([]string, n)
	case Vector:
		c.vecs = make([]*core.Vector, n)
	case Tokens:
		c.toks = make([][]string, n)
	default:
		c.num = make([]float64, n)
	}
	return c
}

// gota reads the string "NaN" as a missing element, so stored strings
// equal to it, or already starting with the marker, carry one leading
// marker byte.
const escapeMarker = "\x00"

func escapeString(s string) string {
	if s == "NaN" || strings.HasPrefix(s, escapeMarker) {
		return escapeMarker + s
	}
	return s
}

func unescapeString(s string) string { return strings.TrimPrefix(s, escapeMarker) }

// fromSeries reads a gota series. Elements gota reports as NaN are nulls.
// escaped is set for series this package stored itself.
func fromSeries(s series.Series, escaped bool) *column {
	typ := fromSeriesType(s.Type())
	c := &column{typ: typ, null: s.IsNaN()}
	if typ == String {
		c.str = s.Records()
		for i, isNull := range c.null {
			switch {
			case isNull:
				c.str[i] = ""
			case escaped:
				c.str[i] = unescapeString(c.str[i])
			}
		}
		return c
	}
	c.num = s.Float()
	if typ == Int {
		// float64 has already rounded the large ones, so check the text
		for i, rec := range s.Records() {
			if c.null[i] {
				continue
			}
			if v, err := strconv.ParseInt(rec, 10, 64); err != nil || v > maxExactInt || v < -maxExactInt {
				c.null[i] = true
			}
		}
	}
	return c
}

// toSeries converts a scalar column into a gota series. Values travel as
// their text form so that nulls can be written as gota's "NaN" marker for
// every element type. Strings are escaped unless plain is set.
func (c *column) toSeries(name string, plain bool) series.Series {
	vals := make([]string, c.len())
	for i := range vals {
		switch {
		case c.null[i]:
			vals[i] = "NaN"
		case c.typ == String && !plain:
			vals[i] = escapeString(c.str[i])
		default:
			vals[i] = c.format(i)
		}
	}
	return series.New(vals, c.typ.seriesType(), name)
}

// format renders cell i; nulls render as "null".
func (c *column) format(i int) string {
	if c.null[i] {
		return "null"
	}
	switch c.typ {
	case String:
		return c.str[i]
	case Int:
		return strconv.FormatInt(int64(c.num[i]), 10)
	case Bool:
		return strconv.FormatBool(c.num[i] != 0)
	case Float:
		return strconv.FormatFloat(c.num[i], 'g', -1, 64)
	case Vector:
		return c.vecs[i].String()
	case Tokens:
		s := "["
		for k, t := range c.toks[i] {
			if k > 0 {
				s += ", "
			}
			s += t
		}
		return s + "]"
	}
	return ""
}

// subset returns the rows listed in idx.
func (c *column) subset(idx []int) *column {
	out := &column{typ: c.typ, null: make([]bool, len(idx)), attrs: c.attrs}
	switch {
	case c.num != nil:
		out.num = make([]float64, len(idx))
	case c.str != nil:
		out.str = make([]string, len(idx))
	case c.vecs != nil:
		out.vecs = make([]*core.Vector, len(idx))
	case c.toks != nil:
		out.toks = make([][]string, len(idx))
	}
	for k, i := range idx {
		out.null[k] = c.null[i]
		switch {
		case c.num != nil:
			out.num[k] = c.num[i]
		case c.str != nil:
			out.str[k] = c.str[i]
		case c.vecs != nil:
			out.vecs[k] = c.vecs[i]
		case c.toks != nil:
			out.toks[k] = c.toks[i]
		}
	}
	return out
}

// Column is a named column handed to New.
type Column struct {
	name string
	c    *column
}

// Ints builds an integer column. Values beyond 2^53 in magnitude are
// nulls.
func Ints(name string, vals []int) Column {
	c := newColumn(Int, len(vals))
	for i, v := range vals {
		c.num[i] = float64(v)
		c.null[i] = !intInRange(c.num[i])
	}
	return Column{name: name, c: c}
}

// Floats builds a floating point column. NaN values are nulls.
func Floats(name string, vals []float64) Column {
	c := newColumn(Float, len(vals))
	for i, v := range vals {
		c.num[i] = v
		c.null[i] = math.IsNaN(v)
	}
	return Column{name: name, c: c}
}

func Strings(name string, vals []string) Column {
	c := newColumn(String, len(vals))
	copy(c.str, vals)
	return Column{name: name, c: c}
}

func Bools(name string, vals []bool) Column {
	c := newColumn(Bool, len(vals))
	for i, v := range vals {
		if v {
			c.num[i] = 1
		}
	}
	return Column{name: name, c: c}
}

// Vectors builds a vector column; nil entries are nulls.
func Vectors(name string, vals []*core.Vector) Column {
	c := newColumn(Vector, len(vals))
	for i, v := range vals {
		c.vecs[i] = v
		c.null[i] = v == nil
	}
	return Column{name: name, c: c}
}

// TokenLists builds a tokens column; nil entries are nulls.
func TokenLists(name string, vals [][]string) Column {
	c := newColumn(Tokens, len(vals))
	for i, v := range vals {
		c.toks[i] = v
		c.null[i] = v == nil
	}
	return Column{name: name, c: c}
}

// Nulls marks the rows flagged in mask as null.
func (col Column) Nulls(mask []bool) Column {
	for i, isNull := range mask {
		if i < col.c.len() && isNull {
			col.c.null[i] = true
		}
	}
	return col
}

// WithAttrs names the slots of a vector column.
func (col Column) WithAttrs(attrs []string) Column {
	col.c.attrs = attrs
	return col
}
