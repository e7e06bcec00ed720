// Package frame implements an immutable, column-typed tabular dataset.
//
// Scalar columns are held as gota series; vector and token columns, which gota
// cannot represent, are held alongside them. Every operation returns a new
// Frame and leaves its receiver untouched.
package frame

import (
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/pkg/errors"

	"github.com/MarinaBorodkina/SPARK/pkg/core"
)

// ErrNoColumn is returned when a referenced column does not exist.
var ErrNoColumn = errors.New("frame: no such column")

// Frame is an ordered collection of typed rows.
type Frame struct {
	n      int
	fields []Field
	scalar map[string]series.Series
	lists  map[string]*column
}

func empty(n int) *Frame {
	return &Frame{n: n, scalar: map[string]series.Series{}, lists: map[string]*column{}}
}

// New assembles a frame from equal-length columns.
func New(cols ...Column) (*Frame, error) {
	if len(cols) == 0 {
		return empty(0), nil
	}
	f := empty(cols[0].c.len())
	for _, col := range cols {
		if col.c.len() != f.n {
			return nil, errors.Errorf("frame: column %q has %d rows, want %d", col.name, col.c.len(), f.n)
		}
		if f.Has(col.name) {
			return nil, errors.Errorf("frame: duplicate column %q", col.name)
		}
		f.put(col.name, col.c)
	}
	return f, nil
}

// FromDataFrame wraps a gota DataFrame.
func FromDataFrame(df dataframe.DataFrame) (*Frame, error) {
	return fromDataFrame(df, false)
}

func fromDataFrame(df dataframe.DataFrame, escaped bool) (*Frame, error) {
	if df.Err != nil {
		return nil, errors.Wrap(df.Err, "frame: dataframe")
	}
	f := empty(df.Nrow())
	for _, name := range df.Names() {
		s := df.Col(name)
		if s.Err != nil {
			return nil, errors.Wrapf(s.Err, "frame: column %q", name)
		}
		if escaped || s.Type() != series.String {
			f.fields = append(f.fields, Field{Name: name, Type: fromSeriesType(s.Type())})
			f.scalar[name] = s
			continue
		}
		f.put(name, fromSeries(s, false))
	}
	return f, nil
}

// clone returns a shallow copy; columns themselves are shared read-only.
func (f *Frame) clone() *Frame {
	g := empty(f.n)
	g.fields = make([]Field, len(f.fields))
	copy(g.fields, f.fields)
	for k, v := range f.scalar {
		g.scalar[k] = v
	}
	for k, v := range f.lists {
		g.lists[k] = v
	}
	return g
}

// put stores c under name, replacing any column of that name in place.
func (f *Frame) put(name string, c *column) {
	field := Field{Name: name, Type: c.typ, Attrs: c.attrs}
	if i := f.index(name); i >= 0 {
		f.fields[i] = field
	} else {
		f.fields = append(f.fields, field)
	}
	delete(f.scalar, name)
	delete(f.lists, name)
	if c.typ.scalar() {
		f.scalar[name] = c.toSeries(name, false)
	} else {
		f.lists[name] = c
	}
}

func (f *Frame) index(name string) int {
	for i, fl := range f.fields {
		if fl.Name == name {
			return i
		}
	}
	return -1
}

// col materialises the named column.
func (f *Frame) col(name string) (*column, error) {
	if c, ok := f.lists[name]; ok {
		return c, nil
	}
	s, ok := f.scalar[name]
	if !ok {
		return nil, errors.Wrapf(ErrNoColumn, "%q", name)
	}
	c := fromSeries(s, true)
	// The field type wins over gota's view; Bool and Int both read as floats.
	c.typ = f.fields[f.index(name)].Type
	return c, nil
}

// Count returns the number of rows.
func (f *Frame) Count() int { return f.n }

func (f *Frame) Schema() Schema {
	fields := make([]Field, len(f.fields))
	copy(fields, f.fields)
	return Schema{Fields: fields}
}

// Columns returns the column names in order.
func (f *Frame) Columns() []string { return f.Schema().Names() }

func (f *Frame) Has(name string) bool { return f.index(name) >= 0 }

// TypeOf returns the type of the named column.
func (f *Frame) TypeOf(name string) (Type, error) {
	i := f.index(name)
	if i < 0 {
		return "", errors.Wrapf(ErrNoColumn, "%q", name)
	}
	return f.fields[i].Type, nil
}

// Attrs returns the slot names recorded for a vector column.
func (f *Frame) Attrs(name string) []string {
	if i := f.index(name); i >= 0 {
		return f.fields[i].Attrs
	}
	return nil
}

// Floats returns the values of a numeric column and its null mask.
func (f *Frame) Floats(name string) ([]float64, []bool, error) {
	c, err := f.col(name)
	if err != nil {
		return nil, nil, err
	}
	if !c.typ.Numeric() {
		return nil, nil, errors.Errorf("frame: column %q is %s, not numeric", name, c.typ)
	}
	return c.num, c.null, nil
}

// Strings returns the text form of a scalar column and its null mask.
func (f *Frame) Strings(name string) ([]string, []bool, error) {
	c, err := f.col(name)
	if err != nil {
		return nil, nil, err
	}
	if c.typ == String {
		return c.str, c.null, nil
	}
	out := make([]string, c.len())
	for i := range out {
		if !c.null[i] {
			out[i] = c.format(i)
		}
	}
	return out, c.null, nil
}

// Vectors returns a vector column; nulls are nil.
func (f *Frame) Vectors(name string) ([]*core.Vector, error) {
	c, err := f.col(name)
	if err != nil {
		return nil, err
	}
	if c.typ != Vector {
		return nil, errors.Errorf("frame: column %q is %s, not vector", name, c.typ)
	}
	return c.vecs, nil
}

// Tokens returns a tokens column; nulls are nil.
func (f *Frame) Tokens(name string) ([][]string, error) {
	c, err := f.col(name)
	if err != nil {
		return nil, err
	}
	if c.typ != Tokens {
		return nil, errors.Errorf("frame: column %q is %s, not tokens", name, c.typ)
	}
	return c.toks, nil
}

// Nulls returns the null mask of a column.
func (f *Frame) Nulls(name string) ([]bool, error) {
	c, err := f.col(name)
	if err != nil {
		return nil, err
	}
	return c.null, nil
}

// Select keeps the named columns in the given order.
func (f *Frame) Select(names ...string) (*Frame, error) {
	g := empty(f.n)
	for _, name := range names {
		i := f.index(name)
		if i < 0 {
			return nil, errors.Wrapf(ErrNoColumn, "%q", name)
		}
		if g.Has(name) {
			return nil, errors.Errorf("frame: column %q selected twice", name)
		}
		g.fields = append(g.fields, f.fields[i])
		if s, ok := f.scalar[name]; ok {
			g.scalar[name] = s
		} else {
			g.lists[name] = f.lists[name]
		}
	}
	return g, nil
}

// Drop removes the named columns. Unknown names are ignored, as in Spark.
func (f *Frame) Drop(names ...string) *Frame {
	g := f.clone()
	for _, name := range names {
		i := g.index(name)
		if i < 0 {
			continue
		}
		g.fields = append(g.fields[:i], g.fields[i+1:]...)
		delete(g.scalar, name)
		delete(g.lists, name)
	}
	return g
}

// Rename changes a column name, keeping its position.
func (f *Frame) Rename(oldName, newName string) (*Frame, error) {
	i := f.index(oldName)
	if i < 0 {
		return nil, errors.Wrapf(ErrNoColumn, "%q", oldName)
	}
	if oldName == newName {
		return f, nil
	}
	if f.Has(newName) {
		return nil, errors.Errorf("frame: column %q already exists", newName)
	}
	g := f.clone()
	g.fields[i].Name = newName
	if s, ok := g.scalar[oldName]; ok {
		s = s.Copy()
		s.Name = newName
		g.scalar[newName] = s
		delete(g.scalar, oldName)
	} else {
		g.lists[newName] = g.lists[oldName]
		delete(g.lists, oldName)
	}
	return g, nil
}

// WithColumn adds or replaces a column computed from e.
func (f *Frame) WithColumn(name string, e Expr) (*Frame, error) {
	c, err := e.eval(f)
	if err != nil {
		return nil, errors.Wrapf(err, "frame: column %q", name)
	}
	g := f.clone()
	g.put(name, c)
	return g, nil
}

// WithVectors adds or replaces a vector column. attrs may be nil.
func (f *Frame) WithVectors(name string, attrs []string, vals []*core.Vector) (*Frame, error) {
	return f.withColumn(Vectors(name, vals).WithAttrs(attrs))
}

// WithTokens adds or replaces a tokens column.
func (f *Frame) WithTokens(name string, vals [][]string) (*Frame, error) {
	return f.withColumn(TokenLists(name, vals))
}

// WithFloats adds or replaces a float column; NaN values and flagged rows are null.
func (f *Frame) WithFloats(name string, vals []float64, nulls []bool) (*Frame, error) {
	return f.withColumn(Floats(name, vals).Nulls(nulls))
}

// WithStrings adds or replaces a string column; flagged rows are null.
func (f *Frame) WithStrings(name string, vals []string, nulls []bool) (*Frame, error) {
	return f.withColumn(Strings(name, vals).Nulls(nulls))
}

func (f *Frame) withColumn(col Column) (*Frame, error) {
	if col.c.len() != f.n {
		return nil, errors.Errorf("frame: column %q has %d rows, want %d", col.name, col.c.len(), f.n)
	}
	g := f.clone()
	g.put(col.name, col.c)
	return g, nil
}

// Subset returns the rows listed in rows, in that order.
func (f *Frame) Subset(rows []int) (*Frame, error) {
	for _, r := range rows {
		if r < 0 || r >= f.n {
			return nil, errors.Errorf("frame: row %d out of range [0,%d)", r, f.n)
		}
	}
	g := empty(len(rows))
	g.fields = make([]Field, len(f.fields))
	copy(g.fields, f.fields)
	for name, s := range f.scalar {
		g.scalar[name] = s.Subset(rows)
	}
	for name, c := range f.lists {
		g.lists[name] = c.subset(rows)
	}
	return g, nil
}

// Take returns the first n rows.
func (f *Frame) Take(n int) *Frame {
	if n > f.n {
		n = f.n
	}
	if n < 0 {
		n = 0
	}
	g, _ := f.Subset(seq(n))
	return g
}

// Cast retypes a scalar column. Cells that cannot be converted become null.
func (f *Frame) Cast(name string, t Type) (*Frame, error) {
	return f.WithColumn(name, Col(name).Cast(t))
}

func seq(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

// Concat stacks frames with identical schemas.
func Concat(frames ...*Frame) (*Frame, error) {
	if len(frames) == 0 {
		return empty(0), nil
	}
	first := frames[0]
	cols := make([]Column, 0, len(first.fields))
	for _, fl := range first.fields {
		var parts []*column
		for _, g := range frames {
			c, err := g.col(fl.Name)
			if err != nil {
				return nil, err
			}
			if c.typ != fl.Type {
				return nil, errors.Errorf("frame: column %q is %s in one frame and %s in another", fl.Name, fl.Type, c.typ)
			}
			parts = append(parts, c)
		}
		cols = append(cols, Column{name: fl.Name, c: appendColumns(fl, parts)})
	}
	return New(cols...)
}

func appendColumns(fl Field, parts []*column) *column {
	out := &column{typ: fl.Type, attrs: fl.Attrs}
	for _, p := range parts {
		out.null = append(out.null, p.null...)
		switch fl.Type {
		case String:
			out.str = append(out.str, p.str...)
		case Vector:
			out.vecs = append(out.vecs, p.vecs...)
		case Tokens:
			out.toks = append(out.toks, p.toks...)
		default:
			out.num = append(out.num, p.num...)
		}
	}
	if out.null == nil {
		return newColumn(fl.Type, 0)
	}
	return out
}
