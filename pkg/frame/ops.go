package frame

import (
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// Filter keeps the rows where cond is true. Null conditions drop the row.
func (f *Frame) Filter(cond Expr) (*Frame, error) {
	c, err := cond.eval(f)
	if err != nil {
		return nil, errors.Wrap(err, "frame: filter")
	}
	if c.typ != Bool {
		return nil, errors.Errorf("frame: filter condition %s is %s, not bool", cond, c.typ)
	}
	keep := make([]int, 0, f.n)
	for i := range c.num {
		if !c.null[i] && c.num[i] == 1 {
			keep = append(keep, i)
		}
	}
	return f.Subset(keep)
}

// DropNulls removes every row holding a null in any of cols, or in any
// column at all when cols is empty.
func (f *Frame) DropNulls(cols ...string) (*Frame, error) {
	if len(cols) == 0 {
		cols = f.Columns()
	}
	drop := make([]bool, f.n)
	for _, name := range cols {
		nulls, err := f.Nulls(name)
		if err != nil {
			return nil, err
		}
		for i, isNull := range nulls {
			drop[i] = drop[i] || isNull
		}
	}
	keep := make([]int, 0, f.n)
	for i, d := range drop {
		if !d {
			keep = append(keep, i)
		}
	}
	return f.Subset(keep)
}

// DropDuplicates keeps the first row of every distinct combination of cols
// (all columns when empty).
func (f *Frame) DropDuplicates(cols ...string) (*Frame, error) {
	if len(cols) == 0 {
		cols = f.Columns()
	}
	keys, err := f.rowKeys(cols)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, f.n)
	keep := make([]int, 0, f.n)
	for i, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		keep = append(keep, i)
	}
	return f.Subset(keep)
}

// rowKeys renders the given columns of every row as one comparable string.
func (f *Frame) rowKeys(cols []string) ([]string, error) {
	parts := make([][]string, len(cols))
	for k, name := range cols {
		c, err := f.col(name)
		if err != nil {
			return nil, err
		}
		parts[k] = make([]string, f.n)
		for i := range parts[k] {
			parts[k][i] = c.format(i)
			if c.null[i] {
				parts[k][i] = "\x00"
			}
		}
	}
	keys := make([]string, f.n)
	row := make([]string, len(cols))
	for i := range keys {
		for k := range cols {
			row[k] = parts[k][i]
		}
		keys[i] = strings.Join(row, "\x1f")
	}
	return keys, nil
}

// SortKey orders rows by one column.
type SortKey struct {
	Col  string
	Desc bool
}

func Asc(col string) SortKey  { return SortKey{Col: col} }
func Desc(col string) SortKey { return SortKey{Col: col, Desc: true} }

// Sort orders rows by the keys; ties keep their input order and nulls sort
// last in either direction.
func (f *Frame) Sort(keys ...SortKey) (*Frame, error) {
	cols := make([]*column, len(keys))
	for k, key := range keys {
		c, err := f.col(key.Col)
		if err != nil {
			return nil, err
		}
		if !c.typ.scalar() {
			return nil, errors.Errorf("frame: cannot sort by %s column %q", c.typ, key.Col)
		}
		cols[k] = c
	}
	idx := seq(f.n)
	sort.SliceStable(idx, func(x, y int) bool {
		a, b := idx[x], idx[y]
		for k, c := range cols {
			if c.null[a] != c.null[b] {
				return c.null[b]
			}
			if c.null[a] {
				continue
			}
			var r int
			if c.typ == String {
				r = strings.Compare(c.str[a], c.str[b])
			} else {
				r = compareFloat(c.num[a], c.num[b])
			}
			if keys[k].Desc {
				r = -r
			}
			if r != 0 {
				return r < 0
			}
		}
		return false
	})
	return f.Subset(idx)
}
