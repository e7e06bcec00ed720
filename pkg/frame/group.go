package frame

import (
	"math"

	"github.com/pkg/errors"
)

// AggFunc names an aggregate.
type AggFunc string

const (
	AggCount AggFunc = "count"
	AggSum   AggFunc = "sum"
	AggMean  AggFunc = "avg"
	AggMin   AggFunc = "min"
	AggMax   AggFunc = "max"
)

// Agg is one aggregate over a column. As overrides the output name.
type Agg struct {
	Fn  AggFunc
	Col string
	As  string
}

func Count() Agg          { return Agg{Fn: AggCount, As: "count"} }
func Sum(col string) Agg  { return Agg{Fn: AggSum, Col: col} }
func Mean(col string) Agg { return Agg{Fn: AggMean, Col: col} }
func Min(col string) Agg  { return Agg{Fn: AggMin, Col: col} }
func Max(col string) Agg  { return Agg{Fn: AggMax, Col: col} }

// Alias renames the aggregate's output column.
func (a Agg) Alias(name string) Agg { a.As = name; return a }

func (a Agg) name() string {
	if a.As != "" {
		return a.As
	}
	return string(a.Fn) + "(" + a.Col + ")"
}

// Grouped is a frame partitioned by key columns.
type Grouped struct {
	f    *Frame
	keys []string
}

// GroupBy partitions rows by the key columns. With no keys the whole frame
// forms one group.
func (f *Frame) GroupBy(keys ...string) *Grouped { return &Grouped{f: f, keys: keys} }

// Agg computes the aggregates per group. Groups appear in the order their
// first row appears. Nulls are skipped; a group with no non-null values
// yields null.
func (g *Grouped) Agg(aggs ...Agg) (*Frame, error) {
	f := g.f
	keys, err := f.rowKeys(g.keys)
	if err != nil {
		return nil, err
	}
	var first []int
	members := map[string][]int{}
	order := []string{}
	for i, k := range keys {
		if _, ok := members[k]; !ok {
			order = append(order, k)
			first = append(first, i)
		}
		members[k] = append(members[k], i)
	}
	if len(g.keys) == 0 && f.n == 0 {
		order, first = []string{""}, nil
	}

	out, err := f.Select(g.keys...)
	if err != nil {
		return nil, err
	}
	if out, err = out.Subset(first); err != nil {
		return nil, err
	}
	out.n = len(order)

	for _, a := range aggs {
		col, err := g.aggregate(a, order, members)
		if err != nil {
			return nil, err
		}
		if out.Has(a.name()) {
			return nil, errors.Errorf("frame: duplicate aggregate column %q", a.name())
		}
		out.put(a.name(), col)
	}
	return out, nil
}

func (g *Grouped) aggregate(a Agg, order []string, members map[string][]int) (*column, error) {
	if a.Fn == AggCount {
		c := newColumn(Int, len(order))
		for k, key := range order {
			c.num[k] = float64(len(members[key]))
		}
		return c, nil
	}
	src, err := g.f.col(a.Col)
	if err != nil {
		return nil, err
	}
	switch {
	case src.typ == String && (a.Fn == AggMin || a.Fn == AggMax):
		return stringExtreme(src, a.Fn, order, members), nil
	case !src.typ.Numeric():
		return nil, errors.Errorf("frame: cannot %s %s column %q", a.Fn, src.typ, a.Col)
	}

	t := Float
	if src.typ == Int && a.Fn != AggMean {
		t = Int
	}
	c := newColumn(t, len(order))
	for k, key := range order {
		var acc float64
		n := 0
		for _, i := range members[key] {
			if src.null[i] {
				continue
			}
			v := src.num[i]
			switch {
			case n == 0 && (a.Fn == AggMin || a.Fn == AggMax):
				acc = v
			case a.Fn == AggMin:
				acc = math.Min(acc, v)
			case a.Fn == AggMax:
				acc = math.Max(acc, v)
			default:
				acc += v
			}
			n++
		}
		if n == 0 || (t == Int && !intInRange(acc)) {
			c.null[k] = true
			continue
		}
		if a.Fn == AggMean {
			acc /= float64(n)
		}
		c.num[k] = acc
	}
	return c, nil
}

func stringExtreme(src *column, fn AggFunc, order []string, members map[string][]int) *column {
	c := newColumn(String, len(order))
	for k, key := range order {
		found := false
		for _, i := range members[key] {
			if src.null[i] {
				continue
			}
			s := src.str[i]
			if !found || (fn == AggMin && s < c.str[k]) || (fn == AggMax && s > c.str[k]) {
				c.str[k] = s
				found = true
			}
		}
		c.null[k] = !found
	}
	return c
}
