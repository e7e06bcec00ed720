package frame

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/MarinaBorodkina/SPARK/pkg/stats"
)

const truncateAt = 20

// Show writes the first n rows as a table, truncating long cells like
// Spark's show().
func (f *Frame) Show(w io.Writer, n int) error {
	cols := make([]*column, len(f.fields))
	header := make(table.Row, len(f.fields))
	for k, fl := range f.fields {
		c, err := f.col(fl.Name)
		if err != nil {
			return err
		}
		cols[k] = c
		header[k] = fl.Name
	}
	t := table.NewWriter()
	t.AppendHeader(header)
	shown := n
	if shown > f.n {
		shown = f.n
	}
	for i := 0; i < shown; i++ {
		row := make(table.Row, len(cols))
		for k, c := range cols {
			row[k] = truncate(c.format(i))
		}
		t.AppendRow(row)
	}
	if _, err := fmt.Fprintln(w, t.Render()); err != nil {
		return err
	}
	if f.n > shown {
		_, err := fmt.Fprintf(w, "only showing top %d rows\n", shown)
		return err
	}
	return nil
}

func truncate(s string) string {
	r := []rune(s)
	if len(r) <= truncateAt {
		return s
	}
	return string(r[:truncateAt-3]) + "..."
}

// Describe summarises numeric columns (all of them when cols is empty) with
// count, mean, stddev, min and max rows.
func (f *Frame) Describe(cols ...string) (*Frame, error) {
	if len(cols) == 0 {
		for _, fl := range f.fields {
			if fl.Type == Int || fl.Type == Float {
				cols = append(cols, fl.Name)
			}
		}
	}
	out := []Column{Strings("summary", []string{"count", "mean", "stddev", "min", "max"})}
	for _, name := range cols {
		vals, nulls, err := f.Floats(name)
		if err != nil {
			return nil, err
		}
		present := make([]float64, 0, len(vals))
		for i, v := range vals {
			if !nulls[i] {
				present = append(present, v)
			}
		}
		s := stats.Summarize(present)
		out = append(out, Floats(name, []float64{float64(s.Count), s.Mean, s.StdDev, s.Min, s.Max}))
	}
	return New(out...)
}
