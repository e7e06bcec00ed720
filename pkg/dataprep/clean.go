package dataprep

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/MarinaBorodkina/SPARK/pkg/frame"
)

// NullFilter drops rows holding a null in any of Cols, or in any column
// when Cols is empty.
type NullFilter struct {
	Cols []string
}

func (n *NullFilter) Transform(f *frame.Frame) (*frame.Frame, error) {
	return f.DropNulls(n.Cols...)
}

// SparseColumnDropper removes columns whose null ratio exceeds MaxNullFraction.
// Columns listed in Keep are never dropped.
type SparseColumnDropper struct {
	MaxNullFraction float64
	Keep            []string
	Logger          *zap.Logger
}

func (d *SparseColumnDropper) Transform(f *frame.Frame) (*frame.Frame, error) {
	if d.MaxNullFraction < 0 || d.MaxNullFraction > 1 {
		return nil, errors.Errorf("dataprep: null threshold %v outside [0, 1]", d.MaxNullFraction)
	}
	if f.Count() == 0 {
		return f, nil
	}
	keep := map[string]bool{}
	for _, k := range d.Keep {
		keep[k] = true
	}
	var drop []string
	for _, name := range f.Columns() {
		if keep[name] {
			continue
		}
		nulls, err := f.Nulls(name)
		if err != nil {
			return nil, err
		}
		missing := 0
		for _, isNull := range nulls {
			if isNull {
				missing++
			}
		}
		ratio := float64(missing) / float64(f.Count())
		if ratio > d.MaxNullFraction {
			if d.Logger != nil {
				d.Logger.Info("dropping sparse column", zap.String("column", name), zap.Float64("null_ratio", ratio))
			}
			drop = append(drop, name)
		}
	}
	return f.Drop(drop...), nil
}
