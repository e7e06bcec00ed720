package frame

import (
	"io"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/pkg/errors"
)

// JoinType selects the join semantics.
type JoinType string

const (
	Inner JoinType = "inner"
	Left  JoinType = "left"
	Outer JoinType = "outer"
)

// DataFrame exports the scalar columns as a gota DataFrame. gota has no
// way to hold the string "NaN", so such cells export as missing.
func (f *Frame) DataFrame() (dataframe.DataFrame, error) {
	return f.dataFrame(true)
}

// dataFrame builds the gota form; unless plain is set, string cells stay
// in their stored escaped form.
func (f *Frame) dataFrame(plain bool) (dataframe.DataFrame, error) {
	var cols []series.Series
	for _, fl := range f.fields {
		if !fl.Type.scalar() {
			return dataframe.DataFrame{}, errors.Errorf("frame: column %q is %s and has no dataframe form", fl.Name, fl.Type)
		}
		s := f.scalar[fl.Name]
		if plain && fl.Type == String {
			c, err := f.col(fl.Name)
			if err != nil {
				return dataframe.DataFrame{}, err
			}
			s = c.toSeries(fl.Name, true)
		}
		cols = append(cols, s)
	}
	if len(cols) == 0 {
		return dataframe.DataFrame{}, errors.New("frame: no columns")
	}
	df := dataframe.New(cols...)
	return df, df.Err
}

// Join combines two frames on equally named key columns. Only scalar
// columns take part; non-key columns present on both sides are suffixed
// by gota with _0 and _1.
func (f *Frame) Join(other *Frame, how JoinType, keys ...string) (*Frame, error) {
	if len(keys) == 0 {
		return nil, errors.New("frame: join needs at least one key")
	}
	for _, k := range keys {
		lt, err := f.TypeOf(k)
		if err != nil {
			return nil, err
		}
		rt, err := other.TypeOf(k)
		if err != nil {
			return nil, err
		}
		if lt != rt {
			return nil, errors.Errorf("frame: join key %q is %s on the left and %s on the right", k, lt, rt)
		}
	}
	a, err := f.dataFrame(false)
	if err != nil {
		return nil, err
	}
	b, err := other.dataFrame(false)
	if err != nil {
		return nil, err
	}
	var joined dataframe.DataFrame
	switch how {
	case Inner:
		joined = a.InnerJoin(b, keys...)
	case Left:
		joined = a.LeftJoin(b, keys...)
	case Outer:
		joined = a.OuterJoin(b, keys...)
	default:
		return nil, errors.Errorf("frame: unknown join type %q", how)
	}
	return fromDataFrame(joined, true)
}

// WriteCSV writes the scalar columns with a header row. Nulls are written
// as NaN.
func (f *Frame) WriteCSV(w io.Writer) error {
	df, err := f.DataFrame()
	if err != nil {
		return err
	}
	return errors.Wrap(df.WriteCSV(w), "frame: write csv")
}
