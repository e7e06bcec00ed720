package data

import (
	"bufio"
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/pkg/errors"

	"github.com/MarinaBorodkina/SPARK/pkg/frame"
)

// DefaultNullValues are the cell values read as null. "NaN" is not among
// them: numeric columns parse it as a null anyway, and in string columns it
// is ordinary text.
var DefaultNullValues = []string{"", "NA", "null", "NULL"}

// CSVOptions controls how delimited text is parsed.
type CSVOptions struct {
	// Delimiter defaults to ','.
	Delimiter rune
	// Header means the first record names the columns.
	Header bool
	// Schema fixes column names and types by position. Without it names come
	// from the header (or _c0, _c1, ...) and types are inferred.
	Schema *frame.Schema
	// NullValues defaults to DefaultNullValues.
	NullValues []string
	// Required drops rows holding a null in any of these columns.
	Required []string
	// DropInvalid drops rows holding a null in any column.
	DropInvalid bool
}

// Stats reports what the loader did besides producing rows.
type Stats struct {
	Records   int // data records read
	Skipped   int // records the csv reader could not tokenise
	Reshaped  int // records padded or truncated to the column count
	Dropped   int // rows removed by Required / DropInvalid
	Delimiter rune
}

// LoadCSV opens path and parses it with ReadCSV.
func LoadCSV(path string, opts CSVOptions) (*frame.Frame, Stats, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, Stats{}, errors.Wrap(err, "data: open")
	}
	defer file.Close()
	return ReadCSV(file, opts)
}

// ReadCSV parses delimited text into a frame. Parsing is permissive: a
// field that does not parse as its column type becomes null, short records
// are padded with nulls and long ones truncated. Only I/O failures and
// header/schema mismatches are errors.
func ReadCSV(r io.Reader, opts CSVOptions) (*frame.Frame, Stats, error) {
	st := Stats{Delimiter: opts.Delimiter}
	if st.Delimiter == 0 {
		st.Delimiter = ','
	}
	nulls := opts.NullValues
	if nulls == nil {
		nulls = DefaultNullValues
	}

	reader := csv.NewReader(bufio.NewReader(r))
	reader.Comma = st.Delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var (
		names   []string
		records [][]string
	)
	first := true
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				st.Skipped++
				continue
			}
			return nil, st, errors.Wrap(err, "data: read")
		}
		if first && opts.Header {
			first = false
			names = headerNames(rec)
			continue
		}
		first = false
		records = append(records, rec)
	}
	st.Records = len(records)

	names, types, err := resolveColumns(names, records, opts.Schema)
	if err != nil {
		return nil, st, err
	}
	for i, rec := range records {
		if len(rec) == len(names) {
			continue
		}
		st.Reshaped++
		fixed := make([]string, len(names))
		copy(fixed, rec)
		records[i] = fixed
	}

	f, err := buildFrame(names, types, records, nulls)
	if err != nil {
		return nil, st, err
	}

	before := f.Count()
	switch {
	case opts.DropInvalid:
		f, err = f.DropNulls()
	case len(opts.Required) > 0:
		f, err = f.DropNulls(opts.Required...)
	}
	if err != nil {
		return nil, st, err
	}
	st.Dropped = before - f.Count()
	return f, st, nil
}

func headerNames(rec []string) []string {
	names := make([]string, len(rec))
	for i, h := range rec {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if h == "" {
			h = "_c" + strconv.Itoa(i)
		}
		names[i] = h
	}
	return names
}

// resolveColumns decides the column names and, when a schema is given,
// their types.
func resolveColumns(header []string, records [][]string, schema *frame.Schema) ([]string, map[string]frame.Type, error) {
	if schema != nil {
		if len(schema.Fields) == 0 {
			return nil, nil, errors.New("data: empty schema")
		}
		if header != nil && len(header) != len(schema.Fields) {
			return nil, nil, errors.Errorf("data: header has %d columns, schema has %d", len(header), len(schema.Fields))
		}
		types := map[string]frame.Type{}
		for _, fl := range schema.Fields {
			types[fl.Name] = fl.Type
		}
		return schema.Names(), types, nil
	}
	if header != nil {
		seen := map[string]bool{}
		for _, h := range header {
			if seen[h] {
				return nil, nil, errors.Errorf("data: duplicate header %q", h)
			}
			seen[h] = true
		}
		return header, nil, nil
	}
	width := 0
	for _, rec := range records {
		if len(rec) > width {
			width = len(rec)
		}
	}
	names := make([]string, width)
	for i := range names {
		names[i] = "_c" + strconv.Itoa(i)
	}
	return names, nil, nil
}

func buildFrame(names []string, types map[string]frame.Type, records [][]string, nulls []string) (*frame.Frame, error) {
	if len(records) == 0 {
		cols := make([]frame.Column, len(names))
		for i, name := range names {
			switch types[name] {
			case frame.Int:
				cols[i] = frame.Ints(name, nil)
			case frame.Float:
				cols[i] = frame.Floats(name, nil)
			case frame.Bool:
				cols[i] = frame.Bools(name, nil)
			default:
				cols[i] = frame.Strings(name, nil)
			}
		}
		return frame.New(cols...)
	}

	opts := []dataframe.LoadOption{
		dataframe.HasHeader(true),
		dataframe.NaNValues(nulls),
		dataframe.DefaultType(series.String),
	}
	if types != nil {
		st := make(map[string]series.Type, len(types))
		for name, t := range types {
			switch t {
			case frame.Int:
				st[name] = series.Int
			case frame.Float:
				st[name] = series.Float
			case frame.Bool:
				st[name] = series.Bool
			default:
				st[name] = series.String
			}
		}
		opts = append(opts, dataframe.DetectTypes(false), dataframe.WithTypes(st))
	}
	all := make([][]string, 0, len(records)+1)
	all = append(all, names)
	all = append(all, records...)
	f, err := frame.FromDataFrame(dataframe.LoadRecords(all, opts...))
	if err != nil {
		return nil, err
	}
	return restoreStrings(f, names, records, nulls)
}

// restoreStrings puts back string cells gota read as missing although
// they are not null values, which happens to the text "NaN".
func restoreStrings(f *frame.Frame, names []string, records [][]string, nullValues []string) (*frame.Frame, error) {
	isNull := make(map[string]bool, len(nullValues))
	for _, v := range nullValues {
		isNull[v] = true
	}
	for j, name := range names {
		if t, err := f.TypeOf(name); err != nil || t != frame.String {
			continue
		}
		vals, nulls, err := f.Strings(name)
		if err != nil {
			return nil, err
		}
		changed := false
		for i, rec := range records {
			if nulls[i] && !isNull[rec[j]] {
				vals[i], nulls[i] = rec[j], false
				changed = true
			}
		}
		if !changed {
			continue
		}
		if f, err = f.WithStrings(name, vals, nulls); err != nil {
			return nil, err
		}
	}
	return f, nil
}
