package frame

import (
	"fmt"
	"strings"

	"github.com/go-gota/gota/series"
	"github.com/pkg/errors"
)

// Type is the logical type of a column.
type Type string

const (
	Int    Type = "int"
	Float  Type = "float"
	String Type = "string"
	Bool   Type = "bool"
	Vector Type = "vector"
	Tokens Type = "tokens"
)

// Numeric reports whether values of t can be read as float64.
func (t Type) Numeric() bool { return t == Int || t == Float || t == Bool }

func (t Type) scalar() bool { return t == Int || t == Float || t == String || t == Bool }

// sqlName is the name Spark prints in schemas.
func (t Type) sqlName() string {
	switch t {
	case Int:
		return "integer"
	case Float:
		return "double"
	case String:
		return "string"
	case Bool:
		return "boolean"
	case Vector:
		return "vector"
	case Tokens:
		return "array<string>"
	}
	return string(t)
}

func (t Type) seriesType() series.Type {
	switch t {
	case Int:
		return series.Int
	case Float:
		return series.Float
	case Bool:
		return series.Bool
	}
	return series.String
}

func fromSeriesType(t series.Type) Type {
	switch t {
	case series.Int:
		return Int
	case series.Float:
		return Float
	case series.Bool:
		return Bool
	}
	return String
}

// ParseType maps a type name as written in configs or schemas to a Type.
func ParseType(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "int", "integer", "long":
		return Int, nil
	case "float", "double":
		return Float, nil
	case "string", "str":
		return String, nil
	case "bool", "boolean":
		return Bool, nil
	}
	return "", errors.Errorf("frame: unknown type %q", s)
}

// Field describes one column. Attrs names the slots of a vector column.
type Field struct {
	Name  string
	Type  Type
	Attrs []string
}

// Schema is the ordered list of a frame's fields.
type Schema struct {
	Fields []Field
}

func NewSchema(fields ...Field) Schema { return Schema{Fields: fields} }

func (s Schema) Names() []string {
	out := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		out[i] = f.Name
	}
	return out
}

// Index returns the position of the named field or -1.
func (s Schema) Index(name string) int {
	for i, f := range s.Fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

func (s Schema) Lookup(name string) (Field, bool) {
	if i := s.Index(name); i >= 0 {
		return s.Fields[i], true
	}
	return Field{}, false
}

// String renders the schema as a tree, the way printSchema does.
func (s Schema) String() string {
	var b strings.Builder
	b.WriteString("root\n")
	for _, f := range s.Fields {
		fmt.Fprintf(&b, " |-- %s: %s (nullable = true)\n", f.Name, f.Type.sqlName())
	}
	return b.String()
}
