package frame

import (
	"errors"
	"fmt"
	"slices"
)

var ErrColumnNotFound = errors.New("column not found")
var ErrLengthMismatch = errors.New("column length does not match frame")
var ErrDuplicateColumn = errors.New("column already exists")

type Kind int

const (
	KindString Kind = iota
	KindFloat
	KindInt
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindFloat:
		return "float"
	case KindInt:
		return "int"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Column is a named, typed sequence of cells.
type Column interface {
	Name() string
	Kind() Kind
	Len() int
	// Value returns the cell at row i as a string, float64 or int64.
	Value(i int) any
	withName(name string) Column
}

type StringColumn struct {
	name   string
	Values []string
}

func NewStringColumn(name string, values []string) *StringColumn {
	return &StringColumn{name: name, Values: values}
}

func (c *StringColumn) Name() string    { return c.name }
func (c *StringColumn) Kind() Kind      { return KindString }
func (c *StringColumn) Len() int        { return len(c.Values) }
func (c *StringColumn) Value(i int) any { return c.Values[i] }
func (c *StringColumn) withName(name string) Column {
	return &StringColumn{name: name, Values: c.Values}
}

type FloatColumn struct {
	name   string
	Values []float64
}

func NewFloatColumn(name string, values []float64) *FloatColumn {
	return &FloatColumn{name: name, Values: values}
}

func (c *FloatColumn) Name() string    { return c.name }
func (c *FloatColumn) Kind() Kind      { return KindFloat }
func (c *FloatColumn) Len() int        { return len(c.Values) }
func (c *FloatColumn) Value(i int) any { return c.Values[i] }
func (c *FloatColumn) withName(name string) Column {
	return &FloatColumn{name: name, Values: c.Values}
}

type IntColumn struct {
	name   string
	Values []int64
}

func NewIntColumn(name string, values []int64) *IntColumn {
	return &IntColumn{name: name, Values: values}
}

func (c *IntColumn) Name() string    { return c.name }
func (c *IntColumn) Kind() Kind      { return KindInt }
func (c *IntColumn) Len() int        { return len(c.Values) }
func (c *IntColumn) Value(i int) any { return c.Values[i] }
func (c *IntColumn) withName(name string) Column {
	return &IntColumn{name: name, Values: c.Values}
}

// Frame is an in-memory table: ordered named columns of equal length.
// The zero value is an empty frame with no columns.
type Frame struct {
	columns []Column
	rows    int
}

// NewStrings creates a frame of empty string columns with the given names.
func NewStrings(names ...string) *Frame {
	f := &Frame{}
	for _, n := range names {
		f.columns = append(f.columns, NewStringColumn(n, nil))
	}
	return f
}

func (f *Frame) Len() int {
	return f.rows
}

func (f *Frame) Width() int {
	return len(f.columns)
}

func (f *Frame) Names() []string {
	names := make([]string, len(f.columns))
	for i, c := range f.columns {
		names[i] = c.Name()
	}
	return names
}

func (f *Frame) Columns() []Column {
	return slices.Clone(f.columns)
}

func (f *Frame) index(name string) int {
	return slices.IndexFunc(f.columns, func(c Column) bool {
		return c.Name() == name
	})
}

func (f *Frame) Has(name string) bool {
	return f.index(name) >= 0
}

func (f *Frame) Column(name string) (Column, error) {
	idx := f.index(name)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, name)
	}
	return f.columns[idx], nil
}

// AddColumn appends a column. The first column added to an empty frame
// decides the row count.
func (f *Frame) AddColumn(c Column) error {
	if f.Has(c.Name()) {
		return fmt.Errorf("%w: %q", ErrDuplicateColumn, c.Name())
	}
	if len(f.columns) == 0 {
		f.rows = c.Len()
	} else if c.Len() != f.rows {
		return fmt.Errorf("%w: %q has %d rows, expected %d", ErrLengthMismatch, c.Name(), c.Len(), f.rows)
	}
	f.columns = append(f.columns, c)
	return nil
}

// ReplaceColumn swaps the column with the same name in place, keeping its
// position.
func (f *Frame) ReplaceColumn(c Column) error {
	idx := f.index(c.Name())
	if idx < 0 {
		return fmt.Errorf("%w: %q", ErrColumnNotFound, c.Name())
	}
	if c.Len() != f.rows {
		return fmt.Errorf("%w: %q has %d rows, expected %d", ErrLengthMismatch, c.Name(), c.Len(), f.rows)
	}
	f.columns[idx] = c
	return nil
}

// Rename renames columns according to mapping (old -> new). Names not
// present in the frame are ignored.
func (f *Frame) Rename(mapping map[string]string) error {
	renamed := slices.Clone(f.columns)
	for i, c := range renamed {
		next, ok := mapping[c.Name()]
		if !ok {
			continue
		}
		renamed[i] = c.withName(next)
	}
	seen := map[string]bool{}
	for _, c := range renamed {
		if seen[c.Name()] {
			return fmt.Errorf("%w: %q", ErrDuplicateColumn, c.Name())
		}
		seen[c.Name()] = true
	}
	f.columns = renamed
	return nil
}

// AppendRow appends one row of cells. Every column must be a string column.
func (f *Frame) AppendRow(cells []string) error {
	if len(cells) != len(f.columns) {
		return fmt.Errorf("%w: row has %d cells, frame has %d columns", ErrLengthMismatch, len(cells), len(f.columns))
	}
	for _, c := range f.columns {
		if _, ok := c.(*StringColumn); !ok {
			return fmt.Errorf("cannot append string cell to %s column %q", c.Kind(), c.Name())
		}
	}
	for i, c := range f.columns {
		col := c.(*StringColumn)
		col.Values = append(col.Values, cells[i])
	}
	f.rows++
	return nil
}

// Row returns the cells of row i in column order.
func (f *Frame) Row(i int) []any {
	out := make([]any, len(f.columns))
	for j, c := range f.columns {
		out[j] = c.Value(i)
	}
	return out
}
