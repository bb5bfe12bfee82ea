package query

import (
	"banks-etl/lib/frame"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("banks-etl/query")

type Result struct {
	Columns []string
	Rows    [][]any
}

// Scalar returns the first cell of the first row, nil when there are no rows.
func (r Result) Scalar() any {
	if len(r.Rows) == 0 || len(r.Rows[0]) == 0 {
		return nil
	}
	return r.Rows[0][0]
}

// Runner runs literal sql statements against a store and prints them along
// with their result sets.
type Runner struct {
	db  *sql.DB
	out io.Writer
}

// NewRunner creates a Runner printing to `out`, os.Stdout if nil.
func NewRunner(db *sql.DB, out io.Writer) Runner {
	if out == nil {
		out = os.Stdout
	}
	return Runner{db: db, out: out}
}

func (r Runner) Query(ctx context.Context, statement string) (Result, error) {
	ctx, span := tracer.Start(ctx, "Query")
	defer span.End()
	span.SetAttributes(attribute.String("statement", statement))

	rows, err := r.db.QueryContext(ctx, statement)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to query")
		return Result{}, fmt.Errorf("query %q: %w", statement, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return Result{}, err
	}

	result := Result{Columns: columns}
	for rows.Next() {
		values := make([]any, len(columns))
		pointers := make([]any, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}
		err = rows.Scan(pointers...)
		if err != nil {
			return Result{}, err
		}
		for i, v := range values {
			// some drivers hand out text as []byte
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		result.Rows = append(result.Rows, values)
	}
	err = rows.Err()
	if err != nil {
		span.SetStatus(codes.Error, "failed to read rows")
		return Result{}, err
	}

	span.SetAttributes(attribute.Int("rows", len(result.Rows)))
	return result, nil
}

// Run prints the statement, executes it and prints the result set.
func (r Runner) Run(ctx context.Context, statement string) error {
	fmt.Fprintln(r.out, statement)
	result, err := r.Query(ctx, statement)
	if err != nil {
		return err
	}
	r.Print(result)
	return nil
}

func formatValue(v any) string {
	switch v := v.(type) {
	case nil:
		return "NULL"
	case float64:
		return frame.FormatFloat(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case string:
		return v
	}
	return fmt.Sprint(v)
}

func (r Runner) Print(result Result) {
	t := table.NewWriter()
	t.SetOutputMirror(r.out)

	header := table.Row{}
	for _, c := range result.Columns {
		header = append(header, c)
	}
	t.AppendHeader(header)

	for _, values := range result.Rows {
		row := make(table.Row, len(values))
		for i, v := range values {
			row[i] = formatValue(v)
		}
		t.AppendRow(row)
	}

	style := table.StyleRounded
	style.Format.Header = text.FormatDefault
	t.SetStyle(style)
	t.Render()
}
