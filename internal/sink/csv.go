package sink

import (
	"banks-etl/lib/frame"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

func formatCell(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return frame.FormatFloat(v)
	case int64:
		return strconv.FormatInt(v, 10)
	}
	return fmt.Sprint(value)
}

// EncodeCSV writes a header row of the column names followed by one record
// per row.
func EncodeCSV(w io.Writer, f *frame.Frame) error {
	writer := csv.NewWriter(w)
	err := writer.Write(f.Names())
	if err != nil {
		return err
	}

	record := make([]string, f.Width())
	for i := 0; i < f.Len(); i++ {
		for j, cell := range f.Row(i) {
			record[j] = formatCell(cell)
		}
		err = writer.Write(record)
		if err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteCSV writes the frame to path, replacing whatever was there before.
func WriteCSV(ctx context.Context, path string, f *frame.Frame) error {
	_, span := tracer.Start(ctx, "WriteCSV")
	defer span.End()
	span.SetAttributes(
		attribute.String("path", path),
		attribute.Int("rows", f.Len()),
	)

	out, err := os.Create(path)
	if err != nil {
		span.SetStatus(codes.Error, "failed to create file")
		return err
	}
	err = EncodeCSV(out, f)
	if err != nil {
		out.Close()
		span.SetStatus(codes.Error, "failed to write csv")
		return fmt.Errorf("write %s: %w", path, err)
	}
	return out.Close()
}

func parseColumn(name string, kind frame.Kind, cells []string) (frame.Column, error) {
	switch kind {
	case frame.KindString:
		return frame.NewStringColumn(name, cells), nil
	case frame.KindFloat:
		values := make([]float64, len(cells))
		for i, c := range cells {
			if c == "" {
				values[i] = math.NaN()
				continue
			}
			v, err := strconv.ParseFloat(c, 64)
			if err != nil {
				return nil, fmt.Errorf("column %q row %d: %w", name, i, err)
			}
			values[i] = v
		}
		return frame.NewFloatColumn(name, values), nil
	case frame.KindInt:
		values := make([]int64, len(cells))
		for i, c := range cells {
			v, err := strconv.ParseInt(c, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("column %q row %d: %w", name, i, err)
			}
			values[i] = v
		}
		return frame.NewIntColumn(name, values), nil
	}
	return nil, fmt.Errorf("column %q: unsupported kind %s", name, kind)
}

// DecodeCSV reads a csv written by EncodeCSV. Columns are parsed with the
// kind given in `kinds`, columns missing from it are read as strings.
func DecodeCSV(r io.Reader, kinds map[string]frame.Kind) (*frame.Frame, error) {
	reader := csv.NewReader(r)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("csv has no header row")
	}

	header := records[0]
	rows := records[1:]
	out := &frame.Frame{}
	for j, name := range header {
		cells := make([]string, len(rows))
		for i, r := range rows {
			cells[i] = r[j]
		}
		col, err := parseColumn(name, kinds[name], cells)
		if err != nil {
			return nil, err
		}
		err = out.AddColumn(col)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func ReadCSV(path string, kinds map[string]frame.Kind) (*frame.Frame, error) {
	in, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer in.Close()
	return DecodeCSV(in, kinds)
}
