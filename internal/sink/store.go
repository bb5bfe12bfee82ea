package sink

import (
	"banks-etl/lib/frame"
	"context"
	"database/sql"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("banks-etl/sink")

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func sqlType(kind frame.Kind) string {
	switch kind {
	case frame.KindFloat:
		return "REAL"
	case frame.KindInt:
		return "INTEGER"
	}
	return "TEXT"
}

// CreateTableStatement returns the DDL for a table with one column per
// frame column, typed after the column kind.
func CreateTableStatement(table string, f *frame.Frame) string {
	defs := make([]string, 0, f.Width())
	for _, c := range f.Columns() {
		defs = append(defs, fmt.Sprintf("%s %s", quoteIdent(c.Name()), sqlType(c.Kind())))
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(table), strings.Join(defs, ", "))
}

func insertStatement(table string, f *frame.Frame) string {
	names := make([]string, 0, f.Width())
	for _, n := range f.Names() {
		names = append(names, quoteIdent(n))
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", f.Width()), ", ")
	return fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(table), strings.Join(names, ", "), placeholders,
	)
}

// LoadTable replaces `table` with the contents of the frame, the old table
// (if any) is dropped and recreated inside of one transaction.
func LoadTable(ctx context.Context, db *sql.DB, table string, f *frame.Frame) error {
	ctx, span := tracer.Start(ctx, "LoadTable")
	defer span.End()
	span.SetAttributes(
		attribute.String("table", table),
		attribute.Int("rows", f.Len()),
	)

	if f.Width() == 0 {
		return fmt.Errorf("cannot create table %s without columns", table)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		span.SetStatus(codes.Error, "failed to begin transaction")
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", quoteIdent(table)))
	if err != nil {
		span.SetStatus(codes.Error, "failed to drop table")
		return err
	}
	_, err = tx.ExecContext(ctx, CreateTableStatement(table, f))
	if err != nil {
		span.SetStatus(codes.Error, "failed to create table")
		return err
	}

	stmt, err := tx.PrepareContext(ctx, insertStatement(table, f))
	if err != nil {
		span.SetStatus(codes.Error, "failed to prepare insert")
		return err
	}
	defer stmt.Close()

	for i := 0; i < f.Len(); i++ {
		_, err = stmt.ExecContext(ctx, f.Row(i)...)
		if err != nil {
			span.SetStatus(codes.Error, "failed to insert row")
			return fmt.Errorf("insert row %d: %w", i, err)
		}
	}

	return tx.Commit()
}
