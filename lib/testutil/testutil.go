package testutil

import (
	"banks-etl/lib/frame"
	"banks-etl/lib/sqliteutil"
	"banks-etl/lib/telemetry"
	"database/sql"
	"fmt"
	"testing"
)

type StoreParams struct {
	Name string
	// if unspecified, it will use `:memory:`
	DbPath string
}

type StoreResult struct {
	DB *sql.DB
}

// SetupStore opens a store for a test, telemetry is set up once per name.
// The returned cleanup closes the store.
func SetupStore(t testing.TB, params StoreParams) (StoreResult, func()) {
	cleanupTelemetry := telemetry.SetupForTesting(fmt.Sprintf("test:%s", params.Name))

	dbpath := ":memory:"
	if params.DbPath != "" {
		dbpath = params.DbPath
	}
	db, err := sqliteutil.OpenFile(dbpath)
	if err != nil {
		t.Fatal(err)
	}

	return StoreResult{DB: db}, func() {
		db.Close()
		cleanupTelemetry()
	}
}

// BanksFrame builds a frame shaped like the output of the transform stage.
func BanksFrame(t testing.TB, banks []string, usd, gbp []float64) *frame.Frame {
	ranks := make([]string, len(banks))
	for i := range banks {
		ranks[i] = fmt.Sprint(i + 1)
	}

	f := &frame.Frame{}
	columns := []frame.Column{
		frame.NewStringColumn("Rank", ranks),
		frame.NewStringColumn("Bank", banks),
		frame.NewFloatColumn("Market Cap (US$ Billion)", usd),
		frame.NewFloatColumn("MC_GBP_Billion", gbp),
	}
	for _, c := range columns {
		err := f.AddColumn(c)
		if err != nil {
			t.Fatal(err)
		}
	}
	return f
}
