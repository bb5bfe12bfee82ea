package pipeline

import (
	"banks-etl/lib/progresslog"
	"banks-etl/lib/sqliteutil"
	"banks-etl/lib/telemetry"
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const page = `<html><body>
<table class="wikitable">
<tr><th>Rank</th><th>Bank name</th><th>Market cap (US$ billion)</th></tr>
<tr><td>1</td><td>JPMorgan Chase</td><td>432.92
</td></tr>
<tr><td>2</td><td>Bank of America</td><td>$231.52</td></tr>
</table>
</body></html>`

const expectedCsv = "Rank,Bank,Market Cap (US$ Billion),MC_EUR_Billion,MC_GBP_Billion,MC_INR_Billion\n" +
	"1,JPMorgan Chase,432.92,402.62,346.34,35910.71\n" +
	"2,Bank of America,231.52,215.31,185.22,19204.58\n"

var milestones = []string{
	"Preliminaries complete. Initiating ETL process",
	"Data extraction complete. Initiating Transformation process",
	"Data transformation complete. Initiating loading process",
	"Data saved to CSV file",
	"SQL Connection initiated.",
	"Data loaded to Database as table. Running the query",
	"Process Complete.",
}

type fixture struct {
	config  Config
	console *bytes.Buffer
	clock   time.Time
}

func setup(t *testing.T) fixture {
	cleanup := telemetry.SetupForTesting("test:pipeline")
	t.Cleanup(cleanup)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(page))
	}))
	t.Cleanup(server.Close)

	dir := t.TempDir()
	ratesPath := filepath.Join(dir, "exchange_rate.csv")
	err := os.WriteFile(ratesPath, []byte("Currency,Rate\nEUR,0.93\nGBP,0.8\nINR,82.95\n"), 0600)
	require.NoError(t, err)

	config := DefaultConfig()
	config.SourceUrl = server.URL
	config.ExchangeRateCsv = ratesPath
	config.OutputCsv = filepath.Join(dir, "Largest_banks_data.csv")
	config.Store = sqliteutil.Config{File: filepath.Join(dir, "Banks.db")}
	config.LogFile = filepath.Join(dir, "code_log.txt")

	return fixture{
		config:  config,
		console: &bytes.Buffer{},
		clock:   time.Date(2023, time.September, 8, 9, 16, 35, 0, time.UTC),
	}
}

func (f fixture) pipeline(t *testing.T) Pipeline {
	p, err := New(f.config, f.console)
	require.NoError(t, err)
	return p.WithProgress(progresslog.New(f.config.LogFile).WithClock(func() time.Time {
		return f.clock
	}))
}

func countRows(t *testing.T, config Config) int {
	db, err := config.Store.OpenDB()
	require.NoError(t, err)
	defer db.Close()

	var count int
	err = db.QueryRow("SELECT COUNT(*) FROM Largest_banks").Scan(&count)
	require.NoError(t, err)
	return count
}

func TestRun(t *testing.T) {
	f := setup(t)
	p := f.pipeline(t)

	require.NoError(t, p.Run(context.Background()))

	csv, err := os.ReadFile(f.config.OutputCsv)
	require.NoError(t, err)
	require.Equal(t, expectedCsv, string(csv))

	require.Equal(t, 2, countRows(t, f.config))

	console := f.console.String()
	require.True(t, strings.HasPrefix(console, "Number of tables found: 1\n"))
	for _, statement := range f.config.Queries {
		require.Contains(t, console, statement+"\n")
	}
	require.Contains(t, console, "JPMorgan Chase")

	log, err := os.ReadFile(f.config.LogFile)
	require.NoError(t, err)
	var expectedLog strings.Builder
	for _, m := range milestones {
		expectedLog.WriteString(progresslog.FormatLine(f.clock, m))
	}
	require.Equal(t, expectedLog.String(), string(log))
}

func TestRunTwice(t *testing.T) {
	f := setup(t)

	require.NoError(t, f.pipeline(t).Run(context.Background()))
	first, err := os.ReadFile(f.config.OutputCsv)
	require.NoError(t, err)

	require.NoError(t, f.pipeline(t).Run(context.Background()))
	second, err := os.ReadFile(f.config.OutputCsv)
	require.NoError(t, err)

	require.Equal(t, first, second)
	require.Equal(t, 2, countRows(t, f.config))

	log, err := os.ReadFile(f.config.LogFile)
	require.NoError(t, err)
	require.Len(t, strings.Split(strings.TrimSuffix(string(log), "\n"), "\n"), len(milestones)*2)
}

func TestRunWithoutSomeRates(t *testing.T) {
	f := setup(t)
	err := os.WriteFile(f.config.ExchangeRateCsv, []byte("Currency,Rate\nGBP,0.8\n"), 0600)
	require.NoError(t, err)

	require.NoError(t, f.pipeline(t).Run(context.Background()))

	csv, err := os.ReadFile(f.config.OutputCsv)
	require.NoError(t, err)
	require.Equal(t,
		"Rank,Bank,Market Cap (US$ Billion),MC_GBP_Billion\n"+
			"1,JPMorgan Chase,432.92,346.34\n"+
			"2,Bank of America,231.52,185.22\n",
		string(csv),
	)
}

func TestRunStoreFailureKeepsCsv(t *testing.T) {
	f := setup(t)
	f.config.Store.File = filepath.Join(t.TempDir(), "missing", "Banks.db")

	err := f.pipeline(t).Run(context.Background())
	require.ErrorContains(t, err, "open store")

	csv, err := os.ReadFile(f.config.OutputCsv)
	require.NoError(t, err)
	require.Equal(t, expectedCsv, string(csv))

	log, err := os.ReadFile(f.config.LogFile)
	require.NoError(t, err)
	require.NotContains(t, string(log), "SQL Connection initiated.")
	require.Contains(t, string(log), "Data saved to CSV file")
}

func TestRunQueryFailure(t *testing.T) {
	f := setup(t)
	f.config.Queries = []string{"SELECT * FROM Largest_banks", "SELEC broken"}

	err := f.pipeline(t).Run(context.Background())
	require.ErrorContains(t, err, "query")

	// the table was loaded and the store released
	require.Equal(t, 2, countRows(t, f.config))

	log, err := os.ReadFile(f.config.LogFile)
	require.NoError(t, err)
	require.NotContains(t, string(log), "Process Complete.")
}

func TestRunNoTable(t *testing.T) {
	f := setup(t)
	f.config.TableClass = "missing"

	err := f.pipeline(t).Run(context.Background())
	require.ErrorContains(t, err, "extract")

	_, err = os.Stat(f.config.OutputCsv)
	require.ErrorIs(t, err, os.ErrNotExist)
}
