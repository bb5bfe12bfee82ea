package query

import (
	"banks-etl/internal/sink"
	"banks-etl/lib/testutil"
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (Runner, *bytes.Buffer, func()) {
	res, cleanup := testutil.SetupStore(t, testutil.StoreParams{Name: "query"})

	f := testutil.BanksFrame(t,
		[]string{"Test Bank", "Other Bank"},
		[]float64{100, 125},
		[]float64{80.0, 100.0},
	)
	err := sink.LoadTable(context.Background(), res.DB, "Largest_banks", f)
	require.NoError(t, err)

	var out bytes.Buffer
	return NewRunner(res.DB, &out), &out, cleanup
}

func TestAverageScalar(t *testing.T) {
	runner, _, cleanup := setup(t)
	defer cleanup()

	res, err := runner.Query(context.Background(), "SELECT AVG(MC_GBP_Billion) FROM Largest_banks")
	require.NoError(t, err)
	require.Equal(t, []string{"AVG(MC_GBP_Billion)"}, res.Columns)
	require.Equal(t, 90.0, res.Scalar())
}

func TestQueryRows(t *testing.T) {
	runner, _, cleanup := setup(t)
	defer cleanup()

	res, err := runner.Query(context.Background(), "SELECT * FROM Largest_banks")
	require.NoError(t, err)
	require.Equal(t, []string{"Rank", "Bank", "Market Cap (US$ Billion)", "MC_GBP_Billion"}, res.Columns)
	require.Equal(t, [][]any{
		{"1", "Test Bank", 100.0, 80.0},
		{"2", "Other Bank", 125.0, 100.0},
	}, res.Rows)

	res, err = runner.Query(context.Background(), "SELECT Bank FROM Largest_banks WHERE Bank = 'nope'")
	require.NoError(t, err)
	require.Nil(t, res.Scalar())
}

func TestRunPrints(t *testing.T) {
	runner, out, cleanup := setup(t)
	defer cleanup()

	statement := "SELECT Bank from Largest_banks LIMIT 5"
	require.NoError(t, runner.Run(context.Background(), statement))

	printed := out.String()
	require.True(t, strings.HasPrefix(printed, statement+"\n"))
	require.Contains(t, printed, "Bank")
	require.Contains(t, printed, "Test Bank")
	require.Contains(t, printed, "Other Bank")
}

func TestRunAverage(t *testing.T) {
	runner, out, cleanup := setup(t)
	defer cleanup()

	require.NoError(t, runner.Run(context.Background(), "SELECT AVG(MC_GBP_Billion) FROM Largest_banks"))
	require.Contains(t, out.String(), "90.0")
}

func TestRunInvalidSQL(t *testing.T) {
	runner, out, cleanup := setup(t)
	defer cleanup()

	err := runner.Run(context.Background(), "SELEC nonsense")
	require.Error(t, err)
	require.Equal(t, "SELEC nonsense\n", out.String())

	_, err = runner.Query(context.Background(), "SELECT * FROM missing_table")
	require.Error(t, err)
}
