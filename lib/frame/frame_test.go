package frame

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAppendRow(t *testing.T) {
	f := NewStrings("Rank", "Bank")
	require.NoError(t, f.AppendRow([]string{"1", "JPMorgan Chase"}))
	require.NoError(t, f.AppendRow([]string{"2", "Bank of America"}))

	require.Equal(t, 2, f.Len())
	require.Equal(t, []string{"Rank", "Bank"}, f.Names())
	require.Equal(t, []any{"2", "Bank of America"}, f.Row(1))

	err := f.AppendRow([]string{"3"})
	require.ErrorIs(t, err, ErrLengthMismatch)
	require.Equal(t, 2, f.Len())
}

func TestAppendRowRejectsTypedColumns(t *testing.T) {
	f := &Frame{}
	require.NoError(t, f.AddColumn(NewFloatColumn("x", nil)))
	require.Error(t, f.AppendRow([]string{"1"}))
}

func TestAddColumn(t *testing.T) {
	f := &Frame{}
	require.NoError(t, f.AddColumn(NewStringColumn("a", []string{"x", "y"})))
	require.NoError(t, f.AddColumn(NewFloatColumn("b", []float64{1, 2})))

	require.ErrorIs(t, f.AddColumn(NewIntColumn("c", []int64{1})), ErrLengthMismatch)
	require.ErrorIs(t, f.AddColumn(NewIntColumn("a", []int64{1, 2})), ErrDuplicateColumn)
	require.Equal(t, 2, f.Width())
}

func TestReplaceColumn(t *testing.T) {
	f := NewStrings("a", "b")
	require.NoError(t, f.AppendRow([]string{"1", "x"}))

	require.NoError(t, f.ReplaceColumn(NewFloatColumn("a", []float64{1})))
	require.Equal(t, []string{"a", "b"}, f.Names())

	col, err := f.Column("a")
	require.NoError(t, err)
	require.Equal(t, KindFloat, col.Kind())

	require.ErrorIs(t, f.ReplaceColumn(NewFloatColumn("missing", []float64{1})), ErrColumnNotFound)
	require.ErrorIs(t, f.ReplaceColumn(NewFloatColumn("a", nil)), ErrLengthMismatch)
}

func TestRename(t *testing.T) {
	f := NewStrings("Rank", "Bank", "Market Cap")
	require.NoError(t, f.Rename(map[string]string{
		"Market Cap": "Market Cap (US$ Billion)",
		"Unknown":    "Ignored",
	}))
	require.Equal(t, []string{"Rank", "Bank", "Market Cap (US$ Billion)"}, f.Names())

	err := f.Rename(map[string]string{"Rank": "Bank"})
	require.ErrorIs(t, err, ErrDuplicateColumn)
	require.Equal(t, []string{"Rank", "Bank", "Market Cap (US$ Billion)"}, f.Names())
}

func TestColumnNotFound(t *testing.T) {
	f := NewStrings("a")
	_, err := f.Column("b")
	require.ErrorIs(t, err, ErrColumnNotFound)
}
