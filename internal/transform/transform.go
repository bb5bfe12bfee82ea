package transform

import (
	"banks-etl/lib/frame"
	"banks-etl/lib/ratetable"
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("banks-etl/transform")

const USDColumn = "Market Cap (US$ Billion)"

// Currencies are the target currencies, in the order their columns are
// added.
var Currencies = []string{"EUR", "GBP", "INR"}

var ErrMissingColumn = errors.New("missing column")

// ParseError is returned when a cell of the US$ column is not a number once
// the currency symbol and thousands separators are removed.
type ParseError struct {
	Row   int
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("row %d: cannot parse %q as an amount: %s", e.Row, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func DerivedColumn(currency string) string {
	return fmt.Sprintf("Market Cap (%s)", currency)
}

var currencyFormatting = regexp.MustCompile(`[$,]`)

// ParseAmount reads a market cap cell, the currency symbol and thousands
// separators are ignored. The result is the float64 nearest to the written
// decimal.
func ParseAmount(value string) (float64, error) {
	cleaned := strings.TrimSpace(currencyFormatting.ReplaceAllString(value, ""))
	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return 0, err
	}
	f, _ := amount.Float64()
	return f, nil
}

// Convert returns usd * rate rounded to 2 decimal places the way numpy's
// round does: the float64 product is scaled by 100, rounded half to even
// and scaled back. 0.125 becomes 0.12, 1.005 becomes 1 and 100.5 * 0.93
// becomes 93.46.
func Convert(usd, rate float64) float64 {
	product := float64(usd * rate)
	return math.RoundToEven(product*100) / 100
}

func usdValues(col frame.Column) ([]float64, error) {
	switch col := col.(type) {
	case *frame.FloatColumn:
		return col.Values, nil
	case *frame.IntColumn:
		out := make([]float64, len(col.Values))
		for i, v := range col.Values {
			out[i] = float64(v)
		}
		return out, nil
	case *frame.StringColumn:
		out := make([]float64, len(col.Values))
		for i, v := range col.Values {
			amount, err := ParseAmount(v)
			if err != nil {
				return nil, &ParseError{Row: i, Value: v, Err: err}
			}
			out[i] = amount
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported column kind %s", col.Kind())
}

// Transform converts the US$ column of f into floats in place, then adds a
// "Market Cap (<currency>)" column for every currency in Currencies that
// `rates` knows about.
func Transform(ctx context.Context, f *frame.Frame, rates ratetable.Table) (*frame.Frame, error) {
	_, span := tracer.Start(ctx, "Transform")
	defer span.End()

	col, err := f.Column(USDColumn)
	if err != nil {
		span.SetStatus(codes.Error, "missing column")
		return nil, fmt.Errorf("%w: %q", ErrMissingColumn, USDColumn)
	}
	usd, err := usdValues(col)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse amounts")
		return nil, err
	}
	err = f.ReplaceColumn(frame.NewFloatColumn(USDColumn, usd))
	if err != nil {
		return nil, err
	}

	for _, currency := range Currencies {
		rate, ok := rates.Get(currency)
		if !ok {
			continue
		}
		converted := make([]float64, len(usd))
		for i, v := range usd {
			converted[i] = Convert(v, rate)
		}

		derived := frame.NewFloatColumn(DerivedColumn(currency), converted)
		if f.Has(derived.Name()) {
			err = f.ReplaceColumn(derived)
		} else {
			err = f.AddColumn(derived)
		}
		if err != nil {
			return nil, err
		}
		span.AddEvent("derived", trace.WithAttributes(
			attribute.String("currency", currency),
			attribute.Float64("rate", rate),
		))
	}

	return f, nil
}

// TransformFile loads the rate table at ratesPath and runs Transform with it.
func TransformFile(ctx context.Context, f *frame.Frame, ratesPath string) (*frame.Frame, error) {
	rates, err := ratetable.Load(ratesPath)
	if err != nil {
		return nil, err
	}
	return Transform(ctx, f, rates)
}
