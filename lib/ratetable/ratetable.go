package ratetable

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"
)

const (
	CurrencyHeader = "Currency"
	RateHeader     = "Rate"
)

var ErrMissingHeader = errors.New("rate table is missing a required header")

// Table maps a currency code (ie. "EUR") to the amount of that currency
// one US dollar buys.
type Table map[string]float64

func (t Table) Get(currency string) (float64, bool) {
	rate, ok := t[currency]
	return rate, ok
}

// Load reads a rate table from a csv file with the headers "Currency" and
// "Rate". Other columns are ignored.
func Load(path string) (Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	table, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("read rate table %s: %w", path, err)
	}
	return table, nil
}

// Read parses a rate table, if a currency occurs more than once the last
// occurrence wins.
func Read(r io.Reader) (Table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty input", ErrMissingHeader)
	}
	if err != nil {
		return nil, err
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}
	currencyIdx := slices.Index(header, CurrencyHeader)
	if currencyIdx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingHeader, CurrencyHeader)
	}
	rateIdx := slices.Index(header, RateHeader)
	if rateIdx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingHeader, RateHeader)
	}

	table := Table{}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		currency := strings.TrimSpace(record[currencyIdx])
		rawRate := strings.TrimSpace(record[rateIdx])
		rate, err := strconv.ParseFloat(rawRate, 64)
		if err != nil {
			return nil, fmt.Errorf("rate for %s: %w", currency, err)
		}
		if rate <= 0 {
			return nil, fmt.Errorf("rate for %s must be positive, got %v", currency, rate)
		}
		table[currency] = rate
	}
	return table, nil
}
