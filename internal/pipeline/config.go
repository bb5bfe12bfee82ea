package pipeline

import (
	"banks-etl/internal/transform"
	"banks-etl/lib/configutil"
	"banks-etl/lib/sqliteutil"
	"fmt"
	"time"
)

type Config struct {
	SourceUrl string `json:"source_url"`
	// TableClass is the css class marking the table on the page.
	TableClass string `json:"table_class"`
	// TableAttribs are the names given to the first cells of each row.
	TableAttribs []string `json:"table_attribs"`
	// ExtractRenames is applied to the columns right after extraction.
	ExtractRenames map[string]string `json:"extract_renames"`
	// LoadRenames is applied to the columns after transformation.
	LoadRenames map[string]string `json:"load_renames"`

	ExchangeRateCsv string            `json:"exchange_rate_csv"`
	OutputCsv       string            `json:"output_csv"`
	Store           sqliteutil.Config `json:"store"`
	TableName       string            `json:"table_name"`
	LogFile         string            `json:"log_file"`
	Queries         []string          `json:"queries"`

	HttpTimeoutSeconds int    `json:"http_timeout_seconds"`
	UserAgent          string `json:"user_agent"`
	CloudflareBypass   bool   `json:"cloudflare_bypass"`
	// HttpDumpDir, if set, receives a dump of every http exchange.
	HttpDumpDir string `json:"http_dump_dir"`
}

func (c Config) HttpTimeout() time.Duration {
	return time.Duration(c.HttpTimeoutSeconds) * time.Second
}

func DefaultConfig() Config {
	loadRenames := map[string]string{}
	for _, currency := range transform.Currencies {
		loadRenames[transform.DerivedColumn(currency)] = fmt.Sprintf("MC_%s_Billion", currency)
	}

	return Config{
		SourceUrl:    "https://web.archive.org/web/20230908091635/https://en.wikipedia.org/wiki/List_of_largest_banks",
		TableClass:   "wikitable",
		TableAttribs: []string{"Rank", "Bank", "Market Cap"},
		ExtractRenames: map[string]string{
			"Market Cap": transform.USDColumn,
		},
		LoadRenames:     loadRenames,
		ExchangeRateCsv: "exchange_rate.csv",
		OutputCsv:       "./Largest_banks_data.csv",
		Store:           sqliteutil.Config{File: "Banks.db"},
		TableName:       "Largest_banks",
		LogFile:         "./code_log.txt",
		Queries: []string{
			"SELECT * FROM Largest_banks",
			"SELECT AVG(MC_GBP_Billion) FROM Largest_banks",
			"SELECT Bank from Largest_banks LIMIT 5",
		},
		HttpTimeoutSeconds: 30,
		UserAgent:          "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36",
	}
}

// ReadConfig merges the config file at `name` (and its local override) on
// top of DefaultConfig, missing files leave the defaults untouched.
func ReadConfig(name string) (Config, error) {
	return configutil.ReadConfigWithDefaults(name, DefaultConfig())
}
