package extract

import (
	"banks-etl/lib/frame"
	"banks-etl/lib/htmlutil"
	"banks-etl/lib/restyutil"
	"banks-etl/lib/telemetry"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
)

var tracer = otel.Tracer("banks-etl/extract")
var meter = otel.Meter("banks-etl/extract")

var ErrNoTable = errors.New("no table with the marker class was found")

const DefaultTableClass = "wikitable"

type Options struct {
	// TableClass is the css class marking the table to extract, defaults to
	// DefaultTableClass.
	TableClass string
	Timeout    time.Duration
	UserAgent  string
	// CloudflareBypass wraps the http transport to get through cloudflare's
	// browser checks.
	CloudflareBypass bool
	// HttpOutput receives a dump of every http exchange, can be nil.
	HttpOutput restyutil.InstrumentOutput
	// Console receives the diagnostic prints, defaults to os.Stdout.
	Console io.Writer
}

type Extractor struct {
	http       *resty.Client
	tableClass string
	console    io.Writer
}

func NewExtractor(opts Options) *Extractor {
	client := resty.New()
	if opts.CloudflareBypass {
		client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	}
	if opts.UserAgent != "" {
		client.SetHeader("user-agent", opts.UserAgent)
	}
	if opts.Timeout > 0 {
		client.SetTimeout(opts.Timeout)
	}
	telemetry.InstrumentResty(client, "banks-etl/extract/http")
	restyutil.InstrumentClient(client, opts.HttpOutput)

	e := &Extractor{
		http:       client,
		tableClass: opts.TableClass,
		console:    opts.Console,
	}
	if e.tableClass == "" {
		e.tableClass = DefaultTableClass
	}
	if e.console == nil {
		e.console = os.Stdout
	}
	return e
}

func isRemote(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

// Fetch retrieves and parses the page at `source`, which is either an http(s)
// url or a local file (a plain path or a file:// url).
func (e *Extractor) Fetch(ctx context.Context, source string) (*goquery.Document, error) {
	ctx, span := tracer.Start(ctx, "Fetch")
	defer span.End()
	span.SetAttributes(attribute.String("source", source))

	var body []byte
	if isRemote(source) {
		res, err := e.http.R().
			SetContext(ctx).
			Get(source)
		if err != nil {
			span.SetStatus(codes.Error, "failed to fetch")
			return nil, fmt.Errorf("fetch %s: %w", source, err)
		}
		if res.IsError() {
			span.SetStatus(codes.Error, "unexpected status")
			return nil, fmt.Errorf("fetch %s: unexpected status %s", source, res.Status())
		}
		body = res.Body()
	} else {
		path := source
		if strings.HasPrefix(source, "file://") {
			link, err := url.Parse(source)
			if err != nil {
				return nil, err
			}
			path = link.Path
		}
		var err error
		body, err = os.ReadFile(path)
		if err != nil {
			span.SetStatus(codes.Error, "failed to read file")
			return nil, fmt.Errorf("fetch %s: %w", source, err)
		}
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(body))
	if err != nil {
		span.SetStatus(codes.Error, "failed to parse html")
		return nil, fmt.Errorf("parse %s: %w", source, err)
	}
	return doc, nil
}

// Extract fetches `source` and extracts the first marked table of it into a
// frame of string columns named `columns`.
func (e *Extractor) Extract(ctx context.Context, source string, columns []string) (*frame.Frame, error) {
	doc, err := e.Fetch(ctx, source)
	if err != nil {
		return nil, err
	}
	return ExtractDocument(ctx, doc, e.tableClass, columns, e.console)
}

// ExtractDocument reads the first table with the class `tableClass` in doc.
// A row contributes the first len(columns) of its cells, with surrounding
// whitespace trimmed. Rows with fewer cells than that (ie. header rows) are
// skipped.
func ExtractDocument(ctx context.Context, doc *goquery.Document, tableClass string, columns []string, console io.Writer) (*frame.Frame, error) {
	ctx, span := tracer.Start(ctx, "ExtractDocument")
	defer span.End()

	rowsCounter, err := meter.Int64Counter(
		"extract_rows_total",
		metric.WithDescription("The total amount of table rows extracted."),
	)
	if err != nil {
		return nil, err
	}

	tables := htmlutil.TablesWithClass(ctx, doc, tableClass)
	fmt.Fprintf(console, "Number of tables found: %d\n", tables.Length())
	if tables.Length() == 0 {
		span.SetStatus(codes.Error, "no table")
		return nil, fmt.Errorf("%w: class %q", ErrNoTable, tableClass)
	}

	out := frame.NewStrings(columns...)
	skipped := 0
	var rowErr error
	tables.First().Find("tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		cells := htmlutil.CellTexts(row)
		if len(cells) < len(columns) {
			skipped++
			return true
		}
		rowErr = out.AppendRow(cells[:len(columns)])
		return rowErr == nil
	})
	if rowErr != nil {
		span.RecordError(rowErr)
		return nil, rowErr
	}

	slog.DebugContext(ctx, "extracted table", "rows", out.Len(), "skipped", skipped)
	span.SetAttributes(
		attribute.Int("rows", out.Len()),
		attribute.Int("skipped", skipped),
	)
	rowsCounter.Add(ctx, int64(out.Len()))

	return out, nil
}
