package pipeline

import (
	"banks-etl/internal/extract"
	"banks-etl/internal/query"
	"banks-etl/internal/sink"
	"banks-etl/internal/transform"
	"banks-etl/lib/frame"
	"banks-etl/lib/progresslog"
	"banks-etl/lib/ratetable"
	"banks-etl/lib/restyutil"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("banks-etl/pipeline")

type Pipeline struct {
	config    Config
	extractor *extract.Extractor
	progress  progresslog.Logger
	console   io.Writer
}

// New builds a pipeline from config, diagnostic output goes to `console`
// (os.Stdout if nil).
func New(config Config, console io.Writer) (Pipeline, error) {
	if console == nil {
		console = os.Stdout
	}

	var httpOutput restyutil.InstrumentOutput
	if config.HttpDumpDir != "" {
		output, err := restyutil.NewFilesystemOutput(config.HttpDumpDir)
		if err != nil {
			return Pipeline{}, err
		}
		httpOutput = output
	}

	extractor := extract.NewExtractor(extract.Options{
		TableClass:       config.TableClass,
		Timeout:          config.HttpTimeout(),
		UserAgent:        config.UserAgent,
		CloudflareBypass: config.CloudflareBypass,
		HttpOutput:       httpOutput,
		Console:          console,
	})

	return Pipeline{
		config:    config,
		extractor: extractor,
		progress:  progresslog.New(config.LogFile),
		console:   console,
	}, nil
}

// WithProgress replaces the milestone logger.
func (p Pipeline) WithProgress(progress progresslog.Logger) Pipeline {
	p.progress = progress
	return p
}

// Extract scrapes the source table and applies the extract renames.
func (p Pipeline) Extract(ctx context.Context) (*frame.Frame, error) {
	f, err := p.extractor.Extract(ctx, p.config.SourceUrl, p.config.TableAttribs)
	if err != nil {
		return nil, err
	}
	err = f.Rename(p.config.ExtractRenames)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// Transform converts the market cap into every known currency and applies
// the load renames.
func (p Pipeline) Transform(ctx context.Context, f *frame.Frame) (*frame.Frame, error) {
	rates, err := ratetable.Load(p.config.ExchangeRateCsv)
	if err != nil {
		return nil, err
	}
	f, err = transform.Transform(ctx, f, rates)
	if err != nil {
		return nil, err
	}
	err = f.Rename(p.config.LoadRenames)
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (p Pipeline) LoadCSV(ctx context.Context, f *frame.Frame) error {
	return sink.WriteCSV(ctx, p.config.OutputCsv, f)
}

func (p Pipeline) OpenStore() (*sql.DB, error) {
	return p.config.Store.OpenDB()
}

func (p Pipeline) LoadStore(ctx context.Context, db *sql.DB, f *frame.Frame) error {
	return sink.LoadTable(ctx, db, p.config.TableName, f)
}

func (p Pipeline) RunQueries(ctx context.Context, db *sql.DB) error {
	runner := query.NewRunner(db, p.console)
	for _, statement := range p.config.Queries {
		err := runner.Run(ctx, statement)
		if err != nil {
			return err
		}
	}
	return nil
}

// run holds what the stages hand to each other.
type run struct {
	frame *frame.Frame
	db    *sql.DB
}

type stage struct {
	name string
	do   func(ctx context.Context, r *run) error
	// milestone is written to the progress log once the stage succeeds.
	milestone string
}

func (p Pipeline) stages() []stage {
	return []stage{
		{
			name:      "preliminaries",
			do:        func(context.Context, *run) error { return nil },
			milestone: "Preliminaries complete. Initiating ETL process",
		},
		{
			name: "extract",
			do: func(ctx context.Context, r *run) (err error) {
				r.frame, err = p.Extract(ctx)
				return err
			},
			milestone: "Data extraction complete. Initiating Transformation process",
		},
		{
			name: "transform",
			do: func(ctx context.Context, r *run) (err error) {
				r.frame, err = p.Transform(ctx, r.frame)
				return err
			},
			milestone: "Data transformation complete. Initiating loading process",
		},
		{
			name: "load csv",
			do: func(ctx context.Context, r *run) error {
				return p.LoadCSV(ctx, r.frame)
			},
			milestone: "Data saved to CSV file",
		},
		{
			name: "open store",
			do: func(_ context.Context, r *run) (err error) {
				r.db, err = p.OpenStore()
				return err
			},
			milestone: "SQL Connection initiated.",
		},
		{
			name: "load store",
			do: func(ctx context.Context, r *run) error {
				return p.LoadStore(ctx, r.db, r.frame)
			},
			milestone: "Data loaded to Database as table. Running the query",
		},
		{
			name: "query",
			do: func(ctx context.Context, r *run) error {
				return p.RunQueries(ctx, r.db)
			},
			milestone: "Process Complete.",
		},
	}
}

// Run executes every stage in order, stopping at the first failure. The
// store is closed before returning whether or not the stages succeed.
func (p Pipeline) Run(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "Run")
	defer span.End()

	r := &run{}
	defer func() {
		if r.db != nil {
			r.db.Close()
		}
	}()

	for _, s := range p.stages() {
		stageCtx, stageSpan := tracer.Start(ctx, s.name)
		err := s.do(stageCtx, r)
		if err != nil {
			stageSpan.RecordError(err)
			stageSpan.SetStatus(codes.Error, "stage failed")
			stageSpan.End()
			span.SetStatus(codes.Error, s.name)
			return fmt.Errorf("%s: %w", s.name, err)
		}
		stageSpan.End()

		err = p.progress.Log(s.milestone)
		if err != nil {
			return err
		}
	}
	return nil
}
