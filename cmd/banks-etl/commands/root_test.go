package commands

import (
	"banks-etl/lib/telemetry"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

type recordingExporter struct {
	mu       sync.Mutex
	names    []string
	shutdown bool
}

func (e *recordingExporter) ExportSpans(_ context.Context, spans []sdktrace.ReadOnlySpan) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, s := range spans {
		e.names = append(e.names, s.Name())
	}
	return nil
}

func (e *recordingExporter) Shutdown(context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.shutdown = true
	return nil
}

func TestRunFlushesTelemetryOnFailure(t *testing.T) {
	exporter := &recordingExporter{}
	provider := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
	otel.SetTracerProvider(provider)

	dir := t.TempDir()
	configPath := filepath.Join(dir, "banks-etl.json5")
	err := os.WriteFile(configPath, []byte(`{
		source_url: "`+filepath.Join(dir, "missing.html")+`",
		log_file: "`+filepath.Join(dir, "code_log.txt")+`",
		output_csv: "`+filepath.Join(dir, "banks.csv")+`",
		store: { file: "`+filepath.Join(dir, "Banks.db")+`" },
	}`), 0600)
	require.NoError(t, err)

	var out bytes.Buffer
	err = run(context.Background(), telemetry.Telemetry{TracerProvider: provider}, configPath, &out)
	require.ErrorContains(t, err, "extract")

	exporter.mu.Lock()
	defer exporter.mu.Unlock()
	require.True(t, exporter.shutdown)
	require.Contains(t, exporter.names, "Run")
	require.Contains(t, exporter.names, "extract")
}

func TestRunInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "banks-etl.json5")
	err := os.WriteFile(configPath, []byte(`{ not json`), 0600)
	require.NoError(t, err)

	err = run(context.Background(), telemetry.Telemetry{}, configPath, &bytes.Buffer{})
	require.ErrorContains(t, err, "read config")
}
