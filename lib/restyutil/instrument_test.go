package restyutil

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"
)

type memoryOutput map[string]string

func (o memoryOutput) Write(id string, contents string) {
	o[id] = contents
}

func TestInstrumentClient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<table></table>"))
	}))
	defer server.Close()

	output := memoryOutput{}
	client := resty.New()
	InstrumentClient(client, output)

	_, err := client.R().Get(server.URL + "/page")
	require.NoError(t, err)
	_, err = client.R().Get(server.URL + "/page")
	require.NoError(t, err)

	require.Len(t, output, 2)
	message := output["1"]
	require.True(t, strings.HasPrefix(message, "> GET "+server.URL+"/page\n"))
	require.Contains(t, message, "< 200 OK "+server.URL+"/page (")
	require.Contains(t, message, ", 15 bytes)\n")
	require.Contains(t, message, "< Content-Type: text/html\n")
	require.True(t, strings.HasSuffix(message, "\n\n<table></table>"))
}

func TestInstrumentClientNilOutput(t *testing.T) {
	client := resty.New()
	InstrumentClient(client, nil)
}

func TestFilesystemOutput(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "resty")
	require.NoError(t, os.MkdirAll(dir, 0777))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stale"), []byte("x"), 0600))

	output, err := NewFilesystemOutput(dir)
	require.NoError(t, err)
	output.Write("1", "hello")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	contents, err := os.ReadFile(filepath.Join(dir, "1"))
	require.NoError(t, err)
	require.Equal(t, "hello", string(contents))
}
