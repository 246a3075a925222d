package main_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cloud.google.com/go/civil"
	"github.com/fwojciec/pageflow"
	main "github.com/fwojciec/pageflow/cmd/pageflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newSite serves two pages and a sitemap listing them.
func newSite(t *testing.T) *httptest.Server {
	t.Helper()

	var srv *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/a", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><head><title>A</title><meta name="description" content="first"></head></html>`))
	})
	mux.HandleFunc("/b", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><head><title>B</title></head></html>`))
	})
	mux.HandleFunc("/sitemap.xml", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<urlset><url><loc>%[1]s/a</loc><lastmod>2024-05-06</lastmod></url><url><loc>%[1]s/b</loc></url></urlset>`, srv.URL)
	})
	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// writeInput writes tab-separated rows to a temp file and returns its path.
func writeInput(t *testing.T, rows ...string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "urls.csv")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(rows, "\n")+"\n"), 0o644))
	return path
}

func readResources(t *testing.T, data []byte) []pageflow.Resource {
	t.Helper()

	var resources []pageflow.Resource
	require.NoError(t, json.Unmarshal(data, &resources))
	return resources
}

func TestMain_Run_Help(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer

	err := main.NewMain().Run(context.Background(), []string{"--help"}, &stdout, &stderr)

	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "pageflow")
	assert.Contains(t, stdout.String(), "history")
}

func TestMain_Run_Version(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer

	err := main.NewMain().Run(context.Background(), []string{"--version"}, &stdout, &stderr)

	require.NoError(t, err)
	assert.Contains(t, stdout.String(), pageflow.Version)
}

func TestMain_Run_FetchesAndWritesFile(t *testing.T) {
	t.Parallel()

	// Given two reachable pages and one unreachable host
	site := newSite(t)
	input := writeInput(t,
		"2024-01-01\t"+site.URL+"/a",
		"2024-01-02\t"+site.URL+"/b",
		"2024-01-03\thttp://127.0.0.1:1/",
		"garbage row",
	)
	output := filepath.Join(t.TempDir(), "out.json")
	var stdout, stderr bytes.Buffer

	// When running the pipeline
	err := main.NewMain().Run(context.Background(), []string{"run", "-i", input, "-o", output, "-c", "2", "--channel-size", "1"}, &stdout, &stderr)

	// Then the reachable pages are written and the rest dropped
	require.NoError(t, err)
	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.ElementsMatch(t, []pageflow.Resource{
		{URL: site.URL + "/a", Title: "A", Description: "first", Timestamp: civil.Date{Year: 2024, Month: 1, Day: 1}},
		{URL: site.URL + "/b", Title: "B", Description: "", Timestamp: civil.Date{Year: 2024, Month: 1, Day: 2}},
	}, readResources(t, data))
	assert.Contains(t, stderr.String(), "Time elapsed:")
	assert.Empty(t, stdout.String())
}

func TestMain_Run_DefaultsToStdout(t *testing.T) {
	t.Parallel()

	site := newSite(t)
	input := writeInput(t, "2024-01-01\t"+site.URL+"/a")
	var stdout, stderr bytes.Buffer

	// Run is the default command.
	err := main.NewMain().Run(context.Background(), []string{"--input", input}, &stdout, &stderr)

	require.NoError(t, err)
	resources := readResources(t, stdout.Bytes())
	require.Len(t, resources, 1)
	assert.Equal(t, "A", resources[0].Title)
}

func TestMain_Run_EmptyInput(t *testing.T) {
	t.Parallel()

	input := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, os.WriteFile(input, nil, 0o644))
	var stdout, stderr bytes.Buffer

	err := main.NewMain().Run(context.Background(), []string{"run", "-i", input}, &stdout, &stderr)

	require.NoError(t, err)
	assert.Equal(t, "[]\n", stdout.String())
}

func TestMain_Run_ReadsSitemap(t *testing.T) {
	t.Parallel()

	site := newSite(t)
	var stdout, stderr bytes.Buffer

	err := main.NewMain().Run(context.Background(), []string{"run", "--sitemap", site.URL + "/sitemap.xml", "--rps", "100", "--burst", "2"}, &stdout, &stderr)

	require.NoError(t, err)
	resources := readResources(t, stdout.Bytes())
	require.Len(t, resources, 2)
	for _, r := range resources {
		if r.URL == site.URL+"/a" {
			assert.Equal(t, civil.Date{Year: 2024, Month: 5, Day: 6}, r.Timestamp)
		}
	}
}

func TestMain_Run_MissingInput(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer

	err := main.NewMain().Run(context.Background(), []string{"run", "-i", filepath.Join(t.TempDir(), "missing.csv")}, &stdout, &stderr)

	require.Error(t, err)
	assert.Equal(t, pageflow.ENOTFOUND, pageflow.ErrorCode(err))
	assert.Contains(t, stderr.String(), "input file not found")
}

func TestMain_Run_RejectsInvalidFlags(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		args []string
	}{
		{name: "unknown log level", args: []string{"--log-level", "loud", "run"}},
		{name: "zero concurrency", args: []string{"run", "-c", "0"}},
		{name: "negative channel size", args: []string{"run", "--channel-size=-1"}},
		{name: "unknown extractor", args: []string{"run", "--extractor", "regex"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			input := writeInput(t, "2024-01-01\thttp://a.test")
			var stdout, stderr bytes.Buffer

			err := main.NewMain().Run(context.Background(), append(tt.args, "-i", input), &stdout, &stderr)

			assert.Error(t, err)
		})
	}
}

func TestMain_Run_ConfigFile(t *testing.T) {
	t.Parallel()

	site := newSite(t)
	dir := t.TempDir()
	output := filepath.Join(dir, "from-config.json")
	config := filepath.Join(dir, "pageflow.json")
	require.NoError(t, os.WriteFile(config, []byte(fmt.Sprintf(`{"output": %q}`, output)), 0o644))
	input := writeInput(t, "2024-01-01\t"+site.URL+"/a")
	var stdout, stderr bytes.Buffer

	err := main.NewMain().Run(context.Background(), []string{"--config", config, "run", "-i", input}, &stdout, &stderr)

	require.NoError(t, err)
	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Len(t, readResources(t, data), 1)
}

func TestMain_Run_EnvironmentVariables(t *testing.T) {
	site := newSite(t)
	output := filepath.Join(t.TempDir(), "from-env.json")
	t.Setenv("PAGEFLOW_OUTPUT", output)
	input := writeInput(t, "2024-01-01\t"+site.URL+"/b")
	var stdout, stderr bytes.Buffer

	err := main.NewMain().Run(context.Background(), []string{"run", "-i", input}, &stdout, &stderr)

	require.NoError(t, err)
	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Len(t, readResources(t, data), 1)
}

func TestMain_Run_ServesMetrics(t *testing.T) {
	t.Parallel()

	site := newSite(t)
	input := writeInput(t, "2024-01-01\t"+site.URL+"/a")
	var stdout, stderr bytes.Buffer

	err := main.NewMain().Run(context.Background(), []string{"run", "-i", input, "--metrics-addr", "127.0.0.1:0"}, &stdout, &stderr)

	require.NoError(t, err)
	assert.Contains(t, stderr.String(), "serving metrics")
}

func TestMain_History(t *testing.T) {
	t.Parallel()

	// Given a run that stored its resources
	site := newSite(t)
	db := filepath.Join(t.TempDir(), "pageflow.db")
	input := writeInput(t,
		"2024-01-01\t"+site.URL+"/a",
		"2024-01-02\t"+site.URL+"/b",
	)
	var stdout, stderr bytes.Buffer
	require.NoError(t, main.NewMain().Run(context.Background(), []string{"run", "-i", input, "--db", db}, &stdout, &stderr))

	t.Run("lists stored resources", func(t *testing.T) {
		var stdout, stderr bytes.Buffer

		err := main.NewMain().Run(context.Background(), []string{"history", "--db", db}, &stdout, &stderr)

		require.NoError(t, err)
		assert.Contains(t, stdout.String(), site.URL+"/a")
		assert.Contains(t, stdout.String(), site.URL+"/b")
		assert.Contains(t, stdout.String(), "2024-01-02")
	})

	t.Run("filters by URL", func(t *testing.T) {
		var stdout, stderr bytes.Buffer

		err := main.NewMain().Run(context.Background(), []string{"history", "--db", db, "--url", site.URL + "/b"}, &stdout, &stderr)

		require.NoError(t, err)
		assert.NotContains(t, stdout.String(), site.URL+"/a")
		assert.Contains(t, stdout.String(), site.URL+"/b")
	})

	t.Run("reports an empty database", func(t *testing.T) {
		var stdout, stderr bytes.Buffer

		err := main.NewMain().Run(context.Background(), []string{"history", "--db", filepath.Join(t.TempDir(), "empty.db")}, &stdout, &stderr)

		require.NoError(t, err)
		assert.Contains(t, stdout.String(), "No resources found")
	})

	t.Run("requires a database", func(t *testing.T) {
		var stdout, stderr bytes.Buffer

		err := main.NewMain().Run(context.Background(), []string{"history"}, &stdout, &stderr)

		assert.Error(t, err)
	})
}
