package http_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fwojciec/pageflow"
	pfhttp "github.com/fwojciec/pageflow/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetcher_Fetch(t *testing.T) {
	t.Parallel()

	t.Run("returns body text from server", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte("<html><body>Hello World</body></html>"))
		}))
		defer server.Close()

		resp, err := pfhttp.NewFetcher().Fetch(context.Background(), server.URL)
		require.NoError(t, err)

		text, err := resp.Text()
		require.NoError(t, err)
		assert.Equal(t, "<html><body>Hello World</body></html>", text)
		assert.Equal(t, server.URL, resp.URL())
	})

	t.Run("reports the final URL after redirects", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		mux.HandleFunc("/start", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "/end", http.StatusFound)
		})
		mux.HandleFunc("/end", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("done"))
		})
		server := httptest.NewServer(mux)
		defer server.Close()

		resp, err := pfhttp.NewFetcher().Fetch(context.Background(), server.URL+"/start")
		require.NoError(t, err)
		defer resp.Close()

		assert.Equal(t, server.URL+"/end", resp.URL())
	})

	t.Run("treats error status codes as successful fetches", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte("<title>Not Found</title>"))
		}))
		defer server.Close()

		resp, err := pfhttp.NewFetcher().Fetch(context.Background(), server.URL)
		require.NoError(t, err)

		assert.Equal(t, http.StatusNotFound, resp.(*pfhttp.Response).StatusCode())
		text, err := resp.Text()
		require.NoError(t, err)
		assert.Equal(t, "<title>Not Found</title>", text)
	})

	t.Run("decodes declared charset to UTF-8", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html; charset=iso-8859-1")
			_, _ = w.Write([]byte("<title>Caf\xe9</title>"))
		}))
		defer server.Close()

		resp, err := pfhttp.NewFetcher().Fetch(context.Background(), server.URL)
		require.NoError(t, err)

		text, err := resp.Text()
		require.NoError(t, err)
		assert.Equal(t, "<title>Café</title>", text)
	})

	t.Run("sends the configured user agent", func(t *testing.T) {
		t.Parallel()

		agents := make(chan string, 2)
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			agents <- r.UserAgent()
		}))
		defer server.Close()

		resp, err := pfhttp.NewFetcher().Fetch(context.Background(), server.URL)
		require.NoError(t, err)
		require.NoError(t, resp.Close())
		assert.Equal(t, pageflow.DefaultUserAgent, <-agents)

		resp, err = pfhttp.NewFetcher(pfhttp.WithUserAgent("custom/1.0")).Fetch(context.Background(), server.URL)
		require.NoError(t, err)
		require.NoError(t, resp.Close())
		assert.Equal(t, "custom/1.0", <-agents)
	})

	t.Run("respects custom timeout option", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(100 * time.Millisecond)
			_, _ = w.Write([]byte("response"))
		}))
		defer server.Close()

		fetcher := pfhttp.NewFetcher(pfhttp.WithTimeout(10 * time.Millisecond))

		_, err := fetcher.Fetch(context.Background(), server.URL)
		require.Error(t, err)
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("response"))
		}))
		defer server.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := pfhttp.NewFetcher().Fetch(ctx, server.URL)
		require.ErrorIs(t, err, context.Canceled)
	})

	t.Run("returns error for non-existent host", func(t *testing.T) {
		t.Parallel()

		fetcher := pfhttp.NewFetcher(pfhttp.WithConnectTimeout(100*time.Millisecond), pfhttp.WithTimeout(time.Second))

		_, err := fetcher.Fetch(context.Background(), "http://non-existent-host.invalid/page")
		require.Error(t, err)
	})

	t.Run("rejects malformed URLs", func(t *testing.T) {
		t.Parallel()

		_, err := pfhttp.NewFetcher().Fetch(context.Background(), "http://bad host/")
		assert.Equal(t, pageflow.EINVALID, pageflow.ErrorCode(err))
	})

	t.Run("uses the supplied transport", func(t *testing.T) {
		t.Parallel()

		fetcher := pfhttp.NewFetcher(pfhttp.WithTransport(roundTripFunc(func(*http.Request) (*http.Response, error) {
			return nil, errors.New("offline")
		})))

		_, err := fetcher.Fetch(context.Background(), "http://a.test")
		assert.ErrorContains(t, err, "offline")
	})
}

func TestResponse_Close(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("body"))
	}))
	defer server.Close()

	resp, err := pfhttp.NewFetcher().Fetch(context.Background(), server.URL)
	require.NoError(t, err)

	_, err = resp.Text()
	require.NoError(t, err)
	assert.NoError(t, resp.Close(), "closing after Text should be a no-op")
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

var _ pageflow.Fetcher = (*pfhttp.Fetcher)(nil)
