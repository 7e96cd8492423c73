package whttp

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testServer(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/data.json", func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{"races":[]}}`))
	})
	mux.HandleFunc("/page.html", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html><head><title>\n Results </title></head></html>"))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestDownload(t *testing.T) {
	srv := testServer(t)
	client, err := NewClient("")
	require.NoError(t, err)

	dest := filepath.Join(t.TempDir(), "data", "2020-president-data.json")
	_, err = Download(context.Background(), srv.URL+"/data.json", dest, client)
	require.NoError(t, err)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":{"races":[]}}`, string(data))
}

func TestDownloadStatus(t *testing.T) {
	srv := testServer(t)
	client, err := NewClient("")
	require.NoError(t, err)

	dest := filepath.Join(t.TempDir(), "missing.json")
	res, err := Download(context.Background(), srv.URL+"/missing", dest, client)
	assert.True(t, errors.Is(err, ErrStatus))
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	_, statErr := os.Stat(dest)
	assert.True(t, os.IsNotExist(statErr))
}

func TestSendTitle(t *testing.T) {
	srv := testServer(t)
	client, err := NewClient("")
	require.NoError(t, err)

	res, err := Send(context.Background(), &Request{URL: srv.URL + "/page.html"}, client)
	require.NoError(t, err)
	assert.Equal(t, "Results", res.HTTPTitle)
}

func TestNewClientProxy(t *testing.T) {
	_, err := NewClient("http://127.0.0.1:8080")
	assert.NoError(t, err)
	_, err = NewClient("://bad")
	assert.Error(t, err)
}
