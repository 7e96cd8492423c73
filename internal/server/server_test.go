package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benfordscope/benfordscope/pkg/benford"
	"github.com/benfordscope/benfordscope/pkg/entity"
	"github.com/benfordscope/benfordscope/pkg/storage"
)

func newTestServer(t *testing.T, user, pass string) (*httptest.Server, *storage.DB) {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "archive.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	s := New(db, user, pass)
	s.Gatherer = prometheus.NewRegistry()
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return srv, db
}

func get(t *testing.T, url string, v interface{}) int {
	t.Helper()
	res, err := http.Get(url)
	require.NoError(t, err)
	defer res.Body.Close()
	if v != nil && res.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(res.Body).Decode(v))
	}
	return res.StatusCode
}

func TestFindingsAPI(t *testing.T) {
	srv, db := newTestServer(t, "", "")

	assert.Equal(t, http.StatusNotFound, get(t, srv.URL+"/api/findings", nil))

	results := []*entity.Result{{
		ID: "GA", Name: "Georgia", FraudPercent: 0.5,
		Findings: []benford.Finding{
			{Kind: benford.KindTimeSeries, Digit: 1, Fields: []int{3}, Total: 400, Score: 0.99},
			{Kind: benford.KindCrossSection, Digit: 2, Fields: []int{0}, Total: 300, Score: 0.95},
		},
	}}
	_, err := db.SaveRun(context.Background(), &storage.Run{Year: 2020, Source: "nytimes"}, results)
	require.NoError(t, err)

	var findings []storage.FindingRow
	require.Equal(t, http.StatusOK, get(t, srv.URL+"/api/findings?min_score=0.98", &findings))
	require.Len(t, findings, 1)
	assert.Equal(t, "GA", findings[0].EntityID)
	assert.Equal(t, "time-series", findings[0].Kind)

	var stats []storage.YearStats
	require.Equal(t, http.StatusOK, get(t, srv.URL+"/api/stats", &stats))
	require.Len(t, stats, 1)
	assert.Equal(t, 2, stats[0].FindingCount)

	var runs []storage.Run
	require.Equal(t, http.StatusOK, get(t, srv.URL+"/api/runs", &runs))
	assert.Len(t, runs, 1)

	assert.Equal(t, http.StatusBadRequest, get(t, srv.URL+"/api/findings?year=abc", nil))
	assert.Equal(t, http.StatusOK, get(t, srv.URL+"/metrics", nil))
}

func TestBasicAuth(t *testing.T) {
	srv, _ := newTestServer(t, "admin", "secret")

	assert.Equal(t, http.StatusUnauthorized, get(t, srv.URL+"/api/stats", nil))

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/stats", nil)
	require.NoError(t, err)
	req.SetBasicAuth("admin", "secret")
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
}
