package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terralab/landcover-cli/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "2018"), 0o755))
	return &config.Config{
		Dataset: config.DatasetConfig{Root: root, SRID: 3035},
		Extract: config.ExtractConfig{RadiusMeters: 250, Segments: 64, PointsSRID: 4326, MaxConcurrentVintages: 2},
	}
}

func doRequest(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestServe_Healthz(t *testing.T) {
	h := newRouter(testConfig(t))

	rec := doRequest(t, h, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestServe_Vintages(t *testing.T) {
	h := newRouter(testConfig(t))

	rec := doRequest(t, h, http.MethodGet, "/v1/vintages", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Years []int `json:"years"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []int{2018}, resp.Years)
}

func TestServe_Vintages_NoDataset(t *testing.T) {
	cfg := testConfig(t)
	cfg.Dataset.Root = filepath.Join(t.TempDir(), "missing")
	h := newRouter(cfg)

	rec := doRequest(t, h, http.MethodGet, "/v1/vintages", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestServe_Legend(t *testing.T) {
	h := newRouter(testConfig(t))

	rec := doRequest(t, h, http.MethodGet, "/v1/legend?level=1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var entries []struct {
		Code  string `json:"code"`
		Label string `json:"label"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 5)
	assert.Equal(t, "1", entries[0].Code)
}

func TestServe_Legend_InvalidLevel(t *testing.T) {
	h := newRouter(testConfig(t))

	rec := doRequest(t, h, http.MethodGet, "/v1/legend?level=9", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, h, http.MethodGet, "/v1/legend?level=abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServe_Compositions_BadBody(t *testing.T) {
	h := newRouter(testConfig(t))

	rec := doRequest(t, h, http.MethodPost, "/v1/compositions", "{not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServe_Compositions_NoPoints(t *testing.T) {
	h := newRouter(testConfig(t))

	rec := doRequest(t, h, http.MethodPost, "/v1/compositions", `{"radius_m": 250}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "points are required")
}

func TestServe_Compositions_UnknownVintage(t *testing.T) {
	h := newRouter(testConfig(t))

	body := `{"points":[{"point_id":"1","longitude":5.1,"latitude":52.0,"year":2020}],"vintage":1999}`
	rec := doRequest(t, h, http.MethodPost, "/v1/compositions", body)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid vintage")
}
