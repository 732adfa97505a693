package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hybrid_simulator/internal/simulator"
)

type stubSource struct {
	res *simulator.Result
}

func (s stubSource) Last() *simulator.Result { return s.res }

func testResult() *simulator.Result {
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return &simulator.Result{
		Records: []simulator.HourlyRecord{{Time: ts, Load: 250, UnmetW: 250}},
		Summary: simulator.Summary{
			Site:          simulator.SiteInfo{Lat: 50.7, Lon: -3.5, TZ: "Etc/GMT-0", Year: 2024},
			EnergyKWh:     simulator.EnergyKWh{Load: 0.25, Unmet: 0.25},
			CurrentSource: "none",
		},
	}
}

func serve(t *testing.T, src resultSource, path string) *httptest.ResponseRecorder {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /download/{format}", downloadHandler(src))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestDownloadHandler_NoRun(t *testing.T) {
	rec := serve(t, stubSource{}, "/download/csv")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDownloadHandler_Formats(t *testing.T) {
	tests := []struct {
		format      string
		contentType string
		prefix      string
	}{
		{"csv", "text/csv", "time,pv,wind"},
		{"json", "application/json", "{"},
		{"xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "PK"},
		{"pdf", "application/pdf", "%PDF-"},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			rec := serve(t, stubSource{res: testResult()}, "/download/"+tt.format)
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.contentType, rec.Header().Get("Content-Type"))
			assert.Contains(t, rec.Header().Get("Content-Disposition"), "simulation_50.7_-3.5_2024."+tt.format)
			assert.True(t, strings.HasPrefix(rec.Body.String(), tt.prefix))
		})
	}
}

func TestDownloadHandler_UnknownFormat(t *testing.T) {
	rec := serve(t, stubSource{res: testResult()}, "/download/docx")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
