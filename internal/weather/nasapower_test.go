package weather

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hybrid_simulator/internal/cache"
	"hybrid_simulator/internal/model"
	"hybrid_simulator/internal/remote"
	"hybrid_simulator/internal/timeseries"
)

const samplePower = `{
	"type": "Feature",
	"properties": {
		"parameter": {
			"ALLSKY_SFC_SW_DWN": {"2024010100": 0, "2024010112": 250.5, "2024010113": -999},
			"ALLSKY_SFC_SW_DNI": {"2024010100": 0, "2024010112": 400, "2024010113": 380},
			"ALLSKY_SFC_SW_DIFF": {"2024010100": 0, "2024010112": 80, "2024010113": 75},
			"T2M": {"2024010100": 6.2, "2024010112": 9.1, "2024010113": 9.4},
			"WS10M": {"2024010100": 4.4, "2024010112": 5.0, "2024010113": 5.2}
		}
	},
	"messages": []
}`

func testFetcher(ts *httptest.Server, c cache.Cache) *remote.Fetcher {
	f := remote.NewFetcher(c)
	f.Client = ts.Client()
	f.RetryWait = time.Millisecond
	return f
}

func TestNASAPower_Fetch(t *testing.T) {
	var gotQuery url.Values
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(samplePower))
	}))
	defer ts.Close()

	n := &NASAPower{APIURL: ts.URL, Getter: testFetcher(ts, nil)}
	require.NoError(t, n.Validate())

	site := model.Site{Lat: 50.7, Lon: 30, Year: 2024}
	tbl, err := n.Fetch(context.Background(), site)
	require.NoError(t, err)

	assert.Equal(t, "ALLSKY_SFC_SW_DWN,ALLSKY_SFC_SW_DNI,ALLSKY_SFC_SW_DIFF,T2M,WS10M", gotQuery.Get("parameters"))
	assert.Equal(t, "RE", gotQuery.Get("community"))
	assert.Equal(t, "20240101", gotQuery.Get("start"))
	assert.Equal(t, "20241231", gotQuery.Get("end"))
	assert.Equal(t, "JSON", gotQuery.Get("format"))

	require.Equal(t, 3, tbl.Len())
	loc := timeseries.LocalZone(site.Lon)
	assert.True(t, tbl.Times()[1].Equal(time.Date(2024, 1, 1, 12, 0, 0, 0, loc)))
	assert.True(t, tbl.Times()[1].Equal(time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)), "keys are local standard time")

	ghi, _ := tbl.Column(model.ColGHI)
	assert.InDelta(t, 250.5, ghi[1], 1e-9)
	assert.True(t, math.IsNaN(ghi[2]), "fill value is missing")

	temp, _ := tbl.Column(model.ColAirTemp)
	assert.InDelta(t, 9.4, temp[2], 1e-9)
}

func TestNASAPower_Empty(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"properties":{"parameter":{}},"messages":["no data"]}`))
	}))
	defer ts.Close()

	n := &NASAPower{APIURL: ts.URL, Getter: testFetcher(ts, nil)}
	_, err := n.Fetch(context.Background(), model.Site{Lat: 1, Lon: 1, Year: 2024})
	assert.ErrorIs(t, err, ErrNoData)
}

func TestNASAPower_ServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer ts.Close()

	n := &NASAPower{APIURL: ts.URL, Getter: testFetcher(ts, nil)}
	_, err := n.Fetch(context.Background(), model.Site{Year: 2024})
	assert.Error(t, err)
}

func TestNASAPower_CachedSecondFetch(t *testing.T) {
	requests := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		_, _ = w.Write([]byte(samplePower))
	}))
	defer ts.Close()

	c, err := cache.NewFile(t.TempDir(), 0)
	require.NoError(t, err)
	n := &NASAPower{APIURL: ts.URL, Getter: testFetcher(ts, c)}

	site := model.Site{Lat: 50.7, Lon: -3.5, Year: 2024}
	_, err = n.Fetch(context.Background(), site)
	require.NoError(t, err)
	_, err = n.Fetch(context.Background(), site)
	require.NoError(t, err)
	assert.Equal(t, 1, requests)
}

func TestNASAPower_Validate(t *testing.T) {
	assert.Error(t, (&NASAPower{}).Validate())
	assert.Error(t, (&NASAPower{APIURL: DefaultNASAPowerURL}).Validate())
	assert.NoError(t, NewNASAPower(remote.NewFetcher(nil)).Validate())
}

func TestTableSource(t *testing.T) {
	_, err := TableSource{}.Fetch(context.Background(), model.Site{})
	assert.ErrorIs(t, err, ErrNoData)

	tbl := timeseries.New()
	tbl.AddRow(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), map[model.Column]float64{model.ColGHI: 1})
	src := TableSource{Label: "upload", Table: tbl}
	got, err := src.Fetch(context.Background(), model.Site{})
	require.NoError(t, err)
	assert.Same(t, tbl, got)
	assert.Equal(t, "upload", src.Name())
	assert.Equal(t, "table", TableSource{}.Name())
}
