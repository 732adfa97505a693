// Package weather provides hourly environmental tables for a site-year.
package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"hybrid_simulator/internal/log"
	"hybrid_simulator/internal/model"
	"hybrid_simulator/internal/remote"
	"hybrid_simulator/internal/timeseries"
)

// ErrNoData is returned when a source has no usable rows.
var ErrNoData = errors.New("weather: no data")

// DefaultNASAPowerURL is the NASA POWER hourly point endpoint.
const DefaultNASAPowerURL = "https://power.larc.nasa.gov/api/temporal/hourly/point"

// fillValue marks missing data in NASA POWER responses.
const fillValue = -999.0

// nasaParameters maps POWER parameter names to table columns.
var nasaParameters = map[string]model.Column{
	"ALLSKY_SFC_SW_DWN":  model.ColGHI,
	"ALLSKY_SFC_SW_DNI":  model.ColDNI,
	"ALLSKY_SFC_SW_DIFF": model.ColDHI,
	"T2M":                model.ColAirTemp,
	"WS10M":              model.ColWindSpeed10,
}

// nasaParameterOrder fixes the request order so URLs, and cache keys, are
// stable.
var nasaParameterOrder = []string{"ALLSKY_SFC_SW_DWN", "ALLSKY_SFC_SW_DNI", "ALLSKY_SFC_SW_DIFF", "T2M", "WS10M"}

// Source produces the raw environmental table for a site-year. Tables are
// sorted; their zone is the source's own.
type Source interface {
	Name() string
	Fetch(ctx context.Context, site model.Site) (*timeseries.Table, error)
}

// NASAPower fetches hourly irradiance, temperature and wind from NASA POWER
// (community RE). Timestamps are in local standard time, which POWER
// defines by the same 15° meridian rule as timeseries.LocalZone.
type NASAPower struct {
	APIURL string
	Getter remote.Getter
}

func NewNASAPower(g remote.Getter) *NASAPower {
	return &NASAPower{APIURL: DefaultNASAPowerURL, Getter: g}
}

func (n *NASAPower) Name() string { return "nasa-power" }

// Validate ensures the configuration is valid.
func (n *NASAPower) Validate() error {
	if n.APIURL == "" {
		return fmt.Errorf("nasa power api url is required")
	}
	if _, err := url.Parse(n.APIURL); err != nil {
		return fmt.Errorf("failed to parse nasa power url (%s): %w", n.APIURL, err)
	}
	if n.Getter == nil {
		return fmt.Errorf("nasa power getter is required")
	}
	return nil
}

type nasaResponse struct {
	Properties struct {
		Parameter map[string]map[string]float64 `json:"parameter"`
	} `json:"properties"`
	Messages []string `json:"messages"`
}

// QueryURL returns the request URL for a site-year.
func (n *NASAPower) QueryURL(site model.Site) (string, error) {
	u, err := url.Parse(n.APIURL)
	if err != nil {
		return "", fmt.Errorf("invalid api url: %w", err)
	}

	params := url.Values{}
	params.Set("parameters", strings.Join(nasaParameterOrder, ","))
	params.Set("community", "RE")
	params.Set("latitude", strconv.FormatFloat(site.Lat, 'f', 4, 64))
	params.Set("longitude", strconv.FormatFloat(site.Lon, 'f', 4, 64))
	params.Set("start", fmt.Sprintf("%04d0101", site.Year))
	params.Set("end", fmt.Sprintf("%04d1231", site.Year))
	params.Set("time-standard", "LST")
	params.Set("format", "JSON")
	u.RawQuery = params.Encode()
	return u.String(), nil
}

func (n *NASAPower) Fetch(ctx context.Context, site model.Site) (*timeseries.Table, error) {
	logger := log.Ctx(ctx)

	u, err := n.QueryURL(site)
	if err != nil {
		return nil, err
	}
	body, err := n.Getter.Get(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("fetching nasa power: %w", err)
	}

	var data nasaResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("parsing nasa power response: %w", err)
	}
	if len(data.Properties.Parameter) == 0 {
		return nil, fmt.Errorf("nasa power %v: %w", data.Messages, ErrNoData)
	}

	loc := timeseries.LocalZone(site.Lon)
	rows := make(map[time.Time]map[model.Column]float64)
	var skipped int
	for param, values := range data.Properties.Parameter {
		col, ok := nasaParameters[param]
		if !ok {
			continue
		}
		for key, v := range values {
			ts, err := time.ParseInLocation("2006010215", key, loc)
			if err != nil {
				skipped++
				continue
			}
			if v <= fillValue {
				continue
			}
			row, ok := rows[ts]
			if !ok {
				row = make(map[model.Column]float64, len(nasaParameters))
				rows[ts] = row
			}
			row[col] = v
		}
	}
	if len(rows) == 0 {
		return nil, ErrNoData
	}

	tbl := timeseries.New()
	for ts, row := range rows {
		tbl.AddRow(ts, row)
	}
	tbl.Sort()

	logger.DebugContext(ctx, "fetched nasa power",
		slog.Int("rows", tbl.Len()),
		slog.Int("skipped_keys", skipped),
		slog.Int("year", site.Year))
	return tbl, nil
}
