package currents

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"hybrid_simulator/internal/model"
	"hybrid_simulator/internal/remote"
	"hybrid_simulator/internal/timeseries"
)

// ERDDAP fetches surface currents (water_u, water_v) from an ERDDAP griddap
// dataset with dimensions time, depth, latitude, longitude, such as a HYCOM
// global reanalysis mirror. Longitude is sent in 0..360.
type ERDDAP struct {
	BaseURL   string
	DatasetID string
	Lat       float64
	Lon       float64
	Getter    remote.Getter
}

func (e *ERDDAP) Name() string { return "erddap:" + e.DatasetID }

type erddapResponse struct {
	Table struct {
		ColumnNames []string `json:"columnNames"`
		Rows        [][]any  `json:"rows"`
	} `json:"table"`
}

func (e *ERDDAP) Fetch(ctx context.Context, index []time.Time) ([]float64, error) {
	if len(index) == 0 {
		return nil, ErrNoData
	}
	tbl, err := e.fetchTable(ctx, index[0], index[len(index)-1])
	if err != nil {
		return nil, err
	}
	return alignSpeed(tbl, index)
}

// QueryURL builds the griddap request for the nearest grid point at the
// surface between start and end.
func (e *ERDDAP) QueryURL(start, end time.Time) string {
	lon360 := math.Mod(e.Lon+360, 360)
	sel := fmt.Sprintf("[(%s):1:(%s)][(0.0)][(%.4f)][(%.4f)]",
		start.UTC().Format(time.RFC3339), end.UTC().Format(time.RFC3339), e.Lat, lon360)
	query := "water_u" + sel + ",water_v" + sel
	return fmt.Sprintf("%s/%s.json?%s", strings.TrimRight(e.BaseURL, "/"), e.DatasetID, escapeConstraint(query))
}

func (e *ERDDAP) fetchTable(ctx context.Context, start, end time.Time) (*timeseries.Table, error) {
	body, err := e.Getter.Get(ctx, e.QueryURL(start, end))
	if err != nil {
		return nil, fmt.Errorf("fetching erddap %s: %w", e.DatasetID, err)
	}

	var data erddapResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("parsing erddap response: %w", err)
	}

	col := make(map[string]int, len(data.Table.ColumnNames))
	for i, name := range data.Table.ColumnNames {
		col[name] = i
	}
	ti, okT := col["time"]
	ui, okU := col["water_u"]
	vi, okV := col["water_v"]
	if !okT || !okU || !okV {
		return nil, fmt.Errorf("erddap response missing columns, got %v", data.Table.ColumnNames)
	}

	tbl := timeseries.New()
	for _, row := range data.Table.Rows {
		if len(row) <= max(ti, ui, vi) {
			continue
		}
		raw, ok := row[ti].(string)
		if !ok {
			continue
		}
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			continue
		}
		u, okU := row[ui].(float64)
		v, okV := row[vi].(float64)
		if !okU || !okV {
			// null over land or outside the domain
			continue
		}
		tbl.AddRow(ts.UTC(), map[model.Column]float64{
			model.ColCurrentU:     u,
			model.ColCurrentV:     v,
			model.ColCurrentSpeed: math.Hypot(u, v),
		})
	}
	if tbl.Len() == 0 {
		return nil, ErrNoData
	}
	tbl.Sort()
	return tbl, nil
}

// escapeConstraint percent-encodes the characters ERDDAP requires escaped
// in a griddap query.
func escapeConstraint(q string) string {
	r := strings.NewReplacer(
		"[", "%5B", "]", "%5D",
		"(", "%28", ")", "%29",
		":", "%3A", ",", "%2C",
	)
	return r.Replace(q)
}
