package currents

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"time"

	"hybrid_simulator/internal/model"
	"hybrid_simulator/internal/remote"
	"hybrid_simulator/internal/timeseries"
)

// DefaultOpenMeteoURL is the Open-Meteo marine forecast/archive endpoint.
const DefaultOpenMeteoURL = "https://marine-api.open-meteo.com/v1/marine"

// OpenMeteoMarine fetches hourly surface currents from the Open-Meteo marine
// API.
type OpenMeteoMarine struct {
	APIURL string
	Lat    float64
	Lon    float64
	Getter remote.Getter
}

func (o *OpenMeteoMarine) Name() string { return "open-meteo-marine" }

type openMeteoResponse struct {
	Hourly struct {
		Time      []string   `json:"time"`
		Velocity  []*float64 `json:"ocean_current_velocity"`
		Direction []*float64 `json:"ocean_current_direction"`
	} `json:"hourly"`
	Error  bool   `json:"error"`
	Reason string `json:"reason"`
}

func (o *OpenMeteoMarine) Fetch(ctx context.Context, index []time.Time) ([]float64, error) {
	if len(index) == 0 {
		return nil, ErrNoData
	}
	tbl, err := o.fetchTable(ctx, index[0], index[len(index)-1])
	if err != nil {
		return nil, err
	}
	return alignSpeed(tbl, index)
}

func (o *OpenMeteoMarine) fetchTable(ctx context.Context, start, end time.Time) (*timeseries.Table, error) {
	u, err := url.Parse(o.APIURL)
	if err != nil {
		return nil, fmt.Errorf("invalid api url: %w", err)
	}
	params := url.Values{}
	params.Set("latitude", strconv.FormatFloat(o.Lat, 'f', 4, 64))
	params.Set("longitude", strconv.FormatFloat(o.Lon, 'f', 4, 64))
	params.Set("hourly", "ocean_current_velocity,ocean_current_direction")
	params.Set("start_date", start.UTC().Format("2006-01-02"))
	params.Set("end_date", end.UTC().Format("2006-01-02"))
	params.Set("timezone", "GMT")
	params.Set("cell_selection", "sea")
	u.RawQuery = params.Encode()

	body, err := o.Getter.Get(ctx, u.String())
	if err != nil {
		return nil, fmt.Errorf("fetching open-meteo marine: %w", err)
	}

	var data openMeteoResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("parsing open-meteo response: %w", err)
	}
	if data.Error {
		return nil, fmt.Errorf("open-meteo: %s", data.Reason)
	}
	h := data.Hourly
	if len(h.Velocity) != len(h.Time) || len(h.Direction) != len(h.Time) {
		return nil, fmt.Errorf("open-meteo: mismatched arrays: %d times, %d velocities, %d directions",
			len(h.Time), len(h.Velocity), len(h.Direction))
	}

	tbl := timeseries.New()
	for i, raw := range h.Time {
		ts, err := time.ParseInLocation("2006-01-02T15:04", raw, time.UTC)
		if err != nil {
			continue
		}
		if h.Velocity[i] == nil || h.Direction[i] == nil {
			continue
		}
		// km/h, direction the current flows towards
		speed := math.Max(*h.Velocity[i], 0) / 3.6
		dir := *h.Direction[i] * math.Pi / 180
		tbl.AddRow(ts, map[model.Column]float64{
			model.ColCurrentSpeed: speed,
			model.ColCurrentU:     speed * math.Sin(dir),
			model.ColCurrentV:     speed * math.Cos(dir),
		})
	}
	if tbl.Len() == 0 {
		return nil, ErrNoData
	}
	tbl.Sort()
	return tbl, nil
}
