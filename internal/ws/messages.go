package ws

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"hybrid_simulator/internal/simulator"
)

// Envelope wraps all WebSocket messages with a type discriminator.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Message type constants
const (
	// Client -> Server
	TypeSimRun = "sim:run"

	// Server -> Client
	TypeSimStatus     = "sim:status"
	TypeSimStage      = "sim:stage"
	TypeSimRecords    = "sim:records"
	TypeSimSummary    = "sim:summary"
	TypeSimError      = "sim:error"
	TypeConfigDefault = "config:defaults"
)

// Server -> Client messages

type SimStatusPayload struct {
	Running bool   `json:"running"`
	LastRun string `json:"last_run,omitempty"`
}

type StagePayload struct {
	RunID string `json:"run_id"`
	Stage string `json:"stage"`
}

// RecordPayload is one hourly row, keyed like the CSV export.
type RecordPayload struct {
	Time       string  `json:"time"`
	PV         float64 `json:"pv"`
	Wind       float64 `json:"wind"`
	Hydro      float64 `json:"hydro"`
	GenTotal   float64 `json:"gen_total"`
	Load       float64 `json:"load"`
	SoCWh      float64 `json:"soc_Wh"`
	SoCFrac    float64 `json:"soc_frac"`
	ChargeW    float64 `json:"pwr_charge_W"`
	DischargeW float64 `json:"pwr_discharge_W"`
	UnmetW     float64 `json:"unmet_W"`
	ExportW    float64 `json:"export_W"`
}

type RecordsPayload struct {
	RunID   string          `json:"run_id"`
	Records []RecordPayload `json:"records"`
}

type SummaryPayload struct {
	RunID   string            `json:"run_id"`
	Summary simulator.Summary `json:"summary"`
}

type ErrorPayload struct {
	RunID   string `json:"run_id,omitempty"`
	Message string `json:"message"`
}

func NewEnvelope(msgType string, payload any) ([]byte, error) {
	var raw json.RawMessage
	if payload != nil {
		var err error
		raw, err = json.Marshal(payload)
		if err != nil {
			return nil, err
		}
	}
	return json.Marshal(Envelope{Type: msgType, Payload: raw})
}

func RecordFromEngine(r simulator.HourlyRecord) RecordPayload {
	return RecordPayload{
		Time:       r.Time.Format(time.RFC3339),
		PV:         r.PV,
		Wind:       r.Wind,
		Hydro:      r.Hydro,
		GenTotal:   r.GenTotal,
		Load:       r.Load,
		SoCWh:      r.SoCWh,
		SoCFrac:    r.SoCFrac,
		ChargeW:    r.ChargeW,
		DischargeW: r.DischargeW,
		UnmetW:     r.UnmetW,
		ExportW:    r.ExportW,
	}
}

func runID(id uuid.UUID) string {
	return id.String()
}
