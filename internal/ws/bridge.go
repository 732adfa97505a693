package ws

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"hybrid_simulator/internal/log"
	"hybrid_simulator/internal/simulator"
)

// RecordBatchSize is the number of hourly records per sim:records message:
// one week.
const RecordBatchSize = 168

// Bridge implements simulator.Callback and broadcasts events to the WebSocket
// hub. Hourly records are sent in batches.
type Bridge struct {
	hub *Hub

	mu      sync.Mutex
	pending []RecordPayload
}

func NewBridge(hub *Hub) *Bridge {
	return &Bridge{hub: hub}
}

func (b *Bridge) broadcast(msgType string, payload any) {
	msg, err := NewEnvelope(msgType, payload)
	if err != nil {
		log.Ctx(context.Background()).Error("marshaling message",
			slog.String("type", msgType), slog.Any("error", err))
		return
	}
	b.hub.Broadcast(msg)
}

func (b *Bridge) OnStage(id uuid.UUID, s simulator.Stage) {
	b.broadcast(TypeSimStage, StagePayload{RunID: runID(id), Stage: string(s)})
}

func (b *Bridge) OnRecord(id uuid.UUID, r simulator.HourlyRecord) {
	b.mu.Lock()
	b.pending = append(b.pending, RecordFromEngine(r))
	var batch []RecordPayload
	if len(b.pending) >= RecordBatchSize {
		batch, b.pending = b.pending, nil
	}
	b.mu.Unlock()

	if batch != nil {
		b.broadcast(TypeSimRecords, RecordsPayload{RunID: runID(id), Records: batch})
	}
}

func (b *Bridge) OnSummary(id uuid.UUID, s simulator.Summary) {
	b.flush(id)
	b.broadcast(TypeSimSummary, SummaryPayload{RunID: runID(id), Summary: s})
}

// flush sends any partial batch.
func (b *Bridge) flush(id uuid.UUID) {
	b.mu.Lock()
	batch := b.pending
	b.pending = nil
	b.mu.Unlock()

	if len(batch) > 0 {
		b.broadcast(TypeSimRecords, RecordsPayload{RunID: runID(id), Records: batch})
	}
}

// Fail reports a failed run to every client and drops buffered records.
func (b *Bridge) Fail(id uuid.UUID, err error) {
	b.mu.Lock()
	b.pending = nil
	b.mu.Unlock()

	p := ErrorPayload{Message: err.Error()}
	if id != uuid.Nil {
		p.RunID = runID(id)
	}
	b.broadcast(TypeSimError, p)
}
