package restserver

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/cbowes/flowmeterd/internal/state"
	"github.com/cbowes/flowmeterd/internal/types"
	"go.uber.org/zap"
)

func newTestHandlers() (*Handlers, *state.Store) {
	store := state.NewStore()
	ctrl := &Controller{
		ctx:    context.Background(),
		wg:     &sync.WaitGroup{},
		store:  store,
		logger: zap.NewNop().Sugar(),
	}
	return NewHandlers(ctrl), store
}

func sampleReading(name string, flow float64) types.Reading {
	return types.Reading{
		Timestamp:       time.Now(),
		MeterName:       name,
		MeterType:       "magflow",
		FlowRate:        flow,
		FlowRateRaw:     flow,
		RangeFullScale:  1000,
		TemperatureC:    21.5,
		SerialNumber:    "MF8041-007",
		FirmwareVersion: "2.1.4.0",
		Counters:        types.Counters{Success: 10, ChecksumErrors: 1},
	}
}

func TestGetStatus(t *testing.T) {
	h, store := newTestHandlers()
	store.Update(sampleReading("meter-a", 12.5))

	rec := httptest.NewRecorder()
	h.GetStatus(rec, httptest.NewRequest("GET", "/api/status", nil))

	if rec.Code != 200 {
		t.Fatalf("status code = %d, want 200", rec.Code)
	}

	var status []meterStatus
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if len(status) != 1 {
		t.Fatalf("got %d meters, want 1", len(status))
	}
	if status[0].Name != "meter-a" || status[0].SerialNumber != "MF8041-007" {
		t.Errorf("status = %+v, want meter-a / MF8041-007", status[0])
	}
	if status[0].Counters.Success != 10 || status[0].Counters.ChecksumErrors != 1 {
		t.Errorf("counters = %+v, want success=10 checksum=1", status[0].Counters)
	}
}

func TestGetStatusEmpty(t *testing.T) {
	h, _ := newTestHandlers()

	rec := httptest.NewRecorder()
	h.GetStatus(rec, httptest.NewRequest("GET", "/api/status", nil))

	var status []meterStatus
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if len(status) != 0 {
		t.Errorf("got %d meters from empty store, want 0", len(status))
	}
}

func TestGetFlowByMeter(t *testing.T) {
	h, store := newTestHandlers()
	store.Update(sampleReading("meter-a", 12.5))

	rec := httptest.NewRecorder()
	h.GetFlow(rec, httptest.NewRequest("GET", "/api/flow?meter=meter-a", nil))

	if rec.Code != 200 {
		t.Fatalf("status code = %d, want 200", rec.Code)
	}

	var reading types.Reading
	if err := json.Unmarshal(rec.Body.Bytes(), &reading); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if reading.FlowRate != 12.5 {
		t.Errorf("flow = %v, want 12.5", reading.FlowRate)
	}
}

func TestGetFlowUnknownMeter(t *testing.T) {
	h, _ := newTestHandlers()

	rec := httptest.NewRecorder()
	h.GetFlow(rec, httptest.NewRequest("GET", "/api/flow?meter=nope", nil))

	if rec.Code != 404 {
		t.Errorf("status code = %d, want 404", rec.Code)
	}
}

func TestGetFlowAll(t *testing.T) {
	h, store := newTestHandlers()
	store.Update(sampleReading("meter-a", 1))
	store.Update(sampleReading("meter-b", 2))

	rec := httptest.NewRecorder()
	h.GetFlow(rec, httptest.NewRequest("GET", "/api/flow", nil))

	var readings []types.Reading
	if err := json.Unmarshal(rec.Body.Bytes(), &readings); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if len(readings) != 2 {
		t.Errorf("got %d readings, want 2", len(readings))
	}
}
