package restserver

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/cbowes/flowmeterd/internal/types"
	"github.com/gorilla/websocket"
)

// Handlers contains all HTTP handlers for the REST server
type Handlers struct {
	controller *Controller
	upgrader   websocket.Upgrader
}

// NewHandlers creates a new handlers instance
func NewHandlers(ctrl *Controller) *Handlers {
	return &Handlers{
		controller: ctrl,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// meterStatus is the per-meter summary returned by the status endpoint
type meterStatus struct {
	Name            string         `json:"name"`
	Type            string         `json:"type"`
	SerialNumber    string         `json:"serial_number"`
	FirmwareVersion string         `json:"firmware_version"`
	LastSeen        time.Time      `json:"last_seen"`
	Counters        types.Counters `json:"counters"`
}

// GetStatus returns identity and counters for every meter that has
// reported at least once
func (h *Handlers) GetStatus(w http.ResponseWriter, req *http.Request) {
	readings := h.controller.store.All()

	status := make([]meterStatus, 0, len(readings))
	for _, r := range readings {
		status = append(status, meterStatus{
			Name:            r.MeterName,
			Type:            r.MeterType,
			SerialNumber:    r.SerialNumber,
			FirmwareVersion: r.FirmwareVersion,
			LastSeen:        r.Timestamp,
			Counters:        r.Counters,
		})
	}

	writeJSON(w, status)
}

// GetFlow returns the latest reading, either for the meter named in
// the ?meter= query parameter or for all meters
func (h *Handlers) GetFlow(w http.ResponseWriter, req *http.Request) {
	if name := req.URL.Query().Get("meter"); name != "" {
		reading, ok := h.controller.store.Latest(name)
		if !ok {
			http.Error(w, "no readings for meter", http.StatusNotFound)
			return
		}
		writeJSON(w, reading)
		return
	}

	writeJSON(w, h.controller.store.All())
}

// GetLive upgrades to a WebSocket and pushes every new reading to the
// client until it disconnects or the server shuts down
func (h *Handlers) GetLive(w http.ResponseWriter, req *http.Request) {
	conn, err := h.upgrader.Upgrade(w, req, nil)
	if err != nil {
		h.controller.logger.Errorf("websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ch := h.controller.store.Subscribe()
	defer h.controller.store.Unsubscribe(ch)

	for {
		select {
		case <-h.controller.ctx.Done():
			return
		case <-req.Context().Done():
			return
		case reading, ok := <-ch:
			if !ok {
				return
			}
			if err := conn.WriteJSON(reading); err != nil {
				h.controller.logger.Debugf("websocket client gone: %v", err)
				return
			}
		}
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
