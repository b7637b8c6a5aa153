package server

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"sync"

	"github.com/jeongseonghan/dsp-accel/internal/audio"
	"github.com/jeongseonghan/dsp-accel/internal/fixed"
	"github.com/jeongseonghan/dsp-accel/internal/transfer"
)

// Prefilter is a filter block applied to captured samples before they enter
// the transform. Both the FIR filter and the IIR biquad satisfy it.
type Prefilter interface {
	Reset()
	ProcessBlock(block []int32) []int32
}

// Handlers holds the HTTP API handlers around one accelerator instance. A
// single mutex serializes block exchanges: the core is a one-channel device
// and concurrent requests must queue behind each other.
type Handlers struct {
	driver    *transfer.Driver
	session   *transfer.Session
	prefilter Prefilter // optional, capture path only
	wsHub     *WSHub
	mu        sync.Mutex
}

// NewHandlers creates API handlers around a driver and its frame session.
func NewHandlers(driver *transfer.Driver, session *transfer.Session) *Handlers {
	h := &Handlers{
		driver:  driver,
		session: session,
		wsHub:   NewWSHub(),
	}
	driver.OnProgress = func(moved, total int) {
		// Only report at coarse boundaries to keep the socket quiet.
		if moved == total || moved%64 == 0 {
			h.wsHub.BroadcastProgress("moving", "block transfer", moved, total)
		}
	}
	return h
}

// SetPrefilter installs a filter applied to captured samples before they
// enter the transform.
func (h *Handlers) SetPrefilter(f Prefilter) {
	h.prefilter = f
}

// HandleWebSocket handles WebSocket upgrade requests.
func (h *Handlers) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	h.wsHub.AddClient(conn)

	go func() {
		defer h.wsHub.RemoveClient(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}()
}

// HandleTransform runs one block through the accelerator.
// Request: {"samples": [[re, im], ...]} with exactly N float pairs.
// Response: {"bins": [[re, im], ...]} in natural bin order.
func (h *Handlers) HandleTransform(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Samples [][2]float64 `json:"samples"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Parse request: %v", err), http.StatusBadRequest)
		return
	}
	if len(req.Samples) != h.driver.N() {
		http.Error(w, fmt.Sprintf("Need exactly %d samples, got %d", h.driver.N(), len(req.Samples)),
			http.StatusBadRequest)
		return
	}

	format := h.driver.Format()
	block := make([]fixed.Complex, len(req.Samples))
	for i, s := range req.Samples {
		block[i] = format.FromFloats(s[0], s[1])
	}

	h.mu.Lock()
	result, err := h.driver.Transform(block)
	h.mu.Unlock()
	if err != nil {
		h.wsHub.BroadcastStatus("error", fmt.Sprintf("Transform failed: %v", err))
		http.Error(w, fmt.Sprintf("Transform: %v", err), http.StatusInternalServerError)
		return
	}

	bins := make([][2]float64, len(result))
	for i, c := range result {
		bins[i][0], bins[i][1] = format.ToFloats(c)
	}
	h.wsHub.BroadcastSpectrum(magnitudes(format, result))

	json.NewEncoder(w).Encode(map[string]interface{}{
		"n":    h.driver.N(),
		"bins": bins,
	})
}

// HandleFrame runs one raw transfer frame through the session.
// Request body: an encoded frame; response body: the encoded response frame.
func (h *Handlers) HandleFrame(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	request, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, fmt.Sprintf("Read request: %v", err), http.StatusBadRequest)
		return
	}

	h.mu.Lock()
	response, err := h.session.Handle(request)
	h.mu.Unlock()
	if err != nil {
		http.Error(w, fmt.Sprintf("Frame exchange: %v", err), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Write(response)
}

// HandleCapture grabs N samples from the default input device, transforms
// them, and broadcasts the spectrum. Capture and compute run in the
// background; the response acknowledges the start.
func (h *Handlers) HandleCapture(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !audio.HasInputDevice() {
		http.Error(w, "No input device available", http.StatusServiceUnavailable)
		return
	}

	go func() {
		h.mu.Lock()
		defer h.mu.Unlock()

		n := h.driver.N()
		h.wsHub.BroadcastStatus("capturing", fmt.Sprintf("Capturing %d samples...", n))

		capturer := audio.NewCapturer(0)
		if err := capturer.Open(); err != nil {
			h.wsHub.BroadcastStatus("error", fmt.Sprintf("Capture open failed: %v", err))
			return
		}
		defer capturer.Close()

		samples, err := capturer.ReadSamples(n)
		if err != nil {
			h.wsHub.BroadcastStatus("error", fmt.Sprintf("Capture failed: %v", err))
			return
		}

		format := h.driver.Format()
		raw := make([]int32, n)
		for i, s := range samples {
			// Scale down so the transform's bin growth stays in range.
			raw[i] = format.FromFloat(float64(s) / float64(n))
		}
		if h.prefilter != nil {
			h.prefilter.Reset()
			raw = h.prefilter.ProcessBlock(raw)
		}

		block := make([]fixed.Complex, n)
		for i, re := range raw {
			block[i] = fixed.Complex{Re: re}
		}

		result, err := h.driver.Transform(block)
		if err != nil {
			h.wsHub.BroadcastStatus("error", fmt.Sprintf("Transform failed: %v", err))
			return
		}

		h.wsHub.BroadcastSpectrum(magnitudes(format, result))
		h.wsHub.BroadcastStatus("completed", "Spectrum ready")
	}()

	json.NewEncoder(w).Encode(map[string]string{
		"status": "capturing",
	})
}

// HandleStatus returns the accelerator phase and counters.
func (h *Handlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	driverStats, coreStats := h.driver.Stats()
	exchanges, errors := h.session.Stats()

	json.NewEncoder(w).Encode(map[string]interface{}{
		"phase":     h.driver.Phase().String(),
		"n":         h.driver.N(),
		"format":    h.driver.Format().String(),
		"driver":    driverStats,
		"core":      coreStats,
		"exchanges": exchanges,
		"errors":    errors,
	})
}

// HandleDevices lists available capture devices.
func (h *Handlers) HandleDevices(w http.ResponseWriter, r *http.Request) {
	devices, err := audio.ListDevices()
	if err != nil {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  "error",
			"message": err.Error(),
		})
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":   "ok",
		"devices":  devices,
		"hasInput": audio.HasInputDevice(),
	})
}

func magnitudes(format fixed.Format, bins []fixed.Complex) []float64 {
	out := make([]float64, len(bins))
	for i, c := range bins {
		re, im := format.ToFloats(c)
		out[i] = math.Hypot(re, im)
	}
	return out
}
