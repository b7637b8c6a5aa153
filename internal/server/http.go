package server

import (
	"fmt"
	"log"
	"net/http"
)

// Server is the HTTP monitor for the accelerator.
type Server struct {
	mux     *http.ServeMux
	handler *Handlers
	addr    string
}

// NewServer creates a new HTTP server.
func NewServer(addr string, handler *Handlers) *Server {
	s := &Server{
		mux:     http.NewServeMux(),
		handler: handler,
		addr:    addr,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	// API routes
	s.mux.HandleFunc("/api/transform", s.handler.HandleTransform)
	s.mux.HandleFunc("/api/frame", s.handler.HandleFrame)
	s.mux.HandleFunc("/api/capture", s.handler.HandleCapture)
	s.mux.HandleFunc("/api/status", s.handler.HandleStatus)
	s.mux.HandleFunc("/api/devices", s.handler.HandleDevices)

	// WebSocket
	s.mux.HandleFunc("/ws", s.handler.HandleWebSocket)
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	log.Printf("Starting server on %s", s.addr)
	fmt.Printf("\n  DSP Accelerator Monitor running at http://%s\n\n", s.addr)
	return http.ListenAndServe(s.addr, s.mux)
}
