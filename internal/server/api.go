package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/LiorBanai/KUMO-AJA-Router/internal/kumo"
	"github.com/LiorBanai/KUMO-AJA-Router/internal/logging"
	"github.com/LiorBanai/KUMO-AJA-Router/internal/metrics"
)

// RouteRequest is the body of POST /api/route.
type RouteRequest struct {
	Destination int `json:"destination"`
	Source      int `json:"source"`
}

// LockRequest is the body of POST /api/lock.
type LockRequest struct {
	Destination int  `json:"destination"`
	Locked      bool `json:"locked"`
}

// LabelRequest is the body of POST /api/label.
type LabelRequest struct {
	Type kumo.PortType `json:"type"`
	Port int           `json:"port"`
	Line int           `json:"line"`
	Text string        `json:"text"`
}

// Health is the body of GET /healthz.
type Health struct {
	Status    string    `json:"status"`
	Connected bool      `json:"connected"`
	Polling   bool      `json:"polling"`
	LastPoll  time.Time `json:"last_poll"`
	Clients   int       `json:"clients"`
	Breaker   string    `json:"breaker"`
}

type errorBody struct {
	Error string `json:"error"`
	Hint  string `json:"hint,omitempty"`
}

// Handler returns the bridge's HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/state", s.handleState)
	mux.HandleFunc("POST /api/route", s.handleRoute)
	mux.HandleFunc("POST /api/lock", s.handleLock)
	mux.HandleFunc("POST /api/label", s.handleLabel)
	mux.HandleFunc("POST /api/poll", s.handlePoll)
	mux.HandleFunc("GET /ws", s.handleWS)
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /healthz", s.handleHealth)
	return logRequests(mux)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Unwrap lets http.ResponseController reach the hijacker for websockets.
func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/ws" {
			next.ServeHTTP(w, r)
			return
		}
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logging.LogHTTPRequest(r.RemoteAddr, r.Method, r.URL.Path, rec.status)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Debug("Failed to write response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	body := errorBody{Error: err.Error()}
	var devErr *kumo.DeviceError
	if errors.As(err, &devErr) {
		body.Error = kumo.GetShortErrorMessage(err)
		body.Hint = kumo.GetTroubleshootingHint(err)
	}
	writeJSON(w, status, body)
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4096))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body: " + err.Error()})
		return false
	}
	return true
}

func (s *Server) allow(w http.ResponseWriter, r *http.Request) bool {
	if s.limiter.Allow(clientKey(r)) {
		return true
	}
	writeJSON(w, http.StatusTooManyRequests, errorBody{Error: "too many commands, slow down"})
	return false
}

// validPort checks n against the mirrored port count.
func (s *Server) validPort(w http.ResponseWriter, what string, n int) bool {
	portCount := s.client.PortCount()
	if n < 1 || n > portCount {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: what + " out of range"})
		return false
	}
	return true
}

// commandFailed maps a command error to a response. Breaker rejections are
// 503, router failures 502.
func commandFailed(w http.ResponseWriter, err error) {
	if IsCircuitOpen(err) {
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: "router unavailable, commands paused"})
		return
	}
	writeError(w, http.StatusBadGateway, err)
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.mirror.Snapshot())
}

func (s *Server) handleRoute(w http.ResponseWriter, r *http.Request) {
	var req RouteRequest
	if !decode(w, r, &req) || !s.allow(w, r) {
		return
	}
	if !s.validPort(w, "destination", req.Destination) || !s.validPort(w, "source", req.Source) {
		return
	}
	if s.mirror.IsLocked(req.Destination) {
		writeJSON(w, http.StatusConflict, errorBody{Error: "destination is locked"})
		return
	}

	err := s.breaker.Execute("route", func() error {
		return s.client.Route(r.Context(), req.Destination, req.Source)
	})
	if err != nil {
		commandFailed(w, err)
		return
	}
	logging.Info("Route set",
		zap.Int("destination", req.Destination),
		zap.Int("source", req.Source),
		zap.String("remote_addr", r.RemoteAddr),
	)
	writeJSON(w, http.StatusOK, req)
}

func (s *Server) handleLock(w http.ResponseWriter, r *http.Request) {
	var req LockRequest
	if !decode(w, r, &req) || !s.allow(w, r) {
		return
	}
	if !s.validPort(w, "destination", req.Destination) {
		return
	}

	err := s.breaker.Execute("lock", func() error {
		return s.client.Lock(r.Context(), req.Destination, req.Locked)
	})
	if err != nil {
		commandFailed(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (s *Server) handleLabel(w http.ResponseWriter, r *http.Request) {
	var req LabelRequest
	if !decode(w, r, &req) || !s.allow(w, r) {
		return
	}
	if !s.validPort(w, "port", req.Port) {
		return
	}
	if req.Line != 1 && req.Line != 2 {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "line must be 1 or 2"})
		return
	}

	err := s.breaker.Execute("label", func() error {
		return s.client.TrySetLabel(r.Context(), req.Type, req.Port, req.Line, req.Text)
	})
	if err != nil {
		commandFailed(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (s *Server) handlePoll(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w, r) {
		return
	}
	if err := s.client.ForcePoll(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]time.Time{"last_poll": s.client.LastPoll()})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	h := Health{
		Status:    "ok",
		Connected: s.client.Connected(),
		Polling:   s.client.IsPolling(),
		LastPoll:  s.client.LastPoll(),
		Clients:   s.hub.ClientCount(),
		Breaker:   s.breaker.State(),
	}
	status := http.StatusOK
	if !h.Connected {
		h.Status = "disconnected"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, h)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Warn("WebSocket upgrade failed", zap.String("remote_addr", r.RemoteAddr), zap.Error(err))
		return
	}

	c := s.hub.AddClient(conn, r.RemoteAddr, s.mirror.Snapshot())
	go func() {
		defer s.hub.RemoveClient(c)
		readPump(conn)
	}()
}

// checkOrigin accepts same-host origins, requests without an Origin header
// and the configured allow list.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range s.config.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return u.Host == r.Host
}
