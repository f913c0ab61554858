package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/LiorBanai/KUMO-AJA-Router/internal/kumo"
	"github.com/LiorBanai/KUMO-AJA-Router/internal/logging"
	"github.com/LiorBanai/KUMO-AJA-Router/internal/state"
)

// DefaultShutdownTimeout bounds the graceful shutdown.
const DefaultShutdownTimeout = 10 * time.Second

// Config holds the bridge configuration
type Config struct {
	Listen          string  // host:port to listen on
	CertPath        string  // Serve HTTPS when both CertPath and KeyPath are set
	KeyPath         string
	CommandRate     float64 // Commands per second per client IP, 0 = unlimited
	CommandBurst    int
	AllowedOrigins  []string // Websocket origins besides same-host, "*" allows all
	ShutdownTimeout time.Duration
	Breaker         BreakerSettings
	ResyncInterval  time.Duration // Full re-read of the router state, 0 = never
}

// Server bridges one router to HTTP and websocket clients. It keeps a mirror
// of the router current from the poll loop and fans every notification out
// to the websocket hub.
type Server struct {
	config    *Config
	client    *kumo.Client
	mirror    *state.Mirror
	hub       *Hub
	breaker   *CommandBreaker
	limiter   *RateLimiter
	upgrader  websocket.Upgrader
	tlsConfig *tls.Config

	mu           sync.Mutex
	ctx          context.Context
	httpServer   *http.Server
	subscription uuid.UUID
	subscribed   bool
	stopResync   context.CancelFunc
}

// New creates a bridge over a logged-in client.
func New(config *Config, client *kumo.Client) (*Server, error) {
	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = DefaultShutdownTimeout
	}
	if config.Breaker.ConsecutiveFailures == 0 {
		config.Breaker = DefaultBreakerSettings()
	}

	var tlsConfig *tls.Config
	if config.CertPath != "" && config.KeyPath != "" {
		var err error
		tlsConfig, err = NewTLSConfig(config.CertPath, config.KeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create TLS config: %w", err)
		}
	}

	s := &Server{
		config:    config,
		client:    client,
		mirror:    state.NewMirror(client.Address()),
		hub:       NewHub(),
		breaker:   NewCommandBreaker(config.Breaker),
		limiter:   NewRateLimiter(config.CommandRate, config.CommandBurst),
		tlsConfig: tlsConfig,
		ctx:       context.Background(),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	return s, nil
}

// Mirror returns the router mirror the bridge serves.
func (s *Server) Mirror() *state.Mirror { return s.mirror }

// Hub returns the websocket hub.
func (s *Server) Hub() *Hub { return s.hub }

// Attach loads the mirror, subscribes to the client's notifications, starts
// the resync timer when configured and starts the poll loop. Start calls it; tests call it directly.
func (s *Server) Attach(ctx context.Context) {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()

	s.mirror.Load(ctx, s.client)

	s.mu.Lock()
	if !s.subscribed {
		s.subscription = s.client.Subscribe(s.onNotification)
		s.subscribed = true
		if s.config.ResyncInterval > 0 {
			resyncCtx, cancel := context.WithCancel(ctx)
			s.stopResync = cancel
			go s.resync(resyncCtx, s.config.ResyncInterval)
		}
	}
	s.mu.Unlock()

	s.client.StartPolling(ctx)
}

// Detach stops the poll loop and drops the subscription.
func (s *Server) Detach() {
	s.client.StopPolling()

	s.mu.Lock()
	if s.subscribed {
		s.client.Unsubscribe(s.subscription)
		s.subscribed = false
	}
	if s.stopResync != nil {
		s.stopResync()
		s.stopResync = nil
	}
	s.mu.Unlock()
}

func (s *Server) onNotification(n kumo.Notification) {
	s.mirror.Apply(n)
	s.hub.Broadcast(MsgNotification, n)

	if n.Kind == kumo.KindTopologyReset {
		s.mu.Lock()
		ctx := s.ctx
		s.mu.Unlock()
		go s.reload(ctx)
	}
}

// reload re-reads the full router state after a topology change and pushes
// a fresh snapshot to every client.
func (s *Server) reload(ctx context.Context) {
	s.mirror.Load(ctx, s.client)
	s.hub.Broadcast(MsgSnapshot, s.mirror.Snapshot())
}

// resync re-reads the full router state every interval. Change events never
// report a destination losing its source, so only a full read clears it.
func (s *Server) resync(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			logging.Debug("Resyncing router state")
			s.reload(ctx)
		}
	}
}

// Start attaches to the router and serves until SIGINT, SIGTERM or a listener
// failure, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	listener, err := net.Listen("tcp", s.config.Listen)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Listen, err)
	}
	if s.tlsConfig != nil {
		listener = tls.NewListener(listener, s.tlsConfig)
	}

	s.Attach(ctx)

	s.mu.Lock()
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	httpServer := s.httpServer
	s.mu.Unlock()

	logging.Info("Starting KUMO bridge",
		zap.String("addr", listener.Addr().String()),
		zap.String("router", s.client.Address()),
		zap.Any("tls_info", GetTLSInfo(s.tlsConfig)),
	)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	errChan := make(chan error, 1)
	go func() {
		errChan <- httpServer.Serve(listener)
	}()

	select {
	case <-sigChan:
		logging.Info("Shutdown signal received, stopping bridge...")
	case <-ctx.Done():
		logging.Info("Context cancelled, stopping bridge...")
	case err := <-errChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.Detach()
			return fmt.Errorf("bridge server failed: %w", err)
		}
		return nil
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancelShutdown()
	return s.Shutdown(shutdownCtx)
}

// Shutdown stops polling, disconnects websocket clients and waits for
// in-flight HTTP requests until ctx ends.
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down bridge...")

	s.Detach()
	s.hub.CloseAll()

	s.mu.Lock()
	httpServer := s.httpServer
	s.mu.Unlock()

	var err error
	if httpServer != nil {
		if err = httpServer.Shutdown(ctx); err != nil {
			logging.Warn("Shutdown timeout, forcing close", zap.Error(err))
			_ = httpServer.Close()
		} else {
			logging.Info("All connections closed gracefully")
		}
	}

	logging.Sync()
	return err
}

// GetActiveConnections returns the number of websocket clients.
func (s *Server) GetActiveConnections() int {
	return s.hub.ClientCount()
}
