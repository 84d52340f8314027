// Package server streams engine state and frames to browsers over a
// websocket and exposes a small HTTP control surface.
package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/errgroup"

	"github.com/san-kum/genlab/internal/config"
	"github.com/san-kum/genlab/internal/engine"
	"github.com/san-kum/genlab/internal/experiment"
	"github.com/san-kum/genlab/internal/export"
	"github.com/san-kum/genlab/internal/logging"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 16
	maxStreamSide  = 1024

	StateAction = "state"
	FrameAction = "frame"
)

type Message struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

func (m *Message) encode() []byte {
	data, _ := json.Marshal(m)
	return data
}

type StateInfo struct {
	Generator string `json:"generator,omitempty"`
	RunID     string `json:"run_id,omitempty"`
	Phase     string `json:"phase"`
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
}

type FrameInfo struct {
	Seq     int                `json:"seq"`
	Label   string             `json:"label"`
	Status  string             `json:"status"`
	Phase   string             `json:"phase"`
	Metrics map[string]float64 `json:"metrics,omitempty"`
	PNG     string             `json:"png"`
}

type StartRequest struct {
	Generator string `json:"generator"`
	Preset    string `json:"preset,omitempty"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Field   string `json:"field,omitempty"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Server owns at most one engine at a time. Starting a new generator
// cancels the previous one.
type Server struct {
	registry *experiment.Registry
	base     *config.Config

	mu      sync.Mutex
	clients map[*client]struct{}
	eng     *engine.Engine
	unsub   func()
	name    string
	runID   string
}

func New(registry *experiment.Registry, base *config.Config) *Server {
	return &Server{
		registry: registry,
		base:     base,
		clients:  make(map[*client]struct{}),
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws", s.serveWs)
	mux.HandleFunc("GET /state", s.handleState)
	mux.HandleFunc("GET /generators", s.handleGenerators)
	mux.HandleFunc("POST /start", s.handleStart)
	mux.HandleFunc("POST /cancel", s.handleCancel)
	return &requestLogger{handler: mux}
}

// ListenAndServe serves on addr until ctx ends, then shuts down.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Handler()}
	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		logging.Logger().Info("listening", "addr", addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	eg.Go(func() error {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(sctx)
	})
	err := eg.Wait()
	s.Close()
	return err
}

// Start replaces the running engine with a new one for gen.
func (s *Server) Start(gen, preset string) error {
	cfg := s.base
	if preset != "" {
		if cfg = config.GetPreset(config.Section(gen), preset); cfg == nil {
			return engine.Invalid("preset", "unknown preset "+preset)
		}
	}
	g, err := s.registry.Get(gen, cfg)
	if err != nil {
		return err
	}

	id := ulid.Make().String()
	eng := engine.New(g, engine.WithAutoTake(nil))
	unsub := eng.Subscribe(s.listener(gen, id))
	if err := eng.Start(); err != nil {
		unsub()
		eng.Close()
		return err
	}

	s.mu.Lock()
	old, oldUnsub := s.eng, s.unsub
	s.eng, s.unsub, s.name, s.runID = eng, unsub, gen, id
	s.mu.Unlock()

	if old != nil {
		oldUnsub()
		old.Cancel()
		old.Close()
	}
	logging.Logger().Info("run started", "generator", gen, "preset", preset, "run", id)
	return nil
}

func (s *Server) Cancel() {
	s.mu.Lock()
	eng := s.eng
	s.mu.Unlock()
	if eng != nil {
		eng.Cancel()
	}
}

func (s *Server) State() StateInfo {
	s.mu.Lock()
	eng, name, id := s.eng, s.name, s.runID
	s.mu.Unlock()
	if eng == nil {
		return stateInfo("", "", engine.State{Phase: engine.Ready, Status: engine.StatusReady})
	}
	return stateInfo(name, id, eng.State())
}

func stateInfo(name, runID string, st engine.State) StateInfo {
	info := StateInfo{Generator: name, RunID: runID, Phase: st.Phase.String(), Status: st.Status}
	if st.Err != nil {
		info.Error = st.Err.Error()
	}
	return info
}

// Close stops the engine and disconnects every client.
func (s *Server) Close() {
	s.mu.Lock()
	eng, unsub := s.eng, s.unsub
	s.eng, s.unsub = nil, nil
	clients := s.clients
	s.clients = make(map[*client]struct{})
	s.mu.Unlock()

	if eng != nil {
		unsub()
		eng.Cancel()
		eng.Close()
	}
	for c := range clients {
		close(c.send)
	}
}

// listener broadcasts the events of one run, labelled with its generator
// and run id.
func (s *Server) listener(name, id string) engine.Listener {
	return func(ev engine.Event) { s.broadcastEvent(name, id, ev) }
}

func (s *Server) broadcastEvent(name, id string, ev engine.Event) {
	m := Message{Type: StateAction, Data: stateInfo(name, id, ev.State)}
	if ev.Frame != nil {
		data, err := export.EncodePNG(export.Fit(ev.Frame.Image, maxStreamSide))
		if err != nil {
			logging.Logger().Warn("encode frame", "err", err)
			return
		}
		m = Message{Type: FrameAction, Data: FrameInfo{
			Seq:     ev.Frame.Seq,
			Label:   ev.Frame.Label,
			Status:  ev.State.Status,
			Phase:   ev.State.Phase.String(),
			Metrics: ev.Frame.Metrics,
			PNG:     base64.StdEncoding.EncodeToString(data),
		}}
	}
	s.broadcast(m.encode())
}

// broadcast drops the message for clients whose buffer is full.
func (s *Server) broadcast(msg []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		select {
		case c.send <- msg:
		default:
			logging.Logger().Debug("client slow, dropping message")
		}
	}
}

func (s *Server) register(c *client) {
	s.mu.Lock()
	s.clients[c] = struct{}{}
	n := len(s.clients)
	s.mu.Unlock()
	logging.Logger().Debug("client connected", "clients", n)
}

func (s *Server) unregister(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[c]; ok {
		delete(s.clients, c)
		close(c.send)
	}
}
