package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/san-kum/genlab/internal/engine"
	"github.com/san-kum/genlab/internal/logging"
)

func respondWithError(w http.ResponseWriter, status int, err error) {
	resp := ErrorResponse{Error: http.StatusText(status), Message: err.Error()}
	var verr *engine.ValidationError
	if errors.As(err, &verr) {
		resp.Field = verr.Field
	}
	respondWithJSON(w, status, resp)
}

func respondWithJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logging.Logger().Warn("encode response", "err", err)
	}
}

func (s *Server) serveWs(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Logger().Warn("upgrade", "err", err)
		return
	}
	c := &client{conn: conn, server: s, send: make(chan []byte, sendBuffer)}
	st := Message{Type: StateAction, Data: s.State()}
	c.send <- st.encode()
	s.register(c)

	go c.writePump()
	go c.readPump()
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, s.State())
}

func (s *Server) handleGenerators(w http.ResponseWriter, r *http.Request) {
	out := make(map[string]string)
	for _, name := range s.registry.List() {
		out[name] = s.registry.Describe(name)
	}
	respondWithJSON(w, http.StatusOK, out)
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req StartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, err)
		return
	}
	if req.Generator == "" {
		respondWithError(w, http.StatusBadRequest, engine.Invalid("generator", "generator is required"))
		return
	}
	if err := s.Start(req.Generator, req.Preset); err != nil {
		respondWithError(w, http.StatusBadRequest, err)
		return
	}
	respondWithJSON(w, http.StatusAccepted, s.State())
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	s.Cancel()
	respondWithJSON(w, http.StatusOK, s.State())
}

type requestLogger struct {
	handler http.Handler
}

func (l *requestLogger) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	l.handler.ServeHTTP(w, r)
	logging.Logger().Debug("http", "method", r.Method, "path", r.URL.Path, "took", time.Since(start))
}
