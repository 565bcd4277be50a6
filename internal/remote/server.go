// Package remote exposes the showroom over HTTP: JSON commands in, property
// change events out over a websocket.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Faultbox/showroom/internal/engine/gpu"
	"github.com/Faultbox/showroom/internal/engine/loader"
	"github.com/Faultbox/showroom/internal/logger"
	"github.com/Faultbox/showroom/internal/notify"
	"github.com/Faultbox/showroom/internal/showroom"
)

// Target is the renderer side. Post is the only method called from HTTP
// goroutines; ExecuteAsync and Information run inside posted functions.
type Target interface {
	Post(fn func())
	ExecuteAsync(ctx context.Context, cmd showroom.Command) <-chan error
	Information() string
}

// Server routes remote requests to a Target.
type Server struct {
	target Target
	hub    *Hub
	router *mux.Router
	log    *zap.Logger

	upgrader websocket.Upgrader
}

// New builds the routes. Call Watch to stream events.
func New(target Target) *Server {
	s := &Server{
		target: target,
		log:    logger.Named("remote"),
		router: mux.NewRouter(),
	}
	s.hub = NewHub(s.log)
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     func(*http.Request) bool { return true },
	}

	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/command", s.handleCommand).Methods(http.MethodPost)
	api.HandleFunc("/command/{name}", s.handleNamedCommand).Methods(http.MethodPost)
	api.HandleFunc("/info", s.handleInfo).Methods(http.MethodGet)
	api.HandleFunc("/events", s.handleEvents)
	return s
}

// Watch forwards every change on n to websocket clients. The returned
// function stops forwarding.
func (s *Server) Watch(n *notify.Notifier) func() {
	return n.Subscribe(s.hub.Publish)
}

// Hub returns the event hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Handler returns the router wrapped with request logging and panic recovery.
func (s *Server) Handler() http.Handler {
	access := zap.NewStdLog(s.log.Named("http")).Writer()
	return handlers.RecoveryHandler(handlers.PrintRecoveryStack(true))(
		handlers.CombinedLoggingHandler(access, s.router))
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		s.hub.Close()
		shutdown, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdown)
	}()

	s.log.Info("remote control listening", zap.String("addr", ln.Addr().String()))
	if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// dispatch runs fn on the renderer goroutine and waits for it.
func dispatch[T any](ctx context.Context, t Target, fn func() T) (T, error) {
	result := make(chan T, 1)
	t.Post(func() { result <- fn() })
	select {
	case v := <-result:
		return v, nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	var cmd showroom.Command
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, readLimit)).Decode(&cmd); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.execute(w, r, cmd)
}

func (s *Server) handleNamedCommand(w http.ResponseWriter, r *http.Request) {
	s.execute(w, r, showroom.Command{
		Name:  mux.Vars(r)["name"],
		Value: r.URL.Query().Get("value"),
	})
}

// execute waits for the command's outcome, including background loads. The
// load itself is not bound to the request, so a client hanging up does not
// cancel it.
func (s *Server) execute(w http.ResponseWriter, r *http.Request, cmd showroom.Command) {
	result, err := dispatch(r.Context(), s.target, func() <-chan error {
		return s.target.ExecuteAsync(context.Background(), cmd)
	})
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	var cmdErr error
	select {
	case cmdErr = <-result:
	case <-r.Context().Done():
		writeError(w, http.StatusServiceUnavailable, r.Context().Err())
		return
	}
	if cmdErr != nil {
		s.log.Debug("command rejected", zap.String("name", cmd.Name), zap.Error(cmdErr))
		writeError(w, statusOf(cmdErr), cmdErr)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	info, err := dispatch(r.Context(), s.target, s.target.Information)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"information": info})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	c := s.hub.add(conn)
	go c.writePump(s.log)
	go c.readPump(s.hub)
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, showroom.ErrUnknownCommand):
		return http.StatusNotFound
	case errors.Is(err, showroom.ErrNoCar), errors.Is(err, showroom.ErrDisposed), errors.Is(err, context.Canceled):
		return http.StatusConflict
	case errors.As(err, new(*loader.LoadError)):
		return http.StatusUnprocessableEntity
	case errors.As(err, new(*gpu.ResourceError)):
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
