// Package restapi implements the daemon's localhost-only command
// front-end: GET /cmd/{name} queues a "Cmd<Name>" event for the
// interpreter, GET /state reports the current state, GET /sensor/{name}
// reports a sensor's live input level, and GET /metrics exposes
// Prometheus instrumentation. Grounded in
// original_source/src/alarmd/rest.py's rest_cmd, with the router and
// loopback-only middleware patterned on
// bobbydeveaux-starbucks-mugs/internal/server/rest's chi-based layout.
package restapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"alarmd/events"
	"alarmd/ports"
	"alarmd/statemachine"
)

// Metrics is the observability surface the REST front-end drives.
// Satisfied structurally by *metrics.Metrics.
type Metrics interface {
	ObserveCommand(event string)
}

// Logger is the tracing surface the front-end uses.
type Logger interface {
	Debugf(format string, args ...any)
	SyslogInfo(line string)
}

type nullMetrics struct{}

func (nullMetrics) ObserveCommand(string) {}

type nullLogger struct{}

func (nullLogger) Debugf(string, ...any) {}
func (nullLogger) SyslogInfo(string)     {}

// Server holds the REST front-end's dependencies.
type Server struct {
	queue          *events.Queue
	machine        *statemachine.Machine
	ports          *ports.Registry
	metrics        Metrics
	log            Logger
	metricsHandler http.Handler
}

// New builds a Server. metricsHandler may be nil to omit the /metrics
// route (e.g. in tests that don't care about it).
func New(queue *events.Queue, machine *statemachine.Machine, registry *ports.Registry, m Metrics, log Logger, metricsHandler http.Handler) *Server {
	if m == nil {
		m = nullMetrics{}
	}
	if log == nil {
		log = nullLogger{}
	}
	return &Server{queue: queue, machine: machine, ports: registry, metrics: m, log: log, metricsHandler: metricsHandler}
}

// Router builds the chi router for the front-end, with LoopbackOnly
// applied ahead of every route per spec.md §4.6: any request from a
// non-loopback peer is rejected before a handler ever runs.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(LoopbackOnly)

	r.Get("/cmd/{name}", s.handleCmd)
	r.Get("/state", s.handleState)
	r.Get("/sensor/{name}", s.handleSensor)
	if s.metricsHandler != nil {
		r.Get("/metrics", s.handleMetrics)
	}
	return r
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// handleCmd queues a "Cmd<Name>" event for the interpreter, but only
// if the wildcard state declares a transition for it; an event no
// running program can ever act on is rejected with 404 rather than
// silently queued, per spec.md §4.6.
func (s *Server) handleCmd(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	event := fmt.Sprintf("Cmd%s", name)
	if !s.machine.WildcardHasTransition(event) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("no such command %q", name))
		return
	}
	s.log.Debugf("queuing REST command event %s", event)
	s.log.SyslogInfo(fmt.Sprintf("command: %s", event))
	s.queue.Put(event)
	s.metrics.ObserveCommand(event)
	writeJSON(w, http.StatusOK, map[string]string{event: "OK"})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"state": s.machine.CurrentStateName()})
}

func (s *Server) handleSensor(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	p, ok := s.ports.ByName(name)
	if !ok || !p.IsSensor() {
		writeError(w, http.StatusNotFound, fmt.Sprintf("no such sensor %q", name))
		return
	}
	level, err := s.ports.ReadLevel(name)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"level": level})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	s.metricsHandler.ServeHTTP(w, r)
}
