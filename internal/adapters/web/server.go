// Package web serves the collection endpoint over HTTP: group allocation,
// submission intake, export, health and prometheus metrics. It speaks the
// same single-URL contract as the deployed Apps Script endpoint, so a
// respondent's `survey` binary can point at either.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/corey/survey/internal/domain/allocation"
	"github.com/corey/survey/internal/domain/survey"
	"github.com/corey/survey/internal/ports"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// maxBody caps a submission body.
const maxBody = 1 << 20

// Server serves the collection endpoint.
type Server struct {
	balancer *allocation.Balancer
	sink     ports.SubmissionSink
	layout   survey.Layout
	log      *zap.Logger
	metrics  *Metrics

	listener net.Listener
	httpSrv  *http.Server
	started  time.Time
	stopOnce sync.Once
}

// NewServer creates the collection server.
func NewServer(balancer *allocation.Balancer, sink ports.SubmissionSink, layout survey.Layout, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		balancer: balancer,
		sink:     sink,
		layout:   layout,
		log:      log,
		metrics:  NewMetrics(),
		started:  time.Now(),
	}
}

// Handler returns the routed, logged handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleAssign)
	mux.HandleFunc("POST /{$}", s.handleSubmit)
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/export", s.handleExport)
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{}))
	return s.logRequests(mux)
}

// Start begins listening on addr and serves in the background.
func (s *Server) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	s.Attach(ln)
	go func() {
		if err := s.Serve(); err != nil {
			s.log.Error("http server stopped", zap.Error(err))
		}
	}()
	s.log.Info("collection server listening", zap.String("addr", s.Addr()))
	return nil
}

// Attach prepares the server to accept on ln. Serve must follow.
func (s *Server) Attach(ln net.Listener) {
	s.listener = ln
	s.started = time.Now()
	s.httpSrv = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// Serve blocks until the server stops. A graceful Stop returns nil; any
// other failure of the listener is returned.
func (s *Server) Serve() error {
	if s.httpSrv == nil {
		return errors.New("server not attached to a listener")
	}
	if err := s.httpSrv.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop gracefully shuts down the HTTP server. Idempotent.
func (s *Server) Stop(ctx context.Context) error {
	var err error
	s.stopOnce.Do(func() {
		if s.httpSrv != nil {
			err = s.httpSrv.Shutdown(ctx)
		}
	})
	return err
}

// Addr returns the bound address.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// URL returns the endpoint URL respondents point at.
func (s *Server) URL() string {
	return "http://" + s.Addr() + "/"
}

// Metrics exposes the server's collectors.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleAssign(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if action := q.Get("action"); action != "assignGroup" {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown action %q", action))
		return
	}
	d := survey.Demographics{Gender: q.Get("gender"), Age: q.Get("age"), Job: q.Get("job")}

	g, err := s.balancer.Assign(d)
	if err != nil {
		if errors.Is(err, survey.ErrInvalidDemographic) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.log.Error("allocation failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "allocation failed")
		return
	}
	s.metrics.allocations.WithLabelValues(strconv.Itoa(g)).Inc()
	s.log.Debug("group allocated", zap.Int("group", g), zap.String("stratum", d.Stratum()))
	writeJSON(w, http.StatusOK, map[string]int{"groupId": g})
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBody+1))
	if err != nil {
		s.metrics.submissions.WithLabelValues(resultRejected).Inc()
		writeError(w, http.StatusBadRequest, "could not read body")
		return
	}
	if len(body) > maxBody {
		s.metrics.submissions.WithLabelValues(resultRejected).Inc()
		writeError(w, http.StatusRequestEntityTooLarge, "body too large")
		return
	}

	var sub survey.Submission
	if err := json.Unmarshal(body, &sub); err != nil {
		s.metrics.submissions.WithLabelValues(resultRejected).Inc()
		writeError(w, http.StatusBadRequest, "malformed JSON")
		return
	}
	if err := sub.Validate(s.layout); err != nil {
		s.metrics.submissions.WithLabelValues(resultRejected).Inc()
		s.log.Warn("submission rejected", zap.String("submission_id", sub.SubmissionID), zap.Error(err))
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.sink.Record(r.Context(), sub); err != nil {
		s.metrics.submissions.WithLabelValues(resultError).Inc()
		s.log.Error("store submission", zap.String("submission_id", sub.SubmissionID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not store submission")
		return
	}

	s.metrics.submissions.WithLabelValues(resultAccepted).Inc()
	s.log.Info("submission stored",
		zap.String("submission_id", sub.SubmissionID),
		zap.Int("group", sub.GroupID))
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HealthResult is the /api/health payload.
type HealthResult struct {
	Status      string `json:"status"`
	Groups      int    `json:"groups"`
	Submissions int    `json:"submissions"`
	Uptime      string `json:"uptime"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	all, err := s.sink.All(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "store unavailable")
		return
	}
	writeJSON(w, http.StatusOK, HealthResult{
		Status:      "ok",
		Groups:      s.layout.Groups(),
		Submissions: len(all),
		Uptime:      time.Since(s.started).Round(time.Second).String(),
	})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	all, err := s.sink.All(r.Context())
	if err != nil {
		s.log.Error("export failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}
	if all == nil {
		all = []ports.StoredSubmission{}
	}
	writeJSON(w, http.StatusOK, all)
}

// statusRecorder captures the response code for logging and metrics.
type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(rec, r)
		elapsed := time.Since(start)

		s.metrics.requests.WithLabelValues(r.Method, strconv.Itoa(rec.code)).Inc()
		s.metrics.latency.WithLabelValues(r.Method).Observe(elapsed.Seconds())
		s.log.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("code", rec.code),
			zap.Duration("elapsed", elapsed))
	})
}

func writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(payload)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, errorResponse{Error: msg})
}
