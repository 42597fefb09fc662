package httpapi

import (
	stdcontext "context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Paintersrp/cryo/internal/api"
)

const (
	defaultAddr            = "127.0.0.1:7810"
	defaultReadHeader      = 5 * time.Second
	defaultShutdownTimeout = 5 * time.Second
)

// Config controls construction of the API server.
type Config struct {
	Addr              string
	Controller        api.Controller
	Metrics           *prometheus.Registry
	Listener          net.Listener
	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration
}

// Server wraps an http.Server exposing freeze controls.
type Server struct {
	ctrl            api.Controller
	srv             *http.Server
	listener        net.Listener
	shutdownTimeout time.Duration
}

// NewServer constructs a Server with sane defaults.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Controller == nil {
		return nil, fmt.Errorf("controller is required")
	}
	addr := normalizeAddr(cfg.Addr)
	mux := http.NewServeMux()
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
	if srv.ReadHeaderTimeout == 0 {
		srv.ReadHeaderTimeout = defaultReadHeader
	}
	server := &Server{
		ctrl:            cfg.Controller,
		srv:             srv,
		listener:        cfg.Listener,
		shutdownTimeout: cfg.ShutdownTimeout,
	}
	if server.shutdownTimeout == 0 {
		server.shutdownTimeout = defaultShutdownTimeout
	}
	server.registerRoutes(mux, cfg.Metrics)
	return server, nil
}

// Run starts serving until the provided context is cancelled.
func (s *Server) Run(ctx stdcontext.Context) error {
	if ctx == nil {
		ctx = stdcontext.Background()
	}
	errCh := make(chan error, 1)
	stop := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := stdcontext.WithTimeout(stdcontext.Background(), s.shutdownTimeout)
			defer cancel()
			_ = s.srv.Shutdown(shutdownCtx)
		case <-stop:
		}
	}()

	go func() {
		var err error
		if s.listener != nil {
			err = s.srv.Serve(s.listener)
		} else {
			err = s.srv.ListenAndServe()
		}
		errCh <- err
	}()

	err := <-errCh
	close(stop)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.srv.Addr
}

// DefaultAddr is the loopback address the server binds when none is
// configured; CLI clients dial it by default.
func DefaultAddr() string {
	return defaultAddr
}

func (s *Server) registerRoutes(mux *http.ServeMux, metrics *prometheus.Registry) {
	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/freeze/", s.handleFreeze(true))
	mux.HandleFunc("/api/v1/thaw/", s.handleFreeze(false))
	if metrics != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(metrics, promhttp.HandlerOpts{}))
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w, http.MethodGet)
		return
	}
	result, err := s.ctrl.Status(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleFreeze(freeze bool) http.HandlerFunc {
	prefix := "/api/v1/thaw/"
	if freeze {
		prefix = "/api/v1/freeze/"
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			s.methodNotAllowed(w, http.MethodPost)
			return
		}
		group := strings.TrimSpace(strings.TrimPrefix(r.URL.Path, prefix))
		if group == "" {
			s.writeErrorWithDetails(w, fmt.Errorf("%w: empty group path", api.ErrUnknownGroup), map[string]any{"group": group})
			return
		}
		var (
			result *api.FreezeResult
			err    error
		)
		if freeze {
			result, err = s.ctrl.Freeze(r.Context(), group)
		} else {
			result, err = s.ctrl.Thaw(r.Context(), group)
		}
		if err != nil {
			s.writeErrorWithDetails(w, err, map[string]any{"group": group})
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]any{"result": result})
	}
}

func (s *Server) methodNotAllowed(w http.ResponseWriter, method string) {
	w.Header().Set("Allow", method)
	s.writeJSON(w, http.StatusMethodNotAllowed, errorBody{
		Code:    "method_not_allowed",
		Message: fmt.Sprintf("method %s not allowed", method),
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

type errorBody struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details"`
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	s.writeErrorWithDetails(w, err, nil)
}

func (s *Server) writeErrorWithDetails(w http.ResponseWriter, err error, extra map[string]any) {
	status, code := classifyError(err)
	details := map[string]any{
		"timestamp": time.Now().UTC(),
	}
	for k, v := range extra {
		details[k] = v
	}
	s.writeJSON(w, status, errorBody{
		Code:    code,
		Message: err.Error(),
		Details: details,
	})
}

func classifyError(err error) (int, string) {
	switch {
	case errors.Is(err, stdcontext.Canceled):
		return 499, "context_canceled"
	case errors.Is(err, api.ErrUnknownGroup):
		return http.StatusNotFound, "unknown_group"
	case errors.Is(err, api.ErrNoActiveTree):
		return http.StatusConflict, "no_active_hierarchy"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func normalizeAddr(addr string) string {
	if strings.TrimSpace(addr) == "" {
		return defaultAddr
	}
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		// If parsing failed, trust caller.
		return addr
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return net.JoinHostPort(host, port)
}
