// Package httpapi exposes the element access layer over HTTP.
package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/jacentio/periodic/elements"
	"github.com/jacentio/periodic/schema"
)

// Options configures NewHandler.
type Options struct {
	Logger *slog.Logger
	// AllowedOrigins lists origins granted CORS access. Empty disables CORS.
	AllowedOrigins []string
	// Metrics, when set, is served on GET /metrics.
	Metrics http.Handler
}

type server struct {
	svc    *elements.Service
	logger *slog.Logger
}

// NewHandler returns the HTTP handler for svc.
func NewHandler(svc *elements.Service, opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &server{svc: svc, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /elements/{$}", s.handleList)
	mux.HandleFunc("POST /elements/{$}", s.handleCreate)
	mux.HandleFunc("GET /elements/{id}", s.handleGet)
	mux.HandleFunc("PUT /elements/{id}", s.handleUpdate)
	mux.HandleFunc("DELETE /elements/{id}", s.handleDelete)
	mux.HandleFunc("GET /element/atomicName/{name}", s.handleGetByName)
	mux.HandleFunc("GET /element/atomicNumber/{number}", s.handleGetByAtomicNumber)
	mux.HandleFunc("GET /elements/state/{state}", s.handleListByState)
	mux.HandleFunc("GET /elements/group/{group}", s.handleListByGroup)
	mux.HandleFunc("GET /elements/period/{period}", s.handleListByPeriod)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	if opts.Metrics != nil {
		mux.Handle("GET /metrics", opts.Metrics)
	}

	return s.logRequests(cors(opts.AllowedOrigins, mux))
}

func (s *server) handleList(w http.ResponseWriter, r *http.Request) {
	views, err := s.svc.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *server) handleGet(w http.ResponseWriter, r *http.Request) {
	v, err := s.svc.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *server) handleCreate(w http.ResponseWriter, r *http.Request) {
	in, err := schema.DecodeInput(r.Body)
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "Request body must be a JSON object")
		return
	}
	id, err := s.svc.Create(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id})
}

func (s *server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	in, err := schema.DecodeInput(r.Body)
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "Request body must be a JSON object")
		return
	}
	if err := s.svc.Update(r.Context(), r.PathValue("id"), in); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Element updated successfully"})
}

func (s *server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Element deleted successfully"})
}

func (s *server) handleGetByName(w http.ResponseWriter, r *http.Request) {
	v, err := s.svc.GetByName(r.Context(), r.PathValue("name"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *server) handleGetByAtomicNumber(w http.ResponseWriter, r *http.Request) {
	n, ok := intParam(w, r, "number")
	if !ok {
		return
	}
	v, err := s.svc.GetByAtomicNumber(r.Context(), n)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *server) handleListByState(w http.ResponseWriter, r *http.Request) {
	views, err := s.svc.ListByState(r.Context(), r.PathValue("state"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *server) handleListByGroup(w http.ResponseWriter, r *http.Request) {
	n, ok := intParam(w, r, "group")
	if !ok {
		return
	}
	views, err := s.svc.ListByGroup(r.Context(), n)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *server) handleListByPeriod(w http.ResponseWriter, r *http.Request) {
	n, ok := intParam(w, r, "period")
	if !ok {
		return
	}
	views, err := s.svc.ListByPeriod(r.Context(), n)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

// intParam parses the named path value, answering 422 on failure.
func intParam(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	n, err := strconv.Atoi(r.PathValue(name))
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Detail: []schema.FieldError{{
			Field:   name,
			Message: "expected integer, got " + strconv.Quote(r.PathValue(name)),
		}}})
		return 0, false
	}
	return n, true
}

type errorBody struct {
	Detail any `json:"detail"`
}

// writeError maps an access layer error onto a status code and body.
func (s *server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		verr *schema.ValidationError
		nf   *elements.NotFoundError
	)
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Detail: verr.Fields})
	case errors.Is(err, elements.ErrInvalidID):
		writeDetail(w, http.StatusBadRequest, "Invalid ID format")
	case errors.As(err, &nf):
		writeDetail(w, http.StatusNotFound, nf.Detail)
	default:
		if !errors.Is(err, elements.ErrInternal) {
			s.logger.ErrorContext(r.Context(), "unmapped error", "error", err)
		}
		writeDetail(w, http.StatusInternalServerError, "Internal server error")
	}
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorBody{Detail: detail})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.InfoContext(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}
