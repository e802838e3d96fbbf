package schedules

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/RixhersAjazi/schedulemaker/app"
	"github.com/RixhersAjazi/schedulemaker/core/request"
	"github.com/RixhersAjazi/schedulemaker/core/runlog"
)

// Service is the part of app.Service the HTTP API needs.
type Service interface {
	Generate(ctx context.Context, req *request.Request) (*app.Result, error)
	Reject(ctx context.Context, err error)
	QueryRuns(ctx context.Context, q runlog.RunQuery) ([]runlog.RunRecord, error)
}

// Options tune the router.
type Options struct {
	// Token, when set, is required as "Bearer <token>" on /api routes.
	Token string
	// MaxBodyBytes caps request bodies; 0 means 1 MiB.
	MaxBodyBytes int64
}

type errorBody struct {
	Error string `json:"error"`
	Msg   string `json:"msg"`
}

// NewRouter exposes:
//
//	POST /api/schedules/generate
//	GET  /api/runs
//	GET  /healthz
func NewRouter(svc Service, opts Options) http.Handler {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 1 << 20
	}
	h := &handler{svc: svc, opts: opts}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("ok"))
	})
	r.Route("/api", func(r chi.Router) {
		r.Use(bearer(opts.Token))
		r.Post("/schedules/generate", h.generate)
		r.Get("/runs", h.runs)
	})
	return r
}

func bearer(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token != "" && r.Header.Get("Authorization") != "Bearer "+token {
				writeError(w, http.StatusUnauthorized, "unauthorized", "missing or invalid bearer token")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type handler struct {
	svc  Service
	opts Options
}

func (h *handler) generate(w http.ResponseWriter, r *http.Request) {
	ctx := app.WithSource(r.Context(), "http")
	body := http.MaxBytesReader(w, r.Body, h.opts.MaxBodyBytes)
	req, err := request.Decode(body, formatOf(r))
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusRequestEntityTooLarge, "argument", "request body too large")
			return
		}
		h.svc.Reject(ctx, err)
		writeError(w, http.StatusBadRequest, "argument", err.Error())
		return
	}
	if v := r.URL.Query().Get("verbose"); v != "" {
		verbose, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "argument", "verbose must be a boolean")
			return
		}
		req.Verbose = verbose
	}

	res, err := h.svc.Generate(ctx, req)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, res)
	case errors.Is(err, request.ErrInvalid):
		writeError(w, http.StatusBadRequest, "argument", err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, "timeout", err.Error())
	case errors.Is(err, context.Canceled):
		// client went away
		writeError(w, http.StatusServiceUnavailable, "timeout", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal", err.Error())
	}
}

func formatOf(r *http.Request) request.Format {
	ct := strings.ToLower(r.Header.Get("Content-Type"))
	if strings.Contains(ct, "yaml") {
		return request.FormatYAML
	}
	return request.FormatJSON
}

func (h *handler) runs(w http.ResponseWriter, r *http.Request) {
	q, err := parseRunQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "argument", err.Error())
		return
	}
	records, err := h.svc.QueryRuns(r.Context(), q)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}
	if records == nil {
		records = []runlog.RunRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

func parseRunQuery(r *http.Request) (runlog.RunQuery, error) {
	v := r.URL.Query()
	q := runlog.RunQuery{Source: v.Get("source")}
	var err error
	if s := v.Get("start"); s != "" {
		if q.Start, err = time.Parse(time.RFC3339, s); err != nil {
			return q, errors.New("start must be RFC3339")
		}
	}
	if s := v.Get("end"); s != "" {
		if q.End, err = time.Parse(time.RFC3339, s); err != nil {
			return q, errors.New("end must be RFC3339")
		}
	}
	if s := v.Get("min_combinations"); s != "" {
		if q.MinCombinations, err = strconv.Atoi(s); err != nil {
			return q, errors.New("min_combinations must be an integer")
		}
	}
	if s := v.Get("limit"); s != "" {
		if q.Limit, err = strconv.Atoi(s); err != nil || q.Limit < 0 {
			return q, errors.New("limit must be a non-negative integer")
		}
	}
	return q, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, kind, msg string) {
	writeJSON(w, status, errorBody{Error: kind, Msg: msg})
}
