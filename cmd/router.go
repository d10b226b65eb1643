package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	chicors "github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/langid/internal/detection"
	"github.com/sells-group/langid/internal/model"
	"github.com/sells-group/langid/internal/store"
)

// detectService runs one request through the detection pipeline.
type detectService interface {
	Detect(ctx context.Context, req model.DetectionRequest) (*detection.Result, error)
}

// recordService reads persisted records and reports store health.
type recordService interface {
	GetRecord(ctx context.Context, id string) (*model.AuditRecord, error)
	Ping(ctx context.Context) error
}

type handlers struct {
	detect  detectService
	records recordService
}

// newRouter builds the HTTP surface for the serve command.
func newRouter(detect detectService, records recordService, origins []string) http.Handler {
	h := &handlers{detect: detect, records: records}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(accessLog)
	r.Use(chicors.Handler(chicors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/", h.welcome)
	r.Get("/health", h.health)
	r.Post("/detect", h.detectLanguage)
	r.Get("/records/{id}", h.getRecord)

	return r
}

func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zap.L().Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", chimw.GetReqID(r.Context())),
		)
	})
}

func (h *handlers) welcome(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "langid language detection service",
		"detect":  "POST /detect",
	})
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	if err := h.records.Ping(r.Context()); err != nil {
		zap.L().Warn("health: store ping failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unavailable",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handlers) detectLanguage(w http.ResponseWriter, r *http.Request) {
	body, err := decodeDetectRequest(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	req, err := body.toModel()
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	res, err := h.detect.Detect(r.Context(), req)
	if err != nil {
		status := http.StatusInternalServerError
		if detection.IsConfigurationError(err) {
			status = http.StatusBadRequest
		}
		writeError(w, status, err)
		return
	}

	writeJSON(w, outcomeStatus(res.Outcome), newDetectResponse(res.Outcome, res.RecordID, res.AuditErr))
}

func (h *handlers) getRecord(w http.ResponseWriter, r *http.Request) {
	rec, err := h.records.GetRecord(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, err)
			return
		}
		zap.L().Error("records: get record", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// outcomeStatus maps a terminal outcome to an HTTP status.
func outcomeStatus(out model.DetectionOutcome) int {
	if out.Succeeded {
		return http.StatusOK
	}
	if out.FailureKind == model.FailureTimeout {
		return http.StatusGatewayTimeout
	}
	return http.StatusBadGateway
}

type errorBody struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func writeError(w http.ResponseWriter, status int, err error) {
	body := errorBody{Error: err.Error()}

	var re *requestError
	var ce *detection.ConfigurationError
	switch {
	case errors.As(err, &re):
		body.Error = re.Message
		body.Field = re.Field
	case errors.As(err, &ce):
		body.Field = ce.Field
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("http: encode response", zap.Error(err))
	}
}
