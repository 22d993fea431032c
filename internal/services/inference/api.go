package inference

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/LeonardoBeccarini/agri_inference/pkg/logging"
)

//go:embed openapi.yaml
var openapiYAML []byte

// RouterConfig configures the HTTP surface around a Service.
type RouterConfig struct {
	Logger         logr.Logger
	AllowedOrigins []string
	MaxBodyBytes   int64
	Gatherer       prometheus.Gatherer // nil: no /metrics
	History        *HistoryHandler     // nil: no /predictions/recent
	Writer         *Writer             // nil: readiness ignores InfluxDB
	MinErrorAge    time.Duration
}

type httpAPI struct {
	svc *Service
	cfg RouterConfig
}

// NewRouter wires middlewares and endpoints.
func NewRouter(svc *Service, cfg RouterConfig) http.Handler {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 1 << 20
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}
	a := &httpAPI{svc: svc, cfg: cfg}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(a.requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		MaxAge:         300,
	}))

	r.Get("/health", a.handleHealth)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/readyz", NewReadyHandler(svc.Registry(), cfg.Writer, cfg.MinErrorAge))
	r.Get("/openapi.yaml", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/yaml; charset=utf-8")
		_, _ = w.Write(openapiYAML)
	})
	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}
	if cfg.History != nil {
		r.Handle("/predictions/recent", cfg.History)
	}

	r.Route("/predict", func(pr chi.Router) {
		pr.Post("/fertility", a.predictHandler(func(ctx context.Context, in map[string]any) (any, error) {
			return svc.PredictFertility(ctx, in)
		}))
		pr.Post("/irrigation", a.predictHandler(func(ctx context.Context, in map[string]any) (any, error) {
			return svc.PredictIrrigation(ctx, in)
		}))
	})
	r.Post("/recommend/crops", a.predictHandler(func(ctx context.Context, in map[string]any) (any, error) {
		return svc.RecommendCrops(ctx, in)
	}))
	return r
}

func (a *httpAPI) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, a.svc.Health())
}

type predictFunc func(ctx context.Context, input map[string]any) (any, error)

func (a *httpAPI) predictHandler(predict predictFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		input, err := decodeInput(http.MaxBytesReader(w, r.Body, a.cfg.MaxBodyBytes))
		if err != nil {
			writeError(w, err)
			return
		}
		resp, err := predict(r.Context(), input)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// decodeInput reads a JSON object; numbers are kept as json.Number so the
// validator sees exactly what the caller sent.
func decodeInput(body io.Reader) (map[string]any, error) {
	raw, err := io.ReadAll(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, Error{Code: BadRequest, Msg: "Request body too large"}
		}
		return nil, Error{Code: BadRequest, Msg: "Error reading request body", Err: err}
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, errNoData()
	}
	return DecodeInputJSON(raw)
}

// DecodeInputJSON parses a request document. Anything other than a JSON object is a BadRequest.
func DecodeInputJSON(raw []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var input map[string]any
	if err := dec.Decode(&input); err != nil {
		return nil, Error{Code: BadRequest, Msg: "Request body must be a JSON object", Err: err}
	}
	if dec.More() {
		return nil, Error{Code: BadRequest, Msg: "Request body must be a single JSON object"}
	}
	if len(input) == 0 {
		return nil, errNoData()
	}
	return input, nil
}

// writeJSON encodes v before the status goes out, so an unencodable body becomes a 500.
func writeJSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		buf.Reset()
		status = http.StatusInternalServerError
		body := NewErrorBody(errInternal("encoding response failed", err))
		_ = json.NewEncoder(&buf).Encode(body)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, HTTPStatus(err), NewErrorBody(err))
}

// requestLogger puts a request-scoped logger in the context and logs the outcome.
func (a *httpAPI) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log := a.cfg.Logger.WithValues("reqID", middleware.GetReqID(r.Context()), "method", r.Method, "path", r.URL.Path)
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r.WithContext(logr.NewContext(r.Context(), log)))

		log.V(logging.VERBOSE).Info("Request served", "status", ww.Status(), "duration", time.Since(start).String())
	})
}
