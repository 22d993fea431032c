package inference

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"github.com/influxdata/influxdb-client-go/v2/api"
)

// fluxQuerier is the subset of api.QueryAPI used here.
type fluxQuerier interface {
	Query(ctx context.Context, query string) (*api.QueryTableResult, error)
}

var _ fluxQuerier = (api.QueryAPI)(nil)

// RecentPrediction is one stored prediction, as returned by /predictions/recent.
type RecentPrediction struct {
	Model      string  `json:"model"`
	Label      string  `json:"label"`
	Tier       string  `json:"tier,omitempty"`
	Confidence float64 `json:"confidence"`
	Time       string  `json:"time"`
}

type historyParams struct {
	Model     string
	Minutes   int
	Limit     int
	TimeoutMS int
}

// HistoryHandler serves GET /predictions/recent?model=crop&limit=20&minutes=1440 from InfluxDB.
type HistoryHandler struct {
	query  fluxQuerier
	bucket string
	logger logr.Logger
}

func NewHistoryHandler(q fluxQuerier, bucket string, logger logr.Logger) *HistoryHandler {
	return &HistoryHandler{query: q, bucket: bucket, logger: logger}
}

func parseHistory(r *http.Request) (historyParams, error) {
	q := r.URL.Query()
	get := func(k string, def, min, max int) int {
		if v := strings.TrimSpace(q.Get(k)); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				if n < min {
					return min
				}
				if n > max {
					return max
				}
				return n
			}
		}
		return def
	}
	p := historyParams{
		Minutes:   get("minutes", 1440, 1, 7*24*60),
		Limit:     get("limit", 20, 1, 500),
		TimeoutMS: get("timeout_ms", 2000, 200, 5000),
	}
	if m := strings.TrimSpace(q.Get("model")); m != "" {
		k, ok := ParseKind(m)
		if !ok {
			return p, Error{Code: BadRequest, Msg: fmt.Sprintf("Unknown model %q", m)}
		}
		p.Model = string(k)
	}
	return p, nil
}

func buildHistoryFlux(bucket string, p historyParams) string {
	modelFilter := ""
	if p.Model != "" {
		modelFilter = fmt.Sprintf(" and r.model == %q", p.Model)
	}
	return fmt.Sprintf(`
from(bucket: %q)
  |> range(start: -%dm)
  |> filter(fn: (r) => r._measurement == %q%s)
  |> filter(fn: (r) => r._field == "confidence")
  |> keep(columns: ["_time","_value","model","label","tier"])
  |> group()
  |> sort(columns: ["_time"], desc: true)
  |> limit(n:%d)
`, bucket, p.Minutes, PredictionMeasurement, modelFilter, p.Limit)
}

func (h *HistoryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p, err := parseHistory(r)
	if err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), time.Duration(p.TimeoutMS)*time.Millisecond)
	defer cancel()

	res, err := h.query.Query(ctx, buildHistoryFlux(h.bucket, p))
	if err != nil {
		h.logger.Error(err, "influx query error")
		writeError(w, Error{Code: ServiceUnavailable, Msg: "Prediction history unavailable"})
		return
	}
	defer res.Close()

	out := make([]RecentPrediction, 0, p.Limit)
	for res.Next() {
		rec := res.Record()
		conf, _ := rec.Value().(float64)
		out = append(out, RecentPrediction{
			Model:      stringValue(rec.ValueByKey("model")),
			Label:      stringValue(rec.ValueByKey("label")),
			Tier:       stringValue(rec.ValueByKey("tier")),
			Confidence: conf,
			Time:       rec.Time().UTC().Format(time.RFC3339),
		})
	}
	if res.Err() != nil {
		h.logger.Error(res.Err(), "influx iteration error")
		w.Header().Set("X-Error", "influx-iter-error")
	}
	writeJSON(w, http.StatusOK, out)
}

func stringValue(v interface{}) string {
	s, _ := v.(string)
	return s
}
