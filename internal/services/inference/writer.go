package inference

import (
	"context"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/LeonardoBeccarini/agri_inference/internal/model/messages"
)

// pointWriter is the subset of api.WriteAPI the Writer needs.
type pointWriter interface {
	WritePoint(p *write.Point)
	Errors() <-chan error
}

var _ pointWriter = (api.WriteAPI)(nil)

// Writer stores prediction events in InfluxDB through the non-blocking write API
// and remembers when the last asynchronous write error happened, for /readyz.
type Writer struct {
	api    pointWriter
	logger logr.Logger

	mu      sync.RWMutex
	lastErr time.Time
	counts  map[string]int64
}

// NewWriter starts draining w.Errors() until the channel is closed.
func NewWriter(w pointWriter, logger logr.Logger) *Writer {
	ww := &Writer{
		api:     w,
		logger:  logger,
		lastErr: time.Now().Add(-24 * time.Hour),
		counts:  make(map[string]int64),
	}
	go func() {
		for err := range w.Errors() {
			if err == nil {
				continue
			}
			ww.mu.Lock()
			ww.lastErr = time.Now()
			ww.mu.Unlock()
			logger.Error(err, "influx write error")
		}
	}()
	return ww
}

func (w *Writer) Record(_ context.Context, evt messages.PredictionEvent) {
	w.api.WritePoint(EventToPoint(evt))
	w.mu.Lock()
	w.counts[evt.Model]++
	w.mu.Unlock()
}

// LastErrorAge is the time elapsed since the last write error. A nil Writer never errs.
func (w *Writer) LastErrorAge() time.Duration {
	if w == nil {
		return 99999 * time.Hour
	}
	w.mu.RLock()
	t := w.lastErr
	w.mu.RUnlock()
	return time.Since(t)
}

// Count returns how many events of model were handed to InfluxDB.
func (w *Writer) Count(model string) int64 {
	if w == nil {
		return 0
	}
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.counts[model]
}
