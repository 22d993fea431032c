package inference

import (
	"net/http"
	"time"
)

// readyHandler: 200 solo se tutti i modelli sono caricati e non ci sono errori recenti di scrittura.
type readyHandler struct {
	registry *Registry
	writer   *Writer
	minError time.Duration
}

func NewReadyHandler(r *Registry, w *Writer, minOkErrorAge time.Duration) http.Handler {
	return &readyHandler{registry: r, writer: w, minError: minOkErrorAge}
}

type readiness struct {
	Ready           bool          `json:"ready"`
	Models          map[Kind]bool `json:"models"`
	LastWriteErrorS float64       `json:"last_write_error_age_sec,omitempty"`
}

func (h *readyHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	st := readiness{
		Ready:  h.registry.AllLoaded(),
		Models: h.registry.Status(),
	}
	if h.writer != nil {
		age := h.writer.LastErrorAge()
		st.LastWriteErrorS = age.Seconds()
		st.Ready = st.Ready && age > h.minError
	}
	status := http.StatusOK
	if !st.Ready {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, st)
}
