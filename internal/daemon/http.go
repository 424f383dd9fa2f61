package daemon

import (
	"errors"
	"net/http"
	"time"

	"github.com/bytedance/sonic"

	"github.com/tOgg1/mosaic/internal/catalog"
	"github.com/tOgg1/mosaic/internal/models"
)

// Handler returns the HTTP API.
func (d *Daemon) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/media/navigate", d.handleNavigate)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return mux
}

func (d *Daemon) handleNavigate(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if !d.authorized(r.Header.Get("Authorization")) {
		writeError(w, http.StatusUnauthorized, "invalid or missing bearer token")
		return
	}

	q := r.URL.Query()
	selector, err := models.ParseSelector(q.Get("selector"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	req := models.NavRequest{Selector: selector, Key: q.Get("key")}
	if raw := q.Get("timestamp"); raw != "" {
		ts, ok := models.ParseTimestamp(raw)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid timestamp "+raw)
			return
		}
		req.Timestamp = ts
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	item, err := d.nav.Navigate(r.Context(), req)
	d.logger.Debug().
		Str("selector", string(req.Selector)).
		Str("key", req.Key).
		Dur("elapsed", time.Since(start)).
		Err(err).
		Msg("navigate")
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
	case item == nil:
		w.WriteHeader(http.StatusNoContent)
	default:
		writeJSON(w, http.StatusOK, item)
	}
}

func writeJSON(w http.ResponseWriter, code int, payload any) {
	data, err := sonic.Marshal(payload)
	if err != nil {
		http.Error(w, "encode response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(data)
}

func writeError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, map[string]string{"error": message})
}
