package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"glossa.dev/internal/audit"
	"glossa.dev/internal/obs"
)

const (
	defaultExportLocale = "en"
	exportChunkSize     = 1000
)

// handleExport streams a locale's translations as one flat JSON object.
// Pairs are written as they arrive from the chunked scan, so memory stays
// bounded by one chunk no matter how many rows the locale holds. Rows
// sharing a key collapse to the latest one in the store's scan, keeping
// the object strictly valid. An unknown locale yields {}.
func (a *API) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}

	locale := r.URL.Query().Get("locale")
	if locale == "" {
		locale = defaultExportLocale
	}

	flusher, _ := w.(http.Flusher)

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if _, err := w.Write([]byte("{")); err != nil {
		return
	}

	written := 0
	err := a.translations.ScanLocale(r.Context(), locale, exportChunkSize, func(key, value string) error {
		kb, err := json.Marshal(key)
		if err != nil {
			return err
		}
		vb, err := json.Marshal(value)
		if err != nil {
			return err
		}
		buf := make([]byte, 0, len(kb)+len(vb)+2)
		if written > 0 {
			buf = append(buf, ',')
		}
		buf = append(buf, kb...)
		buf = append(buf, ':')
		buf = append(buf, vb...)
		if _, err := w.Write(buf); err != nil {
			return err
		}
		written++
		if flusher != nil && written%exportChunkSize == 0 {
			flusher.Flush()
		}
		return nil
	})
	if err != nil {
		// The body is already partially written; all we can do is stop.
		// A cancelled context means the client went away mid-export.
		if !errors.Is(err, context.Canceled) {
			obs.Emit(map[string]any{
				"ts":         time.Now().UTC().Format(time.RFC3339Nano),
				"level":      "error",
				"msg":        "export_aborted",
				"request_id": RequestIDFromContext(r.Context()),
				"locale":     locale,
				"error":      err.Error(),
			})
		}
		return
	}

	if _, err := w.Write([]byte("}")); err != nil {
		return
	}
	if flusher != nil {
		flusher.Flush()
	}

	_ = audit.LogEvent(r.Context(), "translation.export", map[string]any{
		"locale": locale,
		"rows":   written,
	})
}
