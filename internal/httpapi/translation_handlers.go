package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"glossa.dev/internal/audit"
	"glossa.dev/internal/translation"
)

type translationRequest struct {
	Key    string   `json:"key"`
	Value  string   `json:"value"`
	Locale string   `json:"locale"`
	Tags   []string `json:"tags"`
}

func (a *API) handleTranslationsCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listTranslations(w, r)
	case http.MethodPost:
		a.createTranslation(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleTranslationResource(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/translations/")
	if path == "" || strings.Contains(path, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	id, err := strconv.ParseInt(path, 10, 64)
	if err != nil {
		writeError(w, r, http.StatusNotFound, "translation not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		a.showTranslation(w, r, id)
	case http.MethodPut:
		a.updateTranslation(w, r, id)
	case http.MethodDelete:
		a.deleteTranslation(w, r, id)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPut, http.MethodDelete)
	}
}

func (a *API) listTranslations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := translation.Filter{
		Tag:   q.Get("tag"),
		Key:   q.Get("key"),
		Value: q.Get("value"),
	}

	page := 1
	if raw := strings.TrimSpace(q.Get("page")); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			writeError(w, r, http.StatusBadRequest, "page must be a positive integer")
			return
		}
		page = v
	}

	result, err := a.translations.List(r.Context(), f, page)
	if err != nil {
		handleTranslationError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (a *API) createTranslation(w http.ResponseWriter, r *http.Request) {
	var req translationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	t, err := a.translations.Create(r.Context(), req.Key, req.Value, req.Locale, req.Tags)
	if err != nil {
		handleTranslationError(w, r, err)
		return
	}

	a.auditTranslation(r, "translation.create", t)

	w.Header().Set("Location", "/translations/"+strconv.FormatInt(t.ID, 10))
	writeJSON(w, http.StatusCreated, t)
}

func (a *API) showTranslation(w http.ResponseWriter, r *http.Request, id int64) {
	t, err := a.translations.Get(r.Context(), id)
	if err != nil {
		handleTranslationError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (a *API) updateTranslation(w http.ResponseWriter, r *http.Request, id int64) {
	var req translationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	t, err := a.translations.Update(r.Context(), id, req.Key, req.Value, req.Locale, req.Tags)
	if err != nil {
		handleTranslationError(w, r, err)
		return
	}

	a.auditTranslation(r, "translation.update", t)

	writeJSON(w, http.StatusOK, t)
}

func (a *API) deleteTranslation(w http.ResponseWriter, r *http.Request, id int64) {
	if err := a.translations.Delete(r.Context(), id); err != nil {
		handleTranslationError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "translation.delete", map[string]any{
		"translation_id": id,
	})

	w.WriteHeader(http.StatusNoContent)
}

func (a *API) auditTranslation(r *http.Request, event string, t translation.Translation) {
	_ = audit.LogEvent(r.Context(), event, map[string]any{
		"translation_id": t.ID,
		"key":            t.Key,
		"locale":         t.Locale,
		"tags":           t.TagNames(),
	})
}

func handleTranslationError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *translation.ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(w, r, http.StatusBadRequest, verr.Error())
	case errors.Is(err, translation.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "translation not found")
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}
