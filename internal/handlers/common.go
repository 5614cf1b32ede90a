package handlers

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"math"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/lehigh-university-libraries/bookrec/internal/recommend"
	"github.com/lehigh-university-libraries/bookrec/internal/suggest"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// NaN and ±Inf parse as floats but cannot be scored or encoded.
	_ = v.RegisterValidation("finite", func(fl validator.FieldLevel) bool {
		f := fl.Field().Float()
		return !math.IsNaN(f) && !math.IsInf(f, 0)
	})
	return v
}

type Handler struct {
	engine   *recommend.Engine
	titles   *suggest.Index
	defaults recommend.Options
}

// New returns a Handler answering from engine. titles may be nil, in which
// case no suggestions are offered.
func New(engine *recommend.Engine, titles *suggest.Index, defaults recommend.Options) *Handler {
	return &Handler{
		engine:   engine,
		titles:   titles,
		defaults: defaults,
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
		http.Error(w, `{"error":"failed to encode response"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.Debug("Unable to write JSON response", "err", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	if code >= http.StatusInternalServerError {
		slog.Error(message)
	} else {
		slog.Debug(message, "status", code)
	}
	h.writeJSON(w, code, errorResponse{Error: message})
}

func (h *Handler) HandleHealthcheck(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"books":  h.engine.Catalog().Len(),
	})
}
