package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/lehigh-university-libraries/bookrec/internal/catalog"
	"github.com/lehigh-university-libraries/bookrec/internal/recommend"
	"github.com/lehigh-university-libraries/bookrec/internal/suggest"
)

type recommendationRequest struct {
	Title string `validate:"required,max=512"`
}

type optionsRequest struct {
	Top         int     `validate:"gte=0"`
	GenreWeight float64 `validate:"finite"`
	TFWeight    float64 `validate:"finite"`
}

type RecommendationResponse struct {
	Title       string                `json:"title"`
	Found       bool                  `json:"found"`
	Weighting   string                `json:"weighting"`
	Results     []recommend.Candidate `json:"results"`
	Suggestions []suggest.Suggestion  `json:"suggestions,omitempty"`
}

type BookResponse struct {
	catalog.BookRecord
	HasDescription bool `json:"has_description"`
}

type SuggestionResponse struct {
	Query       string               `json:"query"`
	Suggestions []suggest.Suggestion `json:"suggestions"`
}

// HandleRecommendations answers GET /api/recommendations. A title that is
// not in the catalog is a normal answer: found=false and no results.
func (h *Handler) HandleRecommendations(w http.ResponseWriter, r *http.Request) {
	req := recommendationRequest{Title: r.URL.Query().Get("title")}
	if err := validate.Struct(req); err != nil {
		h.writeError(w, "invalid request: "+err.Error(), http.StatusBadRequest)
		return
	}
	opts, err := h.parseOptions(r)
	if err != nil {
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	resp := RecommendationResponse{
		Title:     req.Title,
		Found:     true,
		Weighting: string(h.engine.Weighting()),
	}

	results, err := h.engine.Recommend(req.Title, opts)
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		resp.Found = false
		resp.Results = []recommend.Candidate{}
		resp.Suggestions = h.suggestions(r, req.Title, suggest.DefaultLimit)
	case err != nil:
		h.writeError(w, "Failed to compute recommendations: "+err.Error(), http.StatusInternalServerError)
		return
	default:
		resp.Results = results
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// HandleBookRecommendations answers GET /api/books/{id}/recommendations.
// Unlike the title lookup, an unknown id is a 404.
func (h *Handler) HandleBookRecommendations(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.Atoi(raw)
	if err != nil {
		h.writeError(w, "Invalid book id: "+raw, http.StatusBadRequest)
		return
	}
	opts, err := h.parseOptions(r)
	if err != nil {
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	results, err := h.engine.RecommendByID(id, opts)
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		h.writeError(w, "Book not found", http.StatusNotFound)
		return
	case err != nil:
		h.writeError(w, "Failed to compute recommendations: "+err.Error(), http.StatusInternalServerError)
		return
	}

	cat := h.engine.Catalog()
	idx, _ := cat.IndexByID(id)
	h.writeJSON(w, http.StatusOK, RecommendationResponse{
		Title:     cat.Book(idx).Title,
		Found:     true,
		Weighting: string(h.engine.Weighting()),
		Results:   results,
	})
}

// parseOptions reads top, genre_weight and tf_weight over the handler
// defaults. Weights must be finite and top at most recommend.MaxTopK.
func (h *Handler) parseOptions(r *http.Request) (recommend.Options, error) {
	q := r.URL.Query()
	req := optionsRequest{
		Top:         h.defaults.TopK,
		GenreWeight: h.defaults.GenreWeight,
		TFWeight:    h.defaults.TFWeight,
	}

	var err error
	if v := q.Get("top"); v != "" {
		if req.Top, err = strconv.Atoi(v); err != nil {
			return recommend.Options{}, fmt.Errorf("invalid top: %q", v)
		}
	}
	if v := q.Get("genre_weight"); v != "" {
		if req.GenreWeight, err = strconv.ParseFloat(v, 64); err != nil {
			return recommend.Options{}, fmt.Errorf("invalid genre_weight: %q", v)
		}
	}
	if v := q.Get("tf_weight"); v != "" {
		if req.TFWeight, err = strconv.ParseFloat(v, 64); err != nil {
			return recommend.Options{}, fmt.Errorf("invalid tf_weight: %q", v)
		}
	}

	if err := validate.Struct(req); err != nil {
		return recommend.Options{}, fmt.Errorf("invalid request: %w", err)
	}
	if req.Top > recommend.MaxTopK {
		return recommend.Options{}, fmt.Errorf("invalid top: %d exceeds the maximum of %d", req.Top, recommend.MaxTopK)
	}

	return recommend.Options{
		TopK:        req.Top,
		GenreWeight: req.GenreWeight,
		TFWeight:    req.TFWeight,
	}, nil
}

// HandleBook answers GET /api/books/{id}.
func (h *Handler) HandleBook(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.Atoi(raw)
	if err != nil {
		h.writeError(w, "Invalid book id: "+raw, http.StatusBadRequest)
		return
	}

	cat := h.engine.Catalog()
	idx, ok := cat.IndexByID(id)
	if !ok {
		h.writeError(w, "Book not found", http.StatusNotFound)
		return
	}

	book := cat.Book(idx)
	h.writeJSON(w, http.StatusOK, BookResponse{
		BookRecord:     book,
		HasDescription: book.HasDescription(),
	})
}

// HandleSuggestions answers GET /api/suggestions.
func (h *Handler) HandleSuggestions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		h.writeError(w, "Missing query parameter q", http.StatusBadRequest)
		return
	}

	limit := suggest.DefaultLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > recommend.MaxTopK {
			h.writeError(w, fmt.Sprintf("invalid limit: %q", v), http.StatusBadRequest)
			return
		}
		limit = n
	}

	h.writeJSON(w, http.StatusOK, SuggestionResponse{
		Query:       q,
		Suggestions: h.suggestions(r, q, limit),
	})
}

func (h *Handler) suggestions(r *http.Request, q string, limit int) []suggest.Suggestion {
	if h.titles == nil {
		return []suggest.Suggestion{}
	}
	found, err := h.titles.Suggest(r.Context(), q, limit)
	if err != nil {
		slog.Warn("Title suggestion failed", "query", q, "error", err)
		return []suggest.Suggestion{}
	}
	return found
}
