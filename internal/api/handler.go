package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jktrolbot/opositaplus-sub000/internal/config"
	"github.com/jktrolbot/opositaplus-sub000/internal/fsrs"
	"github.com/jktrolbot/opositaplus-sub000/internal/review"
	"go.uber.org/zap"
)

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	selector *review.Selector
	service  *review.Service
	cfg      config.ReviewConfig
	logger   *zap.Logger
}

// NewHandler creates a new API handler.
func NewHandler(selector *review.Selector, service *review.Service, cfg config.ReviewConfig, logger *zap.Logger) *Handler {
	return &Handler{
		selector: selector,
		service:  service,
		cfg:      cfg,
		logger:   logger,
	}
}

// Router builds the chi router with all routes.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.healthCheck)
		r.Get("/reviews/due", h.dueItems)
		r.Post("/reviews", h.submitRating)
	})

	return r
}

func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) dueItems(w http.ResponseWriter, r *http.Request) {
	learnerID := r.URL.Query().Get("learner_id")
	subjectID := r.URL.Query().Get("subject_id")
	if learnerID == "" || subjectID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "learner_id and subject_id are required"})
		return
	}

	limit := h.cfg.DefaultSessionItems
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be an integer"})
			return
		}
		limit = n
	}
	// Clamp server-side before selection begins.
	if limit < h.cfg.MinSessionItems {
		limit = h.cfg.MinSessionItems
	}
	if limit > h.cfg.MaxSessionItems {
		limit = h.cfg.MaxSessionItems
	}

	sel, err := h.selector.SelectDueItems(r.Context(), learnerID, subjectID, limit, time.Now().UTC())
	if err != nil {
		h.logger.Error("due selection failed", zap.String("learner", learnerID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, sel)
}

type submitRequest struct {
	LearnerID string `json:"learner_id"`
	ItemID    string `json:"item_id"`
	Rating    int    `json:"rating"`
	ItemKind  string `json:"item_kind,omitempty"`
}

type submitResponse struct {
	NextReview   time.Time        `json:"next_review"`
	IntervalDays int              `json:"interval_days"`
	Repetitions  int              `json:"repetitions"`
	Easiness     float64          `json:"easiness"`
	ItemKind     review.ItemKind  `json:"item_kind"`
	MemoryState  fsrs.MemoryState `json:"memory_state"`
}

func (h *Handler) submitRating(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	result, err := h.service.SubmitRating(r.Context(), review.SubmitRequest{
		LearnerID: req.LearnerID,
		ItemID:    req.ItemID,
		Rating:    fsrs.Rating(req.Rating),
		Kind:      review.ItemKind(req.ItemKind),
	})
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, fsrs.ErrInvalidRating), errors.Is(err, review.ErrMissingField):
			status = http.StatusBadRequest
		case errors.Is(err, review.ErrItemNotFound):
			status = http.StatusNotFound
		}
		if status == http.StatusInternalServerError {
			h.logger.Error("rating submission failed", zap.String("item", req.ItemID), zap.Error(err))
		}
		writeJSON(w, status, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, submitResponse{
		NextReview:   result.Outcome.NextReview,
		IntervalDays: result.Outcome.IntervalDays,
		Repetitions:  result.Outcome.Repetitions,
		Easiness:     result.Outcome.Easiness,
		ItemKind:     result.Kind,
		MemoryState:  result.Outcome.State,
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
