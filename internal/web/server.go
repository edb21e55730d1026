// Package web exposes the practice bank as a JSON API.
package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/conorfennell/practicebank/internal/cloze"
	"github.com/conorfennell/practicebank/internal/domain"
	"github.com/conorfennell/practicebank/internal/fingerprint"
	"github.com/conorfennell/practicebank/internal/fsrs"
	"github.com/conorfennell/practicebank/internal/leech"
	"github.com/conorfennell/practicebank/internal/maturity"
	"github.com/conorfennell/practicebank/internal/review"
	"github.com/conorfennell/practicebank/internal/storage"
	"github.com/conorfennell/practicebank/internal/sync"
)

// Server holds the dependencies for the HTTP API.
type Server struct {
	db           *storage.DB
	router       chi.Router
	orchestrator *review.Orchestrator
	validate     *validator.Validate
	now          func() time.Time
}

// NewServer creates and configures a new server. params may be nil for
// the default scheduling parameters.
func NewServer(db *storage.DB, params *fsrs.Params) *Server {
	s := &Server{
		db:           db,
		router:       chi.NewRouter(),
		orchestrator: review.New(params),
		validate:     validator.New(),
		now:          time.Now,
	}
	s.routes()
	return s
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(requestLogger)
	s.router.Route("/api", func(r chi.Router) {
		r.Get("/queue", s.handleGetQueue)
		r.Post("/reviews", s.handlePostReview)

		r.Route("/cards/{id}", func(r chi.Router) {
			r.Post("/activate", s.handleCardAction(actionActivate))
			r.Post("/deactivate", s.handleCardAction(actionDeactivate))
			r.Post("/retire", s.handleCardAction(actionRetire))
			r.Post("/resurrect", s.handleCardAction(actionResurrect))
		})

		r.Post("/lists", s.handlePostList)
		r.Get("/lists/{id}/health", s.handleGetListHealth)

		r.Get("/sources", s.handleGetSources)
		r.Post("/sources", s.handlePostSource)
		r.Delete("/sources/{id}", s.handleDeleteSource)
		r.Post("/sync", s.handlePostSync)
	})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		slog.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
		)
	})
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}

// cardJSON is the wire shape of a card.
type cardJSON struct {
	ID               string     `json:"id"`
	Front            string     `json:"front"`
	Back             string     `json:"back"`
	Type             string     `json:"type"`
	ParentListID     string     `json:"parent_list_id,omitempty"`
	ListPosition     int        `json:"list_position"`
	TargetItem       string     `json:"target_item,omitempty"`
	Stability        float64    `json:"stability"`
	Difficulty       float64    `json:"difficulty"`
	ScheduledDays    float64    `json:"scheduled_days"`
	Reps             int        `json:"reps"`
	Lapses           int        `json:"lapses"`
	State            int        `json:"state"`
	Due              time.Time  `json:"due"`
	LastReview       *time.Time `json:"last_review,omitempty"`
	IsActive         bool       `json:"is_active"`
	IsGoldenTicket   bool       `json:"is_golden_ticket"`
	Maturity         string     `json:"maturity"`
	ActivationStatus string     `json:"activation_status"`
	SuspendReason    string     `json:"suspend_reason,omitempty"`
	ResurrectCount   int        `json:"resurrect_count"`
}

func toCardJSON(c domain.Card) cardJSON {
	return cardJSON{
		ID:               c.ID,
		Front:            c.Front,
		Back:             c.Back,
		Type:             string(c.Type),
		ParentListID:     c.ParentListID,
		ListPosition:     c.ListPosition,
		TargetItem:       c.TargetItem,
		Stability:        c.Stability,
		Difficulty:       c.Difficulty,
		ScheduledDays:    c.ScheduledDays,
		Reps:             c.Reps,
		Lapses:           c.Lapses,
		State:            c.State,
		Due:              c.Due,
		LastReview:       c.LastReview,
		IsActive:         c.IsActive,
		IsGoldenTicket:   c.IsGoldenTicket,
		Maturity:         string(c.Maturity),
		ActivationStatus: string(c.ActivationStatus),
		SuspendReason:    c.SuspendReason,
		ResurrectCount:   c.ResurrectCount,
	}
}

// handleGetQueue returns the active cards due now, oldest first. Cloze
// fronts are re-rendered through the id-seeded shuffle, which is
// deterministic: every request serves the same bytes for the same card.
func (s *Server) handleGetQueue(w http.ResponseWriter, r *http.Request) {
	cards, err := s.db.GetDueCards(s.now())
	if err != nil {
		slog.Error("Error getting due cards", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to load queue")
		return
	}

	out := make([]cardJSON, 0, len(cards))
	for _, c := range cards {
		if c.Type == domain.TypeListCloze {
			c.Front = cloze.ReshuffleContext(c.Front, c.ID)
		}
		out = append(out, toCardJSON(c))
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"due_count": len(out),
		"cards":     out,
	})
}

type reviewRequest struct {
	CardID        string   `json:"card_id" validate:"required"`
	Rating        int      `json:"rating" validate:"required,min=1,max=4"`
	ResponseMs    *int     `json:"response_ms" validate:"omitempty,gte=0"`
	PartialCredit *float64 `json:"partial_credit" validate:"omitempty,gte=0,lte=1"`
}

type reviewResponse struct {
	Card      cardJSON           `json:"card"`
	Suspended bool               `json:"suspended"`
	Intervals map[string]float64 `json:"intervals"`
}

// handlePostReview runs one review submission end to end: scheduler,
// maturity derivation, leech check, then a single transaction that
// persists the card delta and the log record together.
func (s *Server) handlePostReview(w http.ResponseWriter, r *http.Request) {
	var req reviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	card, err := s.db.FindCardByID(req.CardID)
	if err != nil {
		slog.Error("Error looking up card", "card_id", req.CardID, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to load card")
		return
	}
	if card == nil {
		respondError(w, http.StatusNotFound, "no such card")
		return
	}

	res, err := s.orchestrator.SubmitReview(*card, fsrs.Rating(req.Rating), s.now(), review.Metadata{
		ResponseMs:    req.ResponseMs,
		PartialCredit: req.PartialCredit,
	})
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.db.ApplyReview(res.Card, res.Log); err != nil {
		slog.Error("Error persisting review", "card_id", card.ID, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to save review")
		return
	}

	respondJSON(w, http.StatusOK, reviewResponse{
		Card:      toCardJSON(res.Card),
		Suspended: res.Suspended,
		Intervals: map[string]float64{
			"again": res.Intervals.Again,
			"hard":  res.Intervals.Hard,
			"good":  res.Intervals.Good,
			"easy":  res.Intervals.Easy,
		},
	})
}

type cardAction int

const (
	actionActivate cardAction = iota
	actionDeactivate
	actionRetire
	actionResurrect
)

// handleCardAction applies one explicit lifecycle action. Invalid-state
// transitions come back as 409, not silent no-ops.
func (s *Server) handleCardAction(action cardAction) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		card, err := s.db.FindCardByID(id)
		if err != nil {
			slog.Error("Error looking up card", "card_id", id, "error", err)
			respondError(w, http.StatusInternalServerError, "failed to load card")
			return
		}
		if card == nil {
			respondError(w, http.StatusNotFound, "no such card")
			return
		}

		var updated domain.Card
		switch action {
		case actionActivate:
			updated, err = maturity.Activate(*card, s.now())
		case actionDeactivate:
			updated = maturity.Deactivate(*card)
		case actionRetire:
			updated = maturity.Retire(*card, s.now())
		case actionResurrect:
			updated, err = maturity.Resurrect(*card, s.now())
		}
		if err != nil {
			if errors.Is(err, maturity.ErrAlreadyActive) || errors.Is(err, maturity.ErrNotRetired) ||
				errors.Is(err, maturity.ErrRetired) {
				respondError(w, http.StatusConflict, err.Error())
				return
			}
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}

		if err := s.db.UpdateCard(updated); err != nil {
			slog.Error("Error updating card", "card_id", id, "error", err)
			respondError(w, http.StatusInternalServerError, "failed to save card")
			return
		}
		respondJSON(w, http.StatusOK, toCardJSON(updated))
	}
}

type listRequest struct {
	Title string   `json:"title" validate:"required"`
	Items []string `json:"items" validate:"required,min=1,dive,required"`
}

// handlePostList creates overlapping-cloze cards for a hand-submitted
// fact list. The cards start banked, same as list cards from sync.
func (s *Server) handlePostList(w http.ResponseWriter, r *http.Request) {
	var req listRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	cards, err := cloze.Generate(req.Items, req.Title)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	for i := range cards {
		cards[i].ContentHash = fingerprint.List(req.Title, cards[i].TargetItem, req.Items)

		existing, err := s.db.FindCardByHash(cards[i].ContentHash)
		if err != nil {
			slog.Error("Error checking for existing card", "hash", cards[i].ContentHash, "error", err)
			respondError(w, http.StatusInternalServerError, "failed to save list")
			return
		}
		if existing != nil {
			respondError(w, http.StatusConflict, "list already exists")
			return
		}
	}

	// One transaction for the whole list: a sibling set must never be
	// half persisted.
	if err := s.db.InsertCards(cards); err != nil {
		slog.Error("Error inserting list cards", "title", req.Title, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to save list")
		return
	}

	out := make([]cardJSON, 0, len(cards))
	for _, card := range cards {
		out = append(out, toCardJSON(card))
	}
	respondJSON(w, http.StatusCreated, map[string]any{"cards": out})
}

type listHealthCard struct {
	ID              string  `json:"id"`
	TargetItem      string  `json:"target_item"`
	Lapses          int     `json:"lapses"`
	Stability       float64 `json:"stability"`
	Maturity        string  `json:"maturity"`
	IsLeech         bool    `json:"is_leech"`
	SuggestedAction string  `json:"suggested_action"`
}

// handleGetListHealth reports per-sibling leech status for one list, in
// source order. A list where several siblings lapse together usually
// means the list itself needs rewriting, not the individual cards.
func (s *Server) handleGetListHealth(w http.ResponseWriter, r *http.Request) {
	listID := chi.URLParam(r, "id")
	cards, err := s.db.GetCardsByParentList(listID)
	if err != nil {
		slog.Error("Error loading list", "list_id", listID, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to load list")
		return
	}
	if len(cards) == 0 {
		respondError(w, http.StatusNotFound, "no such list")
		return
	}

	out := make([]listHealthCard, 0, len(cards))
	var leeches int
	for _, c := range cards {
		check := leech.Check(c.Lapses)
		if check.IsLeech {
			leeches++
		}
		out = append(out, listHealthCard{
			ID:              c.ID,
			TargetItem:      c.TargetItem,
			Lapses:          c.Lapses,
			Stability:       c.Stability,
			Maturity:        string(c.Maturity),
			IsLeech:         check.IsLeech,
			SuggestedAction: check.SuggestedAction,
		})
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"list_id":     listID,
		"cards":       out,
		"leech_count": leeches,
	})
}

type sourceJSON struct {
	ID          int64      `json:"id"`
	Path        string     `json:"path"`
	Type        string     `json:"type"`
	LastScanned *time.Time `json:"last_scanned,omitempty"`
}

func toSourceJSON(s storage.Source) sourceJSON {
	out := sourceJSON{ID: s.ID, Path: s.Path, Type: s.Type}
	if s.LastScanned.Valid {
		t := s.LastScanned.Time
		out.LastScanned = &t
	}
	return out
}

func (s *Server) handleGetSources(w http.ResponseWriter, r *http.Request) {
	sources, err := s.db.GetAllSources()
	if err != nil {
		slog.Error("Error getting sources", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to load sources")
		return
	}
	out := make([]sourceJSON, 0, len(sources))
	for _, src := range sources {
		out = append(out, toSourceJSON(src))
	}
	respondJSON(w, http.StatusOK, map[string]any{"sources": out})
}

type sourceRequest struct {
	Path string `json:"path" validate:"required"`
}

func (s *Server) handlePostSource(w http.ResponseWriter, r *http.Request) {
	var req sourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	existing, err := s.db.FindSourceByPath(req.Path)
	if err != nil {
		slog.Error("Error checking for existing source", "path", req.Path, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to save source")
		return
	}
	if existing != nil {
		respondError(w, http.StatusConflict, "source already registered")
		return
	}

	sourceType := "local"
	if strings.HasSuffix(req.Path, ".git") || strings.HasPrefix(req.Path, "git@") ||
		strings.HasPrefix(req.Path, "https://") || strings.HasPrefix(req.Path, "http://") {
		sourceType = "git"
	}

	id, err := s.db.InsertSource(req.Path, sourceType)
	if err != nil {
		slog.Error("Error inserting source", "path", req.Path, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to save source")
		return
	}
	respondJSON(w, http.StatusCreated, sourceJSON{ID: id, Path: req.Path, Type: sourceType})
}

func (s *Server) handleDeleteSource(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid source id")
		return
	}
	if err := s.db.DeleteSource(id); err != nil {
		slog.Error("Error deleting source", "source_id", id, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to delete source")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handlePostSync runs a full reconciliation in the foreground so the
// response reflects the finished state.
func (s *Server) handlePostSync(w http.ResponseWriter, r *http.Request) {
	if err := sync.RunSync(s.db); err != nil {
		slog.Error("Error running sync", "error", err)
		respondError(w, http.StatusInternalServerError, "sync failed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
