package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/pbaille/masari/internal/dialogue"
	"github.com/pbaille/masari/internal/domain"
	"github.com/pbaille/masari/internal/intent"
)

// Store is the read side the API lists records from.
type Store interface {
	ListTasks(ctx context.Context, f domain.TaskFilter) ([]domain.Task, error)
	ListGoals(ctx context.Context) ([]domain.Goal, error)
	ListTransactions(ctx context.Context, kind string) ([]domain.Transaction, error)
	ListShoppingItems(ctx context.Context, includePurchased bool) ([]domain.ShoppingItem, error)
	ListPlaces(ctx context.Context) ([]domain.Place, error)
	Overview(ctx context.Context, today string) (*domain.Overview, error)
	RecentUtterances(ctx context.Context, limit int) ([]domain.Utterance, error)
}

// Server handles HTTP requests for the assistant API
type Server struct {
	ctrl  *dialogue.Controller
	store Store
	lang  dialogue.Lang
	log   *zap.Logger
	now   func() time.Time

	upgrader websocket.Upgrader

	mu       sync.Mutex
	sessions map[string]*liveSession
}

// liveSession is a stored session plus the turn running on it. gen moves
// on every reset; a turn started under an older gen is not written back.
type liveSession struct {
	sess   dialogue.Session
	gen    uint64
	cancel context.CancelFunc
}

// Options configures a Server. Zero values pick defaults.
type Options struct {
	Lang   dialogue.Lang
	Logger *zap.Logger
	Now    func() time.Time
}

// New creates a new API server
func New(ctrl *dialogue.Controller, st Store, opts Options) *Server {
	s := &Server{
		ctrl:     ctrl,
		store:    st,
		lang:     opts.Lang,
		log:      opts.Logger,
		now:      opts.Now,
		sessions: make(map[string]*liveSession),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(_ *http.Request) bool {
				return true
			},
		},
	}
	if s.lang == "" {
		s.lang = dialogue.Arabic
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	// Sessions
	r.Post("/sessions", s.createSession)
	r.Route("/sessions/{id}", func(r chi.Router) {
		r.Get("/", s.getSession)
		r.Delete("/", s.resetSession)
		r.Post("/listen", s.listen)
		r.Post("/turns", s.turn)
		r.Get("/ws", s.turnStream)
	})

	r.Post("/extract", s.extract)

	// Records
	r.Get("/tasks", s.listTasks)
	r.Get("/shopping", s.listShopping)
	r.Get("/goals", s.listGoals)
	r.Get("/transactions", s.listTransactions)
	r.Get("/places", s.listPlaces)
	r.Get("/summary", s.summary)
	r.Get("/history", s.history)

	// Health check
	r.Get("/health", s.health)

	return withCORS(r)
}

// Run serves on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("starting server", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// withCORS adds CORS headers for frontend development
func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		h.ServeHTTP(w, r)
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("took", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// CreateSessionRequest is the request body for opening a session
type CreateSessionRequest struct {
	Lang string `json:"lang,omitempty"`
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	lang := s.lang
	if req.Lang != "" {
		l, err := dialogue.ParseLang(req.Lang)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		lang = l
	}

	sess := dialogue.NewSession(uuid.NewString(), lang)
	s.mu.Lock()
	s.sessions[sess.ID] = &liveSession{sess: sess}
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, sess)
}

func (s *Server) lookup(id string) (dialogue.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ls, ok := s.sessions[id]
	if !ok {
		return dialogue.Session{}, false
	}
	return ls.sess, true
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// update applies fn to a stored session under the lock.
func (s *Server) update(id string, fn func(dialogue.Session) dialogue.Session) (dialogue.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ls, ok := s.sessions[id]
	if !ok {
		return dialogue.Session{}, false
	}
	ls.sess = fn(ls.sess)
	return ls.sess, true
}

// reset aborts the turn in flight on a session, if any, and closes it.
func (s *Server) reset(id string) (dialogue.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ls, ok := s.sessions[id]
	if !ok {
		return dialogue.Session{}, false
	}
	ls.gen++
	if ls.cancel != nil {
		ls.cancel()
		ls.cancel = nil
	}
	ls.sess = s.ctrl.Reset(ls.sess)
	return ls.sess, true
}

func (s *Server) resetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.reset(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) listen(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.update(chi.URLParam(r, "id"), s.ctrl.Listen)
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// TurnRequest is the request body for one utterance
type TurnRequest struct {
	Utterance string `json:"utterance"`
}

// TurnResponse carries the controller's reply and the session after it
type TurnResponse struct {
	Reply   dialogue.Reply   `json:"reply"`
	Session dialogue.Session `json:"session"`
}

var errNoSession = errors.New("session not found")

// runTurn holds the session in Processing while the controller works, so
// an overlapping turn on the same session is refused with ErrBusy. A reset
// during the turn cancels it and its result is dropped.
func (s *Server) runTurn(ctx context.Context, id, utterance string) (TurnResponse, error) {
	s.mu.Lock()
	ls, ok := s.sessions[id]
	if !ok {
		s.mu.Unlock()
		return TurnResponse{}, errNoSession
	}
	sess := ls.sess
	if sess.State == dialogue.Processing || sess.State == dialogue.Executing {
		s.mu.Unlock()
		return TurnResponse{Session: sess}, dialogue.ErrBusy
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	gen := ls.gen
	ls.cancel = cancel
	ls.sess.State = dialogue.Processing
	s.mu.Unlock()

	next, reply := s.ctrl.Turn(ctx, sess, utterance)

	s.mu.Lock()
	if ls.gen != gen {
		current := ls.sess
		s.mu.Unlock()
		s.log.Debug("turn dropped after reset", zap.String("session", id))
		return TurnResponse{Reply: reply, Session: current}, nil
	}
	ls.sess = next
	ls.cancel = nil
	s.mu.Unlock()

	if reply.Err != nil {
		s.log.Warn("turn failed", zap.String("session", id), zap.Error(reply.Err))
	}
	return TurnResponse{Reply: reply, Session: next}, nil
}

func (s *Server) turn(w http.ResponseWriter, r *http.Request) {
	var req TurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Utterance) == "" {
		writeError(w, http.StatusBadRequest, "utterance is required")
		return
	}

	resp, err := s.runTurn(r.Context(), chi.URLParam(r, "id"), req.Utterance)
	switch {
	case errors.Is(err, errNoSession):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, dialogue.ErrBusy):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeJSON(w, http.StatusOK, resp)
	}
}

// streamEvent is one message sent on the turn stream.
type streamEvent struct {
	Type    string            `json:"type"`
	Reply   *dialogue.Reply   `json:"reply,omitempty"`
	Session *dialogue.Session `json:"session,omitempty"`
	Message string            `json:"message,omitempty"`
}

// turnStream runs turns over a websocket: each text message is an
// utterance, answered with a "reply" event.
func (s *Server) turnStream(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sess, ok := s.lookup(id)
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("upgrade websocket failed", zap.Error(err))
		return
	}
	defer ws.Close()

	if err := ws.WriteJSON(streamEvent{Type: "ready", Session: &sess}); err != nil {
		return
	}

	for {
		var req TurnRequest
		if err := ws.ReadJSON(&req); err != nil {
			s.log.Debug("turn stream closed", zap.String("session", id), zap.Error(err))
			return
		}
		if strings.TrimSpace(req.Utterance) == "" {
			continue
		}

		resp, err := s.runTurn(r.Context(), id, req.Utterance)
		ev := streamEvent{Type: "reply", Reply: &resp.Reply, Session: &resp.Session}
		if err != nil {
			ev = streamEvent{Type: "error", Message: err.Error()}
		}
		if err := ws.WriteJSON(ev); err != nil {
			return
		}
	}
}

// ExtractRequest is the request body for a bare extraction
type ExtractRequest struct {
	Utterance     string `json:"utterance"`
	ReferenceDate string `json:"reference_date,omitempty"`
}

func (s *Server) extract(w http.ResponseWriter, r *http.Request) {
	var req ExtractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Utterance) == "" {
		writeError(w, http.StatusBadRequest, "utterance is required")
		return
	}

	ref := s.now()
	if req.ReferenceDate != "" {
		d, err := time.ParseInLocation(intent.DateLayout, req.ReferenceDate, ref.Location())
		if err != nil {
			writeError(w, http.StatusBadRequest, "reference_date must be YYYY-MM-DD")
			return
		}
		ref = d
	}

	writeJSON(w, http.StatusOK, intent.Extract(req.Utterance, ref))
}

func (s *Server) listTasks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	tasks, err := s.store.ListTasks(r.Context(), domain.TaskFilter{
		Date:        q.Get("date"),
		Section:     q.Get("section"),
		PendingOnly: q.Get("pending") == "true",
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"tasks": tasks})
}

func (s *Server) listShopping(w http.ResponseWriter, r *http.Request) {
	items, err := s.store.ListShoppingItems(r.Context(), r.URL.Query().Get("all") == "true")
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": items})
}

func (s *Server) listGoals(w http.ResponseWriter, r *http.Request) {
	goals, err := s.store.ListGoals(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"goals": goals})
}

func (s *Server) listTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := s.store.ListTransactions(r.Context(), r.URL.Query().Get("kind"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"transactions": txs})
}

func (s *Server) listPlaces(w http.ResponseWriter, r *http.Request) {
	places, err := s.store.ListPlaces(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"places": places})
}

// SummaryResponse is the overview with its derived balance
type SummaryResponse struct {
	*domain.Overview
	Date    string  `json:"date"`
	Balance float64 `json:"balance"`
}

func (s *Server) summary(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = intent.Today(s.now())
	}
	o, err := s.store.Overview(r.Context(), date)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, SummaryResponse{Overview: o, Date: date, Balance: o.Balance()})
}

func (s *Server) history(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			limit = n
		}
	}

	utterances, err := s.store.RecentUtterances(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"utterances": utterances,
		"limit":      limit,
	})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
