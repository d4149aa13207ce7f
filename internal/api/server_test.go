package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/pbaille/masari/internal/dialogue"
	"github.com/pbaille/masari/internal/domain"
	"github.com/pbaille/masari/internal/intent"
	"github.com/pbaille/masari/internal/store"
)

// Wednesday.
var fixedNow = time.Date(2025, 3, 12, 9, 30, 0, 0, time.UTC)

// gate is an Answerer that blocks until released. With deaf set it also
// ignores cancellation.
type gate struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
	deaf    atomic.Bool
}

func newGate() *gate {
	return &gate{entered: make(chan struct{}, 1), release: make(chan struct{})}
}

func (g *gate) Answer(ctx context.Context, _, _, _ string) (string, error) {
	g.entered <- struct{}{}
	if g.deaf.Load() {
		<-g.release
		return "respuesta", nil
	}
	select {
	case <-g.release:
		return "respuesta", nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (g *gate) open() { g.once.Do(func() { close(g.release) }) }

type fixture struct {
	srv   *httptest.Server
	store *store.Store
	gate  *gate
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st, err := store.New(filepath.Join(t.TempDir(), "masari.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	g := newGate()
	log := zaptest.NewLogger(t)
	now := func() time.Time { return fixedNow }
	ctrl := dialogue.New(dialogue.Deps{
		Tasks:    st,
		Goals:    st,
		Ledger:   st,
		Shopping: st,
		Places:   st,
		Journal:  st,
		Answerer: g,
		Logger:   log,
		Now:      now,
	})

	// The turn stream handler can outlive a test after the client hangs
	// up, so the server itself logs nowhere.
	srv := httptest.NewServer(New(ctrl, st, Options{Lang: dialogue.Spanish, Logger: zap.NewNop(), Now: now}).Handler())
	t.Cleanup(srv.Close)
	t.Cleanup(g.open)
	return &fixture{srv: srv, store: st, gate: g}
}

func (f *fixture) do(t *testing.T, method, path string, body any, out any) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, f.srv.URL+path, &buf)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (f *fixture) newSession(t *testing.T, lang string) dialogue.Session {
	t.Helper()
	var sess dialogue.Session
	require.Equal(t, http.StatusCreated, f.do(t, "POST", "/sessions", CreateSessionRequest{Lang: lang}, &sess))
	require.NotEmpty(t, sess.ID)
	return sess
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	var body map[string]string
	assert.Equal(t, http.StatusOK, f.do(t, "GET", "/health", nil, &body))
	assert.Equal(t, "ok", body["status"])
}

func TestCreateSessionDefaultsLang(t *testing.T) {
	f := newFixture(t)

	resp, err := http.Post(f.srv.URL+"/sessions", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	var sess dialogue.Session
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&sess))
	assert.Equal(t, dialogue.Spanish, sess.Lang)
	assert.Equal(t, dialogue.Idle, sess.State)

	assert.Equal(t, http.StatusBadRequest, f.do(t, "POST", "/sessions", CreateSessionRequest{Lang: "fr"}, nil))
}

func TestSlotFillingOverHTTP(t *testing.T) {
	f := newFixture(t)
	sess := f.newSession(t, "ar")

	var turn TurnResponse
	require.Equal(t, http.StatusOK, f.do(t, "POST", "/sessions/"+sess.ID+"/turns", TurnRequest{Utterance: "دفعت للمطعم"}, &turn))
	assert.Equal(t, dialogue.AskingSlot, turn.Session.State)
	assert.Equal(t, "كم المبلغ؟", turn.Reply.Question)
	require.NotNil(t, turn.Reply.Intent)
	assert.Equal(t, intent.Expense, turn.Reply.Intent.Type)

	var got dialogue.Session
	require.Equal(t, http.StatusOK, f.do(t, "GET", "/sessions/"+sess.ID, nil, &got))
	assert.Equal(t, dialogue.AskingSlot, got.State)

	require.Equal(t, http.StatusOK, f.do(t, "POST", "/sessions/"+sess.ID+"/turns", TurnRequest{Utterance: "٥٠"}, &turn))
	assert.Equal(t, dialogue.Idle, turn.Session.State)
	assert.Equal(t, "✓ تمت إضافة المصروف: 50", turn.Reply.Text)

	var txs struct {
		Transactions []domain.Transaction `json:"transactions"`
	}
	require.Equal(t, http.StatusOK, f.do(t, "GET", "/transactions?kind=expense", nil, &txs))
	require.Len(t, txs.Transactions, 1)
	assert.Equal(t, 50.0, txs.Transactions[0].Amount)
	assert.Equal(t, string(intent.CategoryFood), txs.Transactions[0].Category)

	var hist struct {
		Utterances []domain.Utterance `json:"utterances"`
	}
	require.Equal(t, http.StatusOK, f.do(t, "GET", "/history?limit=5", nil, &hist))
	assert.Len(t, hist.Utterances, 2)
}

func TestTurnErrors(t *testing.T) {
	f := newFixture(t)
	sess := f.newSession(t, "es")

	assert.Equal(t, http.StatusNotFound, f.do(t, "POST", "/sessions/missing/turns", TurnRequest{Utterance: "hola"}, nil))
	assert.Equal(t, http.StatusBadRequest, f.do(t, "POST", "/sessions/"+sess.ID+"/turns", TurnRequest{Utterance: "  "}, nil))

	resp, err := http.Post(f.srv.URL+"/sessions/"+sess.ID+"/turns", "application/json", strings.NewReader("{"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestOverlappingTurnIsRefused(t *testing.T) {
	f := newFixture(t)
	sess := f.newSession(t, "es")

	done := make(chan TurnResponse, 1)
	go func() {
		var turn TurnResponse
		body := strings.NewReader(`{"utterance":"pregunta sobre el ayuno"}`)
		resp, err := http.Post(f.srv.URL+"/sessions/"+sess.ID+"/turns", "application/json", body)
		if err == nil {
			json.NewDecoder(resp.Body).Decode(&turn)
			resp.Body.Close()
		}
		done <- turn
	}()

	select {
	case <-f.gate.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("question never reached the answerer")
	}

	var body map[string]string
	assert.Equal(t, http.StatusConflict, f.do(t, "POST", "/sessions/"+sess.ID+"/turns", TurnRequest{Utterance: "resumen"}, &body))
	assert.Equal(t, dialogue.ErrBusy.Error(), body["error"])

	f.gate.open()
	turn := <-done
	assert.Equal(t, "respuesta", turn.Reply.Answer)
	assert.Equal(t, dialogue.Idle, turn.Session.State)
}

// startTurn posts utterance in the background and waits until the turn
// is blocked in the answerer.
func (f *fixture) startTurn(t *testing.T, id, utterance string) <-chan TurnResponse {
	t.Helper()
	done := make(chan TurnResponse, 1)
	go func() {
		var turn TurnResponse
		body, _ := json.Marshal(TurnRequest{Utterance: utterance})
		resp, err := http.Post(f.srv.URL+"/sessions/"+id+"/turns", "application/json", bytes.NewReader(body))
		if err == nil {
			json.NewDecoder(resp.Body).Decode(&turn)
			resp.Body.Close()
		}
		done <- turn
	}()

	select {
	case <-f.gate.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("question never reached the answerer")
	}
	return done
}

func TestResetCancelsTurn(t *testing.T) {
	f := newFixture(t)
	sess := f.newSession(t, "es")
	done := f.startTurn(t, sess.ID, "pregunta sobre el ayuno")

	var got dialogue.Session
	require.Equal(t, http.StatusOK, f.do(t, "DELETE", "/sessions/"+sess.ID, nil, &got))
	assert.Equal(t, dialogue.Idle, got.State)

	select {
	case turn := <-done:
		assert.Empty(t, turn.Reply.Answer)
		assert.Equal(t, dialogue.Idle, turn.Session.State)
	case <-time.After(2 * time.Second):
		t.Fatal("turn kept running after reset")
	}

	var turn TurnResponse
	require.Equal(t, http.StatusOK, f.do(t, "POST", "/sessions/"+sess.ID+"/turns", TurnRequest{Utterance: "gasto en comida"}, &turn))
	assert.Equal(t, dialogue.AskingSlot, turn.Session.State)
}

func TestTurnAfterResetKeepsItsForm(t *testing.T) {
	f := newFixture(t)
	f.gate.deaf.Store(true)
	sess := f.newSession(t, "es")
	done := f.startTurn(t, sess.ID, "pregunta sobre el ayuno")

	require.Equal(t, http.StatusOK, f.do(t, "DELETE", "/sessions/"+sess.ID, nil, nil))

	var turn TurnResponse
	require.Equal(t, http.StatusOK, f.do(t, "POST", "/sessions/"+sess.ID+"/turns", TurnRequest{Utterance: "gasto en comida"}, &turn))
	require.Equal(t, dialogue.AskingSlot, turn.Session.State)

	f.gate.open()
	stale := <-done
	assert.Equal(t, "respuesta", stale.Reply.Answer)
	assert.Equal(t, dialogue.AskingSlot, stale.Session.State)

	var got dialogue.Session
	require.Equal(t, http.StatusOK, f.do(t, "GET", "/sessions/"+sess.ID, nil, &got))
	assert.Equal(t, dialogue.AskingSlot, got.State)
	require.NotNil(t, got.Pending)
	assert.Equal(t, dialogue.FieldAmount, got.Pending.MissingField)
}

func TestListenAndReset(t *testing.T) {
	f := newFixture(t)
	sess := f.newSession(t, "es")

	var got dialogue.Session
	require.Equal(t, http.StatusOK, f.do(t, "POST", "/sessions/"+sess.ID+"/listen", nil, &got))
	assert.Equal(t, dialogue.Listening, got.State)

	var turn TurnResponse
	f.do(t, "POST", "/sessions/"+sess.ID+"/turns", TurnRequest{Utterance: "gasto en comida"}, &turn)
	require.Equal(t, dialogue.AskingSlot, turn.Session.State)

	require.Equal(t, http.StatusOK, f.do(t, "DELETE", "/sessions/"+sess.ID, nil, &got))
	assert.Equal(t, dialogue.Idle, got.State)
	assert.Nil(t, got.Pending)

	assert.Equal(t, http.StatusNotFound, f.do(t, "DELETE", "/sessions/missing", nil, nil))
}

func TestExtract(t *testing.T) {
	f := newFixture(t)

	var in intent.Intent
	require.Equal(t, http.StatusOK, f.do(t, "POST", "/extract", ExtractRequest{Utterance: "موعد طبيب غدا الساعة 5 مساء"}, &in))
	assert.Equal(t, intent.Appointment, in.Type)
	assert.Equal(t, "2025-03-13", in.Date)
	assert.Equal(t, "17:00", in.Time)

	require.Equal(t, http.StatusOK, f.do(t, "POST", "/extract", ExtractRequest{Utterance: "tarea mañana", ReferenceDate: "2025-12-31"}, &in))
	assert.Equal(t, "2026-01-01", in.Date)

	assert.Equal(t, http.StatusBadRequest, f.do(t, "POST", "/extract", ExtractRequest{Utterance: "x", ReferenceDate: "31/12"}, nil))
	assert.Equal(t, http.StatusBadRequest, f.do(t, "POST", "/extract", ExtractRequest{}, nil))
}

func TestRecordListings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.store.AddTask(ctx, domain.Task{Title: "dentista", Date: "2025-03-12", Time: "16:00", Section: domain.SectionAppointment})
	require.NoError(t, err)
	_, err = f.store.AddShoppingItem(ctx, domain.ShoppingItem{Name: "leche", Category: "dairy"})
	require.NoError(t, err)
	_, err = f.store.AddGoal(ctx, domain.Goal{Title: "leer", Kind: "book", Frequency: domain.FrequencyWeekly, Status: domain.GoalActive})
	require.NoError(t, err)
	_, err = f.store.AddTransaction(ctx, domain.Transaction{Kind: domain.KindIncome, Amount: 1000, Date: "2025-03-12"})
	require.NoError(t, err)
	_, err = f.store.AddTransaction(ctx, domain.Transaction{Kind: domain.KindExpense, Amount: 250, Category: "food", Date: "2025-03-12"})
	require.NoError(t, err)
	_, err = f.store.SavePlace(ctx, domain.Place{Name: "casa", Coordinates: domain.Coordinates{Lat: 1, Lng: 2}})
	require.NoError(t, err)

	var tasks struct {
		Tasks []domain.Task `json:"tasks"`
	}
	require.Equal(t, http.StatusOK, f.do(t, "GET", "/tasks?section=appointment&pending=true", nil, &tasks))
	require.Len(t, tasks.Tasks, 1)
	assert.Equal(t, "dentista", tasks.Tasks[0].Title)

	var items struct {
		Items []domain.ShoppingItem `json:"items"`
	}
	require.Equal(t, http.StatusOK, f.do(t, "GET", "/shopping", nil, &items))
	require.Len(t, items.Items, 1)
	assert.Equal(t, "leche", items.Items[0].Name)

	var goals struct {
		Goals []domain.Goal `json:"goals"`
	}
	require.Equal(t, http.StatusOK, f.do(t, "GET", "/goals", nil, &goals))
	assert.Len(t, goals.Goals, 1)

	var places struct {
		Places []domain.Place `json:"places"`
	}
	require.Equal(t, http.StatusOK, f.do(t, "GET", "/places", nil, &places))
	assert.Len(t, places.Places, 1)

	var sum struct {
		domain.Overview
		Date    string  `json:"date"`
		Balance float64 `json:"balance"`
	}
	require.Equal(t, http.StatusOK, f.do(t, "GET", "/summary", nil, &sum))
	assert.Equal(t, "2025-03-12", sum.Date)
	assert.Equal(t, 750.0, sum.Balance)
	assert.Equal(t, 1, sum.PendingTasks)
	assert.Equal(t, 1, sum.ShoppingItems)
	require.Len(t, sum.Upcoming, 1)
	assert.Equal(t, "dentista", sum.Upcoming[0].Title)
}

func TestTurnStream(t *testing.T) {
	f := newFixture(t)
	sess := f.newSession(t, "es")

	url := "ws" + strings.TrimPrefix(f.srv.URL, "http") + "/sessions/" + sess.ID + "/ws"
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer ws.Close()

	var ev streamEvent
	require.NoError(t, ws.ReadJSON(&ev))
	assert.Equal(t, "ready", ev.Type)

	require.NoError(t, ws.WriteJSON(TurnRequest{Utterance: "comprar leche y pan"}))
	ev = streamEvent{}
	require.NoError(t, ws.ReadJSON(&ev))
	require.Equal(t, "reply", ev.Type)
	require.NotNil(t, ev.Reply)
	assert.Equal(t, dialogue.Idle, ev.Session.State)

	items, err := f.store.ListShoppingItems(context.Background(), false)
	require.NoError(t, err)
	assert.Len(t, items, 2)

	_, _, err = websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(f.srv.URL, "http")+"/sessions/missing/ws", nil)
	assert.Error(t, err)
}
