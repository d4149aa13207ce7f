package dialogue

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/pbaille/masari/internal/domain"
	"github.com/pbaille/masari/internal/intent"
)

// Wednesday.
var fixedNow = time.Date(2025, 3, 12, 9, 30, 0, 0, time.UTC)

func testDeps(t *testing.T, b *backend) Deps {
	return Deps{
		Tasks:    b,
		Goals:    b,
		Ledger:   b,
		Shopping: b,
		Places:   b,
		Journal:  b,
		Logger:   zaptest.NewLogger(t),
		Now:      func() time.Time { return fixedNow },
	}
}

func TestExpenseAsksForAmount(t *testing.T) {
	b := &backend{}
	c := New(testDeps(t, b))
	ctx := context.Background()

	s, r := c.Turn(ctx, NewSession("s1", Arabic), "دفعت للمطعم")
	assert.Equal(t, AskingSlot, s.State)
	assert.Equal(t, []State{Processing, AskingSlot}, r.Transitions)
	require.NotNil(t, s.Pending)
	assert.Equal(t, FieldAmount, s.Pending.MissingField)
	assert.Equal(t, "كم المبلغ؟", r.Question)
	assert.Equal(t, "كم المبلغ؟", r.Speech)
	assert.Empty(t, b.transactions)

	s, r = c.Turn(ctx, s, "٥٠ ريال")
	assert.Equal(t, Idle, s.State)
	assert.Nil(t, s.Pending)
	assert.Equal(t, []State{Executing, Idle}, r.Transitions)
	assert.NoError(t, r.Err)
	assert.Equal(t, "✓ تمت إضافة المصروف: 50", r.Text)

	require.Len(t, b.transactions, 1)
	tx := b.transactions[0]
	assert.Equal(t, domain.KindExpense, tx.Kind)
	assert.Equal(t, 50.0, tx.Amount)
	assert.Equal(t, string(intent.CategoryFood), tx.Category)
	assert.Equal(t, "دفعت للمطعم", tx.Description)
	assert.Equal(t, "2025-03-12", tx.Date)
}

func TestAmountReplyWithoutNumberAsksAgain(t *testing.T) {
	b := &backend{}
	c := New(testDeps(t, b))
	ctx := context.Background()

	s, _ := c.Turn(ctx, NewSession("s1", Arabic), "راتب")
	require.Equal(t, AskingSlot, s.State)

	s, r := c.Turn(ctx, s, "لا أعرف")
	assert.Equal(t, AskingSlot, s.State)
	assert.Equal(t, FieldAmount, s.Pending.MissingField)
	assert.Equal(t, "كم المبلغ؟", r.Text)
	assert.Empty(t, b.transactions)

	s, _ = c.Turn(ctx, s, "3000")
	assert.Equal(t, Idle, s.State)
	require.Len(t, b.transactions, 1)
	assert.Equal(t, domain.KindIncome, b.transactions[0].Kind)
	assert.Equal(t, 3000.0, b.transactions[0].Amount)
}

func TestPlaceholderTaskAsksForContent(t *testing.T) {
	b := &backend{}
	c := New(testDeps(t, b))
	ctx := context.Background()

	s, r := c.Turn(ctx, NewSession("s1", Arabic), "مهمة غدا")
	require.Equal(t, AskingSlot, s.State)
	assert.Equal(t, FieldContent, s.Pending.MissingField)
	assert.Equal(t, "ما هي المهمة؟", r.Question)

	s, r = c.Turn(ctx, s, "مراجعة التقرير")
	assert.Equal(t, Idle, s.State)
	assert.Equal(t, "✓ تمت إضافة المهمة ليوم الخميس", r.Text)
	assert.Equal(t, "تمت إضافة المهمة ليوم الخميس", r.Speech)

	require.Len(t, b.tasks, 1)
	task := b.tasks[0]
	assert.Equal(t, "مراجعة التقرير", task.Title)
	assert.Equal(t, "2025-03-13", task.Date)
	assert.Equal(t, domain.SectionGeneral, task.Section)
	assert.Equal(t, domain.PriorityMedium, task.Priority)
}

func TestAppointmentKeepsScheduleAcrossSlot(t *testing.T) {
	b := &backend{}
	c := New(testDeps(t, b))
	ctx := context.Background()

	s, r := c.Turn(ctx, NewSession("s1", Arabic), "موعد غدا الساعة 6")
	require.Equal(t, AskingSlot, s.State)
	assert.Equal(t, "ما هو الموعد؟", r.Question)
	assert.Equal(t, "2025-03-13", s.Pending.Data.Date)
	assert.Equal(t, "06:00", s.Pending.Data.Time)

	s, r = c.Turn(ctx, s, "طبيب الأسنان")
	assert.Equal(t, Idle, s.State)
	assert.Equal(t, "✓ تمت إضافة الموعد الساعة 06:00", r.Text)
	require.Len(t, b.tasks, 1)
	assert.Equal(t, domain.Task{
		ID:       "id-1",
		Title:    "طبيب الأسنان",
		Date:     "2025-03-13",
		Time:     "06:00",
		Section:  domain.SectionAppointment,
		Priority: domain.PriorityMedium,
	}, b.tasks[0])
}

func TestCompleteCommandExecutesAtOnce(t *testing.T) {
	b := &backend{}
	c := New(testDeps(t, b))

	s, r := c.Turn(context.Background(), NewSession("s1", Arabic), "اجتماع مع المدير غدا الساعة 5 مساء")
	assert.Equal(t, Idle, s.State)
	assert.Equal(t, []State{Processing, Executing, Idle}, r.Transitions)
	require.NotNil(t, r.Intent)
	assert.Equal(t, intent.Appointment, r.Intent.Type)
	require.Len(t, b.tasks, 1)
	assert.Equal(t, "اجتماع مع المدير", b.tasks[0].Title)
	assert.Equal(t, "17:00", b.tasks[0].Time)
}

func TestShoppingAddsEachItem(t *testing.T) {
	b := &backend{}
	c := New(testDeps(t, b))

	_, r := c.Turn(context.Background(), NewSession("s1", Arabic), "اشتري حليب و خبز")
	assert.Equal(t, "✓ تمت إضافة العنصر للتسوق: حليب، خبز", r.Text)
	require.Len(t, b.items, 2)
	assert.Equal(t, "حليب", b.items[0].Name)
	assert.Equal(t, "dairy", b.items[0].Category)
	assert.Equal(t, "خبز", b.items[1].Name)
	assert.Equal(t, "groceries", b.items[1].Category)
}

func TestGoalDefaults(t *testing.T) {
	b := &backend{}
	c := New(testDeps(t, b))

	_, r := c.Turn(context.Background(), NewSession("s1", Spanish), "meta: aprender un curso de go")
	assert.Equal(t, "✓ Meta añadida", r.Text)
	require.Len(t, b.goals, 1)
	assert.Equal(t, domain.FrequencyOnce, b.goals[0].Frequency)
	assert.Equal(t, domain.GoalActive, b.goals[0].Status)
	assert.Equal(t, "course", b.goals[0].Kind)
}

func TestDispatchFailureReturnsToIdle(t *testing.T) {
	b := &backend{fail: true}
	c := New(testDeps(t, b))

	s, r := c.Turn(context.Background(), NewSession("s1", Spanish), "salario 3000")
	assert.Equal(t, Idle, s.State)
	assert.Nil(t, s.Pending)
	assert.Equal(t, "Error ejecutando el comando", r.Text)
	assert.True(t, errors.Is(r.Err, errRejected))
}

func TestDeleteTaskBySubstring(t *testing.T) {
	b := &backend{}
	b.tasks = []domain.Task{
		{ID: "t1", Title: "اجتماع الفريق"},
		{ID: "t2", Title: "شراء الحليب من السوق"},
	}
	c := New(testDeps(t, b))

	s, r := c.Turn(context.Background(), NewSession("s1", Arabic), "احذف مهمة شراء الحليب")
	assert.Equal(t, Idle, s.State)
	assert.Equal(t, []State{Processing, Idle}, r.Transitions)
	assert.Equal(t, intent.Delete, r.Intent.Action)
	assert.Equal(t, intent.Task, r.Intent.Type)
	assert.Equal(t, "✓ تم حذف: شراء الحليب من السوق", r.Text)
	require.Len(t, b.tasks, 1)
	assert.Equal(t, "t1", b.tasks[0].ID)
}

func TestDeleteNotFound(t *testing.T) {
	b := &backend{}
	c := New(testDeps(t, b))

	_, r := c.Turn(context.Background(), NewSession("s1", Arabic), "احذف مهمة السفر")
	assert.Equal(t, `لم أجد "السفر" للحذف`, r.Text)
	assert.NoError(t, r.Err)
}

func TestDeleteUnknownSearchesShopping(t *testing.T) {
	b := &backend{}
	b.items = []domain.ShoppingItem{{ID: "i1", Name: "طماطم"}}
	c := New(testDeps(t, b))

	_, r := c.Turn(context.Background(), NewSession("s1", Arabic), "امسح طماطم")
	assert.Equal(t, "✓ تم حذف: طماطم", r.Text)
	assert.Empty(t, b.items)
}

func TestQuestionIsAnswered(t *testing.T) {
	b := &backend{}
	a := &answerer{answer: "الصيام واجب في رمضان."}
	v := &voice{}
	deps := testDeps(t, b)
	deps.Answerer = a
	deps.Voice = v
	c := New(deps)

	s, r := c.Turn(context.Background(), NewSession("s1", Arabic), "ما حكم الصيام عند ابن باز")
	assert.Equal(t, Idle, s.State)
	assert.Equal(t, "✓ تم العثور على الإجابة", r.Text)
	assert.Equal(t, a.answer, r.Answer)
	assert.Equal(t, a.answer, r.Speech)
	assert.Equal(t, "ما حكم الصيام عند ابن باز", a.question)
	assert.Equal(t, "ابن باز", a.scholar)
	assert.Equal(t, "ar", a.lang)
	assert.Equal(t, []string{a.answer}, v.spoken)
}

func TestQuestionKeepsDateWords(t *testing.T) {
	a := &answerer{answer: "..."}
	deps := testDeps(t, &backend{})
	deps.Answerer = a
	c := New(deps)

	_, r := c.Turn(context.Background(), NewSession("s1", Arabic), "ما حكم صلاة الجمعة")
	require.NoError(t, r.Err)
	assert.Equal(t, "ما حكم صلاة الجمعة", a.question)

	_, r = c.Turn(context.Background(), NewSession("s2", Spanish), "Pregunta: ¿se puede ayunar mañana a las 5?")
	require.NoError(t, r.Err)
	assert.Equal(t, "pregunta: ¿se puede ayunar mañana a las 5?", a.question)
}

func TestQuestionFailure(t *testing.T) {
	b := &backend{}
	deps := testDeps(t, b)
	deps.Answerer = &answerer{err: errors.New("unavailable")}
	c := New(deps)

	s, r := c.Turn(context.Background(), NewSession("s1", Spanish), "pregunta sobre el ayuno")
	assert.Equal(t, Idle, s.State)
	assert.Equal(t, "Error buscando respuesta", r.Text)
	assert.Error(t, r.Err)
}

func TestSummary(t *testing.T) {
	b := &backend{overview: domain.Overview{
		PendingTasks: 2, TodayTasks: 1, ShoppingItems: 3, ActiveGoals: 1,
		Income: 500, Expense: 300, Savings: 50,
	}}
	c := New(testDeps(t, b))

	_, r := c.Turn(context.Background(), NewSession("s1", Spanish), "resumen")
	assert.Equal(t,
		"Resumen: 2 tareas pendientes, 1 tareas hoy, 3 artículos en la lista, 1 metas activas. Ingresos 500, gastos 300, saldo 150. No hay citas próximas.",
		r.Text)

	b.overview.Upcoming = []domain.Task{{Title: "dentista", Date: "2025-03-13", Time: "10:00"}}
	_, r = c.Turn(context.Background(), NewSession("s1", Spanish), "resumen")
	assert.Contains(t, r.Text, "Próximas citas: dentista (2025-03-13 10:00)")
}

func TestLocationIsSaved(t *testing.T) {
	b := &backend{}
	deps := testDeps(t, b)
	deps.Locator = locator{pos: domain.Coordinates{Lat: 24.7136, Lng: 46.6753}}
	c := New(deps)

	_, r := c.Turn(context.Background(), NewSession("s1", Arabic), "احفظ موقعي")
	assert.Equal(t, "✓ تم حفظ موقعك (24.71360، 46.67530)", r.Text)
	require.Len(t, b.places, 1)
	assert.Equal(t, "موقعي", b.places[0].Name)
	assert.Equal(t, 24.7136, b.places[0].Lat)
}

func TestLocationUsesConfiguredName(t *testing.T) {
	b := &backend{}
	deps := testDeps(t, b)
	deps.Locator = locator{pos: domain.Coordinates{Lat: 40.4168, Lng: -3.7038}}
	deps.PlaceName = "casa"
	c := New(deps)

	_, r := c.Turn(context.Background(), NewSession("s1", Spanish), "guardar ubicación")
	require.NoError(t, r.Err)
	require.Len(t, b.places, 1)
	assert.Equal(t, "casa", b.places[0].Name)
}

func TestLocationWithoutLocator(t *testing.T) {
	c := New(testDeps(t, &backend{}))
	_, r := c.Turn(context.Background(), NewSession("s1", Spanish), "dónde estoy")
	assert.Equal(t, "No pude determinar tu ubicación", r.Text)
	assert.Error(t, r.Err)
}

func TestUnknown(t *testing.T) {
	c := New(testDeps(t, &backend{}))
	s, r := c.Turn(context.Background(), NewSession("s1", Spanish), "hola")
	assert.Equal(t, Idle, s.State)
	assert.Equal(t, "No entendí el comando", r.Text)
}

func TestBusySessionRejectsTurn(t *testing.T) {
	c := New(testDeps(t, &backend{}))
	s := NewSession("s1", Arabic)
	s.State = Processing

	got, r := c.Turn(context.Background(), s, "راتب 100")
	assert.ErrorIs(t, r.Err, ErrBusy)
	assert.Equal(t, s, got)
}

func TestEmptyUtteranceIsIgnored(t *testing.T) {
	b := &backend{}
	c := New(testDeps(t, b))
	s, r := c.Turn(context.Background(), NewSession("s1", Arabic), "  ")
	assert.Equal(t, Idle, s.State)
	assert.Empty(t, r.Transitions)
	assert.Empty(t, s.History)
	assert.Empty(t, b.utterances)
}

func TestListenAndReset(t *testing.T) {
	v := &voice{}
	deps := testDeps(t, &backend{})
	deps.Voice = v
	c := New(deps)
	ctx := context.Background()

	s := c.Listen(NewSession("s1", Spanish))
	assert.Equal(t, Listening, s.State)

	s, _ = c.Turn(ctx, s, "gasto en comida")
	require.Equal(t, AskingSlot, s.State)
	assert.Equal(t, AskingSlot, c.Listen(s).State)

	s = c.Reset(s)
	assert.Equal(t, Idle, s.State)
	assert.Nil(t, s.Pending)
	assert.Equal(t, 1, v.stopped)
}

func TestHistoryKeepsLastTen(t *testing.T) {
	b := &backend{}
	c := New(testDeps(t, b))
	s := NewSession("s1", Spanish)
	for i := 0; i < 12; i++ {
		s, _ = c.Turn(context.Background(), s, fmt.Sprintf("hola %c", 'a'+i))
	}
	require.Len(t, s.History, historyLimit)
	assert.Equal(t, "hola l", s.History[0])
	assert.Equal(t, "hola c", s.History[9])
	assert.Len(t, b.utterances, 12)
	assert.Equal(t, string(intent.Unknown), b.utterances[0].IntentType)
}

func TestSpanishExpenseSlot(t *testing.T) {
	b := &backend{}
	c := New(testDeps(t, b))
	ctx := context.Background()

	s, r := c.Turn(ctx, NewSession("s1", Spanish), "gasto en comida")
	require.Equal(t, AskingSlot, s.State)
	assert.Equal(t, "¿Cuál es el monto?", r.Question)

	_, r = c.Turn(ctx, s, "unos 35.5 pesos")
	assert.Equal(t, "✓ Gasto añadido: 35.5", r.Text)
	require.Len(t, b.transactions, 1)
	assert.Equal(t, string(intent.CategoryFood), b.transactions[0].Category)
}

func TestParseLang(t *testing.T) {
	l, err := ParseLang(" ES ")
	require.NoError(t, err)
	assert.Equal(t, Spanish, l)

	_, err = ParseLang("fr")
	assert.Error(t, err)
}
