package dialogue

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pbaille/masari/internal/domain"
	"github.com/pbaille/masari/internal/intent"
)

// Lang selects the language of every user-facing string.
type Lang string

const (
	Arabic  Lang = "ar"
	Spanish Lang = "es"
)

// ParseLang accepts "ar" or "es".
func ParseLang(s string) (Lang, error) {
	switch l := Lang(strings.ToLower(strings.TrimSpace(s))); l {
	case Arabic, Spanish:
		return l, nil
	}
	return "", fmt.Errorf("unsupported language %q", s)
}

type messages struct {
	askTask        string
	askAppointment string
	askGoal        string
	askShopping    string
	askAmount      string

	taskAdded        string
	onDay            string
	inSection        string
	appointmentAdded string
	atTime           string
	goalAdded        string
	shoppingAdded    string
	incomeAdded      string
	expenseAdded     string

	deleted  string
	notFound string

	answerFound  string
	answerFailed string

	summary       string
	upcoming      string
	noUpcoming    string
	locationSaved string
	myLocation    string
	locateFailed  string

	notUnderstood string
	executeFailed string

	listSep  string
	weekdays [7]string
}

var catalog = map[Lang]messages{
	Arabic: {
		askTask:        "ما هي المهمة؟",
		askAppointment: "ما هو الموعد؟",
		askGoal:        "ما هو الهدف؟",
		askShopping:    "ماذا تريد أن تشتري؟",
		askAmount:      "كم المبلغ؟",

		taskAdded:        "✓ تمت إضافة المهمة",
		onDay:            "ليوم %s",
		inSection:        "(قسم %s)",
		appointmentAdded: "✓ تمت إضافة الموعد",
		atTime:           "الساعة %s",
		goalAdded:        "✓ تمت إضافة الهدف",
		shoppingAdded:    "✓ تمت إضافة العنصر للتسوق: %s",
		incomeAdded:      "✓ تمت إضافة الدخل: %s",
		expenseAdded:     "✓ تمت إضافة المصروف: %s",

		deleted:  "✓ تم حذف: %s",
		notFound: "لم أجد \"%s\" للحذف",

		answerFound:  "✓ تم العثور على الإجابة",
		answerFailed: "عذراً، حدث خطأ أثناء البحث",

		summary:       "ملخص اليوم: %d مهام معلقة، %d مهام اليوم، %d عناصر للتسوق، %d أهداف نشطة. الدخل %s، المصروف %s، الرصيد %s.",
		upcoming:      "مواعيدك القادمة: %s",
		noUpcoming:    "لا توجد مواعيد قادمة.",
		locationSaved: "✓ تم حفظ موقعك (%s، %s)",
		myLocation:    "موقعي",
		locateFailed:  "تعذر تحديد موقعك",

		notUnderstood: "لم أفهم الأمر، حاول بصيغة أخرى",
		executeFailed: "حدث خطأ في تنفيذ الأمر",

		listSep:  "، ",
		weekdays: [7]string{"الأحد", "الاثنين", "الثلاثاء", "الأربعاء", "الخميس", "الجمعة", "السبت"},
	},
	Spanish: {
		askTask:        "¿Cuál es la tarea?",
		askAppointment: "¿Cuál es la cita?",
		askGoal:        "¿Cuál es la meta?",
		askShopping:    "¿Qué quieres comprar?",
		askAmount:      "¿Cuál es el monto?",

		taskAdded:        "✓ Tarea añadida",
		onDay:            "para el %s",
		inSection:        "(sección %s)",
		appointmentAdded: "✓ Cita añadida",
		atTime:           "a las %s",
		goalAdded:        "✓ Meta añadida",
		shoppingAdded:    "✓ Añadido a la lista de compras: %s",
		incomeAdded:      "✓ Ingreso añadido: %s",
		expenseAdded:     "✓ Gasto añadido: %s",

		deleted:  "✓ Eliminado: %s",
		notFound: "No encontré \"%s\" para eliminar",

		answerFound:  "✓ Respuesta encontrada",
		answerFailed: "Error buscando respuesta",

		summary:       "Resumen: %d tareas pendientes, %d tareas hoy, %d artículos en la lista, %d metas activas. Ingresos %s, gastos %s, saldo %s.",
		upcoming:      "Próximas citas: %s",
		noUpcoming:    "No hay citas próximas.",
		locationSaved: "✓ Ubicación guardada (%s, %s)",
		myLocation:    "Mi ubicación",
		locateFailed:  "No pude determinar tu ubicación",

		notUnderstood: "No entendí el comando",
		executeFailed: "Error ejecutando el comando",

		listSep:  ", ",
		weekdays: [7]string{"domingo", "lunes", "martes", "miércoles", "jueves", "viernes", "sábado"},
	},
}

func (l Lang) msg() messages {
	if m, ok := catalog[l]; ok {
		return m
	}
	return catalog[Arabic]
}

func (m messages) question(f FormData) string {
	if f.MissingField == FieldAmount {
		return m.askAmount
	}
	switch f.IntentType {
	case intent.Appointment:
		return m.askAppointment
	case intent.Goal:
		return m.askGoal
	case intent.Shopping:
		return m.askShopping
	}
	return m.askTask
}

// weekday names the weekday of a YYYY-MM-DD date, or "" when it does not
// parse.
func (m messages) weekday(date string) string {
	d, err := time.Parse(intent.DateLayout, date)
	if err != nil {
		return ""
	}
	return m.weekdays[d.Weekday()]
}

func (m messages) summaryText(o domain.Overview) string {
	text := fmt.Sprintf(m.summary,
		o.PendingTasks, o.TodayTasks, o.ShoppingItems, o.ActiveGoals,
		formatAmount(o.Income), formatAmount(o.Expense), formatAmount(o.Balance()))
	if len(o.Upcoming) == 0 {
		return text + " " + m.noUpcoming
	}
	var parts []string
	for _, t := range o.Upcoming {
		when := t.Date
		if t.Time != "" {
			when += " " + t.Time
		}
		parts = append(parts, fmt.Sprintf("%s (%s)", t.Title, when))
	}
	return text + " " + fmt.Sprintf(m.upcoming, strings.Join(parts, m.listSep))
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// spoken strips the visual decorations of a reply.
func spoken(text string) string {
	return strings.TrimSpace(strings.TrimPrefix(text, "✓"))
}
