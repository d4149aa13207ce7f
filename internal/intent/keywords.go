package intent

// Keyword tables. Arabic first, then Spanish. Type keywords are matched as
// substrings of the normalized utterance so that attached clitics
// (بالموعد, للاجتماع) still match.

var taskKeywords = []string{
	"مهمة", "تذكير", "ذكرني", "عمل", "سوي", "افعل",
	"tarea", "recordatorio", "recuérdame", "recuerdame", "hacer", "trabajo",
}

// recordNouns name the record being created outright. Words of lower
// priority tables that appear next to them describe the record's subject.
var recordNouns = []string{
	"مهمة", "تذكير", "ذكرني",
	"tarea", "recordatorio", "recuérdame", "recuerdame",
}

var appointmentKeywords = []string{
	"موعد", "اجتماع", "لقاء", "دكتور", "طبيب", "زيارة",
	"cita", "reunión", "reunion", "doctor", "médico", "medico", "visita",
}

var shoppingKeywords = []string{
	"اشتري", "شراء", "تسوق", "قائمة", "جيب", "هات",
	"comprar", "compra", "lista", "supermercado", "traer",
}

var incomeKeywords = []string{
	"راتب", "دخل", "مكافأة", "إيداع", "تحويل لي", "استلمت",
	"salario", "sueldo", "ingreso", "bono", "depósito", "deposito", "recibí",
}

var expenseKeywords = []string{
	"مصروف", "صرف", "دفع", "فاتورة", "حساب", "دفعت", "اشتريت", "شريت",
	"gasto", "pago", "pagar", "factura", "cuenta", "pagué", "compré",
}

var questionKeywords = []string{
	"ما حكم", "هل يجوز", "فتوى", "سؤال", "متى", "كيف", "لماذا", "معنى", "تفسير", "رأي", "الشيخ", "ابن باز", "العثيمين",
	"fatwa", "pregunta", "es permitido", "qué opina", "sheikh", "significado",
}

var summaryKeywords = []string{
	"ملخص", "لخص", "خلاصة", "رصيدي", "رصيد", "ميزانية", "كم صرفت",
	"resumen", "saldo", "balance", "cuánto gasté", "cuanto gaste",
}

var locationKeywords = []string{
	"موقعي", "الموقع", "مكاني", "أين أنا", "وين انا",
	"ubicación", "ubicacion", "dónde estoy", "donde estoy", "mi posición",
}

var goalKeywords = []string{
	"هدف", "أهداف", "خطة", "تطوير", "تعلم", "قراءة", "ختمة", "ورد",
	"meta", "objetivo", "plan", "desarrollo", "aprender", "leer",
}

var deleteKeywords = []string{
	"حذف", "احذف", "مسح", "امسح", "إلغاء", "الغاء", "الغي", "شيل",
	"eliminar", "borrar", "cancelar", "quitar", "elimina", "borra", "cancela", "quita",
}

// placeholders are generic nouns that carry no subject on their own.
var placeholders = map[Type][]string{
	Task:        {"مهمة", "تذكير", "ذكرني", "tarea", "recordatorio", "recuérdame", "task"},
	Appointment: {"موعد", "اجتماع", "لقاء", "cita", "reunión", "appointment"},
	Goal:        {"هدف", "خطة", "meta", "objetivo", "plan", "goal"},
	Shopping:    {"اشتري", "شراء", "تسوق", "comprar", "compra", "buy"},
}

// shoppingNoise is stripped from shopping content to leave item names.
var shoppingNoise = []string{
	"اشتري", "شراء", "تسوق", "أضف", "اضف", "إلى", "الى", "قائمة", "التسوق", "جيب", "هات", "أريد", "بدي",
	"comprar", "compra", "lista", "añade", "agrega", "a la", "traer",
}

type categoryRule struct {
	category Category
	keywords []string
}

// expenseCategories is checked in order; the first hit wins.
var expenseCategories = []categoryRule{
	{CategoryBills, []string{"فاتورة", "كهرباء", "ماء", "انترنت", "إنترنت", "factura", "luz", "agua", "internet"}},
	{CategoryFood, []string{"طعام", "أكل", "اكل", "مطعم", "غداء", "عشاء", "comida", "restaurante", "almuerzo", "cena"}},
	{CategoryTransport, []string{"نقل", "مواصلات", "بنزين", "تاكسي", "transporte", "gasolina", "taxi", "autobús", "autobus"}},
	{CategoryEntertainment, []string{"ترفيه", "سينما", "لعب", "entretenimiento", "cine", "juego"}},
	{CategoryHealth, []string{"صحة", "دواء", "طبيب", "مستشفى", "salud", "medicina", "médico", "farmacia", "hospital"}},
	{CategoryEducation, []string{"تعليم", "دراسة", "كتاب", "دورة", "educación", "educacion", "curso", "libro", "estudio"}},
}

type sectionRule struct {
	section  Section
	keywords []string
}

// sections is checked in order; the first hit wins. Matching is per token.
var sections = []sectionRule{
	{SectionTasks, []string{"عمل", "شغل", "وظيفة", "trabajo", "oficina"}},
	{SectionHealth, []string{"صحة", "علاج", "دواء", "رياضة", "salud", "medicina", "ejercicio", "deporte"}},
	{SectionWorship, []string{"عبادة", "صلاة", "قرآن", "قران", "ذكر", "أذكار", "oración", "rezar", "corán"}},
	{SectionIdea, []string{"فكرة", "أفكار", "افكار", "idea", "ideas"}},
	{SectionSelfDev, []string{"تطوير", "تعلم", "قراءة", "aprender", "leer", "estudiar"}},
	{SectionShopping, []string{"تسوق", "شراء", "compras", "comprar"}},
}

// clitics are single-letter or article prefixes peeled off a token before
// section lookup. Longest first.
var clitics = []string{"وال", "بال", "لل", "ال", "و", "ب"}

// connectors are date leftovers removed from content.
var connectors = map[string]bool{
	"بتاريخ": true, "تاريخ": true, "يوم": true, "بيوم": true,
	"fecha": true, "día": true, "dia": true,
}

var leadingPrepositions = map[string]bool{
	"مع": true, "عن": true, "في": true, "ل": true, "لـ": true, "الى": true, "إلى": true,
	"con": true, "para": true, "sobre": true, "en": true, "de": true,
}

var trailingArticles = map[string]bool{
	"ال": true, "el": true, "la": true, "los": true, "las": true,
}

var scholars = []string{"ابن باز", "العثيمين", "ابن عثيمين", "الألباني", "الالباني"}

type itemCategoryRule struct {
	category string
	keywords []string
}

var itemCategories = []itemCategoryRule{
	{"meat", []string{"لحم", "دجاج", "سمك", "carne", "pollo", "pescado"}},
	{"dairy", []string{"حليب", "جبن", "بيض", "لبن", "leche", "queso", "huevo"}},
	{"produce", []string{"طماطم", "خيار", "بصل", "فواكه", "خضار", "tomate", "cebolla", "fruta", "verdura"}},
	{"groceries", []string{"خبز", "رز", "أرز", "مكرونة", "pan", "arroz", "pasta"}},
}

var goalKinds = []itemCategoryRule{
	{"book", []string{"قراءة", "كتاب", "ختمة", "leer", "libro"}},
	{"video", []string{"مشاهدة", "فيديو", "ver", "vídeo", "video"}},
	{"course", []string{"دورة", "كورس", "curso"}},
	{"habit", []string{"ورد", "عادة", "hábito", "habito"}},
}
