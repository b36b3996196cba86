// File path: internal/intent/keywords.go
package intent

// Intent category names.
const (
	IntentLegal       = "legal"
	IntentGeographic  = "geographic"
	IntentTechnical   = "technical"
	IntentIncentive   = "incentive"
	IntentStatistical = "statistical"
	IntentComparative = "comparative"
	IntentActivity    = "activity"
)

// intentKeywords maps each category to its weighted keyword list. All
// entries are in normalized orthography so query words match directly.
var intentKeywords = map[string]map[string]float64{
	IntentLegal: {
		"قانون": 1.0, "قرار": 1.0, "ماده": 0.9, "لائحه": 0.9,
		"تشريع": 0.8, "نص": 0.5, "حكم": 0.6, "بند": 0.6,
	},
	IntentGeographic: {
		"اين": 1.0, "موقع": 0.9, "مكان": 0.8, "منطقه": 0.8,
		"محافظه": 0.9, "مدينه": 0.7, "قريه": 0.6, "عنوان": 0.7,
	},
	IntentTechnical: {
		"اشتراطات": 1.0, "شروط": 0.9, "متطلبات": 0.9, "اجراءات": 0.8,
		"مستندات": 0.8, "اوراق": 0.6, "خطوات": 0.7, "كيف": 0.6,
	},
	IntentIncentive: {
		"حافز": 1.0, "حوافز": 1.0, "اعفاء": 1.0, "ضريبه": 0.8,
		"ضريبي": 0.8, "دعم": 0.7, "تسهيلات": 0.7, "مزايا": 0.8,
	},
	IntentStatistical: {
		"كم": 1.0, "عدد": 1.0, "كل": 0.6, "جميع": 0.7,
		"قائمه": 0.8, "احصائيات": 1.0, "اجمالي": 0.8,
	},
	IntentComparative: {
		"مقارنه": 1.0, "قارن": 1.0, "افضل": 0.9, "الفرق": 0.9,
		"اكبر": 0.6, "اصغر": 0.6, "ارخص": 0.7, "اغلي": 0.7,
	},
	IntentActivity: {
		"نشاط": 1.0, "ترخيص": 0.9, "رخصه": 0.9, "مشروع": 0.8,
		"شركه": 0.7, "محل": 0.6, "مصنع": 0.7, "سجل": 0.6,
	},
}

// collectionPhrases and collectionWords hold the semantic concept lists per
// collection. Full-phrase hits score higher than single-word hits.
var collectionPhrases = map[string][]string{
	"activity":    {"سجل تجاري", "رخصه تشغيل", "اشتراطات الترخيص"},
	"decision104": {"قرار 104", "حوافز الاستثمار", "اعفاء ضريبي", "قانون الاستثمار"},
	"industrial":  {"منطقه صناعيه", "مدينه صناعيه", "هيئه التنميه الصناعيه"},
}

var collectionWords = map[string][]string{
	"activity":    {"نشاط", "ترخيص", "رخصه", "اشتراطات", "رسوم", "فندق", "مطعم", "صيدليه", "محل"},
	"decision104": {"قرار", "قانون", "حافز", "حوافز", "اعفاء", "ضريبه", "ماده", "استثمار"},
	"industrial":  {"صناعي", "صناعيه", "منطقه", "موقع", "ارض", "متر", "محافظه", "مصنع"},
}

// rootRelations grants partial credit between derivationally related words
// that plain substring matching misses.
var rootRelations = map[string][]string{
	"صناعه":   {"صناعي", "صناعيه", "مصنع", "تصنيع"},
	"استثمار": {"مستثمر", "استثماري", "يستثمر"},
	"ترخيص":   {"رخصه", "تراخيص", "مرخص"},
	"ضريبه":   {"ضريبي", "ضرائب"},
}

// intentCollections maps a primary intent to its default collections.
var intentCollections = map[string][]string{
	IntentLegal:       {"decision104"},
	IntentIncentive:   {"decision104"},
	IntentGeographic:  {"industrial"},
	IntentTechnical:   {"activity"},
	IntentActivity:    {"activity"},
	IntentStatistical: {"activity", "decision104", "industrial"},
}

// statisticalMarkers and comparisonMarkers drive query-type detection.
var statisticalMarkers = []string{"كم", "عدد", "جميع", "قائمه", "احصائيات", "اجمالي"}

var comparisonMarkers = []string{"مقارنه", "قارن", "افضل", "الفرق", "ام", "ارخص", "اغلي"}

// contextPronouns flag queries that lean on conversation memory.
var contextPronouns = []string{"هو", "هي", "هذا", "هذه", "ذلك", "تلك", "فيها", "فيه", "عنها", "عنه", "لها", "له"}
