// File path: internal/normalize/tables.go
package normalize

// The tables below are data, not control flow: extending the gazetteer or the
// colloquial dictionary must never require touching the pipeline code.

var stopWords = map[string]struct{}{
	"في":    {},
	"من":    {},
	"الي":   {},
	"علي":   {},
	"عن":    {},
	"ما":    {},
	"ماذا":  {},
	"هو":    {},
	"هي":    {},
	"هل":    {},
	"كيف":   {},
	"اين":   {},
	"متي":   {},
	"لماذا": {},
	"هذا":   {},
	"هذه":   {},
	"ذلك":   {},
	"تلك":   {},
	"التي":  {},
	"الذي":  {},
	"ان":    {},
	"انا":   {},
	"انت":   {},
	"نحن":   {},
	"كان":   {},
	"كانت":  {},
	"يكون":  {},
	"لكن":   {},
	"او":    {},
	"ثم":    {},
	"قد":    {},
	"لقد":   {},
	"كل":    {},
	"بعض":   {},
	"عند":   {},
	"مع":    {},
}

// colloquialSynonyms maps Egyptian colloquial forms to their formal
// equivalents. Keys and values are already in normalized orthography; values
// must never appear as keys or normalization would stop being idempotent.
var colloquialSynonyms = map[string]string{
	"عايز":  "اريد",
	"عاوز":  "اريد",
	"عايزه": "اريد",
	"فين":   "اين",
	"ازاي":  "كيف",
	"ايه":   "ما",
	"ليه":   "لماذا",
	"امتي":  "متي",
	"كام":   "كم",
	"بكام":  "كم",
	"مفيش":   "لا يوجد",
	"دلوقتي": "الان",
}

// voiceCorrections fixes recurring speech-recognition errors, mostly place
// names the recognizer splits or mishears. Applied on the raw text before
// normalization.
var voiceCorrections = map[string]string{
	"عاشر رمضان":       "العاشر من رمضان",
	"ستة اكتوبر":       "السادس من أكتوبر",
	"سته اكتوبر":       "السادس من أكتوبر",
	"برج العرب الجديدة": "برج العرب",
	"العين السخنه":     "العين السخنة",
	"قرار مائة واربعة":  "قرار 104",
	"قرار مية واربعة":   "قرار 104",
}

// governorateNames lists the 27 Egyptian governorates in canonical spelling.
// Matching happens on normalized text, so Gazetteer() normalizes these once.
var governorateNames = []string{
	"القاهرة", "الجيزة", "الإسكندرية", "الدقهلية", "البحر الأحمر",
	"البحيرة", "الفيوم", "الغربية", "الإسماعيلية", "المنوفية",
	"المنيا", "القليوبية", "الوادي الجديد", "السويس", "أسوان",
	"أسيوط", "بني سويف", "بورسعيد", "دمياط", "الشرقية",
	"جنوب سيناء", "كفر الشيخ", "مطروح", "الأقصر", "قنا",
	"شمال سيناء", "سوهاج",
}

// activityNames lists common business-activity nouns.
var activityNames = []string{
	"فندق", "مطعم", "مصنع", "شركة", "محل", "صيدلية", "مستشفى",
	"عيادة", "مدرسة", "مخبز", "ورشة", "معرض", "مكتب", "مزرعة",
	"كافيه", "مقهى", "سوبر ماركت", "مغسلة", "صالون", "حضانة",
	"مكتبة", "استوديو", "مطبعة", "معمل", "مخزن", "مستودع",
	"مصنع ملابس", "مصنع أغذية", "مصنع أدوية", "محطة وقود",
	"مركز تدريب", "مركز طبي", "شركة مقاولات", "شركة استيراد",
	"شركة تصدير",
}

// activityTriggers are verbs that introduce an activity noun phrase, e.g.
// "أريد إنشاء مصنع".
var activityTriggers = []string{
	"انشاء", "افتتاح", "فتح", "تشغيل", "اقامه", "تاسيس", "بدء",
}

// locationMarkers introduce a location noun phrase, e.g. "منطقة العاشر".
var locationMarkers = []string{
	"منطقه", "مدينه", "قريه", "حي",
}

// authorityMarkers identify government bodies.
var authorityMarkers = []string{
	"وزاره", "هيئه", "جهاز", "مصلحه", "محافظه",
}
