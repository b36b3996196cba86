// File path: internal/orchestrator/response.go
package orchestrator

import (
	"github.com/rowadtech/mostashar/internal/search"
)

// Response types.
const (
	TypeResults        = "results"
	TypeLearned        = "learned"
	TypeAnalysis       = "analysis"
	TypeComparison     = "comparison"
	TypeCrossReference = "cross_reference"
	TypeNoResults      = "no_results"
	TypeLowQuality     = "low_quality"
	TypeBusy           = "busy"
	TypeError          = "error"
)

// Quality labels produced by the acceptance policy.
const (
	QualityExcellent = "excellent"
	QualityGood      = "good"
	QualityFair      = "fair"
	QualityWeak      = "weak"
)

// Analysis is the statistical handler's aggregate answer.
type Analysis struct {
	Total      int            `json:"total"`
	ByDatabase map[string]int `json:"by_database"`
}

// ComparisonElement holds the results for one side of a comparative query.
type ComparisonElement struct {
	Subject string          `json:"subject"`
	Results []search.Result `json:"results"`
}

// Response is the structured result of one query. The UI layer owns all
// presentation; this carries data plus a free-text message only.
type Response struct {
	Success       bool                `json:"success"`
	Type          string              `json:"type"`
	Query         string              `json:"query,omitempty"`
	QueryType     string              `json:"query_type,omitempty"`
	Quality       string              `json:"quality,omitempty"`
	Results       []search.Result     `json:"results,omitempty"`
	Analysis      *Analysis           `json:"analysis,omitempty"`
	Comparison    []ComparisonElement `json:"comparison,omitempty"`
	Answer        string              `json:"answer,omitempty"`
	Message       string              `json:"message,omitempty"`
	Suggestion    string              `json:"suggestion,omitempty"`
	TopSimilarity float64             `json:"top_similarity,omitempty"`
	Note          string              `json:"note,omitempty"`
	DurationMs    int64               `json:"duration_ms"`
}

const (
	suggestionRephrase = "حاول إعادة صياغة السؤال بكلمات أخرى أو أضف تفاصيل أكثر."
	messageBusy        = "جاري معالجة سؤال آخر، برجاء المحاولة بعد لحظات."
	messageNoResults   = "لم أجد نتائج مطابقة لسؤالك."
	messageLowQuality  = "النتائج المتاحة غير دقيقة بما يكفي للإجابة على سؤالك."
	messageError       = "حدث خطأ غير متوقع أثناء معالجة السؤال."
	noteWeakResults    = "درجة التطابق منخفضة، قد لا تكون هذه النتائج دقيقة تماماً."
)

func busyResponse() *Response {
	return &Response{Type: TypeBusy, Message: messageBusy, Suggestion: "أعد المحاولة بعد قليل."}
}

func noResultsResponse() *Response {
	return &Response{Type: TypeNoResults, Message: messageNoResults, Suggestion: suggestionRephrase}
}

func lowQualityResponse(top float64) *Response {
	return &Response{
		Type:          TypeLowQuality,
		Message:       messageLowQuality,
		Suggestion:    suggestionRephrase,
		TopSimilarity: top,
	}
}

func errorResponse() *Response {
	return &Response{Type: TypeError, Message: messageError, Suggestion: suggestionRephrase}
}

// acceptResults applies the tiered acceptance policy to results sorted by
// similarity descending. The returned label is empty when nothing clears the
// minimal tier.
func acceptResults(merged []search.Result) ([]search.Result, string) {
	if len(merged) == 0 {
		return nil, ""
	}
	top := merged[0].Score
	switch {
	case top >= 0.65:
		return takeAbove(merged, 0.50, 5), QualityExcellent
	case top >= 0.50:
		return takeAbove(merged, 0.35, 5), QualityGood
	case top >= 0.35:
		return takeAbove(merged, 0.25, 5), QualityFair
	case top >= 0.25:
		return takeAbove(merged, 0, 3), QualityWeak
	default:
		return nil, ""
	}
}

func takeAbove(results []search.Result, floor float64, limit int) []search.Result {
	out := make([]search.Result, 0, limit)
	for _, r := range results {
		if r.Score < floor {
			break
		}
		out = append(out, r)
		if len(out) == limit {
			break
		}
	}
	return out
}
