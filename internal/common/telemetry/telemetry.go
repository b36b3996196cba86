// File path: internal/common/telemetry/telemetry.go
package telemetry

import (
	"context"
	"expvar"
	"strings"
	"sync"
	"time"

	"github.com/rowadtech/mostashar/internal/common"
)

type spanKey struct{}

type span struct {
	name  string
	start time.Time
}

var (
	initOnce sync.Once

	queryTotal       *expvar.Int
	querySuccess     *expvar.Int
	queryFailure     *expvar.Int
	queryRejected    *expvar.Int
	queryLatencyMS   *expvar.Int
	learnedHitsTotal *expvar.Int

	searchTotal     *expvar.Map
	searchLatencyMS *expvar.Map

	embedTotal     *expvar.Int
	embedCacheHits *expvar.Int
	embedFallbacks *expvar.Int
)

func ensureInit() {
	initOnce.Do(func() {
		queryTotal = expvar.NewInt("mostashar_query_total")
		querySuccess = expvar.NewInt("mostashar_query_success")
		queryFailure = expvar.NewInt("mostashar_query_failure")
		queryRejected = expvar.NewInt("mostashar_query_rejected")
		queryLatencyMS = expvar.NewInt("mostashar_query_latency_ms")
		learnedHitsTotal = expvar.NewInt("mostashar_learned_hits_total")

		searchTotal = expvar.NewMap("mostashar_search_total")
		searchLatencyMS = expvar.NewMap("mostashar_search_latency_ms")

		embedTotal = expvar.NewInt("mostashar_embed_total")
		embedCacheHits = expvar.NewInt("mostashar_embed_cache_hits")
		embedFallbacks = expvar.NewInt("mostashar_embed_fallbacks")
	})
}

// StartSpan records a debug trace span. The returned func closes the span and
// logs its duration together with any extra attributes.
func StartSpan(ctx context.Context, name string) (context.Context, func(attrs ...interface{})) {
	ensureInit()
	sp := &span{name: name, start: time.Now()}
	ctx = context.WithValue(ctx, spanKey{}, sp)
	logger := common.Logger()
	logger.Debug("trace: start", "span", name)
	return ctx, func(attrs ...interface{}) {
		duration := time.Since(sp.start)
		logger.Debug("trace: end", append([]interface{}{"span", name, "dur", duration}, attrs...)...)
	}
}

// RecordQuery tracks one processed query. Rejected queries (busy flag) are
// counted separately and excluded from the latency counter.
func RecordQuery(success, rejected bool, duration time.Duration) {
	ensureInit()
	queryTotal.Add(1)
	switch {
	case rejected:
		queryRejected.Add(1)
	case success:
		querySuccess.Add(1)
	default:
		queryFailure.Add(1)
	}
	if !rejected && duration > 0 {
		queryLatencyMS.Add(duration.Milliseconds())
	}
}

// RecordLearnedHit counts a query short-circuited by the learned-answer cache.
func RecordLearnedHit() {
	ensureInit()
	learnedHitsTotal.Add(1)
}

// RecordSearch tracks one collection scan.
func RecordSearch(collection string, duration time.Duration) {
	ensureInit()
	key := strings.TrimSpace(strings.ToLower(collection))
	if key == "" {
		key = "unknown"
	}
	searchTotal.Add(key, 1)
	if duration > 0 {
		searchLatencyMS.Add(key, duration.Milliseconds())
	}
}

// RecordEmbed tracks one embedding request. A cache hit implies no fallback.
func RecordEmbed(cacheHit, fallback bool) {
	ensureInit()
	embedTotal.Add(1)
	if cacheHit {
		embedCacheHits.Add(1)
	}
	if fallback {
		embedFallbacks.Add(1)
	}
}

// SpanDuration reports time elapsed since the enclosing span started.
func SpanDuration(ctx context.Context) time.Duration {
	sp, _ := ctx.Value(spanKey{}).(*span)
	if sp == nil {
		return 0
	}
	return time.Since(sp.start)
}
