package gateway

import (
	"context"
	"io"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Dialect identifies which chat API the upstream speaks.
type Dialect int

const (
	// DialectUnknown means no probe has completed yet.
	DialectUnknown Dialect = iota

	// DialectNative is Ollama's own chat API: nested sampling options
	// and newline-delimited JSON streaming.
	DialectNative

	// DialectOpenAI is an OpenAI-compatible chat-completions API,
	// including SSE framing. It is also the fallback classification when
	// the native probe fails, since a failed probe proves nothing about
	// the chat endpoint itself.
	DialectOpenAI

	// DialectUnreachable means both probes failed. Only the health check
	// reports it; chat requests never forward to an upstream classified
	// this way because detection alone cannot distinguish "down" from
	// "not native".
	DialectUnreachable
)

func (d Dialect) String() string {
	switch d {
	case DialectNative:
		return "ollama"
	case DialectOpenAI:
		return "openai"
	case DialectUnreachable:
		return "unreachable"
	default:
		return "unknown"
	}
}

// Detector probes the upstream to decide which dialect it speaks and caches
// the answer process-wide. The cache only selects which translator runs; a
// stale answer is never baked into a request body, so it is safe to keep
// the cache brief and loose.
type Detector struct {
	base   string
	client *http.Client
	ttl    time.Duration
	logger *zap.Logger

	mu        sync.Mutex
	dialect   Dialect
	checkedAt time.Time
}

// NewDetector creates a Detector for the given upstream base URL. timeout
// bounds a single probe; ttl is how long a detected dialect is trusted.
func NewDetector(base string, timeout, ttl time.Duration, logger *zap.Logger) *Detector {
	return &Detector{
		base:   base,
		client: &http.Client{Timeout: timeout},
		ttl:    ttl,
		logger: logger,
	}
}

// Detect returns the cached dialect, re-probing when the cache is cold or
// expired. A probe failure is a negative signal (OpenAI-compatible), never
// an error: connection refusals and timeouts are swallowed here.
//
// The probe runs outside the lock so a slow upstream cannot stall every
// concurrent request behind one probe. Concurrent cold-cache requests may
// probe in parallel; the last answer wins, which is harmless since each
// request acts only on the dialect it was handed.
func (d *Detector) Detect(ctx context.Context) Dialect {
	d.mu.Lock()
	if d.dialect != DialectUnknown && time.Since(d.checkedAt) < d.ttl {
		dialect := d.dialect
		d.mu.Unlock()
		return dialect
	}
	d.mu.Unlock()

	dialect := DialectOpenAI
	if d.probeNative(ctx) {
		dialect = DialectNative
	}

	d.mu.Lock()
	d.dialect = dialect
	d.checkedAt = time.Now()
	d.mu.Unlock()

	d.logger.Debug("upstream dialect detected",
		zap.String("base", d.base),
		zap.String("dialect", dialect.String()),
	)
	return dialect
}

// Invalidate drops the cached dialect. Called after a forwarding failure so
// the next request re-probes instead of trusting a stale answer.
func (d *Detector) Invalidate() {
	d.mu.Lock()
	d.dialect = DialectUnknown
	d.mu.Unlock()
}

// probeNative reports whether the upstream answers Ollama's model listing.
func (d *Detector) probeNative(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.base+"/api/tags", nil)
	if err != nil {
		return false
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return resp.StatusCode == http.StatusOK
}
