// Package httpapi exposes the achievement service over a small REST
// surface plus a WebSocket event stream, for dashboards and the bot
// process itself.
package httpapi

import (
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	wsadapter "typequest/adapters/websocket"
	"typequest/core"
	"typequest/engine"
	"typequest/realtime"
)

// Options configures the HTTP surface.
type Options struct {
	// PathPrefix, if set, is prepended to all routes (e.g., "/api").
	PathPrefix string
	// AllowCORSOrigin, if non-empty, enables basic CORS with the given origin (use "*" for any).
	AllowCORSOrigin string
	// APIKeys, if non-empty, enables static API key auth via Authorization: Bearer or X-API-Key.
	APIKeys []string
	// RateLimitEnabled toggles rate limiting.
	RateLimitEnabled bool
	// RateLimitRPM is the allowed requests per minute per client key.
	RateLimitRPM int
	// RateLimitBurst defines burst capacity.
	RateLimitBurst int
}

// scoreRequest is the POST body for recording a finished test.
type scoreRequest struct {
	WPM       float64  `json:"wpm"`
	Accuracy  float64  `json:"accuracy"`
	Words     int64    `json:"words"`
	TestType  string   `json:"test_type"`
	Completed []string `json:"completed,omitempty"`
}

// NewMux builds the handler. Routes:
//   - POST {prefix}/users/{id}/scores
//   - POST {prefix}/users/{id}/votes
//   - POST {prefix}/users/{id}/commands/{cmd}
//   - GET  {prefix}/users/{id}
//   - GET  {prefix}/users/{id}/progress
//   - GET  {prefix}/users/{id}/daily
//   - GET  {prefix}/daily
//   - GET  {prefix}/leaderboard
//   - GET  {prefix}/healthz
//   - WS   {prefix}/ws
func NewMux(svc *engine.Service, hub *realtime.Hub, opts Options) http.Handler {
	mux := http.NewServeMux()
	p := func(pattern string) string { return withPrefix(opts.PathPrefix, pattern) }

	mux.HandleFunc("GET "+p("/healthz"), func(w http.ResponseWriter, r *http.Request) {
		healthCheck(w, r, svc)
	})

	if hub != nil {
		mux.Handle(p("/ws"), wsadapter.Handler(hub))
	}

	mux.HandleFunc("POST "+p("/users/{id}/scores"), func(w http.ResponseWriter, r *http.Request) {
		var body scoreRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_body", "malformed JSON body", nil)
			return
		}
		if body.WPM < 0 || body.Accuracy < 0 || body.Accuracy > 100 || body.Words < 0 {
			writeError(w, http.StatusBadRequest, "invalid_score", "wpm and words must be >= 0, accuracy in [0, 100]", nil)
			return
		}
		score := core.Score{
			WPM:       body.WPM,
			Accuracy:  body.Accuracy,
			Words:     body.Words,
			TestType:  core.TestType(body.TestType),
			Timestamp: time.Now().UTC(),
		}
		res, err := svc.RecordScore(r.Context(), core.UserID(r.PathValue("id")), score, body.Completed...)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_input", err.Error(), nil)
			return
		}
		writeJSON(w, resultResponse(res))
	})

	mux.HandleFunc("POST "+p("/users/{id}/votes"), func(w http.ResponseWriter, r *http.Request) {
		site := r.URL.Query().Get("site")
		res, err := svc.RecordVote(r.Context(), core.UserID(r.PathValue("id")), site, time.Now().UTC())
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_input", err.Error(), nil)
			return
		}
		writeJSON(w, resultResponse(res))
	})

	mux.HandleFunc("POST "+p("/users/{id}/commands/{cmd}"), func(w http.ResponseWriter, r *http.Request) {
		res, err := svc.RecordCommand(r.Context(), core.UserID(r.PathValue("id")), r.PathValue("cmd"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_input", err.Error(), nil)
			return
		}
		writeJSON(w, resultResponse(res))
	})

	mux.HandleFunc("GET "+p("/users/{id}"), func(w http.ResponseWriter, r *http.Request) {
		st, err := svc.GetState(r.Context(), core.UserID(r.PathValue("id")))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_input", err.Error(), nil)
			return
		}
		writeJSON(w, st)
	})

	mux.HandleFunc("GET "+p("/users/{id}/progress"), func(w http.ResponseWriter, r *http.Request) {
		prog, err := svc.Progress(r.Context(), core.UserID(r.PathValue("id")))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_input", err.Error(), nil)
			return
		}
		writeJSON(w, prog)
	})

	mux.HandleFunc("GET "+p("/users/{id}/daily"), func(w http.ResponseWriter, r *http.Request) {
		status, err := svc.DailyFor(r.Context(), core.UserID(r.PathValue("id")), time.Now().UTC())
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_input", err.Error(), nil)
			return
		}
		writeJSON(w, status)
	})

	mux.HandleFunc("GET "+p("/daily"), func(w http.ResponseWriter, r *http.Request) {
		sel := svc.Daily(time.Now().UTC())
		type challenge struct {
			Name        string `json:"name"`
			Description string `json:"description"`
		}
		challenges := make([]challenge, 0, len(sel.Challenges))
		for _, ch := range sel.Challenges {
			challenges = append(challenges, challenge{Name: ch.Name, Description: ch.Description})
		}
		writeJSON(w, map[string]any{
			"day":        sel.Day,
			"challenges": challenges,
			"bonus_xp":   sel.Bonus.Amount,
		})
	})

	mux.HandleFunc("GET "+p("/leaderboard"), func(w http.ResponseWriter, r *http.Request) {
		n := 10
		if q := r.URL.Query().Get("n"); q != "" {
			v, err := strconv.Atoi(q)
			if err != nil || v <= 0 || v > 100 {
				writeError(w, http.StatusBadRequest, "invalid_n", "n must be in [1, 100]", nil)
				return
			}
			n = v
		}
		writeJSON(w, svc.TopN(n))
	})

	var handler http.Handler = mux
	if opts.AllowCORSOrigin != "" {
		handler = withCORS(handler, opts.AllowCORSOrigin)
	}
	if len(opts.APIKeys) > 0 {
		handler = withAPIKeyAuth(handler, opts.APIKeys)
	}
	if opts.RateLimitEnabled && opts.RateLimitRPM > 0 && opts.RateLimitBurst > 0 {
		handler = withRateLimit(handler, opts.RateLimitRPM, opts.RateLimitBurst)
	}
	return handler
}

// resultResponse trims an evaluation result to the wire shape.
func resultResponse(res engine.Result) map[string]any {
	unlocked := make([]map[string]any, 0, len(res.Unlocked))
	for _, ev := range res.Unlocked {
		unlocked = append(unlocked, map[string]any{
			"name":     ev.Rule.Name,
			"category": ev.Category.Name,
		})
	}
	completed := make([]string, 0, len(res.Completed))
	for _, c := range res.Completed {
		completed = append(completed, c.Name)
	}
	return map[string]any{
		"xp":                   res.State.XP,
		"unlocked":             unlocked,
		"categories_completed": completed,
		"daily_done":           res.DailyDone,
		"bonus_xp":             res.BonusXP,
		"rewards":              res.RewardLines,
	}
}

// healthCheck probes storage with a throwaway lookup.
func healthCheck(w http.ResponseWriter, r *http.Request, svc *engine.Service) {
	_, err := svc.GetState(r.Context(), core.UserID("healthcheck_probe"))
	status := map[string]any{
		"status": "healthy",
		"checks": map[string]any{"storage": "ok"},
	}
	if err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		status["status"] = "unhealthy"
		status["checks"].(map[string]any)["storage"] = "failed"
	} else {
		w.WriteHeader(http.StatusOK)
	}
	writeJSON(w, status)
}

func withPrefix(prefix, path string) string {
	if prefix == "" || prefix == "/" {
		return path
	}
	if prefix[len(prefix)-1] == '/' {
		return prefix[:len(prefix)-1] + path
	}
	return prefix + path
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func writeError(w http.ResponseWriter, status int, code, msg string, details any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(apiError{Code: code, Message: msg, Details: details})
}

// withCORS wraps a handler with a minimal CORS policy.
func withCORS(next http.Handler, origin string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Vary", "Origin")
		if r.Method == http.MethodOptions {
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withAPIKeyAuth enforces a shared API key list.
func withAPIKeyAuth(next http.Handler, apiKeys []string) http.Handler {
	allowed := make(map[string]struct{}, len(apiKeys))
	for _, k := range apiKeys {
		k = strings.TrimSpace(k)
		if k != "" {
			allowed[k] = struct{}{}
		}
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := extractAPIKey(r)
		if key == "" {
			writeError(w, http.StatusUnauthorized, "unauthorized", "missing API key", nil)
			return
		}
		if _, ok := allowed[key]; !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized", "invalid API key", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withRateLimit applies a token-bucket limiter per client key.
func withRateLimit(next http.Handler, rpm int, burst int) http.Handler {
	limiter := newRateLimiter(rpm, burst)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.allow(clientKey(r)) {
			writeError(w, http.StatusTooManyRequests, "rate_limited", "too many requests", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func extractAPIKey(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	if key := r.Header.Get("X-API-Key"); key != "" {
		return key
	}
	return ""
}

// clientKey uses API key if present, otherwise remote IP.
func clientKey(r *http.Request) string {
	if key := extractAPIKey(r); key != "" {
		return key
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

type rateLimiter struct {
	rpm   float64
	burst float64
	mu    sync.Mutex
	b     map[string]*bucket
}

type bucket struct {
	tokens float64
	last   time.Time
}

func newRateLimiter(rpm, burst int) *rateLimiter {
	return &rateLimiter{
		rpm:   float64(rpm),
		burst: float64(burst),
		b:     make(map[string]*bucket),
	}
}

func (l *rateLimiter) allow(key string) bool {
	now := time.Now()
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.b[key]
	if !ok {
		l.b[key] = &bucket{tokens: l.burst - 1, last: now}
		return true
	}

	elapsed := now.Sub(b.last).Minutes()
	b.tokens += elapsed * l.rpm
	if b.tokens > l.burst {
		b.tokens = l.burst
	}
	if b.tokens < 1 {
		b.last = now
		return false
	}
	b.tokens--
	b.last = now
	return true
}
