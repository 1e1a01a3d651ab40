package router

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestGenerateTextDebitsExactCost(t *testing.T) {
	ts := fakeTextUpstream(t, "code flows like streams")
	env := newTestEnv(t, ts.URL, nil)
	u, token := env.newAccount(t, "haiku@example.com", 5000)

	w, out := env.do(t, http.MethodPost, "/api/generate", token, map[string]any{
		"category": "Text Generation",
		"model":    "Claude",
		"prompt":   "Write a haiku about coding.",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if out["success"] != true {
		t.Fatalf("expected success, got %v", out)
	}
	if got := out["creditsUsed"].(float64); got != 10 {
		t.Fatalf("expected creditsUsed 10, got %v", got)
	}
	if got := out["remainingCredits"].(float64); got != 4990 {
		t.Fatalf("expected remainingCredits 4990, got %v", got)
	}
	if out["model"] != "Claude" || out["category"] != "Text Generation" {
		t.Fatalf("unexpected echo fields: %v", out)
	}
	if out["requestId"] != "req-1" {
		t.Fatalf("expected requestId req-1, got %v", out["requestId"])
	}
	data := out["data"].(map[string]any)
	if data["output"] != "code flows like streams" {
		t.Fatalf("unexpected data: %v", data)
	}
	if _, ok := out["creditWarning"]; ok {
		t.Fatalf("unexpected creditWarning on clean settle")
	}
	if got := env.balance(t, u.ID); got != 4990 {
		t.Fatalf("expected balance 4990, got %d", got)
	}
}

func TestGenerateInsufficientCredits(t *testing.T) {
	ts := fakeTextUpstream(t, "unused")
	env := newTestEnv(t, ts.URL, nil)
	u, token := env.newAccount(t, "poor@example.com", 5)

	w, out := env.do(t, http.MethodPost, "/api/generate", token, map[string]any{
		"category": "Image Creation",
		"model":    "FLUX 2",
		"prompt":   "a cat",
	})
	if w.Code != http.StatusPaymentRequired {
		t.Fatalf("expected 402, got %d: %s", w.Code, w.Body.String())
	}
	if out["success"] != false {
		t.Fatalf("expected success=false, got %v", out)
	}
	if got := out["required"].(float64); got != 50 {
		t.Fatalf("expected required 50, got %v", got)
	}
	if got := out["available"].(float64); got != 5 {
		t.Fatalf("expected available 5, got %v", got)
	}
	if got := env.balance(t, u.ID); got != 5 {
		t.Fatalf("expected balance unchanged at 5, got %d", got)
	}
}

func TestGenerateUnknownModel(t *testing.T) {
	ts := fakeTextUpstream(t, "unused")
	env := newTestEnv(t, ts.URL, nil)
	u, token := env.newAccount(t, "bogus@example.com", 5000)

	w, out := env.do(t, http.MethodPost, "/api/generate", token, map[string]any{
		"category": "Bogus",
		"model":    "Nope",
		"prompt":   "x",
	})
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", w.Code, w.Body.String())
	}
	if out["success"] != false {
		t.Fatalf("expected success=false, got %v", out)
	}
	if got := env.balance(t, u.ID); got != 5000 {
		t.Fatalf("expected balance unchanged, got %d", got)
	}
}

func TestGenerateUpstreamRateLimited(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"detail":"too many requests"}`))
	}))
	t.Cleanup(ts.Close)
	env := newTestEnv(t, ts.URL, nil)
	u, token := env.newAccount(t, "limited@example.com", 5000)

	w, out := env.do(t, http.MethodPost, "/api/generate", token, map[string]any{
		"category": "Text Generation",
		"model":    "Claude",
		"prompt":   "x",
	})
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(out["error"].(string), "限流") {
		t.Fatalf("expected rate-limit message, got %v", out["error"])
	}
	if got := env.balance(t, u.ID); got != 5000 {
		t.Fatalf("failed generation must not debit, got %d", got)
	}
}

func TestGenerateValidation(t *testing.T) {
	ts := fakeTextUpstream(t, "unused")
	env := newTestEnv(t, ts.URL, nil)
	_, token := env.newAccount(t, "valid@example.com", 5000)

	// 缺字段 → 400。
	w, _ := env.do(t, http.MethodPost, "/api/generate", token, map[string]any{
		"category": "Text Generation",
		"model":    "Claude",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing prompt, got %d", w.Code)
	}

	// 无令牌 → 401，且请求体无关紧要。
	w, _ = env.do(t, http.MethodPost, "/api/generate", "", map[string]any{
		"category": "Text Generation",
		"model":    "Claude",
		"prompt":   "x",
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}

	// 伪造令牌 → 401。
	w, _ = env.do(t, http.MethodPost, "/api/generate", "garbage-token", map[string]any{
		"category": "Text Generation",
		"model":    "Claude",
		"prompt":   "x",
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with bad token, got %d", w.Code)
	}
}

func TestGenerateParamsReachUpstream(t *testing.T) {
	var seenBody []byte
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenBody, _ = io.ReadAll(r.Body)
		_, _ = w.Write([]byte(`{"output":"ok"}`))
	}))
	t.Cleanup(ts.Close)
	env := newTestEnv(t, ts.URL, nil)
	_, token := env.newAccount(t, "params@example.com", 5000)

	w, _ := env.do(t, http.MethodPost, "/api/generate", token, map[string]any{
		"category":         "Text Generation",
		"model":            "Claude",
		"prompt":           "hi",
		"additionalParams": map[string]any{"temperature": 0.3},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(string(seenBody), `"temperature":0.3`) {
		t.Fatalf("expected temperature override in upstream body, got %s", seenBody)
	}
}
