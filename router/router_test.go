package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"noviai/internal/auth"
	"noviai/internal/catalog"
	"noviai/internal/config"
	"noviai/internal/credit"
	"noviai/internal/pipeline"
	"noviai/internal/store"
	"noviai/internal/upstream"
)

type testEnv struct {
	engine *gin.Engine
	store  *store.Store
	tokens *auth.TokenIssuer
}

func testCreditsConfig() config.CreditsConfig {
	return config.CreditsConfig{
		InitialBalance: 5000,
		Costs: map[string]int64{
			"Text Generation": 10,
			"Image Creation":  50,
			"Video Creation":  50,
			"Voice Synthesis": 50,
		},
		DefaultCost: 50,
	}
}

func newTestEnv(t *testing.T, upstreamURL string, extra func(*Options)) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	path := filepath.Join(t.TempDir(), "noviai.db") + "?_busy_timeout=1000"
	db, err := store.OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := store.EnsureSQLiteSchema(db); err != nil {
		t.Fatalf("EnsureSQLiteSchema: %v", err)
	}
	st := store.New(db)
	st.SetDialect(store.DialectSQLite)

	if upstreamURL == "" {
		upstreamURL = "http://127.0.0.1:0"
	}
	creditsCfg := testCreditsConfig()
	policy := credit.NewPolicy(creditsCfg, st)
	cat := catalog.New()
	gateway := upstream.NewGateway(upstream.NewClient(config.UpstreamConfig{
		APIKey:         "test-key",
		SyncBaseURL:    upstreamURL,
		QueueBaseURL:   upstreamURL,
		PollInterval:   time.Millisecond,
		RequestTimeout: 5 * time.Second,
	}))
	pipe := pipeline.New(policy, cat, gateway)

	tokens, err := auth.NewTokenIssuer("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenIssuer: %v", err)
	}

	opts := Options{
		Store:           st,
		Catalog:         cat,
		Policy:          policy,
		Pipeline:        pipe,
		Tokens:          tokens,
		InitialCredits:  creditsCfg.InitialBalance,
		GenerateTimeout: 5 * time.Second,
	}
	if extra != nil {
		extra(&opts)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	SetRouter(engine, opts)

	return &testEnv{engine: engine, store: st, tokens: tokens}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)

	out := map[string]any{}
	if len(w.Body.Bytes()) > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
			t.Fatalf("unmarshal response %q: %v", w.Body.String(), err)
		}
	}
	return w, out
}

// doRawAuth 以裸令牌（无 "Bearer " 前缀）发起请求。
func (e *testEnv) doRawAuth(t *testing.T, method, path, token string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(method, path, bytes.NewReader(nil))
	req.Header.Set("Authorization", token)
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)

	out := map[string]any{}
	if len(w.Body.Bytes()) > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
			t.Fatalf("unmarshal response %q: %v", w.Body.String(), err)
		}
	}
	return w, out
}

// newAccount 直接落库建号并签发令牌，绕过 HTTP 注册，便于设定任意初始余额。
func (e *testEnv) newAccount(t *testing.T, email string, credits int64) (store.User, string) {
	t.Helper()

	u, err := e.store.CreateOrGetUserByEmail(context.Background(), email, credits)
	if err != nil {
		t.Fatalf("CreateOrGetUserByEmail: %v", err)
	}
	token, err := e.tokens.Issue(u.ID, u.Email)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	return u, token
}

func (e *testEnv) balance(t *testing.T, userID string) int64 {
	t.Helper()
	n, err := e.store.GetCredits(context.Background(), userID)
	if err != nil {
		t.Fatalf("GetCredits: %v", err)
	}
	return n
}

func fakeTextUpstream(t *testing.T, output string) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"output":` + strconvQuote(output) + `,"request_id":"req-1"}`))
	}))
	t.Cleanup(ts.Close)
	return ts
}

func strconvQuote(s string) string {
	raw, _ := json.Marshal(s)
	return string(raw)
}
