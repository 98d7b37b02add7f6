package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"syscall"
	"testing"
	"time"
)

type ipv4Server struct {
	URL string
	srv *http.Server
	ln  net.Listener
}

func newIPv4Server(t *testing.T, handler http.Handler) *ipv4Server {
	t.Helper()
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		if errors.Is(err, syscall.EACCES) || errors.Is(err, syscall.EPERM) {
			t.Skipf("skipping test: cannot open local listener (%v)", err)
		}
		t.Fatalf("listen tcp4: %v", err)
	}
	srv := &http.Server{Handler: handler}
	s := &ipv4Server{
		URL: "http://" + ln.Addr().String(),
		srv: srv,
		ln:  ln,
	}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			panic(fmt.Sprintf("test server serve: %v", err))
		}
	}()
	return s
}

func (s *ipv4Server) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = s.srv.Shutdown(ctx)
}

func testServerSequence(t *testing.T, statuses []int, headers []http.Header, bodyOK any) (*ipv4Server, *int32) {
	t.Helper()
	var idx int32
	return newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		i := int(atomic.AddInt32(&idx, 1)) - 1
		if i >= len(statuses) {
			i = len(statuses) - 1
		}
		st := statuses[i]
		if headers != nil && i < len(headers) && headers[i] != nil {
			for k, vals := range headers[i] {
				for _, v := range vals {
					w.Header().Add(k, v)
				}
			}
		}
		if st >= 200 && st < 300 {
			w.WriteHeader(st)
			_ = json.NewEncoder(w).Encode(bodyOK)
			return
		}
		w.WriteHeader(st)
		_ = json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"message": "rate limited"}})
	})), &idx
}

var hi = []Message{{Role: RoleUser, Content: "hi"}}

func TestGenerateRetriesOn429(t *testing.T) {
	okBody := GenerateResponse{Choices: []Choice{{Message: Message{Role: RoleAssistant, Content: "ok"}}}}
	srv, calls := testServerSequence(t, []int{429, 200}, []http.Header{{"Retry-After": {"0"}}, {}}, okBody)
	defer srv.Close()

	c := NewClientWithBaseURL("test", 2*time.Second, 3, 10*time.Millisecond, 100*time.Millisecond, srv.URL)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	resp, err := c.Generate(ctx, GenerateRequest{Model: "test-model", Messages: hi, MaxTokens: 1})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if resp.Text() != "ok" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if n := atomic.LoadInt32(calls); n != 2 {
		t.Fatalf("expected 2 calls, got %d", n)
	}
}

func TestRetryAfterHonored(t *testing.T) {
	okBody := GenerateResponse{Choices: []Choice{{Message: Message{Role: RoleAssistant, Content: "ok"}}}}
	srv, _ := testServerSequence(t, []int{429, 200}, []http.Header{{"Retry-After": {"1"}}, {}}, okBody)
	defer srv.Close()

	c := NewClientWithBaseURL("test", 5*time.Second, 3, 0, 0, srv.URL)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	start := time.Now()
	if _, err := c.Generate(ctx, GenerateRequest{Model: "test-model", Messages: hi, MaxTokens: 1}); err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 900*time.Millisecond {
		t.Fatalf("expected at least ~1s delay due to Retry-After, got %v", elapsed)
	}
}

func TestServerErrorsExhaustRetries(t *testing.T) {
	srv, calls := testServerSequence(t, []int{503}, nil, nil)
	defer srv.Close()

	c := NewClientWithBaseURL("test", 2*time.Second, 2, 5*time.Millisecond, 10*time.Millisecond, srv.URL)
	_, err := c.Generate(context.Background(), GenerateRequest{Model: "m", Messages: hi})
	var se *ServerError
	if !errors.As(err, &se) {
		t.Fatalf("expected ServerError, got %T: %v", err, err)
	}
	var re *retryableError
	if errors.As(err, &re) {
		t.Fatalf("retry wrapper leaked to caller")
	}
	if n := atomic.LoadInt32(calls); n != 2 {
		t.Fatalf("expected 2 attempts, got %d", n)
	}
}

func TestErrorIncludesRequestID(t *testing.T) {
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Request-Id", "req_test_123")
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"message": "bad req", "code": "bad_request"}})
	}))
	defer srv.Close()

	c := NewClientWithBaseURL("test", 2*time.Second, 1, 10*time.Millisecond, 50*time.Millisecond, srv.URL)
	_, err := c.Generate(context.Background(), GenerateRequest{Model: "test-model", Messages: hi})
	var bre *BadRequestError
	if !errors.As(err, &bre) {
		t.Fatalf("expected BadRequestError, got %T: %v", err, err)
	}
	if !strings.Contains(err.Error(), "req_test_123") {
		t.Fatalf("expected request id in error, got: %v", err)
	}
}

func TestClassifyAPIError(t *testing.T) {
	cases := []struct {
		status int
		code   string
		msg    string
		check  func(error) bool
	}{
		{401, "", "", func(e error) bool { var x *AuthError; return errors.As(e, &x) }},
		{429, "", "", func(e error) bool { var x *RateLimitError; return errors.As(e, &x) }},
		{404, "model_not_found", "", func(e error) bool { var x *ModelNotFoundError; return errors.As(e, &x) }},
		{404, "", "route missing", func(e error) bool { var x *APIError; return errors.As(e, &x) }},
		{402, "", "Quota exhausted", func(e error) bool { var x *QuotaExceededError; return errors.As(e, &x) }},
		{502, "", "", func(e error) bool { var x *ServerError; return errors.As(e, &x) }},
	}
	for _, c := range cases {
		err := classifyAPIError(&APIError{StatusCode: c.status, Code: c.code, Message: c.msg}, http.Header{})
		if !c.check(err) {
			t.Fatalf("status %d: unexpected classification %T", c.status, err)
		}
	}
}

func TestGenerateRequestsJSONMode(t *testing.T) {
	var got map[string]any
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Title") != appTitle {
			t.Errorf("missing X-Title header")
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_ = json.NewEncoder(w).Encode(GenerateResponse{Choices: []Choice{{Message: Message{Content: "{}"}}}})
	}))
	defer srv.Close()

	c := NewClientWithBaseURL("test", 2*time.Second, 1, 0, 0, srv.URL)
	if _, err := c.Generate(context.Background(), GenerateRequest{Model: "m", Messages: hi, JSON: true}); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	rf, ok := got["response_format"].(map[string]any)
	if !ok || rf["type"] != "json_object" {
		t.Fatalf("expected response_format json_object, got %v", got["response_format"])
	}
	if _, ok := got["JSON"]; ok {
		t.Fatalf("internal JSON flag leaked into payload")
	}
}

func TestGenerateValidation(t *testing.T) {
	c := NewClientWithBaseURL("", time.Second, 1, 0, 0, "http://127.0.0.1:1")
	if _, err := c.Generate(context.Background(), GenerateRequest{Model: "m", Messages: hi}); !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("expected ErrMissingAPIKey, got %v", err)
	}
	c = NewClientWithBaseURL("k", time.Second, 1, 0, 0, "http://127.0.0.1:1")
	if _, err := c.Generate(context.Background(), GenerateRequest{Messages: hi}); !errors.Is(err, ErrEmptyModel) {
		t.Fatalf("expected ErrEmptyModel, got %v", err)
	}
}

func TestOpenRouterStreamParsesDeltas(t *testing.T) {
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprintf(w, ": keep-alive\n\n")
		fmt.Fprintf(w, "data: {\"choices\":[{\"delta\":{\"content\":\"hello \"}}]}\n\n")
		fmt.Fprintf(w, "data: {\"choices\":[{\"delta\":{\"content\":\"world\"}}]}\n\n")
		fmt.Fprintf(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	c := NewClientWithBaseURL("test", 5*time.Second, 1, 0, 0, srv.URL)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	var out string
	err := c.GenerateStream(ctx, GenerateRequest{Model: "test", Messages: hi}, func(d string) { out += d })
	if err != nil {
		t.Fatalf("GenerateStream error: %v", err)
	}
	if out != "hello world" {
		t.Fatalf("unexpected stream accumulation: %q", out)
	}
}

func TestRuntimeRegistry(t *testing.T) {
	if got := CanonicalProvider(" Local "); got != ProviderOllama {
		t.Fatalf("local alias: got %q", got)
	}
	if got := CanonicalProvider("anthropic"); got != ProviderOpenRouter {
		t.Fatalf("anthropic alias: got %q", got)
	}
	if got := CanonicalProvider(""); got != ProviderOpenRouter {
		t.Fatalf("empty provider: got %q", got)
	}
	rt, ok := GetRuntime("local", RuntimeConfig{Host: "http://127.0.0.1:9"})
	if !ok {
		t.Fatalf("expected ollama runtime")
	}
	if _, isStream := rt.(StreamRuntime); !isStream {
		t.Fatalf("ollama runtime should stream")
	}
	if _, ok := GetRuntime("bogus", RuntimeConfig{}); ok {
		t.Fatalf("unexpected runtime for unknown provider")
	}
	if got := Providers(); len(got) != 2 || got[0] != ProviderOllama || got[1] != ProviderOpenRouter {
		t.Fatalf("unexpected providers: %v", got)
	}
}

func TestCatalog(t *testing.T) {
	if ContextWindow("no/such-model") != defaultContextTokens {
		t.Fatalf("unknown model should get default context")
	}
	cost, ok := EstimateCostUSD("openai/gpt-4o-mini", 1000, 1000)
	if !ok || cost <= 0 {
		t.Fatalf("expected positive cost, got %v %v", cost, ok)
	}

	p := filepath.Join(t.TempDir(), "models.yaml")
	data := "acme/tiny:\n  context_tokens: 2048\n  input_per_k: 0.1\n  output_per_k: 0.2\n"
	if err := os.WriteFile(p, []byte(data), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	m, err := LoadCatalog(p)
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}
	MergeCatalog(m)
	mi, ok := LookupModel("acme/tiny")
	if !ok || mi.Name != "acme/tiny" || mi.ContextTokens != 2048 {
		t.Fatalf("unexpected merged entry: %+v", mi)
	}
	if ContextWindow("acme/tiny") != 2048 {
		t.Fatalf("context window not taken from catalog")
	}
}
