package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/vnishchay/reasoning-game/internal/domain"
	"github.com/vnishchay/reasoning-game/internal/llm"
	"github.com/vnishchay/reasoning-game/internal/riddle"
	"github.com/vnishchay/reasoning-game/internal/store"
)

const echoJSON = `{"question":"Q","answer":"echo","hints":["a","b","c"]}`

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// scriptedLLM answers generation prompts with genReply and judge prompts with judgeReply.
type scriptedLLM struct {
	genReply   string
	judgeReply string
	err        error
	calls      atomic.Int32
}

func (s *scriptedLLM) Complete(_ context.Context, prompt string) (string, error) {
	s.calls.Add(1)
	if s.err != nil {
		return "", s.err
	}
	if strings.HasPrefix(prompt, "Generate a riddle") {
		return s.genReply, nil
	}
	return s.judgeReply, nil
}

var _ llm.Completer = (*scriptedLLM)(nil)

type testServer struct {
	router http.Handler
	repo   store.Repository
	llm    *scriptedLLM
}

func newTestServer(t *testing.T, completer *scriptedLLM) *testServer {
	t.Helper()
	logger := discardLogger()
	repo := store.NewMemory()
	svc := riddle.NewService(repo, riddle.NewGenerator(completer, logger), riddle.NewJudge(completer, logger), logger)

	r := chi.NewRouter()
	NewRiddleHandler(svc, logger).RegisterRoutes(r)
	NewHealthHandler(repo, 0).RegisterHealth(r)
	return &testServer{router: r, repo: repo, llm: completer}
}

func (s *testServer) do(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var decoded map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("%s %s: decode body %q: %v", method, path, w.Body.String(), err)
	}
	return w, decoded
}

func TestGetRiddleThenHints(t *testing.T) {
	srv := newTestServer(t, &scriptedLLM{genReply: echoJSON})

	w, body := srv.do(t, http.MethodGet, "/getRiddle/5", "")
	if w.Code != http.StatusOK {
		t.Fatalf("getRiddle status %d: %v", w.Code, body)
	}
	if body["Question"] != "Q" || body["Answer"] != "echo" || len(body) != 2 {
		t.Fatalf("unexpected riddle body %v", body)
	}

	w, body = srv.do(t, http.MethodGet, "/getHints/5", "")
	if w.Code != http.StatusOK {
		t.Fatalf("getHints status %d: %v", w.Code, body)
	}
	hints, ok := body["hints"].([]interface{})
	if !ok || len(hints) != 3 || hints[0] != "a" || hints[1] != "b" || hints[2] != "c" {
		t.Fatalf("unexpected hints %v", body["hints"])
	}
	if got := srv.llm.calls.Load(); got != 1 {
		t.Fatalf("expected hints to skip the model, %d calls total", got)
	}
}

func TestLevelOutOfRange(t *testing.T) {
	srv := newTestServer(t, &scriptedLLM{genReply: echoJSON})

	for _, path := range []string{"/getRiddle/0", "/getRiddle/50", "/getRiddle/abc", "/getHints/0", "/getHints/50", "/getHints/-3"} {
		w, body := srv.do(t, http.MethodGet, path, "")
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: status %d, want 400", path, w.Code)
		}
		if body["error"] != "Level must be between 1 and 49." {
			t.Errorf("%s: unexpected error %v", path, body["error"])
		}
	}
	if got := srv.llm.calls.Load(); got != 0 {
		t.Fatalf("model called %d times for invalid levels", got)
	}
}

func TestGetRiddleGenerationFailure(t *testing.T) {
	srv := newTestServer(t, &scriptedLLM{genReply: "I cannot do that"})

	w, body := srv.do(t, http.MethodGet, "/getRiddle/7", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status %d, want 404", w.Code)
	}
	if body["error"] != "Riddle not found for this level." {
		t.Fatalf("unexpected error %v", body["error"])
	}

	w, _ = srv.do(t, http.MethodGet, "/getHints/7", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("hints after failed generation: status %d, want 404", w.Code)
	}
}

func TestGetHintsWithoutRiddle(t *testing.T) {
	srv := newTestServer(t, &scriptedLLM{genReply: echoJSON})

	w, body := srv.do(t, http.MethodGet, "/getHints/12", "")
	if w.Code != http.StatusNotFound || body["error"] != "Hints not found for this level." {
		t.Fatalf("status %d body %v", w.Code, body)
	}
	if srv.llm.calls.Load() != 0 {
		t.Fatal("hints must not trigger generation")
	}
}

func TestValidateAnswer(t *testing.T) {
	srv := newTestServer(t, &scriptedLLM{genReply: echoJSON, judgeReply: "true because it matches"})
	if _, body := srv.do(t, http.MethodGet, "/getRiddle/5", ""); body["Answer"] != "echo" {
		t.Fatalf("setup riddle failed: %v", body)
	}

	w, body := srv.do(t, http.MethodPost, "/validateAnswer", `{"level":5,"userAnswer":"ECHO"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %v", w.Code, body)
	}
	if body["Answer"] != true || body["Reasoning"] != "true because it matches" {
		t.Fatalf("unexpected verdict %v", body)
	}

	w, body = srv.do(t, http.MethodPost, "/validateAnswer", `{"level":"5","userAnswer":"echo"}`)
	if w.Code != http.StatusOK || body["Answer"] != true {
		t.Fatalf("string level: status %d body %v", w.Code, body)
	}
}

func TestValidateAnswerFalseVerdict(t *testing.T) {
	srv := newTestServer(t, &scriptedLLM{judgeReply: "False. The answer is echo."})
	if err := srv.repo.Put(context.Background(), domain.Riddle{Level: 3, Question: "Q", Answer: "echo", Hints: []string{"a", "b", "c"}}); err != nil {
		t.Fatalf("Put: %v", err)
	}

	w, body := srv.do(t, http.MethodPost, "/validateAnswer", `{"level":3,"userAnswer":"shadow"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %v", w.Code, body)
	}
	if body["Answer"] != false || body["Reasoning"] != "False. The answer is echo." {
		t.Fatalf("unexpected verdict %v", body)
	}
}

func TestValidateAnswerErrors(t *testing.T) {
	srv := newTestServer(t, &scriptedLLM{judgeReply: "true"})

	tests := []struct {
		name    string
		body    string
		status  int
		message string
	}{
		{"missing answer", `{"level":5}`, http.StatusBadRequest, "Level and userAnswer are required."},
		{"missing level", `{"userAnswer":"echo"}`, http.StatusBadRequest, "Level and userAnswer are required."},
		{"bad json", `{"level":`, http.StatusBadRequest, "Invalid JSON body."},
		{"out of range", `{"level":77,"userAnswer":"echo"}`, http.StatusBadRequest, "Level must be between 1 and 49."},
		{"not stored", `{"level":5,"userAnswer":"echo"}`, http.StatusNotFound, "Riddle not found for this level."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, body := srv.do(t, http.MethodPost, "/validateAnswer", tt.body)
			if w.Code != tt.status {
				t.Fatalf("status %d, want %d", w.Code, tt.status)
			}
			if body["error"] != tt.message {
				t.Fatalf("error %v, want %q", body["error"], tt.message)
			}
		})
	}
	if srv.llm.calls.Load() != 0 {
		t.Fatal("judge must not be called for rejected requests")
	}
}

func TestValidateAnswerJudgeFailure(t *testing.T) {
	completer := &scriptedLLM{}
	srv := newTestServer(t, completer)
	if err := srv.repo.Put(context.Background(), domain.Riddle{Level: 5, Question: "Q", Answer: "echo", Hints: []string{"a", "b", "c"}}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	completer.err = errors.New("upstream unavailable")

	w, body := srv.do(t, http.MethodPost, "/validateAnswer", `{"level":5,"userAnswer":"echo"}`)
	if w.Code != http.StatusInternalServerError || body["error"] != "Failed to get reasoning from AI." {
		t.Fatalf("status %d body %v", w.Code, body)
	}
}

func TestAskAIForReasoning(t *testing.T) {
	srv := newTestServer(t, &scriptedLLM{judgeReply: "True, a shadow follows you."})

	w, body := srv.do(t, http.MethodPost, "/askAIForReasoning", `{"question":"What follows you everywhere?","userAnswer":"shadow"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %v", w.Code, body)
	}
	if body["Answer"] != true || body["Reasoning"] != "True, a shadow follows you." {
		t.Fatalf("unexpected verdict %v", body)
	}

	w, body = srv.do(t, http.MethodPost, "/askAIForReasoning", `{"question":"Q"}`)
	if w.Code != http.StatusBadRequest || body["error"] != "Question and userAnswer are required." {
		t.Fatalf("status %d body %v", w.Code, body)
	}
}

func TestAskAIForReasoningFailure(t *testing.T) {
	srv := newTestServer(t, &scriptedLLM{err: errors.New("timeout")})

	w, body := srv.do(t, http.MethodPost, "/askAIForReasoning", `{"question":"Q","userAnswer":"echo"}`)
	if w.Code != http.StatusInternalServerError || body["error"] != "Failed to get reasoning from AI." {
		t.Fatalf("status %d body %v", w.Code, body)
	}
}

func TestListLevels(t *testing.T) {
	srv := newTestServer(t, &scriptedLLM{genReply: echoJSON})

	_, body := srv.do(t, http.MethodGet, "/riddles", "")
	if levels, ok := body["levels"].([]interface{}); !ok || len(levels) != 0 {
		t.Fatalf("expected empty level list, got %v", body)
	}

	srv.do(t, http.MethodGet, "/getRiddle/9", "")
	srv.do(t, http.MethodGet, "/getRiddle/2", "")

	_, body = srv.do(t, http.MethodGet, "/riddles", "")
	levels, _ := body["levels"].([]interface{})
	if len(levels) != 2 || levels[0] != float64(2) || levels[1] != float64(9) {
		t.Fatalf("unexpected levels %v", body["levels"])
	}
}

func TestLLMRoutesAreRateLimited(t *testing.T) {
	logger := discardLogger()
	completer := &scriptedLLM{genReply: echoJSON}
	repo := store.NewMemory()
	svc := riddle.NewService(repo, riddle.NewGenerator(completer, logger), riddle.NewJudge(completer, logger), logger)

	blocked := func(http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			Error(w, http.StatusTooManyRequests, "slow down")
		})
	}
	r := chi.NewRouter()
	NewRiddleHandler(svc, logger, blocked).RegisterRoutes(r)

	for path, want := range map[string]int{
		"/getRiddle/1": http.StatusTooManyRequests,
		"/getHints/1":  http.StatusNotFound,
		"/riddles":     http.StatusOK,
	} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != want {
			t.Errorf("%s: status %d, want %d", path, w.Code, want)
		}
	}
}
