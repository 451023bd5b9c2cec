package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stellarlinkco/qbench/internal/config"
	"github.com/stellarlinkco/qbench/internal/leaderboard"
	"github.com/stellarlinkco/qbench/internal/results"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T) (*Server, *leaderboard.Store, string) {
	t.Helper()
	t.Setenv("QBENCH_API_KEY", "")
	t.Setenv("QBENCH_DISABLE_AUTH", "true")
	t.Setenv("QBENCH_CORS_ORIGINS", "")

	st, err := leaderboard.NewStore(":memory:")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	outDir := t.TempDir()
	cfg := config.Default()
	cfg.Output.Dir = outDir
	cfg.Dataset.Problem = "quantumbench"
	cfg.Dataset.HumanEval = ""
	cfg.Dataset.Categories = ""

	srv, err := NewServer(cfg, st)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return srv, st, outDir
}

func doRequest(t *testing.T, srv *Server, method, target string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	srv, _, _ := newTestServer(t)

	w := doRequest(t, srv, http.MethodGet, "/api/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status: %d", w.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["status"] != "ok" {
		t.Fatalf("body: %v", body)
	}
}

func TestAuthRequired(t *testing.T) {
	t.Setenv("QBENCH_API_KEY", "")
	t.Setenv("QBENCH_DISABLE_AUTH", "")

	st, err := leaderboard.NewStore(":memory:")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	defer st.Close()

	if _, err := NewServer(config.Default(), st); err == nil {
		t.Fatal("expected error without auth configuration")
	}
}

func TestAPIKeyAuth(t *testing.T) {
	t.Setenv("QBENCH_API_KEY", "sekret")
	t.Setenv("QBENCH_DISABLE_AUTH", "")
	t.Setenv("QBENCH_CORS_ORIGINS", "")

	st, err := leaderboard.NewStore(":memory:")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	defer st.Close()

	srv, err := NewServer(config.Default(), st)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}

	if w := doRequest(t, srv, http.MethodGet, "/api/health", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("without key: %d", w.Code)
	}
	if w := doRequest(t, srv, http.MethodGet, "/api/health", map[string]string{"X-API-Key": "wrong"}); w.Code != http.StatusUnauthorized {
		t.Fatalf("wrong key: %d", w.Code)
	}
	if w := doRequest(t, srv, http.MethodGet, "/api/health", map[string]string{"X-API-Key": "sekret"}); w.Code != http.StatusOK {
		t.Fatalf("right key: %d", w.Code)
	}
}

func TestCORS(t *testing.T) {
	t.Setenv("QBENCH_API_KEY", "")
	t.Setenv("QBENCH_DISABLE_AUTH", "true")
	t.Setenv("QBENCH_CORS_ORIGINS", "https://qbench.example")

	st, err := leaderboard.NewStore(":memory:")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	defer st.Close()

	srv, err := NewServer(config.Default(), st)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}

	w := doRequest(t, srv, http.MethodGet, "/api/health", map[string]string{"Origin": "https://qbench.example"})
	if w.Code != http.StatusOK {
		t.Fatalf("status: %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://qbench.example" {
		t.Fatalf("allow-origin: %q", got)
	}

	w = doRequest(t, srv, http.MethodGet, "/api/health", map[string]string{"Origin": "https://other.example"})
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("unlisted origin got CORS headers: %q", got)
	}

	w = doRequest(t, srv, http.MethodOptions, "/api/health", map[string]string{"Origin": "https://qbench.example"})
	if w.Code != http.StatusNoContent {
		t.Fatalf("preflight status: %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Methods"); got != "GET,OPTIONS" {
		t.Fatalf("allow-methods: %q", got)
	}
}

func TestSplitOrigins(t *testing.T) {
	if set, all := splitOrigins(""); all || len(set) != 0 {
		t.Fatalf("empty spec: %v %v", set, all)
	}
	if _, all := splitOrigins("https://a.example, *"); !all {
		t.Fatal("wildcard not honored")
	}
	set, all := splitOrigins(" https://a.example ,https://b.example,")
	if all || !set["https://a.example"] || !set["https://b.example"] || len(set) != 2 {
		t.Fatalf("origin set: %v", set)
	}
}

func TestLeaderboardEndpoints(t *testing.T) {
	srv, st, _ := newTestServer(t)

	ctx := context.Background()
	for _, e := range []*leaderboard.Entry{
		{Model: "gpt-5", Backend: "openai", Problem: "quantumbench", Accuracy: 0.60, Correct: 60, Total: 100},
		{Model: "claude-sonnet-4-5", Backend: "claude", Problem: "quantumbench", Accuracy: 0.72, Correct: 72, Total: 100},
	} {
		if err := st.Save(ctx, e); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}

	w := doRequest(t, srv, http.MethodGet, "/api/leaderboard", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status: %d body=%s", w.Code, w.Body.String())
	}
	var entries []leaderboard.Entry
	if err := json.Unmarshal(w.Body.Bytes(), &entries); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(entries) != 2 || entries[0].Model != "claude-sonnet-4-5" {
		t.Fatalf("entries: %+v", entries)
	}

	w = doRequest(t, srv, http.MethodGet, "/api/leaderboard/history?model=gpt-5", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("history status: %d", w.Code)
	}
	if err := json.Unmarshal(w.Body.Bytes(), &entries); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(entries) != 1 || entries[0].Model != "gpt-5" {
		t.Fatalf("history: %+v", entries)
	}

	if w := doRequest(t, srv, http.MethodGet, "/api/leaderboard/history", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("missing model: %d", w.Code)
	}
	if w := doRequest(t, srv, http.MethodGet, "/api/leaderboard?limit=bogus", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("bad limit: %d", w.Code)
	}
}

func TestResultsEndpoints(t *testing.T) {
	srv, _, outDir := newTestServer(t)

	rows := []results.Row{
		{QuestionID: 1, Question: "q1", CorrectAnswer: "x", CorrectLetter: "A", ModelLetter: "A", ModelAnswer: "x", Correct: true, Subdomain: "Circuits", PromptTokens: 12},
		{QuestionID: 2, Question: "q2", CorrectAnswer: "y", CorrectLetter: "B", ModelLetter: "C", ModelAnswer: "z", Correct: false, Subdomain: "Noise"},
	}
	if err := results.Write(filepath.Join(outDir, "run.csv"), rows); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := os.WriteFile(filepath.Join(outDir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	w := doRequest(t, srv, http.MethodGet, "/api/results", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list status: %d", w.Code)
	}
	var files []string
	if err := json.Unmarshal(w.Body.Bytes(), &files); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(files) != 1 || files[0] != "run.csv" {
		t.Fatalf("files: %v", files)
	}

	w = doRequest(t, srv, http.MethodGet, "/api/results/run.csv", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get status: %d body=%s", w.Code, w.Body.String())
	}
	var body struct {
		File  string    `json:"file"`
		Total int       `json:"total"`
		Rows  []rowJSON `json:"rows"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body.Total != 2 || body.Rows[0].ModelLetter != "A" || !body.Rows[0].Correct {
		t.Fatalf("body: %+v", body)
	}

	w = doRequest(t, srv, http.MethodGet, "/api/results/run.csv/report", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("report status: %d body=%s", w.Code, w.Body.String())
	}
	var analysis struct {
		Overall struct {
			Total    int     `json:"total"`
			Correct  int     `json:"correct"`
			PassRate float64 `json:"pass_rate"`
		} `json:"overall"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &analysis); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if analysis.Overall.Total != 2 || analysis.Overall.Correct != 1 || analysis.Overall.PassRate != 50 {
		t.Fatalf("analysis: %+v", analysis)
	}

	if w := doRequest(t, srv, http.MethodGet, "/api/results/notes.txt", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("non-csv name: %d", w.Code)
	}
	if w := doRequest(t, srv, http.MethodGet, "/api/results/..%2Fsecrets.csv", nil); w.Code == http.StatusOK {
		t.Fatalf("traversal must not succeed: %d", w.Code)
	}
	if w := doRequest(t, srv, http.MethodGet, "/api/results/missing.csv", nil); w.Code != http.StatusNotFound {
		t.Fatalf("missing file: %d", w.Code)
	}
}
