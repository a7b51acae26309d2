package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lazypower/recount/internal/config"
	"github.com/lazypower/recount/internal/store"
)

func testServer(t *testing.T) (*Server, string) {
	t.Helper()

	db, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	projects := t.TempDir()
	projDir := filepath.Join(projects, "-home-alice-myproj")
	if err := os.MkdirAll(projDir, 0755); err != nil {
		t.Fatal(err)
	}
	lines := `{"role":"user","timestamp":"2024-01-01T10:00:00Z","content":"Hello world"}
{"role":"assistant","content":[{"type":"text","text":"Hi back."}]}`
	if err := os.WriteFile(filepath.Join(projDir, "sess-0001.jsonl"), []byte(lines), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := config.Default()
	cfg.ExportDirectory = t.TempDir()

	return New(db, cfg, projects, "test-version"), projects
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := testServer(t)

	req := httptest.NewRequest("GET", "/api/health", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status = %v, want ok", body["status"])
	}
	if body["version"] != "test-version" {
		t.Errorf("version = %v, want test-version", body["version"])
	}
	if body["db"] != true {
		t.Errorf("db = %v, want true", body["db"])
	}
}

func TestListConversations(t *testing.T) {
	srv, _ := testServer(t)

	req := httptest.NewRequest("GET", "/api/conversations?preview=1", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}

	var body struct {
		Conversations []conversationJSON `json:"conversations"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Conversations) != 1 {
		t.Fatalf("conversations = %d, want 1", len(body.Conversations))
	}

	c := body.Conversations[0]
	if c.SessionID != "sess-0001" {
		t.Errorf("session_id = %q", c.SessionID)
	}
	if c.Project != "myproj" {
		t.Errorf("project = %q", c.Project)
	}
	if c.Preview != "Hello world" {
		t.Errorf("preview = %q", c.Preview)
	}
}

func TestConversationMarkdown(t *testing.T) {
	srv, _ := testServer(t)

	req := httptest.NewRequest("GET", "/api/conversations/sess-0001/markdown", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}

	doc := w.Body.String()
	if !strings.HasPrefix(doc, "# Claude Code Conversation") {
		t.Errorf("missing title: %q", doc)
	}
	if !strings.Contains(doc, "Hello world") || !strings.Contains(doc, "Hi back.") {
		t.Errorf("missing turns:\n%s", doc)
	}
}

func TestConversationMarkdownNotFound(t *testing.T) {
	srv, _ := testServer(t)

	req := httptest.NewRequest("GET", "/api/conversations/nope/markdown", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestCreateExport(t *testing.T) {
	srv, _ := testServer(t)

	req := httptest.NewRequest("POST", "/api/exports", strings.NewReader(`{"session_id":"sess-0001"}`))
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}

	var body struct {
		ID    string `json:"id"`
		Dest  string `json:"dest"`
		Bytes int    `json:"bytes"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.ID == "" || body.Bytes == 0 {
		t.Errorf("incomplete response: %+v", body)
	}

	written, err := os.ReadFile(body.Dest)
	if err != nil {
		t.Fatalf("exported file: %v", err)
	}
	if !strings.Contains(string(written), "Hello world") {
		t.Errorf("exported document wrong:\n%s", written)
	}

	// The export lands in the history ledger.
	hreq := httptest.NewRequest("GET", "/api/exports", nil)
	hw := httptest.NewRecorder()
	srv.ServeHTTP(hw, hreq)

	var hist struct {
		Exports []store.Export `json:"exports"`
	}
	if err := json.Unmarshal(hw.Body.Bytes(), &hist); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(hist.Exports) != 1 || hist.Exports[0].SessionID != "sess-0001" {
		t.Errorf("history = %+v", hist.Exports)
	}
}

func TestCreateExportValidation(t *testing.T) {
	srv, _ := testServer(t)

	cases := []struct {
		body string
		want int
	}{
		{`{nope`, http.StatusBadRequest},
		{`{}`, http.StatusBadRequest},
		{`{"session_id":"absent"}`, http.StatusNotFound},
	}
	for _, tc := range cases {
		req := httptest.NewRequest("POST", "/api/exports", strings.NewReader(tc.body))
		w := httptest.NewRecorder()
		srv.ServeHTTP(w, req)
		if w.Code != tc.want {
			t.Errorf("body %s: status = %d, want %d", tc.body, w.Code, tc.want)
		}
	}
}

func TestListExportsEmpty(t *testing.T) {
	srv, _ := testServer(t)

	req := httptest.NewRequest("GET", "/api/exports", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"exports":[]`) {
		t.Errorf("empty history should be an empty array: %s", w.Body.String())
	}
}
