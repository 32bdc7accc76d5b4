package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hyperjump/kotae/internal/config"
	"github.com/hyperjump/kotae/internal/index"
	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/session"
	"go.uber.org/zap"
)

type mockService struct {
	uploads   map[string]string
	uploadErr map[string]error
	questions []string
	messages  []models.Message
	docs      []models.SourceSummary
	statusErr error
}

func newMockService() *mockService {
	return &mockService{uploads: map[string]string{}, uploadErr: map[string]error{}}
}

func (m *mockService) Upload(_ context.Context, filename string, r io.Reader) (int, error) {
	if err := m.uploadErr[filename]; err != nil {
		return 0, err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	m.uploads[filename] = string(data)
	return 2, nil
}

func (m *mockService) Ask(_ context.Context, question string) models.AnswerResult {
	m.questions = append(m.questions, question)
	return models.AnswerResult{Answer: "42", Sources: []string{"guide.pdf"}, RouteUsed: models.RouteDocument}
}

func (m *mockService) Messages() []models.Message { return m.messages }

func (m *mockService) Documents(context.Context) ([]models.SourceSummary, error) {
	return m.docs, nil
}

func (m *mockService) Status(context.Context) (*session.Status, error) {
	if m.statusErr != nil {
		return nil, m.statusErr
	}
	return &session.Status{
		Index: &index.Stats{Present: true, Documents: 1, Chunks: 4, Vectors: 4, Dimensions: 384},
		Info:  session.Info{LLMModel: "gemini-2.5-flash", EmbeddingModel: "all-MiniLM-L6-v2"},
	}, nil
}

func newTestServer(svc Service) http.Handler {
	return NewServer(svc, &config.ServerConfig{Host: "localhost", Port: 8080}, zap.NewNop()).Handler()
}

func TestHandleHealth(t *testing.T) {
	w := httptest.NewRecorder()
	newTestServer(newMockService()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"status":"ok"`) {
		t.Errorf("body: %s", w.Body.String())
	}
}

func TestHandleAsk(t *testing.T) {
	svc := newMockService()
	body := bytes.NewBufferString(`{"question":"  what is in the guide?  "}`)
	r := httptest.NewRequest(http.MethodPost, "/api/v1/ask", body)
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	newTestServer(svc).ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body: %s", w.Code, w.Body.String())
	}
	var out models.AnswerResult
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.Answer != "42" || out.RouteUsed != models.RouteDocument {
		t.Errorf("answer: got %+v", out)
	}
	if len(svc.questions) != 1 || svc.questions[0] != "what is in the guide?" {
		t.Errorf("questions: got %v", svc.questions)
	}
}

// slowService answers after a delay and records whether its context was cancelled.
type slowService struct {
	*mockService
	delay  time.Duration
	ctxErr error
}

func (s *slowService) Ask(ctx context.Context, question string) models.AnswerResult {
	time.Sleep(s.delay)
	s.ctxErr = ctx.Err()
	return s.mockService.Ask(ctx, question)
}

func TestHandleAsk_RunsToCompletion(t *testing.T) {
	svc := &slowService{mockService: newMockService(), delay: 50 * time.Millisecond}
	handler := NewServer(svc, &config.ServerConfig{RequestTimeout: 10 * time.Millisecond}, zap.NewNop()).Handler()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := httptest.NewRequest(http.MethodPost, "/api/v1/ask", strings.NewReader(`{"question":"slow one"}`)).WithContext(ctx)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if svc.ctxErr != nil {
		t.Errorf("ask context was cancelled: %v", svc.ctxErr)
	}
	var got models.AnswerResult
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.Answer != "42" {
		t.Errorf("answer = %q", got.Answer)
	}
}

func TestHandleAsk_BadRequest(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty question", `{"question":"   "}`},
		{"missing question", `{}`},
		{"invalid json", `{"question":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newMockService()
			r := httptest.NewRequest(http.MethodPost, "/api/v1/ask", strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			newTestServer(svc).ServeHTTP(w, r)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status: got %d, want 400", w.Code)
			}
			if len(svc.questions) != 0 {
				t.Errorf("service should not be called, got %v", svc.questions)
			}
		})
	}
}

func multipartBody(t *testing.T, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, content := range files {
		part, err := mw.CreateFormFile("file", name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := part.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, mw.FormDataContentType()
}

func TestHandleUpload(t *testing.T) {
	svc := newMockService()
	svc.uploadErr["bad.pdf"] = models.ErrExtraction
	body, contentType := multipartBody(t, map[string]string{"notes.txt": "hello", "bad.pdf": "junk"})

	r := httptest.NewRequest(http.MethodPost, "/api/v1/documents", body)
	r.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	newTestServer(svc).ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body: %s", w.Code, w.Body.String())
	}
	var out struct {
		Results []uploadResult `json:"results"`
	}
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if len(out.Results) != 2 {
		t.Fatalf("results: got %v", out.Results)
	}
	for _, res := range out.Results {
		switch res.Filename {
		case "notes.txt":
			if res.Chunks != 2 || res.Error != "" {
				t.Errorf("notes.txt: got %+v", res)
			}
		case "bad.pdf":
			if res.Error == "" || res.Chunks != 0 {
				t.Errorf("bad.pdf: got %+v", res)
			}
		default:
			t.Errorf("unexpected result %+v", res)
		}
	}
	if svc.uploads["notes.txt"] != "hello" {
		t.Errorf("uploaded content: got %q", svc.uploads["notes.txt"])
	}
}

func TestHandleUpload_NoFile(t *testing.T) {
	body, contentType := multipartBody(t, nil)
	r := httptest.NewRequest(http.MethodPost, "/api/v1/documents", body)
	r.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	newTestServer(newMockService()).ServeHTTP(w, r)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", w.Code)
	}
}

func TestHandleUpload_NotMultipart(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/api/v1/documents", strings.NewReader(`{}`))
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	newTestServer(newMockService()).ServeHTTP(w, r)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", w.Code)
	}
}

func TestHandleListDocuments(t *testing.T) {
	svc := newMockService()
	w := httptest.NewRecorder()
	newTestServer(svc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/documents", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"documents":[]`) {
		t.Errorf("empty list should encode as []: %s", w.Body.String())
	}

	svc.docs = []models.SourceSummary{{Filename: "guide.pdf", Chunks: 4}}
	w = httptest.NewRecorder()
	newTestServer(svc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/documents", nil))
	var out struct {
		Documents []models.SourceSummary `json:"documents"`
	}
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if len(out.Documents) != 1 || out.Documents[0].Chunks != 4 {
		t.Errorf("documents: got %+v", out.Documents)
	}
}

func TestHandleMessages(t *testing.T) {
	svc := newMockService()
	svc.messages = []models.Message{
		{Role: models.RoleUser, Content: "hi"},
		{Role: models.RoleAssistant, Content: "hello", Sources: []string{"web"}, Route: models.RouteWeb},
	}
	w := httptest.NewRecorder()
	newTestServer(svc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/messages", nil))

	var out struct {
		Messages []models.Message `json:"messages"`
	}
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if len(out.Messages) != 2 || out.Messages[1].Route != models.RouteWeb {
		t.Errorf("messages: got %+v", out.Messages)
	}
}

func TestHandleStatus(t *testing.T) {
	svc := newMockService()
	w := httptest.NewRecorder()
	newTestServer(svc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/status", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	var out map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out["llm_model"] != "gemini-2.5-flash" {
		t.Errorf("llm_model: got %v", out["llm_model"])
	}
	idx, ok := out["index"].(map[string]interface{})
	if !ok || idx["chunks"] != float64(4) {
		t.Errorf("index: got %v", out["index"])
	}

	svc.statusErr = errors.New("disk gone")
	w = httptest.NewRecorder()
	newTestServer(svc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/status", nil))
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status: got %d, want 500", w.Code)
	}
}
