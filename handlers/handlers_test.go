package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"parentguide-backend/catalog"
	"parentguide-backend/linker"
	"parentguide-backend/models"
	"parentguide-backend/provider"
	"parentguide-backend/ratelimit"
	"parentguide-backend/repository"
	"parentguide-backend/service"
	"parentguide-backend/storage"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
	zap.ReplaceGlobals(zap.NewNop())
}

type stubClient struct {
	text string
	err  error
}

func (s *stubClient) Name() string      { return provider.NameOpenAI }
func (s *stubClient) HasValidKey() bool { return true }
func (s *stubClient) Complete(context.Context, string, provider.CompletionOptions) (string, error) {
	return s.text, s.err
}

type stubLogs struct {
	log *models.QuestionLog
}

func (s *stubLogs) Create(context.Context, *models.QuestionLog) error { return nil }
func (s *stubLogs) GetByID(_ context.Context, id uuid.UUID) (*models.QuestionLog, error) {
	if s.log != nil && s.log.ID == id {
		return s.log, nil
	}
	return nil, repository.ErrNotFound
}

func newTestRouter(t *testing.T, client provider.Client, limiter *ratelimit.Limiter, logs service.QuestionLogStore) *gin.Engine {
	t.Helper()
	require.NoError(t, RegisterValidators())

	cat, err := catalog.Default()
	require.NoError(t, err)

	var clients []provider.Client
	if client != nil {
		clients = append(clients, client)
	}
	opts := []service.GuidanceServiceOption{
		service.GuidanceWithOrchestrator(provider.NewOrchestrator(clients, nil)),
		service.GuidanceWithLinker(linker.New(cat)),
	}
	if logs != nil {
		opts = append(opts, service.GuidanceWithQuestionLogStore(logs))
	}
	svc := service.NewGuidanceService(opts...)
	return NewRouter(NewGuidanceHandler(svc, limiter), NewResourceHandler(svc))
}

func doJSON(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestAsk(t *testing.T) {
	r := newTestRouter(t, &stubClient{text: "## Steps\n\n- Write to the school"}, nil, nil)

	w := doJSON(r, http.MethodPost, "/api/ask",
		`{"question":"How do I request an IEP evaluation?","language":"es-MX","user_location":{"city":"Eugene","state":"OR"}}`)
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, true, body["success"])
	result := body["result"].(map[string]any)
	assert.Equal(t, "es", result["language"])
	assert.Equal(t, "openai", result["ai_used"])
	assert.Contains(t, result["mega_response"], "<ul>")
	assert.Contains(t, result["mega_response"], "Recursos útiles")
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestAsk_Validation(t *testing.T) {
	r := newTestRouter(t, &stubClient{text: "ok"}, nil, nil)

	tests := []struct {
		name string
		body string
		code string
	}{
		{"missing question", `{"language":"en"}`, "INVALID_REQUEST"},
		{"bad json", `{"question":`, "INVALID_REQUEST"},
		{"bad language tag", `{"question":"q","language":"not a tag!"}`, "INVALID_REQUEST"},
		{"bad urgency", `{"question":"q","urgency":"whenever"}`, "INVALID_REQUEST"},
		{"blank question", `{"question":"   "}`, "EMPTY_QUESTION"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(r, http.MethodPost, "/api/ask", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			body := decode(t, w)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tt.code, body["error"].(map[string]any)["code"])
		})
	}
}

func TestAsk_TotalFailureIsStill200(t *testing.T) {
	r := newTestRouter(t, nil, nil, nil)

	w := doJSON(r, http.MethodPost, "/api/ask", `{"question":"My son talks about suicide","user_location":"Seattle, WA"}`)
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, false, body["success"])
	assert.NotEmpty(t, body["fallback_guidance"])
	assert.NotEmpty(t, body["emergency_resources"])
}

func TestAsk_RateLimited(t *testing.T) {
	st, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	limiter := ratelimit.New(st, time.Hour, 1)
	r := newTestRouter(t, &stubClient{text: "ok"}, limiter, nil)

	w := doJSON(r, http.MethodPost, "/api/ask", `{"question":"What is a 504 plan?"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))

	w = doJSON(r, http.MethodPost, "/api/ask", `{"question":"What is a 504 plan?","language":"es"}`)
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	body := decode(t, w)
	assert.Equal(t, "RATE_LIMITED", body["error"].(map[string]any)["code"])
	assert.Contains(t, body["error"].(map[string]any)["message"], "Demasiadas")
}

func TestGetQuestion(t *testing.T) {
	id := uuid.New()
	region := "OR"
	logs := &stubLogs{log: &models.QuestionLog{ID: id, RequestID: "req-9", Region: &region, Success: true}}
	r := newTestRouter(t, nil, nil, logs)

	w := doJSON(r, http.MethodGet, "/api/questions/"+id.String(), "")
	require.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w)["data"].(map[string]any)
	assert.Equal(t, "req-9", data["request_id"])
	assert.Equal(t, "OR", data["region"])

	w = doJSON(r, http.MethodGet, "/api/questions/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(r, http.MethodGet, "/api/questions/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListResources(t *testing.T) {
	r := newTestRouter(t, nil, nil, nil)

	w := doJSON(r, http.MethodGet, "/api/resources?location=Bend,%20Oregon&q=autism", "")
	require.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w)["data"].(map[string]any)
	assert.Equal(t, "OR", data["region"])
	assert.Equal(t, "central_oregon", data["county"])
	assert.Greater(t, data["total"].(float64), float64(0))
	levels := data["resources_by_level"].(map[string]any)
	assert.Contains(t, levels, "state")
	assert.NotEmpty(t, data["emergency_contacts"])

	w = doJSON(r, http.MethodGet, "/api/resources", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	r := newTestRouter(t, nil, nil, nil)

	w := doJSON(r, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = doJSON(r, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}
