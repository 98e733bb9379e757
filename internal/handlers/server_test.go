package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
	"influencer-hub-backend/internal/assistant"
	"influencer-hub-backend/internal/chat"
	"influencer-hub-backend/internal/handlers"
	"influencer-hub-backend/internal/memstore"
	"influencer-hub-backend/internal/middleware"
	"influencer-hub-backend/internal/models"
	"influencer-hub-backend/internal/orders"
	"influencer-hub-backend/internal/profiles"
	"influencer-hub-backend/internal/services"
	mock_services "influencer-hub-backend/internal/services/mocks"
	"influencer-hub-backend/internal/session"
	"influencer-hub-backend/internal/supabase"
)

type testServer struct {
	router  *gin.Engine
	store   *memstore.Store
	objects *mock_services.MockObjectStore
	now     time.Time
}

// newTestServer wires the real services over the in-memory store. Requests
// authenticate with the X-Test-User and X-Test-Role headers.
func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ts := &testServer{
		store: memstore.New(1000),
		now:   time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	ctrl := gomock.NewController(t)
	ts.objects = mock_services.NewMockObjectStore(ctrl)

	logger := zap.NewNop()
	clock := func() time.Time { return ts.now }
	realtime := supabase.NewRealtimeClient(nil, "", logger)
	assets := services.NewAssetService(ts.objects, services.Buckets{
		OrderImages:   "order-images",
		Submissions:   "submissions",
		ProfileImages: "profile-images",
	}, 1<<20, logger).WithClock(clock)

	h := &handlers.Handlers{
		Orders: handlers.NewOrdersHandler(
			orders.NewService(ts.store, assets, realtime, logger).WithClock(clock),
			10*time.Millisecond, 1<<20, logger),
		Chat:      handlers.NewChatHandler(chat.NewService(ts.store, realtime, logger).WithClock(clock), logger),
		Profiles:  handlers.NewProfilesHandler(profiles.NewService(ts.store, ts.store, assets, logger).WithClock(clock), 1<<20),
		Events:    handlers.NewEventsHandler(realtime),
		Assistant: handlers.NewAssistantHandler(newTestAssistant(t, logger), 1<<20),
	}

	ts.router = gin.New()
	api := ts.router.Group("/api/v1")
	api.Use(func(c *gin.Context) {
		if id := c.GetHeader("X-Test-User"); id != "" {
			sess := session.New(id, id+"@example.com", models.Role(c.GetHeader("X-Test-Role")))
			c.Set(middleware.UserIDKey, sess.UserID)
			c.Set(middleware.SessionKey, sess)
		}
		c.Next()
	})
	h.Register(api)
	return ts
}

// newTestAssistant points the assistant at local chat-completions and
// classifier servers. The model echoes the user message; the classifier
// labels every image sports_outdoor.
func newTestAssistant(t *testing.T, logger *zap.Logger) *assistant.Service {
	t.Helper()
	llm := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req assistant.ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Messages) == 0 {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		last := req.Messages[len(req.Messages)-1].Content
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": "echo: " + last}},
			},
		})
	}))
	t.Cleanup(llm.Close)

	classifier := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, _, err := r.FormFile("image"); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		io.WriteString(w, `{"category":"sports_outdoor","confidence":0.75}`)
	}))
	t.Cleanup(classifier.Close)

	faqs := assistant.NewFAQs([]assistant.FAQ{{Question: "How do I create an order?", Answer: "Open a profile."}})
	return assistant.NewService(faqs, assistant.NewClient(llm.URL, "test-key", "test-model"), assistant.NewClassifier(classifier.URL), logger)
}

func (ts *testServer) do(t *testing.T, method, path, user string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, "/api/v1"+path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != "" {
		req.Header.Set("X-Test-User", user)
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func (ts *testServer) upload(t *testing.T, path, user string, fields map[string]string, fileField, filename string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	return ts.uploadMethod(t, http.MethodPost, path, user, fields, fileField, filename, data)
}

func (ts *testServer) uploadMethod(t *testing.T, method, path, user string, fields map[string]string, fileField, filename string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if fileField != "" {
		part, err := mw.CreateFormFile(fileField, filename)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(method, "/api/v1"+path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("X-Test-User", user)
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

// stream runs a GET whose request context is already cancelled, so SSE
// handlers write what they have and return.
func (ts *testServer) stream(t *testing.T, path, user string) *httptest.ResponseRecorder {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/v1"+path, nil).WithContext(ctx)
	req.Header.Set("X-Test-User", user)
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

// assertEventStream checks the Content-Type that was sent with the first
// flush. gin rewrites the live header map on every SSEvent, appending a charset.
func assertEventStream(t *testing.T, w *httptest.ResponseRecorder) {
	t.Helper()
	assert.True(t, strings.HasPrefix(w.Result().Header.Get("Content-Type"), "text/event-stream"),
		w.Result().Header.Get("Content-Type"))
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}
