package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/xxxsen/common/webapi"

	"github.com/xxxsen/pdfchat/internal/ai"
	"github.com/xxxsen/pdfchat/internal/chunker"
	"github.com/xxxsen/pdfchat/internal/handler"
	"github.com/xxxsen/pdfchat/internal/middleware"
	"github.com/xxxsen/pdfchat/internal/model"
	"github.com/xxxsen/pdfchat/internal/pdftext"
	"github.com/xxxsen/pdfchat/internal/pdftext/pdftest"
	"github.com/xxxsen/pdfchat/internal/pkg/errcode"
	"github.com/xxxsen/pdfchat/internal/pkg/password"
	"github.com/xxxsen/pdfchat/internal/prompt"
	"github.com/xxxsen/pdfchat/internal/service"
	"github.com/xxxsen/pdfchat/internal/session"
)

type apiResponse struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func setupRouter(t *testing.T, accessKeyHash string) http.Handler {
	t.Helper()
	gin.SetMode(gin.TestMode)

	loc, err := prompt.LookupLocale("en")
	require.NoError(t, err)
	store := session.NewStore(session.StoreConfig{MaxSessions: 10, MaxTurns: 5, Labels: loc.History})
	splitter, err := chunker.New(200, 40)
	require.NoError(t, err)

	embedProvider, err := ai.NewEmbedProvider("local", nil)
	require.NoError(t, err)
	genProvider, err := ai.NewProvider("local", nil)
	require.NoError(t, err)
	tok, err := ai.NewTokenizer("whitespace")
	require.NoError(t, err)
	manager := ai.NewManager(func(context.Context) (ai.IGenerator, error) {
		return ai.NewGenerator(genProvider, "extractive"), nil
	}, tok, ai.ManagerConfig{Timeout: 5 * time.Second, Generation: model.DefaultGenerationConfig()})

	chat := service.NewChatService(store, pdftext.New(), splitter, ai.NewEmbedder(embedProvider, "hash"), manager, prompt.New(loc),
		service.ChatConfig{TopK: 3, Backend: "flat", EmbedConcurrency: 2, MaxContextChars: 2000})

	secret := []byte("test-secret")
	deps := handler.RouterDeps{
		Sessions:     handler.NewSessionHandler(store, secret, time.Hour, accessKeyHash),
		Documents:    handler.NewDocumentHandler(chat, 1<<20),
		Chat:         handler.NewChatHandler(chat),
		Model:        handler.NewModelHandler(manager),
		JWTSecret:    secret,
		AskPerMinute: 100,
	}
	engine, err := webapi.NewEngine(
		"/api/v1",
		"",
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.RequestID(),
			middleware.CORS(nil),
		),
	)
	require.NoError(t, err)
	return engine
}

func do(t *testing.T, router http.Handler, req *http.Request) apiResponse {
	t.Helper()
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	require.Equal(t, http.StatusOK, resp.Code)
	var out apiResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out), resp.Body.String())
	return out
}

func jsonRequest(method, path, token string, body interface{}) *http.Request {
	var payload []byte
	if body != nil {
		payload, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func uploadRequest(t *testing.T, token, fileName string, content []byte) *http.Request {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", fileName)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func createSession(t *testing.T, router http.Handler, accessKey string) string {
	out := do(t, router, jsonRequest(http.MethodPost, "/api/v1/sessions", "", map[string]string{"access_key": accessKey}))
	require.Equal(t, 0, out.Code, out.Message)
	var data struct {
		SessionID string `json:"session_id"`
		Token     string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(out.Data, &data))
	require.NotEmpty(t, data.SessionID)
	return data.Token
}

func TestChatFlow(t *testing.T) {
	router := setupRouter(t, "")
	token := createSession(t, router, "")

	out := do(t, router, jsonRequest(http.MethodPost, "/api/v1/chat/ask", token, map[string]string{"question": "What is the capital?"}))
	require.Equal(t, errcode.ErrNoDocumentLoaded, out.Code)
	require.Equal(t, "Please load a PDF before asking questions.", out.Message)

	pdf := pdftest.Build("The capital of France is Paris.", "Bread is cheap in Paris.")
	out = do(t, router, uploadRequest(t, token, "france.pdf", pdf))
	require.Equal(t, 0, out.Code, out.Message)
	var ingest model.IngestResult
	require.NoError(t, json.Unmarshal(out.Data, &ingest))
	require.True(t, ingest.Success)
	require.Equal(t, 2, ingest.Statistics.TotalPages)
	require.Contains(t, ingest.Message, "Total pages: 2")

	out = do(t, router, jsonRequest(http.MethodGet, "/api/v1/documents/stats", token, nil))
	require.Equal(t, 0, out.Code)
	var status service.DocumentStatus
	require.NoError(t, json.Unmarshal(out.Data, &status))
	require.True(t, status.Loaded)
	require.Equal(t, "france.pdf", status.FileName)

	out = do(t, router, jsonRequest(http.MethodPost, "/api/v1/chat/ask", token, map[string]string{"question": "What is the capital of France?"}))
	require.Equal(t, 0, out.Code, out.Message)
	var answer struct {
		Answer     string        `json:"answer"`
		AnswerHTML string        `json:"answer_html"`
		Sources    []model.Chunk `json:"sources"`
	}
	require.NoError(t, json.Unmarshal(out.Data, &answer))
	require.Contains(t, answer.Answer, "Paris")
	require.Contains(t, answer.AnswerHTML, "<p>")
	require.NotEmpty(t, answer.Sources)

	out = do(t, router, jsonRequest(http.MethodGet, "/api/v1/chat/history", token, nil))
	var history struct {
		Turns []model.Turn `json:"turns"`
	}
	require.NoError(t, json.Unmarshal(out.Data, &history))
	require.Len(t, history.Turns, 1)
	require.Equal(t, "What is the capital of France?", history.Turns[0].Question)

	out = do(t, router, jsonRequest(http.MethodDelete, "/api/v1/chat/history", token, nil))
	require.Equal(t, 0, out.Code)
	out = do(t, router, jsonRequest(http.MethodGet, "/api/v1/chat/history", token, nil))
	require.NoError(t, json.Unmarshal(out.Data, &history))
	require.Empty(t, history.Turns)

	out = do(t, router, jsonRequest(http.MethodGet, "/api/v1/model/status", "", nil))
	var modelStatus struct {
		State string `json:"state"`
		Ready bool   `json:"ready"`
	}
	require.NoError(t, json.Unmarshal(out.Data, &modelStatus))
	require.Equal(t, "ready", modelStatus.State)
	require.True(t, modelStatus.Ready)

	out = do(t, router, jsonRequest(http.MethodDelete, "/api/v1/sessions", token, nil))
	require.Equal(t, 0, out.Code)
	out = do(t, router, jsonRequest(http.MethodGet, "/api/v1/documents/stats", token, nil))
	require.Equal(t, errcode.ErrNotFound, out.Code)
}

func TestUploadRejectsBadFiles(t *testing.T) {
	router := setupRouter(t, "")
	token := createSession(t, router, "")

	out := do(t, router, uploadRequest(t, token, "notes.txt", []byte("hello")))
	require.Equal(t, errcode.ErrInvalidFile, out.Code)

	out = do(t, router, uploadRequest(t, token, "fake.pdf", []byte("hello, not a pdf")))
	require.Equal(t, errcode.ErrExtraction, out.Code)
	require.Equal(t, "The PDF could not be processed. Check that the file is valid.", out.Message)

	out = do(t, router, uploadRequest(t, token, "broken.pdf", []byte("%PDF-1.4 garbage without structure")))
	require.Equal(t, errcode.ErrExtraction, out.Code)
	require.Equal(t, "The PDF could not be processed. Check that the file is valid.", out.Message)
}

func TestAuthRequired(t *testing.T) {
	router := setupRouter(t, "")
	out := do(t, router, jsonRequest(http.MethodPost, "/api/v1/chat/ask", "", map[string]string{"question": "x"}))
	require.Equal(t, errcode.ErrUnauthorized, out.Code)

	out = do(t, router, jsonRequest(http.MethodGet, "/api/v1/chat/history", "garbage", nil))
	require.Equal(t, errcode.ErrUnauthorized, out.Code)
}

func TestAccessKey(t *testing.T) {
	hash, err := password.Hash("open-sesame")
	require.NoError(t, err)
	router := setupRouter(t, hash)

	out := do(t, router, jsonRequest(http.MethodPost, "/api/v1/sessions", "", map[string]string{"access_key": "wrong"}))
	require.Equal(t, errcode.ErrUnauthorized, out.Code)

	token := createSession(t, router, "open-sesame")
	require.NotEmpty(t, token)
}

func TestAskValidation(t *testing.T) {
	router := setupRouter(t, "")
	token := createSession(t, router, "")
	out := do(t, router, uploadRequest(t, token, "a.pdf", pdftest.Build("some words here")))
	require.Equal(t, 0, out.Code, out.Message)

	out = do(t, router, jsonRequest(http.MethodPost, "/api/v1/chat/ask", token, map[string]string{"question": "  "}))
	require.Equal(t, errcode.ErrInvalid, out.Code)
}
