package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/qs3c/findoc_server/config"
	"github.com/qs3c/findoc_server/internal/extractor"
	"github.com/qs3c/findoc_server/internal/pipeline"
	"github.com/qs3c/findoc_server/internal/pkg/response"
	"github.com/qs3c/findoc_server/internal/repository"
	"github.com/qs3c/findoc_server/internal/service"
	"github.com/qs3c/findoc_server/internal/storage"
	"github.com/qs3c/findoc_server/internal/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// stubGenerator replies in call order; failAt is the 1-based call that errors
type stubGenerator struct {
	mu     sync.Mutex
	calls  int
	failAt int
}

func (g *stubGenerator) Generate(ctx context.Context, system, prompt string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if g.calls == g.failAt {
		return "", errors.New("rate limited")
	}
	switch g.calls {
	case 1:
		return "## Market Research\nDemand for the product line keeps growing across regions.", nil
	case 2:
		return "## Financial Analysis\nMargins improved.\n\n## Risk Assessment\nHigh leverage and refinancing needs in 2026.", nil
	default:
		return "Verification done. LOW CONFIDENCE in the forward guidance.", nil
	}
}

type stubExtractor struct {
	err error
}

func (e *stubExtractor) Extract(ctx context.Context, path string) (*extractor.Result, error) {
	if e.err != nil {
		return nil, e.err
	}
	return &extractor.Result{Text: "--- Page 1 ---\nBalance sheet\n", Pages: 1}, nil
}

type handlerEnv struct {
	db        *gorm.DB
	jobRepo   *repository.JobRepository
	gen       *stubGenerator
	extractor *stubExtractor
	analysis  *service.AnalysisService
	status    *service.StatusService
}

func setupHandlerEnv(t *testing.T, dispatcher service.Dispatcher) *handlerEnv {
	t.Helper()

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.CleanupTestDB(t, db) })

	store, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)

	env := &handlerEnv{
		db:        db,
		jobRepo:   repository.NewJobRepository(db),
		gen:       &stubGenerator{},
		extractor: &stubExtractor{},
	}
	pl := pipeline.NewLLMPipeline(env.gen, nil, pipeline.Options{Timeout: 5 * time.Second})
	env.analysis = service.NewAnalysisService(env.jobRepo, store, env.extractor, pl, dispatcher, nil, &config.UploadConfig{
		MaxSize:           1 << 20,
		AllowedExtensions: []string{".pdf"},
		DefaultQuery:      config.DefaultQuery,
	})
	env.status = service.NewStatusService(env.jobRepo, nil)
	return env
}

// multipartRequest builds POST /analyze; an empty fileName omits the file part
func multipartRequest(t *testing.T, fileName string, content []byte, query string) *http.Request {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if fileName != "" {
		part, err := writer.CreateFormFile("file", fileName)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	if query != "" {
		require.NoError(t, writer.WriteField("query", query))
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/analyze", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	t.Helper()
	var resp response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

// decodeData re-decodes the envelope's data field into v
func decodeData(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	var envelope struct {
		Code    int             `json:"code"`
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NoError(t, json.Unmarshal(envelope.Data, v))
}
