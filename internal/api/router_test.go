package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/qs3c/findoc_server/config"
	"github.com/qs3c/findoc_server/internal/api/handler"
	"github.com/qs3c/findoc_server/internal/repository"
	"github.com/qs3c/findoc_server/internal/service"
	"github.com/qs3c/findoc_server/internal/testutil"
)

func TestRouter_Routes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	cfg := &config.Config{
		Server: config.ServerConfig{DefaultUserRef: "1"},
		CORS: config.CORSConfig{
			AllowedOrigins: []string{"http://localhost:3000"},
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		},
	}
	statusService := service.NewStatusService(repository.NewJobRepository(db), nil)

	router := NewRouter(
		handler.NewAnalysisHandler(nil),
		handler.NewStatusHandler(statusService),
		handler.NewHealthHandler(db, nil, nil, nil, service.ModeInline),
		nil,
		cfg,
	).Setup()

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{"GET", "/", http.StatusOK},
		{"GET", "/health", http.StatusOK},
		{"GET", "/status/missing", http.StatusNotFound},
		{"OPTIONS", "/analyze", http.StatusNoContent},
		{"GET", "/ws/jobs/x", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			req.Header.Set("Origin", "http://localhost:3000")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.want, w.Code)
			assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}
