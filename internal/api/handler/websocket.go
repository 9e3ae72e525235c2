package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/phuslu/log"

	"github.com/qs3c/findoc_server/internal/api/middleware"
	"github.com/qs3c/findoc_server/internal/pkg/ws"
	"github.com/qs3c/findoc_server/internal/service"
)

type WebSocketHandler struct {
	hub           *ws.Hub
	statusService *service.StatusService
	upgrader      websocket.Upgrader
}

// NewWebSocketHandler allowedOrigins 与 CORS 配置一致，非浏览器客户端不带 Origin 时放行
func NewWebSocketHandler(hub *ws.Hub, statusService *service.StatusService, allowedOrigins []string) *WebSocketHandler {
	return &WebSocketHandler{
		hub:           hub,
		statusService: statusService,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || middleware.OriginAllowed(allowedOrigins, origin)
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// Handle 订阅单个任务的进度，连接建立后先推送一次当前状态
// GET /ws/jobs/:job_id
func (h *WebSocketHandler) Handle(c *gin.Context) {
	jobID := c.Param("job_id")

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Err(err).Str("job_id", jobID).Msg("failed to upgrade connection")
		return
	}

	client := &ws.Client{
		JobID: jobID,
		Conn:  conn,
	}
	h.hub.Register(client)

	if h.statusService != nil {
		if status, err := h.statusService.GetStatus(c.Request.Context(), jobID); err == nil {
			h.hub.SendToJob(jobID, &ws.Message{Type: "job_status", Data: status})
		}
	}

	// 保持连接，读取消息（主要用于检测断开）
	go func() {
		defer func() {
			h.hub.Unregister(client)
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
