package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/phuslu/log"

	"github.com/qs3c/findoc_server/internal/pkg/response"
	"github.com/qs3c/findoc_server/internal/service"
)

type StatusHandler struct {
	statusService *service.StatusService
}

func NewStatusHandler(statusService *service.StatusService) *StatusHandler {
	return &StatusHandler{statusService: statusService}
}

// Get 查询任务状态
// GET /status/:job_id
func (h *StatusHandler) Get(c *gin.Context) {
	jobID := c.Param("job_id")

	resp, err := h.statusService.GetStatus(c.Request.Context(), jobID)
	if err != nil {
		if errors.Is(err, service.ErrJobNotFound) {
			response.NotFoundError(c, "任务不存在")
			return
		}
		log.Error().Err(err).Str("job_id", jobID).Msg("failed to get job status")
		response.ServerError(c, "")
		return
	}

	response.Success(c, resp)
}
