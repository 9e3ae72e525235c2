package handler

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/phuslu/log"

	"github.com/qs3c/findoc_server/internal/api/middleware"
	"github.com/qs3c/findoc_server/internal/model/dto"
	"github.com/qs3c/findoc_server/internal/pipeline"
	"github.com/qs3c/findoc_server/internal/pkg/response"
	"github.com/qs3c/findoc_server/internal/service"
)

type AnalysisHandler struct {
	analysisService *service.AnalysisService
}

func NewAnalysisHandler(analysisService *service.AnalysisService) *AnalysisHandler {
	return &AnalysisHandler{
		analysisService: analysisService,
	}
}

// Analyze 上传文档并发起分析
// POST /analyze  multipart: file, query
func (h *AnalysisHandler) Analyze(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		response.ParamError(c, "请上传文件")
		return
	}

	f, err := file.Open()
	if err != nil {
		response.ParamError(c, "无法读取上传的文件")
		return
	}
	defer f.Close()

	res, err := h.analysisService.Submit(c.Request.Context(), &service.SubmitRequest{
		Query:    c.PostForm("query"),
		FileName: file.Filename,
		Size:     file.Size,
		Content:  f,
		UserRef:  middleware.GetUserRef(c),
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			response.ParamError(c, strings.TrimPrefix(err.Error(), service.ErrValidation.Error()+": "))
		case errors.Is(err, service.ErrQueueUnavailable):
			response.ServerError(c, err.Error())
		default:
			log.Error().Err(err).Str("file", file.Filename).Msg("failed to submit analysis")
			response.ServerError(c, "")
		}
		return
	}

	resp := &dto.AnalyzeResponse{
		JobID:        res.JobID,
		Query:        res.Query,
		DocumentName: res.DocumentName,
	}

	out := res.Outcome
	if out == nil {
		resp.Status = "queued"
		resp.Message = "分析任务已提交，请通过 /status/" + res.JobID + " 查询进度"
		response.SuccessWithMessage(c, "queued", resp)
		return
	}

	if out.Extraction.Err != nil {
		response.ExtractionError(c, "文档解析失败: "+out.Extraction.Err.Error(), &dto.AnalyzeFailure{
			JobID: res.JobID,
			Error: out.Extraction.Err.Error(),
		})
		return
	}
	if out.Pipeline.Err != nil {
		failure := &dto.AnalyzeFailure{JobID: res.JobID, Error: out.Pipeline.Err.Error()}
		var stageErr *pipeline.StageError
		if errors.As(out.Pipeline.Err, &stageErr) {
			failure.Stage = stageErr.Stage
		}
		response.PipelineError(c, "分析流程失败: "+out.Pipeline.Err.Error(), failure)
		return
	}

	resp.Status = string(out.Status)
	resp.Result = out.Result
	resp.Duration = out.Duration.Seconds()
	resp.Message = "分析完成"
	response.Success(c, resp)
}
