package handler

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/boopesh07/VideoToShorts/internal/dto"
	"github.com/boopesh07/VideoToShorts/internal/response"
	"github.com/boopesh07/VideoToShorts/internal/service"
	"github.com/boopesh07/VideoToShorts/log"
	apperrors "github.com/boopesh07/VideoToShorts/pkg/errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	Service *service.Service
}

func NewHandler() Handler {
	return Handler{Service: service.NewService()}
}

func (h Handler) SuggestSegments(c *gin.Context) {
	var req dto.SuggestSegmentsReq
	if err := c.ShouldBindJSON(&req); err != nil {
		log.GetLogger().Error("SuggestSegments ShouldBindJSON err", zap.Error(err))
		response.ErrorResponse(c, apperrors.Wrap(apperrors.CodeInvalidParams, "Invalid parameters", err))
		return
	}

	data, err := h.Service.SuggestSegments(c.Request.Context(), req)
	if err != nil {
		response.ErrorResponse(c, err)
		return
	}
	response.Success(c, data)
}

func (h Handler) GenerateShorts(c *gin.Context) {
	var req dto.GenerateShortsReq
	if err := c.ShouldBindJSON(&req); err != nil {
		log.GetLogger().Error("GenerateShorts ShouldBindJSON err", zap.Error(err))
		response.ErrorResponse(c, apperrors.Wrap(apperrors.CodeInvalidParams, "Invalid parameters", err))
		return
	}

	data, err := h.Service.StartGeneration(c.Request.Context(), req)
	if err != nil {
		response.ErrorResponse(c, err)
		return
	}
	response.Success(c, data)
}

func (h Handler) GetShortsTask(c *gin.Context) {
	var req dto.GetShortsTaskReq
	if err := c.ShouldBindQuery(&req); err != nil || req.TaskId == "" {
		response.ErrorResponse(c, apperrors.New(apperrors.CodeInvalidParams, "taskId is required"))
		return
	}

	data, err := h.Service.GetTaskStatus(req)
	if err != nil {
		response.ErrorResponse(c, err)
		return
	}
	response.Success(c, data)
}

func (h Handler) GetTaskHistory(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	tasks, err := h.Service.GetTaskHistory(limit)
	if err != nil {
		response.ErrorResponse(c, err)
		return
	}
	response.Success(c, tasks)
}

func (h Handler) DeleteTask(c *gin.Context) {
	taskId := c.Param("taskId")
	if taskId == "" {
		response.ErrorResponse(c, apperrors.New(apperrors.CodeInvalidParams, "taskId is required"))
		return
	}

	if err := h.Service.DeleteTask(taskId); err != nil {
		response.ErrorResponse(c, err)
		return
	}
	response.Success(c, gin.H{"task_id": taskId})
}

func (h Handler) ProbeSource(c *gin.Context) {
	var req dto.ProbeSourceReq
	if err := c.ShouldBindQuery(&req); err != nil {
		response.ErrorResponse(c, apperrors.Wrap(apperrors.CodeInvalidParams, "Invalid parameters", err))
		return
	}

	data, err := h.Service.ProbeSource(c.Request.Context(), req)
	if err != nil {
		response.ErrorResponse(c, err)
		return
	}
	response.Success(c, data)
}

func (h Handler) DownloadFile(c *gin.Context) {
	requestedFile := c.Param("filepath")
	if requestedFile == "" {
		c.JSON(404, response.FromError(apperrors.ErrFileNotFound))
		return
	}

	localFilePath, ok := resolveDownloadPath(requestedFile)
	if !ok {
		c.JSON(404, response.FromError(apperrors.ErrFileNotFound))
		return
	}
	if _, err := os.Stat(localFilePath); err != nil {
		c.JSON(404, response.FromError(apperrors.ErrFileNotFound))
		return
	}
	c.FileAttachment(localFilePath, filepath.Base(localFilePath))
}
