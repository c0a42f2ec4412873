package controller

import (
	"gapmentor_backend/internal/service"
	"gapmentor_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ProgressController struct {
	ProgressService *service.ProgressService
}

func NewProgressController(progressService *service.ProgressService) *ProgressController {
	return &ProgressController{ProgressService: progressService}
}

// GetOverview godoc
// @Summary Learning progress overview
// @Description Completed test count, average score, topics covered, open gaps and recent tests
// @Tags progress
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=service.ProgressOverview} "Overview"
// @Router /api/progress/overview [get]
func (c *ProgressController) GetOverview(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	overview, err := c.ProgressService.Overview(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, overview)
}

// GetTopicPerformance godoc
// @Summary Per-topic performance
// @Description Average score and test count per topic, strongest first
// @Tags progress
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]repository.TopicPerformance} "Topic breakdown"
// @Router /api/progress/topics [get]
func (c *ProgressController) GetTopicPerformance(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	rows, err := c.ProgressService.TopicPerformance(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, rows)
}
