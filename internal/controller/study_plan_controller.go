package controller

import (
	"errors"
	"io"

	"gapmentor_backend/internal/service"
	"gapmentor_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type StudyPlanController struct {
	StudyPlanService *service.StudyPlanService
}

func NewStudyPlanController(planService *service.StudyPlanService) *StudyPlanController {
	return &StudyPlanController{StudyPlanService: planService}
}

// swagger:model GeneratePlanRequest
type GeneratePlanRequest struct {
	TargetDays int `json:"targetDays" binding:"omitempty,min=1,max=90"`
}

// GeneratePlan godoc
// @Summary Generate a study plan
// @Description Builds a day-by-day plan from the user's unresolved gaps, replacing any active plan
// @Tags study-plans
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body GeneratePlanRequest true "Plan parameters"
// @Success 201 {object} util.Response{data=model.StudyPlan} "New plan"
// @Failure 409 {object} util.Response "No unresolved gaps to plan from"
// @Router /api/study-plans [post]
func (c *StudyPlanController) GeneratePlan(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	// body is optional, an empty one means the default horizon
	var req GeneratePlanRequest
	if err := ctx.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		util.BadRequest(ctx, err.Error())
		return
	}

	plan, err := c.StudyPlanService.GeneratePlan(ctx.Request.Context(), claims.UserID, req.TargetDays)
	if err != nil {
		if errors.Is(err, util.ErrNoGapsForPlan) {
			util.Error(ctx, 409, err.Error())
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Created(ctx, plan)
}

// GetActivePlan godoc
// @Summary Active study plan
// @Tags study-plans
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=model.StudyPlan} "Active plan, null when none"
// @Router /api/study-plans/active [get]
func (c *StudyPlanController) GetActivePlan(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	plan, err := c.StudyPlanService.ActivePlan(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, plan)
}

// ListPlans godoc
// @Summary Study plan history
// @Tags study-plans
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.StudyPlan} "Plans, newest first"
// @Router /api/study-plans [get]
func (c *StudyPlanController) ListPlans(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	plans, err := c.StudyPlanService.History(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, plans)
}

// CompleteTask godoc
// @Summary Complete a plan task
// @Description Marks a task done and rolls plan progress forward; completing the last task completes the plan
// @Tags study-plans
// @Produce json
// @Security ApiKeyAuth
// @Param taskId path int true "Task ID"
// @Success 200 {object} util.Response{data=model.StudyPlan} "Updated plan"
// @Failure 404 {object} util.Response "Task not found"
// @Router /api/study-plans/tasks/{taskId}/complete [patch]
func (c *StudyPlanController) CompleteTask(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	taskID := util.MustParseUint(ctx.Param("taskId"))
	if taskID == 0 {
		util.BadRequest(ctx, "invalid task id")
		return
	}

	plan, err := c.StudyPlanService.CompleteTask(taskID, claims.UserID)
	if err != nil {
		if errors.Is(err, util.ErrPlanNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, plan)
}
