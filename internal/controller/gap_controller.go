package controller

import (
	"errors"

	"gapmentor_backend/internal/service"
	"gapmentor_backend/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type GapController struct {
	GapService *service.GapService
}

func NewGapController(gapService *service.GapService) *GapController {
	return &GapController{GapService: gapService}
}

// ListGaps godoc
// @Summary Learning gaps
// @Description Lists the user's gaps, high priority first
// @Tags gaps
// @Produce json
// @Security ApiKeyAuth
// @Param unresolvedOnly query bool false "Only unresolved gaps"
// @Success 200 {object} util.Response{data=[]model.Gap} "Gaps"
// @Router /api/gaps [get]
func (c *GapController) ListGaps(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	unresolvedOnly := ctx.Query("unresolvedOnly") == "true"

	gaps, err := c.GapService.ListGaps(claims.UserID, unresolvedOnly)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, gaps)
}

// ResolveGap godoc
// @Summary Mark a gap as resolved
// @Tags gaps
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Gap ID"
// @Success 200 {object} util.Response "Resolved"
// @Failure 404 {object} util.Response "Gap not found"
// @Router /api/gaps/{id}/resolve [patch]
func (c *GapController) ResolveGap(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	gapID := util.MustParseUint(ctx.Param("id"))
	if gapID == 0 {
		util.BadRequest(ctx, "invalid gap id")
		return
	}

	if err := c.GapService.ResolveGap(gapID, claims.UserID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, gin.H{"resolved": true})
}
