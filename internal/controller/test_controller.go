package controller

import (
	"errors"
	"net/http"
	"time"

	"gapmentor_backend/internal/model"
	"gapmentor_backend/internal/service"
	"gapmentor_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type TestController struct {
	TestService *service.TestService
	ChatService *service.ChatService
}

func NewTestController(testService *service.TestService, chatService *service.ChatService) *TestController {
	return &TestController{TestService: testService, ChatService: chatService}
}

// swagger:model StartTestRequest
type StartTestRequest struct {
	Topic      string `json:"topic" binding:"required"`
	Difficulty string `json:"difficulty" binding:"required,oneof=easy medium hard"`
	Count      int    `json:"count" binding:"omitempty,min=1"`
	TimeLimit  int    `json:"timeLimit" binding:"omitempty,min=0"` // seconds, 0 = untimed
}

// StartTest godoc
// @Summary Start a new test
// @Description Generates a fresh question set for the topic and opens a live session
// @Tags tests
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body StartTestRequest true "Test parameters"
// @Success 201 {object} util.Response{data=object} "Test and session"
// @Failure 400 {object} util.Response "Invalid parameters"
// @Failure 409 {object} util.Response "No unseen questions left for this topic"
// @Failure 502 {object} util.Response "Question generation failed upstream"
// @Router /api/tests [post]
func (c *TestController) StartTest(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req StartTestRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	test, session, err := c.TestService.Start(ctx.Request.Context(), service.StartTestParams{
		UserID:     claims.UserID,
		Topic:      req.Topic,
		Difficulty: model.Difficulty(req.Difficulty),
		Count:      req.Count,
		TimeLimit:  req.TimeLimit,
	})
	if err != nil {
		c.writeTestError(ctx, err)
		return
	}

	util.Created(ctx, gin.H{
		"test":    test,
		"session": sessionView(session, test),
	})
}

// GetSession godoc
// @Summary Live session state
// @Description Returns the cursor, current question and remaining time; an expired session is finalized first
// @Tags tests
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Test ID"
// @Success 200 {object} util.Response{data=object} "Session state"
// @Failure 404 {object} util.Response "Session not found or expired"
// @Failure 409 {object} util.Response "Test already completed"
// @Router /api/tests/{id}/session [get]
func (c *TestController) GetSession(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	testID := util.MustParseUint(ctx.Param("id"))
	if testID == 0 {
		util.BadRequest(ctx, "invalid test id")
		return
	}

	session, err := c.TestService.Session(ctx.Request.Context(), testID, claims.UserID)
	if err != nil {
		c.writeTestError(ctx, err)
		return
	}

	test, err := c.TestService.Results(testID, claims.UserID)
	if err != nil {
		c.writeTestError(ctx, err)
		return
	}

	util.Success(ctx, sessionView(session, test))
}

// swagger:model SubmitAnswerRequest
type SubmitAnswerRequest struct {
	QuestionID uint   `json:"questionId" binding:"required"`
	Answer     string `json:"answer"`
}

// SubmitAnswer godoc
// @Summary Record an answer
// @Description Stores the answer for a question of this test and advances the cursor; re-answering overwrites
// @Tags tests
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Test ID"
// @Param body body SubmitAnswerRequest true "Answer"
// @Success 200 {object} util.Response{data=object} "Updated session state"
// @Failure 400 {object} util.Response "Question does not belong to this test"
// @Failure 404 {object} util.Response "Session not found or expired"
// @Router /api/tests/{id}/answer [post]
func (c *TestController) SubmitAnswer(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	testID := util.MustParseUint(ctx.Param("id"))
	if testID == 0 {
		util.BadRequest(ctx, "invalid test id")
		return
	}

	var req SubmitAnswerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	session, err := c.TestService.SubmitAnswer(ctx.Request.Context(), testID, claims.UserID, req.QuestionID, req.Answer)
	if err != nil {
		c.writeTestError(ctx, err)
		return
	}

	test, err := c.TestService.Results(testID, claims.UserID)
	if err != nil {
		c.writeTestError(ctx, err)
		return
	}
	util.Success(ctx, sessionView(session, test))
}

// swagger:model NavigateRequest
type NavigateRequest struct {
	Direction string `json:"direction" binding:"required,oneof=previous next skip"`
}

// Navigate godoc
// @Summary Move the session cursor
// @Description previous steps back, next and skip step forward without requiring an answer
// @Tags tests
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Test ID"
// @Param body body NavigateRequest true "Direction"
// @Success 200 {object} util.Response{data=object} "Updated session state"
// @Failure 404 {object} util.Response "Session not found or expired"
// @Router /api/tests/{id}/navigate [post]
func (c *TestController) Navigate(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	testID := util.MustParseUint(ctx.Param("id"))
	if testID == 0 {
		util.BadRequest(ctx, "invalid test id")
		return
	}

	var req NavigateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	session, err := c.TestService.Navigate(ctx.Request.Context(), testID, claims.UserID, req.Direction)
	if err != nil {
		c.writeTestError(ctx, err)
		return
	}

	test, err := c.TestService.Results(testID, claims.UserID)
	if err != nil {
		c.writeTestError(ctx, err)
		return
	}
	util.Success(ctx, sessionView(session, test))
}

// Finalize godoc
// @Summary Submit the test for scoring
// @Description Scores all questions (unanswered ones score zero), runs gap analysis and closes the session. Idempotent.
// @Tags tests
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Test ID"
// @Success 200 {object} util.Response{data=model.Test} "Scored test"
// @Failure 404 {object} util.Response "Test or session not found"
// @Router /api/tests/{id}/finalize [post]
func (c *TestController) Finalize(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	testID := util.MustParseUint(ctx.Param("id"))
	if testID == 0 {
		util.BadRequest(ctx, "invalid test id")
		return
	}

	test, err := c.TestService.Finalize(ctx.Request.Context(), testID, claims.UserID)
	if err != nil {
		c.writeTestError(ctx, err)
		return
	}

	// results changed, next mentor turn should see them
	c.ChatService.InvalidateContext(ctx.Request.Context(), claims.UserID)

	util.Success(ctx, test)
}

// GetResults godoc
// @Summary Test results
// @Description Returns the test with per-question scoring and feedback
// @Tags tests
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Test ID"
// @Success 200 {object} util.Response{data=model.Test} "Test with questions"
// @Failure 404 {object} util.Response "Test not found"
// @Router /api/tests/{id}/results [get]
func (c *TestController) GetResults(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	testID := util.MustParseUint(ctx.Param("id"))
	if testID == 0 {
		util.BadRequest(ctx, "invalid test id")
		return
	}

	test, err := c.TestService.Results(testID, claims.UserID)
	if err != nil {
		c.writeTestError(ctx, err)
		return
	}
	util.Success(ctx, test)
}

// ListTests godoc
// @Summary Test history
// @Tags tests
// @Produce json
// @Security ApiKeyAuth
// @Param limit query int false "Max results"
// @Success 200 {object} util.Response{data=[]model.Test} "Tests, newest first"
// @Router /api/tests [get]
func (c *TestController) ListTests(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	limit := int(util.MustParseUint(ctx.Query("limit")))

	tests, err := c.TestService.List(claims.UserID, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, tests)
}

// sessionView renders the live session together with the question under the
// cursor. Correct answers never leave the server before finalization.
func sessionView(session *service.TestSession, test *model.Test) gin.H {
	var current *model.Question
	currentID := session.CurrentQuestionID()
	for i := range test.Questions {
		if test.Questions[i].ID == currentID {
			current = &test.Questions[i]
			break
		}
	}

	return gin.H{
		"testId":           session.TestID,
		"status":           session.Status,
		"currentIndex":     session.CurrentIndex,
		"totalQuestions":   len(session.QuestionIDs),
		"answeredCount":    len(session.Answers),
		"atLastQuestion":   session.AtLastQuestion(),
		"currentQuestion":  current,
		"currentAnswer":    session.Answers[currentID],
		"remainingSeconds": session.RemainingSeconds(time.Now()),
	}
}

// writeTestError maps lifecycle errors onto HTTP statuses.
func (c *TestController) writeTestError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrInvalidTopic),
		errors.Is(err, util.ErrInvalidDifficulty),
		errors.Is(err, util.ErrInvalidQuestionCount),
		errors.Is(err, util.ErrQuestionNotInTest):
		util.BadRequest(ctx, err.Error())
	case errors.Is(err, util.ErrTestNotFound),
		errors.Is(err, util.ErrSessionNotFound):
		util.Error(ctx, http.StatusNotFound, err.Error())
	case errors.Is(err, util.ErrTestAlreadyCompleted),
		errors.Is(err, util.ErrQuestionSpaceExhausted):
		util.Error(ctx, http.StatusConflict, err.Error())
	default:
		if _, ok := util.AsGenerationError(err); ok {
			util.Error(ctx, http.StatusBadGateway, "question generation failed, please try again")
			return
		}
		util.LogInternalError(ctx, err)
	}
}
