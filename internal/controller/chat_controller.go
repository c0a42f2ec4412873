package controller

import (
	"fmt"
	"net/http"

	"gapmentor_backend/internal/service"
	"gapmentor_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ChatController struct {
	ChatService *service.ChatService
}

func NewChatController(chatService *service.ChatService) *ChatController {
	return &ChatController{ChatService: chatService}
}

// swagger:model ChatRequest
type ChatRequest struct {
	Question  string `json:"question" binding:"required"`
	SessionID string `json:"sessionId"` // empty starts a new conversation
}

// Ask godoc
// @Summary Ask the AI mentor
// @Description One mentor turn grounded in the user's recent results and open gaps
// @Tags chat
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body ChatRequest true "Question"
// @Success 200 {object} util.Response{data=object} "Answer and session id"
// @Failure 502 {object} util.Response "Mentor unavailable"
// @Router /api/chat/ask [post]
func (c *ChatController) Ask(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req ChatRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	answer, sessionID, err := c.ChatService.Ask(ctx.Request.Context(), claims.UserID, req.SessionID, req.Question)
	if err != nil {
		util.Error(ctx, http.StatusBadGateway, "mentor is unavailable, please try again")
		return
	}
	util.Success(ctx, gin.H{"answer": answer, "sessionId": sessionID})
}

// AskStream godoc
// @Summary Ask the AI mentor (streaming)
// @Description Streams the mentor's reply as server-sent events; the final event is [DONE]
// @Tags chat
// @Accept json
// @Produce text/event-stream
// @Security ApiKeyAuth
// @Param body body ChatRequest true "Question"
// @Success 200 {string} string "SSE stream"
// @Router /api/chat/stream [post]
func (c *ChatController) AskStream(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req ChatRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	out, errChan, sessionID, err := c.ChatService.AskStream(ctx.Request.Context(), claims.UserID, req.SessionID, req.Question)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	ctx.Header("Content-Type", "text/event-stream")
	ctx.Header("Cache-Control", "no-cache")
	ctx.Header("Connection", "keep-alive")
	ctx.Header("X-Session-Id", sessionID)
	ctx.Writer.Flush()

	clientGone := ctx.Request.Context().Done()
	for {
		select {
		case <-clientGone:
			return
		case chunk, ok := <-out:
			if !ok {
				if err, open := <-errChan; open && err != nil {
					ctx.SSEvent("error", err.Error())
				}
				fmt.Fprint(ctx.Writer, "data: [DONE]\n\n")
				ctx.Writer.Flush()
				return
			}
			ctx.SSEvent("message", chunk)
			ctx.Writer.Flush()
		}
	}
}

// GetSuggestions godoc
// @Summary Suggested starter questions
// @Description Up to four suggestions, most specific first: high-priority gaps, weak tests, then defaults
// @Tags chat
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]string} "Suggestions"
// @Router /api/chat/suggestions [get]
func (c *ChatController) GetSuggestions(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	suggestions, err := c.ChatService.Suggestions(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, suggestions)
}

// GetHistory godoc
// @Summary Conversation history
// @Tags chat
// @Produce json
// @Security ApiKeyAuth
// @Param sessionId query string true "Session ID"
// @Param limit query int false "Max messages, newest kept"
// @Success 200 {object} util.Response{data=[]model.ChatMessage} "Messages in chronological order"
// @Router /api/chat/history [get]
func (c *ChatController) GetHistory(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	sessionID := ctx.Query("sessionId")
	if sessionID == "" {
		util.BadRequest(ctx, "sessionId is required")
		return
	}
	limit := int(util.MustParseUint(ctx.Query("limit")))

	msgs, err := c.ChatService.History(claims.UserID, sessionID, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, msgs)
}

// ListSessions godoc
// @Summary Conversation sessions
// @Tags chat
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]repository.ChatSession} "Sessions, most recent first"
// @Router /api/chat/sessions [get]
func (c *ChatController) ListSessions(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	sessions, err := c.ChatService.Sessions(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, sessions)
}
