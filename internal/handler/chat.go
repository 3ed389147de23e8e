package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pomelo/internal/model"
	"pomelo/internal/service"
)

// ChatHandler 对话处理器
type ChatHandler struct {
	chatSvc *service.ChatService
}

// NewChatHandler 创建对话处理器
func NewChatHandler(chatSvc *service.ChatService) *ChatHandler {
	return &ChatHandler{
		chatSvc: chatSvc,
	}
}

// Chat 对话接口
// @Summary      知识库对话
// @Description  提交一条消息，返回基于知识库生成的回答与来源引用
// @Tags         对话
// @Accept       json
// @Produce      json
// @Param        request  body      model.ChatRequest  true  "对话请求"
// @Success      200      {object}  model.ChatResponse
// @Failure      400      {object}  model.ErrorResponse
// @Failure      401      {object}  model.ErrorResponse
// @Failure      403      {object}  model.ErrorResponse
// @Failure      502      {object}  model.ErrorResponse
// @Failure      503      {object}  model.ErrorResponse
// @Router       /api/v1/chat [post]
func (h *ChatHandler) Chat(c *gin.Context) {
	var req model.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(model.NewErrorResponse(model.NewInvalidInput("invalid request body")))
		return
	}

	resp, err := h.chatSvc.Chat(c.Request.Context(), &req)
	if err != nil {
		c.JSON(model.NewErrorResponse(err))
		return
	}

	c.JSON(http.StatusOK, resp)
}
