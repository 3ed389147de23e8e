package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"pomelo/internal/model"
	"pomelo/internal/pkg/ctxutil"
	"pomelo/internal/repository"
)

// ConversationHandler 对话历史处理器
type ConversationHandler struct {
	convRepo *repository.ConversationRepo
}

// NewConversationHandler 创建对话历史处理器
func NewConversationHandler(convRepo *repository.ConversationRepo) *ConversationHandler {
	return &ConversationHandler{
		convRepo: convRepo,
	}
}

// Get 查询单个对话
// @Summary      查询对话
// @Tags         对话
// @Produce      json
// @Param        id   path      string  true  "对话ID"
// @Success      200  {object}  model.Conversation
// @Failure      403  {object}  model.ErrorResponse
// @Failure      404  {object}  model.ErrorResponse
// @Router       /api/v1/conversations/{id} [get]
func (h *ConversationHandler) Get(c *gin.Context) {
	key := c.Param("id")

	conv, err := h.convRepo.FindByKey(c.Request.Context(), key)
	if err != nil {
		log.Error().Err(err).Str("conversation_id", key).Msg("failed to load conversation")
		c.JSON(model.NewErrorResponse(model.NewServiceError()))
		return
	}
	if conv == nil {
		c.JSON(model.NewErrorResponse(model.NewNotFound("conversation not found")))
		return
	}

	// 只有对话归属的身份可以读取
	identity, _ := ctxutil.GetUserID(c.Request.Context())
	if conv.Identity != "" && conv.Identity != identity {
		c.JSON(model.NewErrorResponse(model.NewIdentityMismatch()))
		return
	}

	c.JSON(http.StatusOK, conv)
}

// List 查询当前身份的对话列表
// @Summary      对话列表
// @Tags         对话
// @Produce      json
// @Param        limit   query     int  false  "每页条数"
// @Param        offset  query     int  false  "偏移量"
// @Success      200     {object}  map[string]interface{}
// @Router       /api/v1/conversations [get]
func (h *ConversationHandler) List(c *gin.Context) {
	identity, ok := ctxutil.GetUserID(c.Request.Context())
	if !ok {
		c.JSON(model.NewErrorResponse(model.NewAuthRequired()))
		return
	}

	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "20"), 10, 64)
	offset, _ := strconv.ParseInt(c.DefaultQuery("offset", "0"), 10, 64)
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	convs, err := h.convRepo.ListByIdentity(c.Request.Context(), identity, limit, offset)
	if err != nil {
		log.Error().Err(err).Str("identity", identity).Msg("failed to list conversations")
		c.JSON(model.NewErrorResponse(model.NewServiceError()))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"conversations": convs,
	})
}

// Delete 删除对话
// @Summary      删除对话
// @Tags         对话
// @Produce      json
// @Param        id   path      string  true  "对话ID"
// @Success      204  "no content"
// @Failure      403  {object}  model.ErrorResponse
// @Router       /api/v1/conversations/{id} [delete]
func (h *ConversationHandler) Delete(c *gin.Context) {
	key := c.Param("id")

	conv, err := h.convRepo.FindByKey(c.Request.Context(), key)
	if err != nil {
		log.Error().Err(err).Str("conversation_id", key).Msg("failed to load conversation")
		c.JSON(model.NewErrorResponse(model.NewServiceError()))
		return
	}
	if conv == nil {
		c.Status(http.StatusNoContent)
		return
	}

	identity, _ := ctxutil.GetUserID(c.Request.Context())
	if conv.Identity != "" && conv.Identity != identity {
		c.JSON(model.NewErrorResponse(model.NewIdentityMismatch()))
		return
	}

	if err := h.convRepo.Delete(c.Request.Context(), key); err != nil {
		log.Error().Err(err).Str("conversation_id", key).Msg("failed to delete conversation")
		c.JSON(model.NewErrorResponse(model.NewServiceError()))
		return
	}

	c.Status(http.StatusNoContent)
}
