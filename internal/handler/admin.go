package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"pomelo/internal/model"
	"pomelo/internal/repository"
)

// AdminHandler 运行时配置管理接口
type AdminHandler struct {
	configRepo *repository.ChatConfigRepo
}

// NewAdminHandler 创建运行时配置管理接口
func NewAdminHandler(configRepo *repository.ChatConfigRepo) *AdminHandler {
	return &AdminHandler{
		configRepo: configRepo,
	}
}

// chatConfigPayload 配置写入请求
// 全部字段可选，缺省字段在读取时回退到内置缺省值
type chatConfigPayload struct {
	RequireAuth         *bool   `json:"require_auth,omitempty"`
	PrimaryModel        *string `json:"primary_model,omitempty"`
	FallbackModel       *string `json:"fallback_model,omitempty"`
	GlobalQuotaDaily    *int    `json:"global_quota_daily,omitempty"`
	PerUserQuotaDaily   *int    `json:"per_user_quota_daily,omitempty"`
	AllowDocumentAccess *bool   `json:"allow_document_access,omitempty"`
}

// GetChatConfig 读取当前生效的配置
// @Summary      读取运行时配置
// @Tags         管理
// @Produce      json
// @Success      200  {object}  model.ChatRuntimeConfig
// @Failure      503  {object}  model.ErrorResponse
// @Router       /api/v1/admin/chat-config [get]
func (h *AdminHandler) GetChatConfig(c *gin.Context) {
	record, err := h.configRepo.GetDefault(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to read chat config")
		c.JSON(model.NewErrorResponse(model.NewConfigUnavailable()))
		return
	}

	c.JSON(http.StatusOK, record.ToConfig())
}

// UpdateChatConfig 整体替换配置记录
// 生效最多延迟一个缓存 TTL
// @Summary      更新运行时配置
// @Tags         管理
// @Accept       json
// @Produce      json
// @Param        request  body      chatConfigPayload  true  "配置"
// @Success      200      {object}  model.ChatRuntimeConfig
// @Failure      400      {object}  model.ErrorResponse
// @Router       /api/v1/admin/chat-config [put]
func (h *AdminHandler) UpdateChatConfig(c *gin.Context) {
	var payload chatConfigPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(model.NewErrorResponse(model.NewInvalidInput("invalid request body")))
		return
	}

	if payload.GlobalQuotaDaily != nil && *payload.GlobalQuotaDaily < 0 {
		// 负数在台账语义里等同不限额，按显式约定只允许 0 表示不限额
		c.JSON(model.NewErrorResponse(model.NewInvalidInput("global_quota_daily must be >= 0")))
		return
	}
	if payload.PerUserQuotaDaily != nil && *payload.PerUserQuotaDaily < 0 {
		c.JSON(model.NewErrorResponse(model.NewInvalidInput("per_user_quota_daily must be >= 0")))
		return
	}

	record := &model.RuntimeConfigRecord{
		RequireAuth:         payload.RequireAuth,
		PrimaryModel:        payload.PrimaryModel,
		FallbackModel:       payload.FallbackModel,
		GlobalQuotaDaily:    payload.GlobalQuotaDaily,
		PerUserQuotaDaily:   payload.PerUserQuotaDaily,
		AllowDocumentAccess: payload.AllowDocumentAccess,
	}

	if err := h.configRepo.UpsertDefault(c.Request.Context(), record); err != nil {
		log.Error().Err(err).Msg("failed to upsert chat config")
		c.JSON(model.NewErrorResponse(model.NewServiceError()))
		return
	}

	c.JSON(http.StatusOK, record.ToConfig())
}
