package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"pomelo/internal/model"
	"pomelo/internal/pkg/ctxutil"
)

// GetMe 获取当前登录用户信息
// @Summary      当前用户
// @Tags         认证
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  UserInfo
// @Failure      401  {object}  model.ErrorResponse
// @Router       /api/v1/auth/me [get]
func (h *Handler) GetMe(c *gin.Context) {
	userID, ok := ctxutil.GetUserID(c.Request.Context())
	if !ok {
		c.JSON(model.NewErrorResponse(model.NewAuthRequired()))
		return
	}

	user, err := h.authService.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("failed to load user")
		c.JSON(model.NewErrorResponse(model.NewServiceError()))
		return
	}

	c.JSON(http.StatusOK, toUserInfo(user))
}
