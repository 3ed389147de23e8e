package auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"pomelo/internal/model"
	"pomelo/internal/service"
)

// LoginRequest 登录请求
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponseData 登录响应数据
type LoginResponseData struct {
	AccessToken string   `json:"access_token"`
	ExpiresIn   int      `json:"expires_in"`
	TokenType   string   `json:"token_type"`
	User        UserInfo `json:"user"`
}

// Login 用户登录
// @Summary      用户登录
// @Tags         认证
// @Accept       json
// @Produce      json
// @Param        request  body      LoginRequest  true  "登录请求"
// @Success      200      {object}  LoginResponseData
// @Failure      401      {object}  model.ErrorResponse
// @Router       /api/v1/auth/login [post]
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(model.NewErrorResponse(model.NewInvalidInput("invalid request body")))
		return
	}

	resp, err := h.authService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		// 用户不存在与密码错误对外统一，避免账号枚举
		if errors.Is(err, service.ErrUserNotFound) ||
			errors.Is(err, service.ErrInvalidPassword) ||
			errors.Is(err, service.ErrUserBanned) {
			c.JSON(model.NewErrorResponse(model.NewAuthRequired()))
			return
		}
		log.Error().Err(err).Msg("login failed")
		c.JSON(model.NewErrorResponse(model.NewServiceError()))
		return
	}

	c.JSON(http.StatusOK, LoginResponseData{
		AccessToken: resp.AccessToken,
		ExpiresIn:   resp.ExpiresIn,
		TokenType:   resp.TokenType,
		User:        toUserInfo(resp.User),
	})
}
