package auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"pomelo/internal/model"
	"pomelo/internal/service"
)

// RegisterRequest 用户注册请求
type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50"` // 用户名（必填，3-50字符）
	Email    string `json:"email" binding:"required,email"`           // 邮箱（必填，需符合邮箱格式）
	Password string `json:"password" binding:"required,min=8"`        // 密码（必填，至少8位）
}

// RegisterResponseData 注册响应数据
type RegisterResponseData struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Status   string `json:"status"`
}

// Register 用户注册
// @Summary      用户注册
// @Tags         认证
// @Accept       json
// @Produce      json
// @Param        request  body      RegisterRequest  true  "注册请求"
// @Success      201      {object}  RegisterResponseData
// @Failure      400      {object}  model.ErrorResponse
// @Failure      500      {object}  model.ErrorResponse
// @Router       /api/v1/auth/register [post]
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(model.NewErrorResponse(model.NewInvalidInput("invalid request body")))
		return
	}

	resp, err := h.authService.Register(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrUserAlreadyExists) {
			c.JSON(model.NewErrorResponse(model.NewInvalidInput(err.Error())))
			return
		}
		log.Error().Err(err).Msg("register failed")
		c.JSON(model.NewErrorResponse(model.NewServiceError()))
		return
	}

	c.JSON(http.StatusCreated, RegisterResponseData{
		UserID:   resp.UserID,
		Username: resp.Username,
		Status:   resp.Status,
	})
}
