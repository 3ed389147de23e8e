package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"pomelo/internal/model/auth"
	"pomelo/internal/pkg/id"
	"pomelo/internal/pkg/jwt"
	"pomelo/internal/pkg/password"
	authRepo "pomelo/internal/repository/auth"
)

var (
	ErrUserNotFound      = errors.New("用户不存在")
	ErrUserAlreadyExists = errors.New("用户已存在")
	ErrInvalidPassword   = errors.New("密码错误")
	ErrUserBanned        = errors.New("用户已被禁用")
)

// AuthService 认证服务
type AuthService struct {
	userRepo *authRepo.UserRepo
	jwt      *jwt.JWT
}

// NewAuthService 创建认证服务
func NewAuthService(userRepo *authRepo.UserRepo, jwtSecret string, tokenExpiry time.Duration) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		jwt:      jwt.NewJWT(jwtSecret, tokenExpiry),
	}
}

// RegisterResult 注册结果
type RegisterResult struct {
	UserID   string
	Username string
	Status   string
}

// Register 用户注册
// 使用基本类型参数，不依赖Handler层的Request类型
func (s *AuthService) Register(ctx context.Context, username, email, pwd string) (*RegisterResult, error) {
	// 检查用户名是否已存在
	existing, _ := s.userRepo.FindByUsername(ctx, username)
	if existing != nil {
		return nil, ErrUserAlreadyExists
	}

	// 检查邮箱是否已存在
	existing, _ = s.userRepo.FindByEmail(ctx, email)
	if existing != nil {
		return nil, errors.New("邮箱已被注册")
	}

	// 加密密码
	hashedPassword, err := password.Hash(pwd)
	if err != nil {
		log.Error().Err(err).Msg("failed to hash password")
		return nil, errors.New("密码加密失败")
	}

	user := &auth.User{
		ID:       id.New(),
		Username: username,
		Email:    email,
		Password: hashedPassword,
		Role:     auth.RoleUser,
		Status:   auth.UserStatusActive,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		log.Error().Err(err).Msg("failed to create user")
		return nil, errors.New("创建用户失败")
	}

	return &RegisterResult{
		UserID:   user.ID,
		Username: user.Username,
		Status:   string(user.Status),
	}, nil
}

// LoginResult 登录结果
type LoginResult struct {
	AccessToken string
	ExpiresIn   int
	TokenType   string
	User        *auth.User
}

// Login 用户登录
func (s *AuthService) Login(ctx context.Context, username, pwd string) (*LoginResult, error) {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return nil, ErrUserNotFound
	}

	// 验证密码
	if !password.Verify(pwd, user.Password) {
		return nil, ErrInvalidPassword
	}

	if user.Status == auth.UserStatusBanned {
		return nil, ErrUserBanned
	}

	accessToken, err := s.jwt.GenerateToken(user.ID, user.Username, string(user.Role))
	if err != nil {
		log.Error().Err(err).Msg("failed to generate access token")
		return nil, errors.New("生成Token失败")
	}

	// 更新最后登录时间，失败不影响登录流程
	if err := s.userRepo.UpdateLastLoginAt(ctx, user.ID); err != nil {
		log.Warn().Err(err).Msg("failed to update last login time")
	}

	return &LoginResult{
		AccessToken: accessToken,
		ExpiresIn:   int(s.jwt.GetExpiration().Seconds()),
		TokenType:   "Bearer",
		User:        user,
	}, nil
}

// GetUserByID 根据ID获取用户信息
func (s *AuthService) GetUserByID(ctx context.Context, userID string) (*auth.User, error) {
	return s.userRepo.FindByID(ctx, userID)
}

// ValidateToken 验证Access Token并返回Claims
func (s *AuthService) ValidateToken(tokenString string) (*jwt.Claims, error) {
	return s.jwt.ValidateToken(tokenString)
}
