package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"go.mongodb.org/mongo-driver/mongo"

	"pomelo/internal/config"
	"pomelo/internal/model"
	"pomelo/internal/model/auth"
	"pomelo/internal/pkg/id"
	"pomelo/internal/pkg/logger"
	"pomelo/internal/pkg/mongodb"
	"pomelo/internal/pkg/password"
	"pomelo/internal/repository"
	authrepo "pomelo/internal/repository/auth"
)

func main() {
	// 1. 加载配置（与 cmd/root.go 保持一致的搜索路径）
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")
	viper.AddConfigPath("$HOME/.pomelo")

	viper.SetEnvPrefix("POMELO")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read config: %v\n", err)
		os.Exit(1)
	}

	var cfg config.Config
	if err := viper.Unmarshal(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to unmarshal config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(&cfg.Log); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to init logger: %v\n", err)
		os.Exit(1)
	}

	// 2. 连接 MongoDB
	client, err := mongodb.New(&cfg.Mongo)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect mongo")
	}
	defer func() {
		_ = client.Close(context.Background())
	}()

	db := client.Database()
	ctx := context.Background()

	// 3. 初始化管理员账号
	userRepo := authrepo.NewUserRepo(db)

	username := os.Getenv("INIT_ADMIN_USERNAME")
	if username == "" {
		username = "admin"
	}
	passwordPlain := os.Getenv("INIT_ADMIN_PASSWORD")
	if passwordPlain == "" {
		passwordPlain = "admin123"
	}
	email := os.Getenv("INIT_ADMIN_EMAIL")
	if email == "" {
		email = "admin@example.com"
	}

	user, err := userRepo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			log.Info().Str("username", username).Msg("admin user not found, will create")
			if err := createAdmin(ctx, userRepo, username, email, passwordPlain); err != nil {
				log.Fatal().Err(err).Msg("create admin user failed")
			}
		} else {
			log.Fatal().Err(err).Msg("failed to query user")
		}
	} else {
		log.Info().Str("username", username).Str("user_id", user.ID).Msg("admin user already exists")
	}

	// 4. 初始化运行时配置记录（已存在时不覆盖）
	configRepo := repository.NewChatConfigRepo(db)
	if _, err := configRepo.GetDefault(ctx); err != nil {
		if errors.Is(err, repository.ErrConfigNotFound) {
			log.Info().Msg("chat config record not found, will create with defaults")
			if err := configRepo.UpsertDefault(ctx, &model.RuntimeConfigRecord{}); err != nil {
				log.Fatal().Err(err).Msg("create chat config record failed")
			}
		} else {
			log.Fatal().Err(err).Msg("failed to query chat config record")
		}
	} else {
		log.Info().Msg("chat config record already exists")
	}

	fmt.Printf("Initialized: admin=%s chat config id=%s\n", username, model.RuntimeConfigID)
}

func createAdmin(ctx context.Context, repo *authrepo.UserRepo, username, email, pwd string) error {
	hashed, err := password.Hash(pwd)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	now := time.Now()
	user := &auth.User{
		ID:        id.New(),
		Username:  username,
		Email:     email,
		Password:  hashed,
		Role:      auth.RoleAdmin,
		Status:    auth.UserStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}

	return repo.Create(ctx, user)
}
