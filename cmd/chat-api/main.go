package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/01cderx/Chat-ai/handler"
	"github.com/01cderx/Chat-ai/internal/config"
	"github.com/01cderx/Chat-ai/internal/integrations/chatkit"
	"github.com/01cderx/Chat-ai/internal/integrations/openai"
	"github.com/01cderx/Chat-ai/internal/integrations/paramstore"
	"github.com/01cderx/Chat-ai/internal/repository"
	"github.com/01cderx/Chat-ai/internal/usecase"
)

func main() {
	ctx := context.Background()
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		log.Error("failed to load configuration", "err", err)
		os.Exit(1)
	}

	// ---- AWS SDK config ----
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		log.Error("failed to load AWS config", "err", err)
		os.Exit(1)
	}

	// ---- Collaborator clients, created once and shared across requests ----
	ssmClient, err := paramstore.New(awsssm.NewFromConfig(awsCfg))
	if err != nil {
		log.Error("failed to create SSM client", "err", err)
		os.Exit(1)
	}
	store, err := repository.New(awsdynamodb.NewFromConfig(awsCfg), cfg.StateTable)
	if err != nil {
		log.Error("failed to create conversation store client", "err", err)
		os.Exit(1)
	}
	engine, err := openai.NewClient(ssmClient, cfg.ParamPrefix, openai.WithBaseURL(cfg.OpenAIBaseURL))
	if err != nil {
		log.Error("failed to create OpenAI client", "err", err)
		os.Exit(1)
	}
	platform, err := chatkit.NewClient(ssmClient, cfg.ParamPrefix, chatkit.WithBaseURL(cfg.ChatkitBaseURL))
	if err != nil {
		log.Error("failed to create chat platform client", "err", err)
		os.Exit(1)
	}

	// ---- Service + HTTP surface ----
	svc, err := usecase.NewChatService(platform, store, engine, platform, cfg.Model, cfg.HistoryLimit)
	if err != nil {
		log.Error("failed to create chat service", "err", err)
		os.Exit(1)
	}
	h, err := handler.NewHandler(svc, log)
	if err != nil {
		log.Error("failed to create handler", "err", err)
		os.Exit(1)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.Default())
	h.Routes(router)

	addr := fmt.Sprintf(":%d", cfg.HTTPPort)
	log.Info("server listening", "addr", addr)
	if err := router.Run(addr); err != nil {
		log.Error("server stopped", "err", err)
		os.Exit(1)
	}
}
