package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/recpolicy/policyrag/internal/config"
	"github.com/recpolicy/policyrag/internal/core"
	db "github.com/recpolicy/policyrag/internal/core/database"
	"github.com/recpolicy/policyrag/internal/core/extractor"
	"github.com/recpolicy/policyrag/internal/core/llm"
	objectclient "github.com/recpolicy/policyrag/internal/core/object-client"
)

// App owns every long-lived component: the persistence facade, the object
// store, the model providers and the HTTP server.
type App struct {
	DBClient     core.DbClient
	ObjectClient core.ObjectClient
	DocProcessor core.DocProcessor
	Server       *Server

	log *slog.Logger
}

func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	appCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	dbClient, err := db.NewDatabaseClient(appCtx, cfg, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("database initialized and ready")

	objClient, err := objectclient.NewS3Client(appCtx, cfg, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("object client initialized and ready")

	geminiEmbedder, err := llm.NewGeminiEmbedder(appCtx, cfg.AIAPIKey, cfg.EmbedModel)
	if err != nil {
		return nil, fmt.Errorf("couldn't initialize the embedder, %w", err)
	}

	llmProvider, err := llm.NewGeminiLLM(appCtx, cfg.AIAPIKey, cfg.GenModel)
	if err != nil {
		return nil, fmt.Errorf("couldn't initialize the llm provider, %w", err)
	}

	processor := extractor.NewDocconvProcessor(llmProvider, cfg.ImageFolder, logger)

	server := NewServer(cfg, dbClient, objClient, processor, geminiEmbedder, llmProvider, logger)

	return &App{
		DBClient:     dbClient,
		ObjectClient: objClient,
		DocProcessor: processor,
		Server:       server,
		log:          logger,
	}, nil
}

func (a *App) Close() {
	if a.DBClient != nil {
		_ = a.DBClient.Close()
	}
}
