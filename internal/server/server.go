// Package server exposes the ingestion, OCR session, extraction and
// playbook operations over HTTP.
package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/hydroluxe/prodkb/backend/internal/progress"
	"github.com/hydroluxe/prodkb/backend/internal/queue"
	mid "github.com/hydroluxe/prodkb/backend/internal/server/middleware"
	"github.com/hydroluxe/prodkb/backend/internal/session"
	"github.com/hydroluxe/prodkb/backend/internal/util"
	"github.com/hydroluxe/prodkb/backend/pkg/ai"
	oai "github.com/hydroluxe/prodkb/backend/pkg/ai/ollama"
	gai "github.com/hydroluxe/prodkb/backend/pkg/ai/openai"
	"github.com/hydroluxe/prodkb/backend/pkg/graph"
	"github.com/hydroluxe/prodkb/backend/pkg/logger"
	"github.com/hydroluxe/prodkb/backend/pkg/playbook"
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i any) error {
	if err := cv.validator.Struct(i); err != nil {
		return err
	}
	return nil
}

// NewAIClient builds the configured provider from the environment. The
// OLLAMA adapter talks to a local server, the default adapter to any
// OpenAI-compatible endpoint.
func NewAIClient() ai.Client {
	adapter := util.GetEnvString("AI_ADAPTER", "openai")

	switch adapter {
	case "ollama":
		client, err := oai.NewClient(oai.NewClientParams{
			ChatModel:      util.GetEnv("AI_CHAT_MODEL"),
			VisionModel:    util.GetEnv("AI_VISION_MODEL"),
			EmbeddingModel: util.GetEnv("AI_EMBED_MODEL"),

			BaseURL: util.GetEnv("OLLAMA_URL"),

			MaxConcurrentRequests: int64(util.GetEnvInt("AI_PARALLEL_REQ", 15)),
		})
		if err != nil {
			logger.Fatal("Failed to create Ollama client", "err", err)
		}
		return client
	default:
		return gai.NewClient(gai.NewClientParams{
			ChatModel:      util.GetEnv("AI_CHAT_MODEL"),
			VisionModel:    util.GetEnv("AI_VISION_MODEL"),
			EmbeddingModel: util.GetEnv("AI_EMBED_MODEL"),

			ChatURL:      util.GetEnv("OPENAI_BASE_URL"),
			ChatKey:      util.GetEnv("OPENAI_API_KEY"),
			EmbeddingURL: util.GetEnvString("AI_EMBED_URL", util.GetEnv("OPENAI_BASE_URL")),
			EmbeddingKey: util.GetEnvString("AI_EMBED_KEY", util.GetEnv("OPENAI_API_KEY")),
		})
	}
}

func Init() {
	e := echo.New()
	e.Validator = &CustomValidator{validator: validator.New()}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	graphClient, err := graph.NewClientFromEnv(ctx)
	if err != nil {
		logger.Fatal("Failed to connect to Neo4j", "err", err)
	}
	defer graphClient.Close(context.Background())

	embedDim := util.GetEnvInt("AI_EMBED_DIM", 1024)
	if err := graphClient.EnsureSchema(ctx, embedDim); err != nil {
		logger.Fatal("Failed to ensure graph schema", "err", err)
	}

	que := queue.Init()
	defer que.Close()
	ch, err := que.Channel()
	if err != nil {
		logger.Fatal("Failed to open channel", "err", err)
	}
	if err := queue.SetupQueues(ch, queue.WorkQueues); err != nil {
		logger.Fatal("Failed to set up queues", "err", err)
	}

	aiClient := NewAIClient()

	bus := progress.NewBus()
	sessions := &session.Manager{
		UploadRoot:  util.GetEnvString("MANUAL_UPLOAD_ROOT", "manual_uploads"),
		ResultRoot:  util.GetEnvString("MANUAL_RESULT_ROOT", "manual_ocr_results"),
		Bus:         bus,
		Vision:      aiClient,
		OCRParallel: util.GetEnvInt("MANUAL_OCR_PARALLEL", 2),
	}

	playbooks, err := playbook.NewRegistry(aiClient, util.GetEnvString("ACE_RESULTS_ROOT", "results"))
	if err != nil {
		logger.Fatal("Failed to load playbooks", "err", err)
	}

	app := &mid.App{
		Graph:       graphClient,
		Queue:       ch,
		AiClient:    aiClient,
		Sessions:    sessions,
		Bus:         bus,
		Playbooks:   playbooks,
		ResultsRoot: sessions.ResultRoot,
		SamplesRoot: util.GetEnvString("ACE_SAMPLES_ROOT", "ace_samples"),
	}

	e.Use(mid.AppContextMiddleware(app))
	e.Use(middleware.CORS())
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit("4G"))

	RegisterRoutes(e)

	go func() {
		port := util.GetEnv("PORT")
		if port == "" {
			port = "8080"
		}
		logger.Info("Starting server", "port", port)
		if err := e.Start(":" + port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed shutting down server", "err", err)
		}
	}()

	<-ctx.Done()
	if err := playbooks.SaveAll(); err != nil {
		logger.Error("Failed to save playbooks", "err", err)
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Failed to shutdown server", "err", err)
	}
}
