package cmd

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-amqp/pkg/amqp"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	httphandler "ragcore/handler/http"
	"ragcore/src/core/rag"
	"ragcore/src/core/system"
	"ragcore/src/infrastructure/integrations/ollama"
	jobctrl "ragcore/src/infrastructure/job"
	"ragcore/src/infrastructure/log"
	"ragcore/src/storage/redis"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the retrieval-augmented chat server",
	Long:  `The serve command starts an HTTP server exposing document ingestion and retrieval-augmented chat APIs`,
	Run:   RunServer,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func RunServer(cmd *cobra.Command, args []string) {
	ctx := context.Background()

	deps, err := buildCoreDeps(ctx)
	if err != nil {
		log.Error(err, "Failed to initialize core services")
		return
	}

	// Initialize Redis-backed chat history
	historyStore := redis.NewHistoryStore(
		viper.GetString("redis.addr"),
		viper.GetString("redis.password"),
		viper.GetInt("redis.db"),
		viper.GetInt("redis.history_limit"),
		viper.GetDuration("redis.history_ttl"),
	)

	// Initialize the generation backend and orchestrator
	generator := ollama.NewProvider(deps.ollamaClient, viper.GetString("rag.generation_model"))
	orchestrator, err := rag.NewOrchestrator(
		deps.gateway,
		deps.index,
		generator,
		rag.WithTopK(viper.GetInt("rag.top_k")),
		rag.WithPromptBudget(viper.GetInt("rag.prompt_budget")),
		rag.WithHistoryLimit(viper.GetInt("rag.history_limit")),
		rag.WithTimeouts(
			viper.GetDuration("rag.embed_timeout"),
			viper.GetDuration("rag.query_timeout"),
			viper.GetDuration("rag.generate_timeout"),
		),
	)
	if err != nil {
		log.Error(err, "Failed to create orchestrator")
		return
	}

	// Initialize health checks
	sysService := system.NewService(map[string]system.Check{
		"weaviate": deps.index.Live,
		"ollama":   deps.ollamaClient.Healthy,
		"redis":    historyStore.Healthy,
		"postgres": func(ctx context.Context) bool {
			sqlDB, err := deps.db.DB()
			if err != nil {
				return false
			}
			return sqlDB.PingContext(ctx) == nil
		},
	})

	handlerOpts := []httphandler.HandlerOption{
		httphandler.WithHistoryStore(historyStore, viper.GetInt("rag.history_limit")),
	}

	// Async ingestion is enabled only when an AMQP URL is configured.
	amqpURL := viper.GetString("amqp.url")
	if amqpURL != "" {
		amqpPublisher, err := amqp.NewPublisher(
			amqp.NewDurableQueueConfig(amqpURL),
			watermill.NewStdLogger(false, false),
		)
		if err != nil {
			log.Error(err, "Failed to create AMQP publisher")
			return
		}
		defer amqpPublisher.Close()

		jobRepo, err := jobctrl.NewPostgresRepository(deps.db)
		if err != nil {
			log.Error(err, "Failed to initialize job repository")
			return
		}
		ingestTask := jobctrl.NewIngestTask(deps.library, deps.minio)
		jobService := jobctrl.NewJobService(amqpPublisher, jobRepo, watermill.NewStdLogger(false, false), ingestTask)
		handlerOpts = append(handlerOpts, httphandler.WithJobService(jobService, deps.minio))
	}

	handler := httphandler.NewHandler(deps.library, orchestrator, sysService, handlerOpts...)

	// Setup gin router
	r := gin.Default()

	// Register routes
	handler.RegisterRoutes(r)

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + viper.GetString("server.port"),
		Handler: r,
	}

	// Start server in a goroutine
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error(err, "Failed to start server")
			return
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	// Parse shutdown timeout
	timeout, err := time.ParseDuration(viper.GetString("server.shutdown_timeout"))
	if err != nil {
		log.Error(err, "Invalid shutdown timeout, using default 5s")
		timeout = 5 * time.Second
	}

	// Create context with timeout for shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := deps.closeDB(); err != nil {
		log.Error(err, "Error closing database connection")
	}
	if err := historyStore.Close(); err != nil {
		log.Error(err, "Error closing redis connection")
	}

	// Attempt graceful shutdown
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(err, "Server forced to shutdown")
	}

	log.Info("Server exited")
}
