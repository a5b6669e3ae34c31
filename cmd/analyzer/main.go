package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	app_service "wallet-persona-engine/internal/application/service"
	"wallet-persona-engine/internal/domain/repository"
	domain_service "wallet-persona-engine/internal/domain/service"
	http_handler "wallet-persona-engine/internal/handlers/http"
	"wallet-persona-engine/internal/infrastructure/blockchain"
	"wallet-persona-engine/internal/infrastructure/cache"
	"wallet-persona-engine/internal/infrastructure/config"
	"wallet-persona-engine/internal/infrastructure/database"
	"wallet-persona-engine/internal/infrastructure/logger"
	"wallet-persona-engine/internal/infrastructure/messaging"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load() // Load .env if present

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Create logger
	log, err := logger.NewLogger(cfg.App.Env, cfg.App.LogLevel)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}

	// Create FX application
	app := fx.New(
		// Provide dependencies
		fx.Supply(cfg),
		fx.Supply(log),
		fx.Supply(&cfg.NATS),
		fx.Supply(&cfg.Neo4J),
		fx.Provide(func() *zap.Logger { return log.Logger }),

		// Infrastructure providers
		fx.Provide(
			database.NewNeo4JClient,
			messaging.NewNATSConsumer,
			func(cfg *config.Config, client *database.Neo4JClient, log *logger.Logger) repository.PersonaRepository {
				if !cfg.Neo4J.Enabled {
					return nil
				}
				return database.NewNeo4JPersonaRepository(client, log)
			},
			func(cfg *config.Config, log *logger.Logger) repository.PersonaCache {
				if !cfg.Redis.Enabled {
					return nil
				}
				return cache.NewRedisPersonaCache(&cfg.Redis, log)
			},
			func(cfg *config.Config, log *logger.Logger) domain_service.TransactionFetcher {
				if !cfg.Explorer.Enabled {
					return nil
				}
				return blockchain.NewExplorerClient(&cfg.Explorer, log)
			},
		),

		// Domain services
		fx.Provide(
			domain_service.NewTransactionValidator,
			domain_service.NewPersonaAnalyzer,
		),

		// Application providers
		fx.Provide(
			app_service.NewPersonaAnalysisApplicationService,
			func(cfg *config.Config, svc domain_service.PersonaAnalysisService, log *logger.Logger) *http_handler.Server {
				return http_handler.NewServer(cfg.App.HTTPPort, svc, log)
			},
		),

		// Lifecycle hooks
		fx.Invoke(startAnalysisPipeline),
		fx.Invoke(startHTTPServer),

		// Configure logging
		fx.WithLogger(func() fxevent.Logger {
			return fxevent.NopLogger
		}),
	)

	// Start the application
	ctx := context.Background()
	if err := app.Start(ctx); err != nil {
		log.Error("Failed to start application", zap.Error(err))
		os.Exit(1)
	}

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info("Shutting down application...")

	// Stop the application
	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.Stop(stopCtx); err != nil {
		log.Error("Failed to stop application gracefully", zap.Error(err))
		os.Exit(1)
	}

	log.Info("Application stopped successfully")
}

// startAnalysisPipeline connects the optional backends and wires the NATS
// request channel into the analysis service
func startAnalysisPipeline(
	lifecycle fx.Lifecycle,
	consumer *messaging.NATSConsumer,
	analysisService domain_service.PersonaAnalysisService,
	neo4jClient *database.Neo4JClient,
	log *logger.Logger,
	cfg *config.Config,
) {
	pipelineCtx, cancel := context.WithCancel(context.Background())

	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("Starting analysis pipeline...")

			if cfg.Neo4J.Enabled {
				log.Info("Connecting to Neo4J database")
				if err := neo4jClient.Connect(ctx); err != nil {
					return fmt.Errorf("failed to connect to Neo4J: %w", err)
				}
			}

			if err := consumer.Connect(ctx); err != nil {
				return fmt.Errorf("failed to connect to NATS: %w", err)
			}

			if cfg.NATS.Enabled {
				go processRequests(pipelineCtx, consumer, analysisService, log)
			}

			log.Info("Analysis pipeline started successfully")
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Stopping analysis pipeline...")
			cancel()
			if cfg.Neo4J.Enabled {
				if err := neo4jClient.Close(ctx); err != nil {
					log.Error("Failed to close Neo4J connection", zap.Error(err))
				}
			}
			return consumer.Disconnect()
		},
	})
}

// startHTTPServer starts the persona API server
func startHTTPServer(
	lifecycle fx.Lifecycle,
	server *http_handler.Server,
	log *logger.Logger,
) {
	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := server.Start(); err != nil {
					log.Error("HTTP server error", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return server.Stop(ctx)
		},
	})
}

// processRequests consumes analysis requests from NATS and publishes results
func processRequests(
	ctx context.Context,
	consumer *messaging.NATSConsumer,
	analysisService domain_service.PersonaAnalysisService,
	log *logger.Logger,
) {
	msgChan := consumer.GetMessageChannel()

	for {
		select {
		case <-ctx.Done():
			return

		case request := <-msgChan:
			if request == nil {
				// Channel closed
				return
			}

			result, err := analysisService.AnalyzeWallet(ctx, request.WalletAddress, request.Transactions)
			if err != nil {
				log.Error("Failed to analyze wallet from NATS request",
					zap.String("wallet_address", request.WalletAddress),
					zap.Error(err))
				continue
			}

			if err := consumer.PublishResult(result); err != nil {
				log.Warn("Failed to publish analysis result",
					zap.String("wallet_address", request.WalletAddress),
					zap.Error(err))
			}
		}
	}
}
