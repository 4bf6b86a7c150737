package cli

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"exam-review-service/internal/app"
	"exam-review-service/internal/config"
	"exam-review-service/internal/engine"
	"exam-review-service/internal/genai"
	"exam-review-service/internal/infra/memory"
	pgstore "exam-review-service/internal/infra/postgres"
	redcache "exam-review-service/internal/infra/redis"
	"exam-review-service/internal/infra/sqlite"
	transport "exam-review-service/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the exam review server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	// The sqlite store is always present: question bank, history, bookmarks,
	// statistics. Postgres and Redis layer on top when configured.
	store, err := sqlite.Open(ctx, cfg.SQLite.Path)
	if err != nil {
		return err
	}
	defer store.Close()
	if err := store.Seed(ctx); err != nil {
		return err
	}

	var source engine.QuestionSource = store
	var results engine.ResultStore = store
	var resultHistory app.ResultHistory = store

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
		source = pgstore.NewQuestionLoader(pool)

		sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.Postgres.URL)))
		bundb := bun.NewDB(sqldb, pgdialect.New())
		defer bundb.Close()
		pgResults := pgstore.NewResultStore(bundb)
		results = pgResults
		resultHistory = pgResults
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()
		source = redcache.NewQuestionCache(client, source, config.TTLDuration(cfg.Redis.TTL, quizTTL))
	} else {
		source = memory.NewSourceCache(source, quizTTL)
	}

	manager := app.NewSessionManager(source, results)
	library := app.NewLibraryService(store, store, store, store, resultHistory)

	var generator transport.QuestionGenerator
	if cfg.GenAI.BaseURL != "" {
		generator = genai.NewGenerator(cfg.GenAI.BaseURL, cfg.GenAI.APIKey, cfg.GenAI.Model, store, store)
	}

	rest := transport.NewRESTHandler(library, store, generator)
	router := transport.NewRouter(rest, transport.NewWSHandler(manager))

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting exam review service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
