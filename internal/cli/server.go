package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"quiz-option-service/internal/app"
	"quiz-option-service/internal/config"
	"quiz-option-service/internal/domain"
	"quiz-option-service/internal/infra/memory"
	pgloader "quiz-option-service/internal/infra/postgres"
	redisinfra "quiz-option-service/internal/infra/redis"
	sqliteloader "quiz-option-service/internal/infra/sqlite"
	"quiz-option-service/internal/logger"
	"quiz-option-service/internal/markup"
	transport "quiz-option-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz option server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return err
	}
	log, err := logger.New(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg, log); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	loader, closeLoader, err := newQuestionLoader(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeLoader()

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}
	stateTTL := config.TTLDuration(cfg.Redis.TTL, 30*time.Minute)
	questionTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)

	var questions app.QuestionRepository
	var states app.StateRepository
	if redisClient != nil {
		questions = redisinfra.NewQuestionRepository(redisClient, loader, questionTTL)
		states = redisinfra.NewStateStore(redisClient, stateTTL, markup.New)
	} else {
		questions = memory.NewQuestionRepository(loader, questionTTL)
		states = memory.NewStateStore(stateTTL)
	}

	service := app.NewQuizService(states, questions, markup.New, app.Settings{
		Shuffle:    cfg.Quiz.Shuffle,
		MultiLabel: cfg.Quiz.MultiLabel,
		InnerText:  markup.InnerText,
	}, log)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      transport.NewRouter(service, log),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info("starting quiz option service", zap.String("port", finalPort), zap.Bool("shuffle", cfg.Quiz.Shuffle))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("failed to start server", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info("shutting down server")
	case <-ctx.Done():
		log.Info("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// newQuestionLoader picks Postgres, then SQLite, then the built-in sample questions.
func newQuestionLoader(ctx context.Context, cfg config.Config, log *zap.Logger) (memory.QuestionLoader, func(), error) {
	switch {
	case cfg.Postgres.URL != "":
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, nil, err
		}
		log.Info("loading questions from postgres")
		return pgloader.NewQuestionLoader(pool), pool.Close, nil
	case cfg.SQLite.Path != "":
		loader, err := sqliteloader.Open(ctx, cfg.SQLite.Path)
		if err != nil {
			return nil, nil, err
		}
		log.Info("loading questions from sqlite", zap.String("path", cfg.SQLite.Path))
		return loader, func() { _ = loader.Close() }, nil
	default:
		log.Warn("no question store configured, serving sample questions")
		return memory.NewStaticQuestionLoader(sampleQuestions()), func() {}, nil
	}
}

// sampleQuestions provides a minimal set of questions for demos.
func sampleQuestions() map[string]domain.Question {
	return map[string]domain.Question{
		"colors": {
			ID:          "colors",
			OptionsHTML: "<div>A. Red</div><div>B. Green</div><div>C. Blue</div>",
			AnswerHTML:  "<span>B</span>",
		},
		"primes": {
			ID:          "primes",
			OptionsHTML: "A. 2<br>B. 4<br>C. 5<br>D. 9",
			AnswerHTML:  "<span>AC</span>",
		},
	}
}
