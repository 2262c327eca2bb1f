package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"trivia-session-service/internal/catalog"
	"trivia-session-service/internal/config"
	"trivia-session-service/internal/domain"
	"trivia-session-service/internal/game"
	"trivia-session-service/internal/infra/memory"
	pginfra "trivia-session-service/internal/infra/postgres"
	redisinfra "trivia-session-service/internal/infra/redis"
	"trivia-session-service/internal/persist"
	transport "trivia-session-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the trivia session server",
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

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
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

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	var source catalog.Catalog = memory.NewStaticCatalog(sampleSets())
	if pool != nil {
		source = pginfra.NewCatalogLoader(pool)
	}

	catalogTTL := config.TTLDuration(cfg.Catalog.TTL, 10*time.Minute)
	var cat catalog.Catalog
	if redisClient != nil {
		cat = redisinfra.NewCachedCatalog(redisClient, source, catalogTTL)
	} else {
		cat = memory.NewCachedCatalog(source, catalogTTL)
	}

	var stores persist.Fanout
	if pool != nil {
		stores = append(stores, pginfra.NewMirrorStore(pool))
	}
	if redisClient != nil {
		stores = append(stores, redisinfra.NewPresence(redisClient, redisTTL))
	}
	var mirror *persist.Mirror
	if len(stores) > 0 {
		mirror = persist.NewMirror(stores)
	}

	registry := game.NewRegistry(mirror)
	ledger := game.NewLedger(mirror)
	ranking := game.NewRanking(ledger)
	hub := transport.NewHub()

	var opts []game.Option
	if pause := config.TTLDuration(cfg.Game.RevealPause, 0); pause > 0 {
		opts = append(opts, game.WithRevealPause(pause))
	}
	engine := game.NewEngine(registry, ledger, ranking, cat, hub, opts...)
	wsHandler := transport.NewWSHandler(hub, registry, ledger, engine, cat)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting trivia session service on :%s", finalPort)
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

// sampleSets seeds the in-memory catalog when no Postgres is configured;
// the migrations carry the same default set for the database-backed path.
func sampleSets() []memory.SeedSet {
	return []memory.SeedSet{
		{
			Set: domain.QuestionSet{ID: "set-default", Name: catalog.DefaultSetName},
			Questions: []domain.Question{
				{ID: "default-q1", Text: "Which planet is known as the Red Planet?", Options: []string{"Venus", "Mars", "Jupiter", "Saturn"}, CorrectAnswer: "B", TimeLimitSeconds: 30, BasePoints: 1000},
				{ID: "default-q2", Text: "What is the largest ocean on Earth?", Options: []string{"Atlantic", "Indian", "Pacific", "Arctic"}, CorrectAnswer: "C", TimeLimitSeconds: 30, BasePoints: 1000},
				{ID: "default-q3", Text: "How many continents are there?", Options: []string{"5", "6", "7", "8"}, CorrectAnswer: "C", TimeLimitSeconds: 30, BasePoints: 1000},
				{ID: "default-q4", Text: "Which gas do plants absorb from the atmosphere?", Options: []string{"Oxygen", "Nitrogen", "Carbon dioxide", "Hydrogen"}, CorrectAnswer: "C", TimeLimitSeconds: 30, BasePoints: 1000},
				{ID: "default-q5", Text: "What is the capital of Japan?", Options: []string{"Osaka", "Kyoto", "Tokyo", "Nagoya"}, CorrectAnswer: "C", TimeLimitSeconds: 30, BasePoints: 1000},
			},
		},
	}
}
