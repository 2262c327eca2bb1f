package integration

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
	"trivia-session-service/internal/catalog"
	"trivia-session-service/internal/game"
	pginfra "trivia-session-service/internal/infra/postgres"
	pgmigrations "trivia-session-service/internal/infra/postgres/migrations"
	infraredis "trivia-session-service/internal/infra/redis"
	"trivia-session-service/internal/persist"
)

// collectingHub records engine broadcasts per event type.
type collectingHub struct {
	mu     sync.Mutex
	events []string
}

func (h *collectingHub) BroadcastToRoom(roomID, event string, payload any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, event)
}

func (h *collectingHub) seen(event string) bool {
	for _, e := range h.snapshot() {
		if e == event {
			return true
		}
	}
	return false
}

func (h *collectingHub) snapshot() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.events...)
}

func TestGameFlowAgainstRealBackends(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	runMigrations(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}

	loader := pginfra.NewCatalogLoader(pool)
	cat := infraredis.NewCachedCatalog(redisClient, loader, 5*time.Minute)

	mirror := persist.NewMirror(persist.Fanout{
		pginfra.NewMirrorStore(pool),
		infraredis.NewPresence(redisClient, 5*time.Minute),
	})

	registry := game.NewRegistry(mirror)
	ledger := game.NewLedger(mirror)
	ranking := game.NewRanking(ledger)
	hub := &collectingHub{}
	engine := game.NewEngine(registry, ledger, ranking, cat, hub,
		game.WithRevealPause(time.Millisecond))

	// Migrations seed the default set; it must be listed with its count.
	sets, err := cat.ListSets(ctx)
	if err != nil {
		t.Fatalf("list sets: %v", err)
	}
	found := false
	for _, s := range sets {
		if s.Name == catalog.DefaultSetName && s.Count == 5 {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected seeded default set with 5 questions, got %+v", sets)
	}

	room, err := registry.Create("host-1", "")
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	ledger.Add("conn-1", "Alice", room.ID, "host-1")
	ledger.Add("conn-2", "Bob", room.ID, "")

	total, err := engine.Start(ctx, room.ID, "", "")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if total != 5 {
		t.Fatalf("expected 5 questions from default set, got %d", total)
	}
	if !hub.seen(game.EventNewQuestion) {
		t.Fatalf("expected a question broadcast, events %v", hub.snapshot())
	}

	// First seeded question is default-q1 with correct answer B.
	result, err := engine.SubmitAnswer(ctx, room.ID, "conn-1", "default-q1", 1, 0)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !result.Correct || result.Gained != 1500 {
		t.Fatalf("expected correct with full bonus, got %+v", result)
	}
	if !hub.seen(game.EventRevealAnswer) {
		t.Fatalf("expected a reveal after the winning submission")
	}

	// Both stores see the same stream: room row in Postgres, liveness
	// marker in Redis, score mirrored.
	mirror.Wait()

	var status string
	if err := pool.QueryRow(ctx, `SELECT status FROM rooms WHERE id = $1`, room.ID).Scan(&status); err != nil {
		t.Fatalf("room row: %v", err)
	}
	if status != "playing" {
		t.Fatalf("expected mirrored status playing, got %q", status)
	}

	var score int
	if err := pool.QueryRow(ctx, `SELECT score FROM room_players WHERE connection_id = 'conn-1'`).Scan(&score); err != nil {
		t.Fatalf("player row: %v", err)
	}
	if score != 1500 {
		t.Fatalf("expected mirrored score 1500, got %d", score)
	}

	if n, err := redisClient.Exists(ctx, "room:live:"+room.ID).Result(); err != nil || n != 1 {
		t.Fatalf("expected liveness key in redis, n=%d err=%v", n, err)
	}

	// Starting the cycle went through the cached catalog, so the default
	// set's questions should now sit in redis.
	if n, err := redisClient.Exists(ctx, "catalog:set:set-default:questions").Result(); err != nil || n != 1 {
		t.Fatalf("expected cached questions in redis, n=%d err=%v", n, err)
	}

	engine.DestroyRoom(room.ID)
	mirror.Wait()

	var count int
	if err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM rooms WHERE id = $1`, room.ID).Scan(&count); err != nil {
		t.Fatalf("count rooms: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected room row deleted, got %d", count)
	}
}

func runMigrations(t *testing.T, ctx context.Context, dsn string) {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "trivia", "POSTGRES_PASSWORD": "triviapass", "POSTGRES_DB": "triviadb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://trivia:triviapass@%s:%s/triviadb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
