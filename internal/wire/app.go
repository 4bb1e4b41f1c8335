package wire

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mliu/prompthub/internal/adapter/memory"
	openaiadapter "github.com/mliu/prompthub/internal/adapter/openai"
	pgdb "github.com/mliu/prompthub/internal/adapter/postgres"
	pgeventbus "github.com/mliu/prompthub/internal/adapter/postgres/eventbus"
	pglocker "github.com/mliu/prompthub/internal/adapter/postgres/locker"
	pgprompt "github.com/mliu/prompthub/internal/adapter/postgres/prompt"
	pgtag "github.com/mliu/prompthub/internal/adapter/postgres/tag"
	"github.com/mliu/prompthub/internal/config"

	aisvc "github.com/mliu/prompthub/internal/service/ai"
	promptsvc "github.com/mliu/prompthub/internal/service/prompt"
	tagsvc "github.com/mliu/prompthub/internal/service/tag"

	"github.com/mliu/prompthub/internal/transport"
	mcptransport "github.com/mliu/prompthub/internal/transport/mcp"
)

// App holds the top-level resources needed to run and gracefully stop the
// server.
type App struct {
	Pool      *pgxpool.Pool
	Server    *http.Server
	PromptSvc *promptsvc.Service
	MCPServer *mcptransport.Server
}

// Build is the composition root: the only place concrete types are wired to
// their interface dependencies.
func Build(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	// ── Database ─────────────────────────────────────────────────────────────
	pool, err := pgdb.Connect(ctx, cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	if err := pgdb.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrating schema: %w", err)
	}

	// ── Adapters ─────────────────────────────────────────────────────────────
	promptRepo := pgprompt.New(pool)
	tagRepo := pgtag.New(pool)
	eventBus := pgeventbus.New(pool)
	locker := pglocker.New(pool)
	cache := memory.NewCache()
	generator := openaiadapter.NewGenerator(cfg.OpenAI.APIKey, cfg.OpenAI.Model)

	// ── Services ─────────────────────────────────────────────────────────────
	promptSvc := promptsvc.NewService(promptRepo, eventBus, locker)
	tagSvc := tagsvc.NewService(tagRepo, eventBus)
	aiSvc := aisvc.NewService(generator, cache)

	mcpServer := mcptransport.New(promptSvc)

	// ── Transport ────────────────────────────────────────────────────────────
	router := transport.NewRouter(ctx, promptSvc, tagSvc, aiSvc, mcpServer, eventBus, cfg.Auth.JWTSecret)

	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	slog.Info("application wired", "port", cfg.Server.Port)

	return &App{
		Pool:      pool,
		Server:    server,
		PromptSvc: promptSvc,
		MCPServer: mcpServer,
	}, nil
}
