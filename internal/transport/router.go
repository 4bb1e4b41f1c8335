package transport

import (
	"context"
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/mliu/prompthub/internal/domain/event"
	porteventbus "github.com/mliu/prompthub/internal/port/eventbus"
	aisvc "github.com/mliu/prompthub/internal/service/ai"
	promptsvc "github.com/mliu/prompthub/internal/service/prompt"
	tagsvc "github.com/mliu/prompthub/internal/service/tag"

	aihandler "github.com/mliu/prompthub/internal/transport/ai"
	"github.com/mliu/prompthub/internal/transport/auth"
	mcptransport "github.com/mliu/prompthub/internal/transport/mcp"
	prompthandler "github.com/mliu/prompthub/internal/transport/prompt"
	taghandler "github.com/mliu/prompthub/internal/transport/tag"
	wshandler "github.com/mliu/prompthub/internal/transport/ws"
)

func NewRouter(
	ctx context.Context,
	promptSvc *promptsvc.Service,
	tagSvc *tagsvc.Service,
	aiSvc *aisvc.Service,
	mcpServer *mcptransport.Server,
	eventBus porteventbus.EventBus,
	jwtSecret string,
) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(RequestLogger())
	r.Use(CORSMiddleware())

	api := r.Group("/api")
	authed := api.Group("", auth.Middleware(jwtSecret))

	prompthandler.Register(authed.Group("/prompts"), promptSvc)
	prompthandler.RegisterVersions(authed.Group("/versions"), promptSvc)
	taghandler.Register(authed.Group("/tags"), tagSvc)
	aihandler.Register(authed.Group("/ai"), aiSvc)

	hub := wshandler.NewHub()
	hub.Register(api.Group("/ws"))

	// Bridge: one subscription per domain channel. Events carry only type
	// and entity id; clients re-fetch what they care about.
	for _, ch := range []event.Channel{event.ChannelPrompt, event.ChannelTag} {
		c := ch
		if _, err := eventBus.Subscribe(ctx, c, func(_ context.Context, e event.Event) {
			hub.Broadcast(e)
		}); err != nil {
			slog.Error("failed to subscribe channel to WS hub", "channel", c, "error", err)
		}
	}

	r.Any("/mcp", gin.WrapH(mcpServer.Handler()))
	r.Any("/mcp/*path", gin.WrapH(mcpServer.Handler()))

	return r
}
