package ai

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	aisvc "github.com/mliu/prompthub/internal/service/ai"
	"github.com/mliu/prompthub/internal/transport/httpx"
)

const (
	diagnoseTimeout = 30 * time.Second
	optimizeTimeout = 2 * time.Minute
)

func Register(rg *gin.RouterGroup, svc *aisvc.Service) {
	rg.POST("/diagnose", diagnose(svc))
	rg.POST("/optimize", optimize(svc))
}

type contentReq struct {
	Content string `json:"content" binding:"required"`
}

func diagnose(svc *aisvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req contentReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), diagnoseTimeout)
		defer cancel()

		result, err := svc.Diagnose(ctx, req.Content)
		if err != nil {
			httpx.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

// optimize streams the rewritten prompt as server-sent events: a start
// event, one chunk event per model token batch, then done (or error).
func optimize(svc *aisvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req contentReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), optimizeTimeout)
		defer cancel()

		chunks, err := svc.Optimize(ctx, req.Content)
		if err != nil {
			httpx.Error(c, err)
			return
		}
		// Whatever path exits the handler, leave the producer unblocked:
		// cancel its context, then drain until it closes the channel.
		defer func() {
			cancel()
			for range chunks {
			}
		}()

		c.Writer.Header().Set("Content-Type", "text/event-stream")
		c.Writer.Header().Set("Cache-Control", "no-cache")
		c.Writer.Header().Set("Connection", "keep-alive")

		c.SSEvent("start", gin.H{})
		c.Writer.Flush()

		for chunk := range chunks {
			select {
			case <-ctx.Done():
				return
			default:
			}

			switch {
			case chunk.Err != nil:
				c.SSEvent("error", gin.H{"error": "generation failed"})
				c.Writer.Flush()
				return
			case chunk.Done:
				c.SSEvent("done", gin.H{})
				c.Writer.Flush()
				return
			default:
				c.SSEvent("chunk", gin.H{"content": chunk.Content})
				c.Writer.Flush()
			}
		}
	}
}
