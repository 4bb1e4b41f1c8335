package tag

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	domaintag "github.com/mliu/prompthub/internal/domain/tag"
	tagsvc "github.com/mliu/prompthub/internal/service/tag"
	"github.com/mliu/prompthub/internal/transport/auth"
	"github.com/mliu/prompthub/internal/transport/httpx"
)

func Register(rg *gin.RouterGroup, svc *tagsvc.Service) {
	rg.POST("/", createTag(svc))
	rg.GET("/", listTags(svc))
	rg.GET("/:id", getTag(svc))
	rg.PATCH("/:id", updateTag(svc))
	rg.DELETE("/:id", deleteTag(svc))
}

type createTagReq struct {
	Name  string `json:"name" binding:"required"`
	Color string `json:"color"`
}

func createTag(svc *tagsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createTagReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if req.Color == "" {
			req.Color = domaintag.DefaultColor
		}

		t, err := svc.Create(c.Request.Context(), auth.UserID(c), req.Name, req.Color)
		if err != nil {
			httpx.Error(c, err)
			return
		}
		c.JSON(http.StatusCreated, t)
	}
}

func listTags(svc *tagsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := auth.UserID(c)

		if c.Query("with_counts") == "true" {
			tags, err := svc.ListWithCounts(c.Request.Context(), userID)
			if err != nil {
				httpx.Error(c, err)
				return
			}
			c.JSON(http.StatusOK, tags)
			return
		}

		tags, err := svc.List(c.Request.Context(), userID)
		if err != nil {
			httpx.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, tags)
	}
}

func getTag(svc *tagsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}

		t, err := svc.Get(c.Request.Context(), id, auth.UserID(c))
		if err != nil {
			httpx.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, t)
	}
}

type updateTagReq struct {
	Name  *string `json:"name"`
	Color *string `json:"color"`
}

func updateTag(svc *tagsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}

		var req updateTagReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		t, err := svc.Update(c.Request.Context(), id, auth.UserID(c), req.Name, req.Color)
		if err != nil {
			httpx.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, t)
	}
}

func deleteTag(svc *tagsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}

		if err := svc.Delete(c.Request.Context(), id, auth.UserID(c)); err != nil {
			httpx.Error(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
