package prompt

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	domainprompt "github.com/mliu/prompthub/internal/domain/prompt"
	promptsvc "github.com/mliu/prompthub/internal/service/prompt"
	"github.com/mliu/prompthub/internal/transport/auth"
	"github.com/mliu/prompthub/internal/transport/httpx"
)

func Register(rg *gin.RouterGroup, svc *promptsvc.Service) {
	rg.POST("/", createPrompt(svc))
	rg.GET("/", listPrompts(svc))
	rg.GET("/:id", getPrompt(svc))
	rg.PATCH("/:id", saveDraft(svc))
	rg.DELETE("/:id", deletePrompt(svc))
	rg.GET("/:id/versions", listVersions(svc))
	rg.POST("/:id/versions", publishVersion(svc))
	rg.POST("/:id/restore", restoreVersion(svc))
	rg.GET("/:id/restore-preview", restorePreview(svc))
}

// RegisterVersions mounts the version point lookups and the compare view.
func RegisterVersions(rg *gin.RouterGroup, svc *promptsvc.Service) {
	rg.GET("/compare", compareVersions(svc))
	rg.GET("/:id", getVersion(svc))
}

type createPromptReq struct {
	Title       string      `json:"title" binding:"required"`
	Content     string      `json:"content" binding:"required"`
	TagIDs      []uuid.UUID `json:"tag_ids"`
	Publish     bool        `json:"publish"`
	Description *string     `json:"description"`
}

func createPrompt(svc *promptsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createPromptReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		d, err := svc.Create(c.Request.Context(), auth.UserID(c), req.Title, req.Content, req.TagIDs, req.Publish, req.Description)
		if err != nil {
			httpx.Error(c, err)
			return
		}
		c.JSON(http.StatusCreated, d)
	}
}

func listPrompts(svc *promptsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		filters := domainprompt.ListFilters{
			UserID: auth.UserID(c),
			Search: c.Query("search"),
		}

		if v := c.Query("status"); v != "" {
			s := domainprompt.Status(v)
			if !s.Valid() {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
				return
			}
			filters.Status = &s
		}
		if v := c.Query("tag_ids"); v != "" {
			for _, raw := range strings.Split(v, ",") {
				id, err := uuid.Parse(raw)
				if err != nil {
					c.JSON(http.StatusBadRequest, gin.H{"error": "invalid tag_ids"})
					return
				}
				filters.TagIDs = append(filters.TagIDs, id)
			}
		}
		if v := c.Query("page"); v != "" {
			filters.Page, _ = strconv.Atoi(v)
		}
		if v := c.Query("limit"); v != "" {
			filters.Limit, _ = strconv.Atoi(v)
		}

		items, total, err := svc.List(c.Request.Context(), filters)
		if err != nil {
			httpx.Error(c, err)
			return
		}

		filters = filters.Normalize()
		totalPages := (total + filters.Limit - 1) / filters.Limit
		c.JSON(http.StatusOK, gin.H{
			"data": items,
			"pagination": gin.H{
				"page":        filters.Page,
				"limit":       filters.Limit,
				"total":       total,
				"total_pages": totalPages,
			},
		})
	}
}

func getPrompt(svc *promptsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}

		d, err := svc.Get(c.Request.Context(), id, auth.UserID(c))
		if err != nil {
			httpx.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, d)
	}
}

type saveDraftReq struct {
	Title   *string      `json:"title"`
	Content *string      `json:"content"`
	TagIDs  *[]uuid.UUID `json:"tag_ids"`
}

func saveDraft(svc *promptsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}

		var req saveDraftReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		upd := domainprompt.DraftUpdate{Title: req.Title, Content: req.Content}
		if req.TagIDs != nil {
			upd.TagIDs = *req.TagIDs
			if upd.TagIDs == nil {
				upd.TagIDs = []uuid.UUID{}
			}
		}

		p, err := svc.SaveDraft(c.Request.Context(), id, auth.UserID(c), upd)
		if err != nil {
			httpx.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

type deletePromptReq struct {
	Confirmation string `json:"confirmation" binding:"required"`
}

func deletePrompt(svc *promptsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}

		var req deletePromptReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		if err := svc.Delete(c.Request.Context(), id, auth.UserID(c), req.Confirmation); err != nil {
			httpx.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "prompt deleted"})
	}
}

func listVersions(svc *promptsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}

		versions, err := svc.ListVersions(c.Request.Context(), id, auth.UserID(c))
		if err != nil {
			httpx.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, versions)
	}
}

type publishVersionReq struct {
	Description *string `json:"description"`
}

func publishVersion(svc *promptsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}

		var req publishVersionReq
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
		}

		v, err := svc.Publish(c.Request.Context(), id, auth.UserID(c), req.Description)
		if err != nil {
			httpx.Error(c, err)
			return
		}
		c.JSON(http.StatusCreated, v)
	}
}

type restoreReq struct {
	VersionID uuid.UUID `json:"version_id" binding:"required"`
}

func restoreVersion(svc *promptsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}

		var req restoreReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		v, err := svc.Restore(c.Request.Context(), id, auth.UserID(c), req.VersionID)
		if err != nil {
			httpx.Error(c, err)
			return
		}
		c.JSON(http.StatusCreated, v)
	}
}

func restorePreview(svc *promptsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}
		versionID, err := uuid.Parse(c.Query("version_id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid version_id"})
			return
		}

		lines, err := svc.RestorePreview(c.Request.Context(), id, auth.UserID(c), versionID)
		if err != nil {
			httpx.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"lines": lines})
	}
}

func getVersion(svc *promptsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}

		v, err := svc.GetVersion(c.Request.Context(), id, auth.UserID(c))
		if err != nil {
			httpx.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, v)
	}
}

func compareVersions(svc *promptsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		from, err := uuid.Parse(c.Query("from"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from"})
			return
		}
		to, err := uuid.Parse(c.Query("to"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid to"})
			return
		}

		cmp, err := svc.Compare(c.Request.Context(), auth.UserID(c), from, to)
		if err != nil {
			httpx.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, cmp)
	}
}
