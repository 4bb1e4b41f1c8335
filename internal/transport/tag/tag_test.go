package tag_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/mliu/prompthub/internal/domain/errs"
	domaintag "github.com/mliu/prompthub/internal/domain/tag"
	"github.com/mliu/prompthub/internal/mocks"
	tagsvc "github.com/mliu/prompthub/internal/service/tag"
	"github.com/mliu/prompthub/internal/transport/auth"
	transporttag "github.com/mliu/prompthub/internal/transport/tag"
)

func init() { gin.SetMode(gin.TestMode) }

type tagDeps struct {
	repo *mocks.MockTagRepository
	bus  *mocks.MockEventBus
}

func newTagSvc(t *testing.T) (*tagsvc.Service, tagDeps) {
	t.Helper()
	ctrl := gomock.NewController(t)
	d := tagDeps{
		repo: mocks.NewMockTagRepository(ctrl),
		bus:  mocks.NewMockEventBus(ctrl),
	}
	return tagsvc.NewService(d.repo, d.bus), d
}

func newRouter(svc *tagsvc.Service, userID uuid.UUID) *gin.Engine {
	r := gin.New()
	r.Use(func(c *gin.Context) { auth.SetUserID(c, userID) })
	transporttag.Register(r.Group("/tags"), svc)
	return r
}

// ── POST / (createTag) ────────────────────────────────────────────────────────

func TestCreateTag(t *testing.T) {
	tests := []struct {
		name     string
		body     map[string]string
		setup    func(d tagDeps, userID uuid.UUID)
		wantCode int
	}{
		{
			name: "success returns 201",
			body: map[string]string{"name": "marketing", "color": "#ff0000"},
			setup: func(d tagDeps, userID uuid.UUID) {
				d.repo.EXPECT().Create(gomock.Any(), gomock.Any()).
					Return(domaintag.Tag{ID: uuid.New(), UserID: userID, Name: "marketing", Color: "#ff0000"}, nil)
				d.bus.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil)
			},
			wantCode: http.StatusCreated,
		},
		{
			name: "omitted color falls back to default",
			body: map[string]string{"name": "marketing"},
			setup: func(d tagDeps, userID uuid.UUID) {
				d.repo.EXPECT().Create(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, tg domaintag.Tag) (domaintag.Tag, error) {
						assert.Equal(t, domaintag.DefaultColor, tg.Color)
						return tg, nil
					})
				d.bus.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil)
			},
			wantCode: http.StatusCreated,
		},
		{
			name:     "missing name returns 400",
			body:     map[string]string{"color": "#ff0000"},
			setup:    func(d tagDeps, userID uuid.UUID) {},
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "bad color returns 400",
			body:     map[string]string{"name": "marketing", "color": "red"},
			setup:    func(d tagDeps, userID uuid.UUID) {},
			wantCode: http.StatusBadRequest,
		},
		{
			name: "duplicate name returns 409",
			body: map[string]string{"name": "marketing"},
			setup: func(d tagDeps, userID uuid.UUID) {
				d.repo.EXPECT().Create(gomock.Any(), gomock.Any()).
					Return(domaintag.Tag{}, errs.ErrConflict)
			},
			wantCode: http.StatusConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, d := newTagSvc(t)
			userID := uuid.New()
			tt.setup(d, userID)
			r := newRouter(svc, userID)

			body, _ := json.Marshal(tt.body)
			w := httptest.NewRecorder()
			req, _ := http.NewRequestWithContext(context.Background(), http.MethodPost, "/tags/", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantCode, w.Code)
		})
	}
}

// ── GET / (listTags) ──────────────────────────────────────────────────────────

func TestListTags(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		setup    func(d tagDeps, userID uuid.UUID)
		wantCode int
	}{
		{
			name: "plain list returns 200",
			setup: func(d tagDeps, userID uuid.UUID) {
				d.repo.EXPECT().List(gomock.Any(), userID).
					Return([]domaintag.Tag{{ID: uuid.New(), Name: "a"}}, nil)
			},
			wantCode: http.StatusOK,
		},
		{
			name:  "with_counts uses the counted view",
			query: "?with_counts=true",
			setup: func(d tagDeps, userID uuid.UUID) {
				d.repo.EXPECT().ListWithCounts(gomock.Any(), userID).
					Return([]domaintag.WithCount{{Tag: domaintag.Tag{ID: uuid.New(), Name: "a"}, PromptCount: 3}}, nil)
			},
			wantCode: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, d := newTagSvc(t)
			userID := uuid.New()
			tt.setup(d, userID)
			r := newRouter(svc, userID)

			w := httptest.NewRecorder()
			req, _ := http.NewRequestWithContext(context.Background(), http.MethodGet, "/tags/"+tt.query, nil)
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantCode, w.Code)
		})
	}
}

// ── PATCH /:id (updateTag) ────────────────────────────────────────────────────

func TestUpdateTag(t *testing.T) {
	tests := []struct {
		name     string
		id       string
		body     map[string]string
		setup    func(d tagDeps, userID, tagID uuid.UUID)
		wantCode int
	}{
		{
			name: "rename returns 200",
			body: map[string]string{"name": "sales"},
			setup: func(d tagDeps, userID, tagID uuid.UUID) {
				d.repo.EXPECT().Update(gomock.Any(), tagID, userID, gomock.Any(), nil).
					Return(domaintag.Tag{ID: tagID, Name: "sales"}, nil)
				d.bus.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil)
			},
			wantCode: http.StatusOK,
		},
		{
			name:     "invalid UUID returns 400",
			id:       "not-a-uuid",
			body:     map[string]string{"name": "sales"},
			setup:    func(d tagDeps, userID, tagID uuid.UUID) {},
			wantCode: http.StatusBadRequest,
		},
		{
			name: "not found returns 404",
			body: map[string]string{"name": "sales"},
			setup: func(d tagDeps, userID, tagID uuid.UUID) {
				d.repo.EXPECT().Update(gomock.Any(), tagID, userID, gomock.Any(), nil).
					Return(domaintag.Tag{}, errs.ErrNotFound)
			},
			wantCode: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, d := newTagSvc(t)
			userID, tagID := uuid.New(), uuid.New()
			tt.setup(d, userID, tagID)
			r := newRouter(svc, userID)

			id := tt.id
			if id == "" {
				id = tagID.String()
			}

			body, _ := json.Marshal(tt.body)
			w := httptest.NewRecorder()
			req, _ := http.NewRequestWithContext(context.Background(), http.MethodPatch, "/tags/"+id, bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantCode, w.Code)
		})
	}
}

// ── DELETE /:id (deleteTag) ───────────────────────────────────────────────────

func TestDeleteTag(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(d tagDeps, userID, tagID uuid.UUID)
		wantCode int
	}{
		{
			name: "success returns 204",
			setup: func(d tagDeps, userID, tagID uuid.UUID) {
				d.repo.EXPECT().Delete(gomock.Any(), tagID, userID).Return(nil)
				d.bus.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil)
			},
			wantCode: http.StatusNoContent,
		},
		{
			name: "not found returns 404",
			setup: func(d tagDeps, userID, tagID uuid.UUID) {
				d.repo.EXPECT().Delete(gomock.Any(), tagID, userID).Return(errs.ErrNotFound)
			},
			wantCode: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, d := newTagSvc(t)
			userID, tagID := uuid.New(), uuid.New()
			tt.setup(d, userID, tagID)
			r := newRouter(svc, userID)

			w := httptest.NewRecorder()
			req, _ := http.NewRequestWithContext(context.Background(), http.MethodDelete, "/tags/"+tagID.String(), nil)
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantCode, w.Code)
		})
	}
}
