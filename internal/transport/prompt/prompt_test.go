package prompt_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/mliu/prompthub/internal/domain/errs"
	domainprompt "github.com/mliu/prompthub/internal/domain/prompt"
	domainversion "github.com/mliu/prompthub/internal/domain/version"
	"github.com/mliu/prompthub/internal/mocks"
	promptsvc "github.com/mliu/prompthub/internal/service/prompt"
	"github.com/mliu/prompthub/internal/transport/auth"
	transportprompt "github.com/mliu/prompthub/internal/transport/prompt"
)

func init() { gin.SetMode(gin.TestMode) }

type promptDeps struct {
	repo   *mocks.MockPromptRepository
	bus    *mocks.MockEventBus
	locker *mocks.MockAdvisoryLocker
}

func newPromptSvc(t *testing.T) (*promptsvc.Service, promptDeps) {
	t.Helper()
	ctrl := gomock.NewController(t)
	d := promptDeps{
		repo:   mocks.NewMockPromptRepository(ctrl),
		bus:    mocks.NewMockEventBus(ctrl),
		locker: mocks.NewMockAdvisoryLocker(ctrl),
	}
	return promptsvc.NewService(d.repo, d.bus, d.locker), d
}

func newRouter(svc *promptsvc.Service, userID uuid.UUID) *gin.Engine {
	r := gin.New()
	r.Use(func(c *gin.Context) { auth.SetUserID(c, userID) })
	transportprompt.Register(r.Group("/prompts"), svc)
	transportprompt.RegisterVersions(r.Group("/versions"), svc)
	return r
}

// allowLock runs any critical section inline and absorbs event publishes.
func allowLock(d promptDeps) {
	d.locker.EXPECT().WithLock(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ int64, fn func(context.Context) error) error {
			return fn(ctx)
		}).AnyTimes()
	d.bus.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
}

// ── POST / (createPrompt) ─────────────────────────────────────────────────────

func TestCreatePrompt(t *testing.T) {
	tests := []struct {
		name     string
		body     map[string]interface{}
		setup    func(d promptDeps, userID uuid.UUID)
		wantCode int
	}{
		{
			name: "success returns 201",
			body: map[string]interface{}{"title": "Greeting", "content": "Say hello."},
			setup: func(d promptDeps, userID uuid.UUID) {
				created := domainprompt.Prompt{ID: uuid.New(), UserID: userID}
				d.repo.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any()).Return(created, nil)
				d.repo.EXPECT().GetByID(gomock.Any(), created.ID, userID).
					Return(domainprompt.Detail{Prompt: created}, nil)
				d.bus.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil)
			},
			wantCode: http.StatusCreated,
		},
		{
			name: "publish on create returns 201",
			body: map[string]interface{}{"title": "Greeting", "content": "Say hello.", "publish": true},
			setup: func(d promptDeps, userID uuid.UUID) {
				created := domainprompt.Prompt{ID: uuid.New(), UserID: userID}
				d.repo.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any()).Return(created, nil)
				d.repo.EXPECT().Publish(gomock.Any(), created.ID, userID, nil, gomock.Any()).
					Return(domainversion.Version{ID: uuid.New(), PromptID: created.ID, VersionNumber: 1}, nil)
				d.repo.EXPECT().GetByID(gomock.Any(), created.ID, userID).
					Return(domainprompt.Detail{Prompt: created}, nil)
				allowLock(d)
			},
			wantCode: http.StatusCreated,
		},
		{
			name:     "missing required fields returns 400",
			body:     map[string]interface{}{},
			setup:    func(d promptDeps, userID uuid.UUID) {},
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "title over limit returns 400",
			body:     map[string]interface{}{"title": longString(201), "content": "x"},
			setup:    func(d promptDeps, userID uuid.UUID) {},
			wantCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, d := newPromptSvc(t)
			userID := uuid.New()
			tt.setup(d, userID)
			r := newRouter(svc, userID)

			body, _ := json.Marshal(tt.body)
			w := httptest.NewRecorder()
			req, _ := http.NewRequestWithContext(context.Background(), http.MethodPost, "/prompts/", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantCode, w.Code)
		})
	}
}

func longString(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = 'a'
	}
	return string(b)
}

// ── GET / (listPrompts) ───────────────────────────────────────────────────────

func TestListPrompts(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		setup    func(d promptDeps, userID uuid.UUID)
		wantCode int
	}{
		{
			name: "success returns 200 with pagination",
			setup: func(d promptDeps, userID uuid.UUID) {
				d.repo.EXPECT().List(gomock.Any(), gomock.Any()).
					Return([]domainprompt.ListItem{}, 0, nil)
			},
			wantCode: http.StatusOK,
		},
		{
			name:  "status filter is forwarded",
			query: "?status=published&page=2&limit=5",
			setup: func(d promptDeps, userID uuid.UUID) {
				d.repo.EXPECT().List(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, f domainprompt.ListFilters) ([]domainprompt.ListItem, int, error) {
						assert.NotNil(t, f.Status)
						assert.Equal(t, domainprompt.StatusPublished, *f.Status)
						assert.Equal(t, 2, f.Page)
						assert.Equal(t, 5, f.Limit)
						return []domainprompt.ListItem{}, 42, nil
					})
			},
			wantCode: http.StatusOK,
		},
		{
			name:     "invalid status returns 400",
			query:    "?status=archived",
			setup:    func(d promptDeps, userID uuid.UUID) {},
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "invalid tag_ids returns 400",
			query:    "?tag_ids=not-a-uuid",
			setup:    func(d promptDeps, userID uuid.UUID) {},
			wantCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, d := newPromptSvc(t)
			userID := uuid.New()
			tt.setup(d, userID)
			r := newRouter(svc, userID)

			w := httptest.NewRecorder()
			req, _ := http.NewRequestWithContext(context.Background(), http.MethodGet, "/prompts/"+tt.query, nil)
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantCode, w.Code)
		})
	}
}

func TestListPromptsPaginationBody(t *testing.T) {
	svc, d := newPromptSvc(t)
	userID := uuid.New()
	d.repo.EXPECT().List(gomock.Any(), gomock.Any()).
		Return([]domainprompt.ListItem{}, 41, nil)
	r := newRouter(svc, userID)

	w := httptest.NewRecorder()
	req, _ := http.NewRequestWithContext(context.Background(), http.MethodGet, "/prompts/?limit=20", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Pagination struct {
			Page       int `json:"page"`
			Limit      int `json:"limit"`
			Total      int `json:"total"`
			TotalPages int `json:"total_pages"`
		} `json:"pagination"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 41, resp.Pagination.Total)
	assert.Equal(t, 3, resp.Pagination.TotalPages)
}

// ── GET /:id (getPrompt) ──────────────────────────────────────────────────────

func TestGetPrompt(t *testing.T) {
	tests := []struct {
		name     string
		id       string
		setup    func(d promptDeps, userID, promptID uuid.UUID)
		wantCode int
	}{
		{
			name: "success returns 200",
			setup: func(d promptDeps, userID, promptID uuid.UUID) {
				d.repo.EXPECT().GetByID(gomock.Any(), promptID, userID).
					Return(domainprompt.Detail{Prompt: domainprompt.Prompt{ID: promptID}}, nil)
			},
			wantCode: http.StatusOK,
		},
		{
			name:     "invalid UUID returns 400",
			id:       "not-a-uuid",
			setup:    func(d promptDeps, userID, promptID uuid.UUID) {},
			wantCode: http.StatusBadRequest,
		},
		{
			name: "not found returns 404",
			setup: func(d promptDeps, userID, promptID uuid.UUID) {
				d.repo.EXPECT().GetByID(gomock.Any(), promptID, userID).
					Return(domainprompt.Detail{}, fmt.Errorf("get prompt: %w", errs.ErrNotFound))
			},
			wantCode: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, d := newPromptSvc(t)
			userID, promptID := uuid.New(), uuid.New()
			tt.setup(d, userID, promptID)
			r := newRouter(svc, userID)

			id := tt.id
			if id == "" {
				id = promptID.String()
			}

			w := httptest.NewRecorder()
			req, _ := http.NewRequestWithContext(context.Background(), http.MethodGet, "/prompts/"+id, nil)
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantCode, w.Code)
		})
	}
}

// ── PATCH /:id (saveDraft) ────────────────────────────────────────────────────

func TestSaveDraft(t *testing.T) {
	tests := []struct {
		name     string
		body     map[string]interface{}
		setup    func(d promptDeps, userID, promptID uuid.UUID)
		wantCode int
	}{
		{
			name: "content update returns 200",
			body: map[string]interface{}{"content": "Refined wording."},
			setup: func(d promptDeps, userID, promptID uuid.UUID) {
				d.repo.EXPECT().UpdateDraft(gomock.Any(), promptID, userID, gomock.Any()).
					Return(domainprompt.Prompt{ID: promptID, Status: domainprompt.StatusPublishedWithUpdates}, nil)
				d.bus.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil)
			},
			wantCode: http.StatusOK,
		},
		{
			name: "clearing tags sends empty slice",
			body: map[string]interface{}{"tag_ids": []string{}},
			setup: func(d promptDeps, userID, promptID uuid.UUID) {
				d.repo.EXPECT().UpdateDraft(gomock.Any(), promptID, userID, gomock.Any()).
					DoAndReturn(func(_ context.Context, _, _ uuid.UUID, upd domainprompt.DraftUpdate) (domainprompt.Prompt, error) {
						assert.NotNil(t, upd.TagIDs)
						assert.Empty(t, upd.TagIDs)
						return domainprompt.Prompt{ID: promptID}, nil
					})
				d.bus.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil)
			},
			wantCode: http.StatusOK,
		},
		{
			name:     "empty title returns 400",
			body:     map[string]interface{}{"title": ""},
			setup:    func(d promptDeps, userID, promptID uuid.UUID) {},
			wantCode: http.StatusBadRequest,
		},
		{
			name: "not found returns 404",
			body: map[string]interface{}{"content": "x"},
			setup: func(d promptDeps, userID, promptID uuid.UUID) {
				d.repo.EXPECT().UpdateDraft(gomock.Any(), promptID, userID, gomock.Any()).
					Return(domainprompt.Prompt{}, errs.ErrNotFound)
			},
			wantCode: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, d := newPromptSvc(t)
			userID, promptID := uuid.New(), uuid.New()
			tt.setup(d, userID, promptID)
			r := newRouter(svc, userID)

			body, _ := json.Marshal(tt.body)
			w := httptest.NewRecorder()
			req, _ := http.NewRequestWithContext(context.Background(), http.MethodPatch, "/prompts/"+promptID.String(), bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantCode, w.Code)
		})
	}
}

// ── DELETE /:id (deletePrompt) ────────────────────────────────────────────────

func TestDeletePrompt(t *testing.T) {
	tests := []struct {
		name     string
		body     map[string]string
		setup    func(d promptDeps, userID, promptID uuid.UUID)
		wantCode int
	}{
		{
			name: "confirmed delete returns 200",
			body: map[string]string{"confirmation": "DELETE"},
			setup: func(d promptDeps, userID, promptID uuid.UUID) {
				d.repo.EXPECT().Delete(gomock.Any(), promptID, userID).Return(nil)
				d.bus.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil)
			},
			wantCode: http.StatusOK,
		},
		{
			name:     "wrong confirmation returns 400",
			body:     map[string]string{"confirmation": "delete"},
			setup:    func(d promptDeps, userID, promptID uuid.UUID) {},
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "missing confirmation returns 400",
			body:     map[string]string{},
			setup:    func(d promptDeps, userID, promptID uuid.UUID) {},
			wantCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, d := newPromptSvc(t)
			userID, promptID := uuid.New(), uuid.New()
			tt.setup(d, userID, promptID)
			r := newRouter(svc, userID)

			body, _ := json.Marshal(tt.body)
			w := httptest.NewRecorder()
			req, _ := http.NewRequestWithContext(context.Background(), http.MethodDelete, "/prompts/"+promptID.String(), bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantCode, w.Code)
		})
	}
}

// ── POST /:id/versions (publishVersion) ──────────────────────────────────────

func TestPublishVersion(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(d promptDeps, userID, promptID uuid.UUID)
		wantCode int
	}{
		{
			name: "success returns 201",
			setup: func(d promptDeps, userID, promptID uuid.UUID) {
				d.repo.EXPECT().Publish(gomock.Any(), promptID, userID, nil, gomock.Any()).
					Return(domainversion.Version{ID: uuid.New(), PromptID: promptID, VersionNumber: 3}, nil)
				allowLock(d)
			},
			wantCode: http.StatusCreated,
		},
		{
			name: "not found returns 404",
			setup: func(d promptDeps, userID, promptID uuid.UUID) {
				d.repo.EXPECT().Publish(gomock.Any(), promptID, userID, nil, gomock.Any()).
					Return(domainversion.Version{}, errs.ErrNotFound)
				allowLock(d)
			},
			wantCode: http.StatusNotFound,
		},
		{
			name: "db error returns 500",
			setup: func(d promptDeps, userID, promptID uuid.UUID) {
				d.repo.EXPECT().Publish(gomock.Any(), promptID, userID, nil, gomock.Any()).
					Return(domainversion.Version{}, errors.New("unexpected db failure"))
				allowLock(d)
			},
			wantCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, d := newPromptSvc(t)
			userID, promptID := uuid.New(), uuid.New()
			tt.setup(d, userID, promptID)
			r := newRouter(svc, userID)

			w := httptest.NewRecorder()
			req, _ := http.NewRequestWithContext(context.Background(), http.MethodPost, "/prompts/"+promptID.String()+"/versions", nil)
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantCode, w.Code)
		})
	}
}

// ── POST /:id/restore (restoreVersion) ───────────────────────────────────────

func TestRestoreVersion(t *testing.T) {
	svc, d := newPromptSvc(t)
	userID, promptID, versionID := uuid.New(), uuid.New(), uuid.New()

	target := domainversion.Version{ID: versionID, PromptID: promptID, VersionNumber: 2, Content: "old body"}
	d.repo.EXPECT().GetVersion(gomock.Any(), versionID, userID).Return(target, nil)
	d.repo.EXPECT().Publish(gomock.Any(), promptID, userID, gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _, _ uuid.UUID, contentOverride, description *string) (domainversion.Version, error) {
			assert.NotNil(t, contentOverride)
			assert.Equal(t, "old body", *contentOverride)
			assert.NotNil(t, description)
			assert.Equal(t, "Restored from V2", *description)
			return domainversion.Version{ID: uuid.New(), PromptID: promptID, VersionNumber: 5, Content: "old body"}, nil
		})
	allowLock(d)
	r := newRouter(svc, userID)

	body, _ := json.Marshal(map[string]string{"version_id": versionID.String()})
	w := httptest.NewRecorder()
	req, _ := http.NewRequestWithContext(context.Background(), http.MethodPost, "/prompts/"+promptID.String()+"/restore", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestRestoreVersionWrongPrompt(t *testing.T) {
	svc, d := newPromptSvc(t)
	userID, promptID, versionID := uuid.New(), uuid.New(), uuid.New()

	d.repo.EXPECT().GetVersion(gomock.Any(), versionID, userID).
		Return(domainversion.Version{ID: versionID, PromptID: uuid.New(), VersionNumber: 1}, nil)
	r := newRouter(svc, userID)

	body, _ := json.Marshal(map[string]string{"version_id": versionID.String()})
	w := httptest.NewRecorder()
	req, _ := http.NewRequestWithContext(context.Background(), http.MethodPost, "/prompts/"+promptID.String()+"/restore", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

// ── GET /versions/compare (compareVersions) ──────────────────────────────────

func TestCompareVersions(t *testing.T) {
	svc, d := newPromptSvc(t)
	userID, promptID := uuid.New(), uuid.New()
	fromID, toID := uuid.New(), uuid.New()

	d.repo.EXPECT().GetVersion(gomock.Any(), fromID, userID).
		Return(domainversion.Version{ID: fromID, PromptID: promptID, VersionNumber: 1, Content: "a\nb"}, nil)
	d.repo.EXPECT().GetVersion(gomock.Any(), toID, userID).
		Return(domainversion.Version{ID: toID, PromptID: promptID, VersionNumber: 2, Content: "a\nc"}, nil)
	r := newRouter(svc, userID)

	w := httptest.NewRecorder()
	req, _ := http.NewRequestWithContext(context.Background(), http.MethodGet,
		"/versions/compare?from="+fromID.String()+"&to="+toID.String(), nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var cmp promptsvc.Comparison
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &cmp))
	assert.Equal(t, 1, cmp.Old.VersionNumber)
	assert.Equal(t, 2, cmp.New.VersionNumber)
	assert.Len(t, cmp.Lines, 3)
}

func TestCompareVersionsDifferentPrompts(t *testing.T) {
	svc, d := newPromptSvc(t)
	userID := uuid.New()
	fromID, toID := uuid.New(), uuid.New()

	d.repo.EXPECT().GetVersion(gomock.Any(), fromID, userID).
		Return(domainversion.Version{ID: fromID, PromptID: uuid.New(), VersionNumber: 1}, nil)
	d.repo.EXPECT().GetVersion(gomock.Any(), toID, userID).
		Return(domainversion.Version{ID: toID, PromptID: uuid.New(), VersionNumber: 2}, nil)
	r := newRouter(svc, userID)

	w := httptest.NewRecorder()
	req, _ := http.NewRequestWithContext(context.Background(), http.MethodGet,
		"/versions/compare?from="+fromID.String()+"&to="+toID.String(), nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// ── GET /:id/versions + GET /versions/:id ────────────────────────────────────

func TestListVersions(t *testing.T) {
	svc, d := newPromptSvc(t)
	userID, promptID := uuid.New(), uuid.New()

	d.repo.EXPECT().ListVersions(gomock.Any(), promptID, userID).
		Return([]domainversion.Version{{ID: uuid.New(), PromptID: promptID, VersionNumber: 2}}, nil)
	r := newRouter(svc, userID)

	w := httptest.NewRecorder()
	req, _ := http.NewRequestWithContext(context.Background(), http.MethodGet, "/prompts/"+promptID.String()+"/versions", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGetVersion(t *testing.T) {
	svc, d := newPromptSvc(t)
	userID, versionID := uuid.New(), uuid.New()

	d.repo.EXPECT().GetVersion(gomock.Any(), versionID, userID).
		Return(domainversion.Version{ID: versionID, VersionNumber: 1}, nil)
	r := newRouter(svc, userID)

	w := httptest.NewRecorder()
	req, _ := http.NewRequestWithContext(context.Background(), http.MethodGet, "/versions/"+versionID.String(), nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

// ── GET /:id/restore-preview ─────────────────────────────────────────────────

func TestRestorePreview(t *testing.T) {
	svc, d := newPromptSvc(t)
	userID, promptID, versionID := uuid.New(), uuid.New(), uuid.New()

	draft := "line one\nline two"
	d.repo.EXPECT().GetByID(gomock.Any(), promptID, userID).
		Return(domainprompt.Detail{Prompt: domainprompt.Prompt{ID: promptID, DraftContent: &draft}}, nil)
	d.repo.EXPECT().GetVersion(gomock.Any(), versionID, userID).
		Return(domainversion.Version{ID: versionID, PromptID: promptID, VersionNumber: 1, Content: "line one"}, nil)
	r := newRouter(svc, userID)

	w := httptest.NewRecorder()
	req, _ := http.NewRequestWithContext(context.Background(), http.MethodGet,
		"/prompts/"+promptID.String()+"/restore-preview?version_id="+versionID.String(), nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
