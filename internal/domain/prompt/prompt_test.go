package prompt_test

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mliu/prompthub/internal/domain/errs"
	"github.com/mliu/prompthub/internal/domain/prompt"
	domainversion "github.com/mliu/prompthub/internal/domain/version"
)

func TestStatusValid(t *testing.T) {
	assert.True(t, prompt.StatusDraft.Valid())
	assert.True(t, prompt.StatusPublished.Valid())
	assert.True(t, prompt.StatusPublishedWithUpdates.Valid())
	assert.False(t, prompt.Status("archived").Valid())
	assert.False(t, prompt.Status("").Valid())
}

func TestStatusOnDraftSave(t *testing.T) {
	tests := []struct {
		from, want prompt.Status
	}{
		{prompt.StatusDraft, prompt.StatusDraft},
		{prompt.StatusPublished, prompt.StatusPublishedWithUpdates},
		{prompt.StatusPublishedWithUpdates, prompt.StatusPublishedWithUpdates},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.from.OnDraftSave(), "from %s", tt.from)
	}
}

func TestStatusOnPublish(t *testing.T) {
	for _, from := range []prompt.Status{
		prompt.StatusDraft,
		prompt.StatusPublished,
		prompt.StatusPublishedWithUpdates,
	} {
		assert.Equal(t, prompt.StatusPublished, from.OnPublish(), "from %s", from)
	}
}

func TestNewStartsAsDraft(t *testing.T) {
	userID := uuid.New()
	p := prompt.New(userID, "Greeting", "Say hello.")

	assert.Equal(t, prompt.StatusDraft, p.Status)
	assert.Equal(t, userID, p.UserID)
	assert.Nil(t, p.CurrentVersionID)
	require.NotNil(t, p.DraftContent)
	assert.Equal(t, "Say hello.", *p.DraftContent)
}

func TestValidateTitle(t *testing.T) {
	assert.NoError(t, prompt.ValidateTitle("x"))
	assert.NoError(t, prompt.ValidateTitle(strings.Repeat("あ", prompt.TitleMaxLen)))
	assert.True(t, errs.IsValidation(prompt.ValidateTitle("")))
	assert.True(t, errs.IsValidation(prompt.ValidateTitle(strings.Repeat("a", prompt.TitleMaxLen+1))))
}

func TestValidateDescription(t *testing.T) {
	assert.NoError(t, prompt.ValidateDescription(""))
	assert.NoError(t, prompt.ValidateDescription(strings.Repeat("a", prompt.DescriptionMaxLen)))
	assert.True(t, errs.IsValidation(prompt.ValidateDescription(strings.Repeat("a", prompt.DescriptionMaxLen+1))))
}

func TestListFiltersNormalize(t *testing.T) {
	tests := []struct {
		name               string
		page, limit        int
		wantPage, wantLimit int
	}{
		{name: "zero values get defaults", page: 0, limit: 0, wantPage: 1, wantLimit: 20},
		{name: "negative page clamped", page: -5, limit: 10, wantPage: 1, wantLimit: 10},
		{name: "oversized limit reset", page: 3, limit: 500, wantPage: 3, wantLimit: 20},
		{name: "in-range values kept", page: 2, limit: 100, wantPage: 2, wantLimit: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := prompt.ListFilters{Page: tt.page, Limit: tt.limit}.Normalize()
			assert.Equal(t, tt.wantPage, f.Page)
			assert.Equal(t, tt.wantLimit, f.Limit)
		})
	}
}

func TestEffectiveContent(t *testing.T) {
	draft := "draft body"

	tests := []struct {
		name string
		d    prompt.Detail
		want string
	}{
		{
			name: "draft wins over current version",
			d: prompt.Detail{
				Prompt:         prompt.Prompt{DraftContent: &draft},
				CurrentVersion: &domainversion.Version{Content: "published body"},
			},
			want: "draft body",
		},
		{
			name: "falls back to current version",
			d: prompt.Detail{
				CurrentVersion: &domainversion.Version{Content: "published body"},
			},
			want: "published body",
		},
		{
			name: "empty when neither exists",
			d:    prompt.Detail{},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.d.EffectiveContent())
		})
	}
}
