package prompt

import (
	"time"

	"github.com/google/uuid"

	"github.com/mliu/prompthub/internal/domain/errs"
	domaintag "github.com/mliu/prompthub/internal/domain/tag"
	domainversion "github.com/mliu/prompthub/internal/domain/version"
)

type Status string

const (
	// StatusDraft is the initial state: no version exists yet and all
	// content lives in the draft buffer.
	StatusDraft Status = "draft"
	// StatusPublished means the current version is the latest content and
	// there are no pending edits.
	StatusPublished Status = "published"
	// StatusPublishedWithUpdates means a version exists but the draft
	// buffer holds newer, unpublished content.
	StatusPublishedWithUpdates Status = "published_with_updates"
)

func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusPublished, StatusPublishedWithUpdates:
		return true
	}
	return false
}

// OnDraftSave returns the status after saving draft content. A published
// prompt picks up pending updates; draft and published_with_updates stay
// put. There is no path back to draft once a version exists.
func (s Status) OnDraftSave() Status {
	if s == StatusPublished {
		return StatusPublishedWithUpdates
	}
	return s
}

// OnPublish returns the status after minting a version: always published.
// Publishing clears the draft buffer regardless of the prior state.
func (s Status) OnPublish() Status { return StatusPublished }

const (
	TitleMaxLen       = 200
	DescriptionMaxLen = 500
)

type Prompt struct {
	ID               uuid.UUID  `json:"id"`
	UserID           uuid.UUID  `json:"user_id"`
	Title            string     `json:"title"`
	CurrentVersionID *uuid.UUID `json:"current_version_id,omitempty"`
	DraftContent     *string    `json:"draft_content,omitempty"`
	Status           Status     `json:"status"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// New returns a draft prompt holding content in the draft buffer.
// The first version is only minted by a publish.
func New(userID uuid.UUID, title, content string) Prompt {
	now := time.Now().UTC()
	return Prompt{
		ID:           uuid.New(),
		UserID:       userID,
		Title:        title,
		DraftContent: &content,
		Status:       StatusDraft,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func ValidateTitle(title string) error {
	if title == "" {
		return errs.Validation("title", "must not be empty")
	}
	if len([]rune(title)) > TitleMaxLen {
		return errs.Validation("title", "must be at most 200 characters")
	}
	return nil
}

func ValidateContent(content string) error {
	if content == "" {
		return errs.Validation("content", "must not be empty")
	}
	return nil
}

func ValidateDescription(description string) error {
	if len([]rune(description)) > DescriptionMaxLen {
		return errs.Validation("description", "must be at most 500 characters")
	}
	return nil
}

// DraftUpdate is a partial update: nil fields are left untouched.
// TagIDs non-nil replaces the full tag set.
type DraftUpdate struct {
	Title   *string
	Content *string
	TagIDs  []uuid.UUID
}

// ListFilters narrows the prompt list. A StatusPublished filter also
// matches published_with_updates — a prompt with pending edits still has a
// live published version.
type ListFilters struct {
	UserID uuid.UUID
	Status *Status
	Search string
	TagIDs []uuid.UUID
	Page   int
	Limit  int
}

func (f ListFilters) Normalize() ListFilters {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 || f.Limit > 100 {
		f.Limit = 20
	}
	return f
}

// VersionSummary is the compact current-version view used in list rows.
type VersionSummary struct {
	ID            uuid.UUID `json:"id"`
	VersionNumber int       `json:"version_number"`
	PublishedAt   time.Time `json:"published_at"`
}

// ListItem is the read view joined with tags and the current version.
type ListItem struct {
	Prompt
	Tags           []domaintag.Tag `json:"tags"`
	CurrentVersion *VersionSummary `json:"current_version"`
}

// Detail is the single-prompt read view.
type Detail struct {
	Prompt
	Tags           []domaintag.Tag        `json:"tags"`
	CurrentVersion *domainversion.Version `json:"current_version"`
}

// EffectiveContent is what a publish would snapshot right now: the pending
// draft if present, else the current version's content.
func (d Detail) EffectiveContent() string {
	if d.DraftContent != nil {
		return *d.DraftContent
	}
	if d.CurrentVersion != nil {
		return d.CurrentVersion.Content
	}
	return ""
}
