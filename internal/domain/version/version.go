package version

import (
	"time"

	"github.com/google/uuid"
)

// Version is an immutable content snapshot. Once inserted, content and
// version number never change — edits always mint a new Version.
type Version struct {
	ID            uuid.UUID `json:"id"`
	PromptID      uuid.UUID `json:"prompt_id"`
	VersionNumber int       `json:"version_number"`
	Content       string    `json:"content"`
	Description   *string   `json:"description"`
	PublishedAt   time.Time `json:"published_at"`
	CreatedAt     time.Time `json:"created_at"`
}

// New assembles an unsaved snapshot. The version number is allocated by the
// repository inside the publish transaction, never by callers.
func New(promptID uuid.UUID, number int, content string, description *string) Version {
	now := time.Now().UTC()
	return Version{
		ID:            uuid.New(),
		PromptID:      promptID,
		VersionNumber: number,
		Content:       content,
		Description:   description,
		PublishedAt:   now,
		CreatedAt:     now,
	}
}
