package tag

import (
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/mliu/prompthub/internal/domain/errs"
)

const (
	NameMaxLen   = 50
	DefaultColor = "#6366f1"
)

var colorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// Tag is a per-user label. (user_id, name) is unique.
type Tag struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"created_at"`
}

func New(userID uuid.UUID, name, color string) Tag {
	if color == "" {
		color = DefaultColor
	}
	return Tag{
		ID:        uuid.New(),
		UserID:    userID,
		Name:      name,
		Color:     color,
		CreatedAt: time.Now().UTC(),
	}
}

func ValidateName(name string) error {
	if name == "" {
		return errs.Validation("name", "must not be empty")
	}
	if len([]rune(name)) > NameMaxLen {
		return errs.Validation("name", "must be at most 50 characters")
	}
	return nil
}

func ValidateColor(color string) error {
	if color == "" {
		return nil
	}
	if !colorPattern.MatchString(color) {
		return errs.Validation("color", "must be a #rrggbb hex color")
	}
	return nil
}

// WithCount is the read view used by the tag list: a tag plus the number of
// prompts carrying it.
type WithCount struct {
	Tag
	PromptCount int `json:"prompt_count"`
}
