package prompt

import (
	"context"

	"github.com/google/uuid"

	domainprompt "github.com/mliu/prompthub/internal/domain/prompt"
	domainversion "github.com/mliu/prompthub/internal/domain/version"
)

// Repository is the storage abstraction for prompts and their version
// snapshots. Postgres and in-memory implementations are valid substitutes.
//
// Every read takes the caller's userID and returns errs.ErrNotFound for
// rows owned by someone else — ownership is enforced at the storage
// boundary, not in handlers.
type Repository interface {
	// Create inserts the prompt and its tag associations in one transaction.
	Create(ctx context.Context, p domainprompt.Prompt, tagIDs []uuid.UUID) (domainprompt.Prompt, error)

	// GetByID returns the full read view: prompt, tags, current version.
	GetByID(ctx context.Context, id, userID uuid.UUID) (domainprompt.Detail, error)

	// List returns one page of read views plus the total row count.
	List(ctx context.Context, filters domainprompt.ListFilters) ([]domainprompt.ListItem, int, error)

	// UpdateDraft applies a partial update. Supplying content moves a
	// published prompt to published_with_updates; the status transition is
	// applied in the same statement as the write so concurrent saves cannot
	// observe a half-updated row. Tag replacement is all-or-nothing.
	UpdateDraft(ctx context.Context, id, userID uuid.UUID, upd domainprompt.DraftUpdate) (domainprompt.Prompt, error)

	// Publish snapshots content into the next version inside a single
	// transaction: the prompt row is locked, the next number is read as
	// max+1, the version inserted, and the prompt pointer/status/draft
	// updated together. contentOverride non-nil forces the snapshot body
	// (restore path); nil publishes draft ?? current ?? "".
	// A lost unique-index race on (prompt_id, version_number) surfaces as
	// errs.ErrConflict.
	Publish(ctx context.Context, promptID, userID uuid.UUID, contentOverride, description *string) (domainversion.Version, error)

	// Delete removes the prompt, all its versions, and tag associations
	// atomically.
	Delete(ctx context.Context, id, userID uuid.UUID) error

	// ListVersions returns all snapshots newest-first.
	ListVersions(ctx context.Context, promptID, userID uuid.UUID) ([]domainversion.Version, error)

	// GetVersion is a point lookup scoped to the owning user.
	GetVersion(ctx context.Context, versionID, userID uuid.UUID) (domainversion.Version, error)
}
