package tag

import (
	"context"

	"github.com/google/uuid"

	domaintag "github.com/mliu/prompthub/internal/domain/tag"
)

// Repository is the storage abstraction for tags.
// A duplicate (user_id, name) insert surfaces as errs.ErrConflict.
type Repository interface {
	Create(ctx context.Context, t domaintag.Tag) (domaintag.Tag, error)
	GetByID(ctx context.Context, id, userID uuid.UUID) (domaintag.Tag, error)
	// List returns the user's tags ordered by name.
	List(ctx context.Context, userID uuid.UUID) ([]domaintag.Tag, error)
	// ListWithCounts returns tags with prompt counts, most-used first.
	ListWithCounts(ctx context.Context, userID uuid.UUID) ([]domaintag.WithCount, error)
	Update(ctx context.Context, id, userID uuid.UUID, name, color *string) (domaintag.Tag, error)
	Delete(ctx context.Context, id, userID uuid.UUID) error
}
