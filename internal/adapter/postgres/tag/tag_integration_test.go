//go:build integration

package tag_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pgprompt "github.com/mliu/prompthub/internal/adapter/postgres/prompt"
	pgtag "github.com/mliu/prompthub/internal/adapter/postgres/tag"
	"github.com/mliu/prompthub/internal/domain/errs"
	domainprompt "github.com/mliu/prompthub/internal/domain/prompt"
	domaintag "github.com/mliu/prompthub/internal/domain/tag"
	"github.com/mliu/prompthub/internal/testutil"
)

func TestTagRepo_CreateDuplicateConflicts(t *testing.T) {
	pool := testutil.SetupTestDB(t)
	ctx := context.Background()
	repo := pgtag.New(pool)
	userID := uuid.New()
	name := "itest-dup-" + uuid.New().String()[:8]

	_, err := repo.Create(ctx, domaintag.New(userID, name, ""))
	require.NoError(t, err)

	_, err = repo.Create(ctx, domaintag.New(userID, name, "#ff0000"))
	assert.ErrorIs(t, err, errs.ErrConflict)

	// The same name under a different user is fine.
	_, err = repo.Create(ctx, domaintag.New(uuid.New(), name, ""))
	assert.NoError(t, err)
}

func TestTagRepo_ListWithCounts(t *testing.T) {
	pool := testutil.SetupTestDB(t)
	ctx := context.Background()
	tagRepo := pgtag.New(pool)
	promptRepo := pgprompt.New(pool)
	userID := uuid.New()

	busy, err := tagRepo.Create(ctx, domaintag.New(userID, "itest-busy-"+uuid.New().String()[:8], ""))
	require.NoError(t, err)
	idle, err := tagRepo.Create(ctx, domaintag.New(userID, "itest-idle-"+uuid.New().String()[:8], ""))
	require.NoError(t, err)

	for range 2 {
		_, err := promptRepo.Create(ctx, domainprompt.New(userID, "Tagged", "x"), []uuid.UUID{busy.ID})
		require.NoError(t, err)
	}

	counted, err := tagRepo.ListWithCounts(ctx, userID)
	require.NoError(t, err)
	require.Len(t, counted, 2)
	assert.Equal(t, busy.ID, counted[0].ID) // most-used first
	assert.Equal(t, 2, counted[0].PromptCount)
	assert.Equal(t, idle.ID, counted[1].ID)
	assert.Equal(t, 0, counted[1].PromptCount)
}

func TestTagRepo_UpdateAndDelete(t *testing.T) {
	pool := testutil.SetupTestDB(t)
	ctx := context.Background()
	repo := pgtag.New(pool)
	userID := uuid.New()

	created, err := repo.Create(ctx, domaintag.New(userID, "itest-upd-"+uuid.New().String()[:8], ""))
	require.NoError(t, err)

	color := "#00ff00"
	updated, err := repo.Update(ctx, created.ID, userID, nil, &color)
	require.NoError(t, err)
	assert.Equal(t, color, updated.Color)
	assert.Equal(t, created.Name, updated.Name)

	// No fields supplied is a read, not an error.
	same, err := repo.Update(ctx, created.ID, userID, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, updated, same)

	// A stranger cannot touch it.
	_, err = repo.Update(ctx, created.ID, uuid.New(), nil, &color)
	assert.ErrorIs(t, err, errs.ErrNotFound)

	require.NoError(t, repo.Delete(ctx, created.ID, userID))
	assert.ErrorIs(t, repo.Delete(ctx, created.ID, userID), errs.ErrNotFound)
}

func TestTagRepo_DeleteDetachesFromPrompts(t *testing.T) {
	pool := testutil.SetupTestDB(t)
	ctx := context.Background()
	tagRepo := pgtag.New(pool)
	promptRepo := pgprompt.New(pool)
	userID := uuid.New()

	tg, err := tagRepo.Create(ctx, domaintag.New(userID, "itest-det-"+uuid.New().String()[:8], ""))
	require.NoError(t, err)
	created, err := promptRepo.Create(ctx, domainprompt.New(userID, "Tagged", "x"), []uuid.UUID{tg.ID})
	require.NoError(t, err)

	require.NoError(t, tagRepo.Delete(ctx, tg.ID, userID))

	d, err := promptRepo.GetByID(ctx, created.ID, userID)
	require.NoError(t, err)
	assert.Empty(t, d.Tags, "association rows cascade with the tag")
}
