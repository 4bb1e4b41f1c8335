package prompt

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mliu/prompthub/internal/domain/errs"
	domainprompt "github.com/mliu/prompthub/internal/domain/prompt"
	domaintag "github.com/mliu/prompthub/internal/domain/tag"
	domainversion "github.com/mliu/prompthub/internal/domain/version"
)

const promptColumns = "id, user_id, title, current_version_id, draft_content, status, created_at, updated_at"

const versionColumns = "id, prompt_id, version_number, content, description, published_at, created_at"

// Repository implements port/prompt.Repository on Postgres. All ownership
// checks live in the SQL — a wrong user never distinguishes "absent" from
// "not yours".
type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Create(ctx context.Context, p domainprompt.Prompt, tagIDs []uuid.UUID) (domainprompt.Prompt, error) {
	var created domainprompt.Prompt

	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		query := `
			INSERT INTO prompts (id, user_id, title, current_version_id, draft_content, status, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
			RETURNING ` + promptColumns

		err := tx.QueryRow(ctx, query,
			p.ID, p.UserID, p.Title, p.CurrentVersionID, p.DraftContent, p.Status, p.CreatedAt, p.UpdatedAt,
		).Scan(
			&created.ID, &created.UserID, &created.Title, &created.CurrentVersionID,
			&created.DraftContent, &created.Status, &created.CreatedAt, &created.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("inserting prompt: %w", err)
		}

		return replaceTags(ctx, tx, p.ID, tagIDs, false)
	})
	if err != nil {
		return domainprompt.Prompt{}, errs.Store("create prompt", err)
	}
	return created, nil
}

func (r *Repository) GetByID(ctx context.Context, id, userID uuid.UUID) (domainprompt.Detail, error) {
	var d domainprompt.Detail

	query := `SELECT ` + promptColumns + ` FROM prompts WHERE id = $1 AND user_id = $2`
	err := r.pool.QueryRow(ctx, query, id, userID).Scan(
		&d.ID, &d.UserID, &d.Title, &d.CurrentVersionID,
		&d.DraftContent, &d.Status, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domainprompt.Detail{}, errs.ErrNotFound
		}
		return domainprompt.Detail{}, errs.Store("querying prompt", err)
	}

	if d.CurrentVersionID != nil {
		v, err := r.getVersionByID(ctx, *d.CurrentVersionID)
		if err != nil {
			return domainprompt.Detail{}, err
		}
		d.CurrentVersion = &v
	}

	tagsByPrompt, err := r.tagsFor(ctx, []uuid.UUID{d.ID})
	if err != nil {
		return domainprompt.Detail{}, err
	}
	d.Tags = tagsByPrompt[d.ID]
	if d.Tags == nil {
		d.Tags = []domaintag.Tag{}
	}

	return d, nil
}

func (r *Repository) List(ctx context.Context, filters domainprompt.ListFilters) ([]domainprompt.ListItem, int, error) {
	where := " WHERE p.user_id = $1"
	args := []interface{}{filters.UserID}
	argIdx := 2

	if filters.Status != nil {
		if *filters.Status == domainprompt.StatusPublished {
			// A prompt with pending edits still has a live published version.
			where += fmt.Sprintf(" AND p.status = ANY($%d)", argIdx)
			args = append(args, []string{
				string(domainprompt.StatusPublished),
				string(domainprompt.StatusPublishedWithUpdates),
			})
		} else {
			where += fmt.Sprintf(" AND p.status = $%d", argIdx)
			args = append(args, string(*filters.Status))
		}
		argIdx++
	}
	if filters.Search != "" {
		where += fmt.Sprintf(" AND (p.title ILIKE $%d OR p.draft_content ILIKE $%d OR cv.content ILIKE $%d)", argIdx, argIdx, argIdx)
		args = append(args, "%"+filters.Search+"%")
		argIdx++
	}
	if len(filters.TagIDs) > 0 {
		where += fmt.Sprintf(" AND p.id IN (SELECT prompt_id FROM prompt_tags WHERE tag_id = ANY($%d))", argIdx)
		args = append(args, filters.TagIDs)
		argIdx++
	}

	from := ` FROM prompts p LEFT JOIN prompt_versions cv ON cv.id = p.current_version_id`

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT count(*)"+from+where, args...).Scan(&total); err != nil {
		return nil, 0, errs.Store("counting prompts", err)
	}

	query := `
		SELECT p.id, p.user_id, p.title, p.current_version_id, p.draft_content, p.status, p.created_at, p.updated_at` +
		from + where +
		fmt.Sprintf(" ORDER BY p.updated_at DESC LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, filters.Limit, (filters.Page-1)*filters.Limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, errs.Store("listing prompts", err)
	}
	defer rows.Close()

	items := []domainprompt.ListItem{}
	ids := []uuid.UUID{}
	versionIDs := []uuid.UUID{}
	for rows.Next() {
		var it domainprompt.ListItem
		if err := rows.Scan(
			&it.ID, &it.UserID, &it.Title, &it.CurrentVersionID,
			&it.DraftContent, &it.Status, &it.CreatedAt, &it.UpdatedAt,
		); err != nil {
			return nil, 0, errs.Store("scanning prompt row", err)
		}
		it.Tags = []domaintag.Tag{}
		items = append(items, it)
		ids = append(ids, it.ID)
		if it.CurrentVersionID != nil {
			versionIDs = append(versionIDs, *it.CurrentVersionID)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errs.Store("iterating prompt rows", err)
	}
	if len(items) == 0 {
		return items, total, nil
	}

	tagsByPrompt, err := r.tagsFor(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	summaries, err := r.versionSummaries(ctx, versionIDs)
	if err != nil {
		return nil, 0, err
	}
	for i := range items {
		if tags, ok := tagsByPrompt[items[i].ID]; ok {
			items[i].Tags = tags
		}
		if items[i].CurrentVersionID != nil {
			if s, ok := summaries[*items[i].CurrentVersionID]; ok {
				summary := s
				items[i].CurrentVersion = &summary
			}
		}
	}

	return items, total, nil
}

func (r *Repository) UpdateDraft(ctx context.Context, id, userID uuid.UUID, upd domainprompt.DraftUpdate) (domainprompt.Prompt, error) {
	var updated domainprompt.Prompt

	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		set := "updated_at = NOW()"
		args := []interface{}{id, userID}
		argIdx := 3

		if upd.Title != nil {
			set += fmt.Sprintf(", title = $%d", argIdx)
			args = append(args, *upd.Title)
			argIdx++
		}
		if upd.Content != nil {
			// The status transition rides the same statement so concurrent
			// saves cannot observe a half-updated row.
			set += fmt.Sprintf(", draft_content = $%d", argIdx)
			set += ", status = CASE WHEN status = 'published' THEN 'published_with_updates' ELSE status END"
			args = append(args, *upd.Content)
			argIdx++
		}

		query := "UPDATE prompts SET " + set + " WHERE id = $1 AND user_id = $2 RETURNING " + promptColumns
		err := tx.QueryRow(ctx, query, args...).Scan(
			&updated.ID, &updated.UserID, &updated.Title, &updated.CurrentVersionID,
			&updated.DraftContent, &updated.Status, &updated.CreatedAt, &updated.UpdatedAt,
		)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return errs.ErrNotFound
			}
			return fmt.Errorf("updating prompt: %w", err)
		}

		if upd.TagIDs != nil {
			return replaceTags(ctx, tx, id, upd.TagIDs, true)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return domainprompt.Prompt{}, errs.ErrNotFound
		}
		return domainprompt.Prompt{}, errs.Store("save draft", err)
	}
	return updated, nil
}

func (r *Repository) Publish(ctx context.Context, promptID, userID uuid.UUID, contentOverride, description *string) (domainversion.Version, error) {
	var published domainversion.Version

	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		// Row lock serialises number allocation per prompt for the length
		// of the transaction.
		var draft *string
		var currentVersionID *uuid.UUID
		err := tx.QueryRow(ctx,
			`SELECT draft_content, current_version_id FROM prompts WHERE id = $1 AND user_id = $2 FOR UPDATE`,
			promptID, userID,
		).Scan(&draft, &currentVersionID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return errs.ErrNotFound
			}
			return fmt.Errorf("locking prompt: %w", err)
		}

		content := ""
		switch {
		case contentOverride != nil:
			content = *contentOverride
		case draft != nil:
			content = *draft
		case currentVersionID != nil:
			if err := tx.QueryRow(ctx,
				`SELECT content FROM prompt_versions WHERE id = $1`, *currentVersionID,
			).Scan(&content); err != nil {
				return fmt.Errorf("reading current version content: %w", err)
			}
		}

		var next int
		if err := tx.QueryRow(ctx,
			`SELECT COALESCE(MAX(version_number), 0) + 1 FROM prompt_versions WHERE prompt_id = $1`,
			promptID,
		).Scan(&next); err != nil {
			return fmt.Errorf("allocating version number: %w", err)
		}

		v := domainversion.New(promptID, next, content, description)
		_, err = tx.Exec(ctx,
			`INSERT INTO prompt_versions (`+versionColumns+`) VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			v.ID, v.PromptID, v.VersionNumber, v.Content, v.Description, v.PublishedAt, v.CreatedAt,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return errs.ErrConflict
			}
			return fmt.Errorf("inserting version: %w", err)
		}

		_, err = tx.Exec(ctx,
			`UPDATE prompts SET current_version_id = $1, draft_content = NULL, status = $2, updated_at = NOW() WHERE id = $3`,
			v.ID, string(domainprompt.StatusPublished), promptID,
		)
		if err != nil {
			return fmt.Errorf("updating prompt pointer: %w", err)
		}

		published = v
		return nil
	})
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) || errors.Is(err, errs.ErrConflict) {
			return domainversion.Version{}, err
		}
		return domainversion.Version{}, errs.Store("publish version", err)
	}
	return published, nil
}

func (r *Repository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	// prompt_versions and prompt_tags cascade on the foreign key, so the
	// single statement removes the whole unit atomically.
	tag, err := r.pool.Exec(ctx, `DELETE FROM prompts WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return errs.Store("deleting prompt", err)
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func (r *Repository) ListVersions(ctx context.Context, promptID, userID uuid.UUID) ([]domainversion.Version, error) {
	// Ownership check up front keeps "no versions yet" distinguishable
	// from "not your prompt".
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM prompts WHERE id = $1 AND user_id = $2)`, promptID, userID,
	).Scan(&exists)
	if err != nil {
		return nil, errs.Store("checking prompt ownership", err)
	}
	if !exists {
		return nil, errs.ErrNotFound
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+versionColumns+` FROM prompt_versions WHERE prompt_id = $1 ORDER BY version_number DESC`,
		promptID,
	)
	if err != nil {
		return nil, errs.Store("listing versions", err)
	}
	defer rows.Close()

	versions := []domainversion.Version{}
	for rows.Next() {
		var v domainversion.Version
		if err := rows.Scan(&v.ID, &v.PromptID, &v.VersionNumber, &v.Content, &v.Description, &v.PublishedAt, &v.CreatedAt); err != nil {
			return nil, errs.Store("scanning version row", err)
		}
		versions = append(versions, v)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Store("iterating version rows", err)
	}
	return versions, nil
}

func (r *Repository) GetVersion(ctx context.Context, versionID, userID uuid.UUID) (domainversion.Version, error) {
	var v domainversion.Version
	err := r.pool.QueryRow(ctx, `
		SELECT v.id, v.prompt_id, v.version_number, v.content, v.description, v.published_at, v.created_at
		FROM prompt_versions v
		JOIN prompts p ON p.id = v.prompt_id
		WHERE v.id = $1 AND p.user_id = $2`,
		versionID, userID,
	).Scan(&v.ID, &v.PromptID, &v.VersionNumber, &v.Content, &v.Description, &v.PublishedAt, &v.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domainversion.Version{}, errs.ErrNotFound
		}
		return domainversion.Version{}, errs.Store("querying version", err)
	}
	return v, nil
}

// ── helpers ──────────────────────────────────────────────────────────────

func (r *Repository) getVersionByID(ctx context.Context, id uuid.UUID) (domainversion.Version, error) {
	var v domainversion.Version
	err := r.pool.QueryRow(ctx,
		`SELECT `+versionColumns+` FROM prompt_versions WHERE id = $1`, id,
	).Scan(&v.ID, &v.PromptID, &v.VersionNumber, &v.Content, &v.Description, &v.PublishedAt, &v.CreatedAt)
	if err != nil {
		return domainversion.Version{}, errs.Store("querying current version", err)
	}
	return v, nil
}

func (r *Repository) tagsFor(ctx context.Context, promptIDs []uuid.UUID) (map[uuid.UUID][]domaintag.Tag, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT pt.prompt_id, t.id, t.user_id, t.name, t.color, t.created_at
		FROM prompt_tags pt
		JOIN tags t ON t.id = pt.tag_id
		WHERE pt.prompt_id = ANY($1)
		ORDER BY t.name`,
		promptIDs,
	)
	if err != nil {
		return nil, errs.Store("querying prompt tags", err)
	}
	defer rows.Close()

	out := make(map[uuid.UUID][]domaintag.Tag)
	for rows.Next() {
		var promptID uuid.UUID
		var t domaintag.Tag
		if err := rows.Scan(&promptID, &t.ID, &t.UserID, &t.Name, &t.Color, &t.CreatedAt); err != nil {
			return nil, errs.Store("scanning prompt tag row", err)
		}
		out[promptID] = append(out[promptID], t)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Store("iterating prompt tag rows", err)
	}
	return out, nil
}

func (r *Repository) versionSummaries(ctx context.Context, versionIDs []uuid.UUID) (map[uuid.UUID]domainprompt.VersionSummary, error) {
	out := make(map[uuid.UUID]domainprompt.VersionSummary)
	if len(versionIDs) == 0 {
		return out, nil
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, version_number, published_at FROM prompt_versions WHERE id = ANY($1)`,
		versionIDs,
	)
	if err != nil {
		return nil, errs.Store("querying version summaries", err)
	}
	defer rows.Close()

	for rows.Next() {
		var s domainprompt.VersionSummary
		if err := rows.Scan(&s.ID, &s.VersionNumber, &s.PublishedAt); err != nil {
			return nil, errs.Store("scanning version summary", err)
		}
		out[s.ID] = s
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Store("iterating version summaries", err)
	}
	return out, nil
}

// replaceTags writes the association set. With clear set, existing rows are
// removed first (replace-all semantics on draft saves).
func replaceTags(ctx context.Context, tx pgx.Tx, promptID uuid.UUID, tagIDs []uuid.UUID, clear bool) error {
	if clear {
		if _, err := tx.Exec(ctx, `DELETE FROM prompt_tags WHERE prompt_id = $1`, promptID); err != nil {
			return fmt.Errorf("clearing prompt tags: %w", err)
		}
	}
	for _, tagID := range tagIDs {
		if _, err := tx.Exec(ctx,
			`INSERT INTO prompt_tags (prompt_id, tag_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			promptID, tagID,
		); err != nil {
			return fmt.Errorf("inserting prompt tag: %w", err)
		}
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
