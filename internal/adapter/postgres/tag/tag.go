package tag

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mliu/prompthub/internal/domain/errs"
	domaintag "github.com/mliu/prompthub/internal/domain/tag"
)

const tagColumns = "id, user_id, name, color, created_at"

// Repository implements port/tag.Repository on Postgres.
type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Create(ctx context.Context, t domaintag.Tag) (domaintag.Tag, error) {
	var created domaintag.Tag
	err := r.pool.QueryRow(ctx,
		`INSERT INTO tags (`+tagColumns+`) VALUES ($1,$2,$3,$4,$5) RETURNING `+tagColumns,
		t.ID, t.UserID, t.Name, t.Color, t.CreatedAt,
	).Scan(&created.ID, &created.UserID, &created.Name, &created.Color, &created.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domaintag.Tag{}, errs.ErrConflict
		}
		return domaintag.Tag{}, errs.Store("inserting tag", err)
	}
	return created, nil
}

func (r *Repository) GetByID(ctx context.Context, id, userID uuid.UUID) (domaintag.Tag, error) {
	var t domaintag.Tag
	err := r.pool.QueryRow(ctx,
		`SELECT `+tagColumns+` FROM tags WHERE id = $1 AND user_id = $2`, id, userID,
	).Scan(&t.ID, &t.UserID, &t.Name, &t.Color, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domaintag.Tag{}, errs.ErrNotFound
		}
		return domaintag.Tag{}, errs.Store("querying tag", err)
	}
	return t, nil
}

func (r *Repository) List(ctx context.Context, userID uuid.UUID) ([]domaintag.Tag, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+tagColumns+` FROM tags WHERE user_id = $1 ORDER BY name`, userID,
	)
	if err != nil {
		return nil, errs.Store("listing tags", err)
	}
	defer rows.Close()

	tags := []domaintag.Tag{}
	for rows.Next() {
		var t domaintag.Tag
		if err := rows.Scan(&t.ID, &t.UserID, &t.Name, &t.Color, &t.CreatedAt); err != nil {
			return nil, errs.Store("scanning tag row", err)
		}
		tags = append(tags, t)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Store("iterating tag rows", err)
	}
	return tags, nil
}

func (r *Repository) ListWithCounts(ctx context.Context, userID uuid.UUID) ([]domaintag.WithCount, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT t.id, t.user_id, t.name, t.color, t.created_at, count(pt.prompt_id)::int
		FROM tags t
		LEFT JOIN prompt_tags pt ON pt.tag_id = t.id
		WHERE t.user_id = $1
		GROUP BY t.id, t.user_id, t.name, t.color, t.created_at
		ORDER BY count(pt.prompt_id) DESC, t.name`,
		userID,
	)
	if err != nil {
		return nil, errs.Store("listing tags with counts", err)
	}
	defer rows.Close()

	tags := []domaintag.WithCount{}
	for rows.Next() {
		var t domaintag.WithCount
		if err := rows.Scan(&t.ID, &t.UserID, &t.Name, &t.Color, &t.CreatedAt, &t.PromptCount); err != nil {
			return nil, errs.Store("scanning tag count row", err)
		}
		tags = append(tags, t)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Store("iterating tag count rows", err)
	}
	return tags, nil
}

func (r *Repository) Update(ctx context.Context, id, userID uuid.UUID, name, color *string) (domaintag.Tag, error) {
	set := ""
	args := []interface{}{id, userID}
	argIdx := 3

	if name != nil {
		set += fmt.Sprintf(", name = $%d", argIdx)
		args = append(args, *name)
		argIdx++
	}
	if color != nil {
		set += fmt.Sprintf(", color = $%d", argIdx)
		args = append(args, *color)
		argIdx++
	}
	if set == "" {
		return r.GetByID(ctx, id, userID)
	}

	var t domaintag.Tag
	query := "UPDATE tags SET " + set[2:] + " WHERE id = $1 AND user_id = $2 RETURNING " + tagColumns
	err := r.pool.QueryRow(ctx, query, args...).Scan(&t.ID, &t.UserID, &t.Name, &t.Color, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domaintag.Tag{}, errs.ErrNotFound
		}
		if isUniqueViolation(err) {
			return domaintag.Tag{}, errs.ErrConflict
		}
		return domaintag.Tag{}, errs.Store("updating tag", err)
	}
	return t, nil
}

func (r *Repository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM tags WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return errs.Store("deleting tag", err)
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
