package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema is applied at startup; every statement is idempotent.
const schema = `
CREATE TABLE IF NOT EXISTS prompts (
	id UUID PRIMARY KEY,
	user_id UUID NOT NULL,
	title VARCHAR(200) NOT NULL,
	current_version_id UUID,
	draft_content TEXT,
	status VARCHAR(30) NOT NULL DEFAULT 'draft',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_prompts_user_id ON prompts (user_id);
CREATE INDEX IF NOT EXISTS idx_prompts_user_status ON prompts (user_id, status);
CREATE INDEX IF NOT EXISTS idx_prompts_updated_at ON prompts (updated_at);

CREATE TABLE IF NOT EXISTS prompt_versions (
	id UUID PRIMARY KEY,
	prompt_id UUID NOT NULL REFERENCES prompts(id) ON DELETE CASCADE,
	version_number INTEGER NOT NULL CHECK (version_number >= 1),
	content TEXT NOT NULL,
	description TEXT,
	published_at TIMESTAMPTZ NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_versions_prompt_id ON prompt_versions (prompt_id);
CREATE UNIQUE INDEX IF NOT EXISTS idx_unique_version ON prompt_versions (prompt_id, version_number);

CREATE TABLE IF NOT EXISTS tags (
	id UUID PRIMARY KEY,
	user_id UUID NOT NULL,
	name VARCHAR(50) NOT NULL,
	color VARCHAR(7) NOT NULL DEFAULT '#6366f1',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_tags_user_id ON tags (user_id);
CREATE UNIQUE INDEX IF NOT EXISTS idx_unique_user_tag ON tags (user_id, name);

CREATE TABLE IF NOT EXISTS prompt_tags (
	prompt_id UUID NOT NULL REFERENCES prompts(id) ON DELETE CASCADE,
	tag_id UUID NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
	PRIMARY KEY (prompt_id, tag_id)
);
CREATE INDEX IF NOT EXISTS idx_prompt_tags_tag_id ON prompt_tags (tag_id);
`

// Migrate applies the schema. Safe to run on every boot.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("applying schema: %w", err)
	}
	return nil
}
